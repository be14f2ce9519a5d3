package playername

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"Nikola Jokić", "nikola jokic"},
		{"Karl-Anthony Towns", "karlanthony towns"},
		{"K. Towns", "k towns"},
		{"De'Aaron Fox", "deaaron fox"},
		{"  Jimmy   BUTLER  III ", "jimmy butler iii"},
		{"Kristaps Porziņģis", "kristaps porzingis"},
		{"Gary Trent Jr.", "gary trent jr"},
		{"Jusuf Nurkić", "jusuf nurkic"},
		{"Shai Gilgeous–Alexander", "shai gilgeousalexander"},
		{"P.J. Washington", "pj washington"},
		{"Nah'Shon Hyland (questionable)", "nahshon hyland questionable"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Normalize(tc.raw); got != tc.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, raw := range []string{"Nikola Jokić", "O'Neal, Shaquille", "Karl-Anthony Towns", "LUKA  Dončić", "Jaren Jackson Jr."} {
		once := Normalize(raw)
		if twice := Normalize(once); twice != once {
			t.Fatalf("Normalize not idempotent for %q: %q then %q", raw, once, twice)
		}
	}
}

func TestNormalize_IdempotentAcrossRunes(t *testing.T) {
	for r := rune(0x20); r <= 0x3000; r++ {
		raw := "a" + string(r) + "b Smith"
		once := Normalize(raw)
		if twice := Normalize(once); twice != once {
			t.Fatalf("Normalize not idempotent for U+%04X: %q then %q", r, once, twice)
		}
	}
}

func TestNormalize_FoldsCapitalSharpS(t *testing.T) {
	if got := Normalize("STRAẞE"); got != "strasse" {
		t.Fatalf("Normalize(%q) = %q, want %q", "STRAẞE", got, "strasse")
	}
}

func TestNormalize_CaseDiacriticPunctuationInsensitive(t *testing.T) {
	if Normalize("LUKA DONČIĆ") != Normalize("luka doncic") {
		t.Fatalf("expected case and diacritics to be ignored")
	}
	if Normalize("D'Angelo Russell") != Normalize("DAngelo Russell") {
		t.Fatalf("expected apostrophes to be ignored")
	}
}

func TestStripSuffix(t *testing.T) {
	cases := map[string]string{
		"jimmy butler iii":   "jimmy butler",
		"jimmy butler":       "jimmy butler",
		"gary trent jr":      "gary trent",
		"marvin bagley 3rd":  "marvin bagley",
		"robert williams iv": "robert williams",
		"v":                  "v",
		"":                   "",
	}
	for in, want := range cases {
		if got := StripSuffix(in); got != want {
			t.Fatalf("StripSuffix(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSplitNameParts(t *testing.T) {
	cases := []struct {
		key, given, surname string
	}{
		{"karlanthony towns", "karlanthony", "towns"},
		{"shai gilgeous alexander", "shai gilgeous", "alexander"},
		{"nene", "", "nene"},
		{"", "", ""},
	}
	for _, tc := range cases {
		given, surname := SplitNameParts(tc.key)
		if given != tc.given || surname != tc.surname {
			t.Fatalf("SplitNameParts(%q) = (%q, %q), want (%q, %q)", tc.key, given, surname, tc.given, tc.surname)
		}
	}
}

func TestStrictMatch(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"k towns", "karlanthony towns", true},
		{"karlanthony towns", "k towns", true},
		{"jimmy butler iii", "jimmy butler", true},
		{"r williams", "robert williams", true},
		{"r williams", "grant williams", false},
		{"jalen williams", "jaylin williams", false},
		{"towns", "karlanthony towns", false},
	}
	for _, tc := range cases {
		if got := StrictMatch(tc.a, tc.b); got != tc.want {
			t.Fatalf("StrictMatch(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestMappings_Canonical(t *testing.T) {
	m := NewMappings(map[string]string{"Scoot": "Scoot Henderson"})
	if got, ok := m.Canonical("k towns"); !ok || got != "karlanthony towns" {
		t.Fatalf("unexpected canonical for k towns: %q %v", got, ok)
	}
	if got, ok := m.Canonical("scoot"); !ok || got != "scoot henderson" {
		t.Fatalf("unexpected canonical for scoot: %q %v", got, ok)
	}
	if _, ok := m.Canonical("jimmy butler"); ok {
		t.Fatalf("expected no mapping")
	}
}
