package playername

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Lower-case letters that do not decompose under NFKD.
var foldLetters = map[rune]string{
	'ø': "o",
	'ł': "l",
	'đ': "d",
	'ß': "ss",
	'æ': "ae",
	'œ': "oe",
	'ı': "i",
}

var generationalSuffixes = map[string]struct{}{
	"jr": {}, "sr": {},
	"ii": {}, "iii": {}, "iv": {}, "v": {},
	"2nd": {}, "3rd": {}, "4th": {},
}

// Normalize returns the comparison key for a raw player name: lower case, no diacritics,
// apostrophes/hyphens/periods removed, every other separator collapsed into one space.
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	// Chained transformers carry state, so build one per call.
	stripMarks := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	decomposed, _, err := transform.String(stripMarks, raw)
	if err != nil {
		decomposed = raw
	}

	var b strings.Builder
	b.Grow(len(decomposed))
	pendingSpace := false
	for _, r := range decomposed {
		switch {
		case isDropped(r):
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			lower := unicode.ToLower(r)
			if folded, ok := foldLetters[lower]; ok {
				b.WriteString(folded)
				continue
			}
			b.WriteRune(lower)
		default:
			pendingSpace = true
		}
	}
	return b.String()
}

func isDropped(r rune) bool {
	switch r {
	case '\'', '’', '‘', '`', 'ʼ', '.':
		return true
	}
	return unicode.Is(unicode.Hyphen, r) || unicode.Is(unicode.Dash, r)
}

// StripSuffix removes one trailing generational suffix (jr, sr, ii-v, 2nd-4th) from a
// normalized key. Single-token keys are returned unchanged.
func StripSuffix(key string) string {
	tokens := strings.Fields(key)
	if len(tokens) < 2 {
		return key
	}
	if _, ok := generationalSuffixes[tokens[len(tokens)-1]]; !ok {
		return key
	}
	return strings.Join(tokens[:len(tokens)-1], " ")
}

// SplitNameParts splits a normalized key into given name and surname. The surname is the
// last token; a single-token key has an empty given name.
func SplitNameParts(key string) (given, surname string) {
	tokens := strings.Fields(key)
	switch len(tokens) {
	case 0:
		return "", ""
	case 1:
		return "", tokens[0]
	default:
		return strings.Join(tokens[:len(tokens)-1], " "), tokens[len(tokens)-1]
	}
}

// Surname is the last token after the generational suffix is removed.
func Surname(key string) string {
	_, surname := SplitNameParts(StripSuffix(key))
	return surname
}

// InitialMatch reports whether two given names agree: equal, or one is a single letter
// that starts the other. Either side may be the initial.
func InitialMatch(a, b string) bool {
	if a == b {
		return true
	}
	if a == "" || b == "" {
		return false
	}
	if len(a) == 1 && strings.HasPrefix(b, a) {
		return true
	}
	return len(b) == 1 && strings.HasPrefix(a, b)
}

// IsInitial reports a single-letter given name such as the "r" in "r williams".
func IsInitial(given string) bool {
	return len(given) == 1
}

// StrictMatch compares two normalized keys by first token and surname after suffix
// stripping, allowing an initial on either side.
func StrictMatch(a, b string) bool {
	aFirst, aSurname := firstAndSurname(StripSuffix(a))
	bFirst, bSurname := firstAndSurname(StripSuffix(b))
	if aSurname == "" || aSurname != bSurname {
		return false
	}
	return InitialMatch(aFirst, bFirst)
}

func firstAndSurname(key string) (string, string) {
	given, surname := SplitNameParts(key)
	first, _, _ := strings.Cut(given, " ")
	return first, surname
}
