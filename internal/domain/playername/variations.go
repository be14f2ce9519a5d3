package playername

import (
	"strings"
	"unicode/utf8"
)

// Variations lists alternate keys for a raw name in lookup order: drop middle names,
// first initial + surname, first + middle initial + surname, both initials, and the
// hyphen-split form. The exact key and duplicates are omitted.
func Variations(raw string) []string {
	key := Normalize(raw)
	tokens := strings.Fields(StripSuffix(key))

	var out []string
	seen := map[string]struct{}{key: {}, "": {}}
	add := func(v string) {
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	if len(tokens) >= 2 {
		first, last := tokens[0], tokens[len(tokens)-1]
		middle := tokens[1 : len(tokens)-1]

		add(first + " " + last)
		add(initial(first) + " " + last)
		if len(middle) > 0 {
			add(first + " " + initial(middle[0]) + " " + last)
			add(initial(first) + " " + initial(middle[0]) + " " + last)
		}
	}

	if strings.ContainsAny(raw, "-‐‑–") {
		add(Normalize(strings.NewReplacer("-", " ", "‐", " ", "‑", " ", "–", " ").Replace(raw)))
	}
	return out
}

func initial(token string) string {
	_, size := utf8.DecodeRuneInString(token)
	return token[:size]
}
