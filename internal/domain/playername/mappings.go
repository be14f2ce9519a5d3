package playername

// knownShorthands maps normalized odds-feed shorthands to canonical display names.
var knownShorthands = map[string]string{
	"j tatum":     "Jayson Tatum",
	"k towns":     "Karl-Anthony Towns",
	"rj barrett":  "RJ Barrett",
	"og anunoby":  "OG Anunoby",
	"sga":         "Shai Gilgeous-Alexander",
	"ant edwards": "Anthony Edwards",
	"jjj":         "Jaren Jackson Jr.",
	"mpj":         "Michael Porter Jr.",
}

// Mappings resolves well-known shorthand names. The zero value has no entries beyond the
// built-in table; use NewMappings to extend it from configuration.
type Mappings struct {
	extra map[string]string
}

func NewMappings(extra map[string]string) Mappings {
	m := Mappings{extra: make(map[string]string, len(extra))}
	for from, to := range extra {
		if k, v := Normalize(from), Normalize(to); k != "" && v != "" {
			m.extra[k] = v
		}
	}
	return m
}

// Canonical returns the mapped key for an already normalized key.
func (m Mappings) Canonical(key string) (string, bool) {
	if v, ok := m.extra[key]; ok {
		return v, true
	}
	if v, ok := knownShorthands[key]; ok {
		return Normalize(v), true
	}
	return "", false
}
