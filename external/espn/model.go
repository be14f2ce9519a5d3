package espn

import (
	"strconv"
	"strings"
)

// flexID decodes ids that ESPN sends either as strings or numbers.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*f = ""
		return nil
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = unquoted
	}
	*f = flexID(strings.TrimSpace(raw))
	return nil
}

func (f flexID) String() string { return string(f) }

type teamRef struct {
	ID          flexID `json:"id"`
	DisplayName string `json:"displayName"`
}

type scoreboardEnvelope struct {
	Events []scoreboardEvent `json:"events"`
}

type scoreboardEvent struct {
	ID     string `json:"id"`
	Date   string `json:"date"`
	Status struct {
		Type struct {
			Name      string `json:"name"`
			Completed bool   `json:"completed"`
		} `json:"type"`
	} `json:"status"`
	Competitions []struct {
		Competitors []struct {
			HomeAway string  `json:"homeAway"`
			Team     teamRef `json:"team"`
		} `json:"competitors"`
	} `json:"competitions"`
}

type summaryEnvelope struct {
	Boxscore struct {
		Players []summaryTeam `json:"players"`
	} `json:"boxscore"`
	Injuries []summaryInjuryGroup `json:"injuries"`
}

type summaryTeam struct {
	Team       teamRef `json:"team"`
	Statistics []struct {
		Names    []string         `json:"names"`
		Labels   []string         `json:"labels"`
		Athletes []summaryAthlete `json:"athletes"`
	} `json:"statistics"`
}

type athleteRef struct {
	ID          flexID `json:"id"`
	DisplayName string `json:"displayName"`
	Position    struct {
		Abbreviation string `json:"abbreviation"`
	} `json:"position"`
}

type summaryAthlete struct {
	Athlete    athleteRef `json:"athlete"`
	Stats      []string   `json:"stats"`
	DidNotPlay bool       `json:"didNotPlay"`
}

type summaryInjuryGroup struct {
	Team     teamRef `json:"team"`
	Injuries []struct {
		Status  string     `json:"status"`
		Athlete athleteRef `json:"athlete"`
	} `json:"injuries"`
}
