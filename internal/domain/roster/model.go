package roster

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/riskibarqy/playerlink/internal/domain/bettingline"
)

// ErrMalformedBoxScore marks a box score that cannot be indexed.
var ErrMalformedBoxScore = errors.New("malformed box score")

// Team identifies one side of a game. Key is the sport adapter's normalized team name and
// is what betting-line records are matched on.
type Team struct {
	ExternalID string
	Name       string
	Key        string
}

type Athlete struct {
	ExternalID  string
	DisplayName string
	Position    string
	DidNotPlay  bool
	Stats       bettingline.StatLine
}

type TeamBox struct {
	Team     Team
	Athletes []Athlete
}

// InactivePlayer comes from the separately published injury/inactive list.
type InactivePlayer struct {
	ExternalID  string
	DisplayName string
	Status      string
	TeamKey     string
}

// BoxScore is one completed game as reported by the authoritative source.
type BoxScore struct {
	EventID  string
	GameDate time.Time
	Teams    []TeamBox
	Inactive []InactivePlayer
}

func (b BoxScore) Validate() error {
	if strings.TrimSpace(b.EventID) == "" {
		return errors.Mark(errors.New("box score event id is required"), ErrMalformedBoxScore)
	}
	if len(b.Teams) != 2 {
		return errors.Mark(errors.Newf("box score %s has %d teams, expected 2", b.EventID, len(b.Teams)), ErrMalformedBoxScore)
	}
	if b.Teams[0].Team.Key == "" || b.Teams[1].Team.Key == "" {
		return errors.Mark(errors.Newf("box score %s has a team without a key", b.EventID), ErrMalformedBoxScore)
	}
	if b.Teams[0].Team.Key == b.Teams[1].Team.Key {
		return errors.Mark(errors.Newf("box score %s lists %s twice", b.EventID, b.Teams[0].Team.Key), ErrMalformedBoxScore)
	}
	return nil
}

// Entry is one rostered player for one game. Stats is nil when DidNotPlay is set.
type Entry struct {
	ExternalID     string
	DisplayName    string
	NormalizedName string
	Position       string
	DidNotPlay     bool
	Status         string
	TeamKey        string
	Stats          bettingline.StatLine
}
