package bettingline

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

var ErrNotFound = errors.New("betting line record not found")

type StatType string

const (
	StatPoints         StatType = "points"
	StatRebounds       StatType = "rebounds"
	StatAssists        StatType = "assists"
	StatThrees         StatType = "threes"
	StatMinutes        StatType = "minutes"
	StatFieldGoalsMade StatType = "field_goals_made"
	StatFreeThrowsMade StatType = "free_throws_made"
	StatSteals         StatType = "steals"
	StatBlocks         StatType = "blocks"
	StatTurnovers      StatType = "turnovers"
	StatPlusMinus      StatType = "plus_minus"
)

// Status tracks reconciliation: pending -> reconciled, or pending -> mismatched -> reconciled.
type Status string

const (
	StatusPending    Status = "pending"
	StatusReconciled Status = "reconciled"
	StatusMismatched Status = "mismatched"
)

// Line is one offered prop. Prices are American odds.
type Line struct {
	Point      float64  `json:"point"`
	OverPrice  *float64 `json:"over_price,omitempty"`
	UnderPrice *float64 `json:"under_price,omitempty"`
	Bookmaker  string   `json:"bookmaker,omitempty"`
}

// StatLine is actual performance keyed by stat type. Nil means not reconciled or DNP.
type StatLine map[StatType]float64

// Record is one betting-line row per (player, provider event).
type Record struct {
	ID              int64
	PlayerID        int64
	PlayerName      string
	NormalizedName  string
	GameDate        time.Time
	ProviderEventID string
	HomeTeam        string
	AwayTeam        string
	HomeTeamKey     string
	AwayTeamKey     string
	Lines           map[StatType]Line

	Actuals           StatLine
	DidNotPlay        bool
	PlayerTeam        string
	OpponentTeam      string
	EventID           string
	MatchedExternalID string
	Status            Status
	ReconciledAt      *time.Time
}

// Actual returns the reconciled value for stat, if any.
func (r Record) Actual(stat StatType) (float64, bool) {
	v, ok := r.Actuals[stat]
	return v, ok
}

// TeamKeys lists the normalized home and away keys, skipping blanks.
func (r Record) TeamKeys() []string {
	keys := make([]string, 0, 2)
	for _, k := range []string{r.HomeTeamKey, r.AwayTeamKey} {
		if k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// LineUpsert carries one ingested line. Lines for the same player and provider event merge
// into one record.
type LineUpsert struct {
	PlayerID        int64
	PlayerName      string
	NormalizedName  string
	GameDate        time.Time
	ProviderEventID string
	HomeTeam        string
	AwayTeam        string
	HomeTeamKey     string
	AwayTeamKey     string
	Stat            StatType
	Line            Line
}

func (u LineUpsert) Validate() error {
	if u.PlayerID <= 0 {
		return errors.New("betting line player id is required")
	}
	if strings.TrimSpace(u.ProviderEventID) == "" {
		return errors.New("betting line provider event id is required")
	}
	if u.GameDate.IsZero() {
		return errors.New("betting line game date is required")
	}
	if u.Stat == "" {
		return errors.New("betting line stat type is required")
	}
	return nil
}

// Reconciliation is the result written back onto a record. Applying the same value twice
// leaves the record unchanged.
type Reconciliation struct {
	RecordID          int64
	Actuals           StatLine
	DidNotPlay        bool
	PlayerTeam        string
	OpponentTeam      string
	EventID           string
	MatchedExternalID string
	At                time.Time
}

// Apply returns r with the reconciliation written. ReconciledAt only moves when a field changes.
func (r Record) Apply(rec Reconciliation) Record {
	next := r
	if rec.DidNotPlay {
		next.Actuals = nil
	} else {
		next.Actuals = cloneStats(rec.Actuals)
	}
	next.DidNotPlay = rec.DidNotPlay
	next.PlayerTeam = rec.PlayerTeam
	next.OpponentTeam = rec.OpponentTeam
	next.EventID = rec.EventID
	next.MatchedExternalID = rec.MatchedExternalID
	next.Status = StatusReconciled
	if !r.sameReconciliation(next) || r.ReconciledAt == nil {
		at := rec.At
		next.ReconciledAt = &at
	}
	return next
}

func (r Record) sameReconciliation(o Record) bool {
	if r.Status != o.Status || r.DidNotPlay != o.DidNotPlay || r.PlayerTeam != o.PlayerTeam ||
		r.OpponentTeam != o.OpponentTeam || r.EventID != o.EventID || r.MatchedExternalID != o.MatchedExternalID {
		return false
	}
	if len(r.Actuals) != len(o.Actuals) {
		return false
	}
	for k, v := range r.Actuals {
		if ov, ok := o.Actuals[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

func cloneStats(in StatLine) StatLine {
	if in == nil {
		return nil
	}
	out := make(StatLine, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// DateOf truncates t to its calendar date in UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MergeLine folds an incoming line into the stored one. The point and bookmaker follow the
// newest quote; a price is only replaced by a non-nil price.
func MergeLine(current, incoming Line) Line {
	next := current
	next.Point = incoming.Point
	if incoming.Bookmaker != "" {
		next.Bookmaker = incoming.Bookmaker
	}
	if incoming.OverPrice != nil {
		v := *incoming.OverPrice
		next.OverPrice = &v
	}
	if incoming.UnderPrice != nil {
		v := *incoming.UnderPrice
		next.UnderPrice = &v
	}
	return next
}
