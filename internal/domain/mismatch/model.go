package mismatch

import (
	"time"

	"github.com/cockroachdb/errors"
)

var ErrNotFound = errors.New("mismatch entry not found")

// Entry is one unresolved reconciliation awaiting operator review.
type Entry struct {
	ID              int64
	RecordID        int64
	PlayerID        int64
	GameDate        time.Time
	HomeTeam        string
	AwayTeam        string
	NormalizedName  string
	Reason          string
	Resolved        bool
	ResolutionNotes string
	CreatedAt       time.Time
	ResolvedAt      *time.Time
}

func (e Entry) Validate() error {
	if e.RecordID <= 0 {
		return errors.New("mismatch record id is required")
	}
	if e.NormalizedName == "" {
		return errors.New("mismatch normalized name is required")
	}
	if e.GameDate.IsZero() {
		return errors.New("mismatch game date is required")
	}
	return nil
}

// Reasons recorded on entries.
const (
	ReasonNoCandidate      = "no_candidate"
	ReasonAmbiguous        = "ambiguous"
	ReasonInconsistentIDs  = "inconsistent_external_ids"
	ReasonTeamDisagreement = "team_context_disagrees"
	ReasonWriteFailed      = "write_failed"
)
