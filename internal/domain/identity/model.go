package identity

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// Source names the feed a name was observed in. Aliases are unique per (source, key).
type Source string

const (
	SourceOddsAPI Source = "odds_api"
	SourceESPN    Source = "espn"
	SourceManual  Source = "manual"
)

const placeholderPrefix = "pending_"

var (
	ErrNotFound = errors.New("player identity not found")
	// ErrExternalIDTaken is returned by Upgrade when another identity already owns the id.
	ErrExternalIDTaken = errors.New("external id already assigned to another identity")
	// ErrAliasConflict is returned by AddAlias when the (source, name) pair already points at
	// a different identity. Callers treat it as success: the first writer wins.
	ErrAliasConflict = errors.New("alias already mapped to another identity")
)

// Identity is the durable record for one real-world player.
type Identity struct {
	ID             int64
	DisplayName    string
	NormalizedName string
	ExternalID     string
	Position       string
	TeamKey        string
	FirstSeen      time.Time
	LastSeen       time.Time
}

// HasAuthoritativeID reports whether ExternalID is a real id from the authoritative source.
func (i Identity) HasAuthoritativeID() bool {
	return i.ExternalID != "" && !IsPlaceholderID(i.ExternalID)
}

func (i Identity) IsPlaceholder() bool {
	return !i.HasAuthoritativeID()
}

// Alias maps a name as seen in one source to an identity.
type Alias struct {
	IdentityID     int64
	Source         Source
	SourceName     string
	NormalizedName string
}

// NewIdentity is the input for Create.
type NewIdentity struct {
	DisplayName    string
	NormalizedName string
	ExternalID     string
	Position       string
	TeamKey        string
	SeenDate       time.Time
}

func (n NewIdentity) Validate() error {
	if strings.TrimSpace(n.NormalizedName) == "" {
		return errors.New("identity normalized name is required")
	}
	if n.ExternalID == "" {
		return errors.New("identity external id is required")
	}
	if n.SeenDate.IsZero() {
		return errors.New("identity seen date is required")
	}
	return nil
}

// Upgrade is the input for Repository.Upgrade. Empty optional fields leave stored values.
type Upgrade struct {
	ID             int64
	ExternalID     string
	DisplayName    string
	NormalizedName string
	Position       string
	TeamKey        string
	SeenDate       time.Time
}

// PlaceholderID builds the synthetic external id for an identity seen only in a
// low-authority source.
func PlaceholderID(normalizedName string) string {
	return placeholderPrefix + strings.ReplaceAll(normalizedName, " ", "_")
}

func IsPlaceholderID(externalID string) bool {
	return strings.HasPrefix(externalID, placeholderPrefix)
}

// ApplyUpgrade returns the identity after u is applied. A real external id is never
// replaced, and a placeholder id never replaces anything.
func ApplyUpgrade(current Identity, u Upgrade) Identity {
	next := current
	if current.HasAuthoritativeID() {
		next.LastSeen = laterOf(current.LastSeen, u.SeenDate)
		if u.TeamKey != "" && u.ExternalID == current.ExternalID {
			next.TeamKey = u.TeamKey
		}
		return next
	}
	if u.ExternalID == "" || IsPlaceholderID(u.ExternalID) {
		next.LastSeen = laterOf(current.LastSeen, u.SeenDate)
		return next
	}

	next.ExternalID = u.ExternalID
	if u.DisplayName != "" {
		next.DisplayName = u.DisplayName
	}
	if u.NormalizedName != "" {
		next.NormalizedName = u.NormalizedName
	}
	if u.Position != "" {
		next.Position = u.Position
	}
	if u.TeamKey != "" {
		next.TeamKey = u.TeamKey
	}
	next.LastSeen = laterOf(current.LastSeen, u.SeenDate)
	return next
}

func laterOf(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
