package postgres

import (
	"database/sql"
	"time"

	"github.com/riskibarqy/playerlink/internal/domain/identity"
)

type identityTableModel struct {
	ID             int64          `db:"id"`
	DisplayName    string         `db:"display_name"`
	NormalizedName string         `db:"normalized_name"`
	Surname        string         `db:"surname"`
	ExternalID     string         `db:"external_id"`
	Position       sql.NullString `db:"position"`
	TeamKey        sql.NullString `db:"team_key"`
	FirstSeen      time.Time      `db:"first_seen"`
	LastSeen       time.Time      `db:"last_seen"`
}

type identityInsertModel struct {
	DisplayName    string         `db:"display_name"`
	NormalizedName string         `db:"normalized_name"`
	Surname        string         `db:"surname"`
	ExternalID     string         `db:"external_id"`
	Position       sql.NullString `db:"position"`
	TeamKey        sql.NullString `db:"team_key"`
	FirstSeen      time.Time      `db:"first_seen"`
	LastSeen       time.Time      `db:"last_seen"`
}

type aliasInsertModel struct {
	IdentityID     int64  `db:"identity_id"`
	Source         string `db:"source"`
	SourceName     string `db:"source_name"`
	NormalizedName string `db:"normalized_name"`
}

func (m identityTableModel) toDomain() identity.Identity {
	return identity.Identity{
		ID:             m.ID,
		DisplayName:    m.DisplayName,
		NormalizedName: m.NormalizedName,
		ExternalID:     m.ExternalID,
		Position:       m.Position.String,
		TeamKey:        m.TeamKey.String,
		FirstSeen:      m.FirstSeen,
		LastSeen:       m.LastSeen,
	}
}
