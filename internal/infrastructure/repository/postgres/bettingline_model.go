package postgres

import (
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/riskibarqy/playerlink/internal/domain/bettingline"
)

type bettingLineTableModel struct {
	ID                int64          `db:"id"`
	PlayerID          int64          `db:"player_id"`
	PlayerName        string         `db:"player_name"`
	NormalizedName    string         `db:"normalized_name"`
	GameDate          time.Time      `db:"game_date"`
	ProviderEventID   string         `db:"provider_event_id"`
	HomeTeam          string         `db:"home_team"`
	AwayTeam          string         `db:"away_team"`
	HomeTeamKey       string         `db:"home_team_key"`
	AwayTeamKey       string         `db:"away_team_key"`
	Lines             string         `db:"lines"`
	Actuals           sql.NullString `db:"actuals"`
	DidNotPlay        bool           `db:"did_not_play"`
	PlayerTeam        sql.NullString `db:"player_team"`
	OpponentTeam      sql.NullString `db:"opponent_team"`
	EventID           sql.NullString `db:"event_id"`
	MatchedExternalID sql.NullString `db:"matched_external_id"`
	Status            string         `db:"status"`
	ReconciledAt      *time.Time     `db:"reconciled_at"`
}

type bettingLineInsertModel struct {
	PlayerID        int64     `db:"player_id"`
	PlayerName      string    `db:"player_name"`
	NormalizedName  string    `db:"normalized_name"`
	GameDate        time.Time `db:"game_date"`
	ProviderEventID string    `db:"provider_event_id"`
	HomeTeam        string    `db:"home_team"`
	AwayTeam        string    `db:"away_team"`
	HomeTeamKey     string    `db:"home_team_key"`
	AwayTeamKey     string    `db:"away_team_key"`
	Lines           string    `db:"lines"`
	Status          string    `db:"status"`
}

func (m bettingLineTableModel) toDomain() (bettingline.Record, error) {
	rec := bettingline.Record{
		ID:                m.ID,
		PlayerID:          m.PlayerID,
		PlayerName:        m.PlayerName,
		NormalizedName:    m.NormalizedName,
		GameDate:          bettingline.DateOf(m.GameDate),
		ProviderEventID:   m.ProviderEventID,
		HomeTeam:          m.HomeTeam,
		AwayTeam:          m.AwayTeam,
		HomeTeamKey:       m.HomeTeamKey,
		AwayTeamKey:       m.AwayTeamKey,
		DidNotPlay:        m.DidNotPlay,
		PlayerTeam:        m.PlayerTeam.String,
		OpponentTeam:      m.OpponentTeam.String,
		EventID:           m.EventID.String,
		MatchedExternalID: m.MatchedExternalID.String,
		Status:            bettingline.Status(m.Status),
		ReconciledAt:      m.ReconciledAt,
	}
	if err := decodeJSON(m.Lines, &rec.Lines); err != nil {
		return bettingline.Record{}, errors.Wrapf(err, "record %d lines", m.ID)
	}
	if rec.Lines == nil {
		rec.Lines = make(map[bettingline.StatType]bettingline.Line)
	}
	if m.Actuals.Valid {
		if err := decodeJSON(m.Actuals.String, &rec.Actuals); err != nil {
			return bettingline.Record{}, errors.Wrapf(err, "record %d actuals", m.ID)
		}
	}
	return rec, nil
}
