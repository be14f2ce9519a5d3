package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/playerlink/internal/domain/mismatch"
	qb "github.com/riskibarqy/playerlink/internal/platform/querybuilder"
)

const mismatchTable = "mismatch_queue"

type mismatchTableModel struct {
	ID              int64          `db:"id"`
	RecordID        int64          `db:"record_id"`
	PlayerID        int64          `db:"player_id"`
	GameDate        time.Time      `db:"game_date"`
	HomeTeam        string         `db:"home_team"`
	AwayTeam        string         `db:"away_team"`
	NormalizedName  string         `db:"normalized_name"`
	Reason          string         `db:"reason"`
	Resolved        bool           `db:"resolved"`
	ResolutionNotes sql.NullString `db:"resolution_notes"`
	CreatedAt       time.Time      `db:"created_at"`
	ResolvedAt      *time.Time     `db:"resolved_at"`
}

type mismatchInsertModel struct {
	RecordID       int64     `db:"record_id"`
	PlayerID       int64     `db:"player_id"`
	GameDate       time.Time `db:"game_date"`
	HomeTeam       string    `db:"home_team"`
	AwayTeam       string    `db:"away_team"`
	NormalizedName string    `db:"normalized_name"`
	Reason         string    `db:"reason"`
}

var mismatchSelectColumns = []string{
	"id",
	"record_id",
	"player_id",
	"game_date",
	"home_team",
	"away_team",
	"normalized_name",
	"reason",
	"resolved",
	"resolution_notes",
	"created_at",
	"resolved_at",
}

type MismatchRepository struct {
	db *sqlx.DB
}

func NewMismatchRepository(db *sqlx.DB) *MismatchRepository {
	return &MismatchRepository{db: db}
}

// EnqueueUnresolved relies on the partial unique index over unresolved record ids.
func (r *MismatchRepository) EnqueueUnresolved(ctx context.Context, e mismatch.Entry) (bool, error) {
	if err := e.Validate(); err != nil {
		return false, err
	}

	insertModel := mismatchInsertModel{
		RecordID:       e.RecordID,
		PlayerID:       e.PlayerID,
		GameDate:       e.GameDate,
		HomeTeam:       e.HomeTeam,
		AwayTeam:       e.AwayTeam,
		NormalizedName: e.NormalizedName,
		Reason:         e.Reason,
	}
	query, args, err := qb.InsertModel(mismatchTable, insertModel, `ON CONFLICT (record_id) WHERE resolved = FALSE DO NOTHING
RETURNING id`)
	if err != nil {
		return false, errors.Wrap(err, "build enqueue mismatch query")
	}

	var id int64
	if err := r.db.GetContext(ctx, &id, query, args...); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, errors.Wrap(err, "enqueue mismatch")
	}
	return true, nil
}

func (r *MismatchRepository) ListUnresolved(ctx context.Context, limit int) ([]mismatch.Entry, error) {
	query, args, err := qb.Select(mismatchSelectColumns...).From(mismatchTable).
		Where(qb.Eq("resolved", false)).
		OrderBy("created_at", "id").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build list mismatches query")
	}

	var rows []mismatchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "list mismatches")
	}
	out := make([]mismatch.Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, mismatch.Entry{
			ID:              row.ID,
			RecordID:        row.RecordID,
			PlayerID:        row.PlayerID,
			GameDate:        row.GameDate,
			HomeTeam:        row.HomeTeam,
			AwayTeam:        row.AwayTeam,
			NormalizedName:  row.NormalizedName,
			Reason:          row.Reason,
			Resolved:        row.Resolved,
			ResolutionNotes: row.ResolutionNotes.String,
			CreatedAt:       row.CreatedAt,
			ResolvedAt:      row.ResolvedAt,
		})
	}
	return out, nil
}

func (r *MismatchRepository) Resolve(ctx context.Context, recordID int64, notes string) error {
	query, args, err := qb.Update(mismatchTable).
		Set("resolved", true).
		Set("resolution_notes", nullString(notes)).
		SetExpr("resolved_at", "NOW()").
		Where(qb.Eq("record_id", recordID), qb.Eq("resolved", false)).
		ToSQL()
	if err != nil {
		return errors.Wrap(err, "build resolve mismatch query")
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "resolve mismatch")
	}
	return nil
}
