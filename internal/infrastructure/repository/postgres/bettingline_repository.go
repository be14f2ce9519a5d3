package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/riskibarqy/playerlink/internal/domain/bettingline"
	qb "github.com/riskibarqy/playerlink/internal/platform/querybuilder"
)

const bettingLinesTable = "betting_lines"

var bettingLineSelectColumns = []string{
	"id",
	"player_id",
	"player_name",
	"normalized_name",
	"game_date",
	"provider_event_id",
	"home_team",
	"away_team",
	"home_team_key",
	"away_team_key",
	"lines::text AS lines",
	"actuals::text AS actuals",
	"did_not_play",
	"player_team",
	"opponent_team",
	"event_id",
	"matched_external_id",
	"status",
	"reconciled_at",
}

type BettingLineRepository struct {
	db *sqlx.DB
}

func NewBettingLineRepository(db *sqlx.DB) *BettingLineRepository {
	return &BettingLineRepository{db: db}
}

func (r *BettingLineRepository) GetByID(ctx context.Context, id int64) (bettingline.Record, error) {
	query, args, err := qb.Select(bettingLineSelectColumns...).From(bettingLinesTable).
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return bettingline.Record{}, errors.Wrap(err, "build get betting line query")
	}
	var row bettingLineTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return bettingline.Record{}, errors.Wrapf(bettingline.ErrNotFound, "record %d", id)
		}
		return bettingline.Record{}, errors.Wrap(err, "get betting line")
	}
	return row.toDomain()
}

// UpsertLine creates the (player, provider event) row if needed, then merges the line
// under a row lock.
func (r *BettingLineRepository) UpsertLine(ctx context.Context, in bettingline.LineUpsert) (bettingline.Record, error) {
	if err := in.Validate(); err != nil {
		return bettingline.Record{}, err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return bettingline.Record{}, errors.Wrap(err, "begin upsert betting line tx")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	insertModel := bettingLineInsertModel{
		PlayerID:        in.PlayerID,
		PlayerName:      in.PlayerName,
		NormalizedName:  in.NormalizedName,
		GameDate:        bettingline.DateOf(in.GameDate),
		ProviderEventID: in.ProviderEventID,
		HomeTeam:        in.HomeTeam,
		AwayTeam:        in.AwayTeam,
		HomeTeamKey:     in.HomeTeamKey,
		AwayTeamKey:     in.AwayTeamKey,
		Lines:           "{}",
		Status:          string(bettingline.StatusPending),
	}
	insertQuery, insertArgs, err := qb.InsertModel(bettingLinesTable, insertModel, `ON CONFLICT (player_id, provider_event_id) DO NOTHING`)
	if err != nil {
		return bettingline.Record{}, errors.Wrap(err, "build insert betting line query")
	}
	if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
		return bettingline.Record{}, errors.Wrap(err, "insert betting line")
	}

	current, err := r.lock(ctx, tx, qb.Eq("player_id", in.PlayerID), qb.Eq("provider_event_id", in.ProviderEventID))
	if err != nil {
		return bettingline.Record{}, err
	}
	current.Lines[in.Stat] = bettingline.MergeLine(current.Lines[in.Stat], in.Line)

	encoded, err := encodeJSON(current.Lines)
	if err != nil {
		return bettingline.Record{}, err
	}
	updateQuery, updateArgs, err := qb.Update(bettingLinesTable).
		SetExpr("lines", "?::jsonb", encoded).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", current.ID)).
		ToSQL()
	if err != nil {
		return bettingline.Record{}, errors.Wrap(err, "build update betting line query")
	}
	if _, err := tx.ExecContext(ctx, updateQuery, updateArgs...); err != nil {
		return bettingline.Record{}, errors.Wrap(err, "update betting line")
	}
	if err := tx.Commit(); err != nil {
		return bettingline.Record{}, errors.Wrap(err, "commit upsert betting line tx")
	}
	return current, nil
}

func (r *BettingLineRepository) ListForGame(ctx context.Context, gameDate time.Time, teamKeys []string) ([]bettingline.Record, error) {
	if len(teamKeys) == 0 {
		return []bettingline.Record{}, nil
	}
	keys := pq.Array(teamKeys)
	query, args, err := qb.Select(bettingLineSelectColumns...).From(bettingLinesTable).
		Where(
			qb.Eq("game_date", bettingline.DateOf(gameDate)),
			qb.Expr("(home_team_key = ANY(?) OR away_team_key = ANY(?))", keys, keys),
		).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build list betting lines for game query")
	}

	var rows []bettingLineTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "list betting lines for game")
	}
	out := make([]bettingline.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// ApplyReconciliation writes the result under a row lock so reconciled_at only moves when
// a value changes.
func (r *BettingLineRepository) ApplyReconciliation(ctx context.Context, rec bettingline.Reconciliation) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin reconcile betting line tx")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	current, err := r.lock(ctx, tx, qb.Eq("id", rec.RecordID))
	if err != nil {
		return err
	}
	next := current.Apply(rec)

	actuals := sql.NullString{}
	if next.Actuals != nil {
		encoded, err := encodeJSON(next.Actuals)
		if err != nil {
			return err
		}
		actuals = sql.NullString{String: encoded, Valid: true}
	}
	query, args, err := qb.Update(bettingLinesTable).
		SetExpr("actuals", "?::jsonb", actuals).
		Set("did_not_play", next.DidNotPlay).
		Set("player_team", nullString(next.PlayerTeam)).
		Set("opponent_team", nullString(next.OpponentTeam)).
		Set("event_id", nullString(next.EventID)).
		Set("matched_external_id", nullString(next.MatchedExternalID)).
		Set("status", string(next.Status)).
		Set("reconciled_at", next.ReconciledAt).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", rec.RecordID)).
		ToSQL()
	if err != nil {
		return errors.Wrap(err, "build reconcile betting line query")
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "reconcile betting line")
	}
	return errors.Wrap(tx.Commit(), "commit reconcile betting line tx")
}

func (r *BettingLineRepository) MarkMismatched(ctx context.Context, recordID int64) error {
	query, args, err := qb.Update(bettingLinesTable).
		Set("status", string(bettingline.StatusMismatched)).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", recordID), qb.Eq("status", string(bettingline.StatusPending))).
		ToSQL()
	if err != nil {
		return errors.Wrap(err, "build mark mismatched query")
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "mark betting line mismatched")
	}
	if affected, err := res.RowsAffected(); err == nil && affected > 0 {
		return nil
	}
	_, err = r.GetByID(ctx, recordID)
	return err
}

func (r *BettingLineRepository) MatchedExternalIDs(ctx context.Context, playerID, excludeRecordID int64) ([]string, error) {
	query, args, err := qb.SelectDistinct("matched_external_id").From(bettingLinesTable).
		Where(
			qb.Eq("player_id", playerID),
			qb.Ne("id", excludeRecordID),
			qb.Eq("status", string(bettingline.StatusReconciled)),
			qb.NotNull("matched_external_id"),
		).
		OrderBy("matched_external_id").
		ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build matched external ids query")
	}
	out := make([]string, 0)
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, errors.Wrap(err, "list matched external ids")
	}
	return out, nil
}

func (r *BettingLineRepository) lock(ctx context.Context, tx *sqlx.Tx, conds ...qb.Condition) (bettingline.Record, error) {
	query, args, err := qb.Select(bettingLineSelectColumns...).From(bettingLinesTable).
		Where(conds...).
		Suffix("FOR UPDATE").
		ToSQL()
	if err != nil {
		return bettingline.Record{}, errors.Wrap(err, "build lock betting line query")
	}
	var row bettingLineTableModel
	if err := tx.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return bettingline.Record{}, errors.Wrap(bettingline.ErrNotFound, "lock betting line")
		}
		return bettingline.Record{}, errors.Wrap(err, "lock betting line")
	}
	return row.toDomain()
}
