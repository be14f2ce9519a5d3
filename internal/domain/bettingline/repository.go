package bettingline

import (
	"context"
	"time"
)

type Repository interface {
	GetByID(ctx context.Context, id int64) (Record, error)
	// UpsertLine merges one line into the (player, provider event) record.
	UpsertLine(ctx context.Context, in LineUpsert) (Record, error)
	// ListForGame returns every record on gameDate whose home or away team is in teamKeys.
	ListForGame(ctx context.Context, gameDate time.Time, teamKeys []string) ([]Record, error)
	ApplyReconciliation(ctx context.Context, rec Reconciliation) error
	// MarkMismatched moves a pending record to mismatched. Reconciled records are left alone.
	MarkMismatched(ctx context.Context, recordID int64) error
	// MatchedExternalIDs returns the distinct authoritative ids recorded on the player's other
	// reconciled records.
	MatchedExternalIDs(ctx context.Context, playerID, excludeRecordID int64) ([]string, error)
}
