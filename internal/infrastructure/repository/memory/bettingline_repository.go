package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/riskibarqy/playerlink/internal/domain/bettingline"
)

type recordKey struct {
	playerID int64
	eventID  string
}

type BettingLineRepository struct {
	mu      sync.RWMutex
	nextID  int64
	items   map[int64]bettingline.Record
	byEvent map[recordKey]int64
}

func NewBettingLineRepository() *BettingLineRepository {
	return &BettingLineRepository{
		items:   make(map[int64]bettingline.Record),
		byEvent: make(map[recordKey]int64),
	}
}

func (r *BettingLineRepository) GetByID(_ context.Context, id int64) (bettingline.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return bettingline.Record{}, errors.Wrapf(bettingline.ErrNotFound, "record %d", id)
	}
	return cloneRecord(item), nil
}

func (r *BettingLineRepository) UpsertLine(_ context.Context, in bettingline.LineUpsert) (bettingline.Record, error) {
	if err := in.Validate(); err != nil {
		return bettingline.Record{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := recordKey{playerID: in.PlayerID, eventID: in.ProviderEventID}
	id, ok := r.byEvent[key]
	if !ok {
		r.nextID++
		id = r.nextID
		r.byEvent[key] = id
		r.items[id] = bettingline.Record{
			ID:              id,
			PlayerID:        in.PlayerID,
			PlayerName:      in.PlayerName,
			NormalizedName:  in.NormalizedName,
			GameDate:        bettingline.DateOf(in.GameDate),
			ProviderEventID: in.ProviderEventID,
			HomeTeam:        in.HomeTeam,
			AwayTeam:        in.AwayTeam,
			HomeTeamKey:     in.HomeTeamKey,
			AwayTeamKey:     in.AwayTeamKey,
			Lines:           make(map[bettingline.StatType]bettingline.Line),
			Status:          bettingline.StatusPending,
		}
	}

	item := cloneRecord(r.items[id])
	if item.Lines == nil {
		item.Lines = make(map[bettingline.StatType]bettingline.Line)
	}
	item.Lines[in.Stat] = bettingline.MergeLine(item.Lines[in.Stat], in.Line)
	r.items[id] = item
	return cloneRecord(item), nil
}

func (r *BettingLineRepository) ListForGame(_ context.Context, gameDate time.Time, teamKeys []string) ([]bettingline.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	day := bettingline.DateOf(gameDate)
	out := make([]bettingline.Record, 0)
	for _, item := range r.items {
		if !item.GameDate.Equal(day) {
			continue
		}
		if !slices.Contains(teamKeys, item.HomeTeamKey) && !slices.Contains(teamKeys, item.AwayTeamKey) {
			continue
		}
		out = append(out, cloneRecord(item))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *BettingLineRepository) ApplyReconciliation(_ context.Context, rec bettingline.Reconciliation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[rec.RecordID]
	if !ok {
		return errors.Wrapf(bettingline.ErrNotFound, "record %d", rec.RecordID)
	}
	r.items[rec.RecordID] = item.Apply(rec)
	return nil
}

func (r *BettingLineRepository) MarkMismatched(_ context.Context, recordID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[recordID]
	if !ok {
		return errors.Wrapf(bettingline.ErrNotFound, "record %d", recordID)
	}
	if item.Status == bettingline.StatusPending {
		item.Status = bettingline.StatusMismatched
		r.items[recordID] = item
	}
	return nil
}

func (r *BettingLineRepository) MatchedExternalIDs(_ context.Context, playerID, excludeRecordID int64) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0)
	for _, item := range r.items {
		if item.PlayerID != playerID || item.ID == excludeRecordID {
			continue
		}
		if item.Status != bettingline.StatusReconciled || item.MatchedExternalID == "" {
			continue
		}
		if !slices.Contains(out, item.MatchedExternalID) {
			out = append(out, item.MatchedExternalID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func cloneRecord(item bettingline.Record) bettingline.Record {
	copied := item
	if item.Lines != nil {
		copied.Lines = make(map[bettingline.StatType]bettingline.Line, len(item.Lines))
		for k, v := range item.Lines {
			copied.Lines[k] = v
		}
	}
	if item.Actuals != nil {
		copied.Actuals = make(bettingline.StatLine, len(item.Actuals))
		for k, v := range item.Actuals {
			copied.Actuals[k] = v
		}
	}
	if item.ReconciledAt != nil {
		at := *item.ReconciledAt
		copied.ReconciledAt = &at
	}
	return copied
}
