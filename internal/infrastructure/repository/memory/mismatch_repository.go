package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/playerlink/internal/domain/mismatch"
)

type MismatchRepository struct {
	mu     sync.RWMutex
	nextID int64
	items  []mismatch.Entry
	now    func() time.Time
}

func NewMismatchRepository() *MismatchRepository {
	return &MismatchRepository{now: time.Now}
}

func (r *MismatchRepository) EnqueueUnresolved(_ context.Context, e mismatch.Entry) (bool, error) {
	if err := e.Validate(); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range r.items {
		if item.RecordID == e.RecordID && !item.Resolved {
			return false, nil
		}
	}
	r.nextID++
	e.ID = r.nextID
	e.Resolved = false
	e.ResolvedAt = nil
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now().UTC()
	}
	r.items = append(r.items, e)
	return true, nil
}

func (r *MismatchRepository) ListUnresolved(_ context.Context, limit int) ([]mismatch.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]mismatch.Entry, 0)
	for _, item := range r.items {
		if !item.Resolved {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MismatchRepository) Resolve(_ context.Context, recordID int64, notes string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.items {
		if r.items[i].RecordID != recordID || r.items[i].Resolved {
			continue
		}
		at := r.now().UTC()
		r.items[i].Resolved = true
		r.items[i].ResolutionNotes = notes
		r.items[i].ResolvedAt = &at
	}
	return nil
}

// All returns every entry, resolved or not.
func (r *MismatchRepository) All() []mismatch.Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]mismatch.Entry(nil), r.items...)
}
