package mismatch

import "context"

// Repository is the mismatch queue. At most one unresolved entry exists per record.
type Repository interface {
	// EnqueueUnresolved inserts e unless the record already has an unresolved entry.
	// created is false when an entry already existed.
	EnqueueUnresolved(ctx context.Context, e Entry) (created bool, err error)
	ListUnresolved(ctx context.Context, limit int) ([]Entry, error)
	// Resolve closes the record's unresolved entry. Resolving a record without one is a no-op.
	Resolve(ctx context.Context, recordID int64, notes string) error
}
