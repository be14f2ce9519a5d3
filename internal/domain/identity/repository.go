package identity

import "context"

// Repository is the identity store. Lookups return ErrNotFound when nothing matches,
// except the list lookups which return an empty slice.
type Repository interface {
	GetByID(ctx context.Context, id int64) (Identity, error)
	FindByAlias(ctx context.Context, source Source, normalizedName string) (Identity, error)
	FindByNormalizedName(ctx context.Context, normalizedName string) ([]Identity, error)
	FindByExternalID(ctx context.Context, externalID string) (Identity, error)
	FindBySurname(ctx context.Context, surname string) ([]Identity, error)
	Create(ctx context.Context, in NewIdentity) (Identity, error)
	// Upgrade is a no-op when the identity already holds an authoritative external id.
	Upgrade(ctx context.Context, u Upgrade) (Identity, error)
	// AddAlias is insert-or-ignore on (source, normalized name). Re-adding the same mapping
	// returns nil; a mapping owned by another identity returns ErrAliasConflict.
	AddAlias(ctx context.Context, alias Alias) error
}
