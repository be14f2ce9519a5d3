package cache

import (
	"context"
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/riskibarqy/playerlink/internal/domain/identity"
	basecache "github.com/riskibarqy/playerlink/internal/platform/cache"
	"github.com/riskibarqy/playerlink/internal/platform/logging"
)

// AliasCache is a shared (source, normalized name) -> identity id map, usually Redis.
type AliasCache interface {
	GetAlias(ctx context.Context, source identity.Source, normalizedName string) (int64, bool, error)
	SetAlias(ctx context.Context, source identity.Source, normalizedName string, identityID int64) error
}

// IdentityRepository caches positive identity and alias lookups in front of another
// repository. Name and surname lists always pass through because creates change them.
type IdentityRepository struct {
	next       identity.Repository
	identities *basecache.Store[identity.Identity]
	aliases    *basecache.Store[int64]
	shared     AliasCache
	logger     *logging.Logger
}

func NewIdentityRepository(
	next identity.Repository,
	identities *basecache.Store[identity.Identity],
	aliases *basecache.Store[int64],
	shared AliasCache,
	logger *logging.Logger,
) *IdentityRepository {
	if logger == nil {
		logger = logging.Default()
	}
	return &IdentityRepository{
		next:       next,
		identities: identities,
		aliases:    aliases,
		shared:     shared,
		logger:     logger.Named("identity_cache"),
	}
}

func (r *IdentityRepository) GetByID(ctx context.Context, id int64) (identity.Identity, error) {
	return r.identities.GetOrLoad(ctx, idKey(id), func(ctx context.Context) (identity.Identity, error) {
		return r.next.GetByID(ctx, id)
	})
}

// FindByExternalID caches authoritative ids only. Placeholder ids move on upgrade.
func (r *IdentityRepository) FindByExternalID(ctx context.Context, externalID string) (identity.Identity, error) {
	if identity.IsPlaceholderID(externalID) {
		return r.next.FindByExternalID(ctx, externalID)
	}
	return r.identities.GetOrLoad(ctx, externalKey(externalID), func(ctx context.Context) (identity.Identity, error) {
		return r.next.FindByExternalID(ctx, externalID)
	})
}

func (r *IdentityRepository) FindByAlias(ctx context.Context, source identity.Source, normalizedName string) (identity.Identity, error) {
	key := aliasKey(source, normalizedName)
	if id, ok := r.aliases.Get(ctx, key); ok {
		return r.GetByID(ctx, id)
	}
	if r.shared != nil {
		id, ok, err := r.shared.GetAlias(ctx, source, normalizedName)
		if err != nil {
			r.logger.WarnContext(ctx, "shared alias cache read failed", "source", string(source), "error", err)
		} else if ok {
			r.aliases.Set(ctx, key, id)
			return r.GetByID(ctx, id)
		}
	}

	item, err := r.next.FindByAlias(ctx, source, normalizedName)
	if err != nil {
		return identity.Identity{}, err
	}
	r.rememberAlias(ctx, source, normalizedName, item.ID)
	r.identities.Set(ctx, idKey(item.ID), item)
	return item, nil
}

func (r *IdentityRepository) FindByNormalizedName(ctx context.Context, normalizedName string) ([]identity.Identity, error) {
	return r.next.FindByNormalizedName(ctx, normalizedName)
}

func (r *IdentityRepository) FindBySurname(ctx context.Context, surname string) ([]identity.Identity, error) {
	return r.next.FindBySurname(ctx, surname)
}

func (r *IdentityRepository) Create(ctx context.Context, in identity.NewIdentity) (identity.Identity, error) {
	item, err := r.next.Create(ctx, in)
	if err != nil {
		return identity.Identity{}, err
	}
	r.identities.Set(ctx, idKey(item.ID), item)
	return item, nil
}

func (r *IdentityRepository) Upgrade(ctx context.Context, u identity.Upgrade) (identity.Identity, error) {
	item, err := r.next.Upgrade(ctx, u)
	r.identities.Delete(ctx, idKey(u.ID), externalKey(u.ExternalID))
	if err != nil {
		return item, err
	}
	r.identities.Set(ctx, idKey(item.ID), item)
	return item, nil
}

func (r *IdentityRepository) AddAlias(ctx context.Context, alias identity.Alias) error {
	if err := r.next.AddAlias(ctx, alias); err != nil {
		if errors.Is(err, identity.ErrAliasConflict) {
			r.aliases.Delete(ctx, aliasKey(alias.Source, alias.NormalizedName))
		}
		return err
	}
	r.rememberAlias(ctx, alias.Source, alias.NormalizedName, alias.IdentityID)
	return nil
}

func (r *IdentityRepository) rememberAlias(ctx context.Context, source identity.Source, normalizedName string, id int64) {
	r.aliases.Set(ctx, aliasKey(source, normalizedName), id)
	if r.shared == nil {
		return
	}
	if err := r.shared.SetAlias(ctx, source, normalizedName, id); err != nil {
		r.logger.WarnContext(ctx, "shared alias cache write failed", "source", string(source), "error", err)
	}
}

func idKey(id int64) string {
	return "identity:id:" + strconv.FormatInt(id, 10)
}

func externalKey(externalID string) string {
	if externalID == "" {
		return ""
	}
	return "identity:ext:" + externalID
}

func aliasKey(source identity.Source, normalizedName string) string {
	return "alias:" + string(source) + ":" + normalizedName
}
