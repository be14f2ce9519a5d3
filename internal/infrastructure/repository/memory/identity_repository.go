package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/riskibarqy/playerlink/internal/domain/identity"
	"github.com/riskibarqy/playerlink/internal/domain/playername"
)

type aliasKey struct {
	source identity.Source
	name   string
}

type IdentityRepository struct {
	mu         sync.RWMutex
	nextID     int64
	items      map[int64]identity.Identity
	byExternal map[string]int64
	aliases    map[aliasKey]identity.Alias
}

func NewIdentityRepository() *IdentityRepository {
	return &IdentityRepository{
		items:      make(map[int64]identity.Identity),
		byExternal: make(map[string]int64),
		aliases:    make(map[aliasKey]identity.Alias),
	}
}

func (r *IdentityRepository) GetByID(_ context.Context, id int64) (identity.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return identity.Identity{}, errors.Wrapf(identity.ErrNotFound, "identity %d", id)
	}
	return item, nil
}

func (r *IdentityRepository) FindByAlias(_ context.Context, source identity.Source, normalizedName string) (identity.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	alias, ok := r.aliases[aliasKey{source: source, name: normalizedName}]
	if !ok {
		return identity.Identity{}, identity.ErrNotFound
	}
	return r.items[alias.IdentityID], nil
}

func (r *IdentityRepository) FindByNormalizedName(_ context.Context, normalizedName string) ([]identity.Identity, error) {
	return r.filter(func(i identity.Identity) bool { return i.NormalizedName == normalizedName }), nil
}

func (r *IdentityRepository) FindByExternalID(_ context.Context, externalID string) (identity.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byExternal[externalID]
	if !ok {
		return identity.Identity{}, identity.ErrNotFound
	}
	return r.items[id], nil
}

func (r *IdentityRepository) FindBySurname(_ context.Context, surname string) ([]identity.Identity, error) {
	return r.filter(func(i identity.Identity) bool { return playername.Surname(i.NormalizedName) == surname }), nil
}

// Create returns the existing identity when the external id is already stored.
func (r *IdentityRepository) Create(_ context.Context, in identity.NewIdentity) (identity.Identity, error) {
	if err := in.Validate(); err != nil {
		return identity.Identity{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byExternal[in.ExternalID]; ok {
		return r.items[id], nil
	}
	r.nextID++
	item := identity.Identity{
		ID:             r.nextID,
		DisplayName:    in.DisplayName,
		NormalizedName: in.NormalizedName,
		ExternalID:     in.ExternalID,
		Position:       in.Position,
		TeamKey:        in.TeamKey,
		FirstSeen:      in.SeenDate,
		LastSeen:       in.SeenDate,
	}
	r.items[item.ID] = item
	r.byExternal[item.ExternalID] = item.ID
	return item, nil
}

func (r *IdentityRepository) Upgrade(_ context.Context, u identity.Upgrade) (identity.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[u.ID]
	if !ok {
		return identity.Identity{}, errors.Wrapf(identity.ErrNotFound, "identity %d", u.ID)
	}
	if !current.HasAuthoritativeID() && u.ExternalID != "" && !identity.IsPlaceholderID(u.ExternalID) {
		if owner, taken := r.byExternal[u.ExternalID]; taken && owner != current.ID {
			return current, identity.ErrExternalIDTaken
		}
	}

	next := identity.ApplyUpgrade(current, u)
	if next.ExternalID != current.ExternalID {
		delete(r.byExternal, current.ExternalID)
		r.byExternal[next.ExternalID] = next.ID
	}
	r.items[next.ID] = next
	return next, nil
}

func (r *IdentityRepository) AddAlias(_ context.Context, alias identity.Alias) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[alias.IdentityID]; !ok {
		return errors.Wrapf(identity.ErrNotFound, "identity %d", alias.IdentityID)
	}
	key := aliasKey{source: alias.Source, name: alias.NormalizedName}
	if existing, ok := r.aliases[key]; ok {
		if existing.IdentityID != alias.IdentityID {
			return identity.ErrAliasConflict
		}
		return nil
	}
	r.aliases[key] = alias
	return nil
}

// Aliases lists the aliases pointing at an identity. Used by tests and the CLI.
func (r *IdentityRepository) Aliases(identityID int64) []identity.Alias {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []identity.Alias
	for _, a := range r.aliases {
		if a.IdentityID == identityID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		return out[i].NormalizedName < out[j].NormalizedName
	})
	return out
}

func (r *IdentityRepository) filter(keep func(identity.Identity) bool) []identity.Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]identity.Identity, 0)
	for _, item := range r.items {
		if keep(item) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
