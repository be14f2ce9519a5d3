package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/playerlink/internal/domain/identity"
	"github.com/riskibarqy/playerlink/internal/domain/playername"
	"github.com/riskibarqy/playerlink/internal/domain/roster"
	"github.com/riskibarqy/playerlink/internal/platform/logging"
	"github.com/riskibarqy/playerlink/internal/platform/metrics"
)

// Resolution is the identity a sighting resolved to and the tier that found it.
type Resolution struct {
	Identity identity.Identity
	Tier     MatchTier
	Created  bool
}

// AuthoritativeSighting is a player as reported by the box-score provider.
type AuthoritativeSighting struct {
	ExternalID  string
	DisplayName string
	Position    string
	TeamKey     string
	GameDate    time.Time
}

// IdentityResolver maps names from any source onto durable identities, creating
// placeholders for names it cannot place.
type IdentityResolver struct {
	repo    identity.Repository
	matcher identityMatcher
	logger  *logging.Logger
	metrics *metrics.Recorder
}

func NewIdentityResolver(
	repo identity.Repository,
	mappings playername.Mappings,
	logger *logging.Logger,
	recorder *metrics.Recorder,
) *IdentityResolver {
	if logger == nil {
		logger = logging.Default()
	}
	return &IdentityResolver{
		repo:    repo,
		matcher: identityMatcher{repo: repo, mappings: mappings},
		logger:  logger.Named("resolver"),
		metrics: recorder,
	}
}

// ResolveFromBettingSource never returns "not found": an unplaceable name gets a
// placeholder identity. teams narrows the fuzzy tier and may be empty.
func (r *IdentityResolver) ResolveFromBettingSource(
	ctx context.Context,
	rawName string,
	gameDate time.Time,
	teams TeamContext,
) (Resolution, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IdentityResolver.ResolveFromBettingSource",
		attribute.String("player.name", rawName))
	defer span.End()

	key := playername.Normalize(rawName)
	if key == "" {
		return Resolution{}, fmt.Errorf("%w: player name %q normalizes to nothing", ErrInvalidInput, rawName)
	}
	if gameDate.IsZero() {
		return Resolution{}, fmt.Errorf("%w: game date is required", ErrInvalidInput)
	}

	res, err := r.matcher.byAlias(ctx, identity.SourceOddsAPI, key)
	if err != nil {
		return Resolution{}, err
	}
	if res.Found() {
		r.metrics.Resolution(string(identity.SourceOddsAPI), string(TierAlias))
		return Resolution{Identity: res.Value, Tier: TierAlias}, nil
	}

	tiers := []func() (MatchResult[identity.Identity], error){
		func() (MatchResult[identity.Identity], error) { return r.matcher.byManualMapping(ctx, key, nil) },
		func() (MatchResult[identity.Identity], error) { return r.matcher.byExactName(ctx, key, nil) },
		func() (MatchResult[identity.Identity], error) { return r.matcher.byVariations(ctx, rawName, nil) },
		func() (MatchResult[identity.Identity], error) { return r.matcher.byFuzzy(ctx, key, teams, nil) },
	}
	for _, tier := range tiers {
		res, err := tier()
		if err != nil {
			return Resolution{}, err
		}
		if res.Ambiguous() {
			r.logger.DebugContext(ctx, "betting name ambiguous at tier",
				"name", key, "tier", string(res.Tier), "candidates", res.Candidates)
			continue
		}
		if !res.Found() {
			continue
		}
		if err := r.addAlias(ctx, res.Value.ID, identity.SourceOddsAPI, rawName, key); err != nil {
			return Resolution{}, err
		}
		r.metrics.Resolution(string(identity.SourceOddsAPI), string(res.Tier))
		return Resolution{Identity: res.Value, Tier: res.Tier}, nil
	}

	created, err := r.repo.Create(ctx, identity.NewIdentity{
		DisplayName:    strings.TrimSpace(rawName),
		NormalizedName: key,
		ExternalID:     identity.PlaceholderID(key),
		SeenDate:       gameDate,
	})
	if err != nil {
		return Resolution{}, errors.Wrapf(err, "create placeholder identity for %q", key)
	}
	if err := r.addAlias(ctx, created.ID, identity.SourceOddsAPI, rawName, key); err != nil {
		return Resolution{}, err
	}
	r.logger.InfoContext(ctx, "created placeholder identity",
		"identity_id", created.ID, "name", key, "external_id", created.ExternalID)
	r.metrics.Resolution(string(identity.SourceOddsAPI), string(TierCreated))
	return Resolution{Identity: created, Tier: TierCreated, Created: true}, nil
}

// ResolveFromAuthoritativeSource binds an authoritative external id to an identity. A
// placeholder found by name is upgraded in place; an identity that already holds a
// different authoritative id is a namesake and is not matched.
func (r *IdentityResolver) ResolveFromAuthoritativeSource(ctx context.Context, in AuthoritativeSighting) (Resolution, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IdentityResolver.ResolveFromAuthoritativeSource",
		attribute.String("player.external_id", in.ExternalID))
	defer span.End()

	externalID := strings.TrimSpace(in.ExternalID)
	key := playername.Normalize(in.DisplayName)
	switch {
	case externalID == "" || identity.IsPlaceholderID(externalID):
		return Resolution{}, fmt.Errorf("%w: authoritative external id is required", ErrInvalidInput)
	case key == "":
		return Resolution{}, fmt.Errorf("%w: player name %q normalizes to nothing", ErrInvalidInput, in.DisplayName)
	case in.GameDate.IsZero():
		return Resolution{}, fmt.Errorf("%w: game date is required", ErrInvalidInput)
	}

	res, err := r.matcher.byExternalID(ctx, externalID)
	if err != nil {
		return Resolution{}, err
	}
	if res.Found() {
		updated, err := r.upgrade(ctx, res.Value, externalID, in, key)
		if err != nil {
			return Resolution{}, err
		}
		r.metrics.Resolution(string(identity.SourceESPN), string(TierExternalID))
		return Resolution{Identity: updated, Tier: TierExternalID}, nil
	}

	placeholderOnly := func(i identity.Identity) bool { return i.IsPlaceholder() }
	teams := TeamContext{}
	if in.TeamKey != "" {
		teams = TeamContext{in.TeamKey}
	}
	tiers := []func() (MatchResult[identity.Identity], error){
		func() (MatchResult[identity.Identity], error) {
			res, err := r.matcher.byAlias(ctx, identity.SourceESPN, key)
			if res.Found() && !placeholderOnly(res.Value) {
				return matchNotFound[identity.Identity](TierAlias, reasonNoCandidate), err
			}
			return res, err
		},
		func() (MatchResult[identity.Identity], error) {
			return r.matcher.byExactName(ctx, key, placeholderOnly)
		},
		func() (MatchResult[identity.Identity], error) {
			return r.matcher.byVariations(ctx, in.DisplayName, placeholderOnly)
		},
		func() (MatchResult[identity.Identity], error) {
			return r.matcher.byFuzzy(ctx, key, teams, placeholderOnly)
		},
	}
	for _, tier := range tiers {
		res, err := tier()
		if err != nil {
			return Resolution{}, err
		}
		if !res.Found() {
			continue
		}
		updated, err := r.upgrade(ctx, res.Value, externalID, in, key)
		if errors.Is(err, identity.ErrExternalIDTaken) {
			// Lost a race with another writer for the same id.
			break
		}
		if err != nil {
			return Resolution{}, err
		}
		r.logger.InfoContext(ctx, "upgraded placeholder identity",
			"identity_id", updated.ID, "external_id", externalID, "tier", string(res.Tier))
		r.metrics.Resolution(string(identity.SourceESPN), string(res.Tier))
		return Resolution{Identity: updated, Tier: res.Tier}, nil
	}

	created, err := r.repo.Create(ctx, identity.NewIdentity{
		DisplayName:    strings.TrimSpace(in.DisplayName),
		NormalizedName: key,
		ExternalID:     externalID,
		Position:       in.Position,
		TeamKey:        in.TeamKey,
		SeenDate:       in.GameDate,
	})
	if err != nil {
		return Resolution{}, errors.Wrapf(err, "create identity for external id %s", externalID)
	}
	if err := r.addAlias(ctx, created.ID, identity.SourceESPN, in.DisplayName, key); err != nil {
		return Resolution{}, err
	}
	r.metrics.Resolution(string(identity.SourceESPN), string(TierCreated))
	return Resolution{Identity: created, Tier: TierCreated, Created: true}, nil
}

// ConfirmIdentity binds a roster entry matched during reconciliation to the record's
// identity. When another identity already owns the entry's external id the record's
// identity is returned unchanged with ErrExternalIDTaken.
func (r *IdentityResolver) ConfirmIdentity(
	ctx context.Context,
	current identity.Identity,
	entry roster.Entry,
	gameDate time.Time,
) (identity.Identity, error) {
	if current.HasAuthoritativeID() {
		return current, nil
	}
	owner, err := r.matcher.byExternalID(ctx, entry.ExternalID)
	if err != nil {
		return current, err
	}
	if owner.Found() && owner.Value.ID != current.ID {
		return current, errors.Wrapf(identity.ErrExternalIDTaken,
			"external id %s belongs to identity %d", entry.ExternalID, owner.Value.ID)
	}
	return r.upgrade(ctx, current, entry.ExternalID, AuthoritativeSighting{
		ExternalID:  entry.ExternalID,
		DisplayName: entry.DisplayName,
		Position:    entry.Position,
		TeamKey:     entry.TeamKey,
		GameDate:    gameDate,
	}, entry.NormalizedName)
}

// AttachManualAlias records an operator-confirmed name for an identity.
func (r *IdentityResolver) AttachManualAlias(ctx context.Context, identityID int64, rawName string) error {
	key := playername.Normalize(rawName)
	if key == "" {
		return nil
	}
	return r.addAlias(ctx, identityID, identity.SourceManual, rawName, key)
}

func (r *IdentityResolver) upgrade(
	ctx context.Context,
	current identity.Identity,
	externalID string,
	in AuthoritativeSighting,
	key string,
) (identity.Identity, error) {
	updated, err := r.repo.Upgrade(ctx, identity.Upgrade{
		ID:             current.ID,
		ExternalID:     externalID,
		DisplayName:    strings.TrimSpace(in.DisplayName),
		NormalizedName: key,
		Position:       in.Position,
		TeamKey:        in.TeamKey,
		SeenDate:       in.GameDate,
	})
	if err != nil {
		return current, errors.Wrapf(err, "upgrade identity %d", current.ID)
	}
	if err := r.addAlias(ctx, updated.ID, identity.SourceESPN, in.DisplayName, key); err != nil {
		return updated, err
	}
	return updated, nil
}

func (r *IdentityResolver) addAlias(ctx context.Context, identityID int64, source identity.Source, rawName, key string) error {
	err := r.repo.AddAlias(ctx, identity.Alias{
		IdentityID:     identityID,
		Source:         source,
		SourceName:     strings.TrimSpace(rawName),
		NormalizedName: key,
	})
	if errors.Is(err, identity.ErrAliasConflict) {
		r.logger.DebugContext(ctx, "alias already owned by another identity",
			"identity_id", identityID, "source", string(source), "name", key)
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "add %s alias %q", source, key)
	}
	return nil
}
