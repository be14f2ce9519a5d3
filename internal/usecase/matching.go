package usecase

import (
	"context"
	"slices"

	"github.com/cockroachdb/errors"

	"github.com/riskibarqy/playerlink/internal/domain/identity"
	"github.com/riskibarqy/playerlink/internal/domain/playername"
	"github.com/riskibarqy/playerlink/internal/domain/roster"
)

type MatchOutcome int

const (
	MatchNotFound MatchOutcome = iota
	MatchFound
	MatchAmbiguous
)

func (o MatchOutcome) String() string {
	switch o {
	case MatchFound:
		return "found"
	case MatchAmbiguous:
		return "ambiguous"
	default:
		return "not_found"
	}
}

// MatchTier names the strategy that produced a result, in evaluation order.
type MatchTier string

const (
	TierExternalID MatchTier = "external_id"
	TierAlias      MatchTier = "alias"
	TierManual     MatchTier = "manual_mapping"
	TierExactName  MatchTier = "exact_name"
	TierVariation  MatchTier = "variation"
	TierFuzzy      MatchTier = "fuzzy"
	TierCreated    MatchTier = "created"
	TierUnresolved MatchTier = "unresolved"
)

// MatchResult is what one tier reports. Value is only meaningful when Outcome is MatchFound.
type MatchResult[T any] struct {
	Outcome    MatchOutcome
	Tier       MatchTier
	Value      T
	Candidates int
	Reason     string
}

func (r MatchResult[T]) Found() bool { return r.Outcome == MatchFound }

func (r MatchResult[T]) Ambiguous() bool { return r.Outcome == MatchAmbiguous }

func matchFound[T any](tier MatchTier, v T) MatchResult[T] {
	return MatchResult[T]{Outcome: MatchFound, Tier: tier, Value: v, Candidates: 1}
}

func matchNotFound[T any](tier MatchTier, reason string) MatchResult[T] {
	return MatchResult[T]{Outcome: MatchNotFound, Tier: tier, Reason: reason}
}

func matchAmbiguous[T any](tier MatchTier, candidates int) MatchResult[T] {
	return MatchResult[T]{Outcome: MatchAmbiguous, Tier: tier, Candidates: candidates, Reason: "ambiguous"}
}

// TeamContext is the set of team keys a match must agree with.
type TeamContext []string

func (c TeamContext) Contains(teamKey string) bool {
	return teamKey != "" && slices.Contains(c, teamKey)
}

const (
	reasonNoCandidate   = "no_candidate"
	reasonTeamDisagrees = "team_context_disagrees"
)

type fuzzyCandidate[T any] struct {
	value   T
	key     string
	teamKey string
}

// matchFuzzy keeps candidates whose suffix-stripped first name and surname match key,
// allowing an initial on either side. It accepts only a single candidate on a team in
// context. A match that rests on an initial is also rejected when the matched player's team
// carries more than one player with that surname.
func matchFuzzy[T any](key string, pool []fuzzyCandidate[T], teams TeamContext) MatchResult[T] {
	surname := playername.Surname(key)
	if surname == "" {
		return matchNotFound[T](TierFuzzy, reasonNoCandidate)
	}

	var matches, sameSurname []fuzzyCandidate[T]
	for _, c := range pool {
		if playername.Surname(c.key) != surname {
			continue
		}
		sameSurname = append(sameSurname, c)
		if playername.StrictMatch(key, c.key) {
			matches = append(matches, c)
		}
	}

	switch {
	case len(matches) == 0:
		return matchNotFound[T](TierFuzzy, reasonNoCandidate)
	case len(matches) > 1:
		return matchAmbiguous[T](TierFuzzy, len(matches))
	}

	m := matches[0]
	if !teams.Contains(m.teamKey) {
		return matchNotFound[T](TierFuzzy, reasonTeamDisagrees)
	}
	if reliesOnInitial(key, m.key) {
		teammates := 0
		for _, c := range sameSurname {
			if c.teamKey == m.teamKey {
				teammates++
			}
		}
		if teammates > 1 {
			return matchAmbiguous[T](TierFuzzy, teammates)
		}
	}
	return matchFound(TierFuzzy, m.value)
}

func reliesOnInitial(a, b string) bool {
	aGiven, _ := playername.SplitNameParts(playername.StripSuffix(a))
	bGiven, _ := playername.SplitNameParts(playername.StripSuffix(b))
	return firstToken(aGiven) != firstToken(bGiven)
}

func firstToken(given string) string {
	for i := 0; i < len(given); i++ {
		if given[i] == ' ' {
			return given[:i]
		}
	}
	return given
}

// identityMatcher runs the name tiers against the identity store.
type identityMatcher struct {
	repo     identity.Repository
	mappings playername.Mappings
}

func (m identityMatcher) byExternalID(ctx context.Context, externalID string) (MatchResult[identity.Identity], error) {
	if externalID == "" {
		return matchNotFound[identity.Identity](TierExternalID, reasonNoCandidate), nil
	}
	found, err := m.repo.FindByExternalID(ctx, externalID)
	if errors.Is(err, identity.ErrNotFound) {
		return matchNotFound[identity.Identity](TierExternalID, reasonNoCandidate), nil
	}
	if err != nil {
		return MatchResult[identity.Identity]{}, errors.Wrap(err, "find identity by external id")
	}
	return matchFound(TierExternalID, found), nil
}

func (m identityMatcher) byAlias(ctx context.Context, source identity.Source, key string) (MatchResult[identity.Identity], error) {
	found, err := m.repo.FindByAlias(ctx, source, key)
	if errors.Is(err, identity.ErrNotFound) {
		return matchNotFound[identity.Identity](TierAlias, reasonNoCandidate), nil
	}
	if err != nil {
		return MatchResult[identity.Identity]{}, errors.Wrap(err, "find identity by alias")
	}
	return matchFound(TierAlias, found), nil
}

func (m identityMatcher) byManualMapping(ctx context.Context, key string, accept func(identity.Identity) bool) (MatchResult[identity.Identity], error) {
	canonical, ok := m.mappings.Canonical(key)
	if !ok {
		return matchNotFound[identity.Identity](TierManual, reasonNoCandidate), nil
	}
	res, err := m.byName(ctx, TierManual, canonical, accept)
	return res, err
}

func (m identityMatcher) byExactName(ctx context.Context, key string, accept func(identity.Identity) bool) (MatchResult[identity.Identity], error) {
	return m.byName(ctx, TierExactName, key, accept)
}

// byVariations tries each generated key in order. A variation that hits several identities
// is skipped; the result is ambiguous only if no later variation is unique.
func (m identityMatcher) byVariations(ctx context.Context, raw string, accept func(identity.Identity) bool) (MatchResult[identity.Identity], error) {
	ambiguous := 0
	for _, variation := range playername.Variations(raw) {
		res, err := m.byName(ctx, TierVariation, variation, accept)
		if err != nil {
			return res, err
		}
		if res.Found() {
			return res, nil
		}
		if res.Ambiguous() {
			ambiguous = max(ambiguous, res.Candidates)
		}
	}
	if ambiguous > 0 {
		return matchAmbiguous[identity.Identity](TierVariation, ambiguous), nil
	}
	return matchNotFound[identity.Identity](TierVariation, reasonNoCandidate), nil
}

func (m identityMatcher) byFuzzy(ctx context.Context, key string, teams TeamContext, accept func(identity.Identity) bool) (MatchResult[identity.Identity], error) {
	surname := playername.Surname(key)
	if surname == "" || len(teams) == 0 {
		return matchNotFound[identity.Identity](TierFuzzy, reasonNoCandidate), nil
	}
	candidates, err := m.repo.FindBySurname(ctx, surname)
	if err != nil {
		return MatchResult[identity.Identity]{}, errors.Wrap(err, "find identities by surname")
	}
	pool := make([]fuzzyCandidate[identity.Identity], 0, len(candidates))
	for _, c := range candidates {
		if accept != nil && !accept(c) {
			continue
		}
		pool = append(pool, fuzzyCandidate[identity.Identity]{value: c, key: c.NormalizedName, teamKey: c.TeamKey})
	}
	return matchFuzzy(key, pool, teams), nil
}

func (m identityMatcher) byName(ctx context.Context, tier MatchTier, key string, accept func(identity.Identity) bool) (MatchResult[identity.Identity], error) {
	found, err := m.repo.FindByNormalizedName(ctx, key)
	if err != nil {
		return MatchResult[identity.Identity]{}, errors.Wrapf(err, "find identity by name (%s)", tier)
	}
	if accept != nil {
		found = slices.DeleteFunc(found, func(i identity.Identity) bool { return !accept(i) })
	}
	switch len(found) {
	case 0:
		return matchNotFound[identity.Identity](tier, reasonNoCandidate), nil
	case 1:
		return matchFound(tier, found[0]), nil
	default:
		return matchAmbiguous[identity.Identity](tier, len(found)), nil
	}
}

// Roster tiers used by reconciliation.

func rosterByExternalID(idx *roster.GameIndex, ids ...string) MatchResult[roster.Entry] {
	for _, id := range ids {
		if id == "" {
			continue
		}
		if entry, ok := idx.LookupByExternalID(id); ok {
			return matchFound(TierExternalID, entry)
		}
	}
	return matchNotFound[roster.Entry](TierExternalID, reasonNoCandidate)
}

func rosterByExactName(idx *roster.GameIndex, teams TeamContext, keys ...string) MatchResult[roster.Entry] {
	ambiguous := 0
	for _, key := range keys {
		entries := idx.Lookup(key)
		if len(entries) > 1 {
			entries = slices.DeleteFunc(entries, func(e roster.Entry) bool { return !teams.Contains(e.TeamKey) })
		}
		switch len(entries) {
		case 0:
			continue
		case 1:
			return matchFound(TierExactName, entries[0])
		default:
			ambiguous = max(ambiguous, len(entries))
		}
	}
	if ambiguous > 0 {
		return matchAmbiguous[roster.Entry](TierExactName, ambiguous)
	}
	return matchNotFound[roster.Entry](TierExactName, reasonNoCandidate)
}

func rosterByFuzzy(idx *roster.GameIndex, teams TeamContext, keys ...string) MatchResult[roster.Entry] {
	entries := idx.Entries()
	pool := make([]fuzzyCandidate[roster.Entry], 0, len(entries))
	for _, e := range entries {
		pool = append(pool, fuzzyCandidate[roster.Entry]{value: e, key: e.NormalizedName, teamKey: e.TeamKey})
	}

	last := matchNotFound[roster.Entry](TierFuzzy, reasonNoCandidate)
	for _, key := range keys {
		res := matchFuzzy(key, pool, teams)
		if res.Found() || res.Ambiguous() {
			return res
		}
		if res.Reason == reasonTeamDisagrees {
			last = res
		}
	}
	return last
}

func uniqueKeys(keys ...string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" && !slices.Contains(out, k) {
			out = append(out, k)
		}
	}
	return out
}
