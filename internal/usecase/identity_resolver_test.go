package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/riskibarqy/playerlink/internal/domain/identity"
	"github.com/riskibarqy/playerlink/internal/domain/playername"
	"github.com/riskibarqy/playerlink/internal/infrastructure/repository/memory"
	identitymock "github.com/riskibarqy/playerlink/internal/mocks/domain/identity"
	"github.com/riskibarqy/playerlink/internal/platform/logging"
)

func TestIdentityResolver_AliasTierShortCircuitsUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := identitymock.NewRepository(t)
	resolver := NewIdentityResolver(repo, playername.NewMappings(nil), logging.NewNop(), nil)

	lebron := identity.Identity{ID: 23, NormalizedName: "lebron james", ExternalID: "1966"}
	repo.
		On("FindByAlias", mock.Anything, identity.SourceOddsAPI, "lebron james").
		Return(lebron, nil).
		Once()

	got, err := resolver.ResolveFromBettingSource(ctx, "LeBron James", testGameDate, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.Identity.ID != lebron.ID || got.Tier != TierAlias || got.Created {
		t.Fatalf("unexpected resolution %+v", got)
	}
}

func TestIdentityResolver_AliasConflictIsSuccessUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := identitymock.NewRepository(t)
	resolver := NewIdentityResolver(repo, playername.NewMappings(nil), logging.NewNop(), nil)

	brunson := identity.Identity{ID: 11, NormalizedName: "jalen brunson", ExternalID: "1628973"}
	repo.
		On("FindByAlias", mock.Anything, identity.SourceOddsAPI, "jalen brunson").
		Return(identity.Identity{}, identity.ErrNotFound).
		Once()
	repo.
		On("FindByNormalizedName", mock.Anything, "jalen brunson").
		Return([]identity.Identity{brunson}, nil).
		Once()
	repo.
		On("AddAlias", mock.Anything, mock.MatchedBy(func(a identity.Alias) bool {
			return a.IdentityID == brunson.ID && a.Source == identity.SourceOddsAPI && a.NormalizedName == "jalen brunson"
		})).
		Return(identity.ErrAliasConflict).
		Once()

	got, err := resolver.ResolveFromBettingSource(ctx, "Jalen Brunson", testGameDate, nil)
	if err != nil {
		t.Fatalf("alias conflict should not fail resolution: %v", err)
	}
	if got.Identity.ID != brunson.ID || got.Tier != TierExactName {
		t.Fatalf("unexpected resolution %+v", got)
	}
}

func TestIdentityResolver_RejectsEmptyName(t *testing.T) {
	t.Parallel()

	resolver := NewIdentityResolver(memory.NewIdentityRepository(), playername.NewMappings(nil), nil, nil)
	if _, err := resolver.ResolveFromBettingSource(context.Background(), " .- ", testGameDate, nil); err == nil {
		t.Fatalf("expected invalid input error")
	}
}

func TestIdentityResolver_AuthoritativeUpgradesPlaceholderByVariation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := memory.NewIdentityRepository()
	resolver := NewIdentityResolver(repo, playername.NewMappings(nil), nil, nil)

	placeholder, err := resolver.ResolveFromBettingSource(ctx, "K. Towns", testGameDate, nil)
	if err != nil || !placeholder.Created {
		t.Fatalf("expected placeholder, got %+v err=%v", placeholder, err)
	}

	got, err := resolver.ResolveFromAuthoritativeSource(ctx, AuthoritativeSighting{
		ExternalID:  "1626157",
		DisplayName: "Karl-Anthony Towns",
		TeamKey:     "new york knicks",
		GameDate:    testGameDate,
	})
	if err != nil {
		t.Fatalf("resolve authoritative: %v", err)
	}
	if got.Identity.ID != placeholder.Identity.ID || got.Created {
		t.Fatalf("expected in-place upgrade, got %+v", got)
	}
	if got.Identity.ExternalID != "1626157" || got.Identity.NormalizedName != "karlanthony towns" {
		t.Fatalf("unexpected upgraded identity %+v", got.Identity)
	}

	again, err := resolver.ResolveFromBettingSource(ctx, "K. Towns", testGameDate, nil)
	if err != nil || again.Tier != TierAlias || again.Identity.ID != placeholder.Identity.ID {
		t.Fatalf("betting alias should still resolve to the same identity: %+v err=%v", again, err)
	}
}

func TestIdentityResolver_NamesakeWithRealIDIsNotReused(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := memory.NewIdentityRepository()
	resolver := NewIdentityResolver(repo, playername.NewMappings(nil), nil, nil)

	first, err := resolver.ResolveFromAuthoritativeSource(ctx, AuthoritativeSighting{
		ExternalID: "202694", DisplayName: "Marcus Morris Sr.", TeamKey: "philadelphia 76ers", GameDate: testGameDate,
	})
	if err != nil {
		t.Fatalf("resolve first: %v", err)
	}
	second, err := resolver.ResolveFromAuthoritativeSource(ctx, AuthoritativeSighting{
		ExternalID: "999001", DisplayName: "Marcus Morris", TeamKey: "philadelphia 76ers", GameDate: testGameDate,
	})
	if err != nil {
		t.Fatalf("resolve second: %v", err)
	}
	if first.Identity.ID == second.Identity.ID {
		t.Fatalf("a real external id must never be replaced")
	}
	kept, _ := repo.GetByID(ctx, first.Identity.ID)
	if kept.ExternalID != "202694" {
		t.Fatalf("first identity changed: %+v", kept)
	}
}

func TestIdentityResolver_FuzzyRequiresTeamContext(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		teams     TeamContext
		wantFuzzy bool
	}{
		{name: "context agrees", teams: TeamContext{"new york knicks", "boston celtics"}, wantFuzzy: true},
		{name: "context disagrees", teams: TeamContext{"miami heat", "boston celtics"}},
		{name: "no context", teams: nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			resolver := NewIdentityResolver(memory.NewIdentityRepository(), playername.NewMappings(nil), nil, nil)
			brunson, err := resolver.ResolveFromAuthoritativeSource(ctx, AuthoritativeSighting{
				ExternalID: "1628973", DisplayName: "Jalen Brunson", TeamKey: "new york knicks", GameDate: testGameDate,
			})
			if err != nil {
				t.Fatalf("seed: %v", err)
			}

			got, err := resolver.ResolveFromBettingSource(ctx, "J. Brunson", testGameDate, tc.teams)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if tc.wantFuzzy {
				if got.Identity.ID != brunson.Identity.ID || got.Tier != TierFuzzy {
					t.Fatalf("expected fuzzy match, got %+v", got)
				}
				return
			}
			if !got.Created || got.Identity.ID == brunson.Identity.ID {
				t.Fatalf("fuzzy tier must fail closed, got %+v", got)
			}
		})
	}
}
