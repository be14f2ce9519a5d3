package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/riskibarqy/playerlink/internal/domain/playername"
	"github.com/riskibarqy/playerlink/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/playerlink/internal/platform/logging"
)

var (
	testGameDate = time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	testLabels   = []string{"MIN", "FG", "3PT", "FT", "REB", "AST", "+/-", "PTS"}
)

const testEventID = "401585601"

type stubBoxScoreFeed struct {
	mu      sync.Mutex
	games   map[string][]ExternalGame
	boxes   map[string]ExternalBoxScore
	errs    map[string]error
	fetches map[string]int
}

func newStubBoxScoreFeed() *stubBoxScoreFeed {
	return &stubBoxScoreFeed{
		games:   make(map[string][]ExternalGame),
		boxes:   make(map[string]ExternalBoxScore),
		errs:    make(map[string]error),
		fetches: make(map[string]int),
	}
}

func (f *stubBoxScoreFeed) ListGames(_ context.Context, date time.Time) ([]ExternalGame, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.games[date.Format(time.DateOnly)], nil
}

func (f *stubBoxScoreFeed) FetchBoxScore(_ context.Context, eventID string) (ExternalBoxScore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches[eventID]++
	if err := f.errs[eventID]; err != nil {
		return ExternalBoxScore{}, err
	}
	box, ok := f.boxes[eventID]
	if !ok {
		return ExternalBoxScore{}, errors.Newf("unknown event %s", eventID)
	}
	return box, nil
}

func (f *stubBoxScoreFeed) addGame(date time.Time, box ExternalBoxScore) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := date.Format(time.DateOnly)
	f.games[key] = append(f.games[key], ExternalGame{EventID: box.EventID, StartsAt: date.Add(24 * time.Hour), Completed: true})
	f.boxes[box.EventID] = box
}

// knicksCeltics is a trimmed box score with two Williamses on one side and an inactive
// center listed as out.
func knicksCeltics() ExternalBoxScore {
	return ExternalBoxScore{
		EventID: testEventID,
		Teams: []ExternalTeamBox{
			{TeamExternalID: "18", TeamName: "New York Knicks", StatLabels: testLabels, Athletes: []ExternalAthlete{
				{ExternalID: "1626157", DisplayName: "Karl-Anthony Towns", Position: "C", Stats: []string{"36", "10-18", "3-7", "5-6", "12", "4", "-3", "28"}},
				{ExternalID: "1628973", DisplayName: "Jalen Brunson", Position: "PG", Stats: []string{"38", "11-22", "2-6", "4-4", "3", "9", "+5", "28"}},
			}},
			{TeamExternalID: "2", TeamName: "Boston Celtics", StatLabels: testLabels, Athletes: []ExternalAthlete{
				{ExternalID: "1628369", DisplayName: "Jayson Tatum", Position: "SF", Stats: []string{"37", "12-24", "4-9", "6-7", "8", "5", "+8", "34"}},
				{ExternalID: "1629057", DisplayName: "Robert Williams III", Position: "C", Stats: []string{"22", "4-5", "0-0", "1-2", "9", "2", "+4", "9"}},
				{ExternalID: "1629684", DisplayName: "Grant Williams", Position: "PF", Stats: []string{"18", "2-5", "2-4", "0-0", "4", "1", "-2", "6"}},
			}},
		},
		Injuries: []ExternalInjury{
			{ExternalID: "1629011", DisplayName: "Mitchell Robinson", Status: "Out", TeamExternalID: "18"},
		},
	}
}

type reconcileHarness struct {
	identities *memory.IdentityRepository
	lines      *memory.BettingLineRepository
	mismatches *memory.MismatchRepository
	feed       *stubBoxScoreFeed
	resolver   *IdentityResolver
	ingest     *IngestionService
	reconciler *ReconciliationService
}

func newReconcileHarness(t *testing.T) *reconcileHarness {
	t.Helper()

	h := &reconcileHarness{
		identities: memory.NewIdentityRepository(),
		lines:      memory.NewBettingLineRepository(),
		mismatches: memory.NewMismatchRepository(),
		feed:       newStubBoxScoreFeed(),
	}
	logger := logging.NewNop()
	adapter := NewNBAAdapter(h.feed)
	h.resolver = NewIdentityResolver(h.identities, playername.NewMappings(nil), logger, nil)
	h.ingest = NewIngestionService(adapter, h.resolver, h.lines, logger, nil)
	h.reconciler = NewReconciliationService(
		ReconciliationConfig{RecordWorkers: 4},
		adapter, h.lines, h.identities, h.mismatches, h.resolver, logger, nil,
	)
	h.feed.addGame(testGameDate, knicksCeltics())
	return h
}

func (h *reconcileHarness) ingestLine(t *testing.T, name, stat string, point float64) {
	t.Helper()
	price := -110.0
	res, err := h.ingest.IngestLines(context.Background(), "test", []BettingLineInput{{
		PlayerName: name,
		GameDate:   testGameDate,
		EventID:    "odds-evt-1",
		HomeTeam:   "New York Knicks",
		AwayTeam:   "Boston Celtics",
		Stat:       stat,
		Point:      point,
		Side:       SideOver,
		Price:      &price,
		Bookmaker:  "draftkings",
	}})
	if err != nil || res.Stored != 1 {
		t.Fatalf("ingest %q: result=%+v err=%v", name, res, err)
	}
}

func (h *reconcileHarness) reconcile(t *testing.T) GameReport {
	t.Helper()
	report, err := h.reconciler.ReconcileGame(context.Background(), GameRef{EventID: testEventID, GameDate: testGameDate})
	if err != nil {
		t.Fatalf("reconcile game: %v", err)
	}
	return report
}
