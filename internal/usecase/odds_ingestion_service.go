package usecase

import (
	"context"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/playerlink/internal/domain/bettingline"
	"github.com/riskibarqy/playerlink/internal/platform/logging"
)

const oddsFeedName = "odds_api"

// Earlier bookmakers win when several quote the same player prop.
var bookmakerPreference = []string{"draftkings", "fanduel", "bovada", "betmgm"}

var easternZone = loadEasternZone()

func loadEasternZone() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.FixedZone("EST", -5*60*60)
	}
	return loc
}

// EasternDate is the US/Eastern calendar date of t, which is how games are filed.
func EasternDate(t time.Time) time.Time {
	return bettingline.DateOf(t.In(easternZone))
}

type OddsIngestionResult struct {
	Events  int          `json:"events"`
	Failed  int          `json:"failed_events"`
	Outcome IngestResult `json:"outcome"`
}

// OddsIngestionService pulls player props from the odds provider for one day.
type OddsIngestionService struct {
	feed    OddsFeed
	adapter SportAdapter
	ingest  *IngestionService
	logger  *logging.Logger
}

func NewOddsIngestionService(feed OddsFeed, adapter SportAdapter, ingest *IngestionService, logger *logging.Logger) *OddsIngestionService {
	if logger == nil {
		logger = logging.Default()
	}
	return &OddsIngestionService{feed: feed, adapter: adapter, ingest: ingest, logger: logger.Named("odds")}
}

func (s *OddsIngestionService) IngestDate(ctx context.Context, date time.Time) (OddsIngestionResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.OddsIngestionService.IngestDate",
		attribute.String("ingest.date", date.Format(time.DateOnly)))
	defer span.End()

	events, err := s.feed.ListEvents(ctx, date)
	if err != nil {
		return OddsIngestionResult{}, failSpan(span, errors.Wrap(err, "list odds events"))
	}

	result := OddsIngestionResult{}
	day := bettingline.DateOf(date)
	for _, event := range events {
		if !EasternDate(event.CommenceTime).Equal(day) {
			continue
		}
		result.Events++

		outcomes, err := s.feed.FetchPlayerProps(ctx, event.EventID, s.adapter.Markets())
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return result, failSpan(span, err)
			}
			result.Failed++
			s.logger.WarnContext(ctx, "fetch player props failed, event skipped", "event_id", event.EventID, "error", err)
			continue
		}

		inputs := s.linesFromOutcomes(event, outcomes)
		got, err := s.ingest.IngestLines(ctx, oddsFeedName, inputs)
		result.Outcome.add(got)
		if err != nil {
			return result, failSpan(span, err)
		}
	}
	return result, nil
}

type propKey struct {
	player string
	market string
}

// linesFromOutcomes keeps one bookmaker per player prop, preferring the known books in order
// and falling back to the alphabetically first unknown one.
func (s *OddsIngestionService) linesFromOutcomes(event ExternalOddsEvent, outcomes []ExternalPropOutcome) []BettingLineInput {
	grouped := make(map[propKey][]ExternalPropOutcome)
	var order []propKey
	for _, o := range outcomes {
		if _, ok := s.adapter.StatForMarket(o.Market); !ok || strings.TrimSpace(o.PlayerName) == "" {
			continue
		}
		k := propKey{player: strings.TrimSpace(o.PlayerName), market: o.Market}
		if _, seen := grouped[k]; !seen {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], o)
	}

	inputs := make([]BettingLineInput, 0, len(order)*2)
	for _, k := range order {
		group := grouped[k]
		book := preferredBookmaker(group)
		stat, _ := s.adapter.StatForMarket(k.market)
		for _, o := range group {
			if o.Bookmaker != book {
				continue
			}
			side := strings.ToLower(strings.TrimSpace(o.Side))
			if side != SideOver && side != SideUnder {
				continue
			}
			price := o.Price
			inputs = append(inputs, BettingLineInput{
				PlayerName: k.player,
				GameDate:   EasternDate(event.CommenceTime),
				EventID:    event.EventID,
				HomeTeam:   event.HomeTeam,
				AwayTeam:   event.AwayTeam,
				Stat:       string(stat),
				Point:      o.Point,
				Side:       side,
				Price:      &price,
				Bookmaker:  book,
			})
		}
	}
	return inputs
}

func preferredBookmaker(group []ExternalPropOutcome) string {
	books := make([]string, 0, len(group))
	for _, o := range group {
		if !slices.Contains(books, o.Bookmaker) {
			books = append(books, o.Bookmaker)
		}
	}
	for _, preferred := range bookmakerPreference {
		if slices.Contains(books, preferred) {
			return preferred
		}
	}
	sort.Strings(books)
	return books[0]
}
