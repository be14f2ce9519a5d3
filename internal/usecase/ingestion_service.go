package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/playerlink/internal/domain/bettingline"
	"github.com/riskibarqy/playerlink/internal/domain/playername"
	"github.com/riskibarqy/playerlink/internal/platform/logging"
	"github.com/riskibarqy/playerlink/internal/platform/metrics"
)

const (
	SideOver  = "over"
	SideUnder = "under"
)

// BettingLineInput is one side of one player prop as delivered by a betting feed.
type BettingLineInput struct {
	PlayerName string    `json:"player_name" validate:"required,max=128"`
	GameDate   time.Time `json:"game_date"`
	// EventID is the feed's event id. When empty one is derived from date and teams.
	EventID   string   `json:"event_id" validate:"omitempty,max=128"`
	HomeTeam  string   `json:"home_team" validate:"required,max=128"`
	AwayTeam  string   `json:"away_team" validate:"required,max=128,nefield=HomeTeam"`
	Stat      string   `json:"stat_type" validate:"required,oneof=points rebounds assists threes minutes field_goals_made free_throws_made steals blocks turnovers plus_minus"`
	Point     float64  `json:"point" validate:"gte=0"`
	Side      string   `json:"side" validate:"omitempty,oneof=over under"`
	Price     *float64 `json:"price"`
	Bookmaker string   `json:"bookmaker" validate:"omitempty,max=64"`
}

type IngestResult struct {
	Received            int `json:"received"`
	Stored              int `json:"stored"`
	Rejected            int `json:"rejected"`
	Failed              int `json:"failed"`
	PlaceholdersCreated int `json:"placeholders_created"`
}

func (r *IngestResult) add(o IngestResult) {
	r.Received += o.Received
	r.Stored += o.Stored
	r.Rejected += o.Rejected
	r.Failed += o.Failed
	r.PlaceholdersCreated += o.PlaceholdersCreated
}

// IngestionService resolves betting-feed names to identities and stores their lines.
type IngestionService struct {
	adapter  SportAdapter
	resolver *IdentityResolver
	lines    bettingline.Repository
	validate *validator.Validate
	logger   *logging.Logger
	metrics  *metrics.Recorder
}

func NewIngestionService(
	adapter SportAdapter,
	resolver *IdentityResolver,
	lines bettingline.Repository,
	logger *logging.Logger,
	recorder *metrics.Recorder,
) *IngestionService {
	if logger == nil {
		logger = logging.Default()
	}
	return &IngestionService{
		adapter:  adapter,
		resolver: resolver,
		lines:    lines,
		validate: validator.New(),
		logger:   logger.Named("ingest"),
		metrics:  recorder,
	}
}

// IngestLines stores each input independently. A bad input is counted and skipped; only
// cancellation aborts the batch.
func (s *IngestionService) IngestLines(ctx context.Context, feed string, inputs []BettingLineInput) (IngestResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IngestionService.IngestLines",
		attribute.String("ingest.feed", feed), attribute.Int("ingest.count", len(inputs)))
	defer span.End()

	result := IngestResult{Received: len(inputs)}
	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		created, err := s.ingestOne(ctx, in)
		switch {
		case err == nil:
			result.Stored++
			if created {
				result.PlaceholdersCreated++
			}
		case errors.Is(err, ErrInvalidInput):
			result.Rejected++
			s.logger.WarnContext(ctx, "betting line rejected", "feed", feed, "player", in.PlayerName, "error", err)
		default:
			result.Failed++
			s.logger.ErrorContext(ctx, "betting line not stored", "feed", feed, "player", in.PlayerName, "error", err)
		}
	}
	s.metrics.LinesIngested(feed, result.Stored)
	return result, nil
}

func (s *IngestionService) ingestOne(ctx context.Context, in BettingLineInput) (bool, error) {
	if err := s.validate.StructCtx(ctx, in); err != nil {
		return false, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}
	if in.GameDate.IsZero() {
		return false, fmt.Errorf("%w: game date is required", ErrInvalidInput)
	}

	gameDate := bettingline.DateOf(in.GameDate)
	homeKey := s.adapter.TeamKey(in.HomeTeam)
	awayKey := s.adapter.TeamKey(in.AwayTeam)
	eventID := strings.TrimSpace(in.EventID)
	if eventID == "" {
		eventID = derivedEventID(gameDate, homeKey, awayKey)
	}

	res, err := s.resolver.ResolveFromBettingSource(ctx, in.PlayerName, gameDate, TeamContext{homeKey, awayKey})
	if err != nil {
		return false, err
	}

	line := bettingline.Line{Point: in.Point, Bookmaker: strings.ToLower(strings.TrimSpace(in.Bookmaker))}
	switch in.Side {
	case SideOver:
		line.OverPrice = in.Price
	case SideUnder:
		line.UnderPrice = in.Price
	}

	_, err = s.lines.UpsertLine(ctx, bettingline.LineUpsert{
		PlayerID:        res.Identity.ID,
		PlayerName:      strings.TrimSpace(in.PlayerName),
		NormalizedName:  playername.Normalize(in.PlayerName),
		GameDate:        gameDate,
		ProviderEventID: eventID,
		HomeTeam:        strings.TrimSpace(in.HomeTeam),
		AwayTeam:        strings.TrimSpace(in.AwayTeam),
		HomeTeamKey:     homeKey,
		AwayTeamKey:     awayKey,
		Stat:            bettingline.StatType(in.Stat),
		Line:            line,
	})
	if err != nil {
		return false, errors.Wrapf(err, "upsert betting line for identity %d", res.Identity.ID)
	}
	return res.Created, nil
}

func derivedEventID(date time.Time, homeKey, awayKey string) string {
	return fmt.Sprintf("derived:%s:%s:%s", date.Format(time.DateOnly),
		strings.ReplaceAll(homeKey, " ", "_"), strings.ReplaceAll(awayKey, " ", "_"))
}
