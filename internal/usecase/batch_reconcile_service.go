package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/playerlink/internal/domain/bettingline"
	"github.com/riskibarqy/playerlink/internal/platform/logging"
	"github.com/riskibarqy/playerlink/internal/platform/metrics"
)

const (
	batchStatusSuccess = "success"
	batchStatusFailed  = "failed"
	batchStatusSkipped = "skipped"

	defaultGameWorkers = 4
	maxGameWorkers     = 16
	maxBatchDays       = 62
)

type BatchReconcileInput struct {
	From time.Time
	// To is inclusive. Zero means a single day.
	To         time.Time
	MaxWorkers int
	// EventIDs narrows the run to specific games.
	EventIDs []string
}

type BatchReconcileResult struct {
	DateCount    int               `json:"date_count"`
	GameCount    int               `json:"game_count"`
	SuccessCount int               `json:"success_count"`
	FailedCount  int               `json:"failed_count"`
	SkippedCount int               `json:"skipped_count"`
	WorkerCount  int               `json:"worker_count"`
	Games        []GameBatchResult `json:"games"`
}

type GameBatchResult struct {
	EventID    string     `json:"event_id"`
	GameDate   string     `json:"game_date"`
	Status     string     `json:"status"`
	Report     GameReport `json:"report"`
	DurationMs int64      `json:"duration_ms"`
	Message    string     `json:"message,omitempty"`
}

type gameReconciler interface {
	ReconcileGame(ctx context.Context, game GameRef) (GameReport, error)
}

// BatchReconcileService lists completed games per day and reconciles them on a bounded
// worker pool.
type BatchReconcileService struct {
	feed       BoxScoreFeed
	reconciler gameReconciler
	logger     *logging.Logger
	metrics    *metrics.Recorder

	poolOptions []ants.Option
}

func NewBatchReconcileService(
	feed BoxScoreFeed,
	reconciler gameReconciler,
	logger *logging.Logger,
	recorder *metrics.Recorder,
) *BatchReconcileService {
	if logger == nil {
		logger = logging.Default()
	}
	return &BatchReconcileService{
		feed:       feed,
		reconciler: reconciler,
		logger:     logger.Named("batch"),
		metrics:    recorder,
	}
}

func (s *BatchReconcileService) Run(ctx context.Context, input BatchReconcileInput) (BatchReconcileResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BatchReconcileService.Run",
		attribute.String("batch.from", input.From.Format(time.DateOnly)))
	defer span.End()

	dates, err := batchDates(input.From, input.To)
	if err != nil {
		return BatchReconcileResult{}, failSpan(span, err)
	}

	wanted := make(map[string]struct{}, len(input.EventIDs))
	for _, id := range input.EventIDs {
		wanted[id] = struct{}{}
	}

	result := BatchReconcileResult{DateCount: len(dates)}
	var games []GameRef
	for _, date := range dates {
		listed, err := s.feed.ListGames(ctx, date)
		if err != nil {
			s.logger.WarnContext(ctx, "list games failed, date skipped", "date", date.Format(time.DateOnly), "error", err)
			result.Games = append(result.Games, GameBatchResult{
				GameDate: date.Format(time.DateOnly),
				Status:   batchStatusFailed,
				Message:  err.Error(),
			})
			result.FailedCount++
			continue
		}
		for _, g := range listed {
			if !g.Completed {
				continue
			}
			if _, ok := wanted[g.EventID]; len(wanted) > 0 && !ok {
				continue
			}
			games = append(games, GameRef{EventID: g.EventID, GameDate: date})
		}
	}

	workerCount := normalizeGameWorkerCount(input.MaxWorkers, len(games))
	result.GameCount = len(games)
	result.WorkerCount = workerCount
	if len(games) == 0 {
		return result, nil
	}

	results := make(chan GameBatchResult, len(games))

	var successCount atomic.Int32
	var failedCount atomic.Int32
	var skippedCount atomic.Int32

	pool, err := ants.NewPool(workerCount, s.poolOptions...)
	if err != nil {
		return BatchReconcileResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for _, game := range games {
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			start := time.Now()
			row := GameBatchResult{
				EventID:  game.EventID,
				GameDate: game.GameDate.Format(time.DateOnly),
			}

			report, err := s.reconciler.ReconcileGame(ctx, game)
			row.Report = report
			switch {
			case err == nil:
				row.Status = batchStatusSuccess
				successCount.Add(1)
			case IsGameSkippable(err):
				row.Status = batchStatusSkipped
				row.Message = err.Error()
				skippedCount.Add(1)
				s.logger.WarnContext(ctx, "game skipped", "event_id", game.EventID, "error", err)
			default:
				row.Status = batchStatusFailed
				row.Message = err.Error()
				failedCount.Add(1)
				s.logger.ErrorContext(ctx, "game failed", "event_id", game.EventID, "error", err)
			}
			elapsed := time.Since(start)
			row.DurationMs = elapsed.Milliseconds()
			s.metrics.GameFinished(row.Status, elapsed.Seconds())

			results <- row
		}); err != nil {
			workers.Done()
			workers.Wait()
			return BatchReconcileResult{}, failSpan(span, fmt.Errorf("submit game to worker pool: %w", err))
		}
	}

	workers.Wait()
	close(results)

	for row := range results {
		result.Games = append(result.Games, row)
	}

	sort.SliceStable(result.Games, func(i, j int) bool {
		if result.Games[i].GameDate != result.Games[j].GameDate {
			return result.Games[i].GameDate < result.Games[j].GameDate
		}
		return result.Games[i].EventID < result.Games[j].EventID
	})

	result.SuccessCount = int(successCount.Load())
	result.FailedCount += int(failedCount.Load())
	result.SkippedCount = int(skippedCount.Load())
	return result, nil
}

func batchDates(from, to time.Time) ([]time.Time, error) {
	if from.IsZero() {
		return nil, fmt.Errorf("%w: from date is required", ErrInvalidInput)
	}
	start := bettingline.DateOf(from)
	end := start
	if !to.IsZero() {
		end = bettingline.DateOf(to)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: to date %s is before from date %s", ErrInvalidInput,
			end.Format(time.DateOnly), start.Format(time.DateOnly))
	}

	var dates []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
		if len(dates) > maxBatchDays {
			return nil, fmt.Errorf("%w: date range exceeds %d days", ErrInvalidInput, maxBatchDays)
		}
	}
	return dates, nil
}

func normalizeGameWorkerCount(requested, tasks int) int {
	n := requested
	if n <= 0 {
		n = defaultGameWorkers
	}
	n = min(n, maxGameWorkers)
	if tasks > 0 {
		n = min(n, tasks)
	}
	return max(n, 1)
}
