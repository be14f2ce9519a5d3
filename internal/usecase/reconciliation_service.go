package usecase

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/playerlink/internal/domain/bettingline"
	"github.com/riskibarqy/playerlink/internal/domain/identity"
	"github.com/riskibarqy/playerlink/internal/domain/mismatch"
	"github.com/riskibarqy/playerlink/internal/domain/roster"
	"github.com/riskibarqy/playerlink/internal/platform/logging"
	"github.com/riskibarqy/playerlink/internal/platform/metrics"
)

const defaultRecordWorkers = 8

// GameRef points at one completed game. GameDate is the calendar date the betting lines
// were filed under.
type GameRef struct {
	EventID  string
	GameDate time.Time
}

// GameReport counts what happened to each betting-line record of one game.
type GameReport struct {
	EventID       string   `json:"event_id"`
	GameDate      string   `json:"game_date"`
	Teams         []string `json:"teams"`
	Records       int      `json:"records"`
	Reconciled    int      `json:"reconciled"`
	DidNotPlay    int      `json:"did_not_play"`
	LegitAbsences int      `json:"legit_absences"`
	Escalated     int      `json:"escalated"`
	AlreadyQueued int      `json:"already_queued"`
	Failed        int      `json:"failed"`
}

type recordOutcome string

const (
	outcomeReconciled    recordOutcome = "reconciled"
	outcomeDidNotPlay    recordOutcome = "did_not_play"
	outcomeLegitAbsence  recordOutcome = "legit_absence"
	outcomeEscalated     recordOutcome = "escalated"
	outcomeAlreadyQueued recordOutcome = "already_queued"
	outcomeFailed        recordOutcome = "failed"
)

type ReconciliationConfig struct {
	RecordWorkers int
}

// ReconciliationService joins betting-line records to box-score rows.
type ReconciliationService struct {
	adapter    SportAdapter
	lines      bettingline.Repository
	identities identity.Repository
	mismatches mismatch.Repository
	resolver   *IdentityResolver
	logger     *logging.Logger
	metrics    *metrics.Recorder
	cfg        ReconciliationConfig
	now        func() time.Time
}

func NewReconciliationService(
	cfg ReconciliationConfig,
	adapter SportAdapter,
	lines bettingline.Repository,
	identities identity.Repository,
	mismatches mismatch.Repository,
	resolver *IdentityResolver,
	logger *logging.Logger,
	recorder *metrics.Recorder,
) *ReconciliationService {
	if cfg.RecordWorkers <= 0 {
		cfg.RecordWorkers = defaultRecordWorkers
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ReconciliationService{
		adapter:    adapter,
		lines:      lines,
		identities: identities,
		mismatches: mismatches,
		resolver:   resolver,
		logger:     logger.Named("reconcile"),
		metrics:    recorder,
		cfg:        cfg,
		now:        time.Now,
	}
}

// ReconcileGame fetches one box score and reconciles every betting-line record filed
// against either team on that date. Errors on single records are isolated; the returned
// error is for failures that affect the whole game.
func (s *ReconciliationService) ReconcileGame(ctx context.Context, game GameRef) (GameReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReconciliationService.ReconcileGame",
		attribute.String("game.event_id", game.EventID))
	defer span.End()

	report := GameReport{EventID: strings.TrimSpace(game.EventID)}
	if report.EventID == "" || game.GameDate.IsZero() {
		return report, fmt.Errorf("%w: event id and game date are required", ErrInvalidInput)
	}
	gameDate := bettingline.DateOf(game.GameDate)
	report.GameDate = gameDate.Format(time.DateOnly)

	ext, err := s.adapter.RosterSource().FetchBoxScore(ctx, report.EventID)
	if err != nil {
		return report, failSpan(span, errors.Wrapf(err, "fetch box score %s", report.EventID))
	}
	box, err := s.adapter.BuildBoxScore(ext, gameDate)
	if err != nil {
		return report, failSpan(span, err)
	}
	idx, err := roster.NewGameIndex(box)
	if err != nil {
		return report, failSpan(span, errors.Mark(err, ErrDataIntegrity))
	}
	report.Teams = idx.TeamKeys()

	records, err := s.lines.ListForGame(ctx, gameDate, idx.TeamKeys())
	if err != nil {
		return report, errors.Wrapf(err, "list betting lines for %s", report.EventID)
	}
	report.Records = len(records)
	if len(records) == 0 {
		s.logger.InfoContext(ctx, "no betting lines for game", "event_id", report.EventID, "game_date", report.GameDate)
		return report, nil
	}

	var mu sync.Mutex
	p := pool.New().WithMaxGoroutines(min(s.cfg.RecordWorkers, len(records)))
	for _, rec := range records {
		p.Go(func() {
			outcome := s.reconcileRecord(ctx, idx, rec)
			s.metrics.RecordOutcome(string(outcome))

			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case outcomeReconciled:
				report.Reconciled++
			case outcomeDidNotPlay:
				report.DidNotPlay++
			case outcomeLegitAbsence:
				report.LegitAbsences++
			case outcomeEscalated:
				report.Escalated++
			case outcomeAlreadyQueued:
				report.AlreadyQueued++
			default:
				report.Failed++
			}
		})
	}
	p.Wait()

	s.logger.InfoContext(ctx, "game reconciled",
		"event_id", report.EventID,
		"records", report.Records,
		"reconciled", report.Reconciled,
		"did_not_play", report.DidNotPlay,
		"escalated", report.Escalated,
		"failed", report.Failed,
	)
	return report, nil
}

func (s *ReconciliationService) reconcileRecord(ctx context.Context, idx *roster.GameIndex, rec bettingline.Record) recordOutcome {
	logger := s.logger.With("record_id", rec.ID, "player_id", rec.PlayerID, "name", rec.NormalizedName)

	ident, err := s.identities.GetByID(ctx, rec.PlayerID)
	if err != nil {
		logger.ErrorContext(ctx, "load identity for record", "error", err)
		return s.escalate(ctx, rec, mismatch.ReasonWriteFailed)
	}

	teams := TeamContext(slices.DeleteFunc(rec.TeamKeys(), func(k string) bool { return !idx.HasTeam(k) }))
	var mapped []string
	if s.resolver != nil {
		if canonical, ok := s.resolver.matcher.mappings.Canonical(rec.NormalizedName); ok {
			mapped = append(mapped, canonical)
		}
	}
	res := matchRecord(idx, ident, rec, teams, mapped...)
	if !res.Found() {
		return s.handleUnmatched(ctx, logger, rec, ident, res)
	}

	entry := res.Value
	if _, err := s.resolver.ConfirmIdentity(ctx, ident, entry, rec.GameDate); err != nil {
		if !errors.Is(err, identity.ErrExternalIDTaken) {
			logger.ErrorContext(ctx, "confirm identity", "error", err)
			return s.escalate(ctx, rec, mismatch.ReasonWriteFailed)
		}
		logger.WarnContext(ctx, "record identity duplicates a confirmed identity", "external_id", entry.ExternalID, "error", err)
	}

	err = s.lines.ApplyReconciliation(ctx, bettingline.Reconciliation{
		RecordID:          rec.ID,
		Actuals:           entry.Stats,
		DidNotPlay:        entry.DidNotPlay,
		PlayerTeam:        idx.TeamOf(entry).Name,
		OpponentTeam:      idx.OpponentOf(entry).Name,
		EventID:           idx.EventID(),
		MatchedExternalID: entry.ExternalID,
		At:                s.now().UTC(),
	})
	if err != nil {
		logger.ErrorContext(ctx, "write reconciliation", "error", err)
		return s.escalate(ctx, rec, mismatch.ReasonWriteFailed)
	}

	if rec.Status == bettingline.StatusMismatched {
		notes := fmt.Sprintf("auto: reconciled by %s match to %s", res.Tier, entry.ExternalID)
		if err := s.mismatches.Resolve(ctx, rec.ID, notes); err != nil {
			logger.WarnContext(ctx, "close mismatch entry", "error", err)
		}
	}

	logger.DebugContext(ctx, "record reconciled", "tier", string(res.Tier), "external_id", entry.ExternalID)
	if entry.DidNotPlay {
		return outcomeDidNotPlay
	}
	return outcomeReconciled
}

// matchRecord tries the external-id fast path, then exact name, then fuzzy. When the
// record or its identity already carries an authoritative id that result is final.
// mapped holds manual-mapping keys tried after the record and identity names.
func matchRecord(
	idx *roster.GameIndex,
	ident identity.Identity,
	rec bettingline.Record,
	teams TeamContext,
	mapped ...string,
) MatchResult[roster.Entry] {
	knownIDs := uniqueKeys(rec.MatchedExternalID)
	if ident.HasAuthoritativeID() {
		knownIDs = uniqueKeys(rec.MatchedExternalID, ident.ExternalID)
	}
	if len(knownIDs) > 0 {
		return rosterByExternalID(idx, knownIDs...)
	}

	names := uniqueKeys(append([]string{rec.NormalizedName, ident.NormalizedName}, mapped...)...)
	exact := rosterByExactName(idx, teams, names...)
	if exact.Found() {
		return exact
	}
	fuzzy := rosterByFuzzy(idx, teams, names...)
	if fuzzy.Found() || fuzzy.Ambiguous() {
		return fuzzy
	}
	if exact.Ambiguous() {
		return exact
	}
	return fuzzy
}

// handleUnmatched separates a player who simply was not in this game from a real identity
// problem. A player whose known authoritative ids agree on one value is taken as absent.
func (s *ReconciliationService) handleUnmatched(
	ctx context.Context,
	logger *logging.Logger,
	rec bettingline.Record,
	ident identity.Identity,
	res MatchResult[roster.Entry],
) recordOutcome {
	ids, err := s.lines.MatchedExternalIDs(ctx, rec.PlayerID, rec.ID)
	if err != nil {
		logger.ErrorContext(ctx, "load matched external ids", "error", err)
		return s.escalate(ctx, rec, mismatch.ReasonWriteFailed)
	}
	if ident.HasAuthoritativeID() {
		ids = append(ids, ident.ExternalID)
	}
	if rec.MatchedExternalID != "" {
		ids = append(ids, rec.MatchedExternalID)
	}
	ids = uniqueKeys(ids...)

	if len(ids) == 1 && !res.Ambiguous() {
		logger.InfoContext(ctx, "player absent from box score", "external_id", ids[0], "tier", string(res.Tier))
		return outcomeLegitAbsence
	}

	reason := mismatch.ReasonNoCandidate
	switch {
	case len(ids) > 1:
		reason = mismatch.ReasonInconsistentIDs
	case res.Ambiguous():
		reason = mismatch.ReasonAmbiguous
	case res.Reason == reasonTeamDisagrees:
		reason = mismatch.ReasonTeamDisagreement
	}
	logger.WarnContext(ctx, "record could not be reconciled", "reason", reason, "tier", string(res.Tier), "candidates", res.Candidates)
	return s.escalate(ctx, rec, reason)
}

func (s *ReconciliationService) escalate(ctx context.Context, rec bettingline.Record, reason string) recordOutcome {
	created, err := s.mismatches.EnqueueUnresolved(ctx, mismatch.Entry{
		RecordID:       rec.ID,
		PlayerID:       rec.PlayerID,
		GameDate:       rec.GameDate,
		HomeTeam:       rec.HomeTeam,
		AwayTeam:       rec.AwayTeam,
		NormalizedName: rec.NormalizedName,
		Reason:         reason,
		CreatedAt:      s.now().UTC(),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "enqueue mismatch", "record_id", rec.ID, "error", err)
		return outcomeFailed
	}
	if rec.Status == bettingline.StatusPending {
		if err := s.lines.MarkMismatched(ctx, rec.ID); err != nil {
			s.logger.ErrorContext(ctx, "mark record mismatched", "record_id", rec.ID, "error", err)
			return outcomeFailed
		}
	}
	if reason == mismatch.ReasonWriteFailed {
		return outcomeFailed
	}
	if !created {
		return outcomeAlreadyQueued
	}
	return outcomeEscalated
}
