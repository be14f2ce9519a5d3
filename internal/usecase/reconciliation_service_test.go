package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/riskibarqy/playerlink/internal/domain/bettingline"
	"github.com/riskibarqy/playerlink/internal/domain/identity"
	"github.com/riskibarqy/playerlink/internal/domain/mismatch"
	"github.com/riskibarqy/playerlink/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/playerlink/internal/platform/logging"
)

func recordFor(t *testing.T, h *reconcileHarness, normalizedName string) bettingline.Record {
	t.Helper()
	records, err := h.lines.ListForGame(context.Background(), testGameDate, []string{"new york knicks", "boston celtics"})
	if err != nil {
		t.Fatalf("list records: %v", err)
	}
	for _, r := range records {
		if r.NormalizedName == normalizedName {
			return r
		}
	}
	t.Fatalf("no record for %q", normalizedName)
	return bettingline.Record{}
}

func TestReconcileGame_ShorthandNameUpgradesPlaceholder(t *testing.T) {
	ctx := context.Background()
	h := newReconcileHarness(t)
	h.ingestLine(t, "K. Towns", "points", 24.5)

	before := recordFor(t, h, "k towns")
	placeholder, err := h.identities.GetByID(ctx, before.PlayerID)
	if err != nil {
		t.Fatalf("get identity: %v", err)
	}
	if placeholder.ExternalID != "pending_k_towns" {
		t.Fatalf("expected placeholder id, got %q", placeholder.ExternalID)
	}

	report := h.reconcile(t)
	if report.Reconciled != 1 || report.Escalated != 0 {
		t.Fatalf("unexpected report %+v", report)
	}

	rec := recordFor(t, h, "k towns")
	if points, ok := rec.Actual(bettingline.StatPoints); !ok || points != 28 {
		t.Fatalf("points = %v (ok=%v), want 28", points, ok)
	}
	if rec.Status != bettingline.StatusReconciled || rec.PlayerTeam != "New York Knicks" || rec.OpponentTeam != "Boston Celtics" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.EventID != testEventID || rec.MatchedExternalID != "1626157" {
		t.Fatalf("unexpected provenance event=%s ext=%s", rec.EventID, rec.MatchedExternalID)
	}

	upgraded, _ := h.identities.GetByID(ctx, rec.PlayerID)
	if upgraded.ID != placeholder.ID || upgraded.ExternalID != "1626157" {
		t.Fatalf("placeholder not upgraded in place: %+v", upgraded)
	}
	towns, _ := h.identities.FindBySurname(ctx, "towns")
	if len(towns) != 1 {
		t.Fatalf("expected one identity for towns, got %d", len(towns))
	}
}

func TestReconcileGame_SecondRunIsNoOp(t *testing.T) {
	h := newReconcileHarness(t)
	h.ingestLine(t, "K. Towns", "points", 24.5)
	h.ingestLine(t, "Jayson Tatum", "points", 27.5)

	h.reconcile(t)
	first := recordFor(t, h, "k towns")
	h.reconciler.now = func() time.Time { return first.ReconciledAt.Add(time.Hour) }

	report := h.reconcile(t)
	if report.Reconciled != 2 || report.Failed != 0 {
		t.Fatalf("unexpected second report %+v", report)
	}
	second := recordFor(t, h, "k towns")
	if !second.ReconciledAt.Equal(*first.ReconciledAt) {
		t.Fatalf("second run rewrote the record: %v -> %v", first.ReconciledAt, second.ReconciledAt)
	}
	if len(h.mismatches.All()) != 0 {
		t.Fatalf("unexpected mismatch entries %+v", h.mismatches.All())
	}
}

func TestReconcileGame_InitialWithSharedSurnameEscalatesOnce(t *testing.T) {
	h := newReconcileHarness(t)
	h.ingestLine(t, "R. Williams", "rebounds", 7.5)

	first := h.reconcile(t)
	if first.Escalated != 1 {
		t.Fatalf("expected escalation, got %+v", first)
	}
	second := h.reconcile(t)
	if second.AlreadyQueued != 1 || second.Escalated != 0 {
		t.Fatalf("expected dedupe on second run, got %+v", second)
	}

	entries := h.mismatches.All()
	if len(entries) != 1 {
		t.Fatalf("expected one mismatch entry, got %d", len(entries))
	}
	if entries[0].Reason != mismatch.ReasonAmbiguous {
		t.Fatalf("unexpected reason %q", entries[0].Reason)
	}
	rec := recordFor(t, h, "r williams")
	if rec.Status != bettingline.StatusMismatched || rec.Actuals != nil {
		t.Fatalf("ambiguous record must not be reconciled: %+v", rec)
	}
}

func TestReconcileGame_InactiveOutIsDidNotPlay(t *testing.T) {
	h := newReconcileHarness(t)
	h.ingestLine(t, "Mitchell Robinson", "rebounds", 8.5)

	report := h.reconcile(t)
	if report.DidNotPlay != 1 {
		t.Fatalf("expected DNP, got %+v", report)
	}
	rec := recordFor(t, h, "mitchell robinson")
	if !rec.DidNotPlay || rec.Actuals != nil || rec.Status != bettingline.StatusReconciled {
		t.Fatalf("unexpected DNP record %+v", rec)
	}
	if rec.PlayerTeam != "New York Knicks" {
		t.Fatalf("unexpected team %q", rec.PlayerTeam)
	}
}

func TestReconcileGame_KnownPlayerMissingFromBoxIsLegitAbsence(t *testing.T) {
	ctx := context.Background()
	h := newReconcileHarness(t)
	if _, err := h.resolver.ResolveFromAuthoritativeSource(ctx, AuthoritativeSighting{
		ExternalID:  "203944",
		DisplayName: "Julius Randle",
		TeamKey:     "new york knicks",
		GameDate:    testGameDate.AddDate(0, 0, -2),
	}); err != nil {
		t.Fatalf("seed identity: %v", err)
	}
	h.ingestLine(t, "Julius Randle", "points", 22.5)

	report := h.reconcile(t)
	if report.LegitAbsences != 1 || report.Escalated != 0 {
		t.Fatalf("expected legit absence, got %+v", report)
	}
	if len(h.mismatches.All()) != 0 {
		t.Fatalf("legit absence must not be queued")
	}
	if rec := recordFor(t, h, "julius randle"); rec.Status != bettingline.StatusPending {
		t.Fatalf("unexpected status %s", rec.Status)
	}
}

func TestReconcileGame_UnknownNameEscalatesNoCandidate(t *testing.T) {
	h := newReconcileHarness(t)
	h.ingestLine(t, "Nobody Special", "points", 10.5)

	report := h.reconcile(t)
	if report.Escalated != 1 {
		t.Fatalf("expected escalation, got %+v", report)
	}
	if got := h.mismatches.All()[0].Reason; got != mismatch.ReasonNoCandidate {
		t.Fatalf("unexpected reason %q", got)
	}
}

func TestReconcileGame_ManualResolutionThenRerun(t *testing.T) {
	ctx := context.Background()
	h := newReconcileHarness(t)
	h.ingestLine(t, "R. Williams", "rebounds", 7.5)
	h.reconcile(t)

	rec := recordFor(t, h, "r williams")
	service := NewMismatchService(h.mismatches, h.lines, h.identities, h.resolver, nil)
	if err := service.ResolveMismatch(ctx, ResolveMismatchInput{RecordID: rec.ID, ExternalID: "1629057"}); err != nil {
		t.Fatalf("resolve mismatch: %v", err)
	}
	open, _ := service.ListUnresolved(ctx, 0)
	if len(open) != 0 {
		t.Fatalf("expected empty queue, got %+v", open)
	}

	report := h.reconcile(t)
	if report.Reconciled != 1 {
		t.Fatalf("expected reconciliation after manual bind, got %+v", report)
	}
	rec = recordFor(t, h, "r williams")
	if rebounds, _ := rec.Actual(bettingline.StatRebounds); rebounds != 9 {
		t.Fatalf("rebounds = %v, want 9", rebounds)
	}
	ident, _ := h.identities.GetByID(ctx, rec.PlayerID)
	if ident.ExternalID != "1629057" {
		t.Fatalf("identity not bound: %+v", ident)
	}
}

func TestReconcileGame_MalformedBoxScoreIsSkippable(t *testing.T) {
	h := newReconcileHarness(t)
	box := knicksCeltics()
	box.Teams = box.Teams[:1]
	h.feed.boxes[testEventID] = box

	_, err := h.reconciler.ReconcileGame(context.Background(), GameRef{EventID: testEventID, GameDate: testGameDate})
	if !errors.Is(err, ErrDataIntegrity) || !IsGameSkippable(err) {
		t.Fatalf("expected data integrity error, got %v", err)
	}
}

func TestReconcileGame_DuplicateIdentityKeepsRecordIdentity(t *testing.T) {
	ctx := context.Background()
	h := newReconcileHarness(t)
	h.ingestLine(t, "K. Towns", "points", 24.5)
	if _, err := h.identities.Create(ctx, identity.NewIdentity{
		DisplayName:    "Karl-Anthony Towns",
		NormalizedName: "karlanthony towns",
		ExternalID:     "1626157",
		SeenDate:       testGameDate,
	}); err != nil {
		t.Fatalf("seed identity: %v", err)
	}

	report := h.reconcile(t)
	if report.Reconciled != 1 {
		t.Fatalf("stats should still be written, got %+v", report)
	}
	rec := recordFor(t, h, "k towns")
	ident, _ := h.identities.GetByID(ctx, rec.PlayerID)
	if !ident.IsPlaceholder() {
		t.Fatalf("placeholder must not take an id owned by another identity: %+v", ident)
	}
}

// failingApplyLines fails the reconciliation write for one record only.
type failingApplyLines struct {
	*memory.BettingLineRepository
	failRecord int64
}

func (r failingApplyLines) ApplyReconciliation(ctx context.Context, rec bettingline.Reconciliation) error {
	if rec.RecordID == r.failRecord {
		return errors.New("connection reset by peer")
	}
	return r.BettingLineRepository.ApplyReconciliation(ctx, rec)
}

func TestReconcileGame_WriteFailureIsolatedToOneRecord(t *testing.T) {
	h := newReconcileHarness(t)
	h.ingestLine(t, "K. Towns", "points", 24.5)
	h.ingestLine(t, "Jayson Tatum", "points", 27.5)
	h.ingestLine(t, "Jalen Brunson", "assists", 7.5)

	failing := recordFor(t, h, "jayson tatum")
	h.reconciler = NewReconciliationService(
		ReconciliationConfig{RecordWorkers: 4},
		NewNBAAdapter(h.feed),
		failingApplyLines{BettingLineRepository: h.lines, failRecord: failing.ID},
		h.identities, h.mismatches, h.resolver, logging.NewNop(), nil,
	)

	report := h.reconcile(t)
	if report.Reconciled != 2 || report.Failed != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	for _, name := range []string{"k towns", "jalen brunson"} {
		if rec := recordFor(t, h, name); rec.Status != bettingline.StatusReconciled {
			t.Fatalf("%s: status = %s, want reconciled", name, rec.Status)
		}
	}

	entries := h.mismatches.All()
	if len(entries) != 1 {
		t.Fatalf("expected one mismatch entry, got %+v", entries)
	}
	if entries[0].RecordID != failing.ID || entries[0].Reason != mismatch.ReasonWriteFailed {
		t.Fatalf("unexpected entry %+v", entries[0])
	}
	if rec := recordFor(t, h, "jayson tatum"); rec.Status != bettingline.StatusMismatched || rec.Actuals != nil {
		t.Fatalf("failed record must stay unreconciled: %+v", rec)
	}
}

func TestReconcileGame_DisagreeingPriorIDsEscalate(t *testing.T) {
	ctx := context.Background()
	h := newReconcileHarness(t)
	h.ingestLine(t, "Julius Randle", "points", 22.5)

	priorIDs := []string{"203944", "1629011"}
	for i, extID := range priorIDs {
		date := testGameDate.AddDate(0, 0, -(i + 1))
		res, err := h.ingest.IngestLines(ctx, "test", []BettingLineInput{{
			PlayerName: "Julius Randle",
			GameDate:   date,
			EventID:    "odds-evt-prior-" + extID,
			HomeTeam:   "New York Knicks",
			AwayTeam:   "Boston Celtics",
			Stat:       "points",
			Point:      21.5,
		}})
		if err != nil || res.Stored != 1 {
			t.Fatalf("ingest prior line: result=%+v err=%v", res, err)
		}
		prior, err := h.lines.ListForGame(ctx, date, []string{"new york knicks"})
		if err != nil || len(prior) != 1 {
			t.Fatalf("list prior records: %+v err=%v", prior, err)
		}
		if err := h.lines.ApplyReconciliation(ctx, bettingline.Reconciliation{
			RecordID:          prior[0].ID,
			Actuals:           bettingline.StatLine{bettingline.StatPoints: 20},
			PlayerTeam:        "New York Knicks",
			OpponentTeam:      "Boston Celtics",
			EventID:           "prior-" + extID,
			MatchedExternalID: extID,
			At:                date,
		}); err != nil {
			t.Fatalf("apply prior reconciliation: %v", err)
		}
	}

	report := h.reconcile(t)
	if report.Escalated != 1 || report.LegitAbsences != 0 {
		t.Fatalf("expected escalation, got %+v", report)
	}
	entries := h.mismatches.All()
	if len(entries) != 1 {
		t.Fatalf("expected one mismatch entry, got %+v", entries)
	}
	if entries[0].Reason != mismatch.ReasonInconsistentIDs {
		t.Fatalf("unexpected reason %q", entries[0].Reason)
	}
	if rec := recordFor(t, h, "julius randle"); rec.Status != bettingline.StatusMismatched {
		t.Fatalf("unexpected status %s", rec.Status)
	}
}

func TestReconcileGame_InitialMatchesDespiteOpponentSurname(t *testing.T) {
	h := newReconcileHarness(t)
	box := knicksCeltics()
	knicks, celtics := &box.Teams[0], &box.Teams[1]
	grant := celtics.Athletes[2]
	celtics.Athletes = celtics.Athletes[:2]
	knicks.Athletes = append(knicks.Athletes, grant)
	h.feed.boxes[testEventID] = box
	h.ingestLine(t, "R. Williams", "rebounds", 7.5)

	report := h.reconcile(t)
	if report.Reconciled != 1 || report.Escalated != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
	rec := recordFor(t, h, "r williams")
	if rec.MatchedExternalID != "1629057" || rec.PlayerTeam != "Boston Celtics" {
		t.Fatalf("unexpected match %+v", rec)
	}
}
