package bettingline

import (
	"testing"
	"time"
)

func TestRecordApply_IsIdempotent(t *testing.T) {
	at := time.Date(2024, 1, 11, 3, 0, 0, 0, time.UTC)
	rec := Reconciliation{
		RecordID:          1,
		Actuals:           StatLine{StatPoints: 28, StatRebounds: 10},
		PlayerTeam:        "New York Knicks",
		OpponentTeam:      "Boston Celtics",
		EventID:           "401585601",
		MatchedExternalID: "1626157",
		At:                at,
	}
	first := Record{ID: 1, Status: StatusPending}.Apply(rec)
	rec.At = at.Add(time.Hour)
	second := first.Apply(rec)

	if second.Status != StatusReconciled {
		t.Fatalf("expected reconciled status, got %s", second.Status)
	}
	if v, ok := second.Actual(StatPoints); !ok || v != 28 {
		t.Fatalf("expected 28 points, got %v %v", v, ok)
	}
	if !second.ReconciledAt.Equal(at) {
		t.Fatalf("second identical apply should keep timestamp, got %v", second.ReconciledAt)
	}
}

func TestRecordApply_DidNotPlayClearsStats(t *testing.T) {
	rec := Record{ID: 2, Status: StatusMismatched}.Apply(Reconciliation{
		RecordID:     2,
		Actuals:      StatLine{StatPoints: 3},
		DidNotPlay:   true,
		PlayerTeam:   "Boston Celtics",
		OpponentTeam: "New York Knicks",
		At:           time.Now(),
	})
	if !rec.DidNotPlay || rec.Actuals != nil {
		t.Fatalf("expected DNP with nil stats, got %+v", rec)
	}
	if rec.Status != StatusReconciled {
		t.Fatalf("expected mismatched record to become reconciled, got %s", rec.Status)
	}
}

func TestLineUpsertValidate(t *testing.T) {
	if err := (LineUpsert{}).Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
	ok := LineUpsert{PlayerID: 1, ProviderEventID: "evt", GameDate: time.Now(), Stat: StatPoints}
	if err := ok.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMergeLine_KeepsOtherSidePrice(t *testing.T) {
	over, under := -115.0, -105.0
	stored := MergeLine(Line{}, Line{Point: 24.5, OverPrice: &over, Bookmaker: "draftkings"})
	merged := MergeLine(stored, Line{Point: 24.5, UnderPrice: &under})

	if merged.OverPrice == nil || *merged.OverPrice != over {
		t.Fatalf("over price lost: %+v", merged)
	}
	if merged.UnderPrice == nil || *merged.UnderPrice != under {
		t.Fatalf("under price not merged: %+v", merged)
	}
	if merged.Bookmaker != "draftkings" {
		t.Fatalf("unexpected bookmaker: %s", merged.Bookmaker)
	}
}
