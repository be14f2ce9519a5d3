package postgres

import (
	"database/sql"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lib/pq"

	"github.com/riskibarqy/playerlink/internal/domain/bettingline"
)

func TestIsUniqueViolation(t *testing.T) {
	err := errors.Wrap(&pq.Error{Code: "23505", Constraint: "player_aliases_source_name_key"}, "insert alias")

	t.Run("matches any constraint", func(t *testing.T) {
		if !isUniqueViolation(err, "") {
			t.Fatalf("expected unique violation")
		}
	})

	t.Run("matches named constraint", func(t *testing.T) {
		if !isUniqueViolation(err, "player_aliases_source_name_key") {
			t.Fatalf("expected constraint match")
		}
		if isUniqueViolation(err, "player_identities_external_id_key") {
			t.Fatalf("expected constraint mismatch")
		}
	})

	t.Run("ignores other codes", func(t *testing.T) {
		if isUniqueViolation(&pq.Error{Code: "23503"}, "") {
			t.Fatalf("foreign key violation is not a unique violation")
		}
		if isUniqueViolation(errors.New("boom"), "") {
			t.Fatalf("plain error is not a unique violation")
		}
	})
}

func TestIsNotFound(t *testing.T) {
	if !isNotFound(errors.Wrap(sql.ErrNoRows, "get identity")) {
		t.Fatalf("expected wrapped ErrNoRows to match")
	}
}

func TestLinesRoundTrip(t *testing.T) {
	over := -115.0
	raw, err := encodeJSON(map[bettingline.StatType]bettingline.Line{
		bettingline.StatPoints: {Point: 26.5, OverPrice: &over, Bookmaker: "draftkings"},
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	var lines map[bettingline.StatType]bettingline.Line
	if err := decodeJSON(raw, &lines); err != nil {
		t.Fatalf("decode: %v", err)
	}
	got := lines[bettingline.StatPoints]
	if got.Point != 26.5 || got.OverPrice == nil || *got.OverPrice != -115 || got.UnderPrice != nil {
		t.Fatalf("unexpected line %+v", got)
	}

	var actuals bettingline.StatLine
	if err := decodeJSON("null", &actuals); err != nil || actuals != nil {
		t.Fatalf("expected null to leave stats nil, got %v err=%v", actuals, err)
	}
}

func TestBettingLineTableModel_ToDomain(t *testing.T) {
	row := bettingLineTableModel{
		ID:                7,
		PlayerID:          3,
		GameDate:          time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		Lines:             `{"points":{"point":26.5,"bookmaker":"draftkings"}}`,
		Actuals:           sql.NullString{String: `{"points":28,"rebounds":12}`, Valid: true},
		MatchedExternalID: sql.NullString{String: "1626157", Valid: true},
		Status:            string(bettingline.StatusReconciled),
	}
	rec, err := row.toDomain()
	if err != nil {
		t.Fatalf("to domain: %v", err)
	}
	if v, ok := rec.Actual(bettingline.StatPoints); !ok || v != 28 {
		t.Fatalf("unexpected points actual %v ok=%v", v, ok)
	}
	if rec.Lines[bettingline.StatPoints].Point != 26.5 || rec.MatchedExternalID != "1626157" {
		t.Fatalf("unexpected record %+v", rec)
	}

	row.Actuals = sql.NullString{}
	row.Lines = ""
	rec, err = row.toDomain()
	if err != nil || rec.Actuals != nil || rec.Lines == nil {
		t.Fatalf("expected empty lines map and nil actuals, got %+v err=%v", rec, err)
	}
}
