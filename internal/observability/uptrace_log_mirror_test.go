package observability

import (
	"testing"

	"github.com/riskibarqy/playerlink/internal/platform/logging"
	otellog "go.opentelemetry.io/otel/log"
)

func TestShouldSkipUptraceLog(t *testing.T) {
	if !shouldSkipUptraceLog(logging.LevelDebug, "record reconciled") {
		t.Fatalf("expected debug entries to be skipped")
	}
	if !shouldSkipUptraceLog(logging.LevelInfo, "odds message ingested") {
		t.Fatalf("expected per-message ingest log to be skipped")
	}
	if shouldSkipUptraceLog(logging.LevelInfo, "game reconciled") {
		t.Fatalf("did not expect game summary to be skipped")
	}
	if shouldSkipUptraceLog(logging.LevelWarn, "odds message ingested") {
		t.Fatalf("did not expect warnings to be skipped")
	}
}

func TestBuildOTelLogAttributes(t *testing.T) {
	attrs := buildOTelLogAttributes([]any{"game_id", "401585601", "attempt", 2, "payload"})
	if len(attrs) != 3 {
		t.Fatalf("expected 3 attributes, got %d", len(attrs))
	}
	if attrs[0].Key != "game_id" || attrs[0].Value.AsString() != "401585601" {
		t.Fatalf("unexpected game_id attribute")
	}
	if attrs[1].Key != "attempt" || attrs[1].Value.AsInt64() != 2 {
		t.Fatalf("unexpected attempt attribute")
	}
	if attrs[2].Key != "payload" || attrs[2].Value.Kind() != otellog.KindEmpty {
		t.Fatalf("unexpected payload attribute")
	}
}

func TestToOTelLogValue_Map(t *testing.T) {
	v := toOTelLogValue(map[string]any{
		"points":   31,
		"rebounds": 4.5,
	}, 0)
	if v.Kind() != otellog.KindMap {
		t.Fatalf("expected map value, got %s", v.Kind())
	}
	items := v.AsMap()
	if len(items) != 2 || items[0].Key != "points" {
		t.Fatalf("unexpected map items: %v", items)
	}
}

func TestToOTelLogValue_NilPointer(t *testing.T) {
	var actual *float64
	if v := toOTelLogValue(actual, 0); v.Kind() != otellog.KindEmpty {
		t.Fatalf("expected empty value for nil pointer, got %s", v.Kind())
	}
}
