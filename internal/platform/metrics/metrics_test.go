package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder_Counts(t *testing.T) {
	r := NewRecorder()
	r.RecordOutcome("reconciled")
	r.RecordOutcome("reconciled")
	r.RecordOutcome("escalated")
	r.Resolution("odds_api", "alias")

	if got := testutil.ToFloat64(r.records.WithLabelValues("reconciled")); got != 2 {
		t.Fatalf("expected 2 reconciled, got %v", got)
	}
	if got := testutil.ToFloat64(r.resolutions.WithLabelValues("odds_api", "alias")); got != 1 {
		t.Fatalf("expected 1 alias resolution, got %v", got)
	}
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	r.RecordOutcome("reconciled")
	r.GameFinished("success", 1)
	r.LinesIngested("kafka", 3)
}

func TestServer_HealthAndMetrics(t *testing.T) {
	r := NewRecorder()
	r.GameFinished("success", 0.2)

	healthy := true
	srv := NewServer(":0", r, func(context.Context) error {
		if healthy {
			return nil
		}
		return errors.New("db down")
	})
	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), `playerlink_reconcile_games_total{status="success"} 1`) {
		t.Fatalf("metrics output missing game counter:\n%s", body)
	}

	healthy = false
	resp, err = http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("get healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}
