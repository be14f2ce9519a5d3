package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/riskibarqy/playerlink/internal/platform/logging"
	"github.com/riskibarqy/playerlink/internal/platform/resilience"
)

func fastRetry(attempts int) resilience.RetryPolicy {
	return resilience.RetryPolicy{MaxAttempts: attempts, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2}
}

func TestGetJSON_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("X-Requests-Remaining", "42")
		_, _ = w.Write([]byte(`{"name":"ok"}`))
	}))
	defer srv.Close()

	client := New(Config{Provider: "test", HTTPClient: srv.Client(), Retry: fastRetry(3), Logger: logging.NewNop()})

	var out struct {
		Name string `json:"name"`
	}
	header, err := client.GetJSON(context.Background(), srv.URL+"/x", &out)
	if err != nil {
		t.Fatalf("get json: %v", err)
	}
	if out.Name != "ok" || calls.Load() != 3 {
		t.Fatalf("unexpected result name=%q calls=%d", out.Name, calls.Load())
	}
	if header.Get("X-Requests-Remaining") != "42" {
		t.Fatalf("response headers not returned")
	}
}

func TestGetJSON_ExhaustedRetriesAreTransient(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := New(Config{Provider: "test", HTTPClient: srv.Client(), Retry: fastRetry(2), Logger: logging.NewNop()})
	_, err := client.GetJSON(context.Background(), srv.URL, &struct{}{})
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls.Load())
	}
}

func TestGetJSON_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad key secret-token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := New(Config{Provider: "test", HTTPClient: srv.Client(), Retry: fastRetry(3), Secret: "secret-token", Logger: logging.NewNop()})
	_, err := client.GetJSON(context.Background(), srv.URL+"?apiKey=secret-token", &struct{}{})
	if err == nil || errors.Is(err, ErrTransient) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single attempt, got %d", calls.Load())
	}
	if code, ok := StatusCode(err); !ok || code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d ok=%v", code, ok)
	}
	if strings.Contains(err.Error(), "secret-token") {
		t.Fatalf("secret leaked in error: %v", err)
	}
}

func TestGetJSON_OpenBreakerRejects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := New(Config{
		Provider:       "test",
		HTTPClient:     srv.Client(),
		Retry:          fastRetry(1),
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: true, FailureThreshold: 1, OpenTimeout: time.Minute},
		Logger:         logging.NewNop(),
	})
	_, _ = client.GetJSON(context.Background(), srv.URL, &struct{}{})

	_, err := client.GetJSON(context.Background(), srv.URL, &struct{}{})
	if !errors.Is(err, ErrUnavailable) || !errors.Is(err, ErrTransient) {
		t.Fatalf("expected breaker rejection, got %v", err)
	}
}

func TestRedact(t *testing.T) {
	client := New(Config{Secret: "abc123", Logger: logging.NewNop()})
	got := client.Redact("https://x/odds?apiKey=abc123&markets=player_points api_token=zzz")
	if strings.Contains(got, "abc123") || strings.Contains(got, "zzz") {
		t.Fatalf("not redacted: %s", got)
	}
}
