package oddsapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/riskibarqy/playerlink/internal/platform/logging"
	"github.com/riskibarqy/playerlink/internal/platform/resilience"
	"github.com/riskibarqy/playerlink/internal/usecase"
)

const propsPayload = `{
 "id":"e912304de2b2ce35b473ce2ecd3d1502","sport_key":"basketball_nba",
 "commence_time":"2024-01-11T00:30:00Z","home_team":"New York Knicks","away_team":"Boston Celtics",
 "bookmakers":[
  {"key":"DraftKings","title":"DraftKings","markets":[{"key":"player_points","last_update":"2024-01-10T22:00:00Z","outcomes":[
   {"name":"Over","description":"Jalen Brunson","price":-115,"point":26.5},
   {"name":"Under","description":"Jalen Brunson","price":-105,"point":26.5},
   {"name":"Over","description":"Nobody","price":-110}]}]}
 ]}`

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(ClientConfig{
		HTTPClient: srv.Client(),
		BaseURL:    srv.URL,
		APIKey:     "test-key",
		Retry:      resilience.RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1},
		Logger:     logging.NewNop(),
	})
}

func TestClient_ListEventsUsesEasternWindow(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sports/basketball_nba/events" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		gotQuery = r.URL.RawQuery
		w.Header().Set("x-requests-remaining", "480")
		_, _ = w.Write([]byte(`[{"id":"e1","commence_time":"2024-01-11T00:30:00Z","home_team":"New York Knicks","away_team":"Boston Celtics"},{"id":""}]`))
	}))
	defer srv.Close()

	events, err := newTestClient(srv).ListEvents(context.Background(), time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 1 || events[0].EventID != "e1" || events[0].HomeTeam != "New York Knicks" {
		t.Fatalf("unexpected events %+v", events)
	}
	if !strings.Contains(gotQuery, "commenceTimeFrom=2024-01-10T05%3A00%3A00Z") || !strings.Contains(gotQuery, "commenceTimeTo=2024-01-11T04%3A59%3A59Z") {
		t.Fatalf("unexpected window in query %q", gotQuery)
	}
}

func TestClient_FetchPlayerPropsMapsOutcomes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("markets") != "player_points,player_rebounds" || r.URL.Query().Get("oddsFormat") != "american" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(propsPayload))
	}))
	defer srv.Close()

	outcomes, err := newTestClient(srv).FetchPlayerProps(context.Background(), "e912304de2b2ce35b473ce2ecd3d1502", []string{"player_points", "player_rebounds"})
	if err != nil {
		t.Fatalf("fetch props: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("expected outcomes without a point to be dropped, got %+v", outcomes)
	}
	over := outcomes[0]
	if over.Bookmaker != "draftkings" || over.Market != "player_points" || over.PlayerName != "Jalen Brunson" ||
		over.Side != "Over" || over.Point != 26.5 || over.Price != -115 || over.AwayTeam != "Boston Celtics" {
		t.Fatalf("unexpected outcome %+v", over)
	}
}

func TestClient_FetchPlayerPropsTreats422AsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	outcomes, err := newTestClient(srv).FetchPlayerProps(context.Background(), "e1", []string{"player_points"})
	if err != nil || len(outcomes) != 0 {
		t.Fatalf("expected empty result, got %v err=%v", outcomes, err)
	}
}

func TestClient_ErrorsNeverLeakAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).ListEvents(context.Background(), time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))
	if !errors.Is(err, usecase.ErrTransientSource) {
		t.Fatalf("expected transient source error, got %v", err)
	}
	if strings.Contains(err.Error(), "test-key") {
		t.Fatalf("api key leaked: %v", err)
	}
}

func TestClient_MissingKey(t *testing.T) {
	client := NewClient(ClientConfig{Logger: logging.NewNop()})
	if _, err := client.ListEvents(context.Background(), time.Now()); !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected dependency unavailable, got %v", err)
	}
}
