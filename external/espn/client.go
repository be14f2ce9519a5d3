package espn

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/riskibarqy/playerlink/internal/platform/httpclient"
	"github.com/riskibarqy/playerlink/internal/platform/logging"
	"github.com/riskibarqy/playerlink/internal/platform/metrics"
	"github.com/riskibarqy/playerlink/internal/platform/resilience"
	"github.com/riskibarqy/playerlink/internal/usecase"
)

const (
	defaultBaseURL = "https://site.api.espn.com/apis/site/v2/sports/basketball/nba"
	userAgent      = "Mozilla/5.0 (compatible; playerlink/1.0)"
	statusFinal    = "STATUS_FINAL"
)

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	Retry          resilience.RetryPolicy
	CircuitBreaker resilience.CircuitBreakerConfig
	Logger         *logging.Logger
	Metrics        *metrics.Recorder
}

// Client reads the public ESPN scoreboard and game summary endpoints.
type Client struct {
	baseURL  string
	http     *httpclient.Client
	location *time.Location
	logger   *logging.Logger
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		http: httpclient.New(httpclient.Config{
			Provider:       "espn",
			HTTPClient:     cfg.HTTPClient,
			Timeout:        cfg.Timeout,
			Retry:          cfg.Retry,
			CircuitBreaker: cfg.CircuitBreaker,
			Headers:        map[string]string{"User-Agent": userAgent},
			Logger:         logger,
			Metrics:        cfg.Metrics,
		}),
		location: easternLocation(),
		logger:   logger.Named("espn"),
	}
}

// ListGames returns the games played on date (US/Eastern). Late tip-offs are listed under
// the next UTC day, so both scoreboards are read.
func (c *Client) ListGames(ctx context.Context, date time.Time) ([]usecase.ExternalGame, error) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	seen := make(map[string]struct{})
	var games []usecase.ExternalGame

	for _, scoreboardDay := range []time.Time{day, day.AddDate(0, 0, 1)} {
		query := url.Values{"dates": {scoreboardDay.Format("20060102")}}
		var payload scoreboardEnvelope
		if _, err := c.http.GetJSON(ctx, c.baseURL+"/scoreboard?"+query.Encode(), &payload); err != nil {
			return nil, c.wrap(err, "fetch scoreboard dates=%s", query.Get("dates"))
		}

		for _, ev := range payload.Events {
			game, ok := mapScoreboardEvent(ev)
			if !ok {
				continue
			}
			if !sameDay(game.StartsAt.In(c.location), day) {
				continue
			}
			if _, dup := seen[game.EventID]; dup {
				continue
			}
			seen[game.EventID] = struct{}{}
			games = append(games, game)
		}
	}
	return games, nil
}

func (c *Client) FetchBoxScore(ctx context.Context, eventID string) (usecase.ExternalBoxScore, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return usecase.ExternalBoxScore{}, errors.Wrap(usecase.ErrInvalidInput, "event id is required")
	}

	query := url.Values{"event": {eventID}, "enable": {"boxscore"}}
	var payload summaryEnvelope
	if _, err := c.http.GetJSON(ctx, c.baseURL+"/summary?"+query.Encode(), &payload); err != nil {
		return usecase.ExternalBoxScore{}, c.wrap(err, "fetch summary event=%s", eventID)
	}

	box := mapSummary(eventID, payload)
	if len(box.Teams) == 0 {
		c.logger.WarnContext(ctx, "summary has no box score", "event_id", eventID)
	}
	return box, nil
}

// wrap maps transport failures onto the usecase error marks.
func (c *Client) wrap(err error, format string, args ...any) error {
	wrapped := errors.Wrapf(err, format, args...)
	if errors.Is(err, httpclient.ErrTransient) {
		wrapped = errors.Mark(wrapped, usecase.ErrTransientSource)
	}
	if errors.Is(err, httpclient.ErrUnavailable) {
		wrapped = errors.Mark(wrapped, usecase.ErrDependencyUnavailable)
	}
	return wrapped
}

func mapScoreboardEvent(ev scoreboardEvent) (usecase.ExternalGame, bool) {
	id := strings.TrimSpace(ev.ID)
	startsAt, ok := parseESPNTime(ev.Date)
	if id == "" || !ok {
		return usecase.ExternalGame{}, false
	}
	game := usecase.ExternalGame{
		EventID:   id,
		StartsAt:  startsAt,
		Completed: ev.Status.Type.Completed || ev.Status.Type.Name == statusFinal,
	}
	for _, comp := range ev.Competitions {
		for _, team := range comp.Competitors {
			switch team.HomeAway {
			case "home":
				game.HomeTeamName = team.Team.DisplayName
			case "away":
				game.AwayTeamName = team.Team.DisplayName
			}
		}
	}
	return game, true
}

func mapSummary(eventID string, payload summaryEnvelope) usecase.ExternalBoxScore {
	box := usecase.ExternalBoxScore{EventID: eventID}
	for _, side := range payload.Boxscore.Players {
		team := usecase.ExternalTeamBox{
			TeamExternalID: side.Team.ID.String(),
			TeamName:       side.Team.DisplayName,
		}
		// The first statistics group carries the traditional box score.
		if len(side.Statistics) > 0 {
			group := side.Statistics[0]
			team.StatLabels = group.Names
			if len(team.StatLabels) == 0 {
				team.StatLabels = group.Labels
			}
			for _, a := range group.Athletes {
				id := a.Athlete.ID.String()
				if id == "" || strings.TrimSpace(a.Athlete.DisplayName) == "" {
					continue
				}
				team.Athletes = append(team.Athletes, usecase.ExternalAthlete{
					ExternalID:  id,
					DisplayName: a.Athlete.DisplayName,
					Position:    a.Athlete.Position.Abbreviation,
					DidNotPlay:  a.DidNotPlay || len(a.Stats) == 0,
					Stats:       a.Stats,
				})
			}
		}
		box.Teams = append(box.Teams, team)
	}

	for _, group := range payload.Injuries {
		for _, inj := range group.Injuries {
			id := inj.Athlete.ID.String()
			if id == "" {
				continue
			}
			box.Injuries = append(box.Injuries, usecase.ExternalInjury{
				ExternalID:     id,
				DisplayName:    inj.Athlete.DisplayName,
				Status:         inj.Status,
				TeamExternalID: group.Team.ID.String(),
				TeamName:       group.Team.DisplayName,
			})
		}
	}
	return box
}

var espnTimeLayouts = []string{time.RFC3339, "2006-01-02T15:04Z07:00", "2006-01-02T15:04Z"}

// parseESPNTime accepts the minute-precision timestamps the scoreboard uses.
func parseESPNTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range espnTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func sameDay(t, day time.Time) bool {
	y, m, d := t.Date()
	return y == day.Year() && m == day.Month() && d == day.Day()
}

func easternLocation() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.FixedZone("EST", -5*60*60)
	}
	return loc
}
