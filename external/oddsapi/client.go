package oddsapi

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
	defaultBaseURL  = "https://api.the-odds-api.com/v4"
	defaultSportKey = "basketball_nba"
	defaultRegions  = "us"
	oddsFormat      = "american"
	timeParamLayout = "2006-01-02T15:04:05Z"
)

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	APIKey         string
	SportKey       string
	Regions        string
	Timeout        time.Duration
	Retry          resilience.RetryPolicy
	CircuitBreaker resilience.CircuitBreakerConfig
	Logger         *logging.Logger
	Metrics        *metrics.Recorder
}

// Client reads upcoming events and per-event player props from The Odds API.
type Client struct {
	baseURL  string
	apiKey   string
	sportKey string
	regions  string
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
	sportKey := strings.TrimSpace(cfg.SportKey)
	if sportKey == "" {
		sportKey = defaultSportKey
	}
	regions := strings.TrimSpace(cfg.Regions)
	if regions == "" {
		regions = defaultRegions
	}
	apiKey := strings.TrimSpace(cfg.APIKey)

	return &Client{
		baseURL:  baseURL,
		apiKey:   apiKey,
		sportKey: sportKey,
		regions:  regions,
		http: httpclient.New(httpclient.Config{
			Provider:       "oddsapi",
			HTTPClient:     cfg.HTTPClient,
			Timeout:        cfg.Timeout,
			Retry:          cfg.Retry,
			CircuitBreaker: cfg.CircuitBreaker,
			Secret:         apiKey,
			Logger:         logger,
			Metrics:        cfg.Metrics,
		}),
		location: easternLocation(),
		logger:   logger.Named("oddsapi"),
	}
}

// ListEvents returns the events that commence on date (US/Eastern).
func (c *Client) ListEvents(ctx context.Context, date time.Time) ([]usecase.ExternalOddsEvent, error) {
	if c.apiKey == "" {
		return nil, errors.Wrap(usecase.ErrDependencyUnavailable, "odds api key is not configured")
	}

	from := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, c.location)
	to := from.AddDate(0, 0, 1).Add(-time.Second)
	query := url.Values{
		"apiKey":           {c.apiKey},
		"commenceTimeFrom": {from.UTC().Format(timeParamLayout)},
		"commenceTimeTo":   {to.UTC().Format(timeParamLayout)},
	}

	var payload []eventPayload
	header, err := c.http.GetJSON(ctx, c.sportURL("/events")+"?"+query.Encode(), &payload)
	if err != nil {
		return nil, c.wrap(err, "list events date=%s", from.Format("2006-01-02"))
	}
	c.logQuota(ctx, header)

	events := make([]usecase.ExternalOddsEvent, 0, len(payload))
	for _, ev := range payload {
		if strings.TrimSpace(ev.ID) == "" {
			continue
		}
		events = append(events, usecase.ExternalOddsEvent{
			EventID:      ev.ID,
			CommenceTime: ev.CommenceTime.UTC(),
			HomeTeam:     ev.HomeTeam,
			AwayTeam:     ev.AwayTeam,
		})
	}
	return events, nil
}

// FetchPlayerProps returns every bookmaker outcome for the requested markets. An event
// without props (HTTP 422) yields no outcomes and no error.
func (c *Client) FetchPlayerProps(ctx context.Context, eventID string, markets []string) ([]usecase.ExternalPropOutcome, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return nil, errors.Wrap(usecase.ErrInvalidInput, "event id is required")
	}
	if c.apiKey == "" {
		return nil, errors.Wrap(usecase.ErrDependencyUnavailable, "odds api key is not configured")
	}

	query := url.Values{
		"apiKey":     {c.apiKey},
		"regions":    {c.regions},
		"markets":    {strings.Join(markets, ",")},
		"oddsFormat": {oddsFormat},
	}
	var payload eventOddsPayload
	header, err := c.http.GetJSON(ctx, c.sportURL("/events/"+url.PathEscape(eventID)+"/odds")+"?"+query.Encode(), &payload)
	if err != nil {
		if code, ok := httpclient.StatusCode(err); ok && code == http.StatusUnprocessableEntity {
			c.logger.InfoContext(ctx, "no player props for event", "event_id", eventID)
			return nil, nil
		}
		return nil, c.wrap(err, "fetch player props event=%s", eventID)
	}
	c.logQuota(ctx, header)

	return mapOutcomes(payload), nil
}

func mapOutcomes(payload eventOddsPayload) []usecase.ExternalPropOutcome {
	var out []usecase.ExternalPropOutcome
	for _, book := range payload.Bookmakers {
		bookKey := strings.ToLower(strings.TrimSpace(book.Key))
		for _, market := range book.Markets {
			for _, o := range market.Outcomes {
				if o.Point == nil || strings.TrimSpace(o.Description) == "" {
					continue
				}
				out = append(out, usecase.ExternalPropOutcome{
					EventID:      payload.ID,
					CommenceTime: payload.CommenceTime.UTC(),
					HomeTeam:     payload.HomeTeam,
					AwayTeam:     payload.AwayTeam,
					Bookmaker:    bookKey,
					Market:       market.Key,
					PlayerName:   strings.TrimSpace(o.Description),
					Side:         o.Name,
					Point:        *o.Point,
					Price:        o.Price,
				})
			}
		}
	}
	return out
}

func (c *Client) sportURL(path string) string {
	return c.baseURL + "/sports/" + url.PathEscape(c.sportKey) + path
}

func (c *Client) logQuota(ctx context.Context, header http.Header) {
	if header == nil {
		return
	}
	if remaining := header.Get("x-requests-remaining"); remaining != "" {
		c.logger.DebugContext(ctx, "odds api quota", "remaining", remaining, "used", header.Get("x-requests-used"))
	}
}

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

func easternLocation() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.FixedZone("EST", -5*60*60)
	}
	return loc
}
