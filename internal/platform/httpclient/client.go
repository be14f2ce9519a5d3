package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"

	"github.com/riskibarqy/playerlink/internal/platform/logging"
	"github.com/riskibarqy/playerlink/internal/platform/metrics"
	"github.com/riskibarqy/playerlink/internal/platform/resilience"
)

const (
	defaultTimeout      = 15 * time.Second
	defaultMaxBodyBytes = 8 << 20
	bodyPreviewBytes    = 256
)

var (
	// ErrTransient marks failures worth retrying: network errors, 429 and 5xx.
	ErrTransient = errors.New("transient provider failure")
	// ErrUnavailable is returned without a request while the circuit breaker is open.
	ErrUnavailable = errors.New("provider temporarily unavailable")
)

var secretParamRegex = regexp.MustCompile(`(api_?[Kk]ey|api_token)=[^&\s"']+`)

type Config struct {
	Provider       string
	HTTPClient     *http.Client
	Timeout        time.Duration
	Retry          resilience.RetryPolicy
	CircuitBreaker resilience.CircuitBreakerConfig
	Headers        map[string]string
	// Secret is redacted from every error message and log line.
	Secret       string
	MaxBodyBytes int64
	Logger       *logging.Logger
	Metrics      *metrics.Recorder
}

// Client performs GET requests that decode JSON, shared by the provider clients. Identical
// concurrent requests are collapsed, transient failures are retried with backoff, and
// a circuit breaker stops calls to a failing provider.
type Client struct {
	provider       string
	httpClient     *http.Client
	retry          resilience.RetryPolicy
	headers        map[string]string
	secret         string
	maxBodyBytes   int64
	logger         *logging.Logger
	metrics        *metrics.Recorder
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         singleflight.Group
}

type response struct {
	body   []byte
	header http.Header
}

func New(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	provider := strings.TrimSpace(cfg.Provider)
	if provider == "" {
		provider = "provider"
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultTimeout
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}

	c := &Client{
		provider:       provider,
		httpClient:     httpClient,
		retry:          resilience.NormalizeRetryPolicy(cfg.Retry),
		headers:        cfg.Headers,
		secret:         strings.TrimSpace(cfg.Secret),
		maxBodyBytes:   maxBody,
		logger:         logger.Named(provider),
		metrics:        cfg.Metrics,
		breaker:        resilience.NewCircuitBreaker(cfg.CircuitBreaker),
		circuitEnabled: cfg.CircuitBreaker.Enabled,
	}
	c.breaker.OnStateChange(func(from, to resilience.CircuitState) {
		c.metrics.BreakerTransition(c.provider, string(to))
		c.logger.Warn("circuit breaker state changed", "from", string(from), "to", string(to))
	})
	return c
}

// GetJSON fetches rawURL and decodes the body into target. It returns the response headers
// of the successful attempt.
func (c *Client) GetJSON(ctx context.Context, rawURL string, target any) (http.Header, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.metrics.ProviderAttempt(c.provider, "rejected")
			return nil, errors.Mark(errors.Wrapf(ErrUnavailable, "%s circuit %s", c.provider, c.breaker.State()), ErrTransient)
		}
	}

	out, err, _ := c.flight.Do(rawURL, func() (any, error) {
		resp, attempts, err := resilience.Retry(ctx, c.retry, isTransient, func(ctx context.Context, attempt int) (response, error) {
			resp, err := c.execute(ctx, rawURL)
			c.metrics.ProviderAttempt(c.provider, attemptResult(err))
			if err != nil && attempt < c.retry.MaxAttempts && isTransient(err) {
				c.logger.DebugContext(ctx, "provider request failed, retrying", "attempt", attempt, "error", err)
			}
			return resp, err
		})
		if c.circuitEnabled {
			if err != nil && isTransient(err) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		if err != nil {
			c.logger.WarnContext(ctx, "provider request failed", "url", c.Redact(rawURL), "attempts", attempts, "error", err)
			return response{}, err
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}

	resp, ok := out.(response)
	if !ok {
		return nil, errors.Newf("unexpected response payload type %T", out)
	}
	if err := sonic.Unmarshal(resp.body, target); err != nil {
		return resp.header, errors.Wrapf(err, "decode %s payload", c.provider)
	}
	return resp.header, nil
}

func (c *Client) execute(ctx context.Context, rawURL string) (response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return response{}, errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return response{}, ctxErr
		}
		return response{}, errors.Mark(errors.Newf("send request: %s", c.Redact(err.Error())), ErrTransient)
	}
	defer resp.Body.Close()

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if _, err := buf.ReadFrom(io.LimitReader(resp.Body, c.maxBodyBytes)); err != nil {
		return response{}, errors.Mark(errors.Wrap(err, "read response body"), ErrTransient)
	}
	body := append([]byte(nil), buf.B...)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return response{body: body, header: resp.Header.Clone()}, nil
	}
	var statusErr error = &StatusError{Provider: c.provider, Code: resp.StatusCode, Body: c.Redact(preview(body))}
	if isRetryableStatus(resp.StatusCode) {
		return response{}, errors.Mark(statusErr, ErrTransient)
	}
	return response{}, statusErr
}

// StatusError is a non-2xx response.
type StatusError struct {
	Provider string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return e.Provider + " status=" + strconv.Itoa(e.Code) + " body=" + e.Body
}

// StatusCode reports the HTTP status carried by err, if any.
func StatusCode(err error) (int, bool) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code, true
	}
	return 0, false
}

// Redact strips the configured secret and any api key query parameter from value.
func (c *Client) Redact(value string) string {
	if c.secret != "" {
		value = strings.ReplaceAll(value, c.secret, "REDACTED")
		value = strings.ReplaceAll(value, url.QueryEscape(c.secret), "REDACTED")
	}
	return secretParamRegex.ReplaceAllString(value, "$1=REDACTED")
}

func isTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func attemptResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case isTransient(err):
		return "transient_error"
	default:
		return "error"
	}
}

func preview(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > bodyPreviewBytes {
		return text[:bodyPreviewBytes] + "..."
	}
	return text
}
