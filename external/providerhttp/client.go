package providerhttp

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/epl-pipeline/internal/platform/logging"
	"github.com/riskibarqy/epl-pipeline/internal/platform/resilience"
	"github.com/riskibarqy/epl-pipeline/internal/usecase"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"
)

const maxBodyBytes = 6 << 20

var errTransient = crerr.New("provider transient failure")

// StatusError is returned for a non-2xx response that is not retried.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider status=%d body=%s", e.StatusCode, e.Body)
}

// IsStatus reports whether err carries a provider response with the given code.
func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	return stderrors.As(err, &statusErr) && statusErr.StatusCode == code
}

type Config struct {
	// Name is used in logs and span names, e.g. "football-data".
	Name                 string
	HTTPClient           *http.Client
	BaseURL              string
	Timeout              time.Duration
	Retry                resilience.RetryConfig
	MaxRequestsPerMinute int
	CircuitBreaker       resilience.CircuitBreakerConfig
	Headers              map[string]string
	// SecretParams are query parameters whose values are redacted from logs.
	SecretParams []string
	// Secrets are literal values scrubbed from error text.
	Secrets []string
	// QuietStatuses are statuses the caller maps to an empty result. They are
	// still returned as *StatusError but not logged as failures.
	QuietStatuses []int
	Logger        *logging.Logger
}

// Client performs rate limited, retried GET requests against one upstream.
type Client struct {
	name         string
	httpClient   *http.Client
	baseURL      string
	retry        resilience.RetryConfig
	limiter      *resilience.RequestLimiter
	breaker      *resilience.CircuitBreaker
	headers      map[string]string
	secretParams []string
	secrets      []string
	quiet        []int
	logger       *logging.Logger
	flight       singleflight.Group
}

func New(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 30 * time.Second
	}

	breakerCfg := cfg.CircuitBreaker
	if breakerCfg.Enabled {
		breakerCfg = resilience.NormalizeCircuitBreakerConfig(breakerCfg)
	}

	secrets := make([]string, 0, len(cfg.Secrets))
	for _, secret := range cfg.Secrets {
		if secret = strings.TrimSpace(secret); secret != "" {
			secrets = append(secrets, secret)
		}
	}

	return &Client{
		name:         cfg.Name,
		httpClient:   httpClient,
		baseURL:      strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		retry:        cfg.Retry,
		limiter:      resilience.NewRequestLimiter(cfg.MaxRequestsPerMinute),
		breaker:      resilience.NewCircuitBreakerFromConfig(breakerCfg),
		headers:      cfg.Headers,
		secretParams: cfg.SecretParams,
		secrets:      secrets,
		quiet:        cfg.QuietStatuses,
		logger:       logger,
	}
}

// Get fetches path with query and returns the raw 2xx body. Identical
// concurrent requests share one upstream call.
func (c *Client) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	fullURL := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	out, err, _ := c.flight.Do(fullURL, func() (any, error) {
		var raw []byte
		execErr := c.breaker.Execute(func() error {
			var reqErr error
			raw, reqErr = c.executeRequest(ctx, fullURL)
			return reqErr
		}, isCircuitFailure)
		return raw, execErr
	})
	if err != nil {
		if stderrors.Is(err, resilience.ErrCircuitOpen) {
			c.logger.WarnContext(ctx, "provider circuit breaker rejected request", "provider", c.name, "state", c.breaker.State())
			return nil, fmt.Errorf("%w: %s is temporarily unavailable", usecase.ErrDependencyUnavailable, c.name)
		}
		return nil, err
	}

	raw, _ := out.([]byte)
	return raw, nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var body []byte
	err := resilience.Retry(ctx, c.retry, func(attempt int) (bool, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return false, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return false, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")
		for key, value := range c.headers {
			req.Header.Set(key, value)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			return true, fmt.Errorf("%w: send request: %s", errTransient, c.sanitize(err.Error()))
		}

		raw, readErr := readBody(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return true, fmt.Errorf("%w: read response body: %v", errTransient, readErr)
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			body = raw
			return false, nil
		}

		statusErr := &StatusError{StatusCode: resp.StatusCode, Body: c.sanitize(abbreviateBody(raw))}
		if isRetryableStatus(resp.StatusCode) {
			c.logger.DebugContext(ctx, "provider request retrying",
				"provider", c.name,
				"status", resp.StatusCode,
				"attempt", attempt+1,
			)
			return true, crerr.Mark(statusErr, errTransient)
		}
		return false, statusErr
	})
	if err != nil {
		if ctx.Err() == nil && !c.isQuiet(err) {
			c.logger.WarnContext(ctx, "provider request failed", "provider", c.name, "url", c.redactURL(fullURL), "error", err)
		}
		return nil, err
	}
	return body, nil
}

func readBody(r io.Reader) ([]byte, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if _, err := buf.ReadFrom(io.LimitReader(r, maxBodyBytes)); err != nil {
		return nil, err
	}
	out := make([]byte, buf.Len())
	copy(out, buf.B)
	return out, nil
}

func (c *Client) sanitize(value string) string {
	value = strings.TrimSpace(value)
	for _, secret := range c.secrets {
		value = strings.ReplaceAll(value, secret, "REDACTED")
	}
	return value
}

func (c *Client) redactURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return c.sanitize(rawURL)
	}
	query := parsed.Query()
	changed := false
	for _, param := range c.secretParams {
		if query.Has(param) {
			query.Set(param, "REDACTED")
			changed = true
		}
	}
	if changed {
		parsed.RawQuery = query.Encode()
	}
	return parsed.String()
}

func isCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	return crerr.Is(err, errTransient)
}

func (c *Client) isQuiet(err error) bool {
	for _, code := range c.quiet {
		if IsStatus(err, code) {
			return true
		}
	}
	return false
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
