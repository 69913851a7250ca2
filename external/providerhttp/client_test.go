package providerhttp

import (
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/epl-pipeline/internal/platform/resilience"
	"github.com/riskibarqy/epl-pipeline/internal/usecase"
)

func fastRetry(maxRetries int) resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxRetries: maxRetries,
		Backoff:    func(int) time.Duration { return time.Millisecond },
	}
}

func TestGet_RetriesTransientStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Auth-Token") != "secret" {
			t.Errorf("missing auth header")
		}
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := New(Config{
		Name:    "test",
		BaseURL: server.URL,
		Retry:   fastRetry(2),
		Headers: map[string]string{"X-Auth-Token": "secret"},
	})

	raw, err := client.Get(t.Context(), "/items", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(raw) != `{"ok":true}` {
		t.Fatalf("unexpected body: %s", raw)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got=%d", calls.Load())
	}
}

func TestGet_DoesNotRetryClientError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"bad date"}`))
	}))
	defer server.Close()

	client := New(Config{Name: "test", BaseURL: server.URL, Retry: fastRetry(2)})

	_, err := client.Get(t.Context(), "/items", nil)
	if !IsStatus(err, http.StatusUnprocessableEntity) {
		t.Fatalf("expected 422 status error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single call, got=%d", calls.Load())
	}
}

func TestGet_CircuitOpensOnTransientFailures(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(Config{
		Name:    "test",
		BaseURL: server.URL,
		Retry:   fastRetry(0),
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 1,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	})

	if _, err := client.Get(t.Context(), "/a", nil); err == nil {
		t.Fatalf("expected first call to fail")
	}
	_, err := client.Get(t.Context(), "/b", nil)
	if !stderrors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected dependency unavailable, got %v", err)
	}
}

func TestRedactURL(t *testing.T) {
	t.Parallel()

	client := New(Config{Name: "test", SecretParams: []string{"apiKey"}, Secrets: []string{"abc123"}})

	redacted := client.redactURL("https://example.test/odds?apiKey=abc123&date=2024-01-01")
	if strings.Contains(redacted, "abc123") {
		t.Fatalf("secret leaked: %s", redacted)
	}
	if got := client.sanitize("dial https://x?apiKey=abc123"); strings.Contains(got, "abc123") {
		t.Fatalf("secret leaked: %s", got)
	}

	query := url.Values{}
	query.Set("date", "2024-01-01")
	if redacted := client.redactURL("https://example.test/odds?" + query.Encode()); !strings.Contains(redacted, "date=2024-01-01") {
		t.Fatalf("unexpected rewrite: %s", redacted)
	}
}
