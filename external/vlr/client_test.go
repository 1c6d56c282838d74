package vlr

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/valorant-fantasy/internal/platform/logging"
	"github.com/riskibarqy/valorant-fantasy/internal/platform/resilience"
	"github.com/riskibarqy/valorant-fantasy/internal/usecase"
)

func testClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL:         baseURL,
		Timeout:         2 * time.Second,
		RequestInterval: time.Millisecond,
		Retry: resilience.RetryPolicy{
			MaxRetries: 3,
			BaseDelay:  time.Millisecond,
			MaxDelay:   5 * time.Millisecond,
		},
		Logger: logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	}
}

func TestFetchDocument_RetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if r.Header.Get("User-Agent") == "" {
			t.Errorf("expected user agent header")
		}
		_, _ = w.Write([]byte(`<html><body><h1 class="wf-title">ok</h1></body></html>`))
	}))
	defer server.Close()

	client := NewClient(testClientConfig(server.URL))
	doc, err := client.fetchDocument(context.Background(), "/page")
	if err != nil {
		t.Fatalf("fetch document: %v", err)
	}
	if got := doc.Find("h1.wf-title").Text(); got != "ok" {
		t.Fatalf("unexpected body %q", got)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestFetchDocument_HonoursRetryAfter(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`<html></html>`))
	}))
	defer server.Close()

	cfg := testClientConfig(server.URL)
	cfg.Retry.MaxDelay = 2 * time.Second
	client := NewClient(cfg)

	started := time.Now()
	if _, err := client.fetchDocument(context.Background(), "/page"); err != nil {
		t.Fatalf("fetch document: %v", err)
	}
	if elapsed := time.Since(started); elapsed < 900*time.Millisecond {
		t.Fatalf("expected to wait for Retry-After, waited %s", elapsed)
	}
}

func TestFetchDocument_ClientErrorsFailFast(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(testClientConfig(server.URL))
	_, err := client.fetchDocument(context.Background(), "/missing")
	if !errors.Is(err, usecase.ErrInvalidExternalData) {
		t.Fatalf("expected ErrInvalidExternalData, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected a single attempt, got %d", got)
	}
}

func TestFetchDocument_ExhaustedRetriesAreUnavailable(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(testClientConfig(server.URL))
	_, err := client.fetchDocument(context.Background(), "/down")
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
	if got := calls.Load(); got != 4 {
		t.Fatalf("expected 1 attempt plus 3 retries, got %d", got)
	}
}

func TestFetchDocument_CircuitOpensAfterRepeatedFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := testClientConfig(server.URL)
	cfg.Retry.MaxRetries = 0
	client := NewClient(cfg)

	for i := 0; i < 2; i++ {
		if _, err := client.fetchDocument(context.Background(), "/flaky"); err == nil {
			t.Fatalf("expected failure on call %d", i+1)
		}
	}
	before := calls.Load()

	_, err := client.fetchDocument(context.Background(), "/flaky")
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable from open circuit, got %v", err)
	}
	if calls.Load() != before {
		t.Fatalf("open circuit must not reach the server")
	}
}

func TestParseRetryAfter(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		raw  string
		want time.Duration
	}{
		{raw: "", want: 0},
		{raw: "7", want: 7 * time.Second},
		{raw: "-3", want: 0},
		{raw: now.Add(30 * time.Second).Format(time.RFC1123), want: 30 * time.Second},
		{raw: "soon", want: 0},
	}
	for _, tc := range tests {
		if got := parseRetryAfter(tc.raw, now); got != tc.want {
			t.Fatalf("parseRetryAfter(%q) = %s, want %s", tc.raw, got, tc.want)
		}
	}
}
