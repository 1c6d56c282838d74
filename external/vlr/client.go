package vlr

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/valorant-fantasy/internal/platform/logging"
	"github.com/riskibarqy/valorant-fantasy/internal/platform/resilience"
	"github.com/riskibarqy/valorant-fantasy/internal/usecase"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL         = "https://www.vlr.gg"
	defaultUserAgent       = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	defaultTimeout         = 15 * time.Second
	defaultRequestInterval = 1500 * time.Millisecond
	maxRedirects           = 3
	maxBodyBytes           = 8 << 20
)

var (
	errVLRTransient = crerr.New("vlr transient failure")
	errVLRRejected  = crerr.New("vlr rejected request")
)

type ClientConfig struct {
	BaseURL         string
	UserAgent       string
	Timeout         time.Duration
	RequestInterval time.Duration
	Retry           resilience.RetryPolicy
	Logger          *logging.Logger
	CircuitBreaker  resilience.CircuitBreakerConfig
}

// Client fetches and parses vlr.gg pages. Requests are throttled by a
// per-client limiter and retried on 429, 5xx and transport failures.
type Client struct {
	http      *fasthttp.Client
	baseURL   string
	userAgent string
	timeout   time.Duration
	limiter   *rate.Limiter
	retry     resilience.RetryPolicy
	logger    *logging.Logger
	breaker   *resilience.CircuitBreaker
	flight    resilience.SingleFlight
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
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	interval := cfg.RequestInterval
	if interval <= 0 {
		interval = defaultRequestInterval
	}
	retry := cfg.Retry
	if retry.MaxRetries < 0 {
		retry.MaxRetries = 0
	}
	breakerCfg := cfg.CircuitBreaker
	breakerCfg.OnStateChange = func(from, to resilience.CircuitState) {
		logger.Warn("vlr circuit breaker state changed", "from", from, "to", to)
	}

	return &Client{
		http: &fasthttp.Client{
			Name:                "valorant-fantasy",
			MaxConnsPerHost:     16,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: time.Minute,
			MaxResponseBodySize: maxBodyBytes,
		},
		baseURL:   baseURL,
		userAgent: userAgent,
		timeout:   timeout,
		limiter:   rate.NewLimiter(rate.Every(interval), 1),
		retry:     retry,
		logger:    logger,
		breaker:   resilience.NewCircuitBreaker(breakerCfg),
	}
}

// statusError carries the upstream status and, for 429, the server's
// Retry-After so the retry loop can honour it.
type statusError struct {
	status     int
	retryAfter time.Duration
	cause      error
}

func (e *statusError) Error() string {
	return fmt.Sprintf("vlr status=%d: %v", e.status, e.cause)
}

func (e *statusError) Unwrap() error { return e.cause }

func (e *statusError) RetryAfter() time.Duration { return e.retryAfter }

// isTransient reports failures worth retrying. Retry only exhausts its
// budget on transient errors, so an exhausted retry is transient too.
func isTransient(err error) bool {
	if crerr.Is(err, errVLRTransient) {
		return true
	}
	return stderrors.Is(err, errVLRTransient) || stderrors.Is(err, resilience.ErrRetriesExhausted)
}

// fetchDocument downloads path and parses it as HTML. Concurrent callers of
// the same path share one request.
func (c *Client) fetchDocument(ctx context.Context, path string) (*goquery.Document, error) {
	if err := c.breaker.Allow(); err != nil {
		c.logger.WarnContext(ctx, "vlr circuit breaker rejected request", "state", c.breaker.State(), "path", path)
		return nil, fmt.Errorf("%w: vlr.gg is temporarily unavailable", usecase.ErrDependencyUnavailable)
	}

	out, err, _ := c.flight.Do(path, func() (any, error) {
		doc, reqErr := c.download(ctx, path)
		c.breaker.Record(reqErr, isTransient)
		return doc, reqErr
	})
	if err != nil {
		return nil, classify(ctx, path, err)
	}

	doc, ok := out.(*goquery.Document)
	if !ok {
		return nil, fmt.Errorf("unexpected document type %T", out)
	}
	return doc, nil
}

func classify(ctx context.Context, path string, err error) error {
	switch {
	case ctx.Err() != nil:
		return ctx.Err()
	case isTransient(err):
		return fmt.Errorf("%w: fetch %s: %v", usecase.ErrDependencyUnavailable, path, err)
	case crerr.Is(err, errVLRRejected):
		return fmt.Errorf("%w: fetch %s: %v", usecase.ErrInvalidExternalData, path, err)
	default:
		return fmt.Errorf("fetch %s: %w", path, err)
	}
}

func (c *Client) download(ctx context.Context, path string) (*goquery.Document, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	fullURL := c.baseURL + path
	err := resilience.Retry(ctx, c.retry, isTransient, func(ctx context.Context, attempt int) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		buf.Reset()
		err := c.get(ctx, fullURL, buf)
		if err != nil && attempt < c.retry.MaxRetries && isTransient(err) {
			c.logger.DebugContext(ctx, "vlr request failed, retrying", "url", fullURL, "attempt", attempt+1, "error", err)
		}
		return err
	})
	if err != nil {
		c.logger.WarnContext(ctx, "vlr request failed", "url", fullURL, "error", err)
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(buf.B))
	if err != nil {
		return nil, crerr.Mark(crerr.Wrapf(err, "parse html %s", path), errVLRRejected)
	}
	return doc, nil
}

func (c *Client) get(ctx context.Context, fullURL string, dst *bytebufferpool.ByteBuffer) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fullURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetUserAgent(c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("Referer", defaultBaseURL+"/")

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return ctx.Err()
		}
		if remaining < timeout {
			timeout = remaining
		}
	}
	req.SetTimeout(timeout)

	if err := c.http.DoRedirects(req, resp, maxRedirects); err != nil {
		return crerr.Mark(crerr.Wrap(err, "send request"), errVLRTransient)
	}

	status := resp.StatusCode()
	switch {
	case status >= 200 && status < 300:
	case status == fasthttp.StatusTooManyRequests:
		return &statusError{
			status:     status,
			retryAfter: parseRetryAfter(string(resp.Header.Peek(fasthttp.HeaderRetryAfter)), time.Now()),
			cause:      errVLRTransient,
		}
	case status >= 500:
		return &statusError{status: status, cause: errVLRTransient}
	default:
		return &statusError{status: status, cause: errVLRRejected}
	}

	body, err := resp.BodyUncompressed()
	if err != nil {
		return crerr.Mark(crerr.Wrap(err, "decode response body"), errVLRTransient)
	}
	_, _ = dst.Write(body)
	return nil
}

// parseRetryAfter accepts both forms of the header: delay seconds or an
// HTTP date.
func parseRetryAfter(raw string, now time.Time) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(raw); err == nil {
		if seconds <= 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}
	if at, err := time.Parse(time.RFC1123, raw); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
