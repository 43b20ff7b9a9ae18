// Package pfr fetches and extracts HTML tables from Pro-Football-Reference,
// one polite, serialized client per host.
package pfr

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Client serializes requests to one host. Concurrent callers share the same
// minimum delay between requests.
type Client struct {
	baseURL    string
	userAgent  string
	http       *http.Client
	minDelay   time.Duration
	maxRetries int
	retryBase  time.Duration
	logger     *slog.Logger

	mu      sync.Mutex
	limiter *rate.Limiter
}

type Option func(*Client)

func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") } }

func WithUserAgent(ua string) Option { return func(c *Client) { c.userAgent = ua } }

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithMinDelay sets the minimum spacing between successive requests.
func WithMinDelay(d time.Duration) Option { return func(c *Client) { c.minDelay = d } }

// WithMaxRetries bounds the number of retries after a 429.
func WithMaxRetries(n int) Option { return func(c *Client) { c.maxRetries = n } }

// WithRetryBase sets the linear backoff unit: attempt N waits base*N.
func WithRetryBase(d time.Duration) Option { return func(c *Client) { c.retryBase = d } }

func WithLogger(l *slog.Logger) Option { return func(c *Client) { c.logger = l } }

// NewClient returns a client with a 1s minimum delay, 3 retries on 429 and a
// 30s request timeout unless overridden.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		userAgent:  DefaultUserAgent,
		http:       &http.Client{Timeout: 30 * time.Second},
		minDelay:   time.Second,
		maxRetries: 3,
		retryBase:  2 * time.Second,
		logger:     slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.maxRetries < 0 {
		c.maxRetries = 0
	}
	if c.minDelay <= 0 {
		c.limiter = rate.NewLimiter(rate.Inf, 1)
	} else {
		c.limiter = rate.NewLimiter(rate.Every(c.minDelay), 1)
	}
	return c
}

// URL returns the absolute URL for path. Absolute inputs are returned as is.
func (c *Client) URL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// Get fetches path and returns the body. A 429 is retried with linear backoff
// (Retry-After wins when longer) up to the retry budget, then ErrRateLimited.
// Any other non-200 status is returned as *StatusError without retrying.
func (c *Client) Get(ctx context.Context, path string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	url := c.URL(path)
	for attempt := 1; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
		body, status, retryAfter, err := c.do(ctx, url)
		if err != nil {
			return "", err
		}
		switch {
		case status == http.StatusOK:
			return body, nil
		case status == http.StatusTooManyRequests:
			if attempt > c.maxRetries {
				c.logger.Warn("pfr rate limit retries exhausted", "url", url, "attempts", attempt)
				return "", fmt.Errorf("%w: %s after %d attempts", ErrRateLimited, url, attempt)
			}
			wait := c.retryBase * time.Duration(attempt)
			if retryAfter > wait {
				wait = retryAfter
			}
			c.logger.Debug("pfr 429, backing off", "url", url, "attempt", attempt, "wait", wait)
			if err := sleep(ctx, wait); err != nil {
				return "", err
			}
		default:
			return "", &StatusError{URL: url, StatusCode: status, BodyLen: len(body)}
		}
	}
}

func (c *Client) do(ctx context.Context, url string) (body string, status int, retryAfter time.Duration, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", 0, 0, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	c.logger.Debug("pfr GET", "url", url)
	resp, err := c.http.Do(req)
	if err != nil {
		return "", 0, 0, fmt.Errorf("%w: %s: %w", ErrTransport, url, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, 0, fmt.Errorf("%w: read %s: %w", ErrTransport, url, err)
	}
	return string(b), resp.StatusCode, parseRetryAfter(resp.Header.Get("Retry-After")), nil
}

// Page is a fetched HTML document.
type Page struct {
	URL  string
	HTML string
}

// Fetch returns the page at path.
func (c *Client) Fetch(ctx context.Context, path string) (*Page, error) {
	html, err := c.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	return &Page{URL: c.URL(path), HTML: html}, nil
}

// Table extracts the table with id from the page, direct or commented out.
func (p *Page) Table(id string) (*Table, error) { return ReadTableByID(p.HTML, id) }

// TableIDs lists every table id on the page.
func (p *Page) TableIDs() []string { return ListTableIDs(p.HTML) }

func parseRetryAfter(h string) time.Duration {
	h = strings.TrimSpace(h)
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(h); err == nil {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
