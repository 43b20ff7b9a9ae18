// Package nflverse downloads nflverse-data release assets as schema.Frames.
// Each dataset is served by a Loader that negotiates between the URL layouts
// the project has used over time and remembers which one worked.
package nflverse

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/sony/gobreaker"

	"github.com/tyler180/nfl-datastore/internal/schema"
)

const (
	DefaultBaseURL  = "https://github.com/nflverse/nflverse-data/releases/download"
	DefaultAPIURL   = "https://api.github.com/repos/nflverse/nflverse-data/releases/tags"
	DefaultTeamsURL = "https://github.com/nflverse/nflverse-pbp/raw/master/teams_colors_logos.csv"
)

// ErrUpstreamUnavailable means no known layout of a feed could be downloaded,
// or the breaker is open after repeated failures.
var ErrUpstreamUnavailable = errors.New("nflverse: upstream unavailable")

// errNotFound marks a 404 so a loader can move on to its next layout.
var errNotFound = errors.New("nflverse: asset not found")

type Client struct {
	baseURL     string
	apiURL      string
	teamsURL    string
	githubToken string
	userAgent   string
	http        *http.Client
	breaker     *gobreaker.CircuitBreaker
	logger      *slog.Logger

	mu      sync.Mutex
	loaders map[string]*Loader
}

type Option func(*Client)

func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") } }

// WithAPIURL sets the GitHub releases API root used as the last-resort layout.
func WithAPIURL(u string) Option { return func(c *Client) { c.apiURL = strings.TrimRight(u, "/") } }

func WithTeamsURL(u string) Option { return func(c *Client) { c.teamsURL = u } }

func WithGitHubToken(tok string) Option { return func(c *Client) { c.githubToken = tok } }

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

func WithLogger(l *slog.Logger) Option { return func(c *Client) { c.logger = l } }

func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		apiURL:    DefaultAPIURL,
		teamsURL:  DefaultTeamsURL,
		userAgent: "nfl-datastore/1.0",
		http:      &http.Client{Timeout: 5 * time.Minute},
		logger:    slog.Default(),
		loaders:   map[string]*Loader{},
	}
	for _, o := range opts {
		o(c)
	}
	logger := c.logger
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "nflverse",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errNotFound) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("nflverse circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return c
}

// asset returns the release download URL for a path under the base.
func (c *Client) asset(path string) string { return c.baseURL + "/" + strings.TrimLeft(path, "/") }

// fetchFrame downloads url and parses it as CSV. Gzip bodies are detected by
// their magic bytes.
func (c *Client) fetchFrame(ctx context.Context, url string) (*schema.Frame, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.download(ctx, url)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %s: %w", ErrUpstreamUnavailable, url, err)
	}
	if err != nil {
		return nil, err
	}
	return out.(*schema.Frame), nil
}

func (c *Client) download(ctx context.Context, url string) (*schema.Frame, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	c.logger.Debug("nflverse GET", "url", url)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUpstreamUnavailable, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", errNotFound, url)
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: fetch %s: status %d body=%q", ErrUpstreamUnavailable, url, resp.StatusCode, string(b))
	}

	br := bufio.NewReader(resp.Body)
	var body io.Reader = br
	if magic, _ := br.Peek(2); len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("%w: gunzip %s: %w", ErrUpstreamUnavailable, url, err)
		}
		defer zr.Close()
		body = zr
	}
	f, err := schema.FromCSV(body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", ErrUpstreamUnavailable, url, err)
	}
	return f, nil
}
