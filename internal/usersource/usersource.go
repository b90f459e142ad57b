// Package usersource is the client side of the sample-data users API.
//
// The API is an external collaborator. This package knows its request and
// response shapes and nothing else: no caching, no retries. Every way a
// request can go wrong (transport error, non-2xx status, undecodable body) is
// reported as the single apperror.ErrFetchFailure kind.
package usersource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/sakif/user-directory/internal/apperror"
	"github.com/sakif/user-directory/internal/model"
)

// DefaultBaseURL is the public sample-data endpoint.
const DefaultBaseURL = "https://api.slingacademy.com/v1/sample-data/users"

// maxBodyBytes bounds how much of a response we are willing to read.
const maxBodyBytes = 4 << 20

// Query is one page request.
type Query struct {
	Search string
	Offset int
	Limit  int
}

// Source fetches one page of users. The list controller depends on this
// interface, not on *Client, so tests can hand it a fake.
type Source interface {
	ListUsers(ctx context.Context, q Query) (*model.UserPage, error)
}

// Config holds client settings.
type Config struct {
	// BaseURL is the full users endpoint, without query string.
	BaseURL string
	// Timeout bounds a single request, including reading the body.
	Timeout time.Duration
	// RateLimit is the sustained number of requests per second; 0 disables throttling.
	RateLimit float64
	// RateBurst is the token bucket size.
	RateBurst int
}

// DefaultConfig returns settings for the public API.
func DefaultConfig() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		Timeout:   10 * time.Second,
		RateLimit: 5,
		RateBurst: 5,
	}
}

// Client implements Source over HTTP.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

var _ Source = (*Client)(nil)

// New creates a Client. It fails only on an unparseable BaseURL.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("usersource: parsing base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("usersource: base URL %q must be http or https", cfg.BaseURL)
	}

	// A nil limiter means unthrottled; rate.Inf would do the same but this
	// keeps Wait off the hot path entirely.
	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{
		baseURL: u,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
		logger:  logger,
	}, nil
}

// ListUsers performs GET {BaseURL}?search=&offset=&limit=.
func (c *Client) ListUsers(ctx context.Context, q Query) (*model.UserPage, error) {
	start := time.Now()
	requestID := uuid.NewString()

	page, err := c.do(ctx, q, requestID)
	if err != nil {
		c.logger.Warn("user fetch failed",
			slog.String("request_id", requestID),
			slog.String("search", q.Search),
			slog.Int("offset", q.Offset),
			slog.Duration("duration", time.Since(start)),
			slog.String("error", err.Error()),
		)
		return nil, apperror.FetchFailed(err)
	}

	c.logger.Debug("user fetch completed",
		slog.String("request_id", requestID),
		slog.String("search", q.Search),
		slog.Int("offset", q.Offset),
		slog.Int("count", len(page.Users)),
		slog.Duration("duration", time.Since(start)),
	)
	return page, nil
}

func (c *Client) do(ctx context.Context, q Query, requestID string) (*model.UserPage, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	u := *c.baseURL
	params := u.Query()
	params.Set("search", q.Search)
	params.Set("offset", strconv.Itoa(q.Offset))
	params.Set("limit", strconv.Itoa(q.Limit))
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var page model.UserPage
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&page); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if page.Users == nil {
		return nil, fmt.Errorf("response has no users field")
	}

	return &page, nil
}
