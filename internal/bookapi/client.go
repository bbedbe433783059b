// Package bookapi is a rate-limited client for the Google Books volumes API.
package bookapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/listenupapp/searchbook/internal/ratelimit"
)

const (
	// DefaultBaseURL is the public Google Books endpoint.
	DefaultBaseURL = "https://www.googleapis.com/books/v1"

	defaultRPS     = 5.0
	defaultBurst   = 5
	defaultTimeout = 15 * time.Second

	// Limiter keys, one bucket per endpoint.
	keySearch = "search"
	keyVolume = "volume"

	userAgent = "SearchBook/1.0"
)

// Config configures the client. Zero values fall back to defaults.
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// Client is a rate-limited catalog client.
type Client struct {
	http    *http.Client
	baseURL string
	limiter *ratelimit.KeyedRateLimiter
	logger  *slog.Logger
}

// New creates a client.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = defaultRPS
	}
	if cfg.Burst <= 0 {
		cfg.Burst = defaultBurst
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		limiter: ratelimit.New(cfg.RequestsPerSecond, cfg.Burst, 0),
		logger:  logger,
	}
}

// Close releases resources held by the client.
func (c *Client) Close() {
	c.limiter.Stop()
}

// Search returns one page of volumes matching query, starting at startIndex.
// A response without items is an empty page.
func (c *Client) Search(ctx context.Context, query string, startIndex int) ([]Volume, error) {
	query = NormalizeQuery(query)

	params := url.Values{}
	params.Set("q", query)
	params.Set("startIndex", strconv.Itoa(startIndex))

	body, err := c.get(ctx, keySearch, "/volumes", params)
	if err != nil {
		return nil, wrapError("search", query, err)
	}

	var resp volumesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, wrapError("search", query, errors.Join(ErrDecode, err))
	}
	for _, v := range resp.Items {
		if v.ID == "" {
			return nil, wrapError("search", query, fmt.Errorf("%w: volume without id", ErrDecode))
		}
	}
	return resp.Items, nil
}

// Volume returns a single volume by id.
func (c *Client) Volume(ctx context.Context, id string) (*Volume, error) {
	body, err := c.get(ctx, keyVolume, "/volumes/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, wrapError("volume", id, err)
	}

	var v Volume
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, wrapError("volume", id, errors.Join(ErrDecode, err))
	}
	if v.ID == "" {
		return nil, wrapError("volume", id, fmt.Errorf("%w: volume without id", ErrDecode))
	}
	return &v, nil
}

// NormalizeQuery trims and NFC-normalizes a search query so that composed
// and decomposed input hit the same results.
func NormalizeQuery(q string) string {
	return norm.NFC.String(strings.TrimSpace(q))
}

// get executes a rate-limited GET and returns the body of a 2xx response.
func (c *Client) get(ctx context.Context, key, path string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx, key); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug("bookapi request", "endpoint", key, "path", path, "query", params.Get("q"))

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}
	return nil, decodeAPIError(resp.StatusCode, body)
}

func decodeAPIError(status int, body []byte) *APIError {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil || env.Error == nil || env.Error.Message == "" {
		return &APIError{Code: unknownErrorCode, Message: unknownErrorMessage, Status: status}
	}
	env.Error.Status = status
	return env.Error
}
