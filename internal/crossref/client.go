// Package crossref fetches work metadata from the CrossRef REST API.
package crossref

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	// BaseURL is the CrossRef REST API base URL.
	BaseURL = "https://api.crossref.org"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// RateLimit stays inside the public pool's per-client allowance.
	RateLimit = 10.0

	// UserAgent identifies the tool to CrossRef.
	UserAgent = "gaas-cli/0.1"
)

// Common errors returned by the CrossRef client.
var (
	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error communicating with CrossRef")

	// ErrInvalidResponse indicates an unexpected API response.
	ErrInvalidResponse = errors.New("invalid response from CrossRef")
)

// APIError is returned for any non-200 response.
type APIError struct {
	StatusCode int
	DOI        string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("error fetching %s from CrossRef: status %d: %s", e.DOI, e.StatusCode, e.Message)
}

// IsNotFound returns true if CrossRef does not know the DOI.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client is a rate-limited HTTP client for the CrossRef works endpoint.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
	baseURL    string
	mailto     string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithMailto adds a contact address to the User-Agent, which routes requests to the
// "polite" pool.
func WithMailto(mailto string) ClientOption {
	return func(c *Client) {
		c.mailto = mailto
	}
}

// WithRateLimit sets the request rate in requests per second.
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *log.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a new CrossRef client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		logger:     log.New(io.Discard),
		baseURL:    BaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) userAgent() string {
	if c.mailto != "" {
		return UserAgent + " (mailto:" + c.mailto + ")"
	}
	return UserAgent
}

// escapeDOI escapes a DOI for use in a URL path, keeping its slashes.
func escapeDOI(doi string) string {
	return strings.ReplaceAll(url.PathEscape(doi), "%2F", "/")
}

// Work fetches the metadata record of one DOI. Any status other than 200 is an *APIError.
func (c *Client) Work(ctx context.Context, doi string) (*Work, error) {
	doi = strings.TrimSpace(doi)
	if doi == "" {
		return nil, errors.New("empty DOI")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/works/"+escapeDOI(doi), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent())

	c.logger.Debug("crossref lookup", "doi", doi)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &APIError{StatusCode: resp.StatusCode, DOI: doi, Message: strings.TrimSpace(string(b))}
	}

	var wr workResponse
	if err := json.NewDecoder(resp.Body).Decode(&wr); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", ErrInvalidResponse, doi, err)
	}
	if wr.Message == nil {
		return nil, fmt.Errorf("%w: %s: no message", ErrInvalidResponse, doi)
	}
	return wr.Message, nil
}

// Works fetches every DOI, with at most concurrency lookups in flight. Results are in the
// order of dois. The first failure cancels the remaining lookups and is returned.
func (c *Client) Works(ctx context.Context, dois []string, concurrency int) ([]*Work, error) {
	return FetchAll(ctx, dois, concurrency, c.Work)
}

// FetchFunc looks up the record of one DOI.
type FetchFunc func(ctx context.Context, doi string) (*Work, error)

// FetchAll calls fetch for every DOI with at most concurrency calls in flight and returns the
// records in the order of dois. The first failure cancels the remaining calls.
func FetchAll(ctx context.Context, dois []string, concurrency int, fetch FetchFunc) ([]*Work, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	works := make([]*Work, len(dois))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, doi := range dois {
		g.Go(func() error {
			w, err := fetch(gctx, doi)
			if err != nil {
				return err
			}
			works[i] = w
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return works, nil
}
