// Package zotero is a small client for the Zotero Web API v3.
package zotero

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	// BaseURL is the Zotero Web API base URL.
	BaseURL = "https://api.zotero.org"

	// APIVersion is sent in the Zotero-API-Version header.
	APIVersion = "3"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 60 * time.Second

	// RateLimit keeps us well under the API's backoff threshold.
	RateLimit = 5.0

	// MaxWriteItems is the most items the API accepts in one write request.
	MaxWriteItems = 50

	// DefaultItemTypeFilter restricts collection listings to the types the importer handles.
	DefaultItemTypeFilter = ItemTypeJournalArticle + " || " + ItemTypePreprint

	// DefaultSort orders collection listings.
	DefaultSort = "title"
)

// Client is a rate-limited HTTP client bound to one Zotero library.
type Client struct {
	httpClient  *http.Client
	limiter     *rate.Limiter
	logger      *log.Logger
	apiKey      string
	baseURL     string
	libraryID   string
	libraryType string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAPIKey sets the API key for authenticated requests.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

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

// NewClient creates a client for the library identified by libraryID.
// libraryType is "user" or "group".
func NewClient(libraryID, libraryType string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: DefaultTimeout},
		limiter:     rate.NewLimiter(rate.Limit(RateLimit), 1),
		logger:      log.New(io.Discard),
		baseURL:     BaseURL,
		libraryID:   libraryID,
		libraryType: libraryType,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// libraryPrefix returns /users/{id} or /groups/{id}.
func (c *Client) libraryPrefix() string {
	kind := "users"
	if c.libraryType == "group" {
		kind = "groups"
	}
	return "/" + kind + "/" + url.PathEscape(c.libraryID)
}

// checkHTTPErrors returns an error if the HTTP response indicates a problem.
func checkHTTPErrors(resp *http.Response, path string) error {
	if resp.StatusCode < 300 {
		return nil
	}
	msg := formatErrorBody(resp.Body)
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: status %d: %s", ErrAuthError, resp.StatusCode, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	case http.StatusPreconditionFailed:
		return fmt.Errorf("%w: %s", ErrPreconditionFailed, path)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg, Path: path}
}

// formatErrorBody reads a bounded amount of the response body for error messages.
func formatErrorBody(body io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return fmt.Sprintf("(failed to read response body: %v)", err)
	}
	return strings.TrimSpace(string(b))
}

// do sends one request against the library and decodes a JSON response into out.
// out may be nil for responses without a body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, headers map[string]string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Zotero-API-Version", APIVersion)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Zotero-API-Key", c.apiKey)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	c.logger.Debug("zotero request", "method", method, "path", path, "query", query.Encode())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if err := checkHTTPErrors(resp, path); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding %s: %v", ErrInvalidResponse, path, err)
	}
	return nil
}

// Collection fetches a collection, including its item count.
func (c *Client) Collection(ctx context.Context, collectionID string) (*Collection, error) {
	var col Collection
	path := c.libraryPrefix() + "/collections/" + url.PathEscape(collectionID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, nil, &col); err != nil {
		return nil, err
	}
	return &col, nil
}

// ItemsQuery controls a page of a collection listing.
type ItemsQuery struct {
	Start    int
	Limit    int
	ItemType string
	Sort     string
}

func (q ItemsQuery) values() url.Values {
	v := url.Values{}
	v.Set("format", "csljson")
	v.Set("start", strconv.Itoa(q.Start))
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.ItemType != "" {
		v.Set("itemType", q.ItemType)
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	return v
}

// CollectionItemsPage fetches one page of a collection as CSL-JSON.
func (c *Client) CollectionItemsPage(ctx context.Context, collectionID string, q ItemsQuery) ([]CSLItem, error) {
	var page struct {
		Items []CSLItem `json:"items"`
	}
	path := c.libraryPrefix() + "/collections/" + url.PathEscape(collectionID) + "/items"
	if err := c.do(ctx, http.MethodGet, path, q.values(), nil, nil, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// CollectionItems returns a lazy sequence over every journal article and preprint in the
// collection, sorted by title. It reads the item count first and then pages through with
// batchSize items per request. The sequence ends after the first error.
func (c *Client) CollectionItems(ctx context.Context, collectionID string, batchSize int) iter.Seq2[CSLItem, error] {
	return func(yield func(CSLItem, error) bool) {
		if batchSize <= 0 {
			yield(CSLItem{}, fmt.Errorf("batch size must be positive, got %d", batchSize))
			return
		}
		col, err := c.Collection(ctx, collectionID)
		if err != nil {
			yield(CSLItem{}, fmt.Errorf("fetching collection %s: %w", collectionID, err))
			return
		}
		total := col.NumItems()
		c.logger.Debug("reading collection", "name", col.Name(), "items", total)

		for start := 0; start < total; start += batchSize {
			items, err := c.CollectionItemsPage(ctx, collectionID, ItemsQuery{
				Start:    start,
				Limit:    batchSize,
				ItemType: DefaultItemTypeFilter,
				Sort:     DefaultSort,
			})
			if err != nil {
				yield(CSLItem{}, fmt.Errorf("fetching items %d-%d: %w", start, start+batchSize, err))
				return
			}
			for i, item := range items {
				c.logger.Debug("collection item", "n", start+i+1, "title", item.Title)
				if !yield(item, nil) {
					return
				}
			}
		}
	}
}

// ItemTemplate fetches the empty item JSON for itemType.
func (c *Client) ItemTemplate(ctx context.Context, itemType string) (ItemData, error) {
	q := url.Values{}
	q.Set("itemType", itemType)
	var tmpl ItemData
	if err := c.do(ctx, http.MethodGet, "/items/new", q, nil, nil, &tmpl); err != nil {
		return nil, fmt.Errorf("item template %s: %w", itemType, err)
	}
	return tmpl, nil
}

// ValidateItems checks items against the templates of their item types, as returned by
// ItemTemplate: every field an item carries must exist in its template.
func ValidateItems(items []ItemData, templates map[string]ItemData) error {
	for i, item := range items {
		tmpl, ok := templates[item.ItemType()]
		if !ok {
			return fmt.Errorf("item %d: no template for item type %q", i, item.ItemType())
		}
		if err := checkFields(i, item, tmpl); err != nil {
			return err
		}
	}
	return nil
}

// checkFields reports the first field of item absent from tmpl. Fields are checked in a
// stable order so errors are reproducible.
func checkFields(index int, item, tmpl ItemData) error {
	keys := make([]string, 0, len(item))
	for k := range item {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if _, ok := tmpl[k]; !ok {
			return &InvalidFieldError{Index: index, ItemType: item.ItemType(), Field: k}
		}
	}
	return nil
}

// CreateItems submits items in a single write request. At most MaxWriteItems are accepted.
func (c *Client) CreateItems(ctx context.Context, items []ItemData) (*CreateResponse, error) {
	if len(items) == 0 {
		return &CreateResponse{}, nil
	}
	if len(items) > MaxWriteItems {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyItems, len(items), MaxWriteItems)
	}

	headers := map[string]string{"Zotero-Write-Token": newWriteToken()}
	var resp CreateResponse
	if err := c.do(ctx, http.MethodPost, c.libraryPrefix()+"/items", nil, items, headers, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AddToCollection adds item to the collection. The write is guarded by the item's version,
// so it fails with ErrPreconditionFailed if the item changed since it was read.
func (c *Client) AddToCollection(ctx context.Context, collectionID string, item Item) error {
	collections := item.Data.Collections()
	for _, existing := range collections {
		if existing == collectionID {
			return nil
		}
	}
	collections = append(append([]string(nil), collections...), collectionID)

	headers := map[string]string{"If-Unmodified-Since-Version": strconv.Itoa(item.Version)}
	body := map[string]any{"collections": collections}
	path := c.libraryPrefix() + "/items/" + url.PathEscape(item.Key)
	return c.do(ctx, http.MethodPatch, path, nil, body, headers, nil)
}

// newWriteToken returns the 32-character token that makes a write request idempotent.
func newWriteToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
