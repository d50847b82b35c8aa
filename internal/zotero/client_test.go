package zotero

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// fakeLibrary serves a user library with one collection of titled items.
type fakeLibrary struct {
	mu       sync.Mutex
	items    []map[string]any
	requests []*http.Request
	patches  map[string][]string
	created  []ItemData
	tokens   []string
}

func (f *fakeLibrary) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r)

	if r.Header.Get("Zotero-API-Key") != "secret" && r.URL.Path != "/items/new" {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/users/42/collections/COLL":
		fmt.Fprintf(w, `{"key":"COLL","version":3,"meta":{"numItems":%d},"data":{"key":"COLL","name":"Wiki"}}`, len(f.items))
	case r.Method == http.MethodGet && r.URL.Path == "/users/42/collections/COLL/items":
		start, _ := strconv.Atoi(r.URL.Query().Get("start"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		end := min(start+limit, len(f.items))
		_ = json.NewEncoder(w).Encode(map[string]any{"items": f.items[start:end]})
	case r.Method == http.MethodGet && r.URL.Path == "/items/new":
		switch r.URL.Query().Get("itemType") {
		case ItemTypeJournalArticle, ItemTypePreprint:
			fmt.Fprintf(w, `{"itemType":%q,"title":"","creators":[],"DOI":"","collections":[],"tags":[],"relations":{}}`, r.URL.Query().Get("itemType"))
		default:
			http.Error(w, "Invalid item type", http.StatusBadRequest)
		}
	case r.Method == http.MethodPost && r.URL.Path == "/users/42/items":
		f.tokens = append(f.tokens, r.Header.Get("Zotero-Write-Token"))
		var items []ItemData
		_ = json.NewDecoder(r.Body).Decode(&items)
		f.created = append(f.created, items...)
		successful := map[string]any{}
		for i, it := range items {
			successful[strconv.Itoa(i)] = map[string]any{"key": fmt.Sprintf("NEW%d", i), "version": 7, "data": it}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"successful": successful, "unchanged": []any{}, "failed": []any{}})
	case r.Method == http.MethodPatch && strings.HasPrefix(r.URL.Path, "/users/42/items/"):
		if r.Header.Get("If-Unmodified-Since-Version") != "7" {
			w.WriteHeader(http.StatusPreconditionFailed)
			return
		}
		var body struct {
			Collections []string `json:"collections"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.patches[strings.TrimPrefix(r.URL.Path, "/users/42/items/")] = body.Collections
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

func newFakeLibrary(n int) *fakeLibrary {
	f := &fakeLibrary{patches: map[string][]string{}}
	for i := 0; i < n; i++ {
		f.items = append(f.items, map[string]any{
			"id":    fmt.Sprintf("42/ITEM%d", i),
			"type":  "article-journal",
			"title": fmt.Sprintf("Title %02d", i),
			"DOI":   fmt.Sprintf("10.1000/%d", i),
		})
	}
	return f
}

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient("42", "user", WithAPIKey("secret"), WithBaseURL(srv.URL), WithRateLimit(1000))
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient("7", "group")
	if c.baseURL != BaseURL {
		t.Errorf("baseURL = %s, want %s", c.baseURL, BaseURL)
	}
	if c.httpClient.Timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", c.httpClient.Timeout, DefaultTimeout)
	}
	if got := c.libraryPrefix(); got != "/groups/7" {
		t.Errorf("libraryPrefix() = %s, want /groups/7", got)
	}
	if got := NewClient("7", "user").libraryPrefix(); got != "/users/7" {
		t.Errorf("libraryPrefix() = %s, want /users/7", got)
	}
}

func TestCollectionItems_Paginates(t *testing.T) {
	lib := newFakeLibrary(7)
	c := newTestClient(t, lib)

	var titles []string
	for item, err := range c.CollectionItems(context.Background(), "COLL", 3) {
		if err != nil {
			t.Fatalf("CollectionItems() error = %v", err)
		}
		titles = append(titles, item.Title)
	}

	if len(titles) != 7 {
		t.Fatalf("got %d items, want 7", len(titles))
	}
	if titles[0] != "Title 00" || titles[6] != "Title 06" {
		t.Errorf("titles = %v", titles)
	}

	// One collection lookup plus ceil(7/3) pages.
	if len(lib.requests) != 4 {
		t.Errorf("requests = %d, want 4", len(lib.requests))
	}
	q := lib.requests[1].URL.Query()
	if q.Get("format") != "csljson" || q.Get("sort") != "title" || q.Get("itemType") != DefaultItemTypeFilter {
		t.Errorf("unexpected query %v", q)
	}
	if lib.requests[1].Header.Get("Zotero-API-Version") != APIVersion {
		t.Errorf("missing Zotero-API-Version header")
	}
}

func TestCollectionItems_KeepsRawJSON(t *testing.T) {
	lib := newFakeLibrary(1)
	lib.items[0]["note"] = "kept"
	c := newTestClient(t, lib)

	for item, err := range c.CollectionItems(context.Background(), "COLL", 10) {
		if err != nil {
			t.Fatalf("CollectionItems() error = %v", err)
		}
		out, err := json.Marshal(item)
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		if !strings.Contains(string(out), `"note":"kept"`) {
			t.Errorf("marshaled item lost unknown fields: %s", out)
		}
	}
}

func TestCollectionItems_EmptyCollection(t *testing.T) {
	lib := newFakeLibrary(0)
	c := newTestClient(t, lib)

	n := 0
	for _, err := range c.CollectionItems(context.Background(), "COLL", 100) {
		if err != nil {
			t.Fatalf("CollectionItems() error = %v", err)
		}
		n++
	}
	if n != 0 {
		t.Errorf("got %d items, want 0", n)
	}
	if len(lib.requests) != 1 {
		t.Errorf("requests = %d, want 1", len(lib.requests))
	}
}

func TestCollectionItems_StopsEarly(t *testing.T) {
	lib := newFakeLibrary(10)
	c := newTestClient(t, lib)

	for range c.CollectionItems(context.Background(), "COLL", 2) {
		break
	}
	if len(lib.requests) != 2 {
		t.Errorf("requests = %d, want 2", len(lib.requests))
	}
}

func TestCollectionItems_Errors(t *testing.T) {
	lib := newFakeLibrary(1)
	srv := httptest.NewServer(lib)
	defer srv.Close()

	tests := []struct {
		name       string
		client     *Client
		collection string
		check      func(error) bool
	}{
		{"bad key", NewClient("42", "user", WithAPIKey("wrong"), WithBaseURL(srv.URL)), "COLL", IsAuthError},
		{"unknown collection", NewClient("42", "user", WithAPIKey("secret"), WithBaseURL(srv.URL)), "NOPE", IsNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotErr error
			for _, err := range tt.client.CollectionItems(context.Background(), tt.collection, 10) {
				gotErr = err
			}
			if gotErr == nil || !tt.check(gotErr) {
				t.Errorf("error = %v", gotErr)
			}
		})
	}
}

func TestValidateItems(t *testing.T) {
	c := newTestClient(t, newFakeLibrary(0))
	ctx := context.Background()

	templates := map[string]ItemData{}
	for _, itemType := range []string{ItemTypeJournalArticle, ItemTypePreprint} {
		tmpl, err := c.ItemTemplate(ctx, itemType)
		if err != nil {
			t.Fatalf("ItemTemplate(%s) error = %v", itemType, err)
		}
		templates[itemType] = tmpl
	}

	ok := []ItemData{{"itemType": ItemTypeJournalArticle, "title": "A", "DOI": "10.1/a"}}
	if err := ValidateItems(ok, templates); err != nil {
		t.Errorf("ValidateItems() error = %v", err)
	}

	bad := []ItemData{
		{"itemType": ItemTypeJournalArticle, "title": "A"},
		{"itemType": ItemTypePreprint, "title": "B", "bogus": "x"},
	}
	err := ValidateItems(bad, templates)
	var fieldErr *InvalidFieldError
	if !errors.As(err, &fieldErr) {
		t.Fatalf("ValidateItems() error = %v, want InvalidFieldError", err)
	}
	if fieldErr.Index != 1 || fieldErr.Field != "bogus" {
		t.Errorf("InvalidFieldError = %+v", fieldErr)
	}

	if err := ValidateItems([]ItemData{{"itemType": "film"}}, templates); err == nil {
		t.Error("ValidateItems() expected error for an item type without template")
	}

	var apiErr *APIError
	if _, err := c.ItemTemplate(ctx, "film"); !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("ItemTemplate(film) error = %v, want 400 APIError", err)
	}
}

func TestCreateItems_AndAddToCollection(t *testing.T) {
	lib := newFakeLibrary(0)
	c := newTestClient(t, lib)
	ctx := context.Background()

	resp, err := c.CreateItems(ctx, []ItemData{
		{"itemType": ItemTypeJournalArticle, "title": "First", "collections": []any{"OTHER"}},
		{"itemType": ItemTypePreprint, "title": "Second"},
	})
	if err != nil {
		t.Fatalf("CreateItems() error = %v", err)
	}
	if len(resp.Successful) != 2 {
		t.Fatalf("Successful = %d, want 2", len(resp.Successful))
	}
	if resp.Failed == nil || len(resp.Failed) != 0 {
		t.Errorf("Failed = %v, want empty map", resp.Failed)
	}
	if len(lib.tokens) != 1 || len(lib.tokens[0]) != 32 {
		t.Errorf("write token = %v, want one 32-char token", lib.tokens)
	}

	first := resp.Successful["0"]
	if first.Data.Title() != "First" {
		t.Errorf("first title = %q", first.Data.Title())
	}
	if err := c.AddToCollection(ctx, "COLL", first); err != nil {
		t.Fatalf("AddToCollection() error = %v", err)
	}
	got := lib.patches["NEW0"]
	if len(got) != 2 || got[0] != "OTHER" || got[1] != "COLL" {
		t.Errorf("patched collections = %v, want [OTHER COLL]", got)
	}

	stale := first
	stale.Version = 3
	if err := c.AddToCollection(ctx, "NEWCOLL", stale); !errors.Is(err, ErrPreconditionFailed) {
		t.Errorf("AddToCollection(stale) error = %v, want ErrPreconditionFailed", err)
	}
}

func TestAddToCollection_AlreadyMember(t *testing.T) {
	lib := newFakeLibrary(0)
	c := newTestClient(t, lib)

	item := Item{Key: "K", Version: 7, Data: ItemData{"collections": []any{"COLL"}}}
	if err := c.AddToCollection(context.Background(), "COLL", item); err != nil {
		t.Fatalf("AddToCollection() error = %v", err)
	}
	if len(lib.requests) != 0 {
		t.Errorf("requests = %d, want 0", len(lib.requests))
	}
}

func TestCreateItems_TooMany(t *testing.T) {
	c := NewClient("42", "user")
	items := make([]ItemData, MaxWriteItems+1)
	if _, err := c.CreateItems(context.Background(), items); !errors.Is(err, ErrTooManyItems) {
		t.Errorf("CreateItems() error = %v, want ErrTooManyItems", err)
	}
}

func TestCheckHTTPErrors(t *testing.T) {
	tests := []struct {
		status int
		check  func(error) bool
	}{
		{401, IsAuthError},
		{403, IsAuthError},
		{404, IsNotFound},
		{429, IsRateLimited},
		{500, func(err error) bool {
			var apiErr *APIError
			return errors.As(err, &apiErr) && apiErr.StatusCode == 500 && apiErr.Message == "oops"
		}},
	}

	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.status), func(t *testing.T) {
			resp := &http.Response{StatusCode: tt.status, Body: io.NopCloser(strings.NewReader("oops"))}
			err := checkHTTPErrors(resp, "/x")
			if !tt.check(err) {
				t.Errorf("checkHTTPErrors(%d) = %v", tt.status, err)
			}
		})
	}

	ok := &http.Response{StatusCode: 204, Body: io.NopCloser(strings.NewReader(""))}
	if err := checkHTTPErrors(ok, "/x"); err != nil {
		t.Errorf("checkHTTPErrors(204) = %v", err)
	}
}
