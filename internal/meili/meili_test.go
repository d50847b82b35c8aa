package meili

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/joho/godotenv"
)

func TestSearchKey(t *testing.T) {
	tests := []struct {
		name    string
		keys    []Key
		want    string
		wantErr bool
	}{
		{
			name: "picks default search key",
			keys: []Key{
				{Name: "Default Admin API Key", Key: "admin"},
				{Name: DefaultSearchKeyName, Key: "search"},
			},
			want: "search",
		},
		{name: "none", keys: []Key{{Name: "other", Key: "x"}}, wantErr: true},
		{
			name: "ambiguous",
			keys: []Key{
				{Name: DefaultSearchKeyName, Key: "a"},
				{Name: DefaultSearchKeyName, Key: "b"},
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SearchKey(tt.keys)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("SearchKey() = %q, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("SearchKey() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("SearchKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSearchEnv(t *testing.T) {
	env := SearchEnv("http://localhost:7700", "k", true)
	if env["NUXT_MEILI_HOST"] != "http://localhost:7700" || env["NUXT_MEILI_API_KEY"] != "k" {
		t.Errorf("SearchEnv(nuxt) = %v", env)
	}
	env = SearchEnv("h", "k", false)
	if env["MEILI_HOST"] != "h" || len(env) != 2 {
		t.Errorf("SearchEnv() = %v", env)
	}
}

func TestWriteEnvFile_MergesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build.env")
	if err := os.WriteFile(path, []byte("OTHER=1\nMEILI_HOST=old\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := WriteEnvFile(path, SearchEnv("http://search:7700", "abc", false)); err != nil {
		t.Fatalf("WriteEnvFile() error = %v", err)
	}

	env, err := godotenv.Read(path)
	if err != nil {
		t.Fatalf("reading back: %v", err)
	}
	want := map[string]string{"OTHER": "1", "MEILI_HOST": "http://search:7700", "MEILI_API_KEY": "abc"}
	for k, v := range want {
		if env[k] != v {
			t.Errorf("env[%s] = %q, want %q", k, env[k], v)
		}
	}
}

func TestWriteEnvFile_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.env")
	if err := WriteEnvFile(path, map[string]string{"A": "b"}); err != nil {
		t.Fatalf("WriteEnvFile() error = %v", err)
	}
	env, err := godotenv.Read(path)
	if err != nil || env["A"] != "b" {
		t.Errorf("env = %v, err = %v", env, err)
	}
}

func TestPrepareBooks(t *testing.T) {
	var books []map[string]any
	raw := `[
	  {"title": "A", "author": "Ann/Bob", "details": {"pages": "320", "rating": "4.5"}},
	  {"title": "B", "author": "Cy", "details": {"pages": 12, "rating": 3}},
	  {"title": "C"}
	]`
	if err := json.Unmarshal([]byte(raw), &books); err != nil {
		t.Fatal(err)
	}

	if err := PrepareBooks(books); err != nil {
		t.Fatalf("PrepareBooks() error = %v", err)
	}

	authors, ok := books[0]["author"].([]string)
	if !ok || len(authors) != 2 || authors[1] != "Bob" {
		t.Errorf("author = %#v", books[0]["author"])
	}
	details := books[0]["details"].(map[string]any)
	if details["pages"] != int64(320) || details["rating"] != 4.5 {
		t.Errorf("details = %#v", details)
	}
	details = books[1]["details"].(map[string]any)
	if details["pages"] != int64(12) || details["rating"] != float64(3) {
		t.Errorf("details = %#v", details)
	}
	if _, ok := books[2]["author"]; ok {
		t.Error("book without author gained one")
	}
}

func TestPrepareBooks_BadPages(t *testing.T) {
	books := []map[string]any{{"author": "x", "details": map[string]any{"pages": "many"}}}
	if err := PrepareBooks(books); err == nil {
		t.Error("PrepareBooks() expected error")
	}
}

func TestLookupSample(t *testing.T) {
	for _, name := range []string{"movies", "books", "world_cities"} {
		s, err := LookupSample(name)
		if err != nil {
			t.Fatalf("LookupSample(%q) error = %v", name, err)
		}
		if s.Index != name || s.Settings.MaxTotalHits != SampleMaxTotalHits {
			t.Errorf("LookupSample(%q) = %+v", name, s)
		}
	}
	if _, err := LookupSample("songs"); err == nil {
		t.Error("LookupSample(songs) expected error")
	}
}

func TestDownloaderFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movies.json" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`[{"id": 1, "title": "Carol"}, {"id": 2, "title": "Wild"}]`))
	}))
	defer srv.Close()

	d := &Downloader{HTTPClient: srv.Client()}
	docs, err := d.Fetch(context.Background(), srv.URL+"/movies.json")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(docs) != 2 || docs[1]["title"] != "Wild" {
		t.Errorf("docs = %v", docs)
	}

	if _, err := d.Fetch(context.Background(), srv.URL+"/missing.json"); err == nil {
		t.Error("Fetch() expected error for 404")
	}
}
