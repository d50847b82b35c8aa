package meili

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gaas-tools/gaas/internal/tabular"
)

// SampleMaxTotalHits is the pagination limit configured on sample indexes.
const SampleMaxTotalHits = 40000

const datasetsBaseURL = "https://raw.githubusercontent.com/meilisearch/datasets/main/datasets"

// Sample is a public MeiliSearch demo dataset and the index settings that go with it.
type Sample struct {
	Index    string
	URL      string
	Settings IndexSettings
	// Prepare rewrites documents before upload; nil leaves them as downloaded.
	Prepare func([]map[string]any) error
}

// Samples lists the datasets add-sample accepts, keyed by index name.
var Samples = map[string]Sample{
	"movies": {
		Index: "movies",
		URL:   datasetsBaseURL + "/movies/movies.json",
		Settings: IndexSettings{
			Filterable:   []string{"genres"},
			Sortable:     []string{"release_date", "title", "genres"},
			MaxTotalHits: SampleMaxTotalHits,
		},
	},
	"books": {
		Index: "books",
		URL:   datasetsBaseURL + "/books/books.json",
		Settings: IndexSettings{
			Filterable:   []string{"author", "language", "publisher", "cover", "details.pages", "details.rating"},
			Sortable:     []string{"title", "author", "isbn13"},
			MaxTotalHits: SampleMaxTotalHits,
		},
		Prepare: PrepareBooks,
	},
	"world_cities": {
		Index: "world_cities",
		URL:   datasetsBaseURL + "/world_cities/world-cities.json",
		Settings: IndexSettings{
			Filterable:        []string{"country", "country_code", "timezone", "population"},
			Sortable:          []string{"name", "population", "timezone", "country", "country_code"},
			MaxTotalHits:      SampleMaxTotalHits,
			SortFacetValuesBy: map[string]string{"*": "count"},
		},
	},
}

// SampleNames returns the known sample names, sorted.
func SampleNames() []string {
	names := make([]string, 0, len(Samples))
	for n := range Samples {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// LookupSample finds a sample by name.
func LookupSample(name string) (Sample, error) {
	s, ok := Samples[name]
	if !ok {
		return Sample{}, fmt.Errorf("unknown sample %q (want one of %s)", name, strings.Join(SampleNames(), ", "))
	}
	return s, nil
}

// PrepareBooks splits "a/b" author strings into lists and makes details.pages an integer and
// details.rating a float, so they can be filtered numerically.
func PrepareBooks(books []map[string]any) error {
	for i, book := range books {
		author, ok := book["author"].(string)
		if !ok {
			continue
		}
		book["author"] = strings.Split(author, "/")

		details, ok := book["details"].(map[string]any)
		if !ok {
			continue
		}
		if v, ok := details["pages"]; ok {
			pages, err := toInt(v)
			if err != nil {
				return fmt.Errorf("book %d pages: %w", i, err)
			}
			details["pages"] = pages
		}
		if v, ok := details["rating"]; ok {
			rating, err := toFloat(v)
			if err != nil {
				return fmt.Errorf("book %d rating: %w", i, err)
			}
			details["rating"] = rating
		}
	}
	return nil
}

func toInt(v any) (int64, error) {
	switch x := v.(type) {
	case json.Number:
		return x.Int64()
	case float64:
		return int64(x), nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(x), 10, 64)
	}
	return 0, fmt.Errorf("unexpected %T", v)
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case json.Number:
		return x.Float64()
	case float64:
		return x, nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(x), 64)
	}
	return 0, fmt.Errorf("unexpected %T", v)
}

// Downloader fetches sample datasets.
type Downloader struct {
	HTTPClient *http.Client
}

// NewDownloader returns a downloader with a generous timeout; the datasets are tens of MB.
func NewDownloader() *Downloader {
	return &Downloader{HTTPClient: &http.Client{Timeout: 5 * time.Minute}}
}

// Fetch downloads and decodes a JSON array of documents.
func (d *Downloader) Fetch(ctx context.Context, url string) ([]map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := d.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("downloading %s: status %d", url, resp.StatusCode)
	}
	return tabular.DecodeJSONRecords(resp.Body)
}

// AddSample configures the sample's index, downloads its documents and enqueues them.
func (s *Service) AddSample(ctx context.Context, d *Downloader, sample Sample) ([]Task, error) {
	tasks, err := s.Configure(sample.Index, sample.Settings)
	if err != nil {
		return tasks, err
	}

	s.logger.Info("downloading sample data", "url", sample.URL)
	docs, err := d.Fetch(ctx, sample.URL)
	if err != nil {
		return tasks, err
	}
	if sample.Prepare != nil {
		if err := sample.Prepare(docs); err != nil {
			return tasks, err
		}
	}

	s.logger.Info("adding documents", "index", sample.Index, "count", len(docs))
	task, err := s.AddDocuments(sample.Index, docs, "")
	if err != nil {
		return tasks, err
	}
	return append(tasks, task), nil
}
