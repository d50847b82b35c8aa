// Package meili wraps the MeiliSearch client with the index, document, task and key
// operations the CLI exposes.
package meili

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/meilisearch/meilisearch-go"
)

// DefaultSearchKeyName is the name MeiliSearch gives its built-in search-only key.
const DefaultSearchKeyName = "Default Search API Key"

// ErrSearchKeyNotFound is returned when the instance has no unique default search key.
var ErrSearchKeyNotFound = errors.New("default search API key not found")

// Service runs commands against one MeiliSearch instance.
type Service struct {
	client *meilisearch.Client
	host   string
	logger *log.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// New creates a service for the instance at host, authenticated with key.
func New(host, key string, opts ...Option) *Service {
	s := &Service{
		client: meilisearch.NewClient(meilisearch.ClientConfig{Host: host, APIKey: key}),
		host:   strings.TrimRight(host, "/"),
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Host returns the instance URL.
func (s *Service) Host() string { return s.host }

// Task is the summary of an enqueued task.
type Task struct {
	UID      int64  `json:"taskUid"`
	IndexUID string `json:"indexUid"`
	Status   string `json:"status"`
	Type     string `json:"type"`
}

func taskFrom(info *meilisearch.TaskInfo) Task {
	return Task{
		UID:      info.TaskUID,
		IndexUID: info.IndexUID,
		Status:   fmt.Sprint(info.Status),
		Type:     fmt.Sprint(info.Type),
	}
}

// IndexSummary describes an index for listings.
type IndexSummary struct {
	UID                  string                `json:"uid"`
	PrimaryKey           string                `json:"primaryKey"`
	CreatedAt            string                `json:"createdAt"`
	UpdatedAt            string                `json:"updatedAt"`
	SearchableAttributes []string              `json:"searchableAttributes,omitempty"`
	SortableAttributes   []string              `json:"sortableAttributes,omitempty"`
	MaxTotalHits         int64                 `json:"maxTotalHits,omitempty"`
	NumberOfDocuments    int64                 `json:"numberOfDocuments"`
	IsIndexing           bool                  `json:"isIndexing"`
	Settings             *meilisearch.Settings `json:"settings,omitempty"`
}

// ListIndexes describes every index. With withSettings the full settings are included.
func (s *Service) ListIndexes(withSettings bool) ([]IndexSummary, error) {
	res, err := s.client.GetIndexes(&meilisearch.IndexesQuery{Limit: 1000})
	if err != nil {
		return nil, fmt.Errorf("listing indexes: %w", err)
	}
	out := make([]IndexSummary, 0, len(res.Results))
	for _, idx := range res.Results {
		sum, err := s.describe(idx, withSettings)
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, nil
}

func (s *Service) describe(idx meilisearch.Index, withSettings bool) (IndexSummary, error) {
	sum := IndexSummary{
		UID:        idx.UID,
		PrimaryKey: idx.PrimaryKey,
		CreatedAt:  idx.CreatedAt.String(),
		UpdatedAt:  idx.UpdatedAt.String(),
	}
	index := s.client.Index(idx.UID)

	searchable, err := index.GetSearchableAttributes()
	if err != nil {
		return sum, fmt.Errorf("index %s searchable attributes: %w", idx.UID, err)
	}
	if searchable != nil {
		sum.SearchableAttributes = *searchable
	}
	sortable, err := index.GetSortableAttributes()
	if err != nil {
		return sum, fmt.Errorf("index %s sortable attributes: %w", idx.UID, err)
	}
	if sortable != nil {
		sum.SortableAttributes = *sortable
	}
	pagination, err := index.GetPagination()
	if err != nil {
		return sum, fmt.Errorf("index %s pagination: %w", idx.UID, err)
	}
	sum.MaxTotalHits = pagination.MaxTotalHits

	stats, err := index.GetStats()
	if err != nil {
		return sum, fmt.Errorf("index %s stats: %w", idx.UID, err)
	}
	sum.NumberOfDocuments = stats.NumberOfDocuments
	sum.IsIndexing = stats.IsIndexing

	if withSettings {
		settings, err := index.GetSettings()
		if err != nil {
			return sum, fmt.Errorf("index %s settings: %w", idx.UID, err)
		}
		sum.Settings = settings
	}
	return sum, nil
}

// GetIndex describes one index.
func (s *Service) GetIndex(uid string) (IndexSummary, error) {
	idx, err := s.client.GetIndex(uid)
	if err != nil {
		return IndexSummary{}, fmt.Errorf("getting index %s: %w", uid, err)
	}
	return s.describe(*idx, false)
}

// CreateIndex enqueues creation of an index.
func (s *Service) CreateIndex(uid, primaryKey string) (Task, error) {
	info, err := s.client.CreateIndex(&meilisearch.IndexConfig{Uid: uid, PrimaryKey: primaryKey})
	if err != nil {
		return Task{}, fmt.Errorf("creating index %s: %w", uid, err)
	}
	return taskFrom(info), nil
}

// DeleteIndex enqueues deletion of an index.
func (s *Service) DeleteIndex(uid string) (Task, error) {
	info, err := s.client.DeleteIndex(uid)
	if err != nil {
		return Task{}, fmt.Errorf("deleting index %s: %w", uid, err)
	}
	return taskFrom(info), nil
}

// DefaultMaxValuesPerFacet is MeiliSearch's own default. It is sent along with facet sorting
// because the faceting setting is replaced as a whole.
const DefaultMaxValuesPerFacet = 100

// IndexSettings are the settings the CLI can change.
type IndexSettings struct {
	Filterable   []string
	Sortable     []string
	MaxTotalHits int64
	// SortFacetValuesBy maps a facet name (or "*") to "alpha" or "count".
	SortFacetValuesBy map[string]string
}

// Configure updates an index's filterable and sortable attributes and, when set, its
// pagination limit and facet value ordering. Each change is its own task.
func (s *Service) Configure(uid string, cfg IndexSettings) ([]Task, error) {
	index := s.client.Index(uid)
	var tasks []Task
	if len(cfg.Filterable) > 0 || len(cfg.Sortable) > 0 {
		info, err := index.UpdateSettings(&meilisearch.Settings{
			FilterableAttributes: cfg.Filterable,
			SortableAttributes:   cfg.Sortable,
		})
		if err != nil {
			return tasks, fmt.Errorf("updating settings of %s: %w", uid, err)
		}
		tasks = append(tasks, taskFrom(info))
	}
	if cfg.MaxTotalHits > 0 {
		info, err := index.UpdatePagination(&meilisearch.Pagination{MaxTotalHits: cfg.MaxTotalHits})
		if err != nil {
			return tasks, fmt.Errorf("updating pagination of %s: %w", uid, err)
		}
		tasks = append(tasks, taskFrom(info))
	}
	if len(cfg.SortFacetValuesBy) > 0 {
		sortBy := make(map[string]meilisearch.SortFacetType, len(cfg.SortFacetValuesBy))
		for facet, order := range cfg.SortFacetValuesBy {
			sortBy[facet] = meilisearch.SortFacetType(order)
		}
		info, err := index.UpdateFaceting(&meilisearch.Faceting{
			MaxValuesPerFacet: DefaultMaxValuesPerFacet,
			SortFacetValuesBy: sortBy,
		})
		if err != nil {
			return tasks, fmt.Errorf("updating faceting of %s: %w", uid, err)
		}
		tasks = append(tasks, taskFrom(info))
	}
	return tasks, nil
}

// AddDocuments enqueues documents for indexing.
func (s *Service) AddDocuments(uid string, docs []map[string]any, primaryKey string) (Task, error) {
	if len(docs) == 0 {
		return Task{}, errors.New("no documents to add")
	}
	s.logger.Debug("adding documents", "index", uid, "count", len(docs), "primaryKey", primaryKey)
	var keys []string
	if primaryKey != "" {
		keys = append(keys, primaryKey)
	}
	info, err := s.client.Index(uid).AddDocuments(docs, keys...)
	if err != nil {
		return Task{}, fmt.Errorf("adding documents to %s: %w", uid, err)
	}
	return taskFrom(info), nil
}

// GetTask fetches a task by its uid.
func (s *Service) GetTask(uid int64) (*meilisearch.Task, error) {
	task, err := s.client.GetTask(uid)
	if err != nil {
		return nil, fmt.Errorf("getting task %d: %w", uid, err)
	}
	return task, nil
}

// Key is an API key without its secret metadata.
type Key struct {
	Name string
	Key  string
}

// Keys lists the API keys of the instance.
func (s *Service) Keys() ([]Key, error) {
	res, err := s.client.GetKeys(&meilisearch.KeysQuery{Limit: 1000})
	if err != nil {
		return nil, fmt.Errorf("listing keys: %w", err)
	}
	keys := make([]Key, len(res.Results))
	for i, k := range res.Results {
		keys[i] = Key{Name: k.Name, Key: k.Key}
	}
	return keys, nil
}

// SearchKey picks the value of the single key named DefaultSearchKeyName.
func SearchKey(keys []Key) (string, error) {
	var found []string
	for _, k := range keys {
		if k.Name == DefaultSearchKeyName {
			found = append(found, k.Key)
		}
	}
	if len(found) != 1 {
		return "", fmt.Errorf("%w: %d keys named %q", ErrSearchKeyNotFound, len(found), DefaultSearchKeyName)
	}
	return found[0], nil
}
