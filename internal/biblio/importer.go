package biblio

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/gaas-tools/gaas/internal/crossref"
	"github.com/gaas-tools/gaas/internal/zotero"
)

// Registry looks up DOI metadata.
type Registry interface {
	Work(ctx context.Context, doi string) (*crossref.Work, error)
}

// Library is the write side of a Zotero library.
type Library interface {
	ItemTemplate(ctx context.Context, itemType string) (zotero.ItemData, error)
	CreateItems(ctx context.Context, items []zotero.ItemData) (*zotero.CreateResponse, error)
	AddToCollection(ctx context.Context, collectionID string, item zotero.Item) error
}

// CreatedItem is an item the library accepted.
type CreatedItem struct {
	DOI   string `json:"doi"`
	Key   string `json:"key"`
	Title string `json:"title"`
}

// FailedItem is an item the library rejected or left unchanged.
type FailedItem struct {
	DOI     string `json:"doi"`
	Code    int    `json:"code,omitempty"`
	Message string `json:"message"`
}

// ImportResult reports the outcome of an import, in input order.
type ImportResult struct {
	Created   []CreatedItem `json:"created"`
	Unchanged []FailedItem  `json:"unchanged,omitempty"`
	Failed    []FailedItem  `json:"failed,omitempty"`
}

// Importer creates library items for DOIs from their registry records and files them in a
// collection.
type Importer struct {
	registry     Registry
	library      Library
	collectionID string
	concurrency  int
	logger       *log.Logger
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithConcurrency bounds the number of registry lookups in flight.
func WithConcurrency(n int) ImporterOption {
	return func(im *Importer) {
		if n > 0 {
			im.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) ImporterOption {
	return func(im *Importer) {
		im.logger = l
	}
}

// NewImporter creates an importer filing new items in collectionID.
func NewImporter(registry Registry, library Library, collectionID string, opts ...ImporterOption) *Importer {
	im := &Importer{
		registry:     registry,
		library:      library,
		collectionID: collectionID,
		concurrency:  1,
		logger:       log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Import looks up every DOI, maps the records to items, validates them and creates them in
// writes of at most zotero.MaxWriteItems, then adds each created item to the collection.
//
// Nothing is written unless every lookup and mapping succeeds. A failure while creating or
// filing items leaves the items already written in place; the partial result is returned
// with the error.
func (im *Importer) Import(ctx context.Context, dois []string) (*ImportResult, error) {
	result := &ImportResult{}
	if len(dois) == 0 {
		return result, nil
	}

	works, err := im.lookup(ctx, dois)
	if err != nil {
		return result, err
	}

	items, templates, err := im.build(ctx, works)
	if err != nil {
		return result, err
	}
	if err := zotero.ValidateItems(items, templates); err != nil {
		return result, fmt.Errorf("validating items: %w", err)
	}

	for start := 0; start < len(items); start += zotero.MaxWriteItems {
		end := min(start+zotero.MaxWriteItems, len(items))
		if err := im.write(ctx, dois[start:end], items[start:end], result); err != nil {
			return result, err
		}
	}
	return result, nil
}

// lookup fetches the registry records for dois, keeping input order. The first failure
// cancels the outstanding lookups.
func (im *Importer) lookup(ctx context.Context, dois []string) ([]*crossref.Work, error) {
	works, err := crossref.FetchAll(ctx, dois, im.concurrency, im.registry.Work)
	if err != nil {
		return nil, err
	}
	for i, w := range works {
		im.logger.Debug("registry record", "doi", dois[i], "type", w.Type, "title", w.FirstTitle())
	}
	return works, nil
}

// build maps records to items on top of their item templates. Templates are fetched once per
// item type and returned for validation.
func (im *Importer) build(ctx context.Context, works []*crossref.Work) ([]zotero.ItemData, map[string]zotero.ItemData, error) {
	fields := make([]zotero.ItemData, len(works))
	for i, w := range works {
		f, err := MapWork(w)
		if err != nil {
			return nil, nil, err
		}
		fields[i] = f
	}

	templates := make(map[string]zotero.ItemData)
	items := make([]zotero.ItemData, len(works))
	for i, f := range fields {
		itemType := f.ItemType()
		tmpl, ok := templates[itemType]
		if !ok {
			var err error
			if tmpl, err = im.library.ItemTemplate(ctx, itemType); err != nil {
				return nil, nil, err
			}
			templates[itemType] = tmpl
		}
		item, dropped := Fill(tmpl, f)
		if len(dropped) > 0 {
			im.logger.Debug("fields not defined for item type", "doi", works[i].DOI, "itemType", itemType, "fields", dropped)
		}
		items[i] = item
	}
	return items, templates, nil
}

// write creates one batch and files the created items in the collection.
func (im *Importer) write(ctx context.Context, dois []string, items []zotero.ItemData, result *ImportResult) error {
	resp, err := im.library.CreateItems(ctx, items)
	if err != nil {
		return fmt.Errorf("creating items: %w", err)
	}

	for _, idx := range sortedIndexes(resp.Successful) {
		i, _ := strconv.Atoi(idx)
		item := resp.Successful[idx]
		d := batchDOI(dois, i)
		if err := im.library.AddToCollection(ctx, im.collectionID, item); err != nil {
			return fmt.Errorf("adding %s (%s) to collection %s: %w", item.Key, d, im.collectionID, err)
		}
		im.logger.Info("added item", "doi", d, "key", item.Key, "title", item.Data.Title())
		result.Created = append(result.Created, CreatedItem{DOI: d, Key: item.Key, Title: item.Data.Title()})
	}
	for _, idx := range sortedIndexes(resp.Unchanged) {
		i, _ := strconv.Atoi(idx)
		result.Unchanged = append(result.Unchanged, FailedItem{DOI: batchDOI(dois, i), Message: "unchanged: " + resp.Unchanged[idx]})
	}
	for _, idx := range sortedIndexes(resp.Failed) {
		i, _ := strconv.Atoi(idx)
		f := resp.Failed[idx]
		d := batchDOI(dois, i)
		im.logger.Warn("item rejected", "doi", d, "code", f.Code, "message", f.Message)
		result.Failed = append(result.Failed, FailedItem{DOI: d, Code: f.Code, Message: f.Message})
	}
	return nil
}

func batchDOI(dois []string, i int) string {
	if i < 0 || i >= len(dois) {
		return ""
	}
	return dois[i]
}

// sortedIndexes returns the batch indexes of m in numeric order.
func sortedIndexes[T any](m zotero.Indexed[T]) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		ai, _ := strconv.Atoi(a)
		bi, _ := strconv.Atoi(b)
		return ai - bi
	})
	return keys
}
