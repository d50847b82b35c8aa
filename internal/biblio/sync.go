package biblio

import (
	"context"
	"io"
	"iter"

	"github.com/charmbracelet/log"

	"github.com/gaas-tools/gaas/internal/doi"
	"github.com/gaas-tools/gaas/internal/zotero"
)

// CollectionReader pages through the items of a collection.
type CollectionReader interface {
	CollectionItems(ctx context.Context, collectionID string, batchSize int) iter.Seq2[zotero.CSLItem, error]
}

// DOIsFromItems yields the DOI of each item. Items without a DOI are logged and skipped.
func DOIsFromItems(items iter.Seq2[zotero.CSLItem, error], logger *log.Logger) iter.Seq2[string, error] {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return func(yield func(string, error) bool) {
		for item, err := range items {
			if err != nil {
				yield("", err)
				return
			}
			if item.DOI == "" {
				logger.Warn("item has no DOI", "id", item.ID, "title", item.Title)
				continue
			}
			if !yield(item.DOI, nil) {
				return
			}
		}
	}
}

// SyncOptions selects the collection and content to reconcile.
type SyncOptions struct {
	CollectionID string
	BatchSize    int
	// DryRun stops after reconciliation: no registry lookups and no writes.
	DryRun bool
}

// SyncReport summarizes a sync run.
type SyncReport struct {
	LibraryDOIs int           `json:"library_dois"`
	ContentDOIs int           `json:"content_dois"`
	Missing     []string      `json:"missing"`
	DryRun      bool          `json:"dry_run"`
	Import      *ImportResult `json:"import,omitempty"`
}

// Syncer runs the reconciliation pipeline: read the collection, scan the content, compute the
// cited DOIs the collection lacks and import them.
type Syncer struct {
	reader   CollectionReader
	content  func() iter.Seq2[string, error]
	importer *Importer
	logger   *log.Logger
}

// NewSyncer wires the pipeline. content returns a fresh DOI sequence for each run.
func NewSyncer(reader CollectionReader, content func() iter.Seq2[string, error], importer *Importer, logger *log.Logger) *Syncer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Syncer{reader: reader, content: content, importer: importer, logger: logger}
}

// Reconcile returns the reconciliation of the collection against the content without
// importing anything.
func (s *Syncer) Reconcile(ctx context.Context, opts SyncOptions) (*doi.Reconciliation, error) {
	library := DOIsFromItems(s.reader.CollectionItems(ctx, opts.CollectionID, opts.BatchSize), s.logger)
	rec, err := doi.Reconcile(library, s.content())
	if err != nil {
		return nil, err
	}
	s.logger.Info("reconciled DOIs",
		"library", rec.Library.Len(), "content", rec.Content.Len(), "missing", rec.Missing.Len())
	return rec, nil
}

// Run reconciles and, unless DryRun is set, imports the missing DOIs. On an import error the
// report still carries what was written.
func (s *Syncer) Run(ctx context.Context, opts SyncOptions) (*SyncReport, error) {
	rec, err := s.Reconcile(ctx, opts)
	if err != nil {
		return nil, err
	}
	report := &SyncReport{
		LibraryDOIs: rec.Library.Len(),
		ContentDOIs: rec.Content.Len(),
		Missing:     rec.Missing.Sorted(),
		DryRun:      opts.DryRun,
	}
	if opts.DryRun || len(report.Missing) == 0 {
		return report, nil
	}

	result, err := s.importer.Import(ctx, report.Missing)
	report.Import = result
	return report, err
}
