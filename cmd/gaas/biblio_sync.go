package main

import (
	"errors"
	"io"
	"iter"

	"github.com/spf13/cobra"

	"github.com/gaas-tools/gaas/internal/biblio"
	"github.com/gaas-tools/gaas/internal/content"
)

var (
	syncFlags       zoteroFlags
	syncContentDir  string
	syncConcurrency int
	syncDryRun      bool
)

var biblioSyncCmd = &cobra.Command{
	Use:   "sync-dois [library-id] [collection-id]",
	Short: "Import DOIs cited in the content that the collection lacks",
	Long: `Scan the markdown files under --content-dir for :ref{dois="..."} markers,
compare the cited DOIs with those already in the Zotero collection, and
import the missing ones: each is looked up on CrossRef, mapped to a Zotero
journal article or preprint, created in the library and added to the
collection.

Nothing is written unless every lookup succeeds. A CrossRef record of any
type other than journal-article or posted-content aborts the import.

Examples:
  gaas biblio sync-dois --content-dir content
  gaas biblio sync-dois 123456 ABCD2345 --content-dir content --dry-run`,
	Args: cobra.MaximumNArgs(2),
	RunE: runBiblioSync,
}

func init() {
	syncFlags.register(biblioSyncCmd)
	biblioSyncCmd.Flags().StringVar(&syncContentDir, "content-dir", "", "Directory containing content files (required)")
	biblioSyncCmd.Flags().IntVar(&syncConcurrency, "concurrency", 1, "CrossRef lookups in flight")
	biblioSyncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Report missing DOIs without importing them")
	_ = biblioSyncCmd.MarkFlagRequired("content-dir")
	biblioCmd.AddCommand(biblioSyncCmd)
}

func runBiblioSync(cmd *cobra.Command, args []string) error {
	s, err := syncFlags.resolve(args)
	if err != nil {
		return err
	}

	zot := newZoteroClient(s)
	scanner := content.NewScanner(syncContentDir, logger)
	importer := biblio.NewImporter(newCrossrefClient(), zot, s.CollectionID,
		biblio.WithConcurrency(syncConcurrency),
		biblio.WithLogger(logger),
	)
	syncer := biblio.NewSyncer(zot, func() iter.Seq2[string, error] { return scanner.DOIs() }, importer, logger)

	report, err := syncer.Run(cmd.Context(), biblio.SyncOptions{
		CollectionID: s.CollectionID,
		BatchSize:    s.BatchSize,
		DryRun:       syncDryRun,
	})
	if report != nil {
		if outErr := output(cmd.OutOrStdout(), report, func(w io.Writer) { printSyncReport(w, report) }); outErr != nil {
			return errors.Join(err, outErr)
		}
	}
	return err
}

func printSyncReport(w io.Writer, r *biblio.SyncReport) {
	outputHuman(w, "DOIs in collection: %d\n", r.LibraryDOIs)
	outputHuman(w, "DOIs in content:    %d\n", r.ContentDOIs)
	outputHuman(w, "Missing:            %d\n", len(r.Missing))
	for _, d := range r.Missing {
		outputHuman(w, "  %s\n", d)
	}
	if r.DryRun {
		outputHuman(w, "Dry run: nothing imported\n")
		return
	}
	if r.Import == nil {
		return
	}
	for _, c := range r.Import.Created {
		outputHuman(w, "Added %s  %s  %s\n", c.Key, c.DOI, truncateString(c.Title, TitleMaxLen))
	}
	for _, f := range r.Import.Unchanged {
		outputHuman(w, "Unchanged %s: %s\n", f.DOI, f.Message)
	}
	for _, f := range r.Import.Failed {
		outputHuman(w, "Failed %s: %d %s\n", f.DOI, f.Code, f.Message)
	}
}
