package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gaas-tools/gaas/internal/content"
	"github.com/gaas-tools/gaas/internal/zotero"
)

var (
	fetchFlags  zoteroFlags
	fetchOutput string
)

var biblioFetchCmd = &cobra.Command{
	Use:   "fetch [library-id] [collection-id]",
	Short: "Save the items of a Zotero collection as CSL-JSON files",
	Long: `Fetch the journal articles and preprints of a Zotero collection and write
each one as an indented CSL-JSON file named after its item id.

Examples:
  gaas biblio fetch 123456 ABCD2345
  gaas biblio fetch --output refs --batch-size 50`,
	Args: cobra.MaximumNArgs(2),
	RunE: runBiblioFetch,
}

func init() {
	fetchFlags.register(biblioFetchCmd)
	biblioFetchCmd.Flags().StringVarP(&fetchOutput, "output", "o", "biblio", "Output directory")
	biblioCmd.AddCommand(biblioFetchCmd)
}

func runBiblioFetch(cmd *cobra.Command, args []string) error {
	s, err := fetchFlags.resolve(args)
	if err != nil {
		return err
	}
	client := newZoteroClient(s)

	if err := os.MkdirAll(fetchOutput, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", fetchOutput, err)
	}

	count := 0
	for item, err := range client.CollectionItems(cmd.Context(), s.CollectionID, s.BatchSize) {
		if err != nil {
			return err
		}
		path, err := writeCSLItem(fetchOutput, item)
		if err != nil {
			return err
		}
		logger.Debug("wrote item", "path", path)
		count++
	}

	return output(cmd.OutOrStdout(), StatusResponse{Status: "ok", Path: fetchOutput, Count: count}, func(w io.Writer) {
		outputHuman(w, "Wrote %d items to %s\n", count, fetchOutput)
	})
}

// writeCSLItem writes item as <id>.json in dir, without the embedded "data" object.
func writeCSLItem(dir string, item zotero.CSLItem) (string, error) {
	var doc map[string]any
	if err := json.Unmarshal(item.Raw, &doc); err != nil {
		return "", fmt.Errorf("item %s: %w", item.ID, err)
	}
	delete(doc, "data")

	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("item %s: %w", item.ID, err)
	}
	path := filepath.Join(dir, content.FileName(item.ID)+".json")
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
