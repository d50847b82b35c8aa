package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/gaas-tools/gaas/internal/biblio"
	"github.com/gaas-tools/gaas/internal/doi"
)

var doisFlags zoteroFlags

var biblioDOIsCmd = &cobra.Command{
	Use:     "dois-in-registry [library-id] [collection-id]",
	Aliases: []string{"dois-in-zotero"},
	Short:   "List the DOIs of a Zotero collection",
	Long: `List the normalized DOIs of the items in a Zotero collection, sorted.
Items without a DOI are reported as warnings and skipped.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runBiblioDOIs,
}

func init() {
	doisFlags.register(biblioDOIsCmd)
	biblioCmd.AddCommand(biblioDOIsCmd)
}

func runBiblioDOIs(cmd *cobra.Command, args []string) error {
	s, err := doisFlags.resolve(args)
	if err != nil {
		return err
	}
	items := newZoteroClient(s).CollectionItems(cmd.Context(), s.CollectionID, s.BatchSize)
	set, err := doi.Collect(biblio.DOIsFromItems(items, logger))
	if err != nil {
		return err
	}

	dois := set.Sorted()
	return output(cmd.OutOrStdout(), dois, func(w io.Writer) {
		for _, d := range dois {
			outputHuman(w, "%s\n", d)
		}
	})
}
