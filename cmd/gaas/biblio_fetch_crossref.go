package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/gaas-tools/gaas/internal/doi"
)

var fetchCrossrefConcurrency int

var biblioFetchCrossrefCmd = &cobra.Command{
	Use:   "fetch-crossref <doi>...",
	Short: "Print CrossRef records for DOIs",
	Long: `Fetch the CrossRef works record of each DOI. Any failed lookup aborts the
command with a remote error.

Examples:
  gaas biblio fetch-crossref 10.1016/0042-6822(73)90432-7
  gaas biblio fetch-crossref 10.1/a 10.1/b --concurrency 2 --human`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBiblioFetchCrossref,
}

func init() {
	biblioFetchCrossrefCmd.Flags().IntVar(&fetchCrossrefConcurrency, "concurrency", 1, "Lookups in flight")
	biblioCmd.AddCommand(biblioFetchCrossrefCmd)
}

func runBiblioFetchCrossref(cmd *cobra.Command, args []string) error {
	dois := make([]string, len(args))
	for i, a := range args {
		dois[i] = doi.Normalize(a)
	}

	works, err := newCrossrefClient().Works(cmd.Context(), dois, fetchCrossrefConcurrency)
	if err != nil {
		return err
	}

	return output(cmd.OutOrStdout(), works, func(w io.Writer) {
		for _, work := range works {
			outputHuman(w, "%s\n", truncateString(work.FirstTitle(), TitleMaxLen))
			outputHuman(w, "   %s  %s  %s\n", work.DOI, work.Type, work.PublishedDate("-"))
		}
	})
}
