package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gaas-tools/gaas/internal/meili"
	"github.com/gaas-tools/gaas/internal/tabular"
)

var (
	documentFormat     string
	documentPrimaryKey string
)

var meiliDocumentAddCmd = &cobra.Command{
	Use:   "add <index> [file|-]",
	Short: "Add documents to an index",
	Long: `Add documents from a JSON, CSV or Parquet file to an index. Without a file,
or with "-", documents are read from stdin.

Examples:
  gaas meili document add workflows workflows.json
  gaas meili document add workflows data.parquet --format parquet
  cat rows.csv | gaas meili document add workflows --format csv`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runMeiliDocumentAdd,
}

var meiliDocumentAddSampleCmd = &cobra.Command{
	Use:       "add-sample <" + strings.Join(meili.SampleNames(), "|") + ">",
	Short:     "Load a MeiliSearch sample dataset",
	Long:      `Configure the sample's index, download the dataset and add its documents.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: meili.SampleNames(),
	RunE:      runMeiliDocumentAddSample,
}

func init() {
	meiliDocumentAddCmd.Flags().StringVar(&documentFormat, "format", string(tabular.FormatJSON), "Document format: json, csv or parquet")
	meiliDocumentAddCmd.Flags().StringVar(&documentPrimaryKey, "primary-key", "id", "Primary key of the documents")
	meiliDocumentCmd.AddCommand(meiliDocumentAddCmd, meiliDocumentAddSampleCmd)
}

func runMeiliDocumentAdd(cmd *cobra.Command, args []string) error {
	format, err := tabular.ParseFormat(documentFormat)
	if err != nil {
		return err
	}
	path := ""
	if len(args) > 1 {
		path = args[1]
	}

	docs, err := tabular.LoadDocuments(path, format, cmd.InOrStdin())
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no documents in input")
	}

	task, err := newMeiliService().AddDocuments(args[0], docs, documentPrimaryKey)
	if err != nil {
		return err
	}
	return outputTasks(cmd.OutOrStdout(), task)
}

func runMeiliDocumentAddSample(cmd *cobra.Command, args []string) error {
	sample, err := meili.LookupSample(args[0])
	if err != nil {
		return err
	}
	tasks, err := newMeiliService().AddSample(cmd.Context(), meili.NewDownloader(), sample)
	if err != nil {
		return err
	}
	return outputTasks(cmd.OutOrStdout(), tasks...)
}
