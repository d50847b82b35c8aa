package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gaas-tools/gaas/internal/content"
	"github.com/gaas-tools/gaas/internal/tabular"
)

var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "Manage wiki content and tabular data",
}

var collectionCmd = &cobra.Command{
	Use:   "collection",
	Short: "Manage Nuxt content collections",
}

var (
	parquetOutput string
	parquetFormat string

	collectionName   string
	collectionID     string
	collectionOutput string
)

var contentToParquetCmd = &cobra.Command{
	Use:   "to-parquet <input>",
	Short: "Convert a CSV or JSON file to Parquet",
	Long: `Convert a CSV file (with a header row) or a JSON array of objects to a
Parquet file. Column types are inferred: booleans, 64-bit integers, doubles,
otherwise strings. The cells "", "na" and "nan" become nulls.

The format defaults to the input's extension; the output defaults to the
input path with a .parquet extension.

Examples:
  gaas content to-parquet data/workflows.csv
  gaas content to-parquet export.txt --format json --output export.parquet`,
	Args: cobra.ExactArgs(1),
	RunE: runContentToParquet,
}

var collectionCreateCmd = &cobra.Command{
	Use:   "create-from-csv <file>",
	Short: "Create a content collection from a CSV file",
	Long: `Write one JSON document per CSV row into <output>/<name>/, named after the
value of the id column.`,
	Args: cobra.ExactArgs(1),
	RunE: runCollectionCreate,
}

func init() {
	contentToParquetCmd.Flags().StringVarP(&parquetOutput, "output", "o", "", "Output Parquet file")
	contentToParquetCmd.Flags().StringVar(&parquetFormat, "format", "", "Input format: csv or json")

	collectionCreateCmd.Flags().StringVar(&collectionName, "name", content.DefaultCollectionName, "Name of the collection")
	collectionCreateCmd.Flags().StringVar(&collectionID, "id", content.DefaultIDColumn, "Column whose value names each file")
	collectionCreateCmd.Flags().StringVarP(&collectionOutput, "output", "o", content.DefaultCollectionDir, "Parent directory of the collection")

	collectionCmd.AddCommand(collectionCreateCmd)
	contentCmd.AddCommand(contentToParquetCmd, collectionCmd)
	rootCmd.AddCommand(contentCmd)
}

// ParquetResponse describes a conversion.
type ParquetResponse struct {
	Status  string            `json:"status"`
	Input   string            `json:"input"`
	Path    string            `json:"path"`
	Rows    int               `json:"rows"`
	Columns map[string]string `json:"columns"`
}

func runContentToParquet(cmd *cobra.Command, args []string) error {
	input := args[0]

	format, err := inputFormat(input, parquetFormat)
	if err != nil {
		return err
	}
	if format == tabular.FormatParquet {
		return fmt.Errorf("%s is already parquet", input)
	}
	out := parquetOutput
	if out == "" {
		out = tabular.DefaultParquetPath(input)
	}

	t, err := tabular.ToParquet(input, out, format)
	if err != nil {
		return err
	}
	logger.Debug("converted", "input", input, "output", out, "rows", t.Len())

	resp := ParquetResponse{Status: "ok", Input: input, Path: out, Rows: t.Len(), Columns: map[string]string{}}
	for _, c := range t.Columns {
		resp.Columns[c] = t.Kind(c).String()
	}
	return output(cmd.OutOrStdout(), resp, func(w io.Writer) {
		outputHuman(w, "Wrote %d rows (%d columns) to %s\n", t.Len(), len(t.Columns), out)
		for _, c := range t.Columns {
			outputHuman(w, "  %-24s %s\n", c, t.Kind(c))
		}
	})
}

// inputFormat returns the explicit format, or guesses it from the path (CSV if unknown).
func inputFormat(path, explicit string) (tabular.Format, error) {
	if explicit != "" {
		return tabular.ParseFormat(explicit)
	}
	if f, ok := tabular.FormatFromPath(path); ok {
		return f, nil
	}
	return tabular.FormatCSV, nil
}

func runCollectionCreate(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	opts := content.CollectionOptions{Name: collectionName, IDColumn: collectionID, OutputDir: collectionOutput}
	paths, err := content.CreateFromCSV(f, opts)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	return output(cmd.OutOrStdout(), StatusResponse{Status: "ok", Path: opts.Dir(), Count: len(paths)}, func(w io.Writer) {
		outputHuman(w, "Wrote %d documents to %s\n", len(paths), opts.Dir())
	})
}
