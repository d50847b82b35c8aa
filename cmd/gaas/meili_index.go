package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gaas-tools/gaas/internal/meili"
)

var (
	indexLsSettings   bool
	indexPrimaryKey   string
	indexFilterable   []string
	indexSortable     []string
	indexMaxTotalHits int64
	indexFacetOrder   map[string]string
)

var meiliIndexLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all indexes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		indexes, err := newMeiliService().ListIndexes(indexLsSettings)
		if err != nil {
			return err
		}
		return output(cmd.OutOrStdout(), indexes, func(w io.Writer) {
			for _, idx := range indexes {
				printIndexHuman(w, idx)
			}
		})
	},
}

var meiliIndexGetCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Show one index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := newMeiliService().GetIndex(args[0])
		if err != nil {
			return err
		}
		return output(cmd.OutOrStdout(), idx, func(w io.Writer) { printIndexHuman(w, idx) })
	},
}

var meiliIndexCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		task, err := newMeiliService().CreateIndex(args[0], indexPrimaryKey)
		if err != nil {
			return err
		}
		return outputTasks(cmd.OutOrStdout(), task)
	},
}

var meiliIndexRmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Delete an index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		task, err := newMeiliService().DeleteIndex(args[0])
		if err != nil {
			return err
		}
		return outputTasks(cmd.OutOrStdout(), task)
	},
}

var meiliIndexSettingsCmd = &cobra.Command{
	Use:   "settings <name>",
	Short: "Update attributes, pagination and facet ordering of an index",
	Long: `Update the settings of an index.

Examples:
  gaas meili index settings workflows --filterable category,tags --sortable name
  gaas meili index settings workflows --max-total-hits 40000
  gaas meili index settings workflows --sort-facet-values-by '*=count'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := meili.IndexSettings{
			Filterable:        indexFilterable,
			Sortable:          indexSortable,
			MaxTotalHits:      indexMaxTotalHits,
			SortFacetValuesBy: indexFacetOrder,
		}
		for facet, order := range cfg.SortFacetValuesBy {
			if order != "alpha" && order != "count" {
				return fmt.Errorf("facet %s: sort order must be alpha or count, got %q", facet, order)
			}
		}
		if len(cfg.Filterable) == 0 && len(cfg.Sortable) == 0 && cfg.MaxTotalHits <= 0 && len(cfg.SortFacetValuesBy) == 0 {
			return fmt.Errorf("nothing to update: give --filterable, --sortable, --max-total-hits or --sort-facet-values-by")
		}
		tasks, err := newMeiliService().Configure(args[0], cfg)
		if err != nil {
			return err
		}
		return outputTasks(cmd.OutOrStdout(), tasks...)
	},
}

func init() {
	meiliIndexLsCmd.Flags().BoolVar(&indexLsSettings, "settings", false, "Include full index settings")
	meiliIndexCreateCmd.Flags().StringVar(&indexPrimaryKey, "primary-key", "", "Primary key of the documents")
	meiliIndexSettingsCmd.Flags().StringSliceVar(&indexFilterable, "filterable", nil, "Filterable attributes")
	meiliIndexSettingsCmd.Flags().StringSliceVar(&indexSortable, "sortable", nil, "Sortable attributes")
	meiliIndexSettingsCmd.Flags().Int64Var(&indexMaxTotalHits, "max-total-hits", 0, "Pagination limit")
	meiliIndexSettingsCmd.Flags().StringToStringVar(&indexFacetOrder, "sort-facet-values-by", nil, "Facet value order per facet (alpha or count), e.g. '*=count'")

	meiliIndexCmd.AddCommand(meiliIndexLsCmd, meiliIndexGetCmd, meiliIndexCreateCmd, meiliIndexRmCmd, meiliIndexSettingsCmd)
}

func printIndexHuman(w io.Writer, idx meili.IndexSummary) {
	outputHuman(w, "Index: %s\n", idx.UID)
	outputHuman(w, "  %-22s %s\n", "Primary Key", idx.PrimaryKey)
	outputHuman(w, "  %-22s %s\n", "Created At", idx.CreatedAt)
	outputHuman(w, "  %-22s %s\n", "Updated At", idx.UpdatedAt)
	outputHuman(w, "  %-22s %s\n", "Searchable Attributes", strings.Join(idx.SearchableAttributes, ", "))
	outputHuman(w, "  %-22s %s\n", "Sortable Attributes", strings.Join(idx.SortableAttributes, ", "))
	outputHuman(w, "  %-22s %d\n", "Max Total Hits", idx.MaxTotalHits)
	outputHuman(w, "  %-22s %d\n", "Number of Documents", idx.NumberOfDocuments)
	outputHuman(w, "  %-22s %t\n", "Is Indexing", idx.IsIndexing)
	if idx.Settings != nil {
		outputHuman(w, "  %-22s %+v\n", "Settings", *idx.Settings)
	}
}

func outputTasks(w io.Writer, tasks ...meili.Task) error {
	var v any = tasks
	if len(tasks) == 1 {
		v = tasks[0]
	}
	return output(w, v, func(w io.Writer) {
		for _, t := range tasks {
			outputHuman(w, "Task %d %s on %s: %s\n", t.UID, t.Type, t.IndexUID, t.Status)
		}
	})
}
