package main

import (
	"github.com/spf13/cobra"

	"github.com/gaas-tools/gaas/internal/config"
	"github.com/gaas-tools/gaas/internal/meili"
)

var (
	meiliHost string
	meiliKey  string
)

var meiliCmd = &cobra.Command{
	Use:   "meili",
	Short: "Manage MeiliSearch instances and indexes",
	Long: `Commands for MeiliSearch indexes, documents, tasks and keys.

Environment Variables:
  MEILI_HOST        Instance URL (default http://localhost:7700)
  MEILI_MASTER_KEY  Master key (default MASTER_KEY)`,
}

var meiliIndexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage MeiliSearch indexes",
}

var meiliDocumentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage MeiliSearch documents",
}

var meiliTaskCmd = &cobra.Command{
	Use:   "task",
	Short: "Inspect MeiliSearch tasks",
}

var meiliKeyCmd = &cobra.Command{
	Use:   "key",
	Short: "Export MeiliSearch keys",
}

func init() {
	meiliCmd.PersistentFlags().StringVar(&meiliHost, "host", "", "MeiliSearch host (default $"+config.EnvMeiliHost+")")
	meiliCmd.PersistentFlags().StringVar(&meiliKey, "key", "", "MeiliSearch master key (default $"+config.EnvMeiliMasterKey+")")

	meiliCmd.AddCommand(meiliIndexCmd, meiliDocumentCmd, meiliTaskCmd, meiliKeyCmd)
	rootCmd.AddCommand(meiliCmd)
}

func newMeiliService() *meili.Service {
	s := config.ResolveMeili(meiliHost, meiliKey, globalCfg)
	logger.Debug("meilisearch", "host", s.Host, "key", config.Mask(s.MasterKey))
	return meili.New(s.Host, s.MasterKey, meili.WithLogger(logger))
}
