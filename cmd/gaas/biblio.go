package main

import (
	"github.com/spf13/cobra"

	"github.com/gaas-tools/gaas/internal/config"
	"github.com/gaas-tools/gaas/internal/crossref"
	"github.com/gaas-tools/gaas/internal/zotero"
)

var biblioCmd = &cobra.Command{
	Use:   "biblio",
	Short: "Manage bibliographic data (Zotero, CrossRef)",
	Long: `Commands for reading a Zotero collection and keeping it in sync with the
references cited in the wiki content.

Library and collection ids may be given as positional arguments or through
the environment.

Environment Variables:
  GAAS_ZOTERO_API_KEY        Zotero API key (required)
  GAAS_ZOTERO_LIBRARY_ID     Zotero library id
  GAAS_ZOTERO_COLLECTION_ID  Zotero collection id
  GAAS_ZOTERO_LIBRARY_TYPE   "user" (default) or "group"
  GAAS_CROSSREF_MAILTO       Contact address sent to CrossRef`,
}

func init() {
	// Load .env file if present (for GAAS_ZOTERO_API_KEY)
	config.LoadDotEnv()

	rootCmd.AddCommand(biblioCmd)
}

// zoteroFlags are the flags shared by commands that read a collection.
type zoteroFlags struct {
	key       string
	batchSize int
	libType   string
}

func (f *zoteroFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.key, "key", "", "Zotero API key (default $"+config.EnvZoteroAPIKey+")")
	cmd.Flags().IntVar(&f.batchSize, "batch-size", config.DefaultBatchSize, "Items fetched per request")
	cmd.Flags().StringVar(&f.libType, "lib-type", "", `Library type, "user" or "group" (default $`+config.EnvZoteroLibraryType+` or "user")`)
}

// resolve combines the flags and the optional [library-id] [collection-id] arguments with
// the environment and global config.
func (f *zoteroFlags) resolve(args []string) (config.ZoteroSettings, error) {
	o := config.ZoteroOverrides{
		APIKey:      f.key,
		LibraryType: f.libType,
		BatchSize:   f.batchSize,
	}
	if len(args) > 0 {
		o.LibraryID = args[0]
	}
	if len(args) > 1 {
		o.CollectionID = args[1]
	}
	s := config.ResolveZotero(o, globalCfg)
	if err := s.Validate(); err != nil {
		return s, withExitCode(ExitConfigError, err)
	}
	return s, nil
}

func newZoteroClient(s config.ZoteroSettings) *zotero.Client {
	return zotero.NewClient(s.LibraryID, s.LibraryType,
		zotero.WithAPIKey(s.APIKey),
		zotero.WithLogger(logger),
	)
}

func newCrossrefClient() *crossref.Client {
	mailto := config.Resolve("", config.EnvCrossrefMailto, globalCfg.CrossrefMailto, "")
	return crossref.NewClient(
		crossref.WithMailto(mailto),
		crossref.WithLogger(logger),
	)
}
