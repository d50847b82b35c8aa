package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/gaas-tools/gaas/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set global configuration values",
	Long: `Get or set values in ~/.config/gaas/config.yml (or $XDG_CONFIG_HOME/gaas).
Values here are used when neither a flag nor the environment sets them.

Usage:
  gaas config                               # Show all config
  gaas config zotero-library-id             # Get specific value
  gaas config zotero-library-id 123456      # Set value
  gaas config zotero-library-type group

Keys:
  zotero-api-key        Zotero API key
  zotero-library-id     Zotero library id
  zotero-collection-id  Zotero collection id
  zotero-library-type   "user" or "group"
  crossref-mailto       Contact address sent to CrossRef
  meili-host            MeiliSearch host
  meili-master-key      MeiliSearch master key

Secrets are masked when shown.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

func isSecretKey(key string) bool {
	switch config.NormalizeKey(key) {
	case "zotero-api-key", "meili-master-key":
		return true
	}
	return false
}

func displayValue(key, value string) string {
	if isSecretKey(key) {
		return config.Mask(value)
	}
	return value
}

func runConfig(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	cfg := globalCfg

	// No args: show all config
	if len(args) == 0 {
		values := make(map[string]string, len(config.Keys()))
		for _, k := range config.Keys() {
			v, _ := cfg.Get(k)
			values[k] = displayValue(k, v)
		}
		return output(w, values, func(w io.Writer) {
			for _, k := range config.Keys() {
				outputHuman(w, "%-21s %s\n", k+":", values[k])
			}
		})
	}

	key := config.NormalizeKey(args[0])

	// One arg: get specific value
	if len(args) == 1 {
		v, err := cfg.Get(key)
		if err != nil {
			return err
		}
		v = displayValue(key, v)
		return output(w, map[string]string{key: v}, func(w io.Writer) {
			outputHuman(w, "%s\n", v)
		})
	}

	// Two args: set value
	if err := cfg.Set(key, args[1]); err != nil {
		return err
	}
	if err := cfg.Save(); err != nil {
		return err
	}

	shown := displayValue(key, args[1])
	return output(w, UpdateResponse{Status: "updated", Key: key, Value: shown}, func(w io.Writer) {
		outputHuman(w, "Updated %s to %s\n", key, shown)
	})
}
