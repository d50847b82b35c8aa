// Package main provides the gaas CLI entry point.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/gaas-tools/gaas/internal/config"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool

	// verbose enables debug logging
	verbose bool

	// logger writes progress and diagnostics to stderr
	logger = log.New(os.Stderr)

	// globalCfg is loaded before any command runs
	globalCfg = &config.GlobalConfig{}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(reportError(os.Stderr, err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "gaas",
	Short: "Toolkit for the GAAS wiki: bibliography, content and search",
	Long: `gaas orchestrates the services behind the GAAS wiki.

  biblio   Reconcile DOIs cited in the wiki with a Zotero collection,
           importing missing references from CrossRef
  content  Convert tabular data and build content collections
  meili    Manage MeiliSearch indexes, documents, tasks and keys
  config   Show or set values of the global config file

Credentials are read from flags, the environment (a .env file in the
working directory is loaded), then ~/.config/gaas/config.yml.
All commands output JSON by default; use --human for text.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.Version = Version
}

// setup configures logging and loads the global config before every command.
func setup(cmd *cobra.Command, args []string) error {
	logger = newLogger(cmd.ErrOrStderr(), verbose)

	cfg, err := config.LoadGlobalConfig()
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}
	globalCfg = cfg
	logger.Debug("running command", "command", cmd.CommandPath(), "config", config.GlobalConfigPath())
	return nil
}

func newLogger(w io.Writer, debug bool) *log.Logger {
	l := log.NewWithOptions(w, log.Options{Prefix: "gaas"})
	if debug {
		l.SetLevel(log.DebugLevel)
	}
	return l
}
