package main

import (
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/gaas-tools/gaas/internal/meili"
)

var (
	keyNuxtPrefix bool
	keyOutput     string
)

var meiliKeyEnvVarCmd = &cobra.Command{
	Use:   "env-var",
	Short: "Write the search host and key to an env file",
	Long: `Look up the instance's "Default Search API Key" and write MEILI_HOST and
MEILI_API_KEY into an env file for a front end build. Other variables
already in the file are kept.

Examples:
  gaas meili key env-var
  gaas meili key env-var --nuxt-prefix --output .env.production`,
	Args: cobra.NoArgs,
	RunE: runMeiliKeyEnvVar,
}

func init() {
	meiliKeyEnvVarCmd.Flags().BoolVar(&keyNuxtPrefix, "nuxt-prefix", false, "Add NUXT_ prefix to env vars")
	meiliKeyEnvVarCmd.Flags().StringVarP(&keyOutput, "output", "o", meili.DefaultEnvFile, "Env file to write")
	meiliKeyCmd.AddCommand(meiliKeyEnvVarCmd)
}

func runMeiliKeyEnvVar(cmd *cobra.Command, args []string) error {
	svc := newMeiliService()
	keys, err := svc.Keys()
	if err != nil {
		return err
	}
	searchKey, err := meili.SearchKey(keys)
	if err != nil {
		return err
	}

	vars := meili.SearchEnv(svc.Host(), searchKey, keyNuxtPrefix)
	if err := meili.WriteEnvFile(keyOutput, vars); err != nil {
		return err
	}

	names := make([]string, 0, len(vars))
	for k := range vars {
		names = append(names, k)
	}
	slices.Sort(names)
	return output(cmd.OutOrStdout(), map[string]any{"status": "ok", "path": keyOutput, "variables": names}, func(w io.Writer) {
		outputHuman(w, "Wrote %v to %s\n", names, keyOutput)
	})
}
