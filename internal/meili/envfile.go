package meili

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// DefaultEnvFile is where env-var writes the search credentials.
const DefaultEnvFile = "build.env"

// NuxtPrefix is prepended to variable names for Nuxt runtime config.
const NuxtPrefix = "NUXT_"

// SearchEnv returns the variables a front end needs to query the instance.
func SearchEnv(host, searchKey string, nuxt bool) map[string]string {
	prefix := ""
	if nuxt {
		prefix = NuxtPrefix
	}
	return map[string]string{
		prefix + "MEILI_HOST":    host,
		prefix + "MEILI_API_KEY": searchKey,
	}
}

// WriteEnvFile merges vars into the env file at path, creating it if needed. Existing
// variables not in vars are kept.
func WriteEnvFile(path string, vars map[string]string) error {
	env, err := godotenv.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		env = make(map[string]string, len(vars))
	} else if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	for k, v := range vars {
		env[k] = v
	}
	if err := godotenv.Write(env, path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
