package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables read by the CLI.
const (
	EnvZoteroAPIKey       = "GAAS_ZOTERO_API_KEY"
	EnvZoteroLibraryID    = "GAAS_ZOTERO_LIBRARY_ID"
	EnvZoteroCollectionID = "GAAS_ZOTERO_COLLECTION_ID"
	EnvZoteroLibraryType  = "GAAS_ZOTERO_LIBRARY_TYPE"
	EnvCrossrefMailto     = "GAAS_CROSSREF_MAILTO"
	EnvMeiliHost          = "MEILI_HOST"
	EnvMeiliMasterKey     = "MEILI_MASTER_KEY"
)

// Defaults applied when neither a flag, the environment nor the global config provides a value.
const (
	DefaultLibraryType    = "user"
	DefaultBatchSize      = 100
	DefaultMeiliHost      = "http://localhost:7700"
	DefaultMeiliMasterKey = "MASTER_KEY"
)

// ErrMissingCredential is returned when a required setting resolved to an empty value.
var ErrMissingCredential = errors.New("missing required setting")

// ErrInvalidLibraryType is returned for library types other than "user" and "group".
var ErrInvalidLibraryType = errors.New("invalid library type")

// ZoteroSettings identifies a collection inside a Zotero library.
type ZoteroSettings struct {
	APIKey       string
	LibraryID    string
	CollectionID string
	LibraryType  string
	BatchSize    int
}

// MeiliSettings identifies a MeiliSearch instance.
type MeiliSettings struct {
	Host      string
	MasterKey string
}

// LoadDotEnv loads a .env file from the working directory if present.
// Variables already set in the environment win.
func LoadDotEnv() {
	_ = godotenv.Load()
}

// Resolve returns the first non-empty value of: flag, the environment variable env,
// the global config value, fallback.
func Resolve(flag, env, global, fallback string) string {
	if v := strings.TrimSpace(flag); v != "" {
		return v
	}
	if env != "" {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return v
		}
	}
	if v := strings.TrimSpace(global); v != "" {
		return v
	}
	return fallback
}

// ZoteroOverrides are the values given on the command line.
type ZoteroOverrides struct {
	APIKey       string
	LibraryID    string
	CollectionID string
	LibraryType  string
	BatchSize    int
}

// ResolveZotero combines overrides, environment and the global config into ZoteroSettings.
func ResolveZotero(o ZoteroOverrides, g *GlobalConfig) ZoteroSettings {
	if g == nil {
		g = &GlobalConfig{}
	}
	s := ZoteroSettings{
		APIKey:       Resolve(o.APIKey, EnvZoteroAPIKey, g.ZoteroAPIKey, ""),
		LibraryID:    Resolve(o.LibraryID, EnvZoteroLibraryID, g.ZoteroLibraryID, ""),
		CollectionID: Resolve(o.CollectionID, EnvZoteroCollectionID, g.ZoteroCollectionID, ""),
		LibraryType:  Resolve(o.LibraryType, EnvZoteroLibraryType, g.ZoteroLibraryType, DefaultLibraryType),
		BatchSize:    o.BatchSize,
	}
	if s.BatchSize <= 0 {
		s.BatchSize = DefaultBatchSize
	}
	return s
}

// Validate checks that credentials and identifiers are present.
func (s ZoteroSettings) Validate() error {
	var missing []string
	if s.APIKey == "" {
		missing = append(missing, EnvZoteroAPIKey)
	}
	if s.LibraryID == "" {
		missing = append(missing, EnvZoteroLibraryID)
	}
	if s.CollectionID == "" {
		missing = append(missing, EnvZoteroCollectionID)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredential, strings.Join(missing, ", "))
	}
	return ValidateLibraryType(s.LibraryType)
}

// ValidateLibraryType accepts "user" (a personal library) and "group".
func ValidateLibraryType(t string) error {
	switch t {
	case "user", "group":
		return nil
	}
	return fmt.Errorf("%w: %q (must be user or group)", ErrInvalidLibraryType, t)
}

// ResolveMeili combines flags, environment and the global config into MeiliSettings.
func ResolveMeili(host, key string, g *GlobalConfig) MeiliSettings {
	if g == nil {
		g = &GlobalConfig{}
	}
	return MeiliSettings{
		Host:      Resolve(host, EnvMeiliHost, g.MeiliHost, DefaultMeiliHost),
		MasterKey: Resolve(key, EnvMeiliMasterKey, g.MeiliMasterKey, DefaultMeiliMasterKey),
	}
}

// Mask hides all but the last four characters of a secret for display.
func Mask(secret string) string {
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", len(secret)-4) + secret[len(secret)-4:]
}
