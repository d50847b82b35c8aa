// Package config handles credentials, the global config file and setting resolution.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in ~/.config/gaas/config.yml.
type GlobalConfig struct {
	ZoteroAPIKey       string `yaml:"zotero_api_key,omitempty"`
	ZoteroLibraryID    string `yaml:"zotero_library_id,omitempty"`
	ZoteroCollectionID string `yaml:"zotero_collection_id,omitempty"`
	ZoteroLibraryType  string `yaml:"zotero_library_type,omitempty"`
	CrossrefMailto     string `yaml:"crossref_mailto,omitempty"`
	MeiliHost          string `yaml:"meili_host,omitempty"`
	MeiliMasterKey     string `yaml:"meili_master_key,omitempty"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "gaas"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
)

// ErrUnknownKey is returned by Get and Set for keys that are not part of GlobalConfig.
var ErrUnknownKey = errors.New("unknown configuration key")

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/gaas/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file.
// Returns an empty config (not an error) if the file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	path := GlobalConfigPath()
	if path == "" {
		return &GlobalConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &GlobalConfig{}, nil
		}
		return nil, fmt.Errorf("reading global config: %w", err)
	}

	var cfg GlobalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing global config: %w", err)
	}
	return &cfg, nil
}

// Save writes the config to the global config path, creating the directory if needed.
func (c *GlobalConfig) Save() error {
	path := GlobalConfigPath()
	if path == "" {
		return errors.New("cannot determine global config path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling global config: %w", err)
	}
	// Credentials live here, keep it private to the user.
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing global config: %w", err)
	}
	return nil
}

// Keys lists the settable keys in display order.
func Keys() []string {
	return []string{
		"zotero-api-key",
		"zotero-library-id",
		"zotero-collection-id",
		"zotero-library-type",
		"crossref-mailto",
		"meili-host",
		"meili-master-key",
	}
}

// NormalizeKey converts key formats (zotero-api-key, zotero_api_key, ZOTERO_API_KEY) to the
// dashed form used by Get and Set.
func NormalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	return strings.ReplaceAll(key, "_", "-")
}

func (c *GlobalConfig) field(key string) (*string, error) {
	switch NormalizeKey(key) {
	case "zotero-api-key":
		return &c.ZoteroAPIKey, nil
	case "zotero-library-id":
		return &c.ZoteroLibraryID, nil
	case "zotero-collection-id":
		return &c.ZoteroCollectionID, nil
	case "zotero-library-type":
		return &c.ZoteroLibraryType, nil
	case "crossref-mailto":
		return &c.CrossrefMailto, nil
	case "meili-host":
		return &c.MeiliHost, nil
	case "meili-master-key":
		return &c.MeiliMasterKey, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
}

// Get returns the value stored under key.
func (c *GlobalConfig) Get(key string) (string, error) {
	f, err := c.field(key)
	if err != nil {
		return "", err
	}
	return *f, nil
}

// Set stores value under key. The library type is validated.
func (c *GlobalConfig) Set(key, value string) error {
	f, err := c.field(key)
	if err != nil {
		return err
	}
	if NormalizeKey(key) == "zotero-library-type" {
		if err := ValidateLibraryType(value); err != nil {
			return err
		}
	}
	*f = value
	return nil
}
