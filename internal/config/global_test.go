package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestGlobalConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	path := GlobalConfigPath()
	want := "/custom/config/gaas/config.yml"
	if path != want {
		t.Errorf("GlobalConfigPath() = %q, want %q", path, want)
	}

	t.Setenv("XDG_CONFIG_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	path = GlobalConfigPath()
	want = filepath.Join(home, ".config", "gaas", "config.yml")
	if path != want {
		t.Errorf("GlobalConfigPath() = %q, want %q", path, want)
	}
}

func TestLoadGlobalConfig_NotFound(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig() error = %v", err)
	}
	if cfg == nil {
		t.Fatal("LoadGlobalConfig() returned nil")
	}
	if cfg.ZoteroAPIKey != "" {
		t.Errorf("ZoteroAPIKey = %q, want empty", cfg.ZoteroAPIKey)
	}
}

func TestGlobalConfig_SaveAndLoad(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := &GlobalConfig{}
	if err := cfg.Set("zotero_api_key", "secret"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := cfg.Set("zotero-library-type", "group"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig() error = %v", err)
	}
	if loaded.ZoteroAPIKey != "secret" {
		t.Errorf("ZoteroAPIKey = %q, want %q", loaded.ZoteroAPIKey, "secret")
	}
	if loaded.ZoteroLibraryType != "group" {
		t.Errorf("ZoteroLibraryType = %q, want %q", loaded.ZoteroLibraryType, "group")
	}

	info, err := os.Stat(GlobalConfigPath())
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("config file mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestLoadGlobalConfig_Invalid(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	path := filepath.Join(dir, GlobalConfigDir, GlobalConfigFile)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("zotero_api_key: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadGlobalConfig(); err == nil {
		t.Error("LoadGlobalConfig() expected error for malformed YAML")
	}
}

func TestGlobalConfig_GetSetErrors(t *testing.T) {
	cfg := &GlobalConfig{}

	if _, err := cfg.Get("nexus-path"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("Get(unknown) error = %v, want ErrUnknownKey", err)
	}
	if err := cfg.Set("nexus-path", "x"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("Set(unknown) error = %v, want ErrUnknownKey", err)
	}
	if err := cfg.Set("zotero-library-type", "team"); !errors.Is(err, ErrInvalidLibraryType) {
		t.Errorf("Set(library type) error = %v, want ErrInvalidLibraryType", err)
	}
}

func TestKeys_AllGettable(t *testing.T) {
	cfg := &GlobalConfig{}
	for _, k := range Keys() {
		if _, err := cfg.Get(k); err != nil {
			t.Errorf("Get(%q) error = %v", k, err)
		}
	}
}
