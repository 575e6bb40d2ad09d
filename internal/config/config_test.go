package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.BaseURL != DefaultBaseURL || cfg.ProfileDB != DefaultProfileDB {
		t.Fatalf("unexpected defaults: %#v", cfg)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := "base_url = \"http://10.0.0.5:8080\"\nspeech_command = \"hear -t\"\ndebug = true\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.BaseURL != "http://10.0.0.5:8080" || cfg.SpeechCommand != "hear -t" || !cfg.Debug {
		t.Fatalf("unexpected config: %#v", cfg)
	}
	if cfg.ProfileDB != DefaultProfileDB {
		t.Fatalf("expected unset field to keep default, got %q", cfg.ProfileDB)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("base_url = [broken"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed config")
	}
}
