// Package config loads application settings from an optional TOML
// file, with flag overrides applied by the caller.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

const (
	// DefaultBaseURL points at a backend running on the local machine.
	DefaultBaseURL = "http://127.0.0.1:3000"

	// DefaultProfileDB is the SQLite file remembering the signed-in user.
	DefaultProfileDB = "mediassist.db"
)

// Config holds application configuration
type Config struct {
	BaseURL       string `toml:"base_url"`       // Backend base URL
	ProfileDB     string `toml:"profile_db"`     // Path to the profile database
	SpeechCommand string `toml:"speech_command"` // External command producing a transcript on stdout
	Debug         bool   `toml:"debug"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		ProfileDB: DefaultProfileDB,
	}
}

// Load reads a TOML config file over the defaults. A missing file is
// not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}
