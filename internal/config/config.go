// Package config loads acctree settings from an optional YAML file and the
// environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/acctree/internal/clock"
	"github.com/roach88/acctree/internal/ledger"
	"github.com/roach88/acctree/internal/store"
)

// EnvDataPath overrides storage.path when set.
const EnvDataPath = "ACCTREE_DATA"

// DefaultDataPath is used when neither the file nor the environment names one.
const DefaultDataPath = "accounts.txt"

// Config is the full settings tree.
type Config struct {
	Storage  Storage  `yaml:"storage"`
	Interest Interest `yaml:"interest"`
	Clock    Clock    `yaml:"clock"`
	Log      Log      `yaml:"log"`
}

// Storage selects the persistence backend.
type Storage struct {
	Backend        string `yaml:"backend"`
	Path           string `yaml:"path"`
	RestoreHistory bool   `yaml:"restore_history"`
}

// Interest controls ApplyInterest bookkeeping.
type Interest struct {
	LogBasis ledger.InterestBasis `yaml:"log_basis"`
}

// Clock controls history timestamps.
type Clock struct {
	Layout string `yaml:"layout"`
	UTC    bool   `yaml:"utc"`
}

// Log controls the slog handler.
type Log struct {
	Level string `yaml:"level"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Storage:  Storage{Backend: store.BackendText, Path: DefaultDataPath},
		Interest: Interest{LogBasis: ledger.BasisPost},
		Clock:    Clock{Layout: clock.DefaultLayout},
		Log:      Log{Level: "info"},
	}
}

// Load reads path over the defaults, applies the environment, and
// validates the result. An empty path or a missing file yields defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// defaults
		case err != nil:
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		default:
			// Reject unknown fields so typos surface instead of silently
			// falling back to defaults.
			dec := yaml.NewDecoder(bytes.NewReader(data))
			dec.KnownFields(true)
			if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
				return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	if p := os.Getenv(EnvDataPath); p != "" {
		cfg.Storage.Path = p
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks enum fields and required values.
func (c Config) Validate() error {
	switch c.Storage.Backend {
	case store.BackendText, store.BackendSQLite:
	default:
		return fmt.Errorf("storage.backend %q: must be %q or %q", c.Storage.Backend, store.BackendText, store.BackendSQLite)
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}
	switch c.Interest.LogBasis {
	case ledger.BasisPost, ledger.BasisPre:
	default:
		return fmt.Errorf("interest.log_basis %q: must be %q or %q", c.Interest.LogBasis, ledger.BasisPost, ledger.BasisPre)
	}
	if c.Clock.Layout == "" {
		return fmt.Errorf("clock.layout is required")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel parses Log.Level.
func (c Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level %q: %w", c.Log.Level, err)
	}
	return lvl, nil
}
