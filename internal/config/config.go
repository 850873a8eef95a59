// Package config resolves runner settings from defaults, a .env file and
// VERDICT_* environment variables. Command-line flags override the result.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables read by Load.
const (
	EnvFormat   = "VERDICT_FORMAT"
	EnvDB       = "VERDICT_DB"
	EnvParallel = "VERDICT_PARALLEL"
	EnvNoColor  = "VERDICT_NO_COLOR"
)

// Defaults.
const (
	DefaultFormat   = "text"
	DefaultParallel = 1
	DefaultEnvFile  = ".env"
)

// Config holds runner settings.
type Config struct {
	// Format is the output format: text or json.
	Format string

	// DB is the run log path. Empty disables recording.
	DB string

	// Parallel bounds how many cases run at once.
	Parallel int

	// NoColor disables colored status lines.
	NoColor bool
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		Format:   DefaultFormat,
		Parallel: DefaultParallel,
	}
}

// Load loads envFile (a missing file is fine) into the process environment
// without overriding variables already set, then applies VERDICT_*
// variables over the defaults. Variables named in skip are ignored, so a
// setting given as a flag is not rejected for a bad environment value.
func Load(envFile string, skip ...string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	return FromEnv(without(os.LookupEnv, skip))
}

func without(lookup func(string) (string, bool), skip []string) func(string) (string, bool) {
	if len(skip) == 0 {
		return lookup
	}
	return func(key string) (string, bool) {
		if slices.Contains(skip, key) {
			return "", false
		}
		return lookup(key)
	}
}

// FromEnv applies variables from lookup over the defaults.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	cfg := New()

	if v, ok := lookup(EnvFormat); ok && v != "" {
		cfg.Format = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := lookup(EnvDB); ok {
		cfg.DB = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvParallel); ok && v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvParallel, err)
		}
		cfg.Parallel = n
	}
	if v, ok := lookup(EnvNoColor); ok && v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvNoColor, err)
		}
		cfg.NoColor = b
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that settings are usable.
func (c *Config) Validate() error {
	if c.Format != "text" && c.Format != "json" {
		return fmt.Errorf("invalid format %q: must be text or json", c.Format)
	}
	if c.Parallel < 1 {
		return fmt.Errorf("invalid parallel %d: must be at least 1", c.Parallel)
	}
	return nil
}
