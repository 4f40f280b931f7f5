package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if MEEPLERANK_CONFIG is set
//  3. env (prefix MEEPLERANK_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("MEEPLERANK_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: MEEPLERANK_ADDR, MEEPLERANK_STORE, ...
	// Keys keep their underscores to match the koanf tags on the struct.
	envProvider := env.Provider("MEEPLERANK_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "meeplerank_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.Store != StoreMemory && c.Store != StoreSQLite {
		return fmt.Errorf("%w: unknown store %q", ErrInvalidConfig, c.Store)
	}
	if c.Store == StoreSQLite && c.SQLitePath == "" {
		return fmt.Errorf("%w: sqlite_path must not be empty", ErrInvalidConfig)
	}
	if len(c.Dimensions) == 0 {
		return fmt.Errorf("%w: at least one dimension is required", ErrInvalidConfig)
	}
	seen := make(map[string]struct{}, len(c.Dimensions))
	for _, d := range c.Dimensions {
		if d.ID == "" {
			return fmt.Errorf("%w: dimension id must not be empty", ErrInvalidConfig)
		}
		if _, dup := seen[d.ID]; dup {
			return fmt.Errorf("%w: duplicate dimension %q", ErrInvalidConfig, d.ID)
		}
		seen[d.ID] = struct{}{}
		if d.Weight <= 0 {
			return fmt.Errorf("%w: dimension %q weight must be positive", ErrInvalidConfig, d.ID)
		}
	}
	return nil
}
