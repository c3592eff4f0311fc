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
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if BANDIT_CONFIG is set
//  3. env (prefix BANDIT_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("BANDIT_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: BANDIT_MIN_SAMPLE_SIZE, BANDIT_STORE_DSN, ...
	// Map env keys like BANDIT_MIN_SAMPLE_SIZE -> min_sample_size (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("BANDIT_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "bandit_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints the bandit math depends on.
func (c *Config) Validate() error {
	var sum float64
	for name, w := range c.SignalWeights {
		if w < 0 {
			return fmt.Errorf("%w: signal weight %q is negative", ErrInvalidConfig, name)
		}
		sum += w
	}
	if sum > 1 {
		return fmt.Errorf("%w: signal weights sum to %.3f, must be <= 1", ErrInvalidConfig, sum)
	}
	if c.MinActiveArms < 1 {
		return fmt.Errorf("%w: min_active_arms must be >= 1", ErrInvalidConfig)
	}
	if c.MinSampleSize < 1 {
		return fmt.Errorf("%w: min_sample_size must be >= 1", ErrInvalidConfig)
	}
	if c.RecentWindowSize < 1 {
		return fmt.Errorf("%w: recent_window_size must be >= 1", ErrInvalidConfig)
	}
	if c.TrendDeclining >= c.TrendImproving {
		return fmt.Errorf("%w: trend_declining must be below trend_improving", ErrInvalidConfig)
	}
	return nil
}
