package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "HEARTROBOT_"
	envFileVar = "HEARTROBOT_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New)
//  2. file (YAML) if HEARTROBOT_CONFIG is set
//  3. env (prefix HEARTROBOT_, "__" separates nested keys)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(envFileVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// HEARTROBOT_PUZZLE__TIMEOUT_MS -> puzzle.timeout_ms
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		s = strings.ToLower(s)
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.Puzzle.TimeoutMS <= 0:
		return fmt.Errorf("%w: puzzle.timeout_ms must be positive", ErrInvalidConfig)
	case c.Session.TickMS <= 0:
		return fmt.Errorf("%w: session.tick_ms must be positive", ErrInvalidConfig)
	case c.Session.SettleDelayMS < 0:
		return fmt.Errorf("%w: session.settle_delay_ms must not be negative", ErrInvalidConfig)
	case strings.TrimSpace(c.Auth.JWTSecret) == "":
		return fmt.Errorf("%w: auth.jwt_secret must not be empty", ErrInvalidConfig)
	case c.Puzzle.FallbackEnabled && len(c.Puzzle.FallbackBank) == 0:
		return fmt.Errorf("%w: puzzle.fallback_bank is empty but fallback is enabled", ErrInvalidConfig)
	}
	switch c.Store.Backend {
	case "memory":
	case "sqlite", "postgres":
		if strings.TrimSpace(c.Store.DSN) == "" {
			return fmt.Errorf("%w: store.dsn is required for %s", ErrInvalidConfig, c.Store.Backend)
		}
	default:
		return fmt.Errorf("%w: unknown store.backend %q", ErrInvalidConfig, c.Store.Backend)
	}
	if _, err := time.LoadLocation(c.Scoreboard.Timezone); err != nil {
		return fmt.Errorf("%w: scoreboard.timezone: %w", ErrInvalidConfig, err)
	}
	return nil
}

// PuzzleTimeout returns the provider timeout.
func (c *Config) PuzzleTimeout() time.Duration {
	return time.Duration(c.Puzzle.TimeoutMS) * time.Millisecond
}

// SettleDelay returns the pause between a correct answer and the next puzzle.
func (c *Config) SettleDelay() time.Duration {
	return time.Duration(c.Session.SettleDelayMS) * time.Millisecond
}

// TickInterval returns the countdown resolution.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Session.TickMS) * time.Millisecond
}

// TokenTTL returns the bearer token lifetime.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLMinutes) * time.Minute
}

// Location returns the scoreboard display timezone, UTC when unset.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Scoreboard.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
