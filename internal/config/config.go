// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New returns a Config populated with defaults.
// - Load layers an optional YAML file and environment variables on top.
// - Errors returned by Load wrap ErrLoadConfig or ErrInvalidConfig.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// CORSOrigins lists browser origins allowed to call the API.
	CORSOrigins []string `koanf:"cors_origins"`

	Puzzle     PuzzleConfig     `koanf:"puzzle"`
	Session    SessionConfig    `koanf:"session"`
	Store      StoreConfig      `koanf:"store"`
	Scoreboard ScoreboardConfig `koanf:"scoreboard"`
	Auth       AuthConfig       `koanf:"auth"`
	Submission SubmissionConfig `koanf:"submission"`
}

// PuzzleConfig configures the puzzle provider and secret store.
type PuzzleConfig struct {
	URL             string       `koanf:"url"`
	TimeoutMS       int          `koanf:"timeout_ms"`
	SecretCapacity  int          `koanf:"secret_capacity"`
	FallbackEnabled bool         `koanf:"fallback_enabled"`
	FallbackBank    []BankPuzzle `koanf:"fallback_bank"`
}

// BankPuzzle is one offline puzzle with its known solution.
type BankPuzzle struct {
	Image   string `koanf:"image"`
	Hearts  int    `koanf:"hearts"`
	Carrots int    `koanf:"carrots"`
}

// SessionConfig configures mission pacing.
type SessionConfig struct {
	// SettleDelayMS is the pause after a correct answer before the next puzzle.
	SettleDelayMS int `koanf:"settle_delay_ms"`
	// TickMS is the countdown resolution; one tick removes one second.
	TickMS int `koanf:"tick_ms"`
}

// StoreConfig selects the persistent score store.
type StoreConfig struct {
	// Backend is one of memory, sqlite, postgres.
	Backend string `koanf:"backend"`
	DSN     string `koanf:"dsn"`
}

// ScoreboardConfig bounds scoreboard queries.
type ScoreboardConfig struct {
	TopLimit       int    `koanf:"top_limit"`
	UserFetchLimit int    `koanf:"user_fetch_limit"`
	UserLimit      int    `koanf:"user_limit"`
	RecentCapacity int    `koanf:"recent_capacity"`
	Timezone       string `koanf:"timezone"`
}

// AuthConfig configures the identity provider.
type AuthConfig struct {
	JWTSecret       string `koanf:"jwt_secret"`
	TokenTTLMinutes int    `koanf:"token_ttl_minutes"`
	BcryptCost      int    `koanf:"bcrypt_cost"`
}

// SubmissionConfig sizes the best-effort score submission pipeline.
type SubmissionConfig struct {
	QueueSize   int `koanf:"queue_size"`
	WorkerCount int `koanf:"worker_count"`
	DedupeSize  int `koanf:"dedupe_size"`
}

// New creates a Config holding the default values.
func New() *Config {
	return &Config{
		LogLevel:    "info",
		LogFormat:   "text",
		Addr:        ":9080",
		CORSOrigins: []string{"*"},
		Puzzle: PuzzleConfig{
			URL:            "https://marcconrad.com/uob/heart/api.php",
			TimeoutMS:      5000,
			SecretCapacity: 10_000,
		},
		Session: SessionConfig{
			SettleDelayMS: 1100,
			TickMS:        1000,
		},
		Store: StoreConfig{
			Backend: "memory",
		},
		Scoreboard: ScoreboardConfig{
			TopLimit:       25,
			UserFetchLimit: 50,
			UserLimit:      25,
			RecentCapacity: 50,
			Timezone:       "UTC",
		},
		Auth: AuthConfig{
			JWTSecret:       "change-me",
			TokenTTLMinutes: 720,
			BcryptCost:      10,
		},
		Submission: SubmissionConfig{
			QueueSize:   1024,
			WorkerCount: 2,
			DedupeSize:  10_000,
		},
	}
}
