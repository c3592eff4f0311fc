// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New() initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// SignalWeights maps reward signal types to their combination weights.
	// Weights must sum to at most 1; the remainder goes to the base reward.
	SignalWeights map[string]float64 `koanf:"signal_weights"`

	// MinSampleSize is the pull count an arm needs before retirement or
	// convergence judgments apply.
	MinSampleSize int64 `koanf:"min_sample_size"`

	// MinActiveArms is the floor below which retirement never drops the
	// active arm count.
	MinActiveArms int `koanf:"min_active_arms"`

	// RecentWindowSize bounds the rolling window of recent pulls used for
	// the exploration rate.
	RecentWindowSize int `koanf:"recent_window_size"`

	// TrendMinPulls, TrendImproving and TrendDeclining control trend
	// classification thresholds.
	TrendMinPulls  int64   `koanf:"trend_min_pulls"`
	TrendImproving float64 `koanf:"trend_improving"`
	TrendDeclining float64 `koanf:"trend_declining"`

	// PersistQueueSize bounds the in-memory durable-write job queue.
	PersistQueueSize int `koanf:"persist_queue_size"`

	// PersistWriterCount sets the number of durable-write workers.
	PersistWriterCount int `koanf:"persist_writer_count"`

	// PersistMaxRetries and PersistRetryBackoffMS control the write retry
	// policy before a job is abandoned and health degrades.
	PersistMaxRetries     int `koanf:"persist_max_retries"`
	PersistRetryBackoffMS int `koanf:"persist_retry_backoff_ms"`

	// StoreDSN selects the SQLite database path; empty keeps state
	// in memory only.
	StoreDSN string `koanf:"store_dsn"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel: "info",
		SignalWeights: map[string]float64{
			"engagement":    0.2,
			"learning_gain": 0.5,
			"completion":    0.3,
		},
		MinSampleSize:         10,
		MinActiveArms:         2,
		RecentWindowSize:      50,
		TrendMinPulls:         20,
		TrendImproving:        0.6,
		TrendDeclining:        0.3,
		PersistQueueSize:      10_000,
		PersistWriterCount:    2,
		PersistMaxRetries:     5,
		PersistRetryBackoffMS: 100,
		StoreDSN:              "",
	}
}
