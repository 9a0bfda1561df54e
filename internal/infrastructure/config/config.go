package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
type Config struct {
	// Logging
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`

	// Locking
	LockTimeout       time.Duration `env:"LOCK_TIMEOUT"        envDefault:"2s"`
	LockRetries       int           `env:"LOCK_RETRIES"        envDefault:"3"`
	LockRetryInterval time.Duration `env:"LOCK_RETRY_INTERVAL" envDefault:"10ms"`

	// Mini-statement
	HistoryDefaultCount int `env:"HISTORY_DEFAULT_COUNT" envDefault:"5"`

	// Event publishing
	EventBatchSize int           `env:"EVENT_BATCH_SIZE" envDefault:"100"`
	EventInterval  time.Duration `env:"EVENT_INTERVAL"   envDefault:"1s"`

	// Metrics textfile written on exit (empty disables it)
	MetricsFile string `env:"METRICS_FILE" envDefault:""`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	err := env.Parse(cfg)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects values the rest of the program cannot work with.
func (c *Config) Validate() error {
	if c.LockTimeout <= 0 {
		return fmt.Errorf("LOCK_TIMEOUT must be positive, got %s", c.LockTimeout)
	}
	if c.LockRetries < 0 {
		return fmt.Errorf("LOCK_RETRIES must not be negative, got %d", c.LockRetries)
	}
	if c.HistoryDefaultCount < 1 {
		return fmt.Errorf("HISTORY_DEFAULT_COUNT must be at least 1, got %d", c.HistoryDefaultCount)
	}
	if c.EventBatchSize < 1 {
		return fmt.Errorf("EVENT_BATCH_SIZE must be at least 1, got %d", c.EventBatchSize)
	}
	if c.EventInterval <= 0 {
		return fmt.Errorf("EVENT_INTERVAL must be positive, got %s", c.EventInterval)
	}
	return nil
}
