package config_test

import (
	"testing"
	"time"

	"github.com/iho/goatm/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("METRICS_FILE", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.LogLevel != "info" || cfg.LogFormat != "console" {
		t.Fatalf("unexpected logging defaults: level=%s format=%s", cfg.LogLevel, cfg.LogFormat)
	}

	if cfg.LockTimeout != 2*time.Second {
		t.Fatalf("expected default lock timeout 2s, got %s", cfg.LockTimeout)
	}

	if cfg.HistoryDefaultCount != 5 {
		t.Fatalf("expected default history count 5, got %d", cfg.HistoryDefaultCount)
	}

	if cfg.MetricsFile != "" {
		t.Fatalf("expected metrics file default to be empty, got %q", cfg.MetricsFile)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOCK_TIMEOUT", "500ms")
	t.Setenv("LOCK_RETRIES", "0")
	t.Setenv("HISTORY_DEFAULT_COUNT", "10")
	t.Setenv("EVENT_INTERVAL", "250ms")
	t.Setenv("METRICS_FILE", "/tmp/atm.prom")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.LogLevel != "debug" || cfg.LogFormat != "json" {
		t.Fatalf("expected logging overrides, got level=%s format=%s", cfg.LogLevel, cfg.LogFormat)
	}

	if cfg.LockTimeout != 500*time.Millisecond || cfg.LockRetries != 0 {
		t.Fatalf("expected lock overrides, got timeout=%s retries=%d", cfg.LockTimeout, cfg.LockRetries)
	}

	if cfg.HistoryDefaultCount != 10 {
		t.Fatalf("expected history count override, got %d", cfg.HistoryDefaultCount)
	}

	if cfg.EventInterval != 250*time.Millisecond {
		t.Fatalf("expected event interval override, got %s", cfg.EventInterval)
	}

	if cfg.MetricsFile != "/tmp/atm.prom" {
		t.Fatalf("expected metrics file override, got %s", cfg.MetricsFile)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unparsable duration", "LOCK_TIMEOUT", "not-a-duration"},
		{"zero lock timeout", "LOCK_TIMEOUT", "0s"},
		{"negative retries", "LOCK_RETRIES", "-1"},
		{"zero history count", "HISTORY_DEFAULT_COUNT", "0"},
		{"zero batch size", "EVENT_BATCH_SIZE", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			if _, err := config.Load(); err == nil {
				t.Fatalf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}
