package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds driver configuration.
type Config struct {
	Durations DurationConfig
	Metrics   MetricsConfig
	Log       LogConfig
}

// DurationConfig holds the simulated-work timings.
type DurationConfig struct {
	Slow     time.Duration
	Fast     time.Duration
	Watchdog time.Duration
	Tic      time.Duration
}

// MetricsConfig holds the optional Prometheus listener settings.
type MetricsConfig struct {
	Addr string
}

// LogConfig holds presentation settings.
type LogConfig struct {
	Level  string
	Format string
}

// loadConfig reads configuration from an optional config file and the
// environment. Env var overrides use prefix GOSUPERVISE_.
func loadConfig() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("durations.slow", "5s")
	v.SetDefault("durations.fast", "2s")
	v.SetDefault("durations.watchdog", "1s")
	v.SetDefault("durations.tic", "100ms")
	v.SetDefault("metrics.addr", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetConfigName("scenarios")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/go-supervise")

	v.SetEnvPrefix("GOSUPERVISE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	var err error
	if cfg.Durations.Slow, err = time.ParseDuration(v.GetString("durations.slow")); err != nil {
		return Config{}, fmt.Errorf("durations.slow: %w", err)
	}
	if cfg.Durations.Fast, err = time.ParseDuration(v.GetString("durations.fast")); err != nil {
		return Config{}, fmt.Errorf("durations.fast: %w", err)
	}
	if cfg.Durations.Watchdog, err = time.ParseDuration(v.GetString("durations.watchdog")); err != nil {
		return Config{}, fmt.Errorf("durations.watchdog: %w", err)
	}
	if cfg.Durations.Tic, err = time.ParseDuration(v.GetString("durations.tic")); err != nil {
		return Config{}, fmt.Errorf("durations.tic: %w", err)
	}
	cfg.Metrics.Addr = v.GetString("metrics.addr")
	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.Format = v.GetString("log.format")

	if cfg.Durations.Fast >= cfg.Durations.Slow {
		return Config{}, fmt.Errorf("durations.fast (%v) must be shorter than durations.slow (%v)",
			cfg.Durations.Fast, cfg.Durations.Slow)
	}
	return cfg, nil
}
