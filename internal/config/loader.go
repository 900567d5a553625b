package config

import (
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load merges the TOML file at path (skipped when path is empty) over the
// defaults, then applies AUCTION_* environment overrides. A .env file in the
// working directory is loaded first if present. The result is not validated.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	// server
	setStr(&cfg.Server.Port, "AUCTION_SERVER_PORT")
	setDuration(&cfg.Server.ShutdownTimeout, "AUCTION_SERVER_SHUTDOWN_TIMEOUT")

	// store
	setStr(&cfg.Store.Driver, "AUCTION_STORE_DRIVER")
	setStr(&cfg.Store.SQLitePath, "AUCTION_STORE_SQLITE_PATH")

	// auction defaults
	setInt(&cfg.Auction.DefaultDurationMinutes, "AUCTION_DEFAULT_DURATION_MINUTES")
	setDuration(&cfg.Auction.ExtensionWindow, "AUCTION_EXTENSION_WINDOW")
	setDuration(&cfg.Auction.ExtensionDuration, "AUCTION_EXTENSION_DURATION")
	setInt(&cfg.Auction.LeaderboardLimit, "AUCTION_LEADERBOARD_LIMIT")
	setInt(&cfg.Auction.MinEligibleQuotes, "AUCTION_MIN_ELIGIBLE_QUOTES")

	// scheduler
	setDuration(&cfg.Scheduler.TickInterval, "AUCTION_SCHEDULER_TICK_INTERVAL")

	// tracing
	setBool(&cfg.Tracing.Enabled, "AUCTION_TRACING_ENABLED")
	setStr(&cfg.Tracing.Endpoint, "AUCTION_TRACING_ENDPOINT")
	setStr(&cfg.Tracing.ServiceName, "AUCTION_TRACING_SERVICE_NAME")

	setStr(&cfg.LogLevel, "AUCTION_LOG_LEVEL")
}

// Each helper only touches dst when the variable is set and parses.

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}
