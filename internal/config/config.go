// Package config defines the configuration of the auction service and its
// validation rules.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration. Fields come from an optional TOML file and
// are then overridden by AUCTION_* environment variables.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Store     StoreConfig     `toml:"store"`
	Auction   AuctionConfig   `toml:"auction"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Tracing   TracingConfig   `toml:"tracing"`
	Seed      SeedConfig      `toml:"seed"`
	LogLevel  string          `toml:"log_level"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port            string   `toml:"port"`
	ShutdownTimeout duration `toml:"shutdown_timeout"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver     string `toml:"driver"`
	SQLitePath string `toml:"sqlite_path"`
}

// AuctionConfig holds defaults applied to new auctions.
type AuctionConfig struct {
	DefaultDurationMinutes int      `toml:"default_duration_minutes"`
	ExtensionWindow        duration `toml:"extension_window"`
	ExtensionDuration      duration `toml:"extension_duration"`
	LeaderboardLimit       int      `toml:"leaderboard_limit"`
	MinEligibleQuotes      int      `toml:"min_eligible_quotes"`
}

// SchedulerConfig controls the expiry sweep.
type SchedulerConfig struct {
	TickInterval duration `toml:"tick_interval"`
}

// TracingConfig controls OpenTelemetry export.
type TracingConfig struct {
	Enabled     bool   `toml:"enabled"`
	Endpoint    string `toml:"endpoint"`
	ServiceName string `toml:"service_name"`
}

// SeedConfig preloads quotes so a fresh store can open auctions.
type SeedConfig struct {
	// Listings maps a listing id to the vendors that quoted on it.
	Listings map[string][]string `toml:"listings"`
}

// duration wraps time.Duration so TOML strings like "30s" decode.
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config usable without any file or environment.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            ":8080",
			ShutdownTimeout: duration{10 * time.Second},
		},
		Store: StoreConfig{
			Driver:     "memory",
			SQLitePath: "auctions.db",
		},
		Auction: AuctionConfig{
			DefaultDurationMinutes: 30,
			ExtensionWindow:        duration{60 * time.Second},
			ExtensionDuration:      duration{60 * time.Second},
			LeaderboardLimit:       10,
			MinEligibleQuotes:      2,
		},
		Scheduler: SchedulerConfig{
			TickInterval: duration{time.Second},
		},
		Tracing: TracingConfig{
			Endpoint:    "http://localhost:14268/api/traces",
			ServiceName: "reverse-auction",
		},
		LogLevel: "info",
	}
}

var validDrivers = map[string]bool{"memory": true, "sqlite": true}

var validLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "warning": true,
	"error": true, "fatal": true, "panic": true,
}

// Validate reports every problem in c at once.
func (c *Config) Validate() error {
	var errs []string

	if strings.TrimSpace(c.Server.Port) == "" {
		errs = append(errs, "server.port is required")
	}
	if c.Server.ShutdownTimeout.Duration <= 0 {
		errs = append(errs, "server.shutdown_timeout must be positive")
	}

	if !validDrivers[strings.ToLower(c.Store.Driver)] {
		errs = append(errs, fmt.Sprintf("unknown store.driver %q (valid: memory, sqlite)", c.Store.Driver))
	}
	if strings.EqualFold(c.Store.Driver, "sqlite") && c.Store.SQLitePath == "" {
		errs = append(errs, "store.sqlite_path is required for the sqlite driver")
	}

	if c.Auction.DefaultDurationMinutes <= 0 {
		errs = append(errs, "auction.default_duration_minutes must be positive")
	}
	if c.Auction.ExtensionWindow.Duration < 0 || c.Auction.ExtensionDuration.Duration < 0 {
		errs = append(errs, "auction extension settings must not be negative")
	}
	if c.Auction.LeaderboardLimit <= 0 {
		errs = append(errs, "auction.leaderboard_limit must be positive")
	}
	if c.Auction.MinEligibleQuotes < 0 {
		errs = append(errs, "auction.min_eligible_quotes must not be negative")
	}

	if c.Scheduler.TickInterval.Duration <= 0 {
		errs = append(errs, "scheduler.tick_interval must be positive")
	}

	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		errs = append(errs, "tracing.endpoint is required when tracing is enabled")
	}

	if !validLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q", c.LogLevel))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}
