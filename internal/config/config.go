// Package config loads rollcall settings from the environment.
//
// Command-line flags override these values; see internal/cli.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/roach88/rollcall/internal/attendance"
)

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
)

// MinSessionKeyLen is the shortest accepted cookie signing key.
const MinSessionKeyLen = 32

// DevSessionKey is the SessionKey default. It is public, so the server
// only accepts it when explicitly allowed.
const DevSessionKey = "rollcall-development-session-key-change-me"

// Config holds every tunable of the CLI and the HTTP server.
type Config struct {
	Backend       string        `env:"ROLLCALL_BACKEND"         envDefault:"sqlite"`
	DBPath        string        `env:"ROLLCALL_DB"              envDefault:"rollcall.db"`
	MongoURI      string        `env:"ROLLCALL_MONGO_URI"       envDefault:"mongodb://localhost:27017"`
	MongoDatabase string        `env:"ROLLCALL_MONGO_DATABASE"  envDefault:"rollcall"`
	RosterTable   string        `env:"ROLLCALL_ROSTER_TABLE"    envDefault:"roster"`
	LedgerTable   string        `env:"ROLLCALL_LEDGER_TABLE"    envDefault:"attendance"`
	AttendanceDay string        `env:"ROLLCALL_ATTENDANCE_DAY"  envDefault:"saturday"`
	MaxAttempts   int           `env:"ROLLCALL_MAX_ATTEMPTS"    envDefault:"3"`
	RetryDelay    time.Duration `env:"ROLLCALL_RETRY_DELAY"     envDefault:"200ms"`
	StoreTimeout  time.Duration `env:"ROLLCALL_STORE_TIMEOUT"   envDefault:"10s"`
	Addr          string        `env:"ROLLCALL_ADDR"            envDefault:":8080"`
	SessionKey    string        `env:"ROLLCALL_SESSION_KEY"     envDefault:"rollcall-development-session-key-change-me"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	cfg, err := Parse()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse reads the environment without validating, so callers can apply
// overrides first.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate rejects settings the engine or server cannot run with.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("config: database path is required for the sqlite backend")
		}
	case BackendMongo:
		if c.MongoURI == "" || c.MongoDatabase == "" {
			return fmt.Errorf("config: mongo URI and database are required for the mongo backend")
		}
	default:
		return fmt.Errorf("config: unknown backend %q (want %s or %s)", c.Backend, BackendSQLite, BackendMongo)
	}
	if c.RosterTable == "" || c.LedgerTable == "" {
		return fmt.Errorf("config: table names must not be empty")
	}
	if c.RosterTable == c.LedgerTable {
		return fmt.Errorf("config: roster and ledger tables must differ (both %q)", c.RosterTable)
	}
	if _, err := attendance.ParseWeekday(c.AttendanceDay); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("config: max attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("config: retry delay must not be negative")
	}
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("config: store timeout must be positive")
	}
	if len(c.SessionKey) < MinSessionKeyLen {
		return fmt.Errorf("config: session key must be at least %d bytes", MinSessionKeyLen)
	}
	return nil
}

// UsesDevSessionKey reports whether SessionKey is still the public default.
func (c Config) UsesDevSessionKey() bool {
	return c.SessionKey == DevSessionKey
}

// Weekday returns the parsed attendance day. Call Validate first.
func (c Config) Weekday() time.Weekday {
	d, err := attendance.ParseWeekday(c.AttendanceDay)
	if err != nil {
		return time.Saturday
	}
	return d
}
