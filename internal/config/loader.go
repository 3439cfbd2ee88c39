package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config captures environment driven configuration values for the reservation service.
type Config struct {
	HTTPPort         int           `env:"RESERVATIONS_HTTP_PORT" envDefault:"8080"`
	SQLiteDSN        string        `env:"RESERVATIONS_SQLITE_DSN" envDefault:"file:reservations.db?_foreign_keys=on"`
	CheckInGrace     time.Duration `env:"RESERVATIONS_CHECKIN_GRACE" envDefault:"15m"`
	NoShowSuspension time.Duration `env:"RESERVATIONS_NOSHOW_SUSPENSION" envDefault:"168h"`
	SweepInterval    time.Duration `env:"RESERVATIONS_SWEEP_INTERVAL" envDefault:"5m"`
}

// Load parses configuration values from the current process environment.
//
// Every field has a default, so an empty environment yields a working
// configuration; values that parse but make no sense are rejected.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	invalid := make([]string, 0, 2)
	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		invalid = append(invalid, "RESERVATIONS_HTTP_PORT")
	}
	if strings.TrimSpace(cfg.SQLiteDSN) == "" {
		invalid = append(invalid, "RESERVATIONS_SQLITE_DSN")
	}
	if cfg.CheckInGrace < 0 {
		invalid = append(invalid, "RESERVATIONS_CHECKIN_GRACE")
	}
	if cfg.NoShowSuspension <= 0 {
		invalid = append(invalid, "RESERVATIONS_NOSHOW_SUSPENSION")
	}
	if cfg.SweepInterval <= 0 {
		invalid = append(invalid, "RESERVATIONS_SWEEP_INTERVAL")
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
