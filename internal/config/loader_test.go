package config

import (
	"os"
	"testing"
	"time"
)

func TestLoader_ParseEnvironment(t *testing.T) {

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		for _, key := range []string{
			"RESERVATIONS_HTTP_PORT",
			"RESERVATIONS_SQLITE_DSN",
			"RESERVATIONS_CHECKIN_GRACE",
			"RESERVATIONS_NOSHOW_SUSPENSION",
			"RESERVATIONS_SWEEP_INTERVAL",
		} {
			if err := os.Unsetenv(key); err != nil {
				t.Fatalf("failed to unset %s: %v", key, err)
			}
		}

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:reservations.db?_foreign_keys=on" {
			t.Fatalf("unexpected default DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.CheckInGrace != 15*time.Minute {
			t.Fatalf("expected default check-in grace 15m, got %s", cfg.CheckInGrace)
		}
		if cfg.NoShowSuspension != 7*24*time.Hour {
			t.Fatalf("expected default no-show suspension 168h, got %s", cfg.NoShowSuspension)
		}
		if cfg.SweepInterval != 5*time.Minute {
			t.Fatalf("expected default sweep interval 5m, got %s", cfg.SweepInterval)
		}
	})

	t.Run("parses duration and numeric fields", func(t *testing.T) {
		t.Setenv("RESERVATIONS_HTTP_PORT", "9090")
		t.Setenv("RESERVATIONS_SQLITE_DSN", "file:/tmp/reservations.db")
		t.Setenv("RESERVATIONS_CHECKIN_GRACE", "30m")
		t.Setenv("RESERVATIONS_NOSHOW_SUSPENSION", "72h")
		t.Setenv("RESERVATIONS_SWEEP_INTERVAL", "1m")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 9090 {
			t.Fatalf("expected HTTP port 9090, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:/tmp/reservations.db" {
			t.Fatalf("unexpected DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.CheckInGrace != 30*time.Minute {
			t.Fatalf("expected check-in grace 30m, got %s", cfg.CheckInGrace)
		}
		if cfg.NoShowSuspension != 72*time.Hour {
			t.Fatalf("expected no-show suspension 72h, got %s", cfg.NoShowSuspension)
		}
		if cfg.SweepInterval != time.Minute {
			t.Fatalf("expected sweep interval 1m, got %s", cfg.SweepInterval)
		}
	})

	t.Run("rejects out-of-range values", func(t *testing.T) {
		t.Setenv("RESERVATIONS_HTTP_PORT", "70000")

		_, err := Load()
		if err == nil {
			t.Fatal("expected error for out-of-range port")
		}
		expected := "invalid environment values: RESERVATIONS_HTTP_PORT"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("rejects a non-positive sweep interval", func(t *testing.T) {
		t.Setenv("RESERVATIONS_SWEEP_INTERVAL", "0s")

		_, err := Load()
		if err == nil {
			t.Fatal("expected error for zero sweep interval")
		}
	})
}
