package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/campus-reservations/internal/persistence"
	"github.com/example/campus-reservations/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary SQLite
// database for integration-style persistence tests.
type SQLiteHarness struct {
	Resources    persistence.ResourceRepository
	Rules        persistence.RuleRepository
	Reservations persistence.ReservationRepository
	Sanctions    persistence.SanctionRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a harness over a temporary migrated database.
// Callers may invoke Close, and a cleanup callback is also registered with
// the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "reservations.db")

	pool, err := sqlite.Open(path)
	if err != nil {
		tb.Fatalf("failed to open database: %v", err)
	}
	if err := pool.Migrate(context.Background()); err != nil {
		_ = pool.Close()
		tb.Fatalf("failed to migrate database: %v", err)
	}

	harness := &SQLiteHarness{
		Resources:    sqlite.NewResourceRepository(pool),
		Rules:        sqlite.NewRuleRepository(pool),
		Reservations: sqlite.NewReservationRepository(pool),
		Sanctions:    sqlite.NewSanctionRepository(pool),
		cleanup: func() {
			_ = pool.Close()
		},
	}
	tb.Cleanup(harness.Close)
	return harness
}
