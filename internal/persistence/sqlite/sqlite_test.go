package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/campus-reservations/internal/persistence"
)

// newTestPool opens a migrated database in a temp directory.
func newTestPool(t *testing.T) *ConnectionPool {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	pool, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	if err := pool.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	return pool
}

func strPtr(s string) *string { return &s }

func intRef(i int) *int { return &i }

func timeRef(t time.Time) *time.Time { return &t }

func testResource(id, code string) persistence.Resource {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return persistence.Resource{
		ID:                    id,
		Name:                  "Resource " + code,
		Code:                  code,
		Type:                  persistence.ResourceStudyRoom,
		Status:                persistence.ResourceAvailable,
		IsActive:              true,
		MinReservationMinutes: 30,
		MaxReservationMinutes: 240,
		AdvanceBookingDays:    14,
		WeekStartsOn:          time.Monday,
		CreatedAt:             created,
		UpdatedAt:             created,
	}
}

func seedResource(t *testing.T, pool *ConnectionPool, id, code string) {
	t.Helper()
	repo := NewResourceRepository(pool)
	if err := repo.CreateResource(context.Background(), testResource(id, code)); err != nil {
		t.Fatalf("seed resource %s: %v", id, err)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	pool := newTestPool(t)

	// A second run must be a no-op, not a re-apply.
	if err := pool.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}
}

func TestConnectionPool_Ping(t *testing.T) {
	pool := newTestPool(t)

	if err := pool.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}
