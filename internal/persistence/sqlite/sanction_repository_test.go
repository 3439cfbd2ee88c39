package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/campus-reservations/internal/persistence"
)

func testSanction(id, userID string, created time.Time) persistence.UserSanction {
	return persistence.UserSanction{
		ID:        id,
		UserID:    userID,
		Type:      persistence.SanctionTemporarySuspension,
		Reason:    persistence.ReasonNoShow,
		StartDate: created,
		AppliedBy: "admin1",
		CreatedAt: created,
	}
}

func TestSanctionRepository_CreateAndGet(t *testing.T) {
	pool := newTestPool(t)
	repo := NewSanctionRepository(pool)
	ctx := context.Background()

	created := time.Date(2026, 4, 20, 9, 0, 0, 0, time.UTC)
	sanction := testSanction("sanc1", "user1", created)
	sanction.Description = strPtr("Missed lab booking twice")
	sanction.EndDate = timeRef(created.Add(7 * 24 * time.Hour))

	if err := repo.CreateSanction(ctx, sanction); err != nil {
		t.Fatalf("CreateSanction failed: %v", err)
	}

	retrieved, err := repo.GetSanction(ctx, "sanc1")
	if err != nil {
		t.Fatalf("GetSanction failed: %v", err)
	}
	if retrieved.Type != persistence.SanctionTemporarySuspension {
		t.Errorf("Expected type TEMPORARY_SUSPENSION, got '%s'", retrieved.Type)
	}
	if retrieved.Reason != persistence.ReasonNoShow {
		t.Errorf("Expected reason NO_SHOW, got '%s'", retrieved.Reason)
	}
	if retrieved.EndDate == nil || !retrieved.EndDate.Equal(created.Add(7*24*time.Hour)) {
		t.Errorf("Expected end date to round-trip, got %v", retrieved.EndDate)
	}
	if retrieved.IsResolved {
		t.Error("Expected new sanction to be unresolved")
	}
}

func TestSanctionRepository_ResolveSanction(t *testing.T) {
	pool := newTestPool(t)
	repo := NewSanctionRepository(pool)
	ctx := context.Background()

	created := time.Date(2026, 4, 20, 9, 0, 0, 0, time.UTC)
	sanction := testSanction("sanc1", "user1", created)
	if err := repo.CreateSanction(ctx, sanction); err != nil {
		t.Fatalf("CreateSanction failed: %v", err)
	}

	resolvedAt := created.Add(48 * time.Hour)
	sanction.IsResolved = true
	sanction.ResolvedAt = timeRef(resolvedAt)
	sanction.ResolvedBy = strPtr("admin2")
	sanction.ResolutionNotes = strPtr("Appeal accepted")
	if err := repo.UpdateSanction(ctx, sanction); err != nil {
		t.Fatalf("UpdateSanction failed: %v", err)
	}

	retrieved, err := repo.GetSanction(ctx, "sanc1")
	if err != nil {
		t.Fatalf("GetSanction failed: %v", err)
	}
	if !retrieved.IsResolved {
		t.Error("Expected sanction to be resolved")
	}
	if retrieved.ResolvedBy == nil || *retrieved.ResolvedBy != "admin2" {
		t.Errorf("Expected resolved_by 'admin2', got %v", retrieved.ResolvedBy)
	}
	if retrieved.ResolvedAt == nil || !retrieved.ResolvedAt.Equal(resolvedAt) {
		t.Errorf("Expected resolved_at %v, got %v", resolvedAt, retrieved.ResolvedAt)
	}
}

func TestSanctionRepository_UpdateMissing(t *testing.T) {
	pool := newTestPool(t)
	repo := NewSanctionRepository(pool)

	created := time.Date(2026, 4, 20, 9, 0, 0, 0, time.UTC)
	err := repo.UpdateSanction(context.Background(), testSanction("ghost", "user1", created))
	if !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSanctionRepository_ListUserSanctions(t *testing.T) {
	pool := newTestPool(t)
	repo := NewSanctionRepository(pool)
	ctx := context.Background()

	base := time.Date(2026, 4, 20, 9, 0, 0, 0, time.UTC)
	open := testSanction("sanc-open", "user1", base.Add(24*time.Hour))
	resolved := testSanction("sanc-resolved", "user1", base)
	resolved.IsResolved = true
	resolved.ResolvedAt = timeRef(base.Add(time.Hour))
	other := testSanction("sanc-other", "user2", base)

	for _, sanction := range []persistence.UserSanction{open, resolved, other} {
		if err := repo.CreateSanction(ctx, sanction); err != nil {
			t.Fatalf("CreateSanction failed for %s: %v", sanction.ID, err)
		}
	}

	unresolved, err := repo.ListUserSanctions(ctx, "user1", false)
	if err != nil {
		t.Fatalf("ListUserSanctions failed: %v", err)
	}
	if len(unresolved) != 1 || unresolved[0].ID != "sanc-open" {
		t.Errorf("Expected only sanc-open, got %d entries", len(unresolved))
	}

	all, err := repo.ListUserSanctions(ctx, "user1", true)
	if err != nil {
		t.Fatalf("ListUserSanctions including resolved failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Expected 2 sanctions, got %d", len(all))
	}
	// Newest first.
	if all[0].ID != "sanc-open" || all[1].ID != "sanc-resolved" {
		t.Errorf("Expected order [sanc-open sanc-resolved], got [%s %s]", all[0].ID, all[1].ID)
	}
}

func TestSanctionRepository_HasSanctionForReservation(t *testing.T) {
	pool := newTestPool(t)
	seedResource(t, pool, "res1", "ROOM-1")
	reservations := NewReservationRepository(pool)
	repo := NewSanctionRepository(pool)
	ctx := context.Background()

	start := time.Date(2026, 4, 20, 10, 0, 0, 0, time.UTC)
	if err := reservations.CreateReservation(ctx, testReservation("rsv1", "res1", "user1", start, time.Hour)); err != nil {
		t.Fatalf("CreateReservation failed: %v", err)
	}

	found, err := repo.HasSanctionForReservation(ctx, "rsv1")
	if err != nil {
		t.Fatalf("HasSanctionForReservation failed: %v", err)
	}
	if found {
		t.Error("Expected no sanction before creation")
	}

	sanction := testSanction("sanc1", "user1", start)
	sanction.ReservationID = strPtr("rsv1")
	if err := repo.CreateSanction(ctx, sanction); err != nil {
		t.Fatalf("CreateSanction failed: %v", err)
	}

	found, err = repo.HasSanctionForReservation(ctx, "rsv1")
	if err != nil {
		t.Fatalf("HasSanctionForReservation failed: %v", err)
	}
	if !found {
		t.Error("Expected sanction to be found after creation")
	}
}
