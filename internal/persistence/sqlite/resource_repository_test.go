package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/campus-reservations/internal/persistence"
)

func TestResourceRepository_CreateAndGet(t *testing.T) {
	pool := newTestPool(t)
	repo := NewResourceRepository(pool)
	ctx := context.Background()

	resource := testResource("res1", "LAB-A-101")
	resource.Description = strPtr("Chemistry lab")
	resource.Building = strPtr("Science Hall")
	resource.Floor = strPtr("1")
	resource.Capacity = intRef(24)
	resource.RequiresApproval = true
	resource.ResponsibleUserID = strPtr("staff-7")

	if err := repo.CreateResource(ctx, resource); err != nil {
		t.Fatalf("CreateResource failed: %v", err)
	}

	retrieved, err := repo.GetResource(ctx, "res1")
	if err != nil {
		t.Fatalf("GetResource failed: %v", err)
	}
	if retrieved.Code != "LAB-A-101" {
		t.Errorf("Expected code 'LAB-A-101', got '%s'", retrieved.Code)
	}
	if retrieved.Description == nil || *retrieved.Description != "Chemistry lab" {
		t.Errorf("Expected description 'Chemistry lab', got %v", retrieved.Description)
	}
	if retrieved.Capacity == nil || *retrieved.Capacity != 24 {
		t.Errorf("Expected capacity 24, got %v", retrieved.Capacity)
	}
	if !retrieved.RequiresApproval {
		t.Error("Expected requires_approval to round-trip as true")
	}
	if retrieved.WeekStartsOn != time.Monday {
		t.Errorf("Expected week start Monday, got %v", retrieved.WeekStartsOn)
	}
}

func TestResourceRepository_DuplicateCode(t *testing.T) {
	pool := newTestPool(t)
	repo := NewResourceRepository(pool)
	ctx := context.Background()

	if err := repo.CreateResource(ctx, testResource("res1", "ROOM-1")); err != nil {
		t.Fatalf("CreateResource failed: %v", err)
	}

	err := repo.CreateResource(ctx, testResource("res2", "ROOM-1"))
	if !errors.Is(err, persistence.ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate for reused code, got %v", err)
	}
}

func TestResourceRepository_GetResourceByCode(t *testing.T) {
	pool := newTestPool(t)
	repo := NewResourceRepository(pool)
	ctx := context.Background()

	if err := repo.CreateResource(ctx, testResource("res1", "AUD-MAIN")); err != nil {
		t.Fatalf("CreateResource failed: %v", err)
	}

	retrieved, err := repo.GetResourceByCode(ctx, "AUD-MAIN")
	if err != nil {
		t.Fatalf("GetResourceByCode failed: %v", err)
	}
	if retrieved.ID != "res1" {
		t.Errorf("Expected id 'res1', got '%s'", retrieved.ID)
	}

	_, err = repo.GetResourceByCode(ctx, "missing")
	if !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestResourceRepository_UpdateResource(t *testing.T) {
	pool := newTestPool(t)
	repo := NewResourceRepository(pool)
	ctx := context.Background()

	resource := testResource("res1", "ROOM-1")
	if err := repo.CreateResource(ctx, resource); err != nil {
		t.Fatalf("CreateResource failed: %v", err)
	}

	resource.Name = "Renamed Room"
	resource.Status = persistence.ResourceMaintenance
	resource.MaxReservationMinutes = 120
	if err := repo.UpdateResource(ctx, resource); err != nil {
		t.Fatalf("UpdateResource failed: %v", err)
	}

	retrieved, err := repo.GetResource(ctx, "res1")
	if err != nil {
		t.Fatalf("GetResource failed: %v", err)
	}
	if retrieved.Name != "Renamed Room" {
		t.Errorf("Expected name 'Renamed Room', got '%s'", retrieved.Name)
	}
	if retrieved.Status != persistence.ResourceMaintenance {
		t.Errorf("Expected status MAINTENANCE, got '%s'", retrieved.Status)
	}
}

func TestResourceRepository_UpdateMissing(t *testing.T) {
	pool := newTestPool(t)
	repo := NewResourceRepository(pool)

	err := repo.UpdateResource(context.Background(), testResource("ghost", "GHOST"))
	if !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestResourceRepository_ListResources_Filters(t *testing.T) {
	pool := newTestPool(t)
	repo := NewResourceRepository(pool)
	ctx := context.Background()

	lab := testResource("res1", "LAB-1")
	lab.Type = persistence.ResourceLab
	lab.Building = strPtr("Science Hall")

	room := testResource("res2", "ROOM-2")
	room.Building = strPtr("Library")

	closed := testResource("res3", "ROOM-3")
	closed.IsActive = false

	for _, resource := range []persistence.Resource{lab, room, closed} {
		if err := repo.CreateResource(ctx, resource); err != nil {
			t.Fatalf("CreateResource failed for %s: %v", resource.ID, err)
		}
	}

	labType := persistence.ResourceLab
	byType, err := repo.ListResources(ctx, persistence.ResourceFilter{Type: &labType})
	if err != nil {
		t.Fatalf("ListResources by type failed: %v", err)
	}
	if len(byType) != 1 || byType[0].ID != "res1" {
		t.Errorf("Expected only res1 for LAB filter, got %d entries", len(byType))
	}

	active := true
	byActive, err := repo.ListResources(ctx, persistence.ResourceFilter{IsActive: &active})
	if err != nil {
		t.Fatalf("ListResources by is_active failed: %v", err)
	}
	if len(byActive) != 2 {
		t.Errorf("Expected 2 active resources, got %d", len(byActive))
	}

	bySearch, err := repo.ListResources(ctx, persistence.ResourceFilter{Search: "LAB"})
	if err != nil {
		t.Fatalf("ListResources by search failed: %v", err)
	}
	if len(bySearch) != 1 || bySearch[0].Code != "LAB-1" {
		t.Errorf("Expected LAB-1 for search, got %d entries", len(bySearch))
	}
}

func TestResourceRepository_ListResources_Pagination(t *testing.T) {
	pool := newTestPool(t)
	repo := NewResourceRepository(pool)
	ctx := context.Background()

	for _, code := range []string{"A-1", "B-2", "C-3"} {
		if err := repo.CreateResource(ctx, testResource("res-"+code, code)); err != nil {
			t.Fatalf("CreateResource failed: %v", err)
		}
	}

	page, err := repo.ListResources(ctx, persistence.ResourceFilter{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("ListResources failed: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("Expected 2 resources, got %d", len(page))
	}
	if page[0].Code != "B-2" || page[1].Code != "C-3" {
		t.Errorf("Expected codes B-2, C-3 in name order, got %s, %s", page[0].Code, page[1].Code)
	}
}

func TestResourceRepository_ListBuildings(t *testing.T) {
	pool := newTestPool(t)
	repo := NewResourceRepository(pool)
	ctx := context.Background()

	first := testResource("res1", "R-1")
	first.Building = strPtr("Science Hall")
	second := testResource("res2", "R-2")
	second.Building = strPtr("Library")
	third := testResource("res3", "R-3")
	third.Building = strPtr("Science Hall")
	fourth := testResource("res4", "R-4")

	for _, resource := range []persistence.Resource{first, second, third, fourth} {
		if err := repo.CreateResource(ctx, resource); err != nil {
			t.Fatalf("CreateResource failed for %s: %v", resource.ID, err)
		}
	}

	buildings, err := repo.ListBuildings(ctx)
	if err != nil {
		t.Fatalf("ListBuildings failed: %v", err)
	}
	if len(buildings) != 2 {
		t.Fatalf("Expected 2 distinct buildings, got %d", len(buildings))
	}
	if buildings[0] != "Library" || buildings[1] != "Science Hall" {
		t.Errorf("Expected alphabetical buildings, got %v", buildings)
	}
}

func TestResourceRepository_DeleteResource(t *testing.T) {
	pool := newTestPool(t)
	repo := NewResourceRepository(pool)
	ctx := context.Background()

	if err := repo.CreateResource(ctx, testResource("res1", "ROOM-1")); err != nil {
		t.Fatalf("CreateResource failed: %v", err)
	}
	if err := repo.DeleteResource(ctx, "res1"); err != nil {
		t.Fatalf("DeleteResource failed: %v", err)
	}

	_, err := repo.GetResource(ctx, "res1")
	if !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}

	if err := repo.DeleteResource(ctx, "res1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for double delete, got %v", err)
	}
}
