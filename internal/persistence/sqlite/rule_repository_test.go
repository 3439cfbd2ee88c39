package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/campus-reservations/internal/persistence"
	"github.com/example/campus-reservations/internal/rules"
)

func testRule(id string, resourceID *string, priority int) persistence.ReservationRule {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	day := time.Monday
	start := rules.TimeOfDay{Hour: 8, Minute: 0}
	end := rules.TimeOfDay{Hour: 20, Minute: 30}
	return persistence.ReservationRule{
		ID:          id,
		ResourceID:  resourceID,
		Kind:        rules.KindOperatingHours,
		Name:        "Weekday hours",
		DayOfWeek:   &day,
		WindowStart: &start,
		WindowEnd:   &end,
		IsActive:    true,
		Priority:    priority,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

func TestRuleRepository_CreateAndGet(t *testing.T) {
	pool := newTestPool(t)
	seedResource(t, pool, "res1", "ROOM-1")
	repo := NewRuleRepository(pool)
	ctx := context.Background()

	resourceID := "res1"
	rule := testRule("rule1", &resourceID, 10)
	rule.Description = strPtr("Mon 08:00-20:30")
	if err := repo.CreateRule(ctx, rule); err != nil {
		t.Fatalf("CreateRule failed: %v", err)
	}

	retrieved, err := repo.GetRule(ctx, "rule1")
	if err != nil {
		t.Fatalf("GetRule failed: %v", err)
	}
	if retrieved.Kind != rules.KindOperatingHours {
		t.Errorf("Expected kind OPERATING_HOURS, got '%s'", retrieved.Kind)
	}
	if retrieved.ResourceID == nil || *retrieved.ResourceID != "res1" {
		t.Errorf("Expected resource id 'res1', got %v", retrieved.ResourceID)
	}
	if retrieved.DayOfWeek == nil || *retrieved.DayOfWeek != time.Monday {
		t.Errorf("Expected Monday, got %v", retrieved.DayOfWeek)
	}
	if retrieved.WindowStart == nil || retrieved.WindowStart.String() != "08:00" {
		t.Errorf("Expected window start 08:00, got %v", retrieved.WindowStart)
	}
	if retrieved.WindowEnd == nil || retrieved.WindowEnd.String() != "20:30" {
		t.Errorf("Expected window end 20:30, got %v", retrieved.WindowEnd)
	}
}

func TestRuleRepository_QuotaColumnsRoundTrip(t *testing.T) {
	pool := newTestPool(t)
	repo := NewRuleRepository(pool)
	ctx := context.Background()

	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	rule := persistence.ReservationRule{
		ID:                     "rule1",
		Kind:                   rules.KindUserQuota,
		Name:                   "Weekly cap",
		MaxReservationsPerDay:  intRef(2),
		MaxReservationsPerWeek: intRef(5),
		MaxHoursPerWeek:        intRef(8),
		IsActive:               true,
		Priority:               20,
		CreatedAt:              created,
		UpdatedAt:              created,
	}
	if err := repo.CreateRule(ctx, rule); err != nil {
		t.Fatalf("CreateRule failed: %v", err)
	}

	retrieved, err := repo.GetRule(ctx, "rule1")
	if err != nil {
		t.Fatalf("GetRule failed: %v", err)
	}
	if retrieved.MaxReservationsPerDay == nil || *retrieved.MaxReservationsPerDay != 2 {
		t.Errorf("Expected max per day 2, got %v", retrieved.MaxReservationsPerDay)
	}
	if retrieved.MaxHoursPerWeek == nil || *retrieved.MaxHoursPerWeek != 8 {
		t.Errorf("Expected max hours per week 8, got %v", retrieved.MaxHoursPerWeek)
	}
	if retrieved.MaxHoursPerDay != nil {
		t.Errorf("Expected nil max hours per day, got %v", retrieved.MaxHoursPerDay)
	}
}

func TestRuleRepository_ListRulesForResource(t *testing.T) {
	pool := newTestPool(t)
	seedResource(t, pool, "res1", "ROOM-1")
	seedResource(t, pool, "res2", "ROOM-2")
	repo := NewRuleRepository(pool)
	ctx := context.Background()

	res1, res2 := "res1", "res2"
	scoped := testRule("rule-scoped", &res1, 20)
	global := testRule("rule-global", nil, 10)
	other := testRule("rule-other", &res2, 5)

	for _, rule := range []persistence.ReservationRule{scoped, global, other} {
		if err := repo.CreateRule(ctx, rule); err != nil {
			t.Fatalf("CreateRule failed for %s: %v", rule.ID, err)
		}
	}

	ruleSet, err := repo.ListRulesForResource(ctx, "res1")
	if err != nil {
		t.Fatalf("ListRulesForResource failed: %v", err)
	}
	if len(ruleSet) != 2 {
		t.Fatalf("Expected scoped plus global rule, got %d", len(ruleSet))
	}
	// Priority ascending: global (10) before scoped (20).
	if ruleSet[0].ID != "rule-global" || ruleSet[1].ID != "rule-scoped" {
		t.Errorf("Expected priority order [rule-global rule-scoped], got [%s %s]",
			ruleSet[0].ID, ruleSet[1].ID)
	}
}

func TestRuleRepository_UpdateRule(t *testing.T) {
	pool := newTestPool(t)
	repo := NewRuleRepository(pool)
	ctx := context.Background()

	rule := testRule("rule1", nil, 10)
	if err := repo.CreateRule(ctx, rule); err != nil {
		t.Fatalf("CreateRule failed: %v", err)
	}

	rule.Name = "Extended hours"
	rule.IsActive = false
	rule.Priority = 99
	if err := repo.UpdateRule(ctx, rule); err != nil {
		t.Fatalf("UpdateRule failed: %v", err)
	}

	retrieved, err := repo.GetRule(ctx, "rule1")
	if err != nil {
		t.Fatalf("GetRule failed: %v", err)
	}
	if retrieved.Name != "Extended hours" {
		t.Errorf("Expected name 'Extended hours', got '%s'", retrieved.Name)
	}
	if retrieved.IsActive {
		t.Error("Expected rule to be inactive after update")
	}
	if retrieved.Priority != 99 {
		t.Errorf("Expected priority 99, got %d", retrieved.Priority)
	}
}

func TestRuleRepository_DeleteRule(t *testing.T) {
	pool := newTestPool(t)
	repo := NewRuleRepository(pool)
	ctx := context.Background()

	if err := repo.CreateRule(ctx, testRule("rule1", nil, 10)); err != nil {
		t.Fatalf("CreateRule failed: %v", err)
	}
	if err := repo.DeleteRule(ctx, "rule1"); err != nil {
		t.Fatalf("DeleteRule failed: %v", err)
	}

	_, err := repo.GetRule(ctx, "rule1")
	if !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}

func TestRuleRepository_DeleteCascadesWithResource(t *testing.T) {
	pool := newTestPool(t)
	seedResource(t, pool, "res1", "ROOM-1")
	resources := NewResourceRepository(pool)
	repo := NewRuleRepository(pool)
	ctx := context.Background()

	resourceID := "res1"
	if err := repo.CreateRule(ctx, testRule("rule1", &resourceID, 10)); err != nil {
		t.Fatalf("CreateRule failed: %v", err)
	}

	if err := resources.DeleteResource(ctx, "res1"); err != nil {
		t.Fatalf("DeleteResource failed: %v", err)
	}

	_, err := repo.GetRule(ctx, "rule1")
	if !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("Expected rule to cascade away with its resource, got %v", err)
	}
}
