package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/campus-reservations/internal/persistence"
	"github.com/example/campus-reservations/internal/rules"
)

// RuleRepository implements persistence.RuleRepository on SQLite.
type RuleRepository struct {
	pool *ConnectionPool
}

// NewRuleRepository creates a SQLite-backed rule repository.
func NewRuleRepository(pool *ConnectionPool) *RuleRepository {
	return &RuleRepository{pool: pool}
}

const ruleColumns = `id, resource_id, rule_type, name, description, day_of_week, window_start,
	window_end, start_date, end_date, max_reservations_per_day, max_reservations_per_week,
	max_hours_per_day, max_hours_per_week, min_advance_hours, is_active, priority, created_at, updated_at`

// CreateRule inserts a rule configuration.
func (r *RuleRepository) CreateRule(ctx context.Context, rule persistence.ReservationRule) error {
	query := `INSERT INTO reservation_rules (` + ruleColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.pool.db.ExecContext(ctx, query, ruleArgs(rule)...)
	return mapError(err)
}

// UpdateRule replaces the mutable columns of a rule.
func (r *RuleRepository) UpdateRule(ctx context.Context, rule persistence.ReservationRule) error {
	query := `UPDATE reservation_rules SET
		resource_id = ?, rule_type = ?, name = ?, description = ?, day_of_week = ?,
		window_start = ?, window_end = ?, start_date = ?, end_date = ?,
		max_reservations_per_day = ?, max_reservations_per_week = ?, max_hours_per_day = ?,
		max_hours_per_week = ?, min_advance_hours = ?, is_active = ?, priority = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.pool.db.ExecContext(ctx, query,
		nullString(rule.ResourceID),
		string(rule.Kind),
		rule.Name,
		nullString(rule.Description),
		nullWeekday(rule.DayOfWeek),
		nullTimeOfDay(rule.WindowStart),
		nullTimeOfDay(rule.WindowEnd),
		nullTime(rule.StartDate),
		nullTime(rule.EndDate),
		nullInt(rule.MaxReservationsPerDay),
		nullInt(rule.MaxReservationsPerWeek),
		nullInt(rule.MaxHoursPerDay),
		nullInt(rule.MaxHoursPerWeek),
		nullInt(rule.MinAdvanceHours),
		boolToInt(rule.IsActive),
		rule.Priority,
		formatTime(rule.UpdatedAt),
		rule.ID,
	)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// GetRule retrieves a rule by id.
func (r *RuleRepository) GetRule(ctx context.Context, id string) (persistence.ReservationRule, error) {
	row := r.pool.db.QueryRowContext(ctx, `SELECT `+ruleColumns+` FROM reservation_rules WHERE id = ?`, id)
	return scanRule(row)
}

// ListRulesForResource returns resource-scoped plus global rules.
func (r *RuleRepository) ListRulesForResource(ctx context.Context, resourceID string) ([]persistence.ReservationRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM reservation_rules
		WHERE resource_id = ? OR resource_id IS NULL
		ORDER BY priority ASC, id ASC`

	rows, err := r.pool.db.QueryContext(ctx, query, resourceID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var ruleSet []persistence.ReservationRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		ruleSet = append(ruleSet, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return ruleSet, nil
}

// DeleteRule removes a rule.
func (r *RuleRepository) DeleteRule(ctx context.Context, id string) error {
	result, err := r.pool.db.ExecContext(ctx, "DELETE FROM reservation_rules WHERE id = ?", id)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func ruleArgs(rule persistence.ReservationRule) []any {
	return []any{
		rule.ID,
		nullString(rule.ResourceID),
		string(rule.Kind),
		rule.Name,
		nullString(rule.Description),
		nullWeekday(rule.DayOfWeek),
		nullTimeOfDay(rule.WindowStart),
		nullTimeOfDay(rule.WindowEnd),
		nullTime(rule.StartDate),
		nullTime(rule.EndDate),
		nullInt(rule.MaxReservationsPerDay),
		nullInt(rule.MaxReservationsPerWeek),
		nullInt(rule.MaxHoursPerDay),
		nullInt(rule.MaxHoursPerWeek),
		nullInt(rule.MinAdvanceHours),
		boolToInt(rule.IsActive),
		rule.Priority,
		formatTime(rule.CreatedAt),
		formatTime(rule.UpdatedAt),
	}
}

func nullWeekday(value *time.Weekday) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*value), Valid: true}
}

func nullTimeOfDay(value *rules.TimeOfDay) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: value.String(), Valid: true}
}

func scanRule(row rowScanner) (persistence.ReservationRule, error) {
	var (
		rule                       persistence.ReservationRule
		resourceID, description    sql.NullString
		windowStart, windowEnd     sql.NullString
		startDate, endDate         sql.NullString
		dayOfWeek                  sql.NullInt64
		maxPerDay, maxPerWeek      sql.NullInt64
		maxHoursDay, maxHoursWeek  sql.NullInt64
		minAdvanceHours            sql.NullInt64
		kind, createdAt, updatedAt string
		isActive                   int
	)

	err := row.Scan(
		&rule.ID,
		&resourceID,
		&kind,
		&rule.Name,
		&description,
		&dayOfWeek,
		&windowStart,
		&windowEnd,
		&startDate,
		&endDate,
		&maxPerDay,
		&maxPerWeek,
		&maxHoursDay,
		&maxHoursWeek,
		&minAdvanceHours,
		&isActive,
		&rule.Priority,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.ReservationRule{}, mapError(err)
	}

	rule.ResourceID = stringPtr(resourceID)
	rule.Kind = rules.Kind(kind)
	rule.Description = stringPtr(description)
	if dayOfWeek.Valid {
		d := weekday(int(dayOfWeek.Int64))
		rule.DayOfWeek = &d
	}
	if windowStart.Valid {
		tod, err := rules.ParseTimeOfDay(windowStart.String)
		if err != nil {
			return persistence.ReservationRule{}, err
		}
		rule.WindowStart = &tod
	}
	if windowEnd.Valid {
		tod, err := rules.ParseTimeOfDay(windowEnd.String)
		if err != nil {
			return persistence.ReservationRule{}, err
		}
		rule.WindowEnd = &tod
	}
	if rule.StartDate, err = timePtr(startDate, "start_date"); err != nil {
		return persistence.ReservationRule{}, err
	}
	if rule.EndDate, err = timePtr(endDate, "end_date"); err != nil {
		return persistence.ReservationRule{}, err
	}
	rule.MaxReservationsPerDay = intPtr(maxPerDay)
	rule.MaxReservationsPerWeek = intPtr(maxPerWeek)
	rule.MaxHoursPerDay = intPtr(maxHoursDay)
	rule.MaxHoursPerWeek = intPtr(maxHoursWeek)
	rule.MinAdvanceHours = intPtr(minAdvanceHours)
	rule.IsActive = isActive != 0

	if rule.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return persistence.ReservationRule{}, err
	}
	if rule.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return persistence.ReservationRule{}, err
	}
	return rule, nil
}
