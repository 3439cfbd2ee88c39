package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/example/campus-reservations/internal/persistence"
)

// ResourceRepository implements persistence.ResourceRepository on SQLite.
type ResourceRepository struct {
	pool *ConnectionPool
}

// NewResourceRepository creates a SQLite-backed resource repository.
func NewResourceRepository(pool *ConnectionPool) *ResourceRepository {
	return &ResourceRepository{pool: pool}
}

const resourceColumns = `id, name, code, description, resource_type, location, building, floor,
	capacity, features, status, is_active, min_reservation_minutes, max_reservation_minutes,
	advance_booking_days, requires_approval, week_starts_on, responsible_user_id, created_at, updated_at`

// CreateResource inserts a catalog entry.
func (r *ResourceRepository) CreateResource(ctx context.Context, resource persistence.Resource) error {
	query := `INSERT INTO resources (` + resourceColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.pool.db.ExecContext(ctx, query,
		resource.ID,
		resource.Name,
		resource.Code,
		nullString(resource.Description),
		string(resource.Type),
		nullString(resource.Location),
		nullString(resource.Building),
		nullString(resource.Floor),
		nullInt(resource.Capacity),
		nullString(resource.Features),
		string(resource.Status),
		boolToInt(resource.IsActive),
		resource.MinReservationMinutes,
		resource.MaxReservationMinutes,
		resource.AdvanceBookingDays,
		boolToInt(resource.RequiresApproval),
		int(resource.WeekStartsOn),
		nullString(resource.ResponsibleUserID),
		formatTime(resource.CreatedAt),
		formatTime(resource.UpdatedAt),
	)
	return mapError(err)
}

// UpdateResource replaces the mutable columns of a catalog entry.
func (r *ResourceRepository) UpdateResource(ctx context.Context, resource persistence.Resource) error {
	query := `UPDATE resources SET
		name = ?, code = ?, description = ?, resource_type = ?, location = ?, building = ?,
		floor = ?, capacity = ?, features = ?, status = ?, is_active = ?,
		min_reservation_minutes = ?, max_reservation_minutes = ?, advance_booking_days = ?,
		requires_approval = ?, week_starts_on = ?, responsible_user_id = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.pool.db.ExecContext(ctx, query,
		resource.Name,
		resource.Code,
		nullString(resource.Description),
		string(resource.Type),
		nullString(resource.Location),
		nullString(resource.Building),
		nullString(resource.Floor),
		nullInt(resource.Capacity),
		nullString(resource.Features),
		string(resource.Status),
		boolToInt(resource.IsActive),
		resource.MinReservationMinutes,
		resource.MaxReservationMinutes,
		resource.AdvanceBookingDays,
		boolToInt(resource.RequiresApproval),
		int(resource.WeekStartsOn),
		nullString(resource.ResponsibleUserID),
		formatTime(resource.UpdatedAt),
		resource.ID,
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

// GetResource retrieves a catalog entry by id.
func (r *ResourceRepository) GetResource(ctx context.Context, id string) (persistence.Resource, error) {
	row := r.pool.db.QueryRowContext(ctx, `SELECT `+resourceColumns+` FROM resources WHERE id = ?`, id)
	return scanResource(row)
}

// GetResourceByCode retrieves a catalog entry by its unique code.
func (r *ResourceRepository) GetResourceByCode(ctx context.Context, code string) (persistence.Resource, error) {
	row := r.pool.db.QueryRowContext(ctx, `SELECT `+resourceColumns+` FROM resources WHERE code = ?`, code)
	return scanResource(row)
}

// ListResources returns catalog entries matching the filter ordered by name.
func (r *ResourceRepository) ListResources(ctx context.Context, filter persistence.ResourceFilter) ([]persistence.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM resources`

	var conditions []string
	var args []any

	if filter.Type != nil {
		conditions = append(conditions, "resource_type = ?")
		args = append(args, string(*filter.Type))
	}
	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, string(*filter.Status))
	}
	if filter.Building != nil {
		conditions = append(conditions, "building = ?")
		args = append(args, *filter.Building)
	}
	if filter.IsActive != nil {
		conditions = append(conditions, "is_active = ?")
		args = append(args, boolToInt(*filter.IsActive))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		conditions = append(conditions, "(name LIKE ? OR code LIKE ? OR description LIKE ?)")
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern, pattern)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY name ASC, id ASC"

	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var resources []persistence.Resource
	for rows.Next() {
		resource, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		resources = append(resources, resource)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return resources, nil
}

// DeleteResource removes a catalog entry.
func (r *ResourceRepository) DeleteResource(ctx context.Context, id string) error {
	result, err := r.pool.db.ExecContext(ctx, "DELETE FROM resources WHERE id = ?", id)
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

// ListBuildings returns the distinct non-empty building names.
func (r *ResourceRepository) ListBuildings(ctx context.Context) ([]string, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		"SELECT DISTINCT building FROM resources WHERE building IS NOT NULL AND building != '' ORDER BY building ASC")
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var buildings []string
	for rows.Next() {
		var building string
		if err := rows.Scan(&building); err != nil {
			return nil, mapError(err)
		}
		buildings = append(buildings, building)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return buildings, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResource(row rowScanner) (persistence.Resource, error) {
	var (
		resource                                   persistence.Resource
		description, location, building, floor     sql.NullString
		features, responsible                      sql.NullString
		capacity                                   sql.NullInt64
		resourceType, status, createdAt, updatedAt string
		isActive, requiresApproval, weekStartsOn   int
	)

	err := row.Scan(
		&resource.ID,
		&resource.Name,
		&resource.Code,
		&description,
		&resourceType,
		&location,
		&building,
		&floor,
		&capacity,
		&features,
		&status,
		&isActive,
		&resource.MinReservationMinutes,
		&resource.MaxReservationMinutes,
		&resource.AdvanceBookingDays,
		&requiresApproval,
		&weekStartsOn,
		&responsible,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Resource{}, mapError(err)
	}

	resource.Description = stringPtr(description)
	resource.Type = persistence.ResourceType(resourceType)
	resource.Location = stringPtr(location)
	resource.Building = stringPtr(building)
	resource.Floor = stringPtr(floor)
	resource.Capacity = intPtr(capacity)
	resource.Features = stringPtr(features)
	resource.Status = persistence.ResourceStatus(status)
	resource.IsActive = isActive != 0
	resource.RequiresApproval = requiresApproval != 0
	resource.WeekStartsOn = weekday(weekStartsOn)
	resource.ResponsibleUserID = stringPtr(responsible)

	if resource.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return persistence.Resource{}, err
	}
	if resource.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return persistence.Resource{}, err
	}
	return resource, nil
}
