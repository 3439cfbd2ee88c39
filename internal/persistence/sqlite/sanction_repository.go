package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/campus-reservations/internal/persistence"
)

// SanctionRepository implements persistence.SanctionRepository on SQLite.
type SanctionRepository struct {
	pool *ConnectionPool
}

// NewSanctionRepository creates a SQLite-backed sanction repository.
func NewSanctionRepository(pool *ConnectionPool) *SanctionRepository {
	return &SanctionRepository{pool: pool}
}

const sanctionColumns = `id, user_id, reservation_id, sanction_type, reason, description,
	start_date, end_date, applied_by, is_resolved, resolved_at, resolved_by, resolution_notes, created_at`

// CreateSanction inserts a sanction record.
func (r *SanctionRepository) CreateSanction(ctx context.Context, sanction persistence.UserSanction) error {
	query := `INSERT INTO user_sanctions (` + sanctionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.pool.db.ExecContext(ctx, query,
		sanction.ID,
		sanction.UserID,
		nullString(sanction.ReservationID),
		string(sanction.Type),
		string(sanction.Reason),
		nullString(sanction.Description),
		formatTime(sanction.StartDate),
		nullTime(sanction.EndDate),
		sanction.AppliedBy,
		boolToInt(sanction.IsResolved),
		nullTime(sanction.ResolvedAt),
		nullString(sanction.ResolvedBy),
		nullString(sanction.ResolutionNotes),
		formatTime(sanction.CreatedAt),
	)
	return mapError(err)
}

// UpdateSanction replaces the mutable columns of a sanction.
func (r *SanctionRepository) UpdateSanction(ctx context.Context, sanction persistence.UserSanction) error {
	query := `UPDATE user_sanctions SET
		end_date = ?, is_resolved = ?, resolved_at = ?, resolved_by = ?, resolution_notes = ?
		WHERE id = ?`

	result, err := r.pool.db.ExecContext(ctx, query,
		nullTime(sanction.EndDate),
		boolToInt(sanction.IsResolved),
		nullTime(sanction.ResolvedAt),
		nullString(sanction.ResolvedBy),
		nullString(sanction.ResolutionNotes),
		sanction.ID,
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

// GetSanction retrieves a sanction by id.
func (r *SanctionRepository) GetSanction(ctx context.Context, id string) (persistence.UserSanction, error) {
	row := r.pool.db.QueryRowContext(ctx, `SELECT `+sanctionColumns+` FROM user_sanctions WHERE id = ?`, id)
	return scanSanction(row)
}

// ListUserSanctions returns the user's sanctions newest first.
func (r *SanctionRepository) ListUserSanctions(ctx context.Context, userID string, includeResolved bool) ([]persistence.UserSanction, error) {
	query := `SELECT ` + sanctionColumns + ` FROM user_sanctions WHERE user_id = ?`
	args := []any{userID}

	if !includeResolved {
		query += " AND is_resolved = 0"
	}
	query += " ORDER BY created_at DESC, id ASC"

	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var sanctions []persistence.UserSanction
	for rows.Next() {
		sanction, err := scanSanction(rows)
		if err != nil {
			return nil, err
		}
		sanctions = append(sanctions, sanction)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return sanctions, nil
}

// HasSanctionForReservation reports whether a sanction already cites the
// reservation.
func (r *SanctionRepository) HasSanctionForReservation(ctx context.Context, reservationID string) (bool, error) {
	var count int
	err := r.pool.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM user_sanctions WHERE reservation_id = ?", reservationID).Scan(&count)
	if err != nil {
		return false, mapError(err)
	}
	return count > 0, nil
}

func scanSanction(row rowScanner) (persistence.UserSanction, error) {
	var (
		sanction                    persistence.UserSanction
		reservationID, description  sql.NullString
		endDate, resolvedAt         sql.NullString
		resolvedBy, resolutionNotes sql.NullString
		sanctionType, reason        string
		startDate, createdAt        string
		isResolved                  int
	)

	err := row.Scan(
		&sanction.ID,
		&sanction.UserID,
		&reservationID,
		&sanctionType,
		&reason,
		&description,
		&startDate,
		&endDate,
		&sanction.AppliedBy,
		&isResolved,
		&resolvedAt,
		&resolvedBy,
		&resolutionNotes,
		&createdAt,
	)
	if err != nil {
		return persistence.UserSanction{}, mapError(err)
	}

	sanction.ReservationID = stringPtr(reservationID)
	sanction.Type = persistence.SanctionType(sanctionType)
	sanction.Reason = persistence.SanctionReason(reason)
	sanction.Description = stringPtr(description)
	if sanction.StartDate, err = parseTime(startDate, "start_date"); err != nil {
		return persistence.UserSanction{}, err
	}
	if sanction.EndDate, err = timePtr(endDate, "end_date"); err != nil {
		return persistence.UserSanction{}, err
	}
	sanction.IsResolved = isResolved != 0
	if sanction.ResolvedAt, err = timePtr(resolvedAt, "resolved_at"); err != nil {
		return persistence.UserSanction{}, err
	}
	sanction.ResolvedBy = stringPtr(resolvedBy)
	sanction.ResolutionNotes = stringPtr(resolutionNotes)
	if sanction.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return persistence.UserSanction{}, err
	}
	return sanction, nil
}
