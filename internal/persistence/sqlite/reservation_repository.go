package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/campus-reservations/internal/lifecycle"
	"github.com/example/campus-reservations/internal/persistence"
)

// ReservationRepository implements persistence.ReservationRepository on SQLite.
type ReservationRepository struct {
	pool *ConnectionPool
}

// NewReservationRepository creates a SQLite-backed reservation repository.
func NewReservationRepository(pool *ConnectionPool) *ReservationRepository {
	return &ReservationRepository{pool: pool}
}

const reservationColumns = `id, resource_id, user_id, start_time, end_time, title, description,
	attendees_count, status, approved_by, approved_at, rejection_reason, checked_in_at,
	checked_out_at, is_recurring, recurrence_pattern, parent_reservation_id, created_at, updated_at`

// CreateReservation inserts a booking.
func (r *ReservationRepository) CreateReservation(ctx context.Context, reservation persistence.Reservation) error {
	query := `INSERT INTO reservations (` + reservationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.pool.db.ExecContext(ctx, query,
		reservation.ID,
		reservation.ResourceID,
		reservation.UserID,
		formatTime(reservation.Start),
		formatTime(reservation.End),
		reservation.Title,
		nullString(reservation.Description),
		nullInt(reservation.AttendeesCount),
		string(reservation.Status),
		nullString(reservation.ApprovedBy),
		nullTime(reservation.ApprovedAt),
		nullString(reservation.RejectionReason),
		nullTime(reservation.CheckedInAt),
		nullTime(reservation.CheckedOutAt),
		boolToInt(reservation.IsRecurring),
		nullString(reservation.RecurrencePattern),
		nullString(reservation.ParentReservationID),
		formatTime(reservation.CreatedAt),
		formatTime(reservation.UpdatedAt),
	)
	return mapError(err)
}

// UpdateReservation replaces the mutable columns of a booking.
func (r *ReservationRepository) UpdateReservation(ctx context.Context, reservation persistence.Reservation) error {
	query := `UPDATE reservations SET
		start_time = ?, end_time = ?, title = ?, description = ?, attendees_count = ?,
		status = ?, approved_by = ?, approved_at = ?, rejection_reason = ?,
		checked_in_at = ?, checked_out_at = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.pool.db.ExecContext(ctx, query,
		formatTime(reservation.Start),
		formatTime(reservation.End),
		reservation.Title,
		nullString(reservation.Description),
		nullInt(reservation.AttendeesCount),
		string(reservation.Status),
		nullString(reservation.ApprovedBy),
		nullTime(reservation.ApprovedAt),
		nullString(reservation.RejectionReason),
		nullTime(reservation.CheckedInAt),
		nullTime(reservation.CheckedOutAt),
		formatTime(reservation.UpdatedAt),
		reservation.ID,
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

// GetReservation retrieves a booking by id.
func (r *ReservationRepository) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	row := r.pool.db.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	return scanReservation(row)
}

// ListUserReservations returns the user's bookings ordered newest first.
func (r *ReservationRepository) ListUserReservations(ctx context.Context, filter persistence.UserReservationFilter) ([]persistence.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE user_id = ?`
	args := []any{filter.UserID}

	if filter.Status != nil {
		query += " AND status = ?"
		args = append(args, string(*filter.Status))
	}
	if filter.UpcomingOnly {
		query += " AND end_time > ?"
		args = append(args, formatTime(filter.Reference))
	}
	query += " ORDER BY start_time DESC, id ASC"

	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	return r.queryReservations(ctx, query, args...)
}

// ListResourceReservations returns bookings on the resource intersecting
// [from, to), restricted to the given statuses when non-empty.
func (r *ReservationRepository) ListResourceReservations(ctx context.Context, resourceID string, from, to time.Time, statuses []lifecycle.Status) ([]persistence.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations
		WHERE resource_id = ? AND start_time < ? AND end_time > ?`
	args := []any{resourceID, formatTime(to), formatTime(from)}

	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, status := range statuses {
			placeholders[i] = "?"
			args = append(args, string(status))
		}
		query += " AND status IN (" + strings.Join(placeholders, ", ") + ")"
	}
	query += " ORDER BY start_time ASC, id ASC"

	return r.queryReservations(ctx, query, args...)
}

// ListUserLiveReservations returns the user's pending and approved bookings
// on one resource.
func (r *ReservationRepository) ListUserLiveReservations(ctx context.Context, resourceID, userID string) ([]persistence.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations
		WHERE resource_id = ? AND user_id = ? AND status IN (?, ?)
		ORDER BY start_time ASC, id ASC`

	return r.queryReservations(ctx, query, resourceID, userID,
		string(lifecycle.StatusPending), string(lifecycle.StatusApproved))
}

// ListNoShowCandidates returns approved bookings without a check-in whose
// start time is at or before the cutoff.
func (r *ReservationRepository) ListNoShowCandidates(ctx context.Context, cutoff time.Time) ([]persistence.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations
		WHERE status = ? AND checked_in_at IS NULL AND start_time <= ?
		ORDER BY start_time ASC, id ASC`

	return r.queryReservations(ctx, query, string(lifecycle.StatusApproved), formatTime(cutoff))
}

func (r *ReservationRepository) queryReservations(ctx context.Context, query string, args ...any) ([]persistence.Reservation, error) {
	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var reservations []persistence.Reservation
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, reservation)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return reservations, nil
}

func scanReservation(row rowScanner) (persistence.Reservation, error) {
	var (
		reservation                        persistence.Reservation
		description, approvedBy            sql.NullString
		rejectionReason, pattern, parentID sql.NullString
		approvedAt, checkedInAt            sql.NullString
		checkedOutAt                       sql.NullString
		attendees                          sql.NullInt64
		start, end, status                 string
		createdAt, updatedAt               string
		isRecurring                        int
	)

	err := row.Scan(
		&reservation.ID,
		&reservation.ResourceID,
		&reservation.UserID,
		&start,
		&end,
		&reservation.Title,
		&description,
		&attendees,
		&status,
		&approvedBy,
		&approvedAt,
		&rejectionReason,
		&checkedInAt,
		&checkedOutAt,
		&isRecurring,
		&pattern,
		&parentID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Reservation{}, mapError(err)
	}

	if reservation.Start, err = parseTime(start, "start_time"); err != nil {
		return persistence.Reservation{}, err
	}
	if reservation.End, err = parseTime(end, "end_time"); err != nil {
		return persistence.Reservation{}, err
	}
	reservation.Description = stringPtr(description)
	reservation.AttendeesCount = intPtr(attendees)
	reservation.Status = lifecycle.Status(status)
	reservation.ApprovedBy = stringPtr(approvedBy)
	if reservation.ApprovedAt, err = timePtr(approvedAt, "approved_at"); err != nil {
		return persistence.Reservation{}, err
	}
	reservation.RejectionReason = stringPtr(rejectionReason)
	if reservation.CheckedInAt, err = timePtr(checkedInAt, "checked_in_at"); err != nil {
		return persistence.Reservation{}, err
	}
	if reservation.CheckedOutAt, err = timePtr(checkedOutAt, "checked_out_at"); err != nil {
		return persistence.Reservation{}, err
	}
	reservation.IsRecurring = isRecurring != 0
	reservation.RecurrencePattern = stringPtr(pattern)
	reservation.ParentReservationID = stringPtr(parentID)

	if reservation.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return persistence.Reservation{}, err
	}
	if reservation.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return persistence.Reservation{}, err
	}
	return reservation, nil
}
