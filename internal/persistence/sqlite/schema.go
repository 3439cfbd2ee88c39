package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations are applied in order; PRAGMA user_version records the last
// applied index so restarts are cheap and idempotent.
var migrations = []string{
	`CREATE TABLE resources (
		id                      TEXT PRIMARY KEY,
		name                    TEXT NOT NULL,
		code                    TEXT NOT NULL UNIQUE,
		description             TEXT,
		resource_type           TEXT NOT NULL,
		location                TEXT,
		building                TEXT,
		floor                   TEXT,
		capacity                INTEGER,
		features                TEXT,
		status                  TEXT NOT NULL DEFAULT 'AVAILABLE',
		is_active               INTEGER NOT NULL DEFAULT 1,
		min_reservation_minutes INTEGER NOT NULL,
		max_reservation_minutes INTEGER NOT NULL,
		advance_booking_days    INTEGER NOT NULL,
		requires_approval       INTEGER NOT NULL DEFAULT 0,
		week_starts_on          INTEGER NOT NULL DEFAULT 1,
		responsible_user_id     TEXT,
		created_at              TEXT NOT NULL,
		updated_at              TEXT NOT NULL,
		CHECK (min_reservation_minutes > 0),
		CHECK (max_reservation_minutes >= min_reservation_minutes),
		CHECK (advance_booking_days >= 0)
	)`,
	`CREATE TABLE reservation_rules (
		id                        TEXT PRIMARY KEY,
		resource_id               TEXT REFERENCES resources(id) ON DELETE CASCADE,
		rule_type                 TEXT NOT NULL,
		name                      TEXT NOT NULL,
		description               TEXT,
		day_of_week               INTEGER,
		window_start              TEXT,
		window_end                TEXT,
		start_date                TEXT,
		end_date                  TEXT,
		max_reservations_per_day  INTEGER,
		max_reservations_per_week INTEGER,
		max_hours_per_day         INTEGER,
		max_hours_per_week        INTEGER,
		min_advance_hours         INTEGER,
		is_active                 INTEGER NOT NULL DEFAULT 1,
		priority                  INTEGER NOT NULL DEFAULT 0,
		created_at                TEXT NOT NULL,
		updated_at                TEXT NOT NULL
	)`,
	`CREATE INDEX idx_rules_resource ON reservation_rules(resource_id)`,
	`CREATE TABLE reservations (
		id                    TEXT PRIMARY KEY,
		resource_id           TEXT NOT NULL REFERENCES resources(id),
		user_id               TEXT NOT NULL,
		start_time            TEXT NOT NULL,
		end_time              TEXT NOT NULL,
		title                 TEXT NOT NULL,
		description           TEXT,
		attendees_count       INTEGER,
		status                TEXT NOT NULL DEFAULT 'PENDING',
		approved_by           TEXT,
		approved_at           TEXT,
		rejection_reason      TEXT,
		checked_in_at         TEXT,
		checked_out_at        TEXT,
		is_recurring          INTEGER NOT NULL DEFAULT 0,
		recurrence_pattern    TEXT,
		parent_reservation_id TEXT REFERENCES reservations(id),
		created_at            TEXT NOT NULL,
		updated_at            TEXT NOT NULL,
		CHECK (end_time > start_time)
	)`,
	`CREATE INDEX idx_reservations_resource_window ON reservations(resource_id, start_time)`,
	`CREATE INDEX idx_reservations_user ON reservations(user_id, start_time)`,
	`CREATE INDEX idx_reservations_status ON reservations(status)`,
	`CREATE TABLE user_sanctions (
		id               TEXT PRIMARY KEY,
		user_id          TEXT NOT NULL,
		reservation_id   TEXT REFERENCES reservations(id),
		sanction_type    TEXT NOT NULL,
		reason           TEXT NOT NULL,
		description      TEXT,
		start_date       TEXT NOT NULL,
		end_date         TEXT,
		applied_by       TEXT NOT NULL,
		is_resolved      INTEGER NOT NULL DEFAULT 0,
		resolved_at      TEXT,
		resolved_by      TEXT,
		resolution_notes TEXT,
		created_at       TEXT NOT NULL
	)`,
	`CREATE INDEX idx_sanctions_user ON user_sanctions(user_id, is_resolved)`,
}

// Migrate brings the schema up to date.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	var version int
	if err := cp.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for i := version; i < len(migrations); i++ {
		statement := migrations[i]
		err := cp.WithTransaction(ctx, func(tx *sql.Tx) error {
			if _, err := tx.Exec(statement); err != nil {
				return fmt.Errorf("apply migration %d: %w", i+1, err)
			}
			if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
				return fmt.Errorf("record schema version %d: %w", i+1, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}
