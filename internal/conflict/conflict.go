// Package conflict decides whether a proposed booking interval collides
// with existing live bookings on the same resource. Intervals are half-open
// [start, end): back-to-back bookings sharing a boundary never conflict.
package conflict

import "time"

// Booking is the minimal view of a reservation needed for overlap checks.
type Booking struct {
	ID         string
	ResourceID string
	UserID     string
	Start      time.Time
	End        time.Time
}

// Conflict names an existing booking that collides with the candidate.
type Conflict struct {
	WithBookingID string
	Start         time.Time
	End           time.Time
}

// Overlaps reports whether two half-open intervals intersect.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// Options tunes conflict detection.
type Options struct {
	// ExcludeBookingID skips one booking, used when re-checking an update
	// against the schedule it already occupies.
	ExcludeBookingID string
}

// Detect returns every existing booking whose interval overlaps the
// candidate interval on the same resource. Callers are expected to pass
// only live bookings; Detect does not inspect status.
func Detect(existing []Booking, candidate Booking, opts Options) []Conflict {
	var conflicts []Conflict
	for _, booking := range existing {
		if booking.ID == candidate.ID {
			continue
		}
		if opts.ExcludeBookingID != "" && booking.ID == opts.ExcludeBookingID {
			continue
		}
		if booking.ResourceID != candidate.ResourceID {
			continue
		}
		if Overlaps(candidate.Start, candidate.End, booking.Start, booking.End) {
			conflicts = append(conflicts, Conflict{
				WithBookingID: booking.ID,
				Start:         booking.Start,
				End:           booking.End,
			})
		}
	}
	return conflicts
}
