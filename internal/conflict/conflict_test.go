package conflict

import (
	"testing"
	"time"
)

func at(t *testing.T, hour, min int) time.Time {
	t.Helper()
	return time.Date(2026, 4, 20, hour, min, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name           string
		s1, e1, s2, e2 time.Time
		want           bool
	}{
		{"identical", at(t, 9, 0), at(t, 10, 0), at(t, 9, 0), at(t, 10, 0), true},
		{"partial overlap", at(t, 9, 0), at(t, 10, 0), at(t, 9, 30), at(t, 10, 30), true},
		{"contained", at(t, 9, 0), at(t, 12, 0), at(t, 10, 0), at(t, 11, 0), true},
		{"back to back", at(t, 9, 0), at(t, 10, 0), at(t, 10, 0), at(t, 11, 0), false},
		{"back to back reversed", at(t, 10, 0), at(t, 11, 0), at(t, 9, 0), at(t, 10, 0), false},
		{"disjoint", at(t, 9, 0), at(t, 10, 0), at(t, 13, 0), at(t, 14, 0), false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Overlaps(tc.s1, tc.e1, tc.s2, tc.e2); got != tc.want {
				t.Fatalf("Overlaps(%v) = %v, want %v", tc.name, got, tc.want)
			}
		})
	}
}

func TestDetect(t *testing.T) {
	t.Parallel()

	existing := []Booking{
		{ID: "res-1", ResourceID: "lab-a", Start: at(t, 9, 0), End: at(t, 10, 0)},
		{ID: "res-2", ResourceID: "lab-a", Start: at(t, 11, 0), End: at(t, 12, 0)},
		{ID: "res-3", ResourceID: "lab-b", Start: at(t, 9, 0), End: at(t, 10, 0)},
	}

	t.Run("overlap on same resource is reported", func(t *testing.T) {
		t.Parallel()
		candidate := Booking{ID: "new", ResourceID: "lab-a", Start: at(t, 9, 30), End: at(t, 11, 30)}
		conflicts := Detect(existing, candidate, Options{})
		if len(conflicts) != 2 {
			t.Fatalf("expected 2 conflicts, got %d: %+v", len(conflicts), conflicts)
		}
		if conflicts[0].WithBookingID != "res-1" || conflicts[1].WithBookingID != "res-2" {
			t.Fatalf("unexpected conflict ids: %+v", conflicts)
		}
	})

	t.Run("overlap on different resource is ignored", func(t *testing.T) {
		t.Parallel()
		candidate := Booking{ID: "new", ResourceID: "lab-b", Start: at(t, 11, 0), End: at(t, 12, 0)}
		if conflicts := Detect(existing, candidate, Options{}); conflicts != nil {
			t.Fatalf("expected no conflicts, got %+v", conflicts)
		}
	})

	t.Run("back to back is not a conflict", func(t *testing.T) {
		t.Parallel()
		candidate := Booking{ID: "new", ResourceID: "lab-a", Start: at(t, 10, 0), End: at(t, 11, 0)}
		if conflicts := Detect(existing, candidate, Options{}); conflicts != nil {
			t.Fatalf("expected no conflicts, got %+v", conflicts)
		}
	})

	t.Run("excluded booking is skipped during updates", func(t *testing.T) {
		t.Parallel()
		candidate := Booking{ID: "new", ResourceID: "lab-a", Start: at(t, 9, 15), End: at(t, 9, 45)}
		if conflicts := Detect(existing, candidate, Options{ExcludeBookingID: "res-1"}); conflicts != nil {
			t.Fatalf("expected no conflicts, got %+v", conflicts)
		}
	})
}
