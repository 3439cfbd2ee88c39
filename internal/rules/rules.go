// Package rules evaluates a resource's configured reservation rules against
// a proposed booking. Each rule kind has a pure evaluation function so kinds
// can be unit tested in isolation and new kinds added without touching the
// engine loop.
package rules

import (
	"fmt"
	"sort"
	"time"
)

// Kind identifies the closed set of supported rule variants.
type Kind string

const (
	// KindOperatingHours requires bookings to fall inside a weekly window.
	KindOperatingHours Kind = "OPERATING_HOURS"
	// KindBlackout rejects bookings overlapping a blocked window.
	KindBlackout Kind = "BLACKOUT"
	// KindUserQuota caps a user's live bookings per day or week, by count
	// or by booked hours.
	KindUserQuota Kind = "USER_QUOTA"
	// KindAdvanceNotice requires a minimum lead time before the start.
	KindAdvanceNotice Kind = "ADVANCE_NOTICE"
)

// TimeOfDay is a wall-clock time without a date, used for rule windows.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// Minutes returns the offset from midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// String renders the canonical HH:MM form.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseTimeOfDay parses the HH:MM form.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	var tod TimeOfDay
	if _, err := fmt.Sscanf(value, "%d:%d", &tod.Hour, &tod.Minute); err != nil {
		return TimeOfDay{}, fmt.Errorf("rules: invalid time of day %q", value)
	}
	if tod.Hour < 0 || tod.Hour > 23 || tod.Minute < 0 || tod.Minute > 59 {
		return TimeOfDay{}, fmt.Errorf("rules: invalid time of day %q", value)
	}
	return tod, nil
}

// Rule is one configured constraint. Optional fields are pointers; nil means
// the dimension is unconstrained.
type Rule struct {
	ID          string
	ResourceID  string // empty applies to every resource
	Kind        Kind
	Name        string
	Description string

	DayOfWeek   *time.Weekday
	WindowStart *TimeOfDay
	WindowEnd   *TimeOfDay
	StartDate   *time.Time
	EndDate     *time.Time

	MaxReservationsPerDay  *int
	MaxReservationsPerWeek *int
	MaxHoursPerDay         *int
	MaxHoursPerWeek        *int
	MinAdvanceHours        *int

	Priority int
	Active   bool
}

// Booking is an existing live reservation considered by quota rules.
type Booking struct {
	Start time.Time
	End   time.Time
}

// Proposed is the booking under evaluation.
type Proposed struct {
	ResourceID string
	UserID     string
	Start      time.Time
	End        time.Time
}

// ResourceLimits carries the booking constraints stored on the resource
// itself; the engine evaluates them ahead of the configured rule list.
type ResourceLimits struct {
	AdvanceBookingDays int
	WeekStartsOn       time.Weekday
}

// Violation reports the first rule a proposed booking breaks.
type Violation struct {
	RuleID   string
	RuleName string
	Kind     Kind
	Limit    int
	Message  string
}

// Input bundles everything a single evaluation needs. Existing must contain
// the requesting user's live bookings on the resource, read inside the same
// transactional boundary as the eventual insert.
type Input struct {
	Proposed Proposed
	Existing []Booking
	Resource ResourceLimits
	Now      time.Time
}

// Evaluate applies the resource-level advance window followed by every
// active applicable rule in ascending priority order and returns the first
// violation, or nil when the booking passes.
func Evaluate(ruleSet []Rule, in Input) *Violation {
	if v := evaluateAdvanceWindow(in); v != nil {
		return v
	}

	ordered := make([]Rule, 0, len(ruleSet))
	for _, rule := range ruleSet {
		if !rule.Active {
			continue
		}
		if rule.ResourceID != "" && rule.ResourceID != in.Proposed.ResourceID {
			continue
		}
		ordered = append(ordered, rule)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Priority == ordered[j].Priority {
			return ordered[i].ID < ordered[j].ID
		}
		return ordered[i].Priority < ordered[j].Priority
	})

	for _, rule := range ordered {
		var violation *Violation
		switch rule.Kind {
		case KindOperatingHours:
			violation = evaluateOperatingHours(rule, in.Proposed)
		case KindBlackout:
			violation = evaluateBlackout(rule, in.Proposed)
		case KindUserQuota:
			violation = evaluateUserQuota(rule, in)
		case KindAdvanceNotice:
			violation = evaluateAdvanceNotice(rule, in)
		}
		if violation != nil {
			return violation
		}
	}
	return nil
}

// evaluateAdvanceWindow enforces the resource's advance_booking_days bound
// and rejects bookings starting in the past.
func evaluateAdvanceWindow(in Input) *Violation {
	p := in.Proposed
	if !p.Start.After(in.Now) {
		return &Violation{
			Kind:    KindAdvanceNotice,
			Message: "reservation must start in the future",
		}
	}
	if in.Resource.AdvanceBookingDays > 0 {
		horizon := in.Now.AddDate(0, 0, in.Resource.AdvanceBookingDays)
		if p.Start.After(horizon) {
			return &Violation{
				Kind:    KindAdvanceNotice,
				Limit:   in.Resource.AdvanceBookingDays,
				Message: fmt.Sprintf("cannot book more than %d days in advance", in.Resource.AdvanceBookingDays),
			}
		}
	}
	return nil
}

func evaluateOperatingHours(rule Rule, p Proposed) *Violation {
	if !dateRangeApplies(rule, p.Start) {
		return nil
	}
	if rule.DayOfWeek != nil && p.Start.Weekday() != *rule.DayOfWeek {
		return nil
	}
	if rule.WindowStart == nil || rule.WindowEnd == nil {
		return nil
	}

	startMin := minutesIntoDay(p.Start)
	endMin := minutesIntoDay(p.End)
	if !sameDay(p.Start, p.End) {
		endMin = 24 * 60
	}
	if startMin < rule.WindowStart.Minutes() || endMin > rule.WindowEnd.Minutes() {
		return &Violation{
			RuleID:   rule.ID,
			RuleName: rule.Name,
			Kind:     rule.Kind,
			Message:  fmt.Sprintf("reservations are only allowed between %s and %s", rule.WindowStart, rule.WindowEnd),
		}
	}
	return nil
}

func evaluateBlackout(rule Rule, p Proposed) *Violation {
	if !dateRangeOverlaps(rule, p.Start, p.End) {
		return nil
	}
	if rule.DayOfWeek != nil && p.Start.Weekday() != *rule.DayOfWeek {
		return nil
	}

	// A blackout without a time-of-day window blocks the whole matching
	// date range or weekday.
	if rule.WindowStart == nil || rule.WindowEnd == nil {
		return &Violation{
			RuleID:   rule.ID,
			RuleName: rule.Name,
			Kind:     rule.Kind,
			Message:  "the requested period is blocked for this resource",
		}
	}

	startMin := minutesIntoDay(p.Start)
	endMin := minutesIntoDay(p.End)
	if !sameDay(p.Start, p.End) {
		endMin = 24 * 60
	}
	if startMin < rule.WindowEnd.Minutes() && rule.WindowStart.Minutes() < endMin {
		return &Violation{
			RuleID:   rule.ID,
			RuleName: rule.Name,
			Kind:     rule.Kind,
			Message:  fmt.Sprintf("the %s-%s window is blocked for this resource", rule.WindowStart, rule.WindowEnd),
		}
	}
	return nil
}

func evaluateUserQuota(rule Rule, in Input) *Violation {
	p := in.Proposed

	if rule.MaxReservationsPerDay != nil {
		count := countWithin(in.Existing, startOfDay(p.Start), startOfDay(p.Start).AddDate(0, 0, 1))
		if count+1 > *rule.MaxReservationsPerDay {
			return quotaViolation(rule, *rule.MaxReservationsPerDay, "daily reservation limit of %d reached")
		}
	}
	if rule.MaxReservationsPerWeek != nil {
		weekStart := startOfWeek(p.Start, in.Resource.WeekStartsOn)
		count := countWithin(in.Existing, weekStart, weekStart.AddDate(0, 0, 7))
		if count+1 > *rule.MaxReservationsPerWeek {
			return quotaViolation(rule, *rule.MaxReservationsPerWeek, "weekly reservation limit of %d reached")
		}
	}
	if rule.MaxHoursPerDay != nil {
		booked := hoursWithin(in.Existing, startOfDay(p.Start), startOfDay(p.Start).AddDate(0, 0, 1))
		if booked+p.End.Sub(p.Start).Hours() > float64(*rule.MaxHoursPerDay) {
			return quotaViolation(rule, *rule.MaxHoursPerDay, "daily booked-hours limit of %d reached")
		}
	}
	if rule.MaxHoursPerWeek != nil {
		weekStart := startOfWeek(p.Start, in.Resource.WeekStartsOn)
		booked := hoursWithin(in.Existing, weekStart, weekStart.AddDate(0, 0, 7))
		if booked+p.End.Sub(p.Start).Hours() > float64(*rule.MaxHoursPerWeek) {
			return quotaViolation(rule, *rule.MaxHoursPerWeek, "weekly booked-hours limit of %d reached")
		}
	}
	return nil
}

func evaluateAdvanceNotice(rule Rule, in Input) *Violation {
	if rule.MinAdvanceHours == nil {
		return nil
	}
	lead := in.Proposed.Start.Sub(in.Now)
	if lead < time.Duration(*rule.MinAdvanceHours)*time.Hour {
		return &Violation{
			RuleID:   rule.ID,
			RuleName: rule.Name,
			Kind:     rule.Kind,
			Limit:    *rule.MinAdvanceHours,
			Message:  fmt.Sprintf("reservations require at least %d hours notice", *rule.MinAdvanceHours),
		}
	}
	return nil
}

func quotaViolation(rule Rule, limit int, format string) *Violation {
	return &Violation{
		RuleID:   rule.ID,
		RuleName: rule.Name,
		Kind:     rule.Kind,
		Limit:    limit,
		Message:  fmt.Sprintf(format, limit),
	}
}

func dateRangeApplies(rule Rule, at time.Time) bool {
	if rule.StartDate != nil && at.Before(*rule.StartDate) {
		return false
	}
	if rule.EndDate != nil && !at.Before(*rule.EndDate) {
		return false
	}
	return true
}

func dateRangeOverlaps(rule Rule, start, end time.Time) bool {
	if rule.StartDate != nil && !end.After(*rule.StartDate) {
		return false
	}
	if rule.EndDate != nil && !start.Before(*rule.EndDate) {
		return false
	}
	return true
}

func countWithin(bookings []Booking, from, to time.Time) int {
	count := 0
	for _, booking := range bookings {
		if booking.Start.Before(to) && from.Before(booking.End) {
			count++
		}
	}
	return count
}

// hoursWithin sums booked time inside [from, to). Bookings straddling the
// window boundary are clipped so only the portion inside the window counts.
func hoursWithin(bookings []Booking, from, to time.Time) float64 {
	total := 0.0
	for _, booking := range bookings {
		start, end := booking.Start, booking.End
		if start.Before(from) {
			start = from
		}
		if end.After(to) {
			end = to
		}
		if start.Before(end) {
			total += end.Sub(start).Hours()
		}
	}
	return total
}

func minutesIntoDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// startOfWeek returns midnight of the most recent occurrence of the
// configured week start weekday.
func startOfWeek(t time.Time, weekStart time.Weekday) time.Time {
	day := startOfDay(t)
	offset := (int(day.Weekday()) - int(weekStart) + 7) % 7
	return day.AddDate(0, 0, -offset)
}
