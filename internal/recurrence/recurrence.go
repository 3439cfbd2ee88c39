// Package recurrence materializes a recurring booking template into the
// ordered sequence of concrete occurrence intervals. Expansion is pure;
// each occurrence is submitted through the reservation pipeline
// independently by the caller.
package recurrence

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Frequency represents supported recurrence cadences.
type Frequency string

const (
	FrequencyDaily  Frequency = "DAILY"
	FrequencyWeekly Frequency = "WEEKLY"
)

// MaxOccurrences bounds expansion so a malformed pattern cannot flood the
// schedule.
const MaxOccurrences = 52

var (
	// ErrInvalidPattern indicates the pattern string could not be parsed.
	ErrInvalidPattern = errors.New("recurrence: invalid pattern")
	// ErrInvalidFrequency indicates an unsupported frequency.
	ErrInvalidFrequency = errors.New("recurrence: invalid frequency")
	// ErrUnbounded indicates the pattern has neither a count nor an until date.
	ErrUnbounded = errors.New("recurrence: pattern requires a count or until date")
	// ErrTooManyOccurrences indicates the pattern expands beyond MaxOccurrences.
	ErrTooManyOccurrences = fmt.Errorf("recurrence: pattern exceeds %d occurrences", MaxOccurrences)
	// ErrInvalidDuration indicates the template interval is empty or negative.
	ErrInvalidDuration = errors.New("recurrence: template duration must be positive")
	// ErrNoOccurrences indicates the pattern's until date falls before the
	// series start, so expansion produces nothing.
	ErrNoOccurrences = errors.New("recurrence: until date precedes the first occurrence")
)

// Pattern describes how a template reservation repeats. Exactly one of
// Count and Until must be set.
type Pattern struct {
	Frequency Frequency
	Interval  int // every N days or weeks; zero means 1
	Count     int
	Until     *time.Time
}

// Occurrence is one concrete interval produced by expansion.
type Occurrence struct {
	Start time.Time
	End   time.Time
}

// Parse decodes the compact stored form, e.g. "WEEKLY;INTERVAL=1;COUNT=4"
// or "DAILY;UNTIL=2026-05-01".
func Parse(value string) (Pattern, error) {
	parts := strings.Split(strings.TrimSpace(value), ";")
	if len(parts) == 0 || parts[0] == "" {
		return Pattern{}, ErrInvalidPattern
	}

	pattern := Pattern{Frequency: Frequency(strings.ToUpper(parts[0])), Interval: 1}
	if pattern.Frequency != FrequencyDaily && pattern.Frequency != FrequencyWeekly {
		return Pattern{}, fmt.Errorf("%w: %q", ErrInvalidFrequency, parts[0])
	}

	for _, part := range parts[1:] {
		key, val, found := strings.Cut(part, "=")
		if !found {
			return Pattern{}, fmt.Errorf("%w: %q", ErrInvalidPattern, part)
		}
		switch strings.ToUpper(strings.TrimSpace(key)) {
		case "INTERVAL":
			interval, err := strconv.Atoi(val)
			if err != nil || interval < 1 {
				return Pattern{}, fmt.Errorf("%w: interval %q", ErrInvalidPattern, val)
			}
			pattern.Interval = interval
		case "COUNT":
			count, err := strconv.Atoi(val)
			if err != nil || count < 1 {
				return Pattern{}, fmt.Errorf("%w: count %q", ErrInvalidPattern, val)
			}
			pattern.Count = count
		case "UNTIL":
			until, err := time.Parse("2006-01-02", val)
			if err != nil {
				return Pattern{}, fmt.Errorf("%w: until %q", ErrInvalidPattern, val)
			}
			pattern.Until = &until
		default:
			return Pattern{}, fmt.Errorf("%w: unknown key %q", ErrInvalidPattern, key)
		}
	}

	if err := pattern.validate(); err != nil {
		return Pattern{}, err
	}
	return pattern, nil
}

// String renders the canonical stored form.
func (p Pattern) String() string {
	var sb strings.Builder
	sb.WriteString(string(p.Frequency))
	sb.WriteString(fmt.Sprintf(";INTERVAL=%d", p.interval()))
	if p.Count > 0 {
		sb.WriteString(fmt.Sprintf(";COUNT=%d", p.Count))
	}
	if p.Until != nil {
		sb.WriteString(";UNTIL=" + p.Until.Format("2006-01-02"))
	}
	return sb.String()
}

func (p Pattern) interval() int {
	if p.Interval < 1 {
		return 1
	}
	return p.Interval
}

func (p Pattern) validate() error {
	if p.Frequency != FrequencyDaily && p.Frequency != FrequencyWeekly {
		return fmt.Errorf("%w: %q", ErrInvalidFrequency, p.Frequency)
	}
	if p.Count == 0 && p.Until == nil {
		return ErrUnbounded
	}
	if p.Count > 0 && p.Until != nil {
		return fmt.Errorf("%w: count and until are mutually exclusive", ErrInvalidPattern)
	}
	if p.Count > MaxOccurrences {
		return ErrTooManyOccurrences
	}
	return nil
}

// Expand generates the ordered occurrence list for the template interval.
// The first occurrence is the template itself. The until date is inclusive:
// occurrences starting on that calendar day are kept.
func Expand(start, end time.Time, pattern Pattern) ([]Occurrence, error) {
	if !end.After(start) {
		return nil, ErrInvalidDuration
	}
	if err := pattern.validate(); err != nil {
		return nil, err
	}

	step := pattern.interval()
	var stepDays int
	switch pattern.Frequency {
	case FrequencyDaily:
		stepDays = step
	case FrequencyWeekly:
		stepDays = step * 7
	}

	var cutoff time.Time
	if pattern.Until != nil {
		until := *pattern.Until
		cutoff = time.Date(until.Year(), until.Month(), until.Day(), 0, 0, 0, 0, start.Location()).AddDate(0, 0, 1)
	}

	duration := end.Sub(start)
	occurrences := make([]Occurrence, 0, pattern.Count)
	for i := 0; ; i++ {
		if pattern.Count > 0 && i >= pattern.Count {
			break
		}
		occStart := start.AddDate(0, 0, i*stepDays)
		if pattern.Until != nil && !occStart.Before(cutoff) {
			break
		}
		if len(occurrences) >= MaxOccurrences {
			return nil, ErrTooManyOccurrences
		}
		occurrences = append(occurrences, Occurrence{Start: occStart, End: occStart.Add(duration)})
	}

	if len(occurrences) == 0 {
		return nil, ErrNoOccurrences
	}
	return occurrences, nil
}
