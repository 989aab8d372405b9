package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// ScheduleCandidate is a proposed booking slot checked against the existing
// appointments of the same day.
type ScheduleCandidate struct {
	Date            string
	Time            string
	DurationMinutes Minutes
	// ExcludeID removes one appointment from consideration, so an edit never
	// conflicts with the slot it already occupies.
	ExcludeID uuid.UUID
}

// HasConflict reports whether the candidate slot overlaps any existing
// appointment on the same date. Durations of existing appointments come from
// serviceDurations keyed by service id; an appointment whose service is
// missing from the map is skipped, not treated as a conflict. Intervals are
// half-open, so a booking ending at 10:00 does not conflict with one starting
// at 10:00.
func HasConflict(c ScheduleCandidate, existing []Appointment, serviceDurations map[uuid.UUID]Minutes) (bool, error) {
	start, err := minutesOfDay(c.Time)
	if err != nil {
		return false, fmt.Errorf("candidate time: %w", err)
	}
	if c.DurationMinutes <= 0 {
		return false, fmt.Errorf("candidate duration must be positive, got %d", c.DurationMinutes)
	}
	end := start + int(c.DurationMinutes)

	for _, a := range existing {
		if a.Date != c.Date {
			continue
		}
		if c.ExcludeID != uuid.Nil && a.ID == c.ExcludeID {
			continue
		}
		dur, ok := serviceDurations[a.ServiceID]
		if !ok || dur <= 0 {
			continue
		}
		aStart, err := minutesOfDay(a.Time)
		if err != nil {
			continue
		}
		aEnd := aStart + int(dur)
		if start < aEnd && aStart < end {
			return true, nil
		}
	}
	return false, nil
}

func minutesOfDay(clock string) (int, error) {
	t, err := time.Parse(TimeLayout, clock)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// CombineDateTime resolves a naive (date, time) pair in the practitioner's
// business timezone. Conversion to other zones happens only at the calendar
// provider boundary.
func CombineDateTime(date, clock string, loc *time.Location) (time.Time, error) {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	t, err := time.Parse(TimeLayout, clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", clock, err)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}
