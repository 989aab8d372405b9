package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func appt(t *testing.T, date, clock string, serviceID uuid.UUID) Appointment {
	t.Helper()
	id, err := uuid.NewV7()
	if err != nil {
		t.Fatalf("uuid error: %v", err)
	}
	return Appointment{
		ID:        id,
		UserID:    "u1",
		ServiceID: serviceID,
		Date:      date,
		Time:      clock,
	}
}

func TestHasConflict_OverlappingSlot(t *testing.T) {
	svcID := uuid.New()
	existing := []Appointment{appt(t, "2024-06-10", "09:00", svcID)}
	durations := map[uuid.UUID]Minutes{svcID: 60}

	got, err := HasConflict(ScheduleCandidate{
		Date: "2024-06-10", Time: "09:30", DurationMinutes: 30,
	}, existing, durations)
	if err != nil {
		t.Fatalf("HasConflict error: %v", err)
	}
	if !got {
		t.Fatalf("expected conflict for 09:30 against 09:00+60min")
	}
}

func TestHasConflict_BoundaryTouchDoesNotConflict(t *testing.T) {
	svcID := uuid.New()
	existing := []Appointment{appt(t, "2024-06-10", "09:00", svcID)}
	durations := map[uuid.UUID]Minutes{svcID: 60}

	got, err := HasConflict(ScheduleCandidate{
		Date: "2024-06-10", Time: "10:00", DurationMinutes: 60,
	}, existing, durations)
	if err != nil {
		t.Fatalf("HasConflict error: %v", err)
	}
	if got {
		t.Fatalf("appointment starting at 10:00 must not conflict with one ending at 10:00")
	}
}

func TestHasConflict_Symmetry(t *testing.T) {
	svcID := uuid.New()
	durations := map[uuid.UUID]Minutes{svcID: 45}

	a := appt(t, "2024-06-10", "09:00", svcID)
	b := appt(t, "2024-06-10", "09:30", svcID)

	abConflict, err := HasConflict(ScheduleCandidate{
		Date: a.Date, Time: a.Time, DurationMinutes: durations[svcID],
	}, []Appointment{b}, durations)
	if err != nil {
		t.Fatalf("HasConflict error: %v", err)
	}
	baConflict, err := HasConflict(ScheduleCandidate{
		Date: b.Date, Time: b.Time, DurationMinutes: durations[svcID],
	}, []Appointment{a}, durations)
	if err != nil {
		t.Fatalf("HasConflict error: %v", err)
	}
	if abConflict != baConflict {
		t.Fatalf("conflict check is not symmetric: a-vs-b=%v b-vs-a=%v", abConflict, baConflict)
	}
	if !abConflict {
		t.Fatalf("expected overlapping 45min slots at 09:00 and 09:30 to conflict")
	}
}

func TestHasConflict_DifferentDateIgnored(t *testing.T) {
	svcID := uuid.New()
	existing := []Appointment{appt(t, "2024-06-11", "09:00", svcID)}
	durations := map[uuid.UUID]Minutes{svcID: 60}

	got, err := HasConflict(ScheduleCandidate{
		Date: "2024-06-10", Time: "09:00", DurationMinutes: 60,
	}, existing, durations)
	if err != nil {
		t.Fatalf("HasConflict error: %v", err)
	}
	if got {
		t.Fatalf("appointments on different dates must not conflict")
	}
}

func TestHasConflict_SelfExclusion(t *testing.T) {
	svcID := uuid.New()
	a := appt(t, "2024-06-10", "09:00", svcID)
	durations := map[uuid.UUID]Minutes{svcID: 60}

	got, err := HasConflict(ScheduleCandidate{
		Date: a.Date, Time: a.Time, DurationMinutes: 60, ExcludeID: a.ID,
	}, []Appointment{a}, durations)
	if err != nil {
		t.Fatalf("HasConflict error: %v", err)
	}
	if got {
		t.Fatalf("appointment must not conflict with itself when excluded")
	}
}

func TestHasConflict_MissingServiceSkipped(t *testing.T) {
	existing := []Appointment{appt(t, "2024-06-10", "09:00", uuid.New())}

	got, err := HasConflict(ScheduleCandidate{
		Date: "2024-06-10", Time: "09:00", DurationMinutes: 60,
	}, existing, map[uuid.UUID]Minutes{})
	if err != nil {
		t.Fatalf("HasConflict error: %v", err)
	}
	if got {
		t.Fatalf("appointment with unresolvable service must be skipped, not treated as conflict")
	}
}

func TestHasConflict_UnparseableStoredTimeSkipped(t *testing.T) {
	svcID := uuid.New()
	existing := []Appointment{appt(t, "2024-06-10", "garbage", svcID)}
	durations := map[uuid.UUID]Minutes{svcID: 60}

	got, err := HasConflict(ScheduleCandidate{
		Date: "2024-06-10", Time: "09:00", DurationMinutes: 60,
	}, existing, durations)
	if err != nil {
		t.Fatalf("HasConflict error: %v", err)
	}
	if got {
		t.Fatalf("appointment with unparseable stored time must be skipped, not treated as conflict")
	}
}

func TestHasConflict_InvalidCandidate(t *testing.T) {
	if _, err := HasConflict(ScheduleCandidate{Date: "2024-06-10", Time: "9am", DurationMinutes: 60}, nil, nil); err == nil {
		t.Fatalf("expected error for unparsable candidate time")
	}
	if _, err := HasConflict(ScheduleCandidate{Date: "2024-06-10", Time: "09:00", DurationMinutes: 0}, nil, nil); err == nil {
		t.Fatalf("expected error for zero duration")
	}
}

func TestCombineDateTime(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("LoadLocation error: %v", err)
	}

	got, err := CombineDateTime("2024-06-10", "09:00", loc)
	if err != nil {
		t.Fatalf("CombineDateTime error: %v", err)
	}
	want := time.Date(2024, 6, 10, 9, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Fatalf("combined = %v, want %v", got, want)
	}
	if got.Location() != loc {
		t.Fatalf("location = %v, want %v", got.Location(), loc)
	}

	if _, err := CombineDateTime("10/06/2024", "09:00", loc); err == nil {
		t.Fatalf("expected error for invalid date format")
	}
}
