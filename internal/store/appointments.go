package store

import (
	"context"

	"github.com/google/uuid"

	"agendaflow/backend/internal/domain"
)

type AppointmentRepository interface {
	// InUserTransaction runs fn inside a transaction holding the
	// practitioner's schedule lock, so a conflict check and the write it
	// guards see the same committed state.
	InUserTransaction(ctx context.Context, userID string, fn func(ctx context.Context, tx ScheduleTx) error) error

	GetByID(ctx context.Context, userID string, id uuid.UUID) (domain.Appointment, error)
	ListByDate(ctx context.Context, userID, date string) ([]domain.Appointment, error)
	ListUnsynced(ctx context.Context, userID string) ([]domain.Appointment, error)
	ListUsersWithUnsynced(ctx context.Context) ([]string, error)
	SetSyncState(ctx context.Context, id uuid.UUID, eventID *string, synced bool) error
	Delete(ctx context.Context, userID string, id uuid.UUID) error
}

type ScheduleTx interface {
	ListAppointments(ctx context.Context, userID, date string) ([]domain.Appointment, error)
	GetAppointment(ctx context.Context, userID string, id uuid.UUID) (domain.Appointment, error)
	InsertAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
	UpdateAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
}
