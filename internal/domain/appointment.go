package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusConfirmed, AppointmentStatusCancelled:
		return true
	}
	return false
}

type Appointment struct {
	bun.BaseModel `bun:"table:appointments"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	UserID    string    `bun:"user_id,notnull"`
	ClientID  uuid.UUID `bun:"client_id,notnull,type:uuid"`
	ServiceID uuid.UUID `bun:"service_id,notnull,type:uuid"`

	// ServiceName is a snapshot taken when the appointment is created or
	// repointed to a different service. It is intentionally not kept in sync
	// with later renames of the service itself.
	ServiceName string `bun:"service,notnull"`

	Date   string            `bun:"date,notnull"`
	Time   string            `bun:"time,notnull"`
	Price  float64           `bun:"price,notnull"`
	Status AppointmentStatus `bun:"status,notnull"`

	// GoogleEventID may be stale after a partially completed sync attempt;
	// SyncedToGoogle is the authoritative gate for update/delete sync.
	GoogleEventID  *string `bun:"google_event_id"`
	SyncedToGoogle bool    `bun:"is_synced_to_google,notnull"`

	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

func (a *Appointment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if a.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			a.ID = id
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		if a.UpdatedAt.IsZero() {
			a.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		a.UpdatedAt = now
	}
	return nil
}
