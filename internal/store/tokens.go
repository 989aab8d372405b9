package store

import (
	"context"
	"time"

	"agendaflow/backend/internal/domain"
)

type CalendarTokenRepository interface {
	Get(ctx context.Context, userID string) (domain.CalendarToken, error)
	// Save upserts the token pair for a practitioner (calendar connect).
	Save(ctx context.Context, token domain.CalendarToken) (domain.CalendarToken, error)
	UpdateAccess(ctx context.Context, userID, accessToken string, expiresAt time.Time) error
	Delete(ctx context.Context, userID string) error
}
