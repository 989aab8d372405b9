package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CalendarToken is the practitioner's Google OAuth token pair. One row per
// user; the access token and expiry are rewritten on refresh, the refresh
// token only on reconnect.
type CalendarToken struct {
	bun.BaseModel `bun:"table:calendar_tokens"`

	ID           uuid.UUID `bun:"id,pk,type:uuid"`
	UserID       string    `bun:"user_id,notnull,unique"`
	AccessToken  string    `bun:"access_token,notnull"`
	RefreshToken string    `bun:"refresh_token,notnull"`
	ExpiresAt    time.Time `bun:"expires_at,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
	UpdatedAt    time.Time `bun:"updated_at,notnull"`
}

func (t *CalendarToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

func (t *CalendarToken) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if t.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			t.ID = id
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		if t.UpdatedAt.IsZero() {
			t.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		t.UpdatedAt = now
	}
	return nil
}
