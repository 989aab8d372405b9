package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"agendaflow/backend/internal/domain"
	"agendaflow/backend/internal/store"
)

type CalendarTokenRepo struct {
	db *bun.DB
}

func NewCalendarTokenRepo(db *bun.DB) *CalendarTokenRepo {
	return &CalendarTokenRepo{db: db}
}

func (r *CalendarTokenRepo) Get(ctx context.Context, userID string) (domain.CalendarToken, error) {
	var t domain.CalendarToken
	err := r.db.NewSelect().
		Model(&t).
		Where("user_id = ?", userID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.CalendarToken{}, store.ErrNotFound
		}
		return domain.CalendarToken{}, err
	}
	return t, nil
}

func (r *CalendarTokenRepo) Save(ctx context.Context, token domain.CalendarToken) (domain.CalendarToken, error) {
	m := token
	_, err := r.db.NewInsert().
		Model(&m).
		On("CONFLICT (user_id) DO UPDATE").
		Set("access_token = EXCLUDED.access_token").
		Set("refresh_token = EXCLUDED.refresh_token").
		Set("expires_at = EXCLUDED.expires_at").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return domain.CalendarToken{}, err
	}
	return m, nil
}

// UpdateAccess rewrites only the access token and expiry after a refresh
// grant. Last write wins for concurrent refreshes; both derive from the same
// refresh token and are equally valid.
func (r *CalendarTokenRepo) UpdateAccess(ctx context.Context, userID, accessToken string, expiresAt time.Time) error {
	res, err := r.db.NewUpdate().
		Model((*domain.CalendarToken)(nil)).
		Set("access_token = ?", accessToken).
		Set("expires_at = ?", expiresAt).
		Set("updated_at = now()").
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *CalendarTokenRepo) Delete(ctx context.Context, userID string) error {
	res, err := r.db.NewDelete().
		Model((*domain.CalendarToken)(nil)).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}
