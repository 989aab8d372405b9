package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"agendaflow/backend/internal/domain"
	"agendaflow/backend/internal/store"
)

type CatalogRepo struct {
	db *bun.DB
}

func NewCatalogRepo(db *bun.DB) *CatalogRepo {
	return &CatalogRepo{db: db}
}

func (r *CatalogRepo) GetService(ctx context.Context, userID string, id uuid.UUID) (domain.Service, error) {
	var s domain.Service
	err := r.db.NewSelect().
		Model(&s).
		Where("user_id = ?", userID).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Service{}, store.ErrNotFound
		}
		return domain.Service{}, err
	}
	return s, nil
}

func (r *CatalogRepo) ServicesByIDs(ctx context.Context, userID string, ids []uuid.UUID) (map[uuid.UUID]domain.Service, error) {
	out := make(map[uuid.UUID]domain.Service, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []domain.Service
	err := r.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		Where("id IN (?)", bun.In(ids)).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range rows {
		out[s.ID] = s
	}
	return out, nil
}

func (r *CatalogRepo) GetClient(ctx context.Context, userID string, id uuid.UUID) (domain.Client, error) {
	var c domain.Client
	err := r.db.NewSelect().
		Model(&c).
		Where("user_id = ?", userID).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Client{}, store.ErrNotFound
		}
		return domain.Client{}, err
	}
	return c, nil
}
