package store

import (
	"context"

	"github.com/google/uuid"

	"agendaflow/backend/internal/domain"
)

type CatalogRepository interface {
	GetService(ctx context.Context, userID string, id uuid.UUID) (domain.Service, error)
	// ServicesByIDs returns the services that exist; ids with no row are
	// simply absent from the map.
	ServicesByIDs(ctx context.Context, userID string, ids []uuid.UUID) (map[uuid.UUID]domain.Service, error)
	GetClient(ctx context.Context, userID string, id uuid.UUID) (domain.Client, error)
}
