package promotion

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	// ListByTenant returns every promotion of the tenant, active or not, ordered by priority then id.
	ListByTenant(ctx context.Context, tenantID string) ([]domain.Promotion, error)
	GetByID(ctx context.Context, tenantID, id string) (*domain.Promotion, error)
	Create(ctx context.Context, p domain.Promotion) (*domain.Promotion, error)
}
