package tenant

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	GetByKey(ctx context.Context, key string) (*domain.Tenant, error)
	Create(ctx context.Context, tenant *domain.Tenant) (*domain.Tenant, error)
}
