package product

import (
	"context"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

type Repository interface {
	ListByTenant(ctx context.Context, tenantID string) ([]domain.Product, error)
	GetByID(ctx context.Context, tenantID, id string) (*domain.Product, error)
	GetBySKU(ctx context.Context, tenantID, sku string) (*domain.Product, error)
	// PricesByIDs returns the current catalog price of each requested product.
	// Unknown ids are absent from the result.
	PricesByIDs(ctx context.Context, tenantID string, ids []string) (map[string]decimal.Decimal, error)
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}
