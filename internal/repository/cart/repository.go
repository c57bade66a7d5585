package cart

import (
	"context"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

type CreateCartInput struct {
	TenantID  string
	SessionID *string
	Currency  string
}

type Repository interface {
	Create(ctx context.Context, in CreateCartInput) (*domain.Cart, error)
	GetByID(ctx context.Context, tenantID, id string) (*domain.Cart, error)
	GetActiveBySession(ctx context.Context, tenantID, sessionID string) (*domain.Cart, error)
	// AddLineItem adds quantity units of product, merging into an existing line of the same product.
	AddLineItem(ctx context.Context, cartID string, product domain.Product, quantity int, snapshot map[string]interface{}) error
	// ChangeLineItemQuantity sets a line's quantity; a quantity <= 0 deletes the line.
	ChangeLineItemQuantity(ctx context.Context, cartID, lineItemID string, quantity int) error
	RemoveLineItem(ctx context.Context, cartID, lineItemID string) error
	SetLinePromotion(ctx context.Context, cartID, lineItemID string, promotionID *string) error
	// UpdateLinePricing persists the engine-owned fields of one line.
	UpdateLinePricing(ctx context.Context, cartID string, line domain.CartLine) error
	UpdateTotals(ctx context.Context, cartID string, subtotal decimal.Decimal, itemsCount int) error
	SetState(ctx context.Context, tenantID, cartID, state string) error
}
