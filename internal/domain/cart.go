package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	CartStateActive  = "active"
	CartStateDeleted = "deleted"
)

type Cart struct {
	ID         string          `json:"id"`
	TenantID   string          `json:"-"`
	SessionID  *string         `json:"sessionId,omitempty"`
	Currency   string          `json:"currency"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	ItemsCount int             `json:"itemsCount"`
	State      string          `json:"state"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
	Lines      []CartLine      `json:"lineItems,omitempty"`
}

// CartLine is one product entry of a cart. PriceSnapshot, PromotionID and
// QuantityFree are owned by the pricing engine and rewritten on every recalculation.
type CartLine struct {
	ID            string                 `json:"id"`
	CartID        string                 `json:"cartId"`
	ProductID     string                 `json:"productId"`
	Quantity      int                    `json:"quantity"`
	PriceSnapshot decimal.Decimal        `json:"priceSnapshot"`
	PromotionID   *string                `json:"promotionId,omitempty"`
	QuantityFree  int                    `json:"quantityFree"`
	Snapshot      map[string]interface{} `json:"snapshot,omitempty"`
	CreatedAt     time.Time              `json:"createdAt"`
}

// PaidQuantity is the number of units charged at PriceSnapshot.
func (l CartLine) PaidQuantity() int {
	return l.Quantity - l.QuantityFree
}
