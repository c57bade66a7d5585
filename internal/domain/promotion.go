package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PromotionType string

const (
	PromotionPercentage   PromotionType = "percentage"
	PromotionFixedAmount  PromotionType = "fixed_amount"
	PromotionBundlePrice  PromotionType = "bundle_price"
	PromotionFixedPrice   PromotionType = "fixed_price"
	PromotionBuyXGetYFree PromotionType = "buy_x_get_y_free"
	PromotionEventBadge   PromotionType = "event_badge"
)

// Promotion is a tenant-configured pricing rule. The meaning of Value depends on Type;
// for buy_x_get_y_free, ProductIDs lists the free products and TriggerProductIDs the
// products whose purchase earns them.
type Promotion struct {
	ID                     string          `json:"id"`
	TenantID               string          `json:"-"`
	Name                   string          `json:"name"`
	Type                   PromotionType   `json:"type"`
	Value                  decimal.Decimal `json:"value"`
	Quantity               *int            `json:"quantity,omitempty"`
	ProductIDs             []string        `json:"productIds,omitempty"`
	BundleProductIDs       []string        `json:"bundleProductIds,omitempty"`
	ApplyAutomatically     bool            `json:"applyAutomatically"`
	Priority               int             `json:"priority"`
	TriggerProductIDs      []string        `json:"triggerProductIds,omitempty"`
	TriggerQuantity        int             `json:"triggerQuantity"`
	FreeQuantityPerTrigger int             `json:"freeQuantityPerTrigger"`
	FreeQuantityMax        *int            `json:"freeQuantityMax,omitempty"`
	ValidFrom              *time.Time      `json:"validFrom,omitempty"`
	ValidUntil             *time.Time      `json:"validUntil,omitempty"`
	CreatedAt              time.Time       `json:"createdAt"`
}
