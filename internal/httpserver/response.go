package httpserver

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/pricing"
	productsvc "storefront/internal/service/product"
)

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

type productResponse struct {
	ID          string         `json:"id"`
	Key         string         `json:"key"`
	SKU         string         `json:"sku"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Price       string         `json:"price"`
	Currency    string         `json:"currency"`
	Images      []string       `json:"images,omitempty"`
	Promotions  []promotionTag `json:"promotions"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// promotionTag is the short form of a running promotion shown on a product.
type promotionTag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

func toProductResponse(l productsvc.Listing) productResponse {
	p := l.Product
	out := productResponse{
		ID:          p.ID,
		Key:         p.Key,
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		Price:       money(p.Price),
		Currency:    p.Currency,
		Images:      parseImageList(p.Attributes["images"]),
		Promotions:  make([]promotionTag, 0, len(l.Promotions)),
		CreatedAt:   p.CreatedAt,
	}
	for _, promo := range l.Promotions {
		out.Promotions = append(out.Promotions, promotionTag{ID: promo.ID, Name: promo.Name, Type: string(promo.Type)})
	}
	return out
}

type promotionResponse struct {
	ID                     string     `json:"id"`
	Name                   string     `json:"name"`
	Type                   string     `json:"type"`
	Value                  string     `json:"value"`
	Quantity               *int       `json:"quantity,omitempty"`
	ProductIDs             []string   `json:"productIds"`
	BundleProductIDs       []string   `json:"bundleProductIds,omitempty"`
	ApplyAutomatically     bool       `json:"applyAutomatically"`
	Priority               int        `json:"priority"`
	TriggerProductIDs      []string   `json:"triggerProductIds,omitempty"`
	TriggerQuantity        int        `json:"triggerQuantity,omitempty"`
	FreeQuantityPerTrigger int        `json:"freeQuantityPerTrigger,omitempty"`
	FreeQuantityMax        *int       `json:"freeQuantityMax,omitempty"`
	ValidFrom              *time.Time `json:"validFrom,omitempty"`
	ValidUntil             *time.Time `json:"validUntil,omitempty"`
}

func toPromotionResponse(p domain.Promotion) promotionResponse {
	out := promotionResponse{
		ID:                 p.ID,
		Name:               p.Name,
		Type:               string(p.Type),
		Value:              money(p.Value),
		Quantity:           p.Quantity,
		ProductIDs:         p.ProductIDs,
		BundleProductIDs:   p.BundleProductIDs,
		ApplyAutomatically: p.ApplyAutomatically,
		Priority:           p.Priority,
		ValidFrom:          p.ValidFrom,
		ValidUntil:         p.ValidUntil,
	}
	if out.ProductIDs == nil {
		out.ProductIDs = []string{}
	}
	if p.Type == domain.PromotionBuyXGetYFree {
		out.TriggerProductIDs = p.TriggerProductIDs
		out.TriggerQuantity = p.TriggerQuantity
		out.FreeQuantityPerTrigger = p.FreeQuantityPerTrigger
		out.FreeQuantityMax = p.FreeQuantityMax
	}
	return out
}

type cartResponse struct {
	ID         string             `json:"id"`
	Currency   string             `json:"currency"`
	State      string             `json:"state"`
	SessionID  *string            `json:"sessionId,omitempty"`
	LineItems  []lineItemResponse `json:"lineItems"`
	Subtotal   string             `json:"subtotal"`
	ItemsCount int                `json:"itemsCount"`
	CreatedAt  time.Time          `json:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt"`
}

type lineItemResponse struct {
	ID           string   `json:"id"`
	ProductID    string   `json:"productId"`
	ProductName  string   `json:"productName"`
	ProductSlug  string   `json:"productSlug,omitempty"`
	SKU          string   `json:"sku,omitempty"`
	Images       []string `json:"images,omitempty"`
	Quantity     int      `json:"quantity"`
	QuantityFree int      `json:"quantityFree"`
	PaidQuantity int      `json:"paidQuantity"`
	UnitPrice    string   `json:"unitPrice"`
	PromotionID  *string  `json:"promotionId"`
	LineTotal    string   `json:"lineTotal"`
}

func toCartResponse(cart domain.Cart) cartResponse {
	items := make([]lineItemResponse, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		snap := parseLineSnapshot(line.Snapshot)
		name := snap.ProductName
		if name == "" {
			name = snap.ProductKey
		}
		if name == "" {
			name = line.ProductID
		}
		slug := snap.ProductSlug
		if slug == "" {
			slug = snap.ProductKey
		}
		items = append(items, lineItemResponse{
			ID:           line.ID,
			ProductID:    line.ProductID,
			ProductName:  name,
			ProductSlug:  slug,
			SKU:          snap.SKU,
			Images:       snap.Images,
			Quantity:     line.Quantity,
			QuantityFree: line.QuantityFree,
			PaidQuantity: line.PaidQuantity(),
			UnitPrice:    money(line.PriceSnapshot),
			PromotionID:  line.PromotionID,
			LineTotal:    money(pricing.LineTotal(line)),
		})
	}

	state := strings.ToLower(strings.TrimSpace(cart.State))
	if state == "" {
		state = domain.CartStateActive
	}
	return cartResponse{
		ID:         cart.ID,
		Currency:   cart.Currency,
		State:      state,
		SessionID:  cart.SessionID,
		LineItems:  items,
		Subtotal:   money(cart.Subtotal),
		ItemsCount: cart.ItemsCount,
		CreatedAt:  cart.CreatedAt,
		UpdatedAt:  cart.UpdatedAt,
	}
}

type cartLineSnapshot struct {
	ProductKey  string
	ProductName string
	SKU         string
	ProductSlug string
	Images      []string
}

func parseLineSnapshot(raw map[string]interface{}) cartLineSnapshot {
	var out cartLineSnapshot
	if raw == nil {
		return out
	}
	if v, ok := raw["productKey"].(string); ok {
		out.ProductKey = v
	}
	if v, ok := raw["productName"].(string); ok {
		out.ProductName = v
	}
	if v, ok := raw["sku"].(string); ok {
		out.SKU = v
	}
	if v, ok := raw["productSlug"].(string); ok {
		out.ProductSlug = v
	}
	out.Images = parseImageList(raw["images"])
	return out
}

func parseImageList(raw interface{}) []string {
	var out []string
	switch v := raw.(type) {
	case []string:
		for _, s := range v {
			if strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
