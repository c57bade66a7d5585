package pricing

import (
	"time"

	"storefront/internal/domain"
)

// IsActive reports whether now falls inside the promotion's validity window.
// Missing bounds are unbounded; both bounds are inclusive.
func IsActive(p domain.Promotion, now time.Time) bool {
	if p.ValidFrom != nil && now.Before(*p.ValidFrom) {
		return false
	}
	if p.ValidUntil != nil && now.After(*p.ValidUntil) {
		return false
	}
	return true
}

// ActivePromotions returns the promotions active at now, preserving input order.
func ActivePromotions(promotions []domain.Promotion, now time.Time) []domain.Promotion {
	out := make([]domain.Promotion, 0, len(promotions))
	for _, p := range promotions {
		if IsActive(p, now) {
			out = append(out, p)
		}
	}
	return out
}
