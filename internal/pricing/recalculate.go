package pricing

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

// PriceLookup maps product IDs to their current base unit price.
type PriceLookup map[string]decimal.Decimal

type promotion struct {
	id        string
	priority  int
	automatic bool
	rule      rule
}

// rulebook holds the promotions usable for pricing at one instant, ordered by
// precedence: ascending priority, then ascending ID.
type rulebook struct {
	ordered []*promotion
	byID    map[string]*promotion
}

func newRulebook(promotions []domain.Promotion, now time.Time) rulebook {
	book := rulebook{byID: make(map[string]*promotion, len(promotions))}
	for _, p := range promotions {
		if !IsActive(p, now) {
			continue
		}
		r, ok := compile(p)
		if !ok {
			continue
		}
		book.ordered = append(book.ordered, &promotion{
			id:        p.ID,
			priority:  p.Priority,
			automatic: p.ApplyAutomatically,
			rule:      r,
		})
	}
	book.ordered = dropAmbiguous(book.ordered)
	sort.Slice(book.ordered, func(i, j int) bool {
		a, b := book.ordered[i], book.ordered[j]
		if a.priority != b.priority {
			return a.priority < b.priority
		}
		return a.id < b.id
	})
	for _, p := range book.ordered {
		book.byID[p.id] = p
	}
	return book
}

// dropAmbiguous removes every promotion whose ID is shared with another usable
// promotion. No input order can then decide which of them prices a line.
func dropAmbiguous(ps []*promotion) []*promotion {
	seen := make(map[string]int, len(ps))
	for _, p := range ps {
		seen[p.id]++
	}
	kept := ps[:0]
	for _, p := range ps {
		if seen[p.id] == 1 {
			kept = append(kept, p)
		}
	}
	return kept
}

// assign picks the promotion for a line. An explicit assignment that is still
// active and still covers the product wins. Free units of an explicit
// buy-X-get-Y-free assignment are recomputed by allocateFreeUnits.
func (b rulebook) assign(line domain.CartLine) *promotion {
	if line.PromotionID != nil {
		if p, ok := b.byID[*line.PromotionID]; ok && p.rule.covers(line.ProductID) {
			return p
		}
	}
	for _, p := range b.ordered {
		if p.automatic && p.rule.covers(line.ProductID) {
			return p
		}
	}
	return nil
}

// Recalculate recomputes price snapshot, promotion and free quantity for every
// line of one cart. It is pure: the result depends only on its arguments, and
// lines come back in input order with ID, ProductID and Quantity untouched.
// Bad business data never fails the call; the affected line falls back to its
// base price without a promotion.
func Recalculate(lines []domain.CartLine, promotions []domain.Promotion, prices PriceLookup, now time.Time) []domain.CartLine {
	out := make([]domain.CartLine, len(lines))
	if len(lines) == 0 {
		return out
	}

	book := newRulebook(promotions, now)
	bases := make([]decimal.Decimal, len(lines))
	assigned := make([]*promotion, len(lines))
	for i, line := range lines {
		base, ok := basePrice(prices, line.ProductID)
		bases[i] = base
		if !ok {
			continue
		}
		assigned[i] = book.assign(line)
	}

	free := allocateFreeUnits(lines, assigned, book)

	for i, line := range lines {
		out[i] = priceLine(line, assigned[i], bases[i], free[i])
	}
	return out
}

func basePrice(prices PriceLookup, productID string) (decimal.Decimal, bool) {
	price, ok := prices[productID]
	if !ok || price.IsNegative() {
		return decimal.Zero, false
	}
	return price, true
}

func priceLine(line domain.CartLine, p *promotion, base decimal.Decimal, free int) domain.CartLine {
	out := line
	out.PromotionID = nil
	out.QuantityFree = 0
	unit := base
	if p != nil {
		id := p.id
		out.PromotionID = &id
		switch r := p.rule.(type) {
		case priceRule:
			unit = r.unitPrice(base)
		case freeUnitsRule:
			out.QuantityFree = clampInt(free, 0, line.Quantity)
		}
	}
	out.PriceSnapshot = RoundMoney(decimal.Max(decimal.Zero, unit))
	return out
}

// RoundMoney rounds an amount to cents, half away from zero.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
