package pricing

import (
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

var hundred = decimal.NewFromInt(100)

type productSet map[string]struct{}

func newProductSet(lists ...[]string) productSet {
	set := productSet{}
	for _, ids := range lists {
		for _, id := range ids {
			if id != "" {
				set[id] = struct{}{}
			}
		}
	}
	return set
}

func (s productSet) has(id string) bool {
	_, ok := s[id]
	return ok
}

// rule is the validated form of a promotion. The implementations below are the
// complete set; compile is the only constructor.
type rule interface {
	covers(productID string) bool
}

// priceRule rules replace a line's unit price.
type priceRule interface {
	rule
	unitPrice(base decimal.Decimal) decimal.Decimal
}

type percentageRule struct {
	products productSet
	percent  decimal.Decimal
}

func (r percentageRule) covers(id string) bool { return r.products.has(id) }

func (r percentageRule) unitPrice(base decimal.Decimal) decimal.Decimal {
	return base.Mul(decimal.NewFromInt(1).Sub(r.percent.Div(hundred)))
}

type fixedAmountRule struct {
	products productSet
	amount   decimal.Decimal
}

func (r fixedAmountRule) covers(id string) bool { return r.products.has(id) }

func (r fixedAmountRule) unitPrice(base decimal.Decimal) decimal.Decimal {
	return decimal.Max(decimal.Zero, base.Sub(r.amount))
}

type fixedPriceRule struct {
	products productSet
	price    decimal.Decimal
}

func (r fixedPriceRule) covers(id string) bool { return r.products.has(id) }

func (r fixedPriceRule) unitPrice(decimal.Decimal) decimal.Decimal { return r.price }

// bundlePriceRule spreads the bundle total over its units: the promotion's own
// quantity for a single-product bundle, otherwise one unit per distinct product.
type bundlePriceRule struct {
	products productSet
	total    decimal.Decimal
	units    int
}

func (r bundlePriceRule) covers(id string) bool { return r.products.has(id) }

func (r bundlePriceRule) unitPrice(decimal.Decimal) decimal.Decimal {
	return r.total.Div(decimal.NewFromInt(int64(r.units)))
}

// freeUnitsRule grants free units of the free products for every triggerQuantity
// trigger units in the cart. Lines keep their base price.
type freeUnitsRule struct {
	triggers   productSet
	free       productSet
	triggerQty int
	perTrigger int
	max        *int
}

func (r freeUnitsRule) covers(id string) bool { return r.triggers.has(id) || r.free.has(id) }

func (r freeUnitsRule) earned(triggerUnits int) int {
	total := (triggerUnits / r.triggerQty) * r.perTrigger
	if r.max != nil && total > *r.max {
		total = *r.max
	}
	return total
}

// compile validates p and returns its rule. Promotions without a cart pricing
// effect and malformed ones report false and take no part in pricing.
func compile(p domain.Promotion) (rule, bool) {
	switch p.Type {
	case domain.PromotionPercentage:
		products := newProductSet(p.ProductIDs, p.BundleProductIDs)
		if len(products) == 0 || p.Value.IsNegative() {
			return nil, false
		}
		return percentageRule{products: products, percent: p.Value}, true
	case domain.PromotionFixedAmount:
		products := newProductSet(p.ProductIDs, p.BundleProductIDs)
		if len(products) == 0 || p.Value.IsNegative() {
			return nil, false
		}
		return fixedAmountRule{products: products, amount: p.Value}, true
	case domain.PromotionFixedPrice:
		products := newProductSet(p.ProductIDs, p.BundleProductIDs)
		if len(products) == 0 || p.Value.IsNegative() {
			return nil, false
		}
		return fixedPriceRule{products: products, price: p.Value}, true
	case domain.PromotionBundlePrice:
		products := newProductSet(p.ProductIDs, p.BundleProductIDs)
		if len(products) == 0 || p.Value.IsNegative() {
			return nil, false
		}
		units := len(products)
		if units == 1 {
			if p.Quantity == nil || *p.Quantity < 1 {
				return nil, false
			}
			units = *p.Quantity
		}
		return bundlePriceRule{products: products, total: p.Value, units: units}, true
	case domain.PromotionBuyXGetYFree:
		triggers := newProductSet(p.TriggerProductIDs)
		free := newProductSet(p.ProductIDs)
		if len(triggers) == 0 || len(free) == 0 || p.TriggerQuantity < 1 || p.FreeQuantityPerTrigger < 1 {
			return nil, false
		}
		if p.FreeQuantityMax != nil && *p.FreeQuantityMax < 0 {
			return nil, false
		}
		return freeUnitsRule{
			triggers:   triggers,
			free:       free,
			triggerQty: p.TriggerQuantity,
			perTrigger: p.FreeQuantityPerTrigger,
			max:        p.FreeQuantityMax,
		}, true
	case domain.PromotionEventBadge:
		return nil, false
	default:
		return nil, false
	}
}

// Assignable reports whether p can be attached explicitly to a line of
// productID: a price-replacing promotion must cover the product, a
// buy-X-get-Y-free promotion must list it as a free product. Activity is not
// checked.
func Assignable(p domain.Promotion, productID string) bool {
	r, ok := compile(p)
	if !ok {
		return false
	}
	switch r := r.(type) {
	case priceRule:
		return r.covers(productID)
	case freeUnitsRule:
		return r.free.has(productID)
	}
	return false
}

// Priceable reports whether p is a well-formed promotion with a cart pricing
// effect. Badge-only and malformed promotions report false.
func Priceable(p domain.Promotion) bool {
	_, ok := compile(p)
	return ok
}
