package pricing

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
)

var propertyProducts = []string{"A", "B", "C", "D", "E"}

func randomScenario(rng *rand.Rand) ([]domain.CartLine, []domain.Promotion, PriceLookup) {
	prices := PriceLookup{}
	for _, id := range propertyProducts {
		if rng.Intn(8) == 0 {
			continue // missing price
		}
		prices[id] = decimal.New(int64(rng.Intn(5000)), -2)
	}

	pick := func() []string {
		var ids []string
		for _, id := range propertyProducts {
			if rng.Intn(3) == 0 {
				ids = append(ids, id)
			}
		}
		return ids
	}

	types := []domain.PromotionType{
		domain.PromotionPercentage,
		domain.PromotionFixedAmount,
		domain.PromotionFixedPrice,
		domain.PromotionBundlePrice,
		domain.PromotionBuyXGetYFree,
		domain.PromotionEventBadge,
	}
	var promos []domain.Promotion
	for i := 0; i < rng.Intn(6); i++ {
		p := domain.Promotion{
			ID:                     fmt.Sprintf("p%d", i),
			Type:                   types[rng.Intn(len(types))],
			Value:                  decimal.New(int64(rng.Intn(12000)-1000), -2),
			ProductIDs:             pick(),
			BundleProductIDs:       pick(),
			ApplyAutomatically:     rng.Intn(4) != 0,
			Priority:               rng.Intn(3),
			TriggerProductIDs:      pick(),
			TriggerQuantity:        rng.Intn(4),
			FreeQuantityPerTrigger: rng.Intn(3),
		}
		if rng.Intn(2) == 0 {
			p.Quantity = intPtr(rng.Intn(4))
		}
		if rng.Intn(3) == 0 {
			p.FreeQuantityMax = intPtr(rng.Intn(5))
		}
		if rng.Intn(5) == 0 {
			p.ValidUntil = timePtr(testNow.Add(-time.Hour))
		}
		promos = append(promos, p)
	}

	var lines []domain.CartLine
	for i, id := range propertyProducts {
		if rng.Intn(2) == 0 {
			continue
		}
		l := line(fmt.Sprintf("line-%d", rng.Intn(100)*10+i), id, 1+rng.Intn(9))
		if len(promos) > 0 && rng.Intn(2) == 0 {
			l.PromotionID = strPtr(promos[rng.Intn(len(promos))].ID)
		}
		lines = append(lines, l)
	}
	return lines, promos, prices
}

func TestRecalculate_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		lines, promos, prices := randomScenario(rng)

		first := Recalculate(lines, promos, prices, testNow)
		require.Len(t, first, len(lines))

		for j, out := range first {
			assert.Equal(t, lines[j].ID, out.ID, "scenario %d: order preserved", i)
			assert.Equal(t, lines[j].ProductID, out.ProductID)
			assert.Equal(t, lines[j].Quantity, out.Quantity)
			assert.GreaterOrEqual(t, out.QuantityFree, 0)
			assert.LessOrEqual(t, out.QuantityFree, out.Quantity)
			assert.False(t, out.PriceSnapshot.IsNegative(), "scenario %d: negative price", i)
			assert.True(t, out.PriceSnapshot.Equal(out.PriceSnapshot.Round(2)))
		}

		second := Recalculate(first, promos, prices, testNow)
		assert.Equal(t, snapshot(first), snapshot(second), "scenario %d: not idempotent", i)

		reversed := make([]domain.Promotion, len(promos))
		for k := range promos {
			reversed[len(promos)-1-k] = promos[k]
		}
		assert.Equal(t, snapshot(first), snapshot(Recalculate(lines, reversed, prices, testNow)), "scenario %d: depends on promotion order", i)
	}
}

func snapshot(lines []domain.CartLine) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		promo := "-"
		if l.PromotionID != nil {
			promo = *l.PromotionID
		}
		out[i] = fmt.Sprintf("%s|%s|%d|%s|%s|%d", l.ID, l.ProductID, l.Quantity, l.PriceSnapshot.StringFixed(2), promo, l.QuantityFree)
	}
	return out
}
