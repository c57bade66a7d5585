package seed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
	"storefront/internal/pricing"
)

func demoIDs() map[string]string {
	ids := map[string]string{}
	for _, p := range demoProducts {
		ids[p.Key] = "id-" + p.Key
	}
	return ids
}

func TestDemoPromotionsAreWellFormed(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	ids := demoIDs()
	types := map[domain.PromotionType]bool{}

	for _, s := range demoPromotions {
		p, err := s.build("tenant", ids, now)
		require.NoError(t, err, s.Name)
		types[p.Type] = true

		assert.True(t, pricing.IsActive(p, now), s.Name)
		if p.Type == domain.PromotionEventBadge {
			assert.False(t, pricing.Priceable(p), s.Name)
			continue
		}
		assert.True(t, pricing.Priceable(p), s.Name)
	}

	for _, want := range []domain.PromotionType{
		domain.PromotionPercentage,
		domain.PromotionFixedAmount,
		domain.PromotionBundlePrice,
		domain.PromotionFixedPrice,
		domain.PromotionBuyXGetYFree,
		domain.PromotionEventBadge,
	} {
		assert.True(t, types[want], "missing demo promotion of type %s", want)
	}
}

func TestPromotionSeedUnknownProduct(t *testing.T) {
	s := promotionSeed{Name: "broken", Type: domain.PromotionPercentage, Value: "5", Products: []string{"ghost"}}
	_, err := s.build("tenant", demoIDs(), time.Now())
	assert.ErrorContains(t, err, "ghost")
}
