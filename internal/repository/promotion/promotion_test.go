package promotion

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
	"storefront/internal/testdb"
)

func TestPostgres_CreateListGet(t *testing.T) {
	ctx := context.Background()
	pool := testdb.Pool(t)
	tenantID := testdb.Tenant(t, pool, "shop")
	a := testdb.Product(t, pool, tenantID, "A", "4.00")
	b := testdb.Product(t, pool, tenantID, "B", "3.00")

	repo := NewPostgres(pool, nil)

	until := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	freeMax := 4
	late, err := repo.Create(ctx, domain.Promotion{
		TenantID:           tenantID,
		Name:               "Summer",
		Type:               domain.PromotionPercentage,
		Value:              decimal.RequireFromString("20"),
		ProductIDs:         []string{a},
		ApplyAutomatically: true,
		Priority:           5,
		ValidUntil:         &until,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, late.TriggerQuantity)

	early, err := repo.Create(ctx, domain.Promotion{
		TenantID:               tenantID,
		Name:                   "B2G1",
		Type:                   domain.PromotionBuyXGetYFree,
		ProductIDs:             []string{b},
		TriggerProductIDs:      []string{a},
		TriggerQuantity:        2,
		FreeQuantityPerTrigger: 1,
		FreeQuantityMax:        &freeMax,
		ApplyAutomatically:     true,
		Priority:               1,
	})
	require.NoError(t, err)

	list, err := repo.ListByTenant(ctx, tenantID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, early.ID, list[0].ID)
	assert.Equal(t, late.ID, list[1].ID)

	got, err := repo.GetByID(ctx, tenantID, early.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PromotionBuyXGetYFree, got.Type)
	assert.Equal(t, []string{a}, got.TriggerProductIDs)
	assert.Equal(t, []string{b}, got.ProductIDs)
	assert.Nil(t, got.BundleProductIDs)
	require.NotNil(t, got.FreeQuantityMax)
	assert.Equal(t, 4, *got.FreeQuantityMax)
	assert.Nil(t, got.ValidFrom)

	summer, err := repo.GetByID(ctx, tenantID, late.ID)
	require.NoError(t, err)
	require.NotNil(t, summer.ValidUntil)
	assert.True(t, summer.ValidUntil.Equal(until))
	assert.Equal(t, "20.00", summer.Value.StringFixed(2))

	_, err = repo.GetByID(ctx, testdb.Tenant(t, pool, "other"), early.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
