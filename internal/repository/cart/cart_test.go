package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
	"storefront/internal/testdb"
)

func TestPostgres_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	pool := testdb.Pool(t)
	tenantID := testdb.Tenant(t, pool, "shop")

	repo := NewPostgres(pool, nil)
	session := "sess-1"
	created, err := repo.Create(ctx, CreateCartInput{TenantID: tenantID, SessionID: &session, Currency: "EUR"})
	require.NoError(t, err)
	assert.Equal(t, tenantID, created.TenantID)
	assert.Equal(t, domain.CartStateActive, created.State)
	assert.True(t, created.Subtotal.IsZero())

	fetched, err := repo.GetByID(ctx, tenantID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)

	bySession, err := repo.GetActiveBySession(ctx, tenantID, session)
	require.NoError(t, err)
	assert.Equal(t, created.ID, bySession.ID)

	require.NoError(t, repo.SetState(ctx, tenantID, created.ID, domain.CartStateDeleted))
	_, err = repo.GetActiveBySession(ctx, tenantID, session)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPostgres_LineLifecycle(t *testing.T) {
	ctx := context.Background()
	pool := testdb.Pool(t)
	tenantID := testdb.Tenant(t, pool, "shop")
	pid := testdb.Product(t, pool, tenantID, "A", "4.00")
	product := domain.Product{ID: pid, Price: decimal.RequireFromString("4.00")}

	repo := NewPostgres(pool, nil)
	cart, err := repo.Create(ctx, CreateCartInput{TenantID: tenantID, Currency: "EUR"})
	require.NoError(t, err)

	require.NoError(t, repo.AddLineItem(ctx, cart.ID, product, 2, map[string]interface{}{"sku": "A"}))
	require.NoError(t, repo.AddLineItem(ctx, cart.ID, product, 3, map[string]interface{}{"sku": "A"}))

	got, err := repo.GetByID(ctx, tenantID, cart.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	line := got.Lines[0]
	assert.Equal(t, 5, line.Quantity)
	assert.Equal(t, "4.00", line.PriceSnapshot.StringFixed(2))
	assert.Nil(t, line.PromotionID)

	promoID := "6f1c1a2e-3d4b-4c5d-8e9f-0a1b2c3d4e5f"
	line.PriceSnapshot = decimal.RequireFromString("3.20")
	line.PromotionID = &promoID
	line.QuantityFree = 2
	require.NoError(t, repo.UpdateLinePricing(ctx, cart.ID, line))
	require.NoError(t, repo.UpdateTotals(ctx, cart.ID, decimal.RequireFromString("9.60"), 5))

	require.NoError(t, repo.ChangeLineItemQuantity(ctx, cart.ID, line.ID, 1))
	got, err = repo.GetByID(ctx, tenantID, cart.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, 1, got.Lines[0].Quantity)
	assert.Equal(t, 1, got.Lines[0].QuantityFree)
	require.NotNil(t, got.Lines[0].PromotionID)
	assert.Equal(t, promoID, *got.Lines[0].PromotionID)
	assert.Equal(t, "9.60", got.Subtotal.StringFixed(2))
	assert.Equal(t, 5, got.ItemsCount)

	require.NoError(t, repo.SetLinePromotion(ctx, cart.ID, line.ID, nil))
	require.NoError(t, repo.ChangeLineItemQuantity(ctx, cart.ID, line.ID, 0))
	got, err = repo.GetByID(ctx, tenantID, cart.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Lines)

	assert.ErrorIs(t, repo.RemoveLineItem(ctx, cart.ID, line.ID), domain.ErrNotFound)
}
