package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront/internal/domain"
	cartsvc "storefront/internal/service/cart"
	productsvc "storefront/internal/service/product"
)

const (
	cartID   = "0b9a3c1e-8f4d-4b0e-9c62-6d5c1f0e2a11"
	lineID   = "4a1f7d2c-3b5e-4c6d-8e7f-9a0b1c2d3e4f"
	promoID  = "9e8d7c6b-5a4f-4e3d-8c2b-1a0f9e8d7c6b"
	prodID   = "1c2d3e4f-5a6b-4c7d-8e9f-0a1b2c3d4e5f"
	tenantID = "tenant-id"
)

type stubCartService struct {
	cart       *domain.Cart
	err        error
	deleteErr  error
	lastCreate cartsvc.CreateInput
	lastUpdate cartsvc.UpdateInput
	lastTenant string
	lastID     string
	lastSess   string
}

func (s *stubCartService) Create(_ context.Context, tenant string, in cartsvc.CreateInput) (*domain.Cart, error) {
	s.lastTenant, s.lastCreate = tenant, in
	return s.cart, s.err
}

func (s *stubCartService) Get(_ context.Context, tenant, id string) (*domain.Cart, error) {
	s.lastTenant, s.lastID = tenant, id
	return s.cart, s.err
}

func (s *stubCartService) GetActiveBySession(_ context.Context, tenant, sessionID string) (*domain.Cart, error) {
	s.lastTenant, s.lastSess = tenant, sessionID
	return s.cart, s.err
}

func (s *stubCartService) Update(_ context.Context, tenant, id string, in cartsvc.UpdateInput) (*domain.Cart, error) {
	s.lastTenant, s.lastID, s.lastUpdate = tenant, id, in
	return s.cart, s.err
}

func (s *stubCartService) Delete(_ context.Context, tenant, id string) error {
	s.lastTenant, s.lastID = tenant, id
	return s.deleteErr
}

type stubProductService struct {
	products []productsvc.Listing
	err      error
}

func (s *stubProductService) List(context.Context, string) ([]productsvc.Listing, error) {
	return s.products, s.err
}

func (s *stubProductService) Get(_ context.Context, _, id string) (*productsvc.Listing, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, l := range s.products {
		if l.Product.ID == id {
			return &l, nil
		}
	}
	return nil, domain.ErrNotFound
}

type stubPromotionService struct {
	promotions []domain.Promotion
	err        error
}

func (s *stubPromotionService) ListActive(context.Context, string) ([]domain.Promotion, error) {
	return s.promotions, s.err
}

func testDeps(carts cartService, products productService, promotions promotionService) Deps {
	return Deps{
		TenantRepo:   &stubTenantRepo{tenant: &domain.Tenant{ID: tenantID, Key: "shop", Currency: "EUR"}},
		ProductSvc:   products,
		PromotionSvc: promotions,
		CartSvc:      carts,
	}
}

func serve(t *testing.T, deps Deps, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router, err := buildRouter(zap.NewNop(), deps)
	require.NoError(t, err)

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func sampleCart() *domain.Cart {
	promo := promoID
	return &domain.Cart{
		ID:         cartID,
		TenantID:   tenantID,
		Currency:   "EUR",
		State:      domain.CartStateActive,
		Subtotal:   decimal.RequireFromString("27"),
		ItemsCount: 4,
		CreatedAt:  time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC),
		Lines: []domain.CartLine{
			{
				ID:            lineID,
				ProductID:     prodID,
				Quantity:      4,
				QuantityFree:  1,
				PriceSnapshot: decimal.RequireFromString("9"),
				PromotionID:   &promo,
				Snapshot:      map[string]interface{}{"productName": "Cherry", "sku": "C", "images": []interface{}{"https://img/c.jpg"}},
			},
		},
	}
}

func TestGetCartRendersPricing(t *testing.T) {
	carts := &stubCartService{cart: sampleCart()}
	rec := serve(t, testDeps(carts, &stubProductService{}, &stubPromotionService{}), http.MethodGet, "/tenants/shop/carts/"+cartID, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got cartResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "27.00", got.Subtotal)
	assert.Equal(t, 4, got.ItemsCount)
	assert.Equal(t, "active", got.State)
	require.Len(t, got.LineItems, 1)
	li := got.LineItems[0]
	assert.Equal(t, "Cherry", li.ProductName)
	assert.Equal(t, "9.00", li.UnitPrice)
	assert.Equal(t, 3, li.PaidQuantity)
	assert.Equal(t, "27.00", li.LineTotal)
	assert.Equal(t, []string{"https://img/c.jpg"}, li.Images)
	require.NotNil(t, li.PromotionID)
	assert.Equal(t, promoID, *li.PromotionID)
	assert.Equal(t, tenantID, carts.lastTenant)
}

func TestGetCartErrors(t *testing.T) {
	cases := []struct {
		name   string
		path   string
		err    error
		status int
	}{
		{"malformed id", "/tenants/shop/carts/not-a-uuid", nil, http.StatusBadRequest},
		{"not found", "/tenants/shop/carts/" + cartID, domain.ErrNotFound, http.StatusNotFound},
		{"internal", "/tenants/shop/carts/" + cartID, errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			carts := &stubCartService{cart: sampleCart(), err: tc.err}
			rec := serve(t, testDeps(carts, &stubProductService{}, &stubPromotionService{}), http.MethodGet, tc.path, "")
			assert.Equal(t, tc.status, rec.Code)
			assert.NotContains(t, rec.Body.String(), "db down")
		})
	}
}

func TestGetCartBySession(t *testing.T) {
	carts := &stubCartService{cart: sampleCart()}
	rec := serve(t, testDeps(carts, &stubProductService{}, &stubPromotionService{}), http.MethodGet, "/tenants/shop/carts/session/sess-42", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sess-42", carts.lastSess)
}

func TestCreateCartDefaultsCurrency(t *testing.T) {
	carts := &stubCartService{cart: sampleCart()}
	rec := serve(t, testDeps(carts, &stubProductService{}, &stubPromotionService{}), http.MethodPost, "/tenants/shop/carts", `{"sessionId":"s-1"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "EUR", carts.lastCreate.Currency)
	require.NotNil(t, carts.lastCreate.SessionID)
	assert.Equal(t, "s-1", *carts.lastCreate.SessionID)

	rec = serve(t, testDeps(carts, &stubProductService{}, &stubPromotionService{}), http.MethodPost, "/tenants/shop/carts", "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = serve(t, testDeps(carts, &stubProductService{}, &stubPromotionService{}), http.MethodPost, "/tenants/shop/carts", `{"currency":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateCart(t *testing.T) {
	carts := &stubCartService{cart: sampleCart()}
	deps := testDeps(carts, &stubProductService{}, &stubPromotionService{})

	body := `{"actions":[{"action":"addLineItem","sku":"C","quantity":2},{"action":"applyPromotion","promotionId":"` + promoID + `","lineItemId":"` + lineID + `"}]}`
	rec := serve(t, deps, http.MethodPost, "/tenants/shop/carts/"+cartID, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, carts.lastUpdate.Actions, 2)
	assert.Equal(t, "addLineItem", carts.lastUpdate.Actions[0].Action)
	require.NotNil(t, carts.lastUpdate.Actions[0].Quantity)
	assert.Equal(t, 2, *carts.lastUpdate.Actions[0].Quantity)
	assert.Equal(t, promoID, carts.lastUpdate.Actions[1].PromotionID)

	rec = serve(t, deps, http.MethodPost, "/tenants/shop/carts/"+cartID, `{"actions":[{"action":"removeLineItem","lineItemId":"nope"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, deps, http.MethodPost, "/tenants/shop/carts/"+cartID, `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValidateActionIDsReportsFirstField(t *testing.T) {
	actions := []cartsvc.UpdateAction{{ProductID: "bad-product", LineItemID: "bad-line", PromotionID: "bad-promo"}}
	for i := 0; i < 20; i++ {
		err := validateActionIDs(actions)
		require.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Equal(t, "productId must be a UUID", err.Error())
	}

	err := validateActionIDs([]cartsvc.UpdateAction{{ProductID: prodID, LineItemID: "bad-line", PromotionID: "bad-promo"}})
	assert.EqualError(t, err, "lineItemId must be a UUID")

	assert.NoError(t, validateActionIDs([]cartsvc.UpdateAction{{ProductID: " " + prodID + " ", LineItemID: lineID, PromotionID: promoID}}))
}

func TestUpdateCartMapsServiceErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{domain.Invalid("quantity must be positive"), http.StatusBadRequest},
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrConflict, http.StatusConflict},
	}
	for _, tc := range cases {
		carts := &stubCartService{err: tc.err}
		rec := serve(t, testDeps(carts, &stubProductService{}, &stubPromotionService{}), http.MethodPost,
			"/tenants/shop/carts/"+cartID, `{"actions":[{"action":"addLineItem","sku":"C","quantity":1}]}`)
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
	}
}

func TestDeleteCart(t *testing.T) {
	carts := &stubCartService{}
	rec := serve(t, testDeps(carts, &stubProductService{}, &stubPromotionService{}), http.MethodDelete, "/tenants/shop/carts/"+cartID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, cartID, carts.lastID)

	carts.deleteErr = domain.ErrNotFound
	rec = serve(t, testDeps(carts, &stubProductService{}, &stubPromotionService{}), http.MethodDelete, "/tenants/shop/carts/"+cartID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProductRoutes(t *testing.T) {
	products := &stubProductService{products: []productsvc.Listing{{
		Product:    domain.Product{ID: prodID, Key: "cherry", SKU: "C", Name: "Cherry", Price: decimal.RequireFromString("10"), Currency: "EUR"},
		Promotions: []domain.Promotion{{ID: promoID, Name: "Harvest week", Type: domain.PromotionEventBadge}},
	}}}
	deps := testDeps(&stubCartService{}, products, &stubPromotionService{})

	rec := serve(t, deps, http.MethodGet, "/tenants/shop/products", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"price":"10.00"`)
	assert.Contains(t, rec.Body.String(), `"count":1`)

	var list struct {
		Results []productResponse `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Results, 1)
	assert.Equal(t, []promotionTag{{ID: promoID, Name: "Harvest week", Type: "event_badge"}}, list.Results[0].Promotions)

	rec = serve(t, deps, http.MethodGet, "/tenants/shop/products/"+prodID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sku":"C"`)

	rec = serve(t, deps, http.MethodGet, "/tenants/shop/products/"+cartID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListPromotions(t *testing.T) {
	freeMax := 3
	promotions := &stubPromotionService{promotions: []domain.Promotion{
		{ID: promoID, Name: "Summer", Type: domain.PromotionPercentage, Value: decimal.RequireFromString("20"), ApplyAutomatically: true},
		{ID: "b", Name: "B2G1", Type: domain.PromotionBuyXGetYFree, TriggerProductIDs: []string{prodID}, TriggerQuantity: 2, FreeQuantityPerTrigger: 1, FreeQuantityMax: &freeMax},
	}}
	rec := serve(t, testDeps(&stubCartService{}, &stubProductService{}, promotions), http.MethodGet, "/tenants/shop/promotions", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count   int                 `json:"count"`
		Results []promotionResponse `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 2, body.Count)
	assert.Equal(t, "20.00", body.Results[0].Value)
	assert.Equal(t, []string{}, body.Results[0].ProductIDs)
	assert.Zero(t, body.Results[0].TriggerQuantity)
	assert.Equal(t, 2, body.Results[1].TriggerQuantity)
	require.NotNil(t, body.Results[1].FreeQuantityMax)
	assert.Equal(t, 3, *body.Results[1].FreeQuantityMax)
}
