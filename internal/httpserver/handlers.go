package httpserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront/internal/domain"
	cartsvc "storefront/internal/service/cart"
)

type handlers struct {
	log        *zap.Logger
	products   productService
	promotions promotionService
	carts      cartService
}

func mustTenant(c *gin.Context) *domain.Tenant {
	t, _ := tenantFromContext(c.Request.Context())
	return t
}

// idParam returns the named path parameter if it is a well-formed UUID.
func idParam(c *gin.Context, name string) (string, bool) {
	id := c.Param(name)
	if _, err := uuid.Parse(id); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{
			Error:         "invalid_input",
			Message:       name + " must be a UUID",
			CorrelationID: correlationID(c),
		})
		return "", false
	}
	return id, true
}

func (h *handlers) listProducts(c *gin.Context) {
	tenant := mustTenant(c)
	listings, err := h.products.List(c.Request.Context(), tenant.ID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	out := make([]productResponse, 0, len(listings))
	for _, l := range listings {
		out = append(out, toProductResponse(l))
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "results": out})
}

func (h *handlers) getProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	l, err := h.products.Get(c.Request.Context(), mustTenant(c).ID, id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(*l))
}

func (h *handlers) listPromotions(c *gin.Context) {
	promotions, err := h.promotions.ListActive(c.Request.Context(), mustTenant(c).ID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	out := make([]promotionResponse, 0, len(promotions))
	for _, p := range promotions {
		out = append(out, toPromotionResponse(p))
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "results": out})
}

type createCartRequest struct {
	Currency  string  `json:"currency"`
	SessionID *string `json:"sessionId"`
}

func (h *handlers) createCart(c *gin.Context) {
	tenant := mustTenant(c)
	var req createCartRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, h.log, domain.Invalid("malformed request body"))
			return
		}
	}
	currency := strings.TrimSpace(req.Currency)
	if currency == "" {
		currency = tenant.Currency
	}
	cart, err := h.carts.Create(c.Request.Context(), tenant.ID, cartsvc.CreateInput{
		Currency:  currency,
		SessionID: req.SessionID,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, toCartResponse(*cart))
}

func (h *handlers) getCart(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	cart, err := h.carts.Get(c.Request.Context(), mustTenant(c).ID, id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(*cart))
}

func (h *handlers) getCartBySession(c *gin.Context) {
	cart, err := h.carts.GetActiveBySession(c.Request.Context(), mustTenant(c).ID, c.Param("sessionId"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(*cart))
}

func (h *handlers) updateCart(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req cartsvc.UpdateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.log, domain.Invalid("malformed request body"))
		return
	}
	if err := validateActionIDs(req.Actions); err != nil {
		writeError(c, h.log, err)
		return
	}
	cart, err := h.carts.Update(c.Request.Context(), mustTenant(c).ID, id, req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(*cart))
}

func (h *handlers) deleteCart(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.carts.Delete(c.Request.Context(), mustTenant(c).ID, id); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// validateActionIDs rejects malformed identifiers before they reach the database.
func validateActionIDs(actions []cartsvc.UpdateAction) error {
	for _, a := range actions {
		for _, id := range []struct{ field, value string }{
			{"productId", a.ProductID},
			{"lineItemId", a.LineItemID},
			{"promotionId", a.PromotionID},
		} {
			v := strings.TrimSpace(id.value)
			if v == "" {
				continue
			}
			if _, err := uuid.Parse(v); err != nil {
				return domain.Invalid(id.field + " must be a UUID")
			}
		}
	}
	return nil
}
