package httpserver

import (
	"context"
	"errors"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/domain"
	cartsvc "storefront/internal/service/cart"
	productsvc "storefront/internal/service/product"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type tenantLookup interface {
	GetByKey(ctx context.Context, key string) (*domain.Tenant, error)
}

type productService interface {
	List(ctx context.Context, tenantID string) ([]productsvc.Listing, error)
	Get(ctx context.Context, tenantID, id string) (*productsvc.Listing, error)
}

type promotionService interface {
	ListActive(ctx context.Context, tenantID string) ([]domain.Promotion, error)
}

type cartService interface {
	Create(ctx context.Context, tenantID string, in cartsvc.CreateInput) (*domain.Cart, error)
	Get(ctx context.Context, tenantID, id string) (*domain.Cart, error)
	GetActiveBySession(ctx context.Context, tenantID, sessionID string) (*domain.Cart, error)
	Update(ctx context.Context, tenantID, cartID string, in cartsvc.UpdateInput) (*domain.Cart, error)
	Delete(ctx context.Context, tenantID, cartID string) error
}

// Deps carries the collaborators the router needs.
type Deps struct {
	DB             pinger
	TenantRepo     tenantLookup
	ProductSvc     productService
	PromotionSvc   promotionService
	CartSvc        cartService
	AllowedOrigins []string
}

func (d Deps) validate() error {
	switch {
	case d.TenantRepo == nil:
		return errors.New("httpserver: tenant repository required")
	case d.ProductSvc == nil:
		return errors.New("httpserver: product service required")
	case d.PromotionSvc == nil:
		return errors.New("httpserver: promotion service required")
	case d.CartSvc == nil:
		return errors.New("httpserver: cart service required")
	}
	return nil
}

// buildRouter wires routes for the API.
func buildRouter(log *zap.Logger, deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		correlationMiddleware(),
		requestLogger(log),
		gin.CustomRecovery(func(c *gin.Context, recovered any) {
			log.Error("panic recovered", zap.Any("panic", recovered), zap.String("correlation_id", correlationID(c)))
			c.AbortWithStatusJSON(500, errorBody{Error: "internal", Message: "internal error"})
		}),
		cors.New(corsConfig(deps.AllowedOrigins)),
	)

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.DB))

	h := &handlers{
		log:        log,
		products:   deps.ProductSvc,
		promotions: deps.PromotionSvc,
		carts:      deps.CartSvc,
	}

	tenant := router.Group("/tenants/:tenantKey", tenantMiddleware(deps.TenantRepo, log))
	tenant.GET("/products", h.listProducts)
	tenant.GET("/products/:id", h.getProduct)
	tenant.GET("/promotions", h.listPromotions)

	tenant.POST("/carts", h.createCart)
	tenant.GET("/carts/session/:sessionId", h.getCartBySession)
	tenant.GET("/carts/:id", h.getCart)
	tenant.POST("/carts/:id", h.updateCart)
	tenant.DELETE("/carts/:id", h.deleteCart)

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", CorrelationIDHeader},
		ExposeHeaders: []string{CorrelationIDHeader},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
