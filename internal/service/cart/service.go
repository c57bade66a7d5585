package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/pricing"
	cartrepo "storefront/internal/repository/cart"
)

// Service orchestrates cart mutations. Every read and every mutation ends with
// a full recalculation whose result is written back line by line.
type Service struct {
	repo       cartRepo
	products   productRepo
	promotions promotionRepo
	now        func() time.Time
	log        *zap.Logger
}

type cartRepo interface {
	Create(ctx context.Context, in cartrepo.CreateCartInput) (*domain.Cart, error)
	GetByID(ctx context.Context, tenantID, id string) (*domain.Cart, error)
	GetActiveBySession(ctx context.Context, tenantID, sessionID string) (*domain.Cart, error)
	AddLineItem(ctx context.Context, cartID string, product domain.Product, quantity int, snapshot map[string]interface{}) error
	ChangeLineItemQuantity(ctx context.Context, cartID, lineItemID string, quantity int) error
	RemoveLineItem(ctx context.Context, cartID, lineItemID string) error
	SetLinePromotion(ctx context.Context, cartID, lineItemID string, promotionID *string) error
	UpdateLinePricing(ctx context.Context, cartID string, line domain.CartLine) error
	UpdateTotals(ctx context.Context, cartID string, subtotal decimal.Decimal, itemsCount int) error
	SetState(ctx context.Context, tenantID, cartID, state string) error
}

type productRepo interface {
	GetByID(ctx context.Context, tenantID, id string) (*domain.Product, error)
	GetBySKU(ctx context.Context, tenantID, sku string) (*domain.Product, error)
	PricesByIDs(ctx context.Context, tenantID string, ids []string) (map[string]decimal.Decimal, error)
}

type promotionRepo interface {
	ListByTenant(ctx context.Context, tenantID string) ([]domain.Promotion, error)
	GetByID(ctx context.Context, tenantID, id string) (*domain.Promotion, error)
}

func New(repo cartRepo, products productRepo, promotions promotionRepo, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:       repo,
		products:   products,
		promotions: promotions,
		now:        time.Now,
		log:        log.Named("cart_service"),
	}
}

// WithClock replaces the clock used for promotion validity checks.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

type CreateInput struct {
	SessionID *string `json:"sessionId,omitempty"`
	Currency  string  `json:"currency"`
}

type UpdateInput struct {
	Actions []UpdateAction `json:"actions"`
}

type UpdateAction struct {
	Action      string `json:"action"`
	ProductID   string `json:"productId,omitempty"`
	SKU         string `json:"sku,omitempty"`
	LineItemID  string `json:"lineItemId,omitempty"`
	PromotionID string `json:"promotionId,omitempty"`
	Quantity    *int   `json:"quantity,omitempty"`
}

func (s *Service) Create(ctx context.Context, tenantID string, in CreateInput) (*domain.Cart, error) {
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if len(currency) != 3 {
		return nil, domain.Invalid("currency must be a 3-letter code")
	}
	var session *string
	if in.SessionID != nil {
		if v := strings.TrimSpace(*in.SessionID); v != "" {
			session = &v
		}
	}
	cart, err := s.repo.Create(ctx, cartrepo.CreateCartInput{
		TenantID:  tenantID,
		SessionID: session,
		Currency:  currency,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("cart created", zap.String("tenant_id", tenantID), zap.String("cart_id", cart.ID))
	return cart, nil
}

func (s *Service) Get(ctx context.Context, tenantID, id string) (*domain.Cart, error) {
	cart, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return s.refresh(ctx, cart)
}

func (s *Service) GetActiveBySession(ctx context.Context, tenantID, sessionID string) (*domain.Cart, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, domain.Invalid("sessionId required")
	}
	cart, err := s.repo.GetActiveBySession(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	return s.refresh(ctx, cart)
}

// Update applies the actions in order and recalculates once at the end. An
// action failing midway leaves earlier actions applied; the next read
// recalculates from whatever was stored.
func (s *Service) Update(ctx context.Context, tenantID, cartID string, in UpdateInput) (*domain.Cart, error) {
	if len(in.Actions) == 0 {
		return nil, domain.Invalid("actions required")
	}
	cart, err := s.repo.GetByID(ctx, tenantID, cartID)
	if err != nil {
		return nil, err
	}
	if cart.State != domain.CartStateActive {
		return nil, fmt.Errorf("cart %s is %s: %w", cartID, cart.State, domain.ErrConflict)
	}

	for i, action := range in.Actions {
		if err := s.apply(ctx, cart, action); err != nil {
			s.log.Debug("cart action rejected",
				zap.String("cart_id", cartID),
				zap.Int("index", i),
				zap.String("action", action.Action),
				zap.Error(err),
			)
			return nil, err
		}
	}

	updated, err := s.repo.GetByID(ctx, tenantID, cartID)
	if err != nil {
		return nil, err
	}
	return s.refresh(ctx, updated)
}

func (s *Service) Delete(ctx context.Context, tenantID, cartID string) error {
	cart, err := s.repo.GetByID(ctx, tenantID, cartID)
	if err != nil {
		return err
	}
	if cart.State == domain.CartStateDeleted {
		return nil
	}
	if err := s.repo.SetState(ctx, tenantID, cartID, domain.CartStateDeleted); err != nil {
		return err
	}
	s.log.Info("cart deleted", zap.String("tenant_id", tenantID), zap.String("cart_id", cartID))
	return nil
}

func (s *Service) apply(ctx context.Context, cart *domain.Cart, action UpdateAction) error {
	switch strings.ToLower(strings.TrimSpace(action.Action)) {
	case "addlineitem":
		return s.addLineItem(ctx, cart, action)
	case "changelineitemquantity":
		lineID := strings.TrimSpace(action.LineItemID)
		if lineID == "" {
			return domain.Invalid("lineItemId required")
		}
		if action.Quantity == nil || *action.Quantity < 0 {
			return domain.Invalid("quantity must be zero or positive")
		}
		return s.repo.ChangeLineItemQuantity(ctx, cart.ID, lineID, *action.Quantity)
	case "removelineitem":
		lineID := strings.TrimSpace(action.LineItemID)
		if lineID == "" {
			return domain.Invalid("lineItemId required")
		}
		return s.repo.RemoveLineItem(ctx, cart.ID, lineID)
	case "applypromotion":
		return s.applyPromotion(ctx, cart, action)
	case "removepromotion":
		lineID := strings.TrimSpace(action.LineItemID)
		if lineID == "" {
			return domain.Invalid("lineItemId required")
		}
		return s.repo.SetLinePromotion(ctx, cart.ID, lineID, nil)
	default:
		return domain.Invalid(fmt.Sprintf("unsupported action %q", action.Action))
	}
}

func (s *Service) addLineItem(ctx context.Context, cart *domain.Cart, action UpdateAction) error {
	if action.Quantity == nil || *action.Quantity <= 0 {
		return domain.Invalid("quantity must be positive")
	}

	var (
		product *domain.Product
		err     error
	)
	switch {
	case strings.TrimSpace(action.ProductID) != "":
		product, err = s.products.GetByID(ctx, cart.TenantID, strings.TrimSpace(action.ProductID))
	case strings.TrimSpace(action.SKU) != "":
		product, err = s.products.GetBySKU(ctx, cart.TenantID, strings.TrimSpace(action.SKU))
	default:
		return domain.Invalid("productId or sku required")
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Invalid("product not found")
		}
		return err
	}
	if !strings.EqualFold(product.Currency, cart.Currency) {
		return domain.Invalid(fmt.Sprintf("product currency %s does not match cart currency %s", product.Currency, cart.Currency))
	}

	return s.repo.AddLineItem(ctx, cart.ID, *product, *action.Quantity, snapshotFromProduct(*product))
}

// applyPromotion attaches a promotion explicitly. Without a lineItemId every
// line in the promotion's scope receives it.
func (s *Service) applyPromotion(ctx context.Context, cart *domain.Cart, action UpdateAction) error {
	promotionID := strings.TrimSpace(action.PromotionID)
	if promotionID == "" {
		return domain.Invalid("promotionId required")
	}
	promo, err := s.promotions.GetByID(ctx, cart.TenantID, promotionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Invalid("promotion not found")
		}
		return err
	}
	if !pricing.IsActive(*promo, s.now()) {
		return domain.Invalid("promotion is not active")
	}

	// Earlier actions of the same request may have added lines.
	current, err := s.repo.GetByID(ctx, cart.TenantID, cart.ID)
	if err != nil {
		return err
	}

	lineID := strings.TrimSpace(action.LineItemID)
	if lineID != "" {
		for _, line := range current.Lines {
			if line.ID != lineID {
				continue
			}
			if !pricing.Assignable(*promo, line.ProductID) {
				return domain.Invalid("promotion does not apply to this line item")
			}
			return s.repo.SetLinePromotion(ctx, cart.ID, line.ID, &promo.ID)
		}
		return domain.ErrNotFound
	}

	applied := 0
	for _, line := range current.Lines {
		if !pricing.Assignable(*promo, line.ProductID) {
			continue
		}
		if err := s.repo.SetLinePromotion(ctx, cart.ID, line.ID, &promo.ID); err != nil {
			return err
		}
		applied++
	}
	if applied == 0 {
		return domain.Invalid("promotion does not apply to any line item")
	}
	return nil
}

// refresh recalculates an active cart against the tenant's current promotions
// and prices and persists what changed. Deleted carts are returned as stored.
func (s *Service) refresh(ctx context.Context, cart *domain.Cart) (*domain.Cart, error) {
	if cart.State != domain.CartStateActive {
		return cart, nil
	}

	promotions, err := s.promotions.ListByTenant(ctx, cart.TenantID)
	if err != nil {
		return nil, fmt.Errorf("load promotions: %w", err)
	}
	ids := make([]string, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		ids = append(ids, line.ProductID)
	}
	prices, err := s.products.PricesByIDs(ctx, cart.TenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("load prices: %w", err)
	}

	lines := pricing.Recalculate(cart.Lines, promotions, prices, s.now())

	written := 0
	for i := range lines {
		if !pricingChanged(cart.Lines[i], lines[i]) {
			continue
		}
		if err := s.repo.UpdateLinePricing(ctx, cart.ID, lines[i]); err != nil {
			return nil, fmt.Errorf("write line %s: %w", lines[i].ID, err)
		}
		written++
	}

	sum := pricing.Totals(lines)
	if !sum.Subtotal.Equal(cart.Subtotal) || sum.ItemsCount != cart.ItemsCount {
		if err := s.repo.UpdateTotals(ctx, cart.ID, sum.Subtotal, sum.ItemsCount); err != nil {
			return nil, fmt.Errorf("write totals: %w", err)
		}
	}

	if written > 0 {
		s.log.Debug("cart recalculated",
			zap.String("cart_id", cart.ID),
			zap.Int("lines_written", written),
			zap.String("subtotal", sum.Subtotal.StringFixed(2)),
		)
	}

	out := *cart
	out.Lines = lines
	out.Subtotal = sum.Subtotal
	out.ItemsCount = sum.ItemsCount
	return &out, nil
}

func pricingChanged(before, after domain.CartLine) bool {
	if !before.PriceSnapshot.Equal(after.PriceSnapshot) || before.QuantityFree != after.QuantityFree {
		return true
	}
	switch {
	case before.PromotionID == nil && after.PromotionID == nil:
		return false
	case before.PromotionID == nil || after.PromotionID == nil:
		return true
	default:
		return *before.PromotionID != *after.PromotionID
	}
}

func snapshotFromProduct(p domain.Product) map[string]interface{} {
	slug := strings.TrimSpace(p.Key)
	if slug == "" {
		slug = strings.ReplaceAll(strings.ToLower(p.Name), " ", "-")
	}
	snap := map[string]interface{}{
		"productKey":  p.Key,
		"productName": p.Name,
		"sku":         p.SKU,
		"productSlug": slug,
		"basePrice":   p.Price.StringFixed(2),
		"currency":    p.Currency,
	}
	if len(p.Attributes) > 0 {
		if images, ok := p.Attributes["images"]; ok {
			snap["images"] = images
		}
	}
	return snap
}
