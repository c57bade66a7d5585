package product

import (
	"context"
	"time"

	"storefront/internal/domain"
	"storefront/internal/pricing"
)

type catalog interface {
	ListByTenant(ctx context.Context, tenantID string) ([]domain.Product, error)
	GetByID(ctx context.Context, tenantID, id string) (*domain.Product, error)
}

type promotionLister interface {
	ListByTenant(ctx context.Context, tenantID string) ([]domain.Promotion, error)
}

// Listing is a product as the storefront shows it: with the promotions
// currently running on it, badges included.
type Listing struct {
	Product    domain.Product
	Promotions []domain.Promotion
}

type Service struct {
	products   catalog
	promotions promotionLister
	now        func() time.Time
}

func New(products catalog, promotions promotionLister) *Service {
	return &Service{products: products, promotions: promotions, now: time.Now}
}

func (s *Service) List(ctx context.Context, tenantID string) ([]Listing, error) {
	products, err := s.products.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	active, err := s.activePromotions(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]Listing, 0, len(products))
	for _, p := range products {
		out = append(out, listing(p, active))
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, tenantID, id string) (*Listing, error) {
	p, err := s.products.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	active, err := s.activePromotions(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	l := listing(*p, active)
	return &l, nil
}

func (s *Service) activePromotions(ctx context.Context, tenantID string) ([]domain.Promotion, error) {
	if s.promotions == nil {
		return nil, nil
	}
	all, err := s.promotions.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return pricing.ActivePromotions(all, s.now()), nil
}

func listing(p domain.Product, active []domain.Promotion) Listing {
	l := Listing{Product: p}
	for _, promo := range active {
		if mentions(promo, p.ID) {
			l.Promotions = append(l.Promotions, promo)
		}
	}
	return l
}

// mentions reports whether the product appears in any of the promotion's
// product lists, trigger products included.
func mentions(p domain.Promotion, productID string) bool {
	for _, ids := range [][]string{p.ProductIDs, p.BundleProductIDs, p.TriggerProductIDs} {
		for _, id := range ids {
			if id == productID {
				return true
			}
		}
	}
	return false
}
