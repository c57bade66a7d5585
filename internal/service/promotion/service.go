package promotion

import (
	"context"
	"time"

	"storefront/internal/domain"
	"storefront/internal/pricing"
)

type lister interface {
	ListByTenant(ctx context.Context, tenantID string) ([]domain.Promotion, error)
}

type Service struct {
	repo lister
	now  func() time.Time
}

func New(repo lister) *Service {
	return &Service{repo: repo, now: time.Now}
}

// ListActive returns the tenant's promotions whose validity window contains
// the current time, including badge-only ones, in priority order.
func (s *Service) ListActive(ctx context.Context, tenantID string) ([]domain.Promotion, error) {
	all, err := s.repo.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return pricing.ActivePromotions(all, s.now()), nil
}
