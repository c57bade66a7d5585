package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/domain"
	productrepo "storefront/internal/repository/product"
	promotionrepo "storefront/internal/repository/promotion"
)

type productSeed struct {
	Key         string
	SKU         string
	Name        string
	Description string
	Price       string
}

// promotionSeed references products by key; keys are resolved to ids at apply time.
type promotionSeed struct {
	Name        string
	Type        domain.PromotionType
	Value       string
	Quantity    int
	Products    []string
	Bundle      []string
	Triggers    []string
	TriggerQty  int
	PerTrigger  int
	FreeMax     int
	Automatic   bool
	Priority    int
	ValidForDay int
}

const (
	demoTenantKey = "demo"
	demoCurrency  = "EUR"
)

var demoProducts = []productSeed{
	{Key: "espresso-beans", SKU: "SKU-ESPRESSO", Name: "Espresso Beans 1kg", Description: "Dark roast", Price: "24.90"},
	{Key: "filter-beans", SKU: "SKU-FILTER", Name: "Filter Beans 500g", Description: "Light roast", Price: "12.50"},
	{Key: "paper-filters", SKU: "SKU-PAPER", Name: "Paper Filters", Description: "Pack of 100", Price: "3.20"},
	{Key: "ceramic-mug", SKU: "SKU-MUG", Name: "Ceramic Mug", Description: "350ml", Price: "9.00"},
	{Key: "milk-jug", SKU: "SKU-JUG", Name: "Milk Jug", Description: "Stainless steel", Price: "18.00"},
	{Key: "tamper", SKU: "SKU-TAMPER", Name: "Tamper", Description: "58mm", Price: "29.00"},
}

var demoPromotions = []promotionSeed{
	{Name: "Filter week", Type: domain.PromotionPercentage, Value: "15", Products: []string{"filter-beans"}, Automatic: true, Priority: 10, ValidForDay: 7},
	{Name: "Mug discount", Type: domain.PromotionFixedAmount, Value: "2.00", Products: []string{"ceramic-mug"}, Automatic: true, Priority: 20},
	{Name: "Barista kit", Type: domain.PromotionBundlePrice, Value: "40.00", Bundle: []string{"milk-jug", "tamper"}, Automatic: true, Priority: 5},
	{Name: "Filters three for 9", Type: domain.PromotionBundlePrice, Value: "9.00", Quantity: 3, Products: []string{"paper-filters"}, Automatic: false, Priority: 30},
	{Name: "Member espresso price", Type: domain.PromotionFixedPrice, Value: "21.00", Products: []string{"espresso-beans"}, Automatic: false, Priority: 1},
	{Name: "Beans earn filters", Type: domain.PromotionBuyXGetYFree, Products: []string{"paper-filters"}, Triggers: []string{"espresso-beans", "filter-beans"}, TriggerQty: 2, PerTrigger: 1, FreeMax: 3, Automatic: true, Priority: 15},
	{Name: "Coffee festival", Type: domain.PromotionEventBadge, Products: []string{"espresso-beans", "filter-beans"}, Automatic: true, ValidForDay: 3},
}

// Apply inserts a demo tenant with a small catalog and one promotion of each
// type. It is idempotent: products are upserted by key and promotions are
// created only when no promotion of the same name exists.
func Apply(ctx context.Context, pool *pgxpool.Pool, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	tenantID, err := ensureTenant(ctx, pool, demoTenantKey, "Demo Coffee Shop", demoCurrency)
	if err != nil {
		return fmt.Errorf("ensure tenant: %w", err)
	}

	products := productrepo.NewPostgres(pool, log)
	ids := make(map[string]string, len(demoProducts))
	for _, p := range demoProducts {
		saved, err := products.Upsert(ctx, domain.Product{
			TenantID:    tenantID,
			Key:         p.Key,
			SKU:         p.SKU,
			Name:        p.Name,
			Description: p.Description,
			Price:       decimal.RequireFromString(p.Price),
			Currency:    demoCurrency,
		})
		if err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Key, err)
		}
		ids[p.Key] = saved.ID
	}

	promotions := promotionrepo.NewPostgres(pool, log)
	existing, err := promotions.ListByTenant(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("list promotions: %w", err)
	}
	seen := make(map[string]bool, len(existing))
	for _, p := range existing {
		seen[p.Name] = true
	}

	now := time.Now().UTC()
	created := 0
	for _, s := range demoPromotions {
		if seen[s.Name] {
			continue
		}
		p, err := s.build(tenantID, ids, now)
		if err != nil {
			return err
		}
		if _, err := promotions.Create(ctx, p); err != nil {
			return fmt.Errorf("create promotion %q: %w", s.Name, err)
		}
		created++
	}

	log.Info("seed applied",
		zap.String("tenant", demoTenantKey),
		zap.Int("products", len(demoProducts)),
		zap.Int("promotions_created", created),
	)
	return nil
}

func (s promotionSeed) build(tenantID string, ids map[string]string, now time.Time) (domain.Promotion, error) {
	resolve := func(keys []string) ([]string, error) {
		if len(keys) == 0 {
			return nil, nil
		}
		out := make([]string, 0, len(keys))
		for _, k := range keys {
			id, ok := ids[k]
			if !ok {
				return nil, fmt.Errorf("promotion %q references unknown product %q", s.Name, k)
			}
			out = append(out, id)
		}
		return out, nil
	}

	var (
		p   = domain.Promotion{TenantID: tenantID, Name: s.Name, Type: s.Type, ApplyAutomatically: s.Automatic, Priority: s.Priority}
		err error
	)
	if s.Value != "" {
		p.Value = decimal.RequireFromString(s.Value)
	}
	if p.ProductIDs, err = resolve(s.Products); err != nil {
		return p, err
	}
	if p.BundleProductIDs, err = resolve(s.Bundle); err != nil {
		return p, err
	}
	if p.TriggerProductIDs, err = resolve(s.Triggers); err != nil {
		return p, err
	}
	if s.Quantity > 0 {
		q := s.Quantity
		p.Quantity = &q
	}
	p.TriggerQuantity = s.TriggerQty
	p.FreeQuantityPerTrigger = s.PerTrigger
	if s.FreeMax > 0 {
		m := s.FreeMax
		p.FreeQuantityMax = &m
	}
	if s.ValidForDay > 0 {
		from := now.Truncate(24 * time.Hour)
		until := from.Add(time.Duration(s.ValidForDay) * 24 * time.Hour)
		p.ValidFrom, p.ValidUntil = &from, &until
	}
	return p, nil
}

func ensureTenant(ctx context.Context, pool *pgxpool.Pool, key, name, currency string) (string, error) {
	const q = `
INSERT INTO tenants (key, name, currency)
VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE SET name = EXCLUDED.name
RETURNING id::text
`
	var id string
	if err := pool.QueryRow(ctx, q, key, name, currency).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}
