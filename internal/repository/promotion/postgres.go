package promotion

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storefront/internal/domain"
)

const selectColumns = `
id::text, tenant_id::text, name, type, value, quantity,
product_ids, bundle_product_ids, apply_automatically, priority,
trigger_product_ids, trigger_quantity, free_quantity_per_trigger, free_quantity_max,
valid_from, valid_until, created_at`

type postgresRepo struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, log *zap.Logger) Repository {
	if log == nil {
		log = zap.NewNop()
	}
	return &postgresRepo{pool: pool, log: log.Named("promotion_repo")}
}

func scanPromotion(row pgx.Row) (*domain.Promotion, error) {
	var (
		p    domain.Promotion
		kind string
	)
	err := row.Scan(
		&p.ID,
		&p.TenantID,
		&p.Name,
		&kind,
		&p.Value,
		&p.Quantity,
		&p.ProductIDs,
		&p.BundleProductIDs,
		&p.ApplyAutomatically,
		&p.Priority,
		&p.TriggerProductIDs,
		&p.TriggerQuantity,
		&p.FreeQuantityPerTrigger,
		&p.FreeQuantityMax,
		&p.ValidFrom,
		&p.ValidUntil,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Type = domain.PromotionType(kind)
	return &p, nil
}

func (r *postgresRepo) ListByTenant(ctx context.Context, tenantID string) ([]domain.Promotion, error) {
	q := `SELECT ` + selectColumns + `
FROM promotions
WHERE tenant_id = $1
ORDER BY priority ASC, id ASC
`
	rows, err := r.pool.Query(ctx, q, tenantID)
	if err != nil {
		r.log.Error("list failed", zap.String("tenant_id", tenantID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var result []domain.Promotion
	for rows.Next() {
		p, err := scanPromotion(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	r.log.Debug("listed", zap.String("tenant_id", tenantID), zap.Int("count", len(result)))
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, tenantID, id string) (*domain.Promotion, error) {
	q := `SELECT ` + selectColumns + `
FROM promotions
WHERE tenant_id = $1 AND id = $2
`
	p, err := scanPromotion(r.pool.QueryRow(ctx, q, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.log.Error("get failed", zap.String("tenant_id", tenantID), zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) Create(ctx context.Context, p domain.Promotion) (*domain.Promotion, error) {
	const q = `
INSERT INTO promotions (
    tenant_id, name, type, value, quantity,
    product_ids, bundle_product_ids, apply_automatically, priority,
    trigger_product_ids, trigger_quantity, free_quantity_per_trigger, free_quantity_max,
    valid_from, valid_until
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
RETURNING id::text, created_at
`
	triggerQty := p.TriggerQuantity
	if triggerQty == 0 {
		triggerQty = 1
	}
	perTrigger := p.FreeQuantityPerTrigger
	if perTrigger == 0 {
		perTrigger = 1
	}

	out := p
	out.TriggerQuantity = triggerQty
	out.FreeQuantityPerTrigger = perTrigger
	err := r.pool.QueryRow(ctx, q,
		p.TenantID,
		p.Name,
		string(p.Type),
		p.Value,
		p.Quantity,
		p.ProductIDs,
		p.BundleProductIDs,
		p.ApplyAutomatically,
		p.Priority,
		p.TriggerProductIDs,
		triggerQty,
		perTrigger,
		p.FreeQuantityMax,
		p.ValidFrom,
		p.ValidUntil,
	).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		r.log.Error("create failed", zap.String("tenant_id", p.TenantID), zap.String("name", p.Name), zap.Error(err))
		return nil, err
	}
	r.log.Debug("created", zap.String("tenant_id", out.TenantID), zap.String("id", out.ID), zap.String("type", string(out.Type)))
	return &out, nil
}
