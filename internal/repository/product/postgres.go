package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/domain"
)

const selectColumns = `id::text, tenant_id::text, key, sku, name, COALESCE(description, ''), price, currency, attributes, created_at`

type postgresRepo struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, log *zap.Logger) Repository {
	if log == nil {
		log = zap.NewNop()
	}
	return &postgresRepo{pool: pool, log: log.Named("product_repo")}
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	if err := row.Scan(&p.ID, &p.TenantID, &p.Key, &p.SKU, &p.Name, &p.Description, &p.Price, &p.Currency, &p.Attributes, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *postgresRepo) ListByTenant(ctx context.Context, tenantID string) ([]domain.Product, error) {
	q := `SELECT ` + selectColumns + `
FROM products
WHERE tenant_id = $1
ORDER BY created_at DESC, id
`
	rows, err := r.pool.Query(ctx, q, tenantID)
	if err != nil {
		r.log.Error("list failed", zap.String("tenant_id", tenantID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		r.log.Error("list rows failed", zap.String("tenant_id", tenantID), zap.Error(err))
		return nil, err
	}
	r.log.Debug("listed", zap.String("tenant_id", tenantID), zap.Int("count", len(result)))
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, tenantID, id string) (*domain.Product, error) {
	q := `SELECT ` + selectColumns + `
FROM products
WHERE tenant_id = $1 AND id = $2
`
	return r.getOne(ctx, q, tenantID, id)
}

func (r *postgresRepo) GetBySKU(ctx context.Context, tenantID, sku string) (*domain.Product, error) {
	q := `SELECT ` + selectColumns + `
FROM products
WHERE tenant_id = $1 AND sku = $2
`
	return r.getOne(ctx, q, tenantID, sku)
}

func (r *postgresRepo) getOne(ctx context.Context, q, tenantID, ref string) (*domain.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, q, tenantID, ref))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.log.Debug("not found", zap.String("tenant_id", tenantID), zap.String("ref", ref))
			return nil, domain.ErrNotFound
		}
		r.log.Error("get failed", zap.String("tenant_id", tenantID), zap.String("ref", ref), zap.Error(err))
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) PricesByIDs(ctx context.Context, tenantID string, ids []string) (map[string]decimal.Decimal, error) {
	prices := make(map[string]decimal.Decimal, len(ids))
	if len(ids) == 0 {
		return prices, nil
	}
	const q = `
SELECT id::text, price
FROM products
WHERE tenant_id = $1 AND id::text = ANY($2)
`
	rows, err := r.pool.Query(ctx, q, tenantID, ids)
	if err != nil {
		r.log.Error("prices failed", zap.String("tenant_id", tenantID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id    string
			price decimal.Decimal
		)
		if err := rows.Scan(&id, &price); err != nil {
			return nil, err
		}
		prices[id] = price
	}
	return prices, rows.Err()
}

func (r *postgresRepo) Upsert(ctx context.Context, product domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (id, tenant_id, key, sku, name, description, price, currency, attributes)
VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, $4, $5, NULLIF($6, ''), $7, $8, COALESCE($9, '{}'::jsonb))
ON CONFLICT (tenant_id, key) DO UPDATE SET
    sku = EXCLUDED.sku,
    name = EXCLUDED.name,
    description = EXCLUDED.description,
    price = EXCLUDED.price,
    currency = EXCLUDED.currency,
    attributes = EXCLUDED.attributes
RETURNING id::text, created_at
`
	res := product
	err := r.pool.QueryRow(ctx, q,
		product.ID,
		product.TenantID,
		product.Key,
		product.SKU,
		product.Name,
		product.Description,
		product.Price,
		product.Currency,
		product.Attributes,
	).Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		r.log.Error("upsert failed", zap.String("key", product.Key), zap.String("tenant_id", product.TenantID), zap.Error(err))
		return nil, err
	}
	if product.ID != "" && res.ID != product.ID {
		return nil, fmt.Errorf("product repo: id mismatch for key=%s tenant_id=%s existing_id=%s import_id=%s", product.Key, product.TenantID, res.ID, product.ID)
	}
	r.log.Debug("upserted", zap.String("key", res.Key), zap.String("tenant_id", res.TenantID), zap.String("id", res.ID))
	return &res, nil
}
