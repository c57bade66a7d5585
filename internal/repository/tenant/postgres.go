package tenant

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) GetByKey(ctx context.Context, key string) (*domain.Tenant, error) {
	const q = `
SELECT id::text, key, name, currency, created_at
FROM tenants
WHERE key = $1
`
	var t domain.Tenant
	err := r.pool.QueryRow(ctx, q, key).Scan(&t.ID, &t.Key, &t.Name, &t.Currency, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *postgresRepo) Create(ctx context.Context, tenant *domain.Tenant) (*domain.Tenant, error) {
	const q = `
INSERT INTO tenants (key, name, currency)
VALUES ($1, $2, $3)
RETURNING id::text, created_at
`
	currency := strings.ToUpper(strings.TrimSpace(tenant.Currency))
	if currency == "" {
		currency = "EUR"
	}
	var out domain.Tenant
	err := r.pool.QueryRow(ctx, q, tenant.Key, tenant.Name, currency).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrConflict
		}
		return nil, err
	}
	out.Key = tenant.Key
	out.Name = tenant.Name
	out.Currency = currency
	return &out, nil
}
