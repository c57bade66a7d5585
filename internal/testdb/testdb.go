// Package testdb opens the integration-test database for repository tests.
package testdb

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"storefront/internal/migrate"
)

// Pool connects to TEST_DB_DSN, applies migrations and truncates all tables.
// The test is skipped when TEST_DB_DSN is unset.
func Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set; skipping database test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err, "connect db")
	t.Cleanup(pool.Close)

	require.NoError(t, migrate.Apply(ctx, pool), "apply migrations")
	_, err = pool.Exec(ctx, `TRUNCATE cart_lines, carts, promotions, products, tenants RESTART IDENTITY CASCADE`)
	require.NoError(t, err, "truncate tables")
	return pool
}

// Tenant inserts a tenant row and returns its id.
func Tenant(t *testing.T, pool *pgxpool.Pool, key string) string {
	t.Helper()
	var id string
	err := pool.QueryRow(context.Background(),
		`INSERT INTO tenants (key, name, currency) VALUES ($1, $1, 'EUR') RETURNING id::text`, key,
	).Scan(&id)
	require.NoError(t, err, "insert tenant")
	return id
}

// Product inserts a product row priced at price and returns its id.
func Product(t *testing.T, pool *pgxpool.Pool, tenantID, sku, price string) string {
	t.Helper()
	var id string
	err := pool.QueryRow(context.Background(), `
INSERT INTO products (tenant_id, key, sku, name, price, currency)
VALUES ($1, lower($2), $2, $2, $3::numeric, 'EUR')
RETURNING id::text
`, tenantID, sku, price).Scan(&id)
	require.NoError(t, err, "insert product")
	return id
}
