package tenant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
	"storefront/internal/testdb"
)

func TestPostgres_CreateAndGetByKey(t *testing.T) {
	ctx := context.Background()
	pool := testdb.Pool(t)
	repo := NewPostgres(pool)

	created, err := repo.Create(ctx, &domain.Tenant{Key: "acme", Name: "Acme", Currency: "usd"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "USD", created.Currency)

	got, err := repo.GetByKey(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Acme", got.Name)

	_, err = repo.Create(ctx, &domain.Tenant{Key: "acme", Name: "Again"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = repo.GetByKey(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
