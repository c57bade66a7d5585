package cart

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/domain"
)

const cartColumns = `id::text, tenant_id::text, session_id, currency, subtotal, items_count, state, created_at, updated_at`

type postgresRepo struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, log *zap.Logger) Repository {
	if log == nil {
		log = zap.NewNop()
	}
	return &postgresRepo{pool: pool, log: log.Named("cart_repo")}
}

func (r *postgresRepo) Create(ctx context.Context, in CreateCartInput) (*domain.Cart, error) {
	q := `
INSERT INTO carts (tenant_id, session_id, currency, subtotal, items_count, state)
VALUES ($1, $2, $3, 0, 0, 'active')
RETURNING ` + cartColumns
	cart, err := scanCart(r.pool.QueryRow(ctx, q, in.TenantID, in.SessionID, in.Currency))
	if err != nil {
		r.log.Error("create failed", zap.String("tenant_id", in.TenantID), zap.Error(err))
		return nil, err
	}
	r.log.Debug("created", zap.String("cart_id", cart.ID))
	return cart, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, tenantID, id string) (*domain.Cart, error) {
	q := `SELECT ` + cartColumns + `
FROM carts
WHERE tenant_id = $1 AND id = $2
`
	return r.fetchCart(ctx, q, tenantID, id)
}

func (r *postgresRepo) GetActiveBySession(ctx context.Context, tenantID, sessionID string) (*domain.Cart, error) {
	q := `SELECT ` + cartColumns + `
FROM carts
WHERE tenant_id = $1 AND session_id = $2 AND state = 'active'
ORDER BY created_at DESC
LIMIT 1
`
	return r.fetchCart(ctx, q, tenantID, sessionID)
}

func (r *postgresRepo) AddLineItem(ctx context.Context, cartID string, product domain.Product, quantity int, snapshot map[string]interface{}) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var lineID string
	err = tx.QueryRow(ctx, `
SELECT id::text
FROM cart_lines
WHERE cart_id = $1 AND product_id = $2
FOR UPDATE
`, cartID, product.ID).Scan(&lineID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	if err == nil {
		if _, err := tx.Exec(ctx, `
UPDATE cart_lines
SET quantity = quantity + $1, snapshot = $2
WHERE id = $3
`, quantity, snapshot, lineID); err != nil {
			return err
		}
	} else {
		if _, err := tx.Exec(ctx, `
INSERT INTO cart_lines (cart_id, product_id, quantity, price_snapshot, quantity_free, snapshot)
VALUES ($1, $2, $3, $4, 0, $5)
`, cartID, product.ID, quantity, product.Price, snapshot); err != nil {
			return err
		}
	}

	if err := touchCart(ctx, tx, cartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) ChangeLineItemQuantity(ctx context.Context, cartID, lineItemID string, quantity int) error {
	if quantity <= 0 {
		return r.RemoveLineItem(ctx, cartID, lineItemID)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `
UPDATE cart_lines
SET quantity = $1, quantity_free = LEAST(quantity_free, $1)
WHERE id = $2 AND cart_id = $3
`, quantity, lineItemID, cartID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	if err := touchCart(ctx, tx, cartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) RemoveLineItem(ctx context.Context, cartID, lineItemID string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `
DELETE FROM cart_lines
WHERE id = $1 AND cart_id = $2
`, lineItemID, cartID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	if err := touchCart(ctx, tx, cartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) SetLinePromotion(ctx context.Context, cartID, lineItemID string, promotionID *string) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE cart_lines
SET promotion_id = $1
WHERE id = $2 AND cart_id = $3
`, promotionID, lineItemID, cartID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) UpdateLinePricing(ctx context.Context, cartID string, line domain.CartLine) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE cart_lines
SET price_snapshot = $1, promotion_id = $2, quantity_free = $3
WHERE id = $4 AND cart_id = $5
`, line.PriceSnapshot, line.PromotionID, line.QuantityFree, line.ID, cartID)
	if err != nil {
		r.log.Error("update line pricing failed", zap.String("cart_id", cartID), zap.String("line_id", line.ID), zap.Error(err))
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) UpdateTotals(ctx context.Context, cartID string, subtotal decimal.Decimal, itemsCount int) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE carts
SET subtotal = $1, items_count = $2, updated_at = now()
WHERE id = $3
`, subtotal, itemsCount, cartID)
	if err != nil {
		r.log.Error("update totals failed", zap.String("cart_id", cartID), zap.Error(err))
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) SetState(ctx context.Context, tenantID, cartID, state string) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE carts
SET state = $1, updated_at = now()
WHERE tenant_id = $2 AND id = $3
`, state, tenantID, cartID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanCart(row pgx.Row) (*domain.Cart, error) {
	var cart domain.Cart
	if err := row.Scan(
		&cart.ID,
		&cart.TenantID,
		&cart.SessionID,
		&cart.Currency,
		&cart.Subtotal,
		&cart.ItemsCount,
		&cart.State,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *postgresRepo) fetchCart(ctx context.Context, cartQuery string, args ...interface{}) (*domain.Cart, error) {
	cart, err := scanCart(r.pool.QueryRow(ctx, cartQuery, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	const linesQuery = `
SELECT id::text, cart_id::text, product_id::text, quantity, price_snapshot, promotion_id::text, quantity_free, snapshot, created_at
FROM cart_lines
WHERE cart_id = $1
ORDER BY created_at ASC, id ASC
`
	rows, err := r.pool.Query(ctx, linesQuery, cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(
			&line.ID,
			&line.CartID,
			&line.ProductID,
			&line.Quantity,
			&line.PriceSnapshot,
			&line.PromotionID,
			&line.QuantityFree,
			&line.Snapshot,
			&line.CreatedAt,
		); err != nil {
			return nil, err
		}
		cart.Lines = append(cart.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return cart, nil
}

func touchCart(ctx context.Context, tx pgx.Tx, cartID string) error {
	_, err := tx.Exec(ctx, `UPDATE carts SET updated_at = now() WHERE id = $1`, cartID)
	return err
}
