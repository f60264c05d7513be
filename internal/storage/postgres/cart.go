package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hilltop-eats/hilltop/internal/domain/cart"
)

const (
	getCartSQL = `SELECT user_id, items, discount, version FROM carts WHERE user_id = $1`

	replaceCartSQL = `UPDATE carts
		SET items = $2, discount = $3, version = version + 1
		WHERE user_id = $1`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL. Line items
// live in a JSONB column; the version column is bumped on every write.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// Get returns the user's cart. Every user has exactly one, created at
// registration.
func (r *CartRepository) Get(ctx context.Context, userID string) (*cart.Cart, error) {
	rows, err := r.pool.Query(ctx, getCartSQL, userID)
	if err != nil {
		return nil, errors.Wrapf(err, "get cart for %q", userID)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCart)
	if err != nil {
		return nil, errors.Wrapf(err, "get cart for %q", userID)
	}
	return &c, nil
}

// Replace swaps the cart contents and bumps the version.
func (r *CartRepository) Replace(ctx context.Context, userID string, items []cart.LineItem, discount int) error {
	itemsJSON, err := marshalLineItems(items)
	if err != nil {
		return err
	}
	if _, err := r.pool.Exec(ctx, replaceCartSQL, userID, itemsJSON, discount); err != nil {
		return errors.Wrapf(err, "replace cart for %q", userID)
	}
	return nil
}

func scanCart(row pgx.CollectableRow) (cart.Cart, error) {
	var (
		c         cart.Cart
		itemsJSON []byte
	)
	if err := row.Scan(&c.UserID, &itemsJSON, &c.Discount, &c.Version); err != nil {
		return c, err
	}
	if err := json.Unmarshal(itemsJSON, &c.Items); err != nil {
		return c, errors.Wrap(err, "unmarshal cart items")
	}
	return c, nil
}

func marshalLineItems(items []cart.LineItem) ([]byte, error) {
	if items == nil {
		items = []cart.LineItem{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return nil, errors.Wrap(err, "marshal line items")
	}
	return b, nil
}
