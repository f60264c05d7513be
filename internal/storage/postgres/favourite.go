package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hilltop-eats/hilltop/internal/domain/cart"
	"github.com/hilltop-eats/hilltop/internal/domain/favourite"
)

const (
	getFavouriteSQL = `SELECT user_id, items, purchase_count, last_modified
		FROM favourites WHERE user_id = $1`

	replaceFavouriteSQL = `UPDATE favourites
		SET items = $2, last_modified = now()
		WHERE user_id = $1`
)

var _ favourite.Repository = (*FavouriteRepository)(nil)

// FavouriteRepository implements favourite.Repository backed by PostgreSQL.
type FavouriteRepository struct {
	pool *pgxpool.Pool
}

// NewFavouriteRepository returns a FavouriteRepository that uses the given pool.
func NewFavouriteRepository(pool *pgxpool.Pool) *FavouriteRepository {
	return &FavouriteRepository{pool: pool}
}

// Get returns the user's favourite order. Every user has exactly one,
// created empty at registration.
func (r *FavouriteRepository) Get(ctx context.Context, userID string) (*favourite.Favourite, error) {
	rows, err := r.pool.Query(ctx, getFavouriteSQL, userID)
	if err != nil {
		return nil, errors.Wrapf(err, "get favourite for %q", userID)
	}

	f, err := pgx.CollectExactlyOneRow(rows, scanFavourite)
	if err != nil {
		return nil, errors.Wrapf(err, "get favourite for %q", userID)
	}
	return &f, nil
}

// Replace swaps the favourite's line items, keeping the purchase counter.
func (r *FavouriteRepository) Replace(ctx context.Context, userID string, items []cart.LineItem) error {
	itemsJSON, err := marshalLineItems(items)
	if err != nil {
		return err
	}
	if _, err := r.pool.Exec(ctx, replaceFavouriteSQL, userID, itemsJSON); err != nil {
		return errors.Wrapf(err, "replace favourite for %q", userID)
	}
	return nil
}

func scanFavourite(row pgx.CollectableRow) (favourite.Favourite, error) {
	var (
		f         favourite.Favourite
		itemsJSON []byte
	)
	if err := row.Scan(&f.UserID, &itemsJSON, &f.PurchaseCount, &f.LastModified); err != nil {
		return f, err
	}
	if err := json.Unmarshal(itemsJSON, &f.Items); err != nil {
		return f, errors.Wrap(err, "unmarshal favourite items")
	}
	return f, nil
}
