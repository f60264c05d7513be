package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hilltop-eats/hilltop/internal/domain/checkout"
	"github.com/hilltop-eats/hilltop/internal/domain/order"
)

const (
	insertOrderSQL = `INSERT INTO orders
		(id, user_id, status, items, discount, total,
		 first_name, last_name, email, phone, street1, street2, city,
		 intent_id, intent_status, confirmed_at, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	clearCartSQL = `UPDATE carts
		SET items = '[]', discount = 0, version = version + 1
		WHERE user_id = $1 AND version = $2`

	accruePointsSQL = `UPDATE users SET points = points + $2 WHERE id = $1`

	bumpPurchaseCountSQL = `UPDATE favourites
		SET purchase_count = purchase_count + 1
		WHERE user_id = $1`
)

var _ checkout.Store = (*CheckoutStore)(nil)

// CheckoutStore commits the order-creation sequence in a single transaction:
// order insert, cart clear guarded by the version the quote was built from,
// points accrual, and the favourite counter bump.
type CheckoutStore struct {
	pool *pgxpool.Pool
}

// NewCheckoutStore returns a CheckoutStore that uses the given pool.
func NewCheckoutStore(pool *pgxpool.Pool) *CheckoutStore {
	return &CheckoutStore{pool: pool}
}

// FinalizeOrder writes the order and its side effects atomically. If the cart
// version moved since the quote, nothing is committed and ErrCartConflict is
// returned.
func (s *CheckoutStore) FinalizeOrder(ctx context.Context, o *order.Order, cartVersion int64, favouriteMatched bool) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return errors.Wrap(err, "marshal order items")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin finalize transaction")
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	var confirmedAt *time.Time
	if !o.Payment.ConfirmedAt.IsZero() {
		confirmedAt = &o.Payment.ConfirmedAt
	}

	if _, err := tx.Exec(ctx, insertOrderSQL,
		o.ID, o.UserID, o.Status, itemsJSON, o.Discount, o.Total,
		o.Payment.FirstName, o.Payment.LastName, o.Payment.Email, o.Payment.Phone,
		o.Payment.Address.Street1, o.Payment.Address.Street2, o.Payment.Address.City,
		o.Payment.IntentID, o.Payment.IntentStatus, confirmedAt,
		o.Payment.Notes, o.CreatedAt,
	); err != nil {
		return errors.Wrapf(err, "insert order %q", o.ID)
	}

	tag, err := tx.Exec(ctx, clearCartSQL, o.UserID, cartVersion)
	if err != nil {
		return errors.Wrapf(err, "clear cart for %q", o.UserID)
	}
	if tag.RowsAffected() == 0 {
		return checkout.ErrCartConflict
	}

	if _, err := tx.Exec(ctx, accruePointsSQL, o.UserID, o.Total); err != nil {
		return errors.Wrapf(err, "accrue points for %q", o.UserID)
	}

	if favouriteMatched {
		if _, err := tx.Exec(ctx, bumpPurchaseCountSQL, o.UserID); err != nil {
			return errors.Wrapf(err, "bump purchase count for %q", o.UserID)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit finalize transaction")
	}
	return nil
}
