package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hilltop-eats/hilltop/internal/domain/order"
)

const (
	orderColumns = `id, user_id, status, items, discount, total,
		first_name, last_name, email, phone, street1, street2, city,
		intent_id, intent_status, confirmed_at, notes, created_at`

	getOrderByIDSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	listOrdersSQL = `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`

	listOrdersByUserSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE user_id = $1 ORDER BY created_at DESC`

	updateOrderStatusSQL = `UPDATE orders SET status = $2 WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. Orders are
// only inserted through the checkout store; this repository reads and updates
// status.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// GetByID returns a single order.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get order %q", id)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get order %q", id)
	}
	return &o, nil
}

// List returns every order, newest first.
func (r *OrderRepository) List(ctx context.Context) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return pgx.CollectRows(rows, scanOrder)
}

// ListByUser returns the user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByUserSQL, userID)
	if err != nil {
		return nil, errors.Wrapf(err, "list orders for %q", userID)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// UpdateStatus moves an order through the fulfilment pipeline.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status order.Status) error {
	if !status.Valid() {
		return &order.InvalidStatusError{Status: status}
	}
	tag, err := r.pool.Exec(ctx, updateOrderStatusSQL, id, status)
	if err != nil {
		return errors.Wrapf(err, "update status of order %q", id)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o           order.Order
		itemsJSON   []byte
		confirmedAt *time.Time
	)
	err := row.Scan(&o.ID, &o.UserID, &o.Status, &itemsJSON, &o.Discount, &o.Total,
		&o.Payment.FirstName, &o.Payment.LastName, &o.Payment.Email, &o.Payment.Phone,
		&o.Payment.Address.Street1, &o.Payment.Address.Street2, &o.Payment.Address.City,
		&o.Payment.IntentID, &o.Payment.IntentStatus, &confirmedAt,
		&o.Payment.Notes, &o.CreatedAt)
	if err != nil {
		return o, err
	}
	if confirmedAt != nil {
		o.Payment.ConfirmedAt = *confirmedAt
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return o, errors.Wrap(err, "unmarshal order items")
	}
	return o, nil
}
