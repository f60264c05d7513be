// Package order holds the append-only order ledger.
package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/hilltop-eats/hilltop/internal/domain/user"
)

// Status tracks an order through the kitchen and delivery.
type Status int

const (
	StatusNew            Status = 1
	StatusPreparing      Status = 2
	StatusOutForDelivery Status = 3
	StatusComplete       Status = 4
)

// Valid reports whether s is a known status code.
func (s Status) Valid() bool {
	return s >= StatusNew && s <= StatusComplete
}

func (s Status) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusPreparing:
		return "preparing"
	case StatusOutForDelivery:
		return "out for delivery"
	case StatusComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// ErrNotFound is returned when a requested order does not exist.
var ErrNotFound = errors.New("order not found")

// InvalidStatusError indicates an out-of-range status code.
type InvalidStatusError struct {
	Status Status
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("invalid order status %d", int(e.Status))
}

// Line is an immutable snapshot of a purchased item: the catalog price at
// purchase time is baked in.
type Line struct {
	ItemID   string          `json:"itemId"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// PaymentDetails snapshots the contact, address, and processor confirmation
// attached to an order.
type PaymentDetails struct {
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	Address      user.Address
	IntentID     string
	IntentStatus string
	ConfirmedAt  time.Time
	Notes        string
}

// Order is a finalized purchase. Everything except Status is immutable once
// created.
type Order struct {
	ID        string
	UserID    string
	Status    Status
	Items     []Line
	Discount  int
	Total     decimal.Decimal
	Payment   PaymentDetails
	CreatedAt time.Time
}

// Repository defines persistence operations for the order ledger.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context) ([]Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
}
