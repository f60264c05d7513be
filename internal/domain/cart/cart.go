// Package cart manages the single mutable per-user cart.
package cart

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/hilltop-eats/hilltop/internal/domain/catalog"
)

// LineItem is a product reference plus quantity inside a cart or favourite.
type LineItem struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

// Cart holds a user's pending line items and loyalty discount. Version is
// bumped on every write and guards concurrent checkout finalization.
type Cart struct {
	UserID   string
	Items    []LineItem
	Discount int
	Version  int64
}

// ResolvedLine is a cart line item joined with its catalog product.
type ResolvedLine struct {
	Product   catalog.Product
	Quantity  int
	LineTotal decimal.Decimal
}

// ResolvedCart is the enriched cart view used for display and for total
// computation.
type ResolvedCart struct {
	Lines    []ResolvedLine
	Discount int
	Subtotal decimal.Decimal
	Total    decimal.Decimal
	Version  int64
}

// Repository defines persistence operations for carts.
type Repository interface {
	Get(ctx context.Context, userID string) (*Cart, error)
	// Replace swaps the cart's items and discount wholesale and bumps the
	// version.
	Replace(ctx context.Context, userID string, items []LineItem, discount int) error
}

// Sentinel errors for cart validation.
var (
	ErrEmptyCart       = fmt.Errorf("cart is empty")
	ErrInvalidQuantity = fmt.Errorf("quantity must be greater than 0")
)

// UnavailableItemError indicates a cart line references a product that no
// longer exists in the catalog.
type UnavailableItemError struct {
	ItemID string
}

func (e *UnavailableItemError) Error() string {
	return fmt.Sprintf("item %s is no longer available", e.ItemID)
}
