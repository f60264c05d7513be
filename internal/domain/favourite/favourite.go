// Package favourite manages the per-user favourite order: a saved line-item
// template replayed into the cart, accruing a loyalty discount with repeated
// purchases.
package favourite

import (
	"context"
	"time"

	"github.com/hilltop-eats/hilltop/internal/domain/cart"
)

// Favourite is a user's saved line-item set plus its purchase counter.
type Favourite struct {
	UserID        string
	Items         []cart.LineItem
	PurchaseCount int
	LastModified  time.Time
}

// Repository defines persistence operations for favourites.
type Repository interface {
	Get(ctx context.Context, userID string) (*Favourite, error)
	Replace(ctx context.Context, userID string, items []cart.LineItem) error
}

// maxTierPercent caps the loyalty discount.
const maxTierPercent = 10

// DiscountTier returns the loyalty discount percentage earned by repeat
// purchases of the favourite set: one percent per five purchases, capped
// at ten.
func DiscountTier(purchaseCount int) int {
	if purchaseCount < 0 {
		return 0
	}
	tier := purchaseCount / 5
	if tier > maxTierPercent {
		return maxTierPercent
	}
	return tier
}

// Matches reports whether the given line items are the same item set as the
// favourite: same products with the same quantities, order-independent.
func (f *Favourite) Matches(items []cart.LineItem) bool {
	if len(f.Items) == 0 || len(f.Items) != len(items) {
		return false
	}
	want := make(map[string]int, len(f.Items))
	for _, li := range f.Items {
		want[li.ItemID] += li.Quantity
	}
	for _, li := range items {
		want[li.ItemID] -= li.Quantity
	}
	for _, qty := range want {
		if qty != 0 {
			return false
		}
	}
	return true
}
