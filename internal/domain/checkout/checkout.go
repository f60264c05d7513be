// Package checkout orchestrates quoting, payment-intent creation, and the
// atomic order-creation sequence.
package checkout

import (
	"context"
	"sync"

	"github.com/go-faster/errors"

	"github.com/hilltop-eats/hilltop/internal/domain/order"
)

// Sentinel errors for the checkout flow.
var (
	// ErrPaymentNotConfirmed is returned when the payment intent is missing
	// or the processor does not report it as succeeded.
	ErrPaymentNotConfirmed = errors.New("payment not confirmed")
	// ErrAmountMismatch is returned when the confirmed intent's amount does
	// not match the cart total at finalize time (stale quote).
	ErrAmountMismatch = errors.New("payment amount does not match cart total")
	// ErrCartConflict is returned when another finalize call consumed the
	// cart first (optimistic version check failed).
	ErrCartConflict = errors.New("cart was already checked out")
)

// Store commits the finalize sequence atomically: order insert, cart clear
// (guarded by cartVersion), points accrual equal to the order total, and the
// favourite purchase-counter bump when matched. Implementations must make
// this all-or-nothing and return ErrCartConflict when the version check
// fails.
type Store interface {
	FinalizeOrder(ctx context.Context, o *order.Order, cartVersion int64, favouriteMatched bool) error
}

// userLocks serializes finalize calls per user so double submits cannot both
// reach the transactional store with the same cart version. Entries are one
// mutex per user ever seen and are never evicted; at the expected user counts
// the map stays small, and keeping entries avoids the unlock/delete race a
// naive eviction would introduce.
type userLocks struct {
	mus sync.Map // userID -> *sync.Mutex
}

func (l *userLocks) lock(userID string) func() {
	mu, _ := l.mus.LoadOrStore(userID, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}
