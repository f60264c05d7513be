// Package payment defines the external payment-processor boundary.
package payment

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Intent statuses as reported by the processor.
const (
	StatusSucceeded = "succeeded"
)

// Processor failure modes.
var (
	// ErrDeclined is returned when the processor refuses the charge.
	ErrDeclined = errors.New("payment declined")
	// ErrUnavailable is returned when the processor cannot be reached or
	// responds outside its contract.
	ErrUnavailable = errors.New("payment processor unavailable")
)

// Intent is the processor's handle for an in-progress charge. The client
// secret completes confirmation from the browser.
type Intent struct {
	ID           string
	ClientSecret string
	AmountMinor  int64
	Currency     string
	Status       string
}

// Confirmation is the client-reported outcome of an intent, echoed back in
// the finalize-order request. It is never trusted on its own: the intent is
// re-fetched from the processor before any order is created.
type Confirmation struct {
	IntentID    string
	Status      string
	ConfirmedAt time.Time
}

// Processor creates and inspects payment intents. Amounts are integer minor
// currency units (cents).
type Processor interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency string) (*Intent, error)
	GetIntent(ctx context.Context, id string) (*Intent, error)
}
