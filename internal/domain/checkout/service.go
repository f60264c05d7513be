package checkout

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/hilltop-eats/hilltop/internal/domain/cart"
	"github.com/hilltop-eats/hilltop/internal/domain/favourite"
	"github.com/hilltop-eats/hilltop/internal/domain/order"
	"github.com/hilltop-eats/hilltop/internal/domain/payment"
	"github.com/hilltop-eats/hilltop/internal/domain/pricing"
	"github.com/hilltop-eats/hilltop/internal/domain/user"
)

// Service implements the checkout state machine: quote, await confirmation
// (client side), finalize.
type Service struct {
	carts      *cart.Service
	favourites favourite.Repository
	processor  payment.Processor
	store      Store
	currency   string
	locks      userLocks
}

// NewService creates a checkout Service. currency is the processor currency
// code for created intents (e.g. "usd").
func NewService(
	carts *cart.Service,
	favourites favourite.Repository,
	processor payment.Processor,
	store Store,
	currency string,
) *Service {
	return &Service{
		carts:      carts,
		favourites: favourites,
		processor:  processor,
		store:      store,
		currency:   currency,
	}
}

// Quote is the result of beginning checkout: the resolved cart plus the
// payment intent the client will confirm.
type Quote struct {
	Cart         *cart.ResolvedCart
	IntentID     string
	ClientSecret string
}

// Begin resolves the cart, computes the total, and opens a payment intent
// for it. The cart must be non-empty and fully resolvable.
func (s *Service) Begin(ctx context.Context, userID string) (*Quote, error) {
	rc, err := s.carts.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(rc.Lines) == 0 {
		return nil, cart.ErrEmptyCart
	}

	intent, err := s.processor.CreateIntent(ctx, pricing.MinorUnits(rc.Total), s.currency)
	if err != nil {
		return nil, errors.Wrap(err, "create payment intent")
	}

	return &Quote{
		Cart:         rc,
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
	}, nil
}

// FinalizeRequest carries the contact/address fields and the client-reported
// processor confirmation for order creation.
type FinalizeRequest struct {
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	Address      user.Address
	Notes        string
	Confirmation payment.Confirmation
}

// Finalize creates the order once payment is confirmed. The confirmation is
// verified against the processor, the cart is re-resolved (never trusted
// from the quote), and the whole write sequence — order insert, cart clear,
// points accrual, favourite counter — commits in one transaction. Exactly
// one of two concurrent calls for the same cart succeeds.
func (s *Service) Finalize(ctx context.Context, userID string, req FinalizeRequest) (*order.Order, error) {
	unlock := s.locks.lock(userID)
	defer unlock()

	if req.Confirmation.IntentID == "" {
		return nil, ErrPaymentNotConfirmed
	}

	intent, err := s.processor.GetIntent(ctx, req.Confirmation.IntentID)
	if err != nil {
		return nil, errors.Wrap(err, "verify payment intent")
	}
	if intent.Status != payment.StatusSucceeded {
		return nil, ErrPaymentNotConfirmed
	}

	rc, err := s.carts.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(rc.Lines) == 0 {
		return nil, cart.ErrEmptyCart
	}
	if intent.AmountMinor != pricing.MinorUnits(rc.Total) {
		return nil, ErrAmountMismatch
	}

	items := make([]order.Line, len(rc.Lines))
	rawItems := make([]cart.LineItem, len(rc.Lines))
	for i, line := range rc.Lines {
		items[i] = order.Line{
			ItemID:   line.Product.ID,
			Name:     line.Product.Name,
			Price:    line.Product.Price,
			Quantity: line.Quantity,
		}
		rawItems[i] = cart.LineItem{ItemID: line.Product.ID, Quantity: line.Quantity}
	}

	matched := false
	if fav, err := s.favourites.Get(ctx, userID); err == nil && fav != nil {
		matched = fav.Matches(rawItems)
	}

	o := &order.Order{
		ID:        uuid.New().String(),
		UserID:    userID,
		Status:    order.StatusNew,
		Items:     items,
		Discount:  rc.Discount,
		Total:     rc.Total,
		CreatedAt: time.Now(),
		Payment: order.PaymentDetails{
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			Email:        req.Email,
			Phone:        req.Phone,
			Address:      req.Address,
			IntentID:     intent.ID,
			IntentStatus: intent.Status,
			ConfirmedAt:  req.Confirmation.ConfirmedAt,
			Notes:        req.Notes,
		},
	}

	if err := s.store.FinalizeOrder(ctx, o, rc.Version, matched); err != nil {
		return nil, err
	}

	return o, nil
}

// LoadFavourite replays the user's favourite order into the cart and applies
// the loyalty discount tier earned by repeat purchases.
func (s *Service) LoadFavourite(ctx context.Context, userID string) (int, error) {
	fav, err := s.favourites.Get(ctx, userID)
	if err != nil {
		return 0, errors.Wrap(err, "get favourite")
	}
	discount := favourite.DiscountTier(fav.PurchaseCount)
	if err := s.carts.SetContents(ctx, userID, fav.Items, discount); err != nil {
		return 0, errors.Wrap(err, "replace cart")
	}
	return discount, nil
}

// SaveFavourite snapshots the current cart contents as the user's favourite.
func (s *Service) SaveFavourite(ctx context.Context, userID string) error {
	rc, err := s.carts.Resolve(ctx, userID)
	if err != nil {
		return err
	}
	if len(rc.Lines) == 0 {
		return cart.ErrEmptyCart
	}
	items := make([]cart.LineItem, len(rc.Lines))
	for i, line := range rc.Lines {
		items[i] = cart.LineItem{ItemID: line.Product.ID, Quantity: line.Quantity}
	}
	if err := s.favourites.Replace(ctx, userID, items); err != nil {
		return errors.Wrap(err, "replace favourite")
	}
	return nil
}
