package checkout

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hilltop-eats/hilltop/internal/domain/cart"
	"github.com/hilltop-eats/hilltop/internal/domain/catalog"
	"github.com/hilltop-eats/hilltop/internal/domain/favourite"
	"github.com/hilltop-eats/hilltop/internal/domain/order"
	"github.com/hilltop-eats/hilltop/internal/domain/payment"
)

// --- Mock implementations ---

type mockCartRepo struct {
	mu   sync.Mutex
	cart cart.Cart
}

func (m *mockCartRepo) Get(_ context.Context, _ string) (*cart.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.cart
	c.Items = append([]cart.LineItem(nil), m.cart.Items...)
	return &c, nil
}

func (m *mockCartRepo) Replace(_ context.Context, _ string, items []cart.LineItem, discount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cart.Items = items
	m.cart.Discount = discount
	m.cart.Version++
	return nil
}

type mockProductRepo struct {
	byID map[string]*catalog.Product
}

func (m *mockProductRepo) List(_ context.Context) ([]catalog.Product, error) { return nil, nil }

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*catalog.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return p, nil
}

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []string) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockProductRepo) ListByCategory(_ context.Context, _ string) ([]catalog.Product, error) {
	return nil, nil
}
func (m *mockProductRepo) Create(_ context.Context, _ *catalog.Product) error { return nil }
func (m *mockProductRepo) Update(_ context.Context, _ *catalog.Product) error { return nil }
func (m *mockProductRepo) Delete(_ context.Context, _ string) error           { return nil }

type mockFavouriteRepo struct {
	fav *favourite.Favourite
}

func (m *mockFavouriteRepo) Get(_ context.Context, userID string) (*favourite.Favourite, error) {
	if m.fav == nil {
		return &favourite.Favourite{UserID: userID}, nil
	}
	return m.fav, nil
}

func (m *mockFavouriteRepo) Replace(_ context.Context, userID string, items []cart.LineItem) error {
	m.fav = &favourite.Favourite{UserID: userID, Items: items, LastModified: time.Now()}
	return nil
}

type mockProcessor struct {
	intent    *payment.Intent
	createErr error
	getErr    error
}

func (m *mockProcessor) CreateIntent(_ context.Context, amountMinor int64, currency string) (*payment.Intent, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &payment.Intent{
		ID:           "pi_test",
		ClientSecret: "pi_test_secret",
		AmountMinor:  amountMinor,
		Currency:     currency,
	}, nil
}

func (m *mockProcessor) GetIntent(_ context.Context, _ string) (*payment.Intent, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.intent, nil
}

// mockStore emulates the transactional store: the optimistic version check,
// cart clearing, and points accrual against shared mock state.
type mockStore struct {
	mu       sync.Mutex
	carts    *mockCartRepo
	consumed map[int64]bool
	orders   []*order.Order
	points   decimal.Decimal
	favBumps int
	err      error
}

func newMockStore(carts *mockCartRepo) *mockStore {
	return &mockStore{carts: carts, consumed: make(map[int64]bool)}
}

func (m *mockStore) FinalizeOrder(_ context.Context, o *order.Order, cartVersion int64, favouriteMatched bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.consumed[cartVersion] {
		return ErrCartConflict
	}
	m.consumed[cartVersion] = true

	m.carts.mu.Lock()
	m.carts.cart.Items = nil
	m.carts.cart.Discount = 0
	m.carts.cart.Version++
	m.carts.mu.Unlock()

	m.orders = append(m.orders, o)
	m.points = m.points.Add(o.Total)
	if favouriteMatched {
		m.favBumps++
	}
	return nil
}

// --- Helpers ---

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	svc        *Service
	carts      *mockCartRepo
	favourites *mockFavouriteRepo
	processor  *mockProcessor
	store      *mockStore
}

func newFixture(items ...cart.LineItem) *fixture {
	products := &mockProductRepo{byID: map[string]*catalog.Product{
		"p1": {ID: "p1", Name: "Margherita", Price: money("10.00")},
		"p2": {ID: "p2", Name: "Garlic Bread", Price: money("5.00")},
	}}
	carts := &mockCartRepo{cart: cart.Cart{UserID: "u1", Items: items, Version: 7}}
	store := newMockStore(carts)
	favourites := &mockFavouriteRepo{}
	processor := &mockProcessor{}
	cartSvc := cart.NewService(carts, products)
	return &fixture{
		svc:        NewService(cartSvc, favourites, processor, store, "usd"),
		carts:      carts,
		favourites: favourites,
		processor:  processor,
		store:      store,
	}
}

func confirmed(amountMinor int64) *payment.Intent {
	return &payment.Intent{
		ID:          "pi_test",
		AmountMinor: amountMinor,
		Currency:    "usd",
		Status:      payment.StatusSucceeded,
	}
}

func finalizeReq() FinalizeRequest {
	return FinalizeRequest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@hilltop.test",
		Confirmation: payment.Confirmation{
			IntentID:    "pi_test",
			Status:      payment.StatusSucceeded,
			ConfirmedAt: time.Now(),
		},
	}
}

// --- Tests ---

func TestBegin(t *testing.T) {
	f := newFixture(
		cart.LineItem{ItemID: "p1", Quantity: 2},
		cart.LineItem{ItemID: "p2", Quantity: 1},
	)
	f.carts.cart.Discount = 20

	q, err := f.svc.Begin(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "pi_test", q.IntentID)
	assert.Equal(t, "pi_test_secret", q.ClientSecret)
	assert.True(t, money("20.00").Equal(q.Cart.Total))
}

func TestBegin_EmptyCart(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Begin(context.Background(), "u1")
	require.ErrorIs(t, err, cart.ErrEmptyCart)
}

func TestBegin_ProcessorFailure(t *testing.T) {
	f := newFixture(cart.LineItem{ItemID: "p1", Quantity: 1})
	f.processor.createErr = payment.ErrUnavailable

	_, err := f.svc.Begin(context.Background(), "u1")
	require.ErrorIs(t, err, payment.ErrUnavailable)
	assert.Empty(t, f.store.orders)
}

func TestFinalize(t *testing.T) {
	f := newFixture(cart.LineItem{ItemID: "p1", Quantity: 2})
	f.processor.intent = confirmed(2000)

	o, err := f.svc.Finalize(context.Background(), "u1", finalizeReq())
	require.NoError(t, err)
	assert.Equal(t, order.StatusNew, o.Status)
	assert.True(t, money("20.00").Equal(o.Total))
	require.Len(t, o.Items, 1)
	assert.Equal(t, "Margherita", o.Items[0].Name)

	// Cart is emptied and discount reset.
	assert.Empty(t, f.carts.cart.Items)
	assert.Zero(t, f.carts.cart.Discount)
	// Points grew by exactly the order total.
	assert.True(t, o.Total.Equal(f.store.points))
}

func TestFinalize_NoConfirmation(t *testing.T) {
	f := newFixture(cart.LineItem{ItemID: "p1", Quantity: 1})

	req := finalizeReq()
	req.Confirmation.IntentID = ""
	_, err := f.svc.Finalize(context.Background(), "u1", req)
	require.ErrorIs(t, err, ErrPaymentNotConfirmed)
	assert.Empty(t, f.store.orders)
}

func TestFinalize_IntentNotSucceeded(t *testing.T) {
	f := newFixture(cart.LineItem{ItemID: "p1", Quantity: 1})
	f.processor.intent = &payment.Intent{ID: "pi_test", Status: "requires_payment_method"}

	_, err := f.svc.Finalize(context.Background(), "u1", finalizeReq())
	require.ErrorIs(t, err, ErrPaymentNotConfirmed)
	assert.Empty(t, f.store.orders)
}

func TestFinalize_AmountMismatch(t *testing.T) {
	f := newFixture(cart.LineItem{ItemID: "p1", Quantity: 2})
	f.processor.intent = confirmed(999)

	_, err := f.svc.Finalize(context.Background(), "u1", finalizeReq())
	require.ErrorIs(t, err, ErrAmountMismatch)
	assert.Empty(t, f.store.orders)
}

func TestFinalize_DeletedProduct(t *testing.T) {
	f := newFixture(
		cart.LineItem{ItemID: "p1", Quantity: 1},
		cart.LineItem{ItemID: "discontinued", Quantity: 1},
	)
	f.processor.intent = confirmed(1000)

	_, err := f.svc.Finalize(context.Background(), "u1", finalizeReq())
	var uiErr *cart.UnavailableItemError
	require.ErrorAs(t, err, &uiErr)
	assert.Equal(t, "discontinued", uiErr.ItemID)
	assert.Empty(t, f.store.orders)
}

func TestFinalize_BumpsFavouriteOnMatch(t *testing.T) {
	f := newFixture(
		cart.LineItem{ItemID: "p1", Quantity: 2},
		cart.LineItem{ItemID: "p2", Quantity: 1},
	)
	f.favourites.fav = &favourite.Favourite{
		UserID: "u1",
		Items: []cart.LineItem{
			{ItemID: "p2", Quantity: 1},
			{ItemID: "p1", Quantity: 2},
		},
	}
	f.processor.intent = confirmed(2500)

	_, err := f.svc.Finalize(context.Background(), "u1", finalizeReq())
	require.NoError(t, err)
	assert.Equal(t, 1, f.store.favBumps)
}

func TestFinalize_ConcurrentDoubleSubmit(t *testing.T) {
	f := newFixture(cart.LineItem{ItemID: "p1", Quantity: 2})
	f.processor.intent = confirmed(2000)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Finalize(context.Background(), "u1", finalizeReq())
		}(i)
	}
	wg.Wait()

	require.Len(t, f.store.orders, 1, "exactly one order must be created")
	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded)
}

func TestLoadFavourite(t *testing.T) {
	f := newFixture()
	f.favourites.fav = &favourite.Favourite{
		UserID:        "u1",
		Items:         []cart.LineItem{{ItemID: "p1", Quantity: 2}},
		PurchaseCount: 27,
	}

	discount, err := f.svc.LoadFavourite(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 5, discount)
	assert.Equal(t, 5, f.carts.cart.Discount)
	require.Len(t, f.carts.cart.Items, 1)
	assert.Equal(t, "p1", f.carts.cart.Items[0].ItemID)
}

func TestSaveFavourite(t *testing.T) {
	f := newFixture(cart.LineItem{ItemID: "p2", Quantity: 3})

	require.NoError(t, f.svc.SaveFavourite(context.Background(), "u1"))
	require.NotNil(t, f.favourites.fav)
	assert.Equal(t, []cart.LineItem{{ItemID: "p2", Quantity: 3}}, f.favourites.fav.Items)
}

func TestSaveFavourite_EmptyCart(t *testing.T) {
	f := newFixture()

	require.ErrorIs(t, f.svc.SaveFavourite(context.Background(), "u1"), cart.ErrEmptyCart)
}
