package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/hilltop-eats/hilltop/internal/domain/catalog"
	"github.com/hilltop-eats/hilltop/internal/domain/pricing"
)

// Service implements cart mutation and resolution against the catalog.
type Service struct {
	carts    Repository
	products catalog.ProductRepository
}

// NewService creates a cart Service.
func NewService(carts Repository, products catalog.ProductRepository) *Service {
	return &Service{carts: carts, products: products}
}

// AddItem appends qty of the given product to the user's cart, merging into
// an existing line when present. The product must exist in the catalog.
func (s *Service) AddItem(ctx context.Context, userID, itemID string, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if _, err := s.products.GetByID(ctx, itemID); err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			return &UnavailableItemError{ItemID: itemID}
		}
		return errors.Wrapf(err, "get product %s", itemID)
	}

	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return errors.Wrap(err, "get cart")
	}

	items := c.Items
	merged := false
	for i := range items {
		if items[i].ItemID == itemID {
			items[i].Quantity += qty
			merged = true
			break
		}
	}
	if !merged {
		items = append(items, LineItem{ItemID: itemID, Quantity: qty})
	}

	return s.carts.Replace(ctx, userID, items, c.Discount)
}

// RemoveItem deletes the line for the given product from the user's cart.
// Removing an item that is not in the cart is a no-op.
func (s *Service) RemoveItem(ctx context.Context, userID, itemID string) error {
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return errors.Wrap(err, "get cart")
	}

	items := make([]LineItem, 0, len(c.Items))
	for _, li := range c.Items {
		if li.ItemID != itemID {
			items = append(items, li)
		}
	}
	if len(items) == len(c.Items) {
		return nil
	}

	return s.carts.Replace(ctx, userID, items, c.Discount)
}

// SetContents replaces the cart's items and discount wholesale. Used by
// favourite-order replay.
func (s *Service) SetContents(ctx context.Context, userID string, items []LineItem, discount int) error {
	return s.carts.Replace(ctx, userID, items, discount)
}

// Resolve fetches the user's cart and joins every line item against the
// catalog. A line referencing a deleted product fails resolution with
// UnavailableItemError rather than being dropped silently.
func (s *Service) Resolve(ctx context.Context, userID string) (*ResolvedCart, error) {
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "get cart")
	}
	return s.resolve(ctx, c)
}

func (s *Service) resolve(ctx context.Context, c *Cart) (*ResolvedCart, error) {
	if len(c.Items) == 0 {
		return &ResolvedCart{Discount: c.Discount, Version: c.Version}, nil
	}

	ids := make([]string, len(c.Items))
	for i, li := range c.Items {
		ids[i] = li.ItemID
	}

	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	byID := make(map[string]catalog.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	lines := make([]ResolvedLine, len(c.Items))
	priceLines := make([]pricing.Line, len(c.Items))
	for i, li := range c.Items {
		p, ok := byID[li.ItemID]
		if !ok {
			return nil, &UnavailableItemError{ItemID: li.ItemID}
		}
		lines[i] = ResolvedLine{
			Product:   p,
			Quantity:  li.Quantity,
			LineTotal: p.Price.Mul(decimal.NewFromInt(int64(li.Quantity))),
		}
		priceLines[i] = pricing.Line{Price: p.Price, Quantity: li.Quantity}
	}

	subtotal := pricing.Subtotal(priceLines)
	return &ResolvedCart{
		Lines:    lines,
		Discount: c.Discount,
		Subtotal: subtotal,
		Total:    pricing.Total(subtotal, c.Discount),
		Version:  c.Version,
	}, nil
}
