package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/hilltop-eats/hilltop/internal/domain/cart"
	"github.com/hilltop-eats/hilltop/internal/domain/favourite"
)

type cartLineView struct {
	ItemID    string          `json:"itemId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

type cartView struct {
	Items    []cartLineView  `json:"items"`
	Discount int             `json:"discount"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Total    decimal.Decimal `json:"total"`
}

func viewCart(rc *cart.ResolvedCart) cartView {
	lines := make([]cartLineView, len(rc.Lines))
	for i, l := range rc.Lines {
		lines[i] = cartLineView{
			ItemID:    l.Product.ID,
			Name:      l.Product.Name,
			Price:     l.Product.Price,
			Quantity:  l.Quantity,
			LineTotal: l.LineTotal,
		}
	}
	return cartView{
		Items:    lines,
		Discount: rc.Discount,
		Subtotal: rc.Subtotal,
		Total:    rc.Total,
	}
}

type addItemRequest struct {
	ItemID   string `json:"itemId" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	rc, err := h.carts.Resolve(r.Context(), id.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, viewCart(rc))
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	id, _ := identityFrom(r.Context())
	if err := h.carts.AddItem(r.Context(), id.UserID, req.ItemID, req.Quantity); err != nil {
		h.writeError(w, r, err)
		return
	}

	rc, err := h.carts.Resolve(r.Context(), id.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, viewCart(rc))
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	if err := h.carts.RemoveItem(r.Context(), id.UserID, chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}

	rc, err := h.carts.Resolve(r.Context(), id.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, viewCart(rc))
}

type favouriteView struct {
	Items         []cart.LineItem `json:"items"`
	PurchaseCount int             `json:"purchaseCount"`
	Discount      int             `json:"discount"`
	LastModified  time.Time       `json:"lastModified"`
}

func (h *Handler) getFavourite(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	fav, err := h.favourites.Get(r.Context(), id.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, favouriteView{
		Items:         fav.Items,
		PurchaseCount: fav.PurchaseCount,
		Discount:      favourite.DiscountTier(fav.PurchaseCount),
		LastModified:  fav.LastModified,
	})
}

// saveFavourite snapshots the current cart as the user's favourite order.
func (h *Handler) saveFavourite(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	if err := h.checkout.SaveFavourite(r.Context(), id.UserID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// loadFavourite replays the favourite into the cart, applying the loyalty
// discount, and returns the resulting cart.
func (h *Handler) loadFavourite(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	if _, err := h.checkout.LoadFavourite(r.Context(), id.UserID); err != nil {
		h.writeError(w, r, err)
		return
	}

	rc, err := h.carts.Resolve(r.Context(), id.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, viewCart(rc))
}
