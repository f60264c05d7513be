package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/hilltop-eats/hilltop/internal/domain/checkout"
	"github.com/hilltop-eats/hilltop/internal/domain/order"
	"github.com/hilltop-eats/hilltop/internal/domain/payment"
	"github.com/hilltop-eats/hilltop/internal/domain/user"
)

type quoteView struct {
	Cart         cartView `json:"cart"`
	IntentID     string   `json:"intentId"`
	ClientSecret string   `json:"clientSecret"`
}

// beginCheckout resolves the cart and opens a payment intent for its total.
// The client confirms the intent with the processor using the secret, then
// calls finalize.
func (h *Handler) beginCheckout(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	quote, err := h.checkout.Begin(r.Context(), id.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, quoteView{
		Cart:         viewCart(quote.Cart),
		IntentID:     quote.IntentID,
		ClientSecret: quote.ClientSecret,
	})
}

type finalizeRequest struct {
	FirstName string       `json:"firstName" validate:"required"`
	LastName  string       `json:"lastName" validate:"required"`
	Email     string       `json:"email" validate:"required,email"`
	Phone     string       `json:"phone"`
	Address   user.Address `json:"address"`
	Notes     string       `json:"notes"`
	Payment   struct {
		IntentID    string    `json:"id" validate:"required"`
		Status      string    `json:"status"`
		ConfirmedAt time.Time `json:"timestamp"`
	} `json:"payment"`
}

type orderView struct {
	ID        string             `json:"id"`
	UserID    string             `json:"userId"`
	Status    int                `json:"status"`
	Items     []order.Line       `json:"items"`
	Discount  int                `json:"discount"`
	Total     decimal.Decimal    `json:"total"`
	Payment   paymentDetailsView `json:"payment"`
	CreatedAt time.Time          `json:"createdAt"`
}

type paymentDetailsView struct {
	FirstName   string       `json:"firstName"`
	LastName    string       `json:"lastName"`
	Email       string       `json:"email"`
	Phone       string       `json:"phone"`
	Address     user.Address `json:"address"`
	IntentID    string       `json:"intentId"`
	Status      string       `json:"status"`
	ConfirmedAt time.Time    `json:"confirmedAt"`
	Notes       string       `json:"notes"`
}

func viewOrder(o *order.Order) orderView {
	return orderView{
		ID:       o.ID,
		UserID:   o.UserID,
		Status:   int(o.Status),
		Items:    o.Items,
		Discount: o.Discount,
		Total:    o.Total,
		Payment: paymentDetailsView{
			FirstName:   o.Payment.FirstName,
			LastName:    o.Payment.LastName,
			Email:       o.Payment.Email,
			Phone:       o.Payment.Phone,
			Address:     o.Payment.Address,
			IntentID:    o.Payment.IntentID,
			Status:      o.Payment.IntentStatus,
			ConfirmedAt: o.Payment.ConfirmedAt,
			Notes:       o.Payment.Notes,
		},
		CreatedAt: o.CreatedAt,
	}
}

// finalizeCheckout verifies the payment server-side and commits the order.
func (h *Handler) finalizeCheckout(w http.ResponseWriter, r *http.Request) {
	var req finalizeRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	id, _ := identityFrom(r.Context())
	o, err := h.checkout.Finalize(r.Context(), id.UserID, checkout.FinalizeRequest{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
		Notes:     req.Notes,
		Confirmation: payment.Confirmation{
			IntentID:    req.Payment.IntentID,
			Status:      req.Payment.Status,
			ConfirmedAt: req.Payment.ConfirmedAt,
		},
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, viewOrder(o))
}

func (h *Handler) listMyOrders(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	orders, err := h.orders.ListByUser(r.Context(), id.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, viewOrders(orders))
}

// getOrder serves both the storefront and CRM order detail: customers may
// only see their own orders, Employee and above may see any.
func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	o, err := h.orders.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if o.UserID != id.UserID {
		if err := user.Authorize(id.Role, user.RoleEmployee); err != nil {
			h.writeError(w, r, order.ErrNotFound)
			return
		}
	}
	h.writeJSON(w, r, http.StatusOK, viewOrder(o))
}

func viewOrders(orders []order.Order) []orderView {
	views := make([]orderView, len(orders))
	for i := range orders {
		views[i] = viewOrder(&orders[i])
	}
	return views
}
