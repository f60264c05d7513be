package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hilltop-eats/hilltop/internal/domain/cart"
	"github.com/hilltop-eats/hilltop/internal/domain/catalog"
	"github.com/hilltop-eats/hilltop/internal/domain/checkout"
	"github.com/hilltop-eats/hilltop/internal/domain/order"
	"github.com/hilltop-eats/hilltop/internal/domain/payment"
	"github.com/hilltop-eats/hilltop/internal/domain/user"
)

var (
	errUnauthorized  = errors.New("authentication required")
	errNegativePrice = errors.New("price must not be negative")
)

// errorResponse is the uniform error body: a machine code mirroring the HTTP
// status and a human-readable message.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zctx.From(r.Context()).Error("Encode response", zap.Error(err))
	}
}

// writeError maps a domain error to its HTTP status and writes the uniform
// error body. Unknown errors become 500 with a generic message; the cause is
// logged, never leaked.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := errorStatus(err)
	if status == http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		message = "internal error"
	}
	h.writeJSON(w, r, status, errorResponse{Code: status, Message: message})
}

func errorStatus(err error) (int, string) {
	var (
		validationErrs   validator.ValidationErrors
		badRequestErr    badRequestError
		unavailableErr   *cart.UnavailableItemError
		invalidStatusErr *order.InvalidStatusError
	)
	switch {
	case errors.As(err, &validationErrs),
		errors.As(err, &badRequestErr),
		errors.As(err, &invalidStatusErr),
		errors.Is(err, cart.ErrEmptyCart),
		errors.Is(err, cart.ErrInvalidQuantity):
		return http.StatusBadRequest, err.Error()

	case errors.As(err, &unavailableErr):
		return http.StatusUnprocessableEntity, err.Error()

	case errors.Is(err, errUnauthorized),
		errors.Is(err, user.ErrInvalidCredentials):
		return http.StatusUnauthorized, err.Error()

	case errors.Is(err, user.ErrForbidden):
		return http.StatusForbidden, err.Error()

	case errors.Is(err, payment.ErrDeclined),
		errors.Is(err, checkout.ErrPaymentNotConfirmed):
		return http.StatusPaymentRequired, err.Error()

	case errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, catalog.ErrCategoryNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, user.ErrNotFound):
		return http.StatusNotFound, err.Error()

	case errors.Is(err, user.ErrEmailTaken),
		errors.Is(err, checkout.ErrCartConflict),
		errors.Is(err, checkout.ErrAmountMismatch):
		return http.StatusConflict, err.Error()

	case errors.Is(err, payment.ErrUnavailable):
		return http.StatusBadGateway, "payment processor unavailable"

	default:
		return http.StatusInternalServerError, err.Error()
	}
}

// decodeJSON reads the request body into v and runs struct validation.
func (h *Handler) decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequestError{errors.Wrap(err, "decode request body")}
	}
	if err := h.validate.Struct(v); err != nil {
		return err
	}
	return nil
}

// badRequestError marks malformed input that is not a validation failure.
type badRequestError struct{ err error }

func (e badRequestError) Error() string { return e.err.Error() }
func (e badRequestError) Unwrap() error { return e.err }
