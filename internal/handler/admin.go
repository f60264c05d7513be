package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hilltop-eats/hilltop/internal/domain/catalog"
	"github.com/hilltop-eats/hilltop/internal/domain/order"
	"github.com/hilltop-eats/hilltop/internal/domain/user"
)

func (h *Handler) listAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, viewOrders(orders))
}

type updateStatusRequest struct {
	Status int `json:"status" validate:"required"`
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	orderID := chi.URLParam(r, "id")
	if err := h.orders.UpdateStatus(r.Context(), orderID, order.Status(req.Status)); err != nil {
		h.writeError(w, r, err)
		return
	}

	o, err := h.orders.GetByID(r.Context(), orderID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, viewOrder(o))
}

type productRequest struct {
	Name        string          `json:"name" validate:"required"`
	Price       decimal.Decimal `json:"price" validate:"required"`
	CategoryID  string          `json:"categoryId"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Price.IsNegative() {
		h.writeError(w, r, badRequestError{errNegativePrice})
		return
	}

	p := &catalog.Product{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Slug:        catalog.Slugify(req.Name),
		Price:       req.Price,
		CategoryID:  req.CategoryID,
		Description: req.Description,
		Image:       req.Image,
	}
	if err := h.products.Create(r.Context(), p); err != nil {
		h.writeError(w, r, err)
		return
	}

	names, err := h.categoryNames(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, h.viewProduct(*p, names))
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Price.IsNegative() {
		h.writeError(w, r, badRequestError{errNegativePrice})
		return
	}

	p := &catalog.Product{
		ID:          chi.URLParam(r, "id"),
		Name:        req.Name,
		Slug:        catalog.Slugify(req.Name),
		Price:       req.Price,
		CategoryID:  req.CategoryID,
		Description: req.Description,
		Image:       req.Image,
	}
	if err := h.products.Update(r.Context(), p); err != nil {
		h.writeError(w, r, err)
		return
	}

	names, err := h.categoryNames(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, h.viewProduct(*p, names))
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.products.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type categoryRequest struct {
	Name string `json:"name" validate:"required"`
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	c := &catalog.Category{
		ID:   uuid.New().String(),
		Name: req.Name,
		Slug: catalog.Slugify(req.Name),
	}
	if err := h.categories.Create(r.Context(), c); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, categoryView{ID: c.ID, Name: c.Name, Slug: c.Slug})
}

func (h *Handler) updateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	c := &catalog.Category{
		ID:   chi.URLParam(r, "id"),
		Name: req.Name,
		Slug: catalog.Slugify(req.Name),
	}
	if err := h.categories.Update(r.Context(), c); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, categoryView{ID: c.ID, Name: c.Name, Slug: c.Slug})
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.categories.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userRepo.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	views := make([]userView, len(users))
	for i := range users {
		views[i] = viewUser(&users[i])
	}
	h.writeJSON(w, r, http.StatusOK, views)
}

type assignRoleRequest struct {
	Role int `json:"role" validate:"required,min=1,max=4"`
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	var req assignRoleRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	id, _ := identityFrom(r.Context())
	targetID := chi.URLParam(r, "id")
	if err := h.users.AssignRole(r.Context(), id.Role, targetID, user.Role(req.Role)); err != nil {
		h.writeError(w, r, err)
		return
	}

	u, err := h.userRepo.GetByID(r.Context(), targetID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, viewUser(u))
}
