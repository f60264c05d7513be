package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/hilltop-eats/hilltop/internal/domain/catalog"
)

type productView struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
}

type categoryView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (h *Handler) viewProduct(p catalog.Product, categoryNames map[string]string) productView {
	image := p.Image
	if h.imageBaseURL != "" && image != "" && !strings.HasPrefix(image, "http") {
		image = strings.TrimSuffix(h.imageBaseURL, "/") + "/" + strings.TrimPrefix(image, "/")
	}
	return productView{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		Price:       p.Price,
		Category:    categoryNames[p.CategoryID],
		Description: p.Description,
		Image:       image,
	}
}

// categoryNames maps category ID to display name for response enrichment.
func (h *Handler) categoryNames(r *http.Request) (map[string]string, error) {
	cats, err := h.categories.List(r.Context())
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}
	return names, nil
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	names, err := h.categoryNames(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	views := make([]productView, len(products))
	for i, p := range products {
		views[i] = h.viewProduct(p, names)
	}
	h.writeJSON(w, r, http.StatusOK, views)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
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

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.categories.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	views := make([]categoryView, len(cats))
	for i, c := range cats {
		views[i] = categoryView{ID: c.ID, Name: c.Name, Slug: c.Slug}
	}
	h.writeJSON(w, r, http.StatusOK, views)
}

func (h *Handler) listProductsByCategory(w http.ResponseWriter, r *http.Request) {
	c, err := h.categories.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	products, err := h.products.ListByCategory(r.Context(), c.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	names := map[string]string{c.ID: c.Name}
	views := make([]productView, len(products))
	for i, p := range products {
		views[i] = h.viewProduct(p, names)
	}
	h.writeJSON(w, r, http.StatusOK, views)
}
