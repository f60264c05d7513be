// Package handler exposes the storefront and CRM over HTTP.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/hilltop-eats/hilltop/internal/domain/cart"
	"github.com/hilltop-eats/hilltop/internal/domain/catalog"
	"github.com/hilltop-eats/hilltop/internal/domain/checkout"
	"github.com/hilltop-eats/hilltop/internal/domain/favourite"
	"github.com/hilltop-eats/hilltop/internal/domain/order"
	"github.com/hilltop-eats/hilltop/internal/domain/user"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in product responses.
	// When empty, image paths are returned as stored in the database.
	ImageBaseURL string
	Tokens       TokenConfig
}

// Handler routes HTTP requests to the domain services.
type Handler struct {
	users      *user.Service
	userRepo   user.Repository
	carts      *cart.Service
	checkout   *checkout.Service
	favourites favourite.Repository
	orders     order.Repository
	products   catalog.ProductRepository
	categories catalog.CategoryRepository

	tokens       TokenConfig
	imageBaseURL string
	validate     *validator.Validate
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	cfg Config,
	users *user.Service,
	userRepo user.Repository,
	carts *cart.Service,
	co *checkout.Service,
	favourites favourite.Repository,
	orders order.Repository,
	products catalog.ProductRepository,
	categories catalog.CategoryRepository,
) *Handler {
	return &Handler{
		users:        users,
		userRepo:     userRepo,
		carts:        carts,
		checkout:     co,
		favourites:   favourites,
		orders:       orders,
		products:     products,
		categories:   categories,
		tokens:       cfg.Tokens,
		imageBaseURL: cfg.ImageBaseURL,
		validate:     validator.New(),
	}
}

// Routes builds the API router. Public storefront reads need no session;
// everything cart-and-beyond requires one; CRM routes are gated by role.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	// Public.
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.Get("/products", h.listProducts)
	r.Get("/products/{id}", h.getProduct)
	r.Get("/categories", h.listCategories)
	r.Get("/categories/{slug}/products", h.listProductsByCategory)

	// Authenticated storefront.
	r.Group(func(r chi.Router) {
		r.Use(h.authenticate)

		r.Post("/logout", h.logout)
		r.Get("/me", h.me)
		r.Put("/me/password", h.changePassword)

		r.Get("/cart", h.getCart)
		r.Post("/cart/items", h.addCartItem)
		r.Delete("/cart/items/{id}", h.removeCartItem)

		r.Get("/favourite", h.getFavourite)
		r.Put("/favourite", h.saveFavourite)
		r.Post("/favourite/load", h.loadFavourite)

		r.Post("/checkout", h.beginCheckout)
		r.Post("/checkout/finalize", h.finalizeCheckout)

		r.Get("/orders", h.listMyOrders)
		r.Get("/orders/{id}", h.getOrder)
	})

	// CRM.
	r.Route("/crm", func(r chi.Router) {
		r.Use(h.authenticate)

		r.Group(func(r chi.Router) {
			r.Use(h.requireRole(user.RoleEmployee))
			r.Get("/orders", h.listAllOrders)
			r.Get("/orders/{id}", h.getOrder)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.requireRole(user.RoleManager))
			r.Put("/orders/{id}/status", h.updateOrderStatus)

			r.Post("/products", h.createProduct)
			r.Put("/products/{id}", h.updateProduct)
			r.Delete("/products/{id}", h.deleteProduct)

			r.Post("/categories", h.createCategory)
			r.Put("/categories/{id}", h.updateCategory)
			r.Delete("/categories/{id}", h.deleteCategory)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.requireRole(user.RoleAdministrator))
			r.Get("/users", h.listUsers)
			r.Put("/users/{id}/role", h.assignRole)
		})
	})

	return r
}
