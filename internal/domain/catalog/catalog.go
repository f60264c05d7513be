// Package catalog holds the menu: categories and the products inside them.
package catalog

import (
	"context"
	"regexp"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrProductNotFound is returned when a requested product does not exist.
	ErrProductNotFound = errors.New("product not found")
	// ErrCategoryNotFound is returned when a requested category does not exist.
	ErrCategoryNotFound = errors.New("category not found")
)

// Category groups products on the storefront menu.
type Category struct {
	ID   string
	Name string
	Slug string
}

// Product represents a menu item available for purchase.
type Product struct {
	ID          string
	Name        string
	Slug        string
	Price       decimal.Decimal
	CategoryID  string
	Description string
	Image       string
}

// ProductRepository defines persistence operations for products.
type ProductRepository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
	ListByCategory(ctx context.Context, categoryID string) ([]Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
}

// CategoryRepository defines persistence operations for categories.
type CategoryRepository interface {
	List(ctx context.Context) ([]Category, error)
	GetBySlug(ctx context.Context, slug string) (*Category, error)
	Create(ctx context.Context, c *Category) error
	Update(ctx context.Context, c *Category) error
	Delete(ctx context.Context, id string) error
}

var (
	dashRuns    = regexp.MustCompile(`-+`)
	nonWordDash = regexp.MustCompile(`[^\w-]+`)
)

// Slugify derives a URL-safe slug from a display name: lowercase, spaces to
// dashes, dash runs collapsed, anything outside [A-Za-z0-9_-] stripped.
func Slugify(name string) string {
	s := strings.ToLower(name)
	s = strings.ReplaceAll(s, " ", "-")
	s = dashRuns.ReplaceAllString(s, "-")
	return nonWordDash.ReplaceAllString(s, "")
}
