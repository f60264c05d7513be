package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hilltop-eats/hilltop/internal/domain/catalog"
	"github.com/hilltop-eats/hilltop/internal/domain/user"
)

const (
	upsertCategorySQL = `INSERT INTO categories (id, name, slug) VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`

	getCategoryIDBySlugSQL = `SELECT id FROM categories WHERE slug = $1`

	upsertProductSQL = `INSERT INTO products (id, name, slug, price, category_id, description, image)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT DO NOTHING`

	productExistsBySlugSQL = `SELECT EXISTS (SELECT 1 FROM products WHERE slug = $1)`

	updateProductBySlugSQL = `UPDATE products
		SET name = $2, price = $3, category_id = $4, description = $5, image = $6
		WHERE slug = $1`

	upsertAdminSQL = `INSERT INTO users (id, email, password_hash, role, referral_code)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO UPDATE SET password_hash = EXCLUDED.password_hash, role = EXCLUDED.role
		RETURNING id`
)

// Seeder performs the idempotent upserts used by the seed-db and menu-import
// commands. Menu rows are keyed by slug so re-running a seed updates rather
// than duplicates.
type Seeder struct {
	pool *pgxpool.Pool
}

// NewSeeder returns a Seeder that uses the given pool.
func NewSeeder(pool *pgxpool.Pool) *Seeder {
	return &Seeder{pool: pool}
}

// UpsertCategory inserts the category unless one with the same slug exists,
// and returns the ID of the row that holds the slug afterwards.
func (s *Seeder) UpsertCategory(ctx context.Context, c catalog.Category) (string, error) {
	var id string
	if err := s.pool.QueryRow(ctx, getCategoryIDBySlugSQL, c.Slug).Scan(&id); err == nil {
		return id, nil
	}
	if _, err := s.pool.Exec(ctx, upsertCategorySQL, c.ID, c.Name, c.Slug); err != nil {
		return "", errors.Wrapf(err, "insert category %q", c.Slug)
	}
	if err := s.pool.QueryRow(ctx, getCategoryIDBySlugSQL, c.Slug).Scan(&id); err != nil {
		return "", errors.Wrapf(err, "resolve category %q", c.Slug)
	}
	return id, nil
}

// UpsertProduct inserts the product, or updates the existing row carrying the
// same slug.
func (s *Seeder) UpsertProduct(ctx context.Context, p catalog.Product) error {
	var exists bool
	if err := s.pool.QueryRow(ctx, productExistsBySlugSQL, p.Slug).Scan(&exists); err != nil {
		return errors.Wrapf(err, "check product %q", p.Slug)
	}
	if exists {
		_, err := s.pool.Exec(ctx, updateProductBySlugSQL,
			p.Slug, p.Name, p.Price, p.CategoryID, p.Description, p.Image)
		return errors.Wrapf(err, "update product %q", p.Slug)
	}
	_, err := s.pool.Exec(ctx, upsertProductSQL,
		p.ID, p.Name, p.Slug, p.Price, p.CategoryID, p.Description, p.Image)
	return errors.Wrapf(err, "insert product %q", p.Slug)
}

// UpsertAdmin creates (or re-promotes) an administrator account and
// provisions its cart and favourite rows.
func (s *Seeder) UpsertAdmin(ctx context.Context, id, email, passwordHash, referralCode string) error {
	var userID string
	err := s.pool.QueryRow(ctx, upsertAdminSQL,
		id, email, passwordHash, user.RoleAdministrator, referralCode).Scan(&userID)
	if err != nil {
		return errors.Wrapf(err, "upsert admin %q", email)
	}

	if _, err := s.pool.Exec(ctx, insertCartRowSQL, userID); err != nil {
		return errors.Wrap(err, "provision admin cart")
	}
	if _, err := s.pool.Exec(ctx, insertFavouriteRowSQL, userID); err != nil {
		return errors.Wrap(err, "provision admin favourite")
	}
	return nil
}
