// Command seed-db loads the menu from a JSON file and provisions the first
// administrator account.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/teris-io/shortid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hilltop-eats/hilltop/internal/domain/catalog"
	"github.com/hilltop-eats/hilltop/internal/storage/postgres"
)

type menuJSON struct {
	Categories []struct {
		Name     string `json:"name"`
		Products []struct {
			Name        string          `json:"name"`
			Price       decimal.Decimal `json:"price"`
			Description string          `json:"description"`
			Image       string          `json:"image"`
		} `json:"products"`
	} `json:"categories"`
}

func main() {
	var (
		databaseURL   string
		menuFile      string
		adminEmail    string
		adminPassword string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&menuFile, "menu-file", "db/seed/menu.json", "path to menu JSON file")
	flag.StringVar(&adminEmail, "admin-email", "", "administrator email to seed (or HILLTOP_SEED_ADMIN_EMAIL env)")
	flag.StringVar(&adminPassword, "admin-password", "", "administrator password to seed (or HILLTOP_SEED_ADMIN_PASSWORD env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if adminEmail == "" {
		adminEmail = os.Getenv("HILLTOP_SEED_ADMIN_EMAIL")
	}
	if adminPassword == "" {
		adminPassword = os.Getenv("HILLTOP_SEED_ADMIN_PASSWORD")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, menuFile, adminEmail, adminPassword); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, menuFile, adminEmail, adminPassword string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	seeder := postgres.NewSeeder(pool)

	if err := seedMenu(ctx, seeder, menuFile); err != nil {
		return errors.Wrap(err, "seed menu")
	}

	if adminEmail != "" && adminPassword != "" {
		if err := seedAdmin(ctx, seeder, adminEmail, adminPassword); err != nil {
			return errors.Wrap(err, "seed admin")
		}
	}

	return nil
}

func seedMenu(ctx context.Context, seeder *postgres.Seeder, menuFile string) error {
	slog.Info("reading menu file", slog.String("path", menuFile))

	data, err := os.ReadFile(menuFile)
	if err != nil {
		return errors.Wrap(err, "read menu file")
	}

	var menu menuJSON
	if err := json.Unmarshal(data, &menu); err != nil {
		return errors.Wrap(err, "parse menu JSON")
	}

	for _, c := range menu.Categories {
		category := catalog.Category{
			ID:   uuid.New().String(),
			Name: c.Name,
			Slug: catalog.Slugify(c.Name),
		}
		categoryID, err := seeder.UpsertCategory(ctx, category)
		if err != nil {
			return errors.Wrapf(err, "upsert category %s", c.Name)
		}

		slog.Info("upserted category", slog.String("name", c.Name), slog.Int("products", len(c.Products)))

		for _, p := range c.Products {
			product := catalog.Product{
				ID:          uuid.New().String(),
				Name:        p.Name,
				Slug:        catalog.Slugify(p.Name),
				Price:       p.Price,
				CategoryID:  categoryID,
				Description: p.Description,
				Image:       p.Image,
			}
			if err := seeder.UpsertProduct(ctx, product); err != nil {
				return errors.Wrapf(err, "upsert product %s", p.Name)
			}
		}
	}

	return nil
}

func seedAdmin(ctx context.Context, seeder *postgres.Seeder, email, password string) error {
	slog.Info("seeding administrator account", slog.String("email", email))

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}

	code, err := shortid.Generate()
	if err != nil {
		return errors.Wrap(err, "generate referral code")
	}

	if err := seeder.UpsertAdmin(ctx, uuid.New().String(), email, string(hash), code); err != nil {
		return errors.Wrap(err, "upsert administrator")
	}

	slog.Info("administrator ready", slog.String("email", email))
	return nil
}
