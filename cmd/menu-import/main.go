// Command menu-import streams gzipped JSON-lines menu exports into the
// catalog. Each line is one product; files are processed concurrently and
// re-imports are idempotent (products are keyed by slug).
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/hilltop-eats/hilltop/internal/domain/catalog"
	"github.com/hilltop-eats/hilltop/internal/storage/postgres"
)

const progressEvery = 10_000

// row is one decoded export line.
type row struct {
	name        string
	price       decimal.Decimal
	category    string
	description string
	image       string
}

func main() {
	var (
		dataDir     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing menu-export *.jsonl.gz files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL); err != nil {
		slog.Error("menu import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("menu import completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "*.jsonl.gz"))
	if err != nil {
		return errors.Wrap(err, "glob data dir")
	}
	if len(files) == 0 {
		return errors.Errorf("no *.jsonl.gz files in %s", dataDir)
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	seeder := postgres.NewSeeder(pool)

	// Readers decode files concurrently; a single writer owns all DB work so
	// category resolution and duplicate suppression stay race-free.
	rows := make(chan row, 1024)

	g, ctx := errgroup.WithContext(ctx)
	readers, ctx := errgroup.WithContext(ctx)
	for _, f := range files {
		readers.Go(streamFile(ctx, f, rows))
	}
	g.Go(func() error {
		defer close(rows)
		return readers.Wait()
	})
	g.Go(func() error {
		return writeRows(ctx, seeder, rows)
	})

	return g.Wait()
}

// streamFile decompresses one export and emits a row per JSON line.
func streamFile(ctx context.Context, path string, rows chan<- row) func() error {
	return func() error {
		f, err := os.Open(path)
		if err != nil {
			return errors.Wrapf(err, "open %s", path)
		}
		defer func() { _ = f.Close() }()

		gz, err := pgzip.NewReader(f)
		if err != nil {
			return errors.Wrapf(err, "create gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()

		var count uint64
		scanner := bufio.NewScanner(gz)
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			r, err := decodeRow(line)
			if err != nil {
				return errors.Wrapf(err, "decode line in %s", path)
			}

			select {
			case rows <- r:
			case <-ctx.Done():
				return ctx.Err()
			}

			count++
			if count%progressEvery == 0 {
				slog.Info("import progress", slog.String("file", path), slog.Uint64("rows", count))
			}
		}
		if err := scanner.Err(); err != nil {
			return errors.Wrapf(err, "scan %s", path)
		}

		slog.Info("file complete", slog.String("file", path), slog.Uint64("rows", count))
		return nil
	}
}

// decodeRow parses one export line: {"name": ..., "price": ...,
// "category": ..., "description": ..., "image": ...}.
func decodeRow(line []byte) (row, error) {
	var r row
	d := jx.DecodeBytes(line)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "name":
			v, err := d.Str()
			r.name = v
			return err
		case "price":
			num, err := d.Num()
			if err != nil {
				return err
			}
			r.price, err = decimal.NewFromString(string(num))
			return err
		case "category":
			v, err := d.Str()
			r.category = v
			return err
		case "description":
			v, err := d.Str()
			r.description = v
			return err
		case "image":
			v, err := d.Str()
			r.image = v
			return err
		default:
			return d.Skip()
		}
	}); err != nil {
		return r, err
	}
	if r.name == "" {
		return r, errors.New("line has no product name")
	}
	if r.price.IsNegative() {
		return r, errors.Errorf("product %q has negative price", r.name)
	}
	return r, nil
}

// writeRows upserts decoded rows, creating categories on first sight and
// skipping exact duplicate slugs within the run.
func writeRows(ctx context.Context, seeder *postgres.Seeder, rows <-chan row) error {
	categoryIDs := make(map[string]string)
	seen := make(map[string]struct{})
	var written uint64

	for r := range rows {
		slug := catalog.Slugify(r.name)
		if _, dup := seen[slug]; dup {
			continue
		}
		seen[slug] = struct{}{}

		categoryID := ""
		if r.category != "" {
			id, ok := categoryIDs[r.category]
			if !ok {
				var err error
				id, err = seeder.UpsertCategory(ctx, catalog.Category{
					ID:   uuid.New().String(),
					Name: r.category,
					Slug: catalog.Slugify(r.category),
				})
				if err != nil {
					return errors.Wrapf(err, "upsert category %q", r.category)
				}
				categoryIDs[r.category] = id
			}
			categoryID = id
		}

		if err := seeder.UpsertProduct(ctx, catalog.Product{
			ID:          uuid.New().String(),
			Name:        r.name,
			Slug:        slug,
			Price:       r.price,
			CategoryID:  categoryID,
			Description: r.description,
			Image:       r.image,
		}); err != nil {
			return errors.Wrapf(err, "upsert product %q", r.name)
		}
		written++
	}

	slog.Info("products written", slog.Uint64("count", written))
	return nil
}
