// Command seed-db populates the database with catalog, tax, and discount
// data for local development and demos.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-pricing/internal/storage/postgres"
)

type productJSON struct {
	Ref        string          `json:"ref"`
	Name       string          `json:"name"`
	BasePrice  decimal.Decimal `json:"basePrice"`
	Attributes []struct {
		Name  string          `json:"name"`
		Value string          `json:"value"`
		Delta decimal.Decimal `json:"delta"`
	} `json:"attributes"`
}

type taxRateJSON struct {
	Region   string          `json:"region"`
	TaxClass string          `json:"taxClass"`
	Rate     decimal.Decimal `json:"rate"`
}

type discountRuleJSON struct {
	Code     string          `json:"code"`
	Kind     string          `json:"kind"`
	Value    decimal.Decimal `json:"value"`
	Stacking bool            `json:"stacking"`
	Priority int             `json:"priority"`
	Tier     string          `json:"tier"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
		taxFile      string
		rulesFile    string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&taxFile, "tax-file", "db/seed/tax_rates.json", "path to tax rates JSON file")
	flag.StringVar(&rulesFile, "rules-file", "db/seed/discount_rules.json", "path to discount rules JSON file")
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

	if err := run(ctx, databaseURL, productsFile, taxFile, rulesFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, taxFile, rulesFile string) error {
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

	if err := seedProducts(ctx, pool, productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if err := seedTaxRates(ctx, pool, taxFile); err != nil {
		return errors.Wrap(err, "seed tax rates")
	}

	if err := seedDiscountRules(ctx, pool, rulesFile); err != nil {
		return errors.Wrap(err, "seed discount rules")
	}

	return nil
}

func loadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read file")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrap(err, "parse JSON")
	}
	return nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, path string) error {
	slog.Info("reading products file", slog.String("path", path))

	var products []productJSON
	if err := loadJSON(path, &products); err != nil {
		return err
	}

	const upsertProduct = `INSERT INTO products (ref, name, base_price)
		VALUES ($1, $2, $3)
		ON CONFLICT (ref) DO UPDATE SET name = EXCLUDED.name, base_price = EXCLUDED.base_price`
	const upsertDelta = `INSERT INTO product_attribute_prices (product_ref, attr_name, attr_value, delta)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (product_ref, attr_name, attr_value) DO UPDATE SET delta = EXCLUDED.delta`

	for _, p := range products {
		if _, err := pool.Exec(ctx, upsertProduct, p.Ref, p.Name, p.BasePrice); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.Ref)
		}
		for _, a := range p.Attributes {
			if _, err := pool.Exec(ctx, upsertDelta, p.Ref, a.Name, a.Value, a.Delta); err != nil {
				return errors.Wrapf(err, "upsert attribute delta %s/%s=%s", p.Ref, a.Name, a.Value)
			}
		}
	}

	slog.Info("products seeded", slog.Int("count", len(products)))
	return nil
}

func seedTaxRates(ctx context.Context, pool *pgxpool.Pool, path string) error {
	slog.Info("reading tax rates file", slog.String("path", path))

	var rates []taxRateJSON
	if err := loadJSON(path, &rates); err != nil {
		return err
	}

	const upsertRate = `INSERT INTO tax_rates (region, tax_class, rate)
		VALUES ($1, $2, $3)
		ON CONFLICT (region, tax_class) DO UPDATE SET rate = EXCLUDED.rate`

	for _, r := range rates {
		if _, err := pool.Exec(ctx, upsertRate, r.Region, r.TaxClass, r.Rate); err != nil {
			return errors.Wrapf(err, "upsert tax rate %s/%s", r.Region, r.TaxClass)
		}
	}

	slog.Info("tax rates seeded", slog.Int("count", len(rates)))
	return nil
}

func seedDiscountRules(ctx context.Context, pool *pgxpool.Pool, path string) error {
	slog.Info("reading discount rules file", slog.String("path", path))

	var rules []discountRuleJSON
	if err := loadJSON(path, &rules); err != nil {
		return err
	}

	const upsertRule = `INSERT INTO discount_rules (code, kind, value, stacking, priority, tier, active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		ON CONFLICT (code) DO UPDATE
		SET kind = EXCLUDED.kind, value = EXCLUDED.value, stacking = EXCLUDED.stacking,
		    priority = EXCLUDED.priority, tier = EXCLUDED.tier, active = TRUE`

	for _, r := range rules {
		if _, err := pool.Exec(ctx, upsertRule, r.Code, r.Kind, r.Value, r.Stacking, r.Priority, r.Tier); err != nil {
			return errors.Wrapf(err, "upsert rule %s", r.Code)
		}
	}

	slog.Info("discount rules seeded", slog.Int("count", len(rules)))
	return nil
}
