package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-pricing/internal/money"
	"github.com/xenking/storefront-pricing/internal/pricing"
)

const (
	getBasePriceSQL = `SELECT base_price FROM products WHERE ref = $1`

	getAttributeDeltaSQL = `SELECT delta FROM product_attribute_prices
		WHERE product_ref = $1 AND attr_name = $2 AND attr_value = $3`
)

var _ pricing.Catalog = (*CatalogRepository)(nil)

// CatalogRepository implements pricing.Catalog backed by PostgreSQL.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns a CatalogRepository that uses the given pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// LookupBasePrice returns the base unit price for a product. Unknown
// references fail with *pricing.ProductNotFoundError.
func (r *CatalogRepository) LookupBasePrice(ctx context.Context, ref string) (money.Amount, error) {
	var price decimal.Decimal
	err := r.pool.QueryRow(ctx, getBasePriceSQL, ref).Scan(&price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return money.Zero, &pricing.ProductNotFoundError{ProductRef: ref}
		}
		return money.Zero, fmt.Errorf("getting base price for %q: %w", ref, err)
	}
	return money.FromDecimal(price)
}

// LookupAttributeDelta returns the price delta for one selected attribute
// value. Deltas absent from the catalog are zero.
func (r *CatalogRepository) LookupAttributeDelta(ctx context.Context, ref string, attr pricing.Attribute) (money.Amount, error) {
	var delta decimal.Decimal
	err := r.pool.QueryRow(ctx, getAttributeDeltaSQL, ref, attr.Name, attr.Value).Scan(&delta)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return money.Zero, nil
		}
		return money.Zero, fmt.Errorf("getting attribute delta for %q %s=%s: %w", ref, attr.Name, attr.Value, err)
	}
	return money.FromDecimal(delta)
}
