package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-pricing/internal/pricing"
)

const getTaxRateSQL = `SELECT rate FROM tax_rates WHERE region = $1 AND tax_class = $2`

var _ pricing.RateSource = (*TaxRateRepository)(nil)

// TaxRateRepository implements pricing.RateSource backed by PostgreSQL.
type TaxRateRepository struct {
	pool *pgxpool.Pool
}

// NewTaxRateRepository returns a TaxRateRepository that uses the given pool.
func NewTaxRateRepository(pool *pgxpool.Pool) *TaxRateRepository {
	return &TaxRateRepository{pool: pool}
}

// TaxRate returns the rate for the given region and tax class. Jurisdictions
// without a configured rate are untaxed: the rate is zero, not an error.
func (r *TaxRateRepository) TaxRate(ctx context.Context, tc pricing.TaxContext) (decimal.Decimal, error) {
	var rate decimal.Decimal
	err := r.pool.QueryRow(ctx, getTaxRateSQL, tc.Region, tc.TaxClass).Scan(&rate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("getting tax rate for %s/%s: %w", tc.Region, tc.TaxClass, err)
	}
	return rate, nil
}
