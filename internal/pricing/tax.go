package pricing

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-pricing/internal/money"
)

// TaxContext identifies the jurisdiction and tax class for a quote.
type TaxContext struct {
	Region   string
	TaxClass string
}

// RateSource resolves the tax rate for a context (0.08 for 8%). Rate rules
// are owned by the tax collaborator; this package only applies them.
type RateSource interface {
	TaxRate(ctx context.Context, tc TaxContext) (decimal.Decimal, error)
}

// TaxCalculator applies the resolved rate to the post-discount taxable amount.
type TaxCalculator struct {
	rates RateSource
}

// NewTaxCalculator creates a TaxCalculator backed by the given rate source.
func NewTaxCalculator(rates RateSource) *TaxCalculator {
	return &TaxCalculator{rates: rates}
}

// ComputeTax returns the TAX line item for the given taxable amount, settled
// once. A zero or fully discounted taxable amount still yields a zero-amount
// TAX line, keeping the adjustment set stable across orders.
func (c *TaxCalculator) ComputeTax(ctx context.Context, taxable money.Amount, tc TaxContext) (LineItem, error) {
	line := LineItem{Label: LabelTax, DisplayOrder: DisplayOrderTax}
	if !taxable.IsPositive() {
		return line, nil
	}

	rate, err := c.rates.TaxRate(ctx, tc)
	if err != nil {
		return LineItem{}, errors.Wrap(err, "lookup tax rate")
	}

	amount, err := taxable.MulRate(rate)
	if err != nil {
		return LineItem{}, errors.Wrapf(err, "apply tax rate %s", rate)
	}

	line.Amount = amount.Settle()
	return line, nil
}
