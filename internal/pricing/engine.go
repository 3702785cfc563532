// Package pricing implements the order total engine: unit price resolution,
// customer discounts, tax and shipping combined into an ordered, settled
// summary. The engine is a pure synchronous computation; the only blocking
// points are the collaborator lookups (catalog, discount rules, tax rates)
// supplied by the host application.
package pricing

import (
	"context"
	"fmt"

	"github.com/xenking/storefront-pricing/internal/money"
)

// ErrEmptyLines is returned when a quote request carries no order lines.
var ErrEmptyLines = fmt.Errorf("order lines required")

// InvalidQuantityError indicates an order line with a quantity below 1.
type InvalidQuantityError struct {
	ProductRef string
	Quantity   int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be at least 1 for product %s, got %d", e.ProductRef, e.Quantity)
}

// OrderLine is one requested product with its selected attributes and quantity.
type OrderLine struct {
	ProductRef string
	Attributes []Attribute
	Quantity   int
}

// CustomerContext carries the discount-eligibility data for a quote.
// An empty CustomerRef means an anonymous customer.
type CustomerContext struct {
	CustomerRef string
	Tier        string
}

// QuoteRequest is the full input to ComputeOrderTotal.
type QuoteRequest struct {
	Lines    []OrderLine
	Customer CustomerContext
	Tax      TaxContext

	// Shipping is a pre-computed SHIPPING line from the caller's carrier-rate
	// collaborator, appended unchanged. Nil means the cost is not yet known
	// and no line is added; that is not the same as free shipping.
	Shipping *LineItem
}

// Summary is the computed order total: the subtotal before any adjustment,
// every adjustment line in computation order (discounts, tax, shipping), and
// the final total. Total is always recomputed from the parts, never set
// independently.
type Summary struct {
	Subtotal    money.Amount
	Adjustments []LineItem
	Total       money.Amount
}

// TotalEngine orchestrates the pricing pipeline. It holds no mutable state:
// concurrent quotes run fully in parallel.
type TotalEngine struct {
	resolver  *ComponentResolver
	discounts *DiscountEngine
	tax       *TaxCalculator
}

// NewTotalEngine creates a TotalEngine from its three component stages.
func NewTotalEngine(resolver *ComponentResolver, discounts *DiscountEngine, tax *TaxCalculator) *TotalEngine {
	return &TotalEngine{
		resolver:  resolver,
		discounts: discounts,
		tax:       tax,
	}
}

// ComputeOrderTotal prices every line, applies discounts against the subtotal,
// taxes the post-discount remainder, appends the caller-supplied shipping line,
// and returns the settled summary. The pipeline is linear: the first failure
// aborts the computation and no partial summary is ever returned.
func (e *TotalEngine) ComputeOrderTotal(ctx context.Context, req QuoteRequest) (*Summary, error) {
	if len(req.Lines) == 0 {
		return nil, ErrEmptyLines
	}
	for _, line := range req.Lines {
		if line.Quantity < 1 {
			return nil, &InvalidQuantityError{ProductRef: line.ProductRef, Quantity: line.Quantity}
		}
	}

	// Pricing: unit price x quantity per line, accumulated exactly.
	subtotal := money.Zero
	for _, line := range req.Lines {
		unit, err := e.resolver.ResolveUnitPrice(ctx, line.ProductRef, line.Attributes)
		if err != nil {
			return nil, err
		}
		subtotal = subtotal.Add(unit.MulInt(int64(line.Quantity)))
	}
	subtotal = subtotal.Settle()

	// Discounting against the full subtotal.
	adjustments, err := e.discounts.ComputeDiscounts(ctx, subtotal, req.Customer)
	if err != nil {
		return nil, err
	}

	// Taxing the post-discount remainder. Discount amounts are negative, so
	// the taxable amount is a plain sum.
	taxable := subtotal
	for _, a := range adjustments {
		taxable = taxable.Add(a.Amount)
	}
	taxLine, err := e.tax.ComputeTax(ctx, taxable, req.Tax)
	if err != nil {
		return nil, err
	}
	adjustments = append(adjustments, taxLine)

	if req.Shipping != nil {
		adjustments = append(adjustments, *req.Shipping)
	}

	return newSummary(subtotal, adjustments), nil
}

// newSummary recomputes the total as subtotal plus the sum of every adjustment.
func newSummary(subtotal money.Amount, adjustments []LineItem) *Summary {
	total := subtotal
	for _, a := range adjustments {
		total = total.Add(a.Amount)
	}
	return &Summary{
		Subtotal:    subtotal,
		Adjustments: adjustments,
		Total:       total.Settle(),
	}
}
