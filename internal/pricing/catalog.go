package pricing

import (
	"context"
	"fmt"

	"github.com/xenking/storefront-pricing/internal/money"
)

// Attribute is one selected product attribute value, e.g. {Name: "size", Value: "xl"}.
type Attribute struct {
	Name  string
	Value string
}

// ProductNotFoundError indicates a referenced product does not exist in the
// catalog. It aborts the whole quote computation.
type ProductNotFoundError struct {
	ProductRef string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductRef)
}

// Catalog exposes the price lookups owned by the catalog collaborator.
type Catalog interface {
	// LookupBasePrice returns the base unit price for a product.
	// Unknown references fail with *ProductNotFoundError.
	LookupBasePrice(ctx context.Context, productRef string) (money.Amount, error)

	// LookupAttributeDelta returns the price delta for one selected attribute
	// value. Deltas absent from the catalog are zero, not an error.
	LookupAttributeDelta(ctx context.Context, productRef string, attr Attribute) (money.Amount, error)
}
