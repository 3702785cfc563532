package pricing

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront-pricing/internal/money"
)

// ComponentResolver computes a product's unit price: the catalog base price
// plus the delta of every selected attribute.
type ComponentResolver struct {
	catalog Catalog
}

// NewComponentResolver creates a resolver backed by the given catalog.
func NewComponentResolver(catalog Catalog) *ComponentResolver {
	return &ComponentResolver{catalog: catalog}
}

// ResolveUnitPrice returns the unit price for a product with the given
// selected attributes. Attribute order is irrelevant: deltas are summed
// exactly. Unknown products fail with *ProductNotFoundError.
func (r *ComponentResolver) ResolveUnitPrice(ctx context.Context, productRef string, attrs []Attribute) (money.Amount, error) {
	unit, err := r.catalog.LookupBasePrice(ctx, productRef)
	if err != nil {
		return money.Zero, err
	}

	for _, attr := range attrs {
		delta, err := r.catalog.LookupAttributeDelta(ctx, productRef, attr)
		if err != nil {
			return money.Zero, errors.Wrapf(err, "lookup delta %s=%s", attr.Name, attr.Value)
		}
		unit = unit.Add(delta)
	}

	return unit, nil
}
