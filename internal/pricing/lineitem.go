package pricing

import (
	"cmp"
	"slices"

	"github.com/xenking/storefront-pricing/internal/money"
)

// Stable machine-readable labels for adjustment line items.
const (
	LabelTax      = "TAX"
	LabelShipping = "SHIPPING"

	discountLabelPrefix = "DISCOUNT:"
)

// Display order bands: discounts render before tax, tax before shipping.
const (
	DisplayOrderDiscount = 10
	DisplayOrderTax      = 20
	DisplayOrderShipping = 30
)

// DiscountLabel returns the line item label for a discount rule code,
// e.g. "DISCOUNT:LOYALTY10".
func DiscountLabel(code string) string {
	return discountLabelPrefix + code
}

// LineItem is one named, signed monetary contribution to an order total.
// It is immutable once created; a corrected value requires a new LineItem
// replacing the old one.
type LineItem struct {
	Label        string
	Amount       money.Amount
	DisplayOrder int
}

// Equal reports whether two line items carry the same label, amount and
// display order.
func (li LineItem) Equal(other LineItem) bool {
	return li.Label == other.Label &&
		li.DisplayOrder == other.DisplayOrder &&
		li.Amount.Equal(other.Amount)
}

// SortLineItems orders items by display order ascending, ties broken by label
// lexicographically, guaranteeing deterministic presentation across runs.
func SortLineItems(items []LineItem) {
	slices.SortStableFunc(items, func(a, b LineItem) int {
		if c := cmp.Compare(a.DisplayOrder, b.DisplayOrder); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
}
