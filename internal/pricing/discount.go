package pricing

import (
	"cmp"
	"context"
	"slices"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-pricing/internal/money"
)

// RuleKind enumerates the supported discount rule strategies.
type RuleKind string

const (
	// RuleFixed subtracts a fixed monetary amount, capped at the remainder.
	RuleFixed RuleKind = "fixed"
	// RulePercentage subtracts a percentage of the subtotal.
	RulePercentage RuleKind = "percentage"
)

// Rule defines one customer discount. Value holds the fixed amount for
// RuleFixed and percentage points (10 = 10%) for RulePercentage.
type Rule struct {
	Code     string
	Kind     RuleKind
	Value    decimal.Decimal
	Stacking bool
	Priority int
}

// RuleSource provides the discount rules applicable to a customer.
// Rule codes must be unique within one result.
type RuleSource interface {
	RulesFor(ctx context.Context, customer CustomerContext) ([]Rule, error)
}

// DiscountEngine turns applicable rules into negative discount line items.
//
// Non-stacking rules apply first, their percentages computed against the
// original subtotal. Stacking rules follow, computed against the running
// remainder: the subtotal less every discount granted so far. Each discount
// magnitude is settled, then clamped so the remainder never goes below zero.
type DiscountEngine struct {
	rules RuleSource
}

// NewDiscountEngine creates a DiscountEngine backed by the given rule source.
func NewDiscountEngine(rules RuleSource) *DiscountEngine {
	return &DiscountEngine{rules: rules}
}

var hundred = decimal.NewFromInt(100)

// ComputeDiscounts returns the discount line items for a customer against the
// given subtotal, in deterministic application order. No applicable rules
// yields an empty, non-nil slice. Rules clamped all the way to zero are
// omitted.
func (e *DiscountEngine) ComputeDiscounts(ctx context.Context, subtotal money.Amount, customer CustomerContext) ([]LineItem, error) {
	rules, err := e.rules.RulesFor(ctx, customer)
	if err != nil {
		return nil, errors.Wrap(err, "lookup discount rules")
	}

	ordered := orderRules(rules)
	if err := checkUniqueCodes(ordered); err != nil {
		return nil, err
	}

	items := make([]LineItem, 0, len(ordered))
	remaining := subtotal
	displayOrder := DisplayOrderDiscount

	for _, rule := range ordered {
		base := subtotal
		if rule.Stacking {
			base = remaining
		}

		magnitude, err := ruleMagnitude(rule, base)
		if err != nil {
			return nil, err
		}

		magnitude = money.Min(magnitude, remaining)
		if !magnitude.IsPositive() {
			continue
		}

		items = append(items, LineItem{
			Label:        DiscountLabel(rule.Code),
			Amount:       magnitude.Neg(),
			DisplayOrder: displayOrder,
		})
		displayOrder++
		remaining = remaining.Sub(magnitude)
	}

	return items, nil
}

// ruleMagnitude computes the positive, settled discount amount for one rule.
func ruleMagnitude(rule Rule, base money.Amount) (money.Amount, error) {
	switch rule.Kind {
	case RuleFixed:
		a, err := money.FromDecimal(rule.Value)
		if err != nil {
			return money.Zero, errors.Wrapf(err, "rule %s", rule.Code)
		}
		return a.Settle(), nil
	case RulePercentage:
		a, err := base.MulRate(rule.Value.Div(hundred))
		if err != nil {
			return money.Zero, errors.Wrapf(err, "rule %s", rule.Code)
		}
		return a.Settle(), nil
	default:
		return money.Zero, errors.Errorf("unsupported discount kind: %q", rule.Kind)
	}
}

// orderRules returns the rules in application order: non-stacking before
// stacking, then by priority ascending, ties broken by code.
func orderRules(rules []Rule) []Rule {
	ordered := slices.Clone(rules)
	slices.SortStableFunc(ordered, func(a, b Rule) int {
		if a.Stacking != b.Stacking {
			if a.Stacking {
				return 1
			}
			return -1
		}
		if c := cmp.Compare(a.Priority, b.Priority); c != 0 {
			return c
		}
		return cmp.Compare(a.Code, b.Code)
	})
	return ordered
}

// checkUniqueCodes rejects rule sets with duplicate codes, which would break
// label uniqueness within the summary's adjustment list.
func checkUniqueCodes(rules []Rule) error {
	seen := make(map[string]struct{}, len(rules))
	for _, rule := range rules {
		if _, ok := seen[rule.Code]; ok {
			return errors.Errorf("duplicate discount rule code: %q", rule.Code)
		}
		seen[rule.Code] = struct{}{}
	}
	return nil
}
