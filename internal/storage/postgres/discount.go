package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-pricing/internal/pricing"
)

const listRulesForTierSQL = `SELECT code, kind, value, stacking, priority
	FROM discount_rules
	WHERE active AND (tier = '' OR tier = $1)
	ORDER BY priority, code`

var _ pricing.RuleSource = (*DiscountRuleRepository)(nil)

// DiscountRuleRepository implements pricing.RuleSource backed by PostgreSQL.
// Rules with an empty tier apply to every customer, including anonymous ones.
type DiscountRuleRepository struct {
	pool *pgxpool.Pool
}

// NewDiscountRuleRepository returns a DiscountRuleRepository that uses the
// given pool.
func NewDiscountRuleRepository(pool *pgxpool.Pool) *DiscountRuleRepository {
	return &DiscountRuleRepository{pool: pool}
}

// RulesFor returns the active discount rules applicable to the customer's
// tier, ordered by priority then code.
func (r *DiscountRuleRepository) RulesFor(ctx context.Context, customer pricing.CustomerContext) ([]pricing.Rule, error) {
	rows, err := r.pool.Query(ctx, listRulesForTierSQL, customer.Tier)
	if err != nil {
		return nil, fmt.Errorf("listing discount rules for tier %q: %w", customer.Tier, err)
	}
	return pgx.CollectRows(rows, scanRule)
}

func scanRule(row pgx.CollectableRow) (pricing.Rule, error) {
	var (
		rule     pricing.Rule
		kind     string
		value    decimal.Decimal
		priority int32
	)
	err := row.Scan(&rule.Code, &kind, &value, &rule.Stacking, &priority)
	rule.Kind = pricing.RuleKind(kind)
	rule.Value = value
	rule.Priority = int(priority)
	return rule, err
}
