package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront-pricing/internal/money"
	"github.com/xenking/storefront-pricing/internal/pricing"
)

// --- Mock collaborators ---

type stubCatalog struct {
	base   map[string]money.Amount
	deltas map[string]money.Amount
}

func (s *stubCatalog) LookupBasePrice(_ context.Context, ref string) (money.Amount, error) {
	p, ok := s.base[ref]
	if !ok {
		return money.Zero, &pricing.ProductNotFoundError{ProductRef: ref}
	}
	return p, nil
}

func (s *stubCatalog) LookupAttributeDelta(_ context.Context, ref string, attr pricing.Attribute) (money.Amount, error) {
	return s.deltas[ref+"|"+attr.Name+"="+attr.Value], nil
}

type stubRules struct {
	rules []pricing.Rule
}

func (s *stubRules) RulesFor(_ context.Context, _ pricing.CustomerContext) ([]pricing.Rule, error) {
	return s.rules, nil
}

type stubRates struct {
	rate decimal.Decimal
}

func (s *stubRates) TaxRate(_ context.Context, _ pricing.TaxContext) (decimal.Decimal, error) {
	return s.rate, nil
}

// --- Helpers ---

type adjustmentJSON struct {
	Label        string `json:"label"`
	Amount       string `json:"amount"`
	DisplayOrder int    `json:"displayOrder"`
}

type summaryJSON struct {
	Subtotal    string           `json:"subtotal"`
	Adjustments []adjustmentJSON `json:"adjustments"`
	Total       string           `json:"total"`
}

type errorJSON struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func newTestMux(catalog *stubCatalog, rules *stubRules, rates *stubRates) *http.ServeMux {
	engine := pricing.NewTotalEngine(
		pricing.NewComponentResolver(catalog),
		pricing.NewDiscountEngine(rules),
		pricing.NewTaxCalculator(rates),
	)
	mux := http.NewServeMux()
	New(engine).Register(mux)
	return mux
}

func postQuote(t *testing.T, mux *http.ServeMux, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

// --- Tests ---

func TestComputeQuote_WorkedExample(t *testing.T) {
	mux := newTestMux(
		&stubCatalog{
			base:   map[string]money.Amount{"tee": money.MustParse("19.99")},
			deltas: map[string]money.Amount{"tee|size=xl": money.MustParse("2.00")},
		},
		&stubRules{rules: []pricing.Rule{{
			Code:  "LOYALTY10",
			Kind:  pricing.RulePercentage,
			Value: decimal.NewFromInt(10),
		}}},
		&stubRates{rate: decimal.RequireFromString("0.08")},
	)

	rec := postQuote(t, mux, `{
		"lines": [{"productRef": "tee", "attributes": {"size": "xl"}, "quantity": 2}],
		"customer": {"ref": "c1", "tier": "loyalty"},
		"tax": {"region": "US-CA", "taxClass": "standard"}
	}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got summaryJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "43.98", got.Subtotal)
	assert.Equal(t, "42.75", got.Total)
	require.Len(t, got.Adjustments, 2)
	assert.Equal(t, adjustmentJSON{Label: "DISCOUNT:LOYALTY10", Amount: "-4.40", DisplayOrder: 10}, got.Adjustments[0])
	assert.Equal(t, adjustmentJSON{Label: "TAX", Amount: "3.17", DisplayOrder: 20}, got.Adjustments[1])
}

func TestComputeQuote_ShippingPassedThrough(t *testing.T) {
	mux := newTestMux(
		&stubCatalog{base: map[string]money.Amount{"tee": money.MustParse("10.00")}},
		&stubRules{},
		&stubRates{rate: decimal.Zero},
	)

	rec := postQuote(t, mux, `{
		"lines": [{"productRef": "tee", "quantity": 1}],
		"shipping": {"amount": "4.99"}
	}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var got summaryJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Adjustments, 2)
	assert.Equal(t, adjustmentJSON{Label: "SHIPPING", Amount: "4.99", DisplayOrder: 30}, got.Adjustments[1])
	assert.Equal(t, "14.99", got.Total)
}

func TestComputeQuote_EmptyLines(t *testing.T) {
	mux := newTestMux(&stubCatalog{}, &stubRules{}, &stubRates{})

	rec := postQuote(t, mux, `{"lines": []}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var got errorJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, http.StatusBadRequest, got.Code)
	assert.Contains(t, got.Message, "order lines required")
}

func TestComputeQuote_MalformedBody(t *testing.T) {
	mux := newTestMux(&stubCatalog{}, &stubRules{}, &stubRates{})

	rec := postQuote(t, mux, `{"lines": [`)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var got errorJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Contains(t, got.Message, "malformed quote request")
}

func TestComputeQuote_InvalidShippingAmount(t *testing.T) {
	mux := newTestMux(&stubCatalog{}, &stubRules{}, &stubRates{})

	rec := postQuote(t, mux, `{
		"lines": [{"productRef": "tee", "quantity": 1}],
		"shipping": {"amount": "not-a-number"}
	}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestComputeQuote_UnknownProduct(t *testing.T) {
	mux := newTestMux(&stubCatalog{}, &stubRules{}, &stubRates{})

	rec := postQuote(t, mux, `{"lines": [{"productRef": "missing", "quantity": 1}]}`)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var got errorJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Contains(t, got.Message, "product missing not found")
}

func TestComputeQuote_InvalidQuantity(t *testing.T) {
	mux := newTestMux(
		&stubCatalog{base: map[string]money.Amount{"tee": money.MustParse("10.00")}},
		&stubRules{},
		&stubRates{},
	)

	rec := postQuote(t, mux, `{"lines": [{"productRef": "tee", "quantity": 0}]}`)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestComputeQuote_UnknownFieldsSkipped(t *testing.T) {
	mux := newTestMux(
		&stubCatalog{base: map[string]money.Amount{"tee": money.MustParse("10.00")}},
		&stubRules{},
		&stubRates{rate: decimal.Zero},
	)

	rec := postQuote(t, mux, `{
		"lines": [{"productRef": "tee", "quantity": 1, "note": "gift"}],
		"channel": "web"
	}`)

	require.Equal(t, http.StatusOK, rec.Code)
}
