//go:build integration

package integration

import (
	"net/http"
	"strings"
	"testing"
)

// Seeded data (see db/seed/): product "hoodie-classic" at 19.99 with a
// size=XL delta of 2.00, an 8% standard rate for US-CA, and a 10% rule
// SAVE10 for the "member" tier.

func TestQuote_SingleLine(t *testing.T) {
	req := quoteRequest{
		Lines: []quoteLine{{ProductRef: "hoodie-classic", Quantity: 1}},
	}
	resp := doPost(t, "/api/v1/quotes", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	quote := decodeJSON[quoteResponse](t, resp)
	if quote.Subtotal != "19.99" {
		t.Errorf("subtotal: got %s, want 19.99", quote.Subtotal)
	}
	if quote.Total != "19.99" {
		t.Errorf("total: got %s, want 19.99", quote.Total)
	}
}

func TestQuote_AttributeDelta(t *testing.T) {
	req := quoteRequest{
		Lines: []quoteLine{{
			ProductRef: "hoodie-classic",
			Quantity:   2,
			Attributes: map[string]string{"size": "XL"},
		}},
	}
	resp := doPost(t, "/api/v1/quotes", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	quote := decodeJSON[quoteResponse](t, resp)
	if quote.Subtotal != "43.98" {
		t.Errorf("subtotal: got %s, want 43.98", quote.Subtotal)
	}
}

func TestQuote_DiscountAndTax(t *testing.T) {
	req := quoteRequest{
		Lines: []quoteLine{{
			ProductRef: "hoodie-classic",
			Quantity:   2,
			Attributes: map[string]string{"size": "XL"},
		}},
		Customer: &quoteCustomer{Ref: "cust-1", Tier: "member"},
		Tax:      &quoteTax{Region: "US-CA", TaxClass: "standard"},
	}
	resp := doPost(t, "/api/v1/quotes", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	quote := decodeJSON[quoteResponse](t, resp)
	if quote.Subtotal != "43.98" {
		t.Errorf("subtotal: got %s, want 43.98", quote.Subtotal)
	}
	if quote.Total != "42.75" {
		t.Errorf("total: got %s, want 42.75", quote.Total)
	}

	byLabel := make(map[string]adjustment, len(quote.Adjustments))
	for _, a := range quote.Adjustments {
		byLabel[a.Label] = a
	}
	if d, ok := byLabel["DISCOUNT:SAVE10"]; !ok || d.Amount != "-4.40" {
		t.Errorf("DISCOUNT:SAVE10: got %+v, want -4.40", d)
	}
	if tax, ok := byLabel["TAX"]; !ok || tax.Amount != "3.17" {
		t.Errorf("TAX: got %+v, want 3.17", tax)
	}
}

func TestQuote_TaxLineAlwaysPresent(t *testing.T) {
	req := quoteRequest{
		Lines: []quoteLine{{ProductRef: "mug-enamel", Quantity: 1}},
	}
	resp := doPost(t, "/api/v1/quotes", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	quote := decodeJSON[quoteResponse](t, resp)
	var found bool
	for _, a := range quote.Adjustments {
		if a.Label == "TAX" {
			found = true
			if a.Amount != "0.00" {
				t.Errorf("TAX amount: got %s, want 0.00", a.Amount)
			}
		}
	}
	if !found {
		t.Error("TAX adjustment not present")
	}
}

func TestQuote_Shipping(t *testing.T) {
	req := quoteRequest{
		Lines:    []quoteLine{{ProductRef: "mug-enamel", Quantity: 1}},
		Shipping: &quoteShipping{Amount: "5.00"},
	}
	resp := doPost(t, "/api/v1/quotes", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	quote := decodeJSON[quoteResponse](t, resp)
	if quote.Total != "17.50" {
		t.Errorf("total: got %s, want 17.50", quote.Total)
	}

	var found bool
	for _, a := range quote.Adjustments {
		if a.Label == "SHIPPING" && a.Amount == "5.00" && a.DisplayOrder == 30 {
			found = true
		}
	}
	if !found {
		t.Errorf("SHIPPING adjustment missing: %+v", quote.Adjustments)
	}
}

func TestQuote_EmptyLines(t *testing.T) {
	req := quoteRequest{Lines: []quoteLine{}}
	resp := doPost(t, "/api/v1/quotes", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestQuote_UnknownProduct(t *testing.T) {
	req := quoteRequest{
		Lines: []quoteLine{{ProductRef: "no-such-product", Quantity: 1}},
	}
	resp := doPost(t, "/api/v1/quotes", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}

	body := decodeJSON[errorResponse](t, resp)
	if !strings.Contains(body.Message, "no-such-product") {
		t.Errorf("error message should name the product, got %q", body.Message)
	}
}

func TestQuote_InvalidQuantity(t *testing.T) {
	req := quoteRequest{
		Lines: []quoteLine{{ProductRef: "hoodie-classic", Quantity: 0}},
	}
	resp := doPost(t, "/api/v1/quotes", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestQuote_MalformedBody(t *testing.T) {
	resp := doPost(t, "/api/v1/quotes", "not an object")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
