package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/storefront-pricing/internal/money"
	"github.com/xenking/storefront-pricing/internal/pricing"
)

// decodeQuoteRequest parses the quote request payload:
//
//	{
//	  "lines": [{"productRef": "tee", "attributes": {"size": "xl"}, "quantity": 2}],
//	  "customer": {"ref": "c1", "tier": "loyalty"},
//	  "tax": {"region": "US-CA", "taxClass": "standard"},
//	  "shipping": {"amount": "4.99"}
//	}
//
// Unknown fields are skipped. A null or absent shipping object means the cost
// is not yet known.
func decodeQuoteRequest(data []byte) (pricing.QuoteRequest, error) {
	var req pricing.QuoteRequest
	d := jx.DecodeBytes(data)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "lines":
			return d.Arr(func(d *jx.Decoder) error {
				line, err := decodeOrderLine(d)
				if err != nil {
					return err
				}
				req.Lines = append(req.Lines, line)
				return nil
			})
		case "customer":
			return d.Obj(func(d *jx.Decoder, key string) error {
				switch key {
				case "ref":
					v, err := d.Str()
					req.Customer.CustomerRef = v
					return err
				case "tier":
					v, err := d.Str()
					req.Customer.Tier = v
					return err
				default:
					return d.Skip()
				}
			})
		case "tax":
			return d.Obj(func(d *jx.Decoder, key string) error {
				switch key {
				case "region":
					v, err := d.Str()
					req.Tax.Region = v
					return err
				case "taxClass":
					v, err := d.Str()
					req.Tax.TaxClass = v
					return err
				default:
					return d.Skip()
				}
			})
		case "shipping":
			if d.Next() == jx.Null {
				return d.Null()
			}
			line, err := decodeShipping(d)
			if err != nil {
				return err
			}
			req.Shipping = &line
			return nil
		default:
			return d.Skip()
		}
	}); err != nil {
		return pricing.QuoteRequest{}, errors.Wrap(err, "malformed quote request")
	}
	return req, nil
}

func decodeOrderLine(d *jx.Decoder) (pricing.OrderLine, error) {
	var line pricing.OrderLine
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "productRef":
			v, err := d.Str()
			line.ProductRef = v
			return err
		case "quantity":
			v, err := d.Int()
			line.Quantity = v
			return err
		case "attributes":
			return d.Obj(func(d *jx.Decoder, name string) error {
				v, err := d.Str()
				if err != nil {
					return err
				}
				line.Attributes = append(line.Attributes, pricing.Attribute{Name: name, Value: v})
				return nil
			})
		default:
			return d.Skip()
		}
	})
	return line, err
}

// decodeShipping builds the caller-supplied SHIPPING line. The amount is
// taken as-is: shipping is already settled by the carrier-rate collaborator.
func decodeShipping(d *jx.Decoder) (pricing.LineItem, error) {
	line := pricing.LineItem{Label: pricing.LabelShipping, DisplayOrder: pricing.DisplayOrderShipping}
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "amount":
			s, err := d.Str()
			if err != nil {
				return err
			}
			amount, err := money.Parse(s)
			if err != nil {
				return errors.Wrap(err, "shipping amount")
			}
			line.Amount = amount
			return nil
		default:
			return d.Skip()
		}
	})
	return line, err
}

func encodeSummary(s *pricing.Summary) []byte {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("subtotal")
	e.Str(s.Subtotal.StringFixed())
	e.FieldStart("adjustments")
	e.ArrStart()
	for _, a := range s.Adjustments {
		e.ObjStart()
		e.FieldStart("label")
		e.Str(a.Label)
		e.FieldStart("amount")
		e.Str(a.Amount.StringFixed())
		e.FieldStart("displayOrder")
		e.Int(a.DisplayOrder)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("total")
	e.Str(s.Total.StringFixed())
	e.ObjEnd()
	return e.Bytes()
}

// clientErrorCode maps engine input errors to HTTP status codes. It reports
// false for errors that are not the caller's fault.
func clientErrorCode(err error) (int, bool) {
	if errors.Is(err, pricing.ErrEmptyLines) {
		return http.StatusBadRequest, true
	}

	var iqErr *pricing.InvalidQuantityError
	if errors.As(err, &iqErr) {
		return http.StatusUnprocessableEntity, true
	}

	var pnfErr *pricing.ProductNotFoundError
	if errors.As(err, &pnfErr) {
		return http.StatusUnprocessableEntity, true
	}

	return 0, false
}
