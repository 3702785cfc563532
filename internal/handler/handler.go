// Package handler exposes the pricing engine over a small JSON HTTP surface.
package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/storefront-pricing/internal/pricing"
)

// maxBodyBytes bounds quote request payloads.
const maxBodyBytes = 1 << 20

// Handler serves quote requests by delegating to the total engine.
type Handler struct {
	engine *pricing.TotalEngine
	quotes metric.Int64Counter
}

// New constructs a Handler around the given engine.
func New(engine *pricing.TotalEngine) *Handler {
	meter := otel.Meter("github.com/xenking/storefront-pricing/internal/handler")
	quotes, err := meter.Int64Counter("pricing.quotes",
		metric.WithDescription("Quote computations by outcome"),
	)
	if err != nil {
		otel.Handle(err)
	}
	return &Handler{engine: engine, quotes: quotes}
}

// Register mounts the handler's routes on the given mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/quotes", h.computeQuote)
}

func (h *Handler) computeQuote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.countQuote(r, "read_error")
		writeError(w, http.StatusBadRequest, "read request body")
		return
	}

	req, err := decodeQuoteRequest(body)
	if err != nil {
		h.countQuote(r, "malformed")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int("quote.lines", len(req.Lines)),
		attribute.String("quote.customer_tier", req.Customer.Tier),
	)

	summary, err := h.engine.ComputeOrderTotal(ctx, req)
	if err != nil {
		h.writeQuoteError(w, r, err)
		return
	}

	h.countQuote(r, "ok")
	writeJSON(w, http.StatusOK, encodeSummary(summary))
}

func (h *Handler) countQuote(r *http.Request, outcome string) {
	if h.quotes == nil {
		return
	}
	h.quotes.Add(r.Context(), 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// writeQuoteError maps engine errors to HTTP responses: input mistakes are
// client errors, everything else is logged and reported as a 500.
func (h *Handler) writeQuoteError(w http.ResponseWriter, r *http.Request, err error) {
	switch code, ok := clientErrorCode(err); {
	case ok:
		h.countQuote(r, "rejected")
		writeError(w, code, err.Error())
	default:
		h.countQuote(r, "error")
		zctx.From(r.Context()).Error("compute quote", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("code")
	e.Int(code)
	e.FieldStart("message")
	e.Str(msg)
	e.ObjEnd()
	writeJSON(w, code, e.Bytes())
}
