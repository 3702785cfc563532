// Package health provides Kubernetes-style liveness and readiness probes.
// Registered checks run on demand when a probe endpoint is hit; readiness
// additionally gates on an explicit ready flag so the service can drain
// before shutdown.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/errors"
)

// CheckFunc is a health check. It returns nil when the checked component is
// healthy.
type CheckFunc func(ctx context.Context) error

type check struct {
	name    string
	timeout time.Duration
	fn      CheckFunc
}

// Health manages liveness and readiness checks for a service.
type Health struct {
	ready atomic.Bool

	mu        sync.RWMutex
	liveness  []check
	readiness []check
}

// New creates a Health instance. The service starts not ready; call
// SetReady(true) once initialization has finished.
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a liveness check: is the process alive and
// functioning.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.liveness = append(h.liveness, check{name: name, timeout: timeout, fn: fn})
}

// AddReadinessCheck registers a readiness check: can the service accept
// traffic (database connectivity, cache warmup).
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readiness = append(h.readiness, check{name: name, timeout: timeout, fn: fn})
}

// SetReady flips the readiness flag. Set it to false before shutting down so
// load balancers stop routing new traffic.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// LiveEndpoint serves the liveness probe.
func (h *Health) LiveEndpoint(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	checks := h.liveness
	h.mu.RUnlock()

	h.respond(w, r, checks, true)
}

// ReadyEndpoint serves the readiness probe. It fails while the ready flag is
// down, regardless of check results.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	checks := h.readiness
	h.mu.RUnlock()

	h.respond(w, r, checks, h.ready.Load())
}

func (h *Health) respond(w http.ResponseWriter, r *http.Request, checks []check, ok bool) {
	results := make(map[string]string, len(checks))
	for _, c := range checks {
		ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
		err := c.fn(ctx)
		cancel()
		if err != nil {
			ok = false
			results[c.name] = err.Error()
			continue
		}
		results[c.name] = "ok"
	}

	status := "ok"
	code := http.StatusOK
	if !ok {
		status = "unavailable"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks,omitempty"`
	}{Status: status, Checks: results})
}

// GoroutineCountCheck fails when the goroutine count exceeds threshold,
// a cheap proxy for leaks.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(context.Context) error {
		if n := runtime.NumGoroutine(); n > threshold {
			return errors.Errorf("too many goroutines: %d > %d", n, threshold)
		}
		return nil
	}
}
