package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestWrapOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Wrap(okHandler(), mark("outer"), mark("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestRecovery(t *testing.T) {
	h := Wrap(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), Recovery())

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequestID_Generated(t *testing.T) {
	var gotID string
	h := Wrap(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		gotID = RequestIDFromContext(r.Context())
	}), RequestID())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotEmpty(t, gotID)
	assert.Equal(t, gotID, rec.Header().Get("X-Request-ID"))
}

func TestRequestID_ReusesValidHeader(t *testing.T) {
	h := Wrap(okHandler(), RequestID())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "client-supplied-id")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "client-supplied-id", rec.Header().Get("X-Request-ID"))
}

func TestRequestID_RejectsInvalidHeader(t *testing.T) {
	h := Wrap(okHandler(), RequestID())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "bad\x01id")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.NotEqual(t, "bad\x01id", rec.Header().Get("X-Request-ID"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRateLimit_BlocksOverLimit(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{Max: 3, Window: time.Minute})
	now := time.Unix(1000, 0)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.allow("client", now), "request %d within limit", i+1)
	}
	assert.False(t, rl.allow("client", now))
	assert.True(t, rl.allow("other", now), "keys are independent")
}

func TestRateLimit_SlidingWindowDecays(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{Max: 2, Window: time.Minute})
	start := time.Unix(0, 0).Truncate(time.Minute)

	assert.True(t, rl.allow("client", start))
	assert.True(t, rl.allow("client", start))
	assert.False(t, rl.allow("client", start.Add(time.Second)))

	// Deep into the next window the previous window's weight has decayed.
	assert.True(t, rl.allow("client", start.Add(time.Minute+50*time.Second)))
}

func TestRateLimit_CleanupEvictsIdleEntries(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{Max: 1, Window: time.Minute})
	now := time.Unix(1000, 0)

	rl.allow("client", now)
	rl.cleanup(now.Add(3 * time.Minute))

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.Empty(t, rl.entries)
}

func TestRateLimit_Middleware(t *testing.T) {
	h := Wrap(okHandler(), RateLimit(RateLimitConfig{
		Max:    1,
		Window: time.Minute,
		KeyFunc: func(*http.Request) string {
			return "fixed"
		},
	}))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
}
