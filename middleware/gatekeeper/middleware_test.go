package gatekeeper

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gatekeeper/middleware/gatekeeper/domain"
	"gatekeeper/middleware/gatekeeper/infra"
)

// Protect sem router: o rótulo de rota cai para o path cru.
func newBareProtect(t *testing.T, clock *testClock, maxRequests int, keyHeader string) http.Handler {
	t.Helper()
	keys, err := infra.NewKeyTable(map[string]domain.Principal{
		adminKey: {ID: "1", Role: domain.RoleAdmin},
		userKey:  {ID: "2", Role: domain.RoleUser},
	})
	if err != nil {
		t.Fatalf("key table: %v", err)
	}
	gk := New(Options{
		Keys:      keys,
		Limiter:   infra.NewWindowStore(maxRequests, 60*time.Second, infra.WithClock(clock.Now)),
		KeyHeader: keyHeader,
		Now:       clock.Now,
	})
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})
	return gk.Protect(domain.RoutePolicy{RateLimited: true})(next)
}

func TestMiddleware_AllowsThenRejectsSameKey(t *testing.T) {
	clock := &testClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	h := newBareProtect(t, clock, 1, "")

	r1 := httptest.NewRequest(http.MethodGet, "http://example/showTela", nil)
	r1.Header.Set("X-API-Key", userKey)
	r1.RemoteAddr = "10.0.0.1:1234"
	w1 := httptest.NewRecorder()
	h.ServeHTTP(w1, r1)
	if w1.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w1.Code)
	}
	if got := w1.Header().Get(HeaderRateLimitLimit); got != "1" {
		t.Fatalf("expected X-RateLimit-Limit=1, got %q", got)
	}
	if got := w1.Header().Get(HeaderRateLimitRemaining); got != "0" {
		t.Fatalf("expected X-RateLimit-Remaining=0, got %q", got)
	}
	if got := w1.Header().Get(HeaderRateLimitReset); got != "2024-05-01T12:01:00.000Z" {
		t.Fatalf("unexpected X-RateLimit-Reset %q", got)
	}

	r2 := httptest.NewRequest(http.MethodGet, "http://example/showTela", nil)
	r2.Header.Set("X-API-Key", userKey)
	r2.RemoteAddr = "10.0.0.1:1234"
	w2 := httptest.NewRecorder()
	h.ServeHTTP(w2, r2)
	if w2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w2.Code)
	}
	if got := w2.Header().Get("Retry-After"); got != "60" {
		t.Fatalf("expected Retry-After=60, got %q", got)
	}
	if ct := w2.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("expected json body, got %q", ct)
	}
}

func TestMiddleware_KeyByHeader(t *testing.T) {
	clock := &testClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	h := newBareProtect(t, clock, 1, "X-Tenant")

	// dois tenants no mesmo IP: cada um com seu próprio orçamento
	for _, tenant := range []string{"t1", "t2"} {
		r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
		r.Header.Set("X-API-Key", adminKey)
		r.Header.Set("X-Tenant", tenant)
		r.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200 for tenant %s, got %d", tenant, w.Code)
		}
	}
}

func TestMiddleware_RetryAfterIsFullWindowMidWindow(t *testing.T) {
	clock := &testClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	h := newBareProtect(t, clock, 1, "")

	send := func() *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
		r.Header.Set("X-API-Key", userKey)
		r.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w
	}

	if w := send(); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	clock.Advance(57500 * time.Millisecond)
	w := send()
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	// faltam 2.5s para o reset, mas Retry-After anuncia a janela inteira
	if got := strings.TrimSpace(w.Header().Get("Retry-After")); got != "60" {
		t.Fatalf("expected Retry-After=60, got %q", got)
	}
	if !strings.Contains(w.Body.String(), `"retryAfter":60`) {
		t.Fatalf("expected retryAfter 60 in body, got %s", w.Body.String())
	}
	if got := w.Header().Get(HeaderRateLimitReset); got != "2024-05-01T12:01:00.000Z" {
		t.Fatalf("reset must stay at the exact instant, got %q", got)
	}
}

func TestMiddleware_UnauthenticatedNeverTouchesLimiter(t *testing.T) {
	clock := &testClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	h := newBareProtect(t, clock, 1, "")

	for i := 0; i < 3; i++ {
		r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
		r.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
		if got := w.Header().Get(HeaderRateLimitLimit); got != "" {
			t.Fatalf("401 must not carry rate limit headers, got %q", got)
		}
	}

	r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	r.Header.Set("X-API-Key", userKey)
	r.RemoteAddr = "10.0.0.1:1234"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 after rejected attempts, got %d", w.Code)
	}
}
