package application

import (
	"testing"
	"time"

	"gatekeeper/middleware/gatekeeper/domain"
)

type fakeLimiter struct {
	allow bool
	seen  []time.Time
}

func (f *fakeLimiter) Allow(now time.Time) domain.Decision {
	f.seen = append(f.seen, now)
	return domain.Decision{Allowed: f.allow, Limit: 1}
}

type fakeStore struct {
	lim  domain.Limiter
	keys []domain.Key
}

func (s *fakeStore) Get(k domain.Key) domain.Limiter {
	s.keys = append(s.keys, k)
	return s.lim
}

func TestService_Decide_AllowsWhenNoStore(t *testing.T) {
	svc := Service{}
	dec := svc.Decide("k")
	if !dec.Allowed {
		t.Fatalf("expected allowed")
	}
	if dec.RetryAfter != 0 {
		t.Fatalf("expected RetryAfter=0 when allowed, got %s", dec.RetryAfter)
	}
}

func TestService_Decide_AllowsWhenStoreHasNoLimiter(t *testing.T) {
	svc := Service{Store: &fakeStore{}}
	if dec := svc.Decide("k"); !dec.Allowed {
		t.Fatalf("expected allowed")
	}
}

func TestService_Decide_DelegatesToLimiterWithClock(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	lim := &fakeLimiter{allow: false}
	store := &fakeStore{lim: lim}
	svc := Service{Store: store, Now: func() time.Time { return at }}

	dec := svc.Decide("10.0.0.1")
	if dec.Allowed {
		t.Fatalf("expected blocked")
	}
	if len(store.keys) != 1 || store.keys[0] != "10.0.0.1" {
		t.Fatalf("expected store lookup for key, got %v", store.keys)
	}
	if len(lim.seen) != 1 || !lim.seen[0].Equal(at) {
		t.Fatalf("expected limiter to see injected clock, got %v", lim.seen)
	}
}
