package infra

import (
	"context"
	"maps"
	"sync"

	"gatekeeper/middleware/gatekeeper/domain"
)

type Counters struct {
	Admitted        int64
	Unauthenticated int64
	Forbidden       int64
	RateLimited     int64
}

func (c *Counters) add(o domain.Outcome) {
	switch o {
	case domain.OutcomeAdmitted:
		c.Admitted++
	case domain.OutcomeUnauthenticated:
		c.Unauthenticated++
	case domain.OutcomeForbidden:
		c.Forbidden++
	case domain.OutcomeRateLimited:
		c.RateLimited++
	}
}

// Rejected soma todas as rejeições (401, 403 e 429).
func (c Counters) Rejected() int64 { return c.Unauthenticated + c.Forbidden + c.RateLimited }

// MemoryStatsStore guarda os contadores no processo, sem expiração.
// Serve o example-server e os testes; em produção use Redis ou Prometheus.
type MemoryStatsStore struct {
	mu       sync.Mutex
	total    Counters
	byRoute  map[string]Counters
	byKey    map[string]Counters
	byReason map[string]int64

	trackKeys bool
}

type MemoryStatsOption func(*MemoryStatsStore)

func WithTrackKeys(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackKeys = track }
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{
		byRoute:  make(map[string]Counters),
		byKey:    make(map[string]Counters),
		byReason: make(map[string]int64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	route := ev.Method + " " + ev.Path

	s.mu.Lock()
	defer s.mu.Unlock()

	s.total.add(ev.Outcome)

	c := s.byRoute[route]
	c.add(ev.Outcome)
	s.byRoute[route] = c

	if ev.Reason != "" {
		s.byReason[ev.Reason]++
	}

	if s.trackKeys {
		k := s.byKey[string(ev.Key)]
		k.add(ev.Outcome)
		s.byKey[string(ev.Key)] = k
	}
	return nil
}

func (s *MemoryStatsStore) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *MemoryStatsStore) ByRoute() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.byRoute)
}

func (s *MemoryStatsStore) ByKey() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.byKey)
}

// ByReason conta as falhas de autenticação por motivo.
func (s *MemoryStatsStore) ByReason() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.byReason)
}
