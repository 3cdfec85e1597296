package application

import (
	"time"

	"gatekeeper/middleware/gatekeeper/domain"
)

// Service concentra a regra de aplicação do rate limit.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
type Service struct {
	Store domain.LimiterStore
	// Now permite relógio simulado nos testes. Nil usa time.Now.
	Now func() time.Time
}

func (s Service) Decide(key domain.Key) domain.Decision {
	if s.Store == nil {
		return domain.Decision{Allowed: true}
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	lim := s.Store.Get(key)
	if lim == nil {
		return domain.Decision{Allowed: true}
	}
	return lim.Allow(now())
}
