package domain

import (
	"context"
	"time"
)

// Outcome é o desfecho do pipeline para uma requisição.
type Outcome string

const (
	OutcomeAdmitted        Outcome = "admitted"
	OutcomeUnauthenticated Outcome = "unauthenticated"
	OutcomeForbidden       Outcome = "forbidden"
	OutcomeRateLimited     Outcome = "rate_limited"
)

// StatsEvent representa uma decisão do gatekeeper.
//
// Ele é propositalmente "agnóstico de HTTP": Method/Path são strings genéricas.
//
// Observação: cuidado com cardinalidade (ex.: salvar Key/Path sem controle pode
// explodir o número de séries/chaves em uma base como Redis/Prometheus).
type StatsEvent struct {
	Key     Key
	Outcome Outcome
	// Reason detalha rejeições de autenticação (ex: "token expired"). Vazio quando admitido.
	Reason string

	Method string
	Path   string

	At time.Time
}

func (ev StatsEvent) Allowed() bool { return ev.Outcome == OutcomeAdmitted }

// StatsStore é a estratégia de persistência para estatísticas das decisões.
//
// Implementações podem armazenar em Redis, Prometheus, memória, etc.
// O middleware trata erro como best-effort (não derruba request).
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
