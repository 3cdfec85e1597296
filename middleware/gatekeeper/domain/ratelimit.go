package domain

// Camada de domínio do rate limit.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import "time"

// Key identifica quem consome o orçamento (ex: IP do cliente, id do principal).
type Key string

// Limiter representa a janela de uma identidade: decide se a requisição em `now`
// cabe no orçamento e, se couber, a registra.
type Limiter interface {
	Allow(now time.Time) Decision
}

// LimiterStore obtém o limiter de uma chave, criando-o no primeiro acesso.
// A implementação pode manter cache, TTL, etc.
type LimiterStore interface {
	Get(Key) Limiter
}

type Decision struct {
	Allowed bool

	Limit     int
	Remaining int
	// ResetAt é quando o registro mais antigo da janela expira.
	ResetAt time.Time

	// RetryAfter é o valor de Retry-After quando bloquear: a duração da janela
	// em segundos inteiros. Se 0, não há recomendação.
	RetryAfter time.Duration
}
