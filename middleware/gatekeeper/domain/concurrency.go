package domain

import (
	"context"
	"errors"
)

// SlotPool limita quantas requisições atravessam o gateway ao mesmo tempo.
//
// Acquire bloqueia até conseguir uma vaga ou até o ctx encerrar; o release
// retornado deve ser chamado exatamente uma vez. InUse expõe a ocupação atual
// para métricas.
type SlotPool interface {
	Acquire(ctx context.Context) (release func(), ok bool)
	InUse() int
}

// ErrNoSlot indica que nenhuma vaga foi liberada dentro do prazo de aquisição.
var ErrNoSlot = errors.New("no concurrency slot available")
