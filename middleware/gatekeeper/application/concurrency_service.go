package application

import (
	"context"
	"errors"
	"time"

	"gatekeeper/middleware/gatekeeper/domain"
)

// ConcurrencyService concentra a regra de aquisição/liberação de vagas com timeout,
// sem saber nada sobre HTTP.
type ConcurrencyService struct {
	Pool           domain.SlotPool
	AcquireTimeout time.Duration
}

// Acquire tenta adquirir uma vaga.
//   - Se `AcquireTimeout <= 0`, espera até o ctx da requisição encerrar.
//   - Se `AcquireTimeout > 0`, espera no máximo o timeout.
//
// Em caso de falha nenhuma vaga foi adquirida e o erro é domain.ErrNoSlot,
// ou o erro do ctx da requisição quando o cliente desistiu antes.
func (s ConcurrencyService) Acquire(ctx context.Context) (func(), error) {
	if s.Pool == nil {
		return func() {}, nil
	}

	acqCtx := ctx
	if s.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		acqCtx, cancel = context.WithTimeout(ctx, s.AcquireTimeout)
		defer cancel()
	}

	release, ok := s.Pool.Acquire(acqCtx)
	if ok {
		return release, nil
	}
	if err := ctx.Err(); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}
	return nil, domain.ErrNoSlot
}
