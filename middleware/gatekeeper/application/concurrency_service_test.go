package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"gatekeeper/middleware/gatekeeper/domain"
)

type blockingPool struct{}

func (p *blockingPool) Acquire(ctx context.Context) (func(), bool) {
	select {
	case <-ctx.Done():
		return nil, false
	case <-time.After(5 * time.Second):
		// não deve chegar aqui nos testes
		return nil, false
	}
}

func (p *blockingPool) InUse() int { return 1 }

type immediatePool struct {
	acquired int
}

func (p *immediatePool) Acquire(ctx context.Context) (func(), bool) {
	p.acquired++
	return func() {}, true
}

func (p *immediatePool) InUse() int { return p.acquired }

func TestConcurrencyService_Acquire_AllowsWhenNoPool(t *testing.T) {
	svc := ConcurrencyService{}
	release, err := svc.Acquire(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	release()
}

func TestConcurrencyService_Acquire_TimeoutReturnsErrNoSlot(t *testing.T) {
	svc := ConcurrencyService{Pool: &blockingPool{}, AcquireTimeout: 10 * time.Millisecond}

	_, err := svc.Acquire(context.Background())
	if !errors.Is(err, domain.ErrNoSlot) {
		t.Fatalf("expected ErrNoSlot, got %v", err)
	}
}

func TestConcurrencyService_Acquire_ClientCancelReturnsCtxErr(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := ConcurrencyService{Pool: &blockingPool{}, AcquireTimeout: time.Second}
	_, err := svc.Acquire(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestConcurrencyService_Acquire_NoTimeoutDelegatesToPool(t *testing.T) {
	pool := &immediatePool{}
	svc := ConcurrencyService{Pool: pool, AcquireTimeout: 0}

	if _, err := svc.Acquire(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if pool.acquired != 1 {
		t.Fatalf("expected pool Acquire to be called once, got %d", pool.acquired)
	}
}
