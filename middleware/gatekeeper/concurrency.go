package gatekeeper

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"gatekeeper/middleware/gatekeeper/application"
	"gatekeeper/middleware/gatekeeper/domain"
	"gatekeeper/middleware/gatekeeper/infra"
)

type ConcurrencyOptions struct {
	Max            int
	RejectStatus   int
	AcquireTimeout time.Duration
	// Pool opcional; nil cria um infra.ChanPool com capacidade Max.
	Pool   domain.SlotPool
	Logger *zap.Logger
}

// ConcurrencyMiddleware limita requisições simultâneas. Fica fora do pipeline
// de autenticação: 503 nunca se confunde com 401/403/429.
func ConcurrencyMiddleware(opts ConcurrencyOptions) func(next http.Handler) http.Handler {
	if opts.Max <= 0 && opts.Pool == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusServiceUnavailable
	}
	if opts.Pool == nil {
		opts.Pool = infra.NewChanPool(opts.Max)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	svc := application.ConcurrencyService{
		Pool:           opts.Pool,
		AcquireTimeout: opts.AcquireTimeout,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, err := svc.Acquire(r.Context())
			if err != nil {
				if errors.Is(err, context.Canceled) {
					// cliente desistiu, não há para quem responder
					return
				}
				opts.Logger.Warn("concurrency limit reached",
					zap.String("path", r.URL.Path),
					zap.Int("in_use", opts.Pool.InUse()),
				)
				writeJSON(w, opts.RejectStatus, ErrorBody{
					Error:   http.StatusText(opts.RejectStatus),
					Message: "Server is busy. Please try again later.",
				})
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}
