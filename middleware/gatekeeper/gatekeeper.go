package gatekeeper

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"gatekeeper/middleware/gatekeeper/application"
	"gatekeeper/middleware/gatekeeper/domain"
)

type Options struct {
	Extractor Extractor
	Keys      domain.KeyAuthenticator
	Tokens    domain.TokenAuthenticator
	// Limiter nil desliga o rate limit mesmo em rotas com RateLimited.
	Limiter domain.LimiterStore
	Stats   domain.StatsStore

	KeyFn              KeyFunc
	KeyHeader          string
	TrustXForwardedFor bool

	Logger *zap.Logger
	Now    func() time.Time
}

// Gatekeeper é construído uma vez e compartilhado por todas as rotas; o estado
// do rate limit vive no LimiterStore recebido em Options.
type Gatekeeper struct {
	extractor Extractor
	resolver  application.Resolver
	limits    application.Service
	stats     domain.StatsStore
	keyFn     KeyFunc
	log       *zap.Logger
	now       func() time.Time

	// 429 em rajada geraria uma linha de log por requisição
	limitedLog *rate.Sometimes
}

func New(opts Options) *Gatekeeper {
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.KeyHeader, opts.TrustXForwardedFor)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Gatekeeper{
		extractor:  opts.Extractor,
		resolver:   application.Resolver{Keys: opts.Keys, Tokens: opts.Tokens},
		limits:     application.Service{Store: opts.Limiter, Now: opts.Now},
		stats:      opts.Stats,
		keyFn:      opts.KeyFn,
		log:        opts.Logger,
		now:        opts.Now,
		limitedLog: &rate.Sometimes{First: 1, Interval: 10 * time.Second},
	}
}

// Protect devolve o middleware da rota com a política declarada.
func (g *Gatekeeper) Protect(policy domain.RoutePolicy) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cred := g.extractor.Extract(r.Header)
			p, err := g.resolver.Resolve(cred)
			if err != nil {
				body := authErrorBody(err)
				g.record(r, g.keyFn(r), domain.OutcomeUnauthenticated, authReason(err))
				g.log.Info("request rejected",
					zap.String("route", route(r)),
					zap.String("credential", cred.Kind.String()),
					zap.Int("status", http.StatusUnauthorized),
					zap.Error(err),
				)
				writeJSON(w, http.StatusUnauthorized, body)
				return
			}

			r = r.WithContext(WithPrincipal(r.Context(), p))

			if err := application.Authorize(p, policy.RequiredRoles); err != nil {
				g.record(r, g.keyFn(r), domain.OutcomeForbidden, "")
				g.log.Info("request rejected",
					zap.String("route", route(r)),
					zap.String("principal", p.ID),
					zap.String("role", string(p.Role)),
					zap.Int("status", http.StatusForbidden),
					zap.Error(err),
				)
				writeJSON(w, http.StatusForbidden, forbiddenBody(err))
				return
			}

			key := g.keyFn(r)
			if policy.RateLimited {
				dec := g.limits.Decide(domain.Key(key))
				if dec.Limit > 0 {
					setRateLimitHeaders(w.Header(), dec)
				}
				if !dec.Allowed {
					g.record(r, key, domain.OutcomeRateLimited, "")
					g.limitedLog.Do(func() {
						g.log.Warn("rate limit exceeded",
							zap.String("route", route(r)),
							zap.String("key", key),
							zap.Time("reset_at", dec.ResetAt),
						)
					})
					w.Header().Set("Retry-After", formatInt(int(dec.RetryAfter/time.Second)))
					writeJSON(w, http.StatusTooManyRequests, rateLimitedBody(dec))
					return
				}
			}

			g.record(r, key, domain.OutcomeAdmitted, "")
			next.ServeHTTP(w, r)
		})
	}
}

func (g *Gatekeeper) record(r *http.Request, key string, outcome domain.Outcome, reason string) {
	if g.stats == nil {
		return
	}
	err := g.stats.Record(r.Context(), domain.StatsEvent{
		Key:     domain.Key(key),
		Outcome: outcome,
		Reason:  reason,
		Method:  r.Method,
		Path:    route(r),
		At:      g.now(),
	})
	if err != nil {
		g.log.Debug("stats record failed", zap.Error(err))
	}
}

// route prefere o pattern do chi ("/api/posts/{id}") ao path cru, para não
// explodir a cardinalidade das estatísticas.
func route(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

func authReason(err error) string {
	for _, reason := range []error{
		domain.ErrCredentialMissing,
		domain.ErrInvalidAPIKey,
		domain.ErrTokenExpired,
		domain.ErrInvalidToken,
	} {
		if errors.Is(err, reason) {
			return reason.Error()
		}
	}
	return domain.ErrCredentialMissing.Error()
}
