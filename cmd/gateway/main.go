package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"gatekeeper/middleware/gatekeeper"
	"gatekeeper/middleware/gatekeeper/domain"
	"gatekeeper/middleware/gatekeeper/infra"
)

func main() {
	cfg, err := readConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, err := newLogger(cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := buildApp(ctx, cfg, logger, prometheus.NewRegistry())
	if err != nil {
		logger.Fatal("gateway setup failed", zap.Error(err))
	}
	defer a.close()

	a.store.StartJanitor(ctx)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("gateway listening",
		zap.String("addr", cfg.ListenAddr),
		zap.String("upstream", cfg.UpstreamURL),
		zap.Int("routes", a.routes),
		zap.Int("api_keys", a.keys.Len()),
		zap.Int("rate_max_requests", cfg.RateMaxRequests),
		zap.Duration("rate_window", cfg.RateWindow),
		zap.Bool("rate_key_by_principal", cfg.RateKeyByPrincipal),
		zap.Bool("trust_xff", cfg.TrustXFF),
		zap.Int("concurrency_max", cfg.ConcurrencyMax),
		zap.Bool("stats_redis", cfg.StatsRedisEnabled),
	)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}

type app struct {
	handler http.Handler
	store   *infra.WindowStore
	keys    *infra.KeyTable
	routes  int
	closers []func() error
}

func (a *app) close() {
	for _, c := range a.closers {
		_ = c()
	}
}

func buildApp(ctx context.Context, cfg config, logger *zap.Logger, reg *prometheus.Registry) (*app, error) {
	target, err := url.Parse(cfg.UpstreamURL)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid UPSTREAM_URL %q", cfg.UpstreamURL)
	}

	tokens, err := infra.NewJWTAuthenticator(cfg.TokenSecret)
	if err != nil {
		return nil, err
	}

	var keys *infra.KeyTable
	switch {
	case cfg.APIKeysFile != "":
		keys, err = infra.LoadKeyTableFile(cfg.APIKeysFile)
	case cfg.APIKeys != "":
		keys, err = infra.ParseKeyTable(cfg.APIKeys)
	default:
		keys, err = infra.NewKeyTable(nil)
	}
	if err != nil {
		return nil, err
	}

	routes, err := loadRoutes(cfg.RoutesFile)
	if err != nil {
		return nil, err
	}

	a := &app{keys: keys, routes: len(routes)}

	promStats, err := infra.NewPrometheusStatsStore(reg)
	if err != nil {
		return nil, err
	}
	stats := infra.MultiStatsStore{promStats}

	if cfg.StatsRedisEnabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.StatsRedisAddr,
			Password: cfg.StatsRedisPassword,
			DB:       cfg.StatsRedisDB,
		})
		a.closers = append(a.closers, rdb.Close)

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancel()
		if err != nil {
			a.close()
			return nil, fmt.Errorf("redis stats ping: %w", err)
		}

		stats = append(stats, infra.NewRedisStatsStore(
			rdb,
			infra.WithStatsPrefix(cfg.StatsPrefix),
			infra.WithStatsTTL(cfg.StatsTTL),
			infra.WithStatsBucket(cfg.StatsBucket),
			infra.WithStatsTrackKeys(cfg.StatsTrackKeys),
		))
	}

	a.store = infra.NewWindowStore(cfg.RateMaxRequests, cfg.RateWindow)

	keyFn := gatekeeper.DefaultKeyFunc(cfg.RateKeyHeader, cfg.TrustXFF)
	if cfg.RateKeyByPrincipal {
		keyFn = gatekeeper.KeyByPrincipal(keyFn)
	}

	gk := gatekeeper.New(gatekeeper.Options{
		Extractor: gatekeeper.Extractor{APIKeyHeader: cfg.APIKeyHeader},
		Keys:      keys,
		Tokens:    tokens,
		Limiter:   a.store,
		Stats:     stats,
		KeyFn:     keyFn,
		Logger:    logger,
	})

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Error("proxy error", zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}
	upstream := gatekeeper.ForwardPrincipal(proxy)

	pool := infra.NewChanPool(cfg.ConcurrencyMax)
	if cfg.ConcurrencyMax > 0 {
		if err := infra.RegisterPoolGauge(reg, pool); err != nil {
			a.close()
			return nil, err
		}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer)
	if cfg.TrustXFF {
		r.Use(middleware.RealIP)
	}
	if cfg.ConcurrencyMax > 0 {
		r.Use(gatekeeper.ConcurrencyMiddleware(gatekeeper.ConcurrencyOptions{
			Max:            cfg.ConcurrencyMax,
			AcquireTimeout: cfg.ConcurrencyTimeout,
			Pool:           pool,
			Logger:         logger,
		}))
	}

	if cfg.MetricsPath != "" {
		r.With(gk.Protect(domain.RoutePolicy{RequiredRoles: []domain.Role{domain.RoleAdmin}})).
			Method(http.MethodGet, cfg.MetricsPath, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}
	mountRoutes(r, gk, routes, upstream)

	a.handler = r
	return a, nil
}
