package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"

	"gatekeeper/middleware/gatekeeper"
	"gatekeeper/middleware/gatekeeper/domain"
	"gatekeeper/middleware/gatekeeper/infra"
)

// Credenciais de demonstração, públicas: servem só para rodar o exemplo local.
const (
	demoSecret = "your-secret-key"
	demoKeys   = "test-api-key-123=1:admin,reporting-key-456=2:user"
)

// Exemplo: gatekeeper injetado direto no webserver (sem proxy).
type config struct {
	ListenAddr  string        `envconfig:"LISTEN_ADDR" default:":8081"`
	TokenSecret string        `envconfig:"TOKEN_SECRET"`
	APIKeys     string        `envconfig:"API_KEYS"`
	RateMax     int           `envconfig:"RATE_MAX_REQUESTS" default:"10"`
	RateWindow  time.Duration `envconfig:"RATE_WINDOW" default:"60s"`
	LogFormat   string        `envconfig:"LOG_FORMAT" default:"console"`
}

func main() {
	var cfg config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, err := zap.NewDevelopment()
	if cfg.LogFormat == "json" {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	cfg = applyDemoDefaults(cfg, logger)

	tokens, err := infra.NewJWTAuthenticator(cfg.TokenSecret)
	if err != nil {
		logger.Fatal("token authenticator", zap.Error(err))
	}
	keys, err := infra.ParseKeyTable(cfg.APIKeys)
	if err != nil {
		logger.Fatal("api keys", zap.Error(err))
	}
	store := infra.NewWindowStore(cfg.RateMax, cfg.RateWindow)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	store.StartJanitor(ctx)

	// tokens de demonstração para testar via curl
	for _, p := range []domain.Principal{{ID: "1", Role: domain.RoleAdmin}, {ID: "2", Role: domain.RoleUser}} {
		if tok, err := tokens.Issue(p, time.Hour); err == nil {
			logger.Info("demo token", zap.String("id", p.ID), zap.String("role", string(p.Role)), zap.String("token", tok))
		}
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           newRouter(keys, tokens, store, logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("example server listening", zap.String("addr", cfg.ListenAddr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}

// applyDemoDefaults preenche segredo e chaves ausentes com os valores de
// demonstração e avisa no log; qualquer um pode forjar tokens com eles.
func applyDemoDefaults(cfg config, logger *zap.Logger) config {
	if strings.TrimSpace(cfg.TokenSecret) == "" {
		logger.Warn("TOKEN_SECRET not set; using the public demo secret, do not expose this server")
		cfg.TokenSecret = demoSecret
	}
	if strings.TrimSpace(cfg.APIKeys) == "" {
		logger.Warn("API_KEYS not set; using the public demo key table", zap.String("keys", demoKeys))
		cfg.APIKeys = demoKeys
	}
	return cfg
}

type post struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	AuthorID string `json:"authorId"`
}

type postStore struct {
	mu    sync.Mutex
	next  int
	posts map[int]post
}

func newRouter(keys domain.KeyAuthenticator, tokens domain.TokenAuthenticator, limiter domain.LimiterStore, logger *zap.Logger) http.Handler {
	stats := infra.NewMemoryStatsStore()
	gk := gatekeeper.New(gatekeeper.Options{
		Keys:    keys,
		Tokens:  tokens,
		Limiter: limiter,
		Stats:   stats,
		Logger:  logger,
	})

	admin := domain.RoutePolicy{RequiredRoles: []domain.Role{domain.RoleAdmin}}
	anyone := domain.RoutePolicy{}
	posts := &postStore{next: 1, posts: map[int]post{}}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer)
	r.Use(gatekeeper.ConcurrencyMiddleware(gatekeeper.ConcurrencyOptions{Max: 50, Logger: logger}))

	r.With(gk.Protect(admin)).Get("/api/users", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]string{
			{"id": "1", "role": "admin"},
			{"id": "2", "role": "user"},
		})
	})
	r.With(gk.Protect(domain.RoutePolicy{RateLimited: true})).Get("/api/posts", posts.list)
	r.With(gk.Protect(domain.RoutePolicy{
		RequiredRoles: []domain.Role{domain.RoleAdmin, domain.RoleUser},
		RateLimited:   true,
	})).Post("/api/posts", posts.create)
	r.With(gk.Protect(admin)).Delete("/api/posts/{id}", posts.remove)
	r.With(gk.Protect(anyone)).Get("/api/profile", func(w http.ResponseWriter, r *http.Request) {
		p, _ := gatekeeper.PrincipalFromContext(r.Context())
		writeJSON(w, http.StatusOK, map[string]string{"id": p.ID, "role": string(p.Role)})
	})
	r.With(gk.Protect(admin)).Get("/api/stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"total":   stats.Total(),
			"routes":  stats.ByRoute(),
			"reasons": stats.ByReason(),
		})
	})
	return r
}

func (s *postStore) list(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := make([]post, 0, len(s.posts))
	for i := 1; i < s.next; i++ {
		if p, ok := s.posts[i]; ok {
			out = append(out, p)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *postStore) create(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Bad request", "message": "title is required"})
		return
	}
	author, _ := gatekeeper.PrincipalFromContext(r.Context())

	s.mu.Lock()
	p := post{ID: s.next, Title: in.Title, AuthorID: author.ID}
	s.posts[p.ID] = p
	s.next++
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, p)
}

func (s *postStore) remove(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not found", "message": "post not found"})
		return
	}
	s.mu.Lock()
	_, ok := s.posts[id]
	delete(s.posts, id)
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not found", "message": "post not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
