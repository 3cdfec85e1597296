package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
)

type config struct {
	ListenAddr  string `envconfig:"LISTEN_ADDR" default:":8080"`
	UpstreamURL string `envconfig:"UPSTREAM_URL" required:"true"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"json"`

	TokenSecret string `envconfig:"TOKEN_SECRET" required:"true"`
	APIKeys     string `envconfig:"API_KEYS"`
	APIKeysFile string `envconfig:"API_KEYS_FILE"`
	// header da API key; o default segue o gatekeeper (X-API-Key)
	APIKeyHeader string `envconfig:"API_KEY_HEADER"`
	RoutesFile   string `envconfig:"ROUTES_FILE"`

	RateMaxRequests    int           `envconfig:"RATE_MAX_REQUESTS" default:"10"`
	RateWindow         time.Duration `envconfig:"RATE_WINDOW" default:"60s"`
	RateKeyHeader      string        `envconfig:"RATE_KEY_HEADER"`
	RateKeyByPrincipal bool          `envconfig:"RATE_KEY_BY_PRINCIPAL" default:"false"`
	TrustXFF           bool          `envconfig:"TRUST_XFF" default:"false"`

	ConcurrencyMax     int           `envconfig:"CONCURRENCY_MAX" default:"100"`
	ConcurrencyTimeout time.Duration `envconfig:"CONCURRENCY_TIMEOUT" default:"0s"`

	// /metrics é montado no próprio gateway e exige papel admin
	MetricsPath string `envconfig:"METRICS_PATH" default:"/metrics"`

	StatsRedisEnabled  bool          `envconfig:"STATS_REDIS_ENABLED" default:"false"`
	StatsRedisAddr     string        `envconfig:"STATS_REDIS_ADDR"`
	StatsRedisPassword string        `envconfig:"STATS_REDIS_PASSWORD"`
	StatsRedisDB       int           `envconfig:"STATS_REDIS_DB" default:"0"`
	StatsPrefix        string        `envconfig:"STATS_PREFIX" default:"gatekeeper:stats"`
	StatsTTL           time.Duration `envconfig:"STATS_TTL" default:"24h"`
	StatsBucket        string        `envconfig:"STATS_BUCKET" default:"minute"`
	StatsTrackKeys     bool          `envconfig:"STATS_TRACK_KEYS" default:"false"`
}

func readConfig() (config, error) {
	var cfg config
	if err := envconfig.Process("", &cfg); err != nil {
		return config{}, err
	}
	return cfg, cfg.validate()
}

func (c config) validate() error {
	// envconfig aceita variável definida porém vazia como "presente"
	if strings.TrimSpace(c.UpstreamURL) == "" {
		return errors.New("UPSTREAM_URL is required")
	}
	if strings.TrimSpace(c.TokenSecret) == "" {
		return errors.New("TOKEN_SECRET is required")
	}
	if c.APIKeys != "" && c.APIKeysFile != "" {
		return errors.New("set only one of API_KEYS and API_KEYS_FILE")
	}
	if c.RateMaxRequests <= 0 {
		return errors.New("RATE_MAX_REQUESTS must be > 0")
	}
	if c.RateWindow <= 0 {
		return errors.New("RATE_WINDOW must be > 0")
	}
	if c.ConcurrencyMax < 0 {
		return errors.New("CONCURRENCY_MAX must be >= 0")
	}
	if c.StatsRedisEnabled && strings.TrimSpace(c.StatsRedisAddr) == "" {
		return errors.New("STATS_REDIS_ADDR is required when STATS_REDIS_ENABLED=true")
	}
	if c.MetricsPath != "" && !strings.HasPrefix(c.MetricsPath, "/") {
		return fmt.Errorf("METRICS_PATH must start with /, got %q", c.MetricsPath)
	}
	return nil
}

func newLogger(format string) (*zap.Logger, error) {
	if format == "console" || format == "pretty" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
