package infra

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"gatekeeper/middleware/gatekeeper/domain"
)

// PrometheusStatsStore expõe as decisões como métricas.
//
// Labels: outcome e route ("METHOD pattern"). A key do cliente nunca vira label
// por causa da cardinalidade.
type PrometheusStatsStore struct {
	decisions *prometheus.CounterVec
	authFails *prometheus.CounterVec
}

func NewPrometheusStatsStore(reg prometheus.Registerer) (*PrometheusStatsStore, error) {
	s := &PrometheusStatsStore{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gatekeeper",
			Name:      "decisions_total",
			Help:      "Decisões do gatekeeper por desfecho e rota.",
		}, []string{"outcome", "route"}),
		authFails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gatekeeper",
			Name:      "authentication_failures_total",
			Help:      "Falhas de autenticação por motivo.",
		}, []string{"reason"}),
	}
	for _, c := range []prometheus.Collector{s.decisions, s.authFails} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *PrometheusStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	s.decisions.WithLabelValues(string(ev.Outcome), ev.Method+" "+ev.Path).Inc()
	if ev.Outcome == domain.OutcomeUnauthenticated && ev.Reason != "" {
		s.authFails.WithLabelValues(ev.Reason).Inc()
	}
	return nil
}

// RegisterPoolGauge publica a ocupação do pool de concorrência.
func RegisterPoolGauge(reg prometheus.Registerer, pool domain.SlotPool) error {
	return reg.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "gatekeeper",
		Name:      "concurrency_in_use",
		Help:      "Vagas de concorrência ocupadas no momento.",
	}, func() float64 { return float64(pool.InUse()) }))
}

// MultiStatsStore repassa o evento para todos os stores e junta os erros.
type MultiStatsStore []domain.StatsStore

func (m MultiStatsStore) Record(ctx context.Context, ev domain.StatsEvent) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Record(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
