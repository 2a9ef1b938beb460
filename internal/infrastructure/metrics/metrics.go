// Package metrics expone contadores Prometheus del API y de las decisiones de acceso.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/erp-suite-api/internal/application/guard"
)

var _ guard.Recorder = (*Metrics)(nil)

// Metrics agrupa las métricas registradas.
type Metrics struct {
	registry *prometheus.Registry

	AccessDecisionsTotal *prometheus.CounterVec
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
}

// New crea y registra las métricas en registry (nil crea uno propio).
func New(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	m := &Metrics{
		registry: registry,
		AccessDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "erp_access_decisions_total",
				Help: "Decisiones del guard de acceso por módulo y resultado",
			},
			[]string{"module", "outcome"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "erp_http_requests_total",
				Help: "Peticiones HTTP atendidas",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "erp_http_request_duration_seconds",
				Help:    "Duración de las peticiones HTTP en segundos",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
	registry.MustRegister(m.AccessDecisionsTotal, m.HTTPRequestsTotal, m.HTTPRequestDuration)
	return m
}

// RecordDecision implementa guard.Recorder.
func (m *Metrics) RecordDecision(module, outcome string) {
	m.AccessDecisionsTotal.WithLabelValues(module, outcome).Inc()
}

// ObserveHTTP registra una petición. route es la plantilla de la ruta, no la URL con IDs.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler endpoint /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
