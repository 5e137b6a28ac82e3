package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fleetops"

// Metrics holds the service's prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	transitions       *prometheus.CounterVec
	transitionLatency *prometheus.HistogramVec
	views             *prometheus.CounterVec
	predictiveTickets prometheus.Counter
	predictiveScans   *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Transition requests by entity, action and outcome.",
		}, []string{"entity", "action", "outcome"}),
		transitionLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transition_duration_seconds",
			Help:      "Time from snapshot load to commit.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"entity"}),
		views: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "views_total",
			Help:      "Aggregation requests by kind and cache result.",
		}, []string{"kind", "cache"}),
		predictiveTickets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictive_tickets_total",
			Help:      "Maintenance tickets raised by the predictive scanner.",
		}),
		predictiveScans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictive_scans_total",
			Help:      "Predictive scans by outcome.",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.transitions,
		m.transitionLatency,
		m.views,
		m.predictiveTickets,
		m.predictiveScans,
	)
	return m
}

// ObserveTransition records one transition attempt. outcome is "ok" or the
// error kind.
func (m *Metrics) ObserveTransition(entity, action, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(entity, action, outcome).Inc()
	m.transitionLatency.WithLabelValues(entity).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveView(kind string, cacheHit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if cacheHit {
		result = "hit"
	}
	m.views.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) ObservePredictiveScan(raised int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.predictiveScans.WithLabelValues("error").Inc()
		return
	}
	m.predictiveScans.WithLabelValues("ok").Inc()
	m.predictiveTickets.Add(float64(raised))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
