package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides observability for matching and template loading.
type Metrics struct {
	// Match decisions by decision and sign type
	MatchDecisions *prometheus.CounterVec

	// Duration of a single match evaluation
	MatchLatency prometheus.Histogram

	// Template loads by result
	TemplateLoads *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New creates a Metrics instance registered with reg. A nil reg uses a fresh
// registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		MatchDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "signcoach_match_decisions_total",
			Help: "Total match decisions by decision and sign type",
		}, []string{"decision", "sign_type"}), // decision: "accepted", "rejected", "ambiguous"

		MatchLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "signcoach_match_duration_seconds",
			Help:    "Duration of a match evaluation including impostor checks",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),

		TemplateLoads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "signcoach_template_loads_total",
			Help: "Template lookups by result",
		}, []string{"result"}), // result: "hit", "miss", "error"

		gatherer: reg,
	}
}

// ObserveMatch records a match decision and its duration.
func (m *Metrics) ObserveMatch(signType, decision string, elapsed time.Duration) {
	if m != nil {
		m.MatchDecisions.WithLabelValues(decision, signType).Inc()
		m.MatchLatency.Observe(elapsed.Seconds())
	}
}

// ObserveTemplateLoad records a template lookup result.
func (m *Metrics) ObserveTemplateLoad(result string) {
	if m != nil {
		m.TemplateLoads.WithLabelValues(result).Inc()
	}
}

// Handler serves the registered metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
