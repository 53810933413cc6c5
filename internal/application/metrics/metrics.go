package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the application-domain Prometheus metrics.
type Metrics struct {
	Submitted prometheus.Counter
	Decisions *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		Submitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tenantgate_applications_submitted_total",
			Help: "Total number of tenant applications submitted.",
		}),
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tenantgate_application_decisions_total",
			Help: "Total number of admin decisions, labelled by outcome.",
		}, []string{"decision"}),
	}
}

func (m *Metrics) IncrementSubmitted() {
	if m != nil {
		m.Submitted.Inc()
	}
}

func (m *Metrics) IncrementDecision(decision string) {
	if m != nil {
		m.Decisions.WithLabelValues(decision).Inc()
	}
}
