package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the identity-domain Prometheus metrics.
type Metrics struct {
	UsersRegistered prometheus.Counter
	LoginFailures   prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		UsersRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tenantgate_users_registered_total",
			Help: "Total number of user accounts created.",
		}),
		LoginFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tenantgate_login_failures_total",
			Help: "Total number of failed login attempts.",
		}),
	}
}

func (m *Metrics) IncrementUsersRegistered() {
	if m != nil {
		m.UsersRegistered.Inc()
	}
}

func (m *Metrics) IncrementLoginFailures() {
	if m != nil {
		m.LoginFailures.Inc()
	}
}
