// Package metrics exposes Prometheus counters for locker and auth activity.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/locker-pass-manager/backend/internal/locker"
)

// Metrics owns a private registry so tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	transitions     *prometheus.CounterVec
	passwordChanges prometheus.Counter
	logins          *prometheus.CounterVec
	tokensIssued    prometheus.Counter
}

// New creates the counters and registers them with Go runtime collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "locker_state_transitions_total",
			Help: "Locker state changes by target state.",
		}, []string{"state"}),
		passwordChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "locker_password_changes_total",
			Help: "Locker passcodes set or generated.",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Login attempts by result.",
		}, []string{"result"}),
		tokensIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auth_tokens_issued_total",
			Help: "Bearer tokens issued.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.transitions,
		m.passwordChanges,
		m.logins,
		m.tokensIssued,
	)
	return m
}

// Registry returns the registry backing Handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Notify implements locker.Listener.
func (m *Metrics) Notify(ev locker.Event) {
	switch ev.Kind {
	case locker.EventStateChanged:
		m.transitions.WithLabelValues(string(ev.State)).Inc()
	case locker.EventPasswordChanged:
		m.passwordChanges.Inc()
	}
}

// LoginAttempted implements auth.Observer.
func (m *Metrics) LoginAttempted(ok bool) {
	result := "failure"
	if ok {
		result = "success"
	}
	m.logins.WithLabelValues(result).Inc()
}

// TokenIssued implements auth.Observer.
func (m *Metrics) TokenIssued() {
	m.tokensIssued.Inc()
}
