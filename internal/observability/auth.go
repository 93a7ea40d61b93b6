package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// AuthMetrics counts credential exchanges. A nil *AuthMetrics is a no-op.
type AuthMetrics struct {
	logins      *prometheus.CounterVec
	refreshes   *prometheus.CounterVec
	revocations prometheus.Counter
}

// NewAuthMetrics registers the authentication counters. A nil registerer
// yields working but unregistered collectors.
func NewAuthMetrics(registerer prometheus.Registerer) *AuthMetrics {
	factory := promauto.With(registerer)
	return &AuthMetrics{
		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "odyssey_auth_logins_total",
			Help: "Login attempts partitioned by outcome.",
		}, []string{"outcome"}),
		refreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "odyssey_auth_refreshes_total",
			Help: "Refresh-token exchanges partitioned by outcome.",
		}, []string{"outcome"}),
		revocations: factory.NewCounter(prometheus.CounterOpts{
			Name: "odyssey_auth_revocations_total",
			Help: "Refresh tokens revoked through logout.",
		}),
	}
}

// LoginAttempt counts a login with the given outcome.
func (m *AuthMetrics) LoginAttempt(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
}

// RefreshAttempt counts a refresh with the given outcome.
func (m *AuthMetrics) RefreshAttempt(outcome string) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(outcome).Inc()
}

// Revoked counts a logout revocation.
func (m *AuthMetrics) Revoked() {
	if m == nil {
		return
	}
	m.revocations.Inc()
}
