package transport

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts what the Coordinator does. A nil *Metrics records nothing.
type Metrics struct {
	Refreshes       prometheus.Counter
	RefreshFailures *prometheus.CounterVec
	Retries         prometheus.Counter
	Expirations     prometheus.Counter
}

// NewMetrics creates the counters and registers them with reg when it is not nil
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Refreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bizcard",
			Subsystem: "client",
			Name:      "token_refreshes_total",
			Help:      "Access token refresh calls made to the auth service.",
		}),
		RefreshFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bizcard",
			Subsystem: "client",
			Name:      "token_refresh_failures_total",
			Help:      "Failed refresh calls, by reason (rejected, transient).",
		}, []string{"reason"}),
		Retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bizcard",
			Subsystem: "client",
			Name:      "request_retries_total",
			Help:      "Requests re-issued after a 401.",
		}),
		Expirations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bizcard",
			Subsystem: "client",
			Name:      "session_expirations_total",
			Help:      "Sessions torn down because they could not be refreshed.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.Refreshes, m.RefreshFailures, m.Retries, m.Expirations)
	}
	return m
}

func (m *Metrics) refreshed() {
	if m != nil {
		m.Refreshes.Inc()
	}
}

func (m *Metrics) refreshFailed(reason string) {
	if m != nil {
		m.RefreshFailures.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) retried() {
	if m != nil {
		m.Retries.Inc()
	}
}

func (m *Metrics) expired() {
	if m != nil {
		m.Expirations.Inc()
	}
}
