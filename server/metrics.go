package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type serverMetrics struct {
	requests *prometheus.CounterVec
	logins   *prometheus.CounterVec
	refresh  *prometheus.CounterVec
}

func newServerMetrics(reg prometheus.Registerer) (*serverMetrics, error) {
	m := &serverMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bizcard_devserver_http_requests_total",
			Help: "HTTP requests served, by status code and method.",
		}, []string{"code", "method"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bizcard_devserver_logins_total",
			Help: "Login attempts, by result.",
		}, []string{"result"}),
		refresh: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bizcard_devserver_token_refreshes_total",
			Help: "Access token refresh attempts, by result.",
		}, []string{"result"}),
	}
	for _, c := range []prometheus.Collector{m.requests, m.logins, m.refresh} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *serverMetrics) instrument(next http.Handler) http.Handler {
	return promhttp.InstrumentHandlerCounter(m.requests, next)
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
