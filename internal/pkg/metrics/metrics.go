package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns the application collectors and the registry they live in
type Metrics struct {
	registry *prometheus.Registry

	requests   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	votes      *prometheus.CounterVec
	rejections prometheus.Counter
	emails     *prometheus.CounterVec
}

// New creates the collectors on a fresh registry, together with the Go and process collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		votes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "votes_cast_total",
			Help: "Vote rows stored, by position.",
		}, []string{"position"}),
		rejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ballots_rejected_total",
			Help: "Ballots rejected because a position was already voted for.",
		}),
		emails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "emails_sent_total",
			Help: "Notification emails by kind and outcome.",
		}, []string{"kind", "outcome"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.duration, m.votes, m.rejections, m.emails,
	)
	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WatchClients exports the live websocket client count as a gauge
func (m *Metrics) WatchClients(count func() int) {
	if m == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "websocket_clients",
		Help: "Connected notification websocket clients.",
	}, func() float64 { return float64(count()) }))
}

// ObserveRequest records one finished HTTP request
func (m *Metrics) ObserveRequest(method, route string, status int, seconds float64) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(route).Observe(seconds)
}

// VoteCast records a stored vote for position
func (m *Metrics) VoteCast(position string) {
	if m == nil {
		return
	}
	m.votes.WithLabelValues(position).Inc()
}

// BallotRejected records a ballot refused for a repeated position
func (m *Metrics) BallotRejected() {
	if m == nil {
		return
	}
	m.rejections.Inc()
}

// EmailSent records a notification email attempt
func (m *Metrics) EmailSent(kind string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.emails.WithLabelValues(kind, outcome).Inc()
}
