package proxy

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the proxy's Prometheus collectors.
type Metrics struct {
	requests       *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	upstreamErrors prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dungeon",
			Subsystem: "proxy",
			Name:      "requests_total",
			Help:      "Requests served by the characters proxy, by method and status code.",
		}, []string{"method", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dungeon",
			Subsystem: "proxy",
			Name:      "request_duration_seconds",
			Help:      "Time spent serving proxy requests, including the upstream call.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		upstreamErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dungeon",
			Subsystem: "proxy",
			Name:      "upstream_errors_total",
			Help:      "Upstream calls that failed without a response.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.duration, m.upstreamErrors)
	}
	return m
}

func (m *Metrics) observe(method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method).Observe(elapsed.Seconds())
}

func (m *Metrics) upstreamFailed() {
	if m == nil {
		return
	}
	m.upstreamErrors.Inc()
}
