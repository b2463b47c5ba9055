package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Request outcomes, used as the "outcome" label.
const (
	outcomeRouted     = "routed"
	outcomeLocal      = "local"
	outcomeParseError = "parse_error"
	outcomeOOM        = "out_of_memory"
	outcomeCrossSlot  = "cross_slot"
)

// Metrics are the server's Prometheus collectors.
type Metrics struct {
	requests    *prometheus.CounterVec
	keys        prometheus.Histogram
	splits      prometheus.Counter
	connections prometheus.Gauge
	protocol    prometheus.Counter

	gatherer prometheus.Gatherer
}

// NewMetrics creates the collectors and registers them with a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "keyparse",
			Name:      "requests_total",
			Help:      "Requests classified, by command type and outcome.",
		}, []string{"type", "outcome"}),
		keys: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "keyparse",
			Name:      "request_keys",
			Help:      "Keys extracted per successfully parsed request.",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 64, 256, 1024},
		}),
		splits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "keyparse",
			Name:      "split_subcommands_total",
			Help:      "Sub-commands created by splitting cross-slot requests.",
		}),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "keyparse",
			Name:      "connections",
			Help:      "Open client connections.",
		}),
		protocol: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "keyparse",
			Name:      "protocol_errors_total",
			Help:      "Connections dropped because a request could not be framed.",
		}),
		gatherer: reg,
	}
	reg.MustRegister(m.requests, m.keys, m.splits, m.connections, m.protocol)
	return m
}

// Handler serves the collected metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
