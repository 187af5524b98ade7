package overlay

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the overlay's Prometheus collectors. Collectors live on an
// isolated registry so overlay metrics never collide with the process-wide
// default registry, and every test can build its own Metrics.
type Metrics struct {
	Registry *prometheus.Registry

	ReceivedTotal *prometheus.CounterVec // labels: topic, action
	GossipSize    *prometheus.GaugeVec   // labels: topic
	GossipDropped *prometheus.CounterVec // labels: topic, reason
}

// NewMetrics builds a Metrics instance with all collectors registered.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,
		ReceivedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "overlay_received_total",
				Help: "Total HyParView/gossip protocol messages received, by action.",
			},
			[]string{"topic", "action"},
		),
		GossipSize: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "overlay_gossip_size_bytes",
				Help: "Size in bytes of the most recently delivered gossip payload.",
			},
			[]string{"topic"},
		),
		GossipDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "overlay_gossip_dropped_total",
				Help: "Gossip payloads dropped before reaching a local subscriber.",
			},
			[]string{"topic", "reason"},
		),
	}

	reg.MustRegister(m.ReceivedTotal, m.GossipSize, m.GossipDropped)
	return m
}

// Handler serves the overlay's metrics on an isolated registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// incReceived is nil-safe so a Topic built without metrics still works.
func (m *Metrics) incReceived(topic, action string) {
	if m == nil {
		return
	}
	m.ReceivedTotal.WithLabelValues(topic, action).Inc()
}

func (m *Metrics) setGossipSize(topic string, n int) {
	if m == nil {
		return
	}
	m.GossipSize.WithLabelValues(topic).Set(float64(n))
}

func (m *Metrics) incDropped(topic, reason string) {
	if m == nil {
		return
	}
	m.GossipDropped.WithLabelValues(topic, reason).Inc()
}
