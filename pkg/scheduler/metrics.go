package scheduler

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the scheduler's Prometheus collectors on an isolated
// registry, following the same pattern as pkg/overlay's Metrics.
type Metrics struct {
	Registry *prometheus.Registry

	BatchSize     prometheus.Histogram   // transactions per execute_many call
	TreeCount     prometheus.Histogram   // independent trees per batch
	TxFailedTotal *prometheus.CounterVec // labels: reason
}

// NewMetrics builds a Metrics instance with all collectors registered.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scheduler_batch_size",
			Help:    "Number of transactions passed to a single execute_many call.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		TreeCount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scheduler_tree_count",
			Help:    "Number of independent dependency trees found in a batch.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		TxFailedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scheduler_tx_failed_total",
				Help: "Transactions whose execution returned an error.",
			},
			[]string{"reason"},
		),
	}

	reg.MustRegister(m.BatchSize, m.TreeCount, m.TxFailedTotal)
	return m
}

func (m *Metrics) observeBatch(size, trees int) {
	if m == nil {
		return
	}
	m.BatchSize.Observe(float64(size))
	m.TreeCount.Observe(float64(trees))
}

func (m *Metrics) incFailed(reason string) {
	if m == nil {
		return
	}
	m.TxFailedTotal.WithLabelValues(reason).Inc()
}
