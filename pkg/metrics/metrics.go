// Package metrics exposes Prometheus counters for list reconciliation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the counters updated by a list controller.
type Metrics struct {
	Transactions *prometheus.CounterVec
	FullReloads  prometheus.Counter
	Operations   *prometheus.CounterVec
	Dropped      *prometheus.CounterVec
}

// New builds an unregistered set of counters.
func New() *Metrics {
	return &Metrics{
		Transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "declist",
			Name:      "transactions_total",
			Help:      "Incremental list transactions by result.",
		}, []string{"result"}),
		FullReloads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "declist",
			Name:      "full_reloads_total",
			Help:      "Unanimated reloads of the whole list.",
		}),
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "declist",
			Name:      "operations_total",
			Help:      "Operations applied to the list widget.",
		}, []string{"level", "type"}),
		Dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "declist",
			Name:      "dropped_operations_total",
			Help:      "Operations discarded because another operation claimed their index.",
		}, []string{"level"}),
	}
}

// Register adds every counter to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.Transactions, m.FullReloads, m.Operations, m.Dropped} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
