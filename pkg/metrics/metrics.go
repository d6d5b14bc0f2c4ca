// Package metrics exposes process-level engine counters through
// Prometheus, with collectors registered on a dedicated registry
// rather than the global default one.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collectors bundles the counters the engine updates on every
// submission and trade.
type Collectors struct {
	OrdersProcessed prometheus.Counter
	TradesExecuted  prometheus.Counter
	OrdersRejected  *prometheus.CounterVec
	ActiveSymbols   prometheus.Gauge
	Registry        *prometheus.Registry
}

// New builds a fresh registry and registers all engine collectors on
// it. Each call returns an independent registry, so tests and multiple
// engine instances don't collide on the global default registry.
func New() *Collectors {
	reg := prometheus.NewRegistry()

	c := &Collectors{
		OrdersProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matching_engine_orders_processed_total",
			Help: "Total number of orders accepted by submit, across all symbols.",
		}),
		TradesExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matching_engine_trades_executed_total",
			Help: "Total number of trades produced by matching, across all symbols.",
		}),
		OrdersRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "matching_engine_orders_rejected_total",
			Help: "Total number of orders rejected by submit, labeled by reason.",
		}, []string{"reason"}),
		ActiveSymbols: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "matching_engine_active_symbols",
			Help: "Number of symbols currently registered with the engine.",
		}),
		Registry: reg,
	}

	reg.MustRegister(c.OrdersProcessed, c.TradesExecuted, c.OrdersRejected, c.ActiveSymbols)
	return c
}
