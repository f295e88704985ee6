package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
)

// gatewayMetrics counts gateway activity. Counters are incremented on the
// matching goroutine; prometheus counters are atomic, so scraping from an
// HTTP handler is safe.
type gatewayMetrics struct {
	ordersProcessed  prometheus.Counter
	ordersRejected   prometheus.Counter
	tradesExecuted   prometheus.Counter
	cancels          prometheus.Counter
	cancelMisses     prometheus.Counter
	batchesCommitted prometheus.Counter
}

func newGatewayMetrics() *gatewayMetrics {
	return &gatewayMetrics{
		ordersProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "darkbook", Subsystem: "gateway",
			Name: "orders_processed_total", Help: "Orders accepted by the matching loop.",
		}),
		ordersRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "darkbook", Subsystem: "gateway",
			Name: "orders_rejected_total", Help: "Orders rejected before any book mutation.",
		}),
		tradesExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "darkbook", Subsystem: "gateway",
			Name: "trades_executed_total", Help: "Trades emitted by the matching loop.",
		}),
		cancels: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "darkbook", Subsystem: "gateway",
			Name: "cancels_total", Help: "Resting orders cancelled.",
		}),
		cancelMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "darkbook", Subsystem: "gateway",
			Name: "cancel_misses_total", Help: "Cancel requests for unknown order IDs.",
		}),
		batchesCommitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "darkbook", Subsystem: "gateway",
			Name: "batches_committed_total", Help: "Execution receipts emitted.",
		}),
	}
}

// Describe implements prometheus.Collector.
func (m *gatewayMetrics) Describe(ch chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(m, ch)
}

// Collect implements prometheus.Collector.
func (m *gatewayMetrics) Collect(ch chan<- prometheus.Metric) {
	ch <- m.ordersProcessed
	ch <- m.ordersRejected
	ch <- m.tradesExecuted
	ch <- m.cancels
	ch <- m.cancelMisses
	ch <- m.batchesCommitted
}

// Metrics returns the gateway's prometheus collector for registration.
func (g *Gateway) Metrics() prometheus.Collector {
	return g.metrics
}
