package metrics

import "github.com/prometheus/client_golang/prometheus"

// SettlementMetrics counts order and settlement mutations.
type SettlementMetrics struct {
	ordersCreated *prometheus.CounterVec
	lineEdits     *prometheus.CounterVec
	markPaid      prometheus.Counter
	markUnpaid    prometheus.Counter
}

// NewSettlementMetrics registers the settlement instruments.
func NewSettlementMetrics() *SettlementMetrics {
	return newSettlementMetrics(prometheus.DefaultRegisterer)
}

func newSettlementMetrics(registerer prometheus.Registerer) *SettlementMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &SettlementMetrics{
		ordersCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "winkel_orders_created_total",
			Help: "Orders created, by outcome.",
		}, []string{"outcome"}),
		lineEdits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "winkel_order_line_mutations_total",
			Help: "Order line edits and deletes, by operation.",
		}, []string{"operation"}),
		markPaid: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "winkel_settlement_mark_paid_total",
			Help: "Period settlement mark-paid invocations.",
		}),
		markUnpaid: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "winkel_settlement_mark_unpaid_total",
			Help: "Period settlement mark-unpaid invocations.",
		}),
	}

	registerer.MustRegister(m.ordersCreated, m.lineEdits, m.markPaid, m.markUnpaid)
	return m
}

func (m *SettlementMetrics) RecordOrderCreated(outcome string) {
	if m == nil {
		return
	}
	m.ordersCreated.WithLabelValues(outcome).Inc()
}

func (m *SettlementMetrics) RecordLineMutation(operation string) {
	if m == nil {
		return
	}
	m.lineEdits.WithLabelValues(operation).Inc()
}

func (m *SettlementMetrics) RecordMarkPaid() {
	if m == nil {
		return
	}
	m.markPaid.Inc()
}

func (m *SettlementMetrics) RecordMarkUnpaid() {
	if m == nil {
		return
	}
	m.markUnpaid.Inc()
}
