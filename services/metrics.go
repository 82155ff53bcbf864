package services

import "github.com/prometheus/client_golang/prometheus"

var (
	sessionsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "table_order_sessions_total",
			Help: "Session initializations by outcome",
		},
		[]string{"outcome"},
	)

	itemsAdded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "table_order_items_added_total",
			Help: "Add-item requests by target ticket",
		},
		[]string{"ticket"},
	)

	statusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "table_order_status_transitions_total",
			Help: "Applied order status changes by target status",
		},
		[]string{"to"},
	)

	joinCodeCollisions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "table_order_join_code_collisions_total",
			Help: "Generated join codes rejected because they were in use",
		},
	)

	tablesReconciled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "table_order_tables_reconciled_total",
			Help: "Tables whose lock state was repaired",
		},
		[]string{"action"},
	)
)

func init() {
	prometheus.MustRegister(sessionsStarted, itemsAdded, statusTransitions, joinCodeCollisions, tablesReconciled)
}
