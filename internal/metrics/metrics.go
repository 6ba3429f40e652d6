// Package metrics exposes the engine's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ExpensesCreated counts expenses written to the ledger, by kind.
	ExpensesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tally_expenses_created_total",
		Help: "Expenses written to the ledger, by kind.",
	}, []string{"kind"})

	// ExpensesDeleted counts hard deletes, by kind.
	ExpensesDeleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tally_expenses_deleted_total",
		Help: "Expenses removed from the ledger, by kind.",
	}, []string{"kind"})

	// SettlementConflicts counts settlements aborted because another
	// settlement consumed a split's remaining balance first.
	SettlementConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tally_settlement_conflicts_total",
		Help: "Settlements aborted by the write-time remaining-balance check.",
	})

	// NotificationFailures counts settlement notifications that could
	// not be delivered. These never fail the settlement.
	NotificationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tally_notification_failures_total",
		Help: "Settlement-completed events that failed to deliver.",
	})

	// RequestDuration observes HTTP request latency.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tally_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"path", "method"})
)
