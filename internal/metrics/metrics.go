// Package metrics defines the Prometheus metrics of the credit ledger.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// TransactionsTotal counts committed transactions by type.
var TransactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "credits",
	Subsystem: "ledger",
	Name:      "transactions_total",
	Help:      "Total committed ledger transactions by type.",
}, []string{"type"})

// CreditsMoved sums the absolute credits moved by transaction type.
var CreditsMoved = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "credits",
	Subsystem: "ledger",
	Name:      "credits_moved_total",
	Help:      "Total absolute credits moved by transaction type.",
}, []string{"type"})

// Rejections counts business-rule rejections by reason.
var Rejections = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "credits",
	Subsystem: "ledger",
	Name:      "rejections_total",
	Help:      "Total operations rejected by a business rule.",
}, []string{"reason"})

// AdminOverrides counts admin balance overrides that changed a balance.
var AdminOverrides = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "credits",
	Subsystem: "ledger",
	Name:      "admin_overrides_total",
	Help:      "Total admin balance overrides that recorded a transaction.",
})

// AccountsCreated counts new accounts by role.
var AccountsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "credits",
	Subsystem: "ledger",
	Name:      "accounts_created_total",
	Help:      "Total accounts created by user type.",
}, []string{"user_type"})

// OperationDuration observes engine operation latency in seconds.
var OperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "credits",
	Subsystem: "ledger",
	Name:      "operation_duration_seconds",
	Help:      "Ledger engine operation latency.",
	Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
}, []string{"operation", "outcome"})

// NotificationsDropped counts events dropped for slow subscribers.
var NotificationsDropped = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "credits",
	Subsystem: "notify",
	Name:      "dropped_total",
	Help:      "Total credits-updated events dropped for slow subscribers.",
})

// Subscribers tracks the number of live event subscribers.
var Subscribers = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "credits",
	Subsystem: "notify",
	Name:      "subscribers",
	Help:      "Current number of credits-updated subscribers.",
})
