// Package metrics defines and registers all custom Prometheus metrics for
// the order-exchange API. It is the single source of truth for metric
// names, labels, and help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "exchange"

// ── Take metrics ──────────────────────────────────────────────────────────────

// TakesTotal counts take attempts by outcome.
// Label:
//   - result: "success", "replay", "expired", "max_holders",
//     "insufficient_balance", "busy", or "error"
var TakesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "takes_total",
		Help:      "Total number of take attempts, labelled by outcome.",
	},
	[]string{"result"},
)

// TakeDuration measures how long a take call takes end-to-end, including
// lock wait.
var TakeDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "take_duration_seconds",
		Help:      "Duration of take calls from lock acquisition to result.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
)

// ── Lifecycle metrics ─────────────────────────────────────────────────────────

// OrderTransitionsTotal counts state-machine transitions out of active,
// whether written by the sweep, the take path's lazy expiry, or an owner
// action.
// Label:
//   - to: the terminal status written ("expired", "closed_no_response",
//     "completed")
var OrderTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_transitions_total",
		Help:      "Total number of order status transitions, labelled by target state.",
	},
	[]string{"to"},
)

// ── Order metrics ─────────────────────────────────────────────────────────────

// OrdersCreatedTotal counts newly posted orders.
// Label:
//   - category: the order's service category
var OrdersCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_created_total",
		Help:      "Total number of orders created, by category.",
	},
	[]string{"category"},
)

// ── Ledger metrics ────────────────────────────────────────────────────────────

// LedgerEntriesTotal counts appended ledger entries.
// Label:
//   - kind: "recharge", "order_take", or "refund"
var LedgerEntriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ledger_entries_total",
		Help:      "Total number of ledger entries appended, by kind.",
	},
	[]string{"kind"},
)
