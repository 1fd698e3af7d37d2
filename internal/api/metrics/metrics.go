// Package metrics defines all custom Prometheus metrics for the library loan
// service. It is the single source of truth for metric names, labels, and
// help strings; promauto registers everything with the default registry at
// package load.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "library"

// ── Loan metrics ──────────────────────────────────────────────────────────────

// LoansCreatedTotal counts loan requests that were accepted.
var LoansCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "loans_created_total",
		Help:      "Total number of loan requests created.",
	},
)

// LoanTransitionsTotal counts applied status transitions.
// Labels:
//   - from: previous status (e.g. "requested")
//   - to: new status (e.g. "approved")
var LoanTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "loan_transitions_total",
		Help:      "Total number of loan status transitions applied, by edge.",
	},
	[]string{"from", "to"},
)

// LoanTransitionErrorsTotal counts transitions rejected at commit time.
// Label:
//   - reason: "no_copies" or "conflict"
var LoanTransitionErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "loan_transition_errors_total",
		Help:      "Total number of loan transitions that failed at commit time.",
	},
	[]string{"reason"},
)

// ── Sweeper metrics ───────────────────────────────────────────────────────────

// SweepsTotal counts completed overdue sweeps.
var SweepsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "overdue_sweeps_total",
		Help:      "Total number of completed overdue sweeps.",
	},
)

// LoansMarkedOverdueTotal counts loans transitioned to overdue by the sweeper.
var LoansMarkedOverdueTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "loans_marked_overdue_total",
		Help:      "Total number of loans marked overdue by the sweeper.",
	},
)

// ReconciliationFixesTotal counts available_copies drift repairs.
var ReconciliationFixesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "availability_reconciliation_fixes_total",
		Help:      "Total number of available_copies values repaired by reconciliation.",
	},
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: "success" or "failure"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationQueueDepth tracks events waiting in each dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var NotificationQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notification_queue_depth",
		Help:      "Current number of events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
