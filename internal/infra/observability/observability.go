// Package observability exposes Prometheus metrics for the SafeRent core:
// the request lifecycle, ledger growth, and certificate verification
// verdicts. Served on /metrics by the API server.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Request Lifecycle Metrics ──────────────────────────────────────────────

// SubmissionsTotal counts score submissions by outcome.
var SubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "saferent",
	Subsystem: "requests",
	Name:      "submissions_total",
	Help:      "Total score submissions by outcome (queued, duplicate, invalid).",
}, []string{"outcome"})

// DecisionsTotal counts validator decisions by outcome.
var DecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "saferent",
	Subsystem: "requests",
	Name:      "decisions_total",
	Help:      "Total validator decisions by outcome (accepted, rejected, failed).",
}, []string{"outcome"})

// PendingRequests tracks the current pending-queue depth.
var PendingRequests = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "saferent",
	Subsystem: "requests",
	Name:      "pending",
	Help:      "Current number of requests awaiting a validator decision.",
})

// ─── Ledger Metrics ─────────────────────────────────────────────────────────

// BlocksAppended counts blocks appended to the ledger.
var BlocksAppended = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "saferent",
	Subsystem: "ledger",
	Name:      "blocks_appended_total",
	Help:      "Total blocks appended to the ledger (genesis included).",
})

// ChainLength tracks the current chain length.
var ChainLength = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "saferent",
	Subsystem: "ledger",
	Name:      "chain_length",
	Help:      "Current number of blocks in the ledger.",
})

// AuditFailures counts chain audits that found corruption.
var AuditFailures = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "saferent",
	Subsystem: "ledger",
	Name:      "audit_failures_total",
	Help:      "Total chain audits that reported a broken block.",
})

// ─── Verification Metrics ───────────────────────────────────────────────────

// VerdictsTotal counts certificate verifications by result.
var VerdictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "saferent",
	Subsystem: "verify",
	Name:      "verdicts_total",
	Help:      "Total certificate verifications by verdict (valid or failure reason).",
}, []string{"verdict"})
