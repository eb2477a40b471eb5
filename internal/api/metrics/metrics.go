// Package metrics defines and registers all custom Prometheus metrics for the
// couple API. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation via promauto.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/loveos/couple-api/internal/core/domain"
)

const namespace = "loveos"

// ── Session metrics ───────────────────────────────────────────────────────────

// LoginAttemptsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials" or "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// SessionsRevokedTotal counts tokens revoked through logout.
var SessionsRevokedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_revoked_total",
		Help:      "Total number of bearer tokens revoked by logout.",
	},
)

// ── Partner link metrics ──────────────────────────────────────────────────────

// PartnerLinkOpsTotal counts link and unlink requests.
// Labels:
//   - op: "link" or "unlink"
//   - result: "ok", or the error kind ("not_found", "conflict", ...)
var PartnerLinkOpsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "partner_link_ops_total",
		Help:      "Total number of partner link/unlink operations, by result.",
	},
	[]string{"op", "result"},
)

// ReconcileRunsTotal counts reconciliation passes.
var ReconcileRunsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reconcile_runs_total",
		Help:      "Total number of partner link reconciliation passes.",
	},
)

// ReconcileIssuesTotal counts asymmetric links found by reconciliation.
// Labels:
//   - kind: "missing_partner", "one_sided" or "conflicting"
//   - action: "roll_forward", "cleared" or "none"
var ReconcileIssuesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reconcile_issues_total",
		Help:      "Total number of asymmetric partner links detected, by kind and repair action.",
	},
	[]string{"kind", "action"},
)

// ObserveReconcile records one reconciliation report.
func ObserveReconcile(report *domain.ReconcileReport) {
	ReconcileRunsTotal.Inc()
	for _, issue := range report.Issues {
		ReconcileIssuesTotal.WithLabelValues(issue.Kind, issue.Action).Inc()
	}
}

// ErrorLabel maps an error to its metric label.
func ErrorLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrAuth):
		return "auth"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrConsistency):
		return "consistency"
	default:
		return "error"
	}
}
