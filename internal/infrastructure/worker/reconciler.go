package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/loveos/couple-api/internal/core/domain"
	"github.com/loveos/couple-api/internal/core/ports"
)

// ReportFunc receives the result of every reconciliation pass.
type ReportFunc func(report *domain.ReconcileReport)

// Reconciler periodically scans partner links and repairs asymmetric ones.
type Reconciler struct {
	service  ports.PartnerService
	interval time.Duration
	onReport ReportFunc
	log      zerolog.Logger
}

// NewReconciler creates a Reconciler. An interval <= 0 disables the loop.
func NewReconciler(service ports.PartnerService, interval time.Duration, onReport ReportFunc, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		service:  service,
		interval: interval,
		onReport: onReport,
		log:      log,
	}
}

// Start launches the reconciliation loop in a goroutine. The loop stops when
// ctx is cancelled; the returned channel is closed once it has.
func (r *Reconciler) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	if r.interval <= 0 {
		r.log.Info().Msg("link reconciliation disabled")
		close(done)
		return done
	}

	go func() {
		defer close(done)
		r.run(ctx)
	}()
	return done
}

func (r *Reconciler) run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single repairing pass.
func (r *Reconciler) RunOnce(ctx context.Context) {
	report, err := r.service.Reconcile(ctx, true)
	if err != nil {
		if ctx.Err() == nil {
			r.log.Error().Err(err).Msg("link reconciliation failed")
		}
		return
	}

	if r.onReport != nil {
		r.onReport(report)
	}
	if len(report.Issues) == 0 {
		r.log.Debug().Int("checked", report.Checked).Msg("partner links consistent")
		return
	}
	for _, issue := range report.Issues {
		r.log.Warn().
			Str("user_id", issue.UserID).
			Str("partner_id", issue.PartnerID).
			Str("kind", issue.Kind).
			Str("action", issue.Action).
			Msg("asymmetric partner link")
	}
}
