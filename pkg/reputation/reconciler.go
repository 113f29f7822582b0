package reputation

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/apidockhq/apidock/pkg/observability"
)

// Reconciler periodically verifies that every user's cached running total
// matches the sum of their event log, repairing drift from the log. Runs on
// a cron schedule so operational drift (partial restores, manual edits)
// surfaces instead of silently corrupting grades.
type Reconciler struct {
	ledger  *Ledger
	store   Store
	cron    *cron.Cron
	logger  *observability.Logger
	timeout time.Duration
}

// NewReconciler creates a reconciler running on the given cron schedule
// (e.g. "0 3 * * *" for 3am daily)
func NewReconciler(ledger *Ledger, store Store, schedule string, logger *observability.Logger) (*Reconciler, error) {
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}

	r := &Reconciler{
		ledger:  ledger,
		store:   store,
		cron:    cron.New(),
		logger:  logger,
		timeout: 10 * time.Minute,
	}

	if _, err := r.cron.AddFunc(schedule, r.runOnce); err != nil {
		return nil, fmt.Errorf("invalid reconciliation schedule %q: %w", schedule, err)
	}
	return r, nil
}

// Start begins the cron scheduler
func (r *Reconciler) Start() {
	r.cron.Start()
	r.logger.Info("ledger reconciler started")
}

// Stop stops the scheduler and waits for a running pass to finish
func (r *Reconciler) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.logger.Info("ledger reconciler stopped")
}

func (r *Reconciler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.ReconcileAll(ctx); err != nil {
		r.logger.WithError(err).Error("ledger reconciliation pass failed")
	}
}

// ReconcileAll reconciles every user with a score record
func (r *Reconciler) ReconcileAll(ctx context.Context) error {
	ids, err := r.store.UserIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users for reconciliation: %w", err)
	}

	var drifted int
	for _, id := range ids {
		report, err := r.ledger.Reconcile(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to reconcile user %d: %w", id, err)
		}
		if report.Drift != 0 {
			drifted++
		}
	}

	r.logger.WithFields(map[string]interface{}{
		"users":   len(ids),
		"drifted": drifted,
	}).Info("ledger reconciliation pass complete")
	return nil
}
