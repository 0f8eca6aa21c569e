package service

import (
	"context"
	"fmt"

	"accrual/models"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of accounts processed in parallel when unset
const DefaultConcurrency = 4

// loadAccounts reads the account snapshot the batch selects from
func loadAccounts(ctx context.Context, uowFactory UnitOfWorkFactory) ([]*models.AccountWithProduct, error) {
	uow := uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	accounts, err := uow.AccountRepository().ListWithProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	return accounts, nil
}

// forEachAccount runs fn for every account with at most limit running at
// once. Each account stays on a single goroutine so its periods keep their
// order. fn reports per-period failures into the summary; an error returned
// from fn stops the batch.
func forEachAccount(ctx context.Context, limit int, accounts []*models.AccountWithProduct, fn func(ctx context.Context, account *models.AccountWithProduct) error) error {
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, account := range accounts {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			return fn(gctx, account)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// recordRun stores the audit row for a finished non-dry run. A failure here
// is logged but does not fail the batch, whose postings are already committed.
func recordRun(ctx context.Context, uowFactory UnitOfWorkFactory, run *models.BatchRun) {
	uow := uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		log.WithError(err).Warn("Failed to begin batch run record")
		return
	}
	defer uow.Rollback()

	if err := uow.BatchRunRepository().Create(ctx, run); err != nil {
		log.WithError(err).WithField("kind", run.Kind).Warn("Failed to record batch run")
		return
	}
	if err := uow.Commit(); err != nil {
		log.WithError(err).WithField("kind", run.Kind).Warn("Failed to commit batch run record")
	}
}

func logSummary(summary *RunSummary) {
	fields := log.Fields{
		"kind":                summary.Kind,
		"period":              summary.Period,
		"dry_run":             summary.DryRun,
		"accounts_considered": summary.AccountsConsidered,
		"accounts_processed":  summary.AccountsProcessed,
		"periods_posted":      summary.PeriodsPosted,
		"total_amount":        summary.TotalAmount.StringFixed(2),
		"skipped":             len(summary.Skipped),
		"failures":            len(summary.Failures),
		"duration":            summary.Duration,
	}
	if summary.HasFailures() {
		log.WithFields(fields).Warn("Batch completed with failures")
		return
	}
	log.WithFields(fields).Info("Batch completed")
}
