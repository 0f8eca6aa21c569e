package service

import (
	"context"
	"fmt"
	"time"

	"accrual/events"
	"accrual/models"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// VerifyOptions configures an integrity check. Strict turns any mismatch into
// a failed run; Record stores the check as a batch run.
type VerifyOptions struct {
	Strict bool
	Record bool
}

// IntegrityReport is the outcome of reconciling every active account
type IntegrityReport struct {
	AccountsChecked int
	Mismatches      []AccountIntegrity
	Strict          bool
	Duration        time.Duration
}

// Failed reports whether any account disagrees with its ledger
func (r *IntegrityReport) Failed() bool {
	return len(r.Mismatches) > 0
}

// Err returns ErrIntegrityMismatch for a failed strict check
func (r *IntegrityReport) Err() error {
	if r.Strict && r.Failed() {
		return fmt.Errorf("%w: %d of %d accounts", ErrIntegrityMismatch, len(r.Mismatches), r.AccountsChecked)
	}
	return nil
}

type integrityService struct {
	uowFactory UnitOfWorkFactory
}

// NewIntegrityService creates a new integrity service
func NewIntegrityService(uowFactory UnitOfWorkFactory) IntegrityService {
	return &integrityService{uowFactory: uowFactory}
}

// Verify never repairs anything. Mismatch events are published through the
// unit of work and delivered once the read transaction commits.
func (s *integrityService) Verify(ctx context.Context, opts VerifyOptions) (*IntegrityReport, error) {
	start := time.Now()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	accounts, err := uow.AccountRepository().ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active accounts: %w", err)
	}

	report := &IntegrityReport{Strict: opts.Strict}
	for _, account := range accounts {
		txns, err := uow.TransactionRepository().ListByAccount(ctx, account.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load ledger for account %s: %w", account.AccountNumber, err)
		}

		result := VerifyAccount(account, txns)
		report.AccountsChecked++
		if !result.Mismatch {
			continue
		}

		report.Mismatches = append(report.Mismatches, result)
		log.WithFields(log.Fields{
			"account":        result.AccountNumber,
			"stored_balance": result.StoredBalance.StringFixed(2),
			"ledger_balance": result.LedgerBalance.StringFixed(2),
			"difference":     result.Difference.StringFixed(2),
			"latest_running": result.LatestRunningBalance.StringFixed(2),
		}).Error("Balance mismatch")

		uow.EventBus().Publish(events.IntegrityMismatchEvent{
			AccountID:     result.AccountID,
			AccountNumber: result.AccountNumber,
			StoredBalance: result.StoredBalance,
			LedgerBalance: result.LedgerBalance,
			Difference:    result.Difference,
		})
	}

	if opts.Record {
		if err := uow.BatchRunRepository().Create(ctx, report.toBatchRun()); err != nil {
			return nil, fmt.Errorf("failed to record verification run: %w", err)
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	report.Duration = time.Since(start)

	fields := log.Fields{
		"accounts_checked": report.AccountsChecked,
		"mismatches":       len(report.Mismatches),
		"strict":           report.Strict,
	}
	if report.Failed() {
		log.WithFields(fields).Error("Ledger integrity check failed")
	} else {
		log.WithFields(fields).Info("All balances verified")
	}
	return report, nil
}

func (r *IntegrityReport) toBatchRun() *models.BatchRun {
	accounts := make([]string, 0, len(r.Mismatches))
	total := decimal.Zero
	for _, m := range r.Mismatches {
		accounts = append(accounts, m.AccountNumber)
		total = total.Add(m.Difference)
	}
	return &models.BatchRun{
		Kind:              models.BatchKindVerify,
		Period:            time.Now().UTC().Format("2006-01-02"),
		AccountsProcessed: r.AccountsChecked,
		TotalAmount:       total,
		Mismatches:        len(r.Mismatches),
		ExecutionSummary: map[string]interface{}{
			"strict":              r.Strict,
			"mismatched_accounts": accounts,
		},
	}
}
