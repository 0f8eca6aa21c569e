package service

import (
	"context"
	"errors"
	"fmt"

	"accrual/events"
	"accrual/models"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// MonthlyOptions configures a monthly interest run
type MonthlyOptions struct {
	Target models.Month
	DryRun bool
}

type monthlyAccrualService struct {
	uowFactory  UnitOfWorkFactory
	poster      LedgerPoster
	bus         *events.Bus
	concurrency int
}

// NewMonthlyAccrualService creates a new monthly accrual service
func NewMonthlyAccrualService(uowFactory UnitOfWorkFactory, poster LedgerPoster, bus *events.Bus, concurrency int) MonthlyAccrualService {
	return &monthlyAccrualService{
		uowFactory:  uowFactory,
		poster:      poster,
		bus:         bus,
		concurrency: concurrency,
	}
}

func (s *monthlyAccrualService) Run(ctx context.Context, opts MonthlyOptions) (*RunSummary, error) {
	summary := newRunSummary(models.BatchKindMonthlyInterest, opts.Target.String(), opts.DryRun)

	accounts, err := loadAccounts(ctx, s.uowFactory)
	if err != nil {
		return nil, err
	}
	summary.AccountsConsidered = len(accounts)

	eligible := SelectEligible(accounts, ModeMonthly, opts.Target.End())
	log.WithFields(log.Fields{
		"target":   opts.Target.String(),
		"eligible": len(eligible),
		"total":    len(accounts),
		"dry_run":  opts.DryRun,
	}).Info("Starting monthly interest run")

	err = forEachAccount(ctx, s.concurrency, eligible, func(ctx context.Context, account *models.AccountWithProduct) error {
		return s.processAccount(ctx, account, opts, summary)
	})
	summary.finish()
	if err != nil {
		return summary, fmt.Errorf("monthly run interrupted: %w", err)
	}

	logSummary(summary)
	if !opts.DryRun {
		recordRun(ctx, s.uowFactory, summary.ToBatchRun())
	}
	emitCompleted(ctx, s.bus, summary)
	return summary, nil
}

// processAccount walks the outstanding months of one account in ascending
// order. Each month compounds on the balance left by the previous one, so a
// failed month abandons the rest of the account for this run.
func (s *monthlyAccrualService) processAccount(ctx context.Context, account *models.AccountWithProduct, opts MonthlyOptions, summary *RunSummary) error {
	posted, err := s.postedMonths(ctx, account)
	if err != nil {
		summary.addFailure(account.AccountNumber, opts.Target.String(), err)
		return nil
	}

	// Interest projected by a dry run is not in the ledger, so later months
	// add it back to preview compounding
	projected := decimal.Zero

	for _, month := range OutstandingMonths(account.OpeningDate, opts.Target, posted) {
		if err := ctx.Err(); err != nil {
			return err
		}

		monthKey := month.String()
		snapshot, err := s.balanceAt(ctx, account, month)
		if err != nil {
			summary.addFailure(account.AccountNumber, monthKey, err)
			return nil
		}
		if !snapshot.Open {
			summary.addSkip(account.AccountNumber, monthKey, SkipNotOpen)
			continue
		}

		balance := snapshot.Balance.Add(projected)
		if balance.LessThan(account.Product.MinimumBalanceForInterest) {
			summary.addSkip(account.AccountNumber, monthKey, SkipBelowMinimum)
			continue
		}

		interest := MonthlyInterest(balance, account.Product.InterestRate)
		if !interest.IsPositive() {
			summary.addSkip(account.AccountNumber, monthKey, SkipZeroInterest)
			continue
		}

		result, err := s.poster.PostMonthlyInterest(ctx, MonthlyPosting{
			Account:      &account.Account,
			Month:        month,
			PriorBalance: balance,
			AnnualRate:   account.Product.InterestRate,
			Interest:     interest,
			DryRun:       opts.DryRun,
		})
		if errors.Is(err, ErrAlreadyPosted) {
			summary.addSkip(account.AccountNumber, monthKey, SkipAlreadyPosted)
			continue
		}
		if err != nil {
			log.WithFields(log.Fields{
				"account": account.AccountNumber,
				"month":   monthKey,
				"error":   err,
			}).Error("Failed to post monthly interest")
			summary.addFailure(account.AccountNumber, monthKey, err)
			return nil
		}

		if opts.DryRun {
			projected = projected.Add(interest)
		}
		summary.addPosting(result)

		log.WithFields(log.Fields{
			"account":  account.AccountNumber,
			"month":    monthKey,
			"balance":  balance.StringFixed(2),
			"interest": interest.StringFixed(2),
			"dry_run":  opts.DryRun,
		}).Debug("Monthly interest posted")
	}
	return nil
}

func (s *monthlyAccrualService) postedMonths(ctx context.Context, account *models.AccountWithProduct) (map[string]bool, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	posted, err := uow.AccrualRepository().PostedMonths(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get posted months: %w", err)
	}
	return posted, nil
}

func (s *monthlyAccrualService) balanceAt(ctx context.Context, account *models.AccountWithProduct, month models.Month) (BalanceSnapshot, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return BalanceSnapshot{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return ReconstructBalance(ctx, uow.TransactionRepository(), &account.Account, month.End())
}

func emitCompleted(ctx context.Context, bus *events.Bus, summary *RunSummary) {
	if bus == nil {
		return
	}
	bus.Emit(ctx, events.BatchCompletedEvent{
		Kind:              string(summary.Kind),
		Period:            summary.Period,
		DryRun:            summary.DryRun,
		AccountsProcessed: summary.AccountsProcessed,
		PeriodsPosted:     summary.PeriodsPosted,
		Skipped:           len(summary.Skipped),
		Failures:          len(summary.Failures),
		TotalAmount:       summary.TotalAmount,
		Duration:          summary.Duration,
	})
}
