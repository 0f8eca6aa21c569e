package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"accrual/events"
	"accrual/models"

	log "github.com/sirupsen/logrus"
)

// FeeOptions configures a maintenance fee run. ChargeDate defaults to the
// last day of Month.
type FeeOptions struct {
	Month      models.Month
	ChargeDate time.Time
	DryRun     bool
}

type feeService struct {
	uowFactory  UnitOfWorkFactory
	poster      LedgerPoster
	bus         *events.Bus
	concurrency int
}

// NewFeeService creates a new maintenance fee service
func NewFeeService(uowFactory UnitOfWorkFactory, poster LedgerPoster, bus *events.Bus, concurrency int) FeeService {
	return &feeService{
		uowFactory:  uowFactory,
		poster:      poster,
		bus:         bus,
		concurrency: concurrency,
	}
}

func (s *feeService) Run(ctx context.Context, opts FeeOptions) (*RunSummary, error) {
	monthKey := opts.Month.String()
	chargeDate := opts.ChargeDate
	if chargeDate.IsZero() {
		chargeDate = opts.Month.End()
	}
	summary := newRunSummary(models.BatchKindMaintenanceFee, monthKey, opts.DryRun)

	accounts, err := loadAccounts(ctx, s.uowFactory)
	if err != nil {
		return nil, err
	}
	summary.AccountsConsidered = len(accounts)

	feeable := SelectFeeable(accounts)
	log.WithFields(log.Fields{
		"month":   monthKey,
		"feeable": len(feeable),
		"total":   len(accounts),
		"dry_run": opts.DryRun,
	}).Info("Starting maintenance fee run")

	err = forEachAccount(ctx, s.concurrency, feeable, func(ctx context.Context, account *models.AccountWithProduct) error {
		result, err := s.poster.ChargeFee(ctx, FeeCharge{
			Account:    &account.Account,
			Month:      opts.Month,
			ChargeDate: chargeDate,
			Fee:        account.Product.MonthlyMaintenanceFee,
			DryRun:     opts.DryRun,
		})
		switch {
		case errors.Is(err, ErrAlreadyPosted):
			summary.addSkip(account.AccountNumber, monthKey, SkipAlreadyPosted)
		case errors.Is(err, ErrInsufficientBalance):
			log.WithFields(log.Fields{
				"account": account.AccountNumber,
				"balance": account.Balance.StringFixed(2),
				"fee":     account.Product.MonthlyMaintenanceFee.StringFixed(2),
			}).Warn("Insufficient balance for maintenance fee")
			summary.addSkip(account.AccountNumber, monthKey, SkipInsufficientBalance)
		case err != nil:
			log.WithFields(log.Fields{
				"account": account.AccountNumber,
				"month":   monthKey,
				"error":   err,
			}).Error("Failed to charge maintenance fee")
			summary.addFailure(account.AccountNumber, monthKey, err)
		default:
			summary.addPosting(result)
		}
		return nil
	})
	summary.finish()
	if err != nil {
		return summary, fmt.Errorf("fee run interrupted: %w", err)
	}

	logSummary(summary)
	if !opts.DryRun {
		recordRun(ctx, s.uowFactory, summary.ToBatchRun())
	}
	emitCompleted(ctx, s.bus, summary)
	return summary, nil
}
