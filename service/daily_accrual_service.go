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

// DailyOptions configures a daily accrual run
type DailyOptions struct {
	Date   time.Time
	DryRun bool
}

type dailyAccrualService struct {
	uowFactory  UnitOfWorkFactory
	poster      LedgerPoster
	bus         *events.Bus
	concurrency int
}

// NewDailyAccrualService creates a new daily accrual service
func NewDailyAccrualService(uowFactory UnitOfWorkFactory, poster LedgerPoster, bus *events.Bus, concurrency int) DailyAccrualService {
	return &dailyAccrualService{
		uowFactory:  uowFactory,
		poster:      poster,
		bus:         bus,
		concurrency: concurrency,
	}
}

func (s *dailyAccrualService) Run(ctx context.Context, opts DailyOptions) (*RunSummary, error) {
	date := models.DateOnly(opts.Date)
	period := date.Format("2006-01-02")
	summary := newRunSummary(models.BatchKindDailyAccrual, period, opts.DryRun)

	accounts, err := loadAccounts(ctx, s.uowFactory)
	if err != nil {
		return nil, err
	}
	summary.AccountsConsidered = len(accounts)

	eligible := SelectEligible(accounts, ModeDaily, models.MonthOf(date).End())
	recordIneligible(summary, accounts, eligible, period)

	log.WithFields(log.Fields{
		"date":     period,
		"eligible": len(eligible),
		"total":    len(accounts),
		"dry_run":  opts.DryRun,
	}).Info("Starting daily interest accrual")

	err = forEachAccount(ctx, s.concurrency, eligible, func(ctx context.Context, account *models.AccountWithProduct) error {
		interest := DailyInterest(account.Balance, account.Product.InterestRate)
		if !interest.IsPositive() {
			summary.addSkip(account.AccountNumber, period, SkipZeroInterest)
			return nil
		}

		result, err := s.poster.AccrueDaily(ctx, DailyAccrual{
			Account:    &account.Account,
			Date:       date,
			Balance:    account.Balance,
			AnnualRate: account.Product.InterestRate,
			Interest:   interest,
			DryRun:     opts.DryRun,
		})
		if errors.Is(err, ErrAlreadyPosted) {
			summary.addSkip(account.AccountNumber, period, SkipAlreadyPosted)
			return nil
		}
		if err != nil {
			log.WithFields(log.Fields{
				"account": account.AccountNumber,
				"date":    period,
				"error":   err,
			}).Error("Failed to accrue daily interest")
			summary.addFailure(account.AccountNumber, period, err)
			return nil
		}
		summary.addPosting(result)
		return nil
	})
	summary.finish()
	if err != nil {
		return summary, fmt.Errorf("daily run interrupted: %w", err)
	}

	logSummary(summary)
	if !opts.DryRun {
		recordRun(ctx, s.uowFactory, summary.ToBatchRun())
	}
	emitCompleted(ctx, s.bus, summary)
	return summary, nil
}

// recordIneligible notes active accounts the selector filtered out so the
// summary explains every active account
func recordIneligible(summary *RunSummary, all, selected []*models.AccountWithProduct, period string) {
	chosen := make(map[string]bool, len(selected))
	for _, a := range selected {
		chosen[a.AccountNumber] = true
	}
	for _, a := range all {
		if !a.IsActive() || chosen[a.AccountNumber] {
			continue
		}
		reason := SkipIneligible
		if a.Product.InterestRate.IsPositive() && a.Balance.LessThan(a.Product.MinimumBalanceForInterest) {
			reason = SkipBelowMinimum
		}
		summary.addSkip(a.AccountNumber, period, reason)
	}
}
