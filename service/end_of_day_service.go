package service

import (
	"context"
	"fmt"
	"time"

	"accrual/models"

	log "github.com/sirupsen/logrus"
)

// EndOfDayOptions configures an end-of-day run
type EndOfDayOptions struct {
	Date   time.Time
	DryRun bool
	Strict bool
}

// EndOfDayResult collects the steps of an end-of-day run. Fees is nil unless
// Date is a month end; Integrity is nil for dry runs.
type EndOfDayResult struct {
	Daily     *RunSummary
	Fees      *RunSummary
	Integrity *IntegrityReport
}

type endOfDayService struct {
	daily     DailyAccrualService
	fees      FeeService
	integrity IntegrityService
}

// NewEndOfDayService creates a new end-of-day service
func NewEndOfDayService(daily DailyAccrualService, fees FeeService, integrity IntegrityService) EndOfDayService {
	return &endOfDayService{
		daily:     daily,
		fees:      fees,
		integrity: integrity,
	}
}

func (s *endOfDayService) Run(ctx context.Context, opts EndOfDayOptions) (*EndOfDayResult, error) {
	date := models.DateOnly(opts.Date)
	result := &EndOfDayResult{}

	log.WithField("date", date.Format("2006-01-02")).Info("Step 1: daily interest accrual")
	daily, err := s.daily.Run(ctx, DailyOptions{Date: date, DryRun: opts.DryRun})
	if err != nil {
		return result, fmt.Errorf("failed to run daily accrual: %w", err)
	}
	result.Daily = daily

	if models.IsMonthEnd(date) {
		log.WithField("month", models.MonthOf(date).String()).Info("Step 2: monthly maintenance fees")
		fees, err := s.fees.Run(ctx, FeeOptions{Month: models.MonthOf(date), ChargeDate: date, DryRun: opts.DryRun})
		if err != nil {
			return result, fmt.Errorf("failed to run maintenance fees: %w", err)
		}
		result.Fees = fees
	} else {
		log.Info("Step 2: not month end, skipping maintenance fees")
	}

	if opts.DryRun {
		log.Info("Step 3: dry run, skipping integrity check")
		return result, nil
	}

	log.Info("Step 3: ledger integrity check")
	report, err := s.integrity.Verify(ctx, VerifyOptions{Strict: opts.Strict, Record: true})
	if err != nil {
		return result, fmt.Errorf("failed to verify integrity: %w", err)
	}
	result.Integrity = report
	return result, report.Err()
}
