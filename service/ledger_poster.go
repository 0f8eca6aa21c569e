package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"accrual/events"
	"accrual/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MonthlyPosting is the input for one monthly interest credit
type MonthlyPosting struct {
	Account      *models.Account
	Month        models.Month
	PriorBalance decimal.Decimal
	AnnualRate   decimal.Decimal
	Interest     decimal.Decimal
	DryRun       bool
}

// DailyAccrual is the input for one daily accrual
type DailyAccrual struct {
	Account    *models.Account
	Date       time.Time
	Balance    decimal.Decimal
	AnnualRate decimal.Decimal
	Interest   decimal.Decimal
	DryRun     bool
}

// FeeCharge is the input for one maintenance fee debit
type FeeCharge struct {
	Account    *models.Account
	Month      models.Month
	ChargeDate time.Time
	Fee        decimal.Decimal
	DryRun     bool
}

type ledgerPoster struct {
	uowFactory UnitOfWorkFactory
	now        func() time.Time
}

// NewLedgerPoster creates a poster that commits each unit in its own transaction
func NewLedgerPoster(uowFactory UnitOfWorkFactory) LedgerPoster {
	return &ledgerPoster{
		uowFactory: uowFactory,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (p *ledgerPoster) PostMonthlyInterest(ctx context.Context, posting MonthlyPosting) (*PostingResult, error) {
	if !posting.Interest.IsPositive() {
		return nil, fmt.Errorf("monthly interest must be positive, got %s", posting.Interest)
	}

	account := posting.Account
	monthKey := posting.Month.String()
	newRunning := posting.PriorBalance.Add(posting.Interest)

	result := &PostingResult{
		AccountID:     account.ID,
		AccountNumber: account.AccountNumber,
		Period:        monthKey,
		Amount:        posting.Interest,
		BaseBalance:   posting.PriorBalance,
		NewBalance:    newRunning,
		DryRun:        posting.DryRun,
	}
	if posting.DryRun {
		return result, nil
	}

	uow := p.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	existing, err := uow.AccrualRepository().GetMonthly(ctx, account.ID, monthKey)
	if err != nil {
		return nil, fmt.Errorf("failed to check monthly accrual: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyPosted
	}

	txn := &models.Transaction{
		ID:              uuid.New(),
		AccountID:       account.ID,
		Direction:       models.DirectionCredit,
		Category:        models.CategoryInterest,
		Amount:          posting.Interest,
		Currency:        account.Currency,
		RunningBalance:  newRunning,
		ValueDate:       posting.Month.End(),
		TransactionDate: p.now(),
		Status:          models.TransactionStatusPosted,
		Description:     fmt.Sprintf("Monthly interest - %s (30/360)", monthKey),
		Reference:       monthKey,
		Channel:         models.ChannelBatch,
	}
	if err := uow.TransactionRepository().Create(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to append interest transaction: %w", err)
	}

	// Increment rather than overwrite so entries dated after the month end
	// stay reflected in the live balance
	newBalance, err := uow.AccountRepository().AddBalance(ctx, account.ID, posting.Interest)
	if err != nil {
		return nil, fmt.Errorf("failed to credit interest: %w", err)
	}

	record := &models.MonthlyAccrualRecord{
		ID:               uuid.New(),
		AccountID:        account.ID,
		AccrualMonth:     monthKey,
		PostingDate:      posting.Month.End(),
		MonthEndBalance:  posting.PriorBalance,
		AnnualRate:       posting.AnnualRate,
		MonthlyInterest:  posting.Interest,
		TransactionID:    txn.ID,
		ProcessingStatus: models.ProcessingStatusPosted,
	}
	if err := uow.AccrualRepository().CreateMonthly(ctx, record); err != nil {
		if errors.Is(err, ErrAlreadyPosted) {
			return nil, ErrAlreadyPosted
		}
		return nil, fmt.Errorf("failed to record monthly accrual: %w", err)
	}

	uow.EventBus().Publish(events.InterestPostedEvent{
		AccountID:     account.ID,
		AccountNumber: account.AccountNumber,
		Month:         monthKey,
		Interest:      posting.Interest,
		NewBalance:    newBalance,
		TransactionID: txn.ID,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	result.TransactionID = txn.ID
	result.NewBalance = newBalance
	return result, nil
}

func (p *ledgerPoster) AccrueDaily(ctx context.Context, accrual DailyAccrual) (*PostingResult, error) {
	if !accrual.Interest.IsPositive() {
		return nil, fmt.Errorf("daily interest must be positive, got %s", accrual.Interest)
	}

	account := accrual.Account
	date := models.DateOnly(accrual.Date)
	result := &PostingResult{
		AccountID:     account.ID,
		AccountNumber: account.AccountNumber,
		Period:        date.Format("2006-01-02"),
		Amount:        accrual.Interest,
		BaseBalance:   accrual.Balance,
		NewBalance:    account.InterestAccrued.Add(accrual.Interest),
		DryRun:        accrual.DryRun,
	}
	if accrual.DryRun {
		return result, nil
	}

	uow := p.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	existing, err := uow.AccrualRepository().GetDaily(ctx, account.ID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to check daily accrual: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyPosted
	}

	cumulative, err := uow.AccountRepository().AddInterestAccrued(ctx, account.ID, accrual.Interest)
	if err != nil {
		return nil, fmt.Errorf("failed to increment accrued interest: %w", err)
	}

	record := &models.DailyAccrualRecord{
		ID:                uuid.New(),
		AccountID:         account.ID,
		AccrualDate:       date,
		Balance:           accrual.Balance,
		AnnualRate:        accrual.AnnualRate,
		DailyInterest:     accrual.Interest,
		CumulativeAccrued: cumulative,
	}
	if err := uow.AccrualRepository().CreateDaily(ctx, record); err != nil {
		if errors.Is(err, ErrAlreadyPosted) {
			return nil, ErrAlreadyPosted
		}
		return nil, fmt.Errorf("failed to record daily accrual: %w", err)
	}

	uow.EventBus().Publish(events.InterestAccruedEvent{
		AccountID:         account.ID,
		AccountNumber:     account.AccountNumber,
		AccrualDate:       date,
		Interest:          accrual.Interest,
		CumulativeAccrued: cumulative,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	result.NewBalance = cumulative
	return result, nil
}

func (p *ledgerPoster) ChargeFee(ctx context.Context, charge FeeCharge) (*PostingResult, error) {
	if !charge.Fee.IsPositive() {
		return nil, fmt.Errorf("fee must be positive, got %s", charge.Fee)
	}

	account := charge.Account
	monthKey := charge.Month.String()
	result := &PostingResult{
		AccountID:     account.ID,
		AccountNumber: account.AccountNumber,
		Period:        monthKey,
		Amount:        charge.Fee,
		BaseBalance:   account.Balance,
		NewBalance:    account.Balance.Sub(charge.Fee),
		DryRun:        charge.DryRun,
	}
	if charge.DryRun {
		if account.Balance.LessThan(charge.Fee) {
			return nil, ErrInsufficientBalance
		}
		return result, nil
	}

	uow := p.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	existing, err := uow.FeeChargeRepository().Get(ctx, account.ID, monthKey)
	if err != nil {
		return nil, fmt.Errorf("failed to check fee charge: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyPosted
	}

	// Re-read under lock so a concurrent withdrawal cannot slip between check and debit
	current, err := uow.AccountRepository().GetByIDForUpdate(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}
	if current == nil {
		return nil, ErrAccountNotFound
	}
	if current.Balance.LessThan(charge.Fee) {
		return nil, ErrInsufficientBalance
	}

	txn := &models.Transaction{
		ID:              uuid.New(),
		AccountID:       account.ID,
		Direction:       models.DirectionDebit,
		Category:        models.CategoryFee,
		Amount:          charge.Fee,
		Currency:        account.Currency,
		RunningBalance:  current.Balance.Sub(charge.Fee),
		ValueDate:       models.DateOnly(charge.ChargeDate),
		TransactionDate: p.now(),
		Status:          models.TransactionStatusPosted,
		Description:     "Monthly maintenance fee",
		Reference:       "FEE-" + charge.Month.Compact(),
		Channel:         models.ChannelBatch,
	}
	if err := uow.TransactionRepository().Create(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to append fee transaction: %w", err)
	}

	newBalance, err := uow.AccountRepository().AddBalance(ctx, account.ID, charge.Fee.Neg())
	if err != nil {
		return nil, fmt.Errorf("failed to debit fee: %w", err)
	}

	record := &models.FeeChargeRecord{
		ID:            uuid.New(),
		AccountID:     account.ID,
		FeeMonth:      monthKey,
		ChargeDate:    models.DateOnly(charge.ChargeDate),
		Amount:        charge.Fee,
		TransactionID: txn.ID,
	}
	if err := uow.FeeChargeRepository().Create(ctx, record); err != nil {
		if errors.Is(err, ErrAlreadyPosted) {
			return nil, ErrAlreadyPosted
		}
		return nil, fmt.Errorf("failed to record fee charge: %w", err)
	}

	uow.EventBus().Publish(events.FeeChargedEvent{
		AccountID:     account.ID,
		AccountNumber: account.AccountNumber,
		Month:         monthKey,
		Fee:           charge.Fee,
		NewBalance:    newBalance,
		TransactionID: txn.ID,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	result.BaseBalance = current.Balance
	result.NewBalance = newBalance
	result.TransactionID = txn.ID
	return result, nil
}
