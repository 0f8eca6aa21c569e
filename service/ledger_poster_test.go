package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"accrual/events"
	"accrual/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type posterMocks struct {
	factory  *MockUnitOfWorkFactory
	uow      *MockUnitOfWork
	accounts *MockAccountRepository
	txns     *MockTransactionRepository
	accruals *MockAccrualRepository
	fees     *MockFeeChargeRepository
	bus      *MockEventPublisher
}

func newPosterMocks() *posterMocks {
	m := &posterMocks{
		factory:  new(MockUnitOfWorkFactory),
		uow:      new(MockUnitOfWork),
		accounts: new(MockAccountRepository),
		txns:     new(MockTransactionRepository),
		accruals: new(MockAccrualRepository),
		fees:     new(MockFeeChargeRepository),
		bus:      new(MockEventPublisher),
	}
	m.uow.SetRepositories(m.accounts, m.txns, m.accruals, m.fees, nil, m.bus)
	m.factory.On("Create").Return(m.uow)
	return m
}

func (m *posterMocks) assertExpectations(t *testing.T) {
	m.factory.AssertExpectations(t)
	m.uow.AssertExpectations(t)
	m.accounts.AssertExpectations(t)
	m.txns.AssertExpectations(t)
	m.accruals.AssertExpectations(t)
	m.fees.AssertExpectations(t)
	m.bus.AssertExpectations(t)
}

func posterAccount() *models.Account {
	return &models.Account{
		ID:              uuid.New(),
		AccountNumber:   "ACC-0001",
		Currency:        "USD",
		Status:          models.AccountStatusActive,
		Balance:         dec("1200.00"),
		InterestAccrued: dec("0.82"),
		OpeningDate:     time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
	}
}

func TestLedgerPoster_PostMonthlyInterest(t *testing.T) {
	ctx := context.Background()
	jan := models.Month{Year: 2024, Month: time.January}

	t.Run("posts transaction balance and record in one unit", func(t *testing.T) {
		m := newPosterMocks()
		account := posterAccount()

		m.uow.On("Begin", ctx).Return(nil)
		m.uow.On("Commit").Return(nil)
		m.uow.On("Rollback").Return(nil)
		m.accruals.On("GetMonthly", ctx, account.ID, "2024-01").Return(nil, nil)

		var created *models.Transaction
		m.txns.On("Create", ctx, mock.MatchedBy(func(txn *models.Transaction) bool {
			return txn.Direction == models.DirectionCredit &&
				txn.Category == models.CategoryInterest &&
				txn.Amount.Equal(dec("12.00")) &&
				txn.RunningBalance.Equal(dec("1212.00")) &&
				txn.ValueDate.Equal(jan.End()) &&
				txn.Reference == "2024-01" &&
				txn.Description == "Monthly interest - 2024-01 (30/360)" &&
				txn.Channel == models.ChannelBatch &&
				txn.Status == models.TransactionStatusPosted
		})).Run(func(args mock.Arguments) {
			created = args.Get(1).(*models.Transaction)
		}).Return(nil)
		m.accounts.On("AddBalance", ctx, account.ID, dec("12.00")).Return(dec("1212.00"), nil)
		m.accruals.On("CreateMonthly", ctx, mock.MatchedBy(func(rec *models.MonthlyAccrualRecord) bool {
			return rec.AccrualMonth == "2024-01" &&
				rec.MonthEndBalance.Equal(dec("1200.00")) &&
				rec.MonthlyInterest.Equal(dec("12.00")) &&
				rec.ProcessingStatus == models.ProcessingStatusPosted &&
				rec.TransactionID == created.ID
		})).Return(nil)
		m.bus.On("Publish", mock.AnythingOfType("events.InterestPostedEvent")).Return()

		poster := NewLedgerPoster(m.factory)
		result, err := poster.PostMonthlyInterest(ctx, MonthlyPosting{
			Account:      account,
			Month:        jan,
			PriorBalance: dec("1200.00"),
			AnnualRate:   dec("0.12"),
			Interest:     dec("12.00"),
		})

		require.NoError(t, err)
		assert.Equal(t, "2024-01", result.Period)
		assert.True(t, dec("1212.00").Equal(result.NewBalance))
		assert.Equal(t, created.ID, result.TransactionID)
		assert.False(t, result.DryRun)
		m.assertExpectations(t)
	})

	t.Run("existing record skips without writing", func(t *testing.T) {
		m := newPosterMocks()
		account := posterAccount()

		m.uow.On("Begin", ctx).Return(nil)
		m.uow.On("Rollback").Return(nil)
		m.accruals.On("GetMonthly", ctx, account.ID, "2024-01").Return(&models.MonthlyAccrualRecord{AccrualMonth: "2024-01"}, nil)

		poster := NewLedgerPoster(m.factory)
		_, err := poster.PostMonthlyInterest(ctx, MonthlyPosting{
			Account: account, Month: jan, PriorBalance: dec("1200.00"), Interest: dec("12.00"),
		})

		assert.ErrorIs(t, err, ErrAlreadyPosted)
		m.txns.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		m.uow.AssertNotCalled(t, "Commit")
		m.assertExpectations(t)
	})

	t.Run("racing writer maps to already posted and rolls back", func(t *testing.T) {
		m := newPosterMocks()
		account := posterAccount()

		m.uow.On("Begin", ctx).Return(nil)
		m.uow.On("Rollback").Return(nil)
		m.accruals.On("GetMonthly", ctx, account.ID, "2024-01").Return(nil, nil)
		m.txns.On("Create", ctx, mock.Anything).Return(nil)
		m.accounts.On("AddBalance", ctx, account.ID, dec("12.00")).Return(dec("1212.00"), nil)
		m.accruals.On("CreateMonthly", ctx, mock.Anything).Return(errors.Join(errors.New("unique"), ErrAlreadyPosted))

		poster := NewLedgerPoster(m.factory)
		_, err := poster.PostMonthlyInterest(ctx, MonthlyPosting{
			Account: account, Month: jan, PriorBalance: dec("1200.00"), Interest: dec("12.00"),
		})

		assert.ErrorIs(t, err, ErrAlreadyPosted)
		m.uow.AssertNotCalled(t, "Commit")
		m.bus.AssertNotCalled(t, "Publish", mock.Anything)
		m.assertExpectations(t)
	})

	t.Run("dry run writes nothing", func(t *testing.T) {
		m := newPosterMocks()
		account := posterAccount()

		poster := NewLedgerPoster(m.factory)
		result, err := poster.PostMonthlyInterest(ctx, MonthlyPosting{
			Account: account, Month: jan, PriorBalance: dec("1200.00"), Interest: dec("12.00"), DryRun: true,
		})

		require.NoError(t, err)
		assert.True(t, result.DryRun)
		assert.True(t, dec("1212.00").Equal(result.NewBalance))
		m.factory.AssertNotCalled(t, "Create")
	})

	t.Run("rejects non positive interest", func(t *testing.T) {
		m := newPosterMocks()
		poster := NewLedgerPoster(m.factory)

		_, err := poster.PostMonthlyInterest(ctx, MonthlyPosting{
			Account: posterAccount(), Month: jan, Interest: dec("0"),
		})
		assert.Error(t, err)
		m.factory.AssertNotCalled(t, "Create")
	})

	t.Run("ledger failure rolls back", func(t *testing.T) {
		m := newPosterMocks()
		account := posterAccount()

		m.uow.On("Begin", ctx).Return(nil)
		m.uow.On("Rollback").Return(nil)
		m.accruals.On("GetMonthly", ctx, account.ID, "2024-01").Return(nil, nil)
		m.txns.On("Create", ctx, mock.Anything).Return(errors.New("disk full"))

		poster := NewLedgerPoster(m.factory)
		_, err := poster.PostMonthlyInterest(ctx, MonthlyPosting{
			Account: account, Month: jan, PriorBalance: dec("1200.00"), Interest: dec("12.00"),
		})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
		m.accounts.AssertNotCalled(t, "AddBalance", mock.Anything, mock.Anything, mock.Anything)
		m.uow.AssertNotCalled(t, "Commit")
		m.assertExpectations(t)
	})
}

func TestLedgerPoster_AccrueDaily(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	t.Run("increments accrued interest and records the day", func(t *testing.T) {
		m := newPosterMocks()
		account := posterAccount()

		m.uow.On("Begin", ctx).Return(nil)
		m.uow.On("Commit").Return(nil)
		m.uow.On("Rollback").Return(nil)
		m.accruals.On("GetDaily", ctx, account.ID, date).Return(nil, nil)
		m.accounts.On("AddInterestAccrued", ctx, account.ID, dec("0.41")).Return(dec("1.23"), nil)
		m.accruals.On("CreateDaily", ctx, mock.MatchedBy(func(rec *models.DailyAccrualRecord) bool {
			return rec.AccrualDate.Equal(date) &&
				rec.DailyInterest.Equal(dec("0.41")) &&
				rec.CumulativeAccrued.Equal(dec("1.23"))
		})).Return(nil)
		m.bus.On("Publish", mock.MatchedBy(func(e events.InterestAccruedEvent) bool {
			return e.CumulativeAccrued.Equal(dec("1.23"))
		})).Return()

		poster := NewLedgerPoster(m.factory)
		result, err := poster.AccrueDaily(ctx, DailyAccrual{
			Account:    account,
			Date:       date.Add(13 * time.Hour),
			Balance:    dec("10000.00"),
			AnnualRate: dec("0.015"),
			Interest:   dec("0.41"),
		})

		require.NoError(t, err)
		assert.Equal(t, "2024-03-05", result.Period)
		assert.True(t, dec("1.23").Equal(result.NewBalance))
		m.txns.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		m.assertExpectations(t)
	})

	t.Run("already accrued for the date", func(t *testing.T) {
		m := newPosterMocks()
		account := posterAccount()

		m.uow.On("Begin", ctx).Return(nil)
		m.uow.On("Rollback").Return(nil)
		m.accruals.On("GetDaily", ctx, account.ID, date).Return(&models.DailyAccrualRecord{}, nil)

		poster := NewLedgerPoster(m.factory)
		_, err := poster.AccrueDaily(ctx, DailyAccrual{Account: account, Date: date, Interest: dec("0.41")})

		assert.ErrorIs(t, err, ErrAlreadyPosted)
		m.accounts.AssertNotCalled(t, "AddInterestAccrued", mock.Anything, mock.Anything, mock.Anything)
		m.assertExpectations(t)
	})

	t.Run("dry run projects cumulative", func(t *testing.T) {
		m := newPosterMocks()
		poster := NewLedgerPoster(m.factory)

		result, err := poster.AccrueDaily(ctx, DailyAccrual{
			Account: posterAccount(), Date: date, Interest: dec("0.41"), DryRun: true,
		})

		require.NoError(t, err)
		assert.True(t, dec("1.23").Equal(result.NewBalance))
		m.factory.AssertNotCalled(t, "Create")
	})
}

func TestLedgerPoster_ChargeFee(t *testing.T) {
	ctx := context.Background()
	jan := models.Month{Year: 2024, Month: time.January}
	chargeDate := jan.End()

	t.Run("debits fee with reference", func(t *testing.T) {
		m := newPosterMocks()
		account := posterAccount()

		m.uow.On("Begin", ctx).Return(nil)
		m.uow.On("Commit").Return(nil)
		m.uow.On("Rollback").Return(nil)
		m.fees.On("Get", ctx, account.ID, "2024-01").Return(nil, nil)
		m.accounts.On("GetByIDForUpdate", ctx, account.ID).Return(&models.Account{ID: account.ID, Balance: dec("100.00")}, nil)
		m.txns.On("Create", ctx, mock.MatchedBy(func(txn *models.Transaction) bool {
			return txn.Direction == models.DirectionDebit &&
				txn.Category == models.CategoryFee &&
				txn.Reference == "FEE-202401" &&
				txn.Description == "Monthly maintenance fee" &&
				txn.RunningBalance.Equal(dec("95.00"))
		})).Return(nil)
		m.accounts.On("AddBalance", ctx, account.ID, dec("-5.00")).Return(dec("95.00"), nil)
		m.fees.On("Create", ctx, mock.MatchedBy(func(rec *models.FeeChargeRecord) bool {
			return rec.FeeMonth == "2024-01" && rec.Amount.Equal(dec("5.00"))
		})).Return(nil)
		m.bus.On("Publish", mock.AnythingOfType("events.FeeChargedEvent")).Return()

		poster := NewLedgerPoster(m.factory)
		result, err := poster.ChargeFee(ctx, FeeCharge{Account: account, Month: jan, ChargeDate: chargeDate, Fee: dec("5.00")})

		require.NoError(t, err)
		assert.True(t, dec("100.00").Equal(result.BaseBalance))
		assert.True(t, dec("95.00").Equal(result.NewBalance))
		m.assertExpectations(t)
	})

	t.Run("insufficient balance writes nothing", func(t *testing.T) {
		m := newPosterMocks()
		account := posterAccount()

		m.uow.On("Begin", ctx).Return(nil)
		m.uow.On("Rollback").Return(nil)
		m.fees.On("Get", ctx, account.ID, "2024-01").Return(nil, nil)
		m.accounts.On("GetByIDForUpdate", ctx, account.ID).Return(&models.Account{ID: account.ID, Balance: dec("4.99")}, nil)

		poster := NewLedgerPoster(m.factory)
		_, err := poster.ChargeFee(ctx, FeeCharge{Account: account, Month: jan, ChargeDate: chargeDate, Fee: dec("5.00")})

		assert.ErrorIs(t, err, ErrInsufficientBalance)
		m.txns.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		m.uow.AssertNotCalled(t, "Commit")
		m.assertExpectations(t)
	})

	t.Run("account vanished", func(t *testing.T) {
		m := newPosterMocks()
		account := posterAccount()

		m.uow.On("Begin", ctx).Return(nil)
		m.uow.On("Rollback").Return(nil)
		m.fees.On("Get", ctx, account.ID, "2024-01").Return(nil, nil)
		m.accounts.On("GetByIDForUpdate", ctx, account.ID).Return(nil, nil)

		poster := NewLedgerPoster(m.factory)
		_, err := poster.ChargeFee(ctx, FeeCharge{Account: account, Month: jan, ChargeDate: chargeDate, Fee: dec("5.00")})

		assert.ErrorIs(t, err, ErrAccountNotFound)
	})

	t.Run("dry run checks snapshot balance", func(t *testing.T) {
		m := newPosterMocks()
		account := posterAccount()
		account.Balance = dec("3.00")

		poster := NewLedgerPoster(m.factory)
		_, err := poster.ChargeFee(ctx, FeeCharge{Account: account, Month: jan, ChargeDate: chargeDate, Fee: dec("5.00"), DryRun: true})
		assert.ErrorIs(t, err, ErrInsufficientBalance)

		account.Balance = dec("30.00")
		result, err := poster.ChargeFee(ctx, FeeCharge{Account: account, Month: jan, ChargeDate: chargeDate, Fee: dec("5.00"), DryRun: true})
		require.NoError(t, err)
		assert.True(t, dec("25.00").Equal(result.NewBalance))
		m.factory.AssertNotCalled(t, "Create")
	})
}
