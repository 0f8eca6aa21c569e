package service

import (
	"context"
	"time"

	"accrual/events"
	"accrual/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) ListWithProducts(ctx context.Context) ([]*models.AccountWithProduct, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AccountWithProduct), args.Error(1)
}

func (m *MockAccountRepository) ListActive(ctx context.Context) ([]*models.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Account), args.Error(1)
}

func (m *MockAccountRepository) GetByID(ctx context.Context, accountID uuid.UUID) (*models.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) GetByIDForUpdate(ctx context.Context, accountID uuid.UUID) (*models.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) GetByNumber(ctx context.Context, accountNumber string) (*models.Account, error) {
	args := m.Called(ctx, accountNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) AddBalance(ctx context.Context, accountID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, accountID, delta)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockAccountRepository) AddInterestAccrued(ctx context.Context, accountID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, accountID, delta)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockTransactionRepository is a mock implementation of TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, txn *models.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockTransactionRepository) LatestAsOf(ctx context.Context, accountID uuid.UUID, cutoff time.Time) (*models.Transaction, error) {
	args := m.Called(ctx, accountID, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*models.Transaction, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) CountByAccount(ctx context.Context, accountID uuid.UUID) (int, error) {
	args := m.Called(ctx, accountID)
	return args.Int(0), args.Error(1)
}

// MockAccrualRepository is a mock implementation of AccrualRepository
type MockAccrualRepository struct {
	mock.Mock
}

func (m *MockAccrualRepository) PostedMonths(ctx context.Context, accountID uuid.UUID) (map[string]bool, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]bool), args.Error(1)
}

func (m *MockAccrualRepository) GetMonthly(ctx context.Context, accountID uuid.UUID, month string) (*models.MonthlyAccrualRecord, error) {
	args := m.Called(ctx, accountID, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MonthlyAccrualRecord), args.Error(1)
}

func (m *MockAccrualRepository) CreateMonthly(ctx context.Context, record *models.MonthlyAccrualRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockAccrualRepository) GetDaily(ctx context.Context, accountID uuid.UUID, date time.Time) (*models.DailyAccrualRecord, error) {
	args := m.Called(ctx, accountID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DailyAccrualRecord), args.Error(1)
}

func (m *MockAccrualRepository) CreateDaily(ctx context.Context, record *models.DailyAccrualRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockAccrualRepository) ListMonthlyHistory(ctx context.Context, accountNumber string, limit int) ([]*models.MonthlyAccrualHistory, error) {
	args := m.Called(ctx, accountNumber, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.MonthlyAccrualHistory), args.Error(1)
}

// MockFeeChargeRepository is a mock implementation of FeeChargeRepository
type MockFeeChargeRepository struct {
	mock.Mock
}

func (m *MockFeeChargeRepository) Get(ctx context.Context, accountID uuid.UUID, month string) (*models.FeeChargeRecord, error) {
	args := m.Called(ctx, accountID, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FeeChargeRecord), args.Error(1)
}

func (m *MockFeeChargeRepository) Create(ctx context.Context, record *models.FeeChargeRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// MockBatchRunRepository is a mock implementation of BatchRunRepository
type MockBatchRunRepository struct {
	mock.Mock
}

func (m *MockBatchRunRepository) Create(ctx context.Context, run *models.BatchRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockBatchRunRepository) GetLatest(ctx context.Context, kind models.BatchKind) (*models.BatchRun, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BatchRun), args.Error(1)
}

func (m *MockBatchRunRepository) List(ctx context.Context, limit int) ([]*models.BatchRun, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BatchRun), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repository getters
// return whatever SetRepositories installed.
type MockUnitOfWork struct {
	mock.Mock
	accountRepo     AccountRepository
	transactionRepo TransactionRepository
	accrualRepo     AccrualRepository
	feeChargeRepo   FeeChargeRepository
	batchRunRepo    BatchRunRepository
	eventBus        EventPublisher
}

// SetRepositories installs the repositories the unit of work hands out
func (m *MockUnitOfWork) SetRepositories(accounts AccountRepository, txns TransactionRepository, accruals AccrualRepository, fees FeeChargeRepository, runs BatchRunRepository, bus EventPublisher) {
	m.accountRepo = accounts
	m.transactionRepo = txns
	m.accrualRepo = accruals
	m.feeChargeRepo = fees
	m.batchRunRepo = runs
	m.eventBus = bus
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) AccountRepository() AccountRepository {
	return m.accountRepo
}

func (m *MockUnitOfWork) TransactionRepository() TransactionRepository {
	return m.transactionRepo
}

func (m *MockUnitOfWork) AccrualRepository() AccrualRepository {
	return m.accrualRepo
}

func (m *MockUnitOfWork) FeeChargeRepository() FeeChargeRepository {
	return m.feeChargeRepo
}

func (m *MockUnitOfWork) BatchRunRepository() BatchRunRepository {
	return m.batchRunRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.eventBus
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}

// MockLedgerPoster is a mock implementation of LedgerPoster
type MockLedgerPoster struct {
	mock.Mock
}

func (m *MockLedgerPoster) PostMonthlyInterest(ctx context.Context, posting MonthlyPosting) (*PostingResult, error) {
	args := m.Called(ctx, posting)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PostingResult), args.Error(1)
}

func (m *MockLedgerPoster) AccrueDaily(ctx context.Context, accrual DailyAccrual) (*PostingResult, error) {
	args := m.Called(ctx, accrual)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PostingResult), args.Error(1)
}

func (m *MockLedgerPoster) ChargeFee(ctx context.Context, charge FeeCharge) (*PostingResult, error) {
	args := m.Called(ctx, charge)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PostingResult), args.Error(1)
}
