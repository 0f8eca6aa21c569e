package service

import (
	"context"
	"time"

	"accrual/events"
	"accrual/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountRepository defines the interface for account data access
type AccountRepository interface {
	// ListWithProducts returns every account joined with its product, ordered by account number
	ListWithProducts(ctx context.Context) ([]*models.AccountWithProduct, error)

	// ListActive returns all accounts with status Active
	ListActive(ctx context.Context) ([]*models.Account, error)

	// GetByID retrieves an account, returning nil when it does not exist
	GetByID(ctx context.Context, accountID uuid.UUID) (*models.Account, error)

	// GetByIDForUpdate retrieves an account and locks its row until the transaction ends
	GetByIDForUpdate(ctx context.Context, accountID uuid.UUID) (*models.Account, error)

	// GetByNumber retrieves an account by its display number
	GetByNumber(ctx context.Context, accountNumber string) (*models.Account, error)

	// AddBalance adds delta to the live balance and returns the new balance
	AddBalance(ctx context.Context, accountID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error)

	// AddInterestAccrued adds delta to the accrued interest counter and returns the new total
	AddInterestAccrued(ctx context.Context, accountID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error)
}

// TransactionRepository defines the interface for the append-only ledger
type TransactionRepository interface {
	// Create appends a transaction. ID is generated when zero; Seq and CreatedAt are filled in.
	Create(ctx context.Context, txn *models.Transaction) error

	// LatestAsOf returns the latest transaction with value date <= cutoff, ties broken by
	// insertion order. Returns nil when the account has no such transaction.
	LatestAsOf(ctx context.Context, accountID uuid.UUID, cutoff time.Time) (*models.Transaction, error)

	// ListByAccount returns the full ledger of an account ordered by value date then insertion
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*models.Transaction, error)

	// CountByAccount returns the number of ledger entries of an account
	CountByAccount(ctx context.Context, accountID uuid.UUID) (int, error)
}

// AccrualRepository defines the interface for daily and monthly accrual records
type AccrualRepository interface {
	// PostedMonths returns the set of month keys with a Posted record for the account
	PostedMonths(ctx context.Context, accountID uuid.UUID) (map[string]bool, error)

	// GetMonthly returns the record for (account, month) or nil
	GetMonthly(ctx context.Context, accountID uuid.UUID, month string) (*models.MonthlyAccrualRecord, error)

	// CreateMonthly inserts a Posted record. Returns ErrAlreadyPosted on a duplicate month.
	CreateMonthly(ctx context.Context, record *models.MonthlyAccrualRecord) error

	// GetDaily returns the record for (account, date) or nil
	GetDaily(ctx context.Context, accountID uuid.UUID, date time.Time) (*models.DailyAccrualRecord, error)

	// CreateDaily inserts a daily record. Returns ErrAlreadyPosted on a duplicate date.
	CreateDaily(ctx context.Context, record *models.DailyAccrualRecord) error

	// ListMonthlyHistory returns posted monthly accruals newest first.
	// An empty account number lists every account.
	ListMonthlyHistory(ctx context.Context, accountNumber string, limit int) ([]*models.MonthlyAccrualHistory, error)
}

// FeeChargeRepository defines the interface for maintenance fee records
type FeeChargeRepository interface {
	// Get returns the fee record for (account, month) or nil
	Get(ctx context.Context, accountID uuid.UUID, month string) (*models.FeeChargeRecord, error)

	// Create inserts a fee record. Returns ErrAlreadyPosted on a duplicate month.
	Create(ctx context.Context, record *models.FeeChargeRecord) error
}

// BatchRunRepository defines the interface for batch run audit records
type BatchRunRepository interface {
	// Create stores a run record
	Create(ctx context.Context, run *models.BatchRun) error

	// GetLatest returns the most recent run of a kind, or nil
	GetLatest(ctx context.Context, kind models.BatchKind) (*models.BatchRun, error)

	// List returns the most recent runs of every kind
	List(ctx context.Context, limit int) ([]*models.BatchRun, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	AccountRepository() AccountRepository
	TransactionRepository() TransactionRepository
	AccrualRepository() AccrualRepository
	FeeChargeRepository() FeeChargeRepository
	BatchRunRepository() BatchRunRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// LedgerPoster applies one (account, period) result as a single atomic unit
type LedgerPoster interface {
	// PostMonthlyInterest credits monthly interest, updates the balance and records the accrual
	PostMonthlyInterest(ctx context.Context, posting MonthlyPosting) (*PostingResult, error)

	// AccrueDaily increments the accrued interest counter and records the daily accrual
	AccrueDaily(ctx context.Context, accrual DailyAccrual) (*PostingResult, error)

	// ChargeFee debits a maintenance fee when the balance covers it
	ChargeFee(ctx context.Context, charge FeeCharge) (*PostingResult, error)
}

// MonthlyAccrualService posts 30/360 interest for every outstanding month
type MonthlyAccrualService interface {
	Run(ctx context.Context, opts MonthlyOptions) (*RunSummary, error)
}

// DailyAccrualService accrues Actual/365 interest for one date
type DailyAccrualService interface {
	Run(ctx context.Context, opts DailyOptions) (*RunSummary, error)
}

// FeeService charges monthly maintenance fees
type FeeService interface {
	Run(ctx context.Context, opts FeeOptions) (*RunSummary, error)
}

// IntegrityService reconciles stored balances against the ledger
type IntegrityService interface {
	Verify(ctx context.Context, opts VerifyOptions) (*IntegrityReport, error)
}

// EndOfDayService runs daily accrual, month-end fees and verification in order
type EndOfDayService interface {
	Run(ctx context.Context, opts EndOfDayOptions) (*EndOfDayResult, error)
}

// ReportService exposes read-only views over posted accruals and past runs
type ReportService interface {
	// AccrualHistory lists posted monthly accruals, optionally for one account number
	AccrualHistory(ctx context.Context, accountNumber string, limit int) ([]*models.MonthlyAccrualHistory, error)

	// RecentRuns lists the latest batch runs
	RecentRuns(ctx context.Context, limit int) ([]*models.BatchRun, error)
}
