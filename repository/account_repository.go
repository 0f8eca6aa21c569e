package repository

import (
	"context"
	"errors"
	"fmt"

	"accrual/database"
	"accrual/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const accountColumns = `
	a.account_id, a.account_number, a.product_id, a.currency, a.status,
	a.balance, a.interest_accrued, a.opening_date, a.created_at, a.updated_at`

// AccountRepository implements the AccountRepository interface
type AccountRepository struct {
	q queryable
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{q: db.Pool}
}

// newAccountRepositoryWithTx creates a new account repository with a transaction
func newAccountRepositoryWithTx(tx queryable) *AccountRepository {
	return &AccountRepository{q: tx}
}

// ListWithProducts returns every account joined with its product
func (r *AccountRepository) ListWithProducts(ctx context.Context) ([]*models.AccountWithProduct, error) {
	query := `
		SELECT ` + accountColumns + `,
			p.product_id, p.product_name, p.interest_rate,
			p.minimum_balance_for_interest, p.monthly_maintenance_fee, p.currency
		FROM accounts a
		JOIN products p ON p.product_id = a.product_id
		ORDER BY a.account_number
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts with products: %w", err)
	}
	defer rows.Close()

	var accounts []*models.AccountWithProduct
	for rows.Next() {
		var a models.AccountWithProduct
		err := rows.Scan(
			&a.ID,
			&a.AccountNumber,
			&a.ProductID,
			&a.Currency,
			&a.Status,
			&a.Balance,
			&a.InterestAccrued,
			&a.OpeningDate,
			&a.CreatedAt,
			&a.UpdatedAt,
			&a.Product.ID,
			&a.Product.Name,
			&a.Product.InterestRate,
			&a.Product.MinimumBalanceForInterest,
			&a.Product.MonthlyMaintenanceFee,
			&a.Product.Currency,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account with product: %w", err)
		}
		accounts = append(accounts, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}

	return accounts, nil
}

// ListActive returns all accounts with status Active
func (r *AccountRepository) ListActive(ctx context.Context) ([]*models.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts a
		WHERE a.status = $1
		ORDER BY a.account_number
	`

	rows, err := r.q.Query(ctx, query, models.AccountStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to query active accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating active accounts: %w", err)
	}

	return accounts, nil
}

// GetByID retrieves an account by ID
func (r *AccountRepository) GetByID(ctx context.Context, accountID uuid.UUID) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts a WHERE a.account_id = $1`
	return r.getOne(ctx, query, accountID)
}

// GetByIDForUpdate retrieves an account and locks the row for the rest of the transaction
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, accountID uuid.UUID) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts a WHERE a.account_id = $1 FOR UPDATE`
	return r.getOne(ctx, query, accountID)
}

// GetByNumber retrieves an account by its display number
func (r *AccountRepository) GetByNumber(ctx context.Context, accountNumber string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts a WHERE a.account_number = $1`
	return r.getOne(ctx, query, accountNumber)
}

func (r *AccountRepository) getOne(ctx context.Context, query string, arg any) (*models.Account, error) {
	account, err := scanAccount(r.q.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

// AddBalance adds delta to an account's balance atomically
func (r *AccountRepository) AddBalance(ctx context.Context, accountID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	query := `
		UPDATE accounts
		SET balance = balance + $1, updated_at = NOW()
		WHERE account_id = $2
		RETURNING balance
	`

	var balance decimal.Decimal
	err := r.q.QueryRow(ctx, query, delta, accountID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("account %s not found", accountID)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to update balance for account %s: %w", accountID, err)
	}

	return balance, nil
}

// AddInterestAccrued adds delta to an account's accrued interest atomically
func (r *AccountRepository) AddInterestAccrued(ctx context.Context, accountID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	query := `
		UPDATE accounts
		SET interest_accrued = interest_accrued + $1, updated_at = NOW()
		WHERE account_id = $2
		RETURNING interest_accrued
	`

	var accrued decimal.Decimal
	err := r.q.QueryRow(ctx, query, delta, accountID).Scan(&accrued)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("account %s not found", accountID)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to update accrued interest for account %s: %w", accountID, err)
	}

	return accrued, nil
}

func scanAccount(row pgx.Row) (*models.Account, error) {
	var a models.Account
	err := row.Scan(
		&a.ID,
		&a.AccountNumber,
		&a.ProductID,
		&a.Currency,
		&a.Status,
		&a.Balance,
		&a.InterestAccrued,
		&a.OpeningDate,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}
	return &a, nil
}
