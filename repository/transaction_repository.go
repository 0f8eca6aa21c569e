package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"accrual/database"
	"accrual/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const transactionColumns = `
	transaction_id, account_id, direction, category, amount, currency,
	running_balance, value_date, transaction_date, status, description,
	reference, channel, seq, created_at`

// TransactionRepository implements the TransactionRepository interface
type TransactionRepository struct {
	q queryable
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *database.DB) *TransactionRepository {
	return &TransactionRepository{q: db.Pool}
}

// newTransactionRepositoryWithTx creates a new transaction repository with a transaction
func newTransactionRepositoryWithTx(tx queryable) *TransactionRepository {
	return &TransactionRepository{q: tx}
}

// Create appends a ledger entry
func (r *TransactionRepository) Create(ctx context.Context, txn *models.Transaction) error {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	if txn.Status == "" {
		txn.Status = models.TransactionStatusPosted
	}
	if txn.TransactionDate.IsZero() {
		txn.TransactionDate = time.Now().UTC()
	}

	query := `
		INSERT INTO transactions
		(transaction_id, account_id, direction, category, amount, currency,
		 running_balance, value_date, transaction_date, status, description, reference, channel)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING seq, created_at
	`

	err := r.q.QueryRow(ctx, query,
		txn.ID,
		txn.AccountID,
		txn.Direction,
		txn.Category,
		txn.Amount,
		txn.Currency,
		txn.RunningBalance,
		models.DateOnly(txn.ValueDate),
		txn.TransactionDate,
		txn.Status,
		txn.Description,
		txn.Reference,
		txn.Channel,
	).Scan(&txn.Seq, &txn.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create transaction for account %s: %w", txn.AccountID, err)
	}

	return nil
}

// LatestAsOf returns the latest entry dated on or before cutoff
func (r *TransactionRepository) LatestAsOf(ctx context.Context, accountID uuid.UUID, cutoff time.Time) (*models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE account_id = $1 AND value_date <= $2
		ORDER BY value_date DESC, seq DESC
		LIMIT 1
	`

	txn, err := scanTransaction(r.q.QueryRow(ctx, query, accountID, models.DateOnly(cutoff)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest transaction for account %s as of %s: %w",
			accountID, cutoff.Format("2006-01-02"), err)
	}

	return txn, nil
}

// ListByAccount returns the ledger of an account in value date then insertion order
func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE account_id = $1
		ORDER BY value_date, seq
	`

	rows, err := r.q.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions for account %s: %w", accountID, err)
	}
	defer rows.Close()

	var txns []*models.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return txns, nil
}

// CountByAccount returns the number of ledger entries of an account
func (r *TransactionRepository) CountByAccount(ctx context.Context, accountID uuid.UUID) (int, error) {
	var count int
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE account_id = $1`, accountID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions for account %s: %w", accountID, err)
	}
	return count, nil
}

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(
		&t.ID,
		&t.AccountID,
		&t.Direction,
		&t.Category,
		&t.Amount,
		&t.Currency,
		&t.RunningBalance,
		&t.ValueDate,
		&t.TransactionDate,
		&t.Status,
		&t.Description,
		&t.Reference,
		&t.Channel,
		&t.Seq,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
