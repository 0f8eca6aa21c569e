package repository

import (
	"context"
	"errors"
	"fmt"

	"accrual/database"
	"accrual/models"
	"accrual/service"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// FeeChargeRepository implements the FeeChargeRepository interface
type FeeChargeRepository struct {
	q queryable
}

// NewFeeChargeRepository creates a new fee charge repository
func NewFeeChargeRepository(db *database.DB) *FeeChargeRepository {
	return &FeeChargeRepository{q: db.Pool}
}

// newFeeChargeRepositoryWithTx creates a new fee charge repository with a transaction
func newFeeChargeRepositoryWithTx(tx queryable) *FeeChargeRepository {
	return &FeeChargeRepository{q: tx}
}

// Get returns the fee record for (account, month)
func (r *FeeChargeRepository) Get(ctx context.Context, accountID uuid.UUID, month string) (*models.FeeChargeRecord, error) {
	query := `
		SELECT fee_charge_id, account_id, fee_month, charge_date, amount, transaction_id, created_at
		FROM fee_charges
		WHERE account_id = $1 AND fee_month = $2
	`

	var rec models.FeeChargeRecord
	err := r.q.QueryRow(ctx, query, accountID, month).Scan(
		&rec.ID,
		&rec.AccountID,
		&rec.FeeMonth,
		&rec.ChargeDate,
		&rec.Amount,
		&rec.TransactionID,
		&rec.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fee charge for account %s month %s: %w", accountID, month, err)
	}

	return &rec, nil
}

// Create inserts a fee record
func (r *FeeChargeRepository) Create(ctx context.Context, record *models.FeeChargeRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	query := `
		INSERT INTO fee_charges
		(fee_charge_id, account_id, fee_month, charge_date, amount, transaction_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := r.q.QueryRow(ctx, query,
		record.ID,
		record.AccountID,
		record.FeeMonth,
		models.DateOnly(record.ChargeDate),
		record.Amount,
		record.TransactionID,
	).Scan(&record.CreatedAt)

	if isUniqueViolation(err) {
		return fmt.Errorf("fee charge for account %s month %s: %w", record.AccountID, record.FeeMonth, service.ErrAlreadyPosted)
	}
	if err != nil {
		return fmt.Errorf("failed to create fee charge for account %s month %s: %w", record.AccountID, record.FeeMonth, err)
	}

	return nil
}
