package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"accrual/database"
	"accrual/models"
	"accrual/service"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AccrualRepository implements the AccrualRepository interface
type AccrualRepository struct {
	q queryable
}

// NewAccrualRepository creates a new accrual repository
func NewAccrualRepository(db *database.DB) *AccrualRepository {
	return &AccrualRepository{q: db.Pool}
}

// newAccrualRepositoryWithTx creates a new accrual repository with a transaction
func newAccrualRepositoryWithTx(tx queryable) *AccrualRepository {
	return &AccrualRepository{q: tx}
}

// PostedMonths returns the month keys already posted for an account
func (r *AccrualRepository) PostedMonths(ctx context.Context, accountID uuid.UUID) (map[string]bool, error) {
	query := `
		SELECT accrual_month
		FROM monthly_interest_accruals
		WHERE account_id = $1 AND processing_status = $2
	`

	rows, err := r.q.Query(ctx, query, accountID, models.ProcessingStatusPosted)
	if err != nil {
		return nil, fmt.Errorf("failed to query posted months for account %s: %w", accountID, err)
	}
	defer rows.Close()

	posted := make(map[string]bool)
	for rows.Next() {
		var month string
		if err := rows.Scan(&month); err != nil {
			return nil, fmt.Errorf("failed to scan posted month: %w", err)
		}
		posted[month] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posted months: %w", err)
	}

	return posted, nil
}

// GetMonthly returns the monthly record for (account, month)
func (r *AccrualRepository) GetMonthly(ctx context.Context, accountID uuid.UUID, month string) (*models.MonthlyAccrualRecord, error) {
	query := `
		SELECT accrual_id, account_id, accrual_month, posting_date, month_end_balance,
		       annual_interest_rate, monthly_interest, transaction_id, processing_status, processed_at
		FROM monthly_interest_accruals
		WHERE account_id = $1 AND accrual_month = $2
	`

	var rec models.MonthlyAccrualRecord
	err := r.q.QueryRow(ctx, query, accountID, month).Scan(
		&rec.ID,
		&rec.AccountID,
		&rec.AccrualMonth,
		&rec.PostingDate,
		&rec.MonthEndBalance,
		&rec.AnnualRate,
		&rec.MonthlyInterest,
		&rec.TransactionID,
		&rec.ProcessingStatus,
		&rec.ProcessedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get monthly accrual for account %s month %s: %w", accountID, month, err)
	}

	return &rec, nil
}

// CreateMonthly inserts a Posted monthly record
func (r *AccrualRepository) CreateMonthly(ctx context.Context, record *models.MonthlyAccrualRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.ProcessingStatus == "" {
		record.ProcessingStatus = models.ProcessingStatusPosted
	}

	query := `
		INSERT INTO monthly_interest_accruals
		(accrual_id, account_id, accrual_month, posting_date, month_end_balance,
		 annual_interest_rate, monthly_interest, transaction_id, processing_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING processed_at
	`

	err := r.q.QueryRow(ctx, query,
		record.ID,
		record.AccountID,
		record.AccrualMonth,
		models.DateOnly(record.PostingDate),
		record.MonthEndBalance,
		record.AnnualRate,
		record.MonthlyInterest,
		record.TransactionID,
		record.ProcessingStatus,
	).Scan(&record.ProcessedAt)

	if isUniqueViolation(err) {
		return fmt.Errorf("monthly accrual for account %s month %s: %w", record.AccountID, record.AccrualMonth, service.ErrAlreadyPosted)
	}
	if err != nil {
		return fmt.Errorf("failed to create monthly accrual for account %s month %s: %w", record.AccountID, record.AccrualMonth, err)
	}

	return nil
}

// GetDaily returns the daily record for (account, date)
func (r *AccrualRepository) GetDaily(ctx context.Context, accountID uuid.UUID, date time.Time) (*models.DailyAccrualRecord, error) {
	query := `
		SELECT accrual_id, account_id, accrual_date, balance, annual_rate,
		       daily_interest, cumulative_accrued, created_at
		FROM interest_accruals
		WHERE account_id = $1 AND accrual_date = $2
	`

	var rec models.DailyAccrualRecord
	err := r.q.QueryRow(ctx, query, accountID, models.DateOnly(date)).Scan(
		&rec.ID,
		&rec.AccountID,
		&rec.AccrualDate,
		&rec.Balance,
		&rec.AnnualRate,
		&rec.DailyInterest,
		&rec.CumulativeAccrued,
		&rec.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get daily accrual for account %s on %s: %w", accountID, date.Format("2006-01-02"), err)
	}

	return &rec, nil
}

// CreateDaily inserts a daily accrual record
func (r *AccrualRepository) CreateDaily(ctx context.Context, record *models.DailyAccrualRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	query := `
		INSERT INTO interest_accruals
		(accrual_id, account_id, accrual_date, balance, annual_rate, daily_interest, cumulative_accrued)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	err := r.q.QueryRow(ctx, query,
		record.ID,
		record.AccountID,
		models.DateOnly(record.AccrualDate),
		record.Balance,
		record.AnnualRate,
		record.DailyInterest,
		record.CumulativeAccrued,
	).Scan(&record.CreatedAt)

	date := record.AccrualDate.Format("2006-01-02")
	if isUniqueViolation(err) {
		return fmt.Errorf("daily accrual for account %s on %s: %w", record.AccountID, date, service.ErrAlreadyPosted)
	}
	if err != nil {
		return fmt.Errorf("failed to create daily accrual for account %s on %s: %w", record.AccountID, date, err)
	}

	return nil
}

// ListMonthlyHistory returns posted monthly accruals, newest month first
func (r *AccrualRepository) ListMonthlyHistory(ctx context.Context, accountNumber string, limit int) ([]*models.MonthlyAccrualHistory, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT m.accrual_id, m.account_id, m.accrual_month, m.posting_date, m.month_end_balance,
		       m.annual_interest_rate, m.monthly_interest, m.transaction_id, m.processing_status,
		       m.processed_at, a.account_number
		FROM monthly_interest_accruals m
		JOIN accounts a ON a.account_id = m.account_id
		WHERE ($1::text = '' OR a.account_number = $1::text)
		ORDER BY m.accrual_month DESC, a.account_number
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, accountNumber, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query accrual history: %w", err)
	}
	defer rows.Close()

	var history []*models.MonthlyAccrualHistory
	for rows.Next() {
		var h models.MonthlyAccrualHistory
		err := rows.Scan(
			&h.ID,
			&h.AccountID,
			&h.AccrualMonth,
			&h.PostingDate,
			&h.MonthEndBalance,
			&h.AnnualRate,
			&h.MonthlyInterest,
			&h.TransactionID,
			&h.ProcessingStatus,
			&h.ProcessedAt,
			&h.AccountNumber,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan accrual history: %w", err)
		}
		history = append(history, &h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accrual history: %w", err)
	}

	return history, nil
}
