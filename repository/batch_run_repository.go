package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"accrual/database"
	"accrual/models"

	"github.com/jackc/pgx/v5"
)

const batchRunColumns = `
	id, kind, period, accounts_processed, periods_posted, total_amount,
	failures, mismatches, execution_summary, created_at`

// BatchRunRepository implements the BatchRunRepository interface
type BatchRunRepository struct {
	q queryable
}

// NewBatchRunRepository creates a new batch run repository
func NewBatchRunRepository(db *database.DB) *BatchRunRepository {
	return &BatchRunRepository{q: db.Pool}
}

// newBatchRunRepositoryWithTx creates a new batch run repository with a transaction
func newBatchRunRepositoryWithTx(tx queryable) *BatchRunRepository {
	return &BatchRunRepository{q: tx}
}

// Create creates a new batch run record
func (r *BatchRunRepository) Create(ctx context.Context, run *models.BatchRun) error {
	summaryJSON, err := json.Marshal(run.ExecutionSummary)
	if err != nil {
		return fmt.Errorf("failed to marshal execution summary: %w", err)
	}

	query := `
		INSERT INTO batch_runs
		(kind, period, accounts_processed, periods_posted, total_amount, failures, mismatches, execution_summary)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err = r.q.QueryRow(ctx, query,
		run.Kind,
		run.Period,
		run.AccountsProcessed,
		run.PeriodsPosted,
		run.TotalAmount,
		run.Failures,
		run.Mismatches,
		summaryJSON,
	).Scan(&run.ID, &run.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create %s run for period %s: %w", run.Kind, run.Period, err)
	}

	return nil
}

// GetLatest returns the most recent run of a kind
func (r *BatchRunRepository) GetLatest(ctx context.Context, kind models.BatchKind) (*models.BatchRun, error) {
	query := `
		SELECT ` + batchRunColumns + `
		FROM batch_runs
		WHERE kind = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	run, err := scanBatchRun(r.q.QueryRow(ctx, query, kind))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest %s run: %w", kind, err)
	}

	return run, nil
}

// List returns the most recent runs
func (r *BatchRunRepository) List(ctx context.Context, limit int) ([]*models.BatchRun, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT ` + batchRunColumns + `
		FROM batch_runs
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query batch runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.BatchRun
	for rows.Next() {
		run, err := scanBatchRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan batch run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating batch runs: %w", err)
	}

	return runs, nil
}

func scanBatchRun(row pgx.Row) (*models.BatchRun, error) {
	var run models.BatchRun
	var summaryJSON []byte

	err := row.Scan(
		&run.ID,
		&run.Kind,
		&run.Period,
		&run.AccountsProcessed,
		&run.PeriodsPosted,
		&run.TotalAmount,
		&run.Failures,
		&run.Mismatches,
		&summaryJSON,
		&run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(summaryJSON) > 0 {
		if err := json.Unmarshal(summaryJSON, &run.ExecutionSummary); err != nil {
			return nil, fmt.Errorf("failed to unmarshal execution summary: %w", err)
		}
	}

	return &run, nil
}
