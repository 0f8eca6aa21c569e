package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BatchKind identifies which batch produced a run record
type BatchKind string

const (
	BatchKindMonthlyInterest BatchKind = "monthly_interest"
	BatchKindDailyAccrual    BatchKind = "daily_accrual"
	BatchKindMaintenanceFee  BatchKind = "maintenance_fee"
	BatchKindVerify          BatchKind = "verify"
)

// BatchRun is the audit row written once per non-dry batch invocation
type BatchRun struct {
	ID                int64                  `db:"id"`
	Kind              BatchKind              `db:"kind"`
	Period            string                 `db:"period"`
	AccountsProcessed int                    `db:"accounts_processed"`
	PeriodsPosted     int                    `db:"periods_posted"`
	TotalAmount       decimal.Decimal        `db:"total_amount"`
	Failures          int                    `db:"failures"`
	Mismatches        int                    `db:"mismatches"`
	ExecutionSummary  map[string]interface{} `db:"execution_summary"`
	CreatedAt         time.Time              `db:"created_at"`
}
