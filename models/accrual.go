package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProcessingStatusPosted marks a monthly accrual whose interest has been paid
const ProcessingStatusPosted = "Posted"

// DailyAccrualRecord is the audit row written alongside an interest_accrued increment
type DailyAccrualRecord struct {
	ID                uuid.UUID       `db:"accrual_id"`
	AccountID         uuid.UUID       `db:"account_id"`
	AccrualDate       time.Time       `db:"accrual_date"`
	Balance           decimal.Decimal `db:"balance"`
	AnnualRate        decimal.Decimal `db:"annual_rate"`
	DailyInterest     decimal.Decimal `db:"daily_interest"`
	CumulativeAccrued decimal.Decimal `db:"cumulative_accrued"`
	CreatedAt         time.Time       `db:"created_at"`
}

// MonthlyAccrualRecord exists once per (account, month) and only when posted
type MonthlyAccrualRecord struct {
	ID               uuid.UUID       `db:"accrual_id"`
	AccountID        uuid.UUID       `db:"account_id"`
	AccrualMonth     string          `db:"accrual_month"`
	PostingDate      time.Time       `db:"posting_date"`
	MonthEndBalance  decimal.Decimal `db:"month_end_balance"`
	AnnualRate       decimal.Decimal `db:"annual_interest_rate"`
	MonthlyInterest  decimal.Decimal `db:"monthly_interest"`
	TransactionID    uuid.UUID       `db:"transaction_id"`
	ProcessingStatus string          `db:"processing_status"`
	ProcessedAt      time.Time       `db:"processed_at"`
}

// MonthlyAccrualHistory is a posted accrual joined with its account number
type MonthlyAccrualHistory struct {
	MonthlyAccrualRecord
	AccountNumber string `db:"account_number"`
}

// FeeChargeRecord exists once per (account, fee month) after a fee debit
type FeeChargeRecord struct {
	ID            uuid.UUID       `db:"fee_charge_id"`
	AccountID     uuid.UUID       `db:"account_id"`
	FeeMonth      string          `db:"fee_month"`
	ChargeDate    time.Time       `db:"charge_date"`
	Amount        decimal.Decimal `db:"amount"`
	TransactionID uuid.UUID       `db:"transaction_id"`
	CreatedAt     time.Time       `db:"created_at"`
}
