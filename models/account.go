package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountStatus is the lifecycle state of an account
type AccountStatus string

const (
	AccountStatusActive AccountStatus = "Active"
	AccountStatusClosed AccountStatus = "Closed"
)

// Account is a deposit account. Balance is the spendable balance and
// InterestAccrued the accrued-but-unpaid interest counter.
type Account struct {
	ID              uuid.UUID       `db:"account_id"`
	AccountNumber   string          `db:"account_number"`
	ProductID       uuid.UUID       `db:"product_id"`
	Currency        string          `db:"currency"`
	Status          AccountStatus   `db:"status"`
	Balance         decimal.Decimal `db:"balance"`
	InterestAccrued decimal.Decimal `db:"interest_accrued"`
	OpeningDate     time.Time       `db:"opening_date"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

// IsActive reports whether the account is open for processing
func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}

// Product holds the pricing terms an account inherits
type Product struct {
	ID                        uuid.UUID       `db:"product_id"`
	Name                      string          `db:"product_name"`
	InterestRate              decimal.Decimal `db:"interest_rate"`
	MinimumBalanceForInterest decimal.Decimal `db:"minimum_balance_for_interest"`
	MonthlyMaintenanceFee     decimal.Decimal `db:"monthly_maintenance_fee"`
	Currency                  string          `db:"currency"`
}

// AccountWithProduct is an account joined with its product terms
type AccountWithProduct struct {
	Account
	Product Product
}
