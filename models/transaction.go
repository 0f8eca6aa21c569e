package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Direction is the side of the ledger a transaction lands on
type Direction string

const (
	DirectionCredit Direction = "Credit"
	DirectionDebit  Direction = "Debit"
)

// Category classifies why a transaction was created
type Category string

const (
	CategoryDeposit    Category = "Deposit"
	CategoryWithdrawal Category = "Withdrawal"
	CategoryFee        Category = "Fee"
	CategoryInterest   Category = "Interest"
	CategoryOpening    Category = "Opening"
)

// Channel is the entry point a transaction was created through
type Channel string

const (
	ChannelAPI   Channel = "API"
	ChannelUI    Channel = "UI"
	ChannelBatch Channel = "Batch"
)

// TransactionStatusPosted is the only status this engine writes
const TransactionStatusPosted = "Posted"

// Transaction is an immutable ledger entry. RunningBalance is the account
// balance right after this entry was applied. Seq is assigned by the store and
// orders entries that share a value date.
type Transaction struct {
	ID              uuid.UUID       `db:"transaction_id"`
	AccountID       uuid.UUID       `db:"account_id"`
	Direction       Direction       `db:"direction"`
	Category        Category        `db:"category"`
	Amount          decimal.Decimal `db:"amount"`
	Currency        string          `db:"currency"`
	RunningBalance  decimal.Decimal `db:"running_balance"`
	ValueDate       time.Time       `db:"value_date"`
	TransactionDate time.Time       `db:"transaction_date"`
	Status          string          `db:"status"`
	Description     string          `db:"description"`
	Reference       string          `db:"reference"`
	Channel         Channel         `db:"channel"`
	Seq             int64           `db:"seq"`
	CreatedAt       time.Time       `db:"created_at"`
}

// Signed returns the amount with the sign its direction applies to the balance
func (t *Transaction) Signed() decimal.Decimal {
	if t.Direction == DirectionDebit {
		return t.Amount.Neg()
	}
	return t.Amount
}
