package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"accrual/database"
	"accrual/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// Dec parses a decimal literal, panicking on bad input
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Date returns midnight UTC of the given day
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// CreateTestProduct creates a product with 12% interest, no minimum and no fee
func CreateTestProduct() *models.Product {
	return &models.Product{
		ID:                        uuid.New(),
		Name:                      "Test Savings",
		InterestRate:              Dec("0.12"),
		MinimumBalanceForInterest: decimal.Zero,
		MonthlyMaintenanceFee:     decimal.Zero,
		Currency:                  "USD",
	}
}

// CreateTestAccount creates an active, unfunded account for a product
func CreateTestAccount(product *models.Product, accountNumber string, openingDate time.Time) *models.Account {
	return &models.Account{
		ID:              uuid.New(),
		AccountNumber:   accountNumber,
		ProductID:       product.ID,
		Currency:        product.Currency,
		Status:          models.AccountStatusActive,
		Balance:         decimal.Zero,
		InterestAccrued: decimal.Zero,
		OpeningDate:     openingDate,
	}
}

// CreateTestBatchRun creates a monthly interest run record
func CreateTestBatchRun(period string) *models.BatchRun {
	return &models.BatchRun{
		Kind:              models.BatchKindMonthlyInterest,
		Period:            period,
		AccountsProcessed: 10,
		PeriodsPosted:     12,
		TotalAmount:       Dec("145.20"),
		ExecutionSummary: map[string]interface{}{
			"accounts_considered": 11,
		},
	}
}

// InsertProduct stores a product
func InsertProduct(t *testing.T, db *database.DB, p *models.Product) {
	t.Helper()
	_, err := db.Exec(context.Background(), `
		INSERT INTO products
		(product_id, product_name, interest_rate, minimum_balance_for_interest, monthly_maintenance_fee, currency)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.Name, p.InterestRate, p.MinimumBalanceForInterest, p.MonthlyMaintenanceFee, p.Currency)
	require.NoError(t, err)
}

// InsertAccount stores an account as given, without any ledger entry
func InsertAccount(t *testing.T, db *database.DB, a *models.Account) {
	t.Helper()
	_, err := db.Exec(context.Background(), `
		INSERT INTO accounts
		(account_id, account_number, product_id, currency, status, balance, interest_accrued, opening_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.AccountNumber, a.ProductID, a.Currency, a.Status, a.Balance, a.InterestAccrued, a.OpeningDate)
	require.NoError(t, err)
}

// Deposit credits amount on valueDate the way a teller posting would: the
// ledger entry carries the new running balance and the account balance moves
// with it in the same transaction. Deposits must be seeded in value date order.
func Deposit(t *testing.T, db *database.DB, a *models.Account, amount string, valueDate time.Time) *models.Transaction {
	t.Helper()
	return post(t, db, a, models.DirectionCredit, models.CategoryDeposit, Dec(amount), valueDate)
}

// Withdraw debits amount on valueDate, see Deposit
func Withdraw(t *testing.T, db *database.DB, a *models.Account, amount string, valueDate time.Time) *models.Transaction {
	t.Helper()
	return post(t, db, a, models.DirectionDebit, models.CategoryWithdrawal, Dec(amount), valueDate)
}

func post(t *testing.T, db *database.DB, a *models.Account, direction models.Direction, category models.Category, amount decimal.Decimal, valueDate time.Time) *models.Transaction {
	txn := &models.Transaction{
		ID:        uuid.New(),
		AccountID: a.ID,
		Direction: direction,
		Category:  category,
		Amount:    amount,
		Currency:  a.Currency,
		ValueDate: valueDate,
		Status:    models.TransactionStatusPosted,
		Reference: fmt.Sprintf("SEED-%s", valueDate.Format("20060102")),
		Channel:   models.ChannelAPI,
	}

	ctx := context.Background()
	err := db.WithTransaction(ctx, func(tx pgx.Tx) error {
		delta := amount
		if direction == models.DirectionDebit {
			delta = amount.Neg()
		}
		if err := tx.QueryRow(ctx,
			`UPDATE accounts SET balance = balance + $1 WHERE account_id = $2 RETURNING balance`,
			delta, a.ID).Scan(&txn.RunningBalance); err != nil {
			return err
		}
		return tx.QueryRow(ctx, `
			INSERT INTO transactions
			(transaction_id, account_id, direction, category, amount, currency, running_balance,
			 value_date, status, description, reference, channel)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING seq, created_at, transaction_date`,
			txn.ID, txn.AccountID, txn.Direction, txn.Category, txn.Amount, txn.Currency,
			txn.RunningBalance, txn.ValueDate, txn.Status, string(category), txn.Reference, txn.Channel,
		).Scan(&txn.Seq, &txn.CreatedAt, &txn.TransactionDate)
	})
	require.NoError(t, err)

	a.Balance = txn.RunningBalance
	return txn
}

// SetBalance overwrites the stored balance without touching the ledger, to
// simulate drift the integrity check must catch
func SetBalance(t *testing.T, db *database.DB, a *models.Account, balance string) {
	t.Helper()
	_, err := db.Exec(context.Background(),
		`UPDATE accounts SET balance = $1 WHERE account_id = $2`, Dec(balance), a.ID)
	require.NoError(t, err)
	a.Balance = Dec(balance)
}
