package service

import (
	"context"
	"fmt"
	"time"

	"accrual/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BalanceSnapshot is the balance an account held at a cutoff date.
// Open is false when the account did not exist yet at that date.
type BalanceSnapshot struct {
	Balance       decimal.Decimal
	Open          bool
	TransactionID uuid.UUID
}

// ReconstructBalance derives the balance at cutoff from the running balance
// of the latest ledger entry dated on or before it
func ReconstructBalance(ctx context.Context, txns TransactionRepository, account *models.Account, cutoff time.Time) (BalanceSnapshot, error) {
	latest, err := txns.LatestAsOf(ctx, account.ID, cutoff)
	if err != nil {
		return BalanceSnapshot{}, fmt.Errorf("failed to get balance at %s: %w", cutoff.Format("2006-01-02"), err)
	}
	if latest != nil {
		return BalanceSnapshot{
			Balance:       latest.RunningBalance,
			Open:          true,
			TransactionID: latest.ID,
		}, nil
	}

	if models.DateOnly(account.OpeningDate).After(models.DateOnly(cutoff)) {
		return BalanceSnapshot{}, nil
	}
	return BalanceSnapshot{Balance: decimal.Zero, Open: true}, nil
}
