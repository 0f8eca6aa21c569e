package service

import (
	"accrual/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountIntegrity is the reconciliation of one account
type AccountIntegrity struct {
	AccountID            uuid.UUID
	AccountNumber        string
	StoredBalance        decimal.Decimal
	LedgerBalance        decimal.Decimal
	Difference           decimal.Decimal
	LatestRunningBalance decimal.Decimal
	TransactionCount     int
	Mismatch             bool
}

// VerifyAccount sums the signed ledger of an account and compares it with the
// stored balance. txns must be in ledger order so the last entry carries the
// latest running balance.
func VerifyAccount(account *models.Account, txns []*models.Transaction) AccountIntegrity {
	ledger := decimal.Zero
	for _, t := range txns {
		ledger = ledger.Add(t.Signed())
	}

	result := AccountIntegrity{
		AccountID:        account.ID,
		AccountNumber:    account.AccountNumber,
		StoredBalance:    account.Balance,
		LedgerBalance:    ledger,
		Difference:       account.Balance.Sub(ledger).Abs(),
		TransactionCount: len(txns),
	}
	if len(txns) > 0 {
		result.LatestRunningBalance = txns[len(txns)-1].RunningBalance
	}
	result.Mismatch = result.Difference.GreaterThan(models.Tolerance)
	return result
}
