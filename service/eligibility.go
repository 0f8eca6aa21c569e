package service

import (
	"time"

	"accrual/models"
)

// EligibilityMode selects which balance rule applies
type EligibilityMode string

const (
	ModeDaily   EligibilityMode = "daily"
	ModeMonthly EligibilityMode = "monthly"
)

// SelectEligible filters a point-in-time snapshot down to the accounts that
// earn interest. Daily mode checks the current balance against the product
// minimum; monthly mode only requires the account to be open by monthEnd,
// since the minimum is checked per month against the reconstructed balance.
func SelectEligible(accounts []*models.AccountWithProduct, mode EligibilityMode, monthEnd time.Time) []*models.AccountWithProduct {
	eligible := make([]*models.AccountWithProduct, 0, len(accounts))
	for _, a := range accounts {
		if !a.IsActive() || !a.Product.InterestRate.IsPositive() {
			continue
		}
		switch mode {
		case ModeDaily:
			if a.Balance.LessThan(a.Product.MinimumBalanceForInterest) {
				continue
			}
		case ModeMonthly:
			if a.OpeningDate.After(monthEnd) {
				continue
			}
		}
		eligible = append(eligible, a)
	}
	return eligible
}

// SelectFeeable returns active accounts whose product carries a maintenance fee
func SelectFeeable(accounts []*models.AccountWithProduct) []*models.AccountWithProduct {
	feeable := make([]*models.AccountWithProduct, 0, len(accounts))
	for _, a := range accounts {
		if a.IsActive() && a.Product.MonthlyMaintenanceFee.IsPositive() {
			feeable = append(feeable, a)
		}
	}
	return feeable
}
