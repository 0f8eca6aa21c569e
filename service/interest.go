package service

import (
	"accrual/models"

	"github.com/shopspring/decimal"
)

var (
	daysPerYear   = decimal.NewFromInt(365)
	monthsPerYear = decimal.NewFromInt(12)
)

// DailyInterest computes Actual/365 interest for one day
func DailyInterest(balance, annualRate decimal.Decimal) decimal.Decimal {
	if !balance.IsPositive() {
		return decimal.Zero
	}
	return models.Round2(balance.Mul(annualRate).Div(daysPerYear))
}

// MonthlyInterest computes 30/360 interest for one month, which reduces to rate/12
func MonthlyInterest(balance, annualRate decimal.Decimal) decimal.Decimal {
	if !balance.IsPositive() || !annualRate.IsPositive() {
		return decimal.Zero
	}
	return models.Round2(balance.Mul(annualRate).Div(monthsPerYear))
}
