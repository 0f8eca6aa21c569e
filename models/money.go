package models

import "github.com/shopspring/decimal"

// Tolerance is the largest difference treated as rounding noise
var Tolerance = decimal.RequireFromString("0.01")

// Round2 rounds half-up to two decimal places
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
