package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestDailyInterest(t *testing.T) {
	tests := []struct {
		name    string
		balance string
		rate    string
		want    string
	}{
		{"actual 365", "10000.00", "0.015", "0.41"},
		{"rounds half up", "1000.00", "0.0365", "0.10"},
		{"zero balance", "0", "0.05", "0"},
		{"negative balance", "-500.00", "0.05", "0"},
		{"tiny balance rounds to zero", "1.00", "0.01", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DailyInterest(dec(tt.balance), dec(tt.rate))
			assert.True(t, dec(tt.want).Equal(got), "got %s want %s", got, tt.want)
		})
	}
}

func TestMonthlyInterest(t *testing.T) {
	tests := []struct {
		name    string
		balance string
		rate    string
		want    string
	}{
		{"thirty over three sixty", "1200.00", "0.12", "12.00"},
		{"compounded balance", "1212.00", "0.12", "12.12"},
		{"half cent rounds up", "1.50", "0.04", "0.01"},
		{"zero rate", "1200.00", "0", "0"},
		{"negative rate", "1200.00", "-0.01", "0"},
		{"zero balance", "0", "0.12", "0"},
		{"negative balance", "-10.00", "0.12", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MonthlyInterest(dec(tt.balance), dec(tt.rate))
			assert.True(t, dec(tt.want).Equal(got), "got %s want %s", got, tt.want)
		})
	}
}
