package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"12.004", "12.00"},
		{"12.005", "12.01"},
		{"0.4109589", "0.41"},
		{"7.995", "8.00"},
		{"100", "100.00"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Round2(decimal.RequireFromString(tt.in))
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestTransaction_Signed(t *testing.T) {
	credit := &Transaction{Direction: DirectionCredit, Amount: decimal.RequireFromString("25.50")}
	debit := &Transaction{Direction: DirectionDebit, Amount: decimal.RequireFromString("25.50")}

	assert.Equal(t, "25.5", credit.Signed().String())
	assert.Equal(t, "-25.5", debit.Signed().String())
}
