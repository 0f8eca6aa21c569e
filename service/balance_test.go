package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"accrual/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconstructBalance(t *testing.T) {
	ctx := context.Background()
	cutoff := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	t.Run("latest entry running balance", func(t *testing.T) {
		account := &models.Account{ID: uuid.New(), OpeningDate: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)}
		txn := &models.Transaction{ID: uuid.New(), RunningBalance: dec("1200.00")}

		mockTxnRepo := new(MockTransactionRepository)
		mockTxnRepo.On("LatestAsOf", ctx, account.ID, cutoff).Return(txn, nil)

		snapshot, err := ReconstructBalance(ctx, mockTxnRepo, account, cutoff)
		require.NoError(t, err)
		assert.True(t, snapshot.Open)
		assert.True(t, dec("1200.00").Equal(snapshot.Balance))
		assert.Equal(t, txn.ID, snapshot.TransactionID)
		mockTxnRepo.AssertExpectations(t)
	})

	t.Run("open without entries is zero", func(t *testing.T) {
		account := &models.Account{ID: uuid.New(), OpeningDate: time.Date(2024, 1, 31, 15, 0, 0, 0, time.UTC)}

		mockTxnRepo := new(MockTransactionRepository)
		mockTxnRepo.On("LatestAsOf", ctx, account.ID, cutoff).Return(nil, nil)

		snapshot, err := ReconstructBalance(ctx, mockTxnRepo, account, cutoff)
		require.NoError(t, err)
		assert.True(t, snapshot.Open)
		assert.True(t, snapshot.Balance.IsZero())
	})

	t.Run("not yet open", func(t *testing.T) {
		account := &models.Account{ID: uuid.New(), OpeningDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)}

		mockTxnRepo := new(MockTransactionRepository)
		mockTxnRepo.On("LatestAsOf", ctx, account.ID, cutoff).Return(nil, nil)

		snapshot, err := ReconstructBalance(ctx, mockTxnRepo, account, cutoff)
		require.NoError(t, err)
		assert.False(t, snapshot.Open)
	})

	t.Run("repository error", func(t *testing.T) {
		account := &models.Account{ID: uuid.New()}

		mockTxnRepo := new(MockTransactionRepository)
		mockTxnRepo.On("LatestAsOf", ctx, account.ID, cutoff).Return(nil, errors.New("connection reset"))

		_, err := ReconstructBalance(ctx, mockTxnRepo, account, cutoff)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "2024-01-31")
	})
}
