package repository

import (
	"context"
	"testing"

	"accrual/models"
	"accrual/repository/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	product := testutil.CreateTestProduct()
	product.MinimumBalanceForInterest = testutil.Dec("100.00")
	product.MonthlyMaintenanceFee = testutil.Dec("5.00")
	testutil.InsertProduct(t, testDB.DB, product)

	active := testutil.CreateTestAccount(product, "ACC-0001", testutil.Date(2024, 1, 10))
	testutil.InsertAccount(t, testDB.DB, active)
	testutil.Deposit(t, testDB.DB, active, "1200.00", testutil.Date(2024, 1, 10))

	closed := testutil.CreateTestAccount(product, "ACC-0002", testutil.Date(2023, 6, 1))
	closed.Status = models.AccountStatusClosed
	testutil.InsertAccount(t, testDB.DB, closed)

	t.Run("list with products", func(t *testing.T) {
		accounts, err := repo.ListWithProducts(ctx)
		require.NoError(t, err)
		require.Len(t, accounts, 2)

		first := accounts[0]
		assert.Equal(t, "ACC-0001", first.AccountNumber)
		assert.True(t, testutil.Dec("1200.00").Equal(first.Balance))
		assert.Equal(t, testutil.Date(2024, 1, 10), first.OpeningDate.UTC())
		assert.Equal(t, product.ID, first.Product.ID)
		assert.True(t, product.InterestRate.Equal(first.Product.InterestRate))
		assert.True(t, product.MinimumBalanceForInterest.Equal(first.Product.MinimumBalanceForInterest))
		assert.True(t, product.MonthlyMaintenanceFee.Equal(first.Product.MonthlyMaintenanceFee))
	})

	t.Run("list active excludes closed", func(t *testing.T) {
		accounts, err := repo.ListActive(ctx)
		require.NoError(t, err)
		require.Len(t, accounts, 1)
		assert.Equal(t, active.ID, accounts[0].ID)
	})

	t.Run("get by id and number", func(t *testing.T) {
		byID, err := repo.GetByID(ctx, active.ID)
		require.NoError(t, err)
		require.NotNil(t, byID)
		assert.Equal(t, "ACC-0001", byID.AccountNumber)

		byNumber, err := repo.GetByNumber(ctx, "ACC-0002")
		require.NoError(t, err)
		require.NotNil(t, byNumber)
		assert.Equal(t, closed.ID, byNumber.ID)
	})

	t.Run("missing account returns nil", func(t *testing.T) {
		account, err := repo.GetByID(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, account)
	})

	t.Run("add balance increments", func(t *testing.T) {
		balance, err := repo.AddBalance(ctx, active.ID, testutil.Dec("12.00"))
		require.NoError(t, err)
		assert.True(t, testutil.Dec("1212.00").Equal(balance))

		balance, err = repo.AddBalance(ctx, active.ID, testutil.Dec("-12.00"))
		require.NoError(t, err)
		assert.True(t, testutil.Dec("1200.00").Equal(balance))
	})

	t.Run("add interest accrued leaves balance", func(t *testing.T) {
		accrued, err := repo.AddInterestAccrued(ctx, active.ID, testutil.Dec("0.41"))
		require.NoError(t, err)
		assert.True(t, testutil.Dec("0.41").Equal(accrued))

		account, err := repo.GetByID(ctx, active.ID)
		require.NoError(t, err)
		assert.True(t, testutil.Dec("1200.00").Equal(account.Balance))
		assert.True(t, testutil.Dec("0.41").Equal(account.InterestAccrued))
	})

	t.Run("add balance on missing account fails", func(t *testing.T) {
		_, err := repo.AddBalance(ctx, uuid.New(), testutil.Dec("1.00"))
		assert.Error(t, err)
	})
}
