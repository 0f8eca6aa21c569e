package repository

import (
	"context"
	"testing"

	"accrual/models"
	"accrual/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchRunRepository_GetLatest(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewBatchRunRepository(testDB.DB)
	ctx := context.Background()

	t.Run("no run found", func(t *testing.T) {
		run, err := repo.GetLatest(ctx, models.BatchKindMonthlyInterest)
		require.NoError(t, err)
		assert.Nil(t, run)
	})

	t.Run("latest run of kind", func(t *testing.T) {
		first := testutil.CreateTestBatchRun("2024-01")
		require.NoError(t, repo.Create(ctx, first))

		second := testutil.CreateTestBatchRun("2024-02")
		require.NoError(t, repo.Create(ctx, second))

		fee := testutil.CreateTestBatchRun("2024-02")
		fee.Kind = models.BatchKindMaintenanceFee
		require.NoError(t, repo.Create(ctx, fee))

		run, err := repo.GetLatest(ctx, models.BatchKindMonthlyInterest)
		require.NoError(t, err)
		require.NotNil(t, run)

		assert.Equal(t, second.ID, run.ID)
		assert.Equal(t, "2024-02", run.Period)
		assert.True(t, second.TotalAmount.Equal(run.TotalAmount))
		assert.NotNil(t, run.ExecutionSummary)
	})
}

func TestBatchRunRepository_Create(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewBatchRunRepository(testDB.DB)
	ctx := context.Background()

	t.Run("successful creation", func(t *testing.T) {
		run := testutil.CreateTestBatchRun("2024-03")
		run.Failures = 2
		run.ExecutionSummary = map[string]interface{}{
			"accounts_considered": 75,
			"skipped": map[string]interface{}{
				"below_minimum": 3,
			},
		}

		err := repo.Create(ctx, run)
		require.NoError(t, err)
		assert.NotZero(t, run.ID)
		assert.False(t, run.CreatedAt.IsZero())

		retrieved, err := repo.GetLatest(ctx, models.BatchKindMonthlyInterest)
		require.NoError(t, err)
		require.NotNil(t, retrieved)

		assert.Equal(t, 2, retrieved.Failures)
		assert.Equal(t, float64(75), retrieved.ExecutionSummary["accounts_considered"])
		skipped, ok := retrieved.ExecutionSummary["skipped"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, float64(3), skipped["below_minimum"])
	})

	t.Run("nil execution summary", func(t *testing.T) {
		run := testutil.CreateTestBatchRun("2024-04")
		run.Kind = models.BatchKindVerify
		run.ExecutionSummary = nil

		require.NoError(t, repo.Create(ctx, run))

		retrieved, err := repo.GetLatest(ctx, models.BatchKindVerify)
		require.NoError(t, err)
		require.NotNil(t, retrieved)
		assert.Nil(t, retrieved.ExecutionSummary)
	})
}

func TestBatchRunRepository_List(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewBatchRunRepository(testDB.DB)
	ctx := context.Background()

	for _, period := range []string{"2024-01", "2024-02", "2024-03"} {
		require.NoError(t, repo.Create(ctx, testutil.CreateTestBatchRun(period)))
	}

	runs, err := repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "2024-03", runs[0].Period)
	assert.Equal(t, "2024-02", runs[1].Period)
}
