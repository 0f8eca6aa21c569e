package service

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"accrual/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSummary_ConcurrentReports(t *testing.T) {
	summary := newRunSummary(models.BatchKindMonthlyInterest, "2024-03", false)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			summary.addPosting(&PostingResult{AccountNumber: fmt.Sprintf("ACC-%d", i%25), Period: "2024-03", Amount: dec("1.25")})
		}()
	}
	wg.Wait()
	summary.finish()

	assert.Equal(t, 25, summary.AccountsProcessed)
	assert.Equal(t, 50, summary.PeriodsPosted)
	assert.True(t, dec("62.50").Equal(summary.TotalAmount))
}

func TestRunSummary_FinishOrdersResults(t *testing.T) {
	summary := newRunSummary(models.BatchKindMonthlyInterest, "2024-03", false)
	summary.addPosting(&PostingResult{AccountNumber: "B", Period: "2024-02", Amount: dec("1")})
	summary.addPosting(&PostingResult{AccountNumber: "A", Period: "2024-03", Amount: dec("1")})
	summary.addPosting(&PostingResult{AccountNumber: "A", Period: "2024-01", Amount: dec("1")})
	summary.addSkip("C", "2024-01", SkipBelowMinimum)
	summary.addSkip("A", "2024-02", SkipNotOpen)
	summary.addFailure("Z", "2024-01", errors.New("boom"))
	summary.addFailure("M", "2024-01", errors.New("boom"))

	summary.finish()

	require.Len(t, summary.Postings, 3)
	assert.Equal(t, 2, summary.AccountsProcessed)
	assert.Equal(t, "A", summary.Postings[0].AccountNumber)
	assert.Equal(t, "2024-01", summary.Postings[0].Period)
	assert.Equal(t, "2024-03", summary.Postings[1].Period)
	assert.Equal(t, "B", summary.Postings[2].AccountNumber)
	assert.Equal(t, "A", summary.Skipped[0].AccountNumber)
	assert.Equal(t, "M", summary.Failures[0].AccountNumber)
	assert.True(t, summary.HasFailures())
}

func TestRunSummary_ToBatchRun(t *testing.T) {
	summary := newRunSummary(models.BatchKindMaintenanceFee, "2024-01", false)
	summary.AccountsConsidered = 3
	summary.addPosting(&PostingResult{AccountNumber: "A", Period: "2024-01", Amount: dec("5.00")})
	summary.addSkip("B", "2024-01", SkipInsufficientBalance)
	summary.addFailure("C", "2024-01", errors.New("deadlock detected"))
	summary.finish()

	run := summary.ToBatchRun()
	assert.Equal(t, models.BatchKindMaintenanceFee, run.Kind)
	assert.Equal(t, "2024-01", run.Period)
	assert.Equal(t, 1, run.AccountsProcessed)
	assert.Equal(t, 1, run.PeriodsPosted)
	assert.Equal(t, 1, run.Failures)
	assert.True(t, dec("5.00").Equal(run.TotalAmount))
	assert.Equal(t, 3, run.ExecutionSummary["accounts_considered"])
	assert.Equal(t, map[string]interface{}{"insufficient_balance": 1}, run.ExecutionSummary["skipped"])

	failures, ok := run.ExecutionSummary["failures"].([]string)
	require.True(t, ok)
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0], "deadlock detected")
}

func TestPostingError_Unwrap(t *testing.T) {
	err := &PostingError{AccountNumber: "A", Period: "2024-01", Err: ErrInsufficientBalance}
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Contains(t, err.Error(), "account A period 2024-01")
}
