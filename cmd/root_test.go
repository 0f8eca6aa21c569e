package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
	"time"

	"accrual/config"
	"accrual/models"
	"accrual/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, ExitOK},
		{"generic failure", errors.New("boom"), ExitFailure},
		{"wrapped mismatch", fmt.Errorf("%w: 1 of 3 accounts", service.ErrIntegrityMismatch), ExitMismatch},
		{"posting error", &service.PostingError{AccountNumber: "A-1", Period: "2024-01", Err: errors.New("db down")}, ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestParseMonthFlag(t *testing.T) {
	now := time.Date(2024, time.March, 17, 15, 4, 0, 0, time.UTC)

	m, err := parseMonthFlag("", now)
	require.NoError(t, err)
	assert.Equal(t, "2024-03", m.String())

	m, err = parseMonthFlag("2023-11", now)
	require.NoError(t, err)
	assert.Equal(t, "2023-11", m.String())

	_, err = parseMonthFlag("2023-13", now)
	assert.Error(t, err)
}

func TestParseDateFlag(t *testing.T) {
	now := time.Date(2024, time.March, 17, 15, 4, 0, 0, time.UTC)

	d, err := parseDateFlag("", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.March, 17, 0, 0, 0, 0, time.UTC), d)

	d, err = parseDateFlag("2024-02-29", now)
	require.NoError(t, err)
	assert.True(t, models.IsMonthEnd(d))

	_, err = parseDateFlag("29/02/2024", now)
	assert.Error(t, err)
}

func TestNewRootCmd_Subcommands(t *testing.T) {
	root := NewRootCmd()

	names := make(map[string]bool)
	for _, sub := range root.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"monthly", "daily", "fees", "eod", "verify", "history", "runs", "migrate"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}

	for _, flag := range []string{"database-url", "log-level", "log-format", "concurrency", "strict"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), "missing flag %s", flag)
	}
}

func TestRootCmd_InvalidConfigFailsBeforeConnecting(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")

	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"verify", "--log-format", "xml"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_FORMAT")
	assert.Equal(t, ExitFailure, ExitCode(err))
}

func TestRootCmd_InvalidMonthFailsBeforeConnecting(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")

	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"monthly", "--month", "2024-13", "--dry-run"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid month")
}

func TestPrintSummary(t *testing.T) {
	summary := &service.RunSummary{
		Kind:               models.BatchKindMonthlyInterest,
		Period:             "2024-03",
		AccountsConsidered: 3,
		AccountsProcessed:  2,
		PeriodsPosted:      4,
		TotalAmount:        decimal.RequireFromString("48.72"),
		Skipped: []service.SkippedPeriod{
			{AccountNumber: "A-2", Period: "2024-01", Reason: service.SkipBelowMinimum},
			{AccountNumber: "A-2", Period: "2024-02", Reason: service.SkipBelowMinimum},
			{AccountNumber: "A-1", Period: "2024-01", Reason: service.SkipAlreadyPosted},
		},
		Failures: []*service.PostingError{
			{AccountNumber: "A-3", Period: "2024-03", Err: errors.New("connection reset")},
		},
	}

	var out bytes.Buffer
	printSummary(&out, summary)
	text := out.String()

	assert.Contains(t, text, "monthly_interest 2024-03 (live)")
	assert.Contains(t, text, "periods posted:      4")
	assert.Contains(t, text, "total amount:        48.72")
	assert.Contains(t, text, "already_posted:")
	assert.Contains(t, text, "below_minimum:")
	assert.Contains(t, text, "failures:            1")
	assert.Contains(t, text, "posting failed for account A-3 period 2024-03: connection reset")
	assert.Less(t, bytes.Index(out.Bytes(), []byte("already_posted")), bytes.Index(out.Bytes(), []byte("below_minimum")))
}

func TestPrintIntegrity(t *testing.T) {
	var out bytes.Buffer
	printIntegrity(&out, &service.IntegrityReport{AccountsChecked: 5})
	assert.Equal(t, "integrity check: OK (5 accounts, 0 mismatches)\n", out.String())

	out.Reset()
	printIntegrity(&out, &service.IntegrityReport{
		AccountsChecked: 5,
		Mismatches: []service.AccountIntegrity{{
			AccountNumber:        "A-9",
			StoredBalance:        decimal.RequireFromString("100.02"),
			LedgerBalance:        decimal.RequireFromString("100"),
			Difference:           decimal.RequireFromString("0.02"),
			LatestRunningBalance: decimal.RequireFromString("99.5"),
			TransactionCount:     2,
			Mismatch:             true,
		}},
	})
	text := out.String()
	assert.Contains(t, text, "integrity check: MISMATCH (5 accounts, 1 mismatches)")
	assert.Contains(t, text, "LATEST RUNNING")
	assert.Contains(t, text, "A-9")
	assert.Contains(t, text, "100.02")
	assert.Contains(t, text, "100.00")
	assert.Contains(t, text, "0.02")
	assert.Contains(t, text, "99.50")
}

func TestPrintEmptyListings(t *testing.T) {
	var out bytes.Buffer
	printHistory(&out, nil)
	assert.Equal(t, "No accruals found.\n", out.String())

	out.Reset()
	printRuns(&out, nil)
	assert.Equal(t, "No batch runs recorded.\n", out.String())
}

func TestPrintRuns(t *testing.T) {
	var out bytes.Buffer
	printRuns(&out, []*models.BatchRun{{
		ID:                7,
		Kind:              models.BatchKindMaintenanceFee,
		Period:            "2024-01",
		AccountsProcessed: 2,
		PeriodsPosted:     2,
		TotalAmount:       decimal.RequireFromString("10"),
		CreatedAt:         time.Date(2024, time.February, 1, 2, 0, 0, 0, time.UTC),
	}})

	text := out.String()
	assert.Contains(t, text, "KIND")
	assert.Contains(t, text, "maintenance_fee")
	assert.Contains(t, text, "10.00")
	assert.Contains(t, text, "2024-02-01 02:00:00")
}

func mismatchReport(strict bool) *service.IntegrityReport {
	return &service.IntegrityReport{
		AccountsChecked: 3,
		Strict:          strict,
		Mismatches: []service.AccountIntegrity{{
			AccountNumber: "A-1",
			StoredBalance: decimal.RequireFromString("105.00"),
			LedgerBalance: decimal.RequireFromString("100.00"),
			Difference:    decimal.RequireFromString("5.00"),
			Mismatch:      true,
		}},
	}
}

func TestDefaultConfig_MismatchExitsNonZero(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432")

	root := NewRootCmd()
	require.NoError(t, root.PersistentFlags().Parse(nil))
	cfg, err := config.Load(root.PersistentFlags())
	require.NoError(t, err)
	require.True(t, cfg.VerifyStrict)

	err = mismatchReport(cfg.VerifyStrict).Err()
	require.ErrorIs(t, err, service.ErrIntegrityMismatch)
	assert.Equal(t, ExitMismatch, ExitCode(err))
}

func TestStrictDisabled_MismatchOnlyReported(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432")

	root := NewRootCmd()
	require.NoError(t, root.PersistentFlags().Parse([]string{"--strict=false"}))
	cfg, err := config.Load(root.PersistentFlags())
	require.NoError(t, err)
	require.False(t, cfg.VerifyStrict)

	assert.Equal(t, ExitOK, ExitCode(mismatchReport(cfg.VerifyStrict).Err()))
}
