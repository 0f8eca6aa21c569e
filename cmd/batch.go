package cmd

import (
	"context"
	"fmt"
	"time"

	"accrual/models"
	"accrual/service"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

func (c *cli) newMonthlyCmd() *cobra.Command {
	var month string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "monthly",
		Short: "Post 30/360 monthly interest for every outstanding month",
		Long: `Posts monthly interest for each eligible account, catching up every month
from the account's opening month through the target month that has not been
posted yet. Months are posted in order so interest compounds.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := parseMonthFlag(month, time.Now())
			if err != nil {
				return err
			}
			return c.withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				summary, err := a.monthly.Run(ctx, service.MonthlyOptions{Target: target, DryRun: dryRun})
				if err != nil {
					return fmt.Errorf("monthly interest run failed: %w", err)
				}
				printSummary(c.out, summary)
				return c.finishBatch(ctx, a, dryRun)
			})
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "Target month as YYYY-MM (default current month)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute and report without writing")
	return cmd
}

func (c *cli) newDailyCmd() *cobra.Command {
	var date string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Accrue Actual/365 daily interest for one date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDateFlag(date, time.Now())
			if err != nil {
				return err
			}
			return c.withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				summary, err := a.daily.Run(ctx, service.DailyOptions{Date: day, DryRun: dryRun})
				if err != nil {
					return fmt.Errorf("daily accrual run failed: %w", err)
				}
				printSummary(c.out, summary)
				return c.finishBatch(ctx, a, dryRun)
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Accrual date as YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute and report without writing")
	return cmd
}

func (c *cli) newFeesCmd() *cobra.Command {
	var month, chargeDate string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "fees",
		Short: "Charge monthly maintenance fees",
		Long: `Debits the product maintenance fee from every active account once per month.
Accounts whose balance does not cover the fee are skipped and retried on the
next run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := parseMonthFlag(month, time.Now())
			if err != nil {
				return err
			}
			var charged time.Time
			if chargeDate != "" {
				if charged, err = parseDateFlag(chargeDate, time.Now()); err != nil {
					return err
				}
			}
			return c.withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				summary, err := a.fees.Run(ctx, service.FeeOptions{Month: target, ChargeDate: charged, DryRun: dryRun})
				if err != nil {
					return fmt.Errorf("maintenance fee run failed: %w", err)
				}
				printSummary(c.out, summary)
				return c.finishBatch(ctx, a, dryRun)
			})
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "Fee month as YYYY-MM (default current month)")
	cmd.Flags().StringVar(&chargeDate, "charge-date", "", "Value date of the fee debit as YYYY-MM-DD (default month end)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute and report without writing")
	return cmd
}

func (c *cli) newEndOfDayCmd() *cobra.Command {
	var date string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "eod",
		Short: "Run end-of-day processing",
		Long: `Runs daily interest accrual, then maintenance fees when the date is a month
end, then the ledger integrity check.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDateFlag(date, time.Now())
			if err != nil {
				return err
			}
			return c.withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				result, err := a.endOfDay.Run(ctx, service.EndOfDayOptions{
					Date:   day,
					DryRun: dryRun,
					Strict: c.cfg.VerifyStrict,
				})
				if result != nil {
					if result.Daily != nil {
						printSummary(c.out, result.Daily)
					}
					if result.Fees != nil {
						printSummary(c.out, result.Fees)
					}
					if result.Integrity != nil {
						printIntegrity(c.out, result.Integrity)
					}
				}
				return err
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Processing date as YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute and report without writing")
	return cmd
}

func (c *cli) newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Reconcile stored balances against the ledger",
		Long: `Compares every active account's stored balance with the sum of its ledger
entries. Mismatches are reported, never repaired. Any mismatch makes the
command exit with status 2 unless --strict=false is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				report, err := a.verify(ctx)
				if err != nil {
					return err
				}
				printIntegrity(c.out, report)
				return report.Err()
			})
		},
	}
}

// finishBatch runs the integrity check that closes every non-dry batch
func (c *cli) finishBatch(ctx context.Context, a *app, dryRun bool) error {
	if dryRun {
		log.Info("Dry run, skipping integrity check")
		return nil
	}
	report, err := a.verify(ctx)
	if err != nil {
		return err
	}
	printIntegrity(c.out, report)
	return report.Err()
}

func parseMonthFlag(value string, now time.Time) (models.Month, error) {
	if value == "" {
		return models.MonthOf(now), nil
	}
	return models.ParseMonth(value)
}

func parseDateFlag(value string, now time.Time) (time.Time, error) {
	if value == "" {
		return models.DateOnly(now), nil
	}
	t, err := time.ParseInLocation(dateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", value, err)
	}
	return t, nil
}
