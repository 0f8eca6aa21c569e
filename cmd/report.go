package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"accrual/models"
	"accrual/service"

	"github.com/spf13/cobra"
)

func (c *cli) newHistoryCmd() *cobra.Command {
	var account string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List posted monthly interest accruals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				history, err := a.reports.AccrualHistory(ctx, account, limit)
				if err != nil {
					return err
				}
				printHistory(c.out, history)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "Only show this account number")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of rows")
	return cmd
}

func (c *cli) newRunsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent batch runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				runs, err := a.reports.RecentRuns(ctx, limit)
				if err != nil {
					return err
				}
				printRuns(c.out, runs)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of rows")
	return cmd
}

func printSummary(out io.Writer, s *service.RunSummary) {
	mode := "live"
	if s.DryRun {
		mode = "dry run"
	}
	fmt.Fprintf(out, "%s %s (%s)\n", s.Kind, s.Period, mode)
	fmt.Fprintf(out, "  accounts considered: %d\n", s.AccountsConsidered)
	fmt.Fprintf(out, "  accounts processed:  %d\n", s.AccountsProcessed)
	fmt.Fprintf(out, "  periods posted:      %d\n", s.PeriodsPosted)
	fmt.Fprintf(out, "  total amount:        %s\n", s.TotalAmount.StringFixed(2))

	counts := s.SkipCounts()
	reasons := make([]string, 0, len(counts))
	for reason := range counts {
		reasons = append(reasons, string(reason))
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		fmt.Fprintf(out, "  skipped %-20s %d\n", reason+":", counts[service.SkipReason(reason)])
	}

	fmt.Fprintf(out, "  failures:            %d\n", len(s.Failures))
	for _, f := range s.Failures {
		fmt.Fprintf(out, "    %s\n", f.Error())
	}
	fmt.Fprintf(out, "  duration:            %s\n", s.Duration)
}

func printIntegrity(out io.Writer, r *service.IntegrityReport) {
	status := "OK"
	if r.Failed() {
		status = "MISMATCH"
	}
	fmt.Fprintf(out, "integrity check: %s (%d accounts, %d mismatches)\n", status, r.AccountsChecked, len(r.Mismatches))
	if !r.Failed() {
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ACCOUNT\tSTORED\tLEDGER\tDIFFERENCE\tLATEST RUNNING\tTXNS")
	for _, m := range r.Mismatches {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n",
			m.AccountNumber, m.StoredBalance.StringFixed(2), m.LedgerBalance.StringFixed(2),
			m.Difference.StringFixed(2), m.LatestRunningBalance.StringFixed(2), m.TransactionCount)
	}
	w.Flush()
}

func printHistory(out io.Writer, history []*models.MonthlyAccrualHistory) {
	if len(history) == 0 {
		fmt.Fprintln(out, "No accruals found.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ACCOUNT\tMONTH\tBALANCE\tRATE\tINTEREST\tPROCESSED")
	for _, h := range history {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			h.AccountNumber, h.AccrualMonth, h.MonthEndBalance.StringFixed(2), h.AnnualRate.String(),
			h.MonthlyInterest.StringFixed(2), h.ProcessedAt.Format("2006-01-02 15:04:05"))
	}
	w.Flush()
}

func printRuns(out io.Writer, runs []*models.BatchRun) {
	if len(runs) == 0 {
		fmt.Fprintln(out, "No batch runs recorded.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tPERIOD\tACCOUNTS\tPOSTED\tAMOUNT\tFAILURES\tMISMATCHES\tCREATED")
	for _, r := range runs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%s\t%d\t%d\t%s\n",
			r.ID, r.Kind, r.Period, r.AccountsProcessed, r.PeriodsPosted, r.TotalAmount.StringFixed(2),
			r.Failures, r.Mismatches, r.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	w.Flush()
}
