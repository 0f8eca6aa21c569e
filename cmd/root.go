package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"accrual/config"
	"accrual/service"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Exit codes returned by ExitCode
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitMismatch = 2
)

// cli carries state shared by the subcommands of one invocation
type cli struct {
	cfg *config.Config
	out io.Writer
}

// NewRootCmd creates the accrual command tree. Every call returns fresh
// commands so tests can execute them in isolation.
func NewRootCmd() *cobra.Command {
	c := &cli{}

	cmd := &cobra.Command{
		Use:   "accrual",
		Short: "Interest accrual and ledger posting batches",
		Long: `accrual posts interest and maintenance fees to deposit accounts held in
PostgreSQL. Every posting is idempotent per (account, period), so a batch can
be rerun safely after a failure. Non-dry runs end with a ledger integrity check.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if err := setupLogging(cfg.LogLevel, cfg.LogFormat); err != nil {
				return err
			}
			c.cfg = cfg
			c.out = cmd.OutOrStdout()
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("database-url", "", "PostgreSQL connection URL (overrides DATABASE_URL)")
	flags.String("log-level", "info", "Log level: debug, info, warn or error")
	flags.String("log-format", "text", `Log format: "text" or "json"`)
	flags.Int("concurrency", service.DefaultConcurrency, "Accounts processed in parallel")
	flags.Bool("strict", true, "Fail the run when the integrity check finds a mismatch (--strict=false only reports)")

	cmd.AddCommand(
		c.newMonthlyCmd(),
		c.newDailyCmd(),
		c.newFeesCmd(),
		c.newEndOfDayCmd(),
		c.newVerifyCmd(),
		c.newHistoryCmd(),
		c.newRunsCmd(),
		c.newMigrateCmd(),
	)

	return cmd
}

// Execute runs the command tree until ctx is cancelled or the command returns
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// ExitCode maps a command error to the process exit status
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, service.ErrIntegrityMismatch):
		return ExitMismatch
	default:
		return ExitFailure
	}
}

func setupLogging(level, format string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	log.SetLevel(lvl)

	if format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}
