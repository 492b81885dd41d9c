package cmd

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/certainty3452/fires3/pkg/retention"
	"github.com/certainty3452/fires3/pkg/storage"
)

var pruneArgs struct {
	prefix   string
	schedule string
	dryRun   bool
	policy   retention.Policy
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "delete timestamped objects outside a retention policy",
	Long: `Delete timestamped objects outside a retention policy.

Only keys containing a YYYYMMDD-HHMMSS timestamp are considered.
With --schedule, prune repeatedly on a cron schedule until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if pruneArgs.policy.IsZero() {
			return fmt.Errorf("at least one of --keep-last, --keep-daily, --keep-weekly or --keep-monthly is required")
		}

		b, err := makeBucket(cmd)
		if err != nil {
			return err
		}
		m := retention.NewManager(log)

		if pruneArgs.schedule != "" {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return m.Run(ctx, pruneArgs.schedule, b, pruneArgs.prefix, pruneArgs.policy, pruneArgs.dryRun)
		}
		return runPrune(cmd.Context(), m, b, cmd.OutOrStdout())
	},
}

func runPrune(ctx context.Context, m *retention.Manager, b storage.Bucket, w io.Writer) error {
	result, err := m.Prune(ctx, b, pruneArgs.prefix, pruneArgs.policy, pruneArgs.dryRun)
	if err != nil {
		return err
	}

	verb := "deleted"
	if pruneArgs.dryRun {
		verb = "would delete"
	}
	for _, key := range result.Deleted {
		fmt.Fprintf(w, "%s %s\n", verb, key)
	}
	if len(result.Failed) > 0 {
		return fmt.Errorf("failed to delete %d of %d objects", len(result.Failed), len(result.Failed)+len(result.Deleted))
	}
	return nil
}

func init() {
	fs := pruneCmd.Flags()
	fs.StringVar(&pruneArgs.prefix, "prefix", "", "Only consider keys with this prefix")
	fs.StringVar(&pruneArgs.schedule, "schedule", "", "Cron expression to prune repeatedly, e.g. \"0 2 * * *\"")
	fs.BoolVar(&pruneArgs.dryRun, "dry-run", false, "Print what would be deleted without deleting")
	fs.IntVar(&pruneArgs.policy.KeepLast, "keep-last", 0, "Keep the N most recent objects")
	fs.IntVar(&pruneArgs.policy.KeepDaily, "keep-daily", 0, "Keep the newest object of each of the last N days")
	fs.IntVar(&pruneArgs.policy.KeepWeekly, "keep-weekly", 0, "Keep the newest object of each of the last N weeks")
	fs.IntVar(&pruneArgs.policy.KeepMonthly, "keep-monthly", 0, "Keep the newest object of each of the last N months")

	rootCmd.AddCommand(pruneCmd)
}
