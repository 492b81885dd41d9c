package retention

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/certainty3452/fires3/pkg/storage"
)

// ParseSchedule parses a standard five-field cron expression.
func ParseSchedule(expr string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return parser.Parse(expr)
}

// Run prunes b on every tick of the cron expression until ctx is done.
// Runs never overlap; a tick that fires while a run is active is skipped.
func (m *Manager) Run(ctx context.Context, expr string, b storage.Bucket, prefix string, policy Policy, dryRun bool) error {
	if policy.IsZero() {
		return fmt.Errorf("retention policy keeps nothing")
	}
	schedule, err := ParseSchedule(expr)
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", expr, err)
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	c.Schedule(schedule, cron.FuncJob(func() {
		result, err := m.Prune(ctx, b, prefix, policy, dryRun)
		if err != nil {
			m.Log.Errorw("scheduled prune failed", "bucket", b.Name(), "error", err)
			return
		}
		m.Log.Infow("scheduled prune completed",
			"bucket", b.Name(),
			"total", result.Total,
			"deleted", len(result.Deleted),
			"failed", len(result.Failed),
		)
	}))

	m.Log.Infow("retention scheduler started", "bucket", b.Name(), "schedule", expr, "next", schedule.Next(m.now()))
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	m.Log.Infow("retention scheduler stopped", "bucket", b.Name())
	return nil
}
