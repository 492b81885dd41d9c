package retention

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/certainty3452/fires3/pkg/storage"
)

// Policy describes which timestamped objects to keep.
// A zero field disables that rule; an all-zero policy keeps nothing.
type Policy struct {
	KeepLast    int
	KeepDaily   int
	KeepWeekly  int
	KeepMonthly int
}

// IsZero reports whether no rule is enabled.
func (p Policy) IsZero() bool {
	return p.KeepLast <= 0 && p.KeepDaily <= 0 && p.KeepWeekly <= 0 && p.KeepMonthly <= 0
}

// Entry is a timestamped object in a bucket
type Entry struct {
	Key       string
	Timestamp time.Time // Parsed from the key
}

// Result summarizes a pruning run.
type Result struct {
	Total   int
	Kept    []string
	Deleted []string
	Failed  []string
}

// Manager applies retention policies to a bucket
type Manager struct {
	Log *zap.SugaredLogger

	now func() time.Time
}

// NewManager creates a new Manager
func NewManager(log *zap.SugaredLogger) *Manager {
	if log == nil {
		log = zap.S()
	}
	return &Manager{Log: log, now: time.Now}
}

// Plan returns the keys under prefix that the policy does not keep.
// Objects whose key carries no timestamp are never selected.
func (m *Manager) Plan(ctx context.Context, b storage.Bucket, prefix string, policy Policy) ([]string, []string, error) {
	if policy.IsZero() {
		return nil, nil, fmt.Errorf("retention policy keeps nothing")
	}

	entries, err := m.listEntries(ctx, b, prefix)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list objects: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil, nil
	}

	// Sort by timestamp descending (newest first)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})

	keepSet := m.calculateKeepSet(entries, policy)

	var keep, toDelete []string
	for _, e := range entries {
		if keepSet[e.Key] {
			keep = append(keep, e.Key)
		} else {
			toDelete = append(toDelete, e.Key)
		}
	}

	m.Log.Infow("retention policy applied",
		"bucket", b.Name(),
		"prefix", prefix,
		"totalObjects", len(entries),
		"keeping", len(keep),
		"deleting", len(toDelete),
	)

	return keep, toDelete, nil
}

// Prune deletes every object the policy does not keep.
// A failed deletion is logged and recorded; the remaining keys are still processed.
func (m *Manager) Prune(ctx context.Context, b storage.Bucket, prefix string, policy Policy, dryRun bool) (*Result, error) {
	keep, toDelete, err := m.Plan(ctx, b, prefix, policy)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Total: len(keep) + len(toDelete),
		Kept:  keep,
	}
	if dryRun {
		result.Deleted = toDelete
		return result, nil
	}

	for _, key := range toDelete {
		if _, err := b.Delete(ctx, key); err != nil {
			m.Log.Warnw("failed to delete object", "bucket", b.Name(), "key", key, "error", err)
			result.Failed = append(result.Failed, key)
			continue
		}
		m.Log.Infow("deleted object", "bucket", b.Name(), "key", key)
		result.Deleted = append(result.Deleted, key)
	}
	return result, nil
}

func (m *Manager) listEntries(ctx context.Context, b storage.Bucket, prefix string) ([]Entry, error) {
	objects, err := b.List(ctx)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for _, obj := range objects {
		if !strings.HasPrefix(obj.Key(), prefix) {
			continue
		}
		timestamp, err := parseTimestampFromKey(obj.Key())
		if err != nil {
			m.Log.Debugw("skipping object without timestamp", "key", obj.Key())
			continue
		}
		entries = append(entries, Entry{
			Key:       obj.Key(),
			Timestamp: timestamp,
		})
	}
	return entries, nil
}

func (m *Manager) calculateKeepSet(entries []Entry, policy Policy) map[string]bool {
	keep := make(map[string]bool)
	now := m.now()

	applyKeepLast(entries, policy.KeepLast, keep)
	applyKeepPeriod(entries, now.AddDate(0, 0, -policy.KeepDaily), policy.KeepDaily, dayKey, keep)
	applyKeepPeriod(entries, now.AddDate(0, 0, -policy.KeepWeekly*7), policy.KeepWeekly, weekKey, keep)
	applyKeepPeriod(entries, now.AddDate(0, -policy.KeepMonthly, 0), policy.KeepMonthly, monthKey, keep)

	return keep
}

// applyKeepLast keeps the n most recent entries
func applyKeepLast(entries []Entry, n int, keep map[string]bool) {
	for i := 0; i < n && i < len(entries); i++ {
		keep[entries[i].Key] = true
	}
}

// applyKeepPeriod keeps the newest entry of each period after cutoff.
// entries must be sorted newest first.
func applyKeepPeriod(entries []Entry, cutoff time.Time, n int, period func(time.Time) string, keep map[string]bool) {
	if n <= 0 {
		return
	}
	seen := make(map[string]bool)

	for _, e := range entries {
		if e.Timestamp.Before(cutoff) {
			continue
		}
		p := period(e.Timestamp)
		if !seen[p] {
			seen[p] = true
			keep[e.Key] = true
		}
	}
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func weekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

func monthKey(t time.Time) string {
	return t.Format("2006-01")
}

// parseTimestampFromKey extracts the timestamp from an object key
// Expected formats:
// - YYYYMMDD-HHMMSS.tar.zst
// - YYYYMMDD-HHMMSS-runid.sql.gz
// - prefix/path/YYYYMMDD-HHMMSS.json
var timestampRegex = regexp.MustCompile(`(\d{8}-\d{6})`)

func parseTimestampFromKey(key string) (time.Time, error) {
	matches := timestampRegex.FindStringSubmatch(key)
	if len(matches) < 2 {
		return time.Time{}, fmt.Errorf("no timestamp found in key: %s", key)
	}

	return time.Parse("20060102-150405", matches[1])
}
