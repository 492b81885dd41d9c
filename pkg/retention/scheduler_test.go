package retention

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSchedule(t *testing.T) {
	tests := []struct {
		expr  string
		valid bool
	}{
		{expr: "0 2 * * *", valid: true},
		{expr: "*/15 * * * *", valid: true},
		{expr: "@daily", valid: true},
		{expr: "@every 1h", valid: true},
		{expr: "0 2 * *", valid: false},
		{expr: "not a schedule", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			_, err := ParseSchedule(tt.expr)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestParseSchedule_Next(t *testing.T) {
	schedule, err := ParseSchedule("0 2 * * *")
	require.NoError(t, err)

	from := time.Date(2026, 1, 20, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 1, 21, 2, 0, 0, 0, time.UTC), schedule.Next(from))
}

func TestRun_InvalidArguments(t *testing.T) {
	m := newTestManager(time.Now())
	b, _ := newTestBucket()

	err := m.Run(context.Background(), "bogus", b, "", Policy{KeepLast: 1}, false)
	assert.Error(t, err)

	err = m.Run(context.Background(), "@daily", b, "", Policy{}, false)
	assert.Error(t, err)
}

func TestRun_PrunesOnSchedule(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for a cron tick")
	}

	m := newTestManager(time.Date(2026, 1, 20, 12, 0, 0, 0, time.UTC))
	b, fake := newTestBucket("20260120-020000", "20260119-020000", "20260118-020000")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- m.Run(ctx, "@every 1s", b, "", Policy{KeepLast: 1}, false)
	}()

	require.Eventually(t, func() bool {
		return fake.Count() == 1
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
