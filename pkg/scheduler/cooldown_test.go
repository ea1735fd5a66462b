package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingReporter struct {
	mu        sync.Mutex
	progress  []time.Duration
	completed int
}

func (r *recordingReporter) CooldownProgress(remaining time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, remaining)
}

func (r *recordingReporter) CooldownCompleted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed++
}

func TestAwaitReturnsImmediately(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		next time.Time
	}{
		{"zero", time.Time{}},
		{"past", fixed.Add(-time.Hour)},
		{"exactly now", fixed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := &recordingReporter{}
			c := NewCooldown(rep, WithClock(func() time.Time { return fixed }))

			start := time.Now()
			require.NoError(t, c.Await(context.Background(), tt.next))
			assert.Less(t, time.Since(start), 10*time.Millisecond)
			assert.Empty(t, rep.progress)
			assert.Zero(t, rep.completed, "no completion notice without a cooldown")
		})
	}
}

func TestAwaitBlocksUntilDeadline(t *testing.T) {
	rep := &recordingReporter{}
	c := NewCooldown(rep, WithTickInterval(20*time.Millisecond))

	deadline := time.Now().Add(150 * time.Millisecond)
	require.NoError(t, c.Await(context.Background(), deadline))

	assert.False(t, time.Now().Before(deadline), "returned before the deadline")
	assert.Less(t, time.Since(deadline), 100*time.Millisecond, "overslept the deadline")
	assert.Equal(t, 1, rep.completed)
	require.NotEmpty(t, rep.progress)
	for i := 1; i < len(rep.progress); i++ {
		assert.Less(t, rep.progress[i], rep.progress[i-1], "remaining time must decrease")
	}
}

func TestAwaitHonoursCancellation(t *testing.T) {
	rep := &recordingReporter{}
	c := NewCooldown(rep, WithTickInterval(10*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := c.Await(ctx, time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, rep.completed)
}

func TestAwaitWithoutReporter(t *testing.T) {
	c := NewCooldown(nil, WithTickInterval(5*time.Millisecond))
	assert.NoError(t, c.Await(context.Background(), time.Now().Add(20*time.Millisecond)))
}

func TestMultiReporter(t *testing.T) {
	a, b := &recordingReporter{}, &recordingReporter{}
	r := MultiReporter(a, nil, b)

	r.CooldownProgress(time.Second)
	r.CooldownCompleted()

	for _, rep := range []*recordingReporter{a, b} {
		assert.Equal(t, []time.Duration{time.Second}, rep.progress)
		assert.Equal(t, 1, rep.completed)
	}
}
