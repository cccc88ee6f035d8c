package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerRunsJob(t *testing.T) {
	var runs atomic.Int64
	s := New("test", 1*time.Second, func() {
		runs.Add(1)
	})

	require.NoError(t, s.Start())
	defer s.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for runs.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("job never ran")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestSchedulerStopHaltsJob(t *testing.T) {
	var runs atomic.Int64
	s := New("test", 1*time.Second, func() {
		runs.Add(1)
	})
	require.NoError(t, s.Start())
	s.Stop()

	n := runs.Load()
	time.Sleep(1500 * time.Millisecond)
	assert.Equal(t, n, runs.Load(), "no runs after Stop")
}

// TestSchedulerSubSecondInterval verifies intervals below one second are
// clamped up rather than rejected.
func TestSchedulerSubSecondInterval(t *testing.T) {
	s := New("test", 100*time.Millisecond, func() {})
	require.NoError(t, s.Start())
	s.Stop()
}
