package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestWorkerProcessesQueuedJobs(t *testing.T) {
	w := NewWorker(2)
	defer w.Shutdown()

	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		w.Enqueue(func(ctx context.Context) error {
			ran.Add(1)
			return nil
		})
	}

	waitFor(t, func() bool { return ran.Load() == 5 })
	waitFor(t, func() bool { return w.GetStats().CompletedJobs == 5 })
}

func TestWorkerCountsFailures(t *testing.T) {
	w := NewWorker(1)
	defer w.Shutdown()

	w.Enqueue(func(ctx context.Context) error {
		return errors.New("boom")
	})

	waitFor(t, func() bool {
		stats := w.GetStats()
		return stats.FailedJobs == 1 && stats.CompletedJobs == 1
	})
}

func TestWorkerEnqueueAsync(t *testing.T) {
	w := NewWorker(1)
	defer w.Shutdown()

	done := make(chan struct{})
	w.EnqueueAsync(func(ctx context.Context) error {
		close(done)
		return nil
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("async job did not run")
	}
}

func TestWorkerScheduleEveryImmediate(t *testing.T) {
	w := NewWorker(1)
	defer w.Shutdown()

	var runs atomic.Int32
	w.ScheduleEveryImmediate(20*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})

	// First run fires at startup, later runs on the ticker
	waitFor(t, func() bool { return runs.Load() >= 2 })
}

func TestWorkerShutdownStopsScheduling(t *testing.T) {
	w := NewWorker(1)

	var runs atomic.Int32
	w.ScheduleEvery(10*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})

	waitFor(t, func() bool { return runs.Load() >= 1 })
	w.Shutdown()

	settled := runs.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, runs.Load(), "no runs after shutdown")
}
