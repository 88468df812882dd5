package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	done := make(chan string, 2)
	q := NewQueue("reports", func(_ context.Context, job Job) error {
		done <- job.ID
		return nil
	}, QueueConfig{Workers: 2})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "a"}))
	require.NoError(t, q.Enqueue(Job{ID: "b"}))

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case id := <-done:
			seen[id] = true
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for jobs")
		}
	}
	assert.Equal(t, map[string]bool{"a": true, "b": true}, seen)
	assert.Eventually(t, func() bool { return q.Stats().Processed == 2 }, time.Second, 5*time.Millisecond)
}

func TestQueueRetriesThenGivesUp(t *testing.T) {
	var calls atomic.Int32
	q := NewQueue("notifier", func(context.Context, Job) error {
		calls.Add(1)
		return errors.New("boom")
	}, QueueConfig{MaxRetries: 2, RetryDelay: time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "scan"}))

	assert.Eventually(t, func() bool { return q.Stats().Failed == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, int64(2), q.Stats().Retried)
}

func TestQueueRecoversPanics(t *testing.T) {
	q := NewQueue("reports", func(context.Context, Job) error {
		panic("bad payload")
	}, QueueConfig{MaxRetries: 0})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "x"}))
	assert.Eventually(t, func() bool { return q.Stats().Failed == 1 }, time.Second, 5*time.Millisecond)
}

func TestEnqueueBeforeStart(t *testing.T) {
	q := NewQueue("reports", func(context.Context, Job) error { return nil }, QueueConfig{})
	assert.Error(t, q.Enqueue(Job{ID: "early"}))
}

func TestEveryRunsImmediately(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var runs atomic.Int32

	finished := make(chan struct{})
	go func() {
		Every(ctx, time.Hour, func(context.Context) {
			runs.Add(1)
			cancel()
		})
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Every did not return after cancel")
	}
	assert.Equal(t, int32(1), runs.Load())
}
