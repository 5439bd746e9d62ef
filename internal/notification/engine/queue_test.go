package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hatolabs/hato/internal/notification/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var queueTestBase = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

// countingDispatch records dispatched jobs in completion order and
// returns canned results.
type countingDispatch struct {
	mu      sync.Mutex
	jobs    []int64
	failing bool
}

func (d *countingDispatch) fn(_ context.Context, job *entity.Job) entity.DispatchResult {
	d.mu.Lock()
	d.jobs = append(d.jobs, job.ID)
	d.mu.Unlock()

	outcome := entity.ChannelOutcome{Channel: entity.ChannelInApp, Succeeded: 1}
	if d.failing {
		outcome = entity.ChannelOutcome{Channel: entity.ChannelInApp, Failed: 1, LastError: "boom"}
	}
	return entity.DispatchResult{JobID: job.ID, Outcomes: []entity.ChannelOutcome{outcome}}
}

func (d *countingDispatch) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.jobs)
}

func startQueue(t *testing.T, cfg QueueConfig, clk *fakeClock, dispatch DispatchFunc, log *eventLog) *Queue {
	t.Helper()

	if cfg.TickInterval == 0 {
		cfg.TickInterval = time.Hour // ticks never fire, tests drain manually
	}
	q := NewQueue(cfg, clk, dispatch, log.emit, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go q.Run(ctx)

	return q
}

func pendingJob(id int64, prio entity.Priority) *entity.Job {
	return &entity.Job{
		ID:          id,
		Kind:        entity.KindHealthAlert,
		Title:       "t",
		Message:     "m",
		Priority:    prio,
		Channels:    []entity.Channel{entity.ChannelInApp},
		Recipients:  []entity.Recipient{{UserID: 1}},
		ScheduledAt: queueTestBase,
		Status:      entity.JobStatusPending,
	}
}

func waitStatus(t *testing.T, q *Queue, id int64, want entity.JobStatus) *entity.Job {
	t.Helper()

	var job *entity.Job
	require.Eventually(t, func() bool {
		got, err := q.Get(context.Background(), id)
		if err != nil {
			return false
		}
		job = got
		return got.Status == want
	}, 2*time.Second, 5*time.Millisecond, "job %d never reached %s", id, want)

	return job
}

func TestQueueDispatchLifecycle(t *testing.T) {
	clk := newFakeClock(queueTestBase)
	dispatch := &countingDispatch{}
	log := &eventLog{}
	q := startQueue(t, QueueConfig{Name: "general"}, clk, dispatch.fn, log)

	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, pendingJob(1, entity.PriorityMedium)))
	require.NoError(t, q.TriggerDrain(ctx))

	job := waitStatus(t, q, 1, entity.JobStatusSent)
	assert.Equal(t, 1, job.Attempts)
	assert.Empty(t, job.LastError)
	assert.EqualValues(t, 0, q.Pending())

	types := []EventType{}
	for _, evt := range log.all() {
		types = append(types, evt.Type)
	}
	assert.Equal(t, []EventType{EventProcessing, EventSent}, types)
}

func TestQueuePriorityOrdering(t *testing.T) {
	clk := newFakeClock(queueTestBase)
	dispatch := &countingDispatch{}
	log := &eventLog{}
	q := startQueue(t, QueueConfig{Name: "general"}, clk, dispatch.fn, log)

	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, pendingJob(1, entity.PriorityLow)))
	require.NoError(t, q.Enqueue(ctx, pendingJob(2, entity.PriorityCritical)))
	require.NoError(t, q.Enqueue(ctx, pendingJob(3, entity.PriorityMedium)))
	require.NoError(t, q.Enqueue(ctx, pendingJob(4, entity.PriorityMedium)))
	require.NoError(t, q.TriggerDrain(ctx))

	for _, id := range []int64{1, 2, 3, 4} {
		waitStatus(t, q, id, entity.JobStatusSent)
	}

	// highest priority first, insertion order breaks ties
	assert.Equal(t, []int64{2, 3, 4, 1}, log.jobIDsOf(EventProcessing))
}

func TestQueueRetryWithLinearBackoff(t *testing.T) {
	clk := newFakeClock(queueTestBase)
	dispatch := &countingDispatch{failing: true}
	log := &eventLog{}
	q := startQueue(t, QueueConfig{
		Name:        "email",
		RetryDelay:  time.Minute,
		MaxAttempts: 3,
	}, clk, dispatch.fn, log)

	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, pendingJob(1, entity.PriorityMedium)))

	// attempt 1 fails, retry scheduled one delay out
	require.NoError(t, q.TriggerDrain(ctx))
	require.Eventually(t, func() bool {
		job, err := q.Get(ctx, 1)
		return err == nil && job.Status == entity.JobStatusPending && job.Attempts == 1
	}, 2*time.Second, 5*time.Millisecond)

	job, err := q.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, queueTestBase.Add(time.Minute), job.ScheduledAt)
	assert.Equal(t, "boom", job.LastError)

	// not yet due: a drain before the backoff elapses is a no-op
	require.NoError(t, q.TriggerDrain(ctx))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, dispatch.count())

	// attempt 2 fails, backoff grows linearly with the attempt count
	clk.Advance(61 * time.Second)
	require.NoError(t, q.TriggerDrain(ctx))
	require.Eventually(t, func() bool {
		job, err := q.Get(ctx, 1)
		return err == nil && job.Status == entity.JobStatusPending && job.Attempts == 2
	}, 2*time.Second, 5*time.Millisecond)

	job, err = q.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, clk.Now().Add(2*time.Minute), job.ScheduledAt)

	// attempt 3 exhausts the budget
	clk.Advance(3 * time.Minute)
	require.NoError(t, q.TriggerDrain(ctx))
	job = waitStatus(t, q, 1, entity.JobStatusFailed)
	assert.Equal(t, 3, job.Attempts)
	assert.Equal(t, 3, dispatch.count())
	assert.Len(t, log.jobIDsOf(EventFailed), 1)
}

func TestQueueNoRetryWithoutDelay(t *testing.T) {
	clk := newFakeClock(queueTestBase)
	dispatch := &countingDispatch{failing: true}
	log := &eventLog{}
	q := startQueue(t, QueueConfig{Name: "general"}, clk, dispatch.fn, log)

	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, pendingJob(1, entity.PriorityMedium)))
	require.NoError(t, q.TriggerDrain(ctx))

	job := waitStatus(t, q, 1, entity.JobStatusFailed)
	assert.Equal(t, 1, job.Attempts)
	assert.Equal(t, 1, dispatch.count())
}

func TestQueueExpiry(t *testing.T) {
	clk := newFakeClock(queueTestBase)
	dispatch := &countingDispatch{}
	log := &eventLog{}
	q := startQueue(t, QueueConfig{Name: "general"}, clk, dispatch.fn, log)

	ctx := context.Background()
	job := pendingJob(1, entity.PriorityCritical)
	job.ExpiresAt = queueTestBase.Add(-time.Second)
	require.NoError(t, q.Enqueue(ctx, job))
	require.NoError(t, q.TriggerDrain(ctx))

	got := waitStatus(t, q, 1, entity.JobStatusExpired)
	assert.Equal(t, 0, got.Attempts, "expired jobs never reach the dispatcher")
	assert.Equal(t, 0, dispatch.count())
	assert.Len(t, log.jobIDsOf(EventExpired), 1)
}

func TestQueueCancel(t *testing.T) {
	clk := newFakeClock(queueTestBase)
	dispatch := &countingDispatch{}
	log := &eventLog{}
	q := startQueue(t, QueueConfig{Name: "general"}, clk, dispatch.fn, log)
	ctx := context.Background()

	t.Run("PendingJob", func(t *testing.T) {
		job := pendingJob(1, entity.PriorityMedium)
		job.ScheduledAt = queueTestBase.Add(time.Hour)
		require.NoError(t, q.Enqueue(ctx, job))

		require.NoError(t, q.Cancel(ctx, 1))

		got, err := q.Get(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, entity.JobStatusCancelled, got.Status)
		assert.EqualValues(t, 0, q.Pending())
	})

	t.Run("AlreadyCancelled", func(t *testing.T) {
		assert.ErrorIs(t, q.Cancel(ctx, 1), ErrJobNotCancellable)
	})

	t.Run("AlreadySent", func(t *testing.T) {
		require.NoError(t, q.Enqueue(ctx, pendingJob(2, entity.PriorityMedium)))
		require.NoError(t, q.TriggerDrain(ctx))
		waitStatus(t, q, 2, entity.JobStatusSent)

		assert.ErrorIs(t, q.Cancel(ctx, 2), ErrJobNotCancellable)
	})

	t.Run("UnknownJob", func(t *testing.T) {
		assert.ErrorIs(t, q.Cancel(ctx, 999), ErrJobNotFound)
	})
}

func TestQueueGetUnknown(t *testing.T) {
	clk := newFakeClock(queueTestBase)
	q := startQueue(t, QueueConfig{Name: "general"}, clk, (&countingDispatch{}).fn, &eventLog{})

	_, err := q.Get(context.Background(), 404)
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestQueuePrune(t *testing.T) {
	ctx := context.Background()

	t.Run("RetentionWindow", func(t *testing.T) {
		clk := newFakeClock(queueTestBase)
		q := startQueue(t, QueueConfig{Name: "general", Retention: time.Hour}, clk, (&countingDispatch{}).fn, &eventLog{})

		require.NoError(t, q.Enqueue(ctx, pendingJob(1, entity.PriorityMedium)))
		require.NoError(t, q.TriggerDrain(ctx))
		waitStatus(t, q, 1, entity.JobStatusSent)

		clk.Advance(2 * time.Hour)
		require.NoError(t, q.TriggerDrain(ctx))

		require.Eventually(t, func() bool {
			_, err := q.Get(ctx, 1)
			return errors.Is(err, ErrJobNotFound)
		}, 2*time.Second, 5*time.Millisecond)
	})

	t.Run("RetainedCap", func(t *testing.T) {
		clk := newFakeClock(queueTestBase)
		q := startQueue(t, QueueConfig{Name: "general", MaxRetained: 1}, clk, (&countingDispatch{}).fn, &eventLog{})

		for id := int64(1); id <= 3; id++ {
			require.NoError(t, q.Enqueue(ctx, pendingJob(id, entity.PriorityMedium)))
		}
		require.NoError(t, q.TriggerDrain(ctx))
		waitStatus(t, q, 3, entity.JobStatusSent)

		// next pass prunes the two oldest terminal jobs
		require.NoError(t, q.TriggerDrain(ctx))
		require.Eventually(t, func() bool {
			_, err1 := q.Get(ctx, 1)
			_, err2 := q.Get(ctx, 2)
			return errors.Is(err1, ErrJobNotFound) && errors.Is(err2, ErrJobNotFound)
		}, 2*time.Second, 5*time.Millisecond)

		_, err := q.Get(ctx, 3)
		assert.NoError(t, err, "newest terminal job stays within the cap")
	})

	t.Run("PendingNeverEvicted", func(t *testing.T) {
		clk := newFakeClock(queueTestBase)
		q := startQueue(t, QueueConfig{Name: "general", Retention: time.Hour, MaxRetained: 1}, clk, (&countingDispatch{}).fn, &eventLog{})

		future := pendingJob(1, entity.PriorityMedium)
		future.ScheduledAt = queueTestBase.Add(100 * time.Hour)
		require.NoError(t, q.Enqueue(ctx, future))

		clk.Advance(50 * time.Hour)
		require.NoError(t, q.TriggerDrain(ctx))

		got, err := q.Get(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, entity.JobStatusPending, got.Status)
	})
}
