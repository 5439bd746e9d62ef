package engine

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/hatolabs/hato/internal/notification/entity"
	"github.com/hatolabs/hato/internal/pkg/clock"
	"go.uber.org/atomic"
)

var (
	// ErrJobNotFound reports an id the queue has never seen or already pruned.
	ErrJobNotFound = errors.New("job not found")

	// ErrJobNotCancellable reports a cancel on a job past the pending state.
	ErrJobNotCancellable = errors.New("job is not pending")
)

// DispatchFunc performs the actual fan-out for one drained job.
type DispatchFunc func(ctx context.Context, job *entity.Job) entity.DispatchResult

// QueueConfig tunes one queue instance.
type QueueConfig struct {
	Name         string
	TickInterval time.Duration
	RetryDelay   time.Duration // zero disables retry
	MaxAttempts  int
	Retention    time.Duration
	MaxRetained  int
}

type queuedJob struct {
	job    *entity.Job
	seq    uint64
	doneAt time.Time
}

type queueCmd struct {
	enqueue  *entity.Job
	cancelID int64
	getID    int64
	complete *completion
	drain    bool

	errc chan error
	jobc chan *entity.Job
}

type completion struct {
	jobID  int64
	result entity.DispatchResult
}

// Queue owns a set of in-memory jobs from a single actor goroutine.
// All access goes through the mailbox, so the job table needs no lock;
// dispatch itself runs outside the actor and reports back through the
// same mailbox.
type Queue struct {
	cfg      QueueConfig
	clock    clock.Clocker
	dispatch DispatchFunc
	emit     func(Event)
	logger   *slog.Logger

	mailbox  chan queueCmd
	draining *atomic.Bool
	pending  *atomic.Int64

	jobs map[int64]*queuedJob
	seq  uint64
}

func NewQueue(cfg QueueConfig, clk clock.Clocker, dispatch DispatchFunc, emit func(Event), logger *slog.Logger) *Queue {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 5 * time.Second
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 24 * time.Hour
	}
	if cfg.MaxRetained < 1 {
		cfg.MaxRetained = 1000
	}

	return &Queue{
		cfg:      cfg,
		clock:    clk,
		dispatch: dispatch,
		emit:     emit,
		logger:   logger.With("queue", cfg.Name),
		mailbox:  make(chan queueCmd, 256),
		draining: atomic.NewBool(false),
		pending:  atomic.NewInt64(0),
		jobs:     make(map[int64]*queuedJob),
	}
}

// Run processes the mailbox and drain ticks until ctx is cancelled.
// It must be called exactly once.
func (q *Queue) Run(ctx context.Context) {
	ticker := time.NewTicker(q.cfg.TickInterval)
	defer ticker.Stop()

	q.logger.InfoContext(ctx, "queue started", "tick", q.cfg.TickInterval.String())

	for {
		select {
		case <-ctx.Done():
			q.logger.InfoContext(ctx, "queue stopped", "pending", q.pending.Load())
			return
		case <-ticker.C:
			q.drain(ctx)
		case cmd := <-q.mailbox:
			q.handle(ctx, cmd)
		}
	}
}

// Enqueue hands a job to the actor. The job must already be filtered.
func (q *Queue) Enqueue(ctx context.Context, job *entity.Job) error {
	return q.send(ctx, queueCmd{enqueue: job})
}

// Cancel transitions a pending job to cancelled.
func (q *Queue) Cancel(ctx context.Context, id int64) error {
	cmd := queueCmd{cancelID: id, errc: make(chan error, 1)}
	if err := q.send(ctx, cmd); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-cmd.errc:
		return err
	}
}

// Get returns a snapshot copy of the job, or ErrJobNotFound.
func (q *Queue) Get(ctx context.Context, id int64) (*entity.Job, error) {
	cmd := queueCmd{getID: id, jobc: make(chan *entity.Job, 1)}
	if err := q.send(ctx, cmd); err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case job := <-cmd.jobc:
		if job == nil {
			return nil, ErrJobNotFound
		}
		return job, nil
	}
}

// TriggerDrain asks the actor for an immediate drain pass, ahead of the
// next tick.
func (q *Queue) TriggerDrain(ctx context.Context) error {
	return q.send(ctx, queueCmd{drain: true})
}

// Pending returns the number of jobs waiting for dispatch.
func (q *Queue) Pending() int64 {
	return q.pending.Load()
}

func (q *Queue) send(ctx context.Context, cmd queueCmd) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case q.mailbox <- cmd:
		return nil
	}
}

func (q *Queue) handle(ctx context.Context, cmd queueCmd) {
	switch {
	case cmd.enqueue != nil:
		q.seq++
		cmd.enqueue.Status = entity.JobStatusPending
		q.jobs[cmd.enqueue.ID] = &queuedJob{job: cmd.enqueue, seq: q.seq}
		q.pending.Inc()

	case cmd.cancelID != 0:
		cmd.errc <- q.doCancel(cmd.cancelID)

	case cmd.getID != 0:
		entry, ok := q.jobs[cmd.getID]
		if !ok {
			cmd.jobc <- nil
			return
		}
		snapshot := *entry.job
		cmd.jobc <- &snapshot

	case cmd.complete != nil:
		q.doComplete(ctx, cmd.complete)

	case cmd.drain:
		q.drain(ctx)
	}
}

func (q *Queue) doCancel(id int64) error {
	entry, ok := q.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	if entry.job.Status != entity.JobStatusPending {
		return ErrJobNotCancellable
	}

	now := q.clock.Now()
	entry.job.Status = entity.JobStatusCancelled
	entry.job.UpdatedAt = now
	entry.doneAt = now
	q.pending.Dec()
	q.emit(Event{
		Type:     EventCancelled,
		JobID:    entry.job.ID,
		BatchID:  entry.job.BatchID,
		Kind:     entry.job.Kind,
		Priority: entry.job.Priority,
		KindName: entry.job.Kind.String(),
		PrioName: entry.job.Priority.String(),
		At:       now,
	})

	return nil
}

// drain runs one pass: expire, pick eligible jobs in priority order,
// mark them processing and hand them to the dispatcher. A pass that
// arrives while the previous batch is still in flight is a no-op.
func (q *Queue) drain(ctx context.Context) {
	if !q.draining.CompareAndSwap(false, true) {
		return
	}

	now := q.clock.Now()
	q.expire(now)

	batch := q.eligible(now)
	if len(batch) == 0 {
		q.prune(now)
		q.draining.Store(false)
		return
	}

	remaining := atomic.NewInt64(int64(len(batch)))
	for _, entry := range batch {
		entry.job.Attempts++
		entry.job.Status = entity.JobStatusProcessing
		entry.job.UpdatedAt = now
		q.pending.Dec()
		q.emit(Event{
			Type:     EventProcessing,
			JobID:    entry.job.ID,
			BatchID:  entry.job.BatchID,
			Kind:     entry.job.Kind,
			Priority: entry.job.Priority,
			KindName: entry.job.Kind.String(),
			PrioName: entry.job.Priority.String(),
			At:       now,
		})

		snapshot := *entry.job
		go func() {
			result := q.dispatch(ctx, &snapshot)
			if remaining.Dec() == 0 {
				q.draining.Store(false)
			}

			select {
			case <-ctx.Done():
			case q.mailbox <- queueCmd{complete: &completion{jobID: snapshot.ID, result: result}}:
			}
		}()
	}

	q.prune(now)
}

func (q *Queue) expire(now time.Time) {
	for _, entry := range q.jobs {
		if entry.job.Status != entity.JobStatusPending || !entry.job.Expired(now) {
			continue
		}

		entry.job.Status = entity.JobStatusExpired
		entry.job.UpdatedAt = now
		entry.doneAt = now
		q.pending.Dec()
		q.emit(Event{
			Type:     EventExpired,
			JobID:    entry.job.ID,
			BatchID:  entry.job.BatchID,
			Kind:     entry.job.Kind,
			Priority: entry.job.Priority,
			KindName: entry.job.Kind.String(),
			PrioName: entry.job.Priority.String(),
			At:       now,
		})
	}
}

func (q *Queue) eligible(now time.Time) []*queuedJob {
	var batch []*queuedJob
	for _, entry := range q.jobs {
		if entry.job.Eligible(now) {
			batch = append(batch, entry)
		}
	}

	sort.Slice(batch, func(i, j int) bool {
		if batch[i].job.Priority != batch[j].job.Priority {
			return batch[i].job.Priority > batch[j].job.Priority
		}
		return batch[i].seq < batch[j].seq
	})

	return batch
}

func (q *Queue) doComplete(ctx context.Context, c *completion) {
	entry, ok := q.jobs[c.jobID]
	if !ok {
		return
	}

	now := q.clock.Now()
	job := entry.job
	job.UpdatedAt = now
	job.LastError = c.result.FirstError()

	if c.result.Succeeded() {
		job.Status = entity.JobStatusSent
		entry.doneAt = now
		q.emit(Event{
			Type:     EventSent,
			JobID:    job.ID,
			BatchID:  job.BatchID,
			Kind:     job.Kind,
			Priority: job.Priority,
			KindName: job.Kind.String(),
			PrioName: job.Priority.String(),
			Outcomes: c.result.Outcomes,
			At:       now,
		})
		return
	}

	if q.cfg.RetryDelay > 0 && job.Attempts < q.cfg.MaxAttempts {
		job.Status = entity.JobStatusPending
		job.ScheduledAt = now.Add(time.Duration(job.Attempts) * q.cfg.RetryDelay)
		q.pending.Inc()
		q.logger.WarnContext(ctx, "dispatch failed, retry scheduled",
			"job_id", job.ID,
			"attempt", job.Attempts,
			"next_at", job.ScheduledAt,
			"error", job.LastError)
		return
	}

	job.Status = entity.JobStatusFailed
	entry.doneAt = now
	q.logger.ErrorContext(ctx, "dispatch failed permanently",
		"job_id", job.ID,
		"attempts", job.Attempts,
		"error", job.LastError)
	q.emit(Event{
		Type:     EventFailed,
		JobID:    job.ID,
		BatchID:  job.BatchID,
		Kind:     job.Kind,
		Priority: job.Priority,
		KindName: job.Kind.String(),
		PrioName: job.Priority.String(),
		Outcomes: c.result.Outcomes,
		At:       now,
	})
}

// prune drops terminal jobs past retention, then the oldest terminal
// jobs beyond the retained cap. Pending and processing jobs are never
// evicted.
func (q *Queue) prune(now time.Time) {
	cutoff := now.Add(-q.cfg.Retention)

	var terminal []*queuedJob
	for id, entry := range q.jobs {
		if !entry.job.Status.Terminal() {
			continue
		}
		if !entry.doneAt.IsZero() && entry.doneAt.Before(cutoff) {
			delete(q.jobs, id)
			continue
		}
		terminal = append(terminal, entry)
	}

	overflow := len(q.jobs) - q.cfg.MaxRetained
	if overflow <= 0 {
		return
	}

	sort.Slice(terminal, func(i, j int) bool { return terminal[i].seq < terminal[j].seq })
	for i := 0; i < overflow && i < len(terminal); i++ {
		delete(q.jobs, terminal[i].job.ID)
	}
}
