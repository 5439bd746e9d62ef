package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hatolabs/hato/internal/notification/entity"
	"github.com/hatolabs/hato/internal/pkg/clock"
	"github.com/hatolabs/hato/internal/pkg/uid"
	"github.com/hatolabs/hato/internal/pkg/valueobject"
	"github.com/samber/lo"
)

// ErrInvalidSubmission reports a submission that fails basic shape
// checks before it reaches a queue.
var ErrInvalidSubmission = errors.New("invalid submission")

// Config tunes the whole engine. Zero values fall back to defaults.
type Config struct {
	TickInterval      time.Duration
	EmailTickInterval time.Duration
	EmailRetryDelay   time.Duration
	EmailMaxAttempts  int
	BulkChunkSize     int
	Retention         time.Duration
	MaxRetained       int
	// QuietResumeHour is a pointer so an explicit 0 (resume at
	// midnight) is distinguishable from "not configured".
	QuietResumeHour *int
	StatsWindow     time.Duration
}

func DefaultConfig() Config {
	return Config{
		TickInterval:      5 * time.Second,
		EmailTickInterval: 30 * time.Second,
		EmailRetryDelay:   5 * time.Minute,
		EmailMaxAttempts:  3,
		BulkChunkSize:     50,
		Retention:         24 * time.Hour,
		MaxRetained:       1000,
		QuietResumeHour:   lo.ToPtr(8),
		StatsWindow:       time.Hour,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.TickInterval <= 0 {
		c.TickInterval = def.TickInterval
	}
	if c.EmailTickInterval <= 0 {
		c.EmailTickInterval = def.EmailTickInterval
	}
	if c.EmailRetryDelay <= 0 {
		c.EmailRetryDelay = def.EmailRetryDelay
	}
	if c.EmailMaxAttempts < 1 {
		c.EmailMaxAttempts = def.EmailMaxAttempts
	}
	if c.BulkChunkSize < 1 {
		c.BulkChunkSize = def.BulkChunkSize
	}
	if c.Retention <= 0 {
		c.Retention = def.Retention
	}
	if c.MaxRetained < 1 {
		c.MaxRetained = def.MaxRetained
	}
	if c.QuietResumeHour == nil || *c.QuietResumeHour < 0 || *c.QuietResumeHour > 23 {
		c.QuietResumeHour = def.QuietResumeHour
	}
	if c.StatsWindow <= 0 {
		c.StatsWindow = def.StatsWindow
	}
	return c
}

// SubmitInput is one notification request before filtering.
type SubmitInput struct {
	Kind        entity.Kind
	Title       string
	Message     string
	Priority    entity.Priority
	Channels    []entity.Channel
	Recipients  []entity.Recipient
	ScheduledAt time.Time
	ExpiresAt   time.Time
	Payload     entity.Payload
	Metadata    valueobject.JSONMap
	BatchID     string
}

// BulkResult reports the fan-out of one bulk submission.
type BulkResult struct {
	BatchID string
	JobIDs  []int64
	Chunks  int
}

// Snapshot is the engine-level stats view handed to callers.
type Snapshot struct {
	StatsSnapshot
	PendingGeneral  int64 `json:"pending_general"`
	PendingEmail    int64 `json:"pending_email"`
	LifetimeCreated int64 `json:"lifetime_created"`
	LifetimeSent    int64 `json:"lifetime_sent"`
	LifetimeFailed  int64 `json:"lifetime_failed"`
}

// Engine is the lifecycle controller: it validates and routes
// submissions, owns both queue actors, and exposes status, stats and
// the event stream.
type Engine struct {
	cfg    Config
	clock  clock.Clocker
	uid    uid.NumberID
	uuid   uid.StringID
	filter *Filter
	logger *slog.Logger

	general *Queue
	email   *Queue
	hub     *Hub
	stats   *Stats
}

type Dependency struct {
	Config  Config
	Clock   clock.Clocker
	UID     uid.NumberID
	UUID    uid.StringID
	Prefs   PreferenceSource
	Senders []Sender
	Logger  *slog.Logger
}

func New(dep Dependency) *Engine {
	cfg := dep.Config.withDefaults()
	logger := dep.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		cfg:    cfg,
		clock:  dep.Clock,
		uid:    dep.UID,
		uuid:   dep.UUID,
		filter: NewFilter(dep.Prefs, dep.Clock, *cfg.QuietResumeHour, logger),
		logger: logger,
		hub:    NewHub(),
		stats:  NewStats(dep.Clock, 10000),
	}

	dispatcher := NewDispatcher(dep.Senders, logger)
	dispatch := func(ctx context.Context, job *entity.Job) entity.DispatchResult {
		return dispatcher.Dispatch(ctx, job)
	}

	e.general = NewQueue(QueueConfig{
		Name:         "general",
		TickInterval: cfg.TickInterval,
		MaxAttempts:  1,
		Retention:    cfg.Retention,
		MaxRetained:  cfg.MaxRetained,
	}, dep.Clock, dispatch, e.emit, logger)

	e.email = NewQueue(QueueConfig{
		Name:         "email",
		TickInterval: cfg.EmailTickInterval,
		RetryDelay:   cfg.EmailRetryDelay,
		MaxAttempts:  cfg.EmailMaxAttempts,
		Retention:    cfg.Retention,
		MaxRetained:  cfg.MaxRetained,
	}, dep.Clock, dispatch, e.emit, logger)

	return e
}

func (e *Engine) emit(evt Event) {
	e.stats.Record(evt)
	e.hub.Publish(evt)
}

// Run starts both queue actors and blocks until ctx is cancelled and
// both have stopped.
func (e *Engine) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		e.general.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		e.email.Run(ctx)
	}()
	wg.Wait()
}

// Submit validates, filters and enqueues one notification. It returns
// the job id immediately; delivery happens on the next drain tick.
func (e *Engine) Submit(ctx context.Context, in SubmitInput) (int64, error) {
	if err := e.validate(in); err != nil {
		return 0, err
	}

	now := e.clock.Now()
	job := &entity.Job{
		ID:          e.uid.Generate(),
		BatchID:     in.BatchID,
		Kind:        in.Kind,
		Title:       in.Title,
		Message:     in.Message,
		Priority:    in.Priority,
		Channels:    in.Channels,
		Recipients:  in.Recipients,
		ScheduledAt: in.ScheduledAt,
		ExpiresAt:   in.ExpiresAt,
		Status:      entity.JobStatusPending,
		Payload:     in.Payload,
		Metadata:    in.Metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if job.Priority == entity.PriorityUnknown {
		job.Priority = entity.PriorityMedium
	}
	if job.ScheduledAt.IsZero() {
		job.ScheduledAt = now
	}

	filtered := e.filter.Apply(ctx, job)
	if len(filtered.Recipients) == 0 {
		e.logger.WarnContext(ctx, "all recipients filtered out, nothing to deliver",
			"job_id", job.ID, "kind", job.Kind.String())
		e.emit(Event{
			Type:     EventDropped,
			JobID:    job.ID,
			BatchID:  job.BatchID,
			Kind:     job.Kind,
			Priority: job.Priority,
			KindName: job.Kind.String(),
			PrioName: job.Priority.String(),
			At:       now,
		})
		return job.ID, nil
	}
	job.Recipients = filtered.Recipients
	if filtered.DeferUntil.After(job.ScheduledAt) {
		job.ScheduledAt = filtered.DeferUntil
		e.logger.InfoContext(ctx, "delivery deferred for quiet hours",
			"job_id", job.ID, "resume_at", job.ScheduledAt)
	}

	if err := e.route(job).Enqueue(ctx, job); err != nil {
		return 0, err
	}

	e.emit(Event{
		Type:     EventCreated,
		JobID:    job.ID,
		BatchID:  job.BatchID,
		Kind:     job.Kind,
		Priority: job.Priority,
		KindName: job.Kind.String(),
		PrioName: job.Priority.String(),
		At:       now,
	})

	return job.ID, nil
}

// SubmitBulk splits a large recipient list into chunks that share one
// batch id, so a herd-wide alert becomes a handful of ordinary jobs.
func (e *Engine) SubmitBulk(ctx context.Context, in SubmitInput) (BulkResult, error) {
	if err := e.validate(in); err != nil {
		return BulkResult{}, err
	}

	batchID := in.BatchID
	if batchID == "" {
		batchID = e.uuid.Generate()
	}

	chunks := lo.Chunk(in.Recipients, e.cfg.BulkChunkSize)
	result := BulkResult{BatchID: batchID, Chunks: len(chunks)}
	for _, chunk := range chunks {
		chunkIn := in
		chunkIn.Recipients = chunk
		chunkIn.BatchID = batchID

		id, err := e.Submit(ctx, chunkIn)
		if err != nil {
			return result, err
		}
		result.JobIDs = append(result.JobIDs, id)
	}

	return result, nil
}

// Cancel stops a pending job. Jobs already picked up, finished, or
// unknown cannot be cancelled.
func (e *Engine) Cancel(ctx context.Context, id int64) error {
	err := e.general.Cancel(ctx, id)
	if errors.Is(err, ErrJobNotFound) {
		return e.email.Cancel(ctx, id)
	}
	return err
}

// Status returns a snapshot of the job wherever it lives.
func (e *Engine) Status(ctx context.Context, id int64) (*entity.Job, error) {
	job, err := e.general.Get(ctx, id)
	if errors.Is(err, ErrJobNotFound) {
		return e.email.Get(ctx, id)
	}
	return job, err
}

// Subscribe streams lifecycle events until ctx is done.
func (e *Engine) Subscribe(ctx context.Context) <-chan Event {
	return e.hub.Subscribe(ctx)
}

// Stats aggregates the configured trailing window plus queue depths.
func (e *Engine) Stats() Snapshot {
	return Snapshot{
		StatsSnapshot:   e.stats.Snapshot(e.cfg.StatsWindow),
		PendingGeneral:  e.general.Pending(),
		PendingEmail:    e.email.Pending(),
		LifetimeCreated: e.stats.LifetimeCreated(),
		LifetimeSent:    e.stats.LifetimeSent(),
		LifetimeFailed:  e.stats.LifetimeFailed(),
	}
}

// DrainNow forces an immediate drain pass on both queues.
func (e *Engine) DrainNow(ctx context.Context) error {
	if err := e.general.TriggerDrain(ctx); err != nil {
		return err
	}
	return e.email.TriggerDrain(ctx)
}

// route picks the queue for a job: email-only jobs go through the
// retrying email sub-queue, everything else drains fast without retry.
func (e *Engine) route(job *entity.Job) *Queue {
	if len(job.Channels) == 1 && job.Channels[0] == entity.ChannelEmail {
		job.MaxAttempts = e.cfg.EmailMaxAttempts
		return e.email
	}
	job.MaxAttempts = 1
	return e.general
}

func (e *Engine) validate(in SubmitInput) error {
	switch {
	case in.Kind == entity.KindUnknown:
		return fmt.Errorf("%w: kind is required", ErrInvalidSubmission)
	case in.Title == "":
		return fmt.Errorf("%w: title is required", ErrInvalidSubmission)
	case in.Message == "":
		return fmt.Errorf("%w: message is required", ErrInvalidSubmission)
	case len(in.Channels) == 0:
		return fmt.Errorf("%w: at least one channel is required", ErrInvalidSubmission)
	case len(in.Recipients) == 0:
		return fmt.Errorf("%w: at least one recipient is required", ErrInvalidSubmission)
	}

	for _, ch := range in.Channels {
		if ch == entity.ChannelUnknown {
			return fmt.Errorf("%w: unknown channel", ErrInvalidSubmission)
		}
	}
	if !in.ExpiresAt.IsZero() && !in.ScheduledAt.IsZero() && in.ExpiresAt.Before(in.ScheduledAt) {
		return fmt.Errorf("%w: expiry precedes schedule", ErrInvalidSubmission)
	}

	return nil
}
