package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hatolabs/hato/internal/notification/engine"
	"github.com/hatolabs/hato/internal/notification/entity"
	"github.com/hatolabs/hato/internal/pkg/goerror"
)

type (
	CancelJobInput struct {
		JobID int64 `validate:"required,gt=0"`
	}

	JobStatusInput struct {
		JobID int64 `validate:"required,gt=0"`
	}

	JobStatusOutput struct {
		JobID       int64
		BatchID     string
		Kind        string
		Title       string
		Priority    string
		Status      string
		Attempts    int
		MaxAttempts int
		LastError   string
		ScheduledAt time.Time
		ExpiresAt   time.Time
		CreatedAt   time.Time
		UpdatedAt   time.Time
		Deliveries  []entity.DeliveryLog
	}
)

func (s *Usecase) CancelJob(ctx context.Context, in CancelJobInput) error {
	ctx, span := s.startSpan(ctx, "CancelJob")
	defer span.End()

	if _, err := s.requireAuth(ctx); err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	err := s.engine.Cancel(ctx, in.JobID)
	switch {
	case errors.Is(err, engine.ErrJobNotFound):
		return goerror.NewBusiness("notification job not found", goerror.CodeNotFound)
	case errors.Is(err, engine.ErrJobNotCancellable):
		return goerror.NewBusiness("only pending jobs can be cancelled", goerror.CodeConflict)
	case err != nil:
		slog.ErrorContext(ctx, "failed to cancel notification job", "job_id", in.JobID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}

func (s *Usecase) JobStatus(ctx context.Context, in JobStatusInput) (*JobStatusOutput, error) {
	ctx, span := s.startSpan(ctx, "JobStatus")
	defer span.End()

	if _, err := s.requireAuth(ctx); err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	job, err := s.engine.Status(ctx, in.JobID)
	if errors.Is(err, engine.ErrJobNotFound) {
		return nil, goerror.NewBusiness("notification job not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to get notification job status", "job_id", in.JobID, "error", err)
		return nil, goerror.NewServer(err)
	}

	logs, err := s.repoDB.ListDeliveryLogs(ctx, in.JobID)
	if err != nil {
		slog.WarnContext(ctx, "failed to list delivery logs", "job_id", in.JobID, "error", err)
	}

	return &JobStatusOutput{
		JobID:       job.ID,
		BatchID:     job.BatchID,
		Kind:        job.Kind.String(),
		Title:       job.Title,
		Priority:    job.Priority.String(),
		Status:      job.Status.String(),
		Attempts:    job.Attempts,
		MaxAttempts: job.MaxAttempts,
		LastError:   job.LastError,
		ScheduledAt: job.ScheduledAt,
		ExpiresAt:   job.ExpiresAt,
		CreatedAt:   job.CreatedAt,
		UpdatedAt:   job.UpdatedAt,
		Deliveries:  logs,
	}, nil
}

func (s *Usecase) EngineStats(ctx context.Context) (*engine.Snapshot, error) {
	_, span := s.startSpan(ctx, "EngineStats")
	defer span.End()

	if _, err := s.requireAuth(ctx); err != nil {
		return nil, err
	}

	snap := s.engine.Stats()

	return &snap, nil
}
