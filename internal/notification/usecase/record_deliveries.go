package usecase

import (
	"context"
	"log/slog"

	"github.com/hatolabs/hato/internal/notification/engine"
	"github.com/hatolabs/hato/internal/notification/entity"
)

// RecordDeliveries consumes lifecycle events and persists a delivery
// log row per channel outcome, so the audit trail survives the
// in-memory queue's retention prune. It runs until ctx is done.
func (s *Usecase) RecordDeliveries(ctx context.Context) error {
	events := s.engine.Subscribe(ctx)

	for evt := range events {
		var status entity.JobStatus
		switch evt.Type {
		case engine.EventSent:
			status = entity.JobStatusSent
		case engine.EventFailed:
			status = entity.JobStatusFailed
		default:
			continue
		}

		for _, outcome := range evt.Outcomes {
			dl := entity.DeliveryLog{
				JobID:     evt.JobID,
				BatchID:   evt.BatchID,
				Channel:   outcome.Channel,
				Kind:      evt.Kind,
				Priority:  evt.Priority,
				Status:    status,
				Succeeded: outcome.Succeeded,
				Failed:    outcome.Failed,
				LastError: outcome.LastError,
			}
			if err := s.repoDB.CreateDeliveryLog(ctx, dl); err != nil {
				slog.ErrorContext(ctx, "failed to repo create delivery log",
					"job_id", evt.JobID, "channel", outcome.Channel.String(), "error", err)
			}
		}
	}

	return nil
}
