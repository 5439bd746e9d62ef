package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hatolabs/hato/internal/notification/engine"
	"github.com/hatolabs/hato/internal/notification/entity"
	"github.com/hatolabs/hato/internal/pkg/valueobject"
)

type ConsumeVaccinationDueInput struct {
	EventID  string `validate:"required"`
	RanchID  int64  `validate:"required,gt=0"`
	BovineID int64  `validate:"required,gt=0"`
	EarTag   string `validate:"required"`
	Vaccine  string `validate:"required"`
	DueDate  string `validate:"required,datetime=2006-01-02"`
}

func (s *Usecase) ConsumeVaccinationDue(ctx context.Context, in ConsumeVaccinationDueInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeVaccinationDue")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "validation failed", "error", err)
		return nil
	}

	dueDate, err := time.Parse("2006-01-02", in.DueDate)
	if err != nil {
		slog.ErrorContext(ctx, "invalid due date", "due_date", in.DueDate, "error", err)
		return nil
	}

	return s.idem.Exec(ctx, "notification:vaccination_due:"+in.EventID, func(ctx context.Context) error {
		recipients, err := s.collectRoleRecipients(ctx, in.RanchID, "veterinarian")
		if err != nil {
			return err
		}
		if len(recipients) == 0 {
			slog.WarnContext(ctx, "no veterinarians for vaccination reminder", "ranch_id", in.RanchID)
			return nil
		}

		_, err = s.engine.Submit(ctx, engine.SubmitInput{
			Kind:     entity.KindVaccinationDue,
			Title:    fmt.Sprintf("Vaccination due: %s", in.EarTag),
			Message:  fmt.Sprintf("Bovine %s is due for %s on %s.", in.EarTag, in.Vaccine, dueDate.Format("Jan 2, 2006")),
			Priority: entity.PriorityMedium,
			Channels: []entity.Channel{entity.ChannelInApp, entity.ChannelEmail},
			Payload: entity.VaccinationDuePayload{
				BovineID: in.BovineID,
				EarTag:   in.EarTag,
				Vaccine:  in.Vaccine,
				DueDate:  dueDate,
			},
			Recipients: recipients,
			Metadata:   valueobject.JSONMap{"ranch_id": in.RanchID, "event_id": in.EventID},
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to submit vaccination reminder", "event_id", in.EventID, "error", err)
			return err
		}

		return nil
	})
}
