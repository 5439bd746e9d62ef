package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hatolabs/hato/internal/notification/engine"
	"github.com/hatolabs/hato/internal/notification/entity"
	"github.com/hatolabs/hato/internal/pkg/valueobject"
)

type ConsumeInventoryLowInput struct {
	EventID   string  `validate:"required"`
	RanchID   int64   `validate:"required,gt=0"`
	ItemID    int64   `validate:"required,gt=0"`
	ItemName  string  `validate:"required"`
	Quantity  float64 `validate:"gte=0"`
	Threshold float64 `validate:"gt=0"`
	Unit      string  `validate:"required"`
}

func (s *Usecase) ConsumeInventoryLow(ctx context.Context, in ConsumeInventoryLowInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeInventoryLow")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "validation failed", "error", err)
		return nil
	}

	return s.idem.Exec(ctx, "notification:inventory_low:"+in.EventID, func(ctx context.Context) error {
		recipients, err := s.collectRoleRecipients(ctx, in.RanchID, "ranch_manager")
		if err != nil {
			return err
		}
		if len(recipients) == 0 {
			slog.WarnContext(ctx, "no managers for inventory alert", "ranch_id", in.RanchID)
			return nil
		}

		_, err = s.engine.Submit(ctx, engine.SubmitInput{
			Kind:     entity.KindInventoryAlert,
			Title:    fmt.Sprintf("Low stock: %s", in.ItemName),
			Message:  fmt.Sprintf("%s is down to %.2f %s (threshold %.2f %s).", in.ItemName, in.Quantity, in.Unit, in.Threshold, in.Unit),
			Priority: entity.PriorityMedium,
			Channels: []entity.Channel{entity.ChannelInApp, entity.ChannelEmail},
			Payload: entity.InventoryAlertPayload{
				ItemID:    in.ItemID,
				ItemName:  in.ItemName,
				Quantity:  in.Quantity,
				Threshold: in.Threshold,
				Unit:      in.Unit,
			},
			Recipients: recipients,
			Metadata:   valueobject.JSONMap{"ranch_id": in.RanchID, "event_id": in.EventID},
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to submit inventory alert", "event_id", in.EventID, "error", err)
			return err
		}

		return nil
	})
}
