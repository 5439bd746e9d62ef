package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hatolabs/hato/internal/notification/engine"
	"github.com/hatolabs/hato/internal/notification/entity"
	"github.com/hatolabs/hato/internal/pkg/valueobject"
)

type ConsumeGeofenceExitInput struct {
	EventID   string  `validate:"required"`
	RanchID   int64   `validate:"required,gt=0"`
	BovineID  int64   `validate:"required,gt=0"`
	EarTag    string  `validate:"required"`
	FenceName string  `validate:"required"`
	Latitude  float64 `validate:"gte=-90,lte=90"`
	Longitude float64 `validate:"gte=-180,lte=180"`
}

func (s *Usecase) ConsumeGeofenceExit(ctx context.Context, in ConsumeGeofenceExitInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeGeofenceExit")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "validation failed", "error", err)
		return nil
	}

	return s.idem.Exec(ctx, "notification:geofence_exit:"+in.EventID, func(ctx context.Context) error {
		recipients, err := s.collectRoleRecipients(ctx, in.RanchID, "worker", "ranch_manager")
		if err != nil {
			return err
		}
		if len(recipients) == 0 {
			slog.WarnContext(ctx, "no recipients for geofence alert", "ranch_id", in.RanchID)
			return nil
		}

		_, err = s.engine.Submit(ctx, engine.SubmitInput{
			Kind:     entity.KindGeofenceAlert,
			Title:    fmt.Sprintf("Geofence exit: %s", in.EarTag),
			Message:  fmt.Sprintf("Bovine %s left %s at %.5f, %.5f.", in.EarTag, in.FenceName, in.Latitude, in.Longitude),
			Priority: entity.PriorityHigh,
			Channels: []entity.Channel{entity.ChannelInApp, entity.ChannelPush, entity.ChannelSMS},
			Payload: entity.GeofenceAlertPayload{
				BovineID:  in.BovineID,
				EarTag:    in.EarTag,
				FenceName: in.FenceName,
				Latitude:  in.Latitude,
				Longitude: in.Longitude,
			},
			Recipients: recipients,
			Metadata:   valueobject.JSONMap{"ranch_id": in.RanchID, "event_id": in.EventID},
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to submit geofence alert", "event_id", in.EventID, "error", err)
			return err
		}

		return nil
	})
}
