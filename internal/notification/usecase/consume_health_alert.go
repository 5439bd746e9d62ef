package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hatolabs/hato/internal/notification/engine"
	"github.com/hatolabs/hato/internal/notification/entity"
	"github.com/hatolabs/hato/internal/pkg/valueobject"
)

type ConsumeHealthAlertInput struct {
	EventID  string `validate:"required"`
	RanchID  int64  `validate:"required,gt=0"`
	BovineID int64  `validate:"required,gt=0"`
	EarTag   string `validate:"required"`
	Symptom  string `validate:"required"`
	Severity string `validate:"required,oneof=low medium high critical"`
}

// ConsumeHealthAlert turns a herd health event into notifications for
// the ranch's veterinarians and managers. Critical severity escalates
// the priority and adds the SMS channel.
func (s *Usecase) ConsumeHealthAlert(ctx context.Context, in ConsumeHealthAlertInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeHealthAlert")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "validation failed", "error", err)
		return nil
	}

	return s.idem.Exec(ctx, "notification:health_alert:"+in.EventID, func(ctx context.Context) error {
		recipients, err := s.collectRoleRecipients(ctx, in.RanchID, "veterinarian", "ranch_manager")
		if err != nil {
			return err
		}
		if len(recipients) == 0 {
			slog.WarnContext(ctx, "no recipients for health alert", "ranch_id", in.RanchID)
			return nil
		}

		priority := entity.PriorityHigh
		channels := []entity.Channel{entity.ChannelInApp, entity.ChannelPush, entity.ChannelEmail}
		if in.Severity == "critical" {
			priority = entity.PriorityCritical
			channels = append(channels, entity.ChannelSMS)
		}

		_, err = s.engine.Submit(ctx, engine.SubmitInput{
			Kind:     entity.KindHealthAlert,
			Title:    fmt.Sprintf("Health alert: %s (%s)", in.EarTag, strings.ToUpper(in.Severity)),
			Message:  fmt.Sprintf("Bovine %s shows %s. Severity: %s.", in.EarTag, in.Symptom, in.Severity),
			Priority: priority,
			Channels: channels,
			Payload: entity.HealthAlertPayload{
				BovineID: in.BovineID,
				EarTag:   in.EarTag,
				Symptom:  in.Symptom,
				Severity: in.Severity,
			},
			Recipients: recipients,
			Metadata:   valueobject.JSONMap{"ranch_id": in.RanchID, "event_id": in.EventID},
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to submit health alert notification", "event_id", in.EventID, "error", err)
			return err
		}

		return nil
	})
}

// collectRoleRecipients merges the recipients of several roles,
// deduplicating users holding more than one.
func (s *Usecase) collectRoleRecipients(ctx context.Context, ranchID int64, roles ...string) ([]entity.Recipient, error) {
	seen := make(map[int64]struct{})

	var out []entity.Recipient
	for _, role := range roles {
		recipients, err := s.repoDB.ListRecipientsByRole(ctx, role, ranchID)
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo list recipients by role", "role", role, "error", err)
			return nil, err
		}
		for _, rcpt := range recipients {
			if _, ok := seen[rcpt.UserID]; ok {
				continue
			}
			seen[rcpt.UserID] = struct{}{}
			out = append(out, rcpt)
		}
	}

	return out, nil
}
