package usecase

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/hatolabs/hato/internal/notification/engine"
	"github.com/hatolabs/hato/internal/notification/entity"
	"github.com/hatolabs/hato/internal/pkg/goerror"
	"github.com/hatolabs/hato/internal/pkg/valueobject"
)

type (
	SubmitRecipientInput struct {
		UserID     int64    `validate:"required,gt=0"`
		Email      string   `validate:"omitempty,email"`
		Phone      string   `validate:"omitempty,e164"`
		WebhookURL string   `validate:"omitempty,url"`
		Channels   []string `validate:"omitempty,dive,oneof=in_app email sms push whatsapp webhook"`
	}

	SubmitInput struct {
		Kind        string                 `validate:"required,oneof=health_alert vaccination_due inventory_alert geofence_alert system"`
		Title       string                 `validate:"required,max=200"`
		Message     string                 `validate:"required,max=2000"`
		Priority    string                 `validate:"omitempty,oneof=low medium high critical"`
		Channels    []string               `validate:"required,min=1,dive,oneof=in_app email sms push whatsapp webhook"`
		Recipients  []SubmitRecipientInput `validate:"required,min=1,dive"`
		ScheduledAt *time.Time
		ExpiresAt   *time.Time
		Metadata    valueobject.JSONMap
	}

	SubmitOutput struct {
		JobID int64
	}
)

func (s *Usecase) Submit(ctx context.Context, in SubmitInput) (*SubmitOutput, error) {
	ctx, span := s.startSpan(ctx, "Submit")
	defer span.End()

	if _, err := s.requireAuth(ctx); err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	engineIn, err := s.buildSubmitInput(ctx, in)
	if err != nil {
		return nil, err
	}

	id, err := s.engine.Submit(ctx, engineIn)
	if err != nil {
		if errors.Is(err, engine.ErrInvalidSubmission) {
			return nil, goerror.NewBusiness(err.Error(), goerror.CodeInvalidFormat)
		}
		slog.ErrorContext(ctx, "failed to submit notification", "error", err)
		return nil, goerror.NewServer(err)
	}

	return &SubmitOutput{JobID: id}, nil
}

// buildSubmitInput maps the transport-level input to the engine's and
// resolves registered device tokens when push delivery is requested.
func (s *Usecase) buildSubmitInput(ctx context.Context, in SubmitInput) (engine.SubmitInput, error) {
	channels := make([]entity.Channel, 0, len(in.Channels))
	for _, raw := range in.Channels {
		channels = append(channels, entity.ChannelFromString(raw))
	}
	wantsPush := slices.Contains(channels, entity.ChannelPush)

	recipients := make([]entity.Recipient, 0, len(in.Recipients))
	for _, r := range in.Recipients {
		rcpt := entity.Recipient{
			UserID:     r.UserID,
			Email:      r.Email,
			Phone:      r.Phone,
			WebhookURL: r.WebhookURL,
		}
		for _, raw := range r.Channels {
			rcpt.Channels = append(rcpt.Channels, entity.ChannelFromString(raw))
		}

		if wantsPush {
			tokens, err := s.repoDB.ListDeviceTokens(ctx, r.UserID)
			if err != nil {
				slog.WarnContext(ctx, "failed to list device tokens", "user_id", r.UserID, "error", err)
			}
			rcpt.DeviceTokens = tokens
		}

		recipients = append(recipients, rcpt)
	}

	out := engine.SubmitInput{
		Kind:       entity.KindFromString(in.Kind),
		Title:      in.Title,
		Message:    in.Message,
		Priority:   entity.PriorityFromString(in.Priority),
		Channels:   channels,
		Recipients: recipients,
		Metadata:   in.Metadata,
	}
	if in.ScheduledAt != nil {
		out.ScheduledAt = *in.ScheduledAt
	}
	if in.ExpiresAt != nil {
		out.ExpiresAt = *in.ExpiresAt
	}

	return out, nil
}
