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
	SubmitBulkInput struct {
		Kind       string                 `validate:"required,oneof=health_alert vaccination_due inventory_alert geofence_alert system"`
		Title      string                 `validate:"required,max=200"`
		Message    string                 `validate:"required,max=2000"`
		Priority   string                 `validate:"omitempty,oneof=low medium high critical"`
		Channels   []string               `validate:"required,min=1,dive,oneof=in_app email sms push whatsapp webhook"`
		Recipients []SubmitRecipientInput `validate:"required_without=Role,omitempty,dive"`
		// Role selects recipients server-side instead of an explicit list.
		Role        string `validate:"required_without=Recipients,omitempty,oneof=owner ranch_manager veterinarian worker"`
		RanchID     int64  `validate:"omitempty,gt=0"`
		ScheduledAt *time.Time
		ExpiresAt   *time.Time
		Metadata    valueobject.JSONMap
	}

	SubmitBulkOutput struct {
		BatchID    string
		JobIDs     []int64
		Chunks     int
		Recipients int
	}
)

// SubmitBulk fans one message out to a large audience, either an
// explicit recipient list or everyone holding a role on a ranch. The
// engine splits the audience into fixed-size chunks sharing a batch id.
func (s *Usecase) SubmitBulk(ctx context.Context, in SubmitBulkInput) (*SubmitBulkOutput, error) {
	ctx, span := s.startSpan(ctx, "SubmitBulk")
	defer span.End()

	if _, err := s.requireAuth(ctx); err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	recipients, err := s.resolveBulkRecipients(ctx, in)
	if err != nil {
		return nil, err
	}
	if len(recipients) == 0 {
		return nil, goerror.NewBusiness("no recipients matched the selection", goerror.CodeNotFound)
	}

	channels := make([]entity.Channel, 0, len(in.Channels))
	for _, raw := range in.Channels {
		channels = append(channels, entity.ChannelFromString(raw))
	}

	engineIn := engine.SubmitInput{
		Kind:       entity.KindFromString(in.Kind),
		Title:      in.Title,
		Message:    in.Message,
		Priority:   entity.PriorityFromString(in.Priority),
		Channels:   channels,
		Recipients: recipients,
		Metadata:   in.Metadata,
	}
	if in.ScheduledAt != nil {
		engineIn.ScheduledAt = *in.ScheduledAt
	}
	if in.ExpiresAt != nil {
		engineIn.ExpiresAt = *in.ExpiresAt
	}

	result, err := s.engine.SubmitBulk(ctx, engineIn)
	if err != nil {
		if errors.Is(err, engine.ErrInvalidSubmission) {
			return nil, goerror.NewBusiness(err.Error(), goerror.CodeInvalidFormat)
		}
		slog.ErrorContext(ctx, "failed to submit bulk notification", "error", err)
		return nil, goerror.NewServer(err)
	}

	return &SubmitBulkOutput{
		BatchID:    result.BatchID,
		JobIDs:     result.JobIDs,
		Chunks:     result.Chunks,
		Recipients: len(recipients),
	}, nil
}

func (s *Usecase) resolveBulkRecipients(ctx context.Context, in SubmitBulkInput) ([]entity.Recipient, error) {
	if in.Role != "" {
		recipients, err := s.repoDB.ListRecipientsByRole(ctx, in.Role, in.RanchID)
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo list recipients by role",
				"role", in.Role, "ranch_id", in.RanchID, "error", err)
			return nil, goerror.NewServer(err)
		}
		return recipients, nil
	}

	wantsPush := slices.Contains(in.Channels, entity.ChannelPush.String())

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

	return recipients, nil
}
