package sender

import (
	"context"
	"fmt"
	"time"

	"github.com/hatolabs/hato/internal/notification/entity"
	"github.com/hatolabs/hato/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
)

// SMS delivers short messages through an external SMS gateway.
type SMS struct {
	gw  *gateway
	ins instrument.Instrumentation
}

func NewSMS(baseURL, apiKey string, timeout time.Duration, ins instrument.Instrumentation) *SMS {
	return &SMS{gw: newGateway(baseURL, apiKey, timeout), ins: ins}
}

func (s *SMS) Channel() entity.Channel { return entity.ChannelSMS }

func (s *SMS) Send(ctx context.Context, job *entity.Job, rcpt entity.Recipient) error {
	ctx, span := s.ins.Tracer("notification.outbound.sender").Start(ctx, "SMS.Send")
	defer span.End()

	if rcpt.Phone == "" {
		err := fmt.Errorf("recipient %d has no phone number", rcpt.UserID)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	req := map[string]any{
		"to":   rcpt.Phone,
		"text": job.Title + ": " + job.Message,
	}
	if err := s.gw.post(ctx, "/v1/messages", req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
