package sender

import (
	"context"
	"fmt"
	"time"

	"github.com/hatolabs/hato/internal/notification/entity"
	"github.com/hatolabs/hato/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
)

// WhatsApp delivers messages through a WhatsApp Business gateway.
type WhatsApp struct {
	gw  *gateway
	ins instrument.Instrumentation
}

func NewWhatsApp(baseURL, apiKey string, timeout time.Duration, ins instrument.Instrumentation) *WhatsApp {
	return &WhatsApp{gw: newGateway(baseURL, apiKey, timeout), ins: ins}
}

func (w *WhatsApp) Channel() entity.Channel { return entity.ChannelWhatsApp }

func (w *WhatsApp) Send(ctx context.Context, job *entity.Job, rcpt entity.Recipient) error {
	ctx, span := w.ins.Tracer("notification.outbound.sender").Start(ctx, "WhatsApp.Send")
	defer span.End()

	if rcpt.Phone == "" {
		err := fmt.Errorf("recipient %d has no phone number", rcpt.UserID)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	req := map[string]any{
		"to":   rcpt.Phone,
		"type": "text",
		"text": map[string]string{"body": job.Title + "\n" + job.Message},
	}
	if err := w.gw.post(ctx, "/v1/messages", req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
