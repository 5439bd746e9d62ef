package sender

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hatolabs/hato/internal/notification/entity"
	"github.com/hatolabs/hato/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
)

// Push delivers notifications to registered mobile devices through a
// push gateway. One request per device token; a recipient succeeds when
// at least one of their devices accepts.
type Push struct {
	gw  *gateway
	ins instrument.Instrumentation
}

func NewPush(baseURL, apiKey string, timeout time.Duration, ins instrument.Instrumentation) *Push {
	return &Push{gw: newGateway(baseURL, apiKey, timeout), ins: ins}
}

func (p *Push) Channel() entity.Channel { return entity.ChannelPush }

func (p *Push) Send(ctx context.Context, job *entity.Job, rcpt entity.Recipient) error {
	ctx, span := p.ins.Tracer("notification.outbound.sender").Start(ctx, "Push.Send")
	defer span.End()

	if len(rcpt.DeviceTokens) == 0 {
		err := fmt.Errorf("recipient %d has no registered devices", rcpt.UserID)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	var errs []error
	delivered := 0
	for _, token := range rcpt.DeviceTokens {
		req := map[string]any{
			"token":    token,
			"title":    job.Title,
			"body":     job.Message,
			"priority": job.Priority.String(),
			"data":     map[string]any{"kind": job.Kind.String(), "job_id": job.ID},
		}
		if err := p.gw.post(ctx, "/v1/push", req); err != nil {
			errs = append(errs, err)
			continue
		}
		delivered++
	}

	if delivered == 0 {
		err := errors.Join(errs...)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
