package sender

import (
	"context"

	"github.com/hatolabs/hato/internal/notification/entity"
	"github.com/hatolabs/hato/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
)

type inboxWriter interface {
	CreateInboxItem(ctx context.Context, item entity.InboxItem) (int64, error)
}

// InApp writes the notification into the recipient's inbox and pushes
// it to any live stream subscribers. Delivery means the row committed;
// the live push is best-effort on top.
type InApp struct {
	inbox   inboxWriter
	publish func(userID int64, item entity.InboxItem)
	ins     instrument.Instrumentation
}

func NewInApp(inbox inboxWriter, publish func(userID int64, item entity.InboxItem), ins instrument.Instrumentation) *InApp {
	if publish == nil {
		publish = func(int64, entity.InboxItem) {}
	}

	return &InApp{inbox: inbox, publish: publish, ins: ins}
}

func (i *InApp) Channel() entity.Channel { return entity.ChannelInApp }

func (i *InApp) Send(ctx context.Context, job *entity.Job, rcpt entity.Recipient) error {
	ctx, span := i.ins.Tracer("notification.outbound.sender").Start(ctx, "InApp.Send")
	defer span.End()

	item := entity.InboxItem{
		UserID:   rcpt.UserID,
		JobID:    job.ID,
		Kind:     job.Kind,
		Priority: job.Priority,
		Title:    job.Title,
		Message:  job.Message,
		Metadata: job.Metadata,
	}

	id, err := i.inbox.CreateInboxItem(ctx, item)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	item.ID = id
	i.publish(rcpt.UserID, item)

	return nil
}
