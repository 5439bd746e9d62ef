package sender

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hatolabs/hato/internal/notification/entity"
	"github.com/hatolabs/hato/internal/pkg/instrument"
	"github.com/hatolabs/hato/internal/pkg/mail"
	"github.com/hatolabs/hato/internal/pkg/storage"
	"go.opentelemetry.io/otel/codes"
)

// EmailConfig configures the email channel.
type EmailConfig struct {
	From             string
	AttachmentBucket string
	AttachmentExpiry time.Duration
}

// Email delivers notifications over SMTP. When the job metadata lists
// object keys under "attachments", presigned download links are
// appended to the body so recipients can fetch certificates or reports
// without the message carrying the file itself.
type Email struct {
	client  mail.Mail
	objects storage.Storage
	cfg     EmailConfig
	ins     instrument.Instrumentation
}

func NewEmail(client mail.Mail, objects storage.Storage, cfg EmailConfig, ins instrument.Instrumentation) *Email {
	if cfg.AttachmentExpiry <= 0 {
		cfg.AttachmentExpiry = 24 * time.Hour
	}

	return &Email{client: client, objects: objects, cfg: cfg, ins: ins}
}

func (e *Email) Channel() entity.Channel { return entity.ChannelEmail }

func (e *Email) Send(ctx context.Context, job *entity.Job, rcpt entity.Recipient) error {
	ctx, span := e.ins.Tracer("notification.outbound.sender").Start(ctx, "Email.Send")
	defer span.End()

	if rcpt.Email == "" {
		err := fmt.Errorf("recipient %d has no email address", rcpt.UserID)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	body := job.Message
	if links := e.attachmentLinks(ctx, job); len(links) > 0 {
		body = body + "\n\nAttachments:\n" + strings.Join(links, "\n")
	}

	msg := mail.Message{
		From:     e.cfg.From,
		To:       []string{rcpt.Email},
		Subject:  job.Title,
		TextBody: body,
	}
	if err := e.client.Send(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

// attachmentLinks resolves metadata object keys to presigned URLs. A
// key that fails to sign is skipped with a warning; the email still
// goes out without it.
func (e *Email) attachmentLinks(ctx context.Context, job *entity.Job) []string {
	if e.objects == nil || job.Metadata == nil {
		return nil
	}

	raw, ok := job.Metadata["attachments"]
	if !ok {
		return nil
	}

	var keys []string
	switch v := raw.(type) {
	case string:
		keys = []string{v}
	case []string:
		keys = v
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				keys = append(keys, s)
			}
		}
	}

	var links []string
	for _, key := range keys {
		url, err := e.objects.PresignGet(ctx, e.cfg.AttachmentBucket, key, e.cfg.AttachmentExpiry)
		if err != nil {
			slog.WarnContext(ctx, "failed to presign attachment link",
				"job_id", job.ID, "key", key, "error", err)
			continue
		}
		links = append(links, url)
	}

	return links
}
