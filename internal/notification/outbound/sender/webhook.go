package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/hatolabs/hato/internal/notification/entity"
	"github.com/hatolabs/hato/internal/pkg/clock"
	"github.com/hatolabs/hato/internal/pkg/hash"
	"github.com/hatolabs/hato/internal/pkg/instrument"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel/codes"
)

type webhookBody struct {
	JobID    int64          `json:"job_id"`
	Kind     string         `json:"kind"`
	Priority string         `json:"priority"`
	Title    string         `json:"title"`
	Message  string         `json:"message"`
	Payload  entity.Payload `json:"payload,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
	SentAt   time.Time      `json:"sent_at"`
}

// Webhook POSTs the notification to the recipient's registered URL.
// The body is signed with HMAC-SHA256 over "<timestamp>.<body>" so
// receivers can verify both origin and freshness.
type Webhook struct {
	client *http.Client
	signer *hash.HMACSHA256
	clock  clock.Clocker
	ins    instrument.Instrumentation
}

func NewWebhook(secret string, timeout time.Duration, clk clock.Clocker, ins instrument.Instrumentation) *Webhook {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Webhook{
		client: &http.Client{Timeout: timeout},
		signer: hash.NewHMACSHA256(secret),
		clock:  clk,
		ins:    ins,
	}
}

func (w *Webhook) Channel() entity.Channel { return entity.ChannelWebhook }

func (w *Webhook) Send(ctx context.Context, job *entity.Job, rcpt entity.Recipient) error {
	ctx, span := w.ins.Tracer("notification.outbound.sender").Start(ctx, "Webhook.Send")
	defer span.End()

	if rcpt.WebhookURL == "" {
		err := fmt.Errorf("recipient %d has no webhook url", rcpt.UserID)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	body, err := json.Marshal(webhookBody{
		JobID:    job.ID,
		Kind:     job.Kind.String(),
		Priority: job.Priority.String(),
		Title:    job.Title,
		Message:  job.Message,
		Payload:  job.Payload,
		Metadata: job.Metadata,
		SentAt:   w.clock.Now(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	ts := strconv.FormatInt(w.clock.Now().Unix(), 10)
	sig, err := w.signer.Hash(ts + "." + string(body))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	b := retry.NewFibonacci(200 * time.Millisecond)
	b = retry.WithCappedDuration(3*time.Second, b)
	b = retry.WithMaxRetries(3, b)

	err = retry.Do(ctx, b, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, rcpt.WebhookURL, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Hato-Timestamp", ts)
		req.Header.Set("X-Hato-Signature", string(sig))

		resp, err := w.client.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer func() {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}()

		if resp.StatusCode >= http.StatusInternalServerError {
			return retry.RetryableError(fmt.Errorf("webhook endpoint returned %d", resp.StatusCode))
		}
		if resp.StatusCode >= http.StatusBadRequest {
			return fmt.Errorf("webhook endpoint rejected delivery with %d", resp.StatusCode)
		}

		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
