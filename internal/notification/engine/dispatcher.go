package engine

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/hatolabs/hato/internal/notification/entity"
	"github.com/hatolabs/hato/internal/pkg/goroutine"
)

// Sender delivers one job to one recipient over a single channel.
type Sender interface {
	Channel() entity.Channel
	Send(ctx context.Context, job *entity.Job, rcpt entity.Recipient) error
}

// Dispatcher fans one job out across its channel×recipient matrix.
// Each pair is sent concurrently and failures stay isolated: one dead
// gateway never blocks the other channels.
type Dispatcher struct {
	senders map[entity.Channel]Sender
	logger  *slog.Logger
}

func NewDispatcher(senders []Sender, logger *slog.Logger) *Dispatcher {
	m := make(map[entity.Channel]Sender, len(senders))
	for _, s := range senders {
		m[s.Channel()] = s
	}

	return &Dispatcher{senders: m, logger: logger}
}

// Dispatch sends the job to every recipient on every channel they
// accept and aggregates per-channel outcomes. It blocks until all
// sends finish.
func (d *Dispatcher) Dispatch(ctx context.Context, job *entity.Job) entity.DispatchResult {
	type target struct {
		channel entity.Channel
		rcpt    entity.Recipient
	}

	var targets []target
	for _, ch := range job.Channels {
		for _, rcpt := range job.Recipients {
			if len(rcpt.Channels) > 0 && !slices.Contains(rcpt.Channels, ch) {
				continue
			}
			targets = append(targets, target{channel: ch, rcpt: rcpt})
		}
	}

	var mu sync.Mutex
	outcomes := make(map[entity.Channel]*entity.ChannelOutcome, len(job.Channels))
	record := func(ch entity.Channel, err error) {
		mu.Lock()
		defer mu.Unlock()

		o, ok := outcomes[ch]
		if !ok {
			o = &entity.ChannelOutcome{Channel: ch}
			outcomes[ch] = o
		}
		if err != nil {
			o.Failed++
			o.LastError = err.Error()
		} else {
			o.Succeeded++
		}
	}

	mgr := goroutine.NewManager(len(targets))
	for _, t := range targets {
		sender, ok := d.senders[t.channel]
		if !ok {
			d.logger.ErrorContext(ctx, "no sender registered for channel",
				"channel", t.channel.String(), "job_id", job.ID)
			record(t.channel, errNoSender(t.channel))
			continue
		}

		mgr.Go(ctx, func(ctx context.Context) error {
			err := sender.Send(ctx, job, t.rcpt)
			if err != nil {
				d.logger.WarnContext(ctx, "channel send failed",
					"channel", t.channel.String(),
					"job_id", job.ID,
					"user_id", t.rcpt.UserID,
					"error", err)
			}
			record(t.channel, err)
			return nil
		})
	}
	_ = mgr.Wait()

	result := entity.DispatchResult{JobID: job.ID}
	for _, ch := range job.Channels {
		if o, ok := outcomes[ch]; ok {
			result.Outcomes = append(result.Outcomes, *o)
		}
	}

	return result
}

func errNoSender(ch entity.Channel) error {
	return fmt.Errorf("no sender registered for channel %s", ch)
}
