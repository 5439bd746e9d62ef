package engine

import (
	"context"
	"sync"
	"time"

	"github.com/hatolabs/hato/internal/notification/entity"
)

// EventType labels one lifecycle transition of a job.
type EventType string

const (
	EventCreated    EventType = "created"
	EventProcessing EventType = "processing"
	EventSent       EventType = "sent"
	EventFailed     EventType = "failed"
	EventExpired    EventType = "expired"
	EventCancelled  EventType = "cancelled"
	// EventDropped marks a submission whose recipients were all removed
	// by preference filtering, so nothing was enqueued.
	EventDropped EventType = "dropped"
)

// Event is one lifecycle transition published to observers. Delivery
// is best-effort: slow subscribers lose events, the state machine
// never blocks on them.
type Event struct {
	Type     EventType               `json:"type"`
	JobID    int64                   `json:"job_id"`
	BatchID  string                  `json:"batch_id,omitempty"`
	Kind     entity.Kind             `json:"-"`
	Priority entity.Priority         `json:"-"`
	KindName string                  `json:"kind"`
	PrioName string                  `json:"priority"`
	Outcomes []entity.ChannelOutcome `json:"-"`
	At       time.Time               `json:"at"`
}

type hubSubscriber struct {
	ch chan Event
}

// Hub fans lifecycle events out to an arbitrary number of subscribers.
type Hub struct {
	mu   sync.RWMutex
	subs map[*hubSubscriber]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[*hubSubscriber]struct{})}
}

// Subscribe registers an observer channel that is closed when ctx is
// done. The channel is buffered; publishes to a full buffer are
// dropped rather than blocking the engine.
func (h *Hub) Subscribe(ctx context.Context) <-chan Event {
	sub := &hubSubscriber{ch: make(chan Event, 16)}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, sub)
		h.mu.Unlock()
		close(sub.ch)
	}()

	return sub.ch
}

// Publish delivers the event to every live subscriber without blocking.
func (h *Hub) Publish(evt Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs {
		select {
		case sub.ch <- evt:
		default:
		}
	}
}
