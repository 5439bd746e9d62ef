package usecase

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hatolabs/hato/internal/notification/engine"
	"github.com/hatolabs/hato/internal/notification/entity"
	"github.com/hatolabs/hato/internal/pkg/valueobject"
)

// InboxEvent is one in-app notification pushed over SSE.
type InboxEvent struct {
	ID        int64               `json:"id"`
	JobID     int64               `json:"job_id"`
	Kind      string              `json:"kind"`
	Priority  string              `json:"priority"`
	Title     string              `json:"title"`
	Message   string              `json:"message"`
	Metadata  valueobject.JSONMap `json:"metadata"`
	CreatedAt time.Time           `json:"created_at"`
}

type subscriber struct {
	ch     chan InboxEvent
	closed atomic.Bool
}

// StreamInbox registers a live inbox stream for a user and closes it
// when ctx is done.
func (s *Usecase) StreamInbox(ctx context.Context, userID int64) <-chan InboxEvent {
	sub := &subscriber{ch: make(chan InboxEvent, 10)}

	s.streamMu.Lock()
	if s.streams[userID] == nil {
		s.streams[userID] = make(map[*subscriber]struct{})
	}
	s.streams[userID][sub] = struct{}{}
	s.streamMu.Unlock()

	go func() {
		<-ctx.Done()
		s.streamMu.Lock()
		if subs := s.streams[userID]; subs != nil {
			delete(subs, sub)
			if len(subs) == 0 {
				delete(s.streams, userID)
			}
		}
		s.streamMu.Unlock()
		close(sub.ch)
	}()

	return sub.ch
}

// StreamLifecycle exposes the engine's lifecycle events, used by the
// operational dashboard stream.
func (s *Usecase) StreamLifecycle(ctx context.Context) <-chan engine.Event {
	return s.engine.Subscribe(ctx)
}

// PublishInbox pushes a freshly written inbox item to the user's live
// streams. The in-app sender calls this after the row commits.
func (s *Usecase) PublishInbox(userID int64, item entity.InboxItem) {
	evt := InboxEvent{
		ID:        item.ID,
		JobID:     item.JobID,
		Kind:      item.Kind.String(),
		Priority:  item.Priority.String(),
		Title:     item.Title,
		Message:   item.Message,
		Metadata:  item.Metadata,
		CreatedAt: s.clock.Now(),
	}

	s.streamMu.RLock()
	subs := s.streams[userID]
	s.streamMu.RUnlock()

	for sub := range subs {
		if sub.closed.Load() {
			continue
		}

		select {
		case sub.ch <- evt:
		default:
		}
	}
}
