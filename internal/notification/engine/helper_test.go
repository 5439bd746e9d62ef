package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hatolabs/hato/internal/notification/entity"
	"go.uber.org/atomic"
)

// fakeClock is a manually advanced Clocker.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(at time.Time) *fakeClock {
	return &fakeClock{now: at}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// seqNumberID hands out sequential int64 ids.
type seqNumberID struct {
	n *atomic.Int64
}

func newSeqNumberID() *seqNumberID {
	return &seqNumberID{n: atomic.NewInt64(0)}
}

func (s *seqNumberID) Generate() int64 { return s.n.Inc() }

// staticStringID always returns the same string.
type staticStringID struct {
	id string
}

func (s staticStringID) Generate() string { return s.id }

// stubPrefs serves canned preferences; users absent from the map get
// (nil, nil), i.e. channel defaults.
type stubPrefs struct {
	prefs map[int64]*entity.Preference
	err   error
}

func (s *stubPrefs) Get(_ context.Context, userID int64) (*entity.Preference, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.prefs[userID], nil
}

// fakeSender records sends for one channel and fails on demand.
type fakeSender struct {
	channel entity.Channel

	mu    sync.Mutex
	err   error
	sends []int64 // user ids in send order
}

func (s *fakeSender) Channel() entity.Channel { return s.channel }

func (s *fakeSender) Send(_ context.Context, _ *entity.Job, rcpt entity.Recipient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sends = append(s.sends, rcpt.UserID)
	return s.err
}

func (s *fakeSender) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *fakeSender) sent() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.sends...)
}

// eventLog collects emitted lifecycle events.
type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) emit(evt Event) {
	l.mu.Lock()
	l.events = append(l.events, evt)
	l.mu.Unlock()
}

func (l *eventLog) all() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event(nil), l.events...)
}

func (l *eventLog) jobIDsOf(t EventType) []int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	var ids []int64
	for _, evt := range l.events {
		if evt.Type == t {
			ids = append(ids, evt.JobID)
		}
	}
	return ids
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
