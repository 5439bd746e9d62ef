package engine

import (
	"sync"
	"time"

	"github.com/hatolabs/hato/internal/notification/entity"
	"github.com/hatolabs/hato/internal/pkg/clock"
	"go.uber.org/atomic"
)

// Counts aggregates lifecycle outcomes for one grouping key.
type Counts struct {
	Created int64 `json:"created"`
	Sent    int64 `json:"sent"`
	Failed  int64 `json:"failed"`
	Expired int64 `json:"expired"`
	Dropped int64 `json:"dropped"`
}

// StatsSnapshot is a read-only derived view over a trailing window,
// built for dashboards. It is not part of the core state.
type StatsSnapshot struct {
	Window     time.Duration     `json:"-"`
	Totals     Counts            `json:"totals"`
	ByChannel  map[string]Counts `json:"by_channel"`
	ByKind     map[string]Counts `json:"by_kind"`
	ByPriority map[string]Counts `json:"by_priority"`
}

type statEntry struct {
	at       time.Time
	evt      EventType
	kind     string
	priority string
	outcomes []entity.ChannelOutcome
}

// Stats keeps a bounded trailing log of lifecycle events plus
// process-lifetime counters.
type Stats struct {
	clock clock.Clocker
	max   int

	mu      sync.Mutex
	entries []statEntry

	lifetimeCreated *atomic.Int64
	lifetimeSent    *atomic.Int64
	lifetimeFailed  *atomic.Int64
}

func NewStats(clk clock.Clocker, maxEntries int) *Stats {
	if maxEntries < 1 {
		maxEntries = 10000
	}

	return &Stats{
		clock:           clk,
		max:             maxEntries,
		lifetimeCreated: atomic.NewInt64(0),
		lifetimeSent:    atomic.NewInt64(0),
		lifetimeFailed:  atomic.NewInt64(0),
	}
}

// Record ingests one lifecycle event.
func (s *Stats) Record(evt Event) {
	switch evt.Type {
	case EventCreated:
		s.lifetimeCreated.Inc()
	case EventSent:
		s.lifetimeSent.Inc()
	case EventFailed:
		s.lifetimeFailed.Inc()
	case EventProcessing:
		// transient, not counted
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, statEntry{
		at:       evt.At,
		evt:      evt.Type,
		kind:     evt.Kind.String(),
		priority: evt.Priority.String(),
		outcomes: evt.Outcomes,
	})
	if len(s.entries) > s.max {
		s.entries = s.entries[len(s.entries)-s.max:]
	}
}

// LifetimeCreated returns the total jobs accepted since process start.
func (s *Stats) LifetimeCreated() int64 { return s.lifetimeCreated.Load() }

// LifetimeSent returns the total jobs sent since process start.
func (s *Stats) LifetimeSent() int64 { return s.lifetimeSent.Load() }

// LifetimeFailed returns the total jobs failed since process start.
func (s *Stats) LifetimeFailed() int64 { return s.lifetimeFailed.Load() }

// Snapshot aggregates the trailing window ending now.
func (s *Stats) Snapshot(window time.Duration) StatsSnapshot {
	cutoff := s.clock.Now().Add(-window)

	snap := StatsSnapshot{
		Window:     window,
		ByChannel:  make(map[string]Counts),
		ByKind:     make(map[string]Counts),
		ByPriority: make(map[string]Counts),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if e.at.Before(cutoff) {
			continue
		}

		bump(&snap.Totals, e.evt, 1)

		kc := snap.ByKind[e.kind]
		bump(&kc, e.evt, 1)
		snap.ByKind[e.kind] = kc

		pc := snap.ByPriority[e.priority]
		bump(&pc, e.evt, 1)
		snap.ByPriority[e.priority] = pc

		for _, o := range e.outcomes {
			cc := snap.ByChannel[o.Channel.String()]
			cc.Sent += int64(o.Succeeded)
			cc.Failed += int64(o.Failed)
			snap.ByChannel[o.Channel.String()] = cc
		}
	}

	return snap
}

func bump(c *Counts, evt EventType, n int64) {
	switch evt {
	case EventCreated:
		c.Created += n
	case EventSent:
		c.Sent += n
	case EventFailed:
		c.Failed += n
	case EventExpired:
		c.Expired += n
	case EventDropped:
		c.Dropped += n
	}
}
