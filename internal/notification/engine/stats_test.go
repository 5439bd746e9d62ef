package engine

import (
	"testing"
	"time"

	"github.com/hatolabs/hato/internal/notification/entity"
	"github.com/stretchr/testify/assert"
)

func TestStatsSnapshotWindow(t *testing.T) {
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	clk := newFakeClock(base)
	stats := NewStats(clk, 100)

	stats.Record(Event{Type: EventCreated, Kind: entity.KindHealthAlert, Priority: entity.PriorityHigh,
		KindName: "health_alert", PrioName: "high", At: base.Add(-2 * time.Hour)})
	stats.Record(Event{Type: EventCreated, Kind: entity.KindHealthAlert, Priority: entity.PriorityHigh,
		KindName: "health_alert", PrioName: "high", At: base.Add(-10 * time.Minute)})
	stats.Record(Event{Type: EventSent, Kind: entity.KindHealthAlert, Priority: entity.PriorityHigh,
		KindName: "health_alert", PrioName: "high", At: base.Add(-5 * time.Minute),
		Outcomes: []entity.ChannelOutcome{
			{Channel: entity.ChannelInApp, Succeeded: 3},
			{Channel: entity.ChannelSMS, Failed: 1},
		}})
	stats.Record(Event{Type: EventFailed, Kind: entity.KindSystem, Priority: entity.PriorityLow,
		KindName: "system", PrioName: "low", At: base.Add(-time.Minute)})
	stats.Record(Event{Type: EventExpired, Kind: entity.KindSystem, Priority: entity.PriorityLow,
		KindName: "system", PrioName: "low", At: base.Add(-time.Minute)})

	snap := stats.Snapshot(time.Hour)

	assert.EqualValues(t, 1, snap.Totals.Created, "entries older than the window are excluded")
	assert.EqualValues(t, 1, snap.Totals.Sent)
	assert.EqualValues(t, 1, snap.Totals.Failed)
	assert.EqualValues(t, 1, snap.Totals.Expired)

	assert.EqualValues(t, 3, snap.ByChannel["in_app"].Sent)
	assert.EqualValues(t, 1, snap.ByChannel["sms"].Failed)
	assert.EqualValues(t, 1, snap.ByKind["health_alert"].Sent)
	assert.EqualValues(t, 1, snap.ByPriority["low"].Failed)
}

func TestStatsLifetimeCountersIgnoreWindow(t *testing.T) {
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	clk := newFakeClock(base)
	stats := NewStats(clk, 100)

	for i := 0; i < 5; i++ {
		stats.Record(Event{Type: EventCreated, At: base.Add(-48 * time.Hour)})
	}
	stats.Record(Event{Type: EventSent, At: base.Add(-48 * time.Hour)})
	stats.Record(Event{Type: EventFailed, At: base.Add(-48 * time.Hour)})

	assert.EqualValues(t, 5, stats.LifetimeCreated())
	assert.EqualValues(t, 1, stats.LifetimeSent())
	assert.EqualValues(t, 1, stats.LifetimeFailed())

	snap := stats.Snapshot(time.Hour)
	assert.EqualValues(t, 0, snap.Totals.Created)
}

func TestStatsProcessingNotCounted(t *testing.T) {
	clk := newFakeClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	stats := NewStats(clk, 100)

	stats.Record(Event{Type: EventProcessing, At: clk.Now()})

	snap := stats.Snapshot(time.Hour)
	assert.Equal(t, Counts{}, snap.Totals)
}

func TestStatsBoundedEntries(t *testing.T) {
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	clk := newFakeClock(base)
	stats := NewStats(clk, 10)

	for i := 0; i < 25; i++ {
		stats.Record(Event{Type: EventCreated, At: base})
	}

	snap := stats.Snapshot(time.Hour)
	assert.EqualValues(t, 10, snap.Totals.Created, "the trailing log is trimmed to its cap")
	assert.EqualValues(t, 25, stats.LifetimeCreated())
}
