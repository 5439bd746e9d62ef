package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuietHoursContains(t *testing.T) {
	at := func(hour int) time.Time {
		return time.Date(2026, 3, 10, hour, 30, 0, 0, time.UTC)
	}

	t.Run("Disabled", func(t *testing.T) {
		q := QuietHours{Enabled: false, StartHour: 0, EndHour: 23}

		assert.False(t, q.Contains(at(12)))
	})

	t.Run("EmptyWindow", func(t *testing.T) {
		q := QuietHours{Enabled: true, StartHour: 9, EndHour: 9}

		assert.False(t, q.Contains(at(9)))
	})

	t.Run("SimpleWindow", func(t *testing.T) {
		q := QuietHours{Enabled: true, StartHour: 9, EndHour: 17}

		assert.False(t, q.Contains(at(8)))
		assert.True(t, q.Contains(at(9)), "start hour is inclusive")
		assert.True(t, q.Contains(at(12)))
		assert.False(t, q.Contains(at(17)), "end hour is exclusive")
	})

	t.Run("SpansMidnight", func(t *testing.T) {
		q := QuietHours{Enabled: true, StartHour: 22, EndHour: 6}

		assert.True(t, q.Contains(at(23)))
		assert.True(t, q.Contains(at(2)))
		assert.False(t, q.Contains(at(6)))
		assert.False(t, q.Contains(at(12)))
	})

	t.Run("Timezone", func(t *testing.T) {
		// 02:30 UTC is 21:30 the previous evening in New York.
		q := QuietHours{Enabled: true, StartHour: 21, EndHour: 7, Timezone: "America/New_York"}

		assert.True(t, q.Contains(at(2)))
		assert.False(t, q.Contains(at(16)))
	})

	t.Run("UnknownTimezoneFallsBackToUTC", func(t *testing.T) {
		q := QuietHours{Enabled: true, StartHour: 9, EndHour: 17, Timezone: "Mars/Olympus"}

		assert.True(t, q.Contains(at(12)))
	})
}

func TestDefaultPreference(t *testing.T) {
	pref := DefaultPreference(7)

	require.NotNil(t, pref)
	assert.EqualValues(t, 7, pref.UserID)
	assert.Empty(t, pref.MutedKinds)

	assert.True(t, pref.ChannelEnabled(ChannelInApp))
	assert.True(t, pref.ChannelEnabled(ChannelEmail))
	assert.True(t, pref.ChannelEnabled(ChannelPush))
	assert.False(t, pref.ChannelEnabled(ChannelSMS), "interruptive channels require explicit opt-in")
	assert.False(t, pref.ChannelEnabled(ChannelWhatsApp))
	assert.False(t, pref.ChannelEnabled(ChannelWebhook))
}

func TestPreferenceNilFallbacks(t *testing.T) {
	var pref *Preference

	assert.True(t, pref.ChannelEnabled(ChannelEmail))
	assert.False(t, pref.ChannelEnabled(ChannelSMS))
	assert.False(t, pref.KindMuted(KindHealthAlert))

	_, ok := pref.QuietFor(ChannelEmail)
	assert.False(t, ok)
}

func TestPreferenceKindMuted(t *testing.T) {
	pref := DefaultPreference(1)
	pref.MutedKinds = []Kind{KindInventoryAlert}

	assert.True(t, pref.KindMuted(KindInventoryAlert))
	assert.False(t, pref.KindMuted(KindHealthAlert))
}

func TestPreferenceQuietFor(t *testing.T) {
	pref := DefaultPreference(1)
	setting := pref.Channels[ChannelEmail]
	setting.QuietHours = QuietHours{Enabled: true, StartHour: 22, EndHour: 6}
	pref.Channels[ChannelEmail] = setting

	window, ok := pref.QuietFor(ChannelEmail)
	require.True(t, ok)
	assert.Equal(t, 22, window.StartHour)

	_, ok = pref.QuietFor(ChannelPush)
	assert.False(t, ok, "channels without a window report none")
}
