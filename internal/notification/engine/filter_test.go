package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hatolabs/hato/internal/notification/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filterJob(prio entity.Priority, channels []entity.Channel, recipients ...entity.Recipient) *entity.Job {
	return &entity.Job{
		ID:         1,
		Kind:       entity.KindHealthAlert,
		Priority:   prio,
		Channels:   channels,
		Recipients: recipients,
	}
}

func prefWithQuiet(userID int64, channels map[entity.Channel]bool, quiet map[entity.Channel]entity.QuietHours) *entity.Preference {
	pref := entity.DefaultPreference(userID)
	for ch, enabled := range channels {
		setting := pref.Channels[ch]
		setting.Enabled = enabled
		pref.Channels[ch] = setting
	}
	for ch, window := range quiet {
		setting := pref.Channels[ch]
		setting.QuietHours = window
		pref.Channels[ch] = setting
	}
	return pref
}

func TestFilterApply(t *testing.T) {
	noon := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("DefaultsForUnknownUser", func(t *testing.T) {
		f := NewFilter(&stubPrefs{}, newFakeClock(noon), 8, testLogger())
		job := filterJob(entity.PriorityMedium,
			[]entity.Channel{entity.ChannelInApp, entity.ChannelSMS},
			entity.Recipient{UserID: 1})

		result := f.Apply(context.Background(), job)

		require.Len(t, result.Recipients, 1)
		assert.Equal(t, []entity.Channel{entity.ChannelInApp}, result.Recipients[0].Channels,
			"sms is not opted in by default")
		assert.True(t, result.DeferUntil.IsZero())
	})

	t.Run("MutedKindDropsRecipient", func(t *testing.T) {
		muted := entity.DefaultPreference(1)
		muted.MutedKinds = []entity.Kind{entity.KindHealthAlert}
		f := NewFilter(&stubPrefs{prefs: map[int64]*entity.Preference{1: muted}}, newFakeClock(noon), 8, testLogger())
		job := filterJob(entity.PriorityMedium,
			[]entity.Channel{entity.ChannelInApp},
			entity.Recipient{UserID: 1}, entity.Recipient{UserID: 2})

		result := f.Apply(context.Background(), job)

		require.Len(t, result.Recipients, 1)
		assert.EqualValues(t, 2, result.Recipients[0].UserID)
	})

	t.Run("RecipientOverrideIntersection", func(t *testing.T) {
		f := NewFilter(&stubPrefs{}, newFakeClock(noon), 8, testLogger())
		job := filterJob(entity.PriorityMedium,
			[]entity.Channel{entity.ChannelInApp, entity.ChannelEmail},
			entity.Recipient{UserID: 1, Channels: []entity.Channel{entity.ChannelEmail}})

		result := f.Apply(context.Background(), job)

		require.Len(t, result.Recipients, 1)
		assert.Equal(t, []entity.Channel{entity.ChannelEmail}, result.Recipients[0].Channels)
	})

	t.Run("AllChannelsDisabledDropsRecipient", func(t *testing.T) {
		pref := prefWithQuiet(1, map[entity.Channel]bool{entity.ChannelEmail: false}, nil)
		f := NewFilter(&stubPrefs{prefs: map[int64]*entity.Preference{1: pref}}, newFakeClock(noon), 8, testLogger())
		job := filterJob(entity.PriorityMedium,
			[]entity.Channel{entity.ChannelEmail},
			entity.Recipient{UserID: 1})

		result := f.Apply(context.Background(), job)

		assert.Empty(t, result.Recipients)
	})

	t.Run("LookupFailureFallsBackToDefaults", func(t *testing.T) {
		f := NewFilter(&stubPrefs{err: errors.New("redis down")}, newFakeClock(noon), 8, testLogger())
		job := filterJob(entity.PriorityMedium,
			[]entity.Channel{entity.ChannelEmail},
			entity.Recipient{UserID: 1})

		result := f.Apply(context.Background(), job)

		require.Len(t, result.Recipients, 1, "a flaky preference store never blocks delivery")
	})

	t.Run("Idempotent", func(t *testing.T) {
		f := NewFilter(&stubPrefs{}, newFakeClock(noon), 8, testLogger())
		job := filterJob(entity.PriorityMedium,
			[]entity.Channel{entity.ChannelInApp, entity.ChannelSMS},
			entity.Recipient{UserID: 1})

		first := f.Apply(context.Background(), job)
		job.Recipients = first.Recipients
		second := f.Apply(context.Background(), job)

		assert.Equal(t, first.Recipients, second.Recipients)
	})
}

func TestFilterQuietHours(t *testing.T) {
	night := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)
	window := entity.QuietHours{Enabled: true, StartHour: 22, EndHour: 6}

	t.Run("AllEnabledChannelsQuietDefers", func(t *testing.T) {
		pref := prefWithQuiet(1, nil, map[entity.Channel]entity.QuietHours{
			entity.ChannelInApp: window,
			entity.ChannelPush:  window,
		})
		f := NewFilter(&stubPrefs{prefs: map[int64]*entity.Preference{1: pref}}, newFakeClock(night), 8, testLogger())
		job := filterJob(entity.PriorityHigh,
			[]entity.Channel{entity.ChannelInApp, entity.ChannelPush},
			entity.Recipient{UserID: 1})

		result := f.Apply(context.Background(), job)

		require.Len(t, result.Recipients, 1)
		assert.Equal(t, time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC), result.DeferUntil)
	})

	t.Run("SingleQuietChannelDefersWholeJob", func(t *testing.T) {
		pref := prefWithQuiet(1, nil, map[entity.Channel]entity.QuietHours{
			entity.ChannelInApp: window,
		})
		f := NewFilter(&stubPrefs{prefs: map[int64]*entity.Preference{1: pref}}, newFakeClock(night), 8, testLogger())
		job := filterJob(entity.PriorityHigh,
			[]entity.Channel{entity.ChannelInApp, entity.ChannelPush},
			entity.Recipient{UserID: 1})

		result := f.Apply(context.Background(), job)

		require.Len(t, result.Recipients, 1)
		assert.Equal(t, time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC), result.DeferUntil,
			"one quiet channel is enough: the job waits, push does not go out alone")
	})

	t.Run("CriticalDefersLikeAnyOther", func(t *testing.T) {
		pref := prefWithQuiet(1, nil, map[entity.Channel]entity.QuietHours{
			entity.ChannelEmail: window,
		})
		f := NewFilter(&stubPrefs{prefs: map[int64]*entity.Preference{1: pref}}, newFakeClock(night), 8, testLogger())
		job := filterJob(entity.PriorityCritical,
			[]entity.Channel{entity.ChannelEmail},
			entity.Recipient{UserID: 1})

		result := f.Apply(context.Background(), job)

		require.Len(t, result.Recipients, 1)
		assert.Equal(t, time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC), result.DeferUntil)
	})

	t.Run("ResumeEarlierSameDay", func(t *testing.T) {
		early := time.Date(2026, 3, 10, 5, 0, 0, 0, time.UTC)
		pref := prefWithQuiet(1, nil, map[entity.Channel]entity.QuietHours{
			entity.ChannelInApp: window,
		})
		f := NewFilter(&stubPrefs{prefs: map[int64]*entity.Preference{1: pref}}, newFakeClock(early), 8, testLogger())
		job := filterJob(entity.PriorityHigh,
			[]entity.Channel{entity.ChannelInApp},
			entity.Recipient{UserID: 1})

		result := f.Apply(context.Background(), job)

		assert.Equal(t, time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC), result.DeferUntil)
	})
}
