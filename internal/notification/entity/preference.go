package entity

import (
	"time"
)

// QuietHours is a per-channel window during which non-critical delivery
// is deferred. StartHour/EndHour are local hours in [0,24); a window
// with StartHour > EndHour spans midnight.
type QuietHours struct {
	Enabled   bool
	StartHour int
	EndHour   int
	Timezone  string
}

// Contains reports whether t falls inside the window, evaluated in the
// window's timezone. The range is half-open: [start, end).
func (q QuietHours) Contains(t time.Time) bool {
	if !q.Enabled || q.StartHour == q.EndHour {
		return false
	}

	loc, err := time.LoadLocation(q.Timezone)
	if err != nil || q.Timezone == "" {
		loc = time.UTC
	}

	hour := t.In(loc).Hour()
	if q.StartHour < q.EndHour {
		return hour >= q.StartHour && hour < q.EndHour
	}

	// spans midnight
	return hour >= q.StartHour || hour < q.EndHour
}

// ChannelSetting is one user's configuration for a single channel.
type ChannelSetting struct {
	Channel    Channel
	Enabled    bool
	Frequency  Frequency
	QuietHours QuietHours
}

// Preference holds everything the recipient filter needs for one user.
// A user without a stored preference gets DefaultPreference.
type Preference struct {
	UserID     int64
	Channels   map[Channel]ChannelSetting
	MutedKinds []Kind
}

// DefaultPreference returns the implicit opt-in set used when a user
// has never saved preferences: email, push and in-app enabled, the
// interruptive channels disabled, no quiet hours, nothing muted.
func DefaultPreference(userID int64) *Preference {
	channels := make(map[Channel]ChannelSetting, len(AllChannels()))
	for _, ch := range AllChannels() {
		channels[ch] = ChannelSetting{
			Channel:   ch,
			Enabled:   ch.DefaultEnabled(),
			Frequency: FrequencyInstant,
		}
	}

	return &Preference{UserID: userID, Channels: channels}
}

// ChannelEnabled reports whether the user accepts the channel. Unknown
// channels fall back to the channel default, matching the lazy-creation
// policy for preferences.
func (p *Preference) ChannelEnabled(ch Channel) bool {
	if p == nil {
		return ch.DefaultEnabled()
	}
	setting, ok := p.Channels[ch]
	if !ok {
		return ch.DefaultEnabled()
	}
	return setting.Enabled
}

// KindMuted reports whether the user opted out of the given category.
func (p *Preference) KindMuted(k Kind) bool {
	if p == nil {
		return false
	}
	for _, muted := range p.MutedKinds {
		if muted == k {
			return true
		}
	}
	return false
}

// QuietFor returns the quiet-hours window for a channel, if any.
func (p *Preference) QuietFor(ch Channel) (QuietHours, bool) {
	if p == nil {
		return QuietHours{}, false
	}
	setting, ok := p.Channels[ch]
	if !ok || !setting.QuietHours.Enabled {
		return QuietHours{}, false
	}
	return setting.QuietHours, true
}
