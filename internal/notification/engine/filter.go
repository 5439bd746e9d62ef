package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/hatolabs/hato/internal/notification/entity"
	"github.com/hatolabs/hato/internal/pkg/clock"
	"github.com/samber/lo"
)

// PreferenceSource resolves delivery preferences for a recipient.
// A (nil, nil) result means the user never saved preferences and the
// channel defaults apply.
type PreferenceSource interface {
	Get(ctx context.Context, userID int64) (*entity.Preference, error)
}

// FilterResult carries the recipients that survived preference
// filtering plus an optional deferral for quiet hours.
type FilterResult struct {
	Recipients []entity.Recipient
	DeferUntil time.Time
}

// Filter narrows a job's recipient list to those who opted into at
// least one of the requested channels, and defers delivery that lands
// inside a recipient's quiet-hours window.
type Filter struct {
	prefs      PreferenceSource
	clock      clock.Clocker
	resumeHour int
	logger     *slog.Logger
}

func NewFilter(prefs PreferenceSource, clk clock.Clocker, resumeHour int, logger *slog.Logger) *Filter {
	if resumeHour < 0 || resumeHour > 23 {
		resumeHour = 8
	}

	return &Filter{prefs: prefs, clock: clk, resumeHour: resumeHour, logger: logger}
}

// Apply evaluates preferences for every recipient of the job. Each kept
// recipient has Channels rewritten to the channels they actually
// receive, so running Apply on its own output changes nothing. A lookup
// failure is logged and treated as "no stored preference" so a flaky
// store never blocks delivery.
func (f *Filter) Apply(ctx context.Context, job *entity.Job) FilterResult {
	now := f.clock.Now()

	var result FilterResult
	for _, rcpt := range job.Recipients {
		pref, err := f.prefs.Get(ctx, rcpt.UserID)
		if err != nil {
			f.logger.WarnContext(ctx, "preference lookup failed, using defaults",
				"user_id", rcpt.UserID, "error", err)
			pref = nil
		}

		if pref.KindMuted(job.Kind) {
			continue
		}

		enabled := lo.Filter(job.Channels, func(ch entity.Channel, _ int) bool {
			return rcpt.WantsChannel(ch) && pref.ChannelEnabled(ch)
		})
		if len(enabled) == 0 {
			continue
		}

		if until := f.quietDeferral(pref, enabled, now); until.After(result.DeferUntil) {
			result.DeferUntil = until
		}

		rcpt.Channels = enabled
		result.Recipients = append(result.Recipients, rcpt)
	}

	return result
}

// quietDeferral returns the resume time if any enabled channel of the
// recipient is currently inside its quiet window, zero otherwise. One
// quiet channel defers the whole job; deferred, never dropped.
func (f *Filter) quietDeferral(pref *entity.Preference, channels []entity.Channel, now time.Time) time.Time {
	for _, ch := range channels {
		window, ok := pref.QuietFor(ch)
		if ok && window.Contains(now) {
			return f.nextResume(now)
		}
	}
	return time.Time{}
}

// nextResume is the next occurrence of the configured resume hour,
// strictly after now.
func (f *Filter) nextResume(now time.Time) time.Time {
	resume := time.Date(now.Year(), now.Month(), now.Day(), f.resumeHour, 0, 0, 0, now.Location())
	if !resume.After(now) {
		resume = resume.Add(24 * time.Hour)
	}
	return resume
}
