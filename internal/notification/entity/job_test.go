package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJobEligible(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("PendingAndDue", func(t *testing.T) {
		job := &Job{Status: JobStatusPending, ScheduledAt: now.Add(-time.Second)}

		assert.True(t, job.Eligible(now))
	})

	t.Run("ScheduledInFuture", func(t *testing.T) {
		job := &Job{Status: JobStatusPending, ScheduledAt: now.Add(time.Minute)}

		assert.False(t, job.Eligible(now))
	})

	t.Run("NotPending", func(t *testing.T) {
		job := &Job{Status: JobStatusProcessing, ScheduledAt: now.Add(-time.Second)}

		assert.False(t, job.Eligible(now))
	})
}

func TestJobExpired(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.False(t, (&Job{}).Expired(now), "zero expiry never expires")
	assert.False(t, (&Job{ExpiresAt: now.Add(time.Hour)}).Expired(now))
	assert.True(t, (&Job{ExpiresAt: now.Add(-time.Second)}).Expired(now))
}

func TestJobStatusTerminal(t *testing.T) {
	terminal := []JobStatus{
		JobStatusSent, JobStatusDelivered, JobStatusRead,
		JobStatusFailed, JobStatusCancelled, JobStatusExpired,
	}
	for _, s := range terminal {
		assert.True(t, s.Terminal(), s.String())
	}

	assert.False(t, JobStatusPending.Terminal())
	assert.False(t, JobStatusProcessing.Terminal())
	assert.False(t, JobStatusUnknown.Terminal())
}

func TestRecipientWantsChannel(t *testing.T) {
	assert.True(t, Recipient{}.WantsChannel(ChannelSMS), "empty override accepts everything")

	rcpt := Recipient{Channels: []Channel{ChannelEmail, ChannelInApp}}
	assert.True(t, rcpt.WantsChannel(ChannelEmail))
	assert.False(t, rcpt.WantsChannel(ChannelSMS))
}

func TestDispatchResult(t *testing.T) {
	t.Run("SucceededWithPartialFailure", func(t *testing.T) {
		res := DispatchResult{Outcomes: []ChannelOutcome{
			{Channel: ChannelInApp, Succeeded: 2},
			{Channel: ChannelSMS, Failed: 2, LastError: "gateway down"},
		}}

		assert.True(t, res.Succeeded())
		assert.Equal(t, "gateway down", res.FirstError())
	})

	t.Run("AllFailed", func(t *testing.T) {
		res := DispatchResult{Outcomes: []ChannelOutcome{
			{Channel: ChannelEmail, Failed: 1, LastError: "smtp timeout"},
		}}

		assert.False(t, res.Succeeded())
		assert.Equal(t, "smtp timeout", res.FirstError())
	})

	t.Run("Empty", func(t *testing.T) {
		res := DispatchResult{}

		assert.False(t, res.Succeeded())
		assert.Empty(t, res.FirstError())
	})
}
