package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hatolabs/hato/internal/notification/entity"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var engineTestBase = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func startEngine(t *testing.T, clk *fakeClock, prefs PreferenceSource, senders ...Sender) *Engine {
	t.Helper()

	if prefs == nil {
		prefs = &stubPrefs{}
	}

	eng := New(Dependency{
		Config: Config{
			// ticks far in the future, tests drain manually
			TickInterval:      time.Hour,
			EmailTickInterval: time.Hour,
			EmailRetryDelay:   time.Minute,
			EmailMaxAttempts:  3,
		},
		Clock:   clk,
		UID:     newSeqNumberID(),
		UUID:    staticStringID{id: "batch-uuid"},
		Prefs:   prefs,
		Senders: senders,
		Logger:  testLogger(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go eng.Run(ctx)

	return eng
}

func submitInput(channels ...entity.Channel) SubmitInput {
	return SubmitInput{
		Kind:       entity.KindHealthAlert,
		Title:      "Health alert: NL-4821",
		Message:    "Bovine NL-4821 shows lameness.",
		Priority:   entity.PriorityHigh,
		Channels:   channels,
		Recipients: []entity.Recipient{{UserID: 1}},
	}
}

func waitEngineStatus(t *testing.T, eng *Engine, id int64, want entity.JobStatus) *entity.Job {
	t.Helper()

	var job *entity.Job
	require.Eventually(t, func() bool {
		got, err := eng.Status(context.Background(), id)
		if err != nil {
			return false
		}
		job = got
		return got.Status == want
	}, 2*time.Second, 5*time.Millisecond, "job %d never reached %s", id, want)

	return job
}

func TestEngineSubmitValidation(t *testing.T) {
	eng := startEngine(t, newFakeClock(engineTestBase), nil)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*SubmitInput)
	}{
		{"MissingKind", func(in *SubmitInput) { in.Kind = entity.KindUnknown }},
		{"MissingTitle", func(in *SubmitInput) { in.Title = "" }},
		{"MissingMessage", func(in *SubmitInput) { in.Message = "" }},
		{"NoChannels", func(in *SubmitInput) { in.Channels = nil }},
		{"NoRecipients", func(in *SubmitInput) { in.Recipients = nil }},
		{"UnknownChannel", func(in *SubmitInput) { in.Channels = []entity.Channel{entity.ChannelUnknown} }},
		{"ExpiryBeforeSchedule", func(in *SubmitInput) {
			in.ScheduledAt = engineTestBase.Add(time.Hour)
			in.ExpiresAt = engineTestBase.Add(time.Minute)
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := submitInput(entity.ChannelInApp)
			tc.mutate(&in)

			_, err := eng.Submit(ctx, in)
			assert.ErrorIs(t, err, ErrInvalidSubmission)
		})
	}
}

func TestEngineSubmitAndDispatch(t *testing.T) {
	clk := newFakeClock(engineTestBase)
	inApp := &fakeSender{channel: entity.ChannelInApp}
	eng := startEngine(t, clk, nil, inApp)
	ctx := context.Background()

	streamCtx, streamCancel := context.WithCancel(ctx)
	defer streamCancel()
	stream := eng.Subscribe(streamCtx)

	id, err := eng.Submit(ctx, submitInput(entity.ChannelInApp))
	require.NoError(t, err)
	require.NotZero(t, id)

	require.Eventually(t, func() bool { return eng.Stats().PendingGeneral == 1 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, eng.DrainNow(ctx))
	job := waitEngineStatus(t, eng, id, entity.JobStatusSent)
	assert.Equal(t, 1, job.Attempts)
	assert.Equal(t, []int64{1}, inApp.sent())

	var seen []EventType
	for len(seen) < 3 {
		select {
		case evt := <-stream:
			seen = append(seen, evt.Type)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for lifecycle events, got %v", seen)
		}
	}
	assert.Equal(t, []EventType{EventCreated, EventProcessing, EventSent}, seen)

	snap := eng.Stats()
	assert.EqualValues(t, 1, snap.LifetimeCreated)
	assert.EqualValues(t, 1, snap.LifetimeSent)
	assert.EqualValues(t, 1, snap.ByChannel["in_app"].Sent)
	assert.EqualValues(t, 0, snap.PendingGeneral)
}

func TestEngineRouting(t *testing.T) {
	clk := newFakeClock(engineTestBase)
	eng := startEngine(t, clk, nil, &fakeSender{channel: entity.ChannelEmail}, &fakeSender{channel: entity.ChannelInApp})
	ctx := context.Background()

	t.Run("EmailOnlyUsesRetryQueue", func(t *testing.T) {
		_, err := eng.Submit(ctx, submitInput(entity.ChannelEmail))
		require.NoError(t, err)

		require.Eventually(t, func() bool { return eng.Stats().PendingEmail == 1 }, 2*time.Second, 5*time.Millisecond)
		assert.EqualValues(t, 0, eng.Stats().PendingGeneral)
	})

	t.Run("MixedChannelsUseGeneralQueue", func(t *testing.T) {
		_, err := eng.Submit(ctx, submitInput(entity.ChannelEmail, entity.ChannelInApp))
		require.NoError(t, err)

		require.Eventually(t, func() bool { return eng.Stats().PendingGeneral == 1 }, 2*time.Second, 5*time.Millisecond)
	})
}

func TestEngineEmailRetry(t *testing.T) {
	clk := newFakeClock(engineTestBase)
	email := &fakeSender{channel: entity.ChannelEmail}
	email.setErr(errors.New("smtp timeout"))
	eng := startEngine(t, clk, nil, email)
	ctx := context.Background()

	id, err := eng.Submit(ctx, submitInput(entity.ChannelEmail))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return eng.Stats().PendingEmail == 1 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, eng.DrainNow(ctx))

	// first attempt fails, the job returns to pending with a backoff
	require.Eventually(t, func() bool {
		job, err := eng.Status(ctx, id)
		return err == nil && job.Status == entity.JobStatusPending && job.Attempts == 1
	}, 2*time.Second, 5*time.Millisecond)

	job, err := eng.Status(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, engineTestBase.Add(time.Minute), job.ScheduledAt)
	assert.Equal(t, "smtp timeout", job.LastError)

	// gateway recovers; once the backoff elapses the retry succeeds
	email.setErr(nil)
	clk.Advance(2 * time.Minute)
	require.NoError(t, eng.DrainNow(ctx))

	job = waitEngineStatus(t, eng, id, entity.JobStatusSent)
	assert.Equal(t, 2, job.Attempts)
}

func TestEngineSubmitBulkChunking(t *testing.T) {
	clk := newFakeClock(engineTestBase)
	eng := startEngine(t, clk, nil, &fakeSender{channel: entity.ChannelInApp})
	ctx := context.Background()

	in := submitInput(entity.ChannelInApp)
	in.Recipients = nil
	for i := int64(1); i <= 120; i++ {
		in.Recipients = append(in.Recipients, entity.Recipient{UserID: i})
	}

	result, err := eng.SubmitBulk(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, "batch-uuid", result.BatchID)
	assert.Equal(t, 3, result.Chunks, "120 recipients split into chunks of 50")
	require.Len(t, result.JobIDs, 3)

	for _, id := range result.JobIDs {
		job := waitEngineStatus(t, eng, id, entity.JobStatusPending)
		assert.Equal(t, "batch-uuid", job.BatchID)
	}
}

func TestEngineAllRecipientsFilteredOut(t *testing.T) {
	muted := entity.DefaultPreference(1)
	muted.MutedKinds = []entity.Kind{entity.KindHealthAlert}
	prefs := &stubPrefs{prefs: map[int64]*entity.Preference{1: muted}}
	eng := startEngine(t, newFakeClock(engineTestBase), prefs, &fakeSender{channel: entity.ChannelInApp})
	ctx := context.Background()

	streamCtx, streamCancel := context.WithCancel(ctx)
	defer streamCancel()
	stream := eng.Subscribe(streamCtx)

	id, err := eng.Submit(ctx, submitInput(entity.ChannelInApp))
	require.NoError(t, err)
	assert.NotZero(t, id, "the submission is accepted even when nobody receives it")

	_, err = eng.Status(ctx, id)
	assert.ErrorIs(t, err, ErrJobNotFound, "nothing was enqueued")
	assert.EqualValues(t, 0, eng.Stats().PendingGeneral)

	select {
	case evt := <-stream:
		assert.Equal(t, EventDropped, evt.Type)
		assert.Equal(t, id, evt.JobID)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the drop event")
	}
	assert.EqualValues(t, 1, eng.Stats().Totals.Dropped)
}

func TestEngineQuietHoursDeferral(t *testing.T) {
	night := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)
	window := entity.QuietHours{Enabled: true, StartHour: 22, EndHour: 6}

	pref := entity.DefaultPreference(1)
	setting := pref.Channels[entity.ChannelInApp]
	setting.QuietHours = window
	pref.Channels[entity.ChannelInApp] = setting
	prefs := &stubPrefs{prefs: map[int64]*entity.Preference{1: pref}}

	t.Run("DeferredToResumeHour", func(t *testing.T) {
		eng := startEngine(t, newFakeClock(night), prefs, &fakeSender{channel: entity.ChannelInApp})
		ctx := context.Background()

		id, err := eng.Submit(ctx, submitInput(entity.ChannelInApp))
		require.NoError(t, err)

		job := waitEngineStatus(t, eng, id, entity.JobStatusPending)
		assert.Equal(t, time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC), job.ScheduledAt)
	})

	t.Run("CriticalDeferredToo", func(t *testing.T) {
		eng := startEngine(t, newFakeClock(night), prefs, &fakeSender{channel: entity.ChannelInApp})
		ctx := context.Background()

		in := submitInput(entity.ChannelInApp)
		in.Priority = entity.PriorityCritical

		id, err := eng.Submit(ctx, in)
		require.NoError(t, err)

		job := waitEngineStatus(t, eng, id, entity.JobStatusPending)
		assert.Equal(t, time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC), job.ScheduledAt,
			"quiet hours hold every priority, the job stays pending until the resume hour")
	})
}

func TestEnginePartialFailureStillSent(t *testing.T) {
	clk := newFakeClock(engineTestBase)
	inApp := &fakeSender{channel: entity.ChannelInApp}
	push := &fakeSender{channel: entity.ChannelPush}
	push.setErr(fmt.Errorf("fcm unavailable"))
	eng := startEngine(t, clk, nil, inApp, push)
	ctx := context.Background()

	id, err := eng.Submit(ctx, submitInput(entity.ChannelInApp, entity.ChannelPush))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return eng.Stats().PendingGeneral == 1 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, eng.DrainNow(ctx))

	job := waitEngineStatus(t, eng, id, entity.JobStatusSent)
	assert.Equal(t, "fcm unavailable", job.LastError, "the failing channel is still recorded")

	snap := eng.Stats()
	assert.EqualValues(t, 1, snap.ByChannel["in_app"].Sent)
	assert.EqualValues(t, 1, snap.ByChannel["push"].Failed)
}

func TestEngineCancel(t *testing.T) {
	clk := newFakeClock(engineTestBase)
	eng := startEngine(t, clk, nil, &fakeSender{channel: entity.ChannelEmail})
	ctx := context.Background()

	t.Run("PendingEmailJob", func(t *testing.T) {
		// email-only routes to the email queue; Cancel must fall through
		id, err := eng.Submit(ctx, submitInput(entity.ChannelEmail))
		require.NoError(t, err)
		waitEngineStatus(t, eng, id, entity.JobStatusPending)

		require.NoError(t, eng.Cancel(ctx, id))

		job, err := eng.Status(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, entity.JobStatusCancelled, job.Status)
	})

	t.Run("UnknownJob", func(t *testing.T) {
		assert.ErrorIs(t, eng.Cancel(ctx, 404), ErrJobNotFound)
	})
}

func TestEngineDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()

	assert.Equal(t, DefaultConfig(), cfg)
	require.NotNil(t, cfg.QuietResumeHour)
	assert.Equal(t, 8, *cfg.QuietResumeHour, "unset resume hour falls back, not midnight")

	tweaked := Config{BulkChunkSize: 10, QuietResumeHour: lo.ToPtr(6)}.withDefaults()
	assert.Equal(t, 10, tweaked.BulkChunkSize)
	assert.Equal(t, 6, *tweaked.QuietResumeHour)
	assert.Equal(t, 5*time.Second, tweaked.TickInterval)

	midnight := Config{QuietResumeHour: lo.ToPtr(0)}.withDefaults()
	assert.Equal(t, 0, *midnight.QuietResumeHour, "an explicit midnight survives defaulting")

	outOfRange := Config{QuietResumeHour: lo.ToPtr(24)}.withDefaults()
	assert.Equal(t, 8, *outOfRange.QuietResumeHour)
}
