package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/hatolabs/hato/internal/notification/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherFanOut(t *testing.T) {
	inApp := &fakeSender{channel: entity.ChannelInApp}
	push := &fakeSender{channel: entity.ChannelPush}
	d := NewDispatcher([]Sender{inApp, push}, testLogger())

	job := &entity.Job{
		ID:       1,
		Channels: []entity.Channel{entity.ChannelInApp, entity.ChannelPush},
		Recipients: []entity.Recipient{
			{UserID: 10},
			{UserID: 20},
		},
	}

	result := d.Dispatch(context.Background(), job)

	require.Len(t, result.Outcomes, 2)
	assert.Equal(t, entity.ChannelInApp, result.Outcomes[0].Channel)
	assert.Equal(t, 2, result.Outcomes[0].Succeeded)
	assert.Equal(t, entity.ChannelPush, result.Outcomes[1].Channel)
	assert.Equal(t, 2, result.Outcomes[1].Succeeded)
	assert.True(t, result.Succeeded())

	assert.ElementsMatch(t, []int64{10, 20}, inApp.sent())
	assert.ElementsMatch(t, []int64{10, 20}, push.sent())
}

func TestDispatcherPartialFailureIsolation(t *testing.T) {
	inApp := &fakeSender{channel: entity.ChannelInApp}
	sms := &fakeSender{channel: entity.ChannelSMS, err: errors.New("gateway 503")}
	d := NewDispatcher([]Sender{inApp, sms}, testLogger())

	job := &entity.Job{
		ID:         1,
		Channels:   []entity.Channel{entity.ChannelInApp, entity.ChannelSMS},
		Recipients: []entity.Recipient{{UserID: 10}},
	}

	result := d.Dispatch(context.Background(), job)

	require.Len(t, result.Outcomes, 2)
	assert.Equal(t, 1, result.Outcomes[0].Succeeded)
	assert.Equal(t, 1, result.Outcomes[1].Failed)
	assert.Equal(t, "gateway 503", result.Outcomes[1].LastError)
	assert.True(t, result.Succeeded(), "one working channel is enough")
}

func TestDispatcherMissingSender(t *testing.T) {
	d := NewDispatcher([]Sender{&fakeSender{channel: entity.ChannelInApp}}, testLogger())

	job := &entity.Job{
		ID:         1,
		Channels:   []entity.Channel{entity.ChannelWebhook},
		Recipients: []entity.Recipient{{UserID: 10}},
	}

	result := d.Dispatch(context.Background(), job)

	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, 1, result.Outcomes[0].Failed)
	assert.Contains(t, result.Outcomes[0].LastError, "no sender registered")
	assert.False(t, result.Succeeded())
}

func TestDispatcherRespectsRecipientChannels(t *testing.T) {
	inApp := &fakeSender{channel: entity.ChannelInApp}
	push := &fakeSender{channel: entity.ChannelPush}
	d := NewDispatcher([]Sender{inApp, push}, testLogger())

	job := &entity.Job{
		ID:       1,
		Channels: []entity.Channel{entity.ChannelInApp, entity.ChannelPush},
		Recipients: []entity.Recipient{
			{UserID: 10, Channels: []entity.Channel{entity.ChannelInApp}},
			{UserID: 20},
		},
	}

	result := d.Dispatch(context.Background(), job)

	assert.ElementsMatch(t, []int64{10, 20}, inApp.sent())
	assert.ElementsMatch(t, []int64{20}, push.sent(), "user 10 opted out of push")
	require.Len(t, result.Outcomes, 2)
	assert.Equal(t, 1, result.Outcomes[1].Succeeded)
}
