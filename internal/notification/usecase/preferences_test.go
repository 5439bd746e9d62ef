package usecase

import (
	"testing"

	"github.com/hatolabs/hato/internal/notification/entity"
	"github.com/hatolabs/hato/internal/pkg/goerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListPreferences(t *testing.T) {
	t.Run("DefaultsWhenNeverSaved", func(t *testing.T) {
		uc, _ := newTestUsecase(t, &stubRepo{}, &stubPrefStore{}, &stubEngine{})

		out, err := uc.ListPreferences(authedCtx(7))

		require.NoError(t, err)
		require.Len(t, out.Channels, 6, "every channel is reported")

		byName := map[string]PreferenceChannelOutput{}
		for _, ch := range out.Channels {
			byName[ch.Channel] = ch
		}
		assert.True(t, byName["in_app"].Enabled)
		assert.True(t, byName["email"].Enabled)
		assert.False(t, byName["sms"].Enabled)
		assert.Empty(t, out.MutedKinds)
	})

	t.Run("StoredPreference", func(t *testing.T) {
		pref := entity.DefaultPreference(7)
		pref.MutedKinds = []entity.Kind{entity.KindInventoryAlert}
		setting := pref.Channels[entity.ChannelEmail]
		setting.Enabled = false
		pref.Channels[entity.ChannelEmail] = setting

		uc, _ := newTestUsecase(t, &stubRepo{}, &stubPrefStore{stored: pref}, &stubEngine{})

		out, err := uc.ListPreferences(authedCtx(7))

		require.NoError(t, err)
		byName := map[string]PreferenceChannelOutput{}
		for _, ch := range out.Channels {
			byName[ch.Channel] = ch
		}
		assert.False(t, byName["email"].Enabled)
		assert.Equal(t, []string{"inventory_alert"}, out.MutedKinds)
	})
}

func TestUpdatePreferences(t *testing.T) {
	valid := func() UpdatePreferencesInput {
		return UpdatePreferencesInput{
			Channels: []UpdatePreferenceChannelInput{
				{Channel: "email", Enabled: true, QuietEnabled: true, QuietStartHour: 22, QuietEndHour: 6},
			},
			MutedKinds: []string{"system"},
		}
	}

	t.Run("StoresWithDefaultTimezone", func(t *testing.T) {
		prefs := &stubPrefStore{}
		uc, _ := newTestUsecase(t, &stubRepo{}, prefs, &stubEngine{})

		require.NoError(t, uc.UpdatePreferences(authedCtx(7), valid()))

		require.NotNil(t, prefs.updated)
		assert.EqualValues(t, 7, prefs.updated.UserID)
		setting := prefs.updated.Channels[entity.ChannelEmail]
		assert.True(t, setting.QuietHours.Enabled)
		assert.Equal(t, "UTC", setting.QuietHours.Timezone, "quiet hours default to UTC")
		assert.Equal(t, []entity.Kind{entity.KindSystem}, prefs.updated.MutedKinds)
	})

	t.Run("RejectsEmptyQuietWindow", func(t *testing.T) {
		uc, _ := newTestUsecase(t, &stubRepo{}, &stubPrefStore{}, &stubEngine{})
		in := valid()
		in.Channels[0].QuietStartHour = 9
		in.Channels[0].QuietEndHour = 9

		err := uc.UpdatePreferences(authedCtx(7), in)

		requireBusinessCode(t, err, goerror.CodeInvalidFormat)
	})

	t.Run("RejectsUnknownTimezone", func(t *testing.T) {
		uc, _ := newTestUsecase(t, &stubRepo{}, &stubPrefStore{}, &stubEngine{})
		in := valid()
		in.Channels[0].QuietTimezone = "Mars/Olympus"

		err := uc.UpdatePreferences(authedCtx(7), in)

		var gerr *goerror.Error
		require.ErrorAs(t, err, &gerr)
	})

	t.Run("RejectsEmptyChannelList", func(t *testing.T) {
		uc, _ := newTestUsecase(t, &stubRepo{}, &stubPrefStore{}, &stubEngine{})

		err := uc.UpdatePreferences(authedCtx(7), UpdatePreferencesInput{})

		var gerr *goerror.Error
		require.ErrorAs(t, err, &gerr)
	})
}
