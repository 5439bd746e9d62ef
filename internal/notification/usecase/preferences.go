package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/hatolabs/hato/internal/notification/entity"
	"github.com/hatolabs/hato/internal/pkg/goerror"
)

type (
	PreferenceChannelOutput struct {
		Channel        string
		Enabled        bool
		Frequency      string
		QuietEnabled   bool
		QuietStartHour int
		QuietEndHour   int
		QuietTimezone  string
	}

	ListPreferencesOutput struct {
		Channels   []PreferenceChannelOutput
		MutedKinds []string
	}

	UpdatePreferenceChannelInput struct {
		Channel        string `validate:"required,oneof=in_app email sms push whatsapp webhook"`
		Enabled        bool
		Frequency      string `validate:"omitempty,oneof=instant hourly daily weekly monthly"`
		QuietEnabled   bool
		QuietStartHour int    `validate:"gte=0,lte=23"`
		QuietEndHour   int    `validate:"gte=0,lte=23"`
		QuietTimezone  string `validate:"omitempty,timezone"`
	}

	UpdatePreferencesInput struct {
		Channels   []UpdatePreferenceChannelInput `validate:"required,min=1,dive"`
		MutedKinds []string                       `validate:"omitempty,dive,oneof=health_alert vaccination_due inventory_alert geofence_alert system"`
	}
)

// ListPreferences returns the caller's stored settings, or the channel
// defaults when nothing was ever saved. Preferences are created lazily
// on first update, never on read.
func (s *Usecase) ListPreferences(ctx context.Context) (*ListPreferencesOutput, error) {
	ctx, span := s.startSpan(ctx, "ListPreferences")
	defer span.End()

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return nil, err
	}

	pref, err := s.prefs.Get(ctx, clm.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to get preferences", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if pref == nil {
		pref = entity.DefaultPreference(clm.UserID)
	}

	out := &ListPreferencesOutput{}
	for _, ch := range entity.AllChannels() {
		setting, ok := pref.Channels[ch]
		if !ok {
			setting = entity.ChannelSetting{Channel: ch, Enabled: ch.DefaultEnabled()}
		}
		out.Channels = append(out.Channels, PreferenceChannelOutput{
			Channel:        ch.String(),
			Enabled:        setting.Enabled,
			Frequency:      setting.Frequency.String(),
			QuietEnabled:   setting.QuietHours.Enabled,
			QuietStartHour: setting.QuietHours.StartHour,
			QuietEndHour:   setting.QuietHours.EndHour,
			QuietTimezone:  setting.QuietHours.Timezone,
		})
	}
	for _, k := range pref.MutedKinds {
		out.MutedKinds = append(out.MutedKinds, k.String())
	}

	return out, nil
}

func (s *Usecase) UpdatePreferences(ctx context.Context, in UpdatePreferencesInput) error {
	ctx, span := s.startSpan(ctx, "UpdatePreferences")
	defer span.End()

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	pref := &entity.Preference{
		UserID:   clm.UserID,
		Channels: make(map[entity.Channel]entity.ChannelSetting, len(in.Channels)),
	}
	for _, c := range in.Channels {
		ch := entity.ChannelFromString(c.Channel)

		if c.QuietEnabled && c.QuietStartHour == c.QuietEndHour {
			return goerror.NewBusiness("quiet hours window is empty", goerror.CodeInvalidFormat)
		}
		tz := c.QuietTimezone
		if c.QuietEnabled && tz == "" {
			tz = "UTC"
		}
		if tz != "" {
			if _, err := time.LoadLocation(tz); err != nil {
				return goerror.NewBusiness("unknown timezone "+tz, goerror.CodeInvalidFormat)
			}
		}

		pref.Channels[ch] = entity.ChannelSetting{
			Channel:   ch,
			Enabled:   c.Enabled,
			Frequency: entity.FrequencyFromString(c.Frequency),
			QuietHours: entity.QuietHours{
				Enabled:   c.QuietEnabled,
				StartHour: c.QuietStartHour,
				EndHour:   c.QuietEndHour,
				Timezone:  tz,
			},
		}
	}
	for _, raw := range in.MutedKinds {
		pref.MutedKinds = append(pref.MutedKinds, entity.KindFromString(raw))
	}

	if err := s.prefs.Update(ctx, pref); err != nil {
		slog.ErrorContext(ctx, "failed to update preferences", "user_id", clm.UserID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
