// Package pref caches preference reads in redis in front of the pg
// repository. Every submission resolves preferences for each recipient,
// so the cache keeps the hot path off the database.
package pref

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hatolabs/hato/internal/notification/entity"
	"github.com/hatolabs/hato/internal/pkg/goerror"
	"github.com/hatolabs/hato/internal/pkg/instrument"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

type repoDB interface {
	GetPreference(ctx context.Context, userID int64) (*entity.Preference, error)
	UpsertPreference(ctx context.Context, pref *entity.Preference) error
}

type cachedPreference struct {
	UserID     int64                  `json:"user_id"`
	Channels   []cachedChannelSetting `json:"channels"`
	MutedKinds []int16                `json:"muted_kinds"`
}

type cachedChannelSetting struct {
	Channel        int16  `json:"channel"`
	Enabled        bool   `json:"enabled"`
	Frequency      int16  `json:"frequency"`
	QuietEnabled   bool   `json:"quiet_enabled"`
	QuietStartHour int    `json:"quiet_start_hour"`
	QuietEndHour   int    `json:"quiet_end_hour"`
	QuietTimezone  string `json:"quiet_timezone"`
}

// Store resolves preferences cache-first. Cache failures degrade to
// the database; database not-found degrades to nil, which callers
// treat as the channel defaults.
type Store struct {
	db     repoDB
	client *redis.Client
	ttl    time.Duration
	ins    instrument.Instrumentation
}

func NewStore(db repoDB, client *redis.Client, ttl time.Duration, ins instrument.Instrumentation) *Store {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &Store{db: db, client: client, ttl: ttl, ins: ins}
}

func (s *Store) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("notification.outbound.pref").Start(ctx, name)
}

func (s *Store) key(userID int64) string {
	return fmt.Sprintf("notification:pref:%d", userID)
}

// Get returns the user's preference, or (nil, nil) when none is stored.
func (s *Store) Get(ctx context.Context, userID int64) (_ *entity.Preference, err error) {
	ctx, span := s.startSpan(ctx, "Get")
	defer span.End()

	if pref, ok := s.fromCache(ctx, userID); ok {
		return pref, nil
	}

	pref, err := s.db.GetPreference(ctx, userID)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	s.toCache(ctx, pref)

	return pref, nil
}

// Update persists the preference and refreshes the cache entry.
func (s *Store) Update(ctx context.Context, pref *entity.Preference) (err error) {
	ctx, span := s.startSpan(ctx, "Update")
	defer span.End()

	if err = s.db.UpsertPreference(ctx, pref); err != nil {
		return err
	}

	if delErr := s.client.Del(ctx, s.key(pref.UserID)).Err(); delErr != nil {
		slog.WarnContext(ctx, "failed to invalidate preference cache",
			"user_id", pref.UserID, "error", delErr)
	}

	return nil
}

func (s *Store) fromCache(ctx context.Context, userID int64) (*entity.Preference, bool) {
	raw, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.WarnContext(ctx, "preference cache read failed", "user_id", userID, "error", err)
		return nil, false
	}

	var cached cachedPreference
	if err := json.Unmarshal(raw, &cached); err != nil {
		slog.WarnContext(ctx, "preference cache entry corrupt", "user_id", userID, "error", err)
		return nil, false
	}

	pref := &entity.Preference{
		UserID:   cached.UserID,
		Channels: make(map[entity.Channel]entity.ChannelSetting, len(cached.Channels)),
	}
	for _, c := range cached.Channels {
		ch := entity.Channel(c.Channel)
		pref.Channels[ch] = entity.ChannelSetting{
			Channel:   ch,
			Enabled:   c.Enabled,
			Frequency: entity.Frequency(c.Frequency),
			QuietHours: entity.QuietHours{
				Enabled:   c.QuietEnabled,
				StartHour: c.QuietStartHour,
				EndHour:   c.QuietEndHour,
				Timezone:  c.QuietTimezone,
			},
		}
	}
	for _, k := range cached.MutedKinds {
		pref.MutedKinds = append(pref.MutedKinds, entity.Kind(k))
	}

	return pref, true
}

func (s *Store) toCache(ctx context.Context, pref *entity.Preference) {
	cached := cachedPreference{UserID: pref.UserID}
	for _, setting := range pref.Channels {
		cached.Channels = append(cached.Channels, cachedChannelSetting{
			Channel:        int16(setting.Channel),
			Enabled:        setting.Enabled,
			Frequency:      int16(setting.Frequency),
			QuietEnabled:   setting.QuietHours.Enabled,
			QuietStartHour: setting.QuietHours.StartHour,
			QuietEndHour:   setting.QuietHours.EndHour,
			QuietTimezone:  setting.QuietHours.Timezone,
		})
	}
	for _, k := range pref.MutedKinds {
		cached.MutedKinds = append(cached.MutedKinds, int16(k))
	}

	raw, err := json.Marshal(cached)
	if err != nil {
		return
	}
	if err := s.client.Set(ctx, s.key(pref.UserID), raw, s.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "preference cache write failed", "user_id", pref.UserID, "error", err)
	}
}
