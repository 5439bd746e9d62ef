package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hatolabs/hato/internal/notification/entity"
	"github.com/hatolabs/hato/internal/pkg/goerror"
	"github.com/jackc/pgx/v5"
)

const queryGetPreferenceChannels = `
SELECT channel, is_enabled, frequency,
       quiet_enabled, quiet_start_hour, quiet_end_hour, quiet_timezone
FROM notification_preferences
WHERE user_id = $1`

const queryGetMutedKinds = `
SELECT kind FROM notification_muted_kinds WHERE user_id = $1`

// GetPreference loads a user's channel settings and muted categories.
// A user with no stored rows returns goerror.ErrNotFound so callers
// can fall back to the defaults.
func (s *DB) GetPreference(ctx context.Context, userID int64) (_ *entity.Preference, err error) {
	ctx, span := s.startSpan(ctx, "GetPreference")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, queryGetPreferenceChannels, userID)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	channels := make(map[entity.Channel]entity.ChannelSetting)
	for rows.Next() {
		var (
			setting entity.ChannelSetting
			quiet   entity.QuietHours
		)
		if err = rows.Scan(
			&setting.Channel,
			&setting.Enabled,
			&setting.Frequency,
			&quiet.Enabled,
			&quiet.StartHour,
			&quiet.EndHour,
			&quiet.Timezone,
		); err != nil {
			return nil, s.mapError(err)
		}
		setting.QuietHours = quiet
		channels[setting.Channel] = setting
	}
	if err = rows.Err(); err != nil {
		return nil, s.mapError(err)
	}
	if len(channels) == 0 {
		return nil, goerror.ErrNotFound
	}

	muted, err := s.getMutedKinds(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &entity.Preference{UserID: userID, Channels: channels, MutedKinds: muted}, nil
}

func (s *DB) getMutedKinds(ctx context.Context, userID int64) ([]entity.Kind, error) {
	rows, err := s.conn.Query(ctx, queryGetMutedKinds, userID)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	var kinds []entity.Kind
	for rows.Next() {
		var k entity.Kind
		if err := rows.Scan(&k); err != nil {
			return nil, s.mapError(err)
		}
		kinds = append(kinds, k)
	}

	return kinds, s.mapError(rows.Err())
}

const queryUpsertPreferenceChannel = `
INSERT INTO notification_preferences
  (user_id, channel, is_enabled, frequency,
   quiet_enabled, quiet_start_hour, quiet_end_hour, quiet_timezone, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
ON CONFLICT (user_id, channel) DO UPDATE SET
  is_enabled = EXCLUDED.is_enabled,
  frequency = EXCLUDED.frequency,
  quiet_enabled = EXCLUDED.quiet_enabled,
  quiet_start_hour = EXCLUDED.quiet_start_hour,
  quiet_end_hour = EXCLUDED.quiet_end_hour,
  quiet_timezone = EXCLUDED.quiet_timezone,
  updated_at = now()`

const queryDeleteMutedKinds = `DELETE FROM notification_muted_kinds WHERE user_id = $1`

const queryInsertMutedKind = `
INSERT INTO notification_muted_kinds (user_id, kind)
VALUES ($1, $2)
ON CONFLICT DO NOTHING`

// UpsertPreference replaces a user's stored settings in one transaction.
func (s *DB) UpsertPreference(ctx context.Context, pref *entity.Preference) (err error) {
	ctx, span := s.startSpan(ctx, "UpsertPreference")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rollback", "error", rErr)
		}
	}()

	for _, setting := range pref.Channels {
		if _, err = tx.Exec(ctx, queryUpsertPreferenceChannel,
			pref.UserID,
			setting.Channel,
			setting.Enabled,
			setting.Frequency,
			setting.QuietHours.Enabled,
			setting.QuietHours.StartHour,
			setting.QuietHours.EndHour,
			setting.QuietHours.Timezone,
		); err != nil {
			return s.mapError(err)
		}
	}

	if _, err = tx.Exec(ctx, queryDeleteMutedKinds, pref.UserID); err != nil {
		return s.mapError(err)
	}
	for _, kind := range pref.MutedKinds {
		if _, err = tx.Exec(ctx, queryInsertMutedKind, pref.UserID, kind); err != nil {
			return s.mapError(err)
		}
	}

	return s.mapError(tx.Commit(ctx))
}
