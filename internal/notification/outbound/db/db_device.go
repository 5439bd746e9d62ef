package db

import (
	"context"
)

const queryRegisterDevice = `
INSERT INTO notification_devices (user_id, device_token, platform, created_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (device_token) DO UPDATE SET
  user_id = EXCLUDED.user_id,
  platform = EXCLUDED.platform`

func (s *DB) RegisterDevice(ctx context.Context, userID int64, deviceToken, platform string) (err error) {
	ctx, span := s.startSpan(ctx, "RegisterDevice")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, queryRegisterDevice, userID, deviceToken, platform)
	return s.mapError(err)
}

const queryRemoveDevice = `DELETE FROM notification_devices WHERE device_token = $1`

func (s *DB) RemoveDevice(ctx context.Context, deviceToken string) (err error) {
	ctx, span := s.startSpan(ctx, "RemoveDevice")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, queryRemoveDevice, deviceToken)
	return s.mapError(err)
}

const queryListDeviceTokens = `
SELECT device_token FROM notification_devices WHERE user_id = $1`

func (s *DB) ListDeviceTokens(ctx context.Context, userID int64) (_ []string, err error) {
	ctx, span := s.startSpan(ctx, "ListDeviceTokens")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, queryListDeviceTokens, userID)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err = rows.Scan(&token); err != nil {
			return nil, s.mapError(err)
		}
		tokens = append(tokens, token)
	}

	return tokens, s.mapError(rows.Err())
}
