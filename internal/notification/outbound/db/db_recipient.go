package db

import (
	"context"

	"github.com/hatolabs/hato/internal/notification/entity"
)

const queryListRecipientsByRole = `
SELECT u.id, u.email, COALESCE(u.phone, ''),
       COALESCE(array_agg(d.device_token) FILTER (WHERE d.device_token IS NOT NULL), '{}'),
       COALESCE(w.url, '')
FROM users u
LEFT JOIN notification_devices d ON d.user_id = u.id
LEFT JOIN notification_webhooks w ON w.user_id = u.id
WHERE u.role = $1 AND ($2 = 0 OR u.ranch_id = $2) AND u.deleted_at IS NULL
GROUP BY u.id, u.email, u.phone, w.url`

// ListRecipientsByRole resolves the delivery targets for role-based
// fan-out (e.g. every ranch manager of one ranch). A zero ranchID
// means all ranches.
func (s *DB) ListRecipientsByRole(ctx context.Context, role string, ranchID int64) (_ []entity.Recipient, err error) {
	ctx, span := s.startSpan(ctx, "ListRecipientsByRole")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, queryListRecipientsByRole, role, ranchID)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	var recipients []entity.Recipient
	for rows.Next() {
		var rcpt entity.Recipient
		if err = rows.Scan(
			&rcpt.UserID,
			&rcpt.Email,
			&rcpt.Phone,
			&rcpt.DeviceTokens,
			&rcpt.WebhookURL,
		); err != nil {
			return nil, s.mapError(err)
		}
		recipients = append(recipients, rcpt)
	}

	return recipients, s.mapError(rows.Err())
}
