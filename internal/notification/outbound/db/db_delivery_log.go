package db

import (
	"context"

	"github.com/hatolabs/hato/internal/notification/entity"
)

const queryCreateDeliveryLog = `
INSERT INTO notification_delivery_logs
  (job_id, batch_id, channel, kind, priority, status, succeeded, failed, last_error, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())`

func (s *DB) CreateDeliveryLog(ctx context.Context, dl entity.DeliveryLog) (err error) {
	ctx, span := s.startSpan(ctx, "CreateDeliveryLog")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, queryCreateDeliveryLog,
		dl.JobID,
		dl.BatchID,
		dl.Channel,
		dl.Kind,
		dl.Priority,
		dl.Status,
		dl.Succeeded,
		dl.Failed,
		dl.LastError,
	)
	return s.mapError(err)
}

const queryListDeliveryLogs = `
SELECT id, job_id, batch_id, channel, kind, priority, status, succeeded, failed, last_error, created_at
FROM notification_delivery_logs
WHERE job_id = $1
ORDER BY created_at`

func (s *DB) ListDeliveryLogs(ctx context.Context, jobID int64) (_ []entity.DeliveryLog, err error) {
	ctx, span := s.startSpan(ctx, "ListDeliveryLogs")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, queryListDeliveryLogs, jobID)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	var logs []entity.DeliveryLog
	for rows.Next() {
		var dl entity.DeliveryLog
		if err = rows.Scan(
			&dl.ID,
			&dl.JobID,
			&dl.BatchID,
			&dl.Channel,
			&dl.Kind,
			&dl.Priority,
			&dl.Status,
			&dl.Succeeded,
			&dl.Failed,
			&dl.LastError,
			&dl.CreatedAt,
		); err != nil {
			return nil, s.mapError(err)
		}
		logs = append(logs, dl)
	}

	return logs, s.mapError(rows.Err())
}
