package db

import (
	"context"

	"github.com/hatolabs/hato/internal/notification/entity"
)

const queryCreateInboxItem = `
INSERT INTO notification_inbox
  (user_id, job_id, kind, priority, title, message, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, now())
RETURNING id`

func (s *DB) CreateInboxItem(ctx context.Context, item entity.InboxItem) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "CreateInboxItem")
	defer func() { s.endSpan(span, err) }()

	var id int64
	err = s.conn.QueryRow(ctx, queryCreateInboxItem,
		item.UserID,
		item.JobID,
		item.Kind,
		item.Priority,
		item.Title,
		item.Message,
		item.Metadata,
	).Scan(&id)
	if err != nil {
		return 0, s.mapError(err)
	}

	return id, nil
}

const queryListInbox = `
SELECT id, job_id, kind, priority, title, message, metadata, read_at, created_at
FROM notification_inbox
WHERE user_id = $1
  AND deleted_at IS NULL
  AND ($2 = 'all' OR ($2 = 'unread' AND read_at IS NULL) OR ($2 = 'read' AND read_at IS NOT NULL))
ORDER BY created_at DESC
LIMIT $3 OFFSET $4`

func (s *DB) ListInbox(ctx context.Context, userID int64, status entity.InboxStatus, limit, offset int32) (_ []entity.InboxItem, err error) {
	ctx, span := s.startSpan(ctx, "ListInbox")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, queryListInbox, userID, string(status), limit, offset)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	items := make([]entity.InboxItem, 0, limit)
	for rows.Next() {
		item := entity.InboxItem{UserID: userID}
		if err = rows.Scan(
			&item.ID,
			&item.JobID,
			&item.Kind,
			&item.Priority,
			&item.Title,
			&item.Message,
			&item.Metadata,
			&item.ReadAt,
			&item.CreatedAt,
		); err != nil {
			return nil, s.mapError(err)
		}
		items = append(items, item)
	}

	return items, s.mapError(rows.Err())
}

const queryCountUnreadInbox = `
SELECT count(*) FROM notification_inbox
WHERE user_id = $1 AND read_at IS NULL AND deleted_at IS NULL`

func (s *DB) CountUnreadInbox(ctx context.Context, userID int64) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "CountUnreadInbox")
	defer func() { s.endSpan(span, err) }()

	var count int64
	if err = s.conn.QueryRow(ctx, queryCountUnreadInbox, userID).Scan(&count); err != nil {
		return 0, s.mapError(err)
	}

	return count, nil
}

const queryMarkInboxRead = `
UPDATE notification_inbox SET read_at = now()
WHERE id = $2 AND user_id = $1 AND read_at IS NULL AND deleted_at IS NULL`

func (s *DB) MarkInboxRead(ctx context.Context, userID, itemID int64) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "MarkInboxRead")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, queryMarkInboxRead, userID, itemID)
	if err != nil {
		return false, s.mapError(err)
	}

	return tag.RowsAffected() > 0, nil
}

const queryMarkInboxReadAll = `
UPDATE notification_inbox SET read_at = now()
WHERE user_id = $1 AND read_at IS NULL AND deleted_at IS NULL`

func (s *DB) MarkInboxReadAll(ctx context.Context, userID int64) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "MarkInboxReadAll")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, queryMarkInboxReadAll, userID)
	if err != nil {
		return 0, s.mapError(err)
	}

	return tag.RowsAffected(), nil
}

const querySoftDeleteInbox = `
UPDATE notification_inbox SET deleted_at = now()
WHERE id = $2 AND user_id = $1 AND deleted_at IS NULL`

func (s *DB) SoftDeleteInbox(ctx context.Context, userID, itemID int64) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "SoftDeleteInbox")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, querySoftDeleteInbox, userID, itemID)
	if err != nil {
		return false, s.mapError(err)
	}

	return tag.RowsAffected() > 0, nil
}
