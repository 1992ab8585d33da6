package models

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rajankumarrkr/sukoon/internal/wire"
)

// Notification is a persisted notification row.
type Notification struct {
	ID          string
	RecipientID string
	SenderID    string
	Type        string
	Text        string
	PostID      sql.NullString
	Read        bool
	CreatedAt   time.Time
}

// NotificationWithSender is a notification joined with the sender's display
// fields. Sender fields are empty when the sender is not a known user.
type NotificationWithSender struct {
	Notification
	SenderUsername   string
	SenderProfilePic string
}

// Wire converts the row into the client-facing record.
func (n NotificationWithSender) Wire() wire.Notification {
	var post *string
	if n.PostID.Valid {
		p := n.PostID.String
		post = &p
	}
	return wire.Notification{
		ID:        n.ID,
		Recipient: n.RecipientID,
		Sender: wire.NotificationSender{
			ID:         n.SenderID,
			Username:   n.SenderUsername,
			ProfilePic: n.SenderProfilePic,
		},
		Type:      n.Type,
		Text:      n.Text,
		Post:      post,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}

type CreateNotificationParams struct {
	ID          string
	RecipientID string
	SenderID    string
	Type        string
	Text        string
	PostID      sql.NullString
	CreatedAt   time.Time
}

// CreateNotification inserts an unread notification.
func (q *Queries) CreateNotification(ctx context.Context, arg CreateNotificationParams) (Notification, error) {
	createdAt := arg.CreatedAt.UTC()
	_, err := q.db.ExecContext(ctx, `
INSERT INTO notifications (id, recipient_id, sender_id, type, text, post_id, read, created_at)
VALUES (?, ?, ?, ?, ?, ?, 0, ?)`,
		arg.ID, arg.RecipientID, arg.SenderID, arg.Type, arg.Text, arg.PostID, createdAt,
	)
	if err != nil {
		return Notification{}, err
	}
	return Notification{
		ID:          arg.ID,
		RecipientID: arg.RecipientID,
		SenderID:    arg.SenderID,
		Type:        arg.Type,
		Text:        arg.Text,
		PostID:      arg.PostID,
		CreatedAt:   createdAt,
	}, nil
}

// AttachSenderDisplayFields populates the sender's username and avatar.
//
// An unknown sender is not an error; the display fields stay empty.
func (q *Queries) AttachSenderDisplayFields(ctx context.Context, n Notification) (NotificationWithSender, error) {
	out := NotificationWithSender{Notification: n}
	err := q.db.QueryRowContext(ctx, `SELECT username, profile_pic FROM users WHERE id = ?`, n.SenderID).Scan(
		&out.SenderUsername, &out.SenderProfilePic,
	)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return out, err
	}
	return out, nil
}

type ListNotificationsParams struct {
	RecipientID string
	Limit       int64
}

// ListNotificationsByRecipient returns a user's notifications, newest first.
func (q *Queries) ListNotificationsByRecipient(ctx context.Context, arg ListNotificationsParams) ([]NotificationWithSender, error) {
	limit := arg.Limit
	if limit <= 0 {
		limit = 100
	}
	rows, err := q.db.QueryContext(ctx, `
SELECT n.id, n.recipient_id, n.sender_id, n.type, n.text, n.post_id, n.read, n.created_at,
	COALESCE(u.username, ''), COALESCE(u.profile_pic, '')
FROM notifications n
LEFT JOIN users u ON u.id = n.sender_id
WHERE n.recipient_id = ?
ORDER BY n.created_at DESC, n.rowid DESC
LIMIT ?`, arg.RecipientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []NotificationWithSender
	for rows.Next() {
		var n NotificationWithSender
		if err := rows.Scan(
			&n.ID, &n.RecipientID, &n.SenderID, &n.Type, &n.Text, &n.PostID, &n.Read, &n.CreatedAt,
			&n.SenderUsername, &n.SenderProfilePic,
		); err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

type MarkNotificationsReadParams struct {
	RecipientID string
	// Type narrows the update: "" marks everything, "message" marks only
	// message notifications, any other value marks everything except
	// message notifications.
	Type string
}

// MarkNotificationsRead flags unread notifications as read and returns how
// many rows changed.
func (q *Queries) MarkNotificationsRead(ctx context.Context, arg MarkNotificationsReadParams) (int64, error) {
	query := `UPDATE notifications SET read = 1 WHERE recipient_id = ? AND read = 0`
	args := []interface{}{arg.RecipientID}
	switch arg.Type {
	case "":
	case "message":
		query += ` AND type = 'message'`
	default:
		query += ` AND type <> 'message'`
	}

	res, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
