package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"readwell/internal/database"
	"readwell/internal/models"
)

// DefaultBulkChunk bounds rows per multi-row INSERT so broadcasts stay under
// driver parameter limits
const DefaultBulkChunk = 200

// NotificationRepository persists inbox entries
type NotificationRepository struct {
	db        database.DBTX
	chunkSize int
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db database.DBTX) *NotificationRepository {
	return &NotificationRepository{db: db, chunkSize: DefaultBulkChunk}
}

// WithTx returns a copy of the repository bound to tx
func (r *NotificationRepository) WithTx(tx database.DBTX) *NotificationRepository {
	return &NotificationRepository{db: tx, chunkSize: r.chunkSize}
}

// SetChunkSize changes how many rows CreateBulk writes per statement
func (r *NotificationRepository) SetChunkSize(n int) {
	if n > 0 {
		r.chunkSize = n
	}
}

// Create inserts one notification
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO notifications (user_id, type, title, message, link, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		n.UserID, string(n.Type), n.Title, n.Message, nullString(n.Link), n.IsRead, n.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	n.ID = id
	return nil
}

// CreateBulk inserts one unread copy of the template per user with multi-row
// INSERTs and returns how many rows were written.
func (r *NotificationRepository) CreateBulk(ctx context.Context, userIDs []int64, tmpl models.Notification) (int, error) {
	if tmpl.CreatedAt.IsZero() {
		tmpl.CreatedAt = time.Now().UTC()
	}

	written := 0
	for start := 0; start < len(userIDs); start += r.chunkSize {
		end := min(start+r.chunkSize, len(userIDs))
		chunk := userIDs[start:end]

		rows := make([]string, len(chunk))
		args := make([]any, 0, len(chunk)*7)
		for i, id := range chunk {
			rows[i] = "(" + placeholders(7) + ")"
			args = append(args, id, string(tmpl.Type), tmpl.Title, tmpl.Message, nullString(tmpl.Link), false, tmpl.CreatedAt.UTC())
		}

		query := "INSERT INTO notifications (user_id, type, title, message, link, is_read, created_at) VALUES " +
			strings.Join(rows, ", ")
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return written, fmt.Errorf("failed to bulk insert notifications: %w", err)
		}
		written += len(chunk)
	}
	return written, nil
}

// ListOptions pages an inbox listing
type ListOptions struct {
	Limit      int
	Offset     int
	UnreadOnly bool
}

// List returns a user's notifications, newest first
func (r *NotificationRepository) List(ctx context.Context, userID int64, opts ListOptions) ([]models.Notification, error) {
	query := `
		SELECT id, user_id, type, title, message, link, is_read, created_at
		FROM notifications
		WHERE user_id = ?
	`
	args := []any{userID}
	if opts.UnreadOnly {
		query += " AND is_read = ?"
		args = append(args, false)
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, opts.Limit, opts.Offset)

	return r.query(ctx, query, args...)
}

// ListAll returns every notification ordered by ID
func (r *NotificationRepository) ListAll(ctx context.Context) ([]models.Notification, error) {
	return r.query(ctx, `
		SELECT id, user_id, type, title, message, link, is_read, created_at
		FROM notifications
		ORDER BY id
	`)
}

func (r *NotificationRepository) query(ctx context.Context, query string, args ...any) ([]models.Notification, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var out []models.Notification
	for rows.Next() {
		var n models.Notification
		var typ string
		var link sql.NullString
		if err := rows.Scan(&n.ID, &n.UserID, &typ, &n.Title, &n.Message, &link, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.Type = models.NotificationType(typ)
		n.Link = link.String
		out = append(out, n)
	}
	return out, rows.Err()
}

// CountUnread counts a user's unread notifications
func (r *NotificationRepository) CountUnread(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = ?", userID, false,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread: %w", err)
	}
	return n, nil
}

// MarkRead marks one of the user's notifications read. It reports false when
// no such notification belongs to the user.
func (r *NotificationRepository) MarkRead(ctx context.Context, userID, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = ? WHERE id = ? AND user_id = ?", true, id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark notification read: %w", err)
	}
	return affected(res)
}

// MarkAllRead marks every unread notification of the user and returns the count
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID int64) (int, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = ? WHERE user_id = ? AND is_read = ?", true, userID, false,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Delete removes one of the user's notifications, reporting whether it existed
func (r *NotificationRepository) Delete(ctx context.Context, userID, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM notifications WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete notification: %w", err)
	}
	return affected(res)
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
