package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"readwell/internal/database"
	"readwell/internal/models"
)

// MessageRepository persists direct messages
type MessageRepository struct {
	db database.DBTX
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db database.DBTX) *MessageRepository {
	return &MessageRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *MessageRepository) WithTx(tx database.DBTX) *MessageRepository {
	return &MessageRepository{db: tx}
}

const messageSelect = `
	SELECT m.id, m.sender_id, COALESCE(su.name, ''), m.receiver_id, COALESCE(ru.name, ''),
		m.subject, m.content, m.is_read, m.created_at, m.read_at
	FROM messages m
	LEFT JOIN users su ON su.id = m.sender_id
	LEFT JOIN users ru ON ru.id = m.receiver_id
`

func scanMessage(row interface{ Scan(...any) error }) (*models.Message, error) {
	m := &models.Message{}
	var subject sql.NullString
	var readAt sql.NullTime
	err := row.Scan(&m.ID, &m.SenderID, &m.SenderName, &m.ReceiverID, &m.ReceiverName,
		&subject, &m.Content, &m.IsRead, &m.CreatedAt, &readAt)
	if err != nil {
		return nil, err
	}
	m.Subject = subject.String
	m.ReadAt = timePtr(readAt)
	return m, nil
}

// Create inserts a message
func (r *MessageRepository) Create(ctx context.Context, m *models.Message) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO messages (sender_id, receiver_id, subject, content, is_read, created_at, read_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		m.SenderID, m.ReceiverID, nullString(m.Subject), m.Content, m.IsRead, m.CreatedAt.UTC(), nullTime(m.ReadAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	m.ID = id
	return nil
}

// GetByID retrieves a message, or nil when none exists
func (r *MessageRepository) GetByID(ctx context.Context, id int64) (*models.Message, error) {
	m, err := scanMessage(r.db.QueryRowContext(ctx, messageSelect+" WHERE m.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return m, nil
}

// ListReceived returns a page of the user's inbox, newest first
func (r *MessageRepository) ListReceived(ctx context.Context, receiverID int64, limit, offset int) ([]models.Message, error) {
	return r.list(ctx, messageSelect+" WHERE m.receiver_id = ? ORDER BY m.created_at DESC, m.id DESC LIMIT ? OFFSET ?",
		receiverID, limit, offset)
}

// ListSent returns a page of the user's sent messages, newest first
func (r *MessageRepository) ListSent(ctx context.Context, senderID int64, limit, offset int) ([]models.Message, error) {
	return r.list(ctx, messageSelect+" WHERE m.sender_id = ? ORDER BY m.created_at DESC, m.id DESC LIMIT ? OFFSET ?",
		senderID, limit, offset)
}

// ListConversation returns up to limit messages exchanged between two users, oldest first
func (r *MessageRepository) ListConversation(ctx context.Context, userID, otherID int64, limit int) ([]models.Message, error) {
	query := messageSelect + `
		WHERE (m.sender_id = ? AND m.receiver_id = ?) OR (m.sender_id = ? AND m.receiver_id = ?)
		ORDER BY m.created_at, m.id
		LIMIT ?
	`
	return r.list(ctx, query, userID, otherID, otherID, userID, limit)
}

// ListAll returns every message ordered by ID
func (r *MessageRepository) ListAll(ctx context.Context) ([]models.Message, error) {
	return r.list(ctx, messageSelect+" ORDER BY m.id")
}

func (r *MessageRepository) list(ctx context.Context, query string, args ...any) ([]models.Message, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var out []models.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// CountReceived counts the user's inbox; unreadOnly narrows it to unread messages
func (r *MessageRepository) CountReceived(ctx context.Context, receiverID int64, unreadOnly bool) (int, error) {
	query := "SELECT COUNT(*) FROM messages WHERE receiver_id = ?"
	args := []any{receiverID}
	if unreadOnly {
		query += " AND is_read = ?"
		args = append(args, false)
	}
	return r.count(ctx, query, args...)
}

// CountSent counts the user's sent messages
func (r *MessageRepository) CountSent(ctx context.Context, senderID int64) (int, error) {
	return r.count(ctx, "SELECT COUNT(*) FROM messages WHERE sender_id = ?", senderID)
}

func (r *MessageRepository) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return n, nil
}

// MarkRead marks a message read. read_at keeps the first time it was read.
func (r *MessageRepository) MarkRead(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE messages SET is_read = ?, read_at = COALESCE(read_at, ?) WHERE id = ?", true, at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark message read: %w", err)
	}
	return nil
}

// MarkReadFrom marks every unread message senderID sent to receiverID and returns the count
func (r *MessageRepository) MarkReadFrom(ctx context.Context, receiverID, senderID int64, at time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE messages SET is_read = ?, read_at = ? WHERE receiver_id = ? AND sender_id = ? AND is_read = ?",
		true, at.UTC(), receiverID, senderID, false,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark conversation read: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Delete removes a message
func (r *MessageRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM messages WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}
