package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"readwell/internal/models"
	"readwell/internal/repository"
	"readwell/internal/validation"
)

// MessageInput is a direct message to send
type MessageInput struct {
	ReceiverID int64  `json:"receiver_id" validate:"gt=0"`
	Subject    string `json:"subject" validate:"max=255"`
	Content    string `json:"content" validate:"notblank"`
}

// Mailbox is one page of received or sent messages. Unread is only set for the inbox.
type Mailbox struct {
	Messages []models.Message `json:"messages"`
	Total    int              `json:"total"`
	Unread   int              `json:"unread"`
}

// ConversationMessage is a message seen from one side of a conversation
type ConversationMessage struct {
	models.Message
	IsMine bool `json:"is_mine"`
}

// Conversation is the exchange between the viewer and one other user
type Conversation struct {
	With     *models.User          `json:"user"`
	Messages []ConversationMessage `json:"messages"`
}

// MessageService sends and reads direct messages between users
type MessageService struct {
	messages *repository.MessageRepository
	users    *repository.UserRepository
	notifier *NotificationService
	log      *zap.Logger
	now      Clock
}

// NewMessageService creates a new message service
func NewMessageService(messages *repository.MessageRepository, users *repository.UserRepository, notifier *NotificationService, log *zap.Logger, now Clock) *MessageService {
	return &MessageService{messages: messages, users: users, notifier: notifier, log: log, now: now}
}

// canMessage reports whether sender may write to receiver. Students may only
// write to their own teacher or another teacher.
func canMessage(sender, receiver *models.User) bool {
	if sender.Role != models.RoleStudent {
		return true
	}
	if sender.TeacherID != nil && *sender.TeacherID == receiver.ID {
		return true
	}
	return receiver.Role == models.RoleTeacher
}

// Send delivers a message and notifies the receiver
func (s *MessageService) Send(ctx context.Context, senderID int64, in MessageInput) (*models.Message, error) {
	in.Subject = strings.TrimSpace(in.Subject)
	in.Content = strings.TrimSpace(in.Content)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	sender, err := s.users.GetByID(ctx, senderID)
	if err != nil {
		return nil, err
	}
	if sender == nil {
		return nil, ErrUserNotFound
	}
	receiver, err := s.users.GetByID(ctx, in.ReceiverID)
	if err != nil {
		return nil, err
	}
	if receiver == nil {
		return nil, ErrRecipientNotFound
	}
	if !canMessage(sender, receiver) {
		return nil, ErrForbidden
	}

	m := &models.Message{
		SenderID:     sender.ID,
		SenderName:   sender.Name,
		ReceiverID:   receiver.ID,
		ReceiverName: receiver.Name,
		Subject:      in.Subject,
		Content:      in.Content,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.messages.Create(ctx, m); err != nil {
		return nil, err
	}
	s.notifier.NotifyMessage(ctx, receiver.ID, sender.Name)
	s.log.Debug("message sent", zap.Int64("sender_id", sender.ID), zap.Int64("receiver_id", receiver.ID), zap.Int64("message_id", m.ID))
	return m, nil
}

func pageBounds(limit, offset, def int) (int, int) {
	if limit <= 0 {
		limit = def
	}
	return limit, max(offset, 0)
}

// Inbox returns a page of received messages, newest first. A non-positive limit means 20.
func (s *MessageService) Inbox(ctx context.Context, userID int64, limit, offset int) (*Mailbox, error) {
	limit, offset = pageBounds(limit, offset, 20)
	list, err := s.messages.ListReceived(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := s.messages.CountReceived(ctx, userID, false)
	if err != nil {
		return nil, err
	}
	unread, err := s.messages.CountReceived(ctx, userID, true)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Message{}
	}
	return &Mailbox{Messages: list, Total: total, Unread: unread}, nil
}

// Sent returns a page of sent messages, newest first. A non-positive limit means 20.
func (s *MessageService) Sent(ctx context.Context, userID int64, limit, offset int) (*Mailbox, error) {
	limit, offset = pageBounds(limit, offset, 20)
	list, err := s.messages.ListSent(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := s.messages.CountSent(ctx, userID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Message{}
	}
	return &Mailbox{Messages: list, Total: total}, nil
}

// participant loads a message the user sent or received. Anyone else gets ErrMessageNotFound.
func (s *MessageService) participant(ctx context.Context, userID, id int64) (*models.Message, error) {
	m, err := s.messages.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil || (m.SenderID != userID && m.ReceiverID != userID) {
		return nil, ErrMessageNotFound
	}
	return m, nil
}

// Read returns one message; the receiver opening it marks it read
func (s *MessageService) Read(ctx context.Context, userID, id int64) (*models.Message, error) {
	m, err := s.participant(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if m.ReceiverID == userID && !m.IsRead {
		now := s.now().UTC()
		if err := s.messages.MarkRead(ctx, m.ID, now); err != nil {
			return nil, err
		}
		m.IsRead = true
		m.ReadAt = &now
	}
	return m, nil
}

// MarkRead marks a received message read
func (s *MessageService) MarkRead(ctx context.Context, userID, id int64) error {
	m, err := s.messages.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if m == nil || m.ReceiverID != userID {
		return ErrMessageNotFound
	}
	return s.messages.MarkRead(ctx, id, s.now())
}

// Delete removes a message for both sides; only its sender or receiver may
func (s *MessageService) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.participant(ctx, userID, id); err != nil {
		return err
	}
	return s.messages.Delete(ctx, id)
}

// UnreadCount counts the user's unread messages
func (s *MessageService) UnreadCount(ctx context.Context, userID int64) (int, error) {
	return s.messages.CountReceived(ctx, userID, true)
}

// Conversation returns up to limit messages with otherID, oldest first, and
// marks the ones the user received read. A non-positive limit means 50.
func (s *MessageService) Conversation(ctx context.Context, userID, otherID int64, limit int) (*Conversation, error) {
	other, err := s.users.GetByID(ctx, otherID)
	if err != nil {
		return nil, err
	}
	if other == nil {
		return nil, ErrUserNotFound
	}
	limit, _ = pageBounds(limit, 0, 50)

	if _, err := s.messages.MarkReadFrom(ctx, userID, otherID, s.now()); err != nil {
		return nil, err
	}
	list, err := s.messages.ListConversation(ctx, userID, otherID, limit)
	if err != nil {
		return nil, err
	}

	out := &Conversation{With: other, Messages: make([]ConversationMessage, len(list))}
	for i, m := range list {
		out.Messages[i] = ConversationMessage{Message: m, IsMine: m.SenderID == userID}
	}
	return out, nil
}
