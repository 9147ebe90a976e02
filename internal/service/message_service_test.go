package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readwell/internal/models"
	"readwell/internal/validation"
)

func TestSendMessage(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	c := newClassroom(t, f)
	otherTeacher := f.user(t, UserInput{Name: "Mehmet Bey", Role: models.RoleTeacher})
	parent := f.user(t, UserInput{Name: "Hasan Bey", Role: models.RoleParent})
	svc := f.svc.Messages

	m, err := svc.Send(ctx, c.mine.ID, MessageInput{ReceiverID: c.teacher.ID, Subject: " Soru ", Content: "Ödevi anlamadım"})
	require.NoError(t, err)
	assert.NotZero(t, m.ID)
	assert.Equal(t, "Soru", m.Subject)
	assert.Equal(t, "Ali", m.SenderName)

	inbox := f.inbox(t, c.teacher.ID)
	require.Len(t, inbox, 1)
	assert.Equal(t, models.NotificationMessage, inbox[0].Type)
	assert.Equal(t, "Yeni Mesaj", inbox[0].Title)
	assert.Equal(t, "Ali size bir mesaj gönderdi", inbox[0].Message)
	assert.Equal(t, "/messages", inbox[0].Link)

	// any teacher is reachable, other roles are not
	_, err = svc.Send(ctx, c.mine.ID, MessageInput{ReceiverID: otherTeacher.ID, Content: "Merhaba"})
	require.NoError(t, err)
	_, err = svc.Send(ctx, c.mine.ID, MessageInput{ReceiverID: c.other.ID, Content: "Merhaba"})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.Send(ctx, c.mine.ID, MessageInput{ReceiverID: parent.ID, Content: "Merhaba"})
	assert.ErrorIs(t, err, ErrForbidden)

	// teachers and parents write to anyone
	_, err = svc.Send(ctx, parent.ID, MessageInput{ReceiverID: c.other.ID, Content: "Merhaba"})
	require.NoError(t, err)

	_, err = svc.Send(ctx, c.teacher.ID, MessageInput{ReceiverID: 9999, Content: "Merhaba"})
	assert.ErrorIs(t, err, ErrRecipientNotFound)
	_, err = svc.Send(ctx, c.teacher.ID, MessageInput{ReceiverID: c.mine.ID, Content: "   "})
	assert.ErrorIs(t, err, validation.ErrInvalid)
}

func TestMailboxAndConversation(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	c := newClassroom(t, f)
	svc := f.svc.Messages

	var ids []int64
	for _, text := range []string{"bir", "iki", "üç"} {
		m, err := svc.Send(ctx, c.teacher.ID, MessageInput{ReceiverID: c.mine.ID, Content: text})
		require.NoError(t, err)
		ids = append(ids, m.ID)
		f.clock.Advance(time.Minute)
	}
	reply, err := svc.Send(ctx, c.mine.ID, MessageInput{ReceiverID: c.teacher.ID, Content: "tamam"})
	require.NoError(t, err)

	box, err := svc.Inbox(ctx, c.mine.ID, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, box.Total)
	assert.Equal(t, 3, box.Unread)
	require.Len(t, box.Messages, 2)
	assert.Equal(t, "üç", box.Messages[0].Content)
	assert.Equal(t, "Ayşe Hanım", box.Messages[0].SenderName)

	sent, err := svc.Sent(ctx, c.teacher.ID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, sent.Total)
	assert.Zero(t, sent.Unread)

	// the sender reading leaves the message unread
	m, err := svc.Read(ctx, c.teacher.ID, ids[0])
	require.NoError(t, err)
	assert.False(t, m.IsRead)

	m, err = svc.Read(ctx, c.mine.ID, ids[0])
	require.NoError(t, err)
	assert.True(t, m.IsRead)
	require.NotNil(t, m.ReadAt)

	_, err = svc.Read(ctx, c.other.ID, ids[0])
	assert.ErrorIs(t, err, ErrMessageNotFound)
	assert.ErrorIs(t, svc.MarkRead(ctx, c.teacher.ID, ids[1]), ErrMessageNotFound)
	require.NoError(t, svc.MarkRead(ctx, c.mine.ID, ids[1]))
	// already read is still fine
	require.NoError(t, svc.MarkRead(ctx, c.mine.ID, ids[1]))

	unread, err := svc.UnreadCount(ctx, c.mine.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	conv, err := svc.Conversation(ctx, c.mine.ID, c.teacher.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, c.teacher.ID, conv.With.ID)
	require.Len(t, conv.Messages, 4)
	assert.Equal(t, "bir", conv.Messages[0].Content)
	assert.False(t, conv.Messages[0].IsMine)
	assert.Equal(t, reply.ID, conv.Messages[3].ID)
	assert.True(t, conv.Messages[3].IsMine)

	unread, err = svc.UnreadCount(ctx, c.mine.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)

	// the teacher's side of the reply is still unread
	unread, err = svc.UnreadCount(ctx, c.teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	_, err = svc.Conversation(ctx, c.mine.ID, 9999, 0)
	assert.ErrorIs(t, err, ErrUserNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, c.other.ID, ids[2]), ErrMessageNotFound)
	require.NoError(t, svc.Delete(ctx, c.teacher.ID, ids[2]))
	assert.ErrorIs(t, svc.Delete(ctx, c.mine.ID, ids[2]), ErrMessageNotFound)

	box, err = svc.Inbox(ctx, c.mine.ID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, box.Total)
}
