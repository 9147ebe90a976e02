package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readwell/internal/models"
	"readwell/internal/repository"
	"readwell/internal/validation"
)

func TestAnnounce(t *testing.T) {
	ctx := context.Background()
	f := setup(t, func(o *Options) { o.BulkChunk = 2 })

	grade3, grade4 := 3, 4
	admin := f.user(t, UserInput{Name: "Müdür", Role: models.RoleAdmin})
	teacher := f.user(t, UserInput{Name: "Öğretmen Ayşe", Role: models.RoleTeacher})
	s1 := f.user(t, UserInput{Name: "Ali", Role: models.RoleStudent, GradeLevel: &grade3})
	f.user(t, UserInput{Name: "Veli", Role: models.RoleStudent, GradeLevel: &grade4})
	parent := f.user(t, UserInput{Name: "Veli Hasan", Role: models.RoleParent})

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"all but sender", "all", 4},
		{"students", "students", 2},
		{"target case and spacing ignored", " Students ", 2},
		{"teachers", "teachers", 1},
		{"parents", "parents", 1},
		{"one grade", "grade_3", 1},
		{"empty grade", "grade_9", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := f.svc.Notifications.Announce(ctx, admin.ID, AnnounceInput{Title: "Kitap Haftası", Message: "Herkes okusun", Target: tt.target})
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
		})
	}

	inbox := f.inbox(t, s1.ID)
	require.NotEmpty(t, inbox)
	assert.Equal(t, models.NotificationAnnouncement, inbox[0].Type)
	assert.Equal(t, "📢 Kitap Haftası", inbox[0].Title)
	assert.Equal(t, "Herkes okusun\n\n— Müdür", inbox[0].Message)
	assert.Empty(t, inbox[0].Link)
	assert.Len(t, f.inbox(t, parent.ID), 2)
	assert.Empty(t, f.inbox(t, admin.ID))

	_, err := f.svc.Notifications.Announce(ctx, teacher.ID, AnnounceInput{Title: "x", Message: "y", Target: "everyone"})
	assert.ErrorIs(t, err, ErrInvalidTarget)

	_, err = f.svc.Notifications.Announce(ctx, s1.ID, AnnounceInput{Title: "x", Message: "y", Target: "all"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Notifications.Announce(ctx, teacher.ID, AnnounceInput{Title: "  ", Message: "y", Target: "all"})
	assert.ErrorIs(t, err, validation.ErrInvalid)
}

func TestInbox(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	u := f.student(t, "Ali")
	other := f.student(t, "Veli")
	svc := f.svc.Notifications

	var ids []int64
	for _, title := range []string{"bir", "iki", "üç"} {
		n, err := svc.Create(ctx, u.ID, models.NotificationMessage, title, "mesaj", "")
		require.NoError(t, err)
		ids = append(ids, n.ID)
	}

	in, err := svc.List(ctx, u.ID, repository.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, in.UnreadCount)
	assert.Equal(t, []string{"üç", "iki", "bir"}, titles(in.Notifications))

	require.NoError(t, svc.MarkRead(ctx, u.ID, ids[0]))
	assert.ErrorIs(t, svc.MarkRead(ctx, other.ID, ids[1]), ErrNotificationNotFound)

	unread, err := svc.List(ctx, u.ID, repository.ListOptions{UnreadOnly: true})
	require.NoError(t, err)
	assert.Len(t, unread.Notifications, 2)

	page, err := svc.List(ctx, u.ID, repository.ListOptions{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"iki"}, titles(page.Notifications))

	n, err := svc.MarkAllRead(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	count, err := svc.UnreadCount(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	assert.ErrorIs(t, svc.Delete(ctx, other.ID, ids[2]), ErrNotificationNotFound)
	require.NoError(t, svc.Delete(ctx, u.ID, ids[2]))
	assert.Len(t, f.inbox(t, u.ID), 2)

	empty, err := svc.List(ctx, other.ID, repository.ListOptions{})
	require.NoError(t, err)
	assert.NotNil(t, empty.Notifications)
}

func TestNotificationTemplates(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	u := f.student(t, "Ali")
	svc := f.svc.Notifications

	due := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	svc.NotifyAssignment(ctx, u.ID, "Ayşe Hanım", "Keloğlan", &due)
	svc.NotifyAssignmentReminder(ctx, u.ID, "Keloğlan", 72)
	svc.NotifyAssignmentReminder(ctx, u.ID, "Keloğlan", 5)
	svc.NotifyStreakLost(ctx, u.ID, 2)
	svc.NotifyXPEarned(ctx, u.ID, "story_read", 10)
	svc.NotifyCommendation(ctx, u.ID, "Ayşe Hanım", models.CommendationTesekkur, "Düzenli okuma")
	svc.NotifyAccountLinked(ctx, u.ID, "Hasan Bey")

	inbox := f.inbox(t, u.ID)
	require.Len(t, inbox, 5)

	got := map[string]models.Notification{}
	for _, n := range inbox {
		got[n.Title] = n
	}
	assert.Equal(t, "Ayşe Hanım sana yeni bir ödev verdi: Keloğlan. Son tarih: 15/03/2026", got["📝 Yeni Ödev"].Message)
	assert.Equal(t, "'Keloğlan' ödevinin bitmesine 3 gün kaldı.", got["📅 Ödev Hatırlatması"].Message)
	assert.Equal(t, models.NotificationReminder, got["⚠️ Ödev Son Gün!"].Type)
	assert.Equal(t, "Ayşe Hanım: Düzenli okuma", got["🏆 Teşekkür Aldınız!"].Message)
	assert.Equal(t, "/student/achievements", got["🏆 Teşekkür Aldınız!"].Link)
	assert.Equal(t, "Hesabınız Hasan Bey adlı veliye bağlandı.", got["Veli Bağlantısı"].Message)
	assert.Equal(t, models.NotificationAccount, got["Veli Bağlantısı"].Type)
}

type recordingMailer struct {
	sent []string
}

func (m *recordingMailer) SendNotificationEmail(_ context.Context, toEmail, _, title, _, _ string) error {
	m.sent = append(m.sent, toEmail+"|"+title)
	return nil
}

func TestNotificationEmailMirror(t *testing.T) {
	ctx := context.Background()
	mailer := &recordingMailer{}
	f := setup(t, func(o *Options) { o.Mailer = mailer })
	withMail := f.user(t, UserInput{Name: "Ali", Email: "ali@example.com", Role: models.RoleStudent})
	noMail := f.student(t, "Veli")

	f.svc.Notifications.NotifyAssignmentReminder(ctx, withMail.ID, "Keloğlan", 5)
	f.svc.Notifications.NotifyAssignmentReminder(ctx, noMail.ID, "Keloğlan", 5)
	f.svc.Notifications.NotifyLevelUp(ctx, withMail.ID, 2)

	assert.Equal(t, []string{"ali@example.com|⚠️ Ödev Son Gün!"}, mailer.sent)
}
