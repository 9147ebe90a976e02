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

type classroom struct {
	teacher *models.User
	mine    *models.User
	other   *models.User
	story   *models.Story
}

func newClassroom(t *testing.T, f *fixture) classroom {
	t.Helper()
	teacher := f.user(t, UserInput{Name: "Ayşe Hanım", Role: models.RoleTeacher})
	return classroom{
		teacher: teacher,
		mine:    f.user(t, UserInput{Name: "Ali", Role: models.RoleStudent, TeacherID: &teacher.ID}),
		other:   f.student(t, "Veli"),
		story:   f.story(t, "Keloğlan", 150),
	}
}

func TestAssignAndComplete(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	c := newClassroom(t, f)
	svc := f.svc.Assignments

	due := f.clock.Now().Add(12 * time.Hour)
	created, err := svc.Assign(ctx, c.teacher.ID, c.story.ID, []int64{c.mine.ID, c.other.ID}, &due)
	require.NoError(t, err)
	require.Len(t, created, 1, "students of other teachers are skipped")
	assert.Equal(t, c.mine.ID, created[0].StudentID)

	again, err := svc.Assign(ctx, c.teacher.ID, c.story.ID, []int64{c.mine.ID}, &due)
	require.NoError(t, err)
	assert.Empty(t, again, "an open assignment for the same story blocks another")

	_, err = svc.Assign(ctx, c.mine.ID, c.story.ID, []int64{c.mine.ID}, nil)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.Assign(ctx, c.teacher.ID, 999, []int64{c.mine.ID}, nil)
	assert.ErrorIs(t, err, ErrStoryNotFound)

	inbox := f.inbox(t, c.mine.ID)
	require.Len(t, inbox, 1)
	assert.Equal(t, "📝 Yeni Ödev", inbox[0].Title)

	count, err := svc.PendingCount(ctx, c.mine.ID)
	require.NoError(t, err)
	assert.Equal(t, PendingCount{Pending: 1, Urgent: 1}, count)

	sent, err := svc.SendDueReminders(ctx, 48*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, "⚠️ Ödev Son Gün!", f.inbox(t, c.mine.ID)[0].Title)

	_, err = svc.Complete(ctx, c.other.ID, created[0].ID)
	assert.ErrorIs(t, err, ErrAssignmentNotFound)

	already, err := svc.Complete(ctx, c.mine.ID, created[0].ID)
	require.NoError(t, err)
	assert.False(t, already)
	already, err = svc.Complete(ctx, c.mine.ID, created[0].ID)
	require.NoError(t, err)
	assert.True(t, already)

	teacherInbox := f.inbox(t, c.teacher.ID)
	require.Len(t, teacherInbox, 1, "completing twice notifies once")
	assert.Equal(t, "Ödev Tamamlandı", teacherInbox[0].Title)
	assert.Equal(t, "Ali 'Keloğlan' ödevini tamamladı.", teacherInbox[0].Message)

	stats, err := svc.TeacherStats(ctx, c.teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, &TeacherStats{Total: 1, Completed: 1, CompletionRate: 100}, stats)

	// once completed the story can be assigned again
	created, err = svc.Assign(ctx, c.teacher.ID, c.story.ID, []int64{c.mine.ID}, nil)
	require.NoError(t, err)
	assert.Len(t, created, 1)
}

func TestAssignmentOverdueAndDelete(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	c := newClassroom(t, f)
	svc := f.svc.Assignments

	due := f.clock.Now().Add(2 * time.Hour)
	created, err := svc.Assign(ctx, c.teacher.ID, c.story.ID, []int64{c.mine.ID}, &due)
	require.NoError(t, err)
	require.Len(t, created, 1)

	n, err := svc.MarkOverdue(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	f.clock.Advance(3 * time.Hour)
	n, err = svc.MarkOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	overdue, err := svc.ListForStudent(ctx, c.mine.ID, models.AssignmentOverdue)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, "Keloğlan", overdue[0].StoryTitle)

	stats, err := svc.TeacherStats(ctx, c.teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Overdue)
	assert.Zero(t, stats.CompletionRate)

	other := f.user(t, UserInput{Name: "Mehmet Bey", Role: models.RoleTeacher})
	assert.ErrorIs(t, svc.Delete(ctx, other.ID, created[0].ID), ErrAssignmentNotFound)
	require.NoError(t, svc.Delete(ctx, c.teacher.ID, created[0].ID))

	list, err := svc.ListForTeacher(ctx, c.teacher.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestEvaluate(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	c := newClassroom(t, f)
	parent := f.user(t, UserInput{Name: "Hasan Bey", Role: models.RoleParent})
	_, err := f.svc.Links.LinkByEmail(ctx, parent.ID, "missing@example.com")
	assert.ErrorIs(t, err, ErrStudentNotFound)

	code, err := f.svc.Links.IssueCode(ctx, c.mine.ID)
	require.NoError(t, err)
	_, err = f.svc.Links.Redeem(ctx, parent.ID, code.Code)
	require.NoError(t, err)

	fluency, open := 8, 11
	_, err = f.svc.Evaluations.Evaluate(ctx, EvaluationInput{
		TeacherID: c.teacher.ID, StudentID: c.mine.ID, StoryID: c.story.ID, FluencyScore: &fluency, OpenQuestionScore: &open,
	})
	require.ErrorIs(t, err, validation.ErrInvalid)

	open = 9
	e, err := f.svc.Evaluations.Evaluate(ctx, EvaluationInput{
		TeacherID:         c.teacher.ID,
		StudentID:         c.mine.ID,
		StoryID:           c.story.ID,
		IncorrectWords:    "kel, oğlan",
		FluencyScore:      &fluency,
		OpenQuestionScore: &open,
		Comment:           "Akıcı okudu",
	})
	require.NoError(t, err)
	assert.NotZero(t, e.ID)

	inbox := f.inbox(t, parent.ID)
	require.Len(t, inbox, 1)
	assert.Equal(t, models.NotificationEvaluation, inbox[0].Type)
	assert.Equal(t, "Ayşe Hanım, Ali için yeni bir değerlendirme yaptı (Keloğlan)", inbox[0].Message)

	list, err := f.svc.Evaluations.List(ctx, c.mine.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 9, *list[0].OpenQuestionScore)

	_, err = f.svc.Evaluations.Evaluate(ctx, EvaluationInput{TeacherID: c.mine.ID, StudentID: c.mine.ID, StoryID: c.story.ID})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCommend(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	c := newClassroom(t, f)
	svc := f.svc.Commendations

	got, err := svc.Commend(ctx, CommendationInput{
		TeacherID: c.teacher.ID, StudentID: c.mine.ID, Type: models.CommendationTakdir, Title: "Haftanın okuru",
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultCommendationXP, got.XPReward)

	rank, xp := 1, 100
	_, err = svc.Commend(ctx, CommendationInput{
		TeacherID: c.teacher.ID, StudentID: c.mine.ID, Type: models.CommendationBirincilik,
		Title: "Okuma yarışması", Rank: &rank, XPReward: &xp,
	})
	require.NoError(t, err)

	status, err := f.svc.Streaks.XPStatus(ctx, c.mine.ID)
	require.NoError(t, err)
	assert.Equal(t, 150, status.TotalXP)
	assert.Equal(t, 2, status.Level)

	_, err = svc.Commend(ctx, CommendationInput{
		TeacherID: c.teacher.ID, StudentID: c.other.ID, Type: models.CommendationTakdir, Title: "x",
	})
	assert.ErrorIs(t, err, ErrStudentNotFound)

	_, err = svc.Commend(ctx, CommendationInput{
		TeacherID: c.teacher.ID, StudentID: c.mine.ID, Type: "madalya", Title: "x",
	})
	assert.ErrorIs(t, err, validation.ErrInvalid)

	grouped, err := svc.List(ctx, c.mine.ID)
	require.NoError(t, err)
	assert.Len(t, grouped[models.CommendationTakdir], 1)
	assert.Len(t, grouped[models.CommendationBirincilik], 1)
	assert.Equal(t, "Ayşe Hanım", grouped[models.CommendationTakdir][0].TeacherName)

	inbox := titles(f.inbox(t, c.mine.ID))
	assert.Contains(t, inbox, "🏆 Takdir Aldınız!")
	assert.Contains(t, inbox, "🏆 Birincilik Aldınız!")
	assert.Contains(t, inbox, "🎊 Seviye Atladın: Okur!")
}
