package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readwell/internal/database"
	"readwell/internal/models"
	"readwell/internal/progression"
	"readwell/internal/repository"
	"readwell/internal/validation"
)

// testClock is a settable clock shared by every service of a test
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type fixture struct {
	db    *database.DB
	svc   *Services
	clock *testClock
}

func setup(t *testing.T, mutate ...func(*Options)) *fixture {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = db.RunMigrations(context.Background())
	require.NoError(t, err)

	clock := &testClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	opts := Options{Clock: clock.Now}
	for _, m := range mutate {
		m(&opts)
	}
	return &fixture{db: db, svc: New(db, opts), clock: clock}
}

func (f *fixture) user(t *testing.T, in UserInput) *models.User {
	t.Helper()
	u, err := f.svc.Accounts.CreateUser(context.Background(), in)
	require.NoError(t, err)
	return u
}

func (f *fixture) student(t *testing.T, name string) *models.User {
	return f.user(t, UserInput{Name: name, Role: models.RoleStudent})
}

func (f *fixture) story(t *testing.T, title string, words int) *models.Story {
	t.Helper()
	s, err := f.svc.Accounts.CreateStory(context.Background(), StoryInput{Title: title, WordCount: words})
	require.NoError(t, err)
	return s
}

func (f *fixture) inbox(t *testing.T, userID int64) []models.Notification {
	t.Helper()
	in, err := f.svc.Notifications.List(context.Background(), userID, repository.ListOptions{Limit: 100})
	require.NoError(t, err)
	return in.Notifications
}

func titles(list []models.Notification) []string {
	out := make([]string, len(list))
	for i, n := range list {
		out[i] = n.Title
	}
	return out
}

func TestRecordActivityStreakWalkthrough(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	u := f.student(t, "Ali")

	res, err := f.svc.Streaks.RecordActivity(ctx, u.ID, progression.ActionStoryRead)
	require.NoError(t, err)
	assert.Equal(t, progression.StreakStarted, res.Transition)
	assert.Equal(t, 1, res.CurrentStreak)
	assert.Equal(t, 10, res.TotalXP)

	// same day again: streak untouched, action XP still per event
	res, err = f.svc.Streaks.RecordActivity(ctx, u.ID, progression.ActionStoryRead)
	require.NoError(t, err)
	assert.Equal(t, progression.StreakUnchanged, res.Transition)
	assert.Equal(t, 1, res.CurrentStreak)
	assert.Equal(t, 20, res.TotalXP)

	f.clock.Advance(24 * time.Hour)
	res, err = f.svc.Streaks.RecordActivity(ctx, u.ID, progression.ActionStoryRead)
	require.NoError(t, err)
	assert.Equal(t, progression.StreakExtended, res.Transition)
	assert.Equal(t, 2, res.CurrentStreak)
	assert.Equal(t, 2, res.LongestStreak)

	f.clock.Advance(48 * time.Hour)
	res, err = f.svc.Streaks.RecordActivity(ctx, u.ID, progression.ActionStoryRead)
	require.NoError(t, err)
	assert.Equal(t, progression.StreakReset, res.Transition)
	assert.Equal(t, 1, res.CurrentStreak)
	assert.Equal(t, 2, res.LongestStreak)
	assert.Equal(t, 40, res.TotalXP)

	status, err := f.svc.Streaks.StreakStatus(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, status.IsActiveToday)
	assert.Equal(t, 2, status.LongestStreak)

	// a lost streak of 2 is too short to mention
	assert.Empty(t, f.inbox(t, u.ID))
}

func TestRecordActivityStreakBonus(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	u := f.student(t, "Ayşe")

	var res *ActivityResult
	var err error
	for day := 0; day < 3; day++ {
		res, err = f.svc.Streaks.RecordActivity(ctx, u.ID, progression.ActionDailyLogin)
		require.NoError(t, err)
		f.clock.Advance(24 * time.Hour)
	}
	assert.Equal(t, 3, res.CurrentStreak)
	assert.Equal(t, 10, res.BonusXP)
	assert.Equal(t, 3*5+10, res.TotalXP)

	// later the same day: no second bonus
	f.clock.Advance(-20 * time.Hour)
	res, err = f.svc.Streaks.RecordActivity(ctx, u.ID, progression.ActionDailyLogin)
	require.NoError(t, err)
	assert.Zero(t, res.BonusXP)

	assert.Equal(t, []string{"🔥 3 Gün Seri!"}, titles(f.inbox(t, u.ID)))
}

func TestRecordActivityStreakLostNotification(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	u := f.student(t, "Can")

	for day := 0; day < 4; day++ {
		_, err := f.svc.Streaks.RecordActivity(ctx, u.ID, progression.ActionDailyLogin)
		require.NoError(t, err)
		f.clock.Advance(24 * time.Hour)
	}
	f.clock.Advance(72 * time.Hour)
	res, err := f.svc.Streaks.RecordActivity(ctx, u.ID, progression.ActionDailyLogin)
	require.NoError(t, err)
	assert.Equal(t, 4, res.StreakLost)

	inbox := f.inbox(t, u.ID)
	require.NotEmpty(t, inbox)
	assert.Equal(t, "😢 Seri Kırıldı", inbox[0].Title)
	assert.Equal(t, "4 günlük seri sona erdi. Yeniden başla!", inbox[0].Message)
}

func TestRecordActivityUnknownAction(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	u := f.student(t, "Deniz")

	_, err := f.svc.Streaks.RecordActivity(ctx, u.ID, progression.Action("bogus"))
	require.ErrorIs(t, err, progression.ErrUnknownAction)

	rec, err := repository.NewStreakRepository(f.db).Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, rec, "rejected action must not create a record")
}

func TestXPNotificationsAndLevelUp(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	u := f.student(t, "Ece")

	_, err := f.svc.Streaks.RecordActivity(ctx, u.ID, progression.ActionQuizPassed)
	require.NoError(t, err)
	inbox := f.inbox(t, u.ID)
	require.Len(t, inbox, 1)
	assert.Equal(t, models.NotificationXP, inbox[0].Type)
	assert.Equal(t, "⭐ +15 XP Kazandın!", inbox[0].Title)
	assert.Equal(t, "Quiz başarısı için 15 XP kazandın!", inbox[0].Message)

	rec, err := f.svc.Streaks.AddXP(ctx, u.ID, 85)
	require.NoError(t, err)
	assert.Equal(t, 100, rec.TotalXP)
	assert.Equal(t, 2, rec.Level)

	inbox = f.inbox(t, u.ID)
	require.Len(t, inbox, 2)
	assert.Equal(t, models.NotificationLevelUp, inbox[0].Type)
	assert.Equal(t, "🎊 Seviye Atladın: Okur!", inbox[0].Title)

	xp, err := f.svc.Streaks.XPStatus(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Okur", xp.LevelName)
	assert.Equal(t, progression.LevelProgress{Current: 0, Needed: 150, Progress: 0}, xp.NextLevel)
}

func TestStatusWithoutRecord(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	u := f.student(t, "Efe")

	xp, err := f.svc.Streaks.XPStatus(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, xp.TotalXP)
	assert.Equal(t, 1, xp.Level)
	assert.Equal(t, "Çırak", xp.LevelName)

	st, err := f.svc.Streaks.StreakStatus(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, &StreakStatus{}, st)
}

func TestUpdateStreakOnly(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	u := f.student(t, "Fatma")

	st, err := f.svc.Streaks.UpdateStreak(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, st.CurrentStreak)

	xp, err := f.svc.Streaks.XPStatus(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, xp.TotalXP)
}

func TestAddXPRejectsNegativeAmount(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	u := f.student(t, "Gül")

	_, err := f.svc.Streaks.AddXP(ctx, u.ID, 150)
	require.NoError(t, err)

	_, err = f.svc.Streaks.AddXP(ctx, u.ID, -500)
	require.ErrorIs(t, err, validation.ErrInvalid)

	xp, err := f.svc.Streaks.XPStatus(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 150, xp.TotalXP)
	assert.Equal(t, 2, xp.Level)
}
