package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readwell/internal/cache"
	"readwell/internal/config"
	"readwell/internal/models"
	"readwell/internal/progression"
	"readwell/internal/validation"
)

func TestSubmitPreReading(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	u := f.student(t, "Ali")
	story := f.story(t, "Keloğlan", 120)

	pre, err := f.svc.Readings.SubmitPreReading(ctx, ReadingInput{UserID: u.ID, StoryID: story.ID, DurationSeconds: 60})
	require.NoError(t, err)
	assert.Equal(t, 120.0, pre.SpeedWPM)
	assert.Equal(t, 120, pre.WordCount)

	_, err = f.svc.Readings.SubmitPreReading(ctx, ReadingInput{UserID: u.ID, StoryID: story.ID, DurationSeconds: 50})
	assert.ErrorIs(t, err, ErrDuplicatePreReading)

	_, err = f.svc.Readings.SubmitPreReading(ctx, ReadingInput{UserID: u.ID, StoryID: 999, DurationSeconds: 50})
	assert.ErrorIs(t, err, ErrStoryNotFound)

	_, err = f.svc.Readings.SubmitPreReading(ctx, ReadingInput{UserID: u.ID, StoryID: story.ID, DurationSeconds: 0})
	assert.ErrorIs(t, err, validation.ErrInvalid)

	xp, err := f.svc.Streaks.XPStatus(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, xp.TotalXP, "only the accepted submission earns XP")
}

func TestSubmitPracticeAndImprovement(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	u := f.student(t, "Ayşe")
	story := f.story(t, "Nasreddin Hoca", 120)

	imp, err := f.svc.Progress.Improvement(ctx, u.ID, story.ID)
	require.NoError(t, err)
	assert.False(t, imp.HasData)

	_, err = f.svc.Readings.SubmitPreReading(ctx, ReadingInput{UserID: u.ID, StoryID: story.ID, DurationSeconds: 60})
	require.NoError(t, err)

	imp, err = f.svc.Progress.Improvement(ctx, u.ID, story.ID)
	require.NoError(t, err)
	assert.True(t, imp.HasData)
	assert.Equal(t, 1, imp.TotalAttempts)
	assert.Equal(t, progression.ImprovementDelta{}, *imp.Improvement)

	p, err := f.svc.Readings.SubmitPractice(ctx, ReadingInput{UserID: u.ID, StoryID: story.ID, DurationSeconds: 40})
	require.NoError(t, err)
	assert.Equal(t, 1, p.AttemptNumber)
	assert.Equal(t, 180.0, p.SpeedWPM)

	imp, err = f.svc.Progress.Improvement(ctx, u.ID, story.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, imp.TotalAttempts)
	assert.Equal(t, 60.0, imp.Improvement.SpeedIncreaseWPM)
	assert.Equal(t, 50.0, imp.Improvement.SpeedIncreasePercent)
	assert.Equal(t, 20.0, imp.Improvement.TimeReductionSeconds)
	assert.Equal(t, 33.33, imp.Improvement.TimeReductionPercent)

	p, err = f.svc.Readings.SubmitPractice(ctx, ReadingInput{UserID: u.ID, StoryID: story.ID, DurationSeconds: 30})
	require.NoError(t, err)
	assert.Equal(t, 2, p.AttemptNumber)

	sum, err := f.svc.Progress.Summary(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.TotalStories)
	assert.Equal(t, 2, sum.TotalPracticeSessions)
	assert.Equal(t, 3, sum.TotalReadingSessions)
	assert.Equal(t, 180.0, sum.AverageSpeedWPM)

	xp, err := f.svc.Streaks.XPStatus(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 10+5+5, xp.TotalXP)
}

func TestCheckAchievementsFiveStories(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	u := f.student(t, "Zeynep")

	awarded, err := f.svc.Achievements.CheckAchievements(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, awarded)

	for i := 0; i < 5; i++ {
		story := f.story(t, fmt.Sprintf("Hikaye %d", i+1), 100)
		_, err := f.svc.Readings.SubmitPreReading(ctx, ReadingInput{UserID: u.ID, StoryID: story.ID, DurationSeconds: 60})
		require.NoError(t, err)
	}

	awarded, err = f.svc.Achievements.CheckAchievements(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, awarded, 2)
	assert.Equal(t, progression.BadgeFirstStep, awarded[0].Badge)
	assert.Equal(t, progression.BadgeSpeedReader, awarded[1].Badge)

	again, err := f.svc.Achievements.CheckAchievements(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, again)

	badges, err := f.svc.Achievements.ListBadges(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, badges, 2)

	overview, err := f.svc.Achievements.Overview(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 5*10+2*20, overview.XP.TotalXP)
	assert.Equal(t, 2, overview.Badges.Earned)
	assert.Equal(t, 8, overview.Badges.Total)
	assert.Equal(t, 6, overview.Badges.Available)
	assert.Equal(t, models.ReadingStats{Stories: 5, Practices: 0, AvgSpeed: 100}, overview.Reading)

	milestone, err := f.svc.Progress.Milestone(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, milestone.NextMilestone)
	assert.Equal(t, 5, milestone.Remaining)

	inbox := f.inbox(t, u.ID)
	require.Len(t, inbox, 3)
	types := map[models.NotificationType]int{}
	for _, n := range inbox {
		types[n.Type]++
	}
	assert.Equal(t, map[models.NotificationType]int{models.NotificationProgress: 1, models.NotificationAchievement: 2}, types)
}

func TestMilestoneNotifiesParent(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	u := f.student(t, "Mert")
	parent := f.user(t, UserInput{Name: "Veli Hasan", Role: models.RoleParent})
	code, err := f.svc.Links.IssueCode(ctx, u.ID)
	require.NoError(t, err)
	_, err = f.svc.Links.Redeem(ctx, parent.ID, code.Code)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		story := f.story(t, fmt.Sprintf("Masal %d", i+1), 100)
		_, err := f.svc.Readings.SubmitPreReading(ctx, ReadingInput{UserID: u.ID, StoryID: story.ID, DurationSeconds: 60})
		require.NoError(t, err)
	}

	inbox := f.inbox(t, parent.ID)
	require.Len(t, inbox, 1)
	assert.Equal(t, "📊 Mert - 📚 İlerleme Kaydedildi", inbox[0].Title)
	assert.Equal(t, "/parent/dashboard", inbox[0].Link)
}

func TestLeaderboardCaching(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client, err := cache.Connect(ctx, &config.Config{RedisAddr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	f := setup(t, func(o *Options) { o.Cache = cache.NewRedisCache(client) })
	ali := f.student(t, "Ali")
	veli := f.student(t, "Veli")
	s1 := f.story(t, "Bir", 100)
	s2 := f.story(t, "İki", 100)

	for _, in := range []ReadingInput{
		{UserID: ali.ID, StoryID: s1.ID, DurationSeconds: 60},
		{UserID: ali.ID, StoryID: s2.ID, DurationSeconds: 30},
		{UserID: veli.ID, StoryID: s1.ID, DurationSeconds: 45},
	} {
		_, err := f.svc.Readings.SubmitPreReading(ctx, in)
		require.NoError(t, err)
	}

	board, err := f.svc.Leaderboards.Leaderboard(ctx, PeriodWeekly, 0, 0)
	require.NoError(t, err)
	require.Len(t, board.Entries, 2)
	assert.Equal(t, "Ali", board.Entries[0].Name)
	assert.Equal(t, 2, board.Entries[0].Stories)
	assert.Equal(t, 150.0, board.Entries[0].AvgSpeed)
	assert.Equal(t, 2, board.Entries[1].Rank)
	assert.True(t, mr.Exists("leaderboard:weekly:0:10"))

	cached, err := f.svc.Leaderboards.Leaderboard(ctx, PeriodWeekly, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, board, cached)

	_, err = f.svc.Readings.SubmitPractice(ctx, ReadingInput{UserID: veli.ID, StoryID: s1.ID, DurationSeconds: 40})
	require.NoError(t, err)
	assert.False(t, mr.Exists("leaderboard:weekly:0:10"), "new activity drops cached boards")

	_, err = f.svc.Leaderboards.Leaderboard(ctx, Period("daily"), 0, 0)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestWeeklyRankings(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	ali := f.student(t, "Ali")
	veli := f.student(t, "Veli")
	story := f.story(t, "Bir", 100)

	_, err := f.svc.Readings.SubmitPreReading(ctx, ReadingInput{UserID: veli.ID, StoryID: story.ID, DurationSeconds: 60})
	require.NoError(t, err)
	_, err = f.svc.Streaks.AddXP(ctx, ali.ID, 5)
	require.NoError(t, err)

	xp, err := f.svc.Leaderboards.WeeklyRankings(ctx, "xp", ali.ID, 10)
	require.NoError(t, err)
	require.Len(t, xp, 2)
	assert.Equal(t, veli.ID, xp[0].UserID)
	assert.Equal(t, 10, xp[0].Score)
	assert.True(t, xp[1].IsMe)

	stories, err := f.svc.Leaderboards.WeeklyRankings(ctx, "stories", ali.ID, 10)
	require.NoError(t, err)
	require.Len(t, stories, 1)
	assert.False(t, stories[0].IsMe)

	other, err := f.svc.Leaderboards.WeeklyRankings(ctx, "speed", ali.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, other)
}
