package root

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readwell/internal/models"
	"readwell/internal/progression"
	"readwell/internal/service"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("DB_PATH", filepath.Join(dir, "readwell.db"))
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("SES_FROM_EMAIL", "")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_PATH", "")
	return dir
}

func execute(args ...string) (string, error) {
	cmd := newRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetIn(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(args...)
	require.NoError(t, err, "readwell %v\n%s", args, out)
	return out
}

// runJSON runs the command with --json and decodes its output into dst
func runJSON(t *testing.T, dst any, args ...string) {
	t.Helper()
	out := run(t, append(args, "--json")...)
	require.NoError(t, sonic.UnmarshalString(out, dst), out)
}

func TestClassroomFlow(t *testing.T) {
	dir := setupEnv(t)

	var teacher, student, parent models.User
	runJSON(t, &teacher, "user", "add", "Ayşe Öğretmen", "--role", "teacher")
	runJSON(t, &student, "user", "add", "Ali", "--grade", "3", "--teacher", fmt.Sprint(teacher.ID), "--email", "ali@example.com")
	runJSON(t, &parent, "user", "add", "Veli", "--role", "parent")
	require.NotNil(t, student.GradeLevel)
	assert.Equal(t, 3, *student.GradeLevel)

	var story models.Story
	runJSON(t, &story, "story", "add", "Pinokyo", "--words", "300", "--grade", "3")
	assert.Equal(t, 300, story.WordCount)

	sid, stid := fmt.Sprint(student.ID), fmt.Sprint(story.ID)

	var first models.PreReading
	runJSON(t, &first, "read", "first", sid, stid, "--seconds", "100")
	assert.Equal(t, 180.0, first.SpeedWPM)

	_, err := execute("read", "first", sid, stid, "--seconds", "100")
	assert.ErrorIs(t, err, service.ErrDuplicatePreReading)

	var practice models.Practice
	runJSON(t, &practice, "read", "practice", sid, stid, "--seconds", "90")
	assert.Equal(t, 1, practice.AttemptNumber)

	var earned []progression.BadgeDefinition
	runJSON(t, &earned, "badges", "check", sid)
	assert.Len(t, earned, 2)

	var xp service.XPStatus
	runJSON(t, &xp, "xp", "show", sid)
	assert.Equal(t, 10+5+2*20, xp.TotalXP)
	assert.Equal(t, 1, xp.Level)

	var code models.LinkCode
	runJSON(t, &code, "link", "issue", sid)
	var child models.User
	runJSON(t, &child, "link", "redeem", fmt.Sprint(parent.ID), code.Code)
	assert.Equal(t, student.ID, child.ID)

	var ev models.Evaluation
	runJSON(t, &ev, "evaluate", fmt.Sprint(teacher.ID), sid, stid, "--fluency", "8", "--comment", "Akıcı")
	require.NotNil(t, ev.FluencyScore)
	assert.Equal(t, 8, *ev.FluencyScore)
	assert.Nil(t, ev.OpenQuestionScore)

	var inbox service.Inbox
	runJSON(t, &inbox, "inbox", fmt.Sprint(parent.ID))
	require.NotEmpty(t, inbox.Notifications)
	assert.Equal(t, models.NotificationEvaluation, inbox.Notifications[0].Type)

	run(t, "inbox", "read-all", fmt.Sprint(parent.ID))
	runJSON(t, &inbox, "inbox", fmt.Sprint(parent.ID), "--unread")
	assert.Empty(t, inbox.Notifications)
	assert.Zero(t, inbox.UnreadCount)

	var assigned []models.Assignment
	runJSON(t, &assigned, "assignment", "add", fmt.Sprint(teacher.ID), stid, sid, "--due", "2099-01-01")
	require.Len(t, assigned, 1)

	var pending service.PendingCount
	runJSON(t, &pending, "assignment", "pending", sid)
	assert.Equal(t, 1, pending.Pending)

	run(t, "assignment", "complete", sid, fmt.Sprint(assigned[0].ID))
	var stats service.TeacherStats
	runJSON(t, &stats, "assignment", "stats", fmt.Sprint(teacher.ID))
	assert.Equal(t, 100.0, stats.CompletionRate)

	var c models.Commendation
	runJSON(t, &c, "commend", fmt.Sprint(teacher.ID), sid, "--title", "Ayın Okuru")
	assert.Equal(t, service.DefaultCommendationXP, c.XPReward)

	var lb service.Leaderboard
	runJSON(t, &lb, "leaderboard", "--period", "all_time")
	require.Len(t, lb.Entries, 1)
	assert.Equal(t, "Ali", lb.Entries[0].Name)

	out := run(t, "overview", sid)
	assert.Contains(t, out, "Overview")
	assert.Contains(t, out, "180.0")

	backup := filepath.Join(dir, "out", "backup.json")
	run(t, "backup", "export", "-o", backup)
	_, err = os.Stat(backup)
	assert.NoError(t, err)
}

func TestArgumentErrors(t *testing.T) {
	setupEnv(t)

	_, err := execute("xp", "show", "abc")
	assert.ErrorContains(t, err, "invalid user id")

	_, err = execute("user", "add")
	assert.ErrorContains(t, err, "name is required")

	_, err = execute("assignment", "list")
	assert.ErrorContains(t, err, "exactly one of --student or --teacher")

	_, err = execute("leaderboard", "--period", "yearly")
	assert.ErrorIs(t, err, service.ErrInvalidPeriod)
}

func TestBackupImportCancelled(t *testing.T) {
	dir := setupEnv(t)
	path := filepath.Join(dir, "b.json")
	run(t, "backup", "export", "--output", path)

	// no "yes" on stdin
	out := run(t, "backup", "import", "--input", path, "--clear")
	assert.Contains(t, out, "Import cancelled")

	out = run(t, "backup", "import", "--input", path, "--clear", "--yes")
	assert.Contains(t, out, "Import complete")
}

func TestParseDue(t *testing.T) {
	due, err := parseDue("")
	require.NoError(t, err)
	assert.Nil(t, due)

	due, err = parseDue("2026-03-10")
	require.NoError(t, err)
	assert.Equal(t, 23, due.Hour())
	assert.Equal(t, 59, due.Minute())

	due, err = parseDue("2026-03-10T08:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, 8, due.UTC().Hour())

	_, err = parseDue("next week")
	assert.Error(t, err)
}

func TestMessagingAndQuizFlow(t *testing.T) {
	setupEnv(t)

	var teacher, student models.User
	runJSON(t, &teacher, "user", "add", "Ayşe Öğretmen", "--role", "teacher")
	runJSON(t, &student, "user", "add", "Ali", "--teacher", fmt.Sprint(teacher.ID))
	tid, sid := fmt.Sprint(teacher.ID), fmt.Sprint(student.ID)

	var sent models.Message
	runJSON(t, &sent, "message", "send", tid, sid, "--subject", "Ödev", "-m", "Pinokyo'yu oku")
	assert.Equal(t, "Ödev", sent.Subject)

	var box service.Mailbox
	runJSON(t, &box, "message", "inbox", sid)
	assert.Equal(t, 1, box.Total)
	assert.Equal(t, 1, box.Unread)

	out := run(t, "message", "conversation", sid, tid)
	assert.Contains(t, out, "Pinokyo'yu oku")
	runJSON(t, &box, "message", "inbox", sid)
	assert.Zero(t, box.Unread)

	var story models.Story
	runJSON(t, &story, "story", "add", "Pinokyo", "--words", "300")
	stid := fmt.Sprint(story.ID)
	run(t, "quiz", "add", stid, "-q", "Pinokyo neyden yapıldı?", "--option-a", "Tahta", "--option-b", "Taş", "--option-c", "Demir", "--option-d", "Cam", "--answer", "a")

	var res service.QuizResult
	runJSON(t, &res, "quiz", "answer", sid, stid, "A")
	assert.True(t, res.Score.Perfect)
	require.NotNil(t, res.Activity)
	assert.Equal(t, progression.ActionPerfectScore, res.Activity.Action)

	out = run(t, "quiz", "answer", sid, stid, "-", "--open", "Güzeldi")
	assert.Contains(t, out, "0/1 correct")
}
