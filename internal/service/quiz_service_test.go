package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readwell/internal/models"
	"readwell/internal/progression"
	"readwell/internal/validation"
)

func addQuiz(t *testing.T, f *fixture, storyID int64, key ...string) {
	t.Helper()
	for i, answer := range key {
		_, err := f.svc.Quizzes.AddQuestion(context.Background(), QuestionInput{
			StoryID: storyID, Text: "Soru " + string(rune('1'+i)),
			OptionA: "a", OptionB: "b", OptionC: "c", OptionD: "d", CorrectAnswer: answer,
		})
		require.NoError(t, err)
	}
}

func TestQuizQuestions(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	story := f.story(t, "Keloğlan", 100)

	q, err := f.svc.Quizzes.AddQuestion(ctx, QuestionInput{
		StoryID: story.ID, Text: "Keloğlan nereye gitti?", OptionA: "Pazara", OptionB: "Okula", OptionC: "Eve", OptionD: "Ormana", CorrectAnswer: " a ",
	})
	require.NoError(t, err)
	assert.Equal(t, "A", q.CorrectAnswer)

	_, err = f.svc.Quizzes.AddQuestion(ctx, QuestionInput{
		StoryID: story.ID, Text: "x", OptionA: "a", OptionB: "b", OptionC: "c", OptionD: "d", CorrectAnswer: "E",
	})
	assert.ErrorIs(t, err, validation.ErrInvalid)
	_, err = f.svc.Quizzes.AddQuestion(ctx, QuestionInput{
		StoryID: 9999, Text: "x", OptionA: "a", OptionB: "b", OptionC: "c", OptionD: "d", CorrectAnswer: "A",
	})
	assert.ErrorIs(t, err, ErrStoryNotFound)

	list, err := f.svc.Quizzes.Questions(ctx, story.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Pazara", list[0].OptionA)
}

func TestSubmitAnswersPerfectScore(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	u := f.student(t, "Ali")
	story := f.story(t, "Keloğlan", 100)
	addQuiz(t, f, story.ID, "A", "B", "C", "D")

	res, err := f.svc.Quizzes.SubmitAnswers(ctx, AnswerInput{UserID: u.ID, StoryID: story.ID, Choices: []string{"a", "B", "C", "D"}, OpenAnswer: "Çok güzeldi"})
	require.NoError(t, err)
	assert.True(t, res.FirstAttempt)
	assert.Equal(t, progression.QuizScore{Graded: 4, Correct: 4, Passed: true, Perfect: true}, res.Score)
	require.NotNil(t, res.Activity)
	assert.Equal(t, progression.ActionPerfectScore, res.Activity.Action)
	assert.Equal(t, 25, res.Activity.TotalXP)

	inbox := f.inbox(t, u.ID)
	require.NotEmpty(t, inbox)
	assert.Equal(t, "⭐ +25 XP Kazandın!", inbox[0].Title)
	assert.Equal(t, "Mükemmel skor için 25 XP kazandın!", inbox[0].Message)

	// a second sheet replaces the first but earns nothing
	res, err = f.svc.Quizzes.SubmitAnswers(ctx, AnswerInput{UserID: u.ID, StoryID: story.ID, Choices: []string{"A", "B", "C", "D"}})
	require.NoError(t, err)
	assert.False(t, res.FirstAttempt)
	assert.Nil(t, res.Activity)
	assert.Empty(t, res.Answer.OpenAnswer)

	xp, err := f.svc.Streaks.XPStatus(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, xp.TotalXP)
}

func TestSubmitAnswersPassAndFail(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	passer := f.student(t, "Ayşe")
	failer := f.student(t, "Can")
	story := f.story(t, "Pinokyo", 100)
	addQuiz(t, f, story.ID, "A", "B", "C", "D")

	res, err := f.svc.Quizzes.SubmitAnswers(ctx, AnswerInput{UserID: passer.ID, StoryID: story.ID, Choices: []string{"A", "B", "", "A"}})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Answer.CorrectCount)
	require.NotNil(t, res.Activity)
	assert.Equal(t, progression.ActionQuizPassed, res.Activity.Action)
	assert.Equal(t, 15, res.Activity.XPAwarded)

	res, err = f.svc.Quizzes.SubmitAnswers(ctx, AnswerInput{UserID: failer.ID, StoryID: story.ID, Choices: []string{"D"}})
	require.NoError(t, err)
	assert.False(t, res.Score.Passed)
	assert.Nil(t, res.Activity)
	assert.Equal(t, []string{"D", "", "", ""}, res.Answer.Choices)

	xp, err := f.svc.Streaks.XPStatus(ctx, failer.ID)
	require.NoError(t, err)
	assert.Zero(t, xp.TotalXP)
}

func TestSubmitAnswersRejects(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	u := f.student(t, "Ali")
	teacher := f.user(t, UserInput{Name: "Öğretmen", Role: models.RoleTeacher})
	story := f.story(t, "Keloğlan", 100)

	_, err := f.svc.Quizzes.SubmitAnswers(ctx, AnswerInput{UserID: u.ID, StoryID: story.ID, Choices: []string{"A", "X"}})
	assert.ErrorIs(t, err, validation.ErrInvalid)
	_, err = f.svc.Quizzes.SubmitAnswers(ctx, AnswerInput{UserID: u.ID, StoryID: story.ID, Choices: []string{"A", "B", "C", "D", "A"}})
	assert.ErrorIs(t, err, validation.ErrInvalid)
	_, err = f.svc.Quizzes.SubmitAnswers(ctx, AnswerInput{UserID: teacher.ID, StoryID: story.ID})
	assert.ErrorIs(t, err, ErrStudentNotFound)
	_, err = f.svc.Quizzes.SubmitAnswers(ctx, AnswerInput{UserID: u.ID, StoryID: 9999})
	assert.ErrorIs(t, err, ErrStoryNotFound)

	// a story without questions stores the sheet ungraded
	res, err := f.svc.Quizzes.SubmitAnswers(ctx, AnswerInput{UserID: u.ID, StoryID: story.ID, OpenAnswer: "Beğendim"})
	require.NoError(t, err)
	assert.Zero(t, res.Score.Graded)
	assert.Nil(t, res.Activity)
}
