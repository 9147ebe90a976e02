package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"readwell/internal/database"
	"readwell/internal/models"
	"readwell/internal/progression"
	"readwell/internal/repository"
	"readwell/internal/validation"
)

// QuestionInput is a new multiple choice question for a story
type QuestionInput struct {
	StoryID       int64  `json:"story_id" validate:"gt=0"`
	Text          string `json:"question_text" validate:"notblank"`
	OptionA       string `json:"option_a" validate:"notblank"`
	OptionB       string `json:"option_b" validate:"notblank"`
	OptionC       string `json:"option_c" validate:"notblank"`
	OptionD       string `json:"option_d" validate:"notblank"`
	CorrectAnswer string `json:"correct_answer" validate:"oneof=A B C D"`
}

// AnswerInput is a student's answer sheet for a story
type AnswerInput struct {
	UserID     int64    `json:"user_id" validate:"gt=0"`
	StoryID    int64    `json:"story_id" validate:"gt=0"`
	Choices    []string `json:"choices" validate:"max=4,dive,omitempty,oneof=A B C D"`
	OpenAnswer string   `json:"open_answer"`
}

// QuizResult is a saved answer sheet with its grade. Activity is set when the
// sheet earned XP.
type QuizResult struct {
	Answer       *models.QuizAnswer    `json:"answer"`
	Score        progression.QuizScore `json:"score"`
	FirstAttempt bool                  `json:"first_attempt"`
	Activity     *ActivityResult       `json:"activity,omitempty"`
}

// QuizService keeps story quizzes and grades answer sheets
type QuizService struct {
	db      *database.DB
	quizzes *repository.QuizRepository
	stories *repository.StoryRepository
	users   *repository.UserRepository
	streak  *StreakService
	log     *zap.Logger
	now     Clock
}

// NewQuizService creates a new quiz service
func NewQuizService(db *database.DB, stories *repository.StoryRepository, users *repository.UserRepository, streak *StreakService, log *zap.Logger, now Clock) *QuizService {
	return &QuizService{
		db:      db,
		quizzes: repository.NewQuizRepository(db),
		stories: stories,
		users:   users,
		streak:  streak,
		log:     log,
		now:     now,
	}
}

func (s *QuizService) story(ctx context.Context, id int64) (*models.Story, error) {
	story, err := s.stories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if story == nil {
		return nil, ErrStoryNotFound
	}
	return story, nil
}

// AddQuestion appends a question to a story's quiz
func (s *QuizService) AddQuestion(ctx context.Context, in QuestionInput) (*models.QuizQuestion, error) {
	in.Text = strings.TrimSpace(in.Text)
	in.CorrectAnswer = strings.ToUpper(strings.TrimSpace(in.CorrectAnswer))
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if _, err := s.story(ctx, in.StoryID); err != nil {
		return nil, err
	}

	q := &models.QuizQuestion{
		StoryID:       in.StoryID,
		Text:          in.Text,
		OptionA:       strings.TrimSpace(in.OptionA),
		OptionB:       strings.TrimSpace(in.OptionB),
		OptionC:       strings.TrimSpace(in.OptionC),
		OptionD:       strings.TrimSpace(in.OptionD),
		CorrectAnswer: in.CorrectAnswer,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.quizzes.CreateQuestion(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// Questions lists a story's quiz in order
func (s *QuizService) Questions(ctx context.Context, storyID int64) ([]models.QuizQuestion, error) {
	if _, err := s.story(ctx, storyID); err != nil {
		return nil, err
	}
	list, err := s.quizzes.ListQuestions(ctx, storyID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.QuizQuestion{}
	}
	return list, nil
}

// SubmitAnswers grades and stores a student's answer sheet, replacing any
// earlier sheet for the story. Only the first sheet can earn XP: quiz_passed,
// or perfect_score for a full mark. The award is best-effort.
func (s *QuizService) SubmitAnswers(ctx context.Context, in AnswerInput) (*QuizResult, error) {
	for i, c := range in.Choices {
		in.Choices[i] = strings.ToUpper(strings.TrimSpace(c))
	}
	in.OpenAnswer = strings.TrimSpace(in.OpenAnswer)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	student, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if student == nil || student.Role != models.RoleStudent {
		return nil, ErrStudentNotFound
	}
	if _, err := s.story(ctx, in.StoryID); err != nil {
		return nil, err
	}

	res := &QuizResult{}
	err = s.db.WithTx(ctx, func(tx *database.Tx) error {
		quizzes := s.quizzes.WithTx(tx)
		questions, err := quizzes.ListQuestions(ctx, in.StoryID)
		if err != nil {
			return err
		}
		key := make([]string, len(questions))
		for i, q := range questions {
			key[i] = q.CorrectAnswer
		}
		res.Score = progression.ScoreQuiz(key, in.Choices, models.MaxQuizChoices)

		existing, err := quizzes.GetAnswer(ctx, in.UserID, in.StoryID)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		if existing != nil {
			existing.Choices = in.Choices
			existing.OpenAnswer = in.OpenAnswer
			existing.CorrectCount = res.Score.Correct
			existing.UpdatedAt = now
			res.Answer = existing
			return quizzes.UpdateAnswer(ctx, existing)
		}

		res.FirstAttempt = true
		res.Answer = &models.QuizAnswer{
			UserID:       in.UserID,
			StoryID:      in.StoryID,
			Choices:      in.Choices,
			OpenAnswer:   in.OpenAnswer,
			CorrectCount: res.Score.Correct,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return quizzes.CreateAnswer(ctx, res.Answer)
	})
	if err != nil {
		return nil, err
	}

	if action, ok := res.Score.Reward(); ok && res.FirstAttempt {
		activity, err := s.streak.RecordActivity(ctx, in.UserID, action)
		if err != nil {
			s.log.Warn("xp award failed", zap.Int64("user_id", in.UserID), zap.String("action", string(action)), zap.Error(err))
		} else {
			res.Activity = activity
		}
	}
	return res, nil
}
