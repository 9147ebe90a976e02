package service

import (
	"context"

	"go.uber.org/zap"

	"readwell/internal/models"
	"readwell/internal/repository"
	"readwell/internal/validation"
)

// EvaluationInput is a teacher's assessment of one reading
type EvaluationInput struct {
	TeacherID         int64  `json:"teacher_id" validate:"gt=0"`
	StudentID         int64  `json:"student_id" validate:"gt=0"`
	StoryID           int64  `json:"story_id" validate:"gt=0"`
	IncorrectWords    string `json:"incorrect_words"`
	FluencyScore      *int   `json:"fluency_score" validate:"omitempty,min=1,max=10"`
	OpenQuestionScore *int   `json:"open_question_score" validate:"omitempty,min=1,max=10"`
	Comment           string `json:"comment" validate:"max=2000"`
}

// EvaluationService records teacher evaluations and tells parents about them
type EvaluationService struct {
	evaluations *repository.EvaluationRepository
	users       *repository.UserRepository
	stories     *repository.StoryRepository
	notifier    *NotificationService
	log         *zap.Logger
	now         Clock
}

// NewEvaluationService creates a new evaluation service
func NewEvaluationService(evaluations *repository.EvaluationRepository, users *repository.UserRepository, stories *repository.StoryRepository,
	notifier *NotificationService, log *zap.Logger, now Clock) *EvaluationService {
	return &EvaluationService{
		evaluations: evaluations,
		users:       users,
		stories:     stories,
		notifier:    notifier,
		log:         log,
		now:         now,
	}
}

// Evaluate stores an evaluation and notifies the student's parent when one is linked
func (s *EvaluationService) Evaluate(ctx context.Context, in EvaluationInput) (*models.Evaluation, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	teacher, err := s.users.GetByID(ctx, in.TeacherID)
	if err != nil {
		return nil, err
	}
	if teacher == nil {
		return nil, ErrUserNotFound
	}
	if teacher.Role != models.RoleTeacher && teacher.Role != models.RoleAdmin {
		return nil, ErrForbidden
	}
	student, err := s.users.GetByID(ctx, in.StudentID)
	if err != nil {
		return nil, err
	}
	if student == nil || student.Role != models.RoleStudent {
		return nil, ErrStudentNotFound
	}
	story, err := s.stories.GetByID(ctx, in.StoryID)
	if err != nil {
		return nil, err
	}
	if story == nil {
		return nil, ErrStoryNotFound
	}

	e := &models.Evaluation{
		StudentID:         in.StudentID,
		StoryID:           in.StoryID,
		TeacherID:         in.TeacherID,
		IncorrectWords:    in.IncorrectWords,
		FluencyScore:      in.FluencyScore,
		OpenQuestionScore: in.OpenQuestionScore,
		Comment:           in.Comment,
		CreatedAt:         s.now().UTC(),
	}
	if err := s.evaluations.Create(ctx, e); err != nil {
		return nil, err
	}

	if student.ParentID != nil {
		s.notifier.NotifyEvaluation(ctx, *student.ParentID, teacher.Name, student.Name, story.Title)
	}
	return e, nil
}

// List returns a student's evaluations, newest first
func (s *EvaluationService) List(ctx context.Context, studentID int64) ([]models.Evaluation, error) {
	return s.evaluations.ListByStudent(ctx, studentID)
}
