package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"readwell/internal/database"
	"readwell/internal/models"
	"readwell/internal/repository"
	"readwell/internal/validation"
)

// DefaultCommendationXP is granted when a commendation names no reward
const DefaultCommendationXP = 50

// CommendationInput is a teacher's recognition of a student
type CommendationInput struct {
	TeacherID   int64                   `json:"teacher_id" validate:"gt=0"`
	StudentID   int64                   `json:"student_id" validate:"gt=0"`
	Type        models.CommendationType `json:"commendation_type" validate:"oneof=takdir tesekkur birincilik ozel_basari"`
	Title       string                  `json:"title" validate:"notblank,max=200"`
	Description string                  `json:"description"`
	Category    string                  `json:"category"`
	Rank        *int                    `json:"rank_position" validate:"omitempty,gte=1"`
	Period      string                  `json:"period"`
	// XPReward nil means DefaultCommendationXP
	XPReward *int `json:"xp_reward" validate:"omitempty,gte=0"`
}

// CommendationService hands out teacher commendations
type CommendationService struct {
	db            *database.DB
	commendations *repository.CommendationRepository
	users         *repository.UserRepository
	streak        *StreakService
	notifier      *NotificationService
	log           *zap.Logger
	now           Clock
}

// NewCommendationService creates a new commendation service
func NewCommendationService(db *database.DB, streak *StreakService, notifier *NotificationService, log *zap.Logger, now Clock) *CommendationService {
	return &CommendationService{
		db:            db,
		commendations: repository.NewCommendationRepository(db),
		users:         repository.NewUserRepository(db),
		streak:        streak,
		notifier:      notifier,
		log:           log,
		now:           now,
	}
}

// Commend records a commendation and grants its XP in one transaction.
// The student must be one of the teacher's.
func (s *CommendationService) Commend(ctx context.Context, in CommendationInput) (*models.Commendation, error) {
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
	if teacher.Role != models.RoleTeacher {
		return nil, ErrForbidden
	}
	student, err := s.users.GetByID(ctx, in.StudentID)
	if err != nil {
		return nil, err
	}
	if student == nil || student.TeacherID == nil || *student.TeacherID != in.TeacherID {
		return nil, ErrStudentNotFound
	}

	xp := DefaultCommendationXP
	if in.XPReward != nil {
		xp = *in.XPReward
	}
	c := &models.Commendation{
		StudentID:   in.StudentID,
		TeacherID:   in.TeacherID,
		TeacherName: teacher.Name,
		Type:        in.Type,
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Rank:        in.Rank,
		Period:      in.Period,
		XPReward:    xp,
		CreatedAt:   s.now().UTC(),
	}

	var leveledUp bool
	var level int
	err = s.db.WithTx(ctx, func(tx *database.Tx) error {
		if err := s.commendations.WithTx(tx).Create(ctx, c); err != nil {
			return err
		}
		if xp == 0 {
			return nil
		}
		rec, up, err := s.streak.AddXPTx(ctx, tx, in.StudentID, xp)
		if err != nil {
			return err
		}
		leveledUp, level = up, rec.Level
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to commend student: %w", err)
	}

	s.notifier.NotifyCommendation(ctx, in.StudentID, teacher.Name, c.Type, c.Title)
	if leveledUp {
		s.notifier.NotifyLevelUp(ctx, in.StudentID, level)
	}
	return c, nil
}

// List returns a student's commendations grouped by type, newest first in each group
func (s *CommendationService) List(ctx context.Context, studentID int64) (map[models.CommendationType][]models.Commendation, error) {
	list, err := s.commendations.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	grouped := make(map[models.CommendationType][]models.Commendation)
	for _, c := range list {
		grouped[c.Type] = append(grouped[c.Type], c)
	}
	return grouped, nil
}
