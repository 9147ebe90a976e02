package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"readwell/internal/models"
	"readwell/internal/progression"
	"readwell/internal/repository"
)

// AssignmentService manages stories teachers assign to their students
type AssignmentService struct {
	assignments *repository.AssignmentRepository
	users       *repository.UserRepository
	stories     *repository.StoryRepository
	notifier    *NotificationService
	log         *zap.Logger
	now         Clock
}

// NewAssignmentService creates a new assignment service
func NewAssignmentService(assignments *repository.AssignmentRepository, users *repository.UserRepository, stories *repository.StoryRepository,
	notifier *NotificationService, log *zap.Logger, now Clock) *AssignmentService {
	return &AssignmentService{
		assignments: assignments,
		users:       users,
		stories:     stories,
		notifier:    notifier,
		log:         log,
		now:         now,
	}
}

func (s *AssignmentService) requireTeacher(ctx context.Context, teacherID int64) (*models.User, error) {
	teacher, err := s.users.GetByID(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	if teacher == nil {
		return nil, ErrUserNotFound
	}
	if teacher.Role != models.RoleTeacher {
		return nil, ErrForbidden
	}
	return teacher, nil
}

// Assign gives a story to several students at once. Students that are not the
// teacher's, or that already have an open assignment for the story, are
// skipped. Returns the created assignments.
func (s *AssignmentService) Assign(ctx context.Context, teacherID, storyID int64, studentIDs []int64, due *time.Time) ([]models.Assignment, error) {
	teacher, err := s.requireTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	story, err := s.stories.GetByID(ctx, storyID)
	if err != nil {
		return nil, err
	}
	if story == nil {
		return nil, ErrStoryNotFound
	}

	created := []models.Assignment{}
	for _, studentID := range studentIDs {
		student, err := s.users.GetByID(ctx, studentID)
		if err != nil {
			return created, err
		}
		if student == nil || student.TeacherID == nil || *student.TeacherID != teacherID {
			s.log.Debug("assignment skipped: not this teacher's student", zap.Int64("student_id", studentID))
			continue
		}
		open, err := s.assignments.HasOpen(ctx, studentID, storyID)
		if err != nil {
			return created, err
		}
		if open {
			continue
		}

		a := &models.Assignment{
			TeacherID:  teacherID,
			StudentID:  studentID,
			StoryID:    storyID,
			StoryTitle: story.Title,
			Status:     models.AssignmentPending,
			AssignedAt: s.now().UTC(),
			DueDate:    due,
		}
		if err := s.assignments.Create(ctx, a); err != nil {
			return created, err
		}
		created = append(created, *a)
		s.notifier.NotifyAssignment(ctx, studentID, teacher.Name, story.Title, due)
	}

	s.log.Info("assignments created",
		zap.Int64("teacher_id", teacherID),
		zap.Int64("story_id", storyID),
		zap.Int("created", len(created)),
	)
	return created, nil
}

// Complete marks the student's assignment done. Completing it again is a
// no-op that reports alreadyDone.
func (s *AssignmentService) Complete(ctx context.Context, studentID, assignmentID int64) (alreadyDone bool, err error) {
	a, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return false, err
	}
	if a == nil || a.StudentID != studentID {
		return false, ErrAssignmentNotFound
	}
	if a.Status == models.AssignmentCompleted {
		return true, nil
	}

	if err := s.assignments.Complete(ctx, assignmentID, s.now()); err != nil {
		return false, err
	}

	if student, err := s.users.GetByID(ctx, studentID); err == nil && student != nil {
		s.notifier.NotifyAssignmentCompleted(ctx, a.TeacherID, student.Name, a.StoryTitle)
	}
	return false, nil
}

// ListForStudent returns a student's assignments; an empty status lists all
func (s *AssignmentService) ListForStudent(ctx context.Context, studentID int64, status models.AssignmentStatus) ([]models.Assignment, error) {
	return s.assignments.ListByStudent(ctx, studentID, status)
}

// ListForTeacher returns every assignment the teacher created
func (s *AssignmentService) ListForTeacher(ctx context.Context, teacherID int64) ([]models.Assignment, error) {
	return s.assignments.ListByTeacher(ctx, teacherID)
}

// Delete removes one of the teacher's assignments
func (s *AssignmentService) Delete(ctx context.Context, teacherID, assignmentID int64) error {
	ok, err := s.assignments.Delete(ctx, teacherID, assignmentID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAssignmentNotFound
	}
	return nil
}

// PendingCount is the student's open workload
type PendingCount struct {
	Pending int `json:"pending"`
	Urgent  int `json:"urgent"`
}

// PendingCount counts pending assignments and those due within a day
func (s *AssignmentService) PendingCount(ctx context.Context, studentID int64) (PendingCount, error) {
	pending, urgent, err := s.assignments.PendingCounts(ctx, studentID, s.now().Add(24*time.Hour))
	if err != nil {
		return PendingCount{}, err
	}
	return PendingCount{Pending: pending, Urgent: urgent}, nil
}

// SendDueReminders notifies students of pending assignments due within window
// and returns how many reminders went out
func (s *AssignmentService) SendDueReminders(ctx context.Context, window time.Duration) (int, error) {
	now := s.now()
	due, err := s.assignments.ListPendingDueBetween(ctx, now, now.Add(window))
	if err != nil {
		return 0, err
	}
	for _, a := range due {
		hours := int(a.DueDate.Sub(now).Hours())
		s.notifier.NotifyAssignmentReminder(ctx, a.StudentID, a.StoryTitle, hours)
	}
	return len(due), nil
}

// MarkOverdue flips past-due pending assignments to overdue
func (s *AssignmentService) MarkOverdue(ctx context.Context) (int, error) {
	n, err := s.assignments.MarkOverdue(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("assignments marked overdue", zap.Int("count", n))
	}
	return n, nil
}

// TeacherStats summarizes the assignments a teacher handed out
type TeacherStats struct {
	Total          int     `json:"total"`
	Pending        int     `json:"pending"`
	Completed      int     `json:"completed"`
	Overdue        int     `json:"overdue"`
	CompletionRate float64 `json:"completion_rate"`
}

// TeacherStats counts the teacher's assignments by status
func (s *AssignmentService) TeacherStats(ctx context.Context, teacherID int64) (*TeacherStats, error) {
	list, err := s.assignments.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to load teacher stats: %w", err)
	}
	st := &TeacherStats{Total: len(list)}
	for _, a := range list {
		switch a.Status {
		case models.AssignmentPending:
			st.Pending++
		case models.AssignmentCompleted:
			st.Completed++
		case models.AssignmentOverdue:
			st.Overdue++
		}
	}
	if st.Total > 0 {
		st.CompletionRate = progression.Round1(float64(st.Completed) / float64(st.Total) * 100)
	}
	return st, nil
}
