package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"readwell/internal/credentials"
	"readwell/internal/models"
	"readwell/internal/repository"
)

// LinkCodeStore keeps link codes with an expiry. Take is single-use: it
// removes the code and returns nil for unknown or expired codes.
type LinkCodeStore interface {
	Save(ctx context.Context, code models.LinkCode) error
	Take(ctx context.Context, code string, now time.Time) (*models.LinkCode, error)
}

const maxCodeAttempts = 5

// LinkService links student accounts to parents
type LinkService struct {
	users    *repository.UserRepository
	codes    LinkCodeStore
	ttl      time.Duration
	notifier *NotificationService
	log      *zap.Logger
	now      Clock
}

// NewLinkService creates a new link service
func NewLinkService(users *repository.UserRepository, codes LinkCodeStore, ttl time.Duration, notifier *NotificationService, log *zap.Logger, now Clock) *LinkService {
	return &LinkService{users: users, codes: codes, ttl: ttl, notifier: notifier, log: log, now: now}
}

func (s *LinkService) student(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil || u.Role != models.RoleStudent {
		return nil, ErrStudentNotFound
	}
	return u, nil
}

func (s *LinkService) parent(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	if u.Role != models.RoleParent {
		return nil, ErrForbidden
	}
	return u, nil
}

// IssueCode creates a fresh link code for a student, replacing any older one
func (s *LinkService) IssueCode(ctx context.Context, studentID int64) (*models.LinkCode, error) {
	if _, err := s.student(ctx, studentID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := credentials.GenerateLinkCode()
		if err != nil {
			return nil, err
		}
		lc := models.LinkCode{Code: code, StudentID: studentID, ExpiresAt: now.Add(s.ttl), CreatedAt: now}
		err = s.codes.Save(ctx, lc)
		if errors.Is(err, models.ErrLinkCodeTaken) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return &lc, nil
	}
	return nil, fmt.Errorf("failed to issue link code after %d attempts", maxCodeAttempts)
}

// Redeem links the code's student to the parent. The code is consumed even
// when linking fails afterwards.
func (s *LinkService) Redeem(ctx context.Context, parentID int64, code string) (*models.User, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !credentials.IsLinkCode(code) {
		return nil, ErrLinkCodeInvalid
	}
	parent, err := s.parent(ctx, parentID)
	if err != nil {
		return nil, err
	}

	lc, err := s.codes.Take(ctx, code, s.now())
	if err != nil {
		return nil, err
	}
	if lc == nil {
		return nil, ErrLinkCodeInvalid
	}
	student, err := s.student(ctx, lc.StudentID)
	if err != nil {
		return nil, err
	}
	return s.link(ctx, parent, student)
}

// LinkByEmail links the student with the given address directly
func (s *LinkService) LinkByEmail(ctx context.Context, parentID int64, email string) (*models.User, error) {
	parent, err := s.parent(ctx, parentID)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}
	if u == nil || u.Role != models.RoleStudent {
		return nil, ErrStudentNotFound
	}
	return s.link(ctx, parent, u)
}

func (s *LinkService) link(ctx context.Context, parent, student *models.User) (*models.User, error) {
	if student.ParentID != nil {
		if *student.ParentID == parent.ID {
			return nil, ErrAlreadyLinkedToYou
		}
		return nil, ErrAlreadyLinked
	}
	if err := s.users.SetParent(ctx, student.ID, &parent.ID); err != nil {
		return nil, err
	}
	student.ParentID = &parent.ID

	s.log.Info("student linked", zap.Int64("student_id", student.ID), zap.Int64("parent_id", parent.ID))
	s.notifier.NotifyAccountLinked(ctx, student.ID, parent.Name)
	return student, nil
}

// Unlink detaches one of the parent's children
func (s *LinkService) Unlink(ctx context.Context, parentID, studentID int64) error {
	if _, err := s.parent(ctx, parentID); err != nil {
		return err
	}
	student, err := s.student(ctx, studentID)
	if err != nil {
		return err
	}
	if student.ParentID == nil || *student.ParentID != parentID {
		return ErrNotLinked
	}
	return s.users.SetParent(ctx, studentID, nil)
}

// Children lists the students linked to a parent
func (s *LinkService) Children(ctx context.Context, parentID int64) ([]models.User, error) {
	return s.users.ListChildren(ctx, parentID)
}
