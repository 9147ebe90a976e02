package service

import (
	"context"
	"strings"

	"readwell/internal/models"
	"readwell/internal/progression"
	"readwell/internal/repository"
	"readwell/internal/validation"
)

// UserInput describes a new account
type UserInput struct {
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Role       models.Role `json:"role" validate:"oneof=student teacher parent admin"`
	GradeLevel *int        `json:"grade_level" validate:"omitempty,min=1,max=12"`
	TeacherID  *int64      `json:"teacher_id" validate:"omitempty,gt=0"`
}

// StoryInput describes a new story. Text is only used to count words when
// WordCount is not given.
type StoryInput struct {
	Title      string `json:"title" validate:"notblank,max=200"`
	GradeLevel int    `json:"grade_level" validate:"gte=0,lte=12"`
	WordCount  int    `json:"word_count" validate:"gte=0"`
	Text       string `json:"-"`
}

// AccountService creates users and stories
type AccountService struct {
	users   *repository.UserRepository
	stories *repository.StoryRepository
	now     Clock
}

// NewAccountService creates a new account service
func NewAccountService(users *repository.UserRepository, stories *repository.StoryRepository, now Clock) *AccountService {
	return &AccountService{users: users, stories: stories, now: now}
}

// CreateUser validates and stores a new user
func (s *AccountService) CreateUser(ctx context.Context, in UserInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := validation.ValidateName(in.Name); err != nil {
		return nil, err
	}
	if in.Email != "" {
		if err := validation.ValidateEmail(in.Email); err != nil {
			return nil, err
		}
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	if in.Email != "" {
		existing, err := s.users.GetByEmail(ctx, in.Email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, ErrEmailTaken
		}
	}
	if in.TeacherID != nil {
		teacher, err := s.users.GetByID(ctx, *in.TeacherID)
		if err != nil {
			return nil, err
		}
		if teacher == nil || teacher.Role != models.RoleTeacher {
			return nil, ErrUserNotFound
		}
	}

	u := &models.User{
		Name:       in.Name,
		Email:      in.Email,
		Role:       in.Role,
		GradeLevel: in.GradeLevel,
		TeacherID:  in.TeacherID,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// GetUser returns a user or ErrUserNotFound
func (s *AccountService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// ListUsers returns every user
func (s *AccountService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

// CreateStory stores a story, counting the words of Text when no count is given
func (s *AccountService) CreateStory(ctx context.Context, in StoryInput) (*models.Story, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	words := in.WordCount
	if words == 0 && in.Text != "" {
		words = progression.CountWords(in.Text)
	}
	st := &models.Story{Title: in.Title, GradeLevel: in.GradeLevel, WordCount: words, CreatedAt: s.now().UTC()}
	if err := s.stories.Create(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// ListStories returns every story
func (s *AccountService) ListStories(ctx context.Context) ([]models.Story, error) {
	return s.stories.List(ctx)
}
