package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"readwell/internal/cache"
	"readwell/internal/models"
	"readwell/internal/progression"
	"readwell/internal/repository"
	"readwell/internal/validation"
)

// ReadingInput is one timed reading of a story
type ReadingInput struct {
	UserID          int64   `json:"user_id" validate:"gt=0"`
	StoryID         int64   `json:"story_id" validate:"gt=0"`
	DurationSeconds float64 `json:"duration_seconds" validate:"gt=0"`
	// WordCount overrides the story's stored word count when positive
	WordCount int `json:"word_count" validate:"gte=0"`
}

// ReadingService records first readings and practices and feeds the engine
type ReadingService struct {
	readings *repository.ReadingRepository
	stories  *repository.StoryRepository
	users    *repository.UserRepository
	streak   *StreakService
	notifier *NotificationService
	cache    cache.Cache
	log      *zap.Logger
	now      Clock
}

// NewReadingService creates a new reading service
func NewReadingService(readings *repository.ReadingRepository, stories *repository.StoryRepository, users *repository.UserRepository,
	streak *StreakService, notifier *NotificationService, c cache.Cache, log *zap.Logger, now Clock) *ReadingService {
	return &ReadingService{
		readings: readings,
		stories:  stories,
		users:    users,
		streak:   streak,
		notifier: notifier,
		cache:    c,
		log:      log,
		now:      now,
	}
}

func (s *ReadingService) prepare(ctx context.Context, in ReadingInput) (*models.Story, int, float64, error) {
	if err := validation.Struct(in); err != nil {
		return nil, 0, 0, err
	}
	story, err := s.stories.GetByID(ctx, in.StoryID)
	if err != nil {
		return nil, 0, 0, err
	}
	if story == nil {
		return nil, 0, 0, ErrStoryNotFound
	}
	words := story.WordCount
	if in.WordCount > 0 {
		words = in.WordCount
	}
	return story, words, progression.ReadingSpeed(words, in.DurationSeconds), nil
}

// SubmitPreReading records the user's first reading of a story
func (s *ReadingService) SubmitPreReading(ctx context.Context, in ReadingInput) (*models.PreReading, error) {
	_, words, speed, err := s.prepare(ctx, in)
	if err != nil {
		return nil, err
	}

	existing, err := s.readings.GetPreReading(ctx, in.UserID, in.StoryID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicatePreReading
	}

	pre := &models.PreReading{
		UserID:          in.UserID,
		StoryID:         in.StoryID,
		DurationSeconds: in.DurationSeconds,
		WordCount:       words,
		SpeedWPM:        speed,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.readings.CreatePreReading(ctx, pre); err != nil {
		return nil, err
	}

	if total, err := s.readings.CountPreReadings(ctx, in.UserID); err != nil {
		s.log.Warn("milestone check failed", zap.Int64("user_id", in.UserID), zap.Error(err))
	} else if progression.IsStoryMilestone(total) {
		if student, err := s.users.GetByID(ctx, in.UserID); err == nil && student != nil {
			s.notifier.NotifyProgressMilestone(ctx, student, MilestoneStories, total)
		}
	}

	s.afterReading(ctx, in.UserID, progression.ActionStoryRead)
	return pre, nil
}

// SubmitPractice records another timed reading of a story
func (s *ReadingService) SubmitPractice(ctx context.Context, in ReadingInput) (*models.Practice, error) {
	_, words, speed, err := s.prepare(ctx, in)
	if err != nil {
		return nil, err
	}

	last, err := s.readings.LastAttemptNumber(ctx, in.UserID, in.StoryID)
	if err != nil {
		return nil, err
	}
	p := &models.Practice{
		UserID:          in.UserID,
		StoryID:         in.StoryID,
		AttemptNumber:   last + 1,
		DurationSeconds: in.DurationSeconds,
		WordCount:       words,
		SpeedWPM:        speed,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.readings.CreatePractice(ctx, p); err != nil {
		return nil, err
	}

	s.afterReading(ctx, in.UserID, progression.ActionPracticeComplete)
	return p, nil
}

// afterReading awards XP and drops cached leaderboards; neither may fail the submission
func (s *ReadingService) afterReading(ctx context.Context, userID int64, action progression.Action) {
	if _, err := s.streak.RecordActivity(ctx, userID, action); err != nil {
		s.log.Warn("xp award failed", zap.Int64("user_id", userID), zap.String("action", string(action)), zap.Error(err))
	}
	if err := s.cache.InvalidatePrefix(ctx, leaderboardPrefix); err != nil {
		s.log.Warn("leaderboard cache invalidation failed", zap.Error(err))
	}
}

// History lists a user's first readings, oldest first
func (s *ReadingService) History(ctx context.Context, userID int64) ([]models.PreReading, error) {
	list, err := s.readings.ListPreReadings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return list, nil
}
