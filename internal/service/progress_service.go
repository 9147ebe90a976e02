package service

import (
	"context"

	"readwell/internal/progression"
	"readwell/internal/repository"
)

// ProgressService reads attempts and runs the progress calculators over them
type ProgressService struct {
	readings *repository.ReadingRepository
}

// NewProgressService creates a new progress service
func NewProgressService(readings *repository.ReadingRepository) *ProgressService {
	return &ProgressService{readings: readings}
}

// Improvement compares the user's first reading of a story with their latest practice
func (s *ProgressService) Improvement(ctx context.Context, userID, storyID int64) (progression.Improvement, error) {
	pre, err := s.readings.GetPreReading(ctx, userID, storyID)
	if err != nil {
		return progression.Improvement{}, err
	}
	if pre == nil {
		return progression.CalculateImprovement(nil, nil), nil
	}

	practices, err := s.readings.ListPractices(ctx, userID, storyID)
	if err != nil {
		return progression.Improvement{}, err
	}
	attempts := make([]progression.Attempt, len(practices))
	for i, p := range practices {
		attempts[i] = progression.Attempt{AttemptNumber: p.AttemptNumber, DurationSeconds: p.DurationSeconds, SpeedWPM: p.SpeedWPM}
	}
	first := &progression.Attempt{DurationSeconds: pre.DurationSeconds, SpeedWPM: pre.SpeedWPM}
	return progression.CalculateImprovement(first, attempts), nil
}

// Summary aggregates all of the user's readings
func (s *ProgressService) Summary(ctx context.Context, userID int64) (progression.Summary, error) {
	pres, err := s.readings.ListPreReadings(ctx, userID)
	if err != nil {
		return progression.Summary{}, err
	}
	practices, err := s.readings.ListPractices(ctx, userID, 0)
	if err != nil {
		return progression.Summary{}, err
	}

	first := make([]float64, len(pres))
	for i, p := range pres {
		first[i] = p.SpeedWPM
	}
	practice := make([]float64, len(practices))
	for i, p := range practices {
		practice[i] = p.SpeedWPM
	}
	return progression.Summarize(first, practice), nil
}

// Milestone reports the distance to the user's next story milestone
func (s *ProgressService) Milestone(ctx context.Context, userID int64) (progression.MilestoneProgress, error) {
	stories, err := s.readings.CountDistinctStories(ctx, userID)
	if err != nil {
		return progression.MilestoneProgress{}, err
	}
	return progression.NextMilestone(stories), nil
}
