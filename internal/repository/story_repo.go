package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"readwell/internal/database"
	"readwell/internal/models"
)

// StoryRepository handles story lookups
type StoryRepository struct {
	db database.DBTX
}

// NewStoryRepository creates a new story repository
func NewStoryRepository(db database.DBTX) *StoryRepository {
	return &StoryRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *StoryRepository) WithTx(tx database.DBTX) *StoryRepository {
	return &StoryRepository{db: tx}
}

// Create inserts a new story
func (r *StoryRepository) Create(ctx context.Context, s *models.Story) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	id, err := r.db.ExecReturningID(ctx,
		"INSERT INTO stories (title, grade_level, word_count, created_at) VALUES (?, ?, ?, ?)",
		s.Title, s.GradeLevel, s.WordCount, s.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create story: %w", err)
	}
	s.ID = id
	return nil
}

// GetByID retrieves a story, or nil when none exists
func (r *StoryRepository) GetByID(ctx context.Context, id int64) (*models.Story, error) {
	s := &models.Story{}
	err := r.db.QueryRowContext(ctx,
		"SELECT id, title, grade_level, word_count, created_at FROM stories WHERE id = ?", id,
	).Scan(&s.ID, &s.Title, &s.GradeLevel, &s.WordCount, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get story: %w", err)
	}
	return s, nil
}

// List returns every story ordered by ID
func (r *StoryRepository) List(ctx context.Context) ([]models.Story, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, title, grade_level, word_count, created_at FROM stories ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	defer rows.Close()

	var stories []models.Story
	for rows.Next() {
		var s models.Story
		if err := rows.Scan(&s.ID, &s.Title, &s.GradeLevel, &s.WordCount, &s.CreatedAt); err != nil {
			return nil, err
		}
		stories = append(stories, s)
	}
	return stories, rows.Err()
}
