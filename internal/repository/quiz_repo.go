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

// QuizRepository handles story quiz questions and answer sheets
type QuizRepository struct {
	db database.DBTX
}

// NewQuizRepository creates a new quiz repository
func NewQuizRepository(db database.DBTX) *QuizRepository {
	return &QuizRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *QuizRepository) WithTx(tx database.DBTX) *QuizRepository {
	return &QuizRepository{db: tx}
}

// CreateQuestion inserts a question
func (r *QuizRepository) CreateQuestion(ctx context.Context, q *models.QuizQuestion) error {
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO quiz_questions (story_id, question_text, option_a, option_b, option_c, option_d, correct_answer, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		q.StoryID, q.Text, q.OptionA, q.OptionB, q.OptionC, q.OptionD, q.CorrectAnswer, q.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create quiz question: %w", err)
	}
	q.ID = id
	return nil
}

// ListQuestions returns a story's questions in creation order. storyID 0 lists every question.
func (r *QuizRepository) ListQuestions(ctx context.Context, storyID int64) ([]models.QuizQuestion, error) {
	query := `
		SELECT id, story_id, question_text, option_a, option_b, option_c, option_d, correct_answer, created_at
		FROM quiz_questions
	`
	var args []any
	if storyID > 0 {
		query += " WHERE story_id = ?"
		args = append(args, storyID)
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list quiz questions: %w", err)
	}
	defer rows.Close()

	var out []models.QuizQuestion
	for rows.Next() {
		var q models.QuizQuestion
		if err := rows.Scan(&q.ID, &q.StoryID, &q.Text, &q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD, &q.CorrectAnswer, &q.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

const answerSelect = `
	SELECT id, user_id, story_id, q1, q2, q3, q4, open_answer, correct_count, created_at, updated_at
	FROM quiz_answers
`

func scanAnswer(row interface{ Scan(...any) error }) (*models.QuizAnswer, error) {
	a := &models.QuizAnswer{}
	var q [models.MaxQuizChoices]sql.NullString
	var open sql.NullString
	err := row.Scan(&a.ID, &a.UserID, &a.StoryID, &q[0], &q[1], &q[2], &q[3], &open, &a.CorrectCount, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Choices = make([]string, models.MaxQuizChoices)
	for i := range q {
		a.Choices[i] = q[i].String
	}
	a.OpenAnswer = open.String
	return a, nil
}

// choiceArgs spreads an answer's choices over the q1..q4 columns
func choiceArgs(a *models.QuizAnswer) []any {
	args := make([]any, models.MaxQuizChoices)
	for i := range args {
		var c string
		if i < len(a.Choices) {
			c = a.Choices[i]
		}
		args[i] = nullString(c)
	}
	return args
}

// GetAnswer retrieves a user's answer sheet for a story, or nil when none exists
func (r *QuizRepository) GetAnswer(ctx context.Context, userID, storyID int64) (*models.QuizAnswer, error) {
	a, err := scanAnswer(r.db.QueryRowContext(ctx, answerSelect+" WHERE user_id = ? AND story_id = ?", userID, storyID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz answer: %w", err)
	}
	return a, nil
}

// CreateAnswer inserts a new answer sheet
func (r *QuizRepository) CreateAnswer(ctx context.Context, a *models.QuizAnswer) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = a.CreatedAt
	}
	args := append([]any{a.UserID, a.StoryID}, choiceArgs(a)...)
	args = append(args, nullString(a.OpenAnswer), a.CorrectCount, a.CreatedAt.UTC(), a.UpdatedAt.UTC())
	id, err := r.db.ExecReturningID(ctx, `
		INSERT INTO quiz_answers (user_id, story_id, q1, q2, q3, q4, open_answer, correct_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to create quiz answer: %w", err)
	}
	a.ID = id
	return nil
}

// UpdateAnswer overwrites an existing answer sheet
func (r *QuizRepository) UpdateAnswer(ctx context.Context, a *models.QuizAnswer) error {
	args := choiceArgs(a)
	args = append(args, nullString(a.OpenAnswer), a.CorrectCount, a.UpdatedAt.UTC(), a.ID)
	_, err := r.db.ExecContext(ctx, `
		UPDATE quiz_answers
		SET q1 = ?, q2 = ?, q3 = ?, q4 = ?, open_answer = ?, correct_count = ?, updated_at = ?
		WHERE id = ?
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to update quiz answer: %w", err)
	}
	return nil
}

// ListAnswers returns every answer sheet ordered by ID
func (r *QuizRepository) ListAnswers(ctx context.Context) ([]models.QuizAnswer, error) {
	rows, err := r.db.QueryContext(ctx, answerSelect+" ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list quiz answers: %w", err)
	}
	defer rows.Close()

	var out []models.QuizAnswer
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}
