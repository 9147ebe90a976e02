package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"readwell/internal/database"
	"readwell/internal/models"
)

// EvaluationRepository persists teacher evaluations
type EvaluationRepository struct {
	db database.DBTX
}

// NewEvaluationRepository creates a new evaluation repository
func NewEvaluationRepository(db database.DBTX) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *EvaluationRepository) WithTx(tx database.DBTX) *EvaluationRepository {
	return &EvaluationRepository{db: tx}
}

// Create inserts an evaluation
func (r *EvaluationRepository) Create(ctx context.Context, e *models.Evaluation) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO evaluations (student_id, story_id, teacher_id, incorrect_words, fluency_score, open_question_score, comment, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		e.StudentID, e.StoryID, e.TeacherID, e.IncorrectWords,
		nullInt(e.FluencyScore), nullInt(e.OpenQuestionScore), e.Comment, e.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create evaluation: %w", err)
	}
	e.ID = id
	return nil
}

// ListByStudent returns a student's evaluations, newest first. studentID 0 lists all.
func (r *EvaluationRepository) ListByStudent(ctx context.Context, studentID int64) ([]models.Evaluation, error) {
	query := `
		SELECT id, student_id, story_id, teacher_id, incorrect_words, fluency_score, open_question_score, comment, created_at
		FROM evaluations
	`
	var args []any
	if studentID > 0 {
		query += " WHERE student_id = ?"
		args = append(args, studentID)
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluations: %w", err)
	}
	defer rows.Close()

	var out []models.Evaluation
	for rows.Next() {
		var e models.Evaluation
		var fluency, open sql.NullInt64
		if err := rows.Scan(&e.ID, &e.StudentID, &e.StoryID, &e.TeacherID, &e.IncorrectWords, &fluency, &open, &e.Comment, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.FluencyScore = intPtr(fluency)
		e.OpenQuestionScore = intPtr(open)
		out = append(out, e)
	}
	return out, rows.Err()
}
