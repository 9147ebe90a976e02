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

// AssignmentRepository handles teacher-assigned stories
type AssignmentRepository struct {
	db database.DBTX
}

// NewAssignmentRepository creates a new assignment repository
func NewAssignmentRepository(db database.DBTX) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *AssignmentRepository) WithTx(tx database.DBTX) *AssignmentRepository {
	return &AssignmentRepository{db: tx}
}

const assignmentSelect = `
	SELECT a.id, a.teacher_id, a.student_id, a.story_id, COALESCE(s.title, ''), a.status, a.assigned_at, a.due_date, a.completed_at
	FROM assignments a
	LEFT JOIN stories s ON s.id = a.story_id
`

func scanAssignment(row interface{ Scan(...any) error }) (*models.Assignment, error) {
	a := &models.Assignment{}
	var status string
	var due, completed sql.NullTime
	err := row.Scan(&a.ID, &a.TeacherID, &a.StudentID, &a.StoryID, &a.StoryTitle, &status, &a.AssignedAt, &due, &completed)
	if err != nil {
		return nil, err
	}
	a.Status = models.AssignmentStatus(status)
	a.DueDate = timePtr(due)
	a.CompletedAt = timePtr(completed)
	return a, nil
}

// Create inserts a pending assignment
func (r *AssignmentRepository) Create(ctx context.Context, a *models.Assignment) error {
	if a.AssignedAt.IsZero() {
		a.AssignedAt = time.Now().UTC()
	}
	if a.Status == "" {
		a.Status = models.AssignmentPending
	}
	query := `
		INSERT INTO assignments (teacher_id, student_id, story_id, status, assigned_at, due_date, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		a.TeacherID, a.StudentID, a.StoryID, string(a.Status), a.AssignedAt.UTC(), nullTime(a.DueDate), nullTime(a.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create assignment: %w", err)
	}
	a.ID = id
	return nil
}

// HasOpen reports whether the student has a non-completed assignment for the story
func (r *AssignmentRepository) HasOpen(ctx context.Context, studentID, storyID int64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM assignments WHERE student_id = ? AND story_id = ? AND status <> ?",
		studentID, storyID, string(models.AssignmentCompleted),
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check assignment: %w", err)
	}
	return n > 0, nil
}

// GetByID retrieves an assignment, or nil when none exists
func (r *AssignmentRepository) GetByID(ctx context.Context, id int64) (*models.Assignment, error) {
	a, err := scanAssignment(r.db.QueryRowContext(ctx, assignmentSelect+" WHERE a.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	return a, nil
}

// Complete marks an assignment completed at the given time
func (r *AssignmentRepository) Complete(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE assignments SET status = ?, completed_at = ? WHERE id = ?",
		string(models.AssignmentCompleted), at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete assignment: %w", err)
	}
	return nil
}

// ListByStudent returns a student's assignments, newest first. An empty
// status lists all of them.
func (r *AssignmentRepository) ListByStudent(ctx context.Context, studentID int64, status models.AssignmentStatus) ([]models.Assignment, error) {
	query := assignmentSelect + " WHERE a.student_id = ?"
	args := []any{studentID}
	if status != "" {
		query += " AND a.status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY a.assigned_at DESC, a.id DESC"
	return r.query(ctx, query, args...)
}

// ListAll returns every assignment ordered by ID
func (r *AssignmentRepository) ListAll(ctx context.Context) ([]models.Assignment, error) {
	return r.query(ctx, assignmentSelect+" ORDER BY a.id")
}

// ListPendingDueBetween returns pending assignments whose due date falls in [from, to]
func (r *AssignmentRepository) ListPendingDueBetween(ctx context.Context, from, to time.Time) ([]models.Assignment, error) {
	query := assignmentSelect + `
		WHERE a.status = ? AND a.due_date IS NOT NULL AND a.due_date >= ? AND a.due_date <= ?
		ORDER BY a.due_date, a.id
	`
	return r.query(ctx, query, string(models.AssignmentPending), from.UTC(), to.UTC())
}

func (r *AssignmentRepository) query(ctx context.Context, query string, args ...any) ([]models.Assignment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	var out []models.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// MarkOverdue flips pending assignments due before now to overdue
func (r *AssignmentRepository) MarkOverdue(ctx context.Context, now time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE assignments SET status = ? WHERE status = ? AND due_date IS NOT NULL AND due_date < ?",
		string(models.AssignmentOverdue), string(models.AssignmentPending), now.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark overdue: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// PendingCounts returns a student's pending total and how many of those are
// due at or before urgentBy, already late ones included
func (r *AssignmentRepository) PendingCounts(ctx context.Context, studentID int64, urgentBy time.Time) (pending, urgent int, err error) {
	err = r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM assignments WHERE student_id = ? AND status = ?",
		studentID, string(models.AssignmentPending),
	).Scan(&pending)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count pending: %w", err)
	}

	err = r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM assignments WHERE student_id = ? AND status = ? AND due_date IS NOT NULL AND due_date <= ?",
		studentID, string(models.AssignmentPending), urgentBy.UTC(),
	).Scan(&urgent)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count urgent: %w", err)
	}
	return pending, urgent, nil
}

// ListByTeacher returns every assignment a teacher created, newest first
func (r *AssignmentRepository) ListByTeacher(ctx context.Context, teacherID int64) ([]models.Assignment, error) {
	return r.query(ctx, assignmentSelect+" WHERE a.teacher_id = ? ORDER BY a.assigned_at DESC, a.id DESC", teacherID)
}

// Delete removes a teacher's assignment, reporting whether it existed
func (r *AssignmentRepository) Delete(ctx context.Context, teacherID, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM assignments WHERE id = ? AND teacher_id = ?", id, teacherID)
	if err != nil {
		return false, fmt.Errorf("failed to delete assignment: %w", err)
	}
	return affected(res)
}
