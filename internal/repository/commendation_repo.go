package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"readwell/internal/database"
	"readwell/internal/models"
)

// CommendationRepository persists teacher commendations
type CommendationRepository struct {
	db database.DBTX
}

// NewCommendationRepository creates a new commendation repository
func NewCommendationRepository(db database.DBTX) *CommendationRepository {
	return &CommendationRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *CommendationRepository) WithTx(tx database.DBTX) *CommendationRepository {
	return &CommendationRepository{db: tx}
}

// Create inserts a commendation
func (r *CommendationRepository) Create(ctx context.Context, c *models.Commendation) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO commendations (student_id, teacher_id, commendation_type, title, description, category, rank_position, period, xp_reward, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		c.StudentID, c.TeacherID, string(c.Type), c.Title, c.Description, c.Category,
		nullInt(c.Rank), c.Period, c.XPReward, c.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create commendation: %w", err)
	}
	c.ID = id
	return nil
}

// ListByStudent returns a student's commendations with teacher names, newest
// first. studentID 0 lists all.
func (r *CommendationRepository) ListByStudent(ctx context.Context, studentID int64) ([]models.Commendation, error) {
	query := `
		SELECT c.id, c.student_id, c.teacher_id, COALESCE(u.name, ''), c.commendation_type, c.title,
		       c.description, c.category, c.rank_position, c.period, c.xp_reward, c.created_at
		FROM commendations c
		LEFT JOIN users u ON u.id = c.teacher_id
	`
	var args []any
	if studentID > 0 {
		query += " WHERE c.student_id = ?"
		args = append(args, studentID)
	}
	query += " ORDER BY c.created_at DESC, c.id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list commendations: %w", err)
	}
	defer rows.Close()

	var out []models.Commendation
	for rows.Next() {
		var c models.Commendation
		var typ string
		var rank sql.NullInt64
		err := rows.Scan(&c.ID, &c.StudentID, &c.TeacherID, &c.TeacherName, &typ, &c.Title,
			&c.Description, &c.Category, &rank, &c.Period, &c.XPReward, &c.CreatedAt)
		if err != nil {
			return nil, err
		}
		c.Type = models.CommendationType(typ)
		c.Rank = intPtr(rank)
		out = append(out, c)
	}
	return out, rows.Err()
}
