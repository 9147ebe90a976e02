package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"readwell/internal/database"
	"readwell/internal/models"
)

// UserRepository handles database operations for accounts
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *UserRepository) WithTx(tx database.DBTX) *UserRepository {
	return &UserRepository{db: tx}
}

const userColumns = `id, name, COALESCE(email, ''), role, grade_level, parent_id, teacher_id, created_at`

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO users (name, email, role, grade_level, parent_id, teacher_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		u.Name, nullString(u.Email), string(u.Role), nullInt(u.GradeLevel),
		nullInt64(u.ParentID), nullInt64(u.TeacherID), u.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	u.ID = id
	return nil
}

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	var role string
	var grade, parent, teacher sql.NullInt64
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &role, &grade, &parent, &teacher, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	u.GradeLevel = intPtr(grade)
	u.ParentID = int64Ptr(parent)
	u.TeacherID = int64Ptr(teacher)
	return u, nil
}

// GetByID retrieves a user by ID, or nil when none exists
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// GetByEmail retrieves a user by email address, or nil when none exists
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// List returns every user ordered by ID
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// ListChildren returns the students linked to a parent
func (r *UserRepository) ListChildren(ctx context.Context, parentID int64) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users WHERE parent_id = ? ORDER BY name", parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list children: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// SetParent links (or with nil unlinks) a student and a parent
func (r *UserRepository) SetParent(ctx context.Context, studentID int64, parentID *int64) error {
	_, err := r.db.ExecContext(ctx, "UPDATE users SET parent_id = ? WHERE id = ?", nullInt64(parentID), studentID)
	if err != nil {
		return fmt.Errorf("failed to set parent: %w", err)
	}
	return nil
}

// Audience narrows a user ID listing. Zero values mean no filter.
type Audience struct {
	Role      models.Role
	Grade     int
	ExcludeID int64
}

// ListIDsByAudience returns the IDs of every user matching the audience
func (r *UserRepository) ListIDsByAudience(ctx context.Context, a Audience) ([]int64, error) {
	var where []string
	var args []any
	if a.Role != "" {
		where = append(where, "role = ?")
		args = append(args, string(a.Role))
	}
	if a.Grade > 0 {
		where = append(where, "grade_level = ?")
		args = append(args, a.Grade)
	}
	if a.ExcludeID > 0 {
		where = append(where, "id <> ?")
		args = append(args, a.ExcludeID)
	}

	query := "SELECT id FROM users"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audience: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
