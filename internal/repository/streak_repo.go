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

// dateLayout is how last_activity_date is stored; a plain calendar date
// avoids driver-specific DATE handling.
const dateLayout = "2006-01-02"

// StreakRepository persists per-user streak and XP records
type StreakRepository struct {
	db database.DBTX
}

// NewStreakRepository creates a new streak repository
func NewStreakRepository(db database.DBTX) *StreakRepository {
	return &StreakRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *StreakRepository) WithTx(tx database.DBTX) *StreakRepository {
	return &StreakRepository{db: tx}
}

const streakColumns = `id, user_id, current_streak, longest_streak, last_activity_date, total_xp, level, created_at, updated_at`

func scanStreak(row interface{ Scan(...any) error }) (*models.StreakRecord, error) {
	s := &models.StreakRecord{}
	var last sql.NullString
	err := row.Scan(&s.ID, &s.UserID, &s.CurrentStreak, &s.LongestStreak, &last, &s.TotalXP, &s.Level, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if last.Valid && last.String != "" {
		d, err := time.Parse(dateLayout, last.String)
		if err != nil {
			return nil, fmt.Errorf("bad last_activity_date %q: %w", last.String, err)
		}
		s.LastActivityDate = &d
	}
	return s, nil
}

func formatDate(d *time.Time) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.Format(dateLayout), Valid: true}
}

// Get returns a user's record, or nil when none exists yet
func (r *StreakRepository) Get(ctx context.Context, userID int64) (*models.StreakRecord, error) {
	s, err := scanStreak(r.db.QueryRowContext(ctx, "SELECT "+streakColumns+" FROM user_streaks WHERE user_id = ?", userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get streak: %w", err)
	}
	return s, nil
}

// Create inserts a fresh record for a user
func (r *StreakRepository) Create(ctx context.Context, s *models.StreakRecord) error {
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = now
	}
	if s.Level < 1 {
		s.Level = 1
	}

	query := `
		INSERT INTO user_streaks (user_id, current_streak, longest_streak, last_activity_date, total_xp, level, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		s.UserID, s.CurrentStreak, s.LongestStreak, formatDate(s.LastActivityDate),
		s.TotalXP, s.Level, s.CreatedAt.UTC(), s.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create streak: %w", err)
	}
	s.ID = id
	return nil
}

// Update writes every mutable field of the record
func (r *StreakRepository) Update(ctx context.Context, s *models.StreakRecord) error {
	s.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE user_streaks
		SET current_streak = ?, longest_streak = ?, last_activity_date = ?, total_xp = ?, level = ?, updated_at = ?
		WHERE user_id = ?
	`
	_, err := r.db.ExecContext(ctx, query,
		s.CurrentStreak, s.LongestStreak, formatDate(s.LastActivityDate), s.TotalXP, s.Level, s.UpdatedAt, s.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update streak: %w", err)
	}
	return nil
}

// List returns every record ordered by user
func (r *StreakRepository) List(ctx context.Context) ([]models.StreakRecord, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+streakColumns+" FROM user_streaks ORDER BY user_id")
	if err != nil {
		return nil, fmt.Errorf("failed to list streaks: %w", err)
	}
	defer rows.Close()

	var out []models.StreakRecord
	for rows.Next() {
		s, err := scanStreak(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// TopByXP ranks students by total XP
func (r *StreakRepository) TopByXP(ctx context.Context, limit int) ([]RankingRow, error) {
	query := `
		SELECT u.id, u.name, u.grade_level, s.total_xp
		FROM users u
		JOIN user_streaks s ON s.user_id = u.id
		WHERE u.role = ?
		ORDER BY s.total_xp DESC, u.id
		LIMIT ?
	`
	return queryRankings(ctx, r.db, query, string(models.RoleStudent), limit)
}
