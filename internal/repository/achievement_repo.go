package repository

import (
	"context"
	"fmt"
	"time"

	"readwell/internal/database"
	"readwell/internal/models"
)

// AchievementRepository persists earned badges
type AchievementRepository struct {
	db database.DBTX
}

// NewAchievementRepository creates a new achievement repository
func NewAchievementRepository(db database.DBTX) *AchievementRepository {
	return &AchievementRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *AchievementRepository) WithTx(tx database.DBTX) *AchievementRepository {
	return &AchievementRepository{db: tx}
}

// Has reports whether the user already holds the badge
func (r *AchievementRepository) Has(ctx context.Context, userID int64, badgeType string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM achievements WHERE user_id = ? AND badge_type = ?", userID, badgeType,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check achievement: %w", err)
	}
	return n > 0, nil
}

// Create records a badge award
func (r *AchievementRepository) Create(ctx context.Context, a *models.Achievement) error {
	if a.EarnedAt.IsZero() {
		a.EarnedAt = time.Now().UTC()
	}
	id, err := r.db.ExecReturningID(ctx,
		"INSERT INTO achievements (user_id, badge_type, earned_at) VALUES (?, ?, ?)",
		a.UserID, a.BadgeType, a.EarnedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create achievement: %w", err)
	}
	a.ID = id
	return nil
}

// ListByUser returns a user's badges, newest first. userID 0 lists everyone's.
func (r *AchievementRepository) ListByUser(ctx context.Context, userID int64) ([]models.Achievement, error) {
	query := "SELECT id, user_id, badge_type, earned_at FROM achievements"
	var args []any
	if userID > 0 {
		query += " WHERE user_id = ?"
		args = append(args, userID)
	}
	query += " ORDER BY earned_at DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	defer rows.Close()

	var out []models.Achievement
	for rows.Next() {
		var a models.Achievement
		if err := rows.Scan(&a.ID, &a.UserID, &a.BadgeType, &a.EarnedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
