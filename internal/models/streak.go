package models

import "time"

// StreakRecord holds a user's daily streak and XP progression
type StreakRecord struct {
	ID               int64      `json:"id"`
	UserID           int64      `json:"user_id"`
	CurrentStreak    int        `json:"current_streak"`
	LongestStreak    int        `json:"longest_streak"`
	LastActivityDate *time.Time `json:"last_activity_date,omitempty"`
	TotalXP          int        `json:"total_xp"`
	Level            int        `json:"level"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Achievement records a badge earned by a user
type Achievement struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	BadgeType string    `json:"badge_type"`
	EarnedAt  time.Time `json:"earned_at"`
}
