package models

import "time"

// NotificationType tags a notification; the set is open
type NotificationType string

const (
	NotificationEvaluation   NotificationType = "evaluation"
	NotificationProgress     NotificationType = "progress"
	NotificationAchievement  NotificationType = "achievement"
	NotificationAssignment   NotificationType = "assignment"
	NotificationMessage      NotificationType = "message"
	NotificationRequest      NotificationType = "request"
	NotificationStreak       NotificationType = "streak"
	NotificationXP           NotificationType = "xp"
	NotificationReminder     NotificationType = "reminder"
	NotificationAnnouncement NotificationType = "announcement"
	NotificationAccount      NotificationType = "account"
	NotificationLevelUp      NotificationType = "level_up"
)

// Notification is a persisted inbox entry
type Notification struct {
	ID        int64            `json:"id"`
	UserID    int64            `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Link      string           `json:"link,omitempty"`
	IsRead    bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}
