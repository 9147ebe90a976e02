package models

import "time"

// Message is a direct message between two users. The name fields are filled
// by listings only.
type Message struct {
	ID           int64      `json:"id"`
	SenderID     int64      `json:"sender_id"`
	SenderName   string     `json:"sender_name,omitempty"`
	ReceiverID   int64      `json:"receiver_id"`
	ReceiverName string     `json:"receiver_name,omitempty"`
	Subject      string     `json:"subject,omitempty"`
	Content      string     `json:"content"`
	IsRead       bool       `json:"is_read"`
	CreatedAt    time.Time  `json:"created_at"`
	ReadAt       *time.Time `json:"read_at,omitempty"`
}
