package models

import (
	"errors"
	"time"
)

// ErrLinkCodeTaken is returned by a code store when a freshly generated code
// collides with a live one
var ErrLinkCodeTaken = errors.New("link code already in use")

// LinkCode is a short-lived code a student hands to a parent to link accounts
type LinkCode struct {
	Code      string    `json:"code"`
	StudentID int64     `json:"student_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// IsExpired checks if the code has expired at now
func (c *LinkCode) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
