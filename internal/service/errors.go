package service

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrStudentNotFound      = errors.New("student not found")
	ErrStoryNotFound        = errors.New("story not found")
	ErrAssignmentNotFound   = errors.New("assignment not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrRecipientNotFound    = errors.New("recipient not found")
	ErrDuplicatePreReading  = errors.New("pre-reading already exists for this story")
	ErrLinkCodeInvalid      = errors.New("link code is invalid or expired")
	ErrAlreadyLinked        = errors.New("student is already linked to another parent")
	ErrAlreadyLinkedToYou   = errors.New("student is already linked to your account")
	ErrNotLinked            = errors.New("student is not linked to this parent")
	ErrForbidden            = errors.New("operation not permitted for this user")
	ErrInvalidTarget        = errors.New("invalid announcement target")
	ErrInvalidPeriod        = errors.New("invalid leaderboard period")
	ErrEmailTaken           = errors.New("email already in use")
)
