package models

import "time"

// Role is a user's account type
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleParent  Role = "parent"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleParent, RoleAdmin:
		return true
	}
	return false
}

// User represents any account: students read, teachers assign and evaluate,
// parents follow their children.
type User struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email,omitempty"`
	Role       Role      `json:"role"`
	GradeLevel *int      `json:"grade_level,omitempty"`
	ParentID   *int64    `json:"parent_id,omitempty"`
	TeacherID  *int64    `json:"teacher_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Story is a reading text. Only the fields the reading logic needs are kept.
type Story struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	GradeLevel int       `json:"grade_level"`
	WordCount  int       `json:"word_count"`
	CreatedAt  time.Time `json:"created_at"`
}
