package models

import "time"

// AssignmentStatus tracks an assignment through its lifecycle
type AssignmentStatus string

const (
	AssignmentPending   AssignmentStatus = "pending"
	AssignmentCompleted AssignmentStatus = "completed"
	AssignmentOverdue   AssignmentStatus = "overdue"
)

// Assignment is a story a teacher assigned to one student
type Assignment struct {
	ID          int64            `json:"id"`
	TeacherID   int64            `json:"teacher_id"`
	StudentID   int64            `json:"student_id"`
	StoryID     int64            `json:"story_id"`
	StoryTitle  string           `json:"story_title,omitempty"`
	Status      AssignmentStatus `json:"status"`
	AssignedAt  time.Time        `json:"assigned_at"`
	DueDate     *time.Time       `json:"due_date,omitempty"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
}

// Evaluation is a teacher's assessment of a student's reading of a story
type Evaluation struct {
	ID                int64     `json:"id"`
	StudentID         int64     `json:"student_id"`
	StoryID           int64     `json:"story_id"`
	TeacherID         int64     `json:"teacher_id"`
	IncorrectWords    string    `json:"incorrect_words,omitempty"`
	FluencyScore      *int      `json:"fluency_score,omitempty"`
	OpenQuestionScore *int      `json:"open_question_score,omitempty"`
	Comment           string    `json:"comment,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// CommendationType is the kind of recognition a teacher gives
type CommendationType string

const (
	CommendationTakdir     CommendationType = "takdir"
	CommendationTesekkur   CommendationType = "tesekkur"
	CommendationBirincilik CommendationType = "birincilik"
	CommendationOzelBasari CommendationType = "ozel_basari"
)

// DisplayName returns the Turkish label shown to students
func (c CommendationType) DisplayName() string {
	switch c {
	case CommendationTesekkur:
		return "Teşekkür"
	case CommendationBirincilik:
		return "Birincilik"
	case CommendationOzelBasari:
		return "Özel Başarı"
	default:
		return "Takdir"
	}
}

// Commendation is a teacher's recognition of a student, optionally carrying XP
type Commendation struct {
	ID          int64            `json:"id"`
	StudentID   int64            `json:"student_id"`
	TeacherID   int64            `json:"teacher_id"`
	TeacherName string           `json:"teacher_name,omitempty"`
	Type        CommendationType `json:"type"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Category    string           `json:"category,omitempty"`
	Rank        *int             `json:"rank,omitempty"`
	Period      string           `json:"period,omitempty"`
	XPReward    int              `json:"xp_reward"`
	CreatedAt   time.Time        `json:"created_at"`
}
