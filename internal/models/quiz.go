package models

import "time"

// QuizQuestion is a multiple choice question about a story
type QuizQuestion struct {
	ID            int64     `json:"id"`
	StoryID       int64     `json:"story_id"`
	Text          string    `json:"question_text"`
	OptionA       string    `json:"option_a"`
	OptionB       string    `json:"option_b"`
	OptionC       string    `json:"option_c"`
	OptionD       string    `json:"option_d"`
	CorrectAnswer string    `json:"correct_answer"`
	CreatedAt     time.Time `json:"created_at"`
}

// MaxQuizChoices is how many multiple choice answers a submission carries
const MaxQuizChoices = 4

// QuizAnswer is a student's latest answer sheet for a story. Choices[i]
// answers the i-th question by ID; an empty choice is unanswered.
type QuizAnswer struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	StoryID      int64     `json:"story_id"`
	Choices      []string  `json:"choices"`
	OpenAnswer   string    `json:"open_answer,omitempty"`
	CorrectCount int       `json:"correct_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
