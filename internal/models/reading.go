package models

import "time"

// PreReading is a student's first timed reading of a story
type PreReading struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	StoryID         int64     `json:"story_id"`
	DurationSeconds float64   `json:"duration_seconds"`
	WordCount       int       `json:"word_count"`
	SpeedWPM        float64   `json:"speed_wpm"`
	CreatedAt       time.Time `json:"created_at"`
}

// Practice is a repeated timed reading; AttemptNumber starts at 1 per (user, story)
type Practice struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	StoryID         int64     `json:"story_id"`
	AttemptNumber   int       `json:"attempt_number"`
	DurationSeconds float64   `json:"duration_seconds"`
	WordCount       int       `json:"word_count"`
	SpeedWPM        float64   `json:"speed_wpm"`
	CreatedAt       time.Time `json:"created_at"`
}

// ReadingStats are the per-user aggregates badges and leaderboards are computed from
type ReadingStats struct {
	Stories   int     `json:"stories"`
	Practices int     `json:"practices"`
	AvgSpeed  float64 `json:"avg_speed"`
}
