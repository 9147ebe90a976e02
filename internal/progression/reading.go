package progression

import (
	"math"
	"strings"
)

// ReadingSpeed returns words per minute rounded to 2 decimals.
// A non-positive duration yields 0.
func ReadingSpeed(wordCount int, durationSeconds float64) float64 {
	if durationSeconds <= 0 {
		return 0
	}
	return round2(float64(wordCount) / (durationSeconds / 60))
}

// CountWords counts whitespace-separated words in text
func CountWords(text string) int {
	return len(strings.Fields(text))
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// Round1 rounds to one decimal, the precision leaderboards display
func Round1(f float64) float64 {
	return math.Round(f*10) / 10
}

// Attempt is one timed reading as the calculators see it
type Attempt struct {
	AttemptNumber   int
	DurationSeconds float64
	SpeedWPM        float64
}

// ReadingPoint is a speed/time pair in an improvement report
type ReadingPoint struct {
	SpeedWPM    float64 `json:"speed_wpm"`
	TimeSeconds float64 `json:"time_seconds"`
}

// ImprovementDelta holds the change from the first reading to the latest one
type ImprovementDelta struct {
	SpeedIncreaseWPM     float64 `json:"speed_increase_wpm"`
	SpeedIncreasePercent float64 `json:"speed_increase_percent"`
	TimeReductionSeconds float64 `json:"time_reduction_seconds"`
	TimeReductionPercent float64 `json:"time_reduction_percent"`
}

// Improvement compares a story's first reading with its latest practice
type Improvement struct {
	HasData       bool              `json:"has_data"`
	Message       string            `json:"message,omitempty"`
	FirstReading  *ReadingPoint     `json:"first_reading,omitempty"`
	LastReading   *ReadingPoint     `json:"last_reading,omitempty"`
	Improvement   *ImprovementDelta `json:"improvement,omitempty"`
	TotalAttempts int               `json:"total_attempts"`
	PracticeCount int               `json:"practice_count"`
}

const noReadingData = "No reading data found"

// CalculateImprovement compares first against the practice with the highest
// attempt number. Without practices the first reading is compared with itself.
func CalculateImprovement(first *Attempt, practices []Attempt) Improvement {
	if first == nil {
		return Improvement{HasData: false, Message: noReadingData}
	}

	lastSpeed, lastTime := first.SpeedWPM, first.DurationSeconds
	if len(practices) > 0 {
		latest := practices[0]
		for _, p := range practices[1:] {
			if p.AttemptNumber >= latest.AttemptNumber {
				latest = p
			}
		}
		lastSpeed, lastTime = latest.SpeedWPM, latest.DurationSeconds
	}

	speedDelta := lastSpeed - first.SpeedWPM
	speedPercent := 0.0
	if first.SpeedWPM > 0 {
		speedPercent = speedDelta / first.SpeedWPM * 100
	}

	timeDelta := first.DurationSeconds - lastTime
	timePercent := 0.0
	if first.DurationSeconds > 0 {
		timePercent = timeDelta / first.DurationSeconds * 100
	}

	return Improvement{
		HasData:      true,
		FirstReading: &ReadingPoint{SpeedWPM: first.SpeedWPM, TimeSeconds: first.DurationSeconds},
		LastReading:  &ReadingPoint{SpeedWPM: lastSpeed, TimeSeconds: lastTime},
		Improvement: &ImprovementDelta{
			SpeedIncreaseWPM:     round2(speedDelta),
			SpeedIncreasePercent: round2(speedPercent),
			TimeReductionSeconds: round2(timeDelta),
			TimeReductionPercent: round2(timePercent),
		},
		TotalAttempts: len(practices) + 1,
		PracticeCount: len(practices),
	}
}

// Summary aggregates a user's readings across all stories
type Summary struct {
	HasData               bool    `json:"has_data"`
	Message               string  `json:"message,omitempty"`
	TotalStories          int     `json:"total_stories"`
	TotalPracticeSessions int     `json:"total_practice_sessions"`
	AverageSpeedWPM       float64 `json:"average_speed_wpm"`
	TotalReadingSessions  int     `json:"total_reading_sessions"`
}

// Summarize pools first-reading and practice speeds, each attempt weighted
// equally. Zero speeds carry no signal and are left out of the mean.
func Summarize(firstSpeeds, practiceSpeeds []float64) Summary {
	if len(firstSpeeds) == 0 {
		return Summary{HasData: false, Message: noReadingData}
	}

	var sum float64
	var n int
	for _, speeds := range [][]float64{firstSpeeds, practiceSpeeds} {
		for _, s := range speeds {
			if s > 0 {
				sum += s
				n++
			}
		}
	}

	avg := 0.0
	if n > 0 {
		avg = sum / float64(n)
	}

	return Summary{
		HasData:               true,
		TotalStories:          len(firstSpeeds),
		TotalPracticeSessions: len(practiceSpeeds),
		AverageSpeedWPM:       round2(avg),
		TotalReadingSessions:  len(firstSpeeds) + len(practiceSpeeds),
	}
}

// StoryMilestones are the story counts progress is measured against
var StoryMilestones = []int{1, 5, 10, 25, 50, 100}

// notifyMilestones are the first-reading totals that trigger a progress notification
var notifyMilestones = map[int]bool{5: true, 10: true, 20: true, 50: true, 100: true}

// IsStoryMilestone reports whether reaching total first readings deserves a notification
func IsStoryMilestone(total int) bool {
	return notifyMilestones[total]
}

// MilestoneProgress is the distance to the next story milestone
type MilestoneProgress struct {
	CurrentStories     int     `json:"current_stories"`
	NextMilestone      int     `json:"next_milestone"`
	Remaining          int     `json:"remaining"`
	ProgressPercentage float64 `json:"progress_percentage"`
}

// NextMilestone finds the first milestone above stories, or the last one when all are passed.
func NextMilestone(stories int) MilestoneProgress {
	next := StoryMilestones[len(StoryMilestones)-1]
	for _, m := range StoryMilestones {
		if stories < m {
			next = m
			break
		}
	}

	progress := 100.0
	if next > 0 {
		progress = float64(stories) / float64(next) * 100
	}
	return MilestoneProgress{
		CurrentStories:     stories,
		NextMilestone:      next,
		Remaining:          max(0, next-stories),
		ProgressPercentage: min(100, progress),
	}
}
