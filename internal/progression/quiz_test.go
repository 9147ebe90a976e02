package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreQuiz(t *testing.T) {
	key := []string{"A", "B", "C", "D"}

	tests := []struct {
		name    string
		key     []string
		choices []string
		want    QuizScore
		reward  Action
	}{
		{"all right", key, []string{"A", "B", "C", "D"}, QuizScore{Graded: 4, Correct: 4, Passed: true, Perfect: true}, ActionPerfectScore},
		{"half right passes", key, []string{"A", "B", "A", "A"}, QuizScore{Graded: 4, Correct: 2, Passed: true}, ActionQuizPassed},
		{"one right fails", key, []string{"A", "C", "A", "A"}, QuizScore{Graded: 4, Correct: 1}, ""},
		{"blank choices are wrong", key, []string{"A", "", "", ""}, QuizScore{Graded: 4, Correct: 1}, ""},
		{"short sheet", key, []string{"A", "B"}, QuizScore{Graded: 4, Correct: 2, Passed: true}, ActionQuizPassed},
		{"only the first four graded", []string{"A", "B", "C", "D", "A"}, []string{"A", "B", "C", "D", "B"}, QuizScore{Graded: 4, Correct: 4, Passed: true, Perfect: true}, ActionPerfectScore},
		{"no questions", nil, []string{"A"}, QuizScore{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreQuiz(tt.key, tt.choices, 4)
			assert.Equal(t, tt.want, got)
			action, ok := got.Reward()
			assert.Equal(t, tt.reward, action)
			assert.Equal(t, tt.reward != "", ok)
		})
	}
}
