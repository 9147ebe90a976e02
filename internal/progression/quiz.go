package progression

// QuizScore grades one answer sheet against a story's answer key
type QuizScore struct {
	Graded  int  `json:"graded"`
	Correct int  `json:"correct"`
	Passed  bool `json:"passed"`
	Perfect bool `json:"perfect"`
}

// ScoreQuiz compares choices with key position by position. Only the first
// limit keys are graded and blank choices count as wrong. A sheet passes with
// at least half of the graded questions right; with nothing to grade it neither
// passes nor is perfect.
func ScoreQuiz(key, choices []string, limit int) QuizScore {
	graded := min(len(key), limit)
	score := QuizScore{Graded: graded}
	for i := 0; i < graded && i < len(choices); i++ {
		if choices[i] != "" && choices[i] == key[i] {
			score.Correct++
		}
	}
	if graded > 0 {
		score.Passed = score.Correct*2 >= graded
		score.Perfect = score.Correct == graded
	}
	return score
}

// Reward returns the XP action the score earns. A perfect sheet earns
// perfect_score instead of quiz_passed.
func (q QuizScore) Reward() (Action, bool) {
	switch {
	case q.Perfect:
		return ActionPerfectScore, true
	case q.Passed:
		return ActionQuizPassed, true
	}
	return "", false
}
