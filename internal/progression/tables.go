// Package progression holds the pure gamification math: XP and level tables,
// the daily streak transition, badge criteria and reading-speed metrics.
package progression

import (
	"errors"
	"fmt"
	"sort"
)

// Action names something a user did that is worth XP
type Action string

const (
	ActionStoryRead        Action = "story_read"
	ActionPracticeComplete Action = "practice_complete"
	ActionQuizPassed       Action = "quiz_passed"
	ActionPerfectScore     Action = "perfect_score"
	ActionDailyLogin       Action = "daily_login"
	ActionStreakBonus3     Action = "streak_bonus_3"
	ActionStreakBonus7     Action = "streak_bonus_7"
	ActionStreakBonus30    Action = "streak_bonus_30"
	ActionBadgeEarned      Action = "badge_earned"
	ActionSpeedImprovement Action = "speed_improvement"
)

// ErrUnknownAction is returned for an action missing from the XP table
var ErrUnknownAction = errors.New("unknown xp action")

// Tables is the static configuration the engine runs on.
type Tables struct {
	// XPValues maps an action to the XP it awards
	XPValues map[Action]int
	// LevelThresholds[i] is the total XP at which level i+1 starts
	LevelThresholds []int
	// StreakBonuses maps an exact streak length to its one-time bonus action
	StreakBonuses map[int]Action
}

// DefaultTables returns the production XP, level and streak bonus tables.
func DefaultTables() Tables {
	return Tables{
		XPValues: map[Action]int{
			ActionStoryRead:        10,
			ActionPracticeComplete: 5,
			ActionQuizPassed:       15,
			ActionPerfectScore:     25,
			ActionDailyLogin:       5,
			ActionStreakBonus3:     10,
			ActionStreakBonus7:     25,
			ActionStreakBonus30:    100,
			ActionBadgeEarned:      20,
			ActionSpeedImprovement: 15,
		},
		LevelThresholds: []int{0, 100, 250, 500, 1000, 2000, 3500, 5000, 7500, 10000},
		StreakBonuses: map[int]Action{
			3:  ActionStreakBonus3,
			7:  ActionStreakBonus7,
			30: ActionStreakBonus30,
		},
	}
}

// XPFor returns the XP awarded for action.
func (t Tables) XPFor(action Action) (int, error) {
	xp, ok := t.XPValues[action]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	return xp, nil
}

// Actions lists the configured actions in name order.
func (t Tables) Actions() []Action {
	actions := make([]Action, 0, len(t.XPValues))
	for a := range t.XPValues {
		actions = append(actions, a)
	}
	sort.Slice(actions, func(i, j int) bool { return actions[i] < actions[j] })
	return actions
}

// MaxLevel is the highest level the thresholds define
func (t Tables) MaxLevel() int {
	return len(t.LevelThresholds)
}

// LevelForXP returns the index of the first threshold above xp, or MaxLevel
// when xp reaches the last one. The result is never below 1.
func (t Tables) LevelForXP(xp int) int {
	for i, threshold := range t.LevelThresholds {
		if xp < threshold {
			return max(i, 1)
		}
	}
	return max(len(t.LevelThresholds), 1)
}

// LevelProgress describes how far a user is through their current level band
type LevelProgress struct {
	Current  int     `json:"current"`
	Needed   int     `json:"needed"`
	Progress float64 `json:"progress"`
}

// NextLevel reports XP earned inside the current level, the band width and the
// percentage done. At max level the band is reported as complete.
func (t Tables) NextLevel(xp, level int) LevelProgress {
	if level >= t.MaxLevel() {
		return LevelProgress{Current: xp, Needed: 0, Progress: 100}
	}
	if level < 1 {
		level = 1
	}

	currentThreshold := 0
	if level > 1 {
		currentThreshold = t.LevelThresholds[level-1]
	}
	nextThreshold := t.LevelThresholds[level]

	inLevel := xp - currentThreshold
	needed := nextThreshold - currentThreshold

	progress := 100.0
	if needed > 0 {
		progress = float64(inLevel) / float64(needed) * 100
	}
	return LevelProgress{Current: inLevel, Needed: needed, Progress: min(progress, 100)}
}

var levelNames = map[int]string{
	1:  "Çırak",
	2:  "Okur",
	3:  "Hikayeci",
	4:  "Kitap Kurdu",
	5:  "Usta Okur",
	6:  "Bilge",
	7:  "Efsane",
	8:  "Şampiyon",
	9:  "Kahraman",
	10: "Efsanevi Okur",
}

// LevelName returns the display name of a level
func LevelName(level int) string {
	if name, ok := levelNames[level]; ok {
		return name
	}
	return fmt.Sprintf("Seviye %d", level)
}
