package progression

import "time"

// StreakState is the part of a streak record the daily transition reads and writes
type StreakState struct {
	Current      int
	Longest      int
	LastActivity *time.Time
}

// TransitionKind names which row of the streak table applied
type TransitionKind int

const (
	StreakStarted TransitionKind = iota
	StreakUnchanged
	StreakExtended
	StreakReset
)

func (k TransitionKind) String() string {
	switch k {
	case StreakStarted:
		return "started"
	case StreakUnchanged:
		return "unchanged"
	case StreakExtended:
		return "extended"
	case StreakReset:
		return "reset"
	default:
		return "unknown"
	}
}

// Transition is the outcome of one activity against the streak
type Transition struct {
	Kind TransitionKind
	// Bonus is set when the extended streak hit a bonus length exactly
	Bonus Action
	// Lost is the streak length that a reset discarded
	Lost int
}

// Day truncates t to its calendar date in t's own location.
// The result is carried as midnight UTC so day arithmetic ignores DST.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AdvanceStreak applies one activity happening at now.
func (t Tables) AdvanceStreak(s StreakState, now time.Time) (StreakState, Transition) {
	today := Day(now)

	if s.LastActivity == nil {
		return StreakState{Current: 1, Longest: max(s.Longest, 1), LastActivity: &today}, Transition{Kind: StreakStarted}
	}

	last := Day(*s.LastActivity)
	switch {
	case last.Equal(today):
		return s, Transition{Kind: StreakUnchanged}

	case last.Equal(today.AddDate(0, 0, -1)):
		next := StreakState{Current: s.Current + 1, Longest: s.Longest, LastActivity: &today}
		if next.Current > next.Longest {
			next.Longest = next.Current
		}
		return next, Transition{Kind: StreakExtended, Bonus: t.StreakBonuses[next.Current]}

	default:
		return StreakState{Current: 1, Longest: s.Longest, LastActivity: &today}, Transition{Kind: StreakReset, Lost: s.Current}
	}
}
