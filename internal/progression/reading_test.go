package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadingSpeed(t *testing.T) {
	tests := []struct {
		name    string
		words   int
		seconds float64
		want    float64
	}{
		{"one minute", 120, 60, 120},
		{"forty seconds", 120, 40, 180},
		{"rounded to two decimals", 100, 70, 85.71},
		{"zero duration", 120, 0, 0},
		{"negative duration", 120, -5, 0},
		{"no words", 0, 30, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReadingSpeed(tt.words, tt.seconds))
		})
	}
}

func TestReadingSpeedMonotonic(t *testing.T) {
	for words := 0; words < 500; words += 25 {
		assert.LessOrEqual(t, ReadingSpeed(words, 60), ReadingSpeed(words+25, 60))
	}
	for secs := 10.0; secs < 600; secs += 10 {
		assert.GreaterOrEqual(t, ReadingSpeed(300, secs), ReadingSpeed(300, secs+10))
	}
}

func TestCountWords(t *testing.T) {
	assert.Equal(t, 0, CountWords(""))
	assert.Equal(t, 0, CountWords("   \n\t "))
	assert.Equal(t, 4, CountWords("  Bir  varmış\nbir yokmuş "))
}

func TestCalculateImprovementNoData(t *testing.T) {
	got := CalculateImprovement(nil, nil)
	assert.False(t, got.HasData)
	assert.NotEmpty(t, got.Message)
	assert.Nil(t, got.Improvement)
}

func TestCalculateImprovementFirstOnly(t *testing.T) {
	got := CalculateImprovement(&Attempt{DurationSeconds: 60, SpeedWPM: 120}, nil)

	require.True(t, got.HasData)
	assert.Equal(t, 1, got.TotalAttempts)
	assert.Equal(t, 0, got.PracticeCount)
	assert.Equal(t, ImprovementDelta{}, *got.Improvement)
	assert.Equal(t, *got.FirstReading, *got.LastReading)
}

func TestCalculateImprovementEndToEnd(t *testing.T) {
	first := &Attempt{DurationSeconds: 60, SpeedWPM: ReadingSpeed(120, 60)}
	practice := Attempt{AttemptNumber: 1, DurationSeconds: 40, SpeedWPM: ReadingSpeed(120, 40)}

	got := CalculateImprovement(first, []Attempt{practice})

	require.True(t, got.HasData)
	assert.Equal(t, 60.0, got.Improvement.SpeedIncreaseWPM)
	assert.Equal(t, 50.0, got.Improvement.SpeedIncreasePercent)
	assert.Equal(t, 20.0, got.Improvement.TimeReductionSeconds)
	assert.Equal(t, 33.33, got.Improvement.TimeReductionPercent)
	assert.Equal(t, 2, got.TotalAttempts)
}

func TestCalculateImprovementUsesHighestAttempt(t *testing.T) {
	first := &Attempt{DurationSeconds: 60, SpeedWPM: 100}
	practices := []Attempt{
		{AttemptNumber: 3, DurationSeconds: 30, SpeedWPM: 200},
		{AttemptNumber: 1, DurationSeconds: 50, SpeedWPM: 120},
		{AttemptNumber: 2, DurationSeconds: 40, SpeedWPM: 150},
	}

	got := CalculateImprovement(first, practices)
	assert.Equal(t, 200.0, got.LastReading.SpeedWPM)
	assert.Equal(t, 100.0, got.Improvement.SpeedIncreasePercent)
	assert.Equal(t, 4, got.TotalAttempts)
}

func TestCalculateImprovementZeroFirstSpeed(t *testing.T) {
	got := CalculateImprovement(&Attempt{DurationSeconds: 0, SpeedWPM: 0}, []Attempt{{AttemptNumber: 1, DurationSeconds: 30, SpeedWPM: 90}})
	assert.Equal(t, 90.0, got.Improvement.SpeedIncreaseWPM)
	assert.Equal(t, 0.0, got.Improvement.SpeedIncreasePercent)
	assert.Equal(t, 0.0, got.Improvement.TimeReductionPercent)
}

func TestSummarize(t *testing.T) {
	t.Run("no data", func(t *testing.T) {
		got := Summarize(nil, []float64{100})
		assert.False(t, got.HasData)
		assert.Equal(t, 0, got.TotalStories)
	})

	t.Run("pooled mean", func(t *testing.T) {
		// story A: first 100, practices 140 and 160; story B: first 120
		got := Summarize([]float64{100, 120}, []float64{140, 160})
		assert.True(t, got.HasData)
		assert.Equal(t, 2, got.TotalStories)
		assert.Equal(t, 2, got.TotalPracticeSessions)
		assert.Equal(t, 130.0, got.AverageSpeedWPM)
		assert.Equal(t, 4, got.TotalReadingSessions)
	})

	t.Run("zero speeds ignored", func(t *testing.T) {
		got := Summarize([]float64{0, 90}, nil)
		assert.Equal(t, 90.0, got.AverageSpeedWPM)
	})
}

func TestNextMilestone(t *testing.T) {
	tests := []struct {
		stories int
		want    MilestoneProgress
	}{
		{0, MilestoneProgress{CurrentStories: 0, NextMilestone: 1, Remaining: 1, ProgressPercentage: 0}},
		{3, MilestoneProgress{CurrentStories: 3, NextMilestone: 5, Remaining: 2, ProgressPercentage: 60}},
		{5, MilestoneProgress{CurrentStories: 5, NextMilestone: 10, Remaining: 5, ProgressPercentage: 50}},
		{150, MilestoneProgress{CurrentStories: 150, NextMilestone: 100, Remaining: 0, ProgressPercentage: 100}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NextMilestone(tt.stories))
	}
}

func TestIsStoryMilestone(t *testing.T) {
	for _, n := range []int{5, 10, 20, 50, 100} {
		assert.True(t, IsStoryMilestone(n), "total %d", n)
	}
	for _, n := range []int{1, 4, 25, 99} {
		assert.False(t, IsStoryMilestone(n), "total %d", n)
	}
}

func TestRound1(t *testing.T) {
	assert.Equal(t, 123.5, Round1(123.456))
}
