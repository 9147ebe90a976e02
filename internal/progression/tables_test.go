package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelForXP(t *testing.T) {
	tables := DefaultTables()

	tests := []struct {
		name string
		xp   int
		want int
	}{
		{"zero xp", 0, 1},
		{"just below level 2", 99, 1},
		{"exactly level 2", 100, 2},
		{"middle of level 3", 300, 3},
		{"level 9", 9999, 9},
		{"max level", 10000, 10},
		{"beyond table", 50000, 10},
		{"negative clamps to 1", -5, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tables.LevelForXP(tt.xp))
		})
	}
}

func TestLevelForXPMonotonic(t *testing.T) {
	tables := DefaultTables()
	prev := tables.LevelForXP(0)
	for xp := 1; xp <= 12000; xp += 7 {
		level := tables.LevelForXP(xp)
		require.GreaterOrEqual(t, level, prev, "level dropped at xp=%d", xp)
		require.LessOrEqual(t, level, tables.MaxLevel())
		prev = level
	}
}

func TestNextLevel(t *testing.T) {
	tables := DefaultTables()

	tests := []struct {
		name  string
		xp    int
		level int
		want  LevelProgress
	}{
		{"start of level 1", 0, 1, LevelProgress{Current: 0, Needed: 100, Progress: 0}},
		{"half of level 1", 50, 1, LevelProgress{Current: 50, Needed: 100, Progress: 50}},
		{"inside level 4", 750, 4, LevelProgress{Current: 250, Needed: 500, Progress: 50}},
		{"max level", 12000, 10, LevelProgress{Current: 12000, Needed: 0, Progress: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tables.NextLevel(tt.xp, tt.level))
		})
	}
}

func TestNextLevelZeroWidthBand(t *testing.T) {
	tables := Tables{LevelThresholds: []int{0, 100, 100, 200}}

	got := tables.NextLevel(100, 2)
	assert.Equal(t, 0, got.Needed)
	assert.Equal(t, 100.0, got.Progress)
}

func TestNextLevelCapsProgress(t *testing.T) {
	tables := DefaultTables()

	// a stale stored level must not report more than 100%
	got := tables.NextLevel(400, 1)
	assert.Equal(t, 100.0, got.Progress)
}

func TestXPFor(t *testing.T) {
	tables := DefaultTables()

	xp, err := tables.XPFor(ActionStoryRead)
	require.NoError(t, err)
	assert.Equal(t, 10, xp)

	_, err = tables.XPFor(Action("dance"))
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestAlternateTables(t *testing.T) {
	tables := Tables{
		XPValues:        map[Action]int{"read": 1},
		LevelThresholds: []int{0, 10},
	}

	assert.Equal(t, 1, tables.LevelForXP(9))
	assert.Equal(t, 2, tables.LevelForXP(10))
	assert.Equal(t, 2, tables.MaxLevel())
	assert.Equal(t, []Action{"read"}, tables.Actions())
}

func TestLevelName(t *testing.T) {
	assert.Equal(t, "Çırak", LevelName(1))
	assert.Equal(t, "Efsanevi Okur", LevelName(10))
	assert.Equal(t, "Seviye 11", LevelName(11))
}
