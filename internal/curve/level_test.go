package curve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/BrandishProgression_Go/internal/domain"
)

func TestLevelOf(t *testing.T) {
	c, err := NewLevelCurve([]int64{0, 100, 300, 700})
	require.NoError(t, err)

	tests := []struct {
		name     string
		xp       int64
		level    int
		floor    int64
		next     *int64
		progress int
	}{
		{"zero", 0, 1, 0, ptr(100), 0},
		{"negative treated as zero", -20, 1, 0, ptr(100), 0},
		{"just below level 2", 99, 1, 0, ptr(100), 99},
		{"exactly level 2", 100, 2, 100, ptr(300), 0},
		{"midway level 2", 250, 2, 100, ptr(300), 75},
		{"level 3", 301, 3, 300, ptr(700), 0},
		{"final level boundary", 700, 4, 700, nil, 100},
		{"beyond final level", 10_000, 4, 700, nil, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := c.LevelOf(tt.xp)
			assert.Equal(t, tt.level, info.Level)
			assert.Equal(t, tt.floor, info.CurrentLevelFloor)
			assert.Equal(t, tt.next, info.XPForNextLevel)
			assert.Equal(t, tt.progress, info.ProgressPercentage)
		})
	}
}

func TestLevelOf_MonotonicAndBounded(t *testing.T) {
	c, err := NewLevelCurve(DefaultLevelThresholds(DefaultMaxLevel))
	require.NoError(t, err)

	prev := 0
	for xp := int64(0); xp <= c.XPForLevel(c.MaxLevel())+500; xp += 37 {
		info := c.LevelOf(xp)
		assert.GreaterOrEqual(t, info.Level, prev, "level decreased at xp=%d", xp)
		assert.GreaterOrEqual(t, info.ProgressPercentage, 0)
		assert.LessOrEqual(t, info.ProgressPercentage, 100)
		prev = info.Level
	}
	assert.Equal(t, DefaultMaxLevel, prev)
}

func TestNewLevelCurve_RejectsBadTables(t *testing.T) {
	tests := []struct {
		name  string
		table []int64
	}{
		{"empty", nil},
		{"does not start at zero", []int64{10, 100}},
		{"not increasing", []int64{0, 100, 100}},
		{"decreasing", []int64{0, 300, 200}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLevelCurve(tt.table)
			assert.ErrorIs(t, err, domain.ErrInvalidCurve)
		})
	}
}

func TestDefaultLevelThresholds(t *testing.T) {
	table := DefaultLevelThresholds(4)
	// 100*1^1.5, +100*2^1.5, +100*3^1.5
	assert.Equal(t, []int64{0, 100, 382, 901}, table)

	_, err := NewLevelCurve(table)
	assert.NoError(t, err)
}

func TestXPForLevel(t *testing.T) {
	c, err := NewLevelCurve([]int64{0, 100, 300, 700})
	require.NoError(t, err)

	assert.Equal(t, int64(0), c.XPForLevel(0))
	assert.Equal(t, int64(0), c.XPForLevel(1))
	assert.Equal(t, int64(300), c.XPForLevel(3))
	assert.Equal(t, int64(700), c.XPForLevel(99))
}

func ptr(v int64) *int64 { return &v }
