package curve

import (
	"fmt"
	"math"
	"sort"

	"github.com/osse101/BrandishProgression_Go/internal/domain"
)

// LevelInfo is the derived level state for an XP total
type LevelInfo struct {
	Level              int
	CurrentLevelFloor  int64
	XPForNextLevel     *int64 // nil at the final defined level
	ProgressPercentage int
}

// LevelCurve maps accumulated XP to a level. thresholds[i] is the XP
// required to reach level i+1, so thresholds[0] is always 0.
type LevelCurve struct {
	thresholds []int64
}

// NewLevelCurve validates the table and builds a curve. A table that does not
// start at 0 or is not strictly increasing is a fatal configuration error.
func NewLevelCurve(thresholds []int64) (*LevelCurve, error) {
	if len(thresholds) == 0 {
		return nil, fmt.Errorf("%w: level table is empty", domain.ErrInvalidCurve)
	}
	if thresholds[0] != 0 {
		return nil, fmt.Errorf("%w: level 1 must start at 0 XP, got %d", domain.ErrInvalidCurve, thresholds[0])
	}
	for i := 1; i < len(thresholds); i++ {
		if thresholds[i] <= thresholds[i-1] {
			return nil, fmt.Errorf("%w: level %d threshold %d is not above level %d threshold %d",
				domain.ErrInvalidCurve, i+1, thresholds[i], i, thresholds[i-1])
		}
	}

	table := make([]int64, len(thresholds))
	copy(table, thresholds)
	return &LevelCurve{thresholds: table}, nil
}

// DefaultLevelThresholds generates a cumulative table from the
// BaseXP * N^LevelExponent formula
func DefaultLevelThresholds(maxLevel int) []int64 {
	if maxLevel < 1 {
		maxLevel = 1
	}
	thresholds := make([]int64, maxLevel)
	cumulative := int64(0)
	for level := 1; level < maxLevel; level++ {
		cumulative += int64(BaseXP * math.Pow(float64(level), LevelExponent))
		thresholds[level] = cumulative
	}
	return thresholds
}

// MaxLevel returns the final defined level
func (c *LevelCurve) MaxLevel() int {
	return len(c.thresholds)
}

// XPForLevel returns the XP required to reach level, clamped to the table
func (c *LevelCurve) XPForLevel(level int) int64 {
	if level <= 1 {
		return 0
	}
	if level > len(c.thresholds) {
		level = len(c.thresholds)
	}
	return c.thresholds[level-1]
}

// LevelOf computes level, floor, next threshold and progress for totalXP.
// Negative totals are treated as 0.
func (c *LevelCurve) LevelOf(totalXP int64) LevelInfo {
	if totalXP < 0 {
		totalXP = 0
	}

	// first index whose threshold exceeds totalXP; the level is that index
	idx := sort.Search(len(c.thresholds), func(i int) bool {
		return c.thresholds[i] > totalXP
	})
	level := idx
	floor := c.thresholds[level-1]

	if level == len(c.thresholds) {
		return LevelInfo{
			Level:              level,
			CurrentLevelFloor:  floor,
			ProgressPercentage: PercentScale,
		}
	}

	next := c.thresholds[level]
	pct := int(PercentScale * (totalXP - floor) / (next - floor))
	return LevelInfo{
		Level:              level,
		CurrentLevelFloor:  floor,
		XPForNextLevel:     &next,
		ProgressPercentage: clampPercent(pct),
	}
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > PercentScale {
		return PercentScale
	}
	return p
}
