package curve

// Default level formula: XP to advance from level N to N+1 = BaseXP * (N ^ LevelExponent)
const (
	// BaseXP is the base XP value used in level calculations
	BaseXP = 100.0

	// LevelExponent is the exponent used in the XP formula
	LevelExponent = 1.5

	// DefaultMaxLevel is the number of levels in the generated default table
	DefaultMaxLevel = 50
)

// Default loyalty tiers
const (
	TierBronze   = "BRONZE"
	TierSilver   = "SILVER"
	TierGold     = "GOLD"
	TierPlatinum = "PLATINUM"
)

// PercentScale is the upper bound of progress and discount percentages
const PercentScale = 100
