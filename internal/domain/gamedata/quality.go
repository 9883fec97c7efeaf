package gamedata

// StandardBonusPerLevel is the multiplicative stat bonus granted per quality
// level to properties that scale with quality.
const StandardBonusPerLevel = 0.3

// Quality is one tier in the quality ladder. The normal tier has level 0;
// tiers form a successor chain via Next.
type Quality struct {
	ObjectInfo

	Level int

	// Next is the next higher quality tier, or NoObject at the top.
	Next ObjectID

	// UnlockedBy is the technology enabling this tier, or NoObject for
	// tiers available from the start.
	UnlockedBy ObjectID
}

// StandardBonus is the fractional stat bonus of this tier.
func (q *Quality) StandardBonus() float64 {
	return StandardBonusPerLevel * float64(q.Level)
}

// ApplyStandardBonus scales a base value by the tier bonus.
func (q *Quality) ApplyStandardBonus(value float64) float64 {
	return value * (1 + q.StandardBonus())
}

// IsNormal reports whether this is the level-0 tier.
func (q *Quality) IsNormal() bool { return q.Level == 0 }
