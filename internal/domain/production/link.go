package production

import (
	"github.com/factorlab/beltplan-go/internal/domain/gamedata"
)

// LinkAlgorithm selects how a link's balance constraint is bounded.
type LinkAlgorithm uint8

const (
	// AlgorithmMatch requires net production to equal the amount exactly.
	AlgorithmMatch LinkAlgorithm = iota
	// AlgorithmAllowOverProduction lets net production exceed the amount.
	AlgorithmAllowOverProduction
	// AlgorithmAllowOverConsumption lets net production fall short of the
	// amount.
	AlgorithmAllowOverConsumption
)

func (a LinkAlgorithm) String() string {
	switch a {
	case AlgorithmAllowOverProduction:
		return "over-production"
	case AlgorithmAllowOverConsumption:
		return "over-consumption"
	}
	return "match"
}

// ParseLinkAlgorithm maps an algorithm name back to its value. Unknown
// names fall back to AlgorithmMatch.
func ParseLinkAlgorithm(s string) LinkAlgorithm {
	switch s {
	case "over-production":
		return AlgorithmAllowOverProduction
	case "over-consumption":
		return AlgorithmAllowOverConsumption
	}
	return AlgorithmMatch
}

// linkKey identifies the (good, quality) pair a link balances. Object
// pointers are unique per database, so pointer identity is id identity.
type linkKey struct {
	good    *gamedata.Good
	quality *gamedata.Quality
}

// ProductionLink is a user-declared balance constraint on one (good,
// quality) pair: the net production across the rows in its scope must meet
// Amount under the chosen algorithm. Each link belongs to exactly one table.
type ProductionLink struct {
	owner *ProductionTable

	Good    *gamedata.Good
	Quality *gamedata.Quality
	Amount  float64

	Algorithm LinkAlgorithm

	// Solve state, fully recomputed every pass.
	Flags LinkFlags

	// LinkFlow is the production captured by the link during the last
	// solve. Implicit decomposition links record the normal-quality
	// equivalent instead, so flows stay comparable across tiers.
	LinkFlow float64

	// NotMatchedFlow is the residual between achieved net production and
	// Amount when the link went unmatched.
	NotMatchedFlow float64

	// CapturedRecipes lists the rows that produced into or consumed from
	// this link during the last solve, in compile order.
	CapturedRecipes []*RecipeRow

	// DecompositionRate is the solved rate of the synthetic conversion row
	// attached to an implicit link, in higher-quality units per second.
	DecompositionRate float64

	// implicit links are created internally for quality-science
	// decomposition and live for a single solve pass.
	implicit bool
}

// Owner returns the table the link belongs to.
func (l *ProductionLink) Owner() *ProductionTable { return l.owner }

// IsImplicit reports whether the link was synthesized for quality-science
// decomposition rather than created by the user.
func (l *ProductionLink) IsImplicit() bool { return l.implicit }

func (l *ProductionLink) key() linkKey {
	return linkKey{good: l.Good, quality: l.Quality}
}

// ResetSolution clears all per-solve state.
func (l *ProductionLink) ResetSolution() {
	l.Flags = 0
	l.LinkFlow = 0
	l.NotMatchedFlow = 0
	l.DecompositionRate = 0
	l.CapturedRecipes = l.CapturedRecipes[:0]
}
