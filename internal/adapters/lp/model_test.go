package lp_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/factorlab/beltplan-go/internal/adapters/lp"
)

func TestModel_MinimizesCostSubjectToLowerBound(t *testing.T) {
	// Arrange
	m := lp.NewModel()
	x := m.AddVariable("x", 0, math.Inf(1), 2)
	y := m.AddVariable("y", 0, math.Inf(1), 3)
	c := m.AddConstraint("demand", 10, math.Inf(1))
	m.SetCoefficient(c, x, 1)
	m.SetCoefficient(c, y, 1)

	// Act
	sol, err := m.Solve()

	// Assert
	require.NoError(t, err)
	require.Equal(t, lp.StatusOptimal, sol.Status)
	assert.InDelta(t, 10, sol.VarValue(x), 1e-6)
	assert.InDelta(t, 0, sol.VarValue(y), 1e-6)
	assert.InDelta(t, 20, sol.Objective, 1e-6)
	assert.InDelta(t, 10, sol.Activity(c), 1e-6)
}

func TestModel_EqualityConstraint(t *testing.T) {
	// Arrange
	m := lp.NewModel()
	x := m.AddVariable("x", 0, math.Inf(1), 1)
	c := m.AddConstraint("exact", 4, 4)
	m.SetCoefficient(c, x, 2)

	// Act
	sol, err := m.Solve()

	// Assert
	require.NoError(t, err)
	require.Equal(t, lp.StatusOptimal, sol.Status)
	assert.InDelta(t, 2, sol.VarValue(x), 1e-6)
}

func TestModel_PinnedVariableFeedsConstraints(t *testing.T) {
	// Arrange - x is pinned, y has to make up the rest of the equality
	m := lp.NewModel()
	x := m.AddVariable("x", 3, 3, 1)
	y := m.AddVariable("y", 0, math.Inf(1), 1)
	c := m.AddConstraint("sum", 5, 5)
	m.SetCoefficient(c, x, 1)
	m.SetCoefficient(c, y, 1)

	// Act
	sol, err := m.Solve()

	// Assert
	require.NoError(t, err)
	require.Equal(t, lp.StatusOptimal, sol.Status)
	assert.InDelta(t, 3, sol.VarValue(x), 1e-6)
	assert.InDelta(t, 2, sol.VarValue(y), 1e-6)
	assert.InDelta(t, 5, sol.Activity(c), 1e-6)
}

func TestModel_UpperBoundedVariable(t *testing.T) {
	// Arrange - cheapest variable is capped, overflow goes to the expensive one
	m := lp.NewModel()
	x := m.AddVariable("cheap", 0, 4, 1)
	y := m.AddVariable("dear", 0, math.Inf(1), 10)
	c := m.AddConstraint("demand", 6, math.Inf(1))
	m.SetCoefficient(c, x, 1)
	m.SetCoefficient(c, y, 1)

	// Act
	sol, err := m.Solve()

	// Assert
	require.NoError(t, err)
	require.Equal(t, lp.StatusOptimal, sol.Status)
	assert.InDelta(t, 4, sol.VarValue(x), 1e-6)
	assert.InDelta(t, 2, sol.VarValue(y), 1e-6)
}

func TestModel_NegativeRangeConstraint(t *testing.T) {
	// Arrange - net flow may be anything up to the cap
	m := lp.NewModel()
	x := m.AddVariable("x", 0, math.Inf(1), -1)
	c := m.AddConstraint("cap", math.Inf(-1), 7)
	m.SetCoefficient(c, x, 1)

	// Act
	sol, err := m.Solve()

	// Assert
	require.NoError(t, err)
	require.Equal(t, lp.StatusOptimal, sol.Status)
	assert.InDelta(t, 7, sol.VarValue(x), 1e-6)
}

func TestModel_InfeasibleReportedWithoutError(t *testing.T) {
	// Arrange - x >= 5 clashes with x <= 2
	m := lp.NewModel()
	x := m.AddVariable("x", 0, 2, 1)
	c := m.AddConstraint("demand", 5, math.Inf(1))
	m.SetCoefficient(c, x, 1)

	// Act
	sol, err := m.Solve()

	// Assert
	require.NoError(t, err)
	assert.Equal(t, lp.StatusInfeasible, sol.Status)
	assert.False(t, sol.Feasible())
}

func TestModel_UnboundedObjective(t *testing.T) {
	// Arrange - rewarding production without any cap
	m := lp.NewModel()
	x := m.AddVariable("x", 0, math.Inf(1), -1)
	c := m.AddConstraint("floor", 1, math.Inf(1))
	m.SetCoefficient(c, x, 1)

	// Act
	sol, err := m.Solve()

	// Assert
	require.NoError(t, err)
	assert.Equal(t, lp.StatusUnbounded, sol.Status)
}

func TestModel_FixedVariablesOnlyInfeasibleEquality(t *testing.T) {
	// Arrange - both variables are pinned and the equality cannot hold
	m := lp.NewModel()
	x := m.AddVariable("x", 1, 1, 0)
	y := m.AddVariable("y", 2, 2, 0)
	c := m.AddConstraint("sum", 10, 10)
	m.SetCoefficient(c, x, 1)
	m.SetCoefficient(c, y, 1)

	// Act
	sol, err := m.Solve()

	// Assert
	require.NoError(t, err)
	assert.Equal(t, lp.StatusInfeasible, sol.Status)
}

func TestModel_EmptyModelSolvesTrivially(t *testing.T) {
	// Arrange
	m := lp.NewModel()
	x := m.AddVariable("x", 2, 2, 3)

	// Act
	sol, err := m.Solve()

	// Assert
	require.NoError(t, err)
	require.Equal(t, lp.StatusOptimal, sol.Status)
	assert.InDelta(t, 2, sol.VarValue(x), 1e-9)
	assert.InDelta(t, 6, sol.Objective, 1e-9)
}

func TestModel_CoefficientsAccumulate(t *testing.T) {
	// Arrange - the same variable contributes twice to one constraint
	m := lp.NewModel()
	x := m.AddVariable("x", 0, math.Inf(1), 1)
	c := m.AddConstraint("net", 6, 6)
	m.SetCoefficient(c, x, 5)
	m.SetCoefficient(c, x, -2)

	// Act
	sol, err := m.Solve()

	// Assert
	require.NoError(t, err)
	require.Equal(t, lp.StatusOptimal, sol.Status)
	assert.InDelta(t, 2, sol.VarValue(x), 1e-6)
}
