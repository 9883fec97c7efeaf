package production_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/factorlab/beltplan-go/internal/domain/gamedata"
	"github.com/factorlab/beltplan-go/internal/domain/production"
)

// flowWorld provides the goods and recipes the flow tests solve over. Rows
// get their solved rate and parameters written directly, the way the solver
// driver would after an accepted solution.
type flowWorld struct {
	db       *gamedata.Database
	ore      *gamedata.Good
	plate    *gamedata.Good
	coal     *gamedata.Good
	water    *gamedata.Good
	normal   *gamedata.Quality
	uncommon *gamedata.Quality
	smelt    *gamedata.Recipe
	wash     *gamedata.Recipe
}

func newFlowWorld(t *testing.T) *flowWorld {
	t.Helper()
	b := gamedata.NewBuilder()
	ore := b.AddGood("iron-ore", &gamedata.Good{PlaceResult: gamedata.NoObject})
	plate := b.AddGood("iron-plate", &gamedata.Good{PlaceResult: gamedata.NoObject})
	coal := b.AddGood("coal", &gamedata.Good{FuelValue: 4, FuelCategory: "chemical", PlaceResult: gamedata.NoObject})
	water := b.AddGood("water", &gamedata.Good{IsFluid: true, PlaceResult: gamedata.NoObject})
	smelt := b.AddRecipe("iron-plate", &gamedata.Recipe{
		Time:         3.2,
		Ingredients:  []gamedata.Ingredient{{Good: ore.ID, Amount: 1}},
		Products:     []gamedata.Product{{Good: plate.ID, Amount: 1}},
		SourceEntity: gamedata.NoObject,
	})
	wash := b.AddRecipe("ore-washing", &gamedata.Recipe{
		Time:         1,
		Ingredients:  []gamedata.Ingredient{{Good: water.ID, Amount: 100}, {Good: ore.ID, Amount: 1}},
		Products:     []gamedata.Product{{Good: plate.ID, Amount: 1}},
		SourceEntity: gamedata.NoObject,
	})
	uncommon := b.AddQuality("uncommon", &gamedata.Quality{Level: 1, Next: gamedata.NoObject, UnlockedBy: gamedata.NoObject})
	normal := b.AddQuality("normal", &gamedata.Quality{Level: 0, UnlockedBy: gamedata.NoObject})
	normal.Next = uncommon.ID
	db, err := b.Build()
	require.NoError(t, err)
	return &flowWorld{
		db: db, ore: ore, plate: plate, coal: coal, water: water,
		normal: normal, uncommon: uncommon, smelt: smelt, wash: wash,
	}
}

func (w *flowWorld) solvedRow(recipe *gamedata.Recipe, rate float64) *production.RecipeRow {
	row := production.NewRecipeRow(recipe, nil)
	row.Params = production.Parameters{RecipeTime: 3.2}
	row.RecipesPerSecond = rate
	return row
}

func TestRecomputeFlow_MatchedLinksAbsorbTheirGood(t *testing.T) {
	// Arrange - one plate per second produced against a one per second link
	w := newFlowWorld(t)
	table := production.NewRootTable()
	table.AddRow(w.solvedRow(w.smelt, 1))
	link, err := table.AddLink(w.plate, w.normal, 1, production.AlgorithmMatch)
	require.NoError(t, err)

	// Act
	table.RecomputeFlow(w.db)

	// Assert - only the unlinked ore deficit remains visible
	require.Len(t, table.Flow, 1)
	assert.Same(t, w.ore, table.Flow[0].Good)
	assert.Same(t, w.normal, table.Flow[0].Quality)
	assert.InDelta(t, -1.0, table.Flow[0].Amount, 1e-9)
	assert.Nil(t, table.Flow[0].Link)
	assert.False(t, link.Flags.Has(production.LinkNotMatched))
	assert.InDelta(t, 1.0, link.LinkFlow, 1e-9)
	assert.InDelta(t, 0.0, link.NotMatchedFlow, 1e-9)
}

func TestRecomputeFlow_UnmatchedResidualsSurfaceWithTheLink(t *testing.T) {
	// Arrange - the link demands twice what the row delivers
	w := newFlowWorld(t)
	table := production.NewRootTable()
	table.AddRow(w.solvedRow(w.smelt, 1))
	link, err := table.AddLink(w.plate, w.normal, 2, production.AlgorithmMatch)
	require.NoError(t, err)

	// Act
	table.RecomputeFlow(w.db)

	// Assert - equal magnitudes order alphabetically
	require.Len(t, table.Flow, 2)
	assert.Same(t, w.ore, table.Flow[0].Good)
	assert.InDelta(t, -1.0, table.Flow[0].Amount, 1e-9)
	assert.Same(t, w.plate, table.Flow[1].Good)
	assert.InDelta(t, -1.0, table.Flow[1].Amount, 1e-9)
	assert.Same(t, link, table.Flow[1].Link)
	assert.True(t, link.Flags.Has(production.LinkNotMatched))
	assert.True(t, link.Flags.Has(production.LinkRecursiveNotMatched))
	assert.InDelta(t, -1.0, link.NotMatchedFlow, 1e-9)
}

func TestRecomputeFlow_ChildResidualsBubbleIntoTheParent(t *testing.T) {
	// Arrange - a nested table keeps half a plate per second for itself
	w := newFlowWorld(t)
	root := production.NewRootTable()
	owner := w.solvedRow(w.smelt, 0)
	root.AddRow(owner)
	sub := owner.AttachSubTable()
	sub.AddRow(w.solvedRow(w.smelt, 1))
	subLink, err := sub.AddLink(w.plate, w.normal, 0.5, production.AlgorithmMatch)
	require.NoError(t, err)
	rootLink, err := root.AddLink(w.plate, w.normal, 0, production.AlgorithmMatch)
	require.NoError(t, err)

	// Act
	root.RecomputeFlow(w.db)

	// Assert - the half plate surplus escapes the child and trips both links
	require.Len(t, root.Flow, 2)
	assert.Same(t, w.plate, root.Flow[0].Good)
	assert.InDelta(t, 0.5, root.Flow[0].Amount, 1e-9)
	assert.Same(t, w.ore, root.Flow[1].Good)
	assert.InDelta(t, -1.0, root.Flow[1].Amount, 1e-9)
	assert.True(t, subLink.Flags.Has(production.LinkNotMatched))
	assert.True(t, rootLink.Flags.Has(production.LinkNotMatched))
	assert.True(t, rootLink.Flags.Has(production.LinkChildNotMatched))
	assert.True(t, rootLink.Flags.Has(production.LinkRecursiveNotMatched))
}

func TestRecomputeFlow_CountsFuelConsumption(t *testing.T) {
	// Arrange - 3.2 buildings burning 0.0225 coal per second each
	w := newFlowWorld(t)
	table := production.NewRootTable()
	row := w.solvedRow(w.smelt, 1)
	row.Params.FuelUsagePerSecond = 0.0225
	row.Fuel = w.coal
	table.AddRow(row)

	// Act
	table.RecomputeFlow(w.db)

	// Assert
	require.Len(t, table.Flow, 3)
	assert.Same(t, w.plate, table.Flow[0].Good)
	assert.InDelta(t, 1.0, table.Flow[0].Amount, 1e-9)
	assert.Same(t, w.coal, table.Flow[1].Good)
	assert.InDelta(t, -0.072, table.Flow[1].Amount, 1e-9)
	assert.Same(t, w.ore, table.Flow[2].Good)
	assert.InDelta(t, -1.0, table.Flow[2].Amount, 1e-9)
}

func TestRecomputeFlow_SkipsDisabledRows(t *testing.T) {
	// Arrange
	w := newFlowWorld(t)
	table := production.NewRootTable()
	row := w.solvedRow(w.smelt, 1)
	row.Enabled = false
	table.AddRow(row)

	// Act
	table.RecomputeFlow(w.db)

	// Assert
	assert.Empty(t, table.Flow)
}

func TestRecomputeFlow_ScalesFluidThroughputForOrdering(t *testing.T) {
	// Arrange - 100 water per second sorts below a one item deficit
	w := newFlowWorld(t)
	table := production.NewRootTable()
	table.AddRow(w.solvedRow(w.wash, 1))

	// Act
	table.RecomputeFlow(w.db)

	// Assert
	require.Len(t, table.Flow, 3)
	assert.Same(t, w.plate, table.Flow[0].Good)
	assert.Same(t, w.ore, table.Flow[1].Good)
	assert.Same(t, w.water, table.Flow[2].Good)
	assert.InDelta(t, -100.0, table.Flow[2].Amount, 1e-9)
}

func TestRecomputeFlow_DecompositionConvertsQualityTiers(t *testing.T) {
	// Arrange - two uncommon plates per second break down into normal ones
	w := newFlowWorld(t)
	table := production.NewRootTable()
	implicit := table.AddImplicitLink(w.plate, w.uncommon)
	implicit.DecompositionRate = 2

	// Act
	table.RecomputeFlow(w.db)

	// Assert - level 1 decomposes 1:2, so 2 per second yield 4 normal
	require.Len(t, table.Flow, 2)
	assert.Same(t, w.plate, table.Flow[0].Good)
	assert.Same(t, w.normal, table.Flow[0].Quality)
	assert.InDelta(t, 4.0, table.Flow[0].Amount, 1e-9)
	assert.Same(t, w.plate, table.Flow[1].Good)
	assert.Same(t, w.uncommon, table.Flow[1].Quality)
	assert.InDelta(t, -2.0, table.Flow[1].Amount, 1e-9)
	assert.InDelta(t, 4.0, implicit.LinkFlow, 1e-9)
}

func TestResetSolution_ClearsTheWholeSubtree(t *testing.T) {
	// Arrange - leave unmatched solve state behind, then wipe it
	w := newFlowWorld(t)
	table := production.NewRootTable()
	row := w.solvedRow(w.smelt, 1)
	table.AddRow(row)
	link, err := table.AddLink(w.plate, w.normal, 2, production.AlgorithmMatch)
	require.NoError(t, err)
	table.RecomputeFlow(w.db)
	require.True(t, link.Flags.Has(production.LinkNotMatched))

	// Act
	table.ResetSolution()

	// Assert
	assert.Zero(t, link.Flags)
	assert.InDelta(t, 0.0, link.NotMatchedFlow, 1e-9)
	assert.InDelta(t, 0.0, row.RecipesPerSecond, 1e-9)
	assert.Nil(t, table.Flow)
}
