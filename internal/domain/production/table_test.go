package production_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/factorlab/beltplan-go/internal/domain/gamedata"
	"github.com/factorlab/beltplan-go/internal/domain/production"
)

// linkWorld registers the handful of goods and qualities the table tests
// link against.
type linkWorld struct {
	db     *gamedata.Database
	plate  *gamedata.Good
	ore    *gamedata.Good
	normal *gamedata.Quality
	rare   *gamedata.Quality
}

func newLinkWorld(t *testing.T) *linkWorld {
	t.Helper()
	b := gamedata.NewBuilder()
	plate := b.AddGood("iron-plate", &gamedata.Good{PlaceResult: gamedata.NoObject})
	ore := b.AddGood("iron-ore", &gamedata.Good{PlaceResult: gamedata.NoObject})
	rare := b.AddQuality("rare", &gamedata.Quality{Level: 2, Next: gamedata.NoObject, UnlockedBy: gamedata.NoObject})
	normal := b.AddQuality("normal", &gamedata.Quality{Level: 0, UnlockedBy: gamedata.NoObject})
	normal.Next = rare.ID
	db, err := b.Build()
	require.NoError(t, err)
	return &linkWorld{db: db, plate: plate, ore: ore, normal: normal, rare: rare}
}

func TestProductionTable_AddLinkRejectsDuplicatePairs(t *testing.T) {
	// Arrange
	w := newLinkWorld(t)
	table := production.NewRootTable()
	first, err := table.AddLink(w.plate, w.normal, 1, production.AlgorithmMatch)
	require.NoError(t, err)

	// Act
	_, dupErr := table.AddLink(w.plate, w.normal, 2, production.AlgorithmAllowOverProduction)
	second, otherErr := table.AddLink(w.plate, w.rare, 2, production.AlgorithmMatch)

	// Assert - the same good at another quality is a distinct pair
	require.Error(t, dupErr)
	var dup *production.DuplicateLinkError
	require.ErrorAs(t, dupErr, &dup)
	assert.Equal(t, "iron-plate", dup.Good)
	assert.Equal(t, "link for iron-plate (normal) already exists at this level", dupErr.Error())
	require.NoError(t, otherErr)
	assert.Len(t, table.Links, 2)
	assert.Same(t, table, first.Owner())
	assert.Same(t, table, second.Owner())
}

func TestProductionTable_RemoveLinkReportsPresence(t *testing.T) {
	// Arrange
	w := newLinkWorld(t)
	table := production.NewRootTable()
	link, err := table.AddLink(w.plate, w.normal, 1, production.AlgorithmMatch)
	require.NoError(t, err)

	// Act & Assert
	assert.True(t, table.RemoveLink(link))
	assert.Nil(t, link.Owner())
	assert.False(t, table.RemoveLink(link))

	// Act & Assert - the pair is free again after removal
	_, err = table.AddLink(w.plate, w.normal, 2, production.AlgorithmMatch)
	assert.NoError(t, err)
}

func TestProductionTable_FindLinkSearchesAncestorTables(t *testing.T) {
	// Arrange
	w := newLinkWorld(t)
	root := production.NewRootTable()
	rootLink, err := root.AddLink(w.plate, w.normal, 1, production.AlgorithmMatch)
	require.NoError(t, err)
	row := production.NewRecipeRow(&gamedata.Recipe{SourceEntity: gamedata.NoObject}, nil)
	root.AddRow(row)
	sub := row.AttachSubTable()

	// Act
	inherited, foundInherited := sub.FindLink(w.plate, w.normal)
	_, foundMissing := sub.FindLink(w.ore, w.normal)

	// Assert
	require.True(t, foundInherited)
	assert.Same(t, rootLink, inherited)
	assert.False(t, foundMissing)

	// Act & Assert - a local link on the same pair shadows the parent's
	shadow, err := sub.AddLink(w.plate, w.normal, 0, production.AlgorithmMatch)
	require.NoError(t, err)
	resolved, ok := sub.FindLink(w.plate, w.normal)
	require.True(t, ok)
	assert.Same(t, shadow, resolved)
}

func TestProductionTable_ImplicitLinksAreTransient(t *testing.T) {
	// Arrange
	w := newLinkWorld(t)
	table := production.NewRootTable()
	user, err := table.AddLink(w.plate, w.normal, 1, production.AlgorithmMatch)
	require.NoError(t, err)

	// Act
	onUserPair := table.AddImplicitLink(w.plate, w.normal)
	implicit := table.AddImplicitLink(w.plate, w.rare)
	again := table.AddImplicitLink(w.plate, w.rare)

	// Assert - existing links win, repeated synthesis is idempotent
	assert.Same(t, user, onUserPair)
	assert.Same(t, implicit, again)
	assert.True(t, implicit.IsImplicit())
	assert.False(t, user.IsImplicit())
	assert.Len(t, table.ImplicitLinks(), 1)

	// Act & Assert - clearing frees the pair for a user link
	table.ClearImplicitLinks()
	assert.Empty(t, table.ImplicitLinks())
	_, err = table.AddLink(w.plate, w.rare, 1, production.AlgorithmMatch)
	assert.NoError(t, err)
}

func TestProductionTable_RowOwnershipFollowsAddAndRemove(t *testing.T) {
	// Arrange
	table := production.NewRootTable()
	row := production.NewRecipeRow(&gamedata.Recipe{SourceEntity: gamedata.NoObject}, nil)

	// Act & Assert
	table.AddRow(row)
	assert.Same(t, table, row.Owner())
	assert.True(t, row.Enabled)
	assert.True(t, table.RemoveRow(row))
	assert.Nil(t, row.Owner())
	assert.False(t, table.RemoveRow(row))
}

func TestRecipeRow_AttachSubTableIsIdempotent(t *testing.T) {
	// Arrange
	root := production.NewRootTable()
	row := production.NewRecipeRow(&gamedata.Recipe{SourceEntity: gamedata.NoObject}, nil)
	root.AddRow(row)

	// Act
	sub := row.AttachSubTable()

	// Assert
	assert.Same(t, sub, row.AttachSubTable())
	assert.Same(t, row, sub.Owner())
	assert.Same(t, root, sub.Parent())
	assert.Nil(t, root.Parent())
}

func TestProductionTable_ForEachRowVisitsParentsBeforeChildren(t *testing.T) {
	// Arrange
	root := production.NewRootTable()
	outer := production.NewRecipeRow(&gamedata.Recipe{SourceEntity: gamedata.NoObject}, nil)
	sibling := production.NewRecipeRow(&gamedata.Recipe{SourceEntity: gamedata.NoObject}, nil)
	nested := production.NewRecipeRow(&gamedata.Recipe{SourceEntity: gamedata.NoObject}, nil)
	root.AddRow(outer)
	root.AddRow(sibling)
	outer.AttachSubTable().AddRow(nested)

	// Act
	var rows []*production.RecipeRow
	root.ForEachRow(func(r *production.RecipeRow) { rows = append(rows, r) })
	var tables []*production.ProductionTable
	root.ForEachTable(func(tb *production.ProductionTable) { tables = append(tables, tb) })

	// Assert
	assert.Equal(t, []*production.RecipeRow{outer, nested, sibling}, rows)
	assert.Equal(t, []*production.ProductionTable{root, outer.SubTable}, tables)
}

func TestRecipeRow_ForEachAncestorClimbsToTheRoot(t *testing.T) {
	// Arrange - two nesting levels under the root
	root := production.NewRootTable()
	grandparent := production.NewRecipeRow(&gamedata.Recipe{SourceEntity: gamedata.NoObject}, nil)
	parent := production.NewRecipeRow(&gamedata.Recipe{SourceEntity: gamedata.NoObject}, nil)
	leaf := production.NewRecipeRow(&gamedata.Recipe{SourceEntity: gamedata.NoObject}, nil)
	root.AddRow(grandparent)
	grandparent.AttachSubTable().AddRow(parent)
	parent.AttachSubTable().AddRow(leaf)

	// Act
	var seen []*production.RecipeRow
	leaf.ForEachAncestor(func(r *production.RecipeRow) { seen = append(seen, r) })

	// Assert
	assert.Equal(t, []*production.RecipeRow{parent, grandparent}, seen)
}

func TestEffectiveQuality_FluidsAlwaysFlowAtNormal(t *testing.T) {
	// Arrange
	w := newLinkWorld(t)
	fluid := &gamedata.Good{IsFluid: true}

	// Act & Assert
	assert.Same(t, w.normal, production.EffectiveQuality(w.db, fluid, w.rare))
	assert.Same(t, w.rare, production.EffectiveQuality(w.db, w.plate, w.rare))
	assert.Same(t, w.normal, production.EffectiveQuality(w.db, w.plate, nil))
}

func TestRecipeRow_FlowHelpersUseTheSolvedState(t *testing.T) {
	// Arrange - 2 crafts per second of a probabilistic recipe at +20% productivity
	recipe := &gamedata.Recipe{
		SourceEntity: gamedata.NoObject,
		Ingredients:  []gamedata.Ingredient{{Good: 0, Amount: 2}},
		Products:     []gamedata.Product{{Good: 1, Amount: 1, Probability: 0.5}},
	}
	row := production.NewRecipeRow(recipe, nil)
	row.Params = production.Parameters{RecipeTime: 4, Productivity: 0.2, FuelUsagePerSecond: 0.05}
	row.RecipesPerSecond = 2

	// Act & Assert
	assert.InDelta(t, 8.0, row.BuildingCount(), 1e-9)
	assert.InDelta(t, 4.0, row.IngredientFlow(0), 1e-9)
	assert.InDelta(t, 1.2, row.ProductFlow(0), 1e-9)
	assert.InDelta(t, 0.4, row.FuelFlow(), 1e-9)

	// Act & Assert - the backward solvers invert the forward flows
	assert.InDelta(t, 8.0, row.BuildingsForProductFlow(0, 1.2), 1e-9)
	assert.InDelta(t, 8.0, row.BuildingsForIngredientFlow(0, 4.0), 1e-9)
	assert.InDelta(t, 8.0, row.BuildingsForFuelFlow(0.4), 1e-9)
}

func TestFixedMode_RoundTripsItsNames(t *testing.T) {
	// Arrange
	modes := []production.FixedMode{
		production.FixedCount,
		production.FixedFuel,
		production.FixedIngredient,
		production.FixedProduct,
	}

	// Act & Assert
	for _, mode := range modes {
		assert.Equal(t, mode, production.ParseFixedMode(mode.String()))
	}
	assert.Equal(t, production.FixedNone, production.ParseFixedMode("anything else"))
	assert.Equal(t, "", production.FixedNone.String())
}

func TestLinkAlgorithm_RoundTripsItsNames(t *testing.T) {
	// Arrange
	algorithms := []production.LinkAlgorithm{
		production.AlgorithmMatch,
		production.AlgorithmAllowOverProduction,
		production.AlgorithmAllowOverConsumption,
	}

	// Act & Assert
	for _, algorithm := range algorithms {
		assert.Equal(t, algorithm, production.ParseLinkAlgorithm(algorithm.String()))
	}
	assert.Equal(t, production.AlgorithmMatch, production.ParseLinkAlgorithm("balance"))
}
