package planner_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/factorlab/beltplan-go/internal/application/planner"
	"github.com/factorlab/beltplan-go/internal/domain/gamedata"
	"github.com/factorlab/beltplan-go/internal/domain/production"
	"github.com/factorlab/beltplan-go/internal/domain/project"
)

// solverWorld provides the goods and recipes the solver tests compile. No
// row configures an entity, so recipe times pass through at crafting speed
// one and every solved row carries the missing-entity warning.
type solverWorld struct {
	db       *gamedata.Database
	ore      *gamedata.Good
	plate    *gamedata.Good
	fuel     *gamedata.Good
	pack     *gamedata.Good
	normal   *gamedata.Quality
	rare     *gamedata.Quality
	mine     *gamedata.Recipe
	smelt    *gamedata.Recipe
	press    *gamedata.Recipe
	render   *gamedata.Recipe
	makePack *gamedata.Recipe
}

func newSolverWorld(t *testing.T) *solverWorld {
	t.Helper()
	b := gamedata.NewBuilder()
	ore := b.AddGood("iron-ore", &gamedata.Good{PlaceResult: gamedata.NoObject})
	plate := b.AddGood("iron-plate", &gamedata.Good{PlaceResult: gamedata.NoObject})
	fuel := b.AddGood("solid-fuel", &gamedata.Good{
		ObjectInfo:  gamedata.ObjectInfo{Cost: 5},
		PlaceResult: gamedata.NoObject,
	})
	pack := b.AddGood("science-pack", &gamedata.Good{IsSciencePack: true, PlaceResult: gamedata.NoObject})
	mine := b.AddRecipe("iron-mining", &gamedata.Recipe{
		Time:         3.2,
		Products:     []gamedata.Product{{Good: ore.ID, Amount: 1}},
		SourceEntity: gamedata.NoObject,
	})
	smelt := b.AddRecipe("iron-smelting", &gamedata.Recipe{
		Time:         3.2,
		Ingredients:  []gamedata.Ingredient{{Good: ore.ID, Amount: 1}},
		Products:     []gamedata.Product{{Good: plate.ID, Amount: 1}},
		SourceEntity: gamedata.NoObject,
	})
	press := b.AddRecipe("fuel-pressing", &gamedata.Recipe{
		Time:         1,
		Ingredients:  []gamedata.Ingredient{{Good: fuel.ID, Amount: 1}},
		Products:     []gamedata.Product{{Good: plate.ID, Amount: 1}},
		SourceEntity: gamedata.NoObject,
	})
	render := b.AddRecipe("plate-rendering", &gamedata.Recipe{
		Time:         1,
		Ingredients:  []gamedata.Ingredient{{Good: plate.ID, Amount: 1}},
		Products:     []gamedata.Product{{Good: fuel.ID, Amount: 1}},
		SourceEntity: gamedata.NoObject,
	})
	makePack := b.AddRecipe("pack-assembly", &gamedata.Recipe{
		Time:         1,
		Products:     []gamedata.Product{{Good: pack.ID, Amount: 1}},
		SourceEntity: gamedata.NoObject,
	})
	rare := b.AddQuality("rare", &gamedata.Quality{Level: 2, Next: gamedata.NoObject, UnlockedBy: gamedata.NoObject})
	normal := b.AddQuality("normal", &gamedata.Quality{UnlockedBy: gamedata.NoObject})
	normal.Next = rare.ID
	db, err := b.Build()
	require.NoError(t, err)
	return &solverWorld{
		db: db, ore: ore, plate: plate, fuel: fuel, pack: pack,
		normal: normal, rare: rare,
		mine: mine, smelt: smelt, press: press, render: render, makePack: makePack,
	}
}

func newPage(name string) *project.Page {
	return project.New("Test").AddPage(name)
}

func TestSolver_SolveWritesRatesAndCaptures(t *testing.T) {
	// Arrange - a mine feeding a smelter, one plate per second requested
	w := newSolverWorld(t)
	page := newPage("Smelting")
	mineRow := production.NewRecipeRow(w.mine, w.normal)
	smeltRow := production.NewRecipeRow(w.smelt, w.normal)
	page.Table.AddRow(mineRow)
	page.Table.AddRow(smeltRow)
	oreLink, err := page.Table.AddLink(w.ore, w.normal, 0, production.AlgorithmMatch)
	require.NoError(t, err)
	plateLink, err := page.Table.AddLink(w.plate, w.normal, 1, production.AlgorithmMatch)
	require.NoError(t, err)

	// Act
	err = planner.NewSolver(w.db).Solve(context.Background(), page, planner.Inputs{})

	// Assert - both rows run at one recipe per second
	require.NoError(t, err)
	assert.Empty(t, page.LastSolveError)
	assert.InDelta(t, 1.0, mineRow.RecipesPerSecond, 1e-6)
	assert.InDelta(t, 1.0, smeltRow.RecipesPerSecond, 1e-6)
	assert.InDelta(t, 3.2, smeltRow.Params.RecipeTime, 1e-9)
	assert.True(t, smeltRow.Warnings.Has(production.WarnEntityNotSpecified))

	// Assert - links capture their rows and direction flags
	require.Len(t, oreLink.CapturedRecipes, 2)
	assert.Same(t, mineRow, oreLink.CapturedRecipes[0])
	assert.Same(t, smeltRow, oreLink.CapturedRecipes[1])
	assert.True(t, oreLink.Flags.HasProductionAndConsumption())
	assert.True(t, plateLink.Flags.Has(production.LinkHasProduction))
	assert.False(t, plateLink.Flags.Has(production.LinkHasConsumption))
	assert.InDelta(t, 1.0, oreLink.LinkFlow, 1e-6)
	assert.InDelta(t, 1.0, plateLink.LinkFlow, 1e-6)

	// Assert - everything balances, so the flow summary is empty
	assert.Empty(t, page.Table.Flow)
}

func TestSolver_PinnedRowsKeepTheirBuildingCount(t *testing.T) {
	// Arrange - 6.4 fixed buildings at 3.2s per cycle force two per second
	w := newSolverWorld(t)
	page := newPage("Mining")
	row := production.NewRecipeRow(w.mine, w.normal)
	row.FixedBuildings = 6.4
	row.FixedMode = production.FixedCount
	row.BuiltBuildings = 5
	page.Table.AddRow(row)
	link, err := page.Table.AddLink(w.ore, w.normal, 1, production.AlgorithmAllowOverProduction)
	require.NoError(t, err)

	// Act
	err = planner.NewSolver(w.db).Solve(context.Background(), page, planner.Inputs{})

	// Assert - the pin overrides the cheaper one-per-second solution
	require.NoError(t, err)
	assert.InDelta(t, 2.0, row.RecipesPerSecond, 1e-6)
	assert.InDelta(t, 6.4, row.BuildingCount(), 1e-6)
	assert.True(t, row.Warnings.Has(production.WarnExceedsBuiltCount))

	// Assert - the surplus over the requested amount shows in the flow
	assert.True(t, link.Flags.Has(production.LinkNotMatched))
	require.Len(t, page.Table.Flow, 1)
	assert.Same(t, w.ore, page.Table.Flow[0].Good)
	assert.InDelta(t, 1.0, page.Table.Flow[0].Amount, 1e-6)
}

func TestSolver_ReportsInfeasibleModels(t *testing.T) {
	// Arrange - a plate is requested but the ore link admits no input
	w := newSolverWorld(t)
	page := newPage("Smelting")
	row := production.NewRecipeRow(w.smelt, w.normal)
	row.RecipesPerSecond = 42
	page.Table.AddRow(row)
	_, err := page.Table.AddLink(w.ore, w.normal, 0, production.AlgorithmMatch)
	require.NoError(t, err)
	_, err = page.Table.AddLink(w.plate, w.normal, 1, production.AlgorithmMatch)
	require.NoError(t, err)

	// Act
	err = planner.NewSolver(w.db).Solve(context.Background(), page, planner.Inputs{})

	// Assert - the failure is diagnosed and the old solution stays in place
	var solveErr *planner.SolveError
	require.ErrorAs(t, err, &solveErr)
	assert.Equal(t, "production model has no solution", solveErr.Reason)
	assert.Equal(t, "production model has no solution", page.LastSolveError)
	assert.InDelta(t, 42.0, row.RecipesPerSecond, 1e-9)
}

func TestSolver_DiagnosesOverproductionContention(t *testing.T) {
	// Arrange - two pinned mines push two ore per second into a one-per-
	// second match link
	w := newSolverWorld(t)
	page := newPage("Mining")
	first := production.NewRecipeRow(w.mine, w.normal)
	first.FixedBuildings = 3.2
	first.FixedMode = production.FixedCount
	second := production.NewRecipeRow(w.mine, w.normal)
	second.FixedBuildings = 3.2
	second.FixedMode = production.FixedCount
	page.Table.AddRow(first)
	page.Table.AddRow(second)
	link, err := page.Table.AddLink(w.ore, w.normal, 1, production.AlgorithmMatch)
	require.NoError(t, err)

	// Act
	err = planner.NewSolver(w.db).Solve(context.Background(), page, planner.Inputs{})

	// Assert - the relaxed model solves and marks the contended link
	require.NoError(t, err)
	assert.Empty(t, page.LastSolveError)
	assert.InDelta(t, 1.0, first.RecipesPerSecond, 1e-6)
	assert.InDelta(t, 1.0, second.RecipesPerSecond, 1e-6)
	assert.True(t, first.Warnings.Has(production.WarnOverproductionRequired))
	assert.True(t, second.Warnings.Has(production.WarnOverproductionRequired))
	assert.True(t, link.Flags.Has(production.LinkNotMatched))
	require.Len(t, page.Table.Flow, 1)
	assert.InDelta(t, 1.0, page.Table.Flow[0].Amount, 1e-6)
}

func TestSolver_DiagnosesDeadlockedFeedbackLoops(t *testing.T) {
	// Arrange - pressing needs fuel, rendering needs the pressed plates,
	// and nothing outside the loop seeds either good
	w := newSolverWorld(t)
	page := newPage("Loop")
	pressRow := production.NewRecipeRow(w.press, w.normal)
	renderRow := production.NewRecipeRow(w.render, w.normal)
	page.Table.AddRow(pressRow)
	page.Table.AddRow(renderRow)
	fuelLink, err := page.Table.AddLink(w.fuel, w.normal, 0, production.AlgorithmMatch)
	require.NoError(t, err)
	plateLink, err := page.Table.AddLink(w.plate, w.normal, 1, production.AlgorithmMatch)
	require.NoError(t, err)

	// Act
	err = planner.NewSolver(w.db).Solve(context.Background(), page, planner.Inputs{})

	// Assert - the cheap plate slack is chosen over the costly fuel slack
	require.NoError(t, err)
	assert.True(t, pressRow.Warnings.Has(production.WarnDeadlockCandidate))
	assert.True(t, renderRow.Warnings.Has(production.WarnDeadlockCandidate))
	assert.True(t, plateLink.Flags.Has(production.LinkNotMatched))
	assert.False(t, fuelLink.Flags.Has(production.LinkNotMatched))
	require.Len(t, page.Table.Flow, 1)
	assert.Same(t, w.plate, page.Table.Flow[0].Good)
	assert.InDelta(t, -1.0, page.Table.Flow[0].Amount, 1e-6)
}

func TestSolver_DecomposesQualityScienceDownToNormal(t *testing.T) {
	// Arrange - rare packs count triple against a normal-tier link
	w := newSolverWorld(t)
	page := newPage("Research")
	row := production.NewRecipeRow(w.makePack, w.rare)
	page.Table.AddRow(row)
	normalLink, err := page.Table.AddLink(w.pack, w.normal, 6, production.AlgorithmMatch)
	require.NoError(t, err)

	// Act
	err = planner.NewSolver(w.db).Solve(context.Background(), page, planner.Inputs{})

	// Assert - two rare packs per second convert into six normal ones
	require.NoError(t, err)
	assert.InDelta(t, 2.0, row.RecipesPerSecond, 1e-6)
	require.Len(t, page.Table.ImplicitLinks(), 1)
	implicit := page.Table.ImplicitLinks()[0]
	assert.Same(t, w.pack, implicit.Good)
	assert.Same(t, w.rare, implicit.Quality)
	assert.InDelta(t, 2.0, implicit.DecompositionRate, 1e-6)
	assert.InDelta(t, 6.0, implicit.LinkFlow, 1e-6)
	assert.InDelta(t, 6.0, normalLink.LinkFlow, 1e-6)
	assert.Empty(t, page.Table.Flow)
}

func TestSolver_PrunesDeadLinks(t *testing.T) {
	// Arrange - a plate link referenced only by a disabled smelter and a
	// fuel link referenced by nothing
	w := newSolverWorld(t)
	page := newPage("Mining")
	mineRow := production.NewRecipeRow(w.mine, w.normal)
	smeltRow := production.NewRecipeRow(w.smelt, w.normal)
	smeltRow.Enabled = false
	page.Table.AddRow(mineRow)
	page.Table.AddRow(smeltRow)
	_, err := page.Table.AddLink(w.ore, w.normal, 0, production.AlgorithmAllowOverProduction)
	require.NoError(t, err)
	_, err = page.Table.AddLink(w.plate, w.normal, 3, production.AlgorithmMatch)
	require.NoError(t, err)
	_, err = page.Table.AddLink(w.fuel, w.normal, 7, production.AlgorithmMatch)
	require.NoError(t, err)

	// Act
	err = planner.NewSolver(w.db).Solve(context.Background(), page, planner.Inputs{})

	// Assert - the disabled row protects its link, the dead one is dropped
	require.NoError(t, err)
	require.Len(t, page.Table.Links, 2)
	_, ok := page.Table.FindLink(w.plate, w.normal)
	assert.True(t, ok)
	_, ok = page.Table.FindLink(w.fuel, w.normal)
	assert.False(t, ok)
}

func TestSolver_CancelledContextShortCircuits(t *testing.T) {
	// Arrange
	w := newSolverWorld(t)
	page := newPage("Smelting")
	page.LastSolveError = "stale"
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Act
	err := planner.NewSolver(w.db).Solve(ctx, page, planner.Inputs{})

	// Assert - the page keeps its previous diagnostic untouched
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "stale", page.LastSolveError)
}

func TestDispatcher_CoalescesRequestsAndSolvesInOrder(t *testing.T) {
	// Arrange - two empty pages and a duplicate request for the first
	w := newSolverWorld(t)
	p := project.New("Test")
	first := p.AddPage("First")
	second := p.AddPage("Second")
	d := planner.NewDispatcher(planner.NewSolver(w.db), 1000)
	results := make(chan *project.Page, 4)
	d.OnResult = func(page *project.Page, err error) {
		assert.NoError(t, err)
		results <- page
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)

	// Act - burst the requests before the worker starts
	d.Request(first, planner.Inputs{})
	d.Request(second, planner.Inputs{})
	d.Request(first, planner.Inputs{})
	go func() { errCh <- d.Run(ctx) }()

	// Assert - each page solves once, in request order
	assert.Same(t, first, <-results)
	assert.Same(t, second, <-results)
	assert.Empty(t, results)
	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)
}
