package session_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/factorlab/beltplan-go/internal/application/session"
	"github.com/factorlab/beltplan-go/internal/domain/gamedata"
	"github.com/factorlab/beltplan-go/internal/domain/production"
	"github.com/factorlab/beltplan-go/internal/domain/project"
)

// sessionWorld provides a minimal playthrough: an ore patch mined by hand,
// smelting unlocked by one technology, and a rare tier gated behind it.
type sessionWorld struct {
	db        *gamedata.Database
	ore       *gamedata.Good
	plate     *gamedata.Good
	patch     *gamedata.Entity
	character *gamedata.Entity
	mining    *gamedata.Recipe
	smelt     *gamedata.Recipe
	tech      *gamedata.Technology
	normal    *gamedata.Quality
	rare      *gamedata.Quality
}

func newSessionWorld(t *testing.T) *sessionWorld {
	t.Helper()
	b := gamedata.NewBuilder()
	ore := b.AddGood("iron-ore", &gamedata.Good{PlaceResult: gamedata.NoObject})
	plate := b.AddGood("iron-plate", &gamedata.Good{PlaceResult: gamedata.NoObject})
	patch := b.AddEntity("iron-patch", &gamedata.Entity{MapGenerated: true})
	character := b.AddEntity("character", &gamedata.Entity{})
	mining := b.AddRecipe("iron-mining", &gamedata.Recipe{
		Time:         2,
		Products:     []gamedata.Product{{Good: ore.ID, Amount: 1}},
		Crafters:     []gamedata.ObjectID{character.ID},
		SourceEntity: patch.ID,
		IsMining:     true,
	})
	smelt := b.AddRecipe("iron-smelting", &gamedata.Recipe{
		Time:         3.2,
		Ingredients:  []gamedata.Ingredient{{Good: ore.ID, Amount: 1}},
		Products:     []gamedata.Product{{Good: plate.ID, Amount: 1}},
		Crafters:     []gamedata.ObjectID{character.ID},
		SourceEntity: gamedata.NoObject,
	})
	tech := b.AddTechnology("automation", &gamedata.Technology{
		Recipe: gamedata.Recipe{
			Time:         30,
			Crafters:     []gamedata.ObjectID{character.ID},
			SourceEntity: gamedata.NoObject,
		},
	})
	tech.UnlockedRecipes = []gamedata.ObjectID{smelt.ID}
	rare := b.AddQuality("rare", &gamedata.Quality{Level: 2, Next: gamedata.NoObject, UnlockedBy: gamedata.NoObject})
	normal := b.AddQuality("normal", &gamedata.Quality{UnlockedBy: gamedata.NoObject})
	normal.Next = rare.ID
	rare.UnlockedBy = tech.ID
	db, err := b.Build()
	require.NoError(t, err)
	return &sessionWorld{
		db: db, ore: ore, plate: plate, patch: patch, character: character,
		mining: mining, smelt: smelt, tech: tech, normal: normal, rare: rare,
	}
}

func openSession(t *testing.T, w *sessionWorld) *session.Session {
	t.Helper()
	s, err := session.Open(context.Background(), w.db, project.New("Base"))
	require.NoError(t, err)
	return s
}

func TestOpen_ComputesAccessibilityUpFront(t *testing.T) {
	// Arrange
	w := newSessionWorld(t)
	proj := project.New("Base")

	// Act
	s, err := session.Open(context.Background(), w.db, proj)

	// Assert
	require.NoError(t, err)
	assert.Same(t, w.db, s.Database())
	assert.Same(t, proj, s.Project())
	require.NotNil(t, s.Graph())
	require.True(t, s.Engine().Computed())
	assert.True(t, s.Engine().IsAccessible(w.plate.ID))
	assert.Empty(t, proj.Settings.Milestones)
}

func TestSession_RecomputeAccessibilityAppliesSettings(t *testing.T) {
	// Arrange - blocking the ore patch cuts off the whole smelting chain
	w := newSessionWorld(t)
	s := openSession(t, w)
	s.Project().Settings.MarkedInaccessible[w.patch.ID] = true

	// Act
	err := s.RecomputeAccessibility(context.Background())

	// Assert
	require.NoError(t, err)
	assert.False(t, s.Engine().IsAccessible(w.ore.ID))
	assert.False(t, s.Engine().IsAccessible(w.plate.ID))
	assert.True(t, s.Engine().IsAccessible(w.tech.ID))
}

func TestSession_SolveInputsGateQualityByMilestones(t *testing.T) {
	// Arrange - the rare tier unlocks with the automation milestone
	w := newSessionWorld(t)
	s := openSession(t, w)
	s.Project().Settings.Milestones = []gamedata.ObjectID{w.tech.ID}
	s.Project().Settings.MiningProductivity = 0.25
	require.NoError(t, s.RecomputeAccessibility(context.Background()))

	// Act & Assert - locked milestone keeps the tier out of reach
	in := s.SolveInputs()
	assert.InDelta(t, 0.25, in.Bonuses.MiningProductivity, 1e-9)
	assert.False(t, in.QualityAccessible(w.rare))

	// Act & Assert - unlocking the milestone opens it
	s.Project().Settings.UnlockedMilestones[w.tech.ID] = true
	require.NoError(t, s.RecomputeAccessibility(context.Background()))
	assert.True(t, s.SolveInputs().QualityAccessible(w.rare))
}

func TestSession_SolvePageWritesResults(t *testing.T) {
	// Arrange - mine into smelter, one plate per second
	w := newSessionWorld(t)
	s := openSession(t, w)
	page := s.Project().AddPage("Smelting")
	mineRow := production.NewRecipeRow(w.mining, w.normal)
	smeltRow := production.NewRecipeRow(w.smelt, w.normal)
	page.Table.AddRow(mineRow)
	page.Table.AddRow(smeltRow)
	_, err := page.Table.AddLink(w.ore, w.normal, 0, production.AlgorithmMatch)
	require.NoError(t, err)
	_, err = page.Table.AddLink(w.plate, w.normal, 1, production.AlgorithmMatch)
	require.NoError(t, err)

	// Act
	err = s.SolvePage(context.Background(), page)

	// Assert
	require.NoError(t, err)
	assert.InDelta(t, 1.0, mineRow.RecipesPerSecond, 1e-6)
	assert.InDelta(t, 1.0, smeltRow.RecipesPerSecond, 1e-6)
	assert.Empty(t, page.LastSolveError)
}

func TestSession_SolveAllPagesKeepsPerPageErrors(t *testing.T) {
	// Arrange - one solvable page and one without any ore input
	w := newSessionWorld(t)
	s := openSession(t, w)
	good := s.Project().AddPage("Good")
	good.Table.AddRow(production.NewRecipeRow(w.mining, w.normal))
	bad := s.Project().AddPage("Bad")
	bad.Table.AddRow(production.NewRecipeRow(w.smelt, w.normal))
	_, err := bad.Table.AddLink(w.ore, w.normal, 0, production.AlgorithmMatch)
	require.NoError(t, err)
	_, err = bad.Table.AddLink(w.plate, w.normal, 1, production.AlgorithmMatch)
	require.NoError(t, err)

	// Act
	s.SolveAllPages(context.Background())

	// Assert
	assert.Empty(t, good.LastSolveError)
	assert.Equal(t, "production model has no solution", bad.LastSolveError)
}

func TestSession_FindPageAcceptsIDOrName(t *testing.T) {
	// Arrange
	w := newSessionWorld(t)
	s := openSession(t, w)
	page := s.Project().AddPage("Iron")

	// Act & Assert - by id
	found, err := s.FindPage(page.ID.String())
	require.NoError(t, err)
	assert.Same(t, page, found)

	// Act & Assert - by name
	found, err = s.FindPage("Iron")
	require.NoError(t, err)
	assert.Same(t, page, found)

	// Act & Assert - neither
	_, err = s.FindPage("Copper")
	var notFound *session.PageNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.EqualError(t, err, `page "Copper" not found`)
}

func TestSession_ResolveCraftableFallsBackToTechnologies(t *testing.T) {
	// Arrange
	w := newSessionWorld(t)
	s := openSession(t, w)

	// Act & Assert - recipes resolve first
	obj, err := s.ResolveCraftable("iron-smelting")
	require.NoError(t, err)
	assert.Same(t, w.smelt, obj)

	// Act & Assert - technologies answer to the same lookup
	obj, err = s.ResolveCraftable("automation")
	require.NoError(t, err)
	assert.Same(t, w.tech, obj)

	// Act & Assert
	_, err = s.ResolveCraftable("transmutation")
	assert.EqualError(t, err, `recipe "transmutation" not found in game data`)
}

func TestSession_ResolvesObjectsByKindAndName(t *testing.T) {
	// Arrange
	w := newSessionWorld(t)
	s := openSession(t, w)

	// Act & Assert
	good, err := s.ResolveGood("iron-ore")
	require.NoError(t, err)
	assert.Same(t, w.ore, good)
	_, err = s.ResolveGood("unobtainium")
	assert.EqualError(t, err, `good "unobtainium" not found in game data`)

	entity, err := s.ResolveEntity("character")
	require.NoError(t, err)
	assert.Same(t, w.character, entity)

	quality, err := s.ResolveQuality("")
	require.NoError(t, err)
	assert.Same(t, w.normal, quality)
	quality, err = s.ResolveQuality("rare")
	require.NoError(t, err)
	assert.Same(t, w.rare, quality)
	_, err = s.ResolveQuality("epic")
	assert.EqualError(t, err, `quality "epic" not found in game data`)

	milestone, err := s.ResolveMilestone("technology", "automation")
	require.NoError(t, err)
	assert.Same(t, w.tech, milestone)
	_, err = s.ResolveMilestone("widget", "automation")
	assert.EqualError(t, err, `widget "automation" not found in game data`)
}

func TestRowAt_WalksNestedTables(t *testing.T) {
	// Arrange - a second root row carrying one nested row
	w := newSessionWorld(t)
	s := openSession(t, w)
	page := s.Project().AddPage("Nested")
	page.Table.AddRow(production.NewRecipeRow(w.mining, w.normal))
	parent := production.NewRecipeRow(w.smelt, w.normal)
	page.Table.AddRow(parent)
	nested := production.NewRecipeRow(w.mining, w.normal)
	parent.AttachSubTable().AddRow(nested)

	// Act & Assert - a two-level path lands on the nested row
	row, err := session.RowAt(page, []int{1, 0})
	require.NoError(t, err)
	assert.Same(t, nested, row)

	// Act & Assert - empty and out-of-range paths fail
	_, err = session.RowAt(page, nil)
	var rowErr *session.RowNotFoundError
	require.ErrorAs(t, err, &rowErr)
	_, err = session.RowAt(page, []int{5})
	assert.EqualError(t, err, "no row at path [5]")
	_, err = session.RowAt(page, []int{1, 3})
	assert.EqualError(t, err, "no row at path [1 3]")
}

func TestTableAt_ResolvesAndAttachesSubTables(t *testing.T) {
	// Arrange
	w := newSessionWorld(t)
	s := openSession(t, w)
	page := s.Project().AddPage("Nested")
	row := production.NewRecipeRow(w.smelt, w.normal)
	page.Table.AddRow(row)

	// Act & Assert - the empty path is the page root
	table, err := session.TableAt(page, nil, false)
	require.NoError(t, err)
	assert.Same(t, page.Table, table)

	// Act & Assert - without attach a missing sub-table is an error
	_, err = session.TableAt(page, []int{0}, false)
	var rowErr *session.RowNotFoundError
	require.ErrorAs(t, err, &rowErr)

	// Act & Assert - attach creates it on demand and then reuses it
	created, err := session.TableAt(page, []int{0}, true)
	require.NoError(t, err)
	assert.Same(t, row.SubTable, created)
	again, err := session.TableAt(page, []int{0}, false)
	require.NoError(t, err)
	assert.Same(t, created, again)
}

func TestSession_ReopenStartsAFreshEngine(t *testing.T) {
	// Arrange
	w := newSessionWorld(t)
	s := openSession(t, w)
	firstEngine := s.Engine()
	next := project.New("Next")

	// Act
	err := s.Reopen(context.Background(), next)

	// Assert
	require.NoError(t, err)
	assert.Same(t, next, s.Project())
	assert.NotSame(t, firstEngine, s.Engine())
	assert.True(t, s.Engine().Computed())
}

func TestSession_ReloadSwapsTheDatabase(t *testing.T) {
	// Arrange - a second, freshly built copy of the world
	first := newSessionWorld(t)
	s := openSession(t, first)
	second := newSessionWorld(t)
	proj := project.New("Reloaded")

	// Act
	err := s.Reload(context.Background(), second.db, proj)

	// Assert
	require.NoError(t, err)
	assert.Same(t, second.db, s.Database())
	assert.Same(t, proj, s.Project())
	assert.True(t, s.Engine().IsAccessible(second.plate.ID))
}
