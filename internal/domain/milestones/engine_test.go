package milestones_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/factorlab/beltplan-go/internal/domain/deps"
	"github.com/factorlab/beltplan-go/internal/domain/gamedata"
	"github.com/factorlab/beltplan-go/internal/domain/milestones"
)

// smeltingWorld is a tiny progression chain: mined ore triggers the smelting
// technology, smelted plates feed the advanced technology.
type smeltingWorld struct {
	db    *gamedata.Database
	graph *deps.Graph

	ore      gamedata.ObjectID
	plate    gamedata.ObjectID
	smelting gamedata.ObjectID
	advanced gamedata.ObjectID
	patch    gamedata.ObjectID
}

func newSmeltingWorld(t *testing.T) *smeltingWorld {
	t.Helper()

	b := gamedata.NewBuilder()
	patch := b.AddEntity("iron-ore-patch", &gamedata.Entity{MapGenerated: true})
	character := b.AddEntity("character", &gamedata.Entity{CraftingSpeed: 1})
	ore := b.AddGood("iron-ore", &gamedata.Good{PlaceResult: gamedata.NoObject})
	b.AddRecipe("iron-ore-mining", &gamedata.Recipe{
		Products:     []gamedata.Product{{Good: ore.ID, Amount: 1}},
		Crafters:     []gamedata.ObjectID{character.ID},
		SourceEntity: patch.ID,
		IsMining:     true,
	})
	plate := b.AddGood("iron-plate", &gamedata.Good{PlaceResult: gamedata.NoObject})
	smelting := b.AddTechnology("smelting", &gamedata.Technology{
		Recipe:               gamedata.Recipe{SourceEntity: gamedata.NoObject},
		ResearchTriggerItems: []gamedata.ObjectID{ore.ID},
	})
	smelt := b.AddRecipe("iron-plate", &gamedata.Recipe{
		Ingredients:  []gamedata.Ingredient{{Good: ore.ID, Amount: 1}},
		Products:     []gamedata.Product{{Good: plate.ID, Amount: 1}},
		Crafters:     []gamedata.ObjectID{character.ID},
		SourceEntity: gamedata.NoObject,
	})
	advanced := b.AddTechnology("advanced-smelting", &gamedata.Technology{
		Recipe: gamedata.Recipe{
			Ingredients:  []gamedata.Ingredient{{Good: plate.ID, Amount: 1}},
			Crafters:     []gamedata.ObjectID{character.ID},
			SourceEntity: gamedata.NoObject,
		},
		Prerequisites: []gamedata.ObjectID{smelting.ID},
	})
	smelting.UnlockedRecipes = []gamedata.ObjectID{smelt.ID}

	db, err := b.Build()
	require.NoError(t, err)

	return &smeltingWorld{
		db:       db,
		graph:    deps.Build(db),
		ore:      ore.ID,
		plate:    plate.ID,
		smelting: smelting.ID,
		advanced: advanced.ID,
		patch:    patch.ID,
	}
}

func hasWarning(warnings []milestones.Warning, code milestones.WarningCode) bool {
	for _, w := range warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}

func TestEngine_ComputeOrdersMilestonesByFirstEncounter(t *testing.T) {
	// Arrange
	w := newSmeltingWorld(t)
	engine := milestones.NewEngine(w.db, w.graph)

	// Act
	order, err := engine.Compute(context.Background(), milestones.ComputeRequest{
		Milestones: []gamedata.ObjectID{w.advanced, w.smelting},
		AutoSort:   true,
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []gamedata.ObjectID{w.smelting, w.advanced}, order)
	assert.Equal(t, order, engine.Milestones())
	assert.True(t, engine.Computed())
}

func TestEngine_ComputeKeepsRequestedOrderWithoutAutoSort(t *testing.T) {
	// Arrange
	w := newSmeltingWorld(t)
	engine := milestones.NewEngine(w.db, w.graph)

	// Act
	order, err := engine.Compute(context.Background(), milestones.ComputeRequest{
		Milestones: []gamedata.ObjectID{w.advanced, w.smelting, w.advanced},
	})

	// Assert - duplicates collapse, the remaining order is untouched
	require.NoError(t, err)
	assert.Equal(t, []gamedata.ObjectID{w.advanced, w.smelting}, order)
}

func TestEngine_MasksRecordWhichMilestonesGateAnObject(t *testing.T) {
	// Arrange
	w := newSmeltingWorld(t)
	engine := milestones.NewEngine(w.db, w.graph)

	// Act
	_, err := engine.Compute(context.Background(), milestones.ComputeRequest{
		Milestones: []gamedata.ObjectID{w.advanced, w.smelting},
		AutoSort:   true,
	})

	// Assert - ore needs nothing, plates need smelting, the advanced
	// technology needs both milestones plus itself
	require.NoError(t, err)
	assert.Equal(t, uint64(0b001), engine.MaskOf(w.ore))
	assert.Equal(t, uint64(0b011), engine.MaskOf(w.plate))
	assert.Equal(t, uint64(0b111), engine.MaskOf(w.advanced))
	assert.Equal(t, gamedata.NoObject, engine.GetHighest(w.ore))
	assert.Equal(t, w.smelting, engine.GetHighest(w.plate))
	assert.Equal(t, w.advanced, engine.GetHighest(w.advanced))
	assert.True(t, engine.IsAutomatable(w.plate))
	assert.Empty(t, engine.Warnings())
}

func TestEngine_LockedMilestonesGateAccessibility(t *testing.T) {
	// Arrange
	w := newSmeltingWorld(t)
	engine := milestones.NewEngine(w.db, w.graph)
	_, err := engine.Compute(context.Background(), milestones.ComputeRequest{
		Milestones: []gamedata.ObjectID{w.smelting, w.advanced},
	})
	require.NoError(t, err)

	// Act & Assert - everything starts locked
	assert.True(t, engine.IsAccessibleWithCurrentMilestones(w.ore))
	assert.False(t, engine.IsAccessibleWithCurrentMilestones(w.plate))
	assert.True(t, engine.IsAccessibleAtNextMilestone(w.plate))
	assert.False(t, engine.IsAccessibleAtNextMilestone(w.advanced))

	// Act & Assert - clearing the first milestone releases the plate
	engine.ApplyUnlocks([]gamedata.ObjectID{w.smelting})
	assert.True(t, engine.IsAccessibleWithCurrentMilestones(w.plate))
	assert.False(t, engine.IsAccessibleWithCurrentMilestones(w.advanced))
	assert.True(t, engine.IsAccessibleAtNextMilestone(w.advanced))

	// Act & Assert - locking it again restores the gate
	engine.ApplyUnlocks(nil)
	assert.False(t, engine.IsAccessibleWithCurrentMilestones(w.plate))
}

func TestEngine_MarkedInaccessibleObjectsPruneEveryWalk(t *testing.T) {
	// Arrange - without the ore patch the whole chain collapses
	w := newSmeltingWorld(t)
	engine := milestones.NewEngine(w.db, w.graph)

	// Act
	_, err := engine.Compute(context.Background(), milestones.ComputeRequest{
		Milestones:         []gamedata.ObjectID{w.smelting, w.advanced},
		MarkedInaccessible: []gamedata.ObjectID{w.patch},
	})

	// Assert
	require.NoError(t, err)
	assert.False(t, engine.IsAccessible(w.ore))
	assert.False(t, engine.IsAccessible(w.plate))
	assert.True(t, hasWarning(engine.Warnings(), milestones.WarnFewObjectsAccessible))
	assert.True(t, hasWarning(engine.Warnings(), milestones.WarnMilestoneUnreachable))
}

func TestEngine_MarkedAccessibleObjectsJoinTheSeeds(t *testing.T) {
	// Arrange - ore has no producer, so only a manual mark can supply it
	b := gamedata.NewBuilder()
	character := b.AddEntity("character", &gamedata.Entity{CraftingSpeed: 1})
	ore := b.AddGood("iron-ore", &gamedata.Good{PlaceResult: gamedata.NoObject})
	plate := b.AddGood("iron-plate", &gamedata.Good{PlaceResult: gamedata.NoObject})
	b.AddRecipe("iron-plate", &gamedata.Recipe{
		Ingredients:  []gamedata.Ingredient{{Good: ore.ID, Amount: 1}},
		Products:     []gamedata.Product{{Good: plate.ID, Amount: 1}},
		Crafters:     []gamedata.ObjectID{character.ID},
		SourceEntity: gamedata.NoObject,
	})
	b.SetWin(plate.ID)
	db, err := b.Build()
	require.NoError(t, err)
	engine := milestones.NewEngine(db, deps.Build(db))

	// Act
	_, err = engine.Compute(context.Background(), milestones.ComputeRequest{
		MarkedAccessible: []gamedata.ObjectID{ore.ID},
	})

	// Assert - the mark makes plates reachable but nothing automates the ore
	require.NoError(t, err)
	assert.True(t, engine.IsAccessible(plate.ID))
	assert.True(t, engine.IsAutomatable(character.ID))
	assert.False(t, engine.IsAutomatable(plate.ID))
	assert.True(t, hasWarning(engine.Warnings(), milestones.WarnWinNotAutomatable))
}

func TestEngine_PredictsMilestonesForUnreachableObjects(t *testing.T) {
	// Arrange - the artifact chain hangs off a technology that needs an
	// object nothing produces
	b := gamedata.NewBuilder()
	patch := b.AddEntity("iron-ore-patch", &gamedata.Entity{MapGenerated: true})
	character := b.AddEntity("character", &gamedata.Entity{CraftingSpeed: 1})
	ore := b.AddGood("iron-ore", &gamedata.Good{PlaceResult: gamedata.NoObject})
	b.AddRecipe("iron-ore-mining", &gamedata.Recipe{
		Products:     []gamedata.Product{{Good: ore.ID, Amount: 1}},
		Crafters:     []gamedata.ObjectID{character.ID},
		SourceEntity: patch.ID,
		IsMining:     true,
	})
	orphan := b.AddGood("alien-sample", &gamedata.Good{PlaceResult: gamedata.NoObject})
	xeno := b.AddTechnology("xenobiology", &gamedata.Technology{
		Recipe:               gamedata.Recipe{SourceEntity: gamedata.NoObject},
		ResearchTriggerItems: []gamedata.ObjectID{orphan.ID},
	})
	synth := b.AddRecipe("artifact-synthesis", &gamedata.Recipe{
		Ingredients:  []gamedata.Ingredient{{Good: ore.ID, Amount: 1}},
		Crafters:     []gamedata.ObjectID{character.ID},
		SourceEntity: gamedata.NoObject,
	})
	artifact := b.AddGood("alien-artifact", &gamedata.Good{PlaceResult: gamedata.NoObject})
	synth.Products = []gamedata.Product{{Good: artifact.ID, Amount: 1}}
	xeno.UnlockedRecipes = []gamedata.ObjectID{synth.ID}
	db, err := b.Build()
	require.NoError(t, err)
	engine := milestones.NewEngine(db, deps.Build(db))

	// Act
	_, err = engine.Compute(context.Background(), milestones.ComputeRequest{
		Milestones: []gamedata.ObjectID{xeno.ID},
	})

	// Assert - the artifact is unreachable yet still reports which
	// milestone would have to fall first
	require.NoError(t, err)
	assert.False(t, engine.IsAccessible(artifact.ID))
	assert.Equal(t, uint64(0b10), engine.MaskOf(artifact.ID))
	assert.Equal(t, xeno.ID, engine.GetHighest(artifact.ID))
	assert.True(t, hasWarning(engine.Warnings(), milestones.WarnMilestoneUnreachable))
}

func TestEngine_RejectsTooManyMilestones(t *testing.T) {
	// Arrange
	b := gamedata.NewBuilder()
	b.AddGood("iron-ore", &gamedata.Good{PlaceResult: gamedata.NoObject})
	db, err := b.Build()
	require.NoError(t, err)
	engine := milestones.NewEngine(db, deps.Build(db))
	requested := make([]gamedata.ObjectID, 64)
	for i := range requested {
		requested[i] = gamedata.ObjectID(i)
	}

	// Act
	_, err = engine.Compute(context.Background(), milestones.ComputeRequest{Milestones: requested})

	// Assert
	require.Error(t, err)
	assert.ErrorContains(t, err, "too many milestones: 64, limit 63")
	assert.False(t, engine.Computed())
}

func TestEngine_ComputeHonorsContextCancellation(t *testing.T) {
	// Arrange
	w := newSmeltingWorld(t)
	engine := milestones.NewEngine(w.db, w.graph)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Act
	_, err := engine.Compute(ctx, milestones.ComputeRequest{
		Milestones: []gamedata.ObjectID{w.smelting},
	})

	// Assert
	require.ErrorIs(t, err, context.Canceled)
}
