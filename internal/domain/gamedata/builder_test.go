package gamedata_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/factorlab/beltplan-go/internal/domain/gamedata"
)

func TestBuilder_AssignsDenseIDsInRegistrationOrder(t *testing.T) {
	// Arrange
	b := gamedata.NewBuilder()
	ore := b.AddGood("iron-ore", &gamedata.Good{PlaceResult: gamedata.NoObject})
	plate := b.AddGood("iron-plate", &gamedata.Good{PlaceResult: gamedata.NoObject})
	smelt := b.AddRecipe("iron-plate", &gamedata.Recipe{
		Time:         3.2,
		Ingredients:  []gamedata.Ingredient{{Good: ore.ID, Amount: 1}},
		Products:     []gamedata.Product{{Good: plate.ID, Amount: 1}},
		SourceEntity: gamedata.NoObject,
	})

	// Act
	db, err := b.Build()

	// Assert
	require.NoError(t, err)
	assert.Equal(t, gamedata.ObjectID(0), ore.ID)
	assert.Equal(t, gamedata.ObjectID(1), plate.ID)
	assert.Equal(t, gamedata.ObjectID(2), smelt.ID)
	assert.Equal(t, 3, db.Count())
	assert.Equal(t, gamedata.KindGood, ore.Kind)
	assert.Equal(t, gamedata.KindRecipe, smelt.Kind)
	assert.Equal(t, "iron-ore", ore.Name)
}

func TestBuilder_LooksUpObjectsByKindAndName(t *testing.T) {
	// Arrange - a good and a recipe share the same name on purpose
	b := gamedata.NewBuilder()
	plate := b.AddGood("iron-plate", &gamedata.Good{PlaceResult: gamedata.NoObject})
	smelt := b.AddRecipe("iron-plate", &gamedata.Recipe{
		Products:     []gamedata.Product{{Good: plate.ID, Amount: 1}},
		SourceEntity: gamedata.NoObject,
	})
	db, err := b.Build()
	require.NoError(t, err)

	// Act
	asGood, goodOK := db.ByName(gamedata.KindGood, "iron-plate")
	asRecipe, recipeOK := db.ByName(gamedata.KindRecipe, "iron-plate")
	_, missingOK := db.ByName(gamedata.KindEntity, "iron-plate")

	// Assert
	require.True(t, goodOK)
	require.True(t, recipeOK)
	assert.Same(t, plate, asGood)
	assert.Same(t, smelt, asRecipe)
	assert.False(t, missingOK)
	assert.Same(t, plate, db.GoodByID(plate.ID))
	assert.Panics(t, func() { db.GoodByID(smelt.ID) })
}

func TestBuilder_RejectsDuplicateNamesWithinAKind(t *testing.T) {
	// Arrange
	b := gamedata.NewBuilder()
	b.AddGood("iron-ore", &gamedata.Good{PlaceResult: gamedata.NoObject})
	b.AddGood("iron-ore", &gamedata.Good{PlaceResult: gamedata.NoObject})

	// Act
	db, err := b.Build()

	// Assert
	require.Error(t, err)
	assert.Nil(t, db)
	assert.ErrorContains(t, err, `duplicate good name "iron-ore"`)
}

func TestBuilder_RejectsOutOfRangeReferences(t *testing.T) {
	// Arrange - the recipe points at an ingredient id that was never registered
	b := gamedata.NewBuilder()
	plate := b.AddGood("iron-plate", &gamedata.Good{PlaceResult: gamedata.NoObject})
	b.AddRecipe("iron-plate", &gamedata.Recipe{
		Ingredients:  []gamedata.Ingredient{{Good: 99, Amount: 1}},
		Products:     []gamedata.Product{{Good: plate.ID, Amount: 1}},
		SourceEntity: gamedata.NoObject,
	})

	// Act
	_, err := b.Build()

	// Assert
	require.Error(t, err)
	assert.ErrorContains(t, err, "iron-plate: object id 99 out of range")
}

func TestBuilder_RejectsOutOfRangeWinObject(t *testing.T) {
	// Arrange
	b := gamedata.NewBuilder()
	b.AddGood("iron-ore", &gamedata.Good{PlaceResult: gamedata.NoObject})
	b.SetWin(42)

	// Act
	_, err := b.Build()

	// Assert
	require.Error(t, err)
	assert.ErrorContains(t, err, "win object id 42 out of range")
}

func TestBuilder_ResolvesProductionAndUsages(t *testing.T) {
	// Arrange
	b := gamedata.NewBuilder()
	ore := b.AddGood("iron-ore", &gamedata.Good{PlaceResult: gamedata.NoObject})
	plate := b.AddGood("iron-plate", &gamedata.Good{PlaceResult: gamedata.NoObject})
	gear := b.AddGood("iron-gear-wheel", &gamedata.Good{PlaceResult: gamedata.NoObject})
	smelt := b.AddRecipe("iron-plate", &gamedata.Recipe{
		Ingredients:  []gamedata.Ingredient{{Good: ore.ID, Amount: 1}},
		Products:     []gamedata.Product{{Good: plate.ID, Amount: 1}},
		SourceEntity: gamedata.NoObject,
	})
	gears := b.AddRecipe("iron-gear-wheel", &gamedata.Recipe{
		Ingredients:  []gamedata.Ingredient{{Good: plate.ID, Amount: 2}},
		Products:     []gamedata.Product{{Good: gear.ID, Amount: 1}},
		SourceEntity: gamedata.NoObject,
	})

	// Act
	_, err := b.Build()

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []gamedata.ObjectID{smelt.ID}, plate.Production)
	assert.Equal(t, []gamedata.ObjectID{gears.ID}, plate.Usages)
	assert.Equal(t, []gamedata.ObjectID{smelt.ID}, ore.Usages)
	assert.Empty(t, ore.Production)
	assert.Equal(t, []gamedata.ObjectID{gears.ID}, gear.Production)
	assert.True(t, plate.HasProduction())
	assert.False(t, ore.HasProduction())
}

func TestBuilder_RecordsUsagesForEveryIngredientVariant(t *testing.T) {
	// Arrange - the recipe accepts either water variant
	b := gamedata.NewBuilder()
	water := b.AddGood("water", &gamedata.Good{IsFluid: true, PlaceResult: gamedata.NoObject})
	steam := b.AddGood("steam", &gamedata.Good{IsFluid: true, PlaceResult: gamedata.NoObject})
	mud := b.AddGood("mud", &gamedata.Good{PlaceResult: gamedata.NoObject})
	wash := b.AddRecipe("ore-washing", &gamedata.Recipe{
		Ingredients: []gamedata.Ingredient{
			{Good: water.ID, Amount: 10, Variants: []gamedata.ObjectID{water.ID, steam.ID}},
		},
		Products:     []gamedata.Product{{Good: mud.ID, Amount: 1}},
		SourceEntity: gamedata.NoObject,
	})

	// Act
	_, err := b.Build()

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []gamedata.ObjectID{wash.ID}, water.Usages)
	assert.Equal(t, []gamedata.ObjectID{wash.ID}, steam.Usages)
}

func TestBuilder_InvertsTechnologyUnlocks(t *testing.T) {
	// Arrange
	b := gamedata.NewBuilder()
	plate := b.AddGood("iron-plate", &gamedata.Good{PlaceResult: gamedata.NoObject})
	smelt := b.AddRecipe("iron-plate", &gamedata.Recipe{
		Products:     []gamedata.Product{{Good: plate.ID, Amount: 1}},
		SourceEntity: gamedata.NoObject,
	})
	tech := b.AddTechnology("metallurgy", &gamedata.Technology{
		Recipe:          gamedata.Recipe{SourceEntity: gamedata.NoObject},
		UnlockedRecipes: []gamedata.ObjectID{smelt.ID},
	})

	// Act
	_, err := b.Build()

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []gamedata.ObjectID{tech.ID}, smelt.UnlockedBy)
}

func TestBuilder_MarksResearchIngredientsAsSciencePacks(t *testing.T) {
	// Arrange
	b := gamedata.NewBuilder()
	pack := b.AddGood("automation-science-pack", &gamedata.Good{PlaceResult: gamedata.NoObject})
	plate := b.AddGood("iron-plate", &gamedata.Good{PlaceResult: gamedata.NoObject})
	b.AddTechnology("metallurgy", &gamedata.Technology{
		Recipe: gamedata.Recipe{
			Ingredients:  []gamedata.Ingredient{{Good: pack.ID, Amount: 1}},
			SourceEntity: gamedata.NoObject,
		},
	})

	// Act
	_, err := b.Build()

	// Assert
	require.NoError(t, err)
	assert.True(t, pack.IsSciencePack)
	assert.False(t, plate.IsSciencePack)
}

func TestBuilder_ResolvesItemFuelsByCategory(t *testing.T) {
	// Arrange - one matching category, one foreign category, one fluid
	b := gamedata.NewBuilder()
	coal := b.AddGood("coal", &gamedata.Good{FuelValue: 4, FuelCategory: "chemical", PlaceResult: gamedata.NoObject})
	wood := b.AddGood("wood", &gamedata.Good{FuelValue: 2, FuelCategory: "chemical", PlaceResult: gamedata.NoObject})
	b.AddGood("uranium-fuel-cell", &gamedata.Good{FuelValue: 8, FuelCategory: "nuclear", PlaceResult: gamedata.NoObject})
	b.AddGood("crude-oil", &gamedata.Good{IsFluid: true, FuelValue: 3, FuelCategory: "chemical", PlaceResult: gamedata.NoObject})
	burner := b.AddEntity("burner-mining-drill", &gamedata.Entity{
		CraftingSpeed: 0.25,
		Energy: gamedata.EnergySource{
			Type:           gamedata.EnergyItemFuel,
			FuelCategories: []string{"chemical"},
			Effectivity:    1,
		},
	})

	// Act
	_, err := b.Build()

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []gamedata.ObjectID{coal.ID, wood.ID}, burner.Energy.Fuels)
}

func TestBuilder_ResolvesFluidFuelsByFuelValue(t *testing.T) {
	// Arrange
	b := gamedata.NewBuilder()
	oil := b.AddGood("crude-oil", &gamedata.Good{IsFluid: true, FuelValue: 3, PlaceResult: gamedata.NoObject})
	b.AddGood("water", &gamedata.Good{IsFluid: true, PlaceResult: gamedata.NoObject})
	b.AddGood("coal", &gamedata.Good{FuelValue: 4, FuelCategory: "chemical", PlaceResult: gamedata.NoObject})
	engine := b.AddEntity("oil-burner", &gamedata.Entity{
		CraftingSpeed: 1,
		Energy:        gamedata.EnergySource{Type: gamedata.EnergyFluidFuel, Effectivity: 1},
	})

	// Act
	_, err := b.Build()

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []gamedata.ObjectID{oil.ID}, engine.Energy.Fuels)
}

func TestBuilder_ResolvesHeatFuelsAboveTheWorkingFloor(t *testing.T) {
	// Arrange - steam at 165 degrees cannot feed a 500 degree exchanger
	b := gamedata.NewBuilder()
	b.AddGood("steam", &gamedata.Good{IsFluid: true, HeatCapacity: 0.0002, Temperature: 165, PlaceResult: gamedata.NoObject})
	salt := b.AddGood("molten-salt", &gamedata.Good{IsFluid: true, HeatCapacity: 0.001, Temperature: 800, PlaceResult: gamedata.NoObject})
	exchanger := b.AddEntity("heat-exchanger", &gamedata.Entity{
		CraftingSpeed: 1,
		Energy: gamedata.EnergySource{
			Type:           gamedata.EnergyHeat,
			Effectivity:    1,
			MinTemperature: 500,
			MaxTemperature: 1000,
		},
	})

	// Act
	_, err := b.Build()

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []gamedata.ObjectID{salt.ID}, exchanger.Energy.Fuels)
}

func TestBuilder_SeedsMapGeneratedEntities(t *testing.T) {
	// Arrange
	b := gamedata.NewBuilder()
	ore := b.AddGood("iron-ore", &gamedata.Good{PlaceResult: gamedata.NoObject})
	patch := b.AddEntity("iron-ore-patch", &gamedata.Entity{MapGenerated: true})
	b.MarkRootAccessible(ore.ID)

	// Act
	db, err := b.Build()

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []gamedata.ObjectID{ore.ID, patch.ID}, db.RootAccessible)
	assert.Equal(t, []gamedata.ObjectID{patch.ID}, db.AutomationSeeds)
}

func TestBuilder_DefaultsAutomationSeedsToRootAccessible(t *testing.T) {
	// Arrange - nothing is map generated and no seed was marked
	b := gamedata.NewBuilder()
	ore := b.AddGood("iron-ore", &gamedata.Good{PlaceResult: gamedata.NoObject})
	coal := b.AddGood("coal", &gamedata.Good{FuelValue: 4, FuelCategory: "chemical", PlaceResult: gamedata.NoObject})
	b.MarkRootAccessible(ore.ID, coal.ID)

	// Act
	db, err := b.Build()

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []gamedata.ObjectID{ore.ID, coal.ID}, db.AutomationSeeds)
}

func TestBuilder_SelectsTheNormalQuality(t *testing.T) {
	// Arrange
	b := gamedata.NewBuilder()
	rare := &gamedata.Quality{Level: 2, Next: gamedata.NoObject, UnlockedBy: gamedata.NoObject}
	b.AddQuality("rare", rare)
	normal := &gamedata.Quality{Level: 0, UnlockedBy: gamedata.NoObject}
	b.AddQuality("normal", normal)
	normal.Next = rare.ID

	// Act
	db, err := b.Build()

	// Assert
	require.NoError(t, err)
	assert.Same(t, normal, db.NormalQuality)
	assert.True(t, normal.IsNormal())
	assert.False(t, rare.IsNormal())
}

func TestBuilder_RejectsBrokenQualityChains(t *testing.T) {
	// Arrange - the next tier points at a good and the third tier goes down a level
	b := gamedata.NewBuilder()
	ore := b.AddGood("iron-ore", &gamedata.Good{PlaceResult: gamedata.NoObject})
	b.AddQuality("normal", &gamedata.Quality{Level: 0, Next: ore.ID, UnlockedBy: gamedata.NoObject})
	rare := b.AddQuality("rare", &gamedata.Quality{Level: 2, UnlockedBy: gamedata.NoObject})
	uncommon := b.AddQuality("uncommon", &gamedata.Quality{Level: 1, Next: gamedata.NoObject, UnlockedBy: gamedata.NoObject})
	rare.Next = uncommon.ID

	// Act
	_, err := b.Build()

	// Assert
	require.Error(t, err)
	assert.ErrorContains(t, err, "quality normal: next id 0 is not a quality")
	assert.ErrorContains(t, err, "quality rare: next tier uncommon does not increase level")
}

func TestBuilder_RejectsQualitySetsWithoutANormalTier(t *testing.T) {
	// Arrange
	b := gamedata.NewBuilder()
	b.AddQuality("uncommon", &gamedata.Quality{Level: 1, Next: gamedata.NoObject, UnlockedBy: gamedata.NoObject})

	// Act
	_, err := b.Build()

	// Assert
	require.Error(t, err)
	assert.ErrorContains(t, err, "no level-0 quality defined")
}

func TestBuilder_RejectsCompetingNormalQualities(t *testing.T) {
	// Arrange
	b := gamedata.NewBuilder()
	b.AddQuality("normal", &gamedata.Quality{Level: 0, Next: gamedata.NoObject, UnlockedBy: gamedata.NoObject})
	b.AddQuality("standard", &gamedata.Quality{Level: 0, Next: gamedata.NoObject, UnlockedBy: gamedata.NoObject})

	// Act
	_, err := b.Build()

	// Assert
	require.Error(t, err)
	assert.ErrorContains(t, err, "multiple level-0 qualities: normal and standard")
}

func TestProduct_ExpectedAmountAppliesProbability(t *testing.T) {
	// Arrange
	certain := gamedata.Product{Amount: 2}
	chancy := gamedata.Product{Amount: 2, Probability: 0.25}

	// Act & Assert
	assert.InDelta(t, 2.0, certain.ExpectedAmount(), 1e-9)
	assert.InDelta(t, 0.5, chancy.ExpectedAmount(), 1e-9)
}

func TestQuality_ApplyStandardBonusScalesByLevel(t *testing.T) {
	// Arrange
	normal := gamedata.Quality{Level: 0}
	epic := gamedata.Quality{Level: 3}

	// Act & Assert
	assert.InDelta(t, 2.0, normal.ApplyStandardBonus(2), 1e-9)
	assert.InDelta(t, 3.8, epic.ApplyStandardBonus(2), 1e-9)
}

func TestParseKind_RoundTripsEveryKind(t *testing.T) {
	// Arrange
	kinds := []gamedata.Kind{
		gamedata.KindGood,
		gamedata.KindRecipe,
		gamedata.KindTechnology,
		gamedata.KindEntity,
		gamedata.KindQuality,
	}

	// Act & Assert
	for _, k := range kinds {
		parsed, ok := gamedata.ParseKind(k.String())
		require.True(t, ok)
		assert.Equal(t, k, parsed)
	}
	_, ok := gamedata.ParseKind("asteroid")
	assert.False(t, ok)
}
