package dataload_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/factorlab/beltplan-go/internal/adapters/dataload"
	"github.com/factorlab/beltplan-go/internal/domain/gamedata"
	"github.com/factorlab/beltplan-go/test/helpers"
)

func writeDefinition(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "definition.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func mustGood(t *testing.T, db *gamedata.Database, name string) *gamedata.Good {
	t.Helper()
	o, ok := db.ByName(gamedata.KindGood, name)
	require.True(t, ok, "good %s not found", name)
	return o.(*gamedata.Good)
}

func mustEntity(t *testing.T, db *gamedata.Database, name string) *gamedata.Entity {
	t.Helper()
	o, ok := db.ByName(gamedata.KindEntity, name)
	require.True(t, ok, "entity %s not found", name)
	return o.(*gamedata.Entity)
}

func mustRecipe(t *testing.T, db *gamedata.Database, name string) *gamedata.Recipe {
	t.Helper()
	o, ok := db.ByName(gamedata.KindRecipe, name)
	require.True(t, ok, "recipe %s not found", name)
	return o.(*gamedata.Recipe)
}

func mustTechnology(t *testing.T, db *gamedata.Database, name string) *gamedata.Technology {
	t.Helper()
	o, ok := db.ByName(gamedata.KindTechnology, name)
	require.True(t, ok, "technology %s not found", name)
	return o.(*gamedata.Technology)
}

func TestLoader_LoadBuildsTheObjectDatabase(t *testing.T) {
	// Arrange
	path := helpers.WriteGameDefinition(t)

	// Act
	db, err := dataload.NewLoader().Load(path)

	// Assert - every section parsed and the cross-kind references resolved
	require.NoError(t, err)
	assert.Len(t, db.Goods, 14)
	assert.Len(t, db.Entities, 8)
	assert.Len(t, db.Recipes, 15)
	assert.Len(t, db.Technologies, 5)
	assert.Len(t, db.Qualities, 2)
	assert.Equal(t, 44, db.Count())

	smelting := mustRecipe(t, db, "iron-plate")
	ore := mustGood(t, db, "iron-ore")
	plate := mustGood(t, db, "iron-plate")
	furnace := mustEntity(t, db, "stone-furnace")
	require.Len(t, smelting.Ingredients, 1)
	assert.Equal(t, ore.ID, smelting.Ingredients[0].Good)
	assert.InDelta(t, 1, smelting.Ingredients[0].Amount, 1e-9)
	require.Len(t, smelting.Products, 1)
	assert.Equal(t, plate.ID, smelting.Products[0].Good)
	assert.Equal(t, []gamedata.ObjectID{furnace.ID}, smelting.Crafters)
	assert.InDelta(t, 3.2, smelting.Time, 1e-9)
	assert.InDelta(t, 1, smelting.Cost, 1e-9)

	// Assert - place results point both ways
	furnaceItem := mustGood(t, db, "stone-furnace")
	assert.Equal(t, furnace.ID, furnaceItem.PlaceResult)
	assert.Equal(t, []gamedata.ObjectID{furnaceItem.ID}, furnace.ItemsToPlace)

	// Assert - mining recipes carry their resource patch
	mining := mustRecipe(t, db, "iron-ore-mining")
	patch := mustEntity(t, db, "iron-ore-patch")
	assert.True(t, mining.IsMining)
	assert.Equal(t, patch.ID, mining.SourceEntity)

	// Assert - producer and consumer lists were inverted from the recipes
	assert.Contains(t, ore.Production, mining.ID)
	assert.Contains(t, ore.Usages, smelting.ID)
	assert.True(t, ore.HasProduction())

	// Assert - research ingredients are marked as science packs
	assert.True(t, mustGood(t, db, "automation-science-pack").IsSciencePack)
	assert.False(t, plate.IsSciencePack)
}

func TestLoader_LoadResolvesEnergySources(t *testing.T) {
	// Arrange
	path := helpers.WriteGameDefinition(t)

	// Act
	db, err := dataload.NewLoader().Load(path)
	require.NoError(t, err)

	// Assert - declared types map onto the energy enum
	character := mustEntity(t, db, "character")
	assert.Equal(t, gamedata.EnergyVoid, character.Energy.Type)

	// Assert - entities without an energy block default to electric
	assembler := mustEntity(t, db, "assembling-machine")
	assert.Equal(t, gamedata.EnergyElectric, assembler.Energy.Type)
	assert.Equal(t, 2, assembler.ModuleSlots)

	// Assert - burners get effectivity 1 and their category's fuels
	drill := mustEntity(t, db, "burner-mining-drill")
	coal := mustGood(t, db, "coal")
	assert.Equal(t, gamedata.EnergyItemFuel, drill.Energy.Type)
	assert.InDelta(t, 1, drill.Energy.Effectivity, 1e-9)
	assert.Equal(t, []gamedata.ObjectID{coal.ID}, drill.Energy.Fuels)

	// Assert - module items carry their bonus spec
	module := mustGood(t, db, "speed-module")
	require.NotNil(t, module.Module)
	assert.InDelta(t, 0.5, module.Module.Speed, 1e-9)
	assert.InDelta(t, 0.7, module.Module.Consumption, 1e-9)
}

func TestLoader_LoadResolvesTechnologiesAndQualities(t *testing.T) {
	// Arrange
	path := helpers.WriteGameDefinition(t)

	// Act
	db, err := dataload.NewLoader().Load(path)
	require.NoError(t, err)

	// Assert - labs become the crafters of the embedded research recipe
	automation := mustTechnology(t, db, "automation")
	lab := mustEntity(t, db, "lab")
	electronics := mustTechnology(t, db, "electronics")
	pack := mustGood(t, db, "automation-science-pack")
	assert.Equal(t, []gamedata.ObjectID{lab.ID}, automation.Crafters)
	require.Len(t, automation.Ingredients, 1)
	assert.Equal(t, pack.ID, automation.Ingredients[0].Good)
	assert.Equal(t, []gamedata.ObjectID{electronics.ID}, automation.Prerequisites)

	// Assert - research triggers and unlock lists resolve both directions
	cable := mustGood(t, db, "copper-cable")
	circuit := mustRecipe(t, db, "electronic-circuit")
	assert.Equal(t, []gamedata.ObjectID{cable.ID}, electronics.ResearchTriggerItems)
	assert.Equal(t, []gamedata.ObjectID{circuit.ID}, electronics.UnlockedRecipes)
	assert.Equal(t, []gamedata.ObjectID{electronics.ID}, circuit.UnlockedBy)

	// Assert - the quality ladder links upward and records its unlock
	require.NotNil(t, db.NormalQuality)
	assert.Equal(t, "normal", db.NormalQuality.Name)
	uncommon := db.NextQuality(db.NormalQuality)
	require.NotNil(t, uncommon)
	assert.Equal(t, "uncommon", uncommon.Name)
	qualityTech := mustTechnology(t, db, "quality-tech")
	assert.Equal(t, qualityTech.ID, uncommon.UnlockedBy)

	// Assert - the win condition and the accessibility seeds resolved
	modules := mustTechnology(t, db, "modules")
	assert.Equal(t, modules.ID, db.Win)
	assert.Contains(t, db.RootAccessible, mustGood(t, db, "stone-furnace").ID)
	assert.Contains(t, db.RootAccessible, mustEntity(t, db, "iron-ore-patch").ID)
	assert.Contains(t, db.AutomationSeeds, mustEntity(t, db, "coal-patch").ID)
}

func TestLoader_LoadMapsOptionalSchemaFields(t *testing.T) {
	// Arrange - a definition exercising the rarer schema corners
	path := writeDefinition(t, `{
		"game": "corners",
		"goods": [
			{"name": "wood", "fuelValue": 2, "fuelCategory": "chemical"},
			{"name": "coal", "fuelValue": 4, "fuelCategory": "chemical"},
			{"name": "iron-plate"},
			{"name": "iron-gear"}
		],
		"entities": [
			{"name": "assembler", "craftingSpeed": 1},
			{"name": "beacon", "beacon": {"effectivity": 0.5, "profile": [1, 0.7071]}}
		],
		"recipes": [
			{"name": "gears", "time": 0.5,
			 "ingredients": [{"variants": ["wood", "coal"], "amount": 1},
			                 {"good": "iron-plate", "amount": 2, "minTemperature": 15, "maxTemperature": 100}],
			 "products": [{"good": "iron-gear", "amount": 1, "probability": 0.5}],
			 "crafters": ["assembler"], "maxProductivity": 0.4,
			 "productivityBoosts": [{"technology": "gear-prod", "perLevel": 0.1}]}
		],
		"technologies": [
			{"name": "gear-prod", "time": 10,
			 "ingredients": [{"good": "iron-gear", "amount": 5}], "labs": ["assembler"]}
		]
	}`)

	// Act
	db, err := dataload.NewLoader().Load(path)
	require.NoError(t, err)

	// Assert - variant ingredients keep the full list and lead with the first
	gears := mustRecipe(t, db, "gears")
	wood := mustGood(t, db, "wood")
	coal := mustGood(t, db, "coal")
	require.Len(t, gears.Ingredients, 2)
	assert.Equal(t, []gamedata.ObjectID{wood.ID, coal.ID}, gears.Ingredients[0].Variants)
	assert.Equal(t, wood.ID, gears.Ingredients[0].Good)

	// Assert - temperature windows and probabilities survive the parse
	assert.InDelta(t, 15, gears.Ingredients[1].MinTemperature, 1e-9)
	assert.InDelta(t, 100, gears.Ingredients[1].MaxTemperature, 1e-9)
	assert.InDelta(t, 0.5, gears.Products[0].Probability, 1e-9)
	assert.InDelta(t, 0.4, gears.MaxProductivity, 1e-9)

	// Assert - productivity boosts bind to their technology
	tech := mustTechnology(t, db, "gear-prod")
	require.Len(t, gears.ProductivityBoosts, 1)
	assert.Equal(t, tech.ID, gears.ProductivityBoosts[0].Technology)
	assert.InDelta(t, 0.1, gears.ProductivityBoosts[0].PerLevel, 1e-9)

	// Assert - both variants register the recipe as a consumer
	assert.Contains(t, wood.Usages, gears.ID)
	assert.Contains(t, coal.Usages, gears.ID)

	// Assert - beacon entities carry their transmission spec
	beacon := mustEntity(t, db, "beacon")
	require.NotNil(t, beacon.Beacon)
	assert.InDelta(t, 0.5, beacon.Beacon.Effectivity, 1e-9)
	assert.Equal(t, []float64{1, 0.7071}, beacon.Beacon.Profile)
}

func TestLoader_LoadReportsMissingFiles(t *testing.T) {
	// Act
	_, err := dataload.NewLoader().Load(filepath.Join(t.TempDir(), "absent.json"))

	// Assert
	assert.ErrorContains(t, err, "reading game definition")
}

func TestLoader_LoadRejectsMalformedJSON(t *testing.T) {
	// Arrange
	path := writeDefinition(t, `{"game": "broken", "goods": [`)

	// Act
	_, err := dataload.NewLoader().Load(path)

	// Assert
	assert.ErrorContains(t, err, "parsing game definition")
}

func TestLoader_LoadValidatesTheSchema(t *testing.T) {
	// Arrange - a recipe without a time fails the gt=0 constraint
	path := writeDefinition(t, `{
		"game": "invalid",
		"goods": [{"name": "ore"}],
		"recipes": [{"name": "mining", "products": [{"good": "ore", "amount": 1}]}]
	}`)

	// Act
	_, err := dataload.NewLoader().Load(path)

	// Assert
	assert.ErrorContains(t, err, "invalid game definition")
}

func TestLoader_LoadCollectsUnresolvedReferences(t *testing.T) {
	// Arrange - one recipe with two dangling references
	path := writeDefinition(t, `{
		"game": "dangling",
		"goods": [{"name": "iron-plate"}],
		"recipes": [
			{"name": "iron-smelting", "time": 3.2,
			 "ingredients": [{"good": "unobtainium", "amount": 1}],
			 "products": [{"good": "iron-plate", "amount": 1}],
			 "crafters": ["ghost-machine"]}
		]
	}`)

	// Act
	_, err := dataload.NewLoader().Load(path)

	// Assert - both problems are reported in one pass
	assert.ErrorContains(t, err, "resolving game definition")
	assert.ErrorContains(t, err, `iron-smelting: unknown good "unobtainium"`)
	assert.ErrorContains(t, err, `iron-smelting: unknown entity "ghost-machine"`)
}

func TestLoader_LoadSurfacesDatabaseBuildErrors(t *testing.T) {
	// Arrange - duplicate names pass the schema but fail the build
	path := writeDefinition(t, `{
		"game": "twins",
		"goods": [{"name": "iron-ore"}, {"name": "iron-ore"}]
	}`)

	// Act
	_, err := dataload.NewLoader().Load(path)

	// Assert
	assert.ErrorContains(t, err, "game definition")
	assert.ErrorContains(t, err, `duplicate good name "iron-ore"`)
}
