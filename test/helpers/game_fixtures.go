package helpers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/factorlab/beltplan-go/internal/adapters/dataload"
	"github.com/factorlab/beltplan-go/internal/domain/gamedata"
)

// GameDefinitionJSON is the small game definition shared by integration
// tests: a hand-minable ore field bootstrapping into furnaces, circuits and
// labs, with three technologies gating the later half of the chain and one
// deliberately unreachable good (alien-artifact).
//
// Accessibility shape, for assertions:
//   - coal, iron-ore and copper-ore are hand-minable from the start
//   - electronics completes via the copper-cable crafting trigger
//   - automation needs a lab, which needs electronic circuits
//   - speed-module sits behind electronics -> automation -> modules
//   - alien-artifact is never accessible: its only producer is locked behind
//     xenobiology, which triggers on obtaining an alien-artifact
//   - alien-research and artifact-synthesis form a lossy production loop
//     (1 artifact -> 5 packs, 10 packs -> 1 artifact) for solver diagnosis
const GameDefinitionJSON = `{
  "game": "testgame",
  "goods": [
    {"name": "iron-ore", "cost": 1},
    {"name": "copper-ore", "cost": 1},
    {"name": "coal", "cost": 1, "fuelValue": 4, "fuelCategory": "chemical"},
    {"name": "iron-plate", "cost": 2},
    {"name": "copper-plate", "cost": 2},
    {"name": "copper-cable", "cost": 1},
    {"name": "electronic-circuit", "cost": 8},
    {"name": "automation-science-pack", "cost": 10},
    {"name": "stone-furnace", "cost": 4, "placeResult": "stone-furnace"},
    {"name": "burner-mining-drill", "cost": 8, "placeResult": "burner-mining-drill"},
    {"name": "assembling-machine", "cost": 30, "placeResult": "assembling-machine"},
    {"name": "lab", "cost": 50, "placeResult": "lab"},
    {"name": "speed-module", "cost": 60, "module": {"speed": 0.5, "consumption": 0.7}},
    {"name": "alien-artifact", "cost": 1000}
  ],
  "entities": [
    {"name": "iron-ore-patch", "mapGenerated": true},
    {"name": "copper-ore-patch", "mapGenerated": true},
    {"name": "coal-patch", "mapGenerated": true},
    {"name": "character", "craftingSpeed": 1, "energy": {"type": "void"}},
    {"name": "burner-mining-drill", "craftingSpeed": 0.25, "itemsToPlace": ["burner-mining-drill"],
     "energy": {"type": "item-fuel", "fuelCategories": ["chemical"]}, "power": 0.15},
    {"name": "stone-furnace", "craftingSpeed": 1, "itemsToPlace": ["stone-furnace"],
     "energy": {"type": "item-fuel", "fuelCategories": ["chemical"]}, "power": 0.09},
    {"name": "assembling-machine", "craftingSpeed": 0.75, "power": 0.1, "moduleSlots": 2,
     "itemsToPlace": ["assembling-machine"]},
    {"name": "lab", "craftingSpeed": 1, "power": 0.06, "itemsToPlace": ["lab"]}
  ],
  "recipes": [
    {"name": "iron-ore-mining", "time": 2, "mining": true,
     "products": [{"good": "iron-ore", "amount": 1}],
     "crafters": ["burner-mining-drill", "character"], "sourceEntity": "iron-ore-patch"},
    {"name": "copper-ore-mining", "time": 2, "mining": true,
     "products": [{"good": "copper-ore", "amount": 1}],
     "crafters": ["burner-mining-drill", "character"], "sourceEntity": "copper-ore-patch"},
    {"name": "coal-mining", "time": 2, "mining": true,
     "products": [{"good": "coal", "amount": 1}],
     "crafters": ["burner-mining-drill", "character"], "sourceEntity": "coal-patch"},
    {"name": "iron-plate", "time": 3.2, "cost": 1,
     "ingredients": [{"good": "iron-ore", "amount": 1}],
     "products": [{"good": "iron-plate", "amount": 1}],
     "crafters": ["stone-furnace"]},
    {"name": "copper-plate", "time": 3.2, "cost": 1,
     "ingredients": [{"good": "copper-ore", "amount": 1}],
     "products": [{"good": "copper-plate", "amount": 1}],
     "crafters": ["stone-furnace"]},
    {"name": "copper-cable", "time": 0.5, "cost": 1,
     "ingredients": [{"good": "copper-plate", "amount": 1}],
     "products": [{"good": "copper-cable", "amount": 2}],
     "crafters": ["assembling-machine", "character"]},
    {"name": "electronic-circuit", "time": 0.5, "cost": 2,
     "ingredients": [{"good": "iron-plate", "amount": 1}, {"good": "copper-cable", "amount": 3}],
     "products": [{"good": "electronic-circuit", "amount": 1}],
     "crafters": ["assembling-machine", "character"]},
    {"name": "automation-science-pack", "time": 5, "cost": 3,
     "ingredients": [{"good": "copper-plate", "amount": 1}, {"good": "iron-plate", "amount": 2}],
     "products": [{"good": "automation-science-pack", "amount": 1}],
     "crafters": ["assembling-machine", "character"]},
    {"name": "stone-furnace", "time": 0.5, "cost": 1,
     "ingredients": [{"good": "iron-plate", "amount": 2}],
     "products": [{"good": "stone-furnace", "amount": 1}],
     "crafters": ["character"]},
    {"name": "burner-mining-drill", "time": 2, "cost": 1,
     "ingredients": [{"good": "iron-plate", "amount": 3}, {"good": "stone-furnace", "amount": 1}],
     "products": [{"good": "burner-mining-drill", "amount": 1}],
     "crafters": ["character"]},
    {"name": "assembling-machine", "time": 2, "cost": 2,
     "ingredients": [{"good": "electronic-circuit", "amount": 3}, {"good": "iron-plate", "amount": 9}],
     "products": [{"good": "assembling-machine", "amount": 1}],
     "crafters": ["assembling-machine", "character"]},
    {"name": "lab", "time": 2, "cost": 2,
     "ingredients": [{"good": "electronic-circuit", "amount": 10}, {"good": "iron-plate", "amount": 10}],
     "products": [{"good": "lab", "amount": 1}],
     "crafters": ["character"]},
    {"name": "speed-module", "time": 15, "cost": 5,
     "ingredients": [{"good": "electronic-circuit", "amount": 5}],
     "products": [{"good": "speed-module", "amount": 1}],
     "crafters": ["assembling-machine"]},
    {"name": "alien-research", "time": 10, "cost": 1,
     "ingredients": [{"good": "alien-artifact", "amount": 1}],
     "products": [{"good": "automation-science-pack", "amount": 5}],
     "crafters": ["lab"]},
    {"name": "artifact-synthesis", "time": 30, "cost": 4,
     "ingredients": [{"good": "automation-science-pack", "amount": 10}],
     "products": [{"good": "alien-artifact", "amount": 1}],
     "crafters": ["lab"]}
  ],
  "technologies": [
    {"name": "electronics", "researchTriggers": ["copper-cable"],
     "unlocks": ["electronic-circuit"]},
    {"name": "automation", "time": 10,
     "ingredients": [{"good": "automation-science-pack", "amount": 10}],
     "labs": ["lab"], "prerequisites": ["electronics"],
     "unlocks": ["assembling-machine"]},
    {"name": "modules", "time": 15,
     "ingredients": [{"good": "automation-science-pack", "amount": 20}],
     "labs": ["lab"], "prerequisites": ["automation"],
     "unlocks": ["speed-module"]},
    {"name": "quality-tech", "time": 15,
     "ingredients": [{"good": "automation-science-pack", "amount": 15}],
     "labs": ["lab"], "prerequisites": ["automation"]},
    {"name": "xenobiology", "researchTriggers": ["alien-artifact"],
     "unlocks": ["artifact-synthesis"]}
  ],
  "qualities": [
    {"name": "normal", "level": 0, "next": "uncommon"},
    {"name": "uncommon", "level": 1, "unlockedBy": "quality-tech"}
  ],
  "rootAccessible": ["stone-furnace", "burner-mining-drill"],
  "win": "technology:modules"
}`

// WriteGameDefinition writes the shared definition into a temp directory and
// returns its path.
func WriteGameDefinition(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "definition.json")
	if err := os.WriteFile(path, []byte(GameDefinitionJSON), 0o644); err != nil {
		t.Fatalf("failed to write game definition: %v", err)
	}
	return path
}

// LoadTestDatabase parses the shared definition through the real loader.
func LoadTestDatabase(t *testing.T) *gamedata.Database {
	t.Helper()
	db, err := dataload.NewLoader().Load(WriteGameDefinition(t))
	if err != nil {
		t.Fatalf("failed to load game definition: %v", err)
	}
	return db
}
