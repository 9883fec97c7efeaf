// Package dataload reads declarative JSON game definitions and builds the
// immutable object database from them. Objects reference each other by name
// in the file; the loader assigns dense ids in declaration order and resolves
// every reference, reporting all problems of a broken file together.
package dataload

// definition is the root of a game definition file.
type definition struct {
	Game string `json:"game"`

	Goods        []goodDef       `json:"goods" validate:"dive"`
	Entities     []entityDef     `json:"entities" validate:"dive"`
	Recipes      []recipeDef     `json:"recipes" validate:"dive"`
	Technologies []technologyDef `json:"technologies" validate:"dive"`
	Qualities    []qualityDef    `json:"qualities" validate:"dive"`

	// RootAccessible and AutomationSeeds list objects as "kind:name"; a bare
	// name means a good.
	RootAccessible  []string `json:"rootAccessible"`
	AutomationSeeds []string `json:"automationSeeds"`

	// Win names the object whose automation completes the game.
	Win string `json:"win"`
}

type goodDef struct {
	Name         string  `json:"name" validate:"required"`
	Cost         float64 `json:"cost" validate:"min=0"`
	Fluid        bool    `json:"fluid"`
	FuelValue    float64 `json:"fuelValue" validate:"min=0"`
	FuelCategory string  `json:"fuelCategory"`
	HeatCapacity float64 `json:"heatCapacity" validate:"min=0"`
	Temperature  float64 `json:"temperature"`
	PlaceResult  string  `json:"placeResult"`

	Module *moduleDef `json:"module"`
}

type moduleDef struct {
	Speed        float64 `json:"speed"`
	Consumption  float64 `json:"consumption"`
	Productivity float64 `json:"productivity"`
	Quality      float64 `json:"quality"`
}

type entityDef struct {
	Name           string    `json:"name" validate:"required"`
	Cost           float64   `json:"cost" validate:"min=0"`
	CraftingSpeed  float64   `json:"craftingSpeed" validate:"min=0"`
	Power          float64   `json:"power" validate:"min=0"`
	ModuleSlots    int       `json:"moduleSlots" validate:"min=0"`
	MapGenerated   bool      `json:"mapGenerated"`
	ItemsToPlace   []string  `json:"itemsToPlace"`
	NeighbourBonus float64   `json:"neighbourBonus" validate:"min=0"`
	Energy         energyDef `json:"energy"`

	Beacon *beaconDef `json:"beacon"`
}

type energyDef struct {
	// Type defaults to electric.
	Type                 string   `json:"type" validate:"omitempty,oneof=electric item-fuel fluid-fuel heat void"`
	FuelCategories       []string `json:"fuelCategories"`
	Effectivity          float64  `json:"effectivity" validate:"min=0"`
	MinTemperature       float64  `json:"minTemperature"`
	MaxTemperature       float64  `json:"maxTemperature"`
	FuelConsumptionLimit float64  `json:"fuelConsumptionLimit" validate:"min=0"`
}

type beaconDef struct {
	Effectivity float64   `json:"effectivity" validate:"min=0"`
	Profile     []float64 `json:"profile"`
}

type recipeDef struct {
	Name               string          `json:"name" validate:"required"`
	Cost               float64         `json:"cost" validate:"min=0"`
	Time               float64         `json:"time" validate:"gt=0"`
	Ingredients        []ingredientDef `json:"ingredients" validate:"dive"`
	Products           []productDef    `json:"products" validate:"dive"`
	Crafters           []string        `json:"crafters"`
	SourceEntity       string          `json:"sourceEntity"`
	MaxProductivity    float64         `json:"maxProductivity" validate:"min=0"`
	Mining             bool            `json:"mining"`
	ProductivityBoosts []boostDef      `json:"productivityBoosts" validate:"dive"`
}

type ingredientDef struct {
	// Good may be empty when Variants is set; the first variant then serves
	// as the canonical good.
	Good           string   `json:"good"`
	Amount         float64  `json:"amount" validate:"gt=0"`
	Variants       []string `json:"variants"`
	MinTemperature float64  `json:"minTemperature"`
	MaxTemperature float64  `json:"maxTemperature"`
}

type productDef struct {
	Good        string  `json:"good" validate:"required"`
	Amount      float64 `json:"amount" validate:"gt=0"`
	Probability float64 `json:"probability" validate:"min=0,max=1"`
}

type boostDef struct {
	Technology string  `json:"technology" validate:"required"`
	PerLevel   float64 `json:"perLevel" validate:"gt=0"`
}

type technologyDef struct {
	Name string  `json:"name" validate:"required"`
	Cost float64 `json:"cost" validate:"min=0"`

	// Time and Ingredients describe the research effort: total seconds and
	// science packs for the whole technology.
	Time        float64         `json:"time" validate:"min=0"`
	Ingredients []ingredientDef `json:"ingredients" validate:"dive"`

	// Labs lists the entities able to research this technology.
	Labs []string `json:"labs"`

	Prerequisites    []string `json:"prerequisites"`
	ResearchTriggers []string `json:"researchTriggers"`
	Unlocks          []string `json:"unlocks"`
}

type qualityDef struct {
	Name       string  `json:"name" validate:"required"`
	Cost       float64 `json:"cost" validate:"min=0"`
	Level      int     `json:"level" validate:"min=0"`
	Next       string  `json:"next"`
	UnlockedBy string  `json:"unlockedBy"`
}
