package production

import (
	"github.com/factorlab/beltplan-go/internal/domain/gamedata"
)

// FixedMode records which quantity the user pinned on a row. The solver only
// ever sees FixedBuildings; the other modes are solved backward into a
// building count when configured, and remembered so edits to the underlying
// amount can re-derive it.
type FixedMode uint8

const (
	FixedNone FixedMode = iota
	FixedCount
	FixedFuel
	FixedIngredient
	FixedProduct
)

func (m FixedMode) String() string {
	switch m {
	case FixedCount:
		return "count"
	case FixedFuel:
		return "fuel"
	case FixedIngredient:
		return "ingredient"
	case FixedProduct:
		return "product"
	}
	return ""
}

// ParseFixedMode maps a fixed-mode name back to its value. Unknown names
// fall back to FixedNone.
func ParseFixedMode(s string) FixedMode {
	switch s {
	case "count":
		return FixedCount
	case "fuel":
		return FixedFuel
	case "ingredient":
		return FixedIngredient
	case "product":
		return FixedProduct
	}
	return FixedNone
}

// RecipeRow is one user-configured recipe or technology inside a production
// table: the chosen machine, fuel and modules, the enabled flag and optional
// pinned quantities, plus the state the last solve wrote back.
type RecipeRow struct {
	owner *ProductionTable

	Recipe *gamedata.Recipe

	// Technology is non-nil when the row researches rather than crafts;
	// Recipe then aliases the technology's embedded recipe.
	Technology *gamedata.Technology

	// Quality is the tier the recipe runs at. Item products and ingredients
	// carry this tier; fluids always stay normal.
	Quality *gamedata.Quality

	Entity        *gamedata.Entity
	EntityQuality *gamedata.Quality
	Fuel          *gamedata.Good
	FuelQuality   *gamedata.Quality
	Modules       *ModuleTemplate

	Enabled bool

	// FixedBuildings pins the row's LP variable to a fixed rate of
	// FixedBuildings/RecipeTime. Zero means unpinned.
	FixedBuildings float64
	FixedMode      FixedMode

	// FixedGood names the good for FixedFuel, FixedIngredient and
	// FixedProduct modes.
	FixedGood *gamedata.Good

	// BuiltBuildings is the user's declared actually-built count, checked
	// against the solved requirement. Zero means undeclared.
	BuiltBuildings float64

	// SubTable nests a child table under this row; the row's own recipe is
	// solved together with the child rows.
	SubTable *ProductionTable

	// Solve state, recomputed every pass.
	Params           Parameters
	RecipesPerSecond float64
	IngredientLinks  []*ProductionLink
	ProductLinks     []*ProductionLink
	FuelLink         *ProductionLink
	Warnings         WarningFlags
}

// NewRecipeRow creates an enabled row for a plain recipe.
func NewRecipeRow(recipe *gamedata.Recipe, quality *gamedata.Quality) *RecipeRow {
	return &RecipeRow{Recipe: recipe, Quality: quality, Enabled: true}
}

// NewTechnologyRow creates an enabled row researching a technology.
func NewTechnologyRow(tech *gamedata.Technology, quality *gamedata.Quality) *RecipeRow {
	return &RecipeRow{Recipe: &tech.Recipe, Technology: tech, Quality: quality, Enabled: true}
}

// IsResearch reports whether the row researches a technology.
func (r *RecipeRow) IsResearch() bool { return r.Technology != nil }

// Owner returns the table containing this row.
func (r *RecipeRow) Owner() *ProductionTable { return r.owner }

// AttachSubTable creates and returns the row's nested table. Attaching twice
// returns the existing table.
func (r *RecipeRow) AttachSubTable() *ProductionTable {
	if r.SubTable == nil {
		r.SubTable = &ProductionTable{owner: r, linkMap: map[linkKey]*ProductionLink{}}
	}
	return r.SubTable
}

// BuildingCount is the number of machines the solved rate requires.
func (r *RecipeRow) BuildingCount() float64 {
	return r.RecipesPerSecond * r.Params.RecipeTime
}

// IngredientFlow is the per-second consumption of the i-th ingredient at the
// solved rate.
func (r *RecipeRow) IngredientFlow(i int) float64 {
	return r.RecipesPerSecond * r.Recipe.Ingredients[i].Amount
}

// ProductFlow is the per-second output of the i-th product at the solved
// rate, productivity included.
func (r *RecipeRow) ProductFlow(i int) float64 {
	return r.RecipesPerSecond * r.Recipe.Products[i].ExpectedAmount() * (1 + r.Params.Productivity)
}

// FuelFlow is the per-second fuel consumption across the solved building
// count.
func (r *RecipeRow) FuelFlow() float64 {
	return r.Params.FuelUsagePerSecond * r.BuildingCount()
}

// BuildingsForProductFlow solves backward from a desired product output to
// the building count achieving it. Parameters must be computed first.
func (r *RecipeRow) BuildingsForProductFlow(product int, perSecond float64) float64 {
	perCycle := r.Recipe.Products[product].ExpectedAmount() * (1 + r.Params.Productivity)
	if perCycle <= 0 {
		return 0
	}
	return perSecond / perCycle * r.Params.RecipeTime
}

// BuildingsForIngredientFlow solves backward from a desired ingredient
// consumption to the building count causing it.
func (r *RecipeRow) BuildingsForIngredientFlow(ingredient int, perSecond float64) float64 {
	perCycle := r.Recipe.Ingredients[ingredient].Amount
	if perCycle <= 0 {
		return 0
	}
	return perSecond / perCycle * r.Params.RecipeTime
}

// BuildingsForFuelFlow solves backward from a desired fuel consumption to
// the building count causing it.
func (r *RecipeRow) BuildingsForFuelFlow(perSecond float64) float64 {
	if r.Params.FuelUsagePerSecond <= 0 {
		return 0
	}
	return perSecond / r.Params.FuelUsagePerSecond
}

// ResetSolution zeroes the row's solved state and everything beneath it.
func (r *RecipeRow) ResetSolution() {
	r.RecipesPerSecond = 0
	r.Warnings = 0
	r.IngredientLinks = nil
	r.ProductLinks = nil
	r.FuelLink = nil
	if r.SubTable != nil {
		r.SubTable.ResetSolution()
	}
}
