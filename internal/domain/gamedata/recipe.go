package gamedata

// Ingredient is one consumed good of a recipe. Variants, when present, list
// interchangeable substitutes for the canonical good; the recipe is craftable
// with any one of them.
type Ingredient struct {
	Good   ObjectID
	Amount float64

	// Variants lists acceptable substitute goods. Empty for ordinary
	// ingredients. When non-empty, Good is the canonical (first) variant.
	Variants []ObjectID

	// Accepted fluid temperature range. Both zero means unrestricted.
	MinTemperature float64
	MaxTemperature float64
}

// HasTemperatureRange reports whether the ingredient restricts the accepted
// fluid temperature.
func (i *Ingredient) HasTemperatureRange() bool {
	return i.MinTemperature != 0 || i.MaxTemperature != 0
}

// AcceptsTemperature reports whether a fluid produced at the given
// temperature satisfies this ingredient.
func (i *Ingredient) AcceptsTemperature(t float64) bool {
	if !i.HasTemperatureRange() {
		return true
	}
	return t >= i.MinTemperature && t <= i.MaxTemperature
}

// Product is one produced good of a recipe. Amount is the nominal per-cycle
// output; Probability scales it for probabilistic outputs.
type Product struct {
	Good        ObjectID
	Amount      float64
	Probability float64
}

// ExpectedAmount is the average output per recipe cycle.
func (p *Product) ExpectedAmount() float64 {
	if p.Probability == 0 {
		return p.Amount
	}
	return p.Amount * p.Probability
}

// ProductivityBoost grants extra productivity to a recipe per researched
// level of a technology.
type ProductivityBoost struct {
	Technology ObjectID
	PerLevel   float64
}

// Recipe describes one transformation of goods. Technologies embed Recipe:
// research time and science-pack ingredients reuse the same fields.
type Recipe struct {
	ObjectInfo

	// Time is the base crafting time in seconds at crafting speed 1.
	Time float64

	Ingredients []Ingredient
	Products    []Product

	// Crafters lists the entities able to run this recipe.
	Crafters []ObjectID

	// SourceEntity is a map structure the recipe additionally requires
	// (an ore patch type, a pumping source), or NoObject.
	SourceEntity ObjectID

	// UnlockedBy lists the technologies enabling this recipe. Empty means
	// available from the start. Filled in by the database build from
	// Technology.UnlockedRecipes.
	UnlockedBy []ObjectID

	// MaxProductivity caps the total productivity bonus applicable to this
	// recipe.
	MaxProductivity float64

	// IsMining marks resource-extraction recipes, which receive the global
	// mining productivity bonus.
	IsMining bool

	// ProductivityBoosts lists technologies granting per-level productivity
	// to this recipe.
	ProductivityBoosts []ProductivityBoost
}

// ProducesGood reports whether the recipe has the good among its products.
func (r *Recipe) ProducesGood(id ObjectID) bool {
	for i := range r.Products {
		if r.Products[i].Good == id {
			return true
		}
	}
	return false
}

// ConsumesGood reports whether the recipe has the good among its ingredients
// or their variants.
func (r *Recipe) ConsumesGood(id ObjectID) bool {
	for i := range r.Ingredients {
		ing := &r.Ingredients[i]
		if ing.Good == id {
			return true
		}
		for _, v := range ing.Variants {
			if v == id {
				return true
			}
		}
	}
	return false
}
