package gamedata

// ModuleSpec describes the per-machine effect bonuses of a module item.
// Values are fractional bonuses (0.2 means +20%); consumption is usually
// positive for speed modules and negative for efficiency modules.
type ModuleSpec struct {
	Speed        float64
	Consumption  float64
	Productivity float64
	Quality      float64
}

// Good is an item or fluid that recipes consume and produce.
type Good struct {
	ObjectInfo

	IsFluid bool

	// FuelValue is the energy in MJ released when one unit is burned.
	// Zero means the good is not a chemical fuel.
	FuelValue float64

	// FuelCategory groups burnable items with the burners that accept them.
	// Empty for goods that are not item fuel.
	FuelCategory string

	// HeatCapacity is the energy in MJ stored per unit per degree above the
	// consumer's working-temperature floor. Only meaningful for fluids
	// feeding heat-driven entities.
	HeatCapacity float64

	// Temperature is the temperature the fluid is produced at. Zero for items.
	Temperature float64

	// Module is non-nil when the item is a machine module.
	Module *ModuleSpec

	// PlaceResult is the entity this item constructs when placed, or NoObject.
	PlaceResult ObjectID

	// Production and Usages are filled in by the database build: every recipe
	// producing and consuming this good, in recipe id order.
	Production []ObjectID
	Usages     []ObjectID

	// IsSciencePack is set during the database build when any technology
	// consumes this good as a research ingredient.
	IsSciencePack bool
}

// HasProduction reports whether at least one recipe produces this good.
func (g *Good) HasProduction() bool { return len(g.Production) > 0 }
