package gamedata

// EnergyType discriminates how an entity is powered.
type EnergyType uint8

const (
	// EnergyElectric draws from the power grid; no fuel good is consumed.
	EnergyElectric EnergyType = iota
	// EnergyItemFuel burns item fuels from the listed fuel categories.
	EnergyItemFuel
	// EnergyFluidFuel burns a fluid with a positive fuel value.
	EnergyFluidFuel
	// EnergyHeat consumes a hot fluid; usable energy comes from the fluid's
	// temperature above the working floor, not a fuel value.
	EnergyHeat
	// EnergyVoid needs no fuel at all.
	EnergyVoid
)

// EnergySource describes how an entity obtains the power it works with.
type EnergySource struct {
	Type EnergyType

	// FuelCategories restricts item fuel to matching Good.FuelCategory
	// values. Only meaningful for EnergyItemFuel.
	FuelCategories []string

	// Fuels is resolved during the database build: every good this source
	// can burn or consume, in good id order.
	Fuels []ObjectID

	// Effectivity multiplies the energy extracted per fuel unit.
	Effectivity float64

	// Working temperature window for EnergyHeat. Energy per fluid unit is
	// (min(fluid temperature, MaxTemperature) - MinTemperature) * heat capacity.
	MinTemperature float64
	MaxTemperature float64

	// FuelConsumptionLimit caps fuel units consumed per second. Zero means
	// unlimited. When the cap binds, the entity runs proportionally slower.
	FuelConsumptionLimit float64
}

// RequiresFuel reports whether the source consumes a fuel good.
func (e *EnergySource) RequiresFuel() bool {
	switch e.Type {
	case EnergyItemFuel, EnergyFluidFuel, EnergyHeat:
		return true
	}
	return false
}

// BeaconSpec is present on entities acting as effect beacons.
type BeaconSpec struct {
	// Effectivity is the fraction of module effects a beacon transmits.
	Effectivity float64

	// Profile scales transmitted effects by the number of beacons affecting
	// the machine: Profile[n-1] applies when n beacons are present, the last
	// entry applies beyond the list.
	Profile []float64
}

// ProfileFor returns the diminishing multiplier for the given beacon count.
func (b *BeaconSpec) ProfileFor(count int) float64 {
	if len(b.Profile) == 0 || count <= 0 {
		return 1
	}
	if count > len(b.Profile) {
		count = len(b.Profile)
	}
	return b.Profile[count-1]
}

// Entity is a placeable machine: a crafter, lab, drill, reactor or beacon.
type Entity struct {
	ObjectInfo

	CraftingSpeed float64

	// Power is the energy drawn while working, in MW.
	Power float64

	Energy EnergySource

	ModuleSlots int

	// MapGenerated entities exist on the map without being built (ore
	// patches, water tiles). They seed accessibility.
	MapGenerated bool

	// ItemsToPlace lists the items that construct this entity. Empty for
	// map-generated structures.
	ItemsToPlace []ObjectID

	// NeighbourBonus is the reactor adjacency bonus per adjacent reactor.
	// Zero for non-reactors.
	NeighbourBonus float64

	// Beacon is non-nil when the entity is an effect beacon.
	Beacon *BeaconSpec
}
