package production

import (
	"github.com/factorlab/beltplan-go/internal/domain/gamedata"
)

const (
	// defaultMaxProductivity caps the productivity bonus of recipes that do
	// not declare their own cap.
	defaultMaxProductivity = 3.0

	// Machine speed and energy draw cannot drop below 20% of base no matter
	// how many penalty modules are installed.
	minSpeedMultiplier       = 0.2
	minConsumptionMultiplier = 0.2
)

// Parameters is the effective per-building behaviour of one row: recipe
// time, fuel and energy draw, and the aggregated bonus multipliers. It is
// recomputed from the row configuration on every solve pass.
type Parameters struct {
	// RecipeTime is the effective seconds per craft, all speed effects
	// applied.
	RecipeTime float64

	// FuelUsagePerSecond is fuel units consumed per second per building.
	FuelUsagePerSecond float64

	// EnergyUsage is the power draw per building in MW, consumption effects
	// applied.
	EnergyUsage float64

	// Productivity is the fractional bonus multiplying product output.
	Productivity float64

	SpeedMultiplier       float64
	ConsumptionMultiplier float64

	// QualityBonus is the aggregate quality chance bonus from modules.
	QualityBonus float64

	Warnings WarningFlags
}

// Bonuses carries the global project settings the calculator reads.
type Bonuses struct {
	MiningProductivity   float64
	ResearchSpeed        float64
	ResearchProductivity float64

	// TechnologyLevels maps technology ids to researched productivity
	// levels.
	TechnologyLevels map[gamedata.ObjectID]int

	// Reactor grid dimensions, for the neighbour bonus.
	ReactorSizeX int
	ReactorSizeY int
}

// CalculateParameters computes a row's effective parameters. It is a pure
// function of the row configuration, the global bonuses and quality
// accessibility, and it never fails: a missing entity or fuel yields a
// degraded result with explanatory warning bits instead of an error.
func CalculateParameters(db *gamedata.Database, row *RecipeRow, bonuses Bonuses, qualityAccessible func(*gamedata.Quality) bool) Parameters {
	p := Parameters{SpeedMultiplier: 1, ConsumptionMultiplier: 1}
	recipe := row.Recipe

	speed := 1.0
	power := 0.0
	if row.Entity == nil {
		p.Warnings |= WarnEntityNotSpecified
	} else {
		speed = row.Entity.CraftingSpeed
		if row.EntityQuality != nil {
			speed = row.EntityQuality.ApplyStandardBonus(speed)
		}
		if speed <= 0 {
			speed = 1
		}
		power = row.Entity.Power
	}
	p.RecipeTime = recipe.Time / speed
	if row.IsResearch() && bonuses.ResearchSpeed > 0 {
		p.RecipeTime /= 1 + bonuses.ResearchSpeed
	}

	fuelEnergy := 0.0
	needsFuel := false
	if row.Entity != nil && row.Entity.Energy.RequiresFuel() {
		needsFuel = true
		if row.Fuel == nil {
			p.Warnings |= WarnFuelNotSpecified
		} else {
			fuelEnergy = fuelEnergyPerUnit(&row.Entity.Energy, row.Fuel)
			if fuelEnergy <= 0 {
				p.Warnings |= WarnFuelDoesNotProvideEnergy
			}
		}
	}

	for i := range recipe.Ingredients {
		ing := &recipe.Ingredients[i]
		if !ing.HasTemperatureRange() {
			continue
		}
		good := db.GoodByID(ing.Good)
		if good.IsFluid && !ing.AcceptsTemperature(good.Temperature) {
			p.Warnings |= WarnTemperatureOutOfRange
		}
	}

	prod := 0.0
	if recipe.IsMining {
		prod += bonuses.MiningProductivity
	}
	if row.IsResearch() {
		prod += bonuses.ResearchProductivity
	}
	for _, boost := range recipe.ProductivityBoosts {
		if level := bonuses.TechnologyLevels[boost.Technology]; level > 0 {
			prod += boost.PerLevel * float64(level)
		}
	}
	if row.Entity != nil && row.Entity.NeighbourBonus > 0 {
		prod += row.Entity.NeighbourBonus * averageReactorNeighbours(bonuses.ReactorSizeX, bonuses.ReactorSizeY)
	}

	effects := moduleEffects(db, row, qualityAccessible, &p)
	prod += effects.productivity

	cap := recipe.MaxProductivity
	if cap <= 0 {
		cap = defaultMaxProductivity
	}
	if prod > cap {
		prod = cap
		p.Warnings |= WarnProductivityClamped
	}
	p.Productivity = prod

	p.SpeedMultiplier = 1 + effects.speed
	if p.SpeedMultiplier < minSpeedMultiplier {
		p.SpeedMultiplier = minSpeedMultiplier
	}
	p.ConsumptionMultiplier = 1 + effects.consumption
	if p.ConsumptionMultiplier < minConsumptionMultiplier {
		p.ConsumptionMultiplier = minConsumptionMultiplier
	}
	p.QualityBonus = effects.quality

	p.RecipeTime /= p.SpeedMultiplier
	p.EnergyUsage = power * p.ConsumptionMultiplier

	if needsFuel && fuelEnergy > 0 {
		p.FuelUsagePerSecond = p.EnergyUsage / fuelEnergy
		limit := row.Entity.Energy.FuelConsumptionLimit
		if limit > 0 && p.FuelUsagePerSecond > limit {
			// The entity cannot burn fuel fast enough; it runs slower in
			// proportion.
			p.RecipeTime *= p.FuelUsagePerSecond / limit
			p.FuelUsagePerSecond = limit
			p.EnergyUsage = limit * fuelEnergy
			p.Warnings |= WarnFuelUsageLimited
		}
	}
	return p
}

// fuelEnergyPerUnit is the usable energy of one fuel unit in MJ. Heat
// consumers draw energy from the fluid's temperature above the working
// floor, clamped to the entity's maximum working temperature; everything
// else burns the fuel value.
func fuelEnergyPerUnit(energy *gamedata.EnergySource, fuel *gamedata.Good) float64 {
	if energy.Type == gamedata.EnergyHeat {
		usable := fuel.Temperature
		if energy.MaxTemperature > 0 && usable > energy.MaxTemperature {
			usable = energy.MaxTemperature
		}
		delta := usable - energy.MinTemperature
		if delta <= 0 {
			return 0
		}
		return delta * fuel.HeatCapacity * effectivity(energy)
	}
	return fuel.FuelValue * effectivity(energy)
}

func effectivity(energy *gamedata.EnergySource) float64 {
	if energy.Effectivity <= 0 {
		return 1
	}
	return energy.Effectivity
}

// averageReactorNeighbours is the mean adjacency count in an x by y reactor
// grid: interior reactors touch more neighbours than edge reactors.
func averageReactorNeighbours(x, y int) float64 {
	if x < 1 {
		x = 1
	}
	if y < 1 {
		y = 1
	}
	adjacencies := 2*(x-1)*y + 2*(y-1)*x
	return float64(adjacencies) / float64(x*y)
}

type effectTotals struct {
	speed        float64
	consumption  float64
	productivity float64
	quality      float64
}

// moduleEffects aggregates the row's module template and beacons into one
// effect total. Quality tiers improve beneficial effect magnitudes only.
func moduleEffects(db *gamedata.Database, row *RecipeRow, qualityAccessible func(*gamedata.Quality) bool, p *Parameters) effectTotals {
	var totals effectTotals
	tmpl := row.Modules
	if tmpl.IsEmpty() || row.Entity == nil {
		return totals
	}

	add := func(spec *gamedata.ModuleSpec, quality *gamedata.Quality, count int, scale float64) {
		bonus := 0.0
		if quality != nil {
			bonus = quality.StandardBonus()
		}
		f := float64(count) * scale
		totals.speed += scaleBeneficial(spec.Speed, bonus) * f
		totals.consumption += scalePenalty(spec.Consumption, bonus) * f
		totals.productivity += scaleBeneficial(spec.Productivity, bonus) * f
		totals.quality += scaleBeneficial(spec.Quality, bonus) * f
	}

	slots := row.Entity.ModuleSlots
	used := 0
	for _, entry := range tmpl.Modules {
		if entry.Module == nil || entry.Module.Module == nil {
			continue
		}
		count := entry.Count
		if used+count > slots {
			count = slots - used
		}
		if count <= 0 {
			continue
		}
		used += count
		add(entry.Module.Module, entry.Quality, count, 1)
	}
	if tmpl.FillerModule != nil && tmpl.FillerModule.Module != nil && used < slots {
		add(tmpl.FillerModule.Module, nil, slots-used, 1)
	}
	if b := tmpl.Beacon; b != nil && b.Entity != nil && b.Entity.Beacon != nil && b.Count > 0 {
		spec := b.Entity.Beacon
		scale := spec.Effectivity * spec.ProfileFor(b.Count)
		for _, entry := range b.Modules {
			if entry.Module == nil || entry.Module.Module == nil {
				continue
			}
			add(entry.Module.Module, entry.Quality, entry.Count*b.Count, scale)
		}
	}

	if totals.quality > 0 {
		next := nextQuality(db, row.Quality)
		if next == nil || !qualityAccessible(next) {
			p.Warnings |= WarnUselessQualityModules
		}
	}
	return totals
}

func nextQuality(db *gamedata.Database, q *gamedata.Quality) *gamedata.Quality {
	if q == nil {
		q = db.NormalQuality
	}
	if q == nil {
		return nil
	}
	return db.NextQuality(q)
}

// scaleBeneficial improves positive effect values by the quality bonus and
// leaves penalties alone.
func scaleBeneficial(v, bonus float64) float64 {
	if v > 0 {
		return v * (1 + bonus)
	}
	return v
}

// scalePenalty improves negative consumption values (energy savings) by the
// quality bonus and leaves positive draw increases alone.
func scalePenalty(v, bonus float64) float64 {
	if v < 0 {
		return v * (1 + bonus)
	}
	return v
}
