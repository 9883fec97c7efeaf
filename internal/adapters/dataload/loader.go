package dataload

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/factorlab/beltplan-go/internal/adapters/metrics"
	"github.com/factorlab/beltplan-go/internal/domain/gamedata"
)

// Loader parses game definition files into object databases.
type Loader struct {
	validate *validator.Validate
}

// NewLoader creates a new Loader.
func NewLoader() *Loader {
	return &Loader{validate: validator.New()}
}

// Load reads, validates and builds the definition at path.
func (l *Loader) Load(path string) (*gamedata.Database, error) {
	started := time.Now()
	db, err := l.load(path)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.RecordLoad(status, time.Since(started).Seconds())
	return db, err
}

func (l *Loader) load(path string) (*gamedata.Database, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading game definition: %w", err)
	}

	var def definition
	if err := json.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("parsing game definition %s: %w", path, err)
	}
	if err := l.validate.Struct(&def); err != nil {
		return nil, fmt.Errorf("invalid game definition %s: %w", path, err)
	}

	r := newResolver()
	r.registerAll(&def)
	r.resolveAll(&def)
	if len(r.errs) > 0 {
		return nil, fmt.Errorf("resolving game definition %s: %w", path, errors.Join(r.errs...))
	}

	db, err := r.builder.Build()
	if err != nil {
		return nil, fmt.Errorf("game definition %s: %w", path, err)
	}
	return db, nil
}

// resolver owns the two-pass name resolution: registration assigns every
// object its id, resolution rewrites name references into ids.
type resolver struct {
	builder *gamedata.Builder
	errs    []error

	goods     map[string]*gamedata.Good
	entities  map[string]*gamedata.Entity
	recipes   map[string]*gamedata.Recipe
	techs     map[string]*gamedata.Technology
	qualities map[string]*gamedata.Quality
}

func newResolver() *resolver {
	return &resolver{
		builder:   gamedata.NewBuilder(),
		goods:     map[string]*gamedata.Good{},
		entities:  map[string]*gamedata.Entity{},
		recipes:   map[string]*gamedata.Recipe{},
		techs:     map[string]*gamedata.Technology{},
		qualities: map[string]*gamedata.Quality{},
	}
}

func (r *resolver) registerAll(def *definition) {
	for i := range def.Goods {
		d := &def.Goods[i]
		g := &gamedata.Good{
			IsFluid:      d.Fluid,
			FuelValue:    d.FuelValue,
			FuelCategory: d.FuelCategory,
			HeatCapacity: d.HeatCapacity,
			Temperature:  d.Temperature,
			PlaceResult:  gamedata.NoObject,
		}
		g.Cost = d.Cost
		if d.Module != nil {
			g.Module = &gamedata.ModuleSpec{
				Speed:        d.Module.Speed,
				Consumption:  d.Module.Consumption,
				Productivity: d.Module.Productivity,
				Quality:      d.Module.Quality,
			}
		}
		r.goods[d.Name] = r.builder.AddGood(d.Name, g)
	}
	for i := range def.Entities {
		d := &def.Entities[i]
		e := &gamedata.Entity{
			CraftingSpeed:  d.CraftingSpeed,
			Power:          d.Power,
			ModuleSlots:    d.ModuleSlots,
			MapGenerated:   d.MapGenerated,
			NeighbourBonus: d.NeighbourBonus,
			Energy:         r.energySource(d),
		}
		e.Cost = d.Cost
		if d.Beacon != nil {
			e.Beacon = &gamedata.BeaconSpec{
				Effectivity: d.Beacon.Effectivity,
				Profile:     append([]float64(nil), d.Beacon.Profile...),
			}
		}
		r.entities[d.Name] = r.builder.AddEntity(d.Name, e)
	}
	for i := range def.Recipes {
		d := &def.Recipes[i]
		rec := &gamedata.Recipe{
			Time:            d.Time,
			SourceEntity:    gamedata.NoObject,
			MaxProductivity: d.MaxProductivity,
			IsMining:        d.Mining,
		}
		rec.Cost = d.Cost
		r.recipes[d.Name] = r.builder.AddRecipe(d.Name, rec)
	}
	for i := range def.Technologies {
		d := &def.Technologies[i]
		t := &gamedata.Technology{}
		t.Time = d.Time
		t.Cost = d.Cost
		t.SourceEntity = gamedata.NoObject
		r.techs[d.Name] = r.builder.AddTechnology(d.Name, t)
	}
	for i := range def.Qualities {
		d := &def.Qualities[i]
		q := &gamedata.Quality{
			Level:      d.Level,
			Next:       gamedata.NoObject,
			UnlockedBy: gamedata.NoObject,
		}
		q.Cost = d.Cost
		r.qualities[d.Name] = r.builder.AddQuality(d.Name, q)
	}
}

func (r *resolver) energySource(d *entityDef) gamedata.EnergySource {
	src := gamedata.EnergySource{
		FuelCategories:       append([]string(nil), d.Energy.FuelCategories...),
		Effectivity:          d.Energy.Effectivity,
		MinTemperature:       d.Energy.MinTemperature,
		MaxTemperature:       d.Energy.MaxTemperature,
		FuelConsumptionLimit: d.Energy.FuelConsumptionLimit,
	}
	if src.Effectivity == 0 {
		src.Effectivity = 1
	}
	switch d.Energy.Type {
	case "", "electric":
		src.Type = gamedata.EnergyElectric
	case "item-fuel":
		src.Type = gamedata.EnergyItemFuel
	case "fluid-fuel":
		src.Type = gamedata.EnergyFluidFuel
	case "heat":
		src.Type = gamedata.EnergyHeat
	case "void":
		src.Type = gamedata.EnergyVoid
	}
	return src
}

func (r *resolver) resolveAll(def *definition) {
	for i := range def.Goods {
		d := &def.Goods[i]
		if d.PlaceResult != "" {
			r.goods[d.Name].PlaceResult = r.entityID(d.Name, d.PlaceResult)
		}
	}
	for i := range def.Entities {
		d := &def.Entities[i]
		e := r.entities[d.Name]
		for _, item := range d.ItemsToPlace {
			e.ItemsToPlace = append(e.ItemsToPlace, r.goodID(d.Name, item))
		}
	}
	for i := range def.Recipes {
		d := &def.Recipes[i]
		rec := r.recipes[d.Name]
		r.resolveRecipe(d.Name, rec, d.Ingredients, d.Products, d.Crafters)
		if d.SourceEntity != "" {
			rec.SourceEntity = r.entityID(d.Name, d.SourceEntity)
		}
		for _, b := range d.ProductivityBoosts {
			rec.ProductivityBoosts = append(rec.ProductivityBoosts, gamedata.ProductivityBoost{
				Technology: r.techID(d.Name, b.Technology),
				PerLevel:   b.PerLevel,
			})
		}
	}
	for i := range def.Technologies {
		d := &def.Technologies[i]
		t := r.techs[d.Name]
		r.resolveRecipe(d.Name, &t.Recipe, d.Ingredients, nil, d.Labs)
		for _, p := range d.Prerequisites {
			t.Prerequisites = append(t.Prerequisites, r.techID(d.Name, p))
		}
		for _, item := range d.ResearchTriggers {
			t.ResearchTriggerItems = append(t.ResearchTriggerItems, r.goodID(d.Name, item))
		}
		for _, rec := range d.Unlocks {
			t.UnlockedRecipes = append(t.UnlockedRecipes, r.recipeID(d.Name, rec))
		}
	}
	for i := range def.Qualities {
		d := &def.Qualities[i]
		q := r.qualities[d.Name]
		if d.Next != "" {
			q.Next = r.qualityID(d.Name, d.Next)
		}
		if d.UnlockedBy != "" {
			q.UnlockedBy = r.techID(d.Name, d.UnlockedBy)
		}
	}

	for _, ref := range def.RootAccessible {
		if id := r.objectID("rootAccessible", ref); id != gamedata.NoObject {
			r.builder.MarkRootAccessible(id)
		}
	}
	for _, ref := range def.AutomationSeeds {
		if id := r.objectID("automationSeeds", ref); id != gamedata.NoObject {
			r.builder.MarkAutomationSeed(id)
		}
	}
	if def.Win != "" {
		if id := r.objectID("win", def.Win); id != gamedata.NoObject {
			r.builder.SetWin(id)
		}
	}
}

func (r *resolver) resolveRecipe(where string, rec *gamedata.Recipe, ingredients []ingredientDef, products []productDef, crafters []string) {
	for i := range ingredients {
		d := &ingredients[i]
		ing := gamedata.Ingredient{
			Amount:         d.Amount,
			MinTemperature: d.MinTemperature,
			MaxTemperature: d.MaxTemperature,
		}
		if len(d.Variants) > 0 {
			for _, v := range d.Variants {
				ing.Variants = append(ing.Variants, r.goodID(where, v))
			}
			ing.Good = ing.Variants[0]
		} else if d.Good != "" {
			ing.Good = r.goodID(where, d.Good)
		} else {
			r.errs = append(r.errs, fmt.Errorf("%s: ingredient needs a good or variants", where))
			continue
		}
		rec.Ingredients = append(rec.Ingredients, ing)
	}
	for i := range products {
		d := &products[i]
		rec.Products = append(rec.Products, gamedata.Product{
			Good:        r.goodID(where, d.Good),
			Amount:      d.Amount,
			Probability: d.Probability,
		})
	}
	for _, c := range crafters {
		rec.Crafters = append(rec.Crafters, r.entityID(where, c))
	}
}

func (r *resolver) goodID(where, name string) gamedata.ObjectID {
	if g, ok := r.goods[name]; ok {
		return g.ID
	}
	r.errs = append(r.errs, fmt.Errorf("%s: unknown good %q", where, name))
	return gamedata.NoObject
}

func (r *resolver) entityID(where, name string) gamedata.ObjectID {
	if e, ok := r.entities[name]; ok {
		return e.ID
	}
	r.errs = append(r.errs, fmt.Errorf("%s: unknown entity %q", where, name))
	return gamedata.NoObject
}

func (r *resolver) recipeID(where, name string) gamedata.ObjectID {
	if rec, ok := r.recipes[name]; ok {
		return rec.ID
	}
	r.errs = append(r.errs, fmt.Errorf("%s: unknown recipe %q", where, name))
	return gamedata.NoObject
}

func (r *resolver) techID(where, name string) gamedata.ObjectID {
	if t, ok := r.techs[name]; ok {
		return t.ID
	}
	r.errs = append(r.errs, fmt.Errorf("%s: unknown technology %q", where, name))
	return gamedata.NoObject
}

func (r *resolver) qualityID(where, name string) gamedata.ObjectID {
	if q, ok := r.qualities[name]; ok {
		return q.ID
	}
	r.errs = append(r.errs, fmt.Errorf("%s: unknown quality %q", where, name))
	return gamedata.NoObject
}

// objectID resolves a "kind:name" reference; a bare name means a good.
func (r *resolver) objectID(where, ref string) gamedata.ObjectID {
	kind, name := "good", ref
	if i := strings.IndexByte(ref, ':'); i >= 0 {
		kind, name = ref[:i], ref[i+1:]
	}
	switch kind {
	case "good":
		return r.goodID(where, name)
	case "entity":
		return r.entityID(where, name)
	case "recipe":
		return r.recipeID(where, name)
	case "technology":
		return r.techID(where, name)
	case "quality":
		return r.qualityID(where, name)
	}
	r.errs = append(r.errs, fmt.Errorf("%s: unknown object kind in %q", where, ref))
	return gamedata.NoObject
}
