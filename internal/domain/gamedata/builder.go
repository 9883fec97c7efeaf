package gamedata

import (
	"errors"
	"fmt"
	"sort"
)

// Builder assembles a Database. Objects are registered one by one, receiving
// dense ids in registration order; Build then resolves the cross-references
// that need the whole object set (producer indices, recipe unlocks, fuel
// lists) and freezes the result.
type Builder struct {
	db   *Database
	win  string
	errs []error
}

// NewBuilder returns an empty database builder.
func NewBuilder() *Builder {
	return &Builder{
		db: &Database{
			byName: make(map[string]Object),
			Win:    NoObject,
		},
	}
}

func (b *Builder) register(o Object, kind Kind, name string) {
	info := o.Info()
	info.ID = ObjectID(len(b.db.objects))
	info.Name = name
	info.Kind = kind

	key := nameKey(kind, name)
	if _, exists := b.db.byName[key]; exists {
		b.errs = append(b.errs, fmt.Errorf("duplicate %s name %q", kind, name))
	}
	b.db.byName[key] = o
	b.db.objects = append(b.db.objects, o)
}

// AddGood registers a good and assigns its id.
func (b *Builder) AddGood(name string, g *Good) *Good {
	b.register(g, KindGood, name)
	b.db.Goods = append(b.db.Goods, g)
	return g
}

// AddRecipe registers a recipe and assigns its id.
func (b *Builder) AddRecipe(name string, r *Recipe) *Recipe {
	b.register(r, KindRecipe, name)
	b.db.Recipes = append(b.db.Recipes, r)
	return r
}

// AddTechnology registers a technology and assigns its id.
func (b *Builder) AddTechnology(name string, t *Technology) *Technology {
	b.register(t, KindTechnology, name)
	b.db.Technologies = append(b.db.Technologies, t)
	return t
}

// AddEntity registers an entity and assigns its id.
func (b *Builder) AddEntity(name string, e *Entity) *Entity {
	b.register(e, KindEntity, name)
	b.db.Entities = append(b.db.Entities, e)
	return e
}

// AddQuality registers a quality tier and assigns its id.
func (b *Builder) AddQuality(name string, q *Quality) *Quality {
	b.register(q, KindQuality, name)
	b.db.Qualities = append(b.db.Qualities, q)
	return q
}

// MarkRootAccessible adds objects to the accessibility seed set.
func (b *Builder) MarkRootAccessible(ids ...ObjectID) {
	b.db.RootAccessible = append(b.db.RootAccessible, ids...)
}

// MarkAutomationSeed adds objects to the automation seed set.
func (b *Builder) MarkAutomationSeed(ids ...ObjectID) {
	b.db.AutomationSeeds = append(b.db.AutomationSeeds, ids...)
}

// SetWin designates the object whose automation completes the game.
func (b *Builder) SetWin(id ObjectID) {
	b.db.Win = id
}

// Build resolves cross-references and returns the finished database. All
// accumulated data errors are reported together.
func (b *Builder) Build() (*Database, error) {
	db := b.db

	// Map-generated structures exist without being built, so they seed both
	// accessibility and automation.
	for _, e := range db.Entities {
		if e.MapGenerated {
			db.RootAccessible = appendUnique(db.RootAccessible, e.ID)
			db.AutomationSeeds = appendUnique(db.AutomationSeeds, e.ID)
		}
	}

	b.checkReferences()
	b.resolveProduction()
	b.resolveUnlocks()
	b.resolveFuels()
	b.markSciencePacks()
	b.resolveQualities()

	if db.Win != NoObject && int(db.Win) >= len(db.objects) {
		b.errs = append(b.errs, fmt.Errorf("win object id %d out of range", db.Win))
	}
	if len(db.AutomationSeeds) == 0 {
		db.AutomationSeeds = append([]ObjectID(nil), db.RootAccessible...)
	}

	if len(b.errs) > 0 {
		return nil, fmt.Errorf("building object database: %w", errors.Join(b.errs...))
	}
	b.db = nil
	return db, nil
}

func (b *Builder) checkReferences() {
	n := ObjectID(len(b.db.objects))
	check := func(where string, ids ...ObjectID) {
		for _, id := range ids {
			if id != NoObject && (id < 0 || id >= n) {
				b.errs = append(b.errs, fmt.Errorf("%s: object id %d out of range", where, id))
			}
		}
	}
	forEachRecipe(b.db, func(r *Recipe) {
		for i := range r.Ingredients {
			check(r.Name, r.Ingredients[i].Good)
			check(r.Name, r.Ingredients[i].Variants...)
		}
		for i := range r.Products {
			check(r.Name, r.Products[i].Good)
		}
		check(r.Name, r.Crafters...)
		check(r.Name, r.SourceEntity)
	})
	for _, t := range b.db.Technologies {
		check(t.Name, t.Prerequisites...)
		check(t.Name, t.ResearchTriggerItems...)
		check(t.Name, t.UnlockedRecipes...)
	}
	for _, e := range b.db.Entities {
		check(e.Name, e.ItemsToPlace...)
	}
	check("root accessible", b.db.RootAccessible...)
	check("automation seeds", b.db.AutomationSeeds...)
}

// resolveProduction fills every good's producer and consumer recipe lists.
func (b *Builder) resolveProduction() {
	forEachRecipe(b.db, func(r *Recipe) {
		for i := range r.Products {
			if g, ok := b.good(r.Products[i].Good); ok {
				g.Production = appendUnique(g.Production, r.ID)
			}
		}
		for i := range r.Ingredients {
			ing := &r.Ingredients[i]
			goods := ing.Variants
			if len(goods) == 0 {
				goods = []ObjectID{ing.Good}
			}
			for _, id := range goods {
				if g, ok := b.good(id); ok {
					g.Usages = appendUnique(g.Usages, r.ID)
				}
			}
		}
	})
}

// resolveUnlocks inverts Technology.UnlockedRecipes into Recipe.UnlockedBy.
func (b *Builder) resolveUnlocks() {
	for _, t := range b.db.Technologies {
		for _, rid := range t.UnlockedRecipes {
			if int(rid) >= len(b.db.objects) || rid < 0 {
				continue
			}
			if r, ok := b.db.objects[rid].(*Recipe); ok {
				r.UnlockedBy = appendUnique(r.UnlockedBy, t.ID)
			}
		}
	}
}

// resolveFuels expands each entity's energy source into the concrete list of
// goods it can consume.
func (b *Builder) resolveFuels() {
	for _, e := range b.db.Entities {
		src := &e.Energy
		switch src.Type {
		case EnergyItemFuel:
			for _, g := range b.db.Goods {
				if g.IsFluid || g.FuelValue <= 0 || g.FuelCategory == "" {
					continue
				}
				for _, cat := range src.FuelCategories {
					if g.FuelCategory == cat {
						src.Fuels = append(src.Fuels, g.ID)
						break
					}
				}
			}
		case EnergyFluidFuel:
			for _, g := range b.db.Goods {
				if g.IsFluid && g.FuelValue > 0 {
					src.Fuels = append(src.Fuels, g.ID)
				}
			}
		case EnergyHeat:
			for _, g := range b.db.Goods {
				if g.IsFluid && g.HeatCapacity > 0 && g.Temperature > src.MinTemperature {
					src.Fuels = append(src.Fuels, g.ID)
				}
			}
		}
		sort.Slice(src.Fuels, func(i, j int) bool { return src.Fuels[i] < src.Fuels[j] })
	}
}

func (b *Builder) markSciencePacks() {
	for _, t := range b.db.Technologies {
		for i := range t.Ingredients {
			if g, ok := b.good(t.Ingredients[i].Good); ok {
				g.IsSciencePack = true
			}
		}
	}
}

// resolveQualities finds the normal tier and validates the successor chain.
func (b *Builder) resolveQualities() {
	for _, q := range b.db.Qualities {
		if q.Level == 0 {
			if b.db.NormalQuality != nil {
				b.errs = append(b.errs, fmt.Errorf("multiple level-0 qualities: %s and %s", b.db.NormalQuality.Name, q.Name))
				continue
			}
			b.db.NormalQuality = q
		}
		if q.Next != NoObject {
			next, ok := b.db.objects[q.Next].(*Quality)
			if !ok {
				b.errs = append(b.errs, fmt.Errorf("quality %s: next id %d is not a quality", q.Name, q.Next))
				continue
			}
			if next.Level <= q.Level {
				b.errs = append(b.errs, fmt.Errorf("quality %s: next tier %s does not increase level", q.Name, next.Name))
			}
		}
	}
	if len(b.db.Qualities) > 0 && b.db.NormalQuality == nil {
		b.errs = append(b.errs, fmt.Errorf("no level-0 quality defined"))
	}
}

func (b *Builder) good(id ObjectID) (*Good, bool) {
	if id < 0 || int(id) >= len(b.db.objects) {
		return nil, false
	}
	g, ok := b.db.objects[id].(*Good)
	return g, ok
}

func forEachRecipe(db *Database, fn func(*Recipe)) {
	for _, r := range db.Recipes {
		fn(r)
	}
	for _, t := range db.Technologies {
		fn(&t.Recipe)
	}
}

func appendUnique(list []ObjectID, id ObjectID) []ObjectID {
	for _, have := range list {
		if have == id {
			return list
		}
	}
	return append(list, id)
}
