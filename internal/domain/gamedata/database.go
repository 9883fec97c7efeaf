package gamedata

import "fmt"

// Database is the immutable, densely-indexed table of all game objects.
// It is built once per game definition load and never mutated afterwards,
// so concurrent readers need no locking.
type Database struct {
	objects []Object

	Goods        []*Good
	Recipes      []*Recipe
	Technologies []*Technology
	Entities     []*Entity
	Qualities    []*Quality

	// RootAccessible seeds the accessibility walk: objects present or
	// obtainable from the start of the game.
	RootAccessible []ObjectID

	// AutomationSeeds seeds the automation walk: objects produced without
	// manual player action from the start.
	AutomationSeeds []ObjectID

	// NormalQuality is the designated level-0 tier.
	NormalQuality *Quality

	// Win is the object whose automation completes the game, or NoObject.
	Win ObjectID

	byName map[string]Object
}

// Count returns the number of objects in the database. IDs range over
// [0, Count).
func (d *Database) Count() int { return len(d.objects) }

// Get returns the object with the given id.
func (d *Database) Get(id ObjectID) Object {
	return d.objects[id]
}

// GoodByID returns the good with the given id and panics if the id does not
// name a good. Kind confusion is a programmer error, not a data error.
func (d *Database) GoodByID(id ObjectID) *Good {
	g, ok := d.objects[id].(*Good)
	if !ok {
		panic(fmt.Sprintf("object %d (%s) is not a good", id, d.objects[id].Info().Name))
	}
	return g
}

// EntityByID returns the entity with the given id and panics on kind
// mismatch.
func (d *Database) EntityByID(id ObjectID) *Entity {
	e, ok := d.objects[id].(*Entity)
	if !ok {
		panic(fmt.Sprintf("object %d (%s) is not an entity", id, d.objects[id].Info().Name))
	}
	return e
}

// QualityByID returns the quality with the given id and panics on kind
// mismatch.
func (d *Database) QualityByID(id ObjectID) *Quality {
	q, ok := d.objects[id].(*Quality)
	if !ok {
		panic(fmt.Sprintf("object %d (%s) is not a quality", id, d.objects[id].Info().Name))
	}
	return q
}

// TechnologyByID returns the technology with the given id and panics on kind
// mismatch.
func (d *Database) TechnologyByID(id ObjectID) *Technology {
	t, ok := d.objects[id].(*Technology)
	if !ok {
		panic(fmt.Sprintf("object %d (%s) is not a technology", id, d.objects[id].Info().Name))
	}
	return t
}

// RecipeByID returns the recipe or technology with the given id and panics
// on kind mismatch. Technologies satisfy recipe lookups through their
// embedded recipe.
func (d *Database) RecipeByID(id ObjectID) *Recipe {
	switch o := d.objects[id].(type) {
	case *Recipe:
		return o
	case *Technology:
		return &o.Recipe
	}
	panic(fmt.Sprintf("object %d (%s) is not a recipe", id, d.objects[id].Info().Name))
}

// ByName looks an object up by kind and name.
func (d *Database) ByName(kind Kind, name string) (Object, bool) {
	o, ok := d.byName[nameKey(kind, name)]
	return o, ok
}

// NextQuality returns the tier above q, or nil at the top of the ladder.
func (d *Database) NextQuality(q *Quality) *Quality {
	if q.Next == NoObject {
		return nil
	}
	return d.QualityByID(q.Next)
}

func nameKey(kind Kind, name string) string {
	return kind.String() + ":" + name
}
