package deps

import (
	"github.com/factorlab/beltplan-go/internal/domain/gamedata"
)

// Graph holds the dependency expression of every object plus the inverted
// edge index. It is built exactly once per database load, after the whole
// object set exists, and is immutable afterwards.
type Graph struct {
	db      *gamedata.Database
	nodes   []*Node
	reverse [][]gamedata.ObjectID

	unconditional []gamedata.ObjectID
}

// Build derives the dependency tree of every object and inverts the edges.
// Reverse lists are deduplicated: an object appears at most once in another
// object's reverse list even when several branches reference it.
func Build(db *gamedata.Database) *Graph {
	n := db.Count()
	g := &Graph{
		db:      db,
		nodes:   make([]*Node, n),
		reverse: make([][]gamedata.ObjectID, n),
	}

	never := func(gamedata.ObjectID) bool { return false }
	for id := 0; id < n; id++ {
		node := nodeFor(db, db.Get(gamedata.ObjectID(id)))
		g.nodes[id] = node
		if node.IsAccessible(never) {
			g.unconditional = append(g.unconditional, gamedata.ObjectID(id))
		}
	}

	for id := 0; id < n; id++ {
		for _, dep := range g.nodes[id].Flatten() {
			g.reverse[dep] = append(g.reverse[dep], gamedata.ObjectID(id))
		}
	}
	return g
}

// NodeOf returns the dependency tree of the object.
func (g *Graph) NodeOf(id gamedata.ObjectID) *Node {
	return g.nodes[id]
}

// DependentsOf returns the objects whose dependency trees mention id.
func (g *Graph) DependentsOf(id gamedata.ObjectID) []gamedata.ObjectID {
	return g.reverse[id]
}

// Unconditional returns the objects whose dependency trees are satisfied
// with nothing accessible at all. They join the seed set of every walk.
func (g *Graph) Unconditional() []gamedata.ObjectID {
	return g.unconditional
}

// Database returns the object database the graph was built over.
func (g *Graph) Database() *gamedata.Database {
	return g.db
}

// nodeFor derives one object's dependency expression from its kind.
func nodeFor(db *gamedata.Database, o gamedata.Object) *Node {
	switch obj := o.(type) {
	case *gamedata.Good:
		return ListNode(TagSource, obj.Production...)
	case *gamedata.Technology:
		return technologyNode(obj)
	case *gamedata.Recipe:
		return recipeNode(obj)
	case *gamedata.Entity:
		return entityNode(obj)
	case *gamedata.Quality:
		if obj.UnlockedBy == gamedata.NoObject {
			return ListNode(TagTechnologyUnlock | RequireEverything)
		}
		return ListNode(TagTechnologyUnlock, obj.UnlockedBy)
	}
	return ListNode(RequireEverything)
}

func recipeNode(r *gamedata.Recipe) *Node {
	parts := ingredientNodes(r)
	parts = append(parts, ListNode(TagCraftingEntity, r.Crafters...))
	if r.SourceEntity != gamedata.NoObject {
		parts = append(parts, ListNode(TagSourceEntity, r.SourceEntity))
	}
	if len(r.UnlockedBy) > 0 {
		parts = append(parts, ListNode(TagTechnologyUnlock, r.UnlockedBy...))
	}
	return And(parts...)
}

func technologyNode(t *gamedata.Technology) *Node {
	var parts []*Node
	if t.HasResearchTrigger() {
		parts = append(parts, ListNode(TagResearchTrigger, t.ResearchTriggerItems...))
	} else {
		parts = append(parts, ingredientNodes(&t.Recipe)...)
		parts = append(parts, ListNode(TagCraftingEntity, t.Crafters...))
	}
	if len(t.Prerequisites) > 0 {
		parts = append(parts, ListNode(TagTechnologyPrerequisites, t.Prerequisites...))
	}
	return And(parts...)
}

// ingredientNodes groups plain ingredients into one all-of list and gives
// every variant ingredient its own any-of list.
func ingredientNodes(r *gamedata.Recipe) []*Node {
	var parts []*Node
	var plain []gamedata.ObjectID
	for i := range r.Ingredients {
		ing := &r.Ingredients[i]
		if len(ing.Variants) > 0 {
			parts = append(parts, ListNode(TagIngredientVariant, ing.Variants...))
		} else {
			plain = append(plain, ing.Good)
		}
	}
	if len(plain) > 0 {
		parts = append(parts, ListNode(TagIngredient, plain...))
	}
	return parts
}

func entityNode(e *gamedata.Entity) *Node {
	var parts []*Node
	if len(e.ItemsToPlace) > 0 {
		parts = append(parts, ListNode(TagItemToPlace, e.ItemsToPlace...))
	}
	if e.Energy.RequiresFuel() {
		parts = append(parts, ListNode(TagFuel, e.Energy.Fuels...))
	}
	if len(parts) == 0 {
		return ListNode(TagItemToPlace | RequireEverything)
	}
	return And(parts...)
}
