package deps

import (
	"github.com/factorlab/beltplan-go/internal/domain/gamedata"
)

// Flags combines the behaviour bits of a list node with a category tag
// describing what the listed objects are to their dependent. Category
// constants pre-mix the behaviour bits they imply.
type Flags uint32

const (
	// RequireEverything switches a list node from any-of to all-of mode.
	RequireEverything Flags = 1 << 16

	// OneTimeInvestment marks requirements that must be obtained once rather
	// than continuously supplied. Automation status accepts merely
	// accessible children for such nodes; accessibility is unaffected.
	OneTimeInvestment Flags = 1 << 17

	TagIngredient              Flags = 1<<0 | RequireEverything
	TagIngredientVariant       Flags = 1 << 1
	TagCraftingEntity          Flags = 1<<2 | OneTimeInvestment
	TagSourceEntity            Flags = 1<<3 | RequireEverything | OneTimeInvestment
	TagFuel                    Flags = 1 << 4
	TagTechnologyUnlock        Flags = 1<<5 | OneTimeInvestment
	TagTechnologyPrerequisites Flags = 1<<6 | RequireEverything | OneTimeInvestment
	TagResearchTrigger         Flags = 1<<7 | OneTimeInvestment
	TagItemToPlace             Flags = 1<<8 | OneTimeInvestment
	TagSource                  Flags = 1 << 9
)

// RequiresAll reports whether the node is in all-of mode.
func (f Flags) RequiresAll() bool { return f&RequireEverything != 0 }

// IsOneTimeInvestment reports whether the requirement is a one-time
// investment.
func (f Flags) IsOneTimeInvestment() bool { return f&OneTimeInvestment != 0 }

// Category returns a short description of what the listed objects are.
func (f Flags) Category() string {
	switch {
	case f&TagIngredient&^RequireEverything != 0:
		return "ingredient"
	case f&(TagIngredientVariant) != 0:
		return "ingredient variant"
	case f&TagCraftingEntity&^OneTimeInvestment != 0:
		return "crafting entity"
	case f&TagSourceEntity&^(RequireEverything|OneTimeInvestment) != 0:
		return "source entity"
	case f&TagFuel != 0:
		return "fuel"
	case f&TagTechnologyUnlock&^OneTimeInvestment != 0:
		return "technology unlock"
	case f&TagTechnologyPrerequisites&^(RequireEverything|OneTimeInvestment) != 0:
		return "technology prerequisite"
	case f&TagResearchTrigger&^OneTimeInvestment != 0:
		return "research trigger"
	case f&TagItemToPlace&^OneTimeInvestment != 0:
		return "item to place"
	case f&TagSource != 0:
		return "source"
	}
	return "requirement"
}

type nodeKind uint8

const (
	nodeList nodeKind = iota
	nodeAnd
	nodeOr
)

// Node is one vertex of an object's boolean dependency expression. Trees are
// immutable after construction: a list node holds object ids with a mode
// flag, And and Or nodes combine children. Composite nodes flatten nested
// nodes of their own kind, drop duplicate children and collapse to a lone
// child, so no composite with fewer than two children ever exists.
type Node struct {
	kind     nodeKind
	flags    Flags
	ids      []gamedata.ObjectID
	children []*Node
}

// ListNode builds a leaf node over the given object ids. Duplicate ids are
// dropped, first occurrence wins. An empty all-of list is vacuously
// satisfied; an empty any-of list is unsatisfiable.
func ListNode(flags Flags, ids ...gamedata.ObjectID) *Node {
	unique := make([]gamedata.ObjectID, 0, len(ids))
	for _, id := range ids {
		seen := false
		for _, have := range unique {
			if have == id {
				seen = true
				break
			}
		}
		if !seen {
			unique = append(unique, id)
		}
	}
	return &Node{kind: nodeList, flags: flags, ids: unique}
}

// And builds a node satisfied iff all children are satisfied. Constructing
// an And with no children is a caller bug and panics.
func And(children ...*Node) *Node {
	return composite(nodeAnd, children)
}

// Or builds a node satisfied iff any child is satisfied. Constructing an Or
// with no children is a caller bug and panics.
func Or(children ...*Node) *Node {
	return composite(nodeOr, children)
}

func composite(kind nodeKind, children []*Node) *Node {
	if len(children) == 0 {
		panic("deps: composite dependency node needs at least one child")
	}

	flat := make([]*Node, 0, len(children))
	for _, child := range children {
		if child.kind == kind {
			flat = append(flat, child.children...)
		} else {
			flat = append(flat, child)
		}
	}

	unique := flat[:0]
	for _, child := range flat {
		dup := false
		for _, have := range unique {
			if have.Equal(child) {
				dup = true
				break
			}
		}
		if !dup {
			unique = append(unique, child)
		}
	}

	if len(unique) == 1 {
		return unique[0]
	}
	return &Node{kind: kind, children: unique}
}

// Equal reports structural equality of two dependency trees.
func (n *Node) Equal(other *Node) bool {
	if n == other {
		return true
	}
	if n.kind != other.kind || n.flags != other.flags {
		return false
	}
	if len(n.ids) != len(other.ids) || len(n.children) != len(other.children) {
		return false
	}
	for i, id := range n.ids {
		if other.ids[i] != id {
			return false
		}
	}
	for i, child := range n.children {
		if !child.Equal(other.children[i]) {
			return false
		}
	}
	return true
}

// IsAccessible evaluates the tree against an accessibility predicate.
func (n *Node) IsAccessible(accessible func(gamedata.ObjectID) bool) bool {
	switch n.kind {
	case nodeList:
		if n.flags.RequiresAll() {
			for _, id := range n.ids {
				if !accessible(id) {
					return false
				}
			}
			return true
		}
		for _, id := range n.ids {
			if accessible(id) {
				return true
			}
		}
		return false
	case nodeAnd:
		for _, child := range n.children {
			if !child.IsAccessible(accessible) {
				return false
			}
		}
		return true
	default:
		for _, child := range n.children {
			if child.IsAccessible(accessible) {
				return true
			}
		}
		return false
	}
}

// IsAutomatable evaluates the tree for automation status. One-time
// investment lists are satisfied by merely accessible children; everything
// else needs automatable children.
func (n *Node) IsAutomatable(automatable, accessible func(gamedata.ObjectID) bool) bool {
	switch n.kind {
	case nodeList:
		satisfied := automatable
		if n.flags.IsOneTimeInvestment() {
			satisfied = accessible
		}
		if n.flags.RequiresAll() {
			for _, id := range n.ids {
				if !satisfied(id) {
					return false
				}
			}
			return true
		}
		for _, id := range n.ids {
			if satisfied(id) {
				return true
			}
		}
		return false
	case nodeAnd:
		for _, child := range n.children {
			if !child.IsAutomatable(automatable, accessible) {
				return false
			}
		}
		return true
	default:
		for _, child := range n.children {
			if child.IsAutomatable(automatable, accessible) {
				return true
			}
		}
		return false
	}
}

// AggregateBits folds per-object milestone masks through the tree: all-of
// semantics union the bits a dependent inherits, any-of semantics keep the
// smallest requirement among the alternatives.
func (n *Node) AggregateBits(maskOf func(gamedata.ObjectID) uint64) uint64 {
	switch n.kind {
	case nodeList:
		if n.flags.RequiresAll() {
			var bits uint64
			for _, id := range n.ids {
				bits |= maskOf(id)
			}
			return bits
		}
		return minBits(len(n.ids), func(i int) uint64 { return maskOf(n.ids[i]) })
	case nodeAnd:
		var bits uint64
		for _, child := range n.children {
			bits |= child.AggregateBits(maskOf)
		}
		return bits
	default:
		return minBits(len(n.children), func(i int) uint64 { return n.children[i].AggregateBits(maskOf) })
	}
}

func minBits(n int, at func(int) uint64) uint64 {
	if n == 0 {
		return 0
	}
	min := at(0)
	for i := 1; i < n; i++ {
		if v := at(i); v < min {
			min = v
		}
	}
	return min
}

// Flatten returns every object id mentioned anywhere in the tree, each at
// most once, in first-mention order.
func (n *Node) Flatten() []gamedata.ObjectID {
	var out []gamedata.ObjectID
	seen := make(map[gamedata.ObjectID]struct{})
	n.flattenInto(&out, seen)
	return out
}

func (n *Node) flattenInto(out *[]gamedata.ObjectID, seen map[gamedata.ObjectID]struct{}) {
	if n.kind == nodeList {
		for _, id := range n.ids {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				*out = append(*out, id)
			}
		}
		return
	}
	for _, child := range n.children {
		child.flattenInto(out, seen)
	}
}

// GroupOp tells a visitor how the children of a composite combine.
type GroupOp uint8

const (
	GroupAll GroupOp = iota
	GroupAny
)

// Visitor receives the structure of a dependency tree for display. List
// nodes arrive with their category flags and member ids; composite grouping
// is delivered through Enter/Leave pairs so layout can mirror the boolean
// structure.
type Visitor interface {
	VisitList(flags Flags, ids []gamedata.ObjectID)
	EnterGroup(op GroupOp)
	LeaveGroup(op GroupOp)
}

// Walk drives a visitor over the tree in construction order.
func (n *Node) Walk(v Visitor) {
	switch n.kind {
	case nodeList:
		v.VisitList(n.flags, n.ids)
	case nodeAnd:
		v.EnterGroup(GroupAll)
		for _, child := range n.children {
			child.Walk(v)
		}
		v.LeaveGroup(GroupAll)
	default:
		v.EnterGroup(GroupAny)
		for _, child := range n.children {
			child.Walk(v)
		}
		v.LeaveGroup(GroupAny)
	}
}
