package production

import (
	"github.com/factorlab/beltplan-go/internal/domain/gamedata"
)

// ProductionTable is one node of the table tree: an ordered list of recipe
// rows plus the links balancing goods at this level. The root table belongs
// to a page; nested tables belong to the row that owns them, and the owner
// row's recipe is solved together with the nested rows.
//
// The linkMap always reflects links plus implicit links exactly; every
// structural change rebuilds it.
type ProductionTable struct {
	owner *RecipeRow

	Rows  []*RecipeRow
	Links []*ProductionLink

	implicitLinks []*ProductionLink
	linkMap       map[linkKey]*ProductionLink

	// Flow is the sorted per-good net flow summary of the last solve.
	Flow []GoodFlow
}

// NewRootTable creates an empty top-level table.
func NewRootTable() *ProductionTable {
	return &ProductionTable{linkMap: map[linkKey]*ProductionLink{}}
}

// Owner returns the row owning this nested table, or nil at the root.
func (t *ProductionTable) Owner() *RecipeRow { return t.owner }

// Parent returns the table one level up, or nil at the root.
func (t *ProductionTable) Parent() *ProductionTable {
	if t.owner == nil {
		return nil
	}
	return t.owner.owner
}

// AddRow appends a row to the table and takes ownership of it.
func (t *ProductionTable) AddRow(row *RecipeRow) {
	row.owner = t
	t.Rows = append(t.Rows, row)
}

// RemoveRow removes a row from the table. It reports whether the row was
// present.
func (t *ProductionTable) RemoveRow(row *RecipeRow) bool {
	for i, have := range t.Rows {
		if have == row {
			t.Rows = append(t.Rows[:i], t.Rows[i+1:]...)
			row.owner = nil
			return true
		}
	}
	return false
}

// AddLink creates a balance link for the (good, quality) pair at this level.
func (t *ProductionTable) AddLink(good *gamedata.Good, quality *gamedata.Quality, amount float64, algorithm LinkAlgorithm) (*ProductionLink, error) {
	key := linkKey{good: good, quality: quality}
	if _, exists := t.linkMap[key]; exists {
		return nil, &DuplicateLinkError{Good: good.Name, Quality: quality.Name}
	}
	link := &ProductionLink{
		owner:     t,
		Good:      good,
		Quality:   quality,
		Amount:    amount,
		Algorithm: algorithm,
	}
	t.Links = append(t.Links, link)
	t.RebuildLinkMap()
	return link, nil
}

// RemoveLink removes a user link from the table. It reports whether the
// link was present.
func (t *ProductionTable) RemoveLink(link *ProductionLink) bool {
	for i, have := range t.Links {
		if have == link {
			t.Links = append(t.Links[:i], t.Links[i+1:]...)
			link.owner = nil
			t.RebuildLinkMap()
			return true
		}
	}
	return false
}

// AddImplicitLink synthesizes a zero-amount match link for quality-science
// decomposition. Implicit links last a single solve pass. Adding a pair that
// is already linked at this level returns the existing link.
func (t *ProductionTable) AddImplicitLink(good *gamedata.Good, quality *gamedata.Quality) *ProductionLink {
	if existing, ok := t.linkMap[linkKey{good: good, quality: quality}]; ok {
		return existing
	}
	link := &ProductionLink{
		owner:     t,
		Good:      good,
		Quality:   quality,
		Algorithm: AlgorithmMatch,
		implicit:  true,
	}
	t.implicitLinks = append(t.implicitLinks, link)
	t.RebuildLinkMap()
	return link
}

// ClearImplicitLinks drops the implicit links of the previous solve pass.
func (t *ProductionTable) ClearImplicitLinks() {
	if len(t.implicitLinks) == 0 {
		return
	}
	t.implicitLinks = nil
	t.RebuildLinkMap()
}

// ImplicitLinks returns the current implicit links.
func (t *ProductionTable) ImplicitLinks() []*ProductionLink { return t.implicitLinks }

// RebuildLinkMap refreshes the key index from links plus implicit links.
func (t *ProductionTable) RebuildLinkMap() {
	t.linkMap = make(map[linkKey]*ProductionLink, len(t.Links)+len(t.implicitLinks))
	for _, link := range t.Links {
		t.linkMap[link.key()] = link
	}
	for _, link := range t.implicitLinks {
		t.linkMap[link.key()] = link
	}
}

// FindLink searches this table and then its ancestor chain for a link on
// the (good, quality) pair. Ancestor search is how a row's goods connect to
// links declared at outer levels.
func (t *ProductionTable) FindLink(good *gamedata.Good, quality *gamedata.Quality) (*ProductionLink, bool) {
	key := linkKey{good: good, quality: quality}
	for table := t; table != nil; table = table.Parent() {
		if link, ok := table.linkMap[key]; ok {
			return link, true
		}
	}
	return nil, false
}

// localLink looks the pair up at this level only.
func (t *ProductionTable) localLink(good *gamedata.Good, quality *gamedata.Quality) (*ProductionLink, bool) {
	link, ok := t.linkMap[linkKey{good: good, quality: quality}]
	return link, ok
}

// ResetSolution clears all solve state in this subtree.
func (t *ProductionTable) ResetSolution() {
	for _, link := range t.Links {
		link.ResetSolution()
	}
	for _, link := range t.implicitLinks {
		link.ResetSolution()
	}
	for _, row := range t.Rows {
		row.ResetSolution()
	}
	t.Flow = nil
}

// ForEachTable visits this table and every nested table, parents first.
func (t *ProductionTable) ForEachTable(fn func(*ProductionTable)) {
	fn(t)
	for _, row := range t.Rows {
		if row.SubTable != nil {
			row.SubTable.ForEachTable(fn)
		}
	}
}

// ForEachRow visits every row in the subtree in insertion order, parents
// before their nested rows.
func (t *ProductionTable) ForEachRow(fn func(*RecipeRow)) {
	for _, row := range t.Rows {
		fn(row)
		if row.SubTable != nil {
			row.SubTable.ForEachRow(fn)
		}
	}
}

// ForEachAncestor visits the owner rows from the row's table up to the root.
func (r *RecipeRow) ForEachAncestor(fn func(*RecipeRow)) {
	row := r
	for row.owner != nil && row.owner.owner != nil {
		row = row.owner.owner
		fn(row)
	}
}
