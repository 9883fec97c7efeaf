package production

import (
	"math"
	"sort"

	"github.com/factorlab/beltplan-go/internal/domain/gamedata"
)

// FlowTolerance is the absolute imbalance below which a link counts as
// satisfied exactly.
const FlowTolerance = 1e-7

// fluidFlowScale compresses fluid throughput for sorting, so visually
// comparable item and fluid rates order sensibly despite differing units.
const fluidFlowScale = 50

// GoodFlow is one entry of a table's net flow summary.
type GoodFlow struct {
	Good    *gamedata.Good
	Quality *gamedata.Quality

	// Amount is the net flow: positive for surplus production, negative for
	// unsatisfied consumption. For linked goods it is the residual beyond
	// the link amount.
	Amount float64

	// Link points to the link on this good at this level, or nil when the
	// good is unlinked here.
	Link *ProductionLink
}

type flowAcc struct {
	production  float64
	consumption float64
}

// RecomputeFlow rebuilds the flow summaries of the whole tree bottom-up.
// Links satisfied exactly absorb their good; everything else shows as
// residual and bubbles into the parent table's accounting.
func (t *ProductionTable) RecomputeFlow(db *gamedata.Database) {
	t.recomputeFlow(db)
}

func (t *ProductionTable) recomputeFlow(db *gamedata.Database) map[linkKey]float64 {
	sums := make(map[linkKey]*flowAcc)
	acc := func(key linkKey) *flowAcc {
		a, ok := sums[key]
		if !ok {
			a = &flowAcc{}
			sums[key] = a
		}
		return a
	}

	for _, row := range t.Rows {
		if !row.Enabled {
			continue
		}
		if row.SubTable != nil {
			for key, net := range row.SubTable.recomputeFlow(db) {
				if net > 0 {
					acc(key).production += net
				} else if net < 0 {
					acc(key).consumption += -net
				}
			}
		}
		for i := range row.Recipe.Products {
			amount := row.ProductFlow(i)
			if amount == 0 {
				continue
			}
			good := db.GoodByID(row.Recipe.Products[i].Good)
			acc(goodKeyFor(db, good, row.Quality)).production += amount
		}
		for i := range row.Recipe.Ingredients {
			amount := row.IngredientFlow(i)
			if amount == 0 {
				continue
			}
			key := t.ingredientKey(db, row, i)
			acc(key).consumption += amount
		}
		if row.Fuel != nil {
			if amount := row.FuelFlow(); amount > 0 {
				acc(goodKeyFor(db, row.Fuel, row.FuelQuality)).consumption += amount
			}
		}
	}

	// Quality decomposition consumes the higher tier here and credits the
	// converted normal-quality units.
	for _, link := range t.implicitLinks {
		if link.DecompositionRate <= 0 {
			continue
		}
		ratio := float64(link.Quality.Level + 1)
		acc(link.key()).consumption += link.DecompositionRate
		acc(goodKeyFor(db, link.Good, db.NormalQuality)).production += link.DecompositionRate * ratio
	}

	residuals := make(map[linkKey]float64)
	flow := make([]GoodFlow, 0, len(sums))

	processLink := func(link *ProductionLink) {
		key := link.key()
		a := sums[key]
		production, consumption := 0.0, 0.0
		if a != nil {
			production, consumption = a.production, a.consumption
		}
		if link.implicit && link.DecompositionRate > 0 {
			link.LinkFlow = link.DecompositionRate * float64(link.Quality.Level+1)
		} else {
			link.LinkFlow = production
		}

		residual := production - consumption - link.Amount
		if math.Abs(residual) <= FlowTolerance {
			delete(sums, key)
			return
		}
		link.NotMatchedFlow = residual
		link.Flags |= LinkNotMatched
		delete(sums, key)
		residuals[key] = residual
		flow = append(flow, GoodFlow{Good: link.Good, Quality: link.Quality, Amount: residual, Link: link})
	}
	for _, link := range t.Links {
		processLink(link)
	}
	for _, link := range t.implicitLinks {
		processLink(link)
	}

	for key, a := range sums {
		net := a.production - a.consumption
		if math.Abs(net) <= FlowTolerance {
			continue
		}
		residuals[key] = net
		flow = append(flow, GoodFlow{Good: key.good, Quality: key.quality, Amount: net})
	}

	sort.Slice(flow, func(i, j int) bool {
		vi := flowSortValue(flow[i].Good, flow[i].Amount)
		vj := flowSortValue(flow[j].Good, flow[j].Amount)
		if vi != vj {
			return vi > vj
		}
		return flow[i].Good.Name < flow[j].Good.Name
	})
	t.Flow = flow

	// Anything unmatched here flags the nearest enclosing link on the same
	// good, so the whole affected chain lights up.
	for _, link := range t.Links {
		t.propagateNotMatched(link)
	}
	for _, link := range t.implicitLinks {
		t.propagateNotMatched(link)
	}

	return residuals
}

func (t *ProductionTable) propagateNotMatched(link *ProductionLink) {
	if link.Flags&(LinkNotMatched|LinkChildNotMatched) == 0 {
		return
	}
	link.Flags |= LinkRecursiveNotMatched
	if parent := t.Parent(); parent != nil {
		if up, ok := parent.FindLink(link.Good, link.Quality); ok {
			up.Flags |= LinkChildNotMatched | LinkRecursiveNotMatched
		}
	}
}

// ingredientKey picks the flow key of one ingredient edge: the resolved
// link's pair when the solve bound one, the canonical good otherwise.
func (t *ProductionTable) ingredientKey(db *gamedata.Database, row *RecipeRow, i int) linkKey {
	if i < len(row.IngredientLinks) && row.IngredientLinks[i] != nil {
		return row.IngredientLinks[i].key()
	}
	good := db.GoodByID(row.Recipe.Ingredients[i].Good)
	return goodKeyFor(db, good, row.Quality)
}

// EffectiveQuality applies the fluid rule: fluids always flow at normal
// quality, items keep the tier they were made at.
func EffectiveQuality(db *gamedata.Database, good *gamedata.Good, quality *gamedata.Quality) *gamedata.Quality {
	if good.IsFluid || quality == nil {
		return db.NormalQuality
	}
	return quality
}

func goodKeyFor(db *gamedata.Database, good *gamedata.Good, quality *gamedata.Quality) linkKey {
	return linkKey{good: good, quality: EffectiveQuality(db, good, quality)}
}

func flowSortValue(good *gamedata.Good, amount float64) float64 {
	if good.IsFluid {
		return amount / fluidFlowScale
	}
	return amount
}
