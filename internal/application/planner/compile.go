package planner

import (
	"fmt"
	"math"

	"github.com/factorlab/beltplan-go/internal/adapters/lp"
	"github.com/factorlab/beltplan-go/internal/domain/gamedata"
	"github.com/factorlab/beltplan-go/internal/domain/production"
)

type rowVariant uint8

const (
	variantRecipe rowVariant = iota
	variantDecomposition
)

// solverRow is one LP variable: either a real recipe row or a synthetic
// decomposition converting a quality science pack down to normal tier.
type solverRow struct {
	variant rowVariant

	// variantRecipe
	row    *production.RecipeRow
	params production.Parameters

	ingredientGoods []*gamedata.Good
	ingredientLinks []*production.ProductionLink
	productLinks    []*production.ProductionLink
	fuelLink        *production.ProductionLink

	// variantDecomposition
	source *production.ProductionLink
	target *production.ProductionLink
	ratio  float64

	variable int
}

// linkState is the compile-time accounting for one live link.
type linkState struct {
	constraint  int
	hasProducer bool
	hasConsumer bool
	producers   int
	consumers   int
	captured    []*production.RecipeRow
	capturedSet map[*production.RecipeRow]bool
}

// compile builds the flat LP view of one table tree. Rows and links keep
// their table insertion order throughout, so repeated compiles of the same
// tree produce the same model.
type compile struct {
	db *gamedata.Database
	in Inputs

	rows  []*solverRow
	links []*production.ProductionLink
	state map[*production.ProductionLink]*linkState

	// excluded rows are disabled rows and everything beneath them; their
	// good references protect otherwise-unreferenced links from removal.
	excluded []*production.RecipeRow
}

func newCompile(db *gamedata.Database, in Inputs) *compile {
	return &compile{
		db:    db,
		in:    in,
		state: map[*production.ProductionLink]*linkState{},
	}
}

// collectRows flattens every enabled row into a solver row with freshly
// computed parameters. Disabled subtrees are recorded for the link
// protection check and otherwise skipped.
func (c *compile) collectRows(table *production.ProductionTable) {
	for _, row := range table.Rows {
		if !row.Enabled {
			c.collectExcluded(row)
			continue
		}
		sr := &solverRow{
			variant: variantRecipe,
			row:     row,
			params:  production.CalculateParameters(c.db, row, c.in.Bonuses, c.in.QualityAccessible),
		}
		c.rows = append(c.rows, sr)
		if row.SubTable != nil {
			c.collectRows(row.SubTable)
		}
	}
}

func (c *compile) collectExcluded(row *production.RecipeRow) {
	c.excluded = append(c.excluded, row)
	if row.SubTable != nil {
		for _, nested := range row.SubTable.Rows {
			c.collectExcluded(nested)
		}
	}
}

// decompose synthesizes the quality-science conversions: whenever an
// enabled row produces a science pack above normal tier with no link for
// that tier in scope, while the normal tier is linked somewhere up the
// chain, the pack becomes convertible downward at (level+1):1.
func (c *compile) decompose() {
	for _, sr := range c.rows {
		if sr.variant != variantRecipe {
			continue
		}
		row := sr.row
		table := row.Owner()
		for _, product := range row.Recipe.Products {
			good := c.db.GoodByID(product.Good)
			quality := production.EffectiveQuality(c.db, good, row.Quality)
			if !good.IsSciencePack || quality.IsNormal() {
				continue
			}
			if _, ok := table.FindLink(good, quality); ok {
				continue
			}
			target, ok := table.FindLink(good, c.db.NormalQuality)
			if !ok {
				continue
			}
			source := table.AddImplicitLink(good, quality)
			c.rows = append(c.rows, &solverRow{
				variant: variantDecomposition,
				source:  source,
				target:  target,
				ratio:   float64(quality.Level + 1),
			})
		}
	}
}

// resolveLinks binds every product, ingredient and fuel edge of every
// solver row to the nearest link in scope and tallies per-link producer and
// consumer counts.
func (c *compile) resolveLinks() {
	for _, sr := range c.rows {
		switch sr.variant {
		case variantRecipe:
			c.resolveRecipeRow(sr)
		case variantDecomposition:
			c.consumeFrom(sr.source, nil)
			c.produceInto(sr.target, nil)
		}
	}
}

func (c *compile) resolveRecipeRow(sr *solverRow) {
	row := sr.row
	table := row.Owner()

	sr.productLinks = make([]*production.ProductionLink, len(row.Recipe.Products))
	for i, product := range row.Recipe.Products {
		good := c.db.GoodByID(product.Good)
		quality := production.EffectiveQuality(c.db, good, row.Quality)
		if link, ok := table.FindLink(good, quality); ok {
			sr.productLinks[i] = link
			c.produceInto(link, row)
		}
	}

	sr.ingredientGoods = make([]*gamedata.Good, len(row.Recipe.Ingredients))
	sr.ingredientLinks = make([]*production.ProductionLink, len(row.Recipe.Ingredients))
	for i := range row.Recipe.Ingredients {
		good, link := c.resolveIngredient(table, row, i)
		sr.ingredientGoods[i] = good
		if link != nil {
			sr.ingredientLinks[i] = link
			c.consumeFrom(link, row)
		}
	}

	if row.Fuel != nil {
		quality := production.EffectiveQuality(c.db, row.Fuel, row.FuelQuality)
		if link, ok := table.FindLink(row.Fuel, quality); ok {
			sr.fuelLink = link
			c.consumeFrom(link, row)
		}
	}
}

// resolveIngredient picks the good one ingredient edge consumes. For
// variant ingredients the first variant with a link in scope wins; with no
// linked variant the edge falls back to the declared good.
func (c *compile) resolveIngredient(table *production.ProductionTable, row *production.RecipeRow, i int) (*gamedata.Good, *production.ProductionLink) {
	ingredient := &row.Recipe.Ingredients[i]
	for _, id := range ingredient.Variants {
		good := c.db.GoodByID(id)
		quality := production.EffectiveQuality(c.db, good, row.Quality)
		if link, ok := table.FindLink(good, quality); ok {
			return good, link
		}
	}
	good := c.db.GoodByID(ingredient.Good)
	quality := production.EffectiveQuality(c.db, good, row.Quality)
	if link, ok := table.FindLink(good, quality); ok {
		return good, link
	}
	return good, nil
}

func (c *compile) stateOf(link *production.ProductionLink) *linkState {
	st, ok := c.state[link]
	if !ok {
		st = &linkState{constraint: -1, capturedSet: map[*production.RecipeRow]bool{}}
		c.state[link] = st
	}
	return st
}

func (c *compile) produceInto(link *production.ProductionLink, row *production.RecipeRow) {
	st := c.stateOf(link)
	st.hasProducer = true
	st.producers++
	c.capture(st, row)
}

func (c *compile) consumeFrom(link *production.ProductionLink, row *production.RecipeRow) {
	st := c.stateOf(link)
	st.hasConsumer = true
	st.consumers++
	c.capture(st, row)
}

func (c *compile) capture(st *linkState, row *production.RecipeRow) {
	if row == nil || st.capturedSet[row] {
		return
	}
	st.capturedSet[row] = true
	st.captured = append(st.captured, row)
}

// pruneLinks drops unreferenced user links from the model and, when no
// excluded row still references the good, from the table itself. It then
// fixes the live link list in deterministic table order.
func (c *compile) pruneLinks(root *production.ProductionTable) {
	root.ForEachTable(func(table *production.ProductionTable) {
		var remove []*production.ProductionLink
		for _, link := range table.Links {
			st, ok := c.state[link]
			if ok && (st.hasProducer || st.hasConsumer) {
				continue
			}
			delete(c.state, link)
			if !c.excludedRowReferences(table, link.Good) {
				remove = append(remove, link)
			}
		}
		for _, link := range remove {
			table.RemoveLink(link)
		}
	})

	root.ForEachTable(func(table *production.ProductionTable) {
		for _, link := range table.Links {
			if _, ok := c.state[link]; ok {
				c.links = append(c.links, link)
			}
		}
		for _, link := range table.ImplicitLinks() {
			if _, ok := c.state[link]; ok {
				c.links = append(c.links, link)
			}
		}
	})
}

// excludedRowReferences reports whether a disabled-subtree row at or below
// the link's table still touches the good.
func (c *compile) excludedRowReferences(table *production.ProductionTable, good *gamedata.Good) bool {
	for _, row := range c.excluded {
		if !tableWithin(row.Owner(), table) {
			continue
		}
		if row.Recipe.ProducesGood(good.ID) || row.Recipe.ConsumesGood(good.ID) || row.Fuel == good {
			return true
		}
	}
	return false
}

func tableWithin(table, ancestor *production.ProductionTable) bool {
	for ; table != nil; table = table.Parent() {
		if table == ancestor {
			return true
		}
	}
	return false
}

// buildModel lays the collected rows and links out as an LP: one variable
// per row, one bounded constraint per live link, coefficients from the
// per-rate product, ingredient and fuel flows. The diagnosis pass rebuilds
// without recipe costs so only its slack penalties drive the objective.
func (c *compile) buildModel(withCosts bool) *lp.Model {
	model := lp.NewModel()

	for _, sr := range c.rows {
		switch sr.variant {
		case variantRecipe:
			lb, ub := 0.0, math.Inf(1)
			if sr.row.FixedBuildings > 0 && sr.params.RecipeTime > 0 {
				rate := sr.row.FixedBuildings / sr.params.RecipeTime
				lb, ub = rate, rate
			}
			cost := 0.0
			if withCosts {
				cost = sr.row.Recipe.Cost
			}
			sr.variable = model.AddVariable(sr.row.Recipe.Name, lb, ub, cost)
		case variantDecomposition:
			name := fmt.Sprintf("%s decomposition", sr.source.Good.Name)
			sr.variable = model.AddVariable(name, 0, math.Inf(1), 0)
		}
	}

	for _, link := range c.links {
		lb, ub := link.Amount, link.Amount
		switch link.Algorithm {
		case production.AlgorithmAllowOverProduction:
			ub = math.Inf(1)
		case production.AlgorithmAllowOverConsumption:
			lb = math.Inf(-1)
		}
		name := fmt.Sprintf("%s (%s)", link.Good.Name, link.Quality.Name)
		c.stateOf(link).constraint = model.AddConstraint(name, lb, ub)
	}

	c.setCoefficients(model)
	return model
}

// setCoefficients writes every row edge into its link constraint. Repeated
// edges on the same (variable, constraint) pair accumulate.
func (c *compile) setCoefficients(model *lp.Model) {
	for _, sr := range c.rows {
		switch sr.variant {
		case variantRecipe:
			for i, link := range sr.productLinks {
				if cons, ok := c.constraintOf(link); ok {
					perRate := sr.row.Recipe.Products[i].ExpectedAmount() * (1 + sr.params.Productivity)
					model.SetCoefficient(cons, sr.variable, perRate)
				}
			}
			for i, link := range sr.ingredientLinks {
				if cons, ok := c.constraintOf(link); ok {
					model.SetCoefficient(cons, sr.variable, -sr.row.Recipe.Ingredients[i].Amount)
				}
			}
			if cons, ok := c.constraintOf(sr.fuelLink); ok {
				perRate := sr.params.FuelUsagePerSecond * sr.params.RecipeTime
				model.SetCoefficient(cons, sr.variable, -perRate)
			}
		case variantDecomposition:
			if cons, ok := c.constraintOf(sr.source); ok {
				model.SetCoefficient(cons, sr.variable, -1)
			}
			if cons, ok := c.constraintOf(sr.target); ok {
				model.SetCoefficient(cons, sr.variable, sr.ratio)
			}
		}
	}
}

func (c *compile) constraintOf(link *production.ProductionLink) (int, bool) {
	if link == nil {
		return 0, false
	}
	st, ok := c.state[link]
	if !ok || st.constraint < 0 {
		return 0, false
	}
	return st.constraint, true
}
