package planner

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/factorlab/beltplan-go/internal/adapters/lp"
	"github.com/factorlab/beltplan-go/internal/domain/production"
)

// slackKind distinguishes the two relaxation directions of the diagnosis
// model.
type slackKind uint8

const (
	// slackUnderProduction lets production appear from nowhere on a
	// feedback-loop link; using it means the loop cannot bootstrap itself.
	slackUnderProduction slackKind = iota
	// slackOverProduction absorbs surplus on a contended link; using it
	// means some recipe has to overproduce for the rest to balance.
	slackOverProduction
)

type diagnosisSlack struct {
	link     *production.ProductionLink
	kind     slackKind
	variable int
}

// diagnosis is the slack-augmented re-solve run when the primary model has
// no solution. It localizes the failure to feedback loops and contention
// splits in the link graph.
type diagnosis struct {
	slacks   []diagnosisSlack
	solution *lp.Solution
}

// diagnose relaxes loop and split candidate links with one-sided slacks and
// re-solves, minimizing total slack use instead of recipe cost.
func (c *compile) diagnose() (*diagnosis, error) {
	loops, splits := c.findCandidates()
	model := c.buildModel(false)

	d := &diagnosis{}
	for _, link := range c.links {
		cons, ok := c.constraintOf(link)
		if !ok {
			continue
		}
		if loops[link] {
			cost := math.Max(link.Good.Cost, 1)
			v := model.AddVariable(fmt.Sprintf("%s under-production slack", link.Good.Name), 0, math.Inf(1), cost)
			model.SetCoefficient(cons, v, 1)
			d.slacks = append(d.slacks, diagnosisSlack{link: link, kind: slackUnderProduction, variable: v})
		}
		if splits[link] {
			v := model.AddVariable(fmt.Sprintf("%s over-production slack", link.Good.Name), 0, math.Inf(1), 1)
			model.SetCoefficient(cons, v, -1)
			d.slacks = append(d.slacks, diagnosisSlack{link: link, kind: slackOverProduction, variable: v})
		}
	}

	sol, err := model.Solve()
	if err != nil {
		return nil, err
	}
	d.solution = sol
	return d, nil
}

// findCandidates classifies live links. Loop candidates sit on a cycle of
// the consumed-to-produced link graph; split candidates have more than one
// producing or consuming edge.
func (c *compile) findCandidates() (loops, splits map[*production.ProductionLink]bool) {
	loops = map[*production.ProductionLink]bool{}
	splits = map[*production.ProductionLink]bool{}

	index := make(map[*production.ProductionLink]int64, len(c.links))
	g := simple.NewDirectedGraph()
	for i, link := range c.links {
		index[link] = int64(i)
		g.AddNode(simple.Node(int64(i)))
	}

	selfLoop := map[*production.ProductionLink]bool{}
	addEdge := func(from, to *production.ProductionLink) {
		if from == nil || to == nil {
			return
		}
		fi, fok := index[from]
		ti, tok := index[to]
		if !fok || !tok {
			return
		}
		if fi == ti {
			selfLoop[from] = true
			return
		}
		g.SetEdge(simple.Edge{F: simple.Node(fi), T: simple.Node(ti)})
	}

	for _, sr := range c.rows {
		switch sr.variant {
		case variantRecipe:
			consumed := make([]*production.ProductionLink, 0, len(sr.ingredientLinks)+1)
			for _, link := range sr.ingredientLinks {
				if link != nil {
					consumed = append(consumed, link)
				}
			}
			if sr.fuelLink != nil {
				consumed = append(consumed, sr.fuelLink)
			}
			for _, produced := range sr.productLinks {
				if produced == nil {
					continue
				}
				for _, from := range consumed {
					addEdge(from, produced)
				}
			}
		case variantDecomposition:
			addEdge(sr.source, sr.target)
		}
	}

	for _, component := range topo.TarjanSCC(g) {
		if len(component) < 2 {
			continue
		}
		for _, node := range component {
			loops[c.links[node.ID()]] = true
		}
	}
	for link := range selfLoop {
		loops[link] = true
	}

	for _, link := range c.links {
		st := c.state[link]
		if st != nil && (st.producers > 1 || st.consumers > 1) {
			splits[link] = true
		}
	}
	return loops, splits
}

// apply marks every link whose slack was actually used and spreads the
// matching warning over the rows the link captured and their ancestor
// chains.
func (d *diagnosis) apply(c *compile) {
	for _, slack := range d.slacks {
		if d.solution.VarValue(slack.variable) <= production.FlowTolerance {
			continue
		}
		slack.link.Flags |= production.LinkNotMatched
		warning := production.WarnDeadlockCandidate
		if slack.kind == slackOverProduction {
			warning = production.WarnOverproductionRequired
		}
		st := c.state[slack.link]
		if st == nil {
			continue
		}
		for _, row := range st.captured {
			row.Warnings |= warning
			row.ForEachAncestor(func(parent *production.RecipeRow) {
				parent.Warnings |= warning
			})
		}
	}
}
