package planner

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/factorlab/beltplan-go/internal/adapters/lp"
	"github.com/factorlab/beltplan-go/internal/adapters/metrics"
	"github.com/factorlab/beltplan-go/internal/domain/gamedata"
	"github.com/factorlab/beltplan-go/internal/domain/production"
	"github.com/factorlab/beltplan-go/internal/domain/project"
)

// Inputs carries the per-solve project context: the global bonuses and the
// milestone-derived quality accessibility predicate.
type Inputs struct {
	Bonuses           production.Bonuses
	QualityAccessible func(*gamedata.Quality) bool
}

// SolveError is the short user-facing reason a solve produced no result.
type SolveError struct {
	Reason string
}

func (e *SolveError) Error() string { return e.Reason }

// Solver compiles production tables into linear programs and writes the
// solved rates, warnings and flows back onto the tree. One solver serves
// any number of pages; each Solve call is independent.
type Solver struct {
	db *gamedata.Database
}

// NewSolver creates a solver over the given object database.
func NewSolver(db *gamedata.Database) *Solver {
	return &Solver{db: db}
}

// Solve runs one full pass for the page: compile, primary solve, diagnosis
// on failure, write-back and flow aggregation. On success it returns nil
// and updates the tree; on failure the tree keeps its previous solved state
// and the returned error carries the diagnostic, also stored on the page.
func (s *Solver) Solve(ctx context.Context, page *project.Page, in Inputs) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	started := time.Now()
	status, err := s.solve(page, in)
	metrics.RecordSolve(status, time.Since(started).Seconds())
	if err != nil {
		page.LastSolveError = err.Error()
		return err
	}
	page.LastSolveError = ""
	return nil
}

func (s *Solver) solve(page *project.Page, in Inputs) (string, error) {
	table := page.Table

	table.ForEachTable(func(t *production.ProductionTable) {
		t.ClearImplicitLinks()
	})

	c := newCompile(s.db, in)
	c.collectRows(table)
	c.decompose()
	c.resolveLinks()
	c.pruneLinks(table)

	model := c.buildModel(true)
	metrics.RecordModelSize(model.VariableCount(), model.ConstraintCount())

	sol, solveErr := model.Solve()
	if sol.Status == lp.StatusOptimal {
		s.writeBack(c, table, sol, nil)
		return "optimal", nil
	}
	if solveErr != nil {
		log.Printf("Primary solve failed (%s): %v", sol.Status, solveErr)
	} else {
		log.Printf("Primary solve %s for page %q, running diagnosis", sol.Status, page.Name)
	}

	d, err := c.diagnose()
	if err != nil {
		s.clearImplicit(table)
		return "failed", &SolveError{Reason: "numerical failure in the solver"}
	}
	switch d.solution.Status {
	case lp.StatusOptimal:
		s.writeBack(c, table, d.solution, d)
		return "diagnosed", nil
	case lp.StatusInfeasible:
		s.clearImplicit(table)
		return "failed", &SolveError{Reason: "production model has no solution"}
	case lp.StatusUnbounded:
		s.clearImplicit(table)
		return "failed", &SolveError{Reason: "production model is unbounded"}
	default:
		s.clearImplicit(table)
		return "failed", &SolveError{Reason: fmt.Sprintf("unexpected solver status %s", d.solution.Status)}
	}
}

func (s *Solver) clearImplicit(table *production.ProductionTable) {
	table.ForEachTable(func(t *production.ProductionTable) {
		t.ClearImplicitLinks()
	})
}

// writeBack replaces the tree's solved state with the new solution: rates
// and parameters per row, captured recipes and direction flags per link,
// diagnosis marks when present, then the flow summaries.
func (s *Solver) writeBack(c *compile, table *production.ProductionTable, sol *lp.Solution, d *diagnosis) {
	table.ResetSolution()

	for _, sr := range c.rows {
		switch sr.variant {
		case variantRecipe:
			row := sr.row
			row.RecipesPerSecond = math.Max(sol.VarValue(sr.variable), 0)
			row.Params = sr.params
			row.IngredientLinks = sr.ingredientLinks
			row.ProductLinks = sr.productLinks
			row.FuelLink = sr.fuelLink
			row.Warnings = sr.params.Warnings
			if row.BuiltBuildings > 0 && row.BuildingCount() > row.BuiltBuildings+production.FlowTolerance {
				row.Warnings |= production.WarnExceedsBuiltCount
			}
		case variantDecomposition:
			sr.source.DecompositionRate = math.Max(sol.VarValue(sr.variable), 0)
		}
	}

	for _, link := range c.links {
		st := c.state[link]
		link.CapturedRecipes = append(link.CapturedRecipes[:0], st.captured...)
		if st.hasProducer {
			link.Flags |= production.LinkHasProduction
		}
		if st.hasConsumer {
			link.Flags |= production.LinkHasConsumption
		}
	}

	if d != nil {
		d.apply(c)
	}
	table.RecomputeFlow(s.db)
}
