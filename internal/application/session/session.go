package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/factorlab/beltplan-go/internal/adapters/metrics"
	"github.com/factorlab/beltplan-go/internal/application/planner"
	"github.com/factorlab/beltplan-go/internal/domain/deps"
	"github.com/factorlab/beltplan-go/internal/domain/gamedata"
	"github.com/factorlab/beltplan-go/internal/domain/milestones"
	"github.com/factorlab/beltplan-go/internal/domain/production"
	"github.com/factorlab/beltplan-go/internal/domain/project"
)

// Session owns one open project and the engines serving it: the immutable
// object database, its dependency graph, the project's milestone engine and
// the LP solver. All edits flow through the session on a single foreground
// context; only the milestone engine parallelizes internally.
type Session struct {
	db     *gamedata.Database
	graph  *deps.Graph
	engine *milestones.Engine
	solver *planner.Solver
	proj   *project.Project
}

// Open wires a project to the database: builds the dependency graph once,
// runs the first accessibility computation and prepares the solver.
func Open(ctx context.Context, db *gamedata.Database, proj *project.Project) (*Session, error) {
	graph := deps.Build(db)
	s := &Session{
		db:     db,
		graph:  graph,
		engine: milestones.NewEngine(db, graph),
		solver: planner.NewSolver(db),
		proj:   proj,
	}
	if err := s.RecomputeAccessibility(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Reopen re-points the session at another project. The dependency graph is
// reused; the milestone engine starts fresh, one engine per open project.
func (s *Session) Reopen(ctx context.Context, proj *project.Project) error {
	s.proj = proj
	s.engine = milestones.NewEngine(s.db, s.graph)
	return s.RecomputeAccessibility(ctx)
}

// Reload swaps in a freshly parsed database, rebuilding the graph, engine
// and solver around it. Callers holding the session pointer keep working
// across game definition reloads. Not safe concurrently with other session
// calls.
func (s *Session) Reload(ctx context.Context, db *gamedata.Database, proj *project.Project) error {
	s.db = db
	s.graph = deps.Build(db)
	s.engine = milestones.NewEngine(db, s.graph)
	s.solver = planner.NewSolver(db)
	s.proj = proj
	return s.RecomputeAccessibility(ctx)
}

// Database returns the loaded object database.
func (s *Session) Database() *gamedata.Database { return s.db }

// Graph returns the dependency graph.
func (s *Session) Graph() *deps.Graph { return s.graph }

// Engine returns the milestone engine.
func (s *Session) Engine() *milestones.Engine { return s.engine }

// Project returns the open project.
func (s *Session) Project() *project.Project { return s.proj }

// RecomputeAccessibility runs the milestone engine from the project's
// settings and writes the resulting milestone order back, since auto-sort
// may reorder it.
func (s *Session) RecomputeAccessibility(ctx context.Context) error {
	started := time.Now()
	order, err := s.engine.Compute(ctx, s.proj.Settings.ComputeRequest())
	if err != nil {
		return err
	}
	s.proj.Settings.Milestones = order
	metrics.RecordMilestoneCompute(time.Since(started).Seconds())

	accessible, automatable := 0, 0
	for id := gamedata.ObjectID(0); int(id) < s.db.Count(); id++ {
		if s.engine.IsAccessible(id) {
			accessible++
		}
		if s.engine.IsAutomatable(id) {
			automatable++
		}
	}
	metrics.RecordAccessibility(accessible, automatable, s.db.Count(), len(order))
	return nil
}

// SolveInputs derives the per-solve context from the project settings and
// the milestone engine state.
func (s *Session) SolveInputs() planner.Inputs {
	return planner.Inputs{
		Bonuses: s.proj.Settings.Bonuses(),
		QualityAccessible: func(q *gamedata.Quality) bool {
			return s.engine.IsAccessibleWithCurrentMilestones(q.ID)
		},
	}
}

// SolvePage runs one synchronous solve pass for the page.
func (s *Session) SolvePage(ctx context.Context, page *project.Page) error {
	return s.solver.Solve(ctx, page, s.SolveInputs())
}

// SolveAllPages re-solves every page, keeping per-page errors on the pages
// themselves. Used after undo and milestone changes, which can affect any
// page.
func (s *Session) SolveAllPages(ctx context.Context) {
	for _, page := range s.proj.Pages {
		_ = s.solver.Solve(ctx, page, s.SolveInputs())
	}
}

// RecordUndo snapshots the project before an edit command mutates it.
func (s *Session) RecordUndo() {
	s.proj.RecordUndo(s.db)
}

// FindPage resolves a page reference, accepting either the page id or its
// name.
func (s *Session) FindPage(ref string) (*project.Page, error) {
	if id, err := uuid.Parse(ref); err == nil {
		if page, ok := s.proj.PageByID(id); ok {
			return page, nil
		}
	}
	if page, ok := s.proj.PageByName(ref); ok {
		return page, nil
	}
	return nil, &PageNotFoundError{Ref: ref}
}

// RowAt walks an index path from the page's root table down to a row.
func RowAt(page *project.Page, path []int) (*production.RecipeRow, error) {
	if len(path) == 0 {
		return nil, &RowNotFoundError{Path: path}
	}
	table := page.Table
	var row *production.RecipeRow
	for depth, index := range path {
		if table == nil || index < 0 || index >= len(table.Rows) {
			return nil, &RowNotFoundError{Path: path[:depth+1]}
		}
		row = table.Rows[index]
		table = row.SubTable
	}
	return row, nil
}

// TableAt resolves the table an index path addresses: the page root for an
// empty path, otherwise the sub-table of the addressed row. With attach set
// the sub-table is created on demand.
func TableAt(page *project.Page, path []int, attach bool) (*production.ProductionTable, error) {
	if len(path) == 0 {
		return page.Table, nil
	}
	row, err := RowAt(page, path)
	if err != nil {
		return nil, err
	}
	if row.SubTable == nil && !attach {
		return nil, &RowNotFoundError{Path: path}
	}
	return row.AttachSubTable(), nil
}
