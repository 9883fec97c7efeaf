// Package lp wraps gonum's simplex solver behind a bounded-variable,
// bounded-constraint model. Callers declare variables and constraints with
// arbitrary finite or infinite bounds; the model converts itself to standard
// form (equalities over non-negative variables) before solving.
package lp

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// Status classifies a solve outcome.
type Status int

const (
	// StatusOptimal means an optimal feasible point was found.
	StatusOptimal Status = iota
	// StatusInfeasible means the constraints admit no solution.
	StatusInfeasible
	// StatusUnbounded means the objective decreases without limit.
	StatusUnbounded
	// StatusAbnormal means the solver failed numerically.
	StatusAbnormal
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	}
	return "abnormal"
}

const solveTolerance = 1e-9

type variable struct {
	name string
	lb   float64
	ub   float64
	cost float64
}

type constraint struct {
	name   string
	lb     float64
	ub     float64
	coeffs map[int]float64
}

// Model is one linear program under construction. Variables and constraints
// are identified by the dense handles returned from the Add methods.
type Model struct {
	vars []variable
	cons []constraint
}

// NewModel creates an empty model.
func NewModel() *Model {
	return &Model{}
}

// AddVariable declares lb <= x <= ub with the given objective cost and
// returns the variable handle. The lower bound must be finite; ub may be
// +Inf. Declaring lb == ub pins the variable.
func (m *Model) AddVariable(name string, lb, ub, cost float64) int {
	if math.IsInf(lb, -1) || math.IsNaN(lb) {
		panic(fmt.Sprintf("lp: variable %q needs a finite lower bound", name))
	}
	if ub < lb {
		panic(fmt.Sprintf("lp: variable %q has upper bound %g below lower bound %g", name, ub, lb))
	}
	m.vars = append(m.vars, variable{name: name, lb: lb, ub: ub, cost: cost})
	return len(m.vars) - 1
}

// AddConstraint declares lb <= sum(coeff*x) <= ub with all coefficients zero
// and returns the constraint handle. Either bound may be infinite; lb == ub
// declares an equality.
func (m *Model) AddConstraint(name string, lb, ub float64) int {
	if ub < lb {
		panic(fmt.Sprintf("lp: constraint %q has upper bound %g below lower bound %g", name, ub, lb))
	}
	m.cons = append(m.cons, constraint{name: name, lb: lb, ub: ub, coeffs: map[int]float64{}})
	return len(m.cons) - 1
}

// SetCoefficient adds delta to the coefficient of variable v in constraint
// c. Repeated calls for the same pair accumulate.
func (m *Model) SetCoefficient(c, v int, delta float64) {
	m.cons[c].coeffs[v] += delta
}

// VariableCount returns the number of declared variables.
func (m *Model) VariableCount() int { return len(m.vars) }

// ConstraintCount returns the number of declared constraints.
func (m *Model) ConstraintCount() int { return len(m.cons) }

// VariableName returns the name variable v was declared with.
func (m *Model) VariableName(v int) string { return m.vars[v].name }

// ConstraintName returns the name constraint c was declared with.
func (m *Model) ConstraintName(c int) string { return m.cons[c].name }

// Solution holds a solve result. Values and activities are only meaningful
// when Status is StatusOptimal.
type Solution struct {
	Status    Status
	Objective float64

	values     []float64
	activities []float64
}

// VarValue returns the solved value of variable v in the caller's
// coordinates.
func (s *Solution) VarValue(v int) float64 { return s.values[v] }

// Activity returns the solved value of constraint c's left-hand side.
func (s *Solution) Activity(c int) float64 { return s.activities[c] }

// Feasible reports whether the solution carries usable values.
func (s *Solution) Feasible() bool { return s.Status == StatusOptimal }

// standardRow is one equality of the standard form: terms (+ slack) = rhs.
// slack is -1 for a lower-bound surplus column, +1 for an upper-bound slack
// column, 0 for a plain equality.
type standardRow struct {
	terms map[int]float64
	rhs   float64
	slack int
}

// Solve converts the model to standard form and runs the simplex method.
// Infeasible and unbounded programs are reported through Status with a nil
// error; the error is reserved for solver breakdowns.
func (m *Model) Solve() (*Solution, error) {
	rows, col, ncol, feasible := m.standardForm()
	if !feasible {
		return &Solution{Status: StatusInfeasible}, nil
	}

	values := make([]float64, len(m.vars))
	for i, v := range m.vars {
		values[i] = v.lb
	}

	switch {
	case len(rows) == 0:
		// No rows survived: every free column sits at its lower bound
		// unless a negative cost makes the program unbounded.
		for i, v := range m.vars {
			if col[i] >= 0 && v.cost < 0 {
				return &Solution{Status: StatusUnbounded}, nil
			}
		}
	default:
		xs, status, err := m.runSimplex(rows, col, ncol)
		if status != StatusOptimal {
			return &Solution{Status: status}, err
		}
		for i := range m.vars {
			if col[i] >= 0 {
				values[i] += xs[col[i]]
			}
		}
	}

	sol := &Solution{Status: StatusOptimal, values: values}
	for i, v := range m.vars {
		sol.Objective += v.cost * values[i]
	}
	sol.activities = make([]float64, len(m.cons))
	for c, con := range m.cons {
		var activity float64
		for v, coeff := range con.coeffs {
			activity += coeff * values[v]
		}
		sol.activities[c] = activity
	}
	return sol, nil
}

// standardForm shifts every variable to start at zero, drops fixed
// variables into the right-hand sides and expands ranged constraints and
// finite upper bounds into slack rows. The returned feasible flag is false
// when a constraint over fixed variables is already violated.
func (m *Model) standardForm() (rows []standardRow, col []int, ncol int, feasible bool) {
	col = make([]int, len(m.vars))
	for i, v := range m.vars {
		if v.ub > v.lb {
			col[i] = ncol
			ncol++
		} else {
			col[i] = -1
		}
	}

	for _, con := range m.cons {
		var shift float64
		terms := map[int]float64{}
		for v, coeff := range con.coeffs {
			if coeff == 0 {
				continue
			}
			shift += coeff * m.vars[v].lb
			if col[v] >= 0 {
				terms[col[v]] += coeff
			}
		}
		lb, ub := con.lb, con.ub
		if !math.IsInf(lb, -1) {
			lb -= shift
		}
		if !math.IsInf(ub, 1) {
			ub -= shift
		}

		switch {
		case math.IsInf(lb, -1) && math.IsInf(ub, 1):
			// Unconstrained row.
		case len(terms) == 0:
			if lb > solveTolerance || ub < -solveTolerance {
				return nil, nil, 0, false
			}
		case lb == ub:
			rows = append(rows, standardRow{terms: terms, rhs: lb})
		default:
			if !math.IsInf(lb, -1) {
				rows = append(rows, standardRow{terms: copyTerms(terms), rhs: lb, slack: -1})
			}
			if !math.IsInf(ub, 1) {
				rows = append(rows, standardRow{terms: copyTerms(terms), rhs: ub, slack: 1})
			}
		}
	}

	for i, v := range m.vars {
		if col[i] < 0 || math.IsInf(v.ub, 1) {
			continue
		}
		rows = append(rows, standardRow{
			terms: map[int]float64{col[i]: 1},
			rhs:   v.ub - v.lb,
			slack: 1,
		})
	}
	return rows, col, ncol, true
}

func copyTerms(terms map[int]float64) map[int]float64 {
	out := make(map[int]float64, len(terms))
	for k, v := range terms {
		out[k] = v
	}
	return out
}

// runSimplex assembles the dense standard-form system and solves it,
// returning the shifted column values when the status is StatusOptimal.
func (m *Model) runSimplex(rows []standardRow, col []int, ncol int) ([]float64, Status, error) {
	nslack := 0
	for _, row := range rows {
		if row.slack != 0 {
			nslack++
		}
	}
	width := ncol + nslack

	a := mat.NewDense(len(rows), width, nil)
	b := make([]float64, len(rows))
	costs := make([]float64, width)
	for i, v := range m.vars {
		if col[i] >= 0 {
			costs[col[i]] = v.cost
		}
	}

	next := ncol
	for r, row := range rows {
		for c, coeff := range row.terms {
			a.Set(r, c, coeff)
		}
		if row.slack != 0 {
			a.Set(r, next, float64(row.slack))
			next++
		}
		b[r] = row.rhs
		if b[r] < 0 {
			for c := 0; c < width; c++ {
				a.Set(r, c, -a.At(r, c))
			}
			b[r] = -b[r]
		}
	}

	_, xs, err := lp.Simplex(costs, a, b, solveTolerance, nil)
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return nil, StatusInfeasible, nil
	case errors.Is(err, lp.ErrUnbounded):
		return nil, StatusUnbounded, nil
	case err != nil:
		return nil, StatusAbnormal, fmt.Errorf("lp: solving %dx%d system: %w", len(rows), width, err)
	}
	return xs, StatusOptimal, nil
}
