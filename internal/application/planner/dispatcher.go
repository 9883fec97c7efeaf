package planner

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"github.com/factorlab/beltplan-go/internal/domain/project"
)

// Dispatcher coalesces bursts of solve requests. Each page holds at most
// one pending request; re-requesting before the worker gets to it replaces
// the pending inputs, so rapid edits collapse into a single solve.
type Dispatcher struct {
	solver  *Solver
	limiter *rate.Limiter

	// OnResult, when set, observes every completed solve.
	OnResult func(page *project.Page, err error)

	mu      sync.Mutex
	pending map[*project.Page]Inputs
	queue   []*project.Page
	wake    chan struct{}
}

// NewDispatcher creates a dispatcher solving at most solvesPerSecond pages
// per second.
func NewDispatcher(solver *Solver, solvesPerSecond float64) *Dispatcher {
	if solvesPerSecond <= 0 {
		solvesPerSecond = 4
	}
	return &Dispatcher{
		solver:  solver,
		limiter: rate.NewLimiter(rate.Limit(solvesPerSecond), 1),
		pending: map[*project.Page]Inputs{},
		wake:    make(chan struct{}, 1),
	}
}

// Request queues a solve for the page and returns immediately.
func (d *Dispatcher) Request(page *project.Page, in Inputs) {
	d.mu.Lock()
	if _, queued := d.pending[page]; !queued {
		d.queue = append(d.queue, page)
	}
	d.pending[page] = in
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Run processes requests until the context ends. Pages are solved in
// request order, throttled by the dispatcher's rate limit.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.wake:
		}
		for {
			page, in, ok := d.take()
			if !ok {
				break
			}
			if err := d.limiter.Wait(ctx); err != nil {
				return err
			}
			err := d.solver.Solve(ctx, page, in)
			if d.OnResult != nil {
				d.OnResult(page, err)
			}
		}
	}
}

func (d *Dispatcher) take() (*project.Page, Inputs, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.queue) == 0 {
		return nil, Inputs{}, false
	}
	page := d.queue[0]
	d.queue = d.queue[1:]
	in := d.pending[page]
	delete(d.pending, page)
	return page, in, true
}
