package milestones

import (
	"context"
	"fmt"
	"math/bits"
	"sync"

	"github.com/factorlab/beltplan-go/internal/domain/deps"
	"github.com/factorlab/beltplan-go/internal/domain/gamedata"
)

// MaxMilestones is the most milestones one project can track. Bit 0 of every
// mask is the plain-reachability bit, leaving 63 milestone bits.
const MaxMilestones = 63

// ComputeRequest carries the project settings one accessibility computation
// depends on. Recomputing with an identical request yields identical results.
type ComputeRequest struct {
	// Milestones in user order. With AutoSort set, the engine rewrites the
	// order to match first encounter during the base walk; the reordered
	// list is returned by Compute.
	Milestones []gamedata.ObjectID
	AutoSort   bool

	// MarkedAccessible objects join the walk seeds; MarkedInaccessible
	// objects are pruned from every walk.
	MarkedAccessible   []gamedata.ObjectID
	MarkedInaccessible []gamedata.ObjectID

	// UnlockedMilestones lists milestones the player has already cleared,
	// which determines the locked mask.
	UnlockedMilestones []gamedata.ObjectID
}

// Engine computes and answers accessibility queries for one project. Each
// open project owns its own instance; reopening a project starts over with a
// fresh Compute call.
type Engine struct {
	db    *gamedata.Database
	graph *deps.Graph

	milestones     []gamedata.ObjectID
	milestoneIndex map[gamedata.ObjectID]int
	result         []uint64
	accessible     []bool
	automatable    []bool
	lockedMask     uint64
	warnings       []Warning
	computed       bool
}

// NewEngine creates an engine over a built dependency graph. Compute must
// run before any query.
func NewEngine(db *gamedata.Database, graph *deps.Graph) *Engine {
	return &Engine{db: db, graph: graph}
}

// Compute runs the full accessibility analysis: a base walk, one pruned walk
// per milestone, bitmask assembly, inaccessible-mask prediction and the
// automation walk. It returns the milestone list in effective order. The
// per-milestone walks are independent and run concurrently; their results
// are joined before any bitmask is assembled.
func (e *Engine) Compute(ctx context.Context, req ComputeRequest) ([]gamedata.ObjectID, error) {
	if len(req.Milestones) > MaxMilestones {
		return nil, fmt.Errorf("too many milestones: %d, limit %d", len(req.Milestones), MaxMilestones)
	}

	n := e.db.Count()
	e.warnings = nil

	basePrune := make([]bool, n)
	for _, id := range req.MarkedInaccessible {
		basePrune[id] = true
	}
	seeds := e.seeds(req.MarkedAccessible)

	candidates := make(map[gamedata.ObjectID]bool, len(req.Milestones))
	for _, id := range req.Milestones {
		candidates[id] = true
	}

	var encountered []gamedata.ObjectID
	onMark := func(id gamedata.ObjectID) {
		if candidates[id] {
			encountered = append(encountered, id)
		}
	}
	if !req.AutoSort {
		onMark = nil
	}
	accessible := runWalk(e.graph, basePrune, seeds, onMark)

	milestones := orderMilestones(req.Milestones, encountered, req.AutoSort)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Pruned walks are mutually independent: each one answers "what stays
	// reachable without this milestone" against its own private state.
	without := make([][]bool, len(milestones))
	var wg sync.WaitGroup
	for i, milestone := range milestones {
		wg.Add(1)
		go func(i int, milestone gamedata.ObjectID) {
			defer wg.Done()
			pruned := make([]bool, n)
			copy(pruned, basePrune)
			pruned[milestone] = true
			without[i] = runWalk(e.graph, pruned, seeds, nil)
		}(i, milestone)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := make([]uint64, n)
	for id := 0; id < n; id++ {
		if !accessible[id] {
			continue
		}
		mask := uint64(1)
		for i := range milestones {
			if !without[i][id] {
				mask |= 1 << (i + 1)
			}
		}
		result[id] = mask
	}

	e.milestones = milestones
	e.milestoneIndex = make(map[gamedata.ObjectID]int, len(milestones))
	for i, id := range milestones {
		e.milestoneIndex[id] = i
	}
	e.result = result
	e.accessible = accessible

	e.predictInaccessible()
	e.automatable = runAutomationWalk(e.graph, accessible, e.db.AutomationSeeds)
	e.collectWarnings(accessible, milestones)
	e.ApplyUnlocks(req.UnlockedMilestones)
	e.computed = true

	return milestones, nil
}

// seeds joins the database root set, the unconditional dependency nodes and
// the user's accessibility marks.
func (e *Engine) seeds(markedAccessible []gamedata.ObjectID) []gamedata.ObjectID {
	seeds := make([]gamedata.ObjectID, 0, len(e.db.RootAccessible)+len(markedAccessible))
	seeds = append(seeds, e.db.RootAccessible...)
	seeds = append(seeds, e.graph.Unconditional()...)
	seeds = append(seeds, markedAccessible...)
	return seeds
}

// orderMilestones applies auto-sort set-union semantics: milestones in
// first-encountered order, then never-encountered ones in request order,
// without duplicates.
func orderMilestones(requested, encountered []gamedata.ObjectID, autoSort bool) []gamedata.ObjectID {
	if !autoSort {
		return dedupIDs(requested)
	}
	return dedupIDs(append(append([]gamedata.ObjectID{}, encountered...), requested...))
}

func dedupIDs(ids []gamedata.ObjectID) []gamedata.ObjectID {
	out := make([]gamedata.ObjectID, 0, len(ids))
	seen := make(map[gamedata.ObjectID]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// predictInaccessible estimates milestone masks for objects the base walk
// never reached, by folding dependency masks with bit 0 cleared through each
// object's node. Masks only ever grow, so the work-queue fixed point cannot
// oscillate and terminates once no mask changes.
func (e *Engine) predictInaccessible() {
	n := e.db.Count()
	queue := make([]gamedata.ObjectID, 0, n)
	inQueue := make([]bool, n)

	// A milestone always requires itself.
	for i, milestone := range e.milestones {
		if !e.accessible[milestone] {
			e.result[milestone] |= 1 << (i + 1)
		}
	}

	for id := 0; id < n; id++ {
		if !e.accessible[id] {
			queue = append(queue, gamedata.ObjectID(id))
			inQueue[id] = true
		}
	}

	maskOf := func(id gamedata.ObjectID) uint64 { return e.result[id] &^ 1 }
	for head := 0; head < len(queue); head++ {
		id := queue[head]
		inQueue[id] = false

		predicted := e.graph.NodeOf(id).AggregateBits(maskOf)
		if e.result[id]|predicted == e.result[id] {
			continue
		}
		e.result[id] |= predicted
		for _, dep := range e.graph.DependentsOf(id) {
			if !e.accessible[dep] && !inQueue[dep] {
				inQueue[dep] = true
				queue = append(queue, dep)
			}
		}
	}
}

func (e *Engine) collectWarnings(accessible []bool, milestones []gamedata.ObjectID) {
	count := 0
	for _, ok := range accessible {
		if ok {
			count++
		}
	}
	if count*2 < e.db.Count() {
		e.warnings = append(e.warnings, Warning{
			Code:    WarnFewObjectsAccessible,
			Message: fmt.Sprintf("only %d of %d objects are accessible", count, e.db.Count()),
		})
	}
	for _, milestone := range milestones {
		if !accessible[milestone] {
			e.warnings = append(e.warnings, Warning{
				Code:    WarnMilestoneUnreachable,
				Message: fmt.Sprintf("milestone %s is not reachable", e.db.Get(milestone).Info().Name),
			})
		}
	}
	if e.db.Win != gamedata.NoObject && !e.automatable[e.db.Win] {
		e.warnings = append(e.warnings, Warning{
			Code:    WarnWinNotAutomatable,
			Message: fmt.Sprintf("no automatable path to %s", e.db.Get(e.db.Win).Info().Name),
		})
	}
}

// ApplyUnlocks recomputes the locked mask from the set of cleared
// milestones. Bit 0 is always unlocked; milestone bits stay locked until
// their milestone is cleared. No walks rerun: unlocking only changes how
// masks are interpreted.
func (e *Engine) ApplyUnlocks(unlocked []gamedata.ObjectID) {
	cleared := make(map[gamedata.ObjectID]bool, len(unlocked))
	for _, id := range unlocked {
		cleared[id] = true
	}
	mask := uint64(1)
	for i, milestone := range e.milestones {
		if !cleared[milestone] {
			mask |= 1 << (i + 1)
		}
	}
	e.lockedMask = mask
}

// MaskOf returns the raw accessibility bitmask of an object.
func (e *Engine) MaskOf(id gamedata.ObjectID) uint64 {
	return e.result[id]
}

// LockedMask returns the currently locking milestone bits plus bit 0.
func (e *Engine) LockedMask() uint64 { return e.lockedMask }

// Milestones returns the effective milestone order of the last Compute.
func (e *Engine) Milestones() []gamedata.ObjectID { return e.milestones }

// Warnings returns the advisory diagnostics of the last Compute.
func (e *Engine) Warnings() []Warning { return e.warnings }

// IsAccessible reports plain reachability, ignoring milestone locks.
func (e *Engine) IsAccessible(id gamedata.ObjectID) bool {
	return e.result[id]&1 != 0
}

// IsAutomatable reports whether the object can be produced without manual
// player action.
func (e *Engine) IsAutomatable(id gamedata.ObjectID) bool {
	return e.automatable[id]
}

// IsAccessibleWithCurrentMilestones reports whether every milestone gating
// the object has been unlocked: only bit 0 survives the locked mask.
func (e *Engine) IsAccessibleWithCurrentMilestones(id gamedata.ObjectID) bool {
	return e.result[id]&e.lockedMask == 1
}

// IsAccessibleAtNextMilestone reports whether the object is reachable and at
// most one locked milestone still gates it, i.e. it unlocks now or with the
// very next milestone.
func (e *Engine) IsAccessibleAtNextMilestone(id gamedata.ObjectID) bool {
	mask := e.result[id]
	if mask&1 == 0 {
		return false
	}
	return bits.OnesCount64(mask&e.lockedMask&^1) <= 1
}

// GetHighest returns the latest milestone gating the object, or NoObject
// when nothing gates it.
func (e *Engine) GetHighest(id gamedata.ObjectID) gamedata.ObjectID {
	mask := e.result[id] &^ 1
	if mask == 0 {
		return gamedata.NoObject
	}
	highest := 63 - bits.LeadingZeros64(mask)
	index := highest - 1
	if index >= len(e.milestones) {
		return gamedata.NoObject
	}
	return e.milestones[index]
}

// Computed reports whether Compute has run at least once.
func (e *Engine) Computed() bool { return e.computed }
