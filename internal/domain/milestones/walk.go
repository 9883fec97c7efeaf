package milestones

import (
	"github.com/factorlab/beltplan-go/internal/domain/deps"
	"github.com/factorlab/beltplan-go/internal/domain/gamedata"
)

// runWalk floods accessibility outward from the seed set. Objects are
// unvisited until enqueued and accessible once marked; marking is monotonic
// and bounded by the object count, so the walk always terminates. Pruned
// objects are never marked, not even as seeds. onMark, when non-nil, fires
// once per object in first-reached order.
func runWalk(graph *deps.Graph, pruned []bool, seeds []gamedata.ObjectID, onMark func(gamedata.ObjectID)) []bool {
	n := graph.Database().Count()
	accessible := make([]bool, n)
	queue := make([]gamedata.ObjectID, 0, n)

	mark := func(id gamedata.ObjectID) {
		if accessible[id] || pruned[id] {
			return
		}
		accessible[id] = true
		if onMark != nil {
			onMark(id)
		}
		queue = append(queue, id)
	}

	for _, seed := range seeds {
		mark(seed)
	}

	isAccessible := func(id gamedata.ObjectID) bool { return accessible[id] }
	for head := 0; head < len(queue); head++ {
		for _, dep := range graph.DependentsOf(queue[head]) {
			if accessible[dep] || pruned[dep] {
				continue
			}
			if graph.NodeOf(dep).IsAccessible(isAccessible) {
				accessible[dep] = true
				if onMark != nil {
					onMark(dep)
				}
				queue = append(queue, dep)
			}
		}
	}
	return accessible
}

// runAutomationWalk floods automation status outward from the automation
// seeds. Only accessible objects can become automatable; one-time-investment
// requirements accept merely accessible children.
func runAutomationWalk(graph *deps.Graph, accessible []bool, seeds []gamedata.ObjectID) []bool {
	n := graph.Database().Count()
	automatable := make([]bool, n)
	queue := make([]gamedata.ObjectID, 0, n)

	mark := func(id gamedata.ObjectID) {
		if automatable[id] || !accessible[id] {
			return
		}
		automatable[id] = true
		queue = append(queue, id)
	}

	for _, seed := range seeds {
		mark(seed)
	}
	for _, id := range graph.Unconditional() {
		mark(id)
	}

	isAutomatable := func(id gamedata.ObjectID) bool { return automatable[id] }
	isAccessible := func(id gamedata.ObjectID) bool { return accessible[id] }
	for head := 0; head < len(queue); head++ {
		for _, dep := range graph.DependentsOf(queue[head]) {
			if automatable[dep] || !accessible[dep] {
				continue
			}
			if graph.NodeOf(dep).IsAutomatable(isAutomatable, isAccessible) {
				automatable[dep] = true
				queue = append(queue, dep)
			}
		}
	}
	return automatable
}
