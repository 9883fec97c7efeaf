package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"

	"github.com/factorlab/beltplan-go/internal/domain/deps"
	"github.com/factorlab/beltplan-go/internal/domain/gamedata"
	"github.com/factorlab/beltplan-go/test/helpers"
)

type dependencyContext struct {
	db    *gamedata.Database
	graph *deps.Graph
	node  *deps.Node
	id    gamedata.ObjectID
}

func (ctx *dependencyContext) reset() {
	ctx.db = helpers.SharedGameDB
	ctx.graph = deps.Build(ctx.db)
	ctx.node = nil
	ctx.id = gamedata.NoObject
}

func (ctx *dependencyContext) lookup(ref string) (gamedata.ObjectID, error) {
	kindName, name, found := strings.Cut(ref, ":")
	if !found {
		return gamedata.NoObject, fmt.Errorf("reference %q is not of the form kind:name", ref)
	}
	kind, ok := gamedata.ParseKind(kindName)
	if !ok {
		return gamedata.NoObject, fmt.Errorf("unknown object kind %q", kindName)
	}
	obj, ok := ctx.db.ByName(kind, name)
	if !ok {
		return gamedata.NoObject, fmt.Errorf("no %s named %q in the test definition", kindName, name)
	}
	return obj.Info().ID, nil
}

func (ctx *dependencyContext) parseList(list string) ([]gamedata.ObjectID, error) {
	var ids []gamedata.ObjectID
	for _, ref := range strings.Split(list, ",") {
		id, err := ctx.lookup(strings.TrimSpace(ref))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// When steps

func (ctx *dependencyContext) iInspectTheDependenciesOf(ref string) error {
	id, err := ctx.lookup(ref)
	if err != nil {
		return err
	}
	ctx.id = id
	ctx.node = ctx.graph.NodeOf(id)
	if ctx.node == nil {
		return fmt.Errorf("no dependency node for %s", ref)
	}
	return nil
}

// Then steps

func (ctx *dependencyContext) theFlattenedRequirementsShouldInclude(list string) error {
	want, err := ctx.parseList(list)
	if err != nil {
		return err
	}
	flat := ctx.node.Flatten()
	have := make(map[gamedata.ObjectID]bool, len(flat))
	for _, id := range flat {
		have[id] = true
	}
	for _, id := range want {
		if !have[id] {
			return fmt.Errorf("expected requirement %q but the flattened set does not contain it",
				ctx.db.Get(id).Info().Name)
		}
	}
	return nil
}

func (ctx *dependencyContext) theFlattenedRequirementsShouldNotInclude(list string) error {
	want, err := ctx.parseList(list)
	if err != nil {
		return err
	}
	for _, flatID := range ctx.node.Flatten() {
		for _, id := range want {
			if flatID == id {
				return fmt.Errorf("did not expect requirement %q in the flattened set",
					ctx.db.Get(id).Info().Name)
			}
		}
	}
	return nil
}

// theRequirementsShouldHaveCategory walks the tree looking for a list node
// of the named category carrying exactly the given objects.
func (ctx *dependencyContext) theRequirementsShouldHaveCategory(category, list string) error {
	want, err := ctx.parseList(list)
	if err != nil {
		return err
	}

	found := false
	ctx.node.Walk(listVisitor(func(flags deps.Flags, ids []gamedata.ObjectID) {
		if found || flags.Category() != category {
			return
		}
		if len(ids) != len(want) {
			return
		}
		for i, id := range want {
			if ids[i] != id {
				return
			}
		}
		found = true
	}))
	if !found {
		return fmt.Errorf("no %q requirement list with objects %q found", category, list)
	}
	return nil
}

func (ctx *dependencyContext) shouldBeAnUnconditionalObject(ref string) error {
	id, err := ctx.lookup(ref)
	if err != nil {
		return err
	}
	for _, uid := range ctx.graph.Unconditional() {
		if uid == id {
			return nil
		}
	}
	return fmt.Errorf("expected %s to be unconditional but it is not", ref)
}

func (ctx *dependencyContext) theDependentsOfShouldInclude(ref, list string) error {
	id, err := ctx.lookup(ref)
	if err != nil {
		return err
	}
	want, err := ctx.parseList(list)
	if err != nil {
		return err
	}
	dependents := ctx.graph.DependentsOf(id)
	have := make(map[gamedata.ObjectID]bool, len(dependents))
	for _, d := range dependents {
		have[d] = true
	}
	for _, w := range want {
		if !have[w] {
			return fmt.Errorf("expected %q among the dependents of %s", ctx.db.Get(w).Info().Name, ref)
		}
	}
	return nil
}

// listVisitor adapts a function to the walk interface, ignoring groups.
type listVisitor func(flags deps.Flags, ids []gamedata.ObjectID)

func (v listVisitor) VisitList(flags deps.Flags, ids []gamedata.ObjectID) { v(flags, ids) }
func (v listVisitor) EnterGroup(op deps.GroupOp)                          {}
func (v listVisitor) LeaveGroup(op deps.GroupOp)                          {}

// Register steps

func InitializeDependencyScenario(sc *godog.ScenarioContext) {
	depCtx := &dependencyContext{}

	sc.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		depCtx.reset()
		return ctx, nil
	})

	sc.Step(`^I inspect the dependencies of "([^"]*)"$`, depCtx.iInspectTheDependenciesOf)
	sc.Step(`^the flattened requirements should include "([^"]*)"$`, depCtx.theFlattenedRequirementsShouldInclude)
	sc.Step(`^the flattened requirements should not include "([^"]*)"$`, depCtx.theFlattenedRequirementsShouldNotInclude)
	sc.Step(`^the requirements should have a "([^"]*)" list of "([^"]*)"$`, depCtx.theRequirementsShouldHaveCategory)
	sc.Step(`^"([^"]*)" should be an unconditional object$`, depCtx.shouldBeAnUnconditionalObject)
	sc.Step(`^the dependents of "([^"]*)" should include "([^"]*)"$`, depCtx.theDependentsOfShouldInclude)
}
