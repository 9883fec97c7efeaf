package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"

	"github.com/factorlab/beltplan-go/internal/domain/deps"
	"github.com/factorlab/beltplan-go/internal/domain/gamedata"
	"github.com/factorlab/beltplan-go/internal/domain/milestones"
	"github.com/factorlab/beltplan-go/test/helpers"
)

type accessibilityContext struct {
	db      *gamedata.Database
	engine  *milestones.Engine
	request milestones.ComputeRequest
	order   []gamedata.ObjectID
	err     error
}

func (ctx *accessibilityContext) reset() {
	ctx.db = helpers.SharedGameDB
	ctx.engine = milestones.NewEngine(ctx.db, deps.Build(ctx.db))
	ctx.request = milestones.ComputeRequest{AutoSort: true}
	ctx.order = nil
	ctx.err = nil
}

// lookup resolves a "kind:name" reference against the shared definition.
func (ctx *accessibilityContext) lookup(ref string) (gamedata.ObjectID, error) {
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

// Given steps

func (ctx *accessibilityContext) theMilestonesAre(list string) error {
	ctx.request.Milestones = nil
	for _, ref := range strings.Split(list, ",") {
		id, err := ctx.lookup(strings.TrimSpace(ref))
		if err != nil {
			return err
		}
		ctx.request.Milestones = append(ctx.request.Milestones, id)
	}
	return nil
}

func (ctx *accessibilityContext) autoSortingIsDisabled() error {
	ctx.request.AutoSort = false
	return nil
}

func (ctx *accessibilityContext) isMarkedAccessible(ref string) error {
	id, err := ctx.lookup(ref)
	if err != nil {
		return err
	}
	ctx.request.MarkedAccessible = append(ctx.request.MarkedAccessible, id)
	return nil
}

func (ctx *accessibilityContext) isMarkedInaccessible(ref string) error {
	id, err := ctx.lookup(ref)
	if err != nil {
		return err
	}
	ctx.request.MarkedInaccessible = append(ctx.request.MarkedInaccessible, id)
	return nil
}

func (ctx *accessibilityContext) milestoneIsUnlocked(ref string) error {
	id, err := ctx.lookup(ref)
	if err != nil {
		return err
	}
	ctx.request.UnlockedMilestones = append(ctx.request.UnlockedMilestones, id)
	return nil
}

// When steps

func (ctx *accessibilityContext) accessibilityIsComputed() error {
	ctx.order, ctx.err = ctx.engine.Compute(context.Background(), ctx.request)
	return nil
}

// Then steps

func (ctx *accessibilityContext) theComputationShouldSucceed() error {
	if ctx.err != nil {
		return fmt.Errorf("expected success but got error: %v", ctx.err)
	}
	return nil
}

func (ctx *accessibilityContext) theEffectiveMilestoneOrderShouldBe(list string) error {
	if ctx.err != nil {
		return fmt.Errorf("computation failed: %v", ctx.err)
	}
	var want []gamedata.ObjectID
	for _, ref := range strings.Split(list, ",") {
		id, err := ctx.lookup(strings.TrimSpace(ref))
		if err != nil {
			return err
		}
		want = append(want, id)
	}
	if len(ctx.order) != len(want) {
		return fmt.Errorf("expected %d milestones but got %d", len(want), len(ctx.order))
	}
	for i, id := range want {
		if ctx.order[i] != id {
			got := ctx.db.Get(ctx.order[i]).Info().Name
			return fmt.Errorf("expected milestone %d to be %q but got %q",
				i, ctx.db.Get(id).Info().Name, got)
		}
	}
	return nil
}

func (ctx *accessibilityContext) shouldBeAccessible(ref string) error {
	id, err := ctx.lookup(ref)
	if err != nil {
		return err
	}
	if !ctx.engine.IsAccessible(id) {
		return fmt.Errorf("expected %s to be accessible but it is not", ref)
	}
	return nil
}

func (ctx *accessibilityContext) shouldNotBeAccessible(ref string) error {
	id, err := ctx.lookup(ref)
	if err != nil {
		return err
	}
	if ctx.engine.IsAccessible(id) {
		return fmt.Errorf("expected %s to be inaccessible but it is accessible", ref)
	}
	return nil
}

func (ctx *accessibilityContext) shouldBeAutomatable(ref string) error {
	id, err := ctx.lookup(ref)
	if err != nil {
		return err
	}
	if !ctx.engine.IsAutomatable(id) {
		return fmt.Errorf("expected %s to be automatable but it is not", ref)
	}
	return nil
}

func (ctx *accessibilityContext) shouldNotBeAutomatable(ref string) error {
	id, err := ctx.lookup(ref)
	if err != nil {
		return err
	}
	if ctx.engine.IsAutomatable(id) {
		return fmt.Errorf("expected %s to not be automatable but it is", ref)
	}
	return nil
}

func (ctx *accessibilityContext) theHighestMilestoneForShouldBe(ref, milestone string) error {
	id, err := ctx.lookup(ref)
	if err != nil {
		return err
	}
	highest := ctx.engine.GetHighest(id)
	if milestone == "none" {
		if highest != gamedata.NoObject {
			return fmt.Errorf("expected no milestone for %s but got %q", ref, ctx.db.Get(highest).Info().Name)
		}
		return nil
	}
	want, err := ctx.lookup(milestone)
	if err != nil {
		return err
	}
	if highest == gamedata.NoObject {
		return fmt.Errorf("expected highest milestone %q for %s but got none", milestone, ref)
	}
	if highest != want {
		return fmt.Errorf("expected highest milestone %q for %s but got %q",
			milestone, ref, ctx.db.Get(highest).Info().Name)
	}
	return nil
}

func (ctx *accessibilityContext) shouldBeAccessibleWithCurrentMilestones(ref string) error {
	id, err := ctx.lookup(ref)
	if err != nil {
		return err
	}
	if !ctx.engine.IsAccessibleWithCurrentMilestones(id) {
		return fmt.Errorf("expected %s to be accessible with current milestones but it is not", ref)
	}
	return nil
}

func (ctx *accessibilityContext) shouldNotBeAccessibleWithCurrentMilestones(ref string) error {
	id, err := ctx.lookup(ref)
	if err != nil {
		return err
	}
	if ctx.engine.IsAccessibleWithCurrentMilestones(id) {
		return fmt.Errorf("expected %s to be locked behind a milestone but it is accessible now", ref)
	}
	return nil
}

func (ctx *accessibilityContext) shouldBeAccessibleAtTheNextMilestone(ref string) error {
	id, err := ctx.lookup(ref)
	if err != nil {
		return err
	}
	if !ctx.engine.IsAccessibleAtNextMilestone(id) {
		return fmt.Errorf("expected %s to be accessible at the next milestone but it is not", ref)
	}
	return nil
}

func (ctx *accessibilityContext) shouldNotBeAccessibleAtTheNextMilestone(ref string) error {
	id, err := ctx.lookup(ref)
	if err != nil {
		return err
	}
	if ctx.engine.IsAccessibleAtNextMilestone(id) {
		return fmt.Errorf("expected %s to stay locked at the next milestone but it is accessible", ref)
	}
	return nil
}

func (ctx *accessibilityContext) theWarningsShouldInclude(text string) error {
	for _, w := range ctx.engine.Warnings() {
		if strings.Contains(w.Message, text) {
			return nil
		}
	}
	return fmt.Errorf("expected a warning containing %q but warnings were %v", text, ctx.engine.Warnings())
}

func (ctx *accessibilityContext) thereShouldBeNoWarnings() error {
	if warnings := ctx.engine.Warnings(); len(warnings) > 0 {
		return fmt.Errorf("expected no warnings but got %v", warnings)
	}
	return nil
}

// Register steps

func InitializeAccessibilityScenario(sc *godog.ScenarioContext) {
	accCtx := &accessibilityContext{}

	sc.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		accCtx.reset()
		return ctx, nil
	})

	sc.Step(`^the milestones are "([^"]*)"$`, accCtx.theMilestonesAre)
	sc.Step(`^auto-sorting is disabled$`, accCtx.autoSortingIsDisabled)
	sc.Step(`^"([^"]*)" is marked accessible$`, accCtx.isMarkedAccessible)
	sc.Step(`^"([^"]*)" is marked inaccessible$`, accCtx.isMarkedInaccessible)
	sc.Step(`^milestone "([^"]*)" is unlocked$`, accCtx.milestoneIsUnlocked)
	sc.Step(`^accessibility is computed$`, accCtx.accessibilityIsComputed)
	sc.Step(`^the computation should succeed$`, accCtx.theComputationShouldSucceed)
	sc.Step(`^the effective milestone order should be "([^"]*)"$`, accCtx.theEffectiveMilestoneOrderShouldBe)
	sc.Step(`^"([^"]*)" should be accessible$`, accCtx.shouldBeAccessible)
	sc.Step(`^"([^"]*)" should not be accessible$`, accCtx.shouldNotBeAccessible)
	sc.Step(`^"([^"]*)" should be automatable$`, accCtx.shouldBeAutomatable)
	sc.Step(`^"([^"]*)" should not be automatable$`, accCtx.shouldNotBeAutomatable)
	sc.Step(`^the highest milestone for "([^"]*)" should be "([^"]*)"$`, accCtx.theHighestMilestoneForShouldBe)
	sc.Step(`^"([^"]*)" should be accessible with current milestones$`, accCtx.shouldBeAccessibleWithCurrentMilestones)
	sc.Step(`^"([^"]*)" should not be accessible with current milestones$`, accCtx.shouldNotBeAccessibleWithCurrentMilestones)
	sc.Step(`^"([^"]*)" should be accessible at the next milestone$`, accCtx.shouldBeAccessibleAtTheNextMilestone)
	sc.Step(`^"([^"]*)" should not be accessible at the next milestone$`, accCtx.shouldNotBeAccessibleAtTheNextMilestone)
	sc.Step(`^the accessibility warnings should include "([^"]*)"$`, accCtx.theWarningsShouldInclude)
	sc.Step(`^there should be no accessibility warnings$`, accCtx.thereShouldBeNoWarnings)
}
