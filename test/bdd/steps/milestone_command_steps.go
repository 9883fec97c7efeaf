package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"

	"github.com/factorlab/beltplan-go/internal/application/progression/commands"
	"github.com/factorlab/beltplan-go/internal/application/progression/queries"
	"github.com/factorlab/beltplan-go/internal/application/session"
	"github.com/factorlab/beltplan-go/internal/domain/project"
	"github.com/factorlab/beltplan-go/test/helpers"
)

type milestoneCommandContext struct {
	sess *session.Session

	setMilestones *commands.SetMilestonesHandler
	setUnlocked   *commands.SetMilestoneUnlockedHandler
	mark          *commands.MarkAccessibilityHandler
	recompute     *commands.RecomputeMilestonesHandler
	getAccess     *queries.GetAccessibilityHandler
	list          *queries.ListMilestonesHandler
	explain       *queries.ExplainDependenciesHandler

	order     []string
	warnings  []string
	listed    *queries.ListMilestonesResponse
	access    *queries.GetAccessibilityResponse
	explained *queries.ExplainDependenciesResponse
	marked    *commands.MarkAccessibilityResponse
	err       error
}

func (ctx *milestoneCommandContext) reset() {
	proj := project.New("milestone-project")
	sess, err := session.Open(context.Background(), helpers.SharedGameDB, proj)
	if err != nil {
		panic(fmt.Errorf("failed to open planning session: %w", err))
	}
	ctx.sess = sess

	ctx.setMilestones = commands.NewSetMilestonesHandler(sess)
	ctx.setUnlocked = commands.NewSetMilestoneUnlockedHandler(sess)
	ctx.mark = commands.NewMarkAccessibilityHandler(sess)
	ctx.recompute = commands.NewRecomputeMilestonesHandler(sess)
	ctx.getAccess = queries.NewGetAccessibilityHandler(sess)
	ctx.list = queries.NewListMilestonesHandler(sess)
	ctx.explain = queries.NewExplainDependenciesHandler(sess)

	ctx.order = nil
	ctx.warnings = nil
	ctx.listed = nil
	ctx.access = nil
	ctx.explained = nil
	ctx.marked = nil
	ctx.err = nil
}

func splitMilestoneRef(ref string) (kind, name string) {
	kind, name, found := strings.Cut(ref, ":")
	if !found {
		return "technology", ref
	}
	return kind, name
}

func splitMilestoneList(list string) []string {
	parts := strings.Split(list, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// When steps

func (ctx *milestoneCommandContext) setProjectMilestones(list string, autoSort *bool) error {
	resp, err := ctx.setMilestones.Handle(context.Background(), &commands.SetMilestonesCommand{
		Milestones: splitMilestoneList(list),
		AutoSort:   autoSort,
	})
	ctx.err = err
	if err == nil {
		r := resp.(*commands.SetMilestonesResponse)
		ctx.order = r.Milestones
		ctx.warnings = r.Warnings
	}
	return nil
}

func (ctx *milestoneCommandContext) iSetTheProjectMilestonesTo(list string) error {
	return ctx.setProjectMilestones(list, nil)
}

func (ctx *milestoneCommandContext) iSetTheProjectMilestonesToWithoutAutoSorting(list string) error {
	autoSort := false
	return ctx.setProjectMilestones(list, &autoSort)
}

func (ctx *milestoneCommandContext) iUnlockMilestone(name string) error {
	return ctx.toggleMilestone(name, true)
}

func (ctx *milestoneCommandContext) iLockMilestone(name string) error {
	return ctx.toggleMilestone(name, false)
}

func (ctx *milestoneCommandContext) toggleMilestone(name string, unlocked bool) error {
	_, err := ctx.setUnlocked.Handle(context.Background(), &commands.SetMilestoneUnlockedCommand{
		Milestone: name,
		Unlocked:  unlocked,
	})
	ctx.err = err
	return nil
}

func (ctx *milestoneCommandContext) iOverrideAs(ref, mark string) error {
	kind, name := splitMilestoneRef(ref)
	resp, err := ctx.mark.Handle(context.Background(), &commands.MarkAccessibilityCommand{
		Kind: kind,
		Name: name,
		Mark: mark,
	})
	ctx.err = err
	if err == nil {
		ctx.marked = resp.(*commands.MarkAccessibilityResponse)
	}
	return nil
}

func (ctx *milestoneCommandContext) iRecomputeTheMilestones() error {
	resp, err := ctx.recompute.Handle(context.Background(), &commands.RecomputeMilestonesCommand{})
	ctx.err = err
	if err == nil {
		r := resp.(*commands.RecomputeMilestonesResponse)
		ctx.order = r.Milestones
		ctx.warnings = r.Warnings
	}
	return nil
}

func (ctx *milestoneCommandContext) iListTheMilestones() error {
	resp, err := ctx.list.Handle(context.Background(), &queries.ListMilestonesQuery{})
	ctx.err = err
	if err == nil {
		ctx.listed = resp.(*queries.ListMilestonesResponse)
	}
	return nil
}

func (ctx *milestoneCommandContext) iQueryTheAccessibilityOf(ref string) error {
	kind, name := splitMilestoneRef(ref)
	resp, err := ctx.getAccess.Handle(context.Background(), &queries.GetAccessibilityQuery{Kind: kind, Name: name})
	ctx.err = err
	if err == nil {
		ctx.access = resp.(*queries.GetAccessibilityResponse)
	}
	return nil
}

func (ctx *milestoneCommandContext) iExplainTheDependenciesOf(ref string) error {
	kind, name := splitMilestoneRef(ref)
	resp, err := ctx.explain.Handle(context.Background(), &queries.ExplainDependenciesQuery{Kind: kind, Name: name})
	ctx.err = err
	if err == nil {
		ctx.explained = resp.(*queries.ExplainDependenciesResponse)
	}
	return nil
}

// Then steps

func (ctx *milestoneCommandContext) theMilestoneCommandShouldSucceed() error {
	if ctx.err != nil {
		return fmt.Errorf("expected success but got error: %v", ctx.err)
	}
	return nil
}

func (ctx *milestoneCommandContext) theMilestoneCommandShouldFailWithError(expected string) error {
	if ctx.err == nil {
		return fmt.Errorf("expected an error but the command succeeded")
	}
	if !strings.Contains(ctx.err.Error(), expected) {
		return fmt.Errorf("expected error containing '%s' but got '%s'", expected, ctx.err.Error())
	}
	return nil
}

func (ctx *milestoneCommandContext) theEffectiveMilestonesShouldBe(expected string) error {
	got := strings.Join(ctx.order, ", ")
	if got != expected {
		return fmt.Errorf("expected milestones %q but got %q", expected, got)
	}
	return nil
}

func (ctx *milestoneCommandContext) theMilestoneWarningsShouldInclude(expected string) error {
	for _, w := range ctx.warnings {
		if strings.Contains(w, expected) {
			return nil
		}
	}
	return fmt.Errorf("expected a warning containing %q but warnings were %v", expected, ctx.warnings)
}

func (ctx *milestoneCommandContext) thereShouldBeNoMilestoneWarnings() error {
	if len(ctx.warnings) != 0 {
		return fmt.Errorf("expected no warnings but got %v", ctx.warnings)
	}
	return nil
}

func (ctx *milestoneCommandContext) theMilestoneListShouldHaveAutoSortEnabled() error {
	if ctx.listed == nil {
		return fmt.Errorf("no milestone list received")
	}
	if !ctx.listed.AutoSort {
		return fmt.Errorf("expected auto sort to be enabled")
	}
	return nil
}

func (ctx *milestoneCommandContext) milestoneShouldBeTheTechnology(index int, state, name string) error {
	if ctx.listed == nil {
		return fmt.Errorf("no milestone list received")
	}
	if index >= len(ctx.listed.Milestones) {
		return fmt.Errorf("no milestone at index %d, got %d entries", index, len(ctx.listed.Milestones))
	}
	entry := ctx.listed.Milestones[index]
	if entry.Name != name || entry.Kind != "technology" {
		return fmt.Errorf("expected technology %q at index %d but got %s %q", name, index, entry.Kind, entry.Name)
	}
	if unlocked := state == "unlocked"; entry.Unlocked != unlocked {
		return fmt.Errorf("expected milestone %q to be %s", name, state)
	}
	return nil
}

func (ctx *milestoneCommandContext) milestoneShouldBeFlaggedUnreachable(name string) error {
	if ctx.listed == nil {
		return fmt.Errorf("no milestone list received")
	}
	for _, entry := range ctx.listed.Milestones {
		if entry.Name == name {
			if entry.Reachable {
				return fmt.Errorf("expected milestone %q to be unreachable", name)
			}
			return nil
		}
	}
	return fmt.Errorf("milestone %q not in the list", name)
}

func (ctx *milestoneCommandContext) theOverrideShouldReportAs(name, state string) error {
	if ctx.marked == nil {
		return fmt.Errorf("no override response received")
	}
	if ctx.marked.Object != name {
		return fmt.Errorf("expected override for %q but got %q", name, ctx.marked.Object)
	}
	if accessible := state == "accessible"; ctx.marked.Accessible != accessible {
		return fmt.Errorf("expected %q to be %s after the override", name, state)
	}
	return nil
}

func (ctx *milestoneCommandContext) queried() (*queries.GetAccessibilityResponse, error) {
	if ctx.access == nil {
		return nil, fmt.Errorf("no accessibility response received")
	}
	return ctx.access, nil
}

func (ctx *milestoneCommandContext) theQueriedObjectShouldBeAccessibleAndAutomatable() error {
	access, err := ctx.queried()
	if err != nil {
		return err
	}
	if !access.Accessible || !access.Automatable {
		return fmt.Errorf("expected %q to be accessible and automatable, got accessible=%v automatable=%v",
			access.Object, access.Accessible, access.Automatable)
	}
	return nil
}

func (ctx *milestoneCommandContext) theQueriedObjectShouldBeAccessibleNow() error {
	access, err := ctx.queried()
	if err != nil {
		return err
	}
	if !access.AccessibleNow {
		return fmt.Errorf("expected %q to be accessible with the unlocked milestones", access.Object)
	}
	return nil
}

func (ctx *milestoneCommandContext) theQueriedObjectShouldNotYetBeAccessible() error {
	access, err := ctx.queried()
	if err != nil {
		return err
	}
	if access.AccessibleNow {
		return fmt.Errorf("expected %q to still be behind a locked milestone", access.Object)
	}
	return nil
}

func (ctx *milestoneCommandContext) theQueriedObjectShouldBecomeAccessibleAtTheNextMilestone() error {
	access, err := ctx.queried()
	if err != nil {
		return err
	}
	if !access.AccessibleAtNext {
		return fmt.Errorf("expected %q to become accessible at the next milestone", access.Object)
	}
	return nil
}

func (ctx *milestoneCommandContext) theQueriedObjectShouldNotBecomeAccessibleAtTheNextMilestone() error {
	access, err := ctx.queried()
	if err != nil {
		return err
	}
	if access.AccessibleAtNext {
		return fmt.Errorf("expected %q to stay locked past the next milestone", access.Object)
	}
	return nil
}

func (ctx *milestoneCommandContext) theHighestRequiredMilestoneShouldBe(name string) error {
	access, err := ctx.queried()
	if err != nil {
		return err
	}
	if access.Highest != name {
		return fmt.Errorf("expected highest milestone %q but got %q", name, access.Highest)
	}
	return nil
}

func (ctx *milestoneCommandContext) theRequiredMilestonesShouldBe(expected string) error {
	access, err := ctx.queried()
	if err != nil {
		return err
	}
	got := strings.Join(access.Milestones, ", ")
	if got != expected {
		return fmt.Errorf("expected required milestones %q but got %q", expected, got)
	}
	return nil
}

func (ctx *milestoneCommandContext) theExplanationShouldBeFor(name string) error {
	if ctx.explained == nil {
		return fmt.Errorf("no dependency explanation received")
	}
	if ctx.explained.Object != name {
		return fmt.Errorf("expected an explanation for %q but got %q", name, ctx.explained.Object)
	}
	return nil
}

func (ctx *milestoneCommandContext) theExplanationShouldGroupWithOperator(op string) error {
	if ctx.explained == nil {
		return fmt.Errorf("no dependency explanation received")
	}
	if ctx.explained.Root.Operator != op {
		return fmt.Errorf("expected root operator %q but got %q", op, ctx.explained.Root.Operator)
	}
	return nil
}

func findRequirement(node *queries.DependencyNode, name, category string) bool {
	if node.Category == category {
		for _, obj := range node.Objects {
			if obj.Name == name {
				return true
			}
		}
	}
	for _, child := range node.Children {
		if findRequirement(child, name, category) {
			return true
		}
	}
	return false
}

func findRequiredObject(node *queries.DependencyNode, name string) (queries.RequiredObject, bool) {
	for _, obj := range node.Objects {
		if obj.Name == name {
			return obj, true
		}
	}
	for _, child := range node.Children {
		if obj, ok := findRequiredObject(child, name); ok {
			return obj, true
		}
	}
	return queries.RequiredObject{}, false
}

func (ctx *milestoneCommandContext) theExplanationShouldRequireInCategory(name, category string) error {
	if ctx.explained == nil {
		return fmt.Errorf("no dependency explanation received")
	}
	if !findRequirement(ctx.explained.Root, name, category) {
		return fmt.Errorf("no %q requirement on %q in the explanation", category, name)
	}
	return nil
}

func (ctx *milestoneCommandContext) theRequiredObjectShouldBeMarked(name, state string) error {
	if ctx.explained == nil {
		return fmt.Errorf("no dependency explanation received")
	}
	obj, ok := findRequiredObject(ctx.explained.Root, name)
	if !ok {
		return fmt.Errorf("object %q not in the explanation", name)
	}
	if accessible := state == "accessible"; obj.Accessible != accessible {
		return fmt.Errorf("expected %q to be marked %s in the explanation", name, state)
	}
	return nil
}

// Register steps

func InitializeMilestoneCommandScenario(sc *godog.ScenarioContext) {
	milestoneCtx := &milestoneCommandContext{}

	sc.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		milestoneCtx.reset()
		return ctx, nil
	})

	sc.Step(`^I set the project milestones to "([^"]*)"$`, milestoneCtx.iSetTheProjectMilestonesTo)
	sc.Step(`^I set the project milestones to "([^"]*)" without auto sorting$`, milestoneCtx.iSetTheProjectMilestonesToWithoutAutoSorting)
	sc.Step(`^I unlock milestone "([^"]*)"$`, milestoneCtx.iUnlockMilestone)
	sc.Step(`^I lock milestone "([^"]*)"$`, milestoneCtx.iLockMilestone)
	sc.Step(`^I override "([^"]*)" as "([^"]*)"$`, milestoneCtx.iOverrideAs)
	sc.Step(`^I recompute the milestones$`, milestoneCtx.iRecomputeTheMilestones)
	sc.Step(`^I list the milestones$`, milestoneCtx.iListTheMilestones)
	sc.Step(`^I query the accessibility of "([^"]*)"$`, milestoneCtx.iQueryTheAccessibilityOf)
	sc.Step(`^I explain the dependencies of "([^"]*)"$`, milestoneCtx.iExplainTheDependenciesOf)
	sc.Step(`^the milestone command should succeed$`, milestoneCtx.theMilestoneCommandShouldSucceed)
	sc.Step(`^the milestone command should fail with error "([^"]*)"$`, milestoneCtx.theMilestoneCommandShouldFailWithError)
	sc.Step(`^the effective milestones should be "([^"]*)"$`, milestoneCtx.theEffectiveMilestonesShouldBe)
	sc.Step(`^the milestone warnings should include "([^"]*)"$`, milestoneCtx.theMilestoneWarningsShouldInclude)
	sc.Step(`^there should be no milestone warnings$`, milestoneCtx.thereShouldBeNoMilestoneWarnings)
	sc.Step(`^the milestone list should have auto sort enabled$`, milestoneCtx.theMilestoneListShouldHaveAutoSortEnabled)
	sc.Step(`^milestone (\d+) should be the (locked|unlocked) technology "([^"]*)"$`, milestoneCtx.milestoneShouldBeTheTechnology)
	sc.Step(`^milestone "([^"]*)" should be flagged unreachable$`, milestoneCtx.milestoneShouldBeFlaggedUnreachable)
	sc.Step(`^the override should report "([^"]*)" as (accessible|inaccessible)$`, milestoneCtx.theOverrideShouldReportAs)
	sc.Step(`^the queried object should be accessible and automatable$`, milestoneCtx.theQueriedObjectShouldBeAccessibleAndAutomatable)
	sc.Step(`^the queried object should be accessible now$`, milestoneCtx.theQueriedObjectShouldBeAccessibleNow)
	sc.Step(`^the queried object should not yet be accessible$`, milestoneCtx.theQueriedObjectShouldNotYetBeAccessible)
	sc.Step(`^the queried object should become accessible at the next milestone$`, milestoneCtx.theQueriedObjectShouldBecomeAccessibleAtTheNextMilestone)
	sc.Step(`^the queried object should not become accessible at the next milestone$`, milestoneCtx.theQueriedObjectShouldNotBecomeAccessibleAtTheNextMilestone)
	sc.Step(`^the highest required milestone should be "([^"]*)"$`, milestoneCtx.theHighestRequiredMilestoneShouldBe)
	sc.Step(`^the required milestones should be "([^"]*)"$`, milestoneCtx.theRequiredMilestonesShouldBe)
	sc.Step(`^the explanation should be for "([^"]*)"$`, milestoneCtx.theExplanationShouldBeFor)
	sc.Step(`^the explanation should group requirements with operator "([^"]*)"$`, milestoneCtx.theExplanationShouldGroupWithOperator)
	sc.Step(`^the explanation should require "([^"]*)" in category "([^"]*)"$`, milestoneCtx.theExplanationShouldRequireInCategory)
	sc.Step(`^the required object "([^"]*)" should be marked (accessible|inaccessible)$`, milestoneCtx.theRequiredObjectShouldBeMarked)
}
