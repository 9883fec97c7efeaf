package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"

	"github.com/factorlab/beltplan-go/internal/application/planning/commands"
	"github.com/factorlab/beltplan-go/internal/application/planning/queries"
	"github.com/factorlab/beltplan-go/internal/application/session"
	"github.com/factorlab/beltplan-go/internal/domain/project"
	"github.com/factorlab/beltplan-go/test/helpers"
)

type linkContext struct {
	sess *session.Session
	page string

	createPage *commands.CreatePageHandler
	addRecipe  *commands.AddRecipeHandler
	configure  *commands.ConfigureRowHandler
	createLink *commands.CreateLinkHandler
	setLink    *commands.SetLinkHandler
	removeLink *commands.RemoveLinkHandler
	getFlows   *queries.GetPageFlowsHandler

	created    *commands.CreateLinkResponse
	updated    *commands.SetLinkResponse
	solveError string
	flows      *queries.GetPageFlowsResponse
	err        error
}

func (ctx *linkContext) reset() {
	proj := project.New("link-project")
	sess, err := session.Open(context.Background(), helpers.SharedGameDB, proj)
	if err != nil {
		panic(fmt.Errorf("failed to open planning session: %w", err))
	}
	ctx.sess = sess
	ctx.page = ""

	ctx.createPage = commands.NewCreatePageHandler(sess)
	ctx.addRecipe = commands.NewAddRecipeHandler(sess)
	ctx.configure = commands.NewConfigureRowHandler(sess)
	ctx.createLink = commands.NewCreateLinkHandler(sess)
	ctx.setLink = commands.NewSetLinkHandler(sess)
	ctx.removeLink = commands.NewRemoveLinkHandler(sess)
	ctx.getFlows = queries.NewGetPageFlowsHandler(sess)

	ctx.created = nil
	ctx.updated = nil
	ctx.solveError = ""
	ctx.flows = nil
	ctx.err = nil
}

func (ctx *linkContext) refreshFlows() error {
	resp, err := ctx.getFlows.Handle(context.Background(), &queries.GetPageFlowsQuery{Page: ctx.page})
	if err != nil {
		return err
	}
	ctx.flows = resp.(*queries.GetPageFlowsResponse)
	return nil
}

// Given steps

func (ctx *linkContext) aPlanningPageNamedWithARowForRecipe(name, recipe string) error {
	if _, err := ctx.createPage.Handle(context.Background(), &commands.CreatePageCommand{Name: name}); err != nil {
		return err
	}
	ctx.page = name
	_, err := ctx.addRecipe.Handle(context.Background(), &commands.AddRecipeCommand{
		Page:   ctx.page,
		Recipe: recipe,
	})
	return err
}

func (ctx *linkContext) theRowIsFixedAtBuildings(buildings int) error {
	mode := "count"
	value := float64(buildings)
	_, err := ctx.configure.Handle(context.Background(), &commands.ConfigureRowCommand{
		Page:       ctx.page,
		Path:       []int{0},
		FixedMode:  &mode,
		FixedValue: &value,
	})
	return err
}

// When steps

func (ctx *linkContext) iLinkAtPerSecond(good string, amount float64) error {
	return ctx.iLinkAtPerSecondWithAlgorithm(good, amount, "match")
}

func (ctx *linkContext) iLinkAtPerSecondWithAlgorithm(good string, amount float64, algorithm string) error {
	resp, err := ctx.createLink.Handle(context.Background(), &commands.CreateLinkCommand{
		Page:      ctx.page,
		Good:      good,
		Amount:    amount,
		Algorithm: algorithm,
	})
	ctx.err = err
	if err == nil {
		ctx.created = resp.(*commands.CreateLinkResponse)
		ctx.solveError = ctx.created.SolveError
	}
	return nil
}

func (ctx *linkContext) iChangeTheLinkForToPerSecond(good string, amount float64) error {
	resp, err := ctx.setLink.Handle(context.Background(), &commands.SetLinkCommand{
		Page:   ctx.page,
		Good:   good,
		Amount: &amount,
	})
	ctx.err = err
	if err == nil {
		ctx.updated = resp.(*commands.SetLinkResponse)
		ctx.solveError = ctx.updated.SolveError
	}
	return nil
}

func (ctx *linkContext) iChangeTheLinkForToAlgorithm(good, algorithm string) error {
	resp, err := ctx.setLink.Handle(context.Background(), &commands.SetLinkCommand{
		Page:      ctx.page,
		Good:      good,
		Algorithm: &algorithm,
	})
	ctx.err = err
	if err == nil {
		ctx.updated = resp.(*commands.SetLinkResponse)
		ctx.solveError = ctx.updated.SolveError
	}
	return nil
}

func (ctx *linkContext) iRemoveTheLinkFor(good string) error {
	resp, err := ctx.removeLink.Handle(context.Background(), &commands.RemoveLinkCommand{
		Page: ctx.page,
		Good: good,
	})
	ctx.err = err
	if err == nil {
		ctx.solveError = resp.(*commands.RemoveLinkResponse).SolveError
	}
	return nil
}

// Then steps

func (ctx *linkContext) theLinkCommandShouldSucceed() error {
	if ctx.err != nil {
		return fmt.Errorf("expected success but got error: %v", ctx.err)
	}
	return nil
}

func (ctx *linkContext) theLinkCommandShouldFailWithError(expected string) error {
	if ctx.err == nil {
		return fmt.Errorf("expected an error but the command succeeded")
	}
	if !strings.Contains(ctx.err.Error(), expected) {
		return fmt.Errorf("expected error containing '%s' but got '%s'", expected, ctx.err.Error())
	}
	return nil
}

func (ctx *linkContext) theLinkShouldReportGoodWithQuality(good, quality string) error {
	if ctx.created == nil {
		return fmt.Errorf("no create link response received")
	}
	if ctx.created.Good != good || ctx.created.Quality != quality {
		return fmt.Errorf("expected link for %s (%s) but got %s (%s)",
			good, quality, ctx.created.Good, ctx.created.Quality)
	}
	return nil
}

func (ctx *linkContext) theLinkSettingsShouldBe(amount float64, algorithm string) error {
	if ctx.updated == nil {
		return fmt.Errorf("no set link response received")
	}
	if !solveFloatEq(ctx.updated.Amount, amount) {
		return fmt.Errorf("expected link amount %v but got %v", amount, ctx.updated.Amount)
	}
	if ctx.updated.Algorithm != algorithm {
		return fmt.Errorf("expected link algorithm %q but got %q", algorithm, ctx.updated.Algorithm)
	}
	return nil
}

func (ctx *linkContext) noSolveErrorShouldBeReported() error {
	if ctx.solveError != "" {
		return fmt.Errorf("expected no solve error but got '%s'", ctx.solveError)
	}
	return nil
}

func (ctx *linkContext) theSolvedRateOfTheFirstRowShouldBe(rate float64) error {
	if err := ctx.refreshFlows(); err != nil {
		return err
	}
	if len(ctx.flows.Rows) == 0 {
		return fmt.Errorf("no rows in the flows response")
	}
	got := ctx.flows.Rows[0].Rate
	if !solveFloatEq(got, rate) {
		return fmt.Errorf("expected the first row to run at %v recipes per second but got %v", rate, got)
	}
	return nil
}

func (ctx *linkContext) linkSummaryFor(good string) (*queries.LinkSummary, error) {
	if err := ctx.refreshFlows(); err != nil {
		return nil, err
	}
	for _, link := range ctx.flows.Links {
		if link.Good == good {
			return link, nil
		}
	}
	return nil, fmt.Errorf("no link for %q in the response", good)
}

func (ctx *linkContext) theLinkForShouldBalanceExactly(good string) error {
	link, err := ctx.linkSummaryFor(good)
	if err != nil {
		return err
	}
	if !link.Matched {
		return fmt.Errorf("expected the %q link to balance but %v per second were not matched", good, link.NotMatched)
	}
	return nil
}

func (ctx *linkContext) theLinkForShouldBeOffBalanceBy(good string, residual float64) error {
	link, err := ctx.linkSummaryFor(good)
	if err != nil {
		return err
	}
	if link.Matched {
		return fmt.Errorf("expected the %q link to be off balance but it is matched", good)
	}
	if !solveFloatEq(link.NotMatched, residual) {
		return fmt.Errorf("expected %v unmatched per second on the %q link but got %v", residual, good, link.NotMatched)
	}
	return nil
}

func (ctx *linkContext) thePageShouldHaveNoLinks() error {
	if err := ctx.refreshFlows(); err != nil {
		return err
	}
	if len(ctx.flows.Links) != 0 {
		return fmt.Errorf("expected no links but got %d", len(ctx.flows.Links))
	}
	return nil
}

// Register steps

func InitializeLinkScenario(sc *godog.ScenarioContext) {
	linkCtx := &linkContext{}

	sc.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		linkCtx.reset()
		return ctx, nil
	})

	sc.Step(`^a planning page named "([^"]*)" with a row for recipe "([^"]*)"$`, linkCtx.aPlanningPageNamedWithARowForRecipe)
	sc.Step(`^the row is fixed at (\d+) buildings$`, linkCtx.theRowIsFixedAtBuildings)
	sc.Step(`^I link "([^"]*)" at ([-0-9.]+) per second$`, linkCtx.iLinkAtPerSecond)
	sc.Step(`^I link "([^"]*)" at ([-0-9.]+) per second with algorithm "([^"]*)"$`, linkCtx.iLinkAtPerSecondWithAlgorithm)
	sc.Step(`^I change the link for "([^"]*)" to ([-0-9.]+) per second$`, linkCtx.iChangeTheLinkForToPerSecond)
	sc.Step(`^I change the link for "([^"]*)" to algorithm "([^"]*)"$`, linkCtx.iChangeTheLinkForToAlgorithm)
	sc.Step(`^I remove the link for "([^"]*)"$`, linkCtx.iRemoveTheLinkFor)
	sc.Step(`^the link command should succeed$`, linkCtx.theLinkCommandShouldSucceed)
	sc.Step(`^the link command should fail with error "([^"]*)"$`, linkCtx.theLinkCommandShouldFailWithError)
	sc.Step(`^the link should report good "([^"]*)" with quality "([^"]*)"$`, linkCtx.theLinkShouldReportGoodWithQuality)
	sc.Step(`^the link settings should be ([-0-9.]+) per second with algorithm "([^"]*)"$`, linkCtx.theLinkSettingsShouldBe)
	sc.Step(`^no solve error should be reported$`, linkCtx.noSolveErrorShouldBeReported)
	sc.Step(`^the solved rate of the first row should be ([-0-9.]+)$`, linkCtx.theSolvedRateOfTheFirstRowShouldBe)
	sc.Step(`^the link for "([^"]*)" should balance exactly$`, linkCtx.theLinkForShouldBalanceExactly)
	sc.Step(`^the link for "([^"]*)" should be off balance by ([-0-9.]+)$`, linkCtx.theLinkForShouldBeOffBalanceBy)
	sc.Step(`^the page should have no links$`, linkCtx.thePageShouldHaveNoLinks)
}
