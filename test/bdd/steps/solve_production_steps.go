package steps

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/cucumber/godog"

	"github.com/factorlab/beltplan-go/internal/application/planning/commands"
	"github.com/factorlab/beltplan-go/internal/application/planning/queries"
	"github.com/factorlab/beltplan-go/internal/application/session"
	"github.com/factorlab/beltplan-go/internal/domain/project"
	"github.com/factorlab/beltplan-go/test/helpers"
)

type solveProductionContext struct {
	sess *session.Session
	page string

	createPage *commands.CreatePageHandler
	addRecipe  *commands.AddRecipeHandler
	configure  *commands.ConfigureRowHandler
	createLink *commands.CreateLinkHandler
	solvePage  *commands.SolvePageHandler
	getFlows   *queries.GetPageFlowsHandler

	solved *commands.SolvePageResponse
	flows  *queries.GetPageFlowsResponse
	err    error
}

func (ctx *solveProductionContext) reset() {
	proj := project.New("solve-project")
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
	ctx.solvePage = commands.NewSolvePageHandler(sess)
	ctx.getFlows = queries.NewGetPageFlowsHandler(sess)

	ctx.solved = nil
	ctx.flows = nil
	ctx.err = nil
}

func solveFloatEq(got, want float64) bool {
	return math.Abs(got-want) <= 1e-6*(1+math.Abs(want))
}

// Given steps

func (ctx *solveProductionContext) aProductionPageNamed(name string) error {
	if _, err := ctx.createPage.Handle(context.Background(), &commands.CreatePageCommand{Name: name}); err != nil {
		return err
	}
	ctx.page = name
	return nil
}

func (ctx *solveProductionContext) addRow(recipe string) (int, error) {
	resp, err := ctx.addRecipe.Handle(context.Background(), &commands.AddRecipeCommand{
		Page:   ctx.page,
		Recipe: recipe,
	})
	if err != nil {
		return 0, err
	}
	path := resp.(*commands.AddRecipeResponse).RowPath
	return path[len(path)-1], nil
}

func (ctx *solveProductionContext) thePageHasAPlainRow(recipe string) error {
	_, err := ctx.addRow(recipe)
	return err
}

func (ctx *solveProductionContext) thePageHasARowUsingEntity(recipe, entity string) error {
	index, err := ctx.addRow(recipe)
	if err != nil {
		return err
	}
	_, err = ctx.configure.Handle(context.Background(), &commands.ConfigureRowCommand{
		Page:   ctx.page,
		Path:   []int{index},
		Entity: &entity,
	})
	return err
}

func (ctx *solveProductionContext) thePageHasARowUsingEntityAndFuel(recipe, entity, fuel string) error {
	index, err := ctx.addRow(recipe)
	if err != nil {
		return err
	}
	_, err = ctx.configure.Handle(context.Background(), &commands.ConfigureRowCommand{
		Page:   ctx.page,
		Path:   []int{index},
		Entity: &entity,
		Fuel:   &fuel,
	})
	return err
}

func (ctx *solveProductionContext) thePageHasALinkRequesting(amount float64, good string) error {
	_, err := ctx.createLink.Handle(context.Background(), &commands.CreateLinkCommand{
		Page:   ctx.page,
		Good:   good,
		Amount: amount,
	})
	return err
}

func (ctx *solveProductionContext) rowIsPinnedAtBuildings(index, buildings int) error {
	mode := "count"
	value := float64(buildings)
	_, err := ctx.configure.Handle(context.Background(), &commands.ConfigureRowCommand{
		Page:       ctx.page,
		Path:       []int{index},
		FixedMode:  &mode,
		FixedValue: &value,
	})
	return err
}

// When steps

func (ctx *solveProductionContext) thePageIsSolved() error {
	resp, err := ctx.solvePage.Handle(context.Background(), &commands.SolvePageCommand{Page: ctx.page})
	ctx.err = err
	if err != nil {
		ctx.solved = nil
		return nil
	}
	ctx.solved = resp.(*commands.SolvePageResponse)

	flowsResp, err := ctx.getFlows.Handle(context.Background(), &queries.GetPageFlowsQuery{Page: ctx.page})
	if err != nil {
		return err
	}
	ctx.flows = flowsResp.(*queries.GetPageFlowsResponse)
	return nil
}

// Then steps

func (ctx *solveProductionContext) theSolveShouldSucceed() error {
	if ctx.err != nil {
		return fmt.Errorf("expected success but got error: %v", ctx.err)
	}
	if ctx.solved == nil {
		return fmt.Errorf("expected response but got nil")
	}
	if !ctx.solved.Solved {
		return fmt.Errorf("expected a solved page but got solve error: %s", ctx.solved.SolveError)
	}
	return nil
}

func (ctx *solveProductionContext) theSolveShouldReport(expected string) error {
	if ctx.solved == nil {
		return fmt.Errorf("no solve response received")
	}
	if !strings.Contains(ctx.solved.SolveError, expected) {
		return fmt.Errorf("expected solve error containing '%s' but got '%s'", expected, ctx.solved.SolveError)
	}
	return nil
}

func (ctx *solveProductionContext) solvedRow(index int) (*queries.RowSummary, error) {
	if ctx.flows == nil {
		return nil, fmt.Errorf("no flows response received")
	}
	want := fmt.Sprintf("%d", index)
	for _, row := range ctx.flows.Rows {
		if row.Path == want {
			return row, nil
		}
	}
	return nil, fmt.Errorf("no row at path %s in the response", want)
}

func (ctx *solveProductionContext) rowShouldRunAt(index int, rate float64) error {
	row, err := ctx.solvedRow(index)
	if err != nil {
		return err
	}
	if !solveFloatEq(row.Rate, rate) {
		return fmt.Errorf("expected row %d to run at %v recipes per second but got %v", index, rate, row.Rate)
	}
	return nil
}

func (ctx *solveProductionContext) rowShouldNeedBuildings(index int, buildings float64) error {
	row, err := ctx.solvedRow(index)
	if err != nil {
		return err
	}
	if !solveFloatEq(row.Buildings, buildings) {
		return fmt.Errorf("expected row %d to need %v buildings but got %v", index, buildings, row.Buildings)
	}
	return nil
}

func (ctx *solveProductionContext) rowShouldBeWarned(index int, warning string) error {
	row, err := ctx.solvedRow(index)
	if err != nil {
		return err
	}
	for _, w := range row.Warnings {
		if w == warning {
			return nil
		}
	}
	return fmt.Errorf("expected row %d to be warned %q but warnings were %v", index, warning, row.Warnings)
}

func (ctx *solveProductionContext) theNetFlowOfShouldBe(good string, perSecond float64) error {
	if ctx.flows == nil {
		return fmt.Errorf("no flows response received")
	}
	for _, flow := range ctx.flows.Flows {
		if flow.Good == good {
			if !solveFloatEq(flow.PerSecond, perSecond) {
				return fmt.Errorf("expected net flow %v for %q but got %v", perSecond, good, flow.PerSecond)
			}
			return nil
		}
	}
	return fmt.Errorf("no flow entry for %q in the response", good)
}

func (ctx *solveProductionContext) theLinkShouldBeMatched(good string) error {
	link, err := ctx.solvedLink(good)
	if err != nil {
		return err
	}
	if !link.Matched {
		return fmt.Errorf("expected the %q link to be matched but %v per second were not", good, link.NotMatched)
	}
	return nil
}

func (ctx *solveProductionContext) theLinkShouldNotBeMatched(good string) error {
	link, err := ctx.solvedLink(good)
	if err != nil {
		return err
	}
	if link.Matched {
		return fmt.Errorf("expected the %q link to be unmatched but it is matched", good)
	}
	return nil
}

func (ctx *solveProductionContext) solvedLink(good string) (*queries.LinkSummary, error) {
	if ctx.flows == nil {
		return nil, fmt.Errorf("no flows response received")
	}
	for _, link := range ctx.flows.Links {
		if link.Good == good {
			return link, nil
		}
	}
	return nil, fmt.Errorf("no link for %q in the response", good)
}

// Register steps

func InitializeSolveProductionScenario(sc *godog.ScenarioContext) {
	solveCtx := &solveProductionContext{}

	sc.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		solveCtx.reset()
		return ctx, nil
	})

	sc.Step(`^a production page named "([^"]*)"$`, solveCtx.aProductionPageNamed)
	sc.Step(`^the page has a plain "([^"]*)" row$`, solveCtx.thePageHasAPlainRow)
	sc.Step(`^the page has a "([^"]*)" row using entity "([^"]*)"$`, solveCtx.thePageHasARowUsingEntity)
	sc.Step(`^the page has a "([^"]*)" row using entity "([^"]*)" and fuel "([^"]*)"$`, solveCtx.thePageHasARowUsingEntityAndFuel)
	sc.Step(`^the page has a link requesting ([-0-9.]+) "([^"]*)" per second$`, solveCtx.thePageHasALinkRequesting)
	sc.Step(`^row (\d+) is pinned at (\d+) buildings$`, solveCtx.rowIsPinnedAtBuildings)
	sc.Step(`^the page is solved$`, solveCtx.thePageIsSolved)
	sc.Step(`^the solve should succeed$`, solveCtx.theSolveShouldSucceed)
	sc.Step(`^the solve should report "([^"]*)"$`, solveCtx.theSolveShouldReport)
	sc.Step(`^row (\d+) should run at ([-0-9.]+) recipes per second$`, solveCtx.rowShouldRunAt)
	sc.Step(`^row (\d+) should need ([-0-9.]+) buildings$`, solveCtx.rowShouldNeedBuildings)
	sc.Step(`^row (\d+) should be warned "([^"]*)"$`, solveCtx.rowShouldBeWarned)
	sc.Step(`^the net flow of "([^"]*)" should be ([-0-9.]+) per second$`, solveCtx.theNetFlowOfShouldBe)
	sc.Step(`^the "([^"]*)" link should be matched$`, solveCtx.theLinkShouldBeMatched)
	sc.Step(`^the "([^"]*)" link should not be matched$`, solveCtx.theLinkShouldNotBeMatched)
}
