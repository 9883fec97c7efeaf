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

type pageManagementContext struct {
	sess *session.Session

	createPage *commands.CreatePageHandler
	removePage *commands.RemovePageHandler
	addRecipe  *commands.AddRecipeHandler
	removeRow  *commands.RemoveRowHandler
	setEnabled *commands.SetRowEnabledHandler
	configure  *commands.ConfigureRowHandler
	getFlows   *queries.GetPageFlowsHandler

	flows *queries.GetPageFlowsResponse
	err   error
}

func (ctx *pageManagementContext) reset() {
	proj := project.New("test-project")
	sess, err := session.Open(context.Background(), helpers.SharedGameDB, proj)
	if err != nil {
		panic(fmt.Errorf("failed to open planning session: %w", err))
	}
	ctx.sess = sess

	ctx.createPage = commands.NewCreatePageHandler(sess)
	ctx.removePage = commands.NewRemovePageHandler(sess)
	ctx.addRecipe = commands.NewAddRecipeHandler(sess)
	ctx.removeRow = commands.NewRemoveRowHandler(sess)
	ctx.setEnabled = commands.NewSetRowEnabledHandler(sess)
	ctx.configure = commands.NewConfigureRowHandler(sess)
	ctx.getFlows = queries.NewGetPageFlowsHandler(sess)

	ctx.flows = nil
	ctx.err = nil
}

func parsePath(path string) []int {
	if path == "" {
		return nil
	}
	parts := strings.Split(path, ".")
	out := make([]int, len(parts))
	for i, p := range parts {
		fmt.Sscanf(p, "%d", &out[i])
	}
	return out
}

// Given steps

func (ctx *pageManagementContext) aPageNamedExists(name string) error {
	_, err := ctx.createPage.Handle(context.Background(), &commands.CreatePageCommand{Name: name})
	return err
}

func (ctx *pageManagementContext) pageHasARowForRecipe(page, recipe string) error {
	_, err := ctx.addRecipe.Handle(context.Background(), &commands.AddRecipeCommand{Page: page, Recipe: recipe})
	return err
}

// When steps

func (ctx *pageManagementContext) iCreateAPageNamed(name string) error {
	_, ctx.err = ctx.createPage.Handle(context.Background(), &commands.CreatePageCommand{Name: name})
	return nil
}

func (ctx *pageManagementContext) iRemoveThePage(name string) error {
	_, ctx.err = ctx.removePage.Handle(context.Background(), &commands.RemovePageCommand{Page: name})
	return nil
}

func (ctx *pageManagementContext) iAddRecipeToPage(recipe, page string) error {
	_, ctx.err = ctx.addRecipe.Handle(context.Background(), &commands.AddRecipeCommand{Page: page, Recipe: recipe})
	return nil
}

func (ctx *pageManagementContext) iAddRecipeUnderRowOfPage(recipe, path, page string) error {
	_, ctx.err = ctx.addRecipe.Handle(context.Background(), &commands.AddRecipeCommand{
		Page:      page,
		TablePath: parsePath(path),
		Recipe:    recipe,
	})
	return nil
}

func (ctx *pageManagementContext) iRemoveRowFromPage(path, page string) error {
	_, ctx.err = ctx.removeRow.Handle(context.Background(), &commands.RemoveRowCommand{
		Page: page,
		Path: parsePath(path),
	})
	return nil
}

func (ctx *pageManagementContext) iDisableRowOfPage(path, page string) error {
	_, ctx.err = ctx.setEnabled.Handle(context.Background(), &commands.SetRowEnabledCommand{
		Page:    page,
		Path:    parsePath(path),
		Enabled: false,
	})
	return nil
}

func (ctx *pageManagementContext) iSetTheEntityOfRowTo(path, page, entity string) error {
	_, ctx.err = ctx.configure.Handle(context.Background(), &commands.ConfigureRowCommand{
		Page:   page,
		Path:   parsePath(path),
		Entity: &entity,
	})
	return nil
}

func (ctx *pageManagementContext) iQueryTheFlowsOfPage(page string) error {
	resp, err := ctx.getFlows.Handle(context.Background(), &queries.GetPageFlowsQuery{Page: page})
	ctx.err = err
	if err == nil {
		ctx.flows = resp.(*queries.GetPageFlowsResponse)
	} else {
		ctx.flows = nil
	}
	return nil
}

// Then steps

func (ctx *pageManagementContext) theCommandShouldSucceed() error {
	if ctx.err != nil {
		return fmt.Errorf("expected success but got error: %v", ctx.err)
	}
	return nil
}

func (ctx *pageManagementContext) theCommandShouldFailWithError(expected string) error {
	if ctx.err == nil {
		return fmt.Errorf("expected error but command succeeded")
	}
	if !strings.Contains(ctx.err.Error(), expected) {
		return fmt.Errorf("expected error containing '%s' but got '%s'", expected, ctx.err.Error())
	}
	return nil
}

func (ctx *pageManagementContext) thePageShouldExist(name string) error {
	if _, err := ctx.sess.FindPage(name); err != nil {
		return fmt.Errorf("expected page %q to exist: %v", name, err)
	}
	return nil
}

func (ctx *pageManagementContext) thePageShouldNotExist(name string) error {
	if _, err := ctx.sess.FindPage(name); err == nil {
		return fmt.Errorf("expected page %q to be gone but it still exists", name)
	}
	return nil
}

func (ctx *pageManagementContext) theQueryShouldListRows(count int) error {
	if ctx.flows == nil {
		return fmt.Errorf("no flows response received")
	}
	if len(ctx.flows.Rows) != count {
		return fmt.Errorf("expected %d rows but got %d", count, len(ctx.flows.Rows))
	}
	return nil
}

func (ctx *pageManagementContext) rowShouldHaveRecipe(path, recipe string) error {
	row, err := ctx.findRow(path)
	if err != nil {
		return err
	}
	if row.Recipe != recipe {
		return fmt.Errorf("expected recipe %q at row %s but got %q", recipe, path, row.Recipe)
	}
	return nil
}

func (ctx *pageManagementContext) rowShouldHaveEntity(path, entity string) error {
	row, err := ctx.findRow(path)
	if err != nil {
		return err
	}
	if row.Entity != entity {
		return fmt.Errorf("expected entity %q at row %s but got %q", entity, path, row.Entity)
	}
	return nil
}

func (ctx *pageManagementContext) rowShouldBeDisabled(path string) error {
	row, err := ctx.findRow(path)
	if err != nil {
		return err
	}
	if row.Enabled {
		return fmt.Errorf("expected row %s to be disabled but it is enabled", path)
	}
	return nil
}

func (ctx *pageManagementContext) findRow(path string) (*queries.RowSummary, error) {
	if ctx.flows == nil {
		return nil, fmt.Errorf("no flows response received")
	}
	for _, row := range ctx.flows.Rows {
		if row.Path == path {
			return row, nil
		}
	}
	return nil, fmt.Errorf("no row at path %s in the response", path)
}

// Register steps

func InitializePageManagementScenario(sc *godog.ScenarioContext) {
	pageCtx := &pageManagementContext{}

	sc.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		pageCtx.reset()
		return ctx, nil
	})

	sc.Step(`^a page named "([^"]*)" exists$`, pageCtx.aPageNamedExists)
	sc.Step(`^page "([^"]*)" has a row for recipe "([^"]*)"$`, pageCtx.pageHasARowForRecipe)
	sc.Step(`^I create a page named "([^"]*)"$`, pageCtx.iCreateAPageNamed)
	sc.Step(`^I remove the page "([^"]*)"$`, pageCtx.iRemoveThePage)
	sc.Step(`^I add recipe "([^"]*)" to page "([^"]*)"$`, pageCtx.iAddRecipeToPage)
	sc.Step(`^I add recipe "([^"]*)" under row ([0-9.]+) of page "([^"]*)"$`, pageCtx.iAddRecipeUnderRowOfPage)
	sc.Step(`^I remove row ([0-9.]+) from page "([^"]*)"$`, pageCtx.iRemoveRowFromPage)
	sc.Step(`^I disable row ([0-9.]+) of page "([^"]*)"$`, pageCtx.iDisableRowOfPage)
	sc.Step(`^I set the entity of row ([0-9.]+) of page "([^"]*)" to "([^"]*)"$`, pageCtx.iSetTheEntityOfRowTo)
	sc.Step(`^I query the flows of page "([^"]*)"$`, pageCtx.iQueryTheFlowsOfPage)
	sc.Step(`^the page command should succeed$`, pageCtx.theCommandShouldSucceed)
	sc.Step(`^the page command should fail with error "([^"]*)"$`, pageCtx.theCommandShouldFailWithError)
	sc.Step(`^the page "([^"]*)" should exist$`, pageCtx.thePageShouldExist)
	sc.Step(`^the page "([^"]*)" should not exist$`, pageCtx.thePageShouldNotExist)
	sc.Step(`^the flows response should list (\d+) rows$`, pageCtx.theQueryShouldListRows)
	sc.Step(`^row ([0-9.]+) should have recipe "([^"]*)"$`, pageCtx.rowShouldHaveRecipe)
	sc.Step(`^row ([0-9.]+) should have entity "([^"]*)"$`, pageCtx.rowShouldHaveEntity)
	sc.Step(`^row ([0-9.]+) should be disabled$`, pageCtx.rowShouldBeDisabled)
}
