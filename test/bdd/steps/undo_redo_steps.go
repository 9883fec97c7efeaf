package steps

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"

	"github.com/factorlab/beltplan-go/internal/application/planning/commands"
	"github.com/factorlab/beltplan-go/internal/application/planning/queries"
	"github.com/factorlab/beltplan-go/internal/application/session"
	"github.com/factorlab/beltplan-go/internal/domain/project"
	"github.com/factorlab/beltplan-go/test/helpers"
)

type undoRedoContext struct {
	sess *session.Session
	page string

	createPage *commands.CreatePageHandler
	addRecipe  *commands.AddRecipeHandler
	undo       *commands.UndoHandler
	getFlows   *queries.GetPageFlowsHandler

	stepped *commands.UndoResponse
	err     error
}

func (ctx *undoRedoContext) reset() {
	proj := project.New("history-project")
	sess, err := session.Open(context.Background(), helpers.SharedGameDB, proj)
	if err != nil {
		panic(fmt.Errorf("failed to open planning session: %w", err))
	}
	ctx.sess = sess
	ctx.page = ""

	ctx.createPage = commands.NewCreatePageHandler(sess)
	ctx.addRecipe = commands.NewAddRecipeHandler(sess)
	ctx.undo = commands.NewUndoHandler(sess)
	ctx.getFlows = queries.NewGetPageFlowsHandler(sess)

	ctx.stepped = nil
	ctx.err = nil
}

// Given steps

func (ctx *undoRedoContext) anEditablePageNamed(name string) error {
	if _, err := ctx.createPage.Handle(context.Background(), &commands.CreatePageCommand{Name: name}); err != nil {
		return err
	}
	ctx.page = name
	return nil
}

// When steps

func (ctx *undoRedoContext) iAddARowToThePage(recipe string) error {
	_, err := ctx.addRecipe.Handle(context.Background(), &commands.AddRecipeCommand{
		Page:   ctx.page,
		Recipe: recipe,
	})
	ctx.err = err
	return nil
}

func (ctx *undoRedoContext) iUndoTheLastEdit() error {
	resp, err := ctx.undo.Handle(context.Background(), &commands.UndoCommand{})
	ctx.err = err
	if err == nil {
		ctx.stepped = resp.(*commands.UndoResponse)
	}
	return nil
}

func (ctx *undoRedoContext) iRedoTheLastEdit() error {
	resp, err := ctx.undo.Handle(context.Background(), &commands.RedoCommand{})
	ctx.err = err
	if err == nil {
		ctx.stepped = resp.(*commands.UndoResponse)
	}
	return nil
}

// Then steps

func (ctx *undoRedoContext) theHistoryStepShouldBeApplied() error {
	if ctx.err != nil {
		return fmt.Errorf("expected success but got error: %v", ctx.err)
	}
	if ctx.stepped == nil {
		return fmt.Errorf("no undo response received")
	}
	if !ctx.stepped.Done {
		return fmt.Errorf("expected the history step to be applied but nothing happened")
	}
	return nil
}

func (ctx *undoRedoContext) theHistoryStepShouldReportNothingToDo() error {
	if ctx.err != nil {
		return fmt.Errorf("expected success but got error: %v", ctx.err)
	}
	if ctx.stepped == nil {
		return fmt.Errorf("no undo response received")
	}
	if ctx.stepped.Done {
		return fmt.Errorf("expected an empty history but a step was applied")
	}
	return nil
}

func (ctx *undoRedoContext) thePageShouldHaveRows(count int) error {
	resp, err := ctx.getFlows.Handle(context.Background(), &queries.GetPageFlowsQuery{Page: ctx.page})
	if err != nil {
		return err
	}
	rows := resp.(*queries.GetPageFlowsResponse).Rows
	if len(rows) != count {
		return fmt.Errorf("expected %d rows but got %d", count, len(rows))
	}
	return nil
}

// Register steps

func InitializeUndoRedoScenario(sc *godog.ScenarioContext) {
	undoCtx := &undoRedoContext{}

	sc.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		undoCtx.reset()
		return ctx, nil
	})

	sc.Step(`^an editable page named "([^"]*)"$`, undoCtx.anEditablePageNamed)
	sc.Step(`^I add a "([^"]*)" row to the page$`, undoCtx.iAddARowToThePage)
	sc.Step(`^I undo the last edit$`, undoCtx.iUndoTheLastEdit)
	sc.Step(`^I redo the last edit$`, undoCtx.iRedoTheLastEdit)
	sc.Step(`^the history step should be applied$`, undoCtx.theHistoryStepShouldBeApplied)
	sc.Step(`^the history step should report nothing to do$`, undoCtx.theHistoryStepShouldReportNothingToDo)
	sc.Step(`^the page should have (\d+) rows?$`, undoCtx.thePageShouldHaveRows)
}
