package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"

	"github.com/factorlab/beltplan-go/internal/adapters/persistence"
	"github.com/factorlab/beltplan-go/internal/domain/gamedata"
	"github.com/factorlab/beltplan-go/internal/domain/production"
	"github.com/factorlab/beltplan-go/internal/domain/project"
	"github.com/factorlab/beltplan-go/test/helpers"
)

type projectStoreContext struct {
	repo     *persistence.GormProjectRepository
	projects map[string]*project.Project
	ids      map[string]string

	loaded    *project.ProjectData
	summaries []persistence.ProjectSummary
	err       error
}

func (ctx *projectStoreContext) reset() {
	if err := helpers.TruncateAllTables(); err != nil {
		panic(fmt.Errorf("failed to truncate tables: %w", err))
	}
	ctx.repo = persistence.NewGormProjectRepository(helpers.SharedTestDB)
	ctx.projects = map[string]*project.Project{}
	ctx.ids = map[string]string{}
	ctx.loaded = nil
	ctx.summaries = nil
	ctx.err = nil
}

func (ctx *projectStoreContext) save(proj *project.Project) error {
	data := proj.Snapshot(helpers.SharedGameDB)
	if err := ctx.repo.Save(context.Background(), &data); err != nil {
		return err
	}
	ctx.projects[proj.Name] = proj
	ctx.ids[proj.Name] = data.ID
	return nil
}

// Given steps

func (ctx *projectStoreContext) aProjectNamedWithPages(name, pages string) error {
	proj := project.New(name)
	for _, pageName := range strings.Split(pages, ",") {
		proj.AddPage(strings.TrimSpace(pageName))
	}
	return ctx.save(proj)
}

func (ctx *projectStoreContext) aProjectNamedWithARowOnPage(name, recipe, pageName string) error {
	proj := project.New(name)
	page := proj.AddPage(pageName)

	kind, _ := gamedata.ParseKind("recipe")
	obj, ok := helpers.SharedGameDB.ByName(kind, recipe)
	if !ok {
		return fmt.Errorf("recipe %q not in the shared game database", recipe)
	}
	row := production.NewRecipeRow(obj.(*gamedata.Recipe), helpers.SharedGameDB.NormalQuality)
	page.Table.AddRow(row)

	return ctx.save(proj)
}

// When steps

func (ctx *projectStoreContext) theProjectIsSavedAgainWithPages(name, pages string) error {
	proj, ok := ctx.projects[name]
	if !ok {
		return fmt.Errorf("no live project named %q", name)
	}
	keep := map[string]bool{}
	for _, pageName := range strings.Split(pages, ",") {
		keep[strings.TrimSpace(pageName)] = true
	}
	for _, page := range append([]*project.Page(nil), proj.Pages...) {
		if !keep[page.Name] {
			proj.RemovePage(page.ID)
		}
	}
	return ctx.save(proj)
}

func (ctx *projectStoreContext) iLoadTheProjectNamed(name string) error {
	ctx.loaded, ctx.err = ctx.repo.FindByName(context.Background(), name)
	return nil
}

func (ctx *projectStoreContext) iLoadTheProjectWithID(id string) error {
	ctx.loaded, ctx.err = ctx.repo.FindByID(context.Background(), id)
	return nil
}

func (ctx *projectStoreContext) iListTheStoredProjects() error {
	ctx.summaries, ctx.err = ctx.repo.ListAll(context.Background())
	return nil
}

func (ctx *projectStoreContext) iDeleteProject(name string) error {
	id, ok := ctx.ids[name]
	if !ok {
		return fmt.Errorf("no stored id for project %q", name)
	}
	ctx.err = ctx.repo.Delete(context.Background(), id)
	return nil
}

func (ctx *projectStoreContext) iDeleteTheProjectWithID(id string) error {
	ctx.err = ctx.repo.Delete(context.Background(), id)
	return nil
}

// Then steps

func (ctx *projectStoreContext) theStoreOperationShouldSucceed() error {
	if ctx.err != nil {
		return fmt.Errorf("expected success but got error: %v", ctx.err)
	}
	return nil
}

func (ctx *projectStoreContext) theStoreOperationShouldFailWithError(expected string) error {
	if ctx.err == nil {
		return fmt.Errorf("expected an error but the operation succeeded")
	}
	if !strings.Contains(ctx.err.Error(), expected) {
		return fmt.Errorf("expected error containing '%s' but got '%s'", expected, ctx.err.Error())
	}
	return nil
}

func (ctx *projectStoreContext) theLoadedProjectShouldBeNamed(name string) error {
	if ctx.loaded == nil {
		return fmt.Errorf("no project loaded")
	}
	if ctx.loaded.Name != name {
		return fmt.Errorf("expected project %q but got %q", name, ctx.loaded.Name)
	}
	return nil
}

func (ctx *projectStoreContext) theLoadedProjectShouldHavePages(expected string) error {
	if ctx.loaded == nil {
		return fmt.Errorf("no project loaded")
	}
	names := make([]string, 0, len(ctx.loaded.Pages))
	for _, page := range ctx.loaded.Pages {
		names = append(names, page.Name)
	}
	got := strings.Join(names, ", ")
	if got != expected {
		return fmt.Errorf("expected pages %q but got %q", expected, got)
	}
	return nil
}

func (ctx *projectStoreContext) theLoadedPageShouldHaveRows(pageName string, count int) error {
	if ctx.loaded == nil {
		return fmt.Errorf("no project loaded")
	}
	for _, page := range ctx.loaded.Pages {
		if page.Name == pageName {
			if len(page.Table.Rows) != count {
				return fmt.Errorf("expected %d rows on page %q but got %d", count, pageName, len(page.Table.Rows))
			}
			return nil
		}
	}
	return fmt.Errorf("no page named %q in the loaded project", pageName)
}

func (ctx *projectStoreContext) restoringTheLoadedSnapshotShouldYield(pageName string, count int) error {
	if ctx.loaded == nil {
		return fmt.Errorf("no project loaded")
	}
	proj, err := project.Restore(*ctx.loaded, helpers.SharedGameDB)
	if err != nil {
		return fmt.Errorf("failed to restore the snapshot: %w", err)
	}
	page, ok := proj.PageByName(pageName)
	if !ok {
		return fmt.Errorf("no page named %q after the restore", pageName)
	}
	if len(page.Table.Rows) != count {
		return fmt.Errorf("expected %d rows on restored page %q but got %d", count, pageName, len(page.Table.Rows))
	}
	return nil
}

func (ctx *projectStoreContext) theProjectListingShouldBe(expected string) error {
	names := make([]string, 0, len(ctx.summaries))
	for _, s := range ctx.summaries {
		names = append(names, s.Name)
	}
	got := strings.Join(names, ", ")
	if got != expected {
		return fmt.Errorf("expected listing %q but got %q", expected, got)
	}
	return nil
}

func (ctx *projectStoreContext) projectShouldListPages(name string, count int) error {
	for _, s := range ctx.summaries {
		if s.Name == name {
			if s.Pages != count {
				return fmt.Errorf("expected %d pages for %q but got %d", count, name, s.Pages)
			}
			return nil
		}
	}
	return fmt.Errorf("project %q not in the listing", name)
}

// Register steps

func InitializeProjectStoreScenario(sc *godog.ScenarioContext) {
	storeCtx := &projectStoreContext{}

	sc.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		storeCtx.reset()
		return ctx, nil
	})

	sc.Step(`^a project named "([^"]*)" with pages "([^"]*)"$`, storeCtx.aProjectNamedWithPages)
	sc.Step(`^a project named "([^"]*)" with a "([^"]*)" row on page "([^"]*)"$`, storeCtx.aProjectNamedWithARowOnPage)
	sc.Step(`^the project "([^"]*)" is saved again with pages "([^"]*)"$`, storeCtx.theProjectIsSavedAgainWithPages)
	sc.Step(`^I load the project named "([^"]*)"$`, storeCtx.iLoadTheProjectNamed)
	sc.Step(`^I load the project with id "([^"]*)"$`, storeCtx.iLoadTheProjectWithID)
	sc.Step(`^I list the stored projects$`, storeCtx.iListTheStoredProjects)
	sc.Step(`^I delete project "([^"]*)"$`, storeCtx.iDeleteProject)
	sc.Step(`^I delete the project with id "([^"]*)"$`, storeCtx.iDeleteTheProjectWithID)
	sc.Step(`^the store operation should succeed$`, storeCtx.theStoreOperationShouldSucceed)
	sc.Step(`^the store operation should fail with error "([^"]*)"$`, storeCtx.theStoreOperationShouldFailWithError)
	sc.Step(`^the loaded project should be named "([^"]*)"$`, storeCtx.theLoadedProjectShouldBeNamed)
	sc.Step(`^the loaded project should have pages "([^"]*)"$`, storeCtx.theLoadedProjectShouldHavePages)
	sc.Step(`^the loaded page "([^"]*)" should have (\d+) rows?$`, storeCtx.theLoadedPageShouldHaveRows)
	sc.Step(`^restoring the loaded snapshot should yield page "([^"]*)" with (\d+) rows?$`, storeCtx.restoringTheLoadedSnapshotShouldYield)
	sc.Step(`^the project listing should be "([^"]*)"$`, storeCtx.theProjectListingShouldBe)
	sc.Step(`^project "([^"]*)" should list (\d+) pages?$`, storeCtx.projectShouldListPages)
}
