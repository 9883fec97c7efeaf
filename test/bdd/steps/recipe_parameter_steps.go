package steps

import (
	"context"
	"fmt"
	"math"

	"github.com/cucumber/godog"

	"github.com/factorlab/beltplan-go/internal/domain/gamedata"
	"github.com/factorlab/beltplan-go/internal/domain/production"
	"github.com/factorlab/beltplan-go/test/helpers"
)

type recipeParameterContext struct {
	db      *gamedata.Database
	row     *production.RecipeRow
	bonuses production.Bonuses
	params  production.Parameters
}

func (ctx *recipeParameterContext) reset() {
	ctx.db = helpers.SharedGameDB
	ctx.row = nil
	ctx.bonuses = production.Bonuses{ReactorSizeX: 2, ReactorSizeY: 2}
	ctx.params = production.Parameters{}
}

func paramsFloatEq(got, want float64) bool {
	return math.Abs(got-want) <= 1e-6*(1+math.Abs(want))
}

// Given steps

func (ctx *recipeParameterContext) aProductionRowForRecipe(name string) error {
	obj, ok := ctx.db.ByName(gamedata.KindRecipe, name)
	if !ok {
		return fmt.Errorf("no recipe named %q in the test definition", name)
	}
	ctx.row = production.NewRecipeRow(ctx.db.RecipeByID(obj.Info().ID), ctx.db.NormalQuality)
	return nil
}

func (ctx *recipeParameterContext) aResearchRowForTechnology(name string) error {
	obj, ok := ctx.db.ByName(gamedata.KindTechnology, name)
	if !ok {
		return fmt.Errorf("no technology named %q in the test definition", name)
	}
	ctx.row = production.NewTechnologyRow(ctx.db.TechnologyByID(obj.Info().ID), ctx.db.NormalQuality)
	return nil
}

func (ctx *recipeParameterContext) theRowsEntityIs(name string) error {
	obj, ok := ctx.db.ByName(gamedata.KindEntity, name)
	if !ok {
		return fmt.Errorf("no entity named %q in the test definition", name)
	}
	ctx.row.Entity = ctx.db.EntityByID(obj.Info().ID)
	return nil
}

func (ctx *recipeParameterContext) theRowsFuelIs(name string) error {
	obj, ok := ctx.db.ByName(gamedata.KindGood, name)
	if !ok {
		return fmt.Errorf("no good named %q in the test definition", name)
	}
	ctx.row.Fuel = ctx.db.GoodByID(obj.Info().ID)
	return nil
}

func (ctx *recipeParameterContext) theRowHasModules(count int, name string) error {
	obj, ok := ctx.db.ByName(gamedata.KindGood, name)
	if !ok {
		return fmt.Errorf("no good named %q in the test definition", name)
	}
	module := ctx.db.GoodByID(obj.Info().ID)
	if module.Module == nil {
		return fmt.Errorf("good %q carries no module effect", name)
	}
	ctx.row.Modules = &production.ModuleTemplate{
		Modules: []production.ModuleEntry{{Module: module, Quality: ctx.db.NormalQuality, Count: count}},
	}
	return nil
}

func (ctx *recipeParameterContext) theMiningProductivityBonusIs(bonus float64) error {
	ctx.bonuses.MiningProductivity = bonus
	return nil
}

func (ctx *recipeParameterContext) theResearchSpeedBonusIs(bonus float64) error {
	ctx.bonuses.ResearchSpeed = bonus
	return nil
}

func (ctx *recipeParameterContext) theResearchProductivityBonusIs(bonus float64) error {
	ctx.bonuses.ResearchProductivity = bonus
	return nil
}

// When steps

func (ctx *recipeParameterContext) theParametersAreCalculated() error {
	if ctx.row == nil {
		return fmt.Errorf("no production row configured")
	}
	ctx.params = production.CalculateParameters(ctx.db, ctx.row, ctx.bonuses,
		func(*gamedata.Quality) bool { return true })
	return nil
}

// Then steps

func (ctx *recipeParameterContext) theRecipeTimeShouldBe(seconds float64) error {
	if !paramsFloatEq(ctx.params.RecipeTime, seconds) {
		return fmt.Errorf("expected recipe time %v but got %v", seconds, ctx.params.RecipeTime)
	}
	return nil
}

func (ctx *recipeParameterContext) theFuelUsageShouldBe(perSecond float64) error {
	if !paramsFloatEq(ctx.params.FuelUsagePerSecond, perSecond) {
		return fmt.Errorf("expected fuel usage %v but got %v", perSecond, ctx.params.FuelUsagePerSecond)
	}
	return nil
}

func (ctx *recipeParameterContext) theSpeedMultiplierShouldBe(multiplier float64) error {
	if !paramsFloatEq(ctx.params.SpeedMultiplier, multiplier) {
		return fmt.Errorf("expected speed multiplier %v but got %v", multiplier, ctx.params.SpeedMultiplier)
	}
	return nil
}

func (ctx *recipeParameterContext) theEnergyUsageShouldBe(mw float64) error {
	if !paramsFloatEq(ctx.params.EnergyUsage, mw) {
		return fmt.Errorf("expected energy usage %v MW but got %v", mw, ctx.params.EnergyUsage)
	}
	return nil
}

func (ctx *recipeParameterContext) theProductivityShouldBe(bonus float64) error {
	if !paramsFloatEq(ctx.params.Productivity, bonus) {
		return fmt.Errorf("expected productivity %v but got %v", bonus, ctx.params.Productivity)
	}
	return nil
}

func (ctx *recipeParameterContext) theParameterWarningsShouldInclude(text string) error {
	for _, w := range ctx.params.Warnings.Describe() {
		if w == text {
			return nil
		}
	}
	return fmt.Errorf("expected warning %q but warnings were %v", text, ctx.params.Warnings.Describe())
}

func (ctx *recipeParameterContext) thereShouldBeNoParameterWarnings() error {
	if w := ctx.params.Warnings.Describe(); len(w) > 0 {
		return fmt.Errorf("expected no warnings but got %v", w)
	}
	return nil
}

// Register steps

func InitializeRecipeParameterScenario(sc *godog.ScenarioContext) {
	paramCtx := &recipeParameterContext{}

	sc.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		paramCtx.reset()
		return ctx, nil
	})

	sc.Step(`^a production row for recipe "([^"]*)"$`, paramCtx.aProductionRowForRecipe)
	sc.Step(`^a research row for technology "([^"]*)"$`, paramCtx.aResearchRowForTechnology)
	sc.Step(`^the row's entity is "([^"]*)"$`, paramCtx.theRowsEntityIs)
	sc.Step(`^the row's fuel is "([^"]*)"$`, paramCtx.theRowsFuelIs)
	sc.Step(`^the row has (\d+) "([^"]*)" modules$`, paramCtx.theRowHasModules)
	sc.Step(`^the mining productivity bonus is ([0-9.]+)$`, paramCtx.theMiningProductivityBonusIs)
	sc.Step(`^the research speed bonus is ([0-9.]+)$`, paramCtx.theResearchSpeedBonusIs)
	sc.Step(`^the research productivity bonus is ([0-9.]+)$`, paramCtx.theResearchProductivityBonusIs)
	sc.Step(`^the parameters are calculated$`, paramCtx.theParametersAreCalculated)
	sc.Step(`^the recipe time should be ([0-9.]+) seconds$`, paramCtx.theRecipeTimeShouldBe)
	sc.Step(`^the fuel usage should be ([0-9.]+) per second$`, paramCtx.theFuelUsageShouldBe)
	sc.Step(`^the speed multiplier should be ([0-9.]+)$`, paramCtx.theSpeedMultiplierShouldBe)
	sc.Step(`^the energy usage should be ([0-9.]+) MW$`, paramCtx.theEnergyUsageShouldBe)
	sc.Step(`^the productivity should be ([0-9.]+)$`, paramCtx.theProductivityShouldBe)
	sc.Step(`^the parameter warnings should include "([^"]*)"$`, paramCtx.theParameterWarningsShouldInclude)
	sc.Step(`^there should be no parameter warnings$`, paramCtx.thereShouldBeNoParameterWarnings)
}
