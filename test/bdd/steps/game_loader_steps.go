package steps

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cucumber/godog"

	"github.com/factorlab/beltplan-go/internal/adapters/dataload"
	"github.com/factorlab/beltplan-go/internal/domain/gamedata"
	"github.com/factorlab/beltplan-go/test/helpers"
)

type gameLoaderContext struct {
	dir  string
	path string

	cached *dataload.CachedLoader

	db       *gamedata.Database
	first    *gamedata.Database
	second   *gamedata.Database
	reloaded *gamedata.Database
	err      error
}

func (ctx *gameLoaderContext) reset() {
	if ctx.dir != "" {
		os.RemoveAll(ctx.dir)
	}
	dir, err := os.MkdirTemp("", "beltplan-loader-*")
	if err != nil {
		panic(fmt.Errorf("failed to create temp dir: %w", err))
	}
	ctx.dir = dir
	ctx.path = ""
	ctx.cached = nil
	ctx.db = nil
	ctx.first = nil
	ctx.second = nil
	ctx.reloaded = nil
	ctx.err = nil
}

func (ctx *gameLoaderContext) writeDefinition(content string) error {
	path := filepath.Join(ctx.dir, "definition.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write game definition: %w", err)
	}
	ctx.path = path
	return nil
}

// Given steps

func (ctx *gameLoaderContext) aGameDefinitionFileWithValidContent() error {
	return ctx.writeDefinition(helpers.GameDefinitionJSON)
}

func (ctx *gameLoaderContext) aGameDefinitionFileReferencingAnUnknownGood() error {
	broken := strings.ReplaceAll(helpers.GameDefinitionJSON, `"good": "iron-ore"`, `"good": "unobtainium"`)
	return ctx.writeDefinition(broken)
}

func (ctx *gameLoaderContext) aCorruptGameDefinitionFile() error {
	return ctx.writeDefinition("{ this is not json")
}

func (ctx *gameLoaderContext) aCachedGameLoader() error {
	cached, err := dataload.NewCachedLoader(0)
	if err != nil {
		return err
	}
	ctx.cached = cached
	return nil
}

// When steps

func (ctx *gameLoaderContext) iLoadTheGameDefinition() error {
	ctx.db, ctx.err = dataload.NewLoader().Load(ctx.path)
	return nil
}

func (ctx *gameLoaderContext) iLoadTheDefinitionThroughTheCacheTwice() error {
	first, err := ctx.cached.Load(ctx.path)
	if err != nil {
		return err
	}
	second, err := ctx.cached.Load(ctx.path)
	if err != nil {
		return err
	}
	ctx.first, ctx.second = first, second
	return nil
}

func (ctx *gameLoaderContext) theDefinitionFileGainsAnExtraGood() error {
	grown := strings.Replace(helpers.GameDefinitionJSON,
		`{"name": "iron-ore", "cost": 1},`,
		`{"name": "iron-ore", "cost": 1},
    {"name": "test-ore", "cost": 1},`, 1)
	return ctx.writeDefinition(grown)
}

func (ctx *gameLoaderContext) iInvalidateTheCachedDefinition() error {
	ctx.cached.Invalidate(ctx.path)
	return nil
}

func (ctx *gameLoaderContext) iReloadTheDefinitionThroughTheCache() error {
	ctx.reloaded, ctx.err = ctx.cached.Load(ctx.path)
	return nil
}

// Then steps

func (ctx *gameLoaderContext) theLoadShouldSucceed() error {
	if ctx.err != nil {
		return fmt.Errorf("expected success but got error: %v", ctx.err)
	}
	if ctx.db == nil {
		return fmt.Errorf("expected a database but got nil")
	}
	return nil
}

func (ctx *gameLoaderContext) theLoadShouldFailWithError(expected string) error {
	if ctx.err == nil {
		return fmt.Errorf("expected an error but the load succeeded")
	}
	if !strings.Contains(ctx.err.Error(), expected) {
		return fmt.Errorf("expected error containing '%s' but got '%s'", expected, ctx.err.Error())
	}
	return nil
}

func (ctx *gameLoaderContext) theDatabaseShouldContain(goods, recipes, entities, technologies, qualities int) error {
	if ctx.db == nil {
		return fmt.Errorf("no database loaded")
	}
	got := []int{len(ctx.db.Goods), len(ctx.db.Recipes), len(ctx.db.Entities), len(ctx.db.Technologies), len(ctx.db.Qualities)}
	want := []int{goods, recipes, entities, technologies, qualities}
	names := []string{"goods", "recipes", "entities", "technologies", "qualities"}
	for i := range want {
		if got[i] != want[i] {
			return fmt.Errorf("expected %d %s but got %d", want[i], names[i], got[i])
		}
	}
	return nil
}

func (ctx *gameLoaderContext) theWinConditionShouldBeTheTechnology(name string) error {
	if ctx.db == nil {
		return fmt.Errorf("no database loaded")
	}
	if ctx.db.Win == gamedata.NoObject {
		return fmt.Errorf("expected a win condition but none is set")
	}
	if got := ctx.db.Get(ctx.db.Win).Info().Name; got != name {
		return fmt.Errorf("expected win condition %q but got %q", name, got)
	}
	return nil
}

func (ctx *gameLoaderContext) theNormalQualityShouldBe(name string) error {
	if ctx.db == nil {
		return fmt.Errorf("no database loaded")
	}
	if ctx.db.NormalQuality == nil || ctx.db.NormalQuality.Name != name {
		return fmt.Errorf("expected normal quality %q", name)
	}
	return nil
}

func (ctx *gameLoaderContext) bothLoadsShouldShareOneParsedDatabase() error {
	if ctx.first == nil || ctx.second == nil {
		return fmt.Errorf("no cached loads recorded")
	}
	if ctx.first != ctx.second {
		return fmt.Errorf("expected the second load to hit the cache but it parsed a new database")
	}
	return nil
}

func (ctx *gameLoaderContext) theReloadShouldProduceAFreshDatabase() error {
	if ctx.err != nil {
		return fmt.Errorf("expected success but got error: %v", ctx.err)
	}
	if ctx.reloaded == nil {
		return fmt.Errorf("no reload recorded")
	}
	if ctx.reloaded == ctx.first {
		return fmt.Errorf("expected a fresh parse but the cached database was returned")
	}
	return nil
}

func (ctx *gameLoaderContext) theReloadedDatabaseShouldContainGoods(goods int) error {
	if ctx.reloaded == nil {
		return fmt.Errorf("no reload recorded")
	}
	if len(ctx.reloaded.Goods) != goods {
		return fmt.Errorf("expected %d goods but got %d", goods, len(ctx.reloaded.Goods))
	}
	return nil
}

// Register steps

func InitializeGameLoaderScenario(sc *godog.ScenarioContext) {
	loaderCtx := &gameLoaderContext{}

	sc.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		loaderCtx.reset()
		return ctx, nil
	})

	sc.Step(`^a game definition file with valid content$`, loaderCtx.aGameDefinitionFileWithValidContent)
	sc.Step(`^a game definition file referencing an unknown good$`, loaderCtx.aGameDefinitionFileReferencingAnUnknownGood)
	sc.Step(`^a corrupt game definition file$`, loaderCtx.aCorruptGameDefinitionFile)
	sc.Step(`^a cached game loader$`, loaderCtx.aCachedGameLoader)
	sc.Step(`^I load the game definition$`, loaderCtx.iLoadTheGameDefinition)
	sc.Step(`^I load the definition through the cache twice$`, loaderCtx.iLoadTheDefinitionThroughTheCacheTwice)
	sc.Step(`^the definition file gains an extra good$`, loaderCtx.theDefinitionFileGainsAnExtraGood)
	sc.Step(`^I invalidate the cached definition$`, loaderCtx.iInvalidateTheCachedDefinition)
	sc.Step(`^I reload the definition through the cache$`, loaderCtx.iReloadTheDefinitionThroughTheCache)
	sc.Step(`^the load should succeed$`, loaderCtx.theLoadShouldSucceed)
	sc.Step(`^the load should fail with error "([^"]*)"$`, loaderCtx.theLoadShouldFailWithError)
	sc.Step(`^the database should contain (\d+) goods, (\d+) recipes, (\d+) entities, (\d+) technologies and (\d+) qualities$`, loaderCtx.theDatabaseShouldContain)
	sc.Step(`^the win condition should be the technology "([^"]*)"$`, loaderCtx.theWinConditionShouldBeTheTechnology)
	sc.Step(`^the normal quality should be "([^"]*)"$`, loaderCtx.theNormalQualityShouldBe)
	sc.Step(`^both loads should share one parsed database$`, loaderCtx.bothLoadsShouldShareOneParsedDatabase)
	sc.Step(`^the reload should produce a fresh database$`, loaderCtx.theReloadShouldProduceAFreshDatabase)
	sc.Step(`^the reloaded database should contain (\d+) goods$`, loaderCtx.theReloadedDatabaseShouldContainGoods)
}
