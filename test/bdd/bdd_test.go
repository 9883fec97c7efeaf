package bdd

import (
	"os"
	"testing"

	"github.com/cucumber/godog"

	"github.com/factorlab/beltplan-go/test/bdd/steps"
	"github.com/factorlab/beltplan-go/test/helpers"
)

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/domain", "features/application", "features/adapters"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

func InitializeScenario(sc *godog.ScenarioContext) {
	// Register all step definitions
	// NOTE: AccessibilityScenario registered FIRST so its step definitions take precedence
	// for shared steps like `"..." should be accessible` in domain features
	steps.InitializeAccessibilityScenario(sc)
	steps.InitializeDependencyScenario(sc)
	steps.InitializeRecipeParameterScenario(sc)

	// Application layer scenarios
	// NOTE: SolveProductionScenario registered BEFORE PageManagementScenario so its
	// page setup steps take precedence for solve_production.feature
	steps.InitializeSolveProductionScenario(sc)
	steps.InitializePageManagementScenario(sc)
	steps.InitializeLinkScenario(sc)
	steps.InitializeMilestoneCommandScenario(sc)
	steps.InitializeUndoRedoScenario(sc)

	// Adapter layer scenarios
	steps.InitializeProjectStoreScenario(sc)
	steps.InitializeGameLoaderScenario(sc)
}

func TestMain(m *testing.M) {
	// Initialize the shared project store and game definition once for the
	// whole suite; per-scenario setup only truncates and rebuilds sessions
	if err := helpers.InitializeSharedTestDB(); err != nil {
		panic("Failed to initialize shared test database: " + err.Error())
	}
	defer helpers.CloseSharedTestDB()

	if err := helpers.InitializeSharedGameDB(); err != nil {
		panic("Failed to load shared game definition: " + err.Error())
	}

	os.Exit(m.Run())
}
