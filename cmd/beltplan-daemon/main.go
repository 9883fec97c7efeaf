package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/factorlab/beltplan-go/internal/adapters/daemon"
	"github.com/factorlab/beltplan-go/internal/adapters/dataload"
	"github.com/factorlab/beltplan-go/internal/adapters/metrics"
	"github.com/factorlab/beltplan-go/internal/adapters/persistence"
	"github.com/factorlab/beltplan-go/internal/application/common"
	planningCmd "github.com/factorlab/beltplan-go/internal/application/planning/commands"
	planningQuery "github.com/factorlab/beltplan-go/internal/application/planning/queries"
	progressionCmd "github.com/factorlab/beltplan-go/internal/application/progression/commands"
	progressionQuery "github.com/factorlab/beltplan-go/internal/application/progression/queries"
	"github.com/factorlab/beltplan-go/internal/application/session"
	"github.com/factorlab/beltplan-go/internal/domain/project"
	"github.com/factorlab/beltplan-go/internal/infrastructure/config"
	"github.com/factorlab/beltplan-go/internal/infrastructure/database"
	"github.com/factorlab/beltplan-go/internal/infrastructure/pidfile"
)

func main() {
	// Parse command-line flags
	forceFlag := flag.Bool("force", false, "Kill any existing daemon and start a new one")
	configFlag := flag.String("config", "", "Path to config file")
	projectFlag := flag.String("project", "", "Project to keep loaded and solved")
	dataFlag := flag.String("data", "", "Path to the game definition JSON file")
	flag.Parse()

	fmt.Println("Beltplan Daemon v0.1.0")
	fmt.Println("======================")

	// Load configuration
	fmt.Println("Loading configuration...")
	cfg := config.MustLoadConfig(*configFlag) // Empty string = search default paths

	// Acquire PID file lock to prevent multiple instances
	fmt.Printf("Acquiring PID file lock: %s\n", cfg.Daemon.PIDFile)
	pf := pidfile.New(cfg.Daemon.PIDFile)

	// Try to acquire the lock
	err := pf.Acquire()
	if err != nil {
		if *forceFlag {
			// Force mode: kill existing daemon and try again
			fmt.Println("Force mode enabled - attempting to kill existing daemon...")
			if killErr := pf.KillExisting(); killErr != nil {
				log.Fatalf("Failed to kill existing daemon: %v", killErr)
			}
			fmt.Println("Existing daemon killed")

			// Try to acquire lock again
			if err := pf.Acquire(); err != nil {
				log.Fatalf("Failed to acquire PID file lock after killing existing daemon: %v", err)
			}
		} else {
			log.Fatalf("Failed to acquire PID file lock: %v\nUse --force to kill the existing daemon", err)
		}
	}

	defer func() {
		if err := pf.Release(); err != nil {
			log.Printf("Warning: failed to release PID file: %v", err)
		}
	}()
	fmt.Println("PID file lock acquired")

	// Initialize application
	if err := run(cfg, *projectFlag, *dataFlag); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run(cfg *config.Config, projectName, dataPath string) error {
	ctx := context.Background()

	// 1. Resolve project and definition from flags and user preferences
	userHandler, err := config.NewUserConfigHandler()
	if err != nil {
		return fmt.Errorf("failed to access user config: %w", err)
	}
	userCfg, err := userHandler.Load()
	if err != nil {
		return fmt.Errorf("failed to load user config: %w", err)
	}
	if projectName == "" {
		projectName = userCfg.DefaultProject
	}
	if projectName == "" {
		return fmt.Errorf("no project selected: use --project or 'beltplan config set-project'")
	}
	if dataPath == "" {
		dataPath = userCfg.DefaultData
	}
	if dataPath == "" {
		dataPath = cfg.Data.Path
	}

	// 2. Initialize metrics before anything records them
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()

		solveCollector := metrics.NewSolverMetricsCollector()
		if err := solveCollector.Register(); err != nil {
			return fmt.Errorf("failed to register solver metrics: %w", err)
		}
		metrics.SetGlobalSolveCollector(solveCollector)

		accessCollector := metrics.NewAccessibilityMetricsCollector()
		if err := accessCollector.Register(); err != nil {
			return fmt.Errorf("failed to register accessibility metrics: %w", err)
		}
		metrics.SetGlobalAccessibilityCollector(accessCollector)

		loadCollector := metrics.NewDataloadMetricsCollector()
		if err := loadCollector.Register(); err != nil {
			return fmt.Errorf("failed to register dataload metrics: %w", err)
		}
		metrics.SetGlobalDataloadCollector(loadCollector)

		fmt.Println("Metrics registry initialized")
	}

	// 3. Setup database connection
	fmt.Printf("Connecting to %s database...\n", cfg.Database.Type)

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	fmt.Println("Database connected")

	// 4. Load the game definition
	fmt.Printf("Loading game definition: %s\n", dataPath)
	loader, err := dataload.NewCachedLoader(cfg.Data.CacheSize)
	if err != nil {
		return fmt.Errorf("failed to create definition loader: %w", err)
	}
	gameDB, err := loader.Load(dataPath)
	if err != nil {
		return fmt.Errorf("failed to load game definition: %w", err)
	}
	fmt.Println("Game definition loaded")

	// 5. Open the project
	repo := persistence.NewGormProjectRepository(db)
	data, err := repo.FindByName(ctx, projectName)
	if err != nil {
		return fmt.Errorf("%w\nCreate it first with 'beltplan project create'", err)
	}
	proj, err := project.Restore(*data, gameDB)
	if err != nil {
		return fmt.Errorf("failed to restore project: %w", err)
	}
	sess, err := session.Open(ctx, gameDB, proj)
	if err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}
	fmt.Printf("Project %q opened (%d pages)\n", projectName, len(proj.Pages))

	// 6. Initialize mediator (CQRS dispatcher)
	med := common.NewMediator()

	// 6a. Register middleware (must be done before registering handlers)
	if cfg.Metrics.Enabled {
		commandCollector := metrics.NewCommandMetricsCollector()
		if err := commandCollector.Register(); err != nil {
			return fmt.Errorf("failed to register command metrics: %w", err)
		}
		med.Use(metrics.PrometheusMiddleware(commandCollector))
	}

	// 7. Register command handlers
	addRecipeHandler := planningCmd.NewAddRecipeHandler(sess)
	if err := common.RegisterHandler[*planningCmd.AddRecipeCommand](med, addRecipeHandler); err != nil {
		return fmt.Errorf("failed to register AddRecipe handler: %w", err)
	}

	removeRowHandler := planningCmd.NewRemoveRowHandler(sess)
	if err := common.RegisterHandler[*planningCmd.RemoveRowCommand](med, removeRowHandler); err != nil {
		return fmt.Errorf("failed to register RemoveRow handler: %w", err)
	}

	configureRowHandler := planningCmd.NewConfigureRowHandler(sess)
	if err := common.RegisterHandler[*planningCmd.ConfigureRowCommand](med, configureRowHandler); err != nil {
		return fmt.Errorf("failed to register ConfigureRow handler: %w", err)
	}

	setRowEnabledHandler := planningCmd.NewSetRowEnabledHandler(sess)
	if err := common.RegisterHandler[*planningCmd.SetRowEnabledCommand](med, setRowEnabledHandler); err != nil {
		return fmt.Errorf("failed to register SetRowEnabled handler: %w", err)
	}

	createLinkHandler := planningCmd.NewCreateLinkHandler(sess)
	if err := common.RegisterHandler[*planningCmd.CreateLinkCommand](med, createLinkHandler); err != nil {
		return fmt.Errorf("failed to register CreateLink handler: %w", err)
	}

	setLinkHandler := planningCmd.NewSetLinkHandler(sess)
	if err := common.RegisterHandler[*planningCmd.SetLinkCommand](med, setLinkHandler); err != nil {
		return fmt.Errorf("failed to register SetLink handler: %w", err)
	}

	removeLinkHandler := planningCmd.NewRemoveLinkHandler(sess)
	if err := common.RegisterHandler[*planningCmd.RemoveLinkCommand](med, removeLinkHandler); err != nil {
		return fmt.Errorf("failed to register RemoveLink handler: %w", err)
	}

	solvePageHandler := planningCmd.NewSolvePageHandler(sess)
	if err := common.RegisterHandler[*planningCmd.SolvePageCommand](med, solvePageHandler); err != nil {
		return fmt.Errorf("failed to register SolvePage handler: %w", err)
	}

	createPageHandler := planningCmd.NewCreatePageHandler(sess)
	if err := common.RegisterHandler[*planningCmd.CreatePageCommand](med, createPageHandler); err != nil {
		return fmt.Errorf("failed to register CreatePage handler: %w", err)
	}

	removePageHandler := planningCmd.NewRemovePageHandler(sess)
	if err := common.RegisterHandler[*planningCmd.RemovePageCommand](med, removePageHandler); err != nil {
		return fmt.Errorf("failed to register RemovePage handler: %w", err)
	}

	// Undo and redo share one handler
	undoHandler := planningCmd.NewUndoHandler(sess)
	if err := common.RegisterHandler[*planningCmd.UndoCommand](med, undoHandler); err != nil {
		return fmt.Errorf("failed to register Undo handler: %w", err)
	}
	if err := common.RegisterHandler[*planningCmd.RedoCommand](med, undoHandler); err != nil {
		return fmt.Errorf("failed to register Redo handler: %w", err)
	}

	setMilestonesHandler := progressionCmd.NewSetMilestonesHandler(sess)
	if err := common.RegisterHandler[*progressionCmd.SetMilestonesCommand](med, setMilestonesHandler); err != nil {
		return fmt.Errorf("failed to register SetMilestones handler: %w", err)
	}

	setUnlockedHandler := progressionCmd.NewSetMilestoneUnlockedHandler(sess)
	if err := common.RegisterHandler[*progressionCmd.SetMilestoneUnlockedCommand](med, setUnlockedHandler); err != nil {
		return fmt.Errorf("failed to register SetMilestoneUnlocked handler: %w", err)
	}

	recomputeHandler := progressionCmd.NewRecomputeMilestonesHandler(sess)
	if err := common.RegisterHandler[*progressionCmd.RecomputeMilestonesCommand](med, recomputeHandler); err != nil {
		return fmt.Errorf("failed to register RecomputeMilestones handler: %w", err)
	}

	markHandler := progressionCmd.NewMarkAccessibilityHandler(sess)
	if err := common.RegisterHandler[*progressionCmd.MarkAccessibilityCommand](med, markHandler); err != nil {
		return fmt.Errorf("failed to register MarkAccessibility handler: %w", err)
	}

	// 8. Register query handlers
	pageFlowsHandler := planningQuery.NewGetPageFlowsHandler(sess)
	if err := common.RegisterHandler[*planningQuery.GetPageFlowsQuery](med, pageFlowsHandler); err != nil {
		return fmt.Errorf("failed to register GetPageFlows handler: %w", err)
	}

	accessibilityHandler := progressionQuery.NewGetAccessibilityHandler(sess)
	if err := common.RegisterHandler[*progressionQuery.GetAccessibilityQuery](med, accessibilityHandler); err != nil {
		return fmt.Errorf("failed to register GetAccessibility handler: %w", err)
	}

	explainHandler := progressionQuery.NewExplainDependenciesHandler(sess)
	if err := common.RegisterHandler[*progressionQuery.ExplainDependenciesQuery](med, explainHandler); err != nil {
		return fmt.Errorf("failed to register ExplainDependencies handler: %w", err)
	}

	listMilestonesHandler := progressionQuery.NewListMilestonesHandler(sess)
	if err := common.RegisterHandler[*progressionQuery.ListMilestonesQuery](med, listMilestonesHandler); err != nil {
		return fmt.Errorf("failed to register ListMilestones handler: %w", err)
	}

	// 9. Start the daemon server
	server, err := daemon.NewServer(med, sess, repo, loader, dataPath, projectName, cfg)
	if err != nil {
		return fmt.Errorf("failed to create daemon server: %w", err)
	}

	fmt.Println("\n✓ Daemon is ready")
	fmt.Println("Press Ctrl+C to stop")

	// Run the sync loop (blocks until shutdown)
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("daemon server error: %w", err)
	}

	fmt.Println("\nDaemon stopped")
	return nil
}
