package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"gorm.io/gorm"

	"github.com/factorlab/beltplan-go/internal/adapters/dataload"
	"github.com/factorlab/beltplan-go/internal/adapters/persistence"
	"github.com/factorlab/beltplan-go/internal/application/session"
	"github.com/factorlab/beltplan-go/internal/domain/project"
	"github.com/factorlab/beltplan-go/internal/infrastructure/config"
	"github.com/factorlab/beltplan-go/internal/infrastructure/database"
)

// planningContext bundles everything an invocation needs: loaded config,
// the project store connection and an open session.
type planningContext struct {
	Config  *config.Config
	DB      *gorm.DB
	Repo    *persistence.GormProjectRepository
	Session *session.Session
}

// resolveDataPath resolves the game definition path.
// Priority: --data flag > user config default > main config
func resolveDataPath(cfg *config.Config) string {
	if dataPath != "" {
		return dataPath
	}
	if handler, err := config.NewUserConfigHandler(); err == nil {
		if userCfg, err := handler.Load(); err == nil && userCfg.DefaultData != "" {
			return userCfg.DefaultData
		}
	}
	return cfg.Data.Path
}

// resolveProjectName resolves the project to operate on.
// Priority: --project flag > user config default
func resolveProjectName() (string, error) {
	if projectName != "" {
		return projectName, nil
	}

	handler, err := config.NewUserConfigHandler()
	if err != nil {
		return "", fmt.Errorf("no project specified and failed to load user config: %w", err)
	}
	userCfg, err := handler.Load()
	if err != nil {
		return "", fmt.Errorf("no project specified and failed to load user config: %w", err)
	}
	if userCfg.DefaultProject != "" {
		return userCfg.DefaultProject, nil
	}

	return "", fmt.Errorf("no project specified: use --project, or set a default with 'beltplan config set-project'")
}

// openStore loads config and connects to the project store.
func openStore() (*config.Config, *gorm.DB, *persistence.GormProjectRepository, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to project store: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to migrate project store: %w", err)
	}

	return cfg, db, persistence.NewGormProjectRepository(db), nil
}

// openPlanning opens the resolved project against the loaded game definition.
func openPlanning(ctx context.Context) (*planningContext, error) {
	cfg, db, repo, err := openStore()
	if err != nil {
		return nil, err
	}

	gameDB, err := dataload.NewLoader().Load(resolveDataPath(cfg))
	if err != nil {
		database.Close(db)
		return nil, fmt.Errorf("failed to load game definition: %w", err)
	}

	name, err := resolveProjectName()
	if err != nil {
		database.Close(db)
		return nil, err
	}

	data, err := repo.FindByName(ctx, name)
	if err != nil {
		database.Close(db)
		return nil, err
	}

	proj, err := project.Restore(*data, gameDB)
	if err != nil {
		database.Close(db)
		return nil, err
	}

	sess, err := session.Open(ctx, gameDB, proj)
	if err != nil {
		database.Close(db)
		return nil, err
	}

	return &planningContext{
		Config:  cfg,
		DB:      db,
		Repo:    repo,
		Session: sess,
	}, nil
}

// Save persists the session's project back to the store.
func (p *planningContext) Save(ctx context.Context) error {
	snapshot := p.Session.Project().Snapshot(p.Session.Database())
	if err := p.Repo.Save(ctx, &snapshot); err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}
	return nil
}

// Close releases the project store connection.
func (p *planningContext) Close() {
	_ = database.Close(p.DB)
}

// parseRowPath parses a dotted row path like "0" or "1.2.0".
func parseRowPath(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ".")
	path := make([]int, len(parts))
	for i, part := range parts {
		index, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || index < 0 {
			return nil, fmt.Errorf("invalid row path %q: expected dot-separated indices", s)
		}
		path[i] = index
	}
	return path, nil
}

// printSolveStatus reports the outcome of the re-solve an edit triggered.
func printSolveStatus(solveError string) {
	if solveError == "" {
		color.New(color.FgGreen).Println("✓ Solved")
		return
	}
	color.New(color.FgYellow).Printf("⚠ Solve: %s\n", solveError)
}

// formatFlow renders a per-second flow with a stable width.
func formatFlow(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 3, 64)
}

// formatCount renders a building count, trimming trailing zeros.
func formatCount(count float64) string {
	s := strconv.FormatFloat(count, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}

// checkMark renders a boolean as a compact table cell.
func checkMark(ok bool) string {
	if ok {
		return "yes"
	}
	return "no"
}
