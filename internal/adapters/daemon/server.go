// Package daemon runs the long-lived planning process: it keeps one project
// loaded, re-solves it when the game definition or the stored project
// changes, and exposes health and Prometheus endpoints over HTTP.
package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/factorlab/beltplan-go/internal/adapters/dataload"
	"github.com/factorlab/beltplan-go/internal/adapters/metrics"
	"github.com/factorlab/beltplan-go/internal/adapters/persistence"
	"github.com/factorlab/beltplan-go/internal/application/common"
	"github.com/factorlab/beltplan-go/internal/application/planning/commands"
	"github.com/factorlab/beltplan-go/internal/application/session"
	"github.com/factorlab/beltplan-go/internal/domain/gamedata"
	"github.com/factorlab/beltplan-go/internal/domain/project"
	"github.com/factorlab/beltplan-go/internal/infrastructure/config"
	"github.com/factorlab/beltplan-go/internal/infrastructure/watch"
)

// HealthStatus is the payload of the /healthz endpoint
type HealthStatus struct {
	Status  string `json:"status"`
	Project string `json:"project"`
	Pages   int    `json:"pages"`
	Uptime  string `json:"uptime"`
}

// Server is the daemon: a sync loop between the project store, the game
// definition on disk and the in-memory session, plus two HTTP listeners.
type Server struct {
	mediator    common.Mediator
	sess        *session.Session
	repo        *persistence.GormProjectRepository
	loader      *dataload.CachedLoader
	dataPath    string
	projectName string

	cfg *config.Config

	healthSrv  *http.Server
	metricsSrv *http.Server
	watcher    *watch.Watcher

	// lastDB and lastSnapshot let idle cycles return without re-solving.
	lastDB       *gamedata.Database
	lastSnapshot string

	started      time.Time
	reloadChan   chan struct{}
	shutdownChan chan os.Signal

	mu    sync.RWMutex
	pages int
}

// NewServer creates a daemon server around an open session
func NewServer(
	mediator common.Mediator,
	sess *session.Session,
	repo *persistence.GormProjectRepository,
	loader *dataload.CachedLoader,
	dataPath string,
	projectName string,
	cfg *config.Config,
) (*Server, error) {
	s := &Server{
		mediator:     mediator,
		sess:         sess,
		repo:         repo,
		loader:       loader,
		dataPath:     dataPath,
		projectName:  projectName,
		cfg:          cfg,
		lastDB:       sess.Database(),
		started:      time.Now(),
		reloadChan:   make(chan struct{}, 1),
		shutdownChan: make(chan os.Signal, 1),
	}

	if cfg.Data.Watch.Enabled {
		watcher, err := watch.New(dataPath, cfg.Data.Watch, s.requestReload)
		if err != nil {
			return nil, fmt.Errorf("failed to create definition watcher: %w", err)
		}
		s.watcher = watcher
	}

	// Setup signal handling
	signal.Notify(s.shutdownChan, os.Interrupt, syscall.SIGTERM)

	return s, nil
}

// Start runs the sync loop and HTTP listeners, blocking until shutdown
func (s *Server) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if s.watcher != nil {
		if err := s.watcher.Start(ctx); err != nil {
			return fmt.Errorf("failed to start definition watcher: %w", err)
		}
		defer s.watcher.Stop()
	}

	s.startHealthServer()
	if s.cfg.Metrics.Enabled {
		s.startMetricsServer()
	}

	// First cycle solves the project as loaded
	if err := s.syncCycle(ctx, s.cfg.Solver.SolveOnOpen); err != nil {
		return err
	}

	ticker := time.NewTicker(s.cfg.Daemon.AutoSaveInterval)
	defer ticker.Stop()

	log.Printf("Daemon running: project %q, definition %s", s.projectName, s.dataPath)

	for {
		select {
		case <-ctx.Done():
			return s.shutdown()

		case <-s.shutdownChan:
			log.Printf("Shutdown signal received")
			return s.shutdown()

		case <-ticker.C:
			if err := s.syncCycle(ctx, false); err != nil {
				log.Printf("Sync cycle failed: %v", err)
			}

		case <-s.reloadChan:
			s.loader.Invalidate(s.dataPath)
			if err := s.syncCycle(ctx, true); err != nil {
				log.Printf("Definition reload failed: %v", err)
			}
		}
	}
}

// requestReload is the watcher callback; it coalesces bursts into one
// pending reload.
func (s *Server) requestReload() {
	select {
	case s.reloadChan <- struct{}{}:
	default:
	}
}

// syncCycle reconciles the session with the store and the definition file.
// Idle cycles, where neither changed, return without touching the solver.
func (s *Server) syncCycle(ctx context.Context, force bool) error {
	gameDB, err := s.loader.Load(s.dataPath)
	if err != nil {
		return fmt.Errorf("failed to load game definition: %w", err)
	}

	data, err := s.repo.FindByName(ctx, s.projectName)
	if err != nil {
		return fmt.Errorf("failed to load project: %w", err)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to fingerprint project: %w", err)
	}

	dbChanged := gameDB != s.lastDB
	if !force && !dbChanged && string(raw) == s.lastSnapshot {
		return nil
	}

	proj, err := project.Restore(*data, gameDB)
	if err != nil {
		return fmt.Errorf("failed to restore project: %w", err)
	}

	if dbChanged {
		log.Printf("Game definition changed, rebuilding dependency graph")
		err = s.sess.Reload(ctx, gameDB, proj)
	} else {
		err = s.sess.Reopen(ctx, proj)
	}
	if err != nil {
		return fmt.Errorf("failed to open project: %w", err)
	}
	s.lastDB = gameDB

	if err := s.solveAll(ctx); err != nil {
		return err
	}

	snapshot := s.sess.Project().Snapshot(s.sess.Database())
	if err := s.repo.Save(ctx, &snapshot); err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}
	saved, err := json.Marshal(&snapshot)
	if err != nil {
		return fmt.Errorf("failed to fingerprint project: %w", err)
	}
	s.lastSnapshot = string(saved)

	s.mu.Lock()
	s.pages = len(s.sess.Project().Pages)
	s.mu.Unlock()

	return nil
}

// solveAll dispatches one solve per page through the mediator
func (s *Server) solveAll(ctx context.Context) error {
	for _, page := range s.sess.Project().Pages {
		result, err := s.mediator.Send(ctx, &commands.SolvePageCommand{Page: page.ID.String()})
		if err != nil {
			return fmt.Errorf("failed to solve page %s: %w", page.Name, err)
		}
		if resp := result.(*commands.SolvePageResponse); !resp.Solved {
			log.Printf("Page %q not solved: %s", page.Name, resp.SolveError)
		}
	}
	return nil
}

// startHealthServer serves /healthz on the daemon address
func (s *Server) startHealthServer() {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)

	s.healthSrv = &http.Server{Addr: s.cfg.Daemon.Address, Handler: mux}
	go func() {
		log.Printf("Health endpoint on http://%s/healthz", s.cfg.Daemon.Address)
		if err := s.healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Health server error: %v", err)
		}
	}()
}

// startMetricsServer serves the Prometheus registry
func (s *Server) startMetricsServer() {
	addr := fmt.Sprintf("%s:%d", s.cfg.Metrics.Host, s.cfg.Metrics.Port)
	mux := http.NewServeMux()
	mux.Handle(s.cfg.Metrics.Path, promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	s.metricsSrv = &http.Server{Addr: addr, Handler: mux}
	go func() {
		log.Printf("Metrics endpoint on http://%s%s", addr, s.cfg.Metrics.Path)
		if err := s.metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Metrics server error: %v", err)
		}
	}()
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	pages := s.pages
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(HealthStatus{
		Status:  "ok",
		Project: s.projectName,
		Pages:   pages,
		Uptime:  time.Since(s.started).Round(time.Second).String(),
	})
}

// shutdown saves a final snapshot and stops the HTTP listeners
func (s *Server) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Daemon.ShutdownTimeout)
	defer cancel()

	if err := s.syncCycle(ctx, false); err != nil {
		log.Printf("Final save failed: %v", err)
	}

	if s.metricsSrv != nil {
		if err := s.metricsSrv.Shutdown(ctx); err != nil {
			log.Printf("Metrics server shutdown: %v", err)
		}
	}
	if s.healthSrv != nil {
		if err := s.healthSrv.Shutdown(ctx); err != nil {
			log.Printf("Health server shutdown: %v", err)
		}
	}

	log.Printf("Daemon stopped")
	return nil
}
