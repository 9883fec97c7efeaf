// Package watch reloads the game definition when its file changes on disk.
package watch

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/factorlab/beltplan-go/internal/infrastructure/config"
)

// Watcher watches a single game definition file and invokes a callback
// after changes settle.
//
// The parent directory is watched rather than the file itself: editors
// typically save by writing a temp file and renaming it over the target,
// which silently detaches a direct file watch. Events are debounced so a
// burst of writes produces one reload, and reloads are rate limited so a
// misbehaving process rewriting the file in a loop cannot pin the solver.
type Watcher struct {
	path     string
	dir      string
	debounce time.Duration
	limiter  *rate.Limiter
	onChange func()

	watcher  *fsnotify.Watcher
	done     chan struct{}
	stopOnce sync.Once

	mu       sync.Mutex
	watching bool
}

// New creates a watcher for the given game definition file. The callback
// runs on the watcher goroutine after each debounced change.
func New(path string, cfg config.WatchConfig, onChange func()) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve watch path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	return &Watcher{
		path:     abs,
		dir:      filepath.Dir(abs),
		debounce: debounce,
		limiter:  rate.NewLimiter(rate.Limit(cfg.ReloadRate.Requests), cfg.ReloadRate.Burst),
		onChange: onChange,
		watcher:  watcher,
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching. It returns once the watch is registered; event
// handling runs on a background goroutine until Stop or context cancel.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.watching {
		w.mu.Unlock()
		return nil
	}
	w.watching = true
	w.mu.Unlock()

	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	go w.run(ctx)
	return nil
}

// Stop stops the watcher. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.watcher.Close()

		w.mu.Lock()
		w.watching = false
		w.mu.Unlock()
	})
}

// IsWatching reports whether the watcher is active.
func (w *Watcher) IsWatching() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.watching
}

func (w *Watcher) run(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time

	arm := func() {
		if timer == nil {
			timer = time.NewTimer(w.debounce)
			timerC = timer.C
		} else {
			timer.Reset(w.debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.matches(event) {
				continue
			}
			arm()

		case <-timerC:
			if !w.limiter.Allow() {
				// Over the reload budget. Keep the timer armed so the
				// pending change still lands once the budget recovers.
				arm()
				continue
			}
			log.Printf("Game definition changed: %s", w.path)
			w.onChange()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Warning: file watcher error: %v", err)
		}
	}
}

// matches reports whether an event concerns the watched file. Create and
// Rename cover atomic replace saves; Write covers in-place saves.
func (w *Watcher) matches(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
		return false
	}
	return filepath.Clean(event.Name) == w.path
}
