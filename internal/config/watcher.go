package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-hclog"
)

// debounceDelay coalesces editor write bursts into one reload.
const debounceDelay = 500 * time.Millisecond

// Watcher reloads the settings file when it changes on disk and hands every
// validated new configuration to a callback. A file that fails validation is
// logged and skipped; the previous configuration stays active.
type Watcher struct {
	path    string
	logger  hclog.Logger
	onApply func(*Config)

	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	reloadMutex sync.Mutex
	pending     *time.Timer
	stopped     bool
}

// NewWatcher creates a watcher for the settings file at path. Start must be
// called before any reloads are delivered.
func NewWatcher(path string, logger hclog.Logger, onApply func(*Config)) *Watcher {
	return &Watcher{
		path:    path,
		logger:  logger,
		onApply: onApply,
	}
}

// Start begins watching. The watch is on the containing directory so that
// atomic rename-into-place saves are observed too.
func (w *Watcher) Start() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		fw.Close()
		return err
	}
	w.watcher = fw

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	w.wg.Add(1)
	go w.watchLoop(ctx)

	w.logger.Debug("watching settings file", "path", w.path)
	return nil
}

// Stop ends the watch and waits for the loop to exit. A reload still pending
// in the debounce window is cancelled; no callback fires after Stop returns.
func (w *Watcher) Stop() {
	w.reloadMutex.Lock()
	w.stopped = true
	if w.pending != nil {
		w.pending.Stop()
		w.pending = nil
	}
	w.reloadMutex.Unlock()

	if w.cancel != nil {
		w.cancel()
	}
	if w.watcher != nil {
		w.watcher.Close()
	}
	w.wg.Wait()
}

func (w *Watcher) watchLoop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleReload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("settings watch error", "error", err)
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.reloadMutex.Lock()
	defer w.reloadMutex.Unlock()

	if w.stopped {
		return
	}
	if w.pending != nil {
		w.pending.Stop()
	}
	w.pending = time.AfterFunc(debounceDelay, w.reload)
}

// reload holds reloadMutex for its whole run so Stop cannot return while a
// callback is in flight.
func (w *Watcher) reload() {
	w.reloadMutex.Lock()
	defer w.reloadMutex.Unlock()

	if w.stopped {
		return
	}

	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Error("settings reload failed, keeping previous configuration",
			"path", w.path, "error", err)
		return
	}

	w.logger.Info("settings reloaded", "path", w.path, "mode", cfg.Encoder.Mode)
	w.onApply(cfg)
}
