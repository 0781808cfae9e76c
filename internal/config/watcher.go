package config

import (
	"path/filepath"
	"sync"
	"time"

	"backlog-mcp/pkg/logging"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounceInterval is the time to wait after the last change event
// before the file is reloaded. Editors often write a file in several steps.
const DefaultDebounceInterval = 250 * time.Millisecond

// Watcher reloads a configuration file whenever it changes on disk and hands
// the validated result to OnChange. Invalid revisions are logged and skipped.
type Watcher struct {
	mu sync.Mutex

	path     string
	onChange func(Config)
	debounce time.Duration

	fsWatcher *fsnotify.Watcher
	stopCh    chan struct{}
	running   bool

	debounceTimer *time.Timer
	debounceMu    sync.Mutex
}

// NewWatcher creates a watcher for the config file at path.
func NewWatcher(path string, onChange func(Config)) *Watcher {
	return &Watcher{
		path:     path,
		onChange: onChange,
		debounce: DefaultDebounceInterval,
	}
}

// Start begins watching. The parent directory is watched rather than the file
// so atomic replace-by-rename keeps working.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		watcher.Close()
		return err
	}

	w.fsWatcher = watcher
	w.stopCh = make(chan struct{})
	w.running = true

	go w.processEvents(watcher.Events, watcher.Errors, w.stopCh)

	logging.Info("Config", "Watching %s for changes", w.path)
	return nil
}

func (w *Watcher) processEvents(eventsCh <-chan fsnotify.Event, errorsCh <-chan error, stopCh <-chan struct{}) {
	for {
		select {
		case <-stopCh:
			return

		case event, ok := <-eventsCh:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-errorsCh:
			if !ok {
				return
			}
			logging.Error("Config", err, "fsnotify error")
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != filepath.Clean(w.path) {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}

	logging.Debug("Config", "Config file changed: %s (%s)", event.Name, event.Op)
	w.reloadDebounced()
}

func (w *Watcher) reloadDebounced() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	w.mu.Lock()
	running := w.running
	w.mu.Unlock()
	if !running {
		return
	}

	cfg, err := LoadConfig(w.path)
	if err != nil {
		logging.Error("Config", err, "Ignoring unreadable config revision")
		return
	}
	if err := ValidateGateway(cfg.Gateway); err != nil {
		logging.Error("Config", err, "Ignoring invalid config revision")
		return
	}

	if w.onChange != nil {
		w.onChange(cfg)
	}
}

// Stop stops the watcher. It is safe to call more than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}
	w.running = false
	close(w.stopCh)

	w.debounceMu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
	w.debounceMu.Unlock()

	err := w.fsWatcher.Close()
	w.fsWatcher = nil
	return err
}
