// Package watch re-runs dead-code analysis when source files change.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"

	"github.com/dean0x/diedeadcode/pkg/config"
	"github.com/dean0x/diedeadcode/pkg/parser"
)

// DefaultDebounce is how long a file must be quiet before a rerun. Editors
// write in bursts.
const DefaultDebounce = 500 * time.Millisecond

// Watcher monitors a project tree and invokes a callback after changes
// settle. Change events are batched: one burst of saves triggers one rerun.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	cfg       *config.Config
	root      string
	debounce  time.Duration
	callback  func(changed []string)

	mu      sync.Mutex
	pending map[string]time.Time
}

// New creates a watcher over root.
func New(root string, cfg *config.Config, debounce time.Duration) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		fsWatcher: fsWatcher,
		cfg:       cfg,
		root:      root,
		debounce:  debounce,
		pending:   make(map[string]time.Time),
	}, nil
}

// SetCallback sets the function invoked with the settled batch of changed
// files, as paths relative to the root.
func (w *Watcher) SetCallback(cb func(changed []string)) {
	w.callback = cb
}

// Start watches until the context is canceled.
func (w *Watcher) Start(ctx context.Context) error {
	err := filepath.Walk(w.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(w.root, path)
		if relErr == nil && rel != "." && excludedDir(w.cfg, filepath.ToSlash(rel)) {
			// Directories like node_modules never contain analyzed
			// files; watching them wastes inotify handles.
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
	if err != nil {
		return err
	}

	color.Cyan("Watching %s for changes, Ctrl+C to stop", w.root)
	fmt.Println()

	go w.flushLoop(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			color.Red("watch error: %v", err)
		}
	}
}

// excludedDir reports whether every file under dir would be excluded.
func excludedDir(cfg *config.Config, dir string) bool {
	return !cfg.ShouldInclude(dir + "/probe.ts")
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	if parser.DetectLanguage(rel) == parser.LangUnknown {
		return
	}
	if !w.cfg.ShouldInclude(rel) {
		return
	}

	w.mu.Lock()
	w.pending[rel] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.flush()
		}
	}
}

// flush fires the callback once the whole batch has been quiet for the
// debounce period.
func (w *Watcher) flush() {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	now := time.Now()
	for _, last := range w.pending {
		if now.Sub(last) < w.debounce {
			w.mu.Unlock()
			return
		}
	}
	changed := make([]string, 0, len(w.pending))
	for path := range w.pending {
		changed = append(changed, path)
	}
	w.pending = make(map[string]time.Time)
	w.mu.Unlock()

	if w.callback != nil {
		w.callback(changed)
	}
}

// Stop closes the underlying filesystem watcher.
func (w *Watcher) Stop() error {
	return w.fsWatcher.Close()
}
