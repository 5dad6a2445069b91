package internal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	tt "github.com/gnolang/eql/internal/types"
)

// settleDelay lets bursts of writes to one file land before it is checked.
const settleDelay = 100 * time.Millisecond

// ReportFunc receives the issues of a file changed while watching.
type ReportFunc func(filename string, issues []tt.Issue)

// Watcher re-checks query files whenever they are written.
type Watcher struct {
	engine  *Engine
	logger  *zap.Logger
	report  ReportFunc
	watcher *fsnotify.Watcher
	match   func(string) bool
	seen    *Cache
}

// NewWatcher creates a watcher. match selects the files worth checking.
func (e *Engine) NewWatcher(logger *zap.Logger, match func(string) bool, report ReportFunc) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("error creating watcher: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		engine:  e,
		logger:  logger,
		report:  report,
		watcher: fw,
		match:   match,
		seen:    NewCache(0),
	}, nil
}

// Add watches every directory under each root. A file root watches its directory.
func (w *Watcher) Add(roots ...string) error {
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return fmt.Errorf("error accessing %s: %w", root, err)
		}
		if !info.IsDir() {
			if err := w.watcher.Add(filepath.Dir(root)); err != nil {
				return fmt.Errorf("error adding directory to watcher: %w", err)
			}
			continue
		}
		err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() && !w.engine.isIgnoredPath(path) {
				return w.watcher.Add(path)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("error adding directory to watcher: %w", err)
		}
	}
	return nil
}

// Close stops watching without running.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Run handles file events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleFileEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleFileEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}
	if w.match != nil && !w.match(event.Name) {
		return
	}

	time.Sleep(settleDelay)
	// one save often produces several events
	if _, unchanged := w.seen.Get(event.Name); unchanged {
		return
	}
	issues, err := w.engine.Run(event.Name)
	if err != nil {
		w.logger.Error("Error checking file", zap.String("file", event.Name), zap.Error(err))
		return
	}
	if err := w.seen.Set(event.Name, issues); err != nil {
		w.logger.Debug("Not caching file", zap.String("file", event.Name), zap.Error(err))
	}
	w.logger.Debug("Checked file", zap.String("file", event.Name), zap.Int("issues", len(issues)))
	w.report(event.Name, issues)
}
