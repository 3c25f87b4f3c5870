package scene

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/anchorview/internal/logger"
)

// Watcher reports changes to the scene document and asset directories.
// Bursts of events (editors often write, rename and chmod in one save)
// are collapsed into one callback after a quiet period.
type Watcher struct {
	fs       *fsnotify.Watcher
	debounce time.Duration
	files    map[string]bool
	dirs     map[string]bool
	log      *zap.Logger
}

// NewWatcher creates a watcher with the given quiet period.
func NewWatcher(debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fs:       fw,
		debounce: debounce,
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
		log:      logger.Named("watch"),
	}, nil
}

// AddFile watches a single file. Its directory is watched so that
// replace-on-save is seen.
func (w *Watcher) AddFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.fs.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	w.files[abs] = true
	return nil
}

// AddDir watches every file directly inside dir.
func (w *Watcher) AddDir(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	if err := w.fs.Add(abs); err != nil {
		return err
	}
	w.dirs[abs] = true
	return nil
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	name, err := filepath.Abs(ev.Name)
	if err != nil {
		return false
	}
	return w.files[name] || w.dirs[filepath.Dir(name)]
}

// Run calls onChange after each burst of relevant events until ctx is
// cancelled. onChange runs on the Run goroutine.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			w.log.Debug("change", zap.String("path", ev.Name), zap.Stringer("op", ev.Op))
			timer.Reset(w.debounce)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))
		case <-timer.C:
			onChange()
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fs.Close()
}
