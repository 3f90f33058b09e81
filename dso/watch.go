package dso

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Neumenon/rdl2/rdl"
)

// DefaultDebounce is how long Watch waits for more changes before it
// reloads.
const DefaultDebounce = 100 * time.Millisecond

// ReloadHandler receives the classes of a dso path after a change, or the
// error the reload failed with.
type ReloadHandler func(classes []*rdl.SceneClass, err error)

// Watch reloads dsoPath whenever a class file in one of its directories
// is created, written, removed or renamed, and hands the result to fn.
// Changes closer together than debounce are batched into one reload. It
// blocks until ctx is done and returns nil then.
func (s *Source) Watch(ctx context.Context, dsoPath string, debounce time.Duration, fn ReloadHandler) error {
	dirs := SplitPath(dsoPath)
	if len(dirs) == 0 {
		return fmt.Errorf("%w: empty dso path", rdl.ErrSchema)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("dso: watch: %w", err)
	}
	defer w.Close()
	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("dso: watch %s: %w", dir, err)
		}
	}
	s.logger.Info("dso: watching", slog.String("dso_path", dsoPath))

	timer := time.NewTimer(debounce)
	timer.Stop()
	pending := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !relevant(ev) {
				continue
			}
			s.logger.Debug("dso: change",
				slog.String("file", ev.Name),
				slog.String("op", ev.Op.String()))
			pending = true
			timer.Reset(debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("dso: watcher error", slog.String("error", err.Error()))
		case <-timer.C:
			if !pending {
				continue
			}
			pending = false
			classes, err := s.LoadClasses(ctx, dsoPath)
			if ctx.Err() != nil {
				return nil
			}
			fn(classes, err)
		}
	}
}

func relevant(ev fsnotify.Event) bool {
	if !isClassFile(filepath.Base(ev.Name)) {
		return false
	}
	return ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) ||
		ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}
