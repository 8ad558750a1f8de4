package scheduler

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/thoreinstein/arx/internal/errors"
)

// newTreeWatcher establishes a recursive watch over root. fsnotify
// watches single directories, so every subdirectory is added explicitly;
// directories created later are picked up by the runner on Create events.
func newTreeWatcher(root string) (*fsnotify.Watcher, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errors.ErrInvalidPath, "watch source %s", root)
		}
		return nil, errors.Wrapf(err, "stat %s", root)
	}
	if !info.IsDir() {
		return nil, errors.Wrapf(errors.ErrInvalidPath, "watch source %s is not a directory", root)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "creating filesystem watcher")
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		_ = watcher.Close()
		return nil, errors.Wrapf(err, "watching %s", root)
	}

	return watcher, nil
}

// runRealtime consumes filesystem events for the task, coalescing bursts
// into a single trigger per quiet period.
func (s *Scheduler) runRealtime(ctx context.Context, t *task) {
	var timer *time.Timer
	var fire <-chan time.Time

	arm := func() {
		if timer != nil {
			timer.Stop()
		}
		timer = time.NewTimer(s.debounce)
		fire = timer.C
	}
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-t.watcher.Events:
			if !ok {
				return
			}
			if !relevant(ev) {
				continue
			}
			// New directories join the watch so changes below them are
			// seen too.
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Lstat(ev.Name); err == nil && info.IsDir() {
					if err := t.watcher.Add(ev.Name); err != nil {
						s.logger.Warn("could not watch new directory", "task", t.id, "path", ev.Name, "err", err)
					}
				}
			}
			s.logger.Debug("change detected", "task", t.id, "path", ev.Name, "op", ev.Op.String())
			arm()

		case err, ok := <-t.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("watcher error", "task", t.id, "err", err)

		case <-fire:
			fire = nil
			s.trigger(ctx, t)
		}
	}
}

// relevant filters out events that do not change tree content.
func relevant(ev fsnotify.Event) bool {
	return ev.Op.Has(fsnotify.Create) ||
		ev.Op.Has(fsnotify.Write) ||
		ev.Op.Has(fsnotify.Remove) ||
		ev.Op.Has(fsnotify.Rename)
}
