package cli

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pterm/pterm"

	"github.com/qmlstub/stubgen/errors"
	"github.com/qmlstub/stubgen/logger"
	"github.com/qmlstub/stubgen/pipeline"
	"github.com/qmlstub/stubgen/scan"
)

// rerunDebounce coalesces bursts of filesystem events (editor saves, build
// outputs) into one regeneration.
const rerunDebounce = 500 * time.Millisecond

// watchAndRun generates once, then regenerates whenever a module file under
// the input trees changes. The loader's execution cache carries across
// reruns, so unchanged modules are not executed again.
//
// Caveat: a module file edited in place keeps its cached registrations for
// the life of the process; restart to pick up changed module bodies.
func watchAndRun(ctx context.Context, opts pipeline.Options) error {
	runOnce := func() {
		report, err := pipeline.Run(ctx, opts)
		if err != nil {
			pterm.Error.Printf("Stub generation aborted: %v\n", err)
			return
		}
		printSummary(report)
	}
	runOnce()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "creating filesystem watcher")
	}
	defer watcher.Close()

	for _, root := range opts.InDirs {
		if err := addRecursive(watcher, root, opts.Ignores); err != nil {
			return err
		}
	}
	pterm.Info.Println("Watching for changes (ctrl-c to stop)")

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	schedule := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(rerunDebounce, runOnce)
	}

	for {
		select {
		case <-ctx.Done():
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			mu.Unlock()
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				// New directories must be watched too.
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					_ = addRecursive(watcher, event.Name, opts.Ignores)
				}
			}
			if relevant(event, opts.Ignores) {
				logger.Logger.Debugw("module change detected", "path", event.Name, "op", event.Op.String())
				schedule()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Logger.Warnw("filesystem watcher error", "error", err)
		}
	}
}

// relevant reports whether the event should trigger regeneration: a write,
// create, remove or rename of a non-ignored module file.
func relevant(event fsnotify.Event, ignores []string) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if filepath.Ext(event.Name) != scan.SourceExt {
		return false
	}
	return !scan.IsIgnored(event.Name, ignores)
}

// addRecursive watches every non-ignored directory under root.
func addRecursive(watcher *fsnotify.Watcher, root string, ignores []string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Logger.Warnw("cannot watch path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && scan.IsIgnored(path, ignores) {
			return fs.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return errors.Wrapf(err, "watching %s", path)
		}
		return nil
	})
}
