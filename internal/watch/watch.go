// Package watch re-runs a handler whenever Markdown files under a root
// change. Bursts of events are coalesced into one call per quiet period.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"
)

// DefaultDebounce is the quiet period before a batch of changes is handled.
const DefaultDebounce = 200 * time.Millisecond

// skipDirs are never watched.
var skipDirs = map[string]bool{
	".git": true, "node_modules": true, ".venv": true, "venv": true, "__pycache__": true,
}

// Handler receives the sorted, slash separated relative paths of the
// Markdown files changed since the previous call. Errors are logged and do
// not stop the watcher.
type Handler func(ctx context.Context, changed []string) error

// Options configures Watch.
type Options struct {
	Root     string
	Debounce time.Duration
	// Initial runs the handler once with no changes before any event.
	Initial bool
	Logger  *slog.Logger
}

// Watch blocks until ctx is cancelled, calling handle after each burst of
// Markdown changes. New directories are watched as they appear. A handler
// run never overlaps another; changes arriving during a run are batched
// for the next one.
func Watch(ctx context.Context, opts Options, handle Handler) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	if err := addDirsRecursive(w, opts.Root); err != nil {
		return fmt.Errorf("watching %s: %w", opts.Root, err)
	}
	logger.Info("watcher: started", slog.String("root", opts.Root), slog.Duration("debounce", debounce))

	batches := make(chan []string)
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if opts.Initial {
			run(gCtx, logger, handle, nil)
		}
		for {
			select {
			case <-gCtx.Done():
				return nil
			case changed := <-batches:
				run(gCtx, logger, handle, changed)
			}
		}
	})

	g.Go(func() error {
		return loop(gCtx, w, opts.Root, debounce, logger, batches)
	})

	err = g.Wait()
	logger.Info("watcher: stopped")
	return err
}

func run(ctx context.Context, logger *slog.Logger, handle Handler, changed []string) {
	logger.Debug("watcher: running handler", slog.Int("changed", len(changed)))
	if err := handle(ctx, changed); err != nil && ctx.Err() == nil {
		logger.Error("watcher: handler failed", slog.String("error", err.Error()))
	}
}

// loop collects changed paths and hands a batch to the handler goroutine
// once no event has arrived for debounce. While the handler is busy the
// batch keeps growing and delivery is retried after another quiet period.
func loop(ctx context.Context, w *fsnotify.Watcher, root string, debounce time.Duration, logger *slog.Logger, batches chan<- []string) error {
	pending := map[string]bool{}
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			select {
			case batches <- changed:
				pending = map[string]bool{}
			default:
				timer.Reset(debounce)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addDirsRecursive(w, ev.Name); err != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", err.Error()))
					}
					continue
				}
			}
			if !strings.HasSuffix(ev.Name, ".md") || ev.Op == fsnotify.Chmod {
				continue
			}
			rel, err := filepath.Rel(root, ev.Name)
			if err != nil {
				continue
			}
			pending[filepath.ToSlash(rel)] = true
			timer.Reset(debounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", err.Error()))
		}
	}
}

// addDirsRecursive watches dir and its subdirectories, skipping hidden and
// dependency directories.
func addDirsRecursive(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if skipped(d.Name()) {
			return filepath.SkipDir
		}
		return w.Add(p)
	})
}

func skipped(name string) bool {
	return skipDirs[name] || (strings.HasPrefix(name, ".") && name != "." && name != "..")
}
