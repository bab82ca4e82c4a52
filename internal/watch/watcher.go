package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"mediaflow/internal/logging"
)

// ErrWatcherFailed reports that the filesystem watcher could not be started.
var ErrWatcherFailed = errors.New("failed to initialize filesystem watcher")

// DefaultQuiet is the settle period used when none is given.
const DefaultQuiet = 5 * time.Second

// Trigger is invoked after a burst of changes has settled.
type Trigger func(ctx context.Context) error

// Watcher debounces filesystem events under a directory.
type Watcher struct {
	logger *slog.Logger
	// Initial runs the trigger once at startup when set.
	Initial bool
}

// New constructs a watcher.
func New(logger *slog.Logger) *Watcher {
	return &Watcher{logger: logging.NewComponentLogger(logger, "watch")}
}

// Run blocks until ctx is cancelled or fn returns an error. Each time dir
// has been quiet for the given period after a change, fn is called once.
func (w *Watcher) Run(ctx context.Context, dir string, quiet time.Duration, fn Trigger) error {
	if quiet <= 0 {
		quiet = DefaultQuiet
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWatcherFailed, err)
	}
	defer fw.Close()

	if err := addTree(fw, dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.logger.Info("watching directory",
		logging.String(logging.FieldEventType, "watch_start"),
		logging.String("dir", dir),
		logging.Duration("quiet", quiet),
	)

	if w.Initial {
		if err := fn(ctx); err != nil {
			return err
		}
	}

	timer := time.NewTimer(quiet)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()
	pending := 0

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addTree(fw, event.Name); err != nil {
						w.logger.Warn("cannot watch new directory",
							logging.String("dir", event.Name), logging.Error(err))
					}
				}
			}
			pending++
			timer.Reset(quiet)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logging.WarnWithContext(w.logger, "filesystem watcher error", "watch_error", logging.Error(err))
		case <-timer.C:
			w.logger.Info("inbox settled",
				logging.String(logging.FieldEventType, "watch_trigger"),
				logging.Int("events", pending),
			)
			pending = 0
			if err := fn(ctx); err != nil {
				return err
			}
		}
	}
}

func relevant(event fsnotify.Event) bool {
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) || event.Has(fsnotify.Rename)
}

func addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return fw.Add(path)
	})
}
