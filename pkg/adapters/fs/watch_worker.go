package fs

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/qafizz/pkg/core"
)

// Watch reports changes made to keys matching pattern by anyone other than
// this handle: other handles, other processes, or manual edits.
// The channel is closed when ctx is done.
func (s *Storage) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	if pattern == "" {
		pattern = "*"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid watch pattern %q", pattern)
	}
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(s.Path); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", s.Path, err)
	}

	events := make(chan core.Event, 16)
	w := &watchWorker{
		storage:   s,
		pattern:   pattern,
		events:    events,
		watcher:   watcher,
		debouncer: newDebouncer(s.config.Debounce),
	}
	s.addWatcher(1)

	lifecycle.Go(ctx, w.run, lifecycle.WithErrorHandler(func(err error) {
		w.handleWatcherError(fmt.Errorf("watcher stopped: %w", err))
	}))
	return events, nil
}

type watchWorker struct {
	storage   *Storage
	pattern   string
	events    chan core.Event
	watcher   *fsnotify.Watcher
	debouncer *debouncer
}

func (w *watchWorker) logger() *slog.Logger {
	return w.storage.config.Logger
}

// run is the main event loop for the watcher worker.
func (w *watchWorker) run(ctx context.Context) (err error) {
	defer close(w.events)
	defer w.storage.addWatcher(-1)
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("watcher panic: %v", recovered)
			if l := w.logger(); l != nil {
				if l.Enabled(ctx, slog.LevelDebug) {
					l.Error("watcher panic", "error", err, "stack", string(debug.Stack()))
				} else {
					l.Error("watcher panic", "error", err)
				}
			}
		}
	}()
	defer w.watcher.Close()

	runCtx, cancel := context.WithCancel(ctx)
	err = w.mainEventLoop(runCtx)

	// In-flight timers may still send; they must finish before events closes.
	cancel()
	w.debouncer.stopAndWait()
	return err
}

func (w *watchWorker) mainEventLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			w.processFilesystemEvent(ctx, event)

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.handleWatcherError(wErr)
		}
	}
}

// processFilesystemEvent filters one fsnotify event and queues the key for
// a debounced state check.
func (w *watchWorker) processFilesystemEvent(ctx context.Context, event fsnotify.Event) bool {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return false
	}

	key := filepath.Base(event.Name)
	if strings.HasPrefix(key, ".") {
		return false // temp and lock files
	}
	if ok, _ := doublestar.Match(w.pattern, key); !ok {
		return false
	}

	if l := w.logger(); l != nil {
		l.Debug("event received", "key", key, "op", event.Op.String())
	}
	w.debouncer.add(key, func() { w.emit(ctx, key) })
	return true
}

// emit compares the settled on-disk state with this handle's own last write
// and forwards the change only when someone else made it.
func (w *watchWorker) emit(ctx context.Context, key string) {
	value, exists, err := w.storage.read(key)
	if err != nil {
		w.handleWatcherError(err)
		return
	}
	if w.storage.isOwn(key, value, exists) {
		return
	}

	e := core.Event{Type: core.EventSet, Key: key, Timestamp: time.Now().Unix()}
	if !exists {
		e.Type = core.EventRemove
	}
	w.storage.recordEvent()

	select {
	case w.events <- e:
	case <-ctx.Done():
	}
}

func (w *watchWorker) handleWatcherError(err error) {
	if l := w.logger(); l != nil {
		l.Error("fsnotify error", "error", err)
	}
	if w.storage.config.ErrorHandler != nil {
		w.storage.config.ErrorHandler(err)
	}
}
