package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/easel/pkg/core"
)

// watchDebounce collapses the burst of events an atomic write produces
// (temp create, write, rename) into one event per board.
const watchDebounce = 50 * time.Millisecond

// Watch reports board changes made by any process. pattern is a glob over
// board ids ("*" or "" for all). The channel closes when ctx is cancelled.
func (r *Repository) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	if pattern == "" {
		pattern = "*"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("%w: invalid watch pattern %q", core.ErrValidation, pattern)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(r.Path); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", r.Path, err)
	}

	events := make(chan core.Event)
	w := &watchWorker{
		repo:      r,
		pattern:   pattern,
		events:    events,
		watcher:   watcher,
		debouncer: newDebouncer(watchDebounce),
		known:     r.existingIDs(),
	}
	r.setWatcherActive(true)

	lifecycle.Go(ctx, w.run, lifecycle.WithErrorHandler(func(err error) {
		w.report(fmt.Errorf("watcher panic: %w", err))
	}))
	return events, nil
}

type watchWorker struct {
	repo      *Repository
	pattern   string
	events    chan core.Event
	watcher   *fsnotify.Watcher
	debouncer *debouncer

	mu    sync.Mutex
	known map[string]bool
}

func (w *watchWorker) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer close(w.events)
	defer w.repo.setWatcherActive(false)
	defer w.watcher.Close()
	// Timers may still be delivering; they must finish before events closes.
	defer w.debouncer.stopAndWait(5 * time.Second)
	defer cancel()

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
			w.handle(ctx, event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.report(err)
		}
	}
}

func (w *watchWorker) handle(ctx context.Context, event fsnotify.Event) {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return
	}
	id, ok := boardID(filepath.Base(event.Name))
	if !ok {
		return
	}
	if match, _ := doublestar.Match(w.pattern, id); !match {
		return
	}
	w.repo.logger.Debug("board file event", "id", id, "op", event.Op.String())

	w.debouncer.add(id, func() {
		e, ok := w.classify(id)
		if !ok {
			return
		}
		select {
		case w.events <- e:
		case <-ctx.Done():
		}
	})
}

// classify decides the event type from the file's presence once the burst
// settles: an atomic rename looks like a create even when it is an update.
func (w *watchWorker) classify(id string) (core.Event, bool) {
	_, _, exists := w.repo.locate(id)

	w.mu.Lock()
	defer w.mu.Unlock()

	var t core.EventType
	switch {
	case exists && w.known[id]:
		t = core.EventModify
	case exists:
		t = core.EventCreate
		w.known[id] = true
	case w.known[id]:
		t = core.EventDelete
		delete(w.known, id)
	default:
		return core.Event{}, false
	}
	return core.Event{Type: t, ID: id, Timestamp: time.Now().Unix()}, true
}

func (w *watchWorker) report(err error) {
	w.repo.logger.Error("watcher error", "error", err)
	if h := w.repo.config.ErrorHandler; h != nil {
		h(err)
	}
}

func (r *Repository) existingIDs() map[string]bool {
	known := make(map[string]bool)
	entries, err := os.ReadDir(r.Path)
	if err != nil {
		return known
	}
	for _, d := range entries {
		if id, ok := boardID(d.Name()); ok && !d.IsDir() {
			known[id] = true
		}
	}
	return known
}

// debouncer runs the latest callback per key once the key stays quiet for delay.
type debouncer struct {
	delay   time.Duration
	mu      sync.Mutex
	timers  map[string]*time.Timer
	wg      sync.WaitGroup
	stopped bool
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{delay: delay, timers: make(map[string]*time.Timer)}
}

func (d *debouncer) add(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if t, ok := d.timers[key]; ok && t.Stop() {
		// The stopped timer never runs, so release its slot.
		d.wg.Done()
	}
	d.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(d.delay, func() {
		defer d.wg.Done()
		d.mu.Lock()
		if d.timers[key] == t {
			delete(d.timers, key)
		}
		d.mu.Unlock()
		fn()
	})
	d.timers[key] = t
}

// stopAndWait cancels pending timers and waits for running callbacks.
func (d *debouncer) stopAndWait(timeout time.Duration) {
	d.mu.Lock()
	d.stopped = true
	for key, t := range d.timers {
		if t.Stop() {
			d.wg.Done()
		}
		delete(d.timers, key)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
	}
}
