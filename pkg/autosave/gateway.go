// Package autosave persists whiteboard snapshots with a trailing debounce.
//
// Every qualifying change rearms a single pending save; only when the board has
// been quiet for the configured delay is the latest snapshot written. SaveNow
// bypasses the timer. Failures are reported, never retried, and never roll back
// the editor.
package autosave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/easel/pkg/core"
)

// DefaultDelay is the quiet interval before a scheduled save runs.
const DefaultDelay = 2000 * time.Millisecond

// ErrClosed is returned by operations on a closed Gateway.
var ErrClosed = errors.New("autosave gateway is closed")

// Store is the durable side of the gateway. *core.Service satisfies it.
type Store interface {
	SaveSnapshot(ctx context.Context, id string, snap core.Snapshot) error
	LoadSnapshot(ctx context.Context, id string) (core.Snapshot, error)
}

// Gateway schedules and performs saves for one whiteboard.
type Gateway struct {
	id      string
	store   Store
	delay   time.Duration
	logger  *slog.Logger
	onError func(error)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	task       *task
	pending    core.Snapshot
	hasPending bool
	seq        uint64
	closed     bool

	// saveMu serializes writes; savedSeq drops writes older than the last one.
	saveMu    sync.Mutex
	savedSeq  uint64
	saves     int
	failures  int
	lastSaved time.Time
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithDelay sets the debounce interval.
func WithDelay(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.delay = d
		}
	}
}

// WithLogger sets the logger for the gateway.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithErrorHandler registers a callback for failed background saves.
// It runs on the saving goroutine and must not block.
func WithErrorHandler(fn func(error)) Option {
	return func(g *Gateway) { g.onError = fn }
}

// New creates a gateway persisting board id into store.
func New(id string, store Store, opts ...Option) *Gateway {
	g := &Gateway{
		id:     id,
		store:  store,
		delay:  DefaultDelay,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.ctx, g.cancel = context.WithCancel(context.Background())
	return g
}

// ID is the whiteboard this gateway persists.
func (g *Gateway) ID() string { return g.id }

// Delay is the debounce interval.
func (g *Gateway) Delay() time.Duration { return g.delay }

// Load returns the last persisted snapshot, or an empty one when nothing valid
// is stored.
func (g *Gateway) Load(ctx context.Context) (core.Snapshot, error) {
	snap, err := g.store.LoadSnapshot(ctx, g.id)
	if err != nil {
		g.report(err)
		return snap, err
	}
	return snap, nil
}

// Schedule (re)arms the pending save with snap. A pending save from an earlier
// call is superseded and its timer restarted from now.
func (g *Gateway) Schedule(snap core.Snapshot) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}

	g.task.Cancel()
	g.seq++
	seq := g.seq
	g.pending = snap
	g.hasPending = true
	g.task = schedule(g.delay, func() { g.fire(seq) })
}

// SaveNow cancels any pending save and writes snap synchronously.
func (g *Gateway) SaveNow(ctx context.Context, snap core.Snapshot) error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return ErrClosed
	}
	g.task.Cancel()
	g.task = nil
	g.hasPending = false
	g.seq++
	seq := g.seq
	g.mu.Unlock()

	return g.save(ctx, snap, seq)
}

// Pending reports whether a scheduled save has not run yet.
func (g *Gateway) Pending() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.hasPending
}

// Close cancels the pending save and waits for in-flight writes. With flush, the
// pending snapshot is written first.
func (g *Gateway) Close(ctx context.Context, flush bool) error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true
	g.task.Cancel()
	g.task = nil
	snap, pending, seq := g.pending, g.hasPending, g.seq
	g.hasPending = false
	g.mu.Unlock()

	var err error
	if flush && pending {
		err = g.save(ctx, snap, seq)
	} else if pending {
		g.logger.Debug("discarding pending save", "id", g.id)
	}

	g.wg.Wait()
	g.cancel()
	return err
}

func (g *Gateway) fire(seq uint64) {
	g.mu.Lock()
	if g.closed || seq != g.seq || !g.hasPending {
		g.mu.Unlock()
		return
	}
	snap := g.pending
	g.hasPending = false
	g.task = nil
	g.wg.Add(1)
	g.mu.Unlock()

	lifecycle.Go(g.ctx, func(ctx context.Context) error {
		defer g.wg.Done()
		_ = g.save(ctx, snap, seq)
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		g.report(fmt.Errorf("autosave panic: %w", err))
	}))
}

func (g *Gateway) save(ctx context.Context, snap core.Snapshot, seq uint64) error {
	g.saveMu.Lock()
	defer g.saveMu.Unlock()

	if seq <= g.savedSeq {
		g.logger.Debug("skipping stale save", "id", g.id, "seq", seq, "saved", g.savedSeq)
		return nil
	}

	start := time.Now()
	if err := g.store.SaveSnapshot(ctx, g.id, snap); err != nil {
		g.failures++
		if !errors.Is(err, core.ErrPersistence) {
			err = fmt.Errorf("%w: %w", core.ErrPersistence, err)
		}
		g.report(err)
		return err
	}
	g.savedSeq = seq
	g.saves++
	g.lastSaved = time.Now()
	g.logger.Debug("whiteboard saved", "id", g.id, "elements", snap.Len(), "took", time.Since(start))
	return nil
}

func (g *Gateway) report(err error) {
	g.logger.Error("autosave failed", "id", g.id, "error", err)
	if g.onError != nil {
		g.onError(err)
	}
}
