// Package board ties an editing session to the persistence gateway: every
// history move of the Editor schedules a debounced save of the new snapshot.
package board

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/introspection"

	"github.com/aretw0/easel/pkg/autosave"
	"github.com/aretw0/easel/pkg/canvas"
	"github.com/aretw0/easel/pkg/core"
)

// Board is one open whiteboard: an Editor plus its autosave Gateway.
// Like the Editor, it must be driven from a single goroutine.
type Board struct {
	id      string
	editor  *canvas.Editor
	gateway *autosave.Gateway
	logger  *slog.Logger
}

type config struct {
	delay      time.Duration
	logger     *slog.Logger
	onError    func(error)
	editorOpts []canvas.Option
}

// Option configures Open.
type Option func(*config)

// WithDelay sets the autosave debounce window.
func WithDelay(d time.Duration) Option {
	return func(c *config) { c.delay = d }
}

// WithLogger sets the logger shared by the editor and the gateway.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithErrorHandler receives failed background saves.
func WithErrorHandler(fn func(error)) Option {
	return func(c *config) { c.onError = fn }
}

// WithEditorOptions passes extra options to the Editor (id generator, rand, clock).
func WithEditorOptions(opts ...canvas.Option) Option {
	return func(c *config) { c.editorOpts = append(c.editorOpts, opts...) }
}

// Open loads the last persisted snapshot of id and starts an editing session
// on it. A missing or malformed board opens empty.
func Open(ctx context.Context, store autosave.Store, id string, opts ...Option) (*Board, error) {
	cfg := config{
		delay:  autosave.DefaultDelay,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	gwOpts := []autosave.Option{autosave.WithDelay(cfg.delay), autosave.WithLogger(cfg.logger)}
	if cfg.onError != nil {
		gwOpts = append(gwOpts, autosave.WithErrorHandler(cfg.onError))
	}
	gw := autosave.New(id, store, gwOpts...)

	initial, err := gw.Load(ctx)
	if err != nil {
		_ = gw.Close(ctx, false)
		return nil, fmt.Errorf("open board %s: %w", id, err)
	}

	edOpts := append([]canvas.Option{
		canvas.WithLogger(cfg.logger.With("board", id)),
		canvas.WithChangeHook(gw.Schedule),
	}, cfg.editorOpts...)

	b := &Board{
		id:      id,
		editor:  canvas.NewEditor(initial, edOpts...),
		gateway: gw,
		logger:  cfg.logger,
	}
	b.logger.Debug("board opened", "id", id, "elements", initial.Len())
	return b, nil
}

// ID returns the whiteboard id.
func (b *Board) ID() string { return b.id }

// Editor returns the editing engine driving this board.
func (b *Board) Editor() *canvas.Editor { return b.editor }

// Snapshot returns the live snapshot.
func (b *Board) Snapshot() core.Snapshot { return b.editor.Snapshot() }

// Pending reports whether an autosave is scheduled but not yet written.
func (b *Board) Pending() bool { return b.gateway.Pending() }

// SaveNow persists the last committed snapshot immediately. An in-progress
// drag is not saved.
func (b *Board) SaveNow(ctx context.Context) error {
	return b.gateway.SaveNow(ctx, b.editor.History().Current())
}

// Close ends the session. With flush, a pending autosave is written before
// returning; otherwise it is discarded.
func (b *Board) Close(ctx context.Context, flush bool) error {
	b.editor.Close()
	err := b.gateway.Close(ctx, flush)
	b.logger.Debug("board closed", "id", b.id, "flushed", flush, "error", err)
	return err
}

// BoardState exposes the session state for observability.
type BoardState struct {
	ID       string                `json:"id"`
	Elements int                   `json:"elements"`
	Tool     string                `json:"tool"`
	Gesture  string                `json:"gesture"`
	Cursor   int                   `json:"cursor"`
	History  int                   `json:"history"`
	Autosave autosave.GatewayState `json:"autosave"`
}

// State implements introspection.Introspectable.
func (b *Board) State() any {
	s := b.editor.Session()
	h := b.editor.History()
	return BoardState{
		ID:       b.id,
		Elements: b.editor.Snapshot().Len(),
		Tool:     string(s.Tool),
		Gesture:  s.State.String(),
		Cursor:   h.Cursor(),
		History:  h.Len(),
		Autosave: b.gateway.State().(autosave.GatewayState),
	}
}

// ComponentType implements introspection.Component.
func (b *Board) ComponentType() string { return "board" }

var _ introspection.Introspectable = (*Board)(nil)
var _ introspection.Component = (*Board)(nil)
