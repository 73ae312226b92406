// Package canvas implements the whiteboard editing engine: the document store,
// hit testing, the tool state machine and the undo/redo history.
//
// An Editor is not safe for concurrent use. Pointer and keyboard events must be
// delivered one at a time, each running to completion before the next.
package canvas

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/aretw0/easel/pkg/core"
	"github.com/aretw0/easel/pkg/idgen"
)

// ChangeHook observes every snapshot the history moves to (commit, undo, redo).
type ChangeHook func(core.Snapshot)

// Editor drives one whiteboard: it interprets pointer gestures for the active
// tool, mutates the store and records one history entry per discrete action.
type Editor struct {
	session   Session
	store     *Store
	history   *History
	newID     core.IDGenerator
	pick      func(n int) int
	hitRadius float64
	hooks     []ChangeHook
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures an Editor.
type Option func(*Editor)

// WithIDGenerator sets the element id source.
func WithIDGenerator(gen core.IDGenerator) Option {
	return func(e *Editor) { e.newID = gen }
}

// WithRand sets the random source used for sticky note colors.
func WithRand(r *rand.Rand) Option {
	return func(e *Editor) { e.pick = r.IntN }
}

// WithHitRadius overrides DefaultHitRadius.
func WithHitRadius(r float64) Option {
	return func(e *Editor) { e.hitRadius = r }
}

// WithLogger sets the logger for the editor.
func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock overrides the time source used to stamp snapshots.
func WithClock(now func() time.Time) Option {
	return func(e *Editor) { e.now = now }
}

// WithChangeHook registers fn to run after every commit, undo and redo.
func WithChangeHook(fn ChangeHook) Option {
	return func(e *Editor) { e.hooks = append(e.hooks, fn) }
}

// NewEditor opens an editor on initial. initial becomes history entry 0.
func NewEditor(initial core.Snapshot, opts ...Option) *Editor {
	e := &Editor{
		session:   NewSession(),
		newID:     idgen.Default,
		pick:      rand.IntN,
		hitRadius: DefaultHitRadius,
		logger:    slog.New(slog.DiscardHandler),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.store = NewStore(initial, e.now)
	e.history = NewHistory(initial)
	return e
}

// Snapshot returns the live snapshot, including an in-progress drag.
func (e *Editor) Snapshot() core.Snapshot { return e.store.Snapshot() }

// Session returns a copy of the interaction state.
func (e *Editor) Session() Session { return e.session.clone() }

// History exposes the undo/redo log for inspection.
func (e *Editor) History() *History { return e.history }

// SetTool switches the active tool, discarding any in-progress gesture.
func (e *Editor) SetTool(t Tool) error {
	if _, err := ParseTool(string(t)); err != nil {
		return err
	}
	e.CancelGesture()
	e.session.Tool = t
	return nil
}

// SetColor selects the color used by shapes, lines, text and the pen.
func (e *Editor) SetColor(color string) error {
	if !core.GenericPalette.Contains(color) {
		return fmt.Errorf("%w: color %q is not in the palette", core.ErrValidation, color)
	}
	e.session.Color = color
	return nil
}

// PointerDown starts a gesture for the active tool at p.
func (e *Editor) PointerDown(p core.Point) error {
	if e.session.Active() {
		// A down without an up means the previous gesture lost its pointer.
		e.CancelGesture()
	}

	switch e.session.Tool {
	case ToolSelect:
		el, ok := HitTestSnapshot(p, e.store.Snapshot(), e.hitRadius)
		if !ok {
			e.session.Selection = ""
			return nil
		}
		e.session.Selection = el.ID
		e.session.State = StateDragging
		e.session.Offset = p.Sub(el.Origin())
		e.session.Moved = false
		return nil

	case ToolPen:
		e.session.State = StateDrawing
		e.session.Path = []core.Point{p}
		return nil

	case ToolEraser:
		e.session.State = StateErasing
		el, ok := HitTestSnapshot(p, e.store.Snapshot(), e.hitRadius)
		if !ok {
			return nil
		}
		if _, err := e.store.Apply(core.RemoveByID{ID: el.ID}); err != nil {
			return err
		}
		if e.session.Selection == el.ID {
			e.session.Selection = ""
		}
		e.commit("erase", el.ID)
		return nil

	case ToolRectangle, ToolCircle, ToolLine, ToolText, ToolStickyNote:
		return e.place(p)
	}
	return fmt.Errorf("%w: unknown tool %q", core.ErrValidation, e.session.Tool)
}

// PointerMove feeds a pointer position into the active gesture.
func (e *Editor) PointerMove(p core.Point) error {
	switch e.session.State {
	case StateDrawing:
		e.session.Path = append(e.session.Path, p)
	case StateDragging:
		to := p.Sub(e.session.Offset)
		if _, err := e.store.Apply(core.UpdateByID{ID: e.session.Selection, Patch: core.MovePatch(to)}); err != nil {
			return err
		}
		e.session.Moved = true
	case StateIdle, StatePlacing, StateErasing:
	}
	return nil
}

// PointerUp completes the active gesture, committing its result.
func (e *Editor) PointerUp(p core.Point) error {
	defer e.session.reset()

	switch e.session.State {
	case StateDrawing:
		path := e.session.Path
		if len(path) < 2 {
			e.logger.Debug("discarding single point stroke")
			return nil
		}
		el := core.Element{
			ID:     e.newID(),
			Kind:   core.KindFreehand,
			Color:  e.session.Color,
			Points: append([]core.Point(nil), path...),
		}
		if _, err := e.store.Apply(core.Insert{Element: el}); err != nil {
			return err
		}
		e.commit("stroke", el.ID)
	case StateDragging:
		if e.session.Moved {
			e.commit("move", e.session.Selection)
		}
	case StateIdle, StatePlacing, StateErasing:
	}
	return nil
}

// CancelGesture discards the in-progress gesture without committing anything.
// Call it when the pointer capture is lost.
func (e *Editor) CancelGesture() {
	if e.session.State == StateDragging && e.session.Moved {
		e.store.Reset(e.history.Current())
	}
	e.session.reset()
}

// EditText replaces the content of a text or sticky note element and commits
// once. A missing id or unchanged content commits nothing.
func (e *Editor) EditText(id, content string) error {
	el, ok := e.store.Snapshot().Find(id)
	if !ok {
		return nil
	}
	if !el.Kind.HasContent() {
		return fmt.Errorf("%w: element %s of kind %s has no text", core.ErrValidation, id, el.Kind)
	}
	if el.Content == content {
		return nil
	}
	e.CancelGesture()
	if _, err := e.store.Apply(core.UpdateByID{ID: id, Patch: core.ContentPatch(content)}); err != nil {
		return err
	}
	e.commit("edit", id)
	return nil
}

// Undo moves back one history entry. It reports whether anything changed.
func (e *Editor) Undo() bool {
	e.CancelGesture()
	snap, ok := e.history.Undo()
	if !ok {
		return false
	}
	e.restore(snap)
	return true
}

// Redo moves forward one history entry. It reports whether anything changed.
func (e *Editor) Redo() bool {
	e.CancelGesture()
	snap, ok := e.history.Redo()
	if !ok {
		return false
	}
	e.restore(snap)
	return true
}

// Close ends the editing session, discarding any in-progress gesture.
func (e *Editor) Close() {
	e.CancelGesture()
}

func (e *Editor) place(p core.Point) error {
	kind, _ := e.session.Tool.Places()
	e.session.State = StatePlacing
	defer e.session.reset()

	el := core.Element{
		ID:    e.newID(),
		Kind:  kind,
		X:     p.X,
		Y:     p.Y,
		Color: e.session.Color,
	}
	switch kind {
	case core.KindStickyNote:
		el.Color = core.PastelPalette.Pick(e.pick(len(core.PastelPalette)))
	case core.KindText:
		el.Content = "Text"
	case core.KindRectangle, core.KindCircle, core.KindLine, core.KindFreehand:
	}
	if _, err := e.store.Apply(core.Insert{Element: el}); err != nil {
		return err
	}
	e.commit("place", el.ID)
	return nil
}

func (e *Editor) commit(action, id string) {
	snap := e.store.Snapshot()
	e.history.Commit(snap)
	e.logger.Debug("commit", "action", action, "element", id, "cursor", e.history.Cursor())
	e.notify(snap)
}

func (e *Editor) restore(snap core.Snapshot) {
	e.store.Reset(snap)
	if sel := e.session.Selection; sel != "" {
		if _, ok := snap.Find(sel); !ok {
			e.session.Selection = ""
		}
	}
	e.notify(snap)
}

func (e *Editor) notify(snap core.Snapshot) {
	for _, fn := range e.hooks {
		fn(snap)
	}
}
