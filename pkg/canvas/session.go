package canvas

import (
	"fmt"
	"slices"

	"github.com/aretw0/easel/pkg/core"
)

// Tool is the active input tool.
type Tool string

const (
	ToolSelect     Tool = "select"
	ToolPen        Tool = "pen"
	ToolEraser     Tool = "eraser"
	ToolRectangle  Tool = "rectangle"
	ToolCircle     Tool = "circle"
	ToolLine       Tool = "line"
	ToolText       Tool = "text"
	ToolStickyNote Tool = "stickyNote"
)

// Tools lists every tool in toolbar order.
var Tools = []Tool{ToolSelect, ToolPen, ToolEraser, ToolRectangle, ToolCircle, ToolLine, ToolText, ToolStickyNote}

// ParseTool maps an identifier to a Tool.
func ParseTool(s string) (Tool, error) {
	t := Tool(s)
	if !slices.Contains(Tools, t) {
		return "", fmt.Errorf("%w: unknown tool %q", core.ErrValidation, s)
	}
	return t, nil
}

// Places returns the element kind a placement tool creates.
func (t Tool) Places() (core.Kind, bool) {
	switch t {
	case ToolRectangle:
		return core.KindRectangle, true
	case ToolCircle:
		return core.KindCircle, true
	case ToolLine:
		return core.KindLine, true
	case ToolText:
		return core.KindText, true
	case ToolStickyNote:
		return core.KindStickyNote, true
	case ToolSelect, ToolPen, ToolEraser:
	}
	return "", false
}

// State is the gesture state of a session.
type State int

const (
	StateIdle State = iota
	// StatePlacing is only observable while an instantaneous placement runs.
	StatePlacing
	StateDrawing
	StateDragging
	StateErasing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlacing:
		return "placing"
	case StateDrawing:
		return "drawing"
	case StateDragging:
		return "dragging"
	case StateErasing:
		return "erasing"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Session is the per-editor interaction state: active tool, selected color,
// current selection and the in-flight gesture.
type Session struct {
	Tool      Tool
	Color     string
	State     State
	Selection string
	// Offset is pointer minus element origin, captured when a drag starts.
	Offset core.Point
	// Path holds the points captured by the pen.
	Path []core.Point
	// Moved reports whether the current drag changed the live snapshot.
	Moved bool
}

// NewSession returns an idle session using the select tool.
func NewSession() Session {
	return Session{Tool: ToolSelect, Color: core.DefaultColor, State: StateIdle}
}

// Active reports whether a gesture is in progress.
func (s Session) Active() bool {
	return s.State == StateDrawing || s.State == StateDragging || s.State == StateErasing
}

func (s Session) clone() Session {
	s.Path = slices.Clone(s.Path)
	return s
}

// reset ends the current gesture, keeping tool, color and selection.
func (s *Session) reset() {
	s.State = StateIdle
	s.Offset = core.Point{}
	s.Path = nil
	s.Moved = false
}
