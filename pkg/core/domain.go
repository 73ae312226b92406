// Package core holds the whiteboard domain: elements, snapshots, mutations and the
// storage port that adapters implement.
package core

import (
	"fmt"
	"math"
)

// Kind tags the variant of an Element.
type Kind string

const (
	KindStickyNote Kind = "stickyNote"
	KindRectangle  Kind = "rectangle"
	KindCircle     Kind = "circle"
	KindLine       Kind = "line"
	KindText       Kind = "text"
	KindFreehand   Kind = "freehandStroke"
)

// Kinds lists every element kind in a stable order.
var Kinds = []Kind{KindStickyNote, KindRectangle, KindCircle, KindLine, KindText, KindFreehand}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindStickyNote, KindRectangle, KindCircle, KindLine, KindText, KindFreehand:
		return true
	}
	return false
}

// HasContent reports whether elements of this kind carry a text payload.
func (k Kind) HasContent() bool {
	return k == KindStickyNote || k == KindText
}

// PointBased reports whether the geometry of this kind lives in Points.
func (k Kind) PointBased() bool {
	return k == KindFreehand || k == KindLine
}

// Point is a canvas coordinate relative to the canvas origin.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Add returns p + q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Dist returns the euclidean distance between p and q.
func (p Point) Dist(q Point) float64 { return math.Hypot(p.X-q.X, p.Y-q.Y) }

// Rect is an axis-aligned bounding box.
type Rect struct {
	Min, Max Point
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Inset grows r by d on every side (shrinks it when d is negative).
func (r Rect) Inset(d float64) Rect {
	return Rect{
		Min: Point{X: r.Min.X - d, Y: r.Min.Y - d},
		Max: Point{X: r.Max.X + d, Y: r.Max.Y + d},
	}
}

// Width of the box.
func (r Rect) Width() float64 { return r.Max.X - r.Min.X }

// Height of the box.
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }

// BoundsOf returns the min/max box of pts. It returns false for an empty slice.
func BoundsOf(pts []Point) (Rect, bool) {
	if len(pts) == 0 {
		return Rect{}, false
	}
	r := Rect{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		r.Min.X = math.Min(r.Min.X, p.X)
		r.Min.Y = math.Min(r.Min.Y, p.Y)
		r.Max.X = math.Max(r.Max.X, p.X)
		r.Max.Y = math.Max(r.Max.Y, p.Y)
	}
	return r, true
}

// Size is a width/height pair.
type Size struct {
	Width, Height float64
}

// DefaultSize returns the fixed placement size for a kind. Point-based kinds
// report the extent of their default geometry.
func DefaultSize(k Kind) Size {
	switch k {
	case KindRectangle:
		return Size{Width: 100, Height: 80}
	case KindCircle:
		return Size{Width: 80, Height: 80}
	case KindText:
		return Size{Width: 160, Height: 32}
	case KindStickyNote:
		return Size{Width: 150, Height: 150}
	case KindLine:
		return Size{Width: 100, Height: 0}
	case KindFreehand:
		return Size{}
	}
	return Size{}
}

// Element is one drawable item on a whiteboard.
type Element struct {
	ID       string   `json:"id" yaml:"id"`
	Kind     Kind     `json:"kind" yaml:"kind"`
	X        float64  `json:"x" yaml:"x"`
	Y        float64  `json:"y" yaml:"y"`
	Width    *float64 `json:"width,omitempty" yaml:"width,omitempty"`
	Height   *float64 `json:"height,omitempty" yaml:"height,omitempty"`
	Color    string   `json:"color" yaml:"color"`
	Content  string   `json:"content,omitempty" yaml:"content,omitempty"`
	Points   []Point  `json:"points,omitempty" yaml:"points,omitempty"`
	Rotation float64  `json:"rotation,omitempty" yaml:"rotation,omitempty"`
}

// Float returns a pointer to v, for the optional size fields.
func Float(v float64) *float64 { return &v }

// Origin is the anchor position of the element.
func (e Element) Origin() Point { return Point{X: e.X, Y: e.Y} }

// Size returns width and height, substituting the kind defaults when absent.
func (e Element) Size() Size {
	def := DefaultSize(e.Kind)
	s := def
	if e.Width != nil {
		s.Width = *e.Width
	}
	if e.Height != nil {
		s.Height = *e.Height
	}
	return s
}

// Bounds returns the element's bounding box. Point-based kinds derive it from
// Points; every other kind uses the anchor and size.
func (e Element) Bounds() Rect {
	switch e.Kind {
	case KindFreehand, KindLine:
		if r, ok := BoundsOf(e.Points); ok {
			return r
		}
		s := e.Size()
		return Rect{Min: e.Origin(), Max: Point{X: e.X + s.Width, Y: e.Y + s.Height}}
	case KindStickyNote, KindRectangle, KindCircle, KindText:
		s := e.Size()
		return Rect{Min: e.Origin(), Max: Point{X: e.X + s.Width, Y: e.Y + s.Height}}
	}
	return Rect{Min: e.Origin(), Max: e.Origin()}
}

// Clone returns a deep copy of e.
func (e Element) Clone() Element {
	out := e
	if e.Width != nil {
		out.Width = Float(*e.Width)
	}
	if e.Height != nil {
		out.Height = Float(*e.Height)
	}
	if e.Points != nil {
		out.Points = append([]Point(nil), e.Points...)
	}
	return out
}

// MoveTo places the anchor at p. Point-based geometry is translated by the same
// delta so the element keeps its shape.
func (e Element) MoveTo(p Point) Element {
	out := e.Clone()
	delta := p.Sub(e.Origin())
	out.X, out.Y = p.X, p.Y
	if e.Kind.PointBased() {
		for i := range out.Points {
			out.Points[i] = out.Points[i].Add(delta)
		}
	}
	return out
}

// Normalize fills defaults for omitted fields. It does not validate.
func (e Element) Normalize() Element {
	out := e.Clone()
	switch e.Kind {
	case KindStickyNote, KindRectangle, KindCircle, KindText:
		s := DefaultSize(e.Kind)
		if out.Width == nil || *out.Width <= 0 {
			out.Width = Float(s.Width)
		}
		if out.Height == nil || *out.Height <= 0 {
			out.Height = Float(s.Height)
		}
	case KindLine:
		if len(out.Points) < 2 {
			s := DefaultSize(KindLine)
			out.Points = []Point{out.Origin(), {X: out.X + s.Width, Y: out.Y + s.Height}}
		}
	case KindFreehand:
		if r, ok := BoundsOf(out.Points); ok {
			out.X, out.Y = r.Min.X, r.Min.Y
			out.Width = Float(r.Width())
			out.Height = Float(r.Height())
		}
	}
	if !e.Kind.HasContent() {
		out.Content = ""
	}
	return out
}

// Validate checks the element invariants.
func (e Element) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("%w: element has no id", ErrValidation)
	}
	if !e.Kind.Valid() {
		return fmt.Errorf("%w: element %s has unknown kind %q", ErrValidation, e.ID, e.Kind)
	}
	switch e.Kind {
	case KindFreehand:
		if len(e.Points) < 2 {
			return fmt.Errorf("%w: stroke %s has %d point(s), need at least 2", ErrValidation, e.ID, len(e.Points))
		}
	case KindStickyNote, KindRectangle, KindCircle, KindText:
		s := e.Size()
		if s.Width <= 0 || s.Height <= 0 {
			return fmt.Errorf("%w: element %s has non-positive size", ErrValidation, e.ID)
		}
	case KindLine:
		if len(e.Points) == 1 {
			return fmt.Errorf("%w: line %s has a single endpoint", ErrValidation, e.ID)
		}
	}
	return nil
}

// Patch is a partial update for UpdateByID. Nil fields are left untouched.
type Patch struct {
	X       *float64
	Y       *float64
	Width   *float64
	Height  *float64
	Color   *string
	Content *string
	Points  []Point
}

// MovePatch is the patch used by drags.
func MovePatch(p Point) Patch {
	return Patch{X: Float(p.X), Y: Float(p.Y)}
}

// ContentPatch replaces the text payload.
func ContentPatch(content string) Patch {
	return Patch{Content: &content}
}

// ApplyTo returns a copy of e with the patch applied. Moving a point-based
// element without explicit Points translates its existing points.
func (p Patch) ApplyTo(e Element) Element {
	out := e.Clone()
	if p.X != nil || p.Y != nil {
		to := out.Origin()
		if p.X != nil {
			to.X = *p.X
		}
		if p.Y != nil {
			to.Y = *p.Y
		}
		if p.Points == nil {
			out = out.MoveTo(to)
		} else {
			out.X, out.Y = to.X, to.Y
		}
	}
	if p.Width != nil {
		out.Width = Float(*p.Width)
	}
	if p.Height != nil {
		out.Height = Float(*p.Height)
	}
	if p.Color != nil {
		out.Color = *p.Color
	}
	if p.Content != nil && out.Kind.HasContent() {
		out.Content = *p.Content
	}
	if p.Points != nil {
		out.Points = append([]Point(nil), p.Points...)
	}
	return out
}
