package core

import (
	"encoding/json"
	"fmt"
	"time"
)

// Snapshot is an immutable, ordered collection of elements. Index order is
// z-order: later elements are drawn on top and win hit-tests.
//
// The zero value is an empty, untitled whiteboard.
type Snapshot struct {
	title        string
	lastModified time.Time
	elements     []Element
}

// NewSnapshot builds a snapshot from elements, copying them.
func NewSnapshot(title string, elements ...Element) Snapshot {
	return Snapshot{
		title:    title,
		elements: cloneElements(elements),
	}
}

// Title of the whiteboard this snapshot belongs to.
func (s Snapshot) Title() string { return s.title }

// LastModified is the time of the edit that produced this snapshot.
func (s Snapshot) LastModified() time.Time { return s.lastModified }

// Len returns the number of elements.
func (s Snapshot) Len() int { return len(s.elements) }

// Elements returns a copy of the element list in z-order.
func (s Snapshot) Elements() []Element { return cloneElements(s.elements) }

// At returns a copy of the element at index i.
func (s Snapshot) At(i int) Element { return s.elements[i].Clone() }

// Find looks up an element by id.
func (s Snapshot) Find(id string) (Element, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.elements[i].Clone(), true
	}
	return Element{}, false
}

// Range calls fn for each element from bottom to top until fn returns false.
// The element passed to fn must not be retained or mutated.
func (s Snapshot) Range(fn func(i int, e Element) bool) {
	for i, e := range s.elements {
		if !fn(i, e) {
			return
		}
	}
}

// WithTitle returns a copy carrying a new title.
func (s Snapshot) WithTitle(title string) Snapshot {
	s.title = title
	return s
}

// Touch returns a copy stamped with t.
func (s Snapshot) Touch(t time.Time) Snapshot {
	s.lastModified = t
	return s
}

// Equal reports whether both snapshots hold the same elements in the same order.
// Title and timestamp are ignored.
func (s Snapshot) Equal(o Snapshot) bool {
	if len(s.elements) != len(o.elements) {
		return false
	}
	for i := range s.elements {
		if !elementEqual(s.elements[i], o.elements[i]) {
			return false
		}
	}
	return true
}

// Apply returns the snapshot produced by m. The receiver is never modified.
// Updates and removals addressing a missing id are silent no-ops.
func (s Snapshot) Apply(m Mutation) (Snapshot, error) {
	if m == nil {
		return s, fmt.Errorf("%w: nil mutation", ErrValidation)
	}
	elems, err := m.apply(s)
	if err != nil {
		return s, err
	}
	s.elements = elems
	return s, nil
}

func (s Snapshot) indexOf(id string) int {
	for i := range s.elements {
		if s.elements[i].ID == id {
			return i
		}
	}
	return -1
}

// Mutation is one of Insert, UpdateByID or RemoveByID.
type Mutation interface {
	apply(s Snapshot) ([]Element, error)
}

// Insert appends an element at the top of the z-order.
type Insert struct {
	Element Element
}

func (m Insert) apply(s Snapshot) ([]Element, error) {
	e := m.Element.Normalize()
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if s.indexOf(e.ID) >= 0 {
		return nil, fmt.Errorf("%w: duplicate element id %s", ErrValidation, e.ID)
	}
	out := make([]Element, 0, len(s.elements)+1)
	out = append(out, s.elements...)
	return append(out, e), nil
}

// UpdateByID replaces fields of the matching element.
type UpdateByID struct {
	ID    string
	Patch Patch
}

func (m UpdateByID) apply(s Snapshot) ([]Element, error) {
	i := s.indexOf(m.ID)
	if i < 0 {
		return s.elements, nil
	}
	updated := m.Patch.ApplyTo(s.elements[i])
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	out := append([]Element(nil), s.elements...)
	out[i] = updated
	return out, nil
}

// RemoveByID drops the matching element.
type RemoveByID struct {
	ID string
}

func (m RemoveByID) apply(s Snapshot) ([]Element, error) {
	i := s.indexOf(m.ID)
	if i < 0 {
		return s.elements, nil
	}
	out := make([]Element, 0, len(s.elements)-1)
	out = append(out, s.elements[:i]...)
	return append(out, s.elements[i+1:]...), nil
}

// MarshalJSON encodes the persisted shape: {"elements":[...]}.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	elems := s.elements
	if elems == nil {
		elems = []Element{}
	}
	return json.Marshal(struct {
		Elements []Element `json:"elements"`
	}{elems})
}

// UnmarshalJSON decodes the persisted shape, validating every element.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var payload struct {
		Elements []Element `json:"elements"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	snap, err := FromElements(s.title, payload.Elements)
	if err != nil {
		return err
	}
	snap.lastModified = s.lastModified
	*s = snap
	return nil
}

// FromElements rebuilds a snapshot by inserting elements in order, so the same
// invariants hold as for interactive edits.
func FromElements(title string, elements []Element) (Snapshot, error) {
	snap := Snapshot{title: title}
	for _, e := range elements {
		next, err := snap.Apply(Insert{Element: e})
		if err != nil {
			return Snapshot{}, err
		}
		snap = next
	}
	return snap, nil
}

func cloneElements(in []Element) []Element {
	if in == nil {
		return nil
	}
	out := make([]Element, len(in))
	for i, e := range in {
		out[i] = e.Clone()
	}
	return out
}

func elementEqual(a, b Element) bool {
	if a.ID != b.ID || a.Kind != b.Kind || a.X != b.X || a.Y != b.Y ||
		a.Color != b.Color || a.Content != b.Content || a.Rotation != b.Rotation {
		return false
	}
	if !floatPtrEqual(a.Width, b.Width) || !floatPtrEqual(a.Height, b.Height) {
		return false
	}
	if len(a.Points) != len(b.Points) {
		return false
	}
	for i := range a.Points {
		if a.Points[i] != b.Points[i] {
			return false
		}
	}
	return true
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
