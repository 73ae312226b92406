package canvas

import "github.com/aretw0/easel/pkg/core"

// DefaultHitRadius is the proximity, in pixels, within which a pointer hits a
// freehand stroke point or a line.
const DefaultHitRadius = 6.0

// Hits reports whether p hits e.
//
// Freehand strokes use an approximate proximity test against their sampled
// points, not the true distance to the stroke path. Lines use their bounding box
// grown by radius so horizontal and vertical lines stay hittable. Everything else
// uses its axis-aligned bounding box.
func Hits(p core.Point, e core.Element, radius float64) bool {
	switch e.Kind {
	case core.KindFreehand:
		for _, q := range e.Points {
			if p.Dist(q) <= radius {
				return true
			}
		}
		return false
	case core.KindLine:
		return e.Bounds().Inset(radius).Contains(p)
	case core.KindStickyNote, core.KindRectangle, core.KindCircle, core.KindText:
		return e.Bounds().Contains(p)
	}
	return false
}

// HitTest returns the topmost element of elements that p hits.
// elements must be in z-order (last is topmost).
func HitTest(p core.Point, elements []core.Element, radius float64) (core.Element, bool) {
	for i := len(elements) - 1; i >= 0; i-- {
		if Hits(p, elements[i], radius) {
			return elements[i], true
		}
	}
	return core.Element{}, false
}

// HitTestSnapshot is HitTest over a snapshot.
func HitTestSnapshot(p core.Point, snap core.Snapshot, radius float64) (core.Element, bool) {
	for i := snap.Len() - 1; i >= 0; i-- {
		if e := snap.At(i); Hits(p, e, radius) {
			return e, true
		}
	}
	return core.Element{}, false
}
