package core_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/easel/pkg/core"
)

func rect(id string, x, y float64) core.Element {
	return core.Element{ID: id, Kind: core.KindRectangle, X: x, Y: y, Color: "#1f2937"}
}

func TestSnapshot_Insert(t *testing.T) {
	empty := core.NewSnapshot("board")

	next, err := empty.Apply(core.Insert{Element: rect("a", 50, 50)})
	require.NoError(t, err)

	assert.Equal(t, 0, empty.Len(), "input snapshot must not change")
	require.Equal(t, 1, next.Len())

	e := next.At(0)
	assert.Equal(t, 100.0, *e.Width, "default width substituted")
	assert.Equal(t, 80.0, *e.Height, "default height substituted")
}

func TestSnapshot_Insert_AppendsOnTop(t *testing.T) {
	snap := core.NewSnapshot("", rect("a", 0, 0))
	snap, err := snap.Apply(core.Insert{Element: rect("b", 0, 0)})
	require.NoError(t, err)

	assert.Equal(t, "a", snap.At(0).ID)
	assert.Equal(t, "b", snap.At(1).ID)
}

func TestSnapshot_Insert_Rejects(t *testing.T) {
	base, err := core.NewSnapshot("").Apply(core.Insert{Element: rect("a", 0, 0)})
	require.NoError(t, err)

	cases := map[string]core.Element{
		"duplicate id":  rect("a", 1, 1),
		"empty id":      rect("", 1, 1),
		"unknown kind":  {ID: "x", Kind: "hexagon"},
		"single point":  {ID: "s", Kind: core.KindFreehand, Points: []core.Point{{X: 1, Y: 1}}},
		"no points":     {ID: "s", Kind: core.KindFreehand},
		"line endpoint": {ID: "l", Kind: core.KindLine, Points: []core.Point{{X: 1, Y: 1}}},
	}
	for name, e := range cases {
		t.Run(name, func(t *testing.T) {
			out, err := base.Apply(core.Insert{Element: e})
			require.ErrorIs(t, err, core.ErrValidation)
			assert.True(t, out.Equal(base), "failed apply returns the input unchanged")
		})
	}
}

func TestSnapshot_UpdateByID(t *testing.T) {
	snap := core.NewSnapshot("", rect("a", 0, 0), rect("b", 10, 10))

	moved, err := snap.Apply(core.UpdateByID{ID: "a", Patch: core.MovePatch(core.Point{X: 5, Y: 6})})
	require.NoError(t, err)

	a, _ := moved.Find("a")
	assert.Equal(t, 5.0, a.X)
	assert.Equal(t, 6.0, a.Y)

	orig, _ := snap.Find("a")
	assert.Equal(t, 0.0, orig.X, "original snapshot untouched")

	same, err := snap.Apply(core.UpdateByID{ID: "missing", Patch: core.MovePatch(core.Point{X: 1})})
	require.NoError(t, err, "missing id is a silent no-op")
	assert.True(t, same.Equal(snap))
}

func TestSnapshot_UpdateByID_TranslatesPoints(t *testing.T) {
	stroke := core.Element{ID: "s", Kind: core.KindFreehand, Points: []core.Point{{X: 10, Y: 10}, {X: 20, Y: 30}}}
	snap, err := core.NewSnapshot("").Apply(core.Insert{Element: stroke})
	require.NoError(t, err)

	s, _ := snap.Find("s")
	assert.Equal(t, 10.0, s.X, "stroke anchor is the min corner")
	assert.Equal(t, 20.0, *s.Height)

	moved, err := snap.Apply(core.UpdateByID{ID: "s", Patch: core.MovePatch(core.Point{X: 15, Y: 5})})
	require.NoError(t, err)

	s, _ = moved.Find("s")
	assert.Equal(t, []core.Point{{X: 15, Y: 5}, {X: 25, Y: 25}}, s.Points)
}

func TestSnapshot_UpdateByID_ContentOnlyForTextKinds(t *testing.T) {
	snap := core.NewSnapshot("", rect("a", 0, 0))
	out, err := snap.Apply(core.UpdateByID{ID: "a", Patch: core.ContentPatch("hello")})
	require.NoError(t, err)

	a, _ := out.Find("a")
	assert.Empty(t, a.Content)
}

func TestSnapshot_RemoveByID(t *testing.T) {
	snap := core.NewSnapshot("", rect("a", 0, 0), rect("b", 0, 0), rect("c", 0, 0))

	out, err := snap.Apply(core.RemoveByID{ID: "b"})
	require.NoError(t, err)
	require.Equal(t, 2, out.Len())
	assert.Equal(t, "a", out.At(0).ID)
	assert.Equal(t, "c", out.At(1).ID)
	assert.Equal(t, 3, snap.Len())

	same, err := out.Apply(core.RemoveByID{ID: "b"})
	require.NoError(t, err)
	assert.True(t, same.Equal(out))
}

func TestSnapshot_ElementsIsACopy(t *testing.T) {
	snap := core.NewSnapshot("", core.Element{ID: "s", Kind: core.KindFreehand, Points: []core.Point{{X: 1, Y: 1}, {X: 2, Y: 2}}})

	elems := snap.Elements()
	elems[0].Points[0].X = 99
	elems[0].ID = "mutated"

	s := snap.At(0)
	assert.Equal(t, "s", s.ID)
	assert.Equal(t, 1.0, s.Points[0].X)
}

func TestSnapshot_JSON(t *testing.T) {
	snap, err := core.FromElements("board", []core.Element{
		rect("a", 1, 2),
		{ID: "n", Kind: core.KindStickyNote, Color: "#fef08a", Content: "hi"},
	})
	require.NoError(t, err)

	data, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.JSONEq(t, `{"elements":[
		{"id":"a","kind":"rectangle","x":1,"y":2,"width":100,"height":80,"color":"#1f2937"},
		{"id":"n","kind":"stickyNote","x":0,"y":0,"width":150,"height":150,"color":"#fef08a","content":"hi"}
	]}`, string(data))

	var decoded core.Snapshot
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.Equal(snap))

	empty, err := json.Marshal(core.Snapshot{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"elements":[]}`, string(empty))
}

func TestSnapshot_JSON_RejectsInvalidElements(t *testing.T) {
	var s core.Snapshot
	err := json.Unmarshal([]byte(`{"elements":[{"id":"s","kind":"freehandStroke","x":0,"y":0,"color":"","points":[{"x":1,"y":1}]}]}`), &s)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrValidation))
}

func TestElement_Bounds(t *testing.T) {
	line := core.Element{ID: "l", Kind: core.KindLine, X: 10, Y: 10}.Normalize()
	b := line.Bounds()
	assert.Equal(t, core.Point{X: 10, Y: 10}, b.Min)
	assert.Equal(t, core.Point{X: 110, Y: 10}, b.Max)

	circle := core.Element{ID: "c", Kind: core.KindCircle, X: 5, Y: 5}
	assert.Equal(t, core.Rect{Min: core.Point{X: 5, Y: 5}, Max: core.Point{X: 85, Y: 85}}, circle.Bounds())
}
