package codec_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/easel/pkg/codec"
	"github.com/aretw0/easel/pkg/core"
)

func sample(t *testing.T) core.Whiteboard {
	t.Helper()
	snap, err := core.FromElements("Plan", []core.Element{
		{ID: "r", Kind: core.KindRectangle, X: 1, Y: 2, Color: "#ef4444"},
		{ID: "s", Kind: core.KindFreehand, Color: "#1f2937", Points: []core.Point{{X: 0, Y: 0}, {X: 4, Y: 3}}},
		{ID: "n", Kind: core.KindStickyNote, Color: "#fef08a", Content: "todo"},
	})
	require.NoError(t, err)
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return core.Whiteboard{ID: "wb1", Owner: "alice", Title: "Plan", CreatedAt: ts, UpdatedAt: ts, Snapshot: snap}
}

func TestSerializers_Document(t *testing.T) {
	for _, format := range []string{"json", "yaml"} {
		t.Run(format, func(t *testing.T) {
			s, err := codec.For(format)
			require.NoError(t, err)

			wb := sample(t)
			data, err := s.Encode(codec.FromWhiteboard(wb))
			require.NoError(t, err)

			doc, err := s.Decode(data)
			require.NoError(t, err)
			got, err := doc.Whiteboard()
			require.NoError(t, err)

			assert.Equal(t, wb.ID, got.ID)
			assert.Equal(t, wb.Owner, got.Owner)
			assert.True(t, wb.CreatedAt.Equal(got.CreatedAt))
			assert.True(t, got.Snapshot.Equal(wb.Snapshot))
		})
	}
}

func TestDecode_Malformed(t *testing.T) {
	_, err := codec.JSON{}.Decode([]byte(`{"elements": [`))
	assert.True(t, errors.Is(err, core.ErrMalformed))

	_, err = codec.YAML{}.Decode([]byte("elements: [\n"))
	assert.True(t, errors.Is(err, core.ErrMalformed))

	doc, err := codec.JSON{}.Decode([]byte(`{"id":"x","title":"T","elements":[{"id":"s","kind":"freehandStroke","points":[{"x":1,"y":1}]}]}`))
	require.NoError(t, err, "syntax is fine")
	wb, err := doc.Whiteboard()
	assert.ErrorIs(t, err, core.ErrMalformed)
	assert.Equal(t, "T", wb.Title)
	assert.Equal(t, 0, wb.Snapshot.Len())
}

func TestExport(t *testing.T) {
	wb := sample(t)

	data, name, err := codec.Export(wb.Snapshot, "Sprint: Plan/Q3", "json")
	require.NoError(t, err)
	assert.Equal(t, "Sprint- Plan-Q3.json", name)
	assert.JSONEq(t, `[
		{"id":"r","kind":"rectangle","x":1,"y":2,"width":100,"height":80,"color":"#ef4444"},
		{"id":"s","kind":"freehandStroke","x":0,"y":0,"width":4,"height":3,"color":"#1f2937","points":[{"x":0,"y":0},{"x":4,"y":3}]},
		{"id":"n","kind":"stickyNote","x":0,"y":0,"width":150,"height":150,"color":"#fef08a","content":"todo"}
	]`, string(data))

	_, name, err = codec.Export(core.NewSnapshot(""), "  ", "yml")
	require.NoError(t, err)
	assert.Equal(t, "whiteboard.yaml", name)

	_, _, err = codec.Export(wb.Snapshot, "x", "xml")
	assert.ErrorIs(t, err, core.ErrValidation)
}
