// Package easel is the Composition Root for the easel whiteboard engine.
//
// It connects the editing engine and the whiteboard collection (Domain Layer)
// with the storage adapters (Persistence Layer) using the Hexagonal
// Architecture pattern.
//
// A board is an ordered list of elements (sticky notes, rectangles, circles,
// lines, text and freehand strokes). An Editor turns pointer gestures into
// snapshot mutations, keeps an undo/redo history with one entry per discrete
// action, and a Gateway persists the latest snapshot after a quiet period.
//
// Storage is pluggable: the default "fs" adapter writes one JSON or YAML file
// per board with optional git versioning; the "sqlite" adapter keeps every
// board in a single database.
//
// Usage:
//
//	svc, err := easel.New("./boards",
//		easel.WithAutoInit(true),
//		easel.WithLogger(logger),
//	)
//
//	wb, err := svc.Create(ctx, "ana", "Sprint planning")
//	b, err := easel.Open(ctx, svc, wb.ID)
//	defer b.Close(ctx, true)
//
//	ed := b.Editor()
//	ed.SetTool(canvas.ToolStickyNote)
//	ed.PointerDown(core.Point{X: 40, Y: 40})
package easel
