package canvas

import "github.com/aretw0/easel/pkg/core"

// History is a linear undo/redo log of committed snapshots.
//
// Entry 0 is the snapshot the editor was opened with; each commit appends one
// entry. The log is unbounded.
// TODO: cap or compact entries for long-lived documents.
type History struct {
	entries []core.Snapshot
	cursor  int
}

// NewHistory starts a log at initial.
func NewHistory(initial core.Snapshot) *History {
	return &History{entries: []core.Snapshot{initial}}
}

// Commit drops every entry after the cursor, appends snap and moves onto it.
func (h *History) Commit(snap core.Snapshot) {
	h.entries = append(h.entries[:h.cursor+1], snap)
	h.cursor++
}

// Undo steps back one entry. It reports false at the start of the log.
func (h *History) Undo() (core.Snapshot, bool) {
	if h.cursor == 0 {
		return h.entries[0], false
	}
	h.cursor--
	return h.entries[h.cursor], true
}

// Redo steps forward one entry. It reports false at the end of the log.
func (h *History) Redo() (core.Snapshot, bool) {
	if h.cursor >= len(h.entries)-1 {
		return h.entries[h.cursor], false
	}
	h.cursor++
	return h.entries[h.cursor], true
}

// Current returns the snapshot at the cursor.
func (h *History) Current() core.Snapshot { return h.entries[h.cursor] }

// Cursor is the index of the current entry; 0 means nothing to undo.
func (h *History) Cursor() int { return h.cursor }

// Len returns the number of committed entries, excluding the initial one.
func (h *History) Len() int { return len(h.entries) - 1 }

// CanUndo reports whether Undo would move.
func (h *History) CanUndo() bool { return h.cursor > 0 }

// CanRedo reports whether Redo would move.
func (h *History) CanRedo() bool { return h.cursor < len(h.entries)-1 }
