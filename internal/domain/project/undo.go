package project

// DefaultHistoryDepth bounds how many edits a project keeps undoable.
const DefaultHistoryDepth = 64

// History is a bounded snapshot stack. Edit commands record the project
// state before mutating; Undo swaps the current state against the last
// snapshot, Redo swaps it back. Recording a new snapshot discards the redo
// branch.
type History struct {
	past   []ProjectData
	future []ProjectData
	limit  int
}

// NewHistory creates an empty history keeping at most limit snapshots.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryDepth
	}
	return &History{limit: limit}
}

// Record pushes a pre-edit snapshot and clears the redo branch. The oldest
// snapshot is dropped once the stack is full.
func (h *History) Record(snapshot ProjectData) {
	if len(h.past) >= h.limit {
		copy(h.past, h.past[1:])
		h.past = h.past[:len(h.past)-1]
	}
	h.past = append(h.past, snapshot)
	h.future = h.future[:0]
}

// Undo exchanges current for the most recent snapshot. The second return is
// false when there is nothing to undo.
func (h *History) Undo(current ProjectData) (ProjectData, bool) {
	if len(h.past) == 0 {
		return ProjectData{}, false
	}
	snapshot := h.past[len(h.past)-1]
	h.past = h.past[:len(h.past)-1]
	h.future = append(h.future, current)
	return snapshot, true
}

// Redo exchanges current for the most recently undone snapshot.
func (h *History) Redo(current ProjectData) (ProjectData, bool) {
	if len(h.future) == 0 {
		return ProjectData{}, false
	}
	snapshot := h.future[len(h.future)-1]
	h.future = h.future[:len(h.future)-1]
	h.past = append(h.past, current)
	return snapshot, true
}

// CanUndo reports whether an undo snapshot is available.
func (h *History) CanUndo() bool { return len(h.past) > 0 }

// CanRedo reports whether a redo snapshot is available.
func (h *History) CanRedo() bool { return len(h.future) > 0 }
