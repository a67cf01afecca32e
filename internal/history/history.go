// Package history keeps bounded undo and redo stacks of encoded shelf
// snapshots. It never inspects the snapshots; callers encode before a change
// and decode whatever Undo or Redo hands back.
package history

// DefaultDepth bounds the undo stack when no depth is configured.
const DefaultDepth = 100

// History is not safe for concurrent use; the owning session serializes access.
type History struct {
	depth int
	undo  [][]byte
	redo  [][]byte
}

// New creates a history holding at most depth undo steps.
func New(depth int) *History {
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &History{depth: depth}
}

// Record pushes the state from before a completed action and clears redo.
// The oldest step is dropped once depth is exceeded.
func (h *History) Record(before []byte) {
	h.undo = append(h.undo, before)
	if len(h.undo) > h.depth {
		h.undo = h.undo[len(h.undo)-h.depth:]
	}
	h.redo = nil
}

// Undo returns the previous state and remembers current for Redo.
func (h *History) Undo(current []byte) ([]byte, bool) {
	if len(h.undo) == 0 {
		return nil, false
	}
	prev := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, current)
	return prev, true
}

// Redo returns the state most recently undone and remembers current for Undo.
func (h *History) Redo(current []byte) ([]byte, bool) {
	if len(h.redo) == 0 {
		return nil, false
	}
	next := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, current)
	return next, true
}

func (h *History) CanUndo() bool { return len(h.undo) > 0 }
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Len reports the number of undo and redo steps held.
func (h *History) Len() (undo, redo int) {
	return len(h.undo), len(h.redo)
}

// Reset drops all steps.
func (h *History) Reset() {
	h.undo, h.redo = nil, nil
}
