// Package workspace pairs a shelf with its engine and undo history. It is
// the unit of editing shared by the configurator service and the terminal
// editor: every change runs through Do, which records a snapshot for undo
// and refreshes the ghost suggestions once the change has succeeded.
package workspace

import (
	"errors"
	"fmt"

	"github.com/solatis/shelfwright/internal/codec"
	"github.com/solatis/shelfwright/internal/engine"
	"github.com/solatis/shelfwright/internal/history"
	"github.com/solatis/shelfwright/internal/types"
)

var (
	// ErrNothingToUndo indicates the undo stack is empty.
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrNothingToRedo indicates the redo stack is empty.
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Workspace is not safe for concurrent use.
type Workspace struct {
	eng   *engine.Engine
	shelf *types.Shelf
	hist  *history.History
}

// New starts an empty workspace.
func New(eng *engine.Engine, depth int) *Workspace {
	w := &Workspace{eng: eng, shelf: eng.NewShelf(), hist: history.New(depth)}
	eng.RegenerateGhosts(w.shelf)
	return w
}

// Open starts a workspace from a design. The design is validated by replay.
func Open(eng *engine.Engine, d *codec.Design, depth int) (*Workspace, error) {
	s, err := codec.Decode(d, eng)
	if err != nil {
		return nil, err
	}
	return &Workspace{eng: eng, shelf: s, hist: history.New(depth)}, nil
}

func (w *Workspace) Engine() *engine.Engine { return w.eng }

// Shelf returns the live shelf. Callers must not mutate it directly.
func (w *Workspace) Shelf() *types.Shelf { return w.shelf }

// Do runs one logical action. On failure the shelf is unchanged and nothing
// is recorded.
func (w *Workspace) Do(action func(e *engine.Engine, s *types.Shelf) error) error {
	before, err := codec.Snapshot(w.shelf, w.eng.Catalog())
	if err != nil {
		return err
	}
	if err := action(w.eng, w.shelf); err != nil {
		return err
	}
	w.hist.Record(before)
	w.eng.RegenerateGhosts(w.shelf)
	return nil
}

// Undo restores the state before the most recent action.
func (w *Workspace) Undo() error {
	return w.step(w.hist.Undo, ErrNothingToUndo)
}

// Redo reapplies the most recently undone action.
func (w *Workspace) Redo() error {
	return w.step(w.hist.Redo, ErrNothingToRedo)
}

func (w *Workspace) step(pop func([]byte) ([]byte, bool), empty error) error {
	current, err := codec.Snapshot(w.shelf, w.eng.Catalog())
	if err != nil {
		return err
	}
	target, ok := pop(current)
	if !ok {
		return empty
	}
	d, err := codec.Unmarshal(target)
	if err != nil {
		return fmt.Errorf("restoring snapshot: %w", err)
	}
	s, err := codec.DecodeAfter(d, w.eng, w.shelf.Metadata.NextID)
	if err != nil {
		return fmt.Errorf("restoring snapshot: %w", err)
	}
	w.shelf = s
	return nil
}

// Replace swaps in a whole design as one undoable action.
func (w *Workspace) Replace(d *codec.Design) error {
	s, err := codec.DecodeAfter(d, w.eng, w.shelf.Metadata.NextID)
	if err != nil {
		return err
	}
	return w.Do(func(_ *engine.Engine, cur *types.Shelf) error {
		*cur = *s
		return nil
	})
}

// Design encodes the current shelf.
func (w *Workspace) Design() (*codec.Design, error) {
	return codec.Encode(w.shelf, w.eng.Catalog())
}

// CanUndo and CanRedo report whether the stacks hold a step.
func (w *Workspace) CanUndo() bool { return w.hist.CanUndo() }
func (w *Workspace) CanRedo() bool { return w.hist.CanRedo() }
