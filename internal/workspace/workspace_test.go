package workspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solatis/shelfwright/internal/codec"
	"github.com/solatis/shelfwright/internal/engine"
	"github.com/solatis/shelfwright/internal/types"
)

func addRods(t *testing.T, w *Workspace, xs ...int) {
	t.Helper()
	sku, ok := w.Engine().Catalog().RodByName("3P-22")
	require.True(t, ok)
	for _, x := range xs {
		require.NoError(t, w.Do(func(e *engine.Engine, s *types.Shelf) error {
			_, err := e.AddRod(s, types.Position{X: x}, sku.ID)
			return err
		}))
	}
}

func TestWorkspace_DoRecordsAndRegenerates(t *testing.T) {
	w := New(engine.New(nil), 10)
	assert.False(t, w.CanUndo())

	addRods(t, w, 0, 600)
	assert.True(t, w.CanUndo())
	assert.Len(t, w.Shelf().Rods, 2)
	assert.NotEmpty(t, w.Shelf().GhostPlates)
}

func TestWorkspace_FailedActionNotRecorded(t *testing.T) {
	w := New(engine.New(nil), 10)
	err := w.Do(func(e *engine.Engine, s *types.Shelf) error {
		_, err := e.AddRod(s, types.Position{}, 999)
		return err
	})
	require.ErrorIs(t, err, types.ErrUnknownSKU)
	assert.False(t, w.CanUndo())
}

func TestWorkspace_UndoRedo(t *testing.T) {
	w := New(engine.New(nil), 10)
	addRods(t, w, 0, 600)

	require.NoError(t, w.Do(func(e *engine.Engine, s *types.Shelf) error {
		rods := s.SortedRods()
		_, err := e.FillGap(s, rods[0].ID, rods[1].ID, 200)
		return err
	}))
	require.Len(t, w.Shelf().Plates, 1)

	require.NoError(t, w.Undo())
	assert.Empty(t, w.Shelf().Plates)
	assert.Len(t, w.Shelf().Rods, 2)
	require.NoError(t, w.Engine().Check(w.Shelf()))

	require.NoError(t, w.Redo())
	assert.Len(t, w.Shelf().Plates, 1)
	require.ErrorIs(t, w.Redo(), ErrNothingToRedo)

	require.NoError(t, w.Undo())
	require.NoError(t, w.Undo())
	require.NoError(t, w.Undo())
	assert.Empty(t, w.Shelf().Rods)
	require.ErrorIs(t, w.Undo(), ErrNothingToUndo)
}

func TestWorkspace_OpenAndReplace(t *testing.T) {
	eng := engine.New(nil)
	d := &codec.Design{
		Version: codec.FormatVersion,
		Rods:    []codec.DesignRod{{X: 0, SKU: "3P-22"}, {X: 600, SKU: "3P-22"}},
		Plates:  []codec.DesignPlate{{Y: 400, SKU: "670mm", Rods: []int{0, 1}}},
	}
	w, err := Open(eng, d, 5)
	require.NoError(t, err)
	assert.Len(t, w.Shelf().Plates, 1)

	got, err := w.Design()
	require.NoError(t, err)
	assert.Equal(t, d, got)

	require.NoError(t, w.Replace(&codec.Design{Version: codec.FormatVersion}))
	assert.Empty(t, w.Shelf().Rods)
	require.NoError(t, w.Undo())
	assert.Len(t, w.Shelf().Rods, 2)

	_, err = Open(eng, &codec.Design{Version: 2}, 5)
	require.ErrorIs(t, err, codec.ErrUnsupportedVersion)
}

func TestWorkspace_UndoNeverReissuesIDs(t *testing.T) {
	w := New(engine.New(nil), 10)
	addRods(t, w, 0, 600)
	require.NoError(t, w.Do(func(e *engine.Engine, s *types.Shelf) error {
		rods := s.SortedRods()
		_, err := e.FillGap(s, rods[0].ID, rods[1].ID, 200)
		return err
	}))

	issued := w.Shelf().Metadata.NextID
	require.NoError(t, w.Undo())
	for id := range w.Shelf().Rods {
		assert.GreaterOrEqual(t, int(id), issued, "rod id %d reissued after undo", id)
	}
	assert.GreaterOrEqual(t, w.Shelf().Metadata.NextID, issued+2)

	issued = w.Shelf().Metadata.NextID
	require.NoError(t, w.Redo())
	for id := range w.Shelf().Plates {
		assert.GreaterOrEqual(t, int(id), issued, "plate id %d reissued after redo", id)
	}
	require.NoError(t, w.Engine().Check(w.Shelf()))
}
