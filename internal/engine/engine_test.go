package engine

import (
	"errors"
	"reflect"
	"slices"
	"testing"

	"github.com/solatis/shelfwright/internal/catalog"
	"github.com/solatis/shelfwright/internal/types"
)

func rodSKU(t *testing.T, e *Engine, name string) int {
	t.Helper()
	sku, ok := e.Catalog().RodByName(name)
	if !ok {
		t.Fatalf("rod SKU %q not in catalog", name)
	}
	return sku.ID
}

func plateSKU(t *testing.T, e *Engine, name string) int {
	t.Helper()
	sku, ok := e.Catalog().PlateByName(name)
	if !ok {
		t.Fatalf("plate SKU %q not in catalog", name)
	}
	return sku.ID
}

func addRod(t *testing.T, e *Engine, s *types.Shelf, x, y int, name string) types.RodID {
	t.Helper()
	id, err := e.AddRod(s, types.Position{X: x, Y: y}, rodSKU(t, e, name))
	if err != nil {
		t.Fatalf("AddRod(%d, %d, %s) error = %v", x, y, name, err)
	}
	return id
}

func addPlate(t *testing.T, e *Engine, s *types.Shelf, y int, name string, rods ...types.RodID) types.PlateID {
	t.Helper()
	id, err := e.AddPlate(s, y, plateSKU(t, e, name), rods)
	if err != nil {
		t.Fatalf("AddPlate(%d, %s, %v) error = %v", y, name, rods, err)
	}
	return id
}

func checkInvariants(t *testing.T, e *Engine, s *types.Shelf) {
	t.Helper()
	if err := e.Check(s); err != nil {
		t.Fatalf("invariants: %v", err)
	}
}

// expectUnchanged runs op, requires it to fail with want, and requires the
// shelf to be identical to before.
func expectUnchanged(t *testing.T, s *types.Shelf, want error, op func() error) {
	t.Helper()
	before := s.Clone()
	err := op()
	if !errors.Is(err, want) {
		t.Fatalf("error = %v, want %v", err, want)
	}
	if !reflect.DeepEqual(before, s) {
		t.Fatalf("shelf changed by failed operation")
	}
}

// rowOfRods places rods of one SKU at the given X positions, bottom at 0.
func rowOfRods(t *testing.T, e *Engine, s *types.Shelf, name string, xs ...int) []types.RodID {
	t.Helper()
	ids := make([]types.RodID, len(xs))
	for i, x := range xs {
		ids[i] = addRod(t, e, s, x, 0, name)
	}
	return ids
}

func TestNew_DefaultsToStandardCatalog(t *testing.T) {
	e := New(nil)
	if e.Catalog() != catalog.Default() {
		t.Errorf("New(nil) did not select the standard catalog")
	}
}

func TestAddRod_AllocatesAttachmentPoints(t *testing.T) {
	e := New(nil)
	s := e.NewShelf()

	id := addRod(t, e, s, 0, 100, "3P-23")
	if id != 1 {
		t.Errorf("first rod id = %d, want 1", id)
	}
	rod := s.Rods[id]
	want := []types.AttachmentPoint{{Y: 0}, {Y: 200}, {Y: 500}}
	if !reflect.DeepEqual(rod.AttachmentPoints, want) {
		t.Errorf("AttachmentPoints = %v, want %v", rod.AttachmentPoints, want)
	}
	if rod.Top() != 600 {
		t.Errorf("Top() = %d, want 600", rod.Top())
	}
	if s.Metadata.NextID != 2 {
		t.Errorf("NextID = %d, want 2", s.Metadata.NextID)
	}
}

func TestAddRod_Errors(t *testing.T) {
	e := New(nil)
	s := e.NewShelf()
	addRod(t, e, s, 0, 0, "3P-22")

	expectUnchanged(t, s, types.ErrUnknownSKU, func() error {
		_, err := e.AddRod(s, types.Position{X: 600}, 999)
		return err
	})
	expectUnchanged(t, s, types.ErrRodOverlap, func() error {
		_, err := e.AddRod(s, types.Position{X: 0, Y: 300}, rodSKU(t, e, "2P-2"))
		return err
	})
	expectUnchanged(t, s, types.ErrRodOverlap, func() error {
		_, err := e.AddRod(s, types.Position{X: 0, Y: 400}, rodSKU(t, e, "2P-2"))
		return err
	})

	if _, err := e.AddRod(s, types.Position{X: 0, Y: 500}, rodSKU(t, e, "2P-2")); err != nil {
		t.Fatalf("stacked AddRod() error = %v, want nil", err)
	}
}

func TestAddPlate_LinksBothDirections(t *testing.T) {
	e := New(nil)
	s := e.NewShelf()
	rods := rowOfRods(t, e, s, "3P-22", 0, 600)

	id := addPlate(t, e, s, 200, "670mm", rods...)
	if id != 3 {
		t.Errorf("plate id = %d, want 3", id)
	}
	plate := s.Plates[id]
	if !slices.Equal(plate.Connections, rods) {
		t.Errorf("Connections = %v, want %v", plate.Connections, rods)
	}
	for _, rid := range rods {
		if got := s.Rods[rid].AttachmentPoints[1].PlateID; got != id {
			t.Errorf("rod %d point 1 plate = %d, want %d", rid, got, id)
		}
	}
	checkInvariants(t, e, s)
}

func TestAddPlate_Errors(t *testing.T) {
	e := New(nil)
	s := e.NewShelf()
	rods := rowOfRods(t, e, s, "3P-22", 0, 600, 1000)
	addPlate(t, e, s, 400, "670mm", rods[0], rods[1])

	tests := []struct {
		name   string
		height int
		sku    int
		rods   []types.RodID
		want   error
	}{
		{"unknown sku", 200, 999, rods[:2], types.ErrUnknownSKU},
		{"too many rods", 200, plateSKU(t, e, "670mm"), rods, types.ErrRodCount},
		{"single rod", 200, plateSKU(t, e, "670mm"), rods[:1], types.ErrRodCount},
		{"unknown rod", 200, plateSKU(t, e, "670mm"), []types.RodID{rods[0], 99}, types.ErrUnknownRod},
		{"unsorted", 200, plateSKU(t, e, "670mm"), []types.RodID{rods[1], rods[0]}, types.ErrUnsortedRods},
		{"duplicate rod", 200, plateSKU(t, e, "670mm"), []types.RodID{rods[0], rods[0]}, types.ErrUnsortedRods},
		{"span mismatch", 200, plateSKU(t, e, "670mm"), rods[1:], types.ErrSpanMismatch},
		{"no attachment", 100, plateSKU(t, e, "670mm"), rods[:2], types.ErrNoAttachment},
		{"occupied", 400, plateSKU(t, e, "670mm"), rods[:2], types.ErrAttachmentOccupied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectUnchanged(t, s, tt.want, func() error {
				_, err := e.AddPlate(s, tt.height, tt.sku, tt.rods)
				return err
			})
		})
	}
}

func TestAddPlate_ExactDistance(t *testing.T) {
	e := New(nil)
	for _, x := range []int{599, 601} {
		s := e.NewShelf()
		rods := rowOfRods(t, e, s, "1P", 0, x)
		expectUnchanged(t, s, types.ErrSpanMismatch, func() error {
			_, err := e.AddPlate(s, 0, plateSKU(t, e, "670mm"), rods)
			return err
		})
	}

	s := e.NewShelf()
	addPlate(t, e, s, 0, "670mm", rowOfRods(t, e, s, "1P", 0, 600)...)
	checkInvariants(t, e, s)
}

func TestExtendPlate_Right(t *testing.T) {
	e := New(nil)
	s := e.NewShelf()
	rods := rowOfRods(t, e, s, "3P-22", 0, 600, 1200)
	id := addPlate(t, e, s, 200, "670mm", rods[0], rods[1])

	if err := e.ExtendPlate(s, id, types.Right); err != nil {
		t.Fatalf("ExtendPlate() error = %v", err)
	}
	plate := s.Plates[id]
	if plate.SKUID != plateSKU(t, e, "1270mm-double") {
		t.Errorf("SKUID = %d, want 1270mm-double", plate.SKUID)
	}
	if !slices.Equal(plate.Connections, rods) {
		t.Errorf("Connections = %v, want %v", plate.Connections, rods)
	}
	checkInvariants(t, e, s)

	expectUnchanged(t, s, types.ErrNoAdjacentRod, func() error {
		return e.ExtendPlate(s, id, types.Left)
	})
}

func TestExtendPlate_Left(t *testing.T) {
	e := New(nil)
	s := e.NewShelf()
	rods := rowOfRods(t, e, s, "3P-22", 0, 600, 1200)
	id := addPlate(t, e, s, 400, "670mm", rods[1], rods[2])

	if err := e.ExtendPlate(s, id, types.Left); err != nil {
		t.Fatalf("ExtendPlate() error = %v", err)
	}
	if !slices.Equal(s.Plates[id].Connections, rods) {
		t.Errorf("Connections = %v, want %v", s.Plates[id].Connections, rods)
	}
	checkInvariants(t, e, s)
}

func TestExtendPlate_Errors(t *testing.T) {
	e := New(nil)

	s := e.NewShelf()
	rods := rowOfRods(t, e, s, "3P-22", 0, 600, 1000)
	id := addPlate(t, e, s, 200, "670mm", rods[0], rods[1])
	expectUnchanged(t, s, types.ErrNoMatchingSKU, func() error {
		return e.ExtendPlate(s, id, types.Right)
	})
	expectUnchanged(t, s, types.ErrUnknownPlate, func() error {
		return e.ExtendPlate(s, 99, types.Right)
	})

	s = e.NewShelf()
	rods = rowOfRods(t, e, s, "3P-22", 0, 600, 1200, 1800)
	left := addPlate(t, e, s, 200, "670mm", rods[0], rods[1])
	addPlate(t, e, s, 200, "670mm", rods[2], rods[3])
	expectUnchanged(t, s, types.ErrAttachmentOccupied, func() error {
		return e.ExtendPlate(s, left, types.Right)
	})

	s = e.NewShelf()
	rods = rowOfRods(t, e, s, "3P-22", 0, 600)
	addRod(t, e, s, 1200, 0, "2P-3")
	id = addPlate(t, e, s, 200, "670mm", rods...)
	expectUnchanged(t, s, types.ErrNoAttachment, func() error {
		return e.ExtendPlate(s, id, types.Right)
	})
}

func TestExtendPlate_OntoStackedRod(t *testing.T) {
	e := New(nil)
	s := e.NewShelf()
	r0 := addRod(t, e, s, -600, 0, "4P-232")
	r1 := addRod(t, e, s, 0, 0, "4P-232")
	addRod(t, e, s, 600, 0, "2P-2")
	upper := addRod(t, e, s, 600, 500, "2P-2")
	id := addPlate(t, e, s, 500, "670mm", r0, r1)

	if err := e.ExtendPlate(s, id, types.Right); err != nil {
		t.Fatalf("ExtendPlate() error = %v", err)
	}
	want := []types.RodID{r0, r1, upper}
	if !slices.Equal(s.Plates[id].Connections, want) {
		t.Errorf("Connections = %v, want %v", s.Plates[id].Connections, want)
	}
	checkInvariants(t, e, s)
}

func TestMergePlates(t *testing.T) {
	e := New(nil)
	s := e.NewShelf()
	rods := rowOfRods(t, e, s, "3P-22", 0, 600, 1200, 1800)
	a := addPlate(t, e, s, 200, "670mm", rods[0], rods[1])
	b := addPlate(t, e, s, 200, "670mm", rods[2], rods[3])

	id, err := e.MergePlates(s, a, b)
	if err != nil {
		t.Fatalf("MergePlates() error = %v", err)
	}
	if id == a || id == b {
		t.Errorf("merged plate reused id %d", id)
	}
	if _, ok := s.Plates[a]; ok {
		t.Errorf("plate %d still present", a)
	}
	if _, ok := s.Plates[b]; ok {
		t.Errorf("plate %d still present", b)
	}
	merged := s.Plates[id]
	if merged.SKUID != plateSKU(t, e, "1870mm") {
		t.Errorf("SKUID = %d, want 1870mm", merged.SKUID)
	}
	if !slices.Equal(merged.Connections, rods) {
		t.Errorf("Connections = %v, want %v", merged.Connections, rods)
	}
	checkInvariants(t, e, s)
}

func TestMergePlates_Errors(t *testing.T) {
	e := New(nil)
	s := e.NewShelf()
	rods := rowOfRods(t, e, s, "3P-22", 0, 600, 1200, 1800, 2200, 2800)
	a := addPlate(t, e, s, 200, "670mm", rods[0], rods[1])
	b := addPlate(t, e, s, 200, "670mm", rods[2], rods[3])
	c := addPlate(t, e, s, 400, "670mm", rods[2], rods[3])
	d := addPlate(t, e, s, 200, "670mm", rods[4], rods[5])

	expectUnchanged(t, s, types.ErrUnknownPlate, func() error {
		_, err := e.MergePlates(s, a, 99)
		return err
	})
	expectUnchanged(t, s, types.ErrHeightMismatch, func() error {
		_, err := e.MergePlates(s, a, c)
		return err
	})
	expectUnchanged(t, s, types.ErrNotAdjacent, func() error {
		_, err := e.MergePlates(s, b, a)
		return err
	})
	expectUnchanged(t, s, types.ErrNotAdjacent, func() error {
		_, err := e.MergePlates(s, a, a)
		return err
	})
	expectUnchanged(t, s, types.ErrNoMatchingSKU, func() error {
		_, err := e.MergePlates(s, b, d)
		return err
	})
}

func TestMergeRods(t *testing.T) {
	e := New(nil)
	s := e.NewShelf()
	bottom := addRod(t, e, s, 0, 0, "2P-2")
	top := addRod(t, e, s, 0, 500, "2P-2")
	right := addRod(t, e, s, 600, 0, "4P-232")
	plate := addPlate(t, e, s, 500, "670mm", top, right)

	id, err := e.MergeRods(s, bottom, top)
	if err != nil {
		t.Fatalf("MergeRods() error = %v", err)
	}
	merged := s.Rods[id]
	if merged.SKUID != rodSKU(t, e, "4P-232") {
		t.Errorf("SKUID = %d, want 4P-232", merged.SKUID)
	}
	if merged.Position != (types.Position{X: 0, Y: 0}) {
		t.Errorf("Position = %v, want origin", merged.Position)
	}
	if got := merged.AttachmentPoints[2].PlateID; got != plate {
		t.Errorf("point at 500 plate = %d, want %d", got, plate)
	}
	want := []types.RodID{id, right}
	if !slices.Equal(s.Plates[plate].Connections, want) {
		t.Errorf("Connections = %v, want %v", s.Plates[plate].Connections, want)
	}
	if len(s.Rods) != 2 {
		t.Errorf("len(Rods) = %d, want 2", len(s.Rods))
	}
	checkInvariants(t, e, s)
}

func TestMergeRods_Errors(t *testing.T) {
	e := New(nil)
	s := e.NewShelf()
	bottom := addRod(t, e, s, 0, 0, "2P-2")
	top := addRod(t, e, s, 0, 450, "2P-2")
	aside := addRod(t, e, s, 600, 500, "2P-2")

	expectUnchanged(t, s, types.ErrNoMatchingSKU, func() error {
		_, err := e.MergeRods(s, bottom, top)
		return err
	})
	expectUnchanged(t, s, types.ErrNotStacked, func() error {
		_, err := e.MergeRods(s, top, bottom)
		return err
	})
	expectUnchanged(t, s, types.ErrNotStacked, func() error {
		_, err := e.MergeRods(s, bottom, aside)
		return err
	})
	expectUnchanged(t, s, types.ErrUnknownRod, func() error {
		_, err := e.MergeRods(s, bottom, 99)
		return err
	})
}

func TestFillGap(t *testing.T) {
	e := New(nil)

	t.Run("both free adds plate", func(t *testing.T) {
		s := e.NewShelf()
		rods := rowOfRods(t, e, s, "3P-22", 0, 600)
		id, err := e.FillGap(s, rods[0], rods[1], 200)
		if err != nil {
			t.Fatalf("FillGap() error = %v", err)
		}
		if s.Plates[id].SKUID != plateSKU(t, e, "670mm") {
			t.Errorf("SKUID = %d, want 670mm", s.Plates[id].SKUID)
		}
		before := s.Clone()
		again, err := e.FillGap(s, rods[0], rods[1], 200)
		if err != nil || again != id {
			t.Fatalf("second FillGap() = %d, %v; want %d, nil", again, err, id)
		}
		if !reflect.DeepEqual(before, s) {
			t.Errorf("idempotent FillGap changed the shelf")
		}
		checkInvariants(t, e, s)
	})

	t.Run("left occupied extends right", func(t *testing.T) {
		s := e.NewShelf()
		rods := rowOfRods(t, e, s, "3P-22", 0, 600, 1200)
		p := addPlate(t, e, s, 200, "670mm", rods[0], rods[1])
		id, err := e.FillGap(s, rods[1], rods[2], 200)
		if err != nil || id != p {
			t.Fatalf("FillGap() = %d, %v; want %d, nil", id, err, p)
		}
		if !slices.Equal(s.Plates[p].Connections, rods) {
			t.Errorf("Connections = %v, want %v", s.Plates[p].Connections, rods)
		}
		checkInvariants(t, e, s)
	})

	t.Run("right occupied extends left", func(t *testing.T) {
		s := e.NewShelf()
		rods := rowOfRods(t, e, s, "3P-22", 0, 600, 1200)
		p := addPlate(t, e, s, 200, "670mm", rods[1], rods[2])
		id, err := e.FillGap(s, rods[0], rods[1], 200)
		if err != nil || id != p {
			t.Fatalf("FillGap() = %d, %v; want %d, nil", id, err, p)
		}
		if !slices.Equal(s.Plates[p].Connections, rods) {
			t.Errorf("Connections = %v, want %v", s.Plates[p].Connections, rods)
		}
		checkInvariants(t, e, s)
	})

	t.Run("both occupied merges", func(t *testing.T) {
		s := e.NewShelf()
		rods := rowOfRods(t, e, s, "3P-22", 0, 600, 1200, 1800)
		a := addPlate(t, e, s, 200, "670mm", rods[0], rods[1])
		b := addPlate(t, e, s, 200, "670mm", rods[2], rods[3])
		id, err := e.FillGap(s, rods[1], rods[2], 200)
		if err != nil {
			t.Fatalf("FillGap() error = %v", err)
		}
		if id == a || id == b || len(s.Plates) != 1 {
			t.Errorf("expected a single new plate, got id %d and %d plates", id, len(s.Plates))
		}
		checkInvariants(t, e, s)
	})

	t.Run("errors", func(t *testing.T) {
		s := e.NewShelf()
		rods := rowOfRods(t, e, s, "3P-22", 0, 600, 1200)
		expectUnchanged(t, s, types.ErrNotAdjacent, func() error {
			_, err := e.FillGap(s, rods[0], rods[2], 200)
			return err
		})
		expectUnchanged(t, s, types.ErrUnsortedRods, func() error {
			_, err := e.FillGap(s, rods[1], rods[0], 200)
			return err
		})
		expectUnchanged(t, s, types.ErrNoAttachment, func() error {
			_, err := e.FillGap(s, rods[0], rods[1], 300)
			return err
		})
		expectUnchanged(t, s, types.ErrUnknownRod, func() error {
			_, err := e.FillGap(s, rods[0], 99, 200)
			return err
		})
	})
}

func TestRemovePlate_FreesPoints(t *testing.T) {
	e := New(nil)
	s := e.NewShelf()
	rods := rowOfRods(t, e, s, "3P-22", 0, 600)
	id := addPlate(t, e, s, 200, "670mm", rods...)

	if err := e.RemovePlate(s, id); err != nil {
		t.Fatalf("RemovePlate() error = %v", err)
	}
	for _, rid := range rods {
		if s.Rods[rid].Occupied() {
			t.Errorf("rod %d still occupied", rid)
		}
	}
	expectUnchanged(t, s, types.ErrUnknownPlate, func() error {
		return e.RemovePlate(s, id)
	})
}

func TestRemoveRod(t *testing.T) {
	e := New(nil)

	t.Run("end rod shrinks plate", func(t *testing.T) {
		s := e.NewShelf()
		rods := rowOfRods(t, e, s, "3P-22", 0, 600, 1200)
		p := addPlate(t, e, s, 200, "1270mm-double", rods...)
		if err := e.RemoveRod(s, rods[2]); err != nil {
			t.Fatalf("RemoveRod() error = %v", err)
		}
		plate, ok := s.Plates[p]
		if !ok {
			t.Fatalf("plate %d removed, want shrunk", p)
		}
		if plate.SKUID != plateSKU(t, e, "670mm") {
			t.Errorf("SKUID = %d, want 670mm", plate.SKUID)
		}
		checkInvariants(t, e, s)
	})

	t.Run("middle rod removes plate", func(t *testing.T) {
		s := e.NewShelf()
		rods := rowOfRods(t, e, s, "3P-22", 0, 600, 1200)
		p := addPlate(t, e, s, 200, "1270mm-double", rods...)
		if err := e.RemoveRod(s, rods[1]); err != nil {
			t.Fatalf("RemoveRod() error = %v", err)
		}
		if _, ok := s.Plates[p]; ok {
			t.Errorf("plate %d survived with a 1200mm gap", p)
		}
		checkInvariants(t, e, s)
	})

	t.Run("cascading demotion", func(t *testing.T) {
		s := e.NewShelf()
		rods := rowOfRods(t, e, s, "1P", 0, 600, 1200, 1800)
		p := addPlate(t, e, s, 0, "1870mm", rods...)

		if err := e.RemoveRod(s, rods[0]); err != nil {
			t.Fatalf("RemoveRod(left end) error = %v", err)
		}
		plate, ok := s.Plates[p]
		if !ok {
			t.Fatalf("plate %d removed, want demoted", p)
		}
		if plate.SKUID != plateSKU(t, e, "1270mm-double") {
			t.Errorf("SKUID = %d, want 1270mm-double", plate.SKUID)
		}
		if want := rods[1:]; !slices.Equal(plate.Connections, want) {
			t.Errorf("Connections = %v, want %v", plate.Connections, want)
		}
		checkInvariants(t, e, s)

		if err := e.RemoveRod(s, rods[2]); err != nil {
			t.Fatalf("RemoveRod(middle) error = %v", err)
		}
		if _, ok := s.Plates[p]; ok {
			t.Errorf("plate %d survived with a 1200mm gap", p)
		}
		for _, rid := range []types.RodID{rods[1], rods[3]} {
			if s.Rods[rid].Occupied() {
				t.Errorf("rod %d still occupied", rid)
			}
		}
		checkInvariants(t, e, s)
	})

	t.Run("two-rod plate removed", func(t *testing.T) {
		s := e.NewShelf()
		rods := rowOfRods(t, e, s, "3P-22", 0, 600)
		addPlate(t, e, s, 0, "670mm", rods...)
		addPlate(t, e, s, 400, "670mm", rods...)
		if err := e.RemoveRod(s, rods[0]); err != nil {
			t.Fatalf("RemoveRod() error = %v", err)
		}
		if len(s.Plates) != 0 || s.Rods[rods[1]].Occupied() {
			t.Errorf("plates left = %d, surviving rod occupied = %v", len(s.Plates), s.Rods[rods[1]].Occupied())
		}
		checkInvariants(t, e, s)
	})

	t.Run("unknown", func(t *testing.T) {
		s := e.NewShelf()
		expectUnchanged(t, s, types.ErrUnknownRod, func() error {
			return e.RemoveRod(s, 1)
		})
	})
}

func TestChangeRodSKU(t *testing.T) {
	e := New(nil)
	s := e.NewShelf()
	rods := rowOfRods(t, e, s, "2P-2", 0, 600)
	p := addPlate(t, e, s, 200, "670mm", rods...)

	if err := e.ChangeRodSKU(s, rods[0], rodSKU(t, e, "3P-22")); err != nil {
		t.Fatalf("ChangeRodSKU() error = %v", err)
	}
	if got := s.Rods[rods[0]].AttachmentPoints[1].PlateID; got != p {
		t.Errorf("point at 200 plate = %d, want %d", got, p)
	}
	checkInvariants(t, e, s)

	expectUnchanged(t, s, types.ErrAttachmentLost, func() error {
		return e.ChangeRodSKU(s, rods[1], rodSKU(t, e, "2P-3"))
	})
	expectUnchanged(t, s, types.ErrUnknownSKU, func() error {
		return e.ChangeRodSKU(s, rods[1], 999)
	})

	addRod(t, e, s, 600, 400, "1P")
	expectUnchanged(t, s, types.ErrRodOverlap, func() error {
		return e.ChangeRodSKU(s, rods[1], rodSKU(t, e, "3P-22"))
	})
}
