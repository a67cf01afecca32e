package engine

import (
	"fmt"
	"slices"

	"github.com/solatis/shelfwright/internal/types"
)

// AddPlate places a plate of SKU skuID at absolute height across rodIDs,
// which must be given in strictly ascending X order with rod-to-rod
// distances equal to the SKU's interior spans.
func (e *Engine) AddPlate(s *types.Shelf, height, skuID int, rodIDs []types.RodID) (types.PlateID, error) {
	sku, ok := e.cat.PlateByID(skuID)
	if !ok {
		return 0, fmt.Errorf("plate SKU %d: %w", skuID, types.ErrUnknownSKU)
	}
	p, err := checkPlacement(s, height, sku, rodIDs)
	if err != nil {
		return 0, err
	}
	return p.commit(s), nil
}

// placement is a validated, not yet committed plate position.
type placement struct {
	height int
	skuID  int
	rods   []*types.Rod
	points []int
}

// checkPlacement validates a plate at height across rodIDs. Attachment
// points owned by any plate in free count as unoccupied.
func checkPlacement(s *types.Shelf, height int, sku types.PlateSKU, rodIDs []types.RodID, free ...types.PlateID) (placement, error) {
	gaps := sku.Gaps()
	if len(rodIDs) < 2 || len(rodIDs) != len(gaps)+1 {
		return placement{}, fmt.Errorf("plate %s with %d rods: %w", sku.Name, len(rodIDs), types.ErrRodCount)
	}

	p := placement{
		height: height,
		skuID:  sku.ID,
		rods:   make([]*types.Rod, len(rodIDs)),
		points: make([]int, len(rodIDs)),
	}
	for i, id := range rodIDs {
		r, ok := s.Rods[id]
		if !ok {
			return placement{}, fmt.Errorf("rod %d: %w", id, types.ErrUnknownRod)
		}
		p.rods[i] = r
	}
	for i := 1; i < len(p.rods); i++ {
		d := p.rods[i].Position.X - p.rods[i-1].Position.X
		if d <= 0 {
			return placement{}, fmt.Errorf("rod %d after rod %d: %w", p.rods[i].ID, p.rods[i-1].ID, types.ErrUnsortedRods)
		}
		if d != gaps[i-1] {
			return placement{}, fmt.Errorf("gap %d is %dmm, %s needs %dmm: %w",
				i-1, d, sku.Name, gaps[i-1], types.ErrSpanMismatch)
		}
	}
	for i, r := range p.rods {
		idx, ok := r.PointAt(height)
		if !ok {
			return placement{}, fmt.Errorf("rod %d at y=%d: %w", r.ID, height, types.ErrNoAttachment)
		}
		if owner := r.AttachmentPoints[idx].PlateID; owner != 0 && !slices.Contains(free, owner) {
			return placement{}, fmt.Errorf("rod %d at y=%d holds plate %d: %w", r.ID, height, owner, types.ErrAttachmentOccupied)
		}
		p.points[i] = idx
	}
	return p, nil
}

func (p placement) commit(s *types.Shelf) types.PlateID {
	id := types.PlateID(s.AllocID())
	conns := make([]types.RodID, len(p.rods))
	for i, r := range p.rods {
		conns[i] = r.ID
		r.AttachmentPoints[p.points[i]].PlateID = id
	}
	s.Plates[id] = &types.Plate{ID: id, SKUID: p.skuID, Connections: conns, Y: p.height}
	return id
}

// extension is a validated, not yet committed one-rod plate growth.
type extension struct {
	plate *types.Plate
	skuID int
	dir   types.Direction
	rod   *types.Rod
	point int
}

// ExtendPlate grows a plate by one rod in dir. The new rod is taken from
// the nearest column beyond the plate's end; when that column holds stacked
// rods, the one with an attachment point at the plate's height is used.
func (e *Engine) ExtendPlate(s *types.Shelf, plateID types.PlateID, dir types.Direction) error {
	plate, ok := s.Plates[plateID]
	if !ok {
		return fmt.Errorf("plate %d: %w", plateID, types.ErrUnknownPlate)
	}
	end := s.Rods[plate.End(dir)]
	col, ok := s.NeighborColumn(end.Position.X, dir)
	if !ok {
		return fmt.Errorf("plate %d %s of x=%d: %w", plateID, dir, end.Position.X, types.ErrNoAdjacentRod)
	}
	rod, _, ok := col.RodWithPointAt(plate.Y)
	if !ok {
		return fmt.Errorf("column x=%d at y=%d: %w", col.X, plate.Y, types.ErrNoAttachment)
	}
	ext, err := e.planExtension(s, plate, dir, rod)
	if err != nil {
		return err
	}
	ext.commit()
	return nil
}

// planExtension validates growing plate onto rod at its dir end.
func (e *Engine) planExtension(s *types.Shelf, plate *types.Plate, dir types.Direction, rod *types.Rod) (extension, error) {
	end := s.Rods[plate.End(dir)]
	dist := rod.Position.X - end.Position.X
	if dir == types.Left {
		dist = -dist
	}
	if dist <= 0 {
		return extension{}, fmt.Errorf("rod %d beyond plate %d: %w", rod.ID, plate.ID, types.ErrNotAdjacent)
	}
	sku, err := e.extendedSKU(plate, dir, dist)
	if err != nil {
		return extension{}, err
	}

	idx, ok := rod.PointAt(plate.Y)
	if !ok {
		return extension{}, fmt.Errorf("rod %d at y=%d: %w", rod.ID, plate.Y, types.ErrNoAttachment)
	}
	if owner := rod.AttachmentPoints[idx].PlateID; owner != 0 {
		return extension{}, fmt.Errorf("rod %d at y=%d holds plate %d: %w", rod.ID, plate.Y, owner, types.ErrAttachmentOccupied)
	}
	return extension{plate: plate, skuID: sku.ID, dir: dir, rod: rod, point: idx}, nil
}

// extendedSKU finds the SKU for plate grown by dist at its dir end: the end
// padding is replaced with dist and a fresh padding closes the sequence.
func (e *Engine) extendedSKU(plate *types.Plate, dir types.Direction, dist int) (types.PlateSKU, error) {
	cur, ok := e.cat.PlateByID(plate.SKUID)
	if !ok {
		return types.PlateSKU{}, fmt.Errorf("plate SKU %d: %w", plate.SKUID, types.ErrUnknownSKU)
	}
	n := len(cur.Spans)
	spans := make([]int, 0, n+1)
	if dir == types.Right {
		spans = append(spans, cur.Spans[:n-1]...)
		spans = append(spans, dist, cur.Spans[n-1])
	} else {
		spans = append(spans, cur.Spans[0], dist)
		spans = append(spans, cur.Spans[1:]...)
	}
	sku, ok := e.cat.PlateBySpans(spans)
	if !ok {
		return types.PlateSKU{}, fmt.Errorf("extending plate %d %s by %dmm: %w", plate.ID, dir, dist, types.ErrNoMatchingSKU)
	}
	return sku, nil
}

func (x extension) commit() {
	if x.dir == types.Right {
		x.plate.Connections = append(slices.Clone(x.plate.Connections), x.rod.ID)
	} else {
		x.plate.Connections = append([]types.RodID{x.rod.ID}, x.plate.Connections...)
	}
	x.plate.SKUID = x.skuID
	x.rod.AttachmentPoints[x.point].PlateID = x.plate.ID
}

// MergePlates joins two plates at the same height whose facing end rods sit
// in adjacent columns. Both plates are replaced by one new plate; its id is
// returned. Nothing changes unless a SKU fits the combined rod sequence.
func (e *Engine) MergePlates(s *types.Shelf, leftID, rightID types.PlateID) (types.PlateID, error) {
	left, ok := s.Plates[leftID]
	if !ok {
		return 0, fmt.Errorf("plate %d: %w", leftID, types.ErrUnknownPlate)
	}
	right, ok := s.Plates[rightID]
	if !ok {
		return 0, fmt.Errorf("plate %d: %w", rightID, types.ErrUnknownPlate)
	}
	if leftID == rightID {
		return 0, fmt.Errorf("plate %d with itself: %w", leftID, types.ErrNotAdjacent)
	}
	if left.Y != right.Y {
		return 0, fmt.Errorf("plates %d (y=%d) and %d (y=%d): %w", leftID, left.Y, rightID, right.Y, types.ErrHeightMismatch)
	}
	last := s.Rods[left.Last()]
	first := s.Rods[right.First()]
	next, ok := s.NeighborColumn(last.Position.X, types.Right)
	if !ok || next.X != first.Position.X {
		return 0, fmt.Errorf("plates %d and %d: %w", leftID, rightID, types.ErrNotAdjacent)
	}

	rodIDs := append(slices.Clone(left.Connections), right.Connections...)
	sku, ok := e.plateForRods(s, rodIDs)
	if !ok {
		return 0, fmt.Errorf("merging plates %d and %d: %w", leftID, rightID, types.ErrNoMatchingSKU)
	}
	p, err := checkPlacement(s, left.Y, sku, rodIDs, leftID, rightID)
	if err != nil {
		return 0, err
	}

	detachPlate(s, left)
	detachPlate(s, right)
	delete(s.Plates, leftID)
	delete(s.Plates, rightID)
	return p.commit(s), nil
}

// FillGap makes the attachment points at height on two rods in adjacent
// columns share one plate. Depending on occupancy it adds a two-rod plate,
// extends the plate on one side, merges the plates on both sides, or does
// nothing when one plate already spans the gap. Returns the plate covering
// the gap.
func (e *Engine) FillGap(s *types.Shelf, leftRodID, rightRodID types.RodID, height int) (types.PlateID, error) {
	left, ok := s.Rods[leftRodID]
	if !ok {
		return 0, fmt.Errorf("rod %d: %w", leftRodID, types.ErrUnknownRod)
	}
	right, ok := s.Rods[rightRodID]
	if !ok {
		return 0, fmt.Errorf("rod %d: %w", rightRodID, types.ErrUnknownRod)
	}
	if right.Position.X <= left.Position.X {
		return 0, fmt.Errorf("rod %d before rod %d: %w", rightRodID, leftRodID, types.ErrUnsortedRods)
	}
	if next, ok := s.NeighborColumn(left.Position.X, types.Right); !ok || next.X != right.Position.X {
		return 0, fmt.Errorf("rods %d and %d: %w", leftRodID, rightRodID, types.ErrNotAdjacent)
	}
	li, ok := left.PointAt(height)
	if !ok {
		return 0, fmt.Errorf("rod %d at y=%d: %w", leftRodID, height, types.ErrNoAttachment)
	}
	ri, ok := right.PointAt(height)
	if !ok {
		return 0, fmt.Errorf("rod %d at y=%d: %w", rightRodID, height, types.ErrNoAttachment)
	}

	lp := left.AttachmentPoints[li].PlateID
	rp := right.AttachmentPoints[ri].PlateID
	switch {
	case lp == 0 && rp == 0:
		sku, ok := e.cat.PlateForGaps(right.Position.X - left.Position.X)
		if !ok {
			return 0, fmt.Errorf("gap of %dmm: %w", right.Position.X-left.Position.X, types.ErrNoMatchingSKU)
		}
		return e.AddPlate(s, height, sku.ID, []types.RodID{leftRodID, rightRodID})
	case lp == rp:
		return lp, nil
	case rp == 0:
		return e.extendPlateTo(s, s.Plates[lp], types.Right, right)
	case lp == 0:
		return e.extendPlateTo(s, s.Plates[rp], types.Left, left)
	default:
		return e.MergePlates(s, lp, rp)
	}
}

// extendPlateTo grows plate onto the exact rod given, provided that rod is
// the neighbor of the plate's end.
func (e *Engine) extendPlateTo(s *types.Shelf, plate *types.Plate, dir types.Direction, rod *types.Rod) (types.PlateID, error) {
	if plate.End(dir) == rod.ID {
		return plate.ID, nil
	}
	end := s.Rods[plate.End(dir)]
	col, ok := s.NeighborColumn(end.Position.X, dir)
	if !ok || col.X != rod.Position.X {
		return 0, fmt.Errorf("plate %d does not end next to rod %d: %w", plate.ID, rod.ID, types.ErrNotAdjacent)
	}
	ext, err := e.planExtension(s, plate, dir, rod)
	if err != nil {
		return 0, err
	}
	ext.commit()
	return plate.ID, nil
}

// RemovePlate deletes a plate and frees its attachment points.
func (e *Engine) RemovePlate(s *types.Shelf, id types.PlateID) error {
	plate, ok := s.Plates[id]
	if !ok {
		return fmt.Errorf("plate %d: %w", id, types.ErrUnknownPlate)
	}
	detachPlate(s, plate)
	delete(s.Plates, id)
	return nil
}

func detachPlate(s *types.Shelf, plate *types.Plate) {
	for _, rid := range plate.Connections {
		r, ok := s.Rods[rid]
		if !ok {
			continue
		}
		for i := range r.AttachmentPoints {
			if r.AttachmentPoints[i].PlateID == plate.ID {
				r.AttachmentPoints[i].PlateID = 0
			}
		}
	}
}

// plateForRods finds the plate SKU whose gaps equal the X distances between
// consecutive rods.
func (e *Engine) plateForRods(s *types.Shelf, rodIDs []types.RodID) (types.PlateSKU, bool) {
	if len(rodIDs) < 2 {
		return types.PlateSKU{}, false
	}
	gaps := make([]int, 0, len(rodIDs)-1)
	for i := 1; i < len(rodIDs); i++ {
		a, b := s.Rods[rodIDs[i-1]], s.Rods[rodIDs[i]]
		if a == nil || b == nil {
			return types.PlateSKU{}, false
		}
		gaps = append(gaps, b.Position.X-a.Position.X)
	}
	return e.cat.PlateForGaps(gaps...)
}
