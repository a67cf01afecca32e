package engine

import (
	"fmt"
	"slices"

	"github.com/solatis/shelfwright/internal/catalog"
	"github.com/solatis/shelfwright/internal/types"
)

// AddRod places a new rod with its bottom point at pos.
// The rod must not overlap another rod in the same column.
func (e *Engine) AddRod(s *types.Shelf, pos types.Position, skuID int) (types.RodID, error) {
	sku, ok := e.cat.RodByID(skuID)
	if !ok {
		return 0, fmt.Errorf("rod SKU %d: %w", skuID, types.ErrUnknownSKU)
	}
	if other, ok := overlappingRod(s, pos.X, pos.Y, pos.Y+sku.Height(), 0); ok {
		return 0, fmt.Errorf("rod %d at x=%d: %w", other, pos.X, types.ErrRodOverlap)
	}

	id := types.RodID(s.AllocID())
	s.Rods[id] = &types.Rod{
		ID:               id,
		SKUID:            sku.ID,
		Position:         pos,
		AttachmentPoints: catalog.NewAttachmentPoints(sku),
	}
	return id, nil
}

// RemoveRod deletes a rod. Plates attached to it are visited in ascending id
// order: a plate that would keep fewer than two rods, or whose surviving rods
// match no plate SKU, is removed; otherwise it is re-skinned to the SKU that
// fits its surviving rods.
func (e *Engine) RemoveRod(s *types.Shelf, id types.RodID) error {
	if _, ok := s.Rods[id]; !ok {
		return fmt.Errorf("rod %d: %w", id, types.ErrUnknownRod)
	}

	for _, pid := range s.PlatesOn(id) {
		plate, ok := s.Plates[pid]
		if !ok {
			continue
		}
		survivors := slices.DeleteFunc(slices.Clone(plate.Connections), func(r types.RodID) bool {
			return r == id
		})
		sku, ok := e.plateForRods(s, survivors)
		if len(survivors) < 2 || !ok {
			detachPlate(s, plate)
			delete(s.Plates, pid)
			continue
		}
		plate.SKUID = sku.ID
		plate.Connections = survivors
	}

	delete(s.Rods, id)
	return nil
}

// ChangeRodSKU swaps a rod's SKU in place, keeping its bottom position.
// Every occupied point must exist at the same offset on the new SKU.
func (e *Engine) ChangeRodSKU(s *types.Shelf, rodID types.RodID, skuID int) error {
	rod, ok := s.Rods[rodID]
	if !ok {
		return fmt.Errorf("rod %d: %w", rodID, types.ErrUnknownRod)
	}
	sku, ok := e.cat.RodByID(skuID)
	if !ok {
		return fmt.Errorf("rod SKU %d: %w", skuID, types.ErrUnknownSKU)
	}

	points := catalog.NewAttachmentPoints(sku)
	for _, p := range rod.AttachmentPoints {
		if p.PlateID == 0 {
			continue
		}
		i := slices.IndexFunc(points, func(q types.AttachmentPoint) bool { return q.Y == p.Y })
		if i < 0 {
			return fmt.Errorf("rod %d offset %d carries plate %d: %w", rodID, p.Y, p.PlateID, types.ErrAttachmentLost)
		}
		points[i].PlateID = p.PlateID
	}
	bottom := rod.Position.Y
	if other, ok := overlappingRod(s, rod.Position.X, bottom, bottom+sku.Height(), rodID); ok {
		return fmt.Errorf("rod %d: %w", other, types.ErrRodOverlap)
	}

	rod.SKUID = sku.ID
	rod.AttachmentPoints = points
	return nil
}

// MergeRods joins two rods stacked in one column into a single rod spanning
// both. The merged SKU's spans are the concatenation of the bottom rod's
// spans, the vertical gap, and the top rod's spans. Plates are relinked by
// absolute height. Returns the new rod's id.
func (e *Engine) MergeRods(s *types.Shelf, bottomID, topID types.RodID) (types.RodID, error) {
	bottom, ok := s.Rods[bottomID]
	if !ok {
		return 0, fmt.Errorf("rod %d: %w", bottomID, types.ErrUnknownRod)
	}
	top, ok := s.Rods[topID]
	if !ok {
		return 0, fmt.Errorf("rod %d: %w", topID, types.ErrUnknownRod)
	}
	if bottom.Position.X != top.Position.X || top.Bottom() <= bottom.Top() {
		return 0, fmt.Errorf("rods %d and %d: %w", bottomID, topID, types.ErrNotStacked)
	}
	if other, ok := overlappingRod(s, bottom.Position.X, bottom.Top()+1, top.Bottom()-1, 0); ok {
		return 0, fmt.Errorf("rod %d lies between %d and %d: %w", other, bottomID, topID, types.ErrNotStacked)
	}

	sku, ok := e.cat.RodBySpans(stackedSpans(bottom, top))
	if !ok {
		return 0, fmt.Errorf("merging rods %d and %d: %w", bottomID, topID, types.ErrNoMatchingSKU)
	}

	id := types.RodID(s.AllocID())
	merged := &types.Rod{
		ID:               id,
		SKUID:            sku.ID,
		Position:         bottom.Position,
		AttachmentPoints: catalog.NewAttachmentPoints(sku),
	}
	for _, old := range []*types.Rod{bottom, top} {
		for _, p := range old.AttachmentPoints {
			if p.PlateID == 0 {
				continue
			}
			i, _ := merged.PointAt(old.Position.Y + p.Y)
			merged.AttachmentPoints[i].PlateID = p.PlateID
			plate := s.Plates[p.PlateID]
			for j, r := range plate.Connections {
				if r == old.ID {
					plate.Connections[j] = id
				}
			}
		}
	}

	delete(s.Rods, bottomID)
	delete(s.Rods, topID)
	s.Rods[id] = merged
	return id, nil
}

// stackedSpans returns the inter-point distances of the union of two
// stacked rods' absolute attachment heights.
func stackedSpans(bottom, top *types.Rod) []int {
	ys := append(bottom.AbsoluteYs(), top.AbsoluteYs()...)
	spans := make([]int, 0, len(ys)-1)
	for i := 1; i < len(ys); i++ {
		spans = append(spans, ys[i]-ys[i-1])
	}
	return spans
}

// overlappingRod reports a rod in column x whose closed vertical range
// intersects [lo, hi], ignoring rod skip.
func overlappingRod(s *types.Shelf, x, lo, hi int, skip types.RodID) (types.RodID, bool) {
	if hi < lo {
		return 0, false
	}
	for _, r := range s.SortedRods() {
		if r.ID == skip || r.Position.X != x {
			continue
		}
		if r.Bottom() <= hi && lo <= r.Top() {
			return r.ID, true
		}
	}
	return 0, false
}
