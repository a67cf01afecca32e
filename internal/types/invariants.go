package types

import (
	"fmt"
	"slices"
)

// PlateCatalog resolves plate SKUs for invariant checks.
type PlateCatalog interface {
	PlateByID(id int) (PlateSKU, bool)
}

// CheckInvariants verifies the bidirectional rod/plate links and plate
// geometry. It returns nil or an error wrapping ErrInvariant.
func CheckInvariants(s *Shelf, cat PlateCatalog) error {
	maxID := 0
	for id, r := range s.Rods {
		if int(id) != int(r.ID) {
			return fmt.Errorf("%w: rod keyed %d has id %d", ErrInvariant, id, r.ID)
		}
		maxID = max(maxID, int(id))
		for i, p := range r.AttachmentPoints {
			if i > 0 && p.Y <= r.AttachmentPoints[i-1].Y {
				return fmt.Errorf("%w: rod %d attachment offsets not ascending", ErrInvariant, id)
			}
			if p.PlateID == 0 {
				continue
			}
			plate, ok := s.Plates[p.PlateID]
			if !ok {
				return fmt.Errorf("%w: rod %d points at missing plate %d", ErrInvariant, id, p.PlateID)
			}
			if !slices.Contains(plate.Connections, id) {
				return fmt.Errorf("%w: plate %d does not list rod %d", ErrInvariant, plate.ID, id)
			}
			if plate.Y != r.Position.Y+p.Y {
				return fmt.Errorf("%w: plate %d at y=%d linked to rod %d point at y=%d",
					ErrInvariant, plate.ID, plate.Y, id, r.Position.Y+p.Y)
			}
		}
	}

	for id, p := range s.Plates {
		if int(id) != int(p.ID) {
			return fmt.Errorf("%w: plate keyed %d has id %d", ErrInvariant, id, p.ID)
		}
		maxID = max(maxID, int(id))
		sku, ok := cat.PlateByID(p.SKUID)
		if !ok {
			return fmt.Errorf("%w: plate %d has unknown SKU %d", ErrInvariant, id, p.SKUID)
		}
		gaps := sku.Gaps()
		if len(p.Connections) != len(gaps)+1 {
			return fmt.Errorf("%w: plate %d connects %d rods, SKU %s needs %d",
				ErrInvariant, id, len(p.Connections), sku.Name, len(gaps)+1)
		}
		for i, rid := range p.Connections {
			r, ok := s.Rods[rid]
			if !ok {
				return fmt.Errorf("%w: plate %d connects missing rod %d", ErrInvariant, id, rid)
			}
			idx, ok := r.PointAt(p.Y)
			if !ok || r.AttachmentPoints[idx].PlateID != id {
				return fmt.Errorf("%w: rod %d has no point at y=%d owned by plate %d", ErrInvariant, rid, p.Y, id)
			}
			if i == 0 {
				continue
			}
			prev := s.Rods[p.Connections[i-1]]
			if d := r.Position.X - prev.Position.X; d != gaps[i-1] {
				return fmt.Errorf("%w: plate %d gap %d is %dmm, SKU %s expects %dmm",
					ErrInvariant, id, i-1, d, sku.Name, gaps[i-1])
			}
		}
	}

	if s.Metadata.NextID <= maxID {
		return fmt.Errorf("%w: next id %d not above max id %d", ErrInvariant, s.Metadata.NextID, maxID)
	}
	return nil
}
