package engine

import (
	"fmt"

	"github.com/solatis/shelfwright/internal/types"
)

// ApplyGhostPlate performs a ghost suggestion: rod swaps, rod creation and
// the plate edit itself. The steps run against a copy of the shelf that
// replaces the original only if every step succeeds. Returns the plate that
// covers the suggestion. Ghost lists are left stale; callers regenerate them.
func (e *Engine) ApplyGhostPlate(s *types.Shelf, g types.GhostPlate) (types.PlateID, error) {
	if !g.Legal || g.Kind == types.GhostIllegal {
		return 0, fmt.Errorf("%s at y=%d: %w", g.Kind, g.Y, types.ErrIllegalGhost)
	}
	work := s.Clone()
	id, err := e.applyGhost(work, g)
	if err != nil {
		return 0, err
	}
	*s = *work
	return id, nil
}

func (e *Engine) applyGhost(s *types.Shelf, g types.GhostPlate) (types.PlateID, error) {
	for _, ch := range g.RodChanges {
		if err := e.ChangeRodSKU(s, ch.RodID, ch.ToSKUID); err != nil {
			return 0, err
		}
	}

	switch g.Kind {
	case types.GhostAdd, types.GhostExtend, types.GhostMerge:
		if len(g.RodIDs) != 2 {
			return 0, fmt.Errorf("%s ghost needs two rods: %w", g.Kind, types.ErrRodCount)
		}
		return e.FillGap(s, g.RodIDs[0], g.RodIDs[1], g.Y)

	case types.GhostCreateRod:
		if g.RodCreation == nil || len(g.RodIDs) == 0 {
			return 0, fmt.Errorf("rod creation ghost without plan: %w", types.ErrIllegalGhost)
		}
		newID, err := e.AddRod(s, g.RodCreation.Position, g.RodCreation.SKUID)
		if err != nil {
			return 0, err
		}
		switch {
		case len(g.RodIDs) == 2:
			return e.AddPlate(s, g.Y, g.SKUID, []types.RodID{g.RodIDs[0], newID, g.RodIDs[1]})
		case len(g.PlateIDs) == 1:
			plate, ok := s.Plates[g.PlateIDs[0]]
			if !ok {
				return 0, fmt.Errorf("plate %d: %w", g.PlateIDs[0], types.ErrUnknownPlate)
			}
			return e.extendPlateTo(s, plate, g.Direction, s.Rods[newID])
		case g.Direction == types.Left:
			return e.AddPlate(s, g.Y, g.SKUID, []types.RodID{newID, g.RodIDs[0]})
		default:
			return e.AddPlate(s, g.Y, g.SKUID, []types.RodID{g.RodIDs[0], newID})
		}
	}
	return 0, fmt.Errorf("%s ghost: %w", g.Kind, types.ErrIllegalGhost)
}

// ApplyGhostRod merges the two rods named by a ghost rod suggestion.
func (e *Engine) ApplyGhostRod(s *types.Shelf, g types.GhostRod) (types.RodID, error) {
	return e.MergeRods(s, g.BottomRodID, g.TopRodID)
}
