// internal/engine/cost.go
package engine

import (
	"cmp"
	"slices"

	"github.com/solatis/shelfwright/internal/types"
)

/*
 * Cost model for ghost plate ranking.
 *
 * A ghost's cost is the amount of physical work applying it causes:
 *
 *   cost = kind_cost + CostRodChange * len(RodChanges)
 *
 * Kind costs order the suggestions add < extend < merge, and any rod swap
 * outweighs the difference between those. Rod creation carries the highest
 * kind cost because it adds hardware rather than rearranging it. Illegal
 * candidates sort after everything legal.
 *
 * Ties are broken by height, then by the anchor rod's id, so the ranking is
 * deterministic for a given shelf.
 */

const (
	CostAdd       = 1
	CostExtend    = 2
	CostMerge     = 3
	CostRodChange = 4
	CostRodCreate = 10

	// CostIllegal offsets illegal candidates past any legal one.
	CostIllegal = 1000
)

// CalculateGhostCost computes the ranking cost of a ghost plate.
func CalculateGhostCost(g types.GhostPlate) int {
	cost := kindCost(g.Kind) + CostRodChange*len(g.RodChanges)
	if !g.Legal {
		cost += CostIllegal
	}
	return cost
}

func kindCost(k types.GhostKind) int {
	switch k {
	case types.GhostAdd:
		return CostAdd
	case types.GhostExtend:
		return CostExtend
	case types.GhostMerge:
		return CostMerge
	case types.GhostCreateRod:
		return CostRodCreate
	default:
		return 0
	}
}

func rankGhosts(ghosts []types.GhostPlate) {
	for i := range ghosts {
		ghosts[i].Cost = CalculateGhostCost(ghosts[i])
	}
	slices.SortStableFunc(ghosts, func(a, b types.GhostPlate) int {
		if c := cmp.Compare(a.Cost, b.Cost); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Y, b.Y); c != 0 {
			return c
		}
		return cmp.Compare(anchor(a), anchor(b))
	})
}

func anchor(g types.GhostPlate) types.RodID {
	if len(g.RodIDs) == 0 {
		return 0
	}
	return g.RodIDs[0]
}
