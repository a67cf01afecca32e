package engine

import (
	"fmt"
	"slices"

	"github.com/solatis/shelfwright/internal/types"
)

// RegenerateGhosts recomputes both ghost lists on the shelf.
func (e *Engine) RegenerateGhosts(s *types.Shelf) {
	e.RegenerateGhostPlates(s)
	e.RegenerateGhostRods(s)
}

// RegenerateGhostPlates replaces s.GhostPlates with the legal suggestions
// for the current layout, cheapest first.
func (e *Engine) RegenerateGhostPlates(s *types.Shelf) {
	s.GhostPlates = e.ScanGhostPlates(s, false)
}

// RegenerateGhostRods replaces s.GhostRods with the possible rod merges.
func (e *Engine) RegenerateGhostRods(s *types.Shelf) {
	s.GhostRods = e.ScanGhostRods(s)
}

// ScanGhostPlates computes plate suggestions without touching the shelf.
// Illegal candidates carry a Reason and are returned only when includeIllegal
// is set.
//
// Candidates come from each pair of adjacent rod columns at every height
// where either column has an attachment point or could reach by swapping a
// rod for a one-point-taller SKU, plus rod-creation suggestions beyond the
// outermost columns.
func (e *Engine) ScanGhostPlates(s *types.Shelf, includeIllegal bool) []types.GhostPlate {
	cols := s.Columns()
	var out []types.GhostPlate
	for i := 0; i+1 < len(cols); i++ {
		for _, y := range e.candidateHeights(cols[i], cols[i+1]) {
			if g, ok := e.pairGhost(s, cols[i], cols[i+1], y); ok {
				out = append(out, g)
			}
		}
	}
	if len(cols) > 0 {
		out = append(out, e.edgeGhosts(s, cols[0], types.Left)...)
		out = append(out, e.edgeGhosts(s, cols[len(cols)-1], types.Right)...)
	}
	if !includeIllegal {
		out = slices.DeleteFunc(out, func(g types.GhostPlate) bool { return !g.Legal })
	}
	rankGhosts(out)
	return out
}

// ScanGhostRods lists merges of vertically adjacent rods separated by a gap
// for which the catalog has a SKU.
func (e *Engine) ScanGhostRods(s *types.Shelf) []types.GhostRod {
	var out []types.GhostRod
	for _, col := range s.Columns() {
		for i := 1; i < len(col.Rods); i++ {
			bottom, top := col.Rods[i-1], col.Rods[i]
			if top.Bottom() <= bottom.Top() {
				continue
			}
			sku, ok := e.cat.RodBySpans(stackedSpans(bottom, top))
			if !ok {
				continue
			}
			out = append(out, types.GhostRod{
				SKUID:       sku.ID,
				BottomRodID: bottom.ID,
				TopRodID:    top.ID,
				Position:    bottom.Position,
			})
		}
	}
	return out
}

func (e *Engine) candidateHeights(cols ...types.Column) []int {
	seen := make(map[int]bool)
	var ys []int
	add := func(y int) {
		if !seen[y] {
			seen[y] = true
			ys = append(ys, y)
		}
	}
	for _, col := range cols {
		for _, r := range col.Rods {
			for _, y := range r.AbsoluteYs() {
				add(y)
			}
			if cur, ok := e.cat.RodByID(r.SKUID); ok {
				for _, t := range e.cat.TallerRods(cur) {
					add(r.Bottom() + t.Height())
				}
			}
		}
	}
	slices.Sort(ys)
	return ys
}

// side is how one column meets a target height.
type side struct {
	rod    *types.Rod
	owner  types.PlateID
	change *types.RodChange
}

// resolveSide finds the rod in col that would carry a plate at y: one with
// an attachment point there, or else the nearest rod below whose one-step
// taller SKU puts its new top point exactly at y. A height inside a rod's
// body without an attachment point is a collision.
func (e *Engine) resolveSide(col types.Column, y int) (side, string) {
	if r, i, ok := col.RodWithPointAt(y); ok {
		return side{rod: r, owner: r.AttachmentPoints[i].PlateID}, ""
	}
	for _, r := range col.Rods {
		if r.Bottom() < y && y < r.Top() {
			return side{}, fmt.Sprintf("y=%d passes through rod %d between attachment points", y, r.ID)
		}
	}

	var below *types.Rod
	for _, r := range col.Rods {
		if r.Top() < y {
			below = r
		}
	}
	if below != nil {
		blocked := slices.ContainsFunc(col.Rods, func(r *types.Rod) bool {
			return r.Bottom() > below.Top() && r.Bottom() <= y
		})
		cur, ok := e.cat.RodByID(below.SKUID)
		if ok && !blocked {
			for _, t := range e.cat.TallerRods(cur) {
				if below.Bottom()+t.Height() == y {
					return side{rod: below, change: &types.RodChange{
						RodID:     below.ID,
						FromSKUID: cur.ID,
						ToSKUID:   t.ID,
						TargetY:   y,
					}}, ""
				}
			}
		}
	}
	return side{}, fmt.Sprintf("no rod at x=%d reaches y=%d", col.X, y)
}

// pairGhost classifies the candidate at height y between two adjacent
// columns. It returns false when a single plate already spans the pair.
func (e *Engine) pairGhost(s *types.Shelf, left, right types.Column, y int) (types.GhostPlate, bool) {
	g := types.GhostPlate{Y: y, Direction: types.Right}
	ls, lreason := e.resolveSide(left, y)
	rs, rreason := e.resolveSide(right, y)
	if lreason != "" || rreason != "" {
		return illegal(g, firstNonEmpty(lreason, rreason)), true
	}
	g.RodIDs = []types.RodID{ls.rod.ID, rs.rod.ID}
	if ls.change != nil && rs.change != nil && ls.rod.Top() != rs.rod.Top() {
		return illegal(g, fmt.Sprintf("rods %d and %d both need extending but their tops differ (%d vs %d)",
			ls.rod.ID, rs.rod.ID, ls.rod.Top(), rs.rod.Top())), true
	}
	for _, sd := range []side{ls, rs} {
		if sd.change != nil {
			g.RodChanges = append(g.RodChanges, *sd.change)
		}
	}

	d := right.X - left.X
	switch {
	case ls.owner != 0 && ls.owner == rs.owner:
		return g, false

	case ls.owner == 0 && rs.owner == 0:
		if sku, ok := e.cat.PlateForGaps(d); ok {
			g.Kind, g.SKUID, g.Legal = types.GhostAdd, sku.ID, true
			return g, true
		}
		return e.intermediateGhost(g, left.X, d), true

	case ls.owner == 0 || rs.owner == 0:
		owned, dir := ls, types.Right
		if owned.owner == 0 {
			owned, dir = rs, types.Left
		}
		plate := s.Plates[owned.owner]
		if plate.End(dir) != owned.rod.ID {
			return illegal(g, fmt.Sprintf("plate %d continues past rod %d", plate.ID, owned.rod.ID)), true
		}
		sku, err := e.extendedSKU(plate, dir, d)
		if err != nil {
			return illegal(g, err.Error()), true
		}
		g.Kind, g.SKUID, g.Legal = types.GhostExtend, sku.ID, true
		g.PlateIDs = []types.PlateID{plate.ID}
		g.Direction = dir
		return g, true

	default:
		lp, rp := s.Plates[ls.owner], s.Plates[rs.owner]
		if lp.Last() != ls.rod.ID || rp.First() != rs.rod.ID {
			return illegal(g, fmt.Sprintf("plates %d and %d do not meet between rods %d and %d",
				lp.ID, rp.ID, ls.rod.ID, rs.rod.ID)), true
		}
		sku, ok := e.plateForRods(s, append(slices.Clone(lp.Connections), rp.Connections...))
		if !ok {
			return illegal(g, fmt.Sprintf("no plate SKU joins plates %d and %d", lp.ID, rp.ID)), true
		}
		g.Kind, g.SKUID, g.Legal = types.GhostMerge, sku.ID, true
		g.PlateIDs = []types.PlateID{lp.ID, rp.ID}
		return g, true
	}
}

// intermediateGhost handles a free pair too far apart for any two-rod plate
// by planning a new rod at a standard gap from the left column.
func (e *Engine) intermediateGhost(g types.GhostPlate, leftX, d int) types.GhostPlate {
	for _, gap := range e.cat.StandardGaps() {
		if gap >= d {
			continue
		}
		sku, ok := e.cat.PlateForGaps(gap, d-gap)
		if !ok {
			continue
		}
		plan, ok := e.rodPlan(leftX+gap, g.Y)
		if !ok {
			continue
		}
		g.Kind, g.SKUID, g.Legal = types.GhostCreateRod, sku.ID, true
		g.RodCreation = plan
		return g
	}
	return illegal(g, fmt.Sprintf("no plate spans %dmm and no intermediate rod fits", d))
}

// edgeGhosts proposes new rods beyond an outermost column: one suggestion per
// attachment point, using the largest standard gap that yields a plate SKU.
// Occupied points extend their plate; free points get a new two-rod plate.
func (e *Engine) edgeGhosts(s *types.Shelf, col types.Column, dir types.Direction) []types.GhostPlate {
	var out []types.GhostPlate
	for _, r := range col.Rods {
		for _, p := range r.AttachmentPoints {
			y := r.Position.Y + p.Y
			if g, ok := e.edgeGhost(s, r, p.PlateID, y, dir); ok {
				out = append(out, g)
			}
		}
	}
	return out
}

func (e *Engine) edgeGhost(s *types.Shelf, r *types.Rod, owner types.PlateID, y int, dir types.Direction) (types.GhostPlate, bool) {
	for _, gap := range e.cat.StandardGaps() {
		x := r.Position.X + gap
		if dir == types.Left {
			x = r.Position.X - gap
		}
		plan, ok := e.rodPlan(x, y)
		if !ok {
			continue
		}
		g := types.GhostPlate{
			Kind:        types.GhostCreateRod,
			Y:           y,
			RodIDs:      []types.RodID{r.ID},
			Direction:   dir,
			RodCreation: plan,
			Legal:       true,
		}
		if owner != 0 {
			sku, err := e.extendedSKU(s.Plates[owner], dir, gap)
			if err != nil {
				continue
			}
			g.SKUID = sku.ID
			g.PlateIDs = []types.PlateID{owner}
			return g, true
		}
		sku, ok := e.cat.PlateForGaps(gap)
		if !ok {
			continue
		}
		g.SKUID = sku.ID
		return g, true
	}
	return types.GhostPlate{}, false
}

// rodPlan picks the shortest rod standing on the floor at x with an
// attachment point at y.
func (e *Engine) rodPlan(x, y int) (*types.RodCreationPlan, bool) {
	if y < 0 {
		return nil, false
	}
	sku, ok := e.cat.ShortestRodWithOffset(y)
	if !ok {
		return nil, false
	}
	return &types.RodCreationPlan{Position: types.Position{X: x, Y: 0}, SKUID: sku.ID}, true
}

func illegal(g types.GhostPlate, reason string) types.GhostPlate {
	g.Kind = types.GhostIllegal
	g.Legal = false
	g.Reason = reason
	g.SKUID = 0
	return g
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
