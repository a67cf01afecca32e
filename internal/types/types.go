// Package types provides the shelf domain model shared across shelfwright components.
//
// All dimensions are integer millimeters. Positions, spans and attachment
// offsets are compared with exact equality, so a plate only fits a set of rods
// when every measured distance matches its SKU exactly.
//
// The model is plain data. Validation and mutation live in internal/engine;
// this package only knows how to copy a shelf and how to check that the
// cross-references between rods and plates are consistent.
package types

import (
	"slices"
	"sort"
)

// RodID identifies a rod within one Shelf. Zero means "no rod".
type RodID int

// PlateID identifies a plate within one Shelf. Zero means "no plate".
// Rods and plates draw from the same counter, so a RodID and a PlateID
// are never numerically equal within one shelf.
type PlateID int

// Direction selects the side of a plate or rod column.
type Direction int

const (
	Left Direction = iota
	Right
)

// String implements fmt.Stringer.
func (d Direction) String() string {
	if d == Left {
		return "left"
	}
	return "right"
}

// ParseDirection accepts "left" or "right".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "left", "l":
		return Left, nil
	case "right", "r":
		return Right, nil
	}
	return Left, ErrInvalidDirection
}

// RodSKU is a catalog rod type. Spans are the distances between consecutive
// attachment points, bottom to top; a rod has len(Spans)+1 points.
type RodSKU struct {
	ID    int
	Name  string
	Spans []int
}

// Height is the distance from the bottom to the top attachment point.
func (r RodSKU) Height() int {
	h := 0
	for _, s := range r.Spans {
		h += s
	}
	return h
}

// PlateSKU is a catalog plate type. Spans are the horizontal segments,
// left to right: an end padding, one interior span per gap between
// consecutive rods, and a closing end padding.
type PlateSKU struct {
	ID    int
	Name  string
	Spans []int
	Depth int
}

// Gaps returns the interior spans (the rod-to-rod distances).
func (p PlateSKU) Gaps() []int {
	if len(p.Spans) < 2 {
		return nil
	}
	return p.Spans[1 : len(p.Spans)-1]
}

// RodCount is the number of rods a plate of this SKU connects.
func (p PlateSKU) RodCount() int {
	return len(p.Gaps()) + 1
}

// Width is the overall plate length including both paddings.
func (p PlateSKU) Width() int {
	w := 0
	for _, s := range p.Spans {
		w += s
	}
	return w
}

// Position is a 2D point in the elevation plane. X is horizontal,
// Y is vertical; for a rod, Y is the absolute height of its bottom point.
type Position struct {
	X int
	Y int
}

// AttachmentPoint is a height on a rod where a plate can be fixed.
// Y is relative to the rod's bottom; PlateID is zero while unoccupied.
type AttachmentPoint struct {
	Y       int
	PlateID PlateID
}

// Rod is a vertical member placed on a shelf.
type Rod struct {
	ID               RodID
	SKUID            int
	Position         Position
	AttachmentPoints []AttachmentPoint
}

// Bottom is the absolute Y of the lowest attachment point.
func (r *Rod) Bottom() int {
	return r.Position.Y
}

// Top is the absolute Y of the highest attachment point.
func (r *Rod) Top() int {
	if len(r.AttachmentPoints) == 0 {
		return r.Position.Y
	}
	return r.Position.Y + r.AttachmentPoints[len(r.AttachmentPoints)-1].Y
}

// PointAt returns the index of the attachment point at absolute height y.
func (r *Rod) PointAt(y int) (int, bool) {
	rel := y - r.Position.Y
	i := sort.Search(len(r.AttachmentPoints), func(i int) bool {
		return r.AttachmentPoints[i].Y >= rel
	})
	if i < len(r.AttachmentPoints) && r.AttachmentPoints[i].Y == rel {
		return i, true
	}
	return 0, false
}

// AbsoluteYs returns the absolute heights of all attachment points, ascending.
func (r *Rod) AbsoluteYs() []int {
	ys := make([]int, len(r.AttachmentPoints))
	for i, p := range r.AttachmentPoints {
		ys[i] = r.Position.Y + p.Y
	}
	return ys
}

// Occupied reports whether any attachment point carries a plate.
func (r *Rod) Occupied() bool {
	for _, p := range r.AttachmentPoints {
		if p.PlateID != 0 {
			return true
		}
	}
	return false
}

// Plate is a horizontal member fixed to two or more rods at one height.
// Connections are ordered by ascending rod X.
type Plate struct {
	ID          PlateID
	SKUID       int
	Connections []RodID
	Y           int
}

// First returns the leftmost connected rod.
func (p *Plate) First() RodID {
	return p.Connections[0]
}

// Last returns the rightmost connected rod.
func (p *Plate) Last() RodID {
	return p.Connections[len(p.Connections)-1]
}

// End returns the connected rod at the given end.
func (p *Plate) End(dir Direction) RodID {
	if dir == Left {
		return p.First()
	}
	return p.Last()
}

// Metadata carries shelf-level bookkeeping.
type Metadata struct {
	// NextID is the next identifier to hand out. It never decreases and is
	// shared by rods and plates.
	NextID int
}

// Shelf is the aggregate holding every rod and plate of one design, plus the
// most recently generated ghost suggestions.
type Shelf struct {
	Rods        map[RodID]*Rod
	Plates      map[PlateID]*Plate
	Metadata    Metadata
	GhostPlates []GhostPlate
	GhostRods   []GhostRod
}

// NewShelf returns an empty shelf whose first allocated id is 1.
func NewShelf() *Shelf {
	return &Shelf{
		Rods:     make(map[RodID]*Rod),
		Plates:   make(map[PlateID]*Plate),
		Metadata: Metadata{NextID: 1},
	}
}

// AllocID hands out the next identifier.
func (s *Shelf) AllocID() int {
	id := s.Metadata.NextID
	s.Metadata.NextID++
	return id
}

// SortedRods returns all rods ordered by (X, Y, ID).
func (s *Shelf) SortedRods() []*Rod {
	rods := make([]*Rod, 0, len(s.Rods))
	for _, r := range s.Rods {
		rods = append(rods, r)
	}
	sort.Slice(rods, func(i, j int) bool {
		a, b := rods[i], rods[j]
		if a.Position.X != b.Position.X {
			return a.Position.X < b.Position.X
		}
		if a.Position.Y != b.Position.Y {
			return a.Position.Y < b.Position.Y
		}
		return a.ID < b.ID
	})
	return rods
}

// SortedPlateIDs returns all plate ids ascending.
func (s *Shelf) SortedPlateIDs() []PlateID {
	ids := make([]PlateID, 0, len(s.Plates))
	for id := range s.Plates {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Column is the set of rods sharing one X, ordered bottom to top.
type Column struct {
	X    int
	Rods []*Rod
}

// Columns groups rods by X, ascending.
func (s *Shelf) Columns() []Column {
	var cols []Column
	for _, r := range s.SortedRods() {
		if n := len(cols); n > 0 && cols[n-1].X == r.Position.X {
			cols[n-1].Rods = append(cols[n-1].Rods, r)
			continue
		}
		cols = append(cols, Column{X: r.Position.X, Rods: []*Rod{r}})
	}
	return cols
}

// NeighborColumn returns the nearest column strictly beyond x in dir.
func (s *Shelf) NeighborColumn(x int, dir Direction) (Column, bool) {
	cols := s.Columns()
	if dir == Right {
		for _, c := range cols {
			if c.X > x {
				return c, true
			}
		}
		return Column{}, false
	}
	for i := len(cols) - 1; i >= 0; i-- {
		if cols[i].X < x {
			return cols[i], true
		}
	}
	return Column{}, false
}

// RodWithPointAt returns the rod in the column carrying an attachment point at y.
func (c Column) RodWithPointAt(y int) (*Rod, int, bool) {
	for _, r := range c.Rods {
		if i, ok := r.PointAt(y); ok {
			return r, i, true
		}
	}
	return nil, 0, false
}

// PlatesOn returns the ids of plates whose connections include rod, ascending.
func (s *Shelf) PlatesOn(rod RodID) []PlateID {
	var ids []PlateID
	for _, id := range s.SortedPlateIDs() {
		if slices.Contains(s.Plates[id].Connections, rod) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Clone returns a deep copy. Nil slices stay nil so clones compare equal
// with reflect.DeepEqual.
func (s *Shelf) Clone() *Shelf {
	c := &Shelf{
		Rods:     make(map[RodID]*Rod, len(s.Rods)),
		Plates:   make(map[PlateID]*Plate, len(s.Plates)),
		Metadata: s.Metadata,
	}
	for id, r := range s.Rods {
		rc := *r
		rc.AttachmentPoints = slices.Clone(r.AttachmentPoints)
		c.Rods[id] = &rc
	}
	for id, p := range s.Plates {
		pc := *p
		pc.Connections = slices.Clone(p.Connections)
		c.Plates[id] = &pc
	}
	if s.GhostPlates != nil {
		c.GhostPlates = make([]GhostPlate, len(s.GhostPlates))
		for i, g := range s.GhostPlates {
			c.GhostPlates[i] = g.Clone()
		}
	}
	c.GhostRods = slices.Clone(s.GhostRods)
	return c
}
