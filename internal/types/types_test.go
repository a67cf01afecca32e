package types

import (
	"errors"
	"reflect"
	"testing"
)

type plateTable map[int]PlateSKU

func (t plateTable) PlateByID(id int) (PlateSKU, bool) {
	p, ok := t[id]
	return p, ok
}

var testPlates = plateTable{
	7: {ID: 7, Name: "670mm", Spans: []int{35, 600, 35}, Depth: 300},
}

// twoRodShelf builds rods at x=0 and x=600 with points at 0/200/400 and a
// 670mm plate at y=200.
func twoRodShelf() *Shelf {
	s := NewShelf()
	for _, x := range []int{0, 600} {
		id := RodID(s.AllocID())
		s.Rods[id] = &Rod{
			ID:               id,
			SKUID:            4,
			Position:         Position{X: x},
			AttachmentPoints: []AttachmentPoint{{Y: 0}, {Y: 200}, {Y: 400}},
		}
	}
	pid := PlateID(s.AllocID())
	s.Plates[pid] = &Plate{ID: pid, SKUID: 7, Connections: []RodID{1, 2}, Y: 200}
	s.Rods[1].AttachmentPoints[1].PlateID = pid
	s.Rods[2].AttachmentPoints[1].PlateID = pid
	return s
}

func TestRod_PointAt(t *testing.T) {
	r := &Rod{Position: Position{Y: 100}, AttachmentPoints: []AttachmentPoint{{Y: 0}, {Y: 200}, {Y: 500}}}

	tests := []struct {
		y      int
		want   int
		wantOK bool
	}{
		{100, 0, true},
		{300, 1, true},
		{600, 2, true},
		{0, 0, false},
		{200, 0, false},
		{700, 0, false},
	}
	for _, tt := range tests {
		got, ok := r.PointAt(tt.y)
		if ok != tt.wantOK || (ok && got != tt.want) {
			t.Errorf("PointAt(%d) = %d, %v; want %d, %v", tt.y, got, ok, tt.want, tt.wantOK)
		}
	}
	if r.Top() != 600 || r.Bottom() != 100 {
		t.Errorf("Bottom/Top = %d/%d, want 100/600", r.Bottom(), r.Top())
	}
}

func TestShelf_Columns(t *testing.T) {
	s := NewShelf()
	add := func(x, y int) {
		id := RodID(s.AllocID())
		s.Rods[id] = &Rod{ID: id, Position: Position{X: x, Y: y}, AttachmentPoints: []AttachmentPoint{{Y: 0}}}
	}
	add(600, 500)
	add(0, 0)
	add(600, 0)

	cols := s.Columns()
	if len(cols) != 2 {
		t.Fatalf("len(Columns) = %d, want 2", len(cols))
	}
	if cols[1].X != 600 || cols[1].Rods[0].Position.Y != 0 || cols[1].Rods[1].Position.Y != 500 {
		t.Errorf("column 600 not ordered bottom to top")
	}
	if c, ok := s.NeighborColumn(0, Right); !ok || c.X != 600 {
		t.Errorf("NeighborColumn(0, right) = %v, %v", c.X, ok)
	}
	if _, ok := s.NeighborColumn(0, Left); ok {
		t.Errorf("NeighborColumn(0, left) found a column")
	}
}

func TestShelf_CloneIsDeep(t *testing.T) {
	s := twoRodShelf()
	s.GhostPlates = []GhostPlate{{Kind: GhostCreateRod, RodIDs: []RodID{1}, RodCreation: &RodCreationPlan{SKUID: 2}}}

	c := s.Clone()
	if !reflect.DeepEqual(s, c) {
		t.Fatalf("clone differs from original")
	}
	c.Rods[1].AttachmentPoints[0].PlateID = 99
	c.Plates[3].Connections[0] = 42
	c.GhostPlates[0].RodCreation.SKUID = 5
	if s.Rods[1].AttachmentPoints[0].PlateID != 0 || s.Plates[3].Connections[0] != 1 || s.GhostPlates[0].RodCreation.SKUID != 2 {
		t.Errorf("mutating the clone changed the original")
	}
}

func TestCheckInvariants(t *testing.T) {
	if err := CheckInvariants(twoRodShelf(), testPlates); err != nil {
		t.Fatalf("CheckInvariants() = %v, want nil", err)
	}

	tests := []struct {
		name   string
		mutate func(s *Shelf)
	}{
		{"dangling point", func(s *Shelf) { s.Rods[1].AttachmentPoints[0].PlateID = 3 }},
		{"missing plate", func(s *Shelf) { delete(s.Plates, 3) }},
		{"wrong spacing", func(s *Shelf) { s.Rods[2].Position.X = 400 }},
		{"unlinked point", func(s *Shelf) { s.Rods[2].AttachmentPoints[1].PlateID = 0 }},
		{"stale next id", func(s *Shelf) { s.Metadata.NextID = 3 }},
		{"unknown sku", func(s *Shelf) { s.Plates[3].SKUID = 8 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := twoRodShelf()
			tt.mutate(s)
			if err := CheckInvariants(s, testPlates); !errors.Is(err, ErrInvariant) {
				t.Errorf("CheckInvariants() = %v, want ErrInvariant", err)
			}
		})
	}
}

func TestParseDirection(t *testing.T) {
	if d, err := ParseDirection("left"); err != nil || d != Left {
		t.Errorf("ParseDirection(left) = %v, %v", d, err)
	}
	if d, err := ParseDirection("right"); err != nil || d != Right {
		t.Errorf("ParseDirection(right) = %v, %v", d, err)
	}
	if _, err := ParseDirection("up"); !errors.Is(err, ErrInvalidDirection) {
		t.Errorf("ParseDirection(up) error = %v", err)
	}
}
