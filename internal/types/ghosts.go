package types

import "slices"

// GhostKind classifies what applying a ghost plate would do.
type GhostKind int

const (
	// GhostAdd places a new plate between two free attachment points.
	GhostAdd GhostKind = iota
	// GhostExtend grows an existing plate by one rod.
	GhostExtend
	// GhostMerge joins two existing plates into one.
	GhostMerge
	// GhostCreateRod places a new rod before placing or extending a plate.
	GhostCreateRod
	// GhostIllegal marks a candidate that cannot be built.
	GhostIllegal
)

var ghostKindNames = [...]string{"add", "extend", "merge", "create-rod", "illegal"}

// String implements fmt.Stringer.
func (k GhostKind) String() string {
	if int(k) < len(ghostKindNames) {
		return ghostKindNames[k]
	}
	return "unknown"
}

// RodChange swaps a rod to a taller SKU so it reaches TargetY.
type RodChange struct {
	RodID     RodID
	FromSKUID int
	ToSKUID   int
	TargetY   int
}

// RodCreationPlan describes a rod that must be added before the plate.
type RodCreationPlan struct {
	Position Position
	SKUID    int
}

// GhostPlate is a suggested plate placement.
//
// RodIDs holds the existing rods the suggestion is anchored to: the left and
// right rod of a column pair, or the single end rod for edge suggestions.
// PlateIDs holds the plates that would be extended or merged.
type GhostPlate struct {
	Kind        GhostKind
	Y           int
	SKUID       int
	RodIDs      []RodID
	PlateIDs    []PlateID
	Direction   Direction
	RodChanges  []RodChange
	RodCreation *RodCreationPlan
	Legal       bool
	Reason      string
	Cost        int
}

// Clone returns a deep copy.
func (g GhostPlate) Clone() GhostPlate {
	c := g
	c.RodIDs = slices.Clone(g.RodIDs)
	c.PlateIDs = slices.Clone(g.PlateIDs)
	c.RodChanges = slices.Clone(g.RodChanges)
	if g.RodCreation != nil {
		plan := *g.RodCreation
		c.RodCreation = &plan
	}
	return c
}

// GhostRod is a suggested merge of two vertically stacked rods.
type GhostRod struct {
	SKUID       int
	BottomRodID RodID
	TopRodID    RodID
	Position    Position
}
