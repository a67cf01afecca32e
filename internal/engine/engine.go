// internal/engine/engine.go
package engine

/*
 * Shelf editing engine.
 *
 * Every operation takes the *types.Shelf it mutates, validates the whole
 * request first, and only then commits. A failing operation returns a
 * sentinel from internal/types and leaves the shelf untouched; on success
 * the rod/plate cross-links stay consistent (types.CheckInvariants).
 *
 * The engine holds no per-shelf state and never logs. One Engine can serve
 * any number of shelves; a single shelf must not be mutated concurrently.
 *
 * Layout:
 *   rods.go    - AddRod, RemoveRod, ChangeRodSKU, MergeRods
 *   plates.go  - AddPlate, ExtendPlate, MergePlates, FillGap, RemovePlate
 *   ghosts.go  - ghost plate and ghost rod generation
 *   cost.go    - ranking of ghost suggestions
 *   apply.go   - applying a ghost suggestion atomically
 */

import (
	"github.com/solatis/shelfwright/internal/catalog"
	"github.com/solatis/shelfwright/internal/types"
)

// Engine performs validated edits against shelves using one catalog.
type Engine struct {
	cat *catalog.Catalog
}

// New creates an engine bound to a catalog. A nil catalog selects the
// embedded standard catalog.
func New(cat *catalog.Catalog) *Engine {
	if cat == nil {
		cat = catalog.Default()
	}
	return &Engine{cat: cat}
}

// Catalog returns the catalog the engine validates against.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.cat
}

// NewShelf returns an empty shelf.
func (e *Engine) NewShelf() *types.Shelf {
	return types.NewShelf()
}

// Check verifies the shelf's structural invariants against this catalog.
func (e *Engine) Check(s *types.Shelf) error {
	return types.CheckInvariants(s, e.cat)
}
