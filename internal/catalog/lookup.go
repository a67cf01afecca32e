package catalog

import (
	"slices"

	"github.com/solatis/shelfwright/internal/types"
)

// AttachmentOffsets returns the point offsets of a rod SKU relative to its
// bottom: 0 followed by the running sums of its spans.
func AttachmentOffsets(sku types.RodSKU) []int {
	offsets := make([]int, 0, len(sku.Spans)+1)
	y := 0
	offsets = append(offsets, y)
	for _, s := range sku.Spans {
		y += s
		offsets = append(offsets, y)
	}
	return offsets
}

// NewAttachmentPoints returns unoccupied attachment points for a rod SKU.
func NewAttachmentPoints(sku types.RodSKU) []types.AttachmentPoint {
	offsets := AttachmentOffsets(sku)
	points := make([]types.AttachmentPoint, len(offsets))
	for i, y := range offsets {
		points[i] = types.AttachmentPoint{Y: y}
	}
	return points
}

// Rods returns every rod SKU in catalog order.
func (c *Catalog) Rods() []types.RodSKU {
	return slices.Clone(c.rods)
}

// Plates returns every plate SKU in catalog order.
func (c *Catalog) Plates() []types.PlateSKU {
	return slices.Clone(c.plates)
}

// Padding is the end padding used when deriving plate span sequences.
func (c *Catalog) Padding() int {
	return c.padding
}

// StandardGaps returns the rod-to-rod distances used when proposing new
// rods, largest first.
func (c *Catalog) StandardGaps() []int {
	return slices.Clone(c.gaps)
}

func (c *Catalog) RodByID(id int) (types.RodSKU, bool) {
	i, ok := c.rodByID[id]
	if !ok {
		return types.RodSKU{}, false
	}
	return c.rods[i], true
}

func (c *Catalog) RodByName(name string) (types.RodSKU, bool) {
	i, ok := c.rodByName[name]
	if !ok {
		return types.RodSKU{}, false
	}
	return c.rods[i], true
}

// RodBySpans finds the rod SKU with exactly this span sequence.
func (c *Catalog) RodBySpans(spans []int) (types.RodSKU, bool) {
	i, ok := c.rodBySpans[spanKey(spans)]
	if !ok {
		return types.RodSKU{}, false
	}
	return c.rods[i], true
}

func (c *Catalog) PlateByID(id int) (types.PlateSKU, bool) {
	i, ok := c.plateByID[id]
	if !ok {
		return types.PlateSKU{}, false
	}
	return c.plates[i], true
}

func (c *Catalog) PlateByName(name string) (types.PlateSKU, bool) {
	i, ok := c.plateByName[name]
	if !ok {
		return types.PlateSKU{}, false
	}
	return c.plates[i], true
}

// PlateBySpans finds the plate SKU with exactly this span sequence.
func (c *Catalog) PlateBySpans(spans []int) (types.PlateSKU, bool) {
	i, ok := c.plateBySpans[spanKey(spans)]
	if !ok {
		return types.PlateSKU{}, false
	}
	return c.plates[i], true
}

// PlateForGaps finds the plate SKU whose interior spans equal gaps, using the
// catalog padding on both ends.
func (c *Catalog) PlateForGaps(gaps ...int) (types.PlateSKU, bool) {
	spans := make([]int, 0, len(gaps)+2)
	spans = append(spans, c.padding)
	spans = append(spans, gaps...)
	spans = append(spans, c.padding)
	return c.PlateBySpans(spans)
}

// TallerRods returns the SKUs that equal sku plus one extra span on top,
// ordered by that extra span.
func (c *Catalog) TallerRods(sku types.RodSKU) []types.RodSKU {
	var out []types.RodSKU
	for _, r := range c.rods {
		if len(r.Spans) == len(sku.Spans)+1 && slices.Equal(r.Spans[:len(sku.Spans)], sku.Spans) {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b types.RodSKU) int {
		return a.Spans[len(a.Spans)-1] - b.Spans[len(b.Spans)-1]
	})
	return out
}

// ShortestRodWithOffset returns the lowest rod SKU having an attachment point
// at offset y from its bottom. Ties go to the smaller id.
func (c *Catalog) ShortestRodWithOffset(y int) (types.RodSKU, bool) {
	var best types.RodSKU
	found := false
	for _, r := range c.rods {
		if !slices.Contains(AttachmentOffsets(r), y) {
			continue
		}
		if !found || r.Height() < best.Height() || (r.Height() == best.Height() && r.ID < best.ID) {
			best, found = r, true
		}
	}
	return best, found
}
