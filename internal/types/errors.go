package types

import "errors"

// Sentinel errors for shelf operations. Every failing engine operation
// returns one of these (possibly wrapped) and leaves the shelf unchanged.
var (
	// ErrUnknownSKU indicates a rod or plate SKU id or name is not in the catalog.
	ErrUnknownSKU = errors.New("unknown SKU")

	// ErrUnknownRod indicates a rod id is not on the shelf.
	ErrUnknownRod = errors.New("unknown rod")

	// ErrUnknownPlate indicates a plate id is not on the shelf.
	ErrUnknownPlate = errors.New("unknown plate")

	// ErrRodCount indicates the number of rods does not match the plate SKU.
	ErrRodCount = errors.New("rod count does not match plate SKU")

	// ErrUnsortedRods indicates rods are not in strictly ascending X order.
	ErrUnsortedRods = errors.New("rods not in ascending X order")

	// ErrSpanMismatch indicates a rod-to-rod distance differs from the SKU span.
	ErrSpanMismatch = errors.New("rod spacing does not match plate spans")

	// ErrNoAttachment indicates a rod has no attachment point at the height.
	ErrNoAttachment = errors.New("no attachment point at height")

	// ErrAttachmentOccupied indicates the attachment point already carries a plate.
	ErrAttachmentOccupied = errors.New("attachment point occupied")

	// ErrNoMatchingSKU indicates no catalog SKU has the required span sequence.
	ErrNoMatchingSKU = errors.New("no SKU matches span sequence")

	// ErrNoAdjacentRod indicates there is no rod column in the requested direction.
	ErrNoAdjacentRod = errors.New("no adjacent rod")

	// ErrNotAdjacent indicates two rods or plates are not neighbors.
	ErrNotAdjacent = errors.New("not adjacent")

	// ErrHeightMismatch indicates plates to be merged sit at different heights.
	ErrHeightMismatch = errors.New("plates at different heights")

	// ErrNotStacked indicates two rods are not vertically stacked with a gap.
	ErrNotStacked = errors.New("rods not stacked")

	// ErrRodOverlap indicates a rod would overlap another rod in the same column.
	ErrRodOverlap = errors.New("rod overlaps existing rod")

	// ErrAttachmentLost indicates a rod SKU change would drop an occupied point.
	ErrAttachmentLost = errors.New("SKU change would drop an occupied attachment point")

	// ErrIllegalGhost indicates an attempt to apply an illegal ghost plate.
	ErrIllegalGhost = errors.New("ghost plate is not legal")

	// ErrInvalidDirection indicates a direction string other than left or right.
	ErrInvalidDirection = errors.New("invalid direction")

	// ErrInvariant indicates the shelf's rod/plate cross-references are inconsistent.
	ErrInvariant = errors.New("shelf invariant violated")
)
