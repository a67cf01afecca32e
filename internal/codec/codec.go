// Package codec converts shelves to and from the portable design format.
//
// A design lists rods by position and SKU name and plates by height, SKU name
// and the indices of the rods they connect. Rod indices follow (X, Y, id)
// order, so encoding the same layout always yields the same design no matter
// which ids the shelf happens to use. Decoding replays every element through
// the engine, so a design that violates any placement rule is rejected.
package codec

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/solatis/shelfwright/internal/catalog"
	"github.com/solatis/shelfwright/internal/engine"
	"github.com/solatis/shelfwright/internal/types"
)

// FormatVersion is the design format written by Encode.
const FormatVersion = 1

var (
	// ErrUnsupportedVersion indicates a design written by an unknown format version.
	ErrUnsupportedVersion = errors.New("unsupported design version")

	// ErrInvalidDesign indicates a design that references missing rods or SKUs.
	ErrInvalidDesign = errors.New("invalid design")
)

// Design is the serializable form of a shelf.
type Design struct {
	Version int           `toml:"version"`
	Rods    []DesignRod   `toml:"rod,omitempty"`
	Plates  []DesignPlate `toml:"plate,omitempty"`
}

type DesignRod struct {
	X   int    `toml:"x"`
	Y   int    `toml:"y"`
	SKU string `toml:"sku"`
}

// DesignPlate references rods by their index in Design.Rods.
type DesignPlate struct {
	Y    int    `toml:"y"`
	SKU  string `toml:"sku"`
	Rods []int  `toml:"rods"`
}

// Encode captures the rods and plates of s. Ghost suggestions are not encoded.
func Encode(s *types.Shelf, cat *catalog.Catalog) (*Design, error) {
	d := &Design{Version: FormatVersion}
	index := make(map[types.RodID]int, len(s.Rods))
	for i, r := range s.SortedRods() {
		sku, ok := cat.RodByID(r.SKUID)
		if !ok {
			return nil, fmt.Errorf("rod %d: %w", r.ID, types.ErrUnknownSKU)
		}
		index[r.ID] = i
		d.Rods = append(d.Rods, DesignRod{X: r.Position.X, Y: r.Position.Y, SKU: sku.Name})
	}

	for _, id := range s.SortedPlateIDs() {
		p := s.Plates[id]
		sku, ok := cat.PlateByID(p.SKUID)
		if !ok {
			return nil, fmt.Errorf("plate %d: %w", p.ID, types.ErrUnknownSKU)
		}
		dp := DesignPlate{Y: p.Y, SKU: sku.Name, Rods: make([]int, len(p.Connections))}
		for i, rid := range p.Connections {
			idx, ok := index[rid]
			if !ok {
				return nil, fmt.Errorf("plate %d connects rod %d: %w", p.ID, rid, types.ErrUnknownRod)
			}
			dp.Rods[i] = idx
		}
		d.Plates = append(d.Plates, dp)
	}
	slices.SortFunc(d.Plates, func(a, b DesignPlate) int {
		if c := cmp.Compare(a.Y, b.Y); c != 0 {
			return c
		}
		return cmp.Compare(a.Rods[0], b.Rods[0])
	})
	return d, nil
}

// Decode rebuilds a shelf from a design using only AddRod and AddPlate.
// Ghost lists on the returned shelf are regenerated.
func Decode(d *Design, eng *engine.Engine) (*types.Shelf, error) {
	return DecodeAfter(d, eng, 1)
}

// DecodeAfter is Decode with ids allocated from nextID upward, so a shelf
// rebuilt inside a running session never reissues an id handed out before.
func DecodeAfter(d *Design, eng *engine.Engine, nextID int) (*types.Shelf, error) {
	if d.Version != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, d.Version)
	}
	cat := eng.Catalog()
	s := eng.NewShelf()
	s.Metadata.NextID = max(s.Metadata.NextID, nextID)

	ids := make([]types.RodID, len(d.Rods))
	for i, r := range d.Rods {
		sku, ok := cat.RodByName(r.SKU)
		if !ok {
			return nil, fmt.Errorf("rod %d sku %q: %w", i, r.SKU, types.ErrUnknownSKU)
		}
		id, err := eng.AddRod(s, types.Position{X: r.X, Y: r.Y}, sku.ID)
		if err != nil {
			return nil, fmt.Errorf("rod %d: %w", i, err)
		}
		ids[i] = id
	}

	for i, p := range d.Plates {
		sku, ok := cat.PlateByName(p.SKU)
		if !ok {
			return nil, fmt.Errorf("plate %d sku %q: %w", i, p.SKU, types.ErrUnknownSKU)
		}
		rods := make([]types.RodID, len(p.Rods))
		for j, idx := range p.Rods {
			if idx < 0 || idx >= len(ids) {
				return nil, fmt.Errorf("%w: plate %d references rod index %d", ErrInvalidDesign, i, idx)
			}
			rods[j] = ids[idx]
		}
		if _, err := eng.AddPlate(s, p.Y, sku.ID, rods); err != nil {
			return nil, fmt.Errorf("plate %d: %w", i, err)
		}
	}

	eng.RegenerateGhosts(s)
	return s, nil
}

// Marshal renders a design as TOML.
func Marshal(d *Design) ([]byte, error) {
	data, err := toml.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshaling design: %w", err)
	}
	return data, nil
}

// Unmarshal parses a TOML design.
func Unmarshal(data []byte) (*Design, error) {
	var d Design
	if err := toml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDesign, err)
	}
	return &d, nil
}

// Snapshot encodes a shelf straight to TOML bytes.
func Snapshot(s *types.Shelf, cat *catalog.Catalog) ([]byte, error) {
	d, err := Encode(s, cat)
	if err != nil {
		return nil, err
	}
	return Marshal(d)
}

// ReadFile loads a design file.
func ReadFile(path string) (*Design, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading design: %w", err)
	}
	d, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// WriteFile writes a design file, replacing it atomically.
func WriteFile(path string, d *Design) error {
	data, err := Marshal(d)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".design-*.toml")
	if err != nil {
		return fmt.Errorf("writing design: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing design: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing design: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing design: %w", err)
	}
	return nil
}
