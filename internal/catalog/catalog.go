// internal/catalog/catalog.go
package catalog

/*
 * Read-only SKU catalog.
 *
 * The catalog lists every rod and plate type that can be built. It is loaded
 * once from TOML (the embedded standard catalog, or a custom file named by
 * the catalog_path setting) and never mutated afterwards, so a *Catalog can
 * be shared by any number of engines and goroutines.
 *
 * Lookups by span sequence are exact: a rod is identified by its ordered
 * inter-point distances, a plate by padding + gaps + padding. The loader
 * rejects catalogs in which two SKUs share a span sequence so that every
 * lookup has at most one answer.
 */

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/solatis/shelfwright/internal/types"
)

//go:embed catalog.toml
var standardCatalog []byte

// ErrInvalidCatalog indicates a catalog file failed validation.
var ErrInvalidCatalog = errors.New("invalid catalog")

// MaxRodSpans bounds a rod SKU to seven attachment points.
const MaxRodSpans = 6

type catalogFile struct {
	Padding int          `toml:"padding"`
	Gaps    []int        `toml:"gaps"`
	Rods    []rodEntry   `toml:"rod"`
	Plates  []plateEntry `toml:"plate"`
}

type rodEntry struct {
	ID    int    `toml:"id"`
	Name  string `toml:"name"`
	Spans []int  `toml:"spans"`
}

type plateEntry struct {
	ID    int    `toml:"id"`
	Name  string `toml:"name"`
	Spans []int  `toml:"spans"`
	Depth int    `toml:"depth"`
}

// Catalog holds the rod and plate SKU tables. SKU values returned by lookups
// share their Spans slices with the catalog and must not be modified.
type Catalog struct {
	padding int
	gaps    []int

	rods   []types.RodSKU
	plates []types.PlateSKU

	rodByID      map[int]int
	rodByName    map[string]int
	rodBySpans   map[string]int
	plateByID    map[int]int
	plateByName  map[string]int
	plateBySpans map[string]int
}

var (
	standardOnce sync.Once
	standard     *Catalog
)

// Default returns the embedded standard catalog.
// Panics if the embedded file is malformed; that is a build defect.
func Default() *Catalog {
	standardOnce.Do(func() {
		c, err := Parse(standardCatalog)
		if err != nil {
			panic(fmt.Sprintf("embedded catalog: %v", err))
		}
		standard = c
	})
	return standard
}

// Load returns the catalog at path, or the standard catalog when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a TOML catalog.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	return build(f)
}

func build(f catalogFile) (*Catalog, error) {
	if f.Padding <= 0 {
		return nil, fmt.Errorf("%w: padding must be positive", ErrInvalidCatalog)
	}
	c := &Catalog{
		padding:      f.Padding,
		rodByID:      make(map[int]int, len(f.Rods)),
		rodByName:    make(map[string]int, len(f.Rods)),
		rodBySpans:   make(map[string]int, len(f.Rods)),
		plateByID:    make(map[int]int, len(f.Plates)),
		plateByName:  make(map[string]int, len(f.Plates)),
		plateBySpans: make(map[string]int, len(f.Plates)),
	}

	for _, e := range f.Rods {
		if e.ID <= 0 || e.Name == "" {
			return nil, fmt.Errorf("%w: rod needs positive id and a name", ErrInvalidCatalog)
		}
		if !allPositive(e.Spans) {
			return nil, fmt.Errorf("%w: rod %s has non-positive span", ErrInvalidCatalog, e.Name)
		}
		if len(e.Spans) > MaxRodSpans {
			return nil, fmt.Errorf("%w: rod %s has %d spans, at most %d allowed",
				ErrInvalidCatalog, e.Name, len(e.Spans), MaxRodSpans)
		}
		key := spanKey(e.Spans)
		if err := claim(c.rodByID, c.rodByName, c.rodBySpans, e.ID, e.Name, key, len(c.rods)); err != nil {
			return nil, fmt.Errorf("%w: rod %s: %v", ErrInvalidCatalog, e.Name, err)
		}
		c.rods = append(c.rods, types.RodSKU{ID: e.ID, Name: e.Name, Spans: nonNil(e.Spans)})
	}

	for _, e := range f.Plates {
		if e.ID <= 0 || e.Name == "" {
			return nil, fmt.Errorf("%w: plate needs positive id and a name", ErrInvalidCatalog)
		}
		if len(e.Spans) < 3 || !allPositive(e.Spans) {
			return nil, fmt.Errorf("%w: plate %s needs at least one positive gap between paddings",
				ErrInvalidCatalog, e.Name)
		}
		if e.Spans[0] != f.Padding || e.Spans[len(e.Spans)-1] != f.Padding {
			return nil, fmt.Errorf("%w: plate %s end spans must equal padding %d",
				ErrInvalidCatalog, e.Name, f.Padding)
		}
		key := spanKey(e.Spans)
		if err := claim(c.plateByID, c.plateByName, c.plateBySpans, e.ID, e.Name, key, len(c.plates)); err != nil {
			return nil, fmt.Errorf("%w: plate %s: %v", ErrInvalidCatalog, e.Name, err)
		}
		c.plates = append(c.plates, types.PlateSKU{ID: e.ID, Name: e.Name, Spans: e.Spans, Depth: e.Depth})
	}

	c.gaps = slices.Clone(f.Gaps)
	if len(c.gaps) == 0 {
		c.gaps = c.deriveGaps()
	}
	sort.Sort(sort.Reverse(sort.IntSlice(c.gaps)))
	return c, nil
}

func claim(byID map[int]int, byName, bySpans map[string]int, id int, name, key string, idx int) error {
	if _, dup := byID[id]; dup {
		return fmt.Errorf("duplicate id %d", id)
	}
	if _, dup := byName[name]; dup {
		return fmt.Errorf("duplicate name")
	}
	if _, dup := bySpans[key]; dup {
		return fmt.Errorf("duplicate spans [%s]", key)
	}
	byID[id], byName[name], bySpans[key] = idx, idx, idx
	return nil
}

// deriveGaps collects the distinct interior spans of two-rod plates.
func (c *Catalog) deriveGaps() []int {
	var gaps []int
	for _, p := range c.plates {
		if g := p.Gaps(); len(g) == 1 && !slices.Contains(gaps, g[0]) {
			gaps = append(gaps, g[0])
		}
	}
	return gaps
}

func spanKey(spans []int) string {
	var b strings.Builder
	for i, s := range spans {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(s))
	}
	return b.String()
}

func allPositive(xs []int) bool {
	for _, x := range xs {
		if x <= 0 {
			return false
		}
	}
	return true
}

func nonNil(xs []int) []int {
	if xs == nil {
		return []int{}
	}
	return xs
}
