// Package render draws shelves as text for the CLI and the terminal editor.
//
// The elevation is a character grid: one column per HScale millimetres and
// one row per VScale millimetres, top of the shelf first. Rods are drawn as
// │ with ○ for free and ● for occupied attachment points, plates as ═, and
// ghost plates as ┄ (the selected one highlighted).
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/solatis/shelfwright/internal/catalog"
	"github.com/solatis/shelfwright/internal/types"
)

// Options controls elevation scaling and highlighting.
type Options struct {
	HScale int // mm per column
	VScale int // mm per row
	// Ghosts to draw; nil draws none.
	Ghosts []types.GhostPlate
	// Selected indexes Ghosts; -1 selects nothing.
	Selected int
}

// DefaultOptions fits the standard 200/300 mm rod pitch and 400/600 mm gaps.
func DefaultOptions() Options {
	return Options{HScale: 50, VScale: 100, Selected: -1}
}

type cellKind int

const (
	cellEmpty cellKind = iota
	cellRod
	cellPoint
	cellPlate
	cellGhost
	cellSelected
	cellNewRod
)

type cell struct {
	r    rune
	kind cellKind
}

type grid struct {
	minX, maxY   int
	hs, vs       int
	width, depth int
	cells        [][]cell
}

func newGrid(minX, maxX, minY, maxY, hs, vs int) *grid {
	g := &grid{minX: minX, maxY: maxY, hs: hs, vs: vs}
	g.width = (maxX-minX)/hs + 1
	g.depth = (maxY-minY)/vs + 1
	g.cells = make([][]cell, g.depth)
	for i := range g.cells {
		row := make([]cell, g.width)
		for j := range row {
			row[j] = cell{r: ' '}
		}
		g.cells[i] = row
	}
	return g
}

func (g *grid) col(x int) int { return (x - g.minX) / g.hs }
func (g *grid) row(y int) int { return (g.maxY - y) / g.vs }

func (g *grid) set(x, y int, r rune, kind cellKind) {
	c, rw := g.col(x), g.row(y)
	if rw < 0 || rw >= g.depth || c < 0 || c >= g.width {
		return
	}
	// Rods and points stay visible under plates.
	cur := g.cells[rw][c].kind
	if (kind == cellPlate || kind == cellGhost || kind == cellSelected) && (cur == cellRod || cur == cellPoint) {
		return
	}
	g.cells[rw][c] = cell{r: r, kind: kind}
}

func (g *grid) hline(x0, x1, y int, r rune, kind cellKind) {
	for x := x0; x <= x1; x += g.hs {
		g.set(x, y, r, kind)
	}
	g.set(x1, y, r, kind)
}

// Elevation renders the shelf front view. An empty shelf renders a hint.
func Elevation(s *types.Shelf, cat *catalog.Catalog, opt Options) string {
	if opt.HScale <= 0 || opt.VScale <= 0 {
		def := DefaultOptions()
		opt.HScale, opt.VScale = def.HScale, def.VScale
	}
	if len(s.Rods) == 0 && len(opt.Ghosts) == 0 {
		return styleDim.Render("(empty shelf)")
	}

	pad := cat.Padding()
	minX, maxX, minY, maxY := bounds(s, opt.Ghosts, pad)
	// Align the origin to the grid so rod positions map to exact columns.
	minX -= mod(minX, opt.HScale)
	minY -= mod(minY, opt.VScale)
	maxY += mod(-maxY, opt.VScale)
	g := newGrid(minX, maxX, minY, maxY, opt.HScale, opt.VScale)

	for _, r := range s.SortedRods() {
		for y := r.Bottom(); y <= r.Top(); y += opt.VScale {
			g.set(r.Position.X, y, '│', cellRod)
		}
		for _, p := range r.AttachmentPoints {
			mark := '○'
			if p.PlateID != 0 {
				mark = '●'
			}
			g.set(r.Position.X, r.Position.Y+p.Y, mark, cellPoint)
		}
	}

	for _, id := range s.SortedPlateIDs() {
		p := s.Plates[id]
		x0, x1 := plateSpan(s, p.Connections, pad)
		g.hline(x0, x1, p.Y, '═', cellPlate)
	}

	for i, gp := range opt.Ghosts {
		kind, r := cellGhost, '┄'
		if i == opt.Selected {
			kind, r = cellSelected, '━'
		}
		x0, x1, ok := ghostSpan(s, gp, pad)
		if !ok {
			continue
		}
		g.hline(x0, x1, gp.Y, r, kind)
		if gp.RodCreation != nil && i == opt.Selected {
			g.set(gp.RodCreation.Position.X, gp.Y, '◆', cellNewRod)
		}
	}

	return g.render()
}

func (g *grid) render() string {
	lines := make([]string, 0, g.depth)
	for i, row := range g.cells {
		label := styleAxis.Render(fmt.Sprintf("%5d ", g.maxY-i*g.vs))
		lines = append(lines, label+renderRow(row))
	}
	return strings.Join(lines, "\n")
}

func renderRow(row []cell) string {
	var b strings.Builder
	start := 0
	for i := 1; i <= len(row); i++ {
		if i < len(row) && row[i].kind == row[start].kind {
			continue
		}
		var run strings.Builder
		for _, c := range row[start:i] {
			run.WriteRune(c.r)
		}
		b.WriteString(styleFor(row[start].kind).Render(run.String()))
		start = i
	}
	return strings.TrimRight(b.String(), " ")
}

func styleFor(k cellKind) lipgloss.Style {
	switch k {
	case cellRod:
		return styleRod
	case cellPoint:
		return stylePoint
	case cellPlate:
		return stylePlate
	case cellGhost:
		return styleGhost
	case cellSelected, cellNewRod:
		return styleSelected
	}
	return lipgloss.NewStyle()
}

func bounds(s *types.Shelf, ghosts []types.GhostPlate, pad int) (minX, maxX, minY, maxY int) {
	first := true
	grow := func(x0, x1, y0, y1 int) {
		if first {
			minX, maxX, minY, maxY = x0, x1, y0, y1
			first = false
			return
		}
		minX, maxX = min(minX, x0), max(maxX, x1)
		minY, maxY = min(minY, y0), max(maxY, y1)
	}
	for _, r := range s.Rods {
		grow(r.Position.X-pad, r.Position.X+pad, r.Bottom(), r.Top())
	}
	for _, gp := range ghosts {
		if x0, x1, ok := ghostSpan(s, gp, pad); ok {
			grow(x0, x1, gp.Y, gp.Y)
		}
	}
	return minX, maxX, minY, maxY
}

func plateSpan(s *types.Shelf, rods []types.RodID, pad int) (x0, x1 int) {
	first, last := s.Rods[rods[0]], s.Rods[rods[len(rods)-1]]
	return first.Position.X - pad, last.Position.X + pad
}

// ghostSpan covers the anchor rods plus any planned rod.
func ghostSpan(s *types.Shelf, gp types.GhostPlate, pad int) (x0, x1 int, ok bool) {
	var xs []int
	for _, id := range gp.RodIDs {
		if r, found := s.Rods[id]; found {
			xs = append(xs, r.Position.X)
		}
	}
	if gp.RodCreation != nil {
		xs = append(xs, gp.RodCreation.Position.X)
	}
	if len(xs) == 0 {
		return 0, 0, false
	}
	lo, hi := xs[0], xs[0]
	for _, x := range xs[1:] {
		lo, hi = min(lo, x), max(hi, x)
	}
	return lo - pad, hi + pad, true
}

func mod(a, m int) int {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}
