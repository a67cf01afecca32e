package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/solatis/shelfwright/internal/catalog"
	"github.com/solatis/shelfwright/internal/types"
)

// GhostLine describes one suggestion on a single line, e.g.
// "add 670mm at y=400 between rods 1,2 (cost 1)".
func GhostLine(g types.GhostPlate, cat *catalog.Catalog) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-10s %-13s y=%-5d", g.Kind, plateName(cat, g.SKUID), g.Y)

	switch {
	case len(g.PlateIDs) > 0:
		fmt.Fprintf(&b, " plates %s", joinIDs(g.PlateIDs))
	case len(g.RodIDs) > 0:
		fmt.Fprintf(&b, " rods %s", joinIDs(g.RodIDs))
	}
	if g.RodCreation != nil {
		fmt.Fprintf(&b, " +rod %s at x=%d", rodName(cat, g.RodCreation.SKUID), g.RodCreation.Position.X)
	}
	for _, ch := range g.RodChanges {
		fmt.Fprintf(&b, " rod %d→%s", ch.RodID, rodName(cat, ch.ToSKUID))
	}
	fmt.Fprintf(&b, " (cost %d)", g.Cost)
	if !g.Legal && g.Reason != "" {
		fmt.Fprintf(&b, " %s", g.Reason)
	}
	return b.String()
}

// GhostList renders suggestions with the cursor row marked. Illegal
// candidates, when present, are dimmed red.
func GhostList(ghosts []types.GhostPlate, cat *catalog.Catalog, cursor int) string {
	if len(ghosts) == 0 {
		return styleDim.Render("no suggestions")
	}
	lines := make([]string, 0, len(ghosts))
	for i, g := range ghosts {
		line := GhostLine(g, cat)
		switch {
		case i == cursor:
			lines = append(lines, styleCursorRow.Render(selectionIndicator+" "+line))
		case !g.Legal:
			lines = append(lines, styleIllegal.Render("  "+line))
		default:
			lines = append(lines, "  "+line)
		}
	}
	return strings.Join(lines, "\n")
}

// GhostRodList renders rod merge suggestions.
func GhostRodList(ghosts []types.GhostRod, cat *catalog.Catalog) string {
	lines := make([]string, 0, len(ghosts))
	for _, g := range ghosts {
		lines = append(lines, fmt.Sprintf("  merge rods %d+%d into %s at x=%d",
			g.BottomRodID, g.TopRodID, rodName(cat, g.SKUID), g.Position.X))
	}
	return strings.Join(lines, "\n")
}

// Summary is a one-line count of the shelf's parts.
func Summary(s *types.Shelf) string {
	return fmt.Sprintf("%d rods, %d plates, %d suggestions", len(s.Rods), len(s.Plates), len(s.GhostPlates)+len(s.GhostRods))
}

// Shelf renders a titled elevation followed by its suggestion list.
func Shelf(title string, s *types.Shelf, cat *catalog.Catalog) string {
	opt := DefaultOptions()
	opt.Ghosts = s.GhostPlates

	sections := []string{
		styleHeading.Render(title) + "  " + styleDim.Render(Summary(s)),
		styleFrame.Render(Elevation(s, cat, opt)),
		styleHeading.Render("Suggestions"),
		GhostList(s.GhostPlates, cat, -1),
	}
	if len(s.GhostRods) > 0 {
		sections = append(sections, GhostRodList(s.GhostRods, cat))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// Table renders rows under headers in the CLI table style.
func Table(headers []string, rows [][]string) string {
	return newTable(headers...).Rows(rows...).Render()
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleDim).
		Headers(headers...)
}

// Catalog renders rod and plate SKU tables.
func Catalog(cat *catalog.Catalog) string {
	rods := newTable("ID", "ROD", "SPANS", "HEIGHT", "POINTS")
	for _, r := range cat.Rods() {
		rods.Row(fmt.Sprint(r.ID), r.Name, joinInts(r.Spans), fmt.Sprint(r.Height()), joinInts(catalog.AttachmentOffsets(r)))
	}

	plates := newTable("ID", "PLATE", "SPANS", "WIDTH", "DEPTH")
	for _, p := range cat.Plates() {
		plates.Row(fmt.Sprint(p.ID), p.Name, joinInts(p.Spans), fmt.Sprint(p.Width()), fmt.Sprint(p.Depth))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		styleHeading.Render("Rods"), rods.Render(),
		styleHeading.Render("Plates"), plates.Render(),
		styleDim.Render(fmt.Sprintf("padding %d mm, standard gaps %s mm", cat.Padding(), joinInts(cat.StandardGaps()))),
	)
}

func plateName(cat *catalog.Catalog, id int) string {
	if sku, ok := cat.PlateByID(id); ok {
		return sku.Name
	}
	return fmt.Sprintf("#%d", id)
}

func rodName(cat *catalog.Catalog, id int) string {
	if sku, ok := cat.RodByID(id); ok {
		return sku.Name
	}
	return fmt.Sprintf("#%d", id)
}

func joinIDs[T ~int](ids []T) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(int(id))
	}
	return strings.Join(parts, ",")
}

func joinInts(xs []int) string {
	if len(xs) == 0 {
		return "-"
	}
	return joinIDs(xs)
}
