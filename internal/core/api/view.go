package api

import (
	"github.com/solatis/shelfwright/internal/catalog"
	"github.com/solatis/shelfwright/internal/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// shelfView renders the session's shelf with ids, so follow-up requests
// can name rods and plates. Ghost lists are indexed for ApplyGhost.
func shelfView(sess *session) map[string]any {
	s := sess.ws.Shelf()
	cat := sess.ws.Engine().Catalog()

	rods := make([]any, 0, len(s.Rods))
	for _, r := range s.SortedRods() {
		rods = append(rods, rodView(r, cat))
	}

	plates := make([]any, 0, len(s.Plates))
	for _, id := range s.SortedPlateIDs() {
		plates = append(plates, plateView(s.Plates[id], cat))
	}

	ghostPlates := make([]any, 0, len(s.GhostPlates))
	for i, g := range s.GhostPlates {
		v := ghostPlateView(g, cat)
		v["index"] = i
		ghostPlates = append(ghostPlates, v)
	}

	ghostRods := make([]any, 0, len(s.GhostRods))
	for i, g := range s.GhostRods {
		ghostRods = append(ghostRods, map[string]any{
			"index":      i,
			"sku":        rodSKUName(cat, g.SKUID),
			"bottom_rod": int(g.BottomRodID),
			"top_rod":    int(g.TopRodID),
			"x":          g.Position.X,
			"y":          g.Position.Y,
		})
	}

	return map[string]any{
		"session_id":   string(sess.id),
		"rods":         rods,
		"plates":       plates,
		"ghost_plates": ghostPlates,
		"ghost_rods":   ghostRods,
		"can_undo":     sess.ws.CanUndo(),
		"can_redo":     sess.ws.CanRedo(),
	}
}

func rodView(r *types.Rod, cat *catalog.Catalog) map[string]any {
	points := make([]any, 0, len(r.AttachmentPoints))
	for _, p := range r.AttachmentPoints {
		pv := map[string]any{"y": r.Position.Y + p.Y}
		if p.PlateID != 0 {
			pv["plate_id"] = int(p.PlateID)
		}
		points = append(points, pv)
	}
	return map[string]any{
		"id":     int(r.ID),
		"sku":    rodSKUName(cat, r.SKUID),
		"x":      r.Position.X,
		"y":      r.Position.Y,
		"top":    r.Top(),
		"points": points,
	}
}

func plateView(p *types.Plate, cat *catalog.Catalog) map[string]any {
	v := map[string]any{
		"id":   int(p.ID),
		"y":    p.Y,
		"sku":  plateSKUName(cat, p.SKUID),
		"rods": rodIDList(p.Connections),
	}
	if sku, ok := cat.PlateByID(p.SKUID); ok {
		v["width"] = sku.Width()
	}
	return v
}

func ghostPlateView(g types.GhostPlate, cat *catalog.Catalog) map[string]any {
	plateIDs := make([]any, 0, len(g.PlateIDs))
	for _, id := range g.PlateIDs {
		plateIDs = append(plateIDs, int(id))
	}

	changes := make([]any, 0, len(g.RodChanges))
	for _, ch := range g.RodChanges {
		changes = append(changes, map[string]any{
			"rod_id":   int(ch.RodID),
			"from_sku": rodSKUName(cat, ch.FromSKUID),
			"to_sku":   rodSKUName(cat, ch.ToSKUID),
			"target_y": ch.TargetY,
		})
	}

	v := map[string]any{
		"kind":        g.Kind.String(),
		"y":           g.Y,
		"sku":         plateSKUName(cat, g.SKUID),
		"rods":        rodIDList(g.RodIDs),
		"plates":      plateIDs,
		"direction":   g.Direction.String(),
		"rod_changes": changes,
		"legal":       g.Legal,
		"cost":        g.Cost,
	}
	if g.Reason != "" {
		v["reason"] = g.Reason
	}
	if g.RodCreation != nil {
		v["new_rod"] = map[string]any{
			"x":   g.RodCreation.Position.X,
			"y":   g.RodCreation.Position.Y,
			"sku": rodSKUName(cat, g.RodCreation.SKUID),
		}
	}
	return v
}

func catalogView(cat *catalog.Catalog) map[string]any {
	rods := make([]any, 0, len(cat.Rods()))
	for _, r := range cat.Rods() {
		rods = append(rods, map[string]any{
			"id":      r.ID,
			"name":    r.Name,
			"spans":   intList(r.Spans),
			"height":  r.Height(),
			"offsets": intList(catalog.AttachmentOffsets(r)),
		})
	}
	plates := make([]any, 0, len(cat.Plates()))
	for _, p := range cat.Plates() {
		plates = append(plates, map[string]any{
			"id":    p.ID,
			"name":  p.Name,
			"spans": intList(p.Spans),
			"gaps":  intList(p.Gaps()),
			"width": p.Width(),
			"depth": p.Depth,
		})
	}
	return map[string]any{
		"rods":    rods,
		"plates":  plates,
		"padding": cat.Padding(),
		"gaps":    intList(cat.StandardGaps()),
	}
}

func rodSKUName(cat *catalog.Catalog, id int) string {
	if sku, ok := cat.RodByID(id); ok {
		return sku.Name
	}
	return ""
}

func plateSKUName(cat *catalog.Catalog, id int) string {
	if sku, ok := cat.PlateByID(id); ok {
		return sku.Name
	}
	return ""
}

func rodIDList(ids []types.RodID) []any {
	out := make([]any, 0, len(ids))
	for _, id := range ids {
		out = append(out, int(id))
	}
	return out
}

func intList(xs []int) []any {
	out := make([]any, 0, len(xs))
	for _, x := range xs {
		out = append(out, x)
	}
	return out
}

// respond converts a view map into the wire Struct.
func respond(v map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding response: %v", err)
	}
	return out, nil
}
