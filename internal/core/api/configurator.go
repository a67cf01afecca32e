package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/solatis/shelfwright/internal/catalog"
	"github.com/solatis/shelfwright/internal/codec"
	"github.com/solatis/shelfwright/internal/core/auth"
	"github.com/solatis/shelfwright/internal/core/config"
	"github.com/solatis/shelfwright/internal/core/db"
	"github.com/solatis/shelfwright/internal/engine"
	"github.com/solatis/shelfwright/internal/types"
	"github.com/solatis/shelfwright/internal/workspace"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

var errNoStore = errors.New("design store not configured")

// Service implements ConfiguratorServer. Each session owns a workspace;
// mutations lock the session, run through workspace.Do (snapshot, engine
// operation, ghost refresh) and answer with the full shelf view.
type Service struct {
	eng          *engine.Engine
	store        *db.Store
	sessions     *sessions
	historyDepth int
	logger       *slog.Logger
}

// NewService creates the service. store may be nil, in which case the
// design persistence methods fail with FAILED_PRECONDITION.
func NewService(eng *engine.Engine, store *db.Store, cfg *config.ConfiguratorConfig, logger *slog.Logger) (*Service, error) {
	if eng == nil {
		return nil, fmt.Errorf("eng cannot be nil")
	}
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		eng:          eng,
		store:        store,
		sessions:     newSessions(cfg.MaxSessions, cfg.SessionTTL),
		historyDepth: cfg.HistoryDepth,
		logger:       logger,
	}, nil
}

// SessionCount reports the number of live sessions.
func (s *Service) SessionCount() int { return s.sessions.count() }

// RunJanitor drops idle sessions every interval until ctx is done.
func (s *Service) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sessions.sweep(); n > 0 {
				s.logger.Info("expired idle sessions", "count", n, "live", s.sessions.count())
			}
		}
	}
}

func (s *Service) open(ctx context.Context, ws *workspace.Workspace) (*structpb.Struct, error) {
	owner := auth.OwnerIDFromContext(ctx)
	sess, err := s.sessions.create(owner, ws)
	if err != nil {
		return nil, toStatus(err)
	}
	s.logger.Info("session created", "session_id", sess.id, "owner_id", owner)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return respond(shelfView(sess))
}

func (s *Service) acquire(ctx context.Context, a args) (*session, error) {
	if err := ctx.Err(); err != nil {
		return nil, toStatus(err)
	}
	id, err := a.str("session_id")
	if err != nil {
		return nil, err
	}
	sess, err := s.sessions.acquire(auth.OwnerIDFromContext(ctx), id)
	if err != nil {
		return nil, toStatus(err)
	}
	return sess, nil
}

// mutate runs one undoable edit and answers with the shelf view plus any
// fields the edit returns.
func (s *Service) mutate(ctx context.Context, in *structpb.Struct, edit func(e *engine.Engine, sh *types.Shelf) (map[string]any, error)) (*structpb.Struct, error) {
	sess, err := s.acquire(ctx, argsOf(in))
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()

	var extra map[string]any
	err = sess.ws.Do(func(e *engine.Engine, sh *types.Shelf) error {
		var err error
		extra, err = edit(e, sh)
		return err
	})
	if err != nil {
		s.logger.Debug("edit rejected", "session_id", sess.id, "error", err)
		return nil, toStatus(err)
	}

	v := shelfView(sess)
	for k, val := range extra {
		v[k] = val
	}
	return respond(v)
}

// view answers with the shelf view after fn, which runs under the session lock.
func (s *Service) view(ctx context.Context, in *structpb.Struct, fn func(sess *session) error) (*structpb.Struct, error) {
	sess, err := s.acquire(ctx, argsOf(in))
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()

	if fn != nil {
		if err := fn(sess); err != nil {
			return nil, toStatus(err)
		}
	}
	return respond(shelfView(sess))
}

func (s *Service) CreateSession(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	a := argsOf(in)
	if !a.has("design") {
		return s.open(ctx, workspace.New(s.eng, s.historyDepth))
	}

	doc, err := a.str("design")
	if err != nil {
		return nil, err
	}
	d, err := codec.Unmarshal([]byte(doc))
	if err != nil {
		return nil, toStatus(err)
	}
	ws, err := workspace.Open(s.eng, d, s.historyDepth)
	if err != nil {
		return nil, toStatus(err)
	}
	return s.open(ctx, ws)
}

func (s *Service) CloseSession(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := argsOf(in).str("session_id")
	if err != nil {
		return nil, err
	}
	if err := s.sessions.remove(auth.OwnerIDFromContext(ctx), id); err != nil {
		return nil, toStatus(err)
	}
	s.logger.Info("session closed", "session_id", id)
	return respond(map[string]any{"session_id": id})
}

func (s *Service) AddRod(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	a := argsOf(in)
	x, err := a.num("x")
	if err != nil {
		return nil, err
	}
	y, err := a.num("y")
	if err != nil {
		return nil, err
	}
	sku, err := rodSKUArg(s.eng.Catalog(), a)
	if err != nil {
		return nil, toStatus(err)
	}

	return s.mutate(ctx, in, func(e *engine.Engine, sh *types.Shelf) (map[string]any, error) {
		id, err := e.AddRod(sh, types.Position{X: x, Y: y}, sku.ID)
		return map[string]any{"rod_id": int(id)}, err
	})
}

func (s *Service) AddPlate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	a := argsOf(in)
	y, err := a.num("y")
	if err != nil {
		return nil, err
	}
	rods, err := a.nums("rods")
	if err != nil {
		return nil, err
	}
	sku, err := plateSKUArg(s.eng.Catalog(), a)
	if err != nil {
		return nil, toStatus(err)
	}

	return s.mutate(ctx, in, func(e *engine.Engine, sh *types.Shelf) (map[string]any, error) {
		id, err := e.AddPlate(sh, y, sku.ID, toRodIDs(rods))
		return map[string]any{"plate_id": int(id)}, err
	})
}

func (s *Service) ExtendPlate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	a := argsOf(in)
	plateID, err := a.num("plate_id")
	if err != nil {
		return nil, err
	}
	dirName, err := a.str("direction")
	if err != nil {
		return nil, err
	}
	dir, err := types.ParseDirection(dirName)
	if err != nil {
		return nil, toStatus(err)
	}

	return s.mutate(ctx, in, func(e *engine.Engine, sh *types.Shelf) (map[string]any, error) {
		err := e.ExtendPlate(sh, types.PlateID(plateID), dir)
		return map[string]any{"plate_id": plateID}, err
	})
}

func (s *Service) FillGap(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	a := argsOf(in)
	left, err := a.num("left_rod")
	if err != nil {
		return nil, err
	}
	right, err := a.num("right_rod")
	if err != nil {
		return nil, err
	}
	y, err := a.num("y")
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, in, func(e *engine.Engine, sh *types.Shelf) (map[string]any, error) {
		id, err := e.FillGap(sh, types.RodID(left), types.RodID(right), y)
		return map[string]any{"plate_id": int(id)}, err
	})
}

func (s *Service) MergePlates(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	a := argsOf(in)
	left, err := a.num("left_plate")
	if err != nil {
		return nil, err
	}
	right, err := a.num("right_plate")
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, in, func(e *engine.Engine, sh *types.Shelf) (map[string]any, error) {
		id, err := e.MergePlates(sh, types.PlateID(left), types.PlateID(right))
		return map[string]any{"plate_id": int(id)}, err
	})
}

func (s *Service) MergeRods(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	a := argsOf(in)
	bottom, err := a.num("bottom_rod")
	if err != nil {
		return nil, err
	}
	top, err := a.num("top_rod")
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, in, func(e *engine.Engine, sh *types.Shelf) (map[string]any, error) {
		id, err := e.MergeRods(sh, types.RodID(bottom), types.RodID(top))
		return map[string]any{"rod_id": int(id)}, err
	})
}

func (s *Service) RemovePlate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := argsOf(in).num("plate_id")
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, in, func(e *engine.Engine, sh *types.Shelf) (map[string]any, error) {
		return nil, e.RemovePlate(sh, types.PlateID(id))
	})
}

func (s *Service) RemoveRod(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := argsOf(in).num("rod_id")
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, in, func(e *engine.Engine, sh *types.Shelf) (map[string]any, error) {
		return nil, e.RemoveRod(sh, types.RodID(id))
	})
}

// ApplyGhost applies an entry of the current ghost_plates (kind "plate",
// the default) or ghost_rods (kind "rod") list by index.
func (s *Service) ApplyGhost(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	a := argsOf(in)
	index, err := a.num("index")
	if err != nil {
		return nil, err
	}
	kind := a.optStr("kind")
	if kind != "" && kind != "plate" && kind != "rod" {
		return nil, status.Errorf(codes.InvalidArgument, "kind must be \"plate\" or \"rod\", got %q", kind)
	}

	return s.mutate(ctx, in, func(e *engine.Engine, sh *types.Shelf) (map[string]any, error) {
		if kind == "rod" {
			if index < 0 || index >= len(sh.GhostRods) {
				return nil, status.Errorf(codes.InvalidArgument, "ghost rod index %d out of range (%d ghosts)", index, len(sh.GhostRods))
			}
			id, err := e.ApplyGhostRod(sh, sh.GhostRods[index])
			return map[string]any{"rod_id": int(id)}, err
		}
		if index < 0 || index >= len(sh.GhostPlates) {
			return nil, status.Errorf(codes.InvalidArgument, "ghost plate index %d out of range (%d ghosts)", index, len(sh.GhostPlates))
		}
		id, err := e.ApplyGhostPlate(sh, sh.GhostPlates[index])
		return map[string]any{"plate_id": int(id)}, err
	})
}

// Ghosts returns the current suggestions. With include_illegal set it also
// returns every rejected candidate with its reason under "candidates".
func (s *Service) Ghosts(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	a := argsOf(in)
	sess, err := s.acquire(ctx, a)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()

	v := shelfView(sess)
	if a.flag("include_illegal") {
		cat := s.eng.Catalog()
		all := s.eng.ScanGhostPlates(sess.ws.Shelf(), true)
		candidates := make([]any, 0, len(all))
		for _, g := range all {
			candidates = append(candidates, ghostPlateView(g, cat))
		}
		v["candidates"] = candidates
	}
	return respond(v)
}

func (s *Service) Undo(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.view(ctx, in, func(sess *session) error { return sess.ws.Undo() })
}

func (s *Service) Redo(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.view(ctx, in, func(sess *session) error { return sess.ws.Redo() })
}

func (s *Service) Export(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	sess, err := s.acquire(ctx, argsOf(in))
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()

	doc, err := encodeDesign(sess.ws)
	if err != nil {
		return nil, toStatus(err)
	}
	return respond(map[string]any{"session_id": string(sess.id), "design": string(doc)})
}

// Import replaces the session's shelf with a design, as one undoable step.
func (s *Service) Import(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	doc, err := argsOf(in).str("design")
	if err != nil {
		return nil, err
	}
	d, err := codec.Unmarshal([]byte(doc))
	if err != nil {
		return nil, toStatus(err)
	}
	return s.view(ctx, in, func(sess *session) error { return sess.ws.Replace(d) })
}

func (s *Service) SaveDesign(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	owner, err := s.storeOwner(ctx)
	if err != nil {
		return nil, err
	}
	a := argsOf(in)
	name, err := a.str("name")
	if err != nil {
		return nil, err
	}
	sess, err := s.acquire(ctx, a)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()

	doc, err := encodeDesign(sess.ws)
	if err != nil {
		return nil, toStatus(err)
	}
	rec, err := s.store.SaveDesign(ctx, owner, name, doc)
	if err != nil {
		return nil, storeStatus(err)
	}
	s.logger.Info("design saved", "design_id", rec.ID, "name", rec.Name, "revision", rec.Revision)
	return respond(designView(rec))
}

// LoadDesign opens a new session from a saved design, by design_id or name.
func (s *Service) LoadDesign(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	owner, err := s.storeOwner(ctx)
	if err != nil {
		return nil, err
	}
	a := argsOf(in)

	var rec db.DesignRecord
	switch {
	case a.has("design_id"):
		raw, err := a.str("design_id")
		if err != nil {
			return nil, err
		}
		id, err := types.ParseDesignID(raw)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "design_id: %v", err)
		}
		rec, err = s.store.GetDesign(ctx, owner, id)
		if err != nil {
			return nil, storeStatus(err)
		}
	default:
		name, err := a.str("name")
		if err != nil {
			return nil, err
		}
		rec, err = s.store.GetDesignByName(ctx, owner, name)
		if err != nil {
			return nil, storeStatus(err)
		}
	}

	d, err := codec.Unmarshal([]byte(rec.Document))
	if err != nil {
		return nil, toStatus(err)
	}
	ws, err := workspace.Open(s.eng, d, s.historyDepth)
	if err != nil {
		return nil, toStatus(err)
	}
	return s.open(ctx, ws)
}

func (s *Service) ListDesigns(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	owner, err := s.storeOwner(ctx)
	if err != nil {
		return nil, err
	}
	recs, err := s.store.ListDesigns(ctx, owner)
	if err != nil {
		return nil, storeStatus(err)
	}
	designs := make([]any, 0, len(recs))
	for _, rec := range recs {
		designs = append(designs, designView(rec))
	}
	return respond(map[string]any{"designs": designs})
}

func (s *Service) DeleteDesign(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	owner, err := s.storeOwner(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := argsOf(in).str("design_id")
	if err != nil {
		return nil, err
	}
	id, err := types.ParseDesignID(raw)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "design_id: %v", err)
	}
	if err := s.store.DeleteDesign(ctx, owner, id); err != nil {
		return nil, storeStatus(err)
	}
	return respond(map[string]any{"design_id": raw})
}

func (s *Service) ListCatalog(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return respond(catalogView(s.eng.Catalog()))
}

func (s *Service) storeOwner(ctx context.Context) (types.OwnerID, error) {
	if s.store == nil {
		return "", toStatus(errNoStore)
	}
	owner := auth.OwnerIDFromContext(ctx)
	if owner == "" {
		return "", status.Error(codes.Unauthenticated, "design store requires an authenticated owner")
	}
	return owner, nil
}

// storeStatus maps lookups that miss to NOT_FOUND and any other store
// failure to UNAVAILABLE.
func storeStatus(err error) error {
	if errors.Is(err, db.ErrNotFound) || errors.Is(err, context.DeadlineExceeded) {
		return toStatus(err)
	}
	return status.Error(codes.Unavailable, err.Error())
}

func designView(rec db.DesignRecord) map[string]any {
	return map[string]any{
		"design_id":  string(rec.ID),
		"name":       rec.Name,
		"revision":   rec.Revision,
		"updated_at": rec.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func encodeDesign(ws *workspace.Workspace) ([]byte, error) {
	d, err := ws.Design()
	if err != nil {
		return nil, err
	}
	return codec.Marshal(d)
}

// rodSKUArg resolves "sku" given as a catalog name or a numeric id.
func rodSKUArg(cat *catalog.Catalog, a args) (types.RodSKU, error) {
	if id, err := a.num("sku"); err == nil {
		if sku, ok := cat.RodByID(id); ok {
			return sku, nil
		}
		return types.RodSKU{}, fmt.Errorf("rod SKU %d: %w", id, types.ErrUnknownSKU)
	}
	name, err := a.str("sku")
	if err != nil {
		return types.RodSKU{}, err
	}
	if sku, ok := cat.RodByName(name); ok {
		return sku, nil
	}
	return types.RodSKU{}, fmt.Errorf("rod SKU %q: %w", name, types.ErrUnknownSKU)
}

func plateSKUArg(cat *catalog.Catalog, a args) (types.PlateSKU, error) {
	if id, err := a.num("sku"); err == nil {
		if sku, ok := cat.PlateByID(id); ok {
			return sku, nil
		}
		return types.PlateSKU{}, fmt.Errorf("plate SKU %d: %w", id, types.ErrUnknownSKU)
	}
	name, err := a.str("sku")
	if err != nil {
		return types.PlateSKU{}, err
	}
	if sku, ok := cat.PlateByName(name); ok {
		return sku, nil
	}
	return types.PlateSKU{}, fmt.Errorf("plate SKU %q: %w", name, types.ErrUnknownSKU)
}

func toRodIDs(xs []int) []types.RodID {
	ids := make([]types.RodID, len(xs))
	for i, x := range xs {
		ids[i] = types.RodID(x)
	}
	return ids
}
