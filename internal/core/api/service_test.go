package api

import (
	"context"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/solatis/shelfwright/internal/core/auth"
	"github.com/solatis/shelfwright/internal/core/config"
	"github.com/solatis/shelfwright/internal/core/db"
	"github.com/solatis/shelfwright/internal/engine"
	"github.com/solatis/shelfwright/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

func startService(t *testing.T, cfg *config.ConfiguratorConfig, store *db.Store, owner types.OwnerID) *Client {
	t.Helper()

	svc, err := NewService(engine.New(nil), store, cfg, nil)
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.UnaryInterceptor(
		func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
			return handler(auth.WithOwnerID(ctx, owner), req)
		}))
	RegisterConfiguratorServer(srv, svc)
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return NewClient(conn)
}

func call(t *testing.T, c *Client, method string, req map[string]any) map[string]any {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := c.Call(ctx, method, req)
	require.NoError(t, err, method)
	return resp
}

func callCode(t *testing.T, c *Client, method string, req map[string]any) codes.Code {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := c.Call(ctx, method, req)
	return status.Code(err)
}

func list(m map[string]any, key string) []any {
	l, _ := m[key].([]any)
	return l
}

// twoRodSession opens a session holding two 3P-22 rods 600 mm apart.
func twoRodSession(t *testing.T, c *Client) string {
	t.Helper()
	resp := call(t, c, "CreateSession", map[string]any{})
	sid := resp["session_id"].(string)
	call(t, c, "AddRod", map[string]any{"session_id": sid, "x": 0, "y": 0, "sku": "3P-22"})
	call(t, c, "AddRod", map[string]any{"session_id": sid, "x": 600, "y": 0, "sku": "3P-22"})
	return sid
}

func TestListCatalog(t *testing.T) {
	c := startService(t, config.DefaultConfiguratorConfig(), nil, "")

	resp := call(t, c, "ListCatalog", map[string]any{})
	assert.Len(t, list(resp, "rods"), 21)
	assert.Len(t, list(resp, "plates"), 6)
	assert.Equal(t, float64(35), resp["padding"])
}

func TestSession_EditFlow(t *testing.T) {
	c := startService(t, config.DefaultConfiguratorConfig(), nil, "")
	sid := twoRodSession(t, c)

	resp := call(t, c, "AddPlate", map[string]any{"session_id": sid, "y": 200, "sku": "670mm", "rods": []any{1, 2}})
	plateID := resp["plate_id"].(float64)
	require.Len(t, list(resp, "plates"), 1)
	assert.Equal(t, true, resp["can_undo"])

	ghosts := list(resp, "ghost_plates")
	require.NotEmpty(t, ghosts)
	first := ghosts[0].(map[string]any)
	assert.Equal(t, "add", first["kind"])
	assert.Equal(t, float64(0), first["y"])

	resp = call(t, c, "ApplyGhost", map[string]any{"session_id": sid, "index": 0})
	assert.Len(t, list(resp, "plates"), 2)

	resp = call(t, c, "RemovePlate", map[string]any{"session_id": sid, "plate_id": plateID})
	assert.Len(t, list(resp, "plates"), 1)

	resp = call(t, c, "Undo", map[string]any{"session_id": sid})
	assert.Len(t, list(resp, "plates"), 2)
	assert.Equal(t, true, resp["can_redo"])

	resp = call(t, c, "Redo", map[string]any{"session_id": sid})
	assert.Len(t, list(resp, "plates"), 1)

	resp = call(t, c, "Ghosts", map[string]any{"session_id": sid, "include_illegal": true})
	assert.GreaterOrEqual(t, len(list(resp, "candidates")), len(list(resp, "ghost_plates")))
}

func TestSession_ExportImport(t *testing.T) {
	c := startService(t, config.DefaultConfiguratorConfig(), nil, "")
	sid := twoRodSession(t, c)
	call(t, c, "FillGap", map[string]any{"session_id": sid, "left_rod": 1, "right_rod": 2, "y": 400})

	exported := call(t, c, "Export", map[string]any{"session_id": sid})
	doc := exported["design"].(string)
	assert.Contains(t, doc, "670mm")
	assert.Contains(t, doc, "3P-22")

	opened := call(t, c, "CreateSession", map[string]any{"design": doc})
	assert.NotEqual(t, sid, opened["session_id"])
	assert.Len(t, list(opened, "rods"), 2)
	assert.Len(t, list(opened, "plates"), 1)

	empty := call(t, c, "CreateSession", map[string]any{})
	esid := empty["session_id"].(string)
	imported := call(t, c, "Import", map[string]any{"session_id": esid, "design": doc})
	assert.Len(t, list(imported, "plates"), 1)
	assert.Equal(t, true, imported["can_undo"])
}

func TestSession_ErrorCodes(t *testing.T) {
	c := startService(t, config.DefaultConfiguratorConfig(), nil, "")
	sid := twoRodSession(t, c)

	tests := []struct {
		name   string
		method string
		req    map[string]any
		want   codes.Code
	}{
		{"unknown session", "AddRod", map[string]any{"session_id": string(types.NewSessionID()), "x": 0, "y": 0, "sku": "1P"}, codes.NotFound},
		{"malformed session", "Undo", map[string]any{"session_id": "nope"}, codes.NotFound},
		{"missing field", "AddRod", map[string]any{"session_id": sid, "y": 0, "sku": "1P"}, codes.InvalidArgument},
		{"fractional mm", "AddRod", map[string]any{"session_id": sid, "x": 1.5, "y": 0, "sku": "1P"}, codes.InvalidArgument},
		{"unknown sku", "AddRod", map[string]any{"session_id": sid, "x": 1200, "y": 0, "sku": "9P"}, codes.InvalidArgument},
		{"rod overlap", "AddRod", map[string]any{"session_id": sid, "x": 0, "y": 200, "sku": "2P-2"}, codes.FailedPrecondition},
		{"unknown plate", "RemovePlate", map[string]any{"session_id": sid, "plate_id": 99}, codes.NotFound},
		{"bad direction", "ExtendPlate", map[string]any{"session_id": sid, "plate_id": 1, "direction": "up"}, codes.InvalidArgument},
		{"ghost index", "ApplyGhost", map[string]any{"session_id": sid, "index": 999}, codes.InvalidArgument},
		{"ghost kind", "ApplyGhost", map[string]any{"session_id": sid, "index": 0, "kind": "shelf"}, codes.InvalidArgument},
		{"nothing to redo", "Redo", map[string]any{"session_id": sid}, codes.FailedPrecondition},
		{"bad design", "Import", map[string]any{"session_id": sid, "design": "version = 99\n"}, codes.InvalidArgument},
		{"no store", "ListDesigns", map[string]any{}, codes.FailedPrecondition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, callCode(t, c, tt.method, tt.req))
		})
	}

	// Failed edits leave no history behind.
	resp := call(t, c, "Export", map[string]any{"session_id": sid})
	assert.Equal(t, 2, strings.Count(resp["design"].(string), "[[rod]]"))
}

func TestSession_Limit(t *testing.T) {
	cfg := config.DefaultConfiguratorConfig()
	cfg.MaxSessions = 1
	c := startService(t, cfg, nil, "")

	resp := call(t, c, "CreateSession", map[string]any{})
	assert.Equal(t, codes.ResourceExhausted, callCode(t, c, "CreateSession", map[string]any{}))

	call(t, c, "CloseSession", map[string]any{"session_id": resp["session_id"]})
	call(t, c, "CreateSession", map[string]any{})
}

func TestSession_OwnerIsolation(t *testing.T) {
	cfg := config.DefaultConfiguratorConfig()
	svc, err := NewService(engine.New(nil), nil, cfg, nil)
	require.NoError(t, err)

	alice := auth.WithOwnerID(context.Background(), "alice")
	bob := auth.WithOwnerID(context.Background(), "bob")

	created, err := svc.CreateSession(alice, mustStruct(t, map[string]any{}))
	require.NoError(t, err)
	sid := created.GetFields()["session_id"].GetStringValue()

	_, err = svc.Undo(bob, mustStruct(t, map[string]any{"session_id": sid}))
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = svc.Ghosts(alice, mustStruct(t, map[string]any{"session_id": sid}))
	assert.NoError(t, err)
}

func TestDesignStore(t *testing.T) {
	ctx := context.Background()
	database, err := db.Open("sqlite://" + filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	_, err = db.MigrateUp(database)
	require.NoError(t, err)
	q, err := db.LoadQueries(database)
	require.NoError(t, err)
	store := db.NewStore(q)
	owner, err := store.CreateOwner(ctx, "workshop")
	require.NoError(t, err)

	c := startService(t, config.DefaultConfiguratorConfig(), store, owner.ID)
	sid := twoRodSession(t, c)
	call(t, c, "FillGap", map[string]any{"session_id": sid, "left_rod": 1, "right_rod": 2, "y": 0})

	saved := call(t, c, "SaveDesign", map[string]any{"session_id": sid, "name": "hallway"})
	assert.Equal(t, float64(1), saved["revision"])
	designID := saved["design_id"].(string)

	call(t, c, "FillGap", map[string]any{"session_id": sid, "left_rod": 1, "right_rod": 2, "y": 400})
	saved = call(t, c, "SaveDesign", map[string]any{"session_id": sid, "name": "hallway"})
	assert.Equal(t, float64(2), saved["revision"])
	assert.Equal(t, designID, saved["design_id"])

	loaded := call(t, c, "LoadDesign", map[string]any{"design_id": designID})
	assert.Len(t, list(loaded, "plates"), 2)
	assert.Equal(t, false, loaded["can_undo"])

	byName := call(t, c, "LoadDesign", map[string]any{"name": "hallway"})
	assert.Len(t, list(byName, "plates"), 2)

	listed := call(t, c, "ListDesigns", map[string]any{})
	require.Len(t, list(listed, "designs"), 1)

	call(t, c, "DeleteDesign", map[string]any{"design_id": designID})
	assert.Equal(t, codes.NotFound, callCode(t, c, "LoadDesign", map[string]any{"design_id": designID}))
	assert.Equal(t, codes.InvalidArgument, callCode(t, c, "LoadDesign", map[string]any{"design_id": "not-a-uuid"}))
}

func TestSessions_Sweep(t *testing.T) {
	ss := newSessions(0, time.Hour)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	ss.now = func() time.Time { return now }

	old, err := ss.create("", nil)
	require.NoError(t, err)
	now = now.Add(45 * time.Minute)
	fresh, err := ss.create("", nil)
	require.NoError(t, err)

	now = now.Add(30 * time.Minute)
	assert.Equal(t, 1, ss.sweep())
	assert.Equal(t, 1, ss.count())

	_, err = ss.acquire("", string(old.id))
	assert.ErrorIs(t, err, errSessionNotFound)
	sess, err := ss.acquire("", string(fresh.id))
	require.NoError(t, err)
	sess.mu.Unlock()
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}
