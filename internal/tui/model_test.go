package tui

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/solatis/shelfwright/internal/codec"
	"github.com/solatis/shelfwright/internal/engine"
	"github.com/solatis/shelfwright/internal/types"
	"github.com/solatis/shelfwright/internal/workspace"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	e := engine.New(nil)
	ws := workspace.New(e, 10)
	rod, _ := e.Catalog().RodByName("3P-22")
	err := ws.Do(func(e *engine.Engine, s *types.Shelf) error {
		if _, err := e.AddRod(s, types.Position{X: 0, Y: 0}, rod.ID); err != nil {
			return err
		}
		_, err := e.AddRod(s, types.Position{X: 600, Y: 0}, rod.ID)
		return err
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	return New(ws, filepath.Join(t.TempDir(), "design.toml"))
}

func press(t *testing.T, m Model, k tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(k)
	return next.(Model), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_CursorMovesWithinGhosts(t *testing.T) {
	m := newTestModel(t)
	n := len(m.ws.Shelf().GhostPlates)
	if n < 2 {
		t.Fatalf("need at least 2 ghosts, got %d", n)
	}

	m, _ = press(t, m, runes("k"))
	if m.Cursor != 0 {
		t.Errorf("cursor after up at top = %d, want 0", m.Cursor)
	}
	m, _ = press(t, m, runes("j"))
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if m.Cursor != 2 {
		t.Errorf("cursor after two downs = %d, want 2", m.Cursor)
	}
	for i := 0; i < n+3; i++ {
		m, _ = press(t, m, runes("j"))
	}
	if m.Cursor != n-1 {
		t.Errorf("cursor = %d, want clamped to %d", m.Cursor, n-1)
	}
}

func TestModel_ApplyUndoRedo(t *testing.T) {
	m := newTestModel(t)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.Err != nil {
		t.Fatalf("apply error = %v", m.Err)
	}
	if got := len(m.ws.Shelf().Plates); got != 1 {
		t.Fatalf("plates after apply = %d, want 1", got)
	}
	if !m.Dirty || !strings.HasPrefix(m.Status, "applied add") {
		t.Errorf("status = %q dirty=%v, want applied add", m.Status, m.Dirty)
	}

	m, _ = press(t, m, runes("u"))
	if got := len(m.ws.Shelf().Plates); got != 0 {
		t.Errorf("plates after undo = %d, want 0", got)
	}
	m, _ = press(t, m, runes("r"))
	if got := len(m.ws.Shelf().Plates); got != 1 {
		t.Errorf("plates after redo = %d, want 1", got)
	}

	m, _ = press(t, m, runes("r"))
	if !errors.Is(m.Err, workspace.ErrNothingToRedo) {
		t.Errorf("redo on empty stack err = %v, want ErrNothingToRedo", m.Err)
	}
}

func TestModel_Save(t *testing.T) {
	m := newTestModel(t)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	m, cmd := press(t, m, runes("s"))
	if cmd == nil {
		t.Fatal("save returned no command")
	}
	msg := cmd()
	saved, ok := msg.(MsgSaved)
	if !ok || saved.Err != nil {
		t.Fatalf("save msg = %#v", msg)
	}
	next, _ := m.Update(saved)
	m = next.(Model)
	if m.Dirty {
		t.Error("model still dirty after save")
	}

	d, err := codec.ReadFile(m.path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(d.Rods) != 2 || len(d.Plates) != 1 {
		t.Errorf("saved design has %d rods %d plates, want 2 and 1", len(d.Rods), len(d.Plates))
	}
}

func TestModel_Quit(t *testing.T) {
	m := newTestModel(t)
	_, cmd := press(t, m, runes("q"))
	if cmd == nil {
		t.Fatal("quit returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestModel_View(t *testing.T) {
	m := newTestModel(t)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	out := next.(Model).View()
	for _, want := range []string{"shelfwright", "2 rods, 0 plates", "enter", "apply"} {
		if !strings.Contains(out, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}
