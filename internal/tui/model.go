// Package tui is the terminal shelf editor: an elevation of the design, the
// ranked ghost suggestions with a cursor, and single-key apply, undo, redo
// and save.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/solatis/shelfwright/internal/codec"
	"github.com/solatis/shelfwright/internal/engine"
	"github.com/solatis/shelfwright/internal/render"
	"github.com/solatis/shelfwright/internal/types"
	"github.com/solatis/shelfwright/internal/workspace"
)

// MsgSaved reports the result of writing the design file.
type MsgSaved struct {
	Path string
	Err  error
}

// Model is the editor state.
type Model struct {
	ws     *workspace.Workspace
	path   string
	keys   KeyMap
	Cursor int
	Dirty  bool
	Status string
	Err    error
	Width  int
	Height int
}

// New creates an editor over ws that saves to path.
func New(ws *workspace.Workspace, path string) Model {
	return Model{
		ws:     ws,
		path:   path,
		keys:   DefaultKeyMap(),
		Status: "ready",
	}
}

// Workspace exposes the edited workspace.
func (m Model) Workspace() *workspace.Workspace { return m.ws }

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		return m, nil

	case MsgSaved:
		if msg.Err != nil {
			m.Err = msg.Err
			return m, nil
		}
		m.Err = nil
		m.Dirty = false
		m.Status = "saved " + msg.Path
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ghosts := m.ws.Shelf().GhostPlates

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.Cursor > 0 {
			m.Cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.Cursor < len(ghosts)-1 {
			m.Cursor++
		}

	case key.Matches(msg, m.keys.Apply):
		if len(ghosts) == 0 {
			m.Status = "no suggestion to apply"
			return m, nil
		}
		g := ghosts[m.Cursor]
		m.edit(fmt.Sprintf("applied %s at y=%d", g.Kind, g.Y), func(e *engine.Engine, s *types.Shelf) error {
			_, err := e.ApplyGhostPlate(s, g)
			return err
		})

	case key.Matches(msg, m.keys.MergeRod):
		rods := m.ws.Shelf().GhostRods
		if len(rods) == 0 {
			m.Status = "no rods to merge"
			return m, nil
		}
		g := rods[0]
		m.edit(fmt.Sprintf("merged rods %d and %d", g.BottomRodID, g.TopRodID), func(e *engine.Engine, s *types.Shelf) error {
			_, err := e.ApplyGhostRod(s, g)
			return err
		})

	case key.Matches(msg, m.keys.Undo):
		m.step("undone", m.ws.Undo)

	case key.Matches(msg, m.keys.Redo):
		m.step("redone", m.ws.Redo)

	case key.Matches(msg, m.keys.Save):
		return m, m.save()
	}
	return m, nil
}

func (m *Model) edit(done string, action func(e *engine.Engine, s *types.Shelf) error) {
	if err := m.ws.Do(action); err != nil {
		m.Err = err
		return
	}
	m.Err = nil
	m.Dirty = true
	m.Status = done
	m.clampCursor()
}

func (m *Model) step(done string, fn func() error) {
	if err := fn(); err != nil {
		m.Err = err
		return
	}
	m.Err = nil
	m.Dirty = true
	m.Status = done
	m.clampCursor()
}

func (m *Model) clampCursor() {
	n := len(m.ws.Shelf().GhostPlates)
	if m.Cursor >= n {
		m.Cursor = max(n-1, 0)
	}
}

// save encodes now and writes in the command, so later edits cannot race
// the write.
func (m Model) save() tea.Cmd {
	path := m.path
	d, err := m.ws.Design()
	return func() tea.Msg {
		if err != nil {
			return MsgSaved{Path: path, Err: err}
		}
		return MsgSaved{Path: path, Err: codec.WriteFile(path, d)}
	}
}

func (m Model) View() string {
	s := m.ws.Shelf()
	cat := m.ws.Engine().Catalog()

	opt := render.DefaultOptions()
	opt.Ghosts = s.GhostPlates
	opt.Selected = m.Cursor

	title := styleTitle.Render("shelfwright") + "  " + m.path
	if m.Dirty {
		title += " *"
	}

	sections := []string{
		title,
		render.Elevation(s, cat, opt),
		"",
		render.GhostList(s.GhostPlates, cat, m.Cursor),
	}
	if len(s.GhostRods) > 0 {
		sections = append(sections, render.GhostRodList(s.GhostRods, cat))
	}
	sections = append(sections, "", m.statusBar(), m.footer())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) statusBar() string {
	text := styleOK.Render(m.Status)
	if m.Err != nil {
		text = styleError.Render(m.Err.Error())
	}
	bar := render.Summary(m.ws.Shelf()) + "  " + text
	if m.Width > 0 {
		return styleStatusBar.Width(m.Width).Render(bar)
	}
	return styleStatusBar.Render(bar)
}

func (m Model) footer() string {
	var parts []string
	for _, b := range m.keys.bindings() {
		h := b.Help()
		parts = append(parts, styleFooterKey.Render(h.Key)+" "+styleFooterDesc.Render(h.Desc))
	}
	return strings.Join(parts, "  ")
}

// Run opens the editor full-screen and blocks until it exits.
func Run(ws *workspace.Workspace, path string, opts ...tea.ProgramOption) error {
	all := append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	if _, err := tea.NewProgram(New(ws, path), all...).Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
