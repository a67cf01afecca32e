package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the editor keybindings.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Apply    key.Binding
	MergeRod key.Binding
	Undo     key.Binding
	Redo     key.Binding
	Save     key.Binding
	Quit     key.Binding
}

// DefaultKeyMap returns the default keybinding configuration.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Apply: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "apply"),
		),
		MergeRod: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "merge rods"),
		),
		Undo: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "undo"),
		),
		Redo: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "redo"),
		),
		Save: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "save"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k KeyMap) bindings() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Apply, k.MergeRod, k.Undo, k.Redo, k.Save, k.Quit}
}
