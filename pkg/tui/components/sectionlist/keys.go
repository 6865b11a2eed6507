package sectionlist

import (
	"github.com/charmbracelet/bubbles/v2/key"

	"tableflip.dev/declist/pkg/descriptor"
)

// ActionBinding dispatches Action to the row under the cursor.
type ActionBinding struct {
	Binding key.Binding
	Action  descriptor.Action
}

// KeyMap holds the navigation and dispatch bindings of the list.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding
	Select   key.Binding
	Actions  []ActionBinding
}

// DefaultKeyMap returns vim-style navigation with enter and space to select.
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
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "b"),
			key.WithHelp("pgup/b", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "f"),
			key.WithHelp("pgdn/f", "page down"),
		),
		Home: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("g", "top"),
		),
		End: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("G", "bottom"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter", "space", " "),
			key.WithHelp("enter", "select"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	bindings := []key.Binding{k.Up, k.Down, k.Select}
	for _, a := range k.Actions {
		bindings = append(bindings, a.Binding)
	}
	return bindings
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	actions := make([]key.Binding, 0, len(k.Actions))
	for _, a := range k.Actions {
		actions = append(actions, a.Binding)
	}
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown},
		{k.Home, k.End, k.Select},
		actions,
	}
}
