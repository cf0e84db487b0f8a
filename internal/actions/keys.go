package actions

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the toolbar and dialog key bindings
type KeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Right  key.Binding
	Left   key.Binding
	Enter  key.Binding
	Esc    key.Binding
	Accept key.Binding
	Reject key.Binding
	Copy   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Enter, k.Esc}
}

// FullHelp returns keybindings for the expanded help view
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), {k.Right, k.Left}, {k.Accept, k.Reject, k.Copy}}
}

// ResultHelp returns the bindings offered while a result is shown.
func (k KeyMap) ResultHelp() []key.Binding {
	return []key.Binding{k.Accept, k.Reject, k.Copy}
}

// DefaultKeyMap returns the default workflow bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "ctrl+p"),
			key.WithHelp("↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "ctrl+n"),
			key.WithHelp("↓", "down"),
		),
		Right: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("→", "models"),
		),
		Left: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("←", "back"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Esc: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		),
		Accept: key.NewBinding(
			key.WithKeys("enter", "a"),
			key.WithHelp("a", "accept"),
		),
		Reject: key.NewBinding(
			key.WithKeys("r", "esc"),
			key.WithHelp("r", "retry"),
		),
		Copy: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "copy"),
		),
	}
}
