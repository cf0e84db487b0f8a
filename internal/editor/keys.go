package editor

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the editing key bindings
type KeyMap struct {
	Left      key.Binding
	Right     key.Binding
	Up        key.Binding
	Down      key.Binding
	Home      key.Binding
	End       key.Binding
	SelLeft   key.Binding
	SelRight  key.Binding
	SelUp     key.Binding
	SelDown   key.Binding
	Backspace key.Binding
	Delete    key.Binding
	Enter     key.Binding
	Paste     key.Binding
	Pick      key.Binding
	Retry     key.Binding
	Save      key.Binding
	ToggleAI  key.Binding
	Snooze    key.Binding
	Dismiss   key.Binding
	Quit      key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Paste, k.Pick, k.Save, k.ToggleAI, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Up, k.Down, k.Home, k.End},
		{k.SelLeft, k.SelRight, k.SelUp, k.SelDown},
		{k.Paste, k.Pick, k.Retry, k.Save, k.ToggleAI, k.Quit},
	}
}

// DefaultKeyMap returns the default editor bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Left:      key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "left")),
		Right:     key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "right")),
		Up:        key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "up")),
		Down:      key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "down")),
		Home:      key.NewBinding(key.WithKeys("home", "ctrl+a"), key.WithHelp("home", "line start")),
		End:       key.NewBinding(key.WithKeys("end", "ctrl+e"), key.WithHelp("end", "line end")),
		SelLeft:   key.NewBinding(key.WithKeys("shift+left"), key.WithHelp("⇧←", "select")),
		SelRight:  key.NewBinding(key.WithKeys("shift+right"), key.WithHelp("⇧→", "select")),
		SelUp:     key.NewBinding(key.WithKeys("shift+up"), key.WithHelp("⇧↑", "select")),
		SelDown:   key.NewBinding(key.WithKeys("shift+down"), key.WithHelp("⇧↓", "select")),
		Backspace: key.NewBinding(key.WithKeys("backspace", "ctrl+h")),
		Delete:    key.NewBinding(key.WithKeys("delete", "ctrl+d")),
		Enter:     key.NewBinding(key.WithKeys("enter")),
		Paste:     key.NewBinding(key.WithKeys("ctrl+v"), key.WithHelp("ctrl+v", "paste")),
		Pick:      key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "image")),
		Retry:     key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "retry uploads")),
		Save:      key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		ToggleAI:  key.NewBinding(key.WithKeys("ctrl+g"), key.WithHelp("ctrl+g", "toggle AI")),
		Snooze:    key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "don't show again")),
		Dismiss:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "dismiss")),
		Quit:      key.NewBinding(key.WithKeys("ctrl+c", "ctrl+q"), key.WithHelp("ctrl+c", "quit")),
	}
}
