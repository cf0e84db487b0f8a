package palette

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/inkwell-dev/inkwell/internal/document"
	"github.com/inkwell-dev/inkwell/internal/floating"
	"github.com/inkwell-dev/inkwell/internal/logging"
	"github.com/inkwell-dev/inkwell/internal/transform"
)

// DefaultTrigger opens the palette when typed at the start of an empty line.
const DefaultTrigger = "/"

// State is the palette's mode.
type State int

const (
	StateClosed State = iota
	StatePrimary
	StateSubmenu
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StatePrimary:
		return "primary"
	case StateSubmenu:
		return "submenu"
	default:
		return "unknown"
	}
}

// OutcomeKind says what the editor must do after a key was handled.
type OutcomeKind int

const (
	// OutcomeIgnored means the key is not a palette key; edit as usual.
	OutcomeIgnored OutcomeKind = iota
	// OutcomeHandled means the palette consumed the key.
	OutcomeHandled
	// OutcomeClosed means the palette closed without running anything.
	OutcomeClosed
	// OutcomeExecute means delete Span, then Execute Command.
	OutcomeExecute
	// OutcomeSelectModel means delete Span, then SetModel(Model).
	OutcomeSelectModel
)

// Outcome is the result of HandleKey.
type Outcome struct {
	Kind    OutcomeKind
	Command Descriptor
	Model   transform.Model
	Span    document.Range
}

// KeyMap defines the palette key bindings
type KeyMap struct {
	Up    key.Binding
	Down  key.Binding
	Right key.Binding
	Left  key.Binding
	Enter key.Binding
	Esc   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Right, k.Enter, k.Esc}
}

// FullHelp returns keybindings for the expanded help view
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), {k.Left}}
}

// DefaultKeyMap returns the default palette bindings.
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
			key.WithHelp("→", "submenu"),
		),
		Left: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("←", "back"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "run"),
		),
		Esc: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		),
	}
}

// Palette is the slash command menu. It is owned by the UI goroutine.
type Palette struct {
	registry Registry
	models   []transform.Model
	keys     KeyMap

	state      State
	query      string
	items      []Descriptor
	index      int
	subIndex   int
	triggerPos int
	rect       floating.Rect
}

// New creates a closed palette over registry with the given model list.
func New(registry Registry, models []transform.Model) *Palette {
	m := make([]transform.Model, len(models))
	copy(m, models)
	return &Palette{registry: registry, models: m, keys: DefaultKeyMap()}
}

// ShouldOpen reports whether typing typed at offset off of block opens the
// palette: the trigger typed at the start of an empty text line.
func ShouldOpen(block document.Node, off int, typed, trigger string) bool {
	if trigger == "" {
		trigger = DefaultTrigger
	}
	return typed == trigger && off == 0 && block.Text == "" && !block.Kind.IsAtom() && block.Kind != document.KindCodeBlock
}

// Open shows the primary menu for a trigger inserted at triggerPos. anchor is
// the trigger's screen rect; the popup rect is placed once, here.
func (p *Palette) Open(triggerPos int, anchor floating.Rect, vp floating.Viewport) {
	p.state = StatePrimary
	p.triggerPos = triggerPos
	p.query = ""
	p.items = p.registry.All()
	p.index = 0
	p.subIndex = 0
	p.rect = floating.Place(anchor, p.size(), vp, floating.Options{OffsetY: 1, Margin: 1})
	logging.Debug("Palette opened", zap.Int("pos", triggerPos))
}

// Close hides the palette.
func (p *Palette) Close() {
	if p.state == StateClosed {
		return
	}
	p.state = StateClosed
	p.query = ""
	p.items = nil
	p.index = 0
	p.subIndex = 0
}

// SetQuery refilters for the text typed after the trigger.
func (p *Palette) SetQuery(q string) {
	if p.state == StateClosed {
		return
	}
	p.query = q
	p.items = p.registry.Filter(q)
	p.index = 0
	if p.state == StateSubmenu {
		p.state = StatePrimary
	}
}

// HandleKey applies a navigation key.
func (p *Palette) HandleKey(msg tea.KeyMsg) Outcome {
	switch p.state {
	case StatePrimary:
		return p.handlePrimary(msg)
	case StateSubmenu:
		return p.handleSubmenu(msg)
	default:
		return Outcome{Kind: OutcomeIgnored}
	}
}

func (p *Palette) handlePrimary(msg tea.KeyMsg) Outcome {
	switch {
	case key.Matches(msg, p.keys.Esc):
		p.Close()
		return Outcome{Kind: OutcomeClosed}
	case key.Matches(msg, p.keys.Down):
		p.index = wrap(p.index+1, len(p.items))
		return Outcome{Kind: OutcomeHandled}
	case key.Matches(msg, p.keys.Up):
		p.index = wrap(p.index-1, len(p.items))
		return Outcome{Kind: OutcomeHandled}
	case key.Matches(msg, p.keys.Right):
		if d, ok := p.Selected(); ok && d.HasSubmenu {
			p.openSubmenu()
		}
		return Outcome{Kind: OutcomeHandled}
	case key.Matches(msg, p.keys.Enter):
		d, ok := p.Selected()
		if !ok {
			return Outcome{Kind: OutcomeHandled}
		}
		if d.HasSubmenu {
			p.openSubmenu()
			return Outcome{Kind: OutcomeHandled}
		}
		out := Outcome{Kind: OutcomeExecute, Command: d, Span: p.Span()}
		p.Close()
		return out
	}
	return Outcome{Kind: OutcomeIgnored}
}

func (p *Palette) handleSubmenu(msg tea.KeyMsg) Outcome {
	switch {
	case key.Matches(msg, p.keys.Esc), key.Matches(msg, p.keys.Left):
		p.state = StatePrimary
		return Outcome{Kind: OutcomeHandled}
	case key.Matches(msg, p.keys.Down):
		p.subIndex = wrap(p.subIndex+1, len(p.models))
		return Outcome{Kind: OutcomeHandled}
	case key.Matches(msg, p.keys.Up):
		p.subIndex = wrap(p.subIndex-1, len(p.models))
		return Outcome{Kind: OutcomeHandled}
	case key.Matches(msg, p.keys.Enter):
		m, ok := p.SelectedModel()
		if !ok {
			return Outcome{Kind: OutcomeHandled}
		}
		out := Outcome{Kind: OutcomeSelectModel, Model: m, Span: p.Span()}
		p.Close()
		return out
	}
	// Typing while the submenu is open still edits the query.
	return Outcome{Kind: OutcomeIgnored}
}

func (p *Palette) openSubmenu() {
	p.state = StateSubmenu
	p.subIndex = 0
}

// ClickOutside closes the palette when pt is outside its rect. It reports
// whether the palette closed.
func (p *Palette) ClickOutside(pt floating.Point) bool {
	if p.state == StateClosed || p.rect.Contains(pt) {
		return false
	}
	p.Close()
	return true
}

// Selected returns the highlighted descriptor.
func (p *Palette) Selected() (Descriptor, bool) {
	if p.index < 0 || p.index >= len(p.items) {
		return Descriptor{}, false
	}
	return p.items[p.index], true
}

// SelectedModel returns the highlighted submenu model.
func (p *Palette) SelectedModel() (transform.Model, bool) {
	if p.subIndex < 0 || p.subIndex >= len(p.models) {
		return transform.Model{}, false
	}
	return p.models[p.subIndex], true
}

// Span is the document range holding the trigger and the query.
func (p *Palette) Span() document.Range {
	return document.Range{From: p.triggerPos, To: p.triggerPos + 1 + len([]rune(p.query))}
}

// IsOpen reports whether the palette is showing.
func (p *Palette) IsOpen() bool { return p.state != StateClosed }
func (p *Palette) State() State { return p.state }
func (p *Palette) Query() string { return p.query }
func (p *Palette) Items() []Descriptor { return p.items }
func (p *Palette) Index() int { return p.index }
func (p *Palette) SubIndex() int { return p.subIndex }
func (p *Palette) Models() []transform.Model { return p.models }
func (p *Palette) TriggerPos() int { return p.triggerPos }
func (p *Palette) Rect() floating.Rect { return p.rect }
func (p *Palette) Keys() KeyMap { return p.keys }

// size is the popup size: the widest entry plus borders, one row per entry.
func (p *Palette) size() floating.Size {
	w := 0
	for _, d := range p.registry.items {
		if n := len([]rune(d.DisplayName)) + len([]rune(d.Description)) + 3; n > w {
			w = n
		}
	}
	for _, m := range p.models {
		if n := len([]rune(m.Name)) + 2; n > w {
			w = n
		}
	}
	return floating.Size{W: w + 4, H: p.registry.Len() + 2}
}

// wrap returns i modulo n in [0, n), or 0 for an empty list.
func wrap(i, n int) int {
	if n <= 0 {
		return 0
	}
	return ((i % n) + n) % n
}
