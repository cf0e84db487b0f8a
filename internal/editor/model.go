package editor

import (
	"context"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/inkwell-dev/inkwell/internal/actions"
	"github.com/inkwell-dev/inkwell/internal/clipboard"
	"github.com/inkwell-dev/inkwell/internal/document"
	"github.com/inkwell-dev/inkwell/internal/floating"
	"github.com/inkwell-dev/inkwell/internal/logging"
	"github.com/inkwell-dev/inkwell/internal/palette"
	"github.com/inkwell-dev/inkwell/internal/selection"
	"github.com/inkwell-dev/inkwell/internal/transform"
	"github.com/inkwell-dev/inkwell/internal/upload"
)

// StatusTTL is how long a transient status message stays visible.
const StatusTTL = 4 * time.Second

// footerHeight is the status bar plus the help line.
const footerHeight = 2

// Mode is the editor's active interaction layer. At most one of the palette
// and the action workflow is active.
type Mode int

const (
	ModeEdit Mode = iota
	ModePalette
	ModeActions
	ModePrompt
	ModeManualCopy
)

func (m Mode) String() string {
	switch m {
	case ModeEdit:
		return "edit"
	case ModePalette:
		return "palette"
	case ModeActions:
		return "actions"
	case ModePrompt:
		return "prompt"
	case ModeManualCopy:
		return "manual_copy"
	default:
		return "unknown"
	}
}

type statusExpiredMsg struct {
	gen uint64
}

// Model is the bubbletea model of the editor.
type Model struct {
	opts Options
	doc  *document.Document
	keys KeyMap
	help help.Model

	caret  int
	anchor int

	width  int
	height int
	top    int

	tracker  *selection.Tracker
	palette  *palette.Palette
	workflow *actions.Workflow
	recon    *upload.Reconciler
	model    transform.Model

	aiEnabled   bool
	advisory    bool
	advisoryGen uint64
	advisoryAt  floating.Rect

	status    string
	statusGen uint64

	prompting bool
	prompt    textinput.Model
	manual    string
	spinner   spinner.Model

	ctx         context.Context
	cancel      context.CancelFunc
	unsubscribe func()
}

// New builds an editor over opts.Document.
func New(opts Options) *Model {
	if opts.Document == nil {
		opts.Document = document.New()
	}
	if opts.Trigger == "" {
		opts.Trigger = palette.DefaultTrigger
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Flag == nil {
		opts.Flag = &sessionFlag{enabled: true}
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.New(os.Stdout)
	}

	agent := opts.AgentID
	if opts.Service == nil {
		agent = ""
	}

	ti := textinput.New()
	ti.Prompt = "Image file: "
	ti.Placeholder = "path/to/picture.png"
	ti.CharLimit = 1024

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	ctx, cancel := context.WithCancel(context.Background())
	m := &Model{
		opts:    opts,
		doc:     opts.Document,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		width:   80,
		height:  24,
		tracker: selection.NewTracker(opts.Selection, opts.Flag, opts.Snooze),
		palette: palette.New(palette.DefaultRegistry(), opts.Models),
		workflow: actions.New(actions.Config{
			Service:   opts.Service,
			Doc:       opts.Document,
			Clipboard: opts.Clipboard,
			Models:    opts.Models,
			AgentID:   agent,
			Language:  opts.Language,
			Timeout:   opts.TransformTimeout,
		}),
		aiEnabled: opts.Flag.AIEnabled(),
		prompt:    ti,
		spinner:   sp,
		ctx:       ctx,
		cancel:    cancel,
	}
	if opts.Store != nil {
		m.recon = upload.New(opts.Document, opts.Store, upload.Config{Stagger: opts.Stagger})
	}
	if len(opts.Models) > 0 {
		m.model = opts.Models[0]
	}
	if opts.OnContentChange != nil {
		m.unsubscribe = m.doc.OnChange(func(s document.Snapshot) {
			data, err := s.JSON()
			if err != nil {
				logging.Error("Serializing document failed", zap.Error(err))
				return
			}
			opts.OnContentChange(data)
		})
	}
	if opts.AgentID != "" && opts.Service == nil {
		logging.Warn("Agent configured without a transform service; AI actions disabled")
	}
	return m
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return tea.SetWindowTitle("inkwell")
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.workflow.Resize(m.viewport())
		m.scrollToCaret()
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.Close()
			return m, tea.Quit
		}
		return m, m.handleKey(msg)

	case tea.MouseMsg:
		return m, m.handleMouse(msg)

	case selection.CheckMsg:
		return m, m.handleCheck(msg)

	case selection.AdvisoryExpiredMsg:
		if msg.Gen == m.advisoryGen {
			m.advisory = false
		}
		return m, nil

	case upload.Result:
		return m, m.handleUploadResult(msg)

	case assetsMsg:
		return m, m.startUploads(msg)

	case pasteMsg:
		if msg.err != nil {
			return m, m.setStatus("Clipboard unavailable: " + msg.err.Error())
		}
		return m, m.handlePastedText(msg.text, upload.OriginPaste)

	case savedMsg:
		if msg.err != nil {
			logging.Error("Save failed", zap.String("path", msg.path), zap.Error(msg.err))
			return m, m.setStatus("Save failed: " + msg.err.Error())
		}
		return m, m.setStatus("Saved " + msg.path)

	case clipboard.CopiedMsg:
		if msg.Result.Method == clipboard.MethodManual {
			m.manual = msg.Result.Text
		}
		return m, m.setStatus(msg.Result.Message())

	case statusExpiredMsg:
		if msg.gen == m.statusGen {
			m.status = ""
		}
		return m, nil

	case spinner.TickMsg:
		out, cmd := m.workflow.Update(msg)
		cmds := []tea.Cmd{cmd, m.applyOutcome(out)}
		if m.recon != nil && m.recon.InFlight() > 0 {
			var c tea.Cmd
			m.spinner, c = m.spinner.Update(msg)
			cmds = append(cmds, c)
		}
		return m, tea.Batch(cmds...)
	}

	if m.prompting {
		var cmd tea.Cmd
		m.prompt, cmd = m.prompt.Update(msg)
		return m, cmd
	}
	out, cmd := m.workflow.Update(msg)
	return m, tea.Batch(cmd, m.applyOutcome(out))
}

// Close stops background work and detaches the change listener.
func (m *Model) Close() {
	m.cancel()
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

// Mode returns the active interaction layer.
func (m *Model) Mode() Mode {
	switch {
	case m.prompting:
		return ModePrompt
	case m.manual != "":
		return ModeManualCopy
	case m.palette.IsOpen():
		return ModePalette
	case m.workflow.IsOpen():
		return ModeActions
	default:
		return ModeEdit
	}
}

// Document returns the edited document.
func (m *Model) Document() *document.Document { return m.doc }

// Caret returns the caret position.
func (m *Model) Caret() int { return m.caret }

// Selection returns the selected range, empty when nothing is selected.
func (m *Model) Selection() document.Range {
	return document.Range{From: m.anchor, To: m.caret}.Normalize()
}

// Status returns the transient status message.
func (m *Model) Status() string { return m.status }

// Palette exposes the command palette.
func (m *Model) Palette() *palette.Palette { return m.palette }

// Workflow exposes the action workflow.
func (m *Model) Workflow() *actions.Workflow { return m.workflow }

// Reconciler exposes the upload reconciler; nil without an asset store.
func (m *Model) Reconciler() *upload.Reconciler { return m.recon }

// AdvisoryVisible reports whether the "AI is off" tooltip is showing.
func (m *Model) AdvisoryVisible() bool { return m.advisory }

// AIEnabled reports the feature flag as last read or toggled.
func (m *Model) AIEnabled() bool { return m.aiEnabled }

// CurrentModel returns the model used for new transforms.
func (m *Model) CurrentModel() transform.Model { return m.model }

func (m *Model) setStatus(s string) tea.Cmd {
	if s == "" {
		return nil
	}
	m.status = s
	m.statusGen++
	gen := m.statusGen
	return tea.Tick(StatusTTL, func(time.Time) tea.Msg {
		return statusExpiredMsg{gen: gen}
	})
}

// applyOutcome reflects a workflow outcome in the editor state.
func (m *Model) applyOutcome(out actions.Outcome) tea.Cmd {
	switch out.Kind {
	case actions.OutcomeAccepted:
		m.caret, m.anchor = out.Caret, out.Caret
		m.scrollToCaret()
		return tea.Batch(m.setStatus(out.Status), m.tracker.Schedule())
	case actions.OutcomeIgnored:
		return nil
	default:
		return m.setStatus(out.Status)
	}
}

// viewport is the document area popups are placed in.
func (m *Model) viewport() floating.Viewport {
	return floating.Viewport{W: m.width, H: max(m.height-footerHeight, 1)}
}

func (m *Model) layout() layout {
	return buildLayout(m.doc.Snapshot().Blocks, m.width)
}

// screenRect converts a layout rect to viewport coordinates.
func (m *Model) screenRect(r floating.Rect) floating.Rect {
	r.Y -= m.top
	return r
}

// scrollToCaret keeps the caret row inside the document area.
func (m *Model) scrollToCaret() {
	rows := max(m.height-footerHeight, 1)
	y := m.layout().cell(m.caret).Y
	if y < m.top {
		m.top = y
	}
	if y >= m.top+rows {
		m.top = y - rows + 1
	}
}
