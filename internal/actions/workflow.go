package actions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/inkwell-dev/inkwell/internal/document"
	"github.com/inkwell-dev/inkwell/internal/floating"
	"github.com/inkwell-dev/inkwell/internal/logging"
	"github.com/inkwell-dev/inkwell/internal/remote"
	"github.com/inkwell-dev/inkwell/internal/selection"
	"github.com/inkwell-dev/inkwell/internal/transform"
)

const transformService = "Transform service"

// Phase is the workflow's state.
type Phase int

const (
	PhaseClosed Phase = iota
	PhaseToolbar
	PhaseModelMenu
	PhaseInput
	PhaseProcessing
	PhaseResult
)

func (p Phase) String() string {
	switch p {
	case PhaseClosed:
		return "closed"
	case PhaseToolbar:
		return "toolbar"
	case PhaseModelMenu:
		return "model_menu"
	case PhaseInput:
		return "input"
	case PhaseProcessing:
		return "processing"
	case PhaseResult:
		return "result"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Copier delivers text to the clipboard off the UI goroutine.
type Copier interface {
	Cmd(text string) tea.Cmd
}

// Config wires a Workflow.
type Config struct {
	Service   transform.Service
	Doc       *document.Document
	Clipboard Copier
	Models    []transform.Model

	// AgentID gates the workflow; without one it never opens
	AgentID string

	// Language is the default translation target
	Language string

	// Timeout bounds one transform call
	Timeout time.Duration
}

// ResultMsg carries a transform response back to the UI loop. Seq identifies
// the submission it answers.
type ResultMsg struct {
	Seq    uint64
	Result transform.Result
	Err    error
}

// OutcomeKind says what the editor must do after the workflow handled a
// message.
type OutcomeKind int

const (
	// OutcomeIgnored means the message was not for the workflow.
	OutcomeIgnored OutcomeKind = iota
	// OutcomeHandled means the workflow consumed it.
	OutcomeHandled
	// OutcomeClosed means the workflow closed without changing anything.
	OutcomeClosed
	// OutcomeAccepted means the result replaced the captured range; Caret is
	// the position after the new text.
	OutcomeAccepted
	// OutcomeStale means Accept found the range changed and did nothing.
	OutcomeStale
	// OutcomeCopied means a clipboard copy was started and the workflow closed.
	OutcomeCopied
)

// Outcome is the result of Update.
type Outcome struct {
	Kind   OutcomeKind
	Caret  int
	Status string
}

// Workflow is the selection toolbar plus the transform dialog. It is owned
// by the UI goroutine.
type Workflow struct {
	cfg  Config
	keys KeyMap

	phase      Phase
	snap       selection.Snapshot
	vp         floating.Viewport
	index      int
	modelIndex int
	model      transform.Model
	action     transform.ActionType
	input      textinput.Model
	spinner    spinner.Model
	seq        uint64
	result     transform.Result
	banner     string
	toolbar    floating.Rect
}

// New creates a closed workflow.
func New(cfg Config) *Workflow {
	if cfg.Timeout <= 0 {
		cfg.Timeout = transform.DefaultTimeout
	}
	if cfg.Language == "" {
		cfg.Language = transform.DefaultLanguage
	}

	ti := textinput.New()
	ti.CharLimit = 500
	ti.Prompt = "› "

	s := spinner.New()
	s.Spinner = spinner.Dot

	w := &Workflow{cfg: cfg, keys: DefaultKeyMap(), input: ti, spinner: s}
	if len(cfg.Models) > 0 {
		w.model = cfg.Models[0]
	}
	return w
}

// Enabled reports whether the workflow may open at all.
func (w *Workflow) Enabled() bool { return w.cfg.AgentID != "" }

// Open shows the toolbar for snap. It returns false, leaving the workflow
// closed, when no agent is configured.
func (w *Workflow) Open(snap selection.Snapshot, vp floating.Viewport) bool {
	if !w.Enabled() {
		return false
	}
	w.phase = PhaseToolbar
	w.snap = snap
	w.vp = vp
	w.index = 0
	w.banner = ""
	w.result = transform.Result{}
	w.toolbar = floating.Toolbar(snap.Rect, w.toolbarSize(), vp)
	logging.Debug("Action toolbar opened",
		zap.Int("from", snap.Range.From),
		zap.Int("to", snap.Range.To))
	return true
}

// Close hides the workflow. A response still in flight is discarded when it
// arrives.
func (w *Workflow) Close() {
	if w.phase == PhaseClosed {
		return
	}
	w.phase = PhaseClosed
	w.seq++
	w.input.Reset()
	w.input.Blur()
	w.banner = ""
}

// Resize updates the viewport used for placement.
func (w *Workflow) Resize(vp floating.Viewport) {
	w.vp = vp
	if w.phase != PhaseClosed {
		w.toolbar = floating.Toolbar(w.snap.Rect, w.toolbarSize(), vp)
	}
}

// SetModel selects the model for later submissions.
func (w *Workflow) SetModel(m transform.Model) {
	w.model = m
}

// Update routes a message to the workflow.
func (w *Workflow) Update(msg tea.Msg) (Outcome, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return w.HandleKey(msg)
	case ResultMsg:
		return w.HandleResult(msg)
	case spinner.TickMsg:
		if w.phase != PhaseProcessing {
			return Outcome{Kind: OutcomeIgnored}, nil
		}
		var cmd tea.Cmd
		w.spinner, cmd = w.spinner.Update(msg)
		return Outcome{Kind: OutcomeHandled}, cmd
	}
	if w.phase == PhaseInput {
		var cmd tea.Cmd
		w.input, cmd = w.input.Update(msg)
		return Outcome{Kind: OutcomeIgnored}, cmd
	}
	return Outcome{Kind: OutcomeIgnored}, nil
}

// HandleKey applies a key in the current phase.
func (w *Workflow) HandleKey(msg tea.KeyMsg) (Outcome, tea.Cmd) {
	switch w.phase {
	case PhaseToolbar:
		return w.handleToolbar(msg)
	case PhaseModelMenu:
		return w.handleModelMenu(msg), nil
	case PhaseInput:
		return w.handleInput(msg)
	case PhaseProcessing:
		if key.Matches(msg, w.keys.Esc) {
			w.Close()
			return Outcome{Kind: OutcomeClosed}, nil
		}
		return Outcome{Kind: OutcomeHandled}, nil
	case PhaseResult:
		return w.handleResult(msg)
	default:
		return Outcome{Kind: OutcomeIgnored}, nil
	}
}

func (w *Workflow) handleToolbar(msg tea.KeyMsg) (Outcome, tea.Cmd) {
	n := len(transform.Actions()) + 1
	switch {
	case key.Matches(msg, w.keys.Esc):
		w.Close()
		return Outcome{Kind: OutcomeClosed}, nil
	case key.Matches(msg, w.keys.Down):
		w.index = wrap(w.index+1, n)
	case key.Matches(msg, w.keys.Up):
		w.index = wrap(w.index-1, n)
	case key.Matches(msg, w.keys.Right):
		if w.onModelEntry() {
			w.openModelMenu()
		}
	case key.Matches(msg, w.keys.Enter):
		if w.onModelEntry() {
			w.openModelMenu()
			break
		}
		return Outcome{Kind: OutcomeHandled}, w.openDialog(transform.Actions()[w.index])
	default:
		// Editing keys fall through to the editor; the selection change
		// closes or re-anchors the toolbar.
		return Outcome{Kind: OutcomeIgnored}, nil
	}
	return Outcome{Kind: OutcomeHandled}, nil
}

func (w *Workflow) handleModelMenu(msg tea.KeyMsg) Outcome {
	switch {
	case key.Matches(msg, w.keys.Esc), key.Matches(msg, w.keys.Left):
		w.phase = PhaseToolbar
	case key.Matches(msg, w.keys.Down):
		w.modelIndex = wrap(w.modelIndex+1, len(w.cfg.Models))
	case key.Matches(msg, w.keys.Up):
		w.modelIndex = wrap(w.modelIndex-1, len(w.cfg.Models))
	case key.Matches(msg, w.keys.Enter):
		if w.modelIndex < len(w.cfg.Models) {
			w.model = w.cfg.Models[w.modelIndex]
			logging.Info("Model selected",
				zap.String("provider", w.model.Provider),
				zap.String("model", w.model.ModelID))
		}
		w.phase = PhaseToolbar
		return Outcome{Kind: OutcomeHandled, Status: "Model: " + w.model.Name}
	}
	return Outcome{Kind: OutcomeHandled}
}

func (w *Workflow) handleInput(msg tea.KeyMsg) (Outcome, tea.Cmd) {
	switch {
	case key.Matches(msg, w.keys.Esc):
		w.Close()
		return Outcome{Kind: OutcomeClosed}, nil
	case key.Matches(msg, w.keys.Enter):
		return Outcome{Kind: OutcomeHandled}, w.submit()
	}
	var cmd tea.Cmd
	w.input, cmd = w.input.Update(msg)
	return Outcome{Kind: OutcomeHandled}, cmd
}

func (w *Workflow) handleResult(msg tea.KeyMsg) (Outcome, tea.Cmd) {
	switch {
	case key.Matches(msg, w.keys.Accept):
		return w.accept(), nil
	case key.Matches(msg, w.keys.Reject):
		w.phase = PhaseInput
		w.result = transform.Result{}
		w.input.Reset()
		return Outcome{Kind: OutcomeHandled}, w.input.Focus()
	case key.Matches(msg, w.keys.Copy):
		text := w.result.ProcessedText
		w.Close()
		var cmd tea.Cmd
		if w.cfg.Clipboard != nil {
			cmd = w.cfg.Clipboard.Cmd(text)
		}
		return Outcome{Kind: OutcomeCopied}, cmd
	}
	return Outcome{Kind: OutcomeHandled}, nil
}

func (w *Workflow) onModelEntry() bool {
	return w.index == len(transform.Actions())
}

func (w *Workflow) openModelMenu() {
	if len(w.cfg.Models) == 0 {
		return
	}
	w.phase = PhaseModelMenu
	w.modelIndex = 0
	for i, m := range w.cfg.Models {
		if m == w.model {
			w.modelIndex = i
			break
		}
	}
}

func (w *Workflow) openDialog(a transform.ActionType) tea.Cmd {
	w.action = a
	w.phase = PhaseInput
	w.banner = ""
	w.input.Reset()
	w.input.Placeholder = a.Placeholder()
	return tea.Batch(w.input.Focus(), textinput.Blink)
}

// submit issues exactly one transform call for the current input.
func (w *Workflow) submit() tea.Cmd {
	instr := w.input.Value()
	req := transform.Request{
		AgentID:     w.cfg.AgentID,
		Text:        w.snap.Text,
		Action:      w.action,
		Instruction: instr,
		Model:       w.model.Hint(),
	}
	if w.action == transform.ActionTranslate {
		req.Language = LanguageFromInstruction(instr, w.cfg.Language)
	}

	w.seq++
	w.phase = PhaseProcessing
	w.banner = ""
	w.input.Blur()
	logging.LogTransform(w.action.String(), "submitted",
		zap.Uint64("seq", w.seq),
		zap.Int("chars", len([]rune(req.Text))))
	return tea.Batch(w.request(w.seq, req), w.spinner.Tick)
}

func (w *Workflow) request(seq uint64, req transform.Request) tea.Cmd {
	svc, timeout := w.cfg.Service, w.cfg.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		res, err := svc.Transform(ctx, req)
		if err != nil {
			var rErr *remote.Error
			if !errors.As(err, &rErr) {
				err = remote.ClassifyNetworkError(err, transformService)
			}
		}
		return ResultMsg{Seq: seq, Result: res, Err: err}
	}
}

// HandleResult applies a transform response. Responses to an older
// submission, or arriving after close, are dropped.
func (w *Workflow) HandleResult(msg ResultMsg) (Outcome, tea.Cmd) {
	if msg.Seq != w.seq || w.phase != PhaseProcessing {
		logging.Debug("Discarding stale transform response",
			zap.Uint64("seq", msg.Seq),
			zap.Uint64("current", w.seq))
		return Outcome{Kind: OutcomeIgnored}, nil
	}
	if msg.Err != nil {
		logging.LogTransform(w.action.String(), "failed", zap.Error(msg.Err))
		w.phase = PhaseInput
		w.banner = remote.ShortMessage(msg.Err)
		return Outcome{Kind: OutcomeHandled}, w.input.Focus()
	}
	logging.LogTransform(w.action.String(), "completed", zap.Uint64("seq", msg.Seq))
	w.result = msg.Result
	w.phase = PhaseResult
	return Outcome{Kind: OutcomeHandled}, nil
}

// accept replaces the captured range with the result in one transaction,
// provided the range still holds the text it held at open time.
func (w *Workflow) accept() Outcome {
	snap, text, action := w.snap, w.result.ProcessedText, w.action
	stale := false
	caret := 0
	_, err := w.cfg.Doc.Apply(func(tx *document.Tx) error {
		if snap.Range.To > tx.Len() || tx.TextRange(snap.Range) != snap.Text {
			stale = true
			return nil
		}
		caret = tx.Replace(snap.Range, text)
		return nil
	})
	w.Close()

	switch {
	case err != nil:
		logging.Error("Applying transform result failed", zap.Error(err))
		return Outcome{Kind: OutcomeStale, Status: "Could not apply the result: " + err.Error()}
	case stale:
		logging.LogTransform(action.String(), "stale")
		return Outcome{Kind: OutcomeStale, Status: "The text changed; select it again"}
	default:
		logging.LogTransform(action.String(), "accepted", zap.Int("caret", caret))
		return Outcome{Kind: OutcomeAccepted, Caret: caret, Status: action.Label() + " applied"}
	}
}

// IsOpen reports whether any part of the workflow is showing.
func (w *Workflow) IsOpen() bool { return w.phase != PhaseClosed }

// Phase returns the current phase.
func (w *Workflow) Phase() Phase { return w.phase }

// Snapshot returns the selection captured at open time.
func (w *Workflow) Snapshot() selection.Snapshot { return w.snap }

// Index returns the highlighted toolbar entry.
func (w *Workflow) Index() int { return w.index }

// ModelIndex returns the highlighted submenu entry.
func (w *Workflow) ModelIndex() int { return w.modelIndex }

// Model returns the selected model.
func (w *Workflow) Model() transform.Model { return w.model }

// Action returns the action chosen in the toolbar.
func (w *Workflow) Action() transform.ActionType { return w.action }

// Instruction returns the text typed in the dialog.
func (w *Workflow) Instruction() string { return w.input.Value() }

// Banner returns the inline error shown in the Input phase.
func (w *Workflow) Banner() string { return w.banner }

// Result returns the response shown in the Result phase.
func (w *Workflow) Result() transform.Result { return w.result }

// Keys returns the key bindings.
func (w *Workflow) Keys() KeyMap { return w.keys }

// ToolbarRect is the toolbar's screen rect, fixed at open time.
func (w *Workflow) ToolbarRect() floating.Rect { return w.toolbar }

func (w *Workflow) toolbarSize() floating.Size {
	width := len([]rune(w.modelLabel()))
	for _, a := range transform.Actions() {
		width = max(width, len([]rune(a.Label())))
	}
	return floating.Size{W: width + 6, H: len(transform.Actions()) + 3}
}

func (w *Workflow) modelLabel() string {
	name := w.model.Name
	if name == "" {
		name = "default"
	}
	return "Model: " + name + " ▸"
}

// wrap returns i modulo n in [0, n), or 0 for an empty list.
func wrap(i, n int) int {
	if n <= 0 {
		return 0
	}
	return ((i % n) + n) % n
}
