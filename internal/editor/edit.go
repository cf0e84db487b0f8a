package editor

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/inkwell-dev/inkwell/internal/actions"
	"github.com/inkwell-dev/inkwell/internal/document"
	"github.com/inkwell-dev/inkwell/internal/floating"
	"github.com/inkwell-dev/inkwell/internal/logging"
	"github.com/inkwell-dev/inkwell/internal/palette"
	"github.com/inkwell-dev/inkwell/internal/selection"
	"github.com/inkwell-dev/inkwell/internal/transform"
	"github.com/inkwell-dev/inkwell/internal/upload"
)

// handleKey routes a key through the modal layers, then to editing.
func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.prompting {
		return m.handlePromptKey(msg)
	}
	if m.manual != "" {
		m.manual = ""
		return nil
	}

	if m.palette.IsOpen() {
		out := m.palette.HandleKey(msg)
		switch out.Kind {
		case palette.OutcomeHandled, palette.OutcomeClosed:
			return nil
		case palette.OutcomeExecute, palette.OutcomeSelectModel:
			return m.runCommand(out)
		}
		cmd := m.edit(msg)
		m.syncPalette()
		return cmd
	}

	if m.workflow.IsOpen() {
		out, cmd := m.workflow.HandleKey(msg)
		if out.Kind != actions.OutcomeIgnored {
			return tea.Batch(cmd, m.applyOutcome(out))
		}
	}

	if m.advisory {
		switch {
		case key.Matches(msg, m.keys.Snooze):
			m.advisory = false
			if err := m.tracker.Snooze(m.opts.Now()); err != nil {
				logging.Warn("Persisting snooze failed", zap.Error(err))
				return m.setStatus("Could not save the setting: " + err.Error())
			}
			return m.setStatus("AI hint hidden for 30 days")
		case key.Matches(msg, m.keys.Dismiss):
			m.advisory = false
			return nil
		}
	}

	return m.edit(msg)
}

// edit applies an edit-mode key.
func (m *Model) edit(msg tea.KeyMsg) tea.Cmd {
	if msg.Paste {
		return m.handlePastedText(string(msg.Runes), upload.OriginDrop)
	}

	switch {
	case key.Matches(msg, m.keys.Paste):
		return readClipboard
	case key.Matches(msg, m.keys.Pick):
		m.PromptImagePath()
		return textinput.Blink
	case key.Matches(msg, m.keys.Retry):
		return m.retryUploads()
	case key.Matches(msg, m.keys.Save):
		return m.save()
	case key.Matches(msg, m.keys.ToggleAI):
		return m.toggleAI()

	case key.Matches(msg, m.keys.Left):
		if sel := m.Selection(); !sel.Empty() {
			m.moveTo(sel.From, false)
		} else {
			m.moveTo(m.caret-1, false)
		}
	case key.Matches(msg, m.keys.Right):
		if sel := m.Selection(); !sel.Empty() {
			m.moveTo(sel.To, false)
		} else {
			m.moveTo(m.caret+1, false)
		}
	case key.Matches(msg, m.keys.Up):
		m.moveVertical(-1, false)
	case key.Matches(msg, m.keys.Down):
		m.moveVertical(1, false)
	case key.Matches(msg, m.keys.SelLeft):
		m.moveTo(m.caret-1, true)
	case key.Matches(msg, m.keys.SelRight):
		m.moveTo(m.caret+1, true)
	case key.Matches(msg, m.keys.SelUp):
		m.moveVertical(-1, true)
	case key.Matches(msg, m.keys.SelDown):
		m.moveVertical(1, true)
	case key.Matches(msg, m.keys.Home):
		lay := m.layout()
		m.moveTo(lay.lines[lay.lineOf(m.caret)].start, false)
	case key.Matches(msg, m.keys.End):
		lay := m.layout()
		l := lay.lines[lay.lineOf(m.caret)]
		end := l.start + l.length()
		if !l.last {
			end--
		}
		m.moveTo(end, false)

	case key.Matches(msg, m.keys.Backspace):
		sel := m.Selection()
		if sel.Empty() && m.caret > 0 {
			sel = document.Range{From: m.caret - 1, To: m.caret}
		}
		m.deleteRange(sel)
	case key.Matches(msg, m.keys.Delete):
		sel := m.Selection()
		if sel.Empty() && m.caret < m.doc.Snapshot().Len() {
			sel = document.Range{From: m.caret, To: m.caret + 1}
		}
		m.deleteRange(sel)
	case key.Matches(msg, m.keys.Enter):
		m.splitBlock()

	case msg.Type == tea.KeyRunes:
		m.typeText(string(msg.Runes))
	case msg.Type == tea.KeySpace:
		m.typeText(" ")
	case msg.Type == tea.KeyTab:
		m.typeText("    ")

	default:
		return nil
	}

	m.scrollToCaret()
	return m.tracker.Schedule()
}

func (m *Model) clamp(pos int) int {
	return min(max(pos, 0), m.doc.Snapshot().Len())
}

// moveTo moves the caret; extend keeps the selection anchor.
func (m *Model) moveTo(pos int, extend bool) {
	m.caret = m.clamp(pos)
	if !extend {
		m.anchor = m.caret
	}
}

func (m *Model) moveVertical(dy int, extend bool) {
	lay := m.layout()
	c := lay.cell(m.caret)
	target := c.Y + dy
	switch {
	case target < 0:
		m.moveTo(0, extend)
	case target >= len(lay.lines):
		m.moveTo(m.doc.Snapshot().Len(), extend)
	default:
		m.moveTo(lay.pos(floating.Point{X: c.X, Y: target}), extend)
	}
}

// typeText inserts typed text over the selection. The palette trigger typed
// at the start of an empty line opens the palette.
func (m *Model) typeText(text string) {
	sel := m.Selection()
	snap := m.doc.Snapshot()
	idx, off := snap.Blocks.Locate(sel.From)
	opening := sel.Empty() &&
		!m.palette.IsOpen() &&
		palette.ShouldOpen(snap.Blocks[idx], off, text, m.opts.Trigger)

	m.replace(sel, text)

	if opening {
		m.workflow.Close()
		lay := m.layout()
		c := lay.cell(sel.From)
		anchor := m.screenRect(floating.Rect{X: c.X, Y: c.Y, W: 1, H: 1})
		m.palette.Open(sel.From, anchor, m.viewport())
	}
}

// replace swaps r for text in one transaction and puts the caret after it.
func (m *Model) replace(r document.Range, text string) {
	caret := r.From
	_, err := m.doc.Apply(func(tx *document.Tx) error {
		if !r.Empty() {
			tx.Delete(r)
		}
		caret = tx.InsertText(r.From, text)
		return nil
	})
	if err != nil {
		logging.Error("Edit failed", zap.Error(err))
		return
	}
	m.caret, m.anchor = caret, caret
}

func (m *Model) deleteRange(r document.Range) {
	if r.Empty() {
		return
	}
	if _, err := m.doc.Apply(func(tx *document.Tx) error {
		tx.Delete(r)
		return nil
	}); err != nil {
		logging.Error("Delete failed", zap.Error(err))
		return
	}
	m.caret = m.clamp(r.From)
	m.anchor = m.caret
}

func (m *Model) splitBlock() {
	sel := m.Selection()
	caret := sel.From
	if _, err := m.doc.Apply(func(tx *document.Tx) error {
		if !sel.Empty() {
			tx.Delete(sel)
		}
		caret = tx.SplitBlock(sel.From)
		return nil
	}); err != nil {
		logging.Error("Split failed", zap.Error(err))
		return
	}
	m.caret, m.anchor = caret, caret
}

// syncPalette refreshes the palette query from the text after the trigger,
// closing it when the trigger is gone, a space was typed or the caret left
// the query. The query runs to the end of the trigger's block wherever the
// caret sits inside it.
func (m *Model) syncPalette() {
	if !m.palette.IsOpen() {
		return
	}
	snap := m.doc.Snapshot()
	tp := m.palette.TriggerPos()
	trigger := document.Range{From: tp, To: tp + 1}
	if m.caret <= tp || snap.TextRange(trigger) != m.opts.Trigger {
		m.palette.Close()
		return
	}
	idx, _ := snap.Blocks.Locate(tp)
	end := snap.Blocks.Start(idx) + utf8.RuneCountInString(snap.Blocks[idx].Text)
	if m.caret > end {
		m.palette.Close()
		return
	}
	q := snap.TextRange(document.Range{From: tp + 1, To: end})
	if strings.ContainsAny(q, " \n\t") {
		m.palette.Close()
		return
	}
	if q != m.palette.Query() {
		m.palette.SetQuery(q)
	}
}

// runCommand deletes the trigger and query, then runs the palette outcome.
func (m *Model) runCommand(out palette.Outcome) tea.Cmd {
	m.deleteRange(out.Span)
	switch out.Kind {
	case palette.OutcomeSelectModel:
		m.SetModel(out.Model)
		return m.setStatus("Model: " + out.Model.Name)
	default:
		logging.Debug("Palette command", zap.Stringer("command", out.Command.ID))
		if err := palette.Execute(out.Command.ID, m); err != nil {
			return m.setStatus(err.Error())
		}
		if m.prompting {
			return textinput.Blink
		}
		m.scrollToCaret()
		return nil
	}
}

// SetBlockKind implements palette.EditorContext.
func (m *Model) SetBlockKind(kind document.Kind, level int) error {
	caret := m.caret
	_, err := m.doc.Apply(func(tx *document.Tx) error {
		idx, _ := tx.Blocks().Locate(caret)
		return tx.SetKind(idx, kind, level)
	})
	return err
}

// InsertDivider implements palette.EditorContext.
func (m *Model) InsertDivider() error {
	caret := m.caret
	_, err := m.doc.Apply(func(tx *document.Tx) error {
		caret = tx.InsertBlocks(caret, document.Divider())
		return nil
	})
	if err != nil {
		return err
	}
	m.caret, m.anchor = caret, caret
	return nil
}

// PromptImagePath implements palette.EditorContext.
func (m *Model) PromptImagePath() {
	if m.recon == nil {
		m.status = "No asset store configured"
		return
	}
	m.workflow.Close()
	m.prompting = true
	m.prompt.Reset()
	m.prompt.Focus()
}

// SetModel implements palette.EditorContext.
func (m *Model) SetModel(model transform.Model) {
	m.model = model
	m.workflow.SetModel(model)
	logging.Info("Model selected", zap.String("provider", model.Provider), zap.String("model", model.ModelID))
}

func (m *Model) handlePromptKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.prompting = false
		m.prompt.Blur()
		return nil
	case tea.KeyEnter:
		path := strings.TrimSpace(m.prompt.Value())
		m.prompting = false
		m.prompt.Blur()
		if path == "" {
			return nil
		}
		return loadAssets([]string{cleanPath(path)}, upload.OriginPick)
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return cmd
}

// toggleAI flips the feature flag and persists it when the flag supports it.
func (m *Model) toggleAI() tea.Cmd {
	enabled := !m.aiEnabled
	if t, ok := m.opts.Flag.(FlagToggler); ok {
		if err := t.SetAIEnabled(enabled); err != nil {
			logging.Warn("Persisting AI flag failed", zap.Error(err))
			return m.setStatus("Could not save the setting: " + err.Error())
		}
	} else {
		return m.setStatus("AI assistance is managed by the host")
	}
	m.aiEnabled = enabled
	m.advisory = false
	if !enabled {
		m.workflow.Close()
		return m.setStatus("AI assistance off")
	}
	return tea.Batch(m.setStatus("AI assistance on"), m.tracker.Schedule())
}

// currentSelection is the raw selection handed to the tracker. Atoms and
// line breaks at either end are trimmed off the range; a selection with an
// image or divider inside it carries no text, so it never reaches the
// transform service and Accept cannot delete the atom.
func (m *Model) currentSelection() selection.Selection {
	snap := m.doc.Snapshot()
	r := textSpan(snap, m.Selection())
	sel := selection.Selection{Range: r, DocVersion: snap.Version}
	if r.Empty() {
		return sel
	}
	text := snap.TextRange(r)
	if strings.ContainsRune(text, document.ObjectReplacement) {
		return sel
	}
	sel.Text = text
	sel.Rect = m.screenRect(buildLayout(snap.Blocks, m.width).rect(r))
	return sel
}

// textSpan shrinks r past atoms and block separators at its ends.
func textSpan(snap document.Snapshot, r document.Range) document.Range {
	r = r.Normalize()
	runes := []rune(snap.TextRange(r))
	lo, hi := 0, len(runes)
	for lo < hi && (runes[lo] == document.ObjectReplacement || runes[lo] == '\n') {
		lo++
	}
	for hi > lo && (runes[hi-1] == document.ObjectReplacement || runes[hi-1] == '\n') {
		hi--
	}
	return document.Range{From: r.From + lo, To: r.From + hi}
}

// handleCheck acts on a debounced selection check.
func (m *Model) handleCheck(msg selection.CheckMsg) tea.Cmd {
	res := m.tracker.Check(msg.Gen, m.currentSelection(), m.opts.Now())
	switch res.Kind {
	case selection.ResultNoSelection:
		m.advisory = false
		if m.workflow.Phase() == actions.PhaseToolbar || m.workflow.Phase() == actions.PhaseModelMenu {
			m.workflow.Close()
		}
	case selection.ResultSnapshot:
		m.advisory = false
		if m.palette.IsOpen() || m.prompting {
			return nil
		}
		switch m.workflow.Phase() {
		case actions.PhaseClosed, actions.PhaseToolbar, actions.PhaseModelMenu:
			if !m.workflow.Open(res.Snapshot, m.viewport()) {
				return m.setStatus("Set an agent id to use AI actions")
			}
		}
	case selection.ResultAdvisory:
		if m.palette.IsOpen() || m.workflow.IsOpen() {
			return nil
		}
		m.advisory = true
		m.advisoryGen = msg.Gen
		m.advisoryAt = res.Snapshot.Rect
		return m.tracker.ExpireAdvisory(msg.Gen)
	}
	return nil
}

// handleMouse sets the anchor on press and the focus on release.
func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if m.prompting || msg.Button != tea.MouseButtonLeft {
		return nil
	}
	pt := floating.Point{X: msg.X, Y: msg.Y}
	pos := m.layout().pos(floating.Point{X: msg.X, Y: msg.Y + m.top})

	switch msg.Action {
	case tea.MouseActionPress:
		if m.palette.ClickOutside(pt) {
			logging.Debug("Palette closed by click outside")
		}
		if m.palette.IsOpen() {
			return nil
		}
		m.manual = ""
		m.moveTo(pos, false)
	case tea.MouseActionMotion:
		if m.palette.IsOpen() {
			return nil
		}
		m.moveTo(pos, true)
	case tea.MouseActionRelease:
		if m.palette.IsOpen() {
			return nil
		}
		m.moveTo(pos, true)
		return m.tracker.Schedule()
	}
	return nil
}
