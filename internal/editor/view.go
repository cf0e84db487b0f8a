package editor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/inkwell-dev/inkwell/internal/document"
	"github.com/inkwell-dev/inkwell/internal/floating"
	"github.com/inkwell-dev/inkwell/internal/ui"
)

// View implements tea.Model
func (m *Model) View() string {
	vp := m.viewport()
	snap := m.doc.Snapshot()
	lay := buildLayout(snap.Blocks, m.width)

	rows := make([]string, 0, vp.H)
	for y := m.top; y < m.top+vp.H; y++ {
		if y < len(lay.lines) {
			rows = append(rows, m.renderLine(snap.Blocks, lay.lines[y]))
		} else {
			rows = append(rows, ui.MutedStyle.Render("~"))
		}
	}
	body := strings.Join(rows, "\n")
	body = m.drawOverlays(body, vp)

	return lipgloss.JoinVertical(lipgloss.Left, body, m.statusBar(), m.footer())
}

func (m *Model) drawOverlays(body string, vp floating.Viewport) string {
	if m.palette.IsOpen() {
		body = overlayAt(body, m.palette.View(), m.palette.Rect())
	}
	if v := m.workflow.ToolbarView(); v != "" {
		body = overlayAt(body, v, m.workflow.ToolbarRect())
	}
	if v, r := m.workflow.ModelMenuView(); v != "" {
		body = overlayAt(body, v, r)
	}
	if v, r := m.workflow.DialogView(); v != "" {
		body = overlayAt(body, v, r)
	}
	if m.advisory {
		tip := ui.AdvisoryStyle.Render("AI assistance is off · " +
			m.keys.ToggleAI.Help().Key + " enable · " +
			m.keys.Snooze.Help().Key + " don't show again")
		size := floating.Size{W: lipgloss.Width(tip), H: lipgloss.Height(tip)}
		body = overlayAt(body, tip, floating.Toolbar(m.advisoryAt, size, vp))
	}
	if m.manual != "" {
		width := min(vp.W-4, floating.DialogWidth)
		panel := ui.DialogStyle(width).Render(
			ui.DialogTitleStyle.Render("Copy manually") + "\n\n" +
				m.manual + "\n\n" +
				ui.MutedStyle.Render("Select the text with your terminal, then press any key"))
		r := floating.Dialog(floating.Rect{X: vp.W / 2, Y: 0, W: 1, H: 1}, lipgloss.Height(panel), vp)
		body = overlayAt(body, panel, r)
	}
	return body
}

// renderLine styles one screen row with the selection and caret.
func (m *Model) renderLine(blocks document.Blocks, l line) string {
	sel := m.Selection()
	showCaret := !m.prompting && m.manual == "" && !m.workflow.IsOpen()
	b := blocks[l.block]

	if l.atom != "" {
		style := atomStyle(b)
		label := l.atom
		if b.IsPlaceholder() {
			label = m.spinner.View() + " " + label
		}
		switch {
		case sel.From <= l.start && l.start < sel.To:
			style = ui.SelectionStyle
		case showCaret && m.caret == l.start:
			style = style.Reverse(true)
		}
		out := style.Render(label)
		if showCaret && m.caret == l.start+1 {
			out += ui.CaretStyle.Render(" ")
		}
		return out
	}

	var sb strings.Builder
	sb.WriteString(prefixStyle(b).Render(l.prefix))
	base := textStyle(b)

	// Runs of runes sharing a style are rendered together.
	const (
		plain = iota
		selected
		caret
	)
	styles := [...]lipgloss.Style{plain: base, selected: ui.SelectionStyle, caret: ui.CaretStyle}
	var run []rune
	state := plain
	flush := func() {
		if len(run) > 0 {
			sb.WriteString(styles[state].Render(string(run)))
			run = run[:0]
		}
	}
	for i, r := range l.runes {
		pos := l.start + i
		next := plain
		switch {
		case showCaret && pos == m.caret:
			next = caret
		case sel.From <= pos && pos < sel.To:
			next = selected
		}
		if next != state {
			flush()
			state = next
		}
		run = append(run, r)
	}
	flush()

	if showCaret && l.last && m.caret == l.start+len(l.runes) {
		sb.WriteString(ui.CaretStyle.Render(" "))
	}
	return ansi.Truncate(sb.String(), m.width, "")
}

func prefixStyle(b document.Node) lipgloss.Style {
	switch b.Kind {
	case document.KindHeading:
		return ui.HeadingStyle(b.Level)
	case document.KindQuote:
		return ui.QuoteStyle
	case document.KindCodeBlock:
		return ui.MutedStyle
	default:
		return ui.ListMarkerStyle
	}
}

func textStyle(b document.Node) lipgloss.Style {
	switch b.Kind {
	case document.KindHeading:
		return ui.HeadingStyle(b.Level)
	case document.KindQuote:
		return ui.QuoteStyle
	case document.KindCodeBlock:
		return ui.CodeStyle
	default:
		return ui.ParagraphStyle
	}
}

func atomStyle(b document.Node) lipgloss.Style {
	switch {
	case b.Kind == document.KindDivider:
		return ui.DividerStyle
	case b.IsFailedUpload():
		return ui.FailedUploadStyle
	case b.IsPlaceholder():
		return ui.UploadingStyle
	default:
		return ui.ImageStyle
	}
}

// statusBar shows the mode, model, flag, uploads and the status message.
func (m *Model) statusBar() string {
	parts := []string{m.Mode().String()}
	if m.model.Name != "" {
		parts = append(parts, m.model.Name)
	}
	if m.aiEnabled {
		parts = append(parts, "AI on")
	} else {
		parts = append(parts, "AI off")
	}
	if m.recon != nil {
		uploading, failed := m.recon.InFlight(), len(m.recon.FailedTokens())
		switch {
		case uploading > 0 && failed > 0:
			parts = append(parts, fmt.Sprintf("%s %d uploading, %d failed", m.spinner.View(), uploading, failed))
		case uploading > 0:
			parts = append(parts, fmt.Sprintf("%s %d uploading", m.spinner.View(), uploading))
		case failed > 0:
			parts = append(parts, fmt.Sprintf("%d failed upload(s)", failed))
		}
	}
	if m.opts.SavePath != "" {
		parts = append(parts, m.opts.SavePath)
	}
	bar := ui.StatusBarStyle.Render(strings.Join(parts, " · "))
	if m.status != "" {
		bar += ui.StatusMessageStyle.Render(m.status)
	}
	return ansi.Truncate(bar, m.width, "…")
}

// footer is the prompt line while prompting, the help line otherwise.
func (m *Model) footer() string {
	if m.prompting {
		return m.prompt.View()
	}
	switch m.Mode() {
	case ModePalette:
		return m.help.ShortHelpView(m.palette.Keys().ShortHelp())
	case ModeActions:
		return m.help.ShortHelpView(m.workflow.Keys().ShortHelp())
	default:
		return m.help.ShortHelpView(m.keys.ShortHelp())
	}
}
