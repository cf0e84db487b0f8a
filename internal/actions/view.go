package actions

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/inkwell-dev/inkwell/internal/floating"
	"github.com/inkwell-dev/inkwell/internal/transform"
	"github.com/inkwell-dev/inkwell/internal/ui"
)

// ToolbarView renders the toolbar. It is empty unless the toolbar or its
// model submenu is showing.
func (w *Workflow) ToolbarView() string {
	if w.phase != PhaseToolbar && w.phase != PhaseModelMenu {
		return ""
	}
	var rows []string
	for i, a := range transform.Actions() {
		rows = append(rows, menuRow(a.Label(), i == w.index))
	}
	rows = append(rows, ui.MutedStyle.Render(strings.Repeat("─", max(w.toolbar.W-4, 1))))
	rows = append(rows, menuRow(w.modelLabel(), w.onModelEntry()))
	return ui.PopupStyle.Render(strings.Join(rows, "\n"))
}

// ModelMenuView renders the model submenu and the rect it occupies.
func (w *Workflow) ModelMenuView() (string, floating.Rect) {
	if w.phase != PhaseModelMenu {
		return "", floating.Rect{}
	}
	width := 0
	var rows []string
	for i, m := range w.cfg.Models {
		label := m.Name + "  " + ui.MutedStyle.Render(m.Provider)
		width = max(width, lipgloss.Width(label))
		rows = append(rows, menuRow(label, i == w.modelIndex))
	}
	anchor := floating.Rect{X: w.toolbar.Right(), Y: w.toolbar.Bottom() - 3, W: 1, H: 1}
	rect := floating.Place(anchor, floating.Size{W: width + 4, H: len(rows) + 2}, w.vp, floating.Options{Margin: 1})
	return ui.PopupStyle.Render(strings.Join(rows, "\n")), rect
}

// DialogView renders the dialog and the rect it occupies.
func (w *Workflow) DialogView() (string, floating.Rect) {
	if w.phase != PhaseInput && w.phase != PhaseProcessing && w.phase != PhaseResult {
		return "", floating.Rect{}
	}
	width := min(w.vp.W-4, floating.DialogWidth)
	inner := max(width-4, 10)

	var parts []string
	parts = append(parts, ui.DialogTitleStyle.Render("✦ "+w.action.Label()))

	switch w.phase {
	case PhaseInput:
		if w.banner != "" {
			parts = append(parts, ui.BannerStyle.Width(inner).Render(w.banner))
		}
		parts = append(parts, quote(w.snap.Text, inner))
		w.input.Width = inner - 4
		parts = append(parts, w.input.View())
		parts = append(parts, w.helpView(inner, w.keys.Enter, w.keys.Esc))
	case PhaseProcessing:
		parts = append(parts, quote(w.snap.Text, inner))
		parts = append(parts, w.spinner.View()+" Processing with "+w.modelDisplay())
	case PhaseResult:
		col := max((inner-2)/2, 8)
		left := lipgloss.JoinVertical(lipgloss.Left,
			ui.MutedStyle.Render("Original"),
			lipgloss.NewStyle().Width(col).Render(w.result.OriginalText))
		right := lipgloss.JoinVertical(lipgloss.Left,
			ui.StepCompleteStyle.Render("Result"),
			lipgloss.NewStyle().Width(col).Render(w.result.ProcessedText))
		parts = append(parts, lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right))
		if w.result.Explanation != "" {
			parts = append(parts, ui.StepNoteStyle.Width(inner).Render(w.result.Explanation))
		}
		parts = append(parts, w.helpView(inner, w.keys.ResultHelp()...))
	}

	body := ui.DialogStyle(width).Render(strings.Join(parts, "\n\n"))
	rect := floating.Dialog(w.snap.Rect, lipgloss.Height(body), w.vp)
	return body, rect
}

// modelDisplay is the model as "provider modelId".
func (w *Workflow) modelDisplay() string {
	if w.model.ModelID == "" {
		return "the default model"
	}
	return w.model.Provider + " " + w.model.ModelID
}

func (w *Workflow) helpView(width int, bindings ...key.Binding) string {
	h := help.New()
	h.Width = width
	return h.ShortHelpView(bindings)
}

func menuRow(label string, selected bool) string {
	if selected {
		return ui.MenuSelectedStyle.Render(" " + label + " ")
	}
	return ui.MenuItemStyle.Render(" " + label + " ")
}

// quote renders the selected text, truncated to three lines.
func quote(text string, width int) string {
	lines := strings.Split(lipgloss.NewStyle().Width(width-2).Render(text), "\n")
	if len(lines) > 3 {
		lines = append(lines[:3], "…")
	}
	return ui.QuoteStyle.Render("│ " + strings.Join(lines, "\n│ "))
}
