package palette

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/inkwell-dev/inkwell/internal/ui"
)

// View renders the open palette. The submenu, when open, is drawn beside the
// primary list.
func (p *Palette) View() string {
	if p.state == StateClosed {
		return ""
	}
	var rows []string
	if len(p.items) == 0 {
		rows = append(rows, ui.MutedStyle.Render(" No matching commands "))
	}
	for i, d := range p.items {
		label := d.DisplayName
		if d.HasSubmenu {
			label += " ▸"
		}
		row := " " + label + "  " + ui.MenuDescStyle.Render(d.Description) + " "
		if i == p.index {
			row = ui.MenuSelectedStyle.Render(" "+label+" ") + " " + ui.MenuDescStyle.Render(d.Description)
		}
		rows = append(rows, row)
	}

	// Keep the list within the rect placed at open time.
	if maxRows := p.rect.H - 2; maxRows > 0 && len(rows) > maxRows {
		start := min(max(p.index-maxRows+1, 0), len(rows)-maxRows)
		rows = rows[start : start+maxRows]
	}

	primary := ui.PopupStyle.Render(strings.Join(rows, "\n"))
	if p.state != StateSubmenu {
		return primary
	}

	var sub []string
	for i, m := range p.models {
		if i == p.subIndex {
			sub = append(sub, ui.MenuSelectedStyle.Render(" "+m.Name+" "))
			continue
		}
		sub = append(sub, ui.MenuItemStyle.Render(" "+m.Name+" "))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, primary, ui.PopupStyle.Render(strings.Join(sub, "\n")))
}
