package editor

import (
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/inkwell-dev/inkwell/internal/floating"
)

// overlay draws popup over base with its top-left cell at (x, y). Rows of
// the popup that fall outside base are dropped.
func overlay(base, popup string, x, y int) string {
	if popup == "" {
		return base
	}
	rows := strings.Split(base, "\n")
	pop := strings.Split(popup, "\n")
	w := 0
	for _, p := range pop {
		w = max(w, ansi.StringWidth(p))
	}
	x = max(x, 0)

	for i, p := range pop {
		row := y + i
		if row < 0 || row >= len(rows) {
			continue
		}
		line := rows[row]
		left := ansi.Truncate(line, x, "")
		if pad := x - ansi.StringWidth(left); pad > 0 {
			left += strings.Repeat(" ", pad)
		}
		if pad := w - ansi.StringWidth(p); pad > 0 {
			p += strings.Repeat(" ", pad)
		}
		right := ""
		if ansi.StringWidth(line) > x+w {
			right = ansi.TruncateLeft(line, x+w, "")
		}
		rows[row] = left + ansi.ResetStyle + p + ansi.ResetStyle + right
	}
	return strings.Join(rows, "\n")
}

// overlayAt draws popup at the origin of r.
func overlayAt(base, popup string, r floating.Rect) string {
	return overlay(base, popup, r.X, r.Y)
}
