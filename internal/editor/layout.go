package editor

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/inkwell-dev/inkwell/internal/document"
	"github.com/inkwell-dev/inkwell/internal/floating"
)

// line is one screen row of the laid-out document.
type line struct {
	block  int    // index of the block it belongs to
	start  int    // flat position of its first rune
	runes  []rune // text shown after the prefix; nil for atoms
	prefix string // block marker on the first row, padding on the rest
	atom   string // label of an atom block
	last   bool   // last row of its block
}

// length returns the row's length in flat positions.
func (l line) length() int {
	if l.atom != "" {
		return 1
	}
	return len(l.runes)
}

// layout maps flat positions to screen cells for one document snapshot.
type layout struct {
	lines []line
	width int
}

// buildLayout wraps every block of blocks to width cells.
func buildLayout(blocks document.Blocks, width int) layout {
	if width < 8 {
		width = 8
	}
	lay := layout{width: width}
	pos := 0
	ordinal := 0
	for i, b := range blocks {
		if b.Kind == document.KindOrderedItem {
			ordinal++
		} else {
			ordinal = 0
		}

		if b.Kind.IsAtom() {
			lay.lines = append(lay.lines, line{block: i, start: pos, atom: atomLabel(b), last: true})
			pos += 2
			continue
		}

		prefix := blockPrefix(b, ordinal)
		indent := strings.Repeat(" ", runewidth.StringWidth(prefix))
		avail := max(width-runewidth.StringWidth(prefix), 4)
		rows := wrapRunes([]rune(b.Text), avail)
		start := pos
		for j, row := range rows {
			p := indent
			if j == 0 {
				p = prefix
			}
			lay.lines = append(lay.lines, line{block: i, start: start, runes: row, prefix: p, last: j == len(rows)-1})
			start += len(row)
		}
		pos += len([]rune(b.Text)) + 1
	}
	return lay
}

// wrapRunes breaks rs into rows of at most width cells, preferring to break
// after a space. An empty input yields one empty row.
func wrapRunes(rs []rune, width int) [][]rune {
	if len(rs) == 0 {
		return [][]rune{nil}
	}
	var rows [][]rune
	for len(rs) > 0 {
		w, cut, lastSpace := 0, 0, -1
		for cut < len(rs) {
			rw := runewidth.RuneWidth(rs[cut])
			if w+rw > width {
				break
			}
			w += rw
			if rs[cut] == ' ' {
				lastSpace = cut
			}
			cut++
		}
		if cut < len(rs) && lastSpace > 0 {
			cut = lastSpace + 1
		}
		if cut == 0 {
			cut = 1
		}
		rows = append(rows, rs[:cut])
		rs = rs[cut:]
	}
	return rows
}

func blockPrefix(b document.Node, ordinal int) string {
	switch b.Kind {
	case document.KindHeading:
		return strings.Repeat("#", max(b.Level, 1)) + " "
	case document.KindBulletItem:
		return "• "
	case document.KindOrderedItem:
		return fmt.Sprintf("%d. ", ordinal)
	case document.KindQuote:
		return "│ "
	case document.KindCodeBlock:
		return "▏ "
	default:
		return ""
	}
}

func atomLabel(b document.Node) string {
	switch b.Kind {
	case document.KindDivider:
		return "────────────"
	case document.KindImage:
		img := b.Image
		if img == nil {
			return "[image]"
		}
		name := img.Alt
		if name == "" {
			name = "image"
		}
		switch {
		case img.Failed:
			return "[upload failed: " + name + " · ctrl+r to retry]"
		case img.IsUploading:
			return "[uploading " + name + "…]"
		default:
			return "[image: " + name + "]"
		}
	default:
		return "[" + b.Kind.String() + "]"
	}
}

// lineOf returns the row holding pos. A position at a wrap boundary belongs
// to the following row.
func (lay layout) lineOf(pos int) int {
	for i, l := range lay.lines {
		end := l.start + l.length()
		if pos < l.start {
			return max(i-1, 0)
		}
		if pos < end || (pos == end && l.last) {
			return i
		}
	}
	return max(len(lay.lines)-1, 0)
}

// cell returns the screen cell (column, row) of pos, before scrolling.
func (lay layout) cell(pos int) floating.Point {
	if len(lay.lines) == 0 {
		return floating.Point{}
	}
	row := lay.lineOf(pos)
	l := lay.lines[row]
	if l.atom != "" {
		if pos > l.start {
			return floating.Point{X: runewidth.StringWidth(l.atom), Y: row}
		}
		return floating.Point{X: 0, Y: row}
	}
	off := min(max(pos-l.start, 0), len(l.runes))
	x := runewidth.StringWidth(l.prefix) + runewidth.StringWidth(string(l.runes[:off]))
	return floating.Point{X: x, Y: row}
}

// pos returns the flat position nearest to the screen cell pt.
func (lay layout) pos(pt floating.Point) int {
	if len(lay.lines) == 0 {
		return 0
	}
	row := min(max(pt.Y, 0), len(lay.lines)-1)
	l := lay.lines[row]
	if l.atom != "" {
		if pt.X > runewidth.StringWidth(l.atom)/2 {
			return l.start + 1
		}
		return l.start
	}
	x := pt.X - runewidth.StringWidth(l.prefix)
	w := 0
	for i, r := range l.runes {
		rw := runewidth.RuneWidth(r)
		if x < w+rw {
			if x-w > rw/2 && rw > 1 {
				return l.start + i + 1
			}
			return l.start + i
		}
		w += rw
	}
	end := l.start + len(l.runes)
	if !l.last && len(l.runes) > 0 {
		// The boundary belongs to the next row.
		return end - 1
	}
	return end
}

// rect returns the bounding rect of r's cells, before scrolling.
func (lay layout) rect(r document.Range) floating.Rect {
	r = r.Normalize()
	a, b := lay.cell(r.From), lay.cell(r.To)
	if a.Y == b.Y {
		return floating.Rect{X: a.X, Y: a.Y, W: max(b.X-a.X, 1), H: 1}
	}
	return floating.Rect{X: 0, Y: a.Y, W: lay.width, H: b.Y - a.Y + 1}
}
