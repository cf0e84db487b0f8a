// Package floating positions popups (command palette, action toolbar, action
// dialog) inside the terminal viewport. All units are terminal cells.
package floating

// Point is a cell coordinate; X grows right, Y grows down.
type Point struct {
	X, Y int
}

// Size is a width and height in cells.
type Size struct {
	W, H int
}

// Rect is a positioned box.
type Rect struct {
	X, Y, W, H int
}

// Right returns the first column past the rect.
func (r Rect) Right() int { return r.X + r.W }

// Bottom returns the first row past the rect.
func (r Rect) Bottom() int { return r.Y + r.H }

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.Right() && p.Y >= r.Y && p.Y < r.Bottom()
}

// Viewport is the visible area popups must stay inside.
type Viewport struct {
	W, H int
}

// Options tune one placement.
type Options struct {
	// OffsetX and OffsetY move the popup away from the anchor so it does not
	// cover what it refers to.
	OffsetX, OffsetY int
	// Margin is the minimum distance kept from every viewport edge.
	Margin int
}

// Place clamps a popup of the given size, anchored at anchor, to vp.
//
// The popup starts at anchor+offset. A right-edge overflow pulls it left; a
// bottom overflow flips it above the anchor and, when there is no room there
// either, centres it vertically. Height shrinks to what remains visible.
func Place(anchor Rect, size Size, vp Viewport, opts Options) Rect {
	m := opts.Margin
	w := size.W
	if maxW := vp.W - 2*m; w > maxW {
		w = maxW
	}
	if w < 1 {
		w = 1
	}
	h := size.H
	if h < 1 {
		h = 1
	}

	left := anchor.X + opts.OffsetX
	top := anchor.Bottom() + opts.OffsetY

	if left+w > vp.W-m {
		left = vp.W - w - m
	}
	if left < m {
		left = m
	}

	if top+h > vp.H-m {
		above := anchor.Y - h - opts.OffsetY
		if above >= m {
			top = above
		} else {
			top = max(m, (vp.H-h)/2)
		}
	}
	if top < m {
		top = m
	}

	if avail := vp.H - top - m; h > avail {
		h = max(1, avail)
	}

	return Rect{X: left, Y: top, W: w, H: h}
}

// Caret places a popup under a single caret cell, the way the command palette
// is anchored at trigger time.
func Caret(caret Point, size Size, vp Viewport) Rect {
	return Place(Rect{X: caret.X, Y: caret.Y, W: 1, H: 1}, size, vp, Options{})
}

// Toolbar places the action toolbar below a selection's bounding rect,
// offset by one cell so the selection stays readable.
func Toolbar(selection Rect, size Size, vp Viewport) Rect {
	return Place(selection, size, vp, Options{OffsetX: 1, OffsetY: 0})
}

// DialogWidth is the preferred dialog width before viewport clamping.
const DialogWidth = 60

// Dialog places the action dialog near the selection, at most DialogWidth wide
// and kept two cells from the viewport edges.
func Dialog(selection Rect, height int, vp Viewport) Rect {
	const margin = 2
	w := min(vp.W-2*margin, DialogWidth)
	return Place(selection, Size{W: w, H: height}, vp, Options{OffsetY: 1, Margin: margin})
}
