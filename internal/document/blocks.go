package document

import (
	"strings"
	"unicode/utf8"
)

// ObjectReplacement stands in for atom blocks in the flat text.
const ObjectReplacement = '\uFFFC'

// Range is a half-open span [From, To) of flat-text positions.
type Range struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Normalize returns r with From <= To.
func (r Range) Normalize() Range {
	if r.From > r.To {
		return Range{From: r.To, To: r.From}
	}
	return r
}

// Len returns the number of positions spanned.
func (r Range) Len() int {
	r = r.Normalize()
	return r.To - r.From
}

// Empty reports whether r spans nothing.
func (r Range) Empty() bool {
	return r.From == r.To
}

// Blocks is an ordered list of block nodes addressed by flat-text positions.
// Blocks are joined by a single separator position, so a document with blocks
// of lengths 3 and 2 has positions 0..6.
type Blocks []Node

// Len returns the length of the flat text.
func (bs Blocks) Len() int {
	if len(bs) == 0 {
		return 0
	}
	total := len(bs) - 1
	for _, b := range bs {
		total += b.length()
	}
	return total
}

// Start returns the flat-text position of the start of block idx.
func (bs Blocks) Start(idx int) int {
	pos := 0
	for i := 0; i < idx && i < len(bs); i++ {
		pos += bs[i].length() + 1
	}
	return pos
}

// Locate maps a flat-text position to a block index and an offset within it.
// Positions outside the document are clamped.
func (bs Blocks) Locate(pos int) (idx, off int) {
	if len(bs) == 0 {
		return 0, 0
	}
	if pos < 0 {
		pos = 0
	}
	start := 0
	for i, b := range bs {
		end := start + b.length()
		if pos <= end {
			return i, pos - start
		}
		start = end + 1
	}
	last := len(bs) - 1
	return last, bs[last].length()
}

// Text returns the flat text of the whole document.
func (bs Blocks) Text() string {
	var sb strings.Builder
	for i, b := range bs {
		if i > 0 {
			sb.WriteByte('\n')
		}
		if b.Kind.IsAtom() {
			sb.WriteRune(ObjectReplacement)
		} else {
			sb.WriteString(b.Text)
		}
	}
	return sb.String()
}

// TextRange returns the flat text covered by r.
func (bs Blocks) TextRange(r Range) string {
	r = r.Normalize()
	runes := []rune(bs.Text())
	if r.From < 0 {
		r.From = 0
	}
	if r.To > len(runes) {
		r.To = len(runes)
	}
	if r.From >= r.To {
		return ""
	}
	return string(runes[r.From:r.To])
}

// IndexOf returns the index of the block with the given id.
func (bs Blocks) IndexOf(id string) (int, bool) {
	for i, b := range bs {
		if b.ID == id {
			return i, true
		}
	}
	return -1, false
}

// FindUploadToken returns the index of the image node owning token.
func (bs Blocks) FindUploadToken(token string) (int, bool) {
	if token == "" {
		return -1, false
	}
	for i, b := range bs {
		if b.Kind == KindImage && b.Image != nil && b.Image.UploadToken == token {
			return i, true
		}
	}
	return -1, false
}

func (bs Blocks) clone() Blocks {
	out := make(Blocks, len(bs))
	for i, b := range bs {
		out[i] = b.clone()
	}
	return out
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// splitRunes splits s at rune offset off.
func splitRunes(s string, off int) (string, string) {
	runes := []rune(s)
	if off < 0 {
		off = 0
	}
	if off > len(runes) {
		off = len(runes)
	}
	return string(runes[:off]), string(runes[off:])
}
