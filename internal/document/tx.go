package document

import (
	"fmt"
	"strings"
)

// Tx is a transaction over a private copy of the document's blocks.
// Nothing is visible to other readers until Document.Apply commits it.
type Tx struct {
	blocks  Blocks
	changed bool
}

// Blocks returns the working copy. Callers must not retain it past the transaction.
func (tx *Tx) Blocks() Blocks { return tx.blocks }

// Len returns the flat-text length of the working copy.
func (tx *Tx) Len() int { return tx.blocks.Len() }

// Text returns the flat text of the working copy.
func (tx *Tx) Text() string { return tx.blocks.Text() }

// TextRange returns the flat text covered by r.
func (tx *Tx) TextRange(r Range) string { return tx.blocks.TextRange(r) }

// Block returns a copy of block idx.
func (tx *Tx) Block(idx int) (Node, error) {
	if idx < 0 || idx >= len(tx.blocks) {
		return Node{}, fmt.Errorf("block index %d out of range [0,%d)", idx, len(tx.blocks))
	}
	return tx.blocks[idx].clone(), nil
}

// FindUploadToken returns the index of the image node owning token.
func (tx *Tx) FindUploadToken(token string) (int, bool) {
	return tx.blocks.FindUploadToken(token)
}

// InsertText inserts s at pos and returns the position just after it.
// Newlines in s split the block; the new blocks continue the block's kind
// where that makes sense (list items, quotes, code) and are paragraphs otherwise.
func (tx *Tx) InsertText(pos int, s string) int {
	if s == "" {
		return pos
	}
	idx, off := tx.textBlockAt(pos)
	start := tx.blocks.Start(idx)

	b := tx.blocks[idx]
	before, after := splitRunes(b.Text, off)
	lines := strings.Split(s, "\n")

	if len(lines) == 1 {
		tx.blocks[idx].Text = before + s + after
		tx.changed = true
		return start + runeLen(before) + runeLen(s)
	}

	tx.blocks[idx].Text = before + lines[0]
	kind := b.Kind.continuation()
	inserted := make(Blocks, 0, len(lines)-1)
	for i, line := range lines[1:] {
		n := Node{ID: NewID(), Kind: kind, Text: line}
		if i == len(lines)-2 {
			n.Text = line + after
		}
		inserted = append(inserted, n)
	}
	tx.blocks = insertAt(tx.blocks, idx+1, inserted...)
	tx.changed = true

	lastIdx := idx + len(inserted)
	return tx.blocks.Start(lastIdx) + runeLen(lines[len(lines)-1])
}

// SplitBlock splits the block at pos, as pressing Enter does.
func (tx *Tx) SplitBlock(pos int) int {
	return tx.InsertText(pos, "\n")
}

// Delete removes the span r. Atoms fully inside r are removed; text blocks at
// either edge are merged. The document always keeps at least one block.
func (tx *Tx) Delete(r Range) {
	r = r.Normalize()
	if r.Empty() || len(tx.blocks) == 0 {
		return
	}
	bi, oi := tx.blocks.Locate(r.From)
	bj, oj := tx.blocks.Locate(r.To)

	first, last := tx.blocks[bi], tx.blocks[bj]

	var head, tail *Node
	if first.Kind.IsAtom() {
		if oi > 0 {
			n := first.clone()
			head = &n
		}
	} else {
		n := first.clone()
		n.Text, _ = splitRunes(first.Text, oi)
		head = &n
	}
	if last.Kind.IsAtom() {
		if oj == 0 {
			n := last.clone()
			tail = &n
		}
	} else {
		n := last.clone()
		_, n.Text = splitRunes(last.Text, oj)
		tail = &n
	}

	merged := make(Blocks, 0, 2)
	switch {
	case head != nil && tail != nil && !head.Kind.IsAtom() && !tail.Kind.IsAtom():
		head.Text += tail.Text
		merged = append(merged, *head)
	default:
		if head != nil {
			merged = append(merged, *head)
		}
		if tail != nil {
			merged = append(merged, *tail)
		}
	}

	out := make(Blocks, 0, len(tx.blocks)-(bj-bi+1)+len(merged))
	out = append(out, tx.blocks[:bi]...)
	out = append(out, merged...)
	out = append(out, tx.blocks[bj+1:]...)
	if len(out) == 0 {
		out = Blocks{Paragraph("")}
	}
	tx.blocks = out
	tx.changed = true
}

// Replace deletes r and inserts s at its start. It returns the position after s.
func (tx *Tx) Replace(r Range, s string) int {
	r = r.Normalize()
	tx.Delete(r)
	return tx.InsertText(r.From, s)
}

// InsertBlocks inserts nodes at pos. A text block containing pos is split when
// pos falls strictly inside it. It returns the start position of the block that
// follows the inserted nodes; a trailing empty paragraph is appended if needed
// so the caret always has a text block to land in.
func (tx *Tx) InsertBlocks(pos int, nodes ...Node) int {
	if len(nodes) == 0 {
		return pos
	}
	for i := range nodes {
		if nodes[i].ID == "" {
			nodes[i].ID = NewID()
		}
		nodes[i] = nodes[i].clone()
	}

	idx, off := tx.blocks.Locate(pos)
	b := tx.blocks[idx]
	var at int
	switch {
	case off == 0:
		at = idx
	case off >= b.length():
		at = idx + 1
	default:
		before, after := splitRunes(b.Text, off)
		tx.blocks[idx].Text = before
		rest := Node{ID: NewID(), Kind: b.Kind.continuation(), Level: b.Level, Text: after}
		if rest.Kind != KindHeading {
			rest.Level = 0
		}
		tx.blocks = insertAt(tx.blocks, idx+1, rest)
		at = idx + 1
	}

	tx.blocks = insertAt(tx.blocks, at, nodes...)
	next := at + len(nodes)
	if next >= len(tx.blocks) || tx.blocks[next].Kind.IsAtom() {
		tx.blocks = insertAt(tx.blocks, next, Paragraph(""))
	}
	tx.changed = true
	return tx.blocks.Start(next)
}

// SetKind changes the kind (and heading level) of block idx.
// Atom kinds cannot be set this way.
func (tx *Tx) SetKind(idx int, kind Kind, level int) error {
	if idx < 0 || idx >= len(tx.blocks) {
		return fmt.Errorf("block index %d out of range [0,%d)", idx, len(tx.blocks))
	}
	if kind.IsAtom() || tx.blocks[idx].Kind.IsAtom() {
		return fmt.Errorf("cannot convert %s to %s", tx.blocks[idx].Kind, kind)
	}
	tx.blocks[idx].Kind = kind
	tx.blocks[idx].Level = 0
	if kind == KindHeading {
		tx.blocks[idx].Level = clampLevel(level)
	}
	tx.changed = true
	return nil
}

// UpdateImage applies fn to the image attributes of block idx.
func (tx *Tx) UpdateImage(idx int, fn func(*ImageAttrs)) error {
	if idx < 0 || idx >= len(tx.blocks) {
		return fmt.Errorf("block index %d out of range [0,%d)", idx, len(tx.blocks))
	}
	b := &tx.blocks[idx]
	if b.Kind != KindImage || b.Image == nil {
		return fmt.Errorf("block %s is not an image", b.ID)
	}
	fn(b.Image)
	tx.changed = true
	return nil
}

// RemoveBlock deletes block idx.
func (tx *Tx) RemoveBlock(idx int) error {
	if idx < 0 || idx >= len(tx.blocks) {
		return fmt.Errorf("block index %d out of range [0,%d)", idx, len(tx.blocks))
	}
	tx.blocks = append(tx.blocks[:idx:idx], tx.blocks[idx+1:]...)
	if len(tx.blocks) == 0 {
		tx.blocks = Blocks{Paragraph("")}
	}
	tx.changed = true
	return nil
}

// textBlockAt returns a text block for an insertion at pos, creating an empty
// paragraph next to an atom when pos lands on one.
func (tx *Tx) textBlockAt(pos int) (idx, off int) {
	if len(tx.blocks) == 0 {
		tx.blocks = Blocks{Paragraph("")}
	}
	idx, off = tx.blocks.Locate(pos)
	if !tx.blocks[idx].Kind.IsAtom() {
		return idx, off
	}
	at := idx
	if off > 0 {
		at = idx + 1
	}
	tx.blocks = insertAt(tx.blocks, at, Paragraph(""))
	tx.changed = true
	return at, 0
}

func insertAt(bs Blocks, at int, nodes ...Node) Blocks {
	out := make(Blocks, 0, len(bs)+len(nodes))
	out = append(out, bs[:at]...)
	out = append(out, nodes...)
	out = append(out, bs[at:]...)
	return out
}
