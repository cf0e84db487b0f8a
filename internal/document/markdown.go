package document

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ParseMarkdown builds a document from Markdown source. Block structure the
// model cannot represent (nested lists, tables) is flattened into paragraphs.
func ParseMarkdown(src []byte) *Document {
	root := goldmark.New().Parser().Parse(text.NewReader(src))

	var blocks []Node
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		blocks = append(blocks, convertBlock(n, src)...)
	}
	return New(blocks...)
}

func convertBlock(n ast.Node, src []byte) []Node {
	switch b := n.(type) {
	case *ast.Heading:
		return []Node{Heading(b.Level, inlineText(b, src))}

	case *ast.Paragraph, *ast.TextBlock:
		if img, ok := soleImage(n); ok {
			return []Node{Image(ImageAttrs{
				Src: string(img.Destination),
				Alt: inlineText(img, src),
			})}
		}
		return []Node{Paragraph(inlineText(n, src))}

	case *ast.List:
		kind := KindBulletItem
		if b.IsOrdered() {
			kind = KindOrderedItem
		}
		var out []Node
		for item := b.FirstChild(); item != nil; item = item.NextSibling() {
			for c := item.FirstChild(); c != nil; c = c.NextSibling() {
				for _, child := range convertBlock(c, src) {
					if child.Kind == KindParagraph {
						child.Kind = kind
					}
					out = append(out, child)
				}
			}
		}
		return out

	case *ast.Blockquote:
		var out []Node
		for c := b.FirstChild(); c != nil; c = c.NextSibling() {
			for _, child := range convertBlock(c, src) {
				if child.Kind == KindParagraph {
					child.Kind = KindQuote
				}
				out = append(out, child)
			}
		}
		return out

	case *ast.FencedCodeBlock, *ast.CodeBlock:
		var out []Node
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			line := strings.TrimRight(string(seg.Value(src)), "\r\n")
			out = append(out, Node{ID: NewID(), Kind: KindCodeBlock, Text: line})
		}
		if len(out) == 0 {
			out = append(out, Node{ID: NewID(), Kind: KindCodeBlock})
		}
		return out

	case *ast.ThematicBreak:
		return []Node{Divider()}

	case *ast.HTMLBlock:
		var sb strings.Builder
		lines := b.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			sb.Write(seg.Value(src))
		}
		return []Node{Paragraph(strings.TrimSpace(sb.String()))}

	default:
		if t := strings.TrimSpace(inlineText(n, src)); t != "" {
			return []Node{Paragraph(t)}
		}
		return nil
	}
}

func soleImage(n ast.Node) (*ast.Image, bool) {
	if n.ChildCount() != 1 {
		return nil, false
	}
	img, ok := n.FirstChild().(*ast.Image)
	return img, ok
}

func inlineText(n ast.Node, src []byte) string {
	var sb strings.Builder
	writeInline(&sb, n, src)
	return sb.String()
}

func writeInline(sb *strings.Builder, n ast.Node, src []byte) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(t.Value)
		case *ast.AutoLink:
			sb.Write(t.URL(src))
		case *ast.RawHTML:
			for i := 0; i < t.Segments.Len(); i++ {
				seg := t.Segments.At(i)
				sb.Write(seg.Value(src))
			}
		default:
			writeInline(sb, c, src)
		}
	}
}

// Markdown renders the snapshot as Markdown. Images still uploading or whose
// upload failed are written as HTML comments carrying their token.
func (s Snapshot) Markdown() string {
	var sb strings.Builder
	ordinal := 0
	for i, b := range s.Blocks {
		prev := Kind(-1)
		if i > 0 {
			prev = s.Blocks[i-1].Kind
			if !(b.Kind == prev && (b.Kind == KindBulletItem || b.Kind == KindOrderedItem || b.Kind == KindQuote || b.Kind == KindCodeBlock)) {
				if prev == KindCodeBlock {
					sb.WriteString("```\n")
				}
				sb.WriteString("\n")
			}
		}
		if b.Kind != KindOrderedItem {
			ordinal = 0
		}

		switch b.Kind {
		case KindParagraph:
			sb.WriteString(b.Text)
		case KindHeading:
			sb.WriteString(strings.Repeat("#", clampLevel(b.Level)) + " " + b.Text)
		case KindBulletItem:
			sb.WriteString("- " + b.Text)
		case KindOrderedItem:
			ordinal++
			fmt.Fprintf(&sb, "%d. %s", ordinal, b.Text)
		case KindQuote:
			sb.WriteString("> " + b.Text)
		case KindCodeBlock:
			if prev != KindCodeBlock {
				sb.WriteString("```\n")
			}
			sb.WriteString(b.Text)
		case KindDivider:
			sb.WriteString("---")
		case KindImage:
			sb.WriteString(imageMarkdown(b.Image))
		}
		sb.WriteString("\n")
	}
	if n := len(s.Blocks); n > 0 && s.Blocks[n-1].Kind == KindCodeBlock {
		sb.WriteString("```\n")
	}
	return sb.String()
}

func imageMarkdown(img *ImageAttrs) string {
	switch {
	case img == nil:
		return ""
	case img.Failed:
		return fmt.Sprintf("<!-- upload failed: %s -->", img.UploadToken)
	case img.IsUploading:
		return fmt.Sprintf("<!-- uploading: %s -->", img.UploadToken)
	default:
		return fmt.Sprintf("![%s](%s)", img.Alt, img.Src)
	}
}
