package palette

import (
	"fmt"
	"strings"

	"github.com/inkwell-dev/inkwell/internal/document"
	"github.com/inkwell-dev/inkwell/internal/transform"
)

// CommandID is the closed set of palette commands.
type CommandID int

const (
	CmdText CommandID = iota
	CmdHeading1
	CmdHeading2
	CmdHeading3
	CmdBulletList
	CmdNumberedList
	CmdQuote
	CmdCodeBlock
	CmdDivider
	CmdImage
	CmdModel
)

func (id CommandID) String() string {
	switch id {
	case CmdText:
		return "text"
	case CmdHeading1:
		return "heading1"
	case CmdHeading2:
		return "heading2"
	case CmdHeading3:
		return "heading3"
	case CmdBulletList:
		return "bullet_list"
	case CmdNumberedList:
		return "numbered_list"
	case CmdQuote:
		return "quote"
	case CmdCodeBlock:
		return "code_block"
	case CmdDivider:
		return "divider"
	case CmdImage:
		return "image"
	case CmdModel:
		return "model"
	default:
		return fmt.Sprintf("CommandID(%d)", int(id))
	}
}

// Descriptor is one palette entry.
type Descriptor struct {
	ID          CommandID
	DisplayName string
	Description string
	Keywords    []string
	HasSubmenu  bool
}

// Matches reports whether query is a case-insensitive substring of any
// keyword. An empty query matches everything.
func (d Descriptor) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, kw := range d.Keywords {
		if strings.Contains(strings.ToLower(kw), q) {
			return true
		}
	}
	return false
}

// Registry is the immutable, ordered list of descriptors.
type Registry struct {
	items []Descriptor
}

// NewRegistry copies items into a registry.
func NewRegistry(items ...Descriptor) Registry {
	out := make([]Descriptor, len(items))
	copy(out, items)
	return Registry{items: out}
}

// DefaultRegistry returns the built-in commands.
func DefaultRegistry() Registry {
	return NewRegistry(
		Descriptor{ID: CmdText, DisplayName: "Text", Description: "Plain paragraph",
			Keywords: []string{"text", "paragraph", "p", "文本", "段落"}},
		Descriptor{ID: CmdHeading1, DisplayName: "Heading 1", Description: "Large section heading",
			Keywords: []string{"heading1", "h1", "title", "标题1", "一级标题"}},
		Descriptor{ID: CmdHeading2, DisplayName: "Heading 2", Description: "Medium section heading",
			Keywords: []string{"heading2", "h2", "subtitle", "标题2", "二级标题"}},
		Descriptor{ID: CmdHeading3, DisplayName: "Heading 3", Description: "Small section heading",
			Keywords: []string{"heading3", "h3", "标题3", "三级标题"}},
		Descriptor{ID: CmdBulletList, DisplayName: "Bullet list", Description: "Unordered list item",
			Keywords: []string{"bullet", "list", "ul", "列表", "无序列表"}},
		Descriptor{ID: CmdNumberedList, DisplayName: "Numbered list", Description: "Ordered list item",
			Keywords: []string{"numbered", "ordered", "list", "ol", "有序列表"}},
		Descriptor{ID: CmdQuote, DisplayName: "Quote", Description: "Block quotation",
			Keywords: []string{"quote", "blockquote", "引用"}},
		Descriptor{ID: CmdCodeBlock, DisplayName: "Code block", Description: "Preformatted code",
			Keywords: []string{"code", "codeblock", "pre", "代码"}},
		Descriptor{ID: CmdDivider, DisplayName: "Divider", Description: "Horizontal rule",
			Keywords: []string{"divider", "hr", "rule", "separator", "分割线"}},
		Descriptor{ID: CmdImage, DisplayName: "Image", Description: "Upload an image file",
			Keywords: []string{"image", "img", "picture", "photo", "图片"}},
		Descriptor{ID: CmdModel, DisplayName: "Model", Description: "Choose the AI model",
			Keywords: []string{"model", "ai", "llm", "模型"}, HasSubmenu: true},
	)
}

// All returns every descriptor in registry order.
func (r Registry) All() []Descriptor {
	out := make([]Descriptor, len(r.items))
	copy(out, r.items)
	return out
}

// Len returns the number of descriptors.
func (r Registry) Len() int { return len(r.items) }

// Filter returns the descriptors matching query, in registry order.
func (r Registry) Filter(query string) []Descriptor {
	var out []Descriptor
	for _, d := range r.items {
		if d.Matches(query) {
			out = append(out, d)
		}
	}
	return out
}

// EditorContext is what palette commands act on.
type EditorContext interface {
	// SetBlockKind converts the caret's block.
	SetBlockKind(kind document.Kind, level int) error
	// InsertDivider inserts a horizontal rule at the caret.
	InsertDivider() error
	// PromptImagePath asks the user for a file to upload.
	PromptImagePath()
	// SetModel selects the model for subsequent transforms.
	SetModel(m transform.Model)
}

// Execute runs id against ctx. CmdModel is handled through the submenu and
// is a no-op here.
func Execute(id CommandID, ctx EditorContext) error {
	switch id {
	case CmdText:
		return ctx.SetBlockKind(document.KindParagraph, 0)
	case CmdHeading1:
		return ctx.SetBlockKind(document.KindHeading, 1)
	case CmdHeading2:
		return ctx.SetBlockKind(document.KindHeading, 2)
	case CmdHeading3:
		return ctx.SetBlockKind(document.KindHeading, 3)
	case CmdBulletList:
		return ctx.SetBlockKind(document.KindBulletItem, 0)
	case CmdNumberedList:
		return ctx.SetBlockKind(document.KindOrderedItem, 0)
	case CmdQuote:
		return ctx.SetBlockKind(document.KindQuote, 0)
	case CmdCodeBlock:
		return ctx.SetBlockKind(document.KindCodeBlock, 0)
	case CmdDivider:
		return ctx.InsertDivider()
	case CmdImage:
		ctx.PromptImagePath()
		return nil
	case CmdModel:
		return nil
	default:
		return fmt.Errorf("unknown command %v", id)
	}
}
