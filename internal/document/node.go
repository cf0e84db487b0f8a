package document

import (
	"fmt"

	"github.com/google/uuid"
)

// Kind is the closed set of block node types.
type Kind int

const (
	KindParagraph Kind = iota
	KindHeading
	KindBulletItem
	KindOrderedItem
	KindQuote
	KindCodeBlock
	KindDivider
	KindImage
)

var kindNames = map[Kind]string{
	KindParagraph:   "paragraph",
	KindHeading:     "heading",
	KindBulletItem:  "bullet_item",
	KindOrderedItem: "ordered_item",
	KindQuote:       "quote",
	KindCodeBlock:   "code_block",
	KindDivider:     "divider",
	KindImage:       "image",
}

// String returns the serialized name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, fmt.Errorf("unknown node kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	for kind, name := range kindNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown node kind %q", string(b))
}

// IsAtom reports whether the kind holds no editable text.
// Atoms occupy exactly one position in the flat text.
func (k Kind) IsAtom() bool {
	return k == KindDivider || k == KindImage
}

// continuation is the kind of the block created when a block of kind k is split.
func (k Kind) continuation() Kind {
	switch k {
	case KindBulletItem, KindOrderedItem, KindQuote, KindCodeBlock:
		return k
	default:
		return KindParagraph
	}
}

// ImageAttrs are the attributes of an image node.
// A placeholder is an image with IsUploading set and a non-empty UploadToken.
// A failed upload keeps its token so it can be re-uploaded.
type ImageAttrs struct {
	Src         string `json:"src"`
	Alt         string `json:"alt,omitempty"`
	IsUploading bool   `json:"isUploading"`
	UploadToken string `json:"uploadToken,omitempty"`
	Failed      bool   `json:"failed,omitempty"`
}

// Node is one block of the document. IDs are stable for the node's lifetime.
type Node struct {
	ID    string      `json:"id"`
	Kind  Kind        `json:"kind"`
	Level int         `json:"level,omitempty"`
	Text  string      `json:"text,omitempty"`
	Image *ImageAttrs `json:"image,omitempty"`
}

// NewID returns a fresh node id.
func NewID() string {
	return uuid.NewString()
}

// Paragraph builds a paragraph node.
func Paragraph(text string) Node {
	return Node{ID: NewID(), Kind: KindParagraph, Text: text}
}

// Heading builds a heading node with level clamped to 1..3.
func Heading(level int, text string) Node {
	return Node{ID: NewID(), Kind: KindHeading, Level: clampLevel(level), Text: text}
}

// Image builds an image node.
func Image(attrs ImageAttrs) Node {
	return Node{ID: NewID(), Kind: KindImage, Image: &attrs}
}

// Divider builds a horizontal rule node.
func Divider() Node {
	return Node{ID: NewID(), Kind: KindDivider}
}

// IsPlaceholder reports whether n is an image still waiting on its upload.
func (n Node) IsPlaceholder() bool {
	return n.Kind == KindImage && n.Image != nil && n.Image.IsUploading && n.Image.UploadToken != ""
}

// IsFailedUpload reports whether n is an image whose upload failed.
func (n Node) IsFailedUpload() bool {
	return n.Kind == KindImage && n.Image != nil && n.Image.Failed
}

// length is the number of positions n occupies in the flat text.
func (n Node) length() int {
	if n.Kind.IsAtom() {
		return 1
	}
	return runeLen(n.Text)
}

func (n Node) clone() Node {
	if n.Image != nil {
		img := *n.Image
		n.Image = &img
	}
	return n
}

func clampLevel(level int) int {
	if level < 1 {
		return 1
	}
	if level > 3 {
		return 3
	}
	return level
}
