package preview

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"

	"github.com/inkwell-dev/inkwell/internal/document"
)

// Render converts snap to HTML through its Markdown form.
func Render(snap document.Snapshot) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(snap.Markdown()), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.String(), nil
}
