package document

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// Format is a serialization format for documents.
type Format int

const (
	FormatJSON Format = iota
	FormatMarkdown
)

// FormatForPath picks a format from a file extension. Unknown extensions are Markdown.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatMarkdown
}

// Encode serializes a snapshot.
func (s Snapshot) Encode(f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		return json.MarshalIndent(s, "", "  ")
	case FormatMarkdown:
		return []byte(s.Markdown()), nil
	default:
		return nil, fmt.Errorf("unknown document format %d", f)
	}
}

// JSON returns the compact JSON serialization handed to content-change hooks.
func (s Snapshot) JSON() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	return data, nil
}

// Decode builds a document from serialized data.
func Decode(data []byte, f Format) (*Document, error) {
	switch f {
	case FormatJSON:
		var snap Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return nil, fmt.Errorf("failed to parse document JSON: %w", err)
		}
		for i, b := range snap.Blocks {
			if b.Kind == KindImage && b.Image == nil {
				return nil, fmt.Errorf("block %d: image without attributes", i)
			}
		}
		return New(snap.Blocks...), nil
	case FormatMarkdown:
		return ParseMarkdown(data), nil
	default:
		return nil, fmt.Errorf("unknown document format %d", f)
	}
}
