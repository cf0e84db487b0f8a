package assetstore

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/inkwell-dev/inkwell/internal/remote"
)

// Asset is a file handed to the editor by paste, drop or the file picker.
type Asset struct {
	Name        string // Original file name, may be empty for clipboard data
	ContentType string // MIME type, sniffed when empty
	Data        []byte
}

// Uploaded describes a stored asset.
type Uploaded struct {
	URL  string `json:"url"`
	Name string `json:"filename"`
}

// Store persists assets and returns a public URL for each.
type Store interface {
	Upload(ctx context.Context, a Asset) (Uploaded, error)
}

// MaxAssetSize is the largest asset any store accepts.
const MaxAssetSize = 10 << 20

// DetectContentType returns a's declared content type, or one sniffed from its
// bytes and name.
func DetectContentType(a Asset) string {
	if ct := strings.TrimSpace(a.ContentType); ct != "" {
		return ct
	}
	if ext := filepath.Ext(a.Name); ext != "" {
		if ct := mime.TypeByExtension(strings.ToLower(ext)); ct != "" {
			return ct
		}
	}
	return http.DetectContentType(a.Data)
}

// IsImage reports whether contentType names an image.
func IsImage(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(contentType), "image/")
}

var extByType = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
	"image/bmp":     ".bmp",
	"image/avif":    ".avif",
}

// NormalizeExt returns the lowercase extension for name, mapping .jpeg to
// .jpg. When name has no extension it is inferred from contentType.
func NormalizeExt(name, contentType string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".jpeg" {
		ext = ".jpg"
	}
	if ext != "" {
		return ext
	}
	ct, _, _ := strings.Cut(strings.ToLower(contentType), ";")
	if e, ok := extByType[strings.TrimSpace(ct)]; ok {
		return e
	}
	return ".bin"
}

var nineDigits = big.NewInt(1_000_000_000)

// UniqueName builds a collision-free object name:
// <unixMillis>-<9 random digits><normalized ext>.
func UniqueName(original, contentType string, now time.Time) (string, error) {
	n, err := rand.Int(rand.Reader, nineDigits)
	if err != nil {
		return "", fmt.Errorf("failed to generate asset name: %w", err)
	}
	return fmt.Sprintf("%d-%09d%s", now.UnixMilli(), n.Int64(), NormalizeExt(original, contentType)), nil
}

// validate checks a before any store touches the network or disk.
func validate(service string, a Asset) (string, error) {
	if len(a.Data) == 0 {
		return "", remote.NewValidationError(service, "asset is empty")
	}
	if len(a.Data) > MaxAssetSize {
		return "", remote.NewValidationError(service, fmt.Sprintf("asset is %d bytes, limit is %d", len(a.Data), MaxAssetSize))
	}
	ct := DetectContentType(a)
	if !IsImage(ct) {
		return "", remote.NewValidationError(service, fmt.Sprintf("unsupported content type %q", ct))
	}
	return ct, nil
}
