package assetstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/inkwell-dev/inkwell/internal/logging"
	"github.com/inkwell-dev/inkwell/internal/remote"
)

const fsService = "Local asset store"

// AssetsPath is the URL prefix under which FSStore assets are served.
const AssetsPath = "/assets/"

var safeName = regexp.MustCompile(`^[0-9]+-[0-9]{9}\.[a-z0-9]+$`)

// FSStore writes assets into a directory. The server serves that directory
// under AssetsPath.
type FSStore struct {
	Dir       string
	PublicURL string

	now func() time.Time
}

// NewFSStore creates a store rooted at dir whose files are reachable at
// publicURL + AssetsPath.
func NewFSStore(dir, publicURL string) *FSStore {
	return &FSStore{Dir: dir, PublicURL: strings.TrimRight(publicURL, "/"), now: time.Now}
}

// Upload implements Store.
func (s *FSStore) Upload(ctx context.Context, a Asset) (Uploaded, error) {
	if err := ctx.Err(); err != nil {
		return Uploaded{}, remote.ClassifyNetworkError(err, fsService)
	}

	ct, err := validate(fsService, a)
	if err != nil {
		return Uploaded{}, err
	}

	now := time.Now()
	if s.now != nil {
		now = s.now()
	}
	name, err := UniqueName(a.Name, ct, now)
	if err != nil {
		return Uploaded{}, err
	}

	if err := s.write(name, a.Data); err != nil {
		return Uploaded{}, err
	}

	logging.Debug("Asset stored", zap.String("name", name), zap.Int("bytes", len(a.Data)))
	return Uploaded{URL: s.PublicURL + AssetsPath + name, Name: name}, nil
}

// write stores data atomically: a temp file in the same directory renamed
// into place.
func (s *FSStore) write(name string, data []byte) error {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create asset directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.Dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write asset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close asset: %w", err)
	}
	if err := os.Rename(tmpPath, filepath.Join(s.Dir, name)); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to move asset into place: %w", err)
	}
	return nil
}

// Path returns the on-disk path of a stored asset, rejecting names that
// UniqueName could not have produced.
func (s *FSStore) Path(name string) (string, bool) {
	if !safeName.MatchString(name) {
		return "", false
	}
	return filepath.Join(s.Dir, name), true
}
