package editor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/inkwell-dev/inkwell/internal/assetstore"
	"github.com/inkwell-dev/inkwell/internal/clipboard"
	"github.com/inkwell-dev/inkwell/internal/document"
	"github.com/inkwell-dev/inkwell/internal/logging"
	"github.com/inkwell-dev/inkwell/internal/remote"
	"github.com/inkwell-dev/inkwell/internal/upload"
)

type pasteMsg struct {
	text string
	err  error
}

// assetsMsg carries files read off the UI goroutine.
type assetsMsg struct {
	origin  upload.Origin
	assets  []assetstore.Asset
	skipped []string
}

type savedMsg struct {
	path string
	err  error
}

func readClipboard() tea.Msg {
	text, err := clipboard.ReadText()
	return pasteMsg{text: text, err: err}
}

// loadAssets reads image files. Files that are missing, too large or not
// images are reported as skipped.
func loadAssets(paths []string, origin upload.Origin) tea.Cmd {
	return func() tea.Msg {
		msg := assetsMsg{origin: origin}
		for _, p := range paths {
			a, err := readAsset(p)
			if err != nil {
				logging.Warn("Skipping asset", zap.String("path", p), zap.Error(err))
				msg.skipped = append(msg.skipped, filepath.Base(p))
				continue
			}
			msg.assets = append(msg.assets, a)
		}
		return msg
	}
}

func readAsset(path string) (assetstore.Asset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return assetstore.Asset{}, err
	}
	if info.IsDir() {
		return assetstore.Asset{}, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > assetstore.MaxAssetSize {
		return assetstore.Asset{}, fmt.Errorf("%s is larger than %d bytes", path, assetstore.MaxAssetSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return assetstore.Asset{}, err
	}
	a := assetstore.Asset{Name: filepath.Base(path), Data: data}
	a.ContentType = assetstore.DetectContentType(a)
	if !assetstore.IsImage(a.ContentType) {
		return assetstore.Asset{}, fmt.Errorf("%s is %s, not an image", path, a.ContentType)
	}
	return a, nil
}

// cleanPath undoes the quoting terminals apply to dropped file paths.
func cleanPath(p string) string {
	p = strings.TrimSpace(p)
	if len(p) >= 2 && (p[0] == '\'' || p[0] == '"') && p[len(p)-1] == p[0] {
		p = p[1 : len(p)-1]
	}
	p = strings.TrimPrefix(p, "file://")
	return strings.ReplaceAll(p, `\ `, " ")
}

// imagePaths returns the paths in text when every non-empty line names an
// existing image file, and nil otherwise.
func imagePaths(text string) []string {
	var paths []string
	for _, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) == "" {
			continue
		}
		p := cleanPath(l)
		info, err := os.Stat(p)
		if err != nil || info.IsDir() {
			return nil
		}
		ct := assetstore.DetectContentType(assetstore.Asset{Name: p})
		if !assetstore.IsImage(ct) {
			return nil
		}
		paths = append(paths, p)
	}
	return paths
}

// handlePastedText uploads pasted or dropped image paths and inserts any
// other text at the caret.
func (m *Model) handlePastedText(text string, origin upload.Origin) tea.Cmd {
	if m.recon != nil {
		if paths := imagePaths(text); len(paths) > 0 {
			return loadAssets(paths, origin)
		}
	}
	text = clipboard.Normalize(text)
	if text == "" {
		return nil
	}
	m.replace(m.Selection(), text)
	m.scrollToCaret()
	return m.tracker.Schedule()
}

func (m *Model) startUploads(msg assetsMsg) tea.Cmd {
	var cmds []tea.Cmd
	if len(msg.skipped) > 0 {
		cmds = append(cmds, m.setStatus("Skipped "+strings.Join(msg.skipped, ", ")))
	}
	if m.recon == nil || len(msg.assets) == 0 {
		return tea.Batch(cmds...)
	}

	sel := m.Selection()
	if !sel.Empty() {
		m.deleteRange(sel)
	}
	tasks, next, err := m.recon.OnAssets(msg.assets, msg.origin, m.caret)
	if err != nil {
		logging.Error("Inserting placeholders failed", zap.Error(err))
		return m.setStatus("Could not insert images: " + err.Error())
	}
	m.caret, m.anchor = next, next
	m.scrollToCaret()

	for _, t := range tasks {
		cmds = append(cmds, m.recon.Cmd(m.ctx, t))
	}
	cmds = append(cmds, m.spinner.Tick)
	return tea.Batch(cmds...)
}

func (m *Model) handleUploadResult(res upload.Result) tea.Cmd {
	if m.recon == nil {
		return nil
	}
	if m.recon.Complete(res) == upload.OutcomeFailed {
		return m.setStatus("Upload failed: " + remote.ShortMessage(res.Err) + " (ctrl+r to retry)")
	}
	return nil
}

// retryUploads restarts every failed upload still in the document.
func (m *Model) retryUploads() tea.Cmd {
	if m.recon == nil {
		return nil
	}
	tokens := m.recon.FailedTokens()
	if len(tokens) == 0 {
		return m.setStatus("No failed uploads")
	}
	var cmds []tea.Cmd
	for _, tok := range tokens {
		t, err := m.recon.Retry(tok)
		if err != nil {
			logging.Warn("Retry failed", zap.String("token", tok), zap.Error(err))
			continue
		}
		cmds = append(cmds, m.recon.Cmd(m.ctx, t))
	}
	cmds = append(cmds, m.spinner.Tick, m.setStatus(fmt.Sprintf("Retrying %d upload(s)", len(cmds))))
	return tea.Batch(cmds...)
}

// save writes the document to SavePath with a temp file and rename.
func (m *Model) save() tea.Cmd {
	path := m.opts.SavePath
	if path == "" {
		return m.setStatus("No file to save to")
	}
	snap := m.doc.Snapshot()
	return func() tea.Msg {
		return savedMsg{path: path, err: writeSnapshot(snap, path)}
	}
}

func writeSnapshot(snap document.Snapshot, path string) error {
	data, err := snap.Encode(document.FormatForPath(path))
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}
