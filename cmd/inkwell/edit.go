package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inkwell-dev/inkwell/internal/clipboard"
	"github.com/inkwell-dev/inkwell/internal/config"
	"github.com/inkwell-dev/inkwell/internal/document"
	"github.com/inkwell-dev/inkwell/internal/editor"
	"github.com/inkwell-dev/inkwell/internal/logging"
	"github.com/inkwell-dev/inkwell/internal/preview"
	"github.com/inkwell-dev/inkwell/internal/selection"
)

var (
	editPreview bool
	editDirect  bool
	editNoMouse bool
)

var editCmd = &cobra.Command{
	Use:   "edit [file]",
	Short: "Open a document in the editor",
	Long: `Open a Markdown or JSON document in the interactive editor.

The file is created on first save (ctrl+s) if it does not exist. Without a
file the document is kept in memory only.`,
	Example: `  # Edit notes.md against the configured server
  inkwell edit notes.md

  # Work without a server
  inkwell edit notes.md --offline

  # Find the server over mDNS and mirror the document to its preview page
  inkwell edit notes.md --discover --preview`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEdit,
}

func init() {
	editCmd.Flags().BoolVar(&editPreview, "preview", false, "Publish every change to the server's live preview")
	editCmd.Flags().BoolVar(&editDirect, "direct", false, "Call the OpenAI API directly instead of the server")
	editCmd.Flags().BoolVar(&editNoMouse, "no-mouse", false, "Disable mouse support")
	rootCmd.AddCommand(editCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
	logPath, err := config.GetLogPath()
	if err != nil {
		return err
	}
	if err := logging.InitializeFile(logLevel, logPath); err != nil {
		return err
	}

	reg, err := loadRegistry()
	if err != nil {
		return err
	}

	var path string
	doc := document.New()
	if len(args) == 1 {
		path = args[0]
		doc, err = openDocument(path)
		if err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	base := ""
	if !offline {
		if base, err = resolveServer(ctx, reg); err != nil {
			return err
		}
	}
	store, err := buildStore(reg, base)
	if err != nil {
		return err
	}
	service, err := buildService(reg, base, editDirect)
	if err != nil {
		return err
	}

	opts := editor.Options{
		Document:  doc,
		AgentID:   reg.Services.AgentID,
		Flag:      reg,
		Snooze:    reg,
		Store:     store,
		Service:   service,
		Clipboard: clipboard.New(os.Stdout),
		Models:    catalogue(reg),
		Trigger:   reg.Editor.Trigger,
		Selection: selection.Config{
			Debounce:  reg.Editor.Debounce(),
			MinLength: reg.Editor.MinSelection,
			SnoozeFor: config.DefaultSnoozeDays * 24 * time.Hour,
		},
		Stagger:          reg.Editor.UploadStagger(),
		TransformTimeout: reg.Editor.TransformTimeout(),
		Language:         reg.Assistant.Language,
		SavePath:         path,
	}
	if offline && opts.AgentID == "" {
		opts.AgentID = "offline"
	}

	if editPreview && !offline {
		pub, err := dialPreview(ctx, base)
		if err != nil {
			return err
		}
		defer pub.Close()
		opts.OnContentChange = func(serialized []byte) {
			if err := pub.Publish(serialized); err != nil {
				logging.Debug("Preview publish dropped", zap.Error(err))
			}
		}
	}

	m := editor.New(opts)
	defer m.Close()

	programOpts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if !editNoMouse {
		programOpts = append(programOpts, tea.WithMouseCellMotion())
	}
	logging.Info("Starting editor", zap.String("path", path), zap.String("server", base), zap.Bool("offline", offline))
	if _, err := tea.NewProgram(m, programOpts...).Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("editor failed: %w", err)
	}
	return nil
}

// openDocument loads path, or starts an empty document when it does not
// exist yet.
func openDocument(path string) (*document.Document, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return document.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	doc, err := document.Decode(data, document.FormatForPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return doc, nil
}

func dialPreview(ctx context.Context, base string) (*preview.Publisher, error) {
	wsURL, err := previewURL(base)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pub, err := preview.Dial(ctx, wsURL)
	if err != nil {
		return nil, fmt.Errorf("preview unavailable at %s: %w", wsURL, err)
	}
	return pub, nil
}
