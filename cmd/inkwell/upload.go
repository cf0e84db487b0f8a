package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/inkwell-dev/inkwell/internal/assetstore"
	"github.com/inkwell-dev/inkwell/internal/remote"
	"github.com/inkwell-dev/inkwell/internal/ui"
)

var uploadMarkdown bool

var uploadCmd = &cobra.Command{
	Use:   "upload <file>...",
	Short: "Upload images to the asset store",
	Long: `Upload image files to the configured asset store and print their URLs.

Files are uploaded in order. A failed file does not stop the rest.`,
	Example: `  # Upload two screenshots
  inkwell upload shot1.png shot2.png

  # Print Markdown image lines to paste into a document
  inkwell upload diagrams/*.svg --markdown`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().BoolVar(&uploadMarkdown, "markdown", false, "Print a Markdown image line per uploaded file")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
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

	var urls []assetstore.Uploaded
	tasks := make([]ui.Task, len(args))
	for i, path := range args {
		tasks[i] = ui.Task{
			Name: filepath.Base(path),
			Run: func(ctx context.Context) (string, string, error) {
				a, err := readUploadFile(path)
				if err != nil {
					return "unreadable", "", err
				}
				up, err := store.Upload(ctx, a)
				if err != nil {
					return remote.ShortMessage(err), "", err
				}
				urls = append(urls, assetstore.Uploaded{URL: up.URL, Name: a.Name})
				return humanize.Bytes(uint64(len(a.Data))), up.URL, nil
			},
		}
	}

	storeLabel := base
	if offline {
		storeLabel = "local files"
	} else if reg.Services.AssetBackend == "github" {
		storeLabel = fmt.Sprintf("github.com/%s/%s", reg.Services.GitHub.Owner, reg.Services.GitHub.Repo)
	}

	runner := ui.NewRunner(ui.RunnerConfig{
		Title:   "Upload",
		Command: "inkwell upload",
		Params: []ui.Param{
			{Key: "Store", Value: storeLabel},
			{Key: "Files", Value: fmt.Sprint(len(args))},
		},
		Output: cmd.OutOrStdout(),
		Hints: func(err error) []string {
			return ui.Troubleshooting(remote.GetTroubleshootingHint(err))
		},
	})
	runErr := runner.Run(ctx, tasks)

	if uploadMarkdown && len(urls) > 0 {
		fmt.Fprintln(cmd.OutOrStdout())
		for _, u := range urls {
			fmt.Fprintf(cmd.OutOrStdout(), "![%s](%s)\n", u.Name, u.URL)
		}
	}
	return runErr
}

func readUploadFile(path string) (assetstore.Asset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return assetstore.Asset{}, err
	}
	if info.IsDir() {
		return assetstore.Asset{}, errors.New("is a directory")
	}
	if info.Size() > assetstore.MaxAssetSize {
		return assetstore.Asset{}, fmt.Errorf("%s exceeds the %s limit", humanize.Bytes(uint64(info.Size())), humanize.Bytes(assetstore.MaxAssetSize))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return assetstore.Asset{}, err
	}
	return assetstore.Asset{Name: filepath.Base(path), Data: data}, nil
}
