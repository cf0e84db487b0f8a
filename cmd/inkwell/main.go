// Inkwell is a terminal rich-text editor with a slash-command palette,
// AI-assisted text actions and image uploads.
//
// Usage:
//
//	inkwell [command] [flags]
//
// Running without arguments opens an empty document in the editor.
// See 'inkwell --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/inkwell-dev/inkwell/internal/config"
	"github.com/inkwell-dev/inkwell/internal/logging"
	"github.com/inkwell-dev/inkwell/internal/version"
)

func main() {
	defer logging.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Global flags
var (
	serverURL string
	offline   bool
	discover  bool
	logLevel  string
)

var rootCmd = &cobra.Command{
	Use:   "inkwell",
	Short: "Terminal rich-text editor",
	Long: `A rich-text editor for the terminal.

Type "/" at the start of a block for the command palette, select text for
AI actions, and paste image paths to upload them in the background.

If no command is specified, the editor opens an empty document.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The editor owns the terminal and logs to a file instead
		if cmd == editCmd || cmd == cmd.Root() {
			return nil
		}
		return logging.Initialize(logLevel)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEdit(cmd, args)
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "inkwell-server URL (overrides services.server_url)")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "Work without a server: local asset files and canned transforms")
	rootCmd.PersistentFlags().BoolVar(&discover, "discover", false, "Find an inkwell-server on the local network over mDNS")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); default "+logging.LogLevelEnvVar)

	rootCmd.AddCommand(versionCmd)
}

func loadRegistry() (*config.Registry, error) {
	reg, err := config.LoadRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return reg, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("inkwell %s\n", version.Full())
	},
}
