// Inkwell-server is the backend of the inkwell editor.
//
// It stores uploaded images, runs AI text actions, and relays documents to
// live preview viewers over a websocket.
//
// Usage:
//
//	inkwell-server serve [flags]
//
// See 'inkwell-server serve --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inkwell-dev/inkwell/internal/discovery"
	"github.com/inkwell-dev/inkwell/internal/logging"
	"github.com/inkwell-dev/inkwell/internal/server"
	"github.com/inkwell-dev/inkwell/internal/transform"
	"github.com/inkwell-dev/inkwell/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "inkwell-server",
	Short: "inkwell backend server",
	Long: `The HTTP backend of the inkwell editor.

Serves image uploads and static assets, runs AI text actions through the
OpenAI API (or canned results with --offline), and hosts the live preview
websocket.

Note: The editor itself is the separate 'inkwell' binary.`,
	Version:      version.Version,
	SilenceUsage: true,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// Serve command flags
var (
	host        string
	port        int
	dataDir     string
	publicURL   string
	tokenEnv    string
	apiKeyEnv   string
	openaiBase  string
	model       string
	offline     bool
	advertise   bool
	instance    string
	uploadRate  float64
	uploadBurst int
	certPath    string
	keyPath     string
	logLevel    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the server",
	Long: `Start inkwell-server.

Uploaded images are written to --data-dir and served under /assets/. Text
actions need an OpenAI API key in the environment variable named by
--api-key-env, unless --offline is given.

When the environment variable named by --token-env is set, uploads and text
actions require "Authorization: Bearer <token>".`,
	Example: `  # Serve on port 8080 with assets in ./inkwell-data
  inkwell-server serve

  # Canned transforms, no API key needed
  inkwell-server serve --offline --log-level debug

  # Behind a reverse proxy with a public hostname
  inkwell-server serve --public-url https://ink.example.com

  # HTTPS with your own certificate
  inkwell-server serve --cert fullchain.pem --key privkey.pem --port 8443`,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&host, "host", "", "Listen address (empty = all interfaces)")
	f.IntVar(&port, "port", discovery.DefaultPort, "Listen port")
	f.StringVar(&dataDir, "data-dir", "inkwell-data", "Directory uploaded assets are stored in")
	f.StringVar(&publicURL, "public-url", "", "Base URL clients reach this server at (default derived from host and port)")
	f.StringVar(&tokenEnv, "token-env", "INKWELL_TOKEN", "Environment variable holding the API bearer token")
	f.StringVar(&apiKeyEnv, "api-key-env", "OPENAI_API_KEY", "Environment variable holding the OpenAI API key")
	f.StringVar(&openaiBase, "openai-base-url", "", "OpenAI-compatible API base URL")
	f.StringVar(&model, "model", transform.DefaultOpenAIModel, "Default model for text actions")
	f.BoolVar(&offline, "offline", false, "Return canned text-action results instead of calling a model")
	f.BoolVar(&advertise, "advertise", true, "Advertise the server over mDNS as "+discovery.ServiceType)
	f.StringVar(&instance, "instance", "", "mDNS instance name (default \"inkwell on <hostname>\")")
	f.Float64Var(&uploadRate, "upload-rate", 5, "Sustained uploads per second (0 = unlimited)")
	f.IntVar(&uploadBurst, "upload-burst", 20, "Upload burst size")
	f.StringVar(&certPath, "cert", "", "Path to TLS certificate file (serve HTTPS when set with --key)")
	f.StringVar(&keyPath, "key", "", "Path to TLS private key file")
	f.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if (certPath == "") != (keyPath == "") {
		return fmt.Errorf("both --cert and --key must be provided together, or neither")
	}

	if err := logging.Initialize(logLevel); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logging.Sync()

	var service transform.Service
	if offline {
		service = &transform.MockService{}
		logging.Info("Offline mode: text actions return canned results")
	} else {
		svc, err := transform.NewOpenAIService(os.Getenv(apiKeyEnv), openaiBase, model)
		if err != nil {
			return fmt.Errorf("%s is not set (use --offline to run without a model): %w", apiKeyEnv, err)
		}
		service = svc
		logging.Info("Text actions use the OpenAI API", zap.String("model", svc.DefaultModel))
	}

	config := &server.Config{
		Host:        host,
		Port:        port,
		DataDir:     dataDir,
		PublicURL:   publicURL,
		Token:       os.Getenv(tokenEnv),
		CertPath:    certPath,
		KeyPath:     keyPath,
		UploadRate:  uploadRate,
		UploadBurst: uploadBurst,
		Advertise:   advertise,
		Instance:    instance,
	}

	srv, err := server.New(config, service)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Start()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("inkwell-server %s (commit: %s)\n", version.Version, version.Commit)
	},
}
