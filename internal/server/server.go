package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/inkwell-dev/inkwell/internal/assetstore"
	"github.com/inkwell-dev/inkwell/internal/discovery"
	"github.com/inkwell-dev/inkwell/internal/logging"
	"github.com/inkwell-dev/inkwell/internal/preview"
	"github.com/inkwell-dev/inkwell/internal/transform"
	"github.com/inkwell-dev/inkwell/internal/version"
)

// ShutdownTimeout bounds a graceful shutdown.
const ShutdownTimeout = 10 * time.Second

// Config holds the server configuration
type Config struct {
	Host      string
	Port      int
	DataDir   string // Directory assets are written to
	PublicURL string // Base URL clients reach the server at; derived from Host/Port when empty
	Token     string // Bearer token required by the API (empty = open)

	CertPath string // Serve HTTPS when both are set
	KeyPath  string

	UploadRate  float64 // Sustained uploads per second across all clients
	UploadBurst int

	Advertise bool   // Register the server over mDNS
	Instance  string // mDNS instance name
}

// Server is the inkwell HTTP backend: asset uploads, static assets, text
// actions and the live preview socket.
type Server struct {
	config  *Config
	store   *assetstore.FSStore
	service transform.Service
	hub     *preview.Hub
	limiter *rate.Limiter

	tlsConfig *tls.Config
	http      *http.Server
	listener  net.Listener
	ad        *discovery.Advertisement
}

// New creates a server running transforms with service.
func New(config *Config, service transform.Service) (*Server, error) {
	if service == nil {
		return nil, errors.New("a transform service is required")
	}
	if config.DataDir == "" {
		return nil, errors.New("a data directory is required")
	}
	if err := os.MkdirAll(config.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	publicURL := config.PublicURL
	if publicURL == "" {
		host := config.Host
		if host == "" || host == "0.0.0.0" {
			host = "localhost"
		}
		scheme := "http"
		if config.CertPath != "" {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(host, fmt.Sprint(config.Port)))
	}

	limit, burst := rate.Limit(config.UploadRate), config.UploadBurst
	if limit <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 10
	}

	s := &Server{
		config:  config,
		store:   assetstore.NewFSStore(config.DataDir, publicURL),
		service: service,
		hub:     preview.NewHub(),
		limiter: rate.NewLimiter(limit, burst),
	}

	if config.CertPath != "" || config.KeyPath != "" {
		tlsConfig, err := NewTLSConfig(config.CertPath, config.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
		s.tlsConfig = tlsConfig
	}

	s.http = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		TLSConfig:         s.tlsConfig,
	}
	return s, nil
}

// Handler returns the routed handler, for mounting in tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+assetstore.UploadPath, s.requireToken(s.handleUpload))
	mux.HandleFunc("GET "+assetstore.AssetsPath+"{name}", s.handleAsset)
	mux.HandleFunc("POST "+transform.ActionPath, s.requireToken(s.handleTextAction))
	mux.HandleFunc("GET /ws", s.handlePreview)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return logRequests(mux)
}

// Start listens and serves until SIGINT or SIGTERM, then shuts down.
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.Port))

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	if s.tlsConfig != nil {
		listener = tls.NewListener(listener, s.tlsConfig)
		logging.Info("TLS Configuration", zap.Any("tls_info", GetTLSInfo(s.tlsConfig)))
	}
	s.listener = listener

	logging.Info("Starting inkwell server",
		zap.String("addr", listener.Addr().String()),
		zap.String("data_dir", s.config.DataDir),
		zap.String("public_url", s.store.PublicURL),
		zap.Bool("auth", s.config.Token != ""),
		zap.String("version", version.Version),
	)

	if s.config.Advertise {
		port := s.config.Port
		if tcp, ok := listener.Addr().(*net.TCPAddr); ok {
			port = tcp.Port
		}
		ad, err := discovery.Advertise(s.instanceName(), port, discovery.TXTRecords(version.Version))
		if err != nil {
			logging.Warn("mDNS advertisement failed", zap.Error(err))
		} else {
			s.ad = ad
		}
	}

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.http.Serve(listener)
	}()

	select {
	case <-sigChan:
		logging.Info("Shutdown signal received, stopping server...")
		ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return s.Shutdown(ctx)
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Shutdown withdraws the advertisement, closes preview sockets and waits
// for in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	s.ad.Shutdown()
	s.hub.Close()

	err := s.http.Shutdown(ctx)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		logging.Warn("Shutdown timeout, forcing close")
		err = s.http.Close()
	case err == nil:
		logging.Info("All connections closed gracefully")
	}

	logging.Sync()
	return err
}

// Addr returns the listening address once Start has bound it.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// PreviewClients returns the number of connected preview sockets.
func (s *Server) PreviewClients() int {
	return s.hub.Clients()
}

func (s *Server) instanceName() string {
	if s.config.Instance != "" {
		return s.config.Instance
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "inkwell"
	}
	return "inkwell on " + host
}
