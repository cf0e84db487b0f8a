package server

import (
	"bufio"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/inkwell-dev/inkwell/internal/assetstore"
	"github.com/inkwell-dev/inkwell/internal/logging"
	"github.com/inkwell-dev/inkwell/internal/remote"
	"github.com/inkwell-dev/inkwell/internal/transform"
	"github.com/inkwell-dev/inkwell/internal/version"
)

// maxUploadBody bounds an upload request: the base64 form of a
// MaxAssetSize image plus the JSON envelope.
const maxUploadBody = assetstore.MaxAssetSize*4/3 + 64<<10

const maxActionBody = 1 << 20

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "too many uploads, slow down")
		return
	}

	var req assetstore.UploadRequest
	if err := decodeJSON(w, r, maxUploadBody, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	data, err := base64.StdEncoding.DecodeString(req.Base64Data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "base64Data is not valid base64")
		return
	}
	if len(data) > assetstore.MaxAssetSize {
		writeError(w, http.StatusRequestEntityTooLarge, "image exceeds 10MB")
		return
	}

	up, err := s.store.Upload(r.Context(), assetstore.Asset{
		Name:        req.Filename,
		ContentType: req.ContentType,
		Data:        data,
	})
	if err != nil {
		logging.Warn("Upload rejected", zap.String("filename", req.Filename), zap.Error(err))
		writeError(w, statusFor(err), remote.ShortMessage(err))
		return
	}

	logging.Info("Asset uploaded",
		zap.String("filename", req.Filename),
		zap.String("stored_as", up.Name),
		zap.Int("bytes", len(data)),
	)
	writeJSON(w, http.StatusOK, assetstore.UploadResponse{URL: up.URL, Filename: up.Name})
}

func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	path, ok := s.store.Path(r.PathValue("name"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	http.ServeFile(w, r, path)
}

func (s *Server) handleTextAction(w http.ResponseWriter, r *http.Request) {
	var body transform.ActionRequest
	if err := decodeJSON(w, r, maxActionBody, &body); err != nil {
		writeDecodeError(w, err)
		return
	}
	req := body.ToRequest()
	if err := req.Validate("inkwell-server"); err != nil {
		writeError(w, http.StatusBadRequest, remote.ShortMessage(err))
		return
	}

	start := time.Now()
	logging.LogTransform(req.Action.String(), "request",
		zap.String("agent_id", req.AgentID),
		zap.Int("text_length", len(req.Text)),
	)
	res, err := s.service.Transform(r.Context(), req)
	if err != nil {
		logging.LogTransform(req.Action.String(), "failed", zap.Error(err))
		writeError(w, statusFor(err), remote.ShortMessage(err))
		return
	}
	logging.LogTransform(req.Action.String(), "response", zap.Duration("elapsed", time.Since(start)))
	writeJSON(w, http.StatusOK, transform.NewActionResponse(res))
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if err := ValidateWebSocketUpgradeRequest(r); err != nil {
		logging.Warn("Rejected preview connection", zap.String("remote_addr", r.RemoteAddr), zap.Error(err))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.hub.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"version":         version.Version,
		"preview_clients": s.hub.Clients(),
	})
}

// requireToken rejects requests without the configured bearer token.
func (s *Server) requireToken(next http.HandlerFunc) http.HandlerFunc {
	if s.config.Token == "" {
		return next
	}
	want := []byte("Bearer " + s.config.Token)
	return func(w http.ResponseWriter, r *http.Request) {
		got := []byte(r.Header.Get("Authorization"))
		if subtle.ConstantTimeCompare(got, want) != 1 {
			writeError(w, http.StatusUnauthorized, "missing or invalid token")
			return
		}
		next(w, r)
	}
}

// ValidateWebSocketUpgradeRequest checks if the incoming HTTP request is a valid WebSocket upgrade
func ValidateWebSocketUpgradeRequest(req *http.Request) error {
	// Check method
	if req.Method != http.MethodGet {
		return fmt.Errorf("invalid method: %s (expected GET)", req.Method)
	}

	// Check Upgrade header
	upgrade := strings.ToLower(req.Header.Get("Upgrade"))
	if upgrade != "websocket" {
		return fmt.Errorf("invalid Upgrade header: %q (expected websocket)", upgrade)
	}

	// Check Connection header
	connection := strings.ToLower(req.Header.Get("Connection"))
	if !strings.Contains(connection, "upgrade") {
		return fmt.Errorf("invalid Connection header: %q (expected upgrade)", connection)
	}

	if v := req.Header.Get("Sec-WebSocket-Version"); v != "13" {
		return fmt.Errorf("invalid Sec-WebSocket-Version: %q (expected 13)", v)
	}

	if req.Header.Get("Sec-WebSocket-Key") == "" {
		return errors.New("missing Sec-WebSocket-Key header")
	}

	return nil
}

// statusFor maps a service error onto the HTTP status returned to clients.
func statusFor(err error) int {
	switch remote.TypeOf(err) {
	case remote.ErrTypeValidation:
		return http.StatusBadRequest
	case remote.ErrTypeAuth:
		return http.StatusBadGateway
	case remote.ErrTypeTimeout:
		return http.StatusGatewayTimeout
	case remote.ErrTypeCanceled:
		return 499
	case remote.ErrTypeUnknown:
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

func writeDecodeError(w http.ResponseWriter, err error) {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		writeError(w, http.StatusRequestEntityTooLarge, "image exceeds 10MB")
		return
	}
	writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("Failed to write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// statusRecorder captures the status written by a handler. It forwards
// Hijack so websocket upgrades still work behind the middleware.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// logRequests logs every request and the status it was answered with.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		LogHTTPRequestDetails(r, r.RemoteAddr)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logging.LogHTTPResponse(r.RemoteAddr, rec.status, map[string]string{
			"Content-Type": rec.Header().Get("Content-Type"),
		})
	})
}

// LogHTTPRequestDetails logs all details of an HTTP request. Credentials
// are redacted.
func LogHTTPRequestDetails(req *http.Request, remoteAddr string) {
	headers := make(map[string]string)
	for key, values := range req.Header {
		if key == "Authorization" {
			headers[key] = "[redacted]"
			continue
		}
		headers[key] = strings.Join(values, ", ")
	}

	logging.LogHTTPRequest(remoteAddr, req.Method, req.URL.Path, headers)

	if req.Header.Get("Upgrade") != "" {
		logging.Debug("WebSocket upgrade request details",
			zap.String("remote_addr", remoteAddr),
			zap.String("host", req.Host),
			zap.String("origin", req.Header.Get("Origin")),
			zap.String("sec_websocket_version", req.Header.Get("Sec-WebSocket-Version")),
			zap.String("user_agent", req.Header.Get("User-Agent")),
		)
	}
}
