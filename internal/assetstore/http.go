package assetstore

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/inkwell-dev/inkwell/internal/logging"
	"github.com/inkwell-dev/inkwell/internal/remote"
	"github.com/inkwell-dev/inkwell/internal/version"
)

// UploadPath is the inkwell-server endpoint that accepts assets.
const UploadPath = "/api/upload-image"

const httpService = "Asset store"

// UploadRequest is the JSON body POSTed to UploadPath.
type UploadRequest struct {
	Base64Data  string `json:"base64Data"`
	ContentType string `json:"contentType"`
	Filename    string `json:"filename"`
}

// UploadResponse is the JSON body returned by UploadPath.
type UploadResponse struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Error    string `json:"error,omitempty"`
}

// HTTPStore uploads assets to an inkwell-server.
type HTTPStore struct {
	// BaseURL is the server root, e.g. "http://localhost:8080"
	BaseURL string

	// Token is sent as a Bearer token when non-empty
	Token string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// Retry controls repeated attempts on retryable failures
	Retry remote.RetryPolicy

	now func() time.Time
}

// NewHTTPStore creates a store for the server at baseURL with default
// timeout and retry settings.
func NewHTTPStore(baseURL string) *HTTPStore {
	return &HTTPStore{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: remote.DefaultTimeout},
		Retry:      remote.DefaultRetryPolicy(),
		now:        time.Now,
	}
}

// Upload implements Store.
func (s *HTTPStore) Upload(ctx context.Context, a Asset) (Uploaded, error) {
	ct, err := validate(httpService, a)
	if err != nil {
		return Uploaded{}, err
	}

	name, err := UniqueName(a.Name, ct, s.clock())
	if err != nil {
		return Uploaded{}, err
	}

	body, err := json.Marshal(UploadRequest{
		Base64Data:  base64.StdEncoding.EncodeToString(a.Data),
		ContentType: ct,
		Filename:    name,
	})
	if err != nil {
		return Uploaded{}, remote.NewValidationError(httpService, fmt.Sprintf("failed to encode request: %v", err))
	}

	var out Uploaded
	err = s.Retry.Do(ctx, func(ctx context.Context) error {
		var attemptErr error
		out, attemptErr = s.uploadAttempt(ctx, body)
		if attemptErr != nil {
			logging.Debug("Upload attempt failed", zap.String("name", name), zap.Error(attemptErr))
		}
		return attemptErr
	})
	if err != nil {
		return Uploaded{}, err
	}
	return out, nil
}

// uploadAttempt performs a single POST
func (s *HTTPStore) uploadAttempt(ctx context.Context, body []byte) (Uploaded, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+UploadPath, bytes.NewReader(body))
	if err != nil {
		return Uploaded{}, remote.NewNetworkError(httpService, "failed to create POST request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	start := time.Now()
	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return Uploaded{}, remote.NewNetworkError(httpService, "POST request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()
	logging.Debug("Upload response",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if err := remote.CheckResponse(httpService, resp); err != nil {
		return Uploaded{}, err
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Uploaded{}, remote.NewNetworkError(httpService, "failed to read response body", err)
	}

	var parsed UploadResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Uploaded{}, remote.NewParseError(httpService, "failed to parse JSON response", err)
	}
	if parsed.URL == "" {
		return Uploaded{}, remote.NewParseError(httpService, "response has no url", nil)
	}

	url := parsed.URL
	if strings.HasPrefix(url, "/") {
		url = s.BaseURL + url
	}
	return Uploaded{URL: url, Name: parsed.Filename}, nil
}

func (s *HTTPStore) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}
