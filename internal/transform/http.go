package transform

import (
	"bytes"
	"context"
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

// ActionPath is the inkwell-server text-action endpoint.
const ActionPath = "/api/agents/text-action"

// DefaultTimeout bounds one transform call.
const DefaultTimeout = 60 * time.Second

const httpService = "Transform service"

// ActionRequest is the JSON body POSTed to ActionPath.
type ActionRequest struct {
	AgentID     string     `json:"agentId"`
	Text        string     `json:"text"`
	ActionType  ActionType `json:"actionType"`
	Instruction string     `json:"instruction,omitempty"`
	Context     string     `json:"context,omitempty"`
	Language    string     `json:"language,omitempty"`
	Provider    string     `json:"provider,omitempty"`
	Model       string     `json:"model,omitempty"`
}

// ToRequest converts the wire body into a Request.
func (r ActionRequest) ToRequest() Request {
	return Request{
		AgentID:     r.AgentID,
		Text:        r.Text,
		Action:      r.ActionType,
		Instruction: r.Instruction,
		Context:     r.Context,
		Language:    r.Language,
		Model:       ModelHint{Provider: r.Provider, ModelID: r.Model},
	}
}

// ActionResponse is the JSON body returned by ActionPath.
type ActionResponse struct {
	ActionType    ActionType `json:"actionType"`
	OriginalText  string     `json:"originalText"`
	ProcessedText string     `json:"processedText"`
	Explanation   string     `json:"explanation,omitempty"`
}

// NewActionResponse converts a Result into the wire body.
func NewActionResponse(res Result) ActionResponse {
	return ActionResponse{
		ActionType:    res.Action,
		OriginalText:  res.OriginalText,
		ProcessedText: res.ProcessedText,
		Explanation:   res.Explanation,
	}
}

// HTTPService runs transforms on an inkwell-server.
type HTTPService struct {
	// BaseURL is the server root, e.g. "http://localhost:8080"
	BaseURL string

	// Token is sent as a Bearer token when non-empty
	Token string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// Retry controls repeated attempts; transforms are not retried by default
	Retry remote.RetryPolicy
}

// NewHTTPService creates a service for the server at baseURL.
func NewHTTPService(baseURL, token string) *HTTPService {
	return &HTTPService{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
		Retry:      remote.NoRetry(),
	}
}

// Transform implements Service.
func (s *HTTPService) Transform(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(httpService); err != nil {
		return Result{}, err
	}

	body, err := json.Marshal(ActionRequest{
		AgentID:     req.AgentID,
		Text:        req.Text,
		ActionType:  req.Action,
		Instruction: req.Instruction,
		Context:     req.Context,
		Language:    req.Language,
		Provider:    req.Model.Provider,
		Model:       req.Model.ModelID,
	})
	if err != nil {
		return Result{}, remote.NewValidationError(httpService, fmt.Sprintf("failed to encode request: %v", err))
	}

	logging.LogTransform(req.Action.String(), "request",
		zap.Int("chars", len([]rune(req.Text))),
		zap.String("model", req.Model.ModelID),
	)

	var res Result
	err = s.Retry.Do(ctx, func(ctx context.Context) error {
		var attemptErr error
		res, attemptErr = s.transformAttempt(ctx, body)
		return attemptErr
	})
	if err != nil {
		logging.LogTransform(req.Action.String(), "failed", zap.Error(err))
		return Result{}, err
	}
	if res.OriginalText == "" {
		res.OriginalText = req.Text
	}
	res.Action = req.Action
	logging.LogTransform(req.Action.String(), "response", zap.Int("chars", len([]rune(res.ProcessedText))))
	return res, nil
}

func (s *HTTPService) transformAttempt(ctx context.Context, body []byte) (Result, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+ActionPath, bytes.NewReader(body))
	if err != nil {
		return Result{}, remote.NewNetworkError(httpService, "failed to create POST request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", version.UserAgent())
	if s.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := s.HTTPClient.Do(httpReq)
	if err != nil {
		return Result{}, remote.NewNetworkError(httpService, "POST request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := remote.CheckResponse(httpService, resp); err != nil {
		return Result{}, err
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, remote.NewNetworkError(httpService, "failed to read response body", err)
	}

	var parsed ActionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Result{}, remote.NewParseError(httpService, "failed to parse JSON response", err)
	}

	return Result{
		Action:        parsed.ActionType,
		OriginalText:  parsed.OriginalText,
		ProcessedText: parsed.ProcessedText,
		Explanation:   parsed.Explanation,
	}, nil
}
