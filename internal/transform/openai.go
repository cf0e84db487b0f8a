package transform

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/inkwell-dev/inkwell/internal/logging"
	"github.com/inkwell-dev/inkwell/internal/remote"
)

const (
	// DefaultOpenAIModel is used when a request carries no model hint
	DefaultOpenAIModel = "gpt-4"

	temperature = 0.7
	maxTokens   = 3000
)

const openaiService = "OpenAI"

// OpenAIService runs transforms directly against an OpenAI-compatible chat
// completions API.
type OpenAIService struct {
	client       openai.Client
	DefaultModel string
}

// NewOpenAIService creates a service using apiKey. baseURL may be empty for
// the public API. The SDK's own retries are disabled; callers decide.
func NewOpenAIService(apiKey, baseURL, model string, opts ...option.RequestOption) (*OpenAIService, error) {
	if apiKey == "" {
		return nil, remote.NewAuthError(openaiService, "openai api key missing", 0)
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	all := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(DefaultTimeout),
	}
	if baseURL != "" {
		all = append(all, option.WithBaseURL(baseURL))
	}
	all = append(all, opts...)
	return &OpenAIService{client: openai.NewClient(all...), DefaultModel: model}, nil
}

// Transform implements Service.
func (s *OpenAIService) Transform(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(openaiService); err != nil {
		return Result{}, err
	}

	model := req.Model.ModelID
	if model == "" {
		model = s.DefaultModel
	}
	system, user := BuildPrompt(req)

	logging.LogTransform(req.Action.String(), "request",
		zap.String("model", model),
		zap.Int("chars", len([]rune(req.Text))),
	)

	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(temperature),
		MaxTokens:   openai.Int(maxTokens),
	})
	if err != nil {
		classified := classifyOpenAIError(err)
		logging.LogTransform(req.Action.String(), "failed", zap.Error(classified))
		return Result{}, classified
	}
	if len(resp.Choices) == 0 {
		return Result{}, remote.NewParseError(openaiService, "empty choices", nil)
	}

	text, explanation := SplitExplanation(req.Action, resp.Choices[0].Message.Content)
	logging.LogTransform(req.Action.String(), "response",
		zap.Int("chars", len([]rune(text))),
		zap.Bool("explanation", explanation != ""),
	)
	return Result{
		Action:        req.Action,
		OriginalText:  req.Text,
		ProcessedText: text,
		Explanation:   explanation,
	}, nil
}

// classifyOpenAIError maps SDK errors onto the remote taxonomy.
func classifyOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return remote.NewAuthError(openaiService, "api key rejected", apiErr.StatusCode)
		case http.StatusBadRequest, http.StatusNotFound:
			e := remote.NewValidationError(openaiService, fmt.Sprintf("request rejected: %s", apiErr.Error()))
			e.StatusCode = apiErr.StatusCode
			return e
		default:
			return remote.NewHTTPError(openaiService, apiErr.StatusCode, apiErr.Error())
		}
	}
	return remote.NewNetworkError(openaiService, "chat completion failed", err)
}
