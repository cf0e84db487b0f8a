package config

import (
	"sync"
	"time"
)

// Default editor timings and thresholds.
const (
	DefaultTrigger             = "/"
	DefaultMinSelection        = 3
	DefaultDebounceMS          = 100
	DefaultUploadStaggerMS     = 200
	DefaultTransformTimeoutSec = 60
	DefaultSnoozeDays          = 30
	DefaultServerURL           = "http://localhost:8080"
	DefaultLanguage            = "English"
)

// Registry represents the entire user configuration file.
type Registry struct {
	Version   int             `yaml:"version"`
	Editor    *EditorPrefs    `yaml:"editor,omitempty"`
	Assistant *AssistantPrefs `yaml:"assistant,omitempty"`
	Services  *ServicePrefs   `yaml:"services,omitempty"`
	Models    []ModelEntry    `yaml:"models,omitempty"` // Model picker entries, in display order

	mu sync.RWMutex
}

// EditorPrefs holds timings and thresholds of the editor core.
type EditorPrefs struct {
	Trigger             string `yaml:"trigger"`               // Command palette trigger character
	MinSelection        int    `yaml:"min_selection"`         // Minimum selection length in runes
	DebounceMS          int    `yaml:"debounce_ms"`           // Selection re-check debounce
	UploadStaggerMS     int    `yaml:"upload_stagger_ms"`     // Delay between staggered uploads
	TransformTimeoutSec int    `yaml:"transform_timeout_sec"` // 0 or less uses the default
}

// AssistantPrefs holds the AI assistance feature flag and its advisory state.
type AssistantPrefs struct {
	Enabled       bool      `yaml:"enabled"`
	DontShowUntil time.Time `yaml:"dont_show_until,omitempty"` // Advisory snooze deadline
	Provider      string    `yaml:"provider,omitempty"`        // Default model provider
	Model         string    `yaml:"model,omitempty"`           // Default model id
	Language      string    `yaml:"language,omitempty"`        // Default translate target
}

// ServicePrefs points the editor at its external collaborators.
// Secrets are never stored here, only the names of environment variables holding them.
type ServicePrefs struct {
	ServerURL    string       `yaml:"server_url"`
	AgentID      string       `yaml:"agent_id,omitempty"`
	TokenEnv     string       `yaml:"token_env,omitempty"`   // Bearer token for the text-action endpoint
	APIKeyEnv    string       `yaml:"api_key_env,omitempty"` // OpenAI key for direct transforms
	OpenAIBase   string       `yaml:"openai_base_url,omitempty"`
	AssetBackend string       `yaml:"asset_backend,omitempty"` // "server" (default) or "github"
	GitHub       *GitHubPrefs `yaml:"github,omitempty"`
	Discover     bool         `yaml:"discover"` // Browse mDNS for a server when ServerURL is unreachable
}

// GitHubPrefs configures the GitHub contents API asset backend.
type GitHubPrefs struct {
	Owner    string `yaml:"owner"`
	Repo     string `yaml:"repo"`
	Branch   string `yaml:"branch,omitempty"`
	Dir      string `yaml:"dir,omitempty"`
	TokenEnv string `yaml:"token_env,omitempty"`
}

// ModelEntry is one selectable model in the model picker.
type ModelEntry struct {
	Provider string `yaml:"provider"`
	ModelID  string `yaml:"model_id"`
	Name     string `yaml:"name,omitempty"`
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version: 1,
		Editor:  defaultEditorPrefs(),
		Assistant: &AssistantPrefs{
			Enabled:  true,
			Provider: "openai",
			Model:    "gpt-4",
			Language: DefaultLanguage,
		},
		Services: &ServicePrefs{
			ServerURL:    DefaultServerURL,
			TokenEnv:     "INKWELL_TOKEN",
			APIKeyEnv:    "OPENAI_API_KEY",
			AssetBackend: "server",
		},
		Models: DefaultModels(),
	}
}

func defaultEditorPrefs() *EditorPrefs {
	return &EditorPrefs{
		Trigger:             DefaultTrigger,
		MinSelection:        DefaultMinSelection,
		DebounceMS:          DefaultDebounceMS,
		UploadStaggerMS:     DefaultUploadStaggerMS,
		TransformTimeoutSec: DefaultTransformTimeoutSec,
	}
}

// DefaultModels returns the built-in model catalogue.
func DefaultModels() []ModelEntry {
	return []ModelEntry{
		{Provider: "openai", ModelID: "gpt-4", Name: "GPT-4"},
		{Provider: "openai", ModelID: "gpt-4-turbo-preview", Name: "GPT-4 Turbo"},
		{Provider: "openai", ModelID: "gpt-3.5-turbo", Name: "GPT-3.5 Turbo"},
		{Provider: "claude", ModelID: "claude-3-5-sonnet-20241022", Name: "Claude 3.5 Sonnet"},
		{Provider: "claude", ModelID: "claude-3-opus-20240229", Name: "Claude 3 Opus"},
		{Provider: "gemini", ModelID: "gemini-pro", Name: "Gemini Pro"},
	}
}

// fillDefaults backfills sections missing from an older or hand-edited file.
func (r *Registry) fillDefaults() {
	def := NewRegistry()
	if r.Editor == nil {
		r.Editor = def.Editor
	}
	if r.Editor.Trigger == "" {
		r.Editor.Trigger = DefaultTrigger
	}
	if r.Editor.MinSelection <= 0 {
		r.Editor.MinSelection = DefaultMinSelection
	}
	if r.Editor.DebounceMS <= 0 {
		r.Editor.DebounceMS = DefaultDebounceMS
	}
	if r.Editor.TransformTimeoutSec <= 0 {
		r.Editor.TransformTimeoutSec = DefaultTransformTimeoutSec
	}
	if r.Editor.UploadStaggerMS < 0 {
		r.Editor.UploadStaggerMS = DefaultUploadStaggerMS
	}
	if r.Assistant == nil {
		r.Assistant = def.Assistant
	}
	if r.Services == nil {
		r.Services = def.Services
	}
	if r.Services.ServerURL == "" {
		r.Services.ServerURL = DefaultServerURL
	}
	if len(r.Models) == 0 {
		r.Models = def.Models
	}
}

// Debounce returns the selection debounce interval.
func (e *EditorPrefs) Debounce() time.Duration {
	return time.Duration(e.DebounceMS) * time.Millisecond
}

// UploadStagger returns the delay between staggered uploads.
func (e *EditorPrefs) UploadStagger() time.Duration {
	return time.Duration(e.UploadStaggerMS) * time.Millisecond
}

// TransformTimeout returns the transform request timeout. Every transform is
// bounded; an unset value falls back to DefaultTransformTimeoutSec.
func (e *EditorPrefs) TransformTimeout() time.Duration {
	if e.TransformTimeoutSec <= 0 {
		return DefaultTransformTimeoutSec * time.Second
	}
	return time.Duration(e.TransformTimeoutSec) * time.Second
}

// AIEnabled reports whether AI assistance is enabled.
func (r *Registry) AIEnabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.Assistant != nil && r.Assistant.Enabled
}

// SetAIEnabled toggles AI assistance and persists the change.
func (r *Registry) SetAIEnabled(enabled bool) error {
	r.mu.Lock()
	if r.Assistant == nil {
		r.Assistant = &AssistantPrefs{}
	}
	r.Assistant.Enabled = enabled
	r.mu.Unlock()
	return r.Save()
}

// DontShowUntil returns the advisory snooze deadline (zero if never snoozed).
func (r *Registry) DontShowUntil() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Assistant == nil {
		return time.Time{}
	}
	return r.Assistant.DontShowUntil
}

// SetDontShowUntil stores the advisory snooze deadline and persists it.
func (r *Registry) SetDontShowUntil(t time.Time) error {
	r.mu.Lock()
	if r.Assistant == nil {
		r.Assistant = &AssistantPrefs{}
	}
	r.Assistant.DontShowUntil = t
	r.mu.Unlock()
	return r.Save()
}
