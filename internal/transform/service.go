package transform

import (
	"context"
	"strings"

	"github.com/inkwell-dev/inkwell/internal/remote"
)

// ModelHint selects the model a transform should run on. The zero value means
// the service default.
type ModelHint struct {
	Provider string
	ModelID  string
}

// IsZero reports whether no model was chosen.
func (h ModelHint) IsZero() bool { return h.Provider == "" && h.ModelID == "" }

// Model is one entry in the model picker.
type Model struct {
	Provider string
	ModelID  string
	Name     string
}

// Hint returns the ModelHint selecting m.
func (m Model) Hint() ModelHint {
	return ModelHint{Provider: m.Provider, ModelID: m.ModelID}
}

// Request is one transform call.
type Request struct {
	AgentID     string
	Text        string
	Action      ActionType
	Instruction string
	Context     string
	Language    string
	Model       ModelHint
}

// Validate rejects requests no service could run.
func (r Request) Validate(service string) error {
	if strings.TrimSpace(r.Text) == "" {
		return remote.NewValidationError(service, "text is empty")
	}
	if !r.Action.Valid() {
		return remote.NewValidationError(service, "unknown action type")
	}
	return nil
}

// Result is the outcome of a transform.
type Result struct {
	Action        ActionType
	OriginalText  string
	ProcessedText string
	Explanation   string
}

// Service runs text transforms.
type Service interface {
	Transform(ctx context.Context, req Request) (Result, error)
}
