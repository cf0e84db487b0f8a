package transform

import (
	"fmt"
	"strings"
)

// ActionType is the closed set of contextual text transforms.
type ActionType int

const (
	ActionImprove ActionType = iota
	ActionExplain
	ActionExpand
	ActionSummarize
	ActionTranslate
	ActionRewrite
)

// Actions lists every action in toolbar order.
func Actions() []ActionType {
	return []ActionType{ActionImprove, ActionExplain, ActionExpand, ActionSummarize, ActionTranslate, ActionRewrite}
}

// String returns the wire name of the action.
func (a ActionType) String() string {
	switch a {
	case ActionImprove:
		return "improve"
	case ActionExplain:
		return "explain"
	case ActionExpand:
		return "expand"
	case ActionSummarize:
		return "summarize"
	case ActionTranslate:
		return "translate"
	case ActionRewrite:
		return "rewrite"
	default:
		return fmt.Sprintf("ActionType(%d)", int(a))
	}
}

// Label is the toolbar caption.
func (a ActionType) Label() string {
	switch a {
	case ActionImprove:
		return "Improve"
	case ActionExplain:
		return "Explain"
	case ActionExpand:
		return "Expand"
	case ActionSummarize:
		return "Summarize"
	case ActionTranslate:
		return "Translate"
	case ActionRewrite:
		return "Rewrite"
	default:
		return a.String()
	}
}

// Placeholder is the hint shown in the instruction input.
func (a ActionType) Placeholder() string {
	switch a {
	case ActionImprove:
		return "What should be improved? (optional)"
	case ActionExplain:
		return "What needs explaining? (optional)"
	case ActionExpand:
		return "Which direction should it grow? (optional)"
	case ActionSummarize:
		return "How short? (optional)"
	case ActionTranslate:
		return "Any notes for the translator? (optional)"
	case ActionRewrite:
		return "How should it be rewritten? e.g. more formal"
	default:
		return ""
	}
}

// Valid reports whether a is one of the defined actions.
func (a ActionType) Valid() bool {
	return a >= ActionImprove && a <= ActionRewrite
}

// ParseActionType parses a wire name.
func ParseActionType(s string) (ActionType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, a := range Actions() {
		if a.String() == name {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown action type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (a ActionType) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("unknown action type %d", int(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *ActionType) UnmarshalText(b []byte) error {
	parsed, err := ParseActionType(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
