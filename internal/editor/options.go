package editor

import (
	"time"

	"github.com/inkwell-dev/inkwell/internal/actions"
	"github.com/inkwell-dev/inkwell/internal/assetstore"
	"github.com/inkwell-dev/inkwell/internal/document"
	"github.com/inkwell-dev/inkwell/internal/selection"
	"github.com/inkwell-dev/inkwell/internal/transform"
)

// FlagToggler is a FeatureFlag that can also be switched at runtime.
type FlagToggler interface {
	selection.FeatureFlag
	SetAIEnabled(enabled bool) error
}

// Options configure a Model. Only Document is required.
type Options struct {
	// Document is edited in place. Nil starts an empty document.
	Document *document.Document

	// AgentID gates the AI actions; without one selections show a hint
	AgentID string

	// Flag and Snooze are read once at init and updated on toggle
	Flag   selection.FeatureFlag
	Snooze selection.SnoozeStore

	// OnContentChange receives the JSON serialization after every
	// committed transaction
	OnContentChange func(serialized []byte)

	Store     assetstore.Store
	Service   transform.Service
	Clipboard actions.Copier
	Models    []transform.Model

	// Trigger opens the command palette; default "/"
	Trigger string

	Selection        selection.Config
	Stagger          time.Duration
	TransformTimeout time.Duration
	Language         string

	// SavePath is written by ctrl+s, as JSON for .json paths and Markdown
	// otherwise
	SavePath string

	// Now is the clock used for snooze decisions
	Now func() time.Time
}

// sessionFlag is the feature flag used when the host supplies none. Toggles
// last for the session only.
type sessionFlag struct {
	enabled bool
}

func (f *sessionFlag) AIEnabled() bool { return f.enabled }

func (f *sessionFlag) SetAIEnabled(enabled bool) error {
	f.enabled = enabled
	return nil
}
