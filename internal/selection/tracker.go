package selection

import (
	"strings"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/inkwell-dev/inkwell/internal/document"
	"github.com/inkwell-dev/inkwell/internal/floating"
	"github.com/inkwell-dev/inkwell/internal/logging"
)

const (
	DefaultDebounce    = 100 * time.Millisecond
	DefaultMinLength   = 3
	DefaultSnoozeFor   = 30 * 24 * time.Hour
	DefaultAdvisoryTTL = 5 * time.Second
)

// FeatureFlag reports whether AI assistance is enabled. It must be cheap and
// synchronous; the tracker reads it on every qualifying selection.
type FeatureFlag interface {
	AIEnabled() bool
}

// SnoozeStore persists the "don't show before" deadline of the advisory.
type SnoozeStore interface {
	DontShowUntil() time.Time
	SetDontShowUntil(time.Time) error
}

// Selection is the raw selection state handed to Check.
type Selection struct {
	Range      document.Range
	Text       string
	Rect       floating.Rect
	DocVersion uint64
}

// Snapshot is a stable capture of a qualifying selection. It is stale as soon
// as the selection or the document changes; consumers re-validate Range
// against Text before mutating.
type Snapshot struct {
	Text       string
	Rect       floating.Rect
	Range      document.Range
	DocVersion uint64
}

// ResultKind says what dependent UI should do after a check.
type ResultKind int

const (
	// ResultStale means a newer event superseded this check; do nothing.
	ResultStale ResultKind = iota
	// ResultNoSelection means hide any selection-dependent UI.
	ResultNoSelection
	// ResultSnapshot means the selection qualifies and AI assistance is on.
	ResultSnapshot
	// ResultAdvisory means the selection qualifies, AI is off, and the
	// advisory tooltip should be shown.
	ResultAdvisory
	// ResultSuppressed means AI is off and the advisory is snoozed.
	ResultSuppressed
)

func (k ResultKind) String() string {
	switch k {
	case ResultStale:
		return "stale"
	case ResultNoSelection:
		return "no_selection"
	case ResultSnapshot:
		return "snapshot"
	case ResultAdvisory:
		return "advisory"
	case ResultSuppressed:
		return "suppressed"
	default:
		return "unknown"
	}
}

// Result is the outcome of one debounced check.
type Result struct {
	Kind     ResultKind
	Snapshot Snapshot
}

// Config tunes a Tracker. Zero fields take the defaults.
type Config struct {
	Debounce    time.Duration
	MinLength   int
	SnoozeFor   time.Duration
	AdvisoryTTL time.Duration
}

func (c Config) withDefaults() Config {
	if c.Debounce <= 0 {
		c.Debounce = DefaultDebounce
	}
	if c.MinLength <= 0 {
		c.MinLength = DefaultMinLength
	}
	if c.SnoozeFor <= 0 {
		c.SnoozeFor = DefaultSnoozeFor
	}
	if c.AdvisoryTTL <= 0 {
		c.AdvisoryTTL = DefaultAdvisoryTTL
	}
	return c
}

// Tracker debounces selection events and classifies the settled selection.
// It is owned by the single UI goroutine and is not safe for concurrent use.
type Tracker struct {
	cfg   Config
	flag  FeatureFlag
	store SnoozeStore
	gen   uint64
}

// NewTracker builds a tracker reading flag and store on demand.
func NewTracker(cfg Config, flag FeatureFlag, store SnoozeStore) *Tracker {
	return &Tracker{cfg: cfg.withDefaults(), flag: flag, store: store}
}

// Config returns the effective configuration.
func (t *Tracker) Config() Config { return t.cfg }

// CheckMsg is delivered when a debounce interval elapses.
type CheckMsg struct {
	Gen uint64
}

// AdvisoryExpiredMsg is delivered when the advisory's display time is over.
type AdvisoryExpiredMsg struct {
	Gen uint64
}

// Notify records a pointer-release or key event and returns the generation
// that the resulting check must carry. Earlier pending checks become stale.
func (t *Tracker) Notify() uint64 {
	t.gen++
	return t.gen
}

// Schedule is Notify plus the debounce timer as a bubbletea command.
func (t *Tracker) Schedule() tea.Cmd {
	gen := t.Notify()
	return tea.Tick(t.cfg.Debounce, func(time.Time) tea.Msg {
		return CheckMsg{Gen: gen}
	})
}

// ExpireAdvisory returns a command that fires when the advisory shown for
// generation gen should auto-dismiss.
func (t *Tracker) ExpireAdvisory(gen uint64) tea.Cmd {
	return tea.Tick(t.cfg.AdvisoryTTL, func(time.Time) tea.Msg {
		return AdvisoryExpiredMsg{Gen: gen}
	})
}

// Current returns the latest generation handed out.
func (t *Tracker) Current() uint64 { return t.gen }

// Check classifies sel if gen is still the latest generation.
func (t *Tracker) Check(gen uint64, sel Selection, now time.Time) Result {
	if gen != t.gen {
		return Result{Kind: ResultStale}
	}

	rng := sel.Range.Normalize()
	if rng.Empty() || textLen(sel.Text) < t.cfg.MinLength {
		return Result{Kind: ResultNoSelection}
	}

	snap := Snapshot{
		Text:       sel.Text,
		Rect:       sel.Rect,
		Range:      rng,
		DocVersion: sel.DocVersion,
	}

	if t.flag == nil || t.flag.AIEnabled() {
		return Result{Kind: ResultSnapshot, Snapshot: snap}
	}
	if t.Snoozed(now) {
		return Result{Kind: ResultSuppressed, Snapshot: snap}
	}
	return Result{Kind: ResultAdvisory, Snapshot: snap}
}

// Snoozed reports whether the advisory is suppressed at now.
func (t *Tracker) Snoozed(now time.Time) bool {
	if t.store == nil {
		return false
	}
	return now.Before(t.store.DontShowUntil())
}

// Snooze suppresses the advisory for the configured window starting at now.
func (t *Tracker) Snooze(now time.Time) error {
	until := now.Add(t.cfg.SnoozeFor)
	logging.Debug("Advisory snoozed", zap.Time("until", until))
	if t.store == nil {
		return nil
	}
	return t.store.SetDontShowUntil(until)
}

// MemoryStore is an in-memory SnoozeStore for tests and offline sessions.
type MemoryStore struct {
	Until time.Time
}

// DontShowUntil implements SnoozeStore.
func (m *MemoryStore) DontShowUntil() time.Time { return m.Until }

// SetDontShowUntil implements SnoozeStore.
func (m *MemoryStore) SetDontShowUntil(t time.Time) error {
	m.Until = t
	return nil
}

// StaticFlag is a FeatureFlag with a fixed value.
type StaticFlag bool

// AIEnabled implements FeatureFlag.
func (f StaticFlag) AIEnabled() bool { return bool(f) }

// textLen counts the runes of text that are neither surrounding space nor
// atom placeholders.
func textLen(text string) int {
	text = strings.ReplaceAll(text, string(document.ObjectReplacement), "")
	return utf8.RuneCountInString(strings.TrimSpace(text))
}
