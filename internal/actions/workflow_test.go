package actions

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/inkwell-dev/inkwell/internal/document"
	"github.com/inkwell-dev/inkwell/internal/floating"
	"github.com/inkwell-dev/inkwell/internal/selection"
	"github.com/inkwell-dev/inkwell/internal/transform"
)

var (
	keyUp    = tea.KeyMsg{Type: tea.KeyUp}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyRight = tea.KeyMsg{Type: tea.KeyRight}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var testModels = []transform.Model{
	{Provider: "openai", ModelID: "gpt-4", Name: "GPT-4"},
	{Provider: "anthropic", ModelID: "claude-3-5-sonnet-20241022", Name: "Claude 3.5 Sonnet"},
}

var vp = floating.Viewport{W: 80, H: 24}

type fakeCopier struct {
	got []string
}

func (f *fakeCopier) Cmd(text string) tea.Cmd {
	f.got = append(f.got, text)
	return nil
}

func formal(req transform.Request) (transform.Result, error) {
	return transform.Result{
		Action:        req.Action,
		OriginalText:  req.Text,
		ProcessedText: "Greetings, world.",
	}, nil
}

type fixture struct {
	doc  *document.Document
	svc  *transform.MockService
	clip *fakeCopier
	w    *Workflow
	snap selection.Snapshot
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	f := &fixture{
		doc:  document.New(document.Paragraph("Hello world")),
		clip: &fakeCopier{},
	}
	if cfg.Service == nil {
		f.svc = &transform.MockService{Func: formal}
		cfg.Service = f.svc
	}
	cfg.Doc = f.doc
	cfg.Clipboard = f.clip
	if cfg.Models == nil {
		cfg.Models = testModels
	}
	if cfg.AgentID == "" {
		cfg.AgentID = "agent-1"
	}
	f.w = New(cfg)
	f.snap = selection.Snapshot{
		Text:       "Hello world",
		Range:      document.Range{From: 0, To: 11},
		Rect:       floating.Rect{X: 0, Y: 0, W: 11, H: 1},
		DocVersion: f.doc.Version(),
	}
	if !f.w.Open(f.snap, vp) {
		t.Fatal("Open() = false with an agent configured")
	}
	return f
}

// chooseAction moves the toolbar highlight to a and opens the dialog.
func (f *fixture) chooseAction(t *testing.T, a transform.ActionType) {
	t.Helper()
	for f.w.Index() < len(transform.Actions()) && transform.Actions()[f.w.Index()] != a {
		f.w.HandleKey(keyDown)
	}
	f.w.HandleKey(keyEnter)
	if f.w.Phase() != PhaseInput {
		t.Fatalf("Phase() = %v after choosing %v, want input", f.w.Phase(), a)
	}
}

// submit types instr and presses enter, returning the transform response.
func (f *fixture) submit(t *testing.T, instr string) ResultMsg {
	t.Helper()
	if instr != "" {
		f.w.HandleKey(runes(instr))
	}
	_, cmd := f.w.HandleKey(keyEnter)
	if f.w.Phase() != PhaseProcessing {
		t.Fatalf("Phase() = %v after submit, want processing", f.w.Phase())
	}
	return resultOf(t, cmd)
}

// resultOf runs cmd and any batched commands, returning the single ResultMsg.
func resultOf(t *testing.T, cmd tea.Cmd) ResultMsg {
	t.Helper()
	var found []ResultMsg
	var walk func(tea.Cmd)
	walk = func(c tea.Cmd) {
		if c == nil {
			return
		}
		switch msg := c().(type) {
		case ResultMsg:
			found = append(found, msg)
		case tea.BatchMsg:
			for _, sub := range msg {
				walk(sub)
			}
		}
	}
	walk(cmd)
	if len(found) != 1 {
		t.Fatalf("got %d transform responses, want 1", len(found))
	}
	return found[0]
}

func TestRewriteAccept(t *testing.T) {
	f := newFixture(t, Config{})
	f.chooseAction(t, transform.ActionRewrite)

	msg := f.submit(t, "more formal")
	f.w.Update(msg)
	if f.w.Phase() != PhaseResult {
		t.Fatalf("Phase() = %v, want result", f.w.Phase())
	}

	out, _ := f.w.HandleKey(runes("a"))
	if out.Kind != OutcomeAccepted {
		t.Fatalf("Kind = %v, want accepted", out.Kind)
	}

	if got := f.doc.Snapshot().Text(); got != "Greetings, world." {
		t.Errorf("document = %q", got)
	}
	if out.Caret != len([]rune("Greetings, world.")) {
		t.Errorf("Caret = %d", out.Caret)
	}
	if f.w.IsOpen() {
		t.Error("workflow should close after accept")
	}

	calls := f.svc.Calls()
	if len(calls) != 1 {
		t.Fatalf("transform called %d times, want exactly 1", len(calls))
	}
	if calls[0].Action != transform.ActionRewrite || calls[0].Instruction != "more formal" {
		t.Errorf("request = %+v", calls[0])
	}
	if calls[0].AgentID != "agent-1" {
		t.Errorf("AgentID = %q", calls[0].AgentID)
	}
}

func TestAcceptWithEnter(t *testing.T) {
	f := newFixture(t, Config{})
	f.chooseAction(t, transform.ActionImprove)
	f.w.Update(f.submit(t, ""))

	out, _ := f.w.HandleKey(keyEnter)
	if out.Kind != OutcomeAccepted {
		t.Fatalf("Kind = %v, want accepted", out.Kind)
	}
}

func TestAcceptStaleRange(t *testing.T) {
	f := newFixture(t, Config{})
	f.chooseAction(t, transform.ActionRewrite)
	f.w.Update(f.submit(t, ""))

	if _, err := f.doc.Apply(func(tx *document.Tx) error {
		tx.InsertText(0, "X")
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	version := f.doc.Version()

	out, _ := f.w.HandleKey(runes("a"))
	if out.Kind != OutcomeStale {
		t.Fatalf("Kind = %v, want stale", out.Kind)
	}
	if out.Status == "" {
		t.Error("a stale accept should explain itself")
	}
	if got := f.doc.Snapshot().Text(); got != "XHello world" {
		t.Errorf("document = %q, must be untouched", got)
	}
	if f.doc.Version() != version {
		t.Error("a stale accept must not commit a transaction")
	}
	if f.w.IsOpen() {
		t.Error("workflow should close")
	}
}

func TestRejectReturnsToInput(t *testing.T) {
	f := newFixture(t, Config{})
	f.chooseAction(t, transform.ActionExpand)
	f.w.Update(f.submit(t, "add detail"))

	f.w.HandleKey(runes("r"))
	if f.w.Phase() != PhaseInput {
		t.Fatalf("Phase() = %v, want input", f.w.Phase())
	}
	if f.w.Instruction() != "" {
		t.Errorf("Instruction() = %q, want cleared", f.w.Instruction())
	}
	if f.w.Snapshot().Text != "Hello world" {
		t.Errorf("source text changed to %q", f.w.Snapshot().Text)
	}
	if got := f.doc.Snapshot().Text(); got != "Hello world" {
		t.Errorf("document = %q", got)
	}

	f.w.Update(f.submit(t, ""))
	if len(f.svc.Calls()) != 2 {
		t.Errorf("retry should issue a second call")
	}
}

func TestEscapeRejectsResult(t *testing.T) {
	f := newFixture(t, Config{})
	f.chooseAction(t, transform.ActionRewrite)
	f.w.Update(f.submit(t, ""))

	f.w.HandleKey(keyEsc)
	if f.w.Phase() != PhaseInput {
		t.Errorf("Phase() = %v, want input", f.w.Phase())
	}
}

func TestCopy(t *testing.T) {
	f := newFixture(t, Config{})
	f.chooseAction(t, transform.ActionRewrite)
	f.w.Update(f.submit(t, ""))

	out, _ := f.w.HandleKey(runes("c"))
	if out.Kind != OutcomeCopied {
		t.Fatalf("Kind = %v, want copied", out.Kind)
	}
	if len(f.clip.got) != 1 || f.clip.got[0] != "Greetings, world." {
		t.Errorf("clipboard got %q", f.clip.got)
	}
	if f.w.IsOpen() {
		t.Error("workflow should close after copy")
	}
	if got := f.doc.Snapshot().Text(); got != "Hello world" {
		t.Errorf("copy must not edit the document, got %q", got)
	}
}

func TestErrorKeepsInstruction(t *testing.T) {
	f := newFixture(t, Config{
		Service: &transform.MockService{Delay: time.Second},
		Timeout: 10 * time.Millisecond,
	})
	f.chooseAction(t, transform.ActionSummarize)

	f.w.Update(f.submit(t, "one line"))
	if f.w.Phase() != PhaseInput {
		t.Fatalf("Phase() = %v, want input", f.w.Phase())
	}
	if !strings.Contains(f.w.Banner(), "timed out") {
		t.Errorf("Banner() = %q", f.w.Banner())
	}
	if f.w.Instruction() != "one line" {
		t.Errorf("Instruction() = %q, should be kept", f.w.Instruction())
	}
}

func TestLateResponsesDiscarded(t *testing.T) {
	f := newFixture(t, Config{})
	f.chooseAction(t, transform.ActionRewrite)
	first := f.submit(t, "")

	f.w.HandleKey(keyEsc)
	if f.w.IsOpen() {
		t.Fatal("escape while processing should close")
	}
	if out, _ := f.w.Update(first); out.Kind != OutcomeIgnored {
		t.Errorf("response after close: Kind = %v, want ignored", out.Kind)
	}

	f.w.Open(f.snap, vp)
	f.chooseAction(t, transform.ActionRewrite)
	second := f.submit(t, "")

	if out, _ := f.w.Update(first); out.Kind != OutcomeIgnored {
		t.Errorf("superseded response: Kind = %v, want ignored", out.Kind)
	}
	if f.w.Phase() != PhaseProcessing {
		t.Fatalf("Phase() = %v, want processing", f.w.Phase())
	}
	f.w.Update(second)
	if f.w.Phase() != PhaseResult {
		t.Errorf("Phase() = %v, want result", f.w.Phase())
	}
}

func TestAgentGating(t *testing.T) {
	w := New(Config{Service: &transform.MockService{}, Doc: document.New()})
	if w.Open(selection.Snapshot{Text: "Hello world"}, vp) {
		t.Error("Open() = true without an agent")
	}
	if w.IsOpen() {
		t.Error("workflow should stay closed")
	}
}

func TestTranslateLanguage(t *testing.T) {
	tests := []struct {
		instr string
		want  string
	}{
		{"", "English"},
		{"into French please", "French"},
		{"翻译成中文", "Chinese"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			f := newFixture(t, Config{})
			f.chooseAction(t, transform.ActionTranslate)
			f.submit(t, tt.instr)
			if got := f.svc.Calls()[0].Language; got != tt.want {
				t.Errorf("Language = %q, want %q", got, tt.want)
			}
		})
	}

	f := newFixture(t, Config{})
	f.chooseAction(t, transform.ActionImprove)
	f.submit(t, "in French")
	if got := f.svc.Calls()[0].Language; got != "" {
		t.Errorf("non-translate Language = %q, want empty", got)
	}
}

func TestModelSubmenu(t *testing.T) {
	f := newFixture(t, Config{})

	f.w.HandleKey(keyUp)
	if f.w.Index() != len(transform.Actions()) {
		t.Fatalf("up from the first action should wrap to the model entry, got %d", f.w.Index())
	}
	f.w.HandleKey(keyRight)
	if f.w.Phase() != PhaseModelMenu {
		t.Fatalf("Phase() = %v, want model_menu", f.w.Phase())
	}
	f.w.HandleKey(keyEsc)
	if f.w.Phase() != PhaseToolbar {
		t.Fatalf("escape in the submenu should return to the toolbar, got %v", f.w.Phase())
	}

	f.w.HandleKey(keyRight)
	f.w.HandleKey(keyDown)
	out, _ := f.w.HandleKey(keyEnter)
	if f.w.Model() != testModels[1] {
		t.Fatalf("Model() = %+v", f.w.Model())
	}
	if !strings.Contains(out.Status, testModels[1].Name) {
		t.Errorf("Status = %q", out.Status)
	}

	f.w.HandleKey(keyDown)
	f.w.HandleKey(keyEnter)
	f.w.Update(f.submit(t, ""))
	if got := f.svc.Calls()[0].Model; got != testModels[1].Hint() {
		t.Errorf("request model = %+v", got)
	}
}

func TestToolbarEscapeCloses(t *testing.T) {
	f := newFixture(t, Config{})
	out, _ := f.w.HandleKey(keyEsc)
	if out.Kind != OutcomeClosed || f.w.IsOpen() {
		t.Errorf("escape on the toolbar should close, got %v", out.Kind)
	}
	if out, _ := f.w.HandleKey(keyDown); out.Kind != OutcomeIgnored {
		t.Errorf("closed workflow should ignore keys, got %v", out.Kind)
	}
}

func TestPlacementInsideViewport(t *testing.T) {
	f := newFixture(t, Config{})
	small := floating.Viewport{W: 40, H: 12}
	f.w.Open(selection.Snapshot{
		Text:  "Hello world",
		Range: document.Range{From: 0, To: 11},
		Rect:  floating.Rect{X: 30, Y: 10, W: 10, H: 1},
	}, small)

	r := f.w.ToolbarRect()
	if r.X < 0 || r.Right() > small.W || r.Y < 0 || r.Bottom() > small.H {
		t.Errorf("toolbar rect %+v outside %+v", r, small)
	}
	if f.w.ToolbarView() == "" {
		t.Error("ToolbarView() is empty while open")
	}

	f.chooseAction(t, transform.ActionExplain)
	view, rect := f.w.DialogView()
	if view == "" {
		t.Fatal("DialogView() is empty in the input phase")
	}
	if rect.W > small.W-4 || rect.X < 2 {
		t.Errorf("dialog rect %+v does not respect the margin", rect)
	}
}

func TestLanguageFromInstruction(t *testing.T) {
	tests := []struct {
		instr, want string
	}{
		{"", "English"},
		{"make it German", "German"},
		{"Spanish, not French", "Spanish"},
		{"日语", "Japanese"},
		{"keep it short", "English"},
	}
	for _, tt := range tests {
		if got := LanguageFromInstruction(tt.instr, "English"); got != tt.want {
			t.Errorf("LanguageFromInstruction(%q) = %q, want %q", tt.instr, got, tt.want)
		}
	}
}
