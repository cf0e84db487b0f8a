package clipboard

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/inkwell-dev/inkwell/internal/logging"
)

// ErrNoTerminal is returned by Terminal when its output is not a TTY.
var ErrNoTerminal = errors.New("output is not a terminal")

// Method says which layer delivered the text.
type Method int

const (
	// MethodNative is the operating system clipboard.
	MethodNative Method = iota
	// MethodTerminal is an OSC52 escape sequence interpreted by the terminal.
	MethodTerminal
	// MethodManual means every layer failed and the user must copy by hand.
	MethodManual
)

func (m Method) String() string {
	switch m {
	case MethodNative:
		return "native"
	case MethodTerminal:
		return "terminal"
	case MethodManual:
		return "manual"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// Writer is one clipboard layer.
type Writer interface {
	Method() Method
	WriteText(text string) error
}

// Native writes through the system clipboard utilities.
type Native struct{}

// Method implements Writer.
func (Native) Method() Method { return MethodNative }

// WriteText implements Writer.
func (Native) WriteText(text string) error {
	if clipboard.Unsupported {
		return errors.New("no clipboard utility available")
	}
	return clipboard.WriteAll(text)
}

// Terminal asks the terminal emulator to set the clipboard with OSC52.
// It reports success only when Out is a TTY; delivery itself is unconfirmed.
type Terminal struct {
	Out io.Writer

	// Force skips the TTY check
	Force bool
}

// Method implements Writer.
func (Terminal) Method() Method { return MethodTerminal }

// WriteText implements Writer.
func (t Terminal) WriteText(text string) error {
	out := t.Out
	if out == nil {
		out = os.Stdout
	}
	if !t.Force {
		f, ok := out.(*os.File)
		if !ok || !term.IsTerminal(int(f.Fd())) {
			return ErrNoTerminal
		}
	}
	termenv.NewOutput(out).Copy(text)
	return nil
}

// Result reports how a copy went. Text is what the user should copy by hand
// when Method is MethodManual.
type Result struct {
	Method Method
	Text   string
	Err    error
}

// Message is the status line text for r.
func (r Result) Message() string {
	switch r.Method {
	case MethodNative:
		return "Copied to clipboard"
	case MethodTerminal:
		return "Copied via terminal"
	case MethodManual:
		return "Clipboard unavailable; select the text and copy it manually"
	default:
		return ""
	}
}

// Layered tries each writer in order and falls back to manual copy.
type Layered struct {
	layers []Writer
}

// New returns the standard stack: native clipboard, then OSC52 on out.
func New(out io.Writer) *Layered {
	return NewLayered(Native{}, Terminal{Out: out})
}

// NewLayered builds a strategy from explicit layers.
func NewLayered(layers ...Writer) *Layered {
	return &Layered{layers: layers}
}

// Copy writes text through the first layer that accepts it.
func (l *Layered) Copy(text string) Result {
	text = Normalize(text)
	var errs []error
	for _, w := range l.layers {
		err := w.WriteText(text)
		if err == nil {
			logging.Debug("Clipboard write", zap.Stringer("method", w.Method()), zap.Int("chars", len(text)))
			return Result{Method: w.Method(), Text: text}
		}
		errs = append(errs, fmt.Errorf("%s: %w", w.Method(), err))
	}
	err := errors.Join(errs...)
	logging.Warn("All clipboard layers failed", zap.Error(err))
	return Result{Method: MethodManual, Text: text, Err: err}
}

// CopiedMsg carries a Result back to the UI loop.
type CopiedMsg struct {
	Result Result
}

// Cmd runs Copy off the UI goroutine.
func (l *Layered) Cmd(text string) tea.Cmd {
	return func() tea.Msg {
		return CopiedMsg{Result: l.Copy(text)}
	}
}

// ReadText returns the system clipboard contents.
func ReadText() (string, error) {
	if clipboard.Unsupported {
		return "", errors.New("no clipboard utility available")
	}
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", err
	}
	return Normalize(text), nil
}

// Normalize converts CRLF and lone CR line endings to LF.
func Normalize(text string) string {
	if !strings.ContainsRune(text, '\r') {
		return text
	}
	return strings.ReplaceAll(strings.ReplaceAll(text, "\r\n", "\n"), "\r", "\n")
}
