package transform

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"
)

// MockService returns canned results without any network access. It backs
// --offline sessions and tests.
type MockService struct {
	// Func, when set, produces the result instead of the built-in rules
	Func func(Request) (Result, error)

	// Delay simulates service latency
	Delay time.Duration

	mu    sync.Mutex
	calls []Request
}

// Transform implements Service.
func (m *MockService) Transform(ctx context.Context, req Request) (Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if err := req.Validate("Mock service"); err != nil {
		return Result{}, err
	}

	if m.Delay > 0 {
		t := time.NewTimer(m.Delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return Result{}, ctx.Err()
		case <-t.C:
		}
	}

	if m.Func != nil {
		return m.Func(req)
	}
	return cannedResult(req), nil
}

// Calls returns the requests received so far.
func (m *MockService) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.calls))
	copy(out, m.calls)
	return out
}

func cannedResult(req Request) Result {
	text := strings.TrimSpace(req.Text)
	res := Result{Action: req.Action, OriginalText: req.Text}

	switch req.Action {
	case ActionImprove:
		res.ProcessedText = capitalize(text)
		if !strings.HasSuffix(res.ProcessedText, ".") {
			res.ProcessedText += "."
		}
		res.Explanation = "Offline mode: capitalized and punctuated."
	case ActionExplain:
		res.ProcessedText = fmt.Sprintf("In short: %s", text)
		res.Explanation = "Offline mode: no model was consulted."
	case ActionExpand:
		res.ProcessedText = text + " More detail would follow here."
	case ActionSummarize:
		res.ProcessedText = firstSentence(text)
	case ActionTranslate:
		lang := req.Language
		if lang == "" {
			lang = DefaultLanguage
		}
		res.ProcessedText = fmt.Sprintf("[%s] %s", lang, text)
	case ActionRewrite:
		res.ProcessedText = capitalize(text)
	}
	return res
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func firstSentence(s string) string {
	if i := strings.IndexAny(s, ".!?。！？"); i >= 0 {
		_, size := utf8.DecodeRuneInString(s[i:])
		return s[:i+size]
	}
	return s
}
