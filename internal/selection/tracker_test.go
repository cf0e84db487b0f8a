package selection

import (
	"testing"
	"time"

	"github.com/inkwell-dev/inkwell/internal/document"
)

var now = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func sel(text string, from, to int) Selection {
	return Selection{Text: text, Range: document.Range{From: from, To: to}}
}

func TestCheckClassification(t *testing.T) {
	tests := []struct {
		name  string
		flag  bool
		until time.Time
		input Selection
		want  ResultKind
	}{
		{"empty selection", true, time.Time{}, sel("", 4, 4), ResultNoSelection},
		{"below minimum", true, time.Time{}, sel("ab", 0, 2), ResultNoSelection},
		{"whitespace padded below minimum", true, time.Time{}, sel("  ab ", 0, 5), ResultNoSelection},
		{"exactly minimum", true, time.Time{}, sel("abc", 0, 3), ResultSnapshot},
		{"only atoms", true, time.Time{}, sel("\uFFFC\n\uFFFC\n\uFFFC", 0, 5), ResultNoSelection},
		{"atoms do not count toward minimum", true, time.Time{}, sel("ab\n\uFFFC", 0, 4), ResultNoSelection},
		{"flag off shows advisory", false, time.Time{}, sel("Hello world", 0, 11), ResultAdvisory},
		{"flag off snoozed", false, now.Add(time.Hour), sel("Hello world", 0, 11), ResultSuppressed},
		{"flag off snooze expired", false, now.Add(-time.Second), sel("Hello world", 0, 11), ResultAdvisory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker(Config{}, StaticFlag(tt.flag), &MemoryStore{Until: tt.until})
			gen := tr.Notify()
			got := tr.Check(gen, tt.input, now)
			if got.Kind != tt.want {
				t.Errorf("Check() = %v, want %v", got.Kind, tt.want)
			}
		})
	}
}

func TestCheckNormalizesBackwardSelection(t *testing.T) {
	tr := NewTracker(Config{}, StaticFlag(true), nil)
	gen := tr.Notify()

	got := tr.Check(gen, sel("Hello world", 11, 0), now)
	if got.Kind != ResultSnapshot {
		t.Fatalf("Check() = %v, want snapshot", got.Kind)
	}
	if got.Snapshot.Range != (document.Range{From: 0, To: 11}) {
		t.Errorf("Range = %+v, want 0..11", got.Snapshot.Range)
	}
	if got.Snapshot.Text != "Hello world" {
		t.Errorf("Text = %q", got.Snapshot.Text)
	}
}

func TestDebounceOnlyLatestGenerationCounts(t *testing.T) {
	tr := NewTracker(Config{}, StaticFlag(true), nil)

	first := tr.Notify()
	second := tr.Notify()

	if got := tr.Check(first, sel("Hello", 0, 5), now); got.Kind != ResultStale {
		t.Errorf("superseded check = %v, want stale", got.Kind)
	}
	if got := tr.Check(second, sel("Hello", 0, 5), now); got.Kind != ResultSnapshot {
		t.Errorf("latest check = %v, want snapshot", got.Kind)
	}
}

func TestSnoozeLifecycle(t *testing.T) {
	store := &MemoryStore{}
	tr := NewTracker(Config{}, StaticFlag(false), store)
	hello := sel("Hello world", 0, 11)

	if got := tr.Check(tr.Notify(), hello, now); got.Kind != ResultAdvisory {
		t.Fatalf("before snooze = %v, want advisory", got.Kind)
	}

	if err := tr.Snooze(now); err != nil {
		t.Fatalf("Snooze() error = %v", err)
	}
	if want := now.Add(30 * 24 * time.Hour); !store.Until.Equal(want) {
		t.Errorf("stored deadline = %v, want %v", store.Until, want)
	}

	for _, at := range []time.Time{now, now.Add(24 * time.Hour), now.Add(29 * 24 * time.Hour)} {
		if got := tr.Check(tr.Notify(), hello, at); got.Kind != ResultSuppressed {
			t.Errorf("at %v: %v, want suppressed", at, got.Kind)
		}
	}

	after := now.Add(30 * 24 * time.Hour)
	if got := tr.Check(tr.Notify(), hello, after); got.Kind != ResultAdvisory {
		t.Errorf("at deadline: %v, want advisory", got.Kind)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := NewTracker(Config{}, nil, nil).Config()
	if cfg.Debounce != 100*time.Millisecond {
		t.Errorf("Debounce = %v", cfg.Debounce)
	}
	if cfg.MinLength != 3 {
		t.Errorf("MinLength = %d", cfg.MinLength)
	}
	if cfg.SnoozeFor != 30*24*time.Hour {
		t.Errorf("SnoozeFor = %v", cfg.SnoozeFor)
	}
}

func TestScheduleDeliversCurrentGeneration(t *testing.T) {
	tr := NewTracker(Config{Debounce: time.Millisecond}, StaticFlag(true), nil)
	cmd := tr.Schedule()
	if cmd == nil {
		t.Fatal("Schedule() returned nil command")
	}
	msg, ok := cmd().(CheckMsg)
	if !ok {
		t.Fatalf("command produced %T, want CheckMsg", msg)
	}
	if msg.Gen != tr.Current() {
		t.Errorf("Gen = %d, want %d", msg.Gen, tr.Current())
	}
}
