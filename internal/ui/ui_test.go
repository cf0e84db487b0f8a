package ui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestHeaderKeepsParamOrder(t *testing.T) {
	h := NewHeader("Upload", "inkwell upload",
		Param{Key: "Store", Value: "http://localhost:8080"},
		Param{Key: "Files", Value: "3"},
	).SetWidth(80)
	out := h.Render()

	if !strings.Contains(out, "UPLOAD") {
		t.Errorf("header missing upper-cased title:\n%s", out)
	}
	store, files := strings.Index(out, "Store:"), strings.Index(out, "Files:")
	if store < 0 || files < 0 || store > files {
		t.Errorf("params out of order:\n%s", out)
	}
}

func TestResultRender(t *testing.T) {
	tests := []struct {
		name   string
		result *Result
		want   []string
	}{
		{
			name:   "success",
			result: NewSuccessResult("Saved", Param{Key: "Path", Value: "notes.md"}),
			want:   []string{"SUCCESS", "Saved", "Path:", "notes.md"},
		},
		{
			name:   "warning",
			result: NewWarningResult("Partly done"),
			want:   []string{"WARNING", "Partly done"},
		},
		{
			name:   "failure",
			result: NewFailureResult("Upload failed", errors.New("boom"), []string{"Check the server"}),
			want:   []string{"FAILED", "Error: boom", "Troubleshooting:", "Check the server"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.result.SetWidth(80).Render()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("Render() missing %q:\n%s", w, out)
				}
			}
		})
	}
}

func TestTroubleshooting(t *testing.T) {
	hint := "The service refused the connection.\nTroubleshooting:\n  • Start the server\n  • Check the URL"
	got := Troubleshooting(hint)
	want := []string{"The service refused the connection.", "Start the server", "Check the URL"}
	if len(got) != len(want) {
		t.Fatalf("Troubleshooting() = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("tip %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestProgressCounts(t *testing.T) {
	p := NewProgress("", []string{"a.png", "b.png", "c.png", "d.png"})
	p.UpdateStep(1, StepComplete, "")
	p.UpdateStep(2, StepFailed, "too big")
	p.UpdateStep(3, StepRunning, "")
	p.UpdateStep(9, StepComplete, "") // out of range, ignored

	complete, failed, skipped := p.Counts()
	if complete != 1 || failed != 1 || skipped != 0 {
		t.Errorf("Counts() = %d, %d, %d", complete, failed, skipped)
	}
	if p.Current != 3 {
		t.Errorf("Current = %d, want 3", p.Current)
	}
	if p.Percent != 0.5 {
		t.Errorf("Percent = %v, want 0.5", p.Percent)
	}
	if !strings.Contains(p.Render(), "(too big)") {
		t.Error("Render() missing step message")
	}
}

func TestRunnerContinuesAfterFailure(t *testing.T) {
	var out bytes.Buffer
	r := NewRunner(RunnerConfig{Title: "Upload", Command: "inkwell upload", Output: &out, Width: 80})

	var ran []string
	task := func(name string, err error) Task {
		return Task{Name: name, Run: func(context.Context) (string, string, error) {
			ran = append(ran, name)
			if err != nil {
				return "rejected", "", err
			}
			return "ok", "https://cdn.test/" + name, nil
		}}
	}

	err := r.Run(context.Background(), []Task{
		task("a.png", nil),
		task("b.png", errors.New("not an image")),
		task("c.png", nil),
	})

	var batch *BatchError
	if !errors.As(err, &batch) {
		t.Fatalf("Run() error = %v, want *BatchError", err)
	}
	if batch.Failed != 1 || batch.Total != 3 {
		t.Errorf("BatchError = %+v", batch)
	}
	if len(ran) != 3 {
		t.Errorf("ran %v, want every task", ran)
	}
	if !strings.Contains(out.String(), "1 of 3 failed") {
		t.Errorf("output missing failure summary:\n%s", out.String())
	}
}

func TestRunnerSuccessAndCancel(t *testing.T) {
	var out bytes.Buffer
	r := NewRunner(RunnerConfig{Title: "Upload", Output: &out, Width: 80})
	ok := Task{Name: "a.png", Run: func(context.Context) (string, string, error) { return "", "https://cdn.test/a.png", nil }}

	if err := r.Run(context.Background(), []Task{ok}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(out.String(), "https://cdn.test/a.png") {
		t.Errorf("output missing detail:\n%s", out.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out.Reset()
	if err := r.Run(ctx, []Task{ok}); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		if got := Confirm(strings.NewReader(tt.input), &out, "Overwrite", []string{"config.yaml exists"}, "Replace it?"); got != tt.want {
			t.Errorf("Confirm(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestRenderTextBox(t *testing.T) {
	out := RenderTextBox("Result", "Hello there.", 60)
	if !strings.Contains(out, "Result") || !strings.Contains(out, "Hello there.") {
		t.Errorf("RenderTextBox() =\n%s", out)
	}
}
