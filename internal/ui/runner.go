package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

// RunnerConfig holds configuration for a batch command execution
type RunnerConfig struct {
	Title   string    // Command title (e.g., "Upload")
	Command string    // Full command (e.g., "inkwell upload")
	Params  []Param   // Parameters to display in header
	Output  io.Writer // Output writer (default: os.Stdout)
	Width   int       // Render width (default: terminal width)
	Hints   func(err error) []string
}

// Task is one item of a batch. Run returns a short note for the step line
// and, on success, an optional detail for the result box.
type Task struct {
	Name string
	Run  func(ctx context.Context) (note string, detail string, err error)
}

// BatchError reports how many tasks of a batch failed.
type BatchError struct {
	Failed int
	Total  int
	First  error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%d of %d failed: %v", e.Failed, e.Total, e.First)
}

func (e *BatchError) Unwrap() error { return e.First }

// Runner prints a header, one step line per task as it finishes, and a
// result box. A failed task does not stop the batch.
type Runner struct {
	config   RunnerConfig
	header   *Header
	progress *Progress
	out      io.Writer
	width    int
}

// NewRunner creates a runner
func NewRunner(config RunnerConfig) *Runner {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	width := config.Width
	if width == 0 {
		width = GetTerminalWidth()
	}
	return &Runner{
		config: config,
		header: NewHeader(config.Title, config.Command, config.Params...).SetWidth(width),
		out:    config.Output,
		width:  width,
	}
}

// Run executes tasks in order. It stops early only when ctx is done.
func (r *Runner) Run(ctx context.Context, tasks []Task) error {
	start := time.Now()
	_, _ = fmt.Fprintln(r.out, r.header.Render())
	_, _ = fmt.Fprintln(r.out)

	names := make([]string, len(tasks))
	for i, t := range tasks {
		names[i] = t.Name
	}
	r.progress = NewProgress("", names).SetWidth(r.width)
	onStep := r.stepCallback()

	var details []Param
	var firstErr error
	for i, t := range tasks {
		n := i + 1
		if ctx.Err() != nil {
			onStep(n, StepSkipped, "canceled")
			continue
		}
		onStep(n, StepRunning, "")
		note, detail, err := t.Run(ctx)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			onStep(n, StepFailed, note)
			continue
		}
		onStep(n, StepComplete, note)
		if detail != "" {
			details = append(details, Param{Key: t.Name, Value: detail})
		}
	}

	complete, failed, skipped := r.progress.Counts()
	details = append(details, Param{Key: "Duration", Value: time.Since(start).Round(time.Millisecond).String()})
	_, _ = fmt.Fprintln(r.out)

	switch {
	case failed == 0 && skipped == 0:
		res := NewSuccessResult(fmt.Sprintf("%s complete", r.config.Title), details...)
		_, _ = fmt.Fprintln(r.out, res.SetWidth(r.width).Render())
		return nil
	case failed == 0:
		res := NewWarningResult(fmt.Sprintf("%s interrupted (%d of %d done)", r.config.Title, complete, len(tasks)), details...)
		_, _ = fmt.Fprintln(r.out, res.SetWidth(r.width).Render())
		return ctx.Err()
	default:
		var hints []string
		if r.config.Hints != nil {
			hints = r.config.Hints(firstErr)
		}
		res := NewFailureResult(fmt.Sprintf("%s: %d of %d failed", r.config.Title, failed, len(tasks)), firstErr, hints)
		res.Details = details
		_, _ = fmt.Fprintln(r.out, res.SetWidth(r.width).Render())
		return &BatchError{Failed: failed, Total: len(tasks), First: firstErr}
	}
}

func (r *Runner) stepCallback() StepCallback {
	return func(n int, status StepStatus, message string) {
		r.progress.UpdateStep(n, status, message)
		line := r.progress.renderStepLine(r.progress.Steps[n-1])
		if status == StepRunning {
			// Overwritten by the finished line
			_, _ = fmt.Fprint(r.out, line+"\r")
			return
		}
		_, _ = fmt.Fprintln(r.out, line)
	}
}
