package upload

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/inkwell-dev/inkwell/internal/assetstore"
	"github.com/inkwell-dev/inkwell/internal/document"
)

// fakeStore returns https://cdn.test/<asset name>, or fails for names in fail.
type fakeStore struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
}

func (s *fakeStore) Upload(ctx context.Context, a assetstore.Asset) (assetstore.Uploaded, error) {
	s.mu.Lock()
	s.calls = append(s.calls, a.Name)
	fail := s.fail[a.Name]
	s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return assetstore.Uploaded{}, err
	}
	if fail {
		return assetstore.Uploaded{}, errors.New("store unavailable")
	}
	return assetstore.Uploaded{URL: "https://cdn.test/" + a.Name, Name: a.Name}, nil
}

func images(names ...string) []assetstore.Asset {
	out := make([]assetstore.Asset, len(names))
	for i, n := range names {
		out[i] = assetstore.Asset{Name: n, ContentType: "image/png", Data: []byte(n)}
	}
	return out
}

func imageNodes(snap document.Snapshot) []document.Node {
	var out []document.Node
	for _, n := range snap.Blocks {
		if n.Kind == document.KindImage {
			out = append(out, n)
		}
	}
	return out
}

func TestOnAssetsInsertsStaggeredPlaceholders(t *testing.T) {
	doc := document.New(document.Paragraph("Intro"))
	r := New(doc, &fakeStore{}, Config{})

	tasks, next, err := r.OnAssets(images("a.png", "b.png", "c.png"), OriginPaste, 5)
	if err != nil {
		t.Fatalf("OnAssets() error = %v", err)
	}

	if len(tasks) != 3 {
		t.Fatalf("got %d tasks, want 3", len(tasks))
	}
	wantDelays := []time.Duration{0, 200 * time.Millisecond, 400 * time.Millisecond}
	seen := make(map[string]bool)
	for i, task := range tasks {
		if task.Delay != wantDelays[i] {
			t.Errorf("task %d delay = %v, want %v", i, task.Delay, wantDelays[i])
		}
		if !strings.HasPrefix(task.Token, "paste_") || !strings.Contains(task.Token, fmt.Sprintf("_%d_", i)) {
			t.Errorf("task %d token = %q", i, task.Token)
		}
		seen[task.Token] = true
	}
	if len(seen) != 3 {
		t.Errorf("tokens are not distinct: %v", seen)
	}

	snap := doc.Snapshot()
	if snap.Version != 1 {
		t.Errorf("Version = %d, want one transaction", snap.Version)
	}
	placeholders := imageNodes(snap)
	if len(placeholders) != 3 {
		t.Fatalf("got %d placeholders, want 3", len(placeholders))
	}
	for i, n := range placeholders {
		if !n.IsPlaceholder() || n.Image.UploadToken != tasks[i].Token {
			t.Errorf("placeholder %d = %+v, want uploading with token %s", i, n.Image, tasks[i].Token)
		}
		if n.Image.Src != PlaceholderSrc {
			t.Errorf("placeholder %d src = %q", i, n.Image.Src)
		}
	}
	if next != 12 {
		t.Errorf("next = %d, want 12", next)
	}
	if r.Pending() != 3 {
		t.Errorf("Pending() = %d, want 3", r.Pending())
	}
}

func TestCompleteAnyOrderWithInterleavedEdits(t *testing.T) {
	doc := document.New(document.Paragraph("Intro"), document.Paragraph("Outro"))
	store := &fakeStore{}
	r := New(doc, store, Config{Stagger: time.Millisecond})

	tasks, _, err := r.OnAssets(images("a.png", "b.png", "c.png", "d.png"), OriginDrop, 5)
	if err != nil {
		t.Fatalf("OnAssets() error = %v", err)
	}

	order := []int{2, 0, 3, 1}
	for step, i := range order {
		// Unrelated edits shift every position between completions.
		if _, err := doc.Apply(func(tx *document.Tx) error {
			tx.InsertText(0, fmt.Sprintf("edit%d ", step))
			return nil
		}); err != nil {
			t.Fatalf("edit: %v", err)
		}

		res := r.Run(context.Background(), Task{Token: tasks[i].Token, Asset: tasks[i].Asset})
		if got := r.Complete(res); got != OutcomePatched {
			t.Fatalf("Complete(%d) = %v, want patched", i, got)
		}
	}

	got := imageNodes(doc.Snapshot())
	for i, n := range got {
		want := "https://cdn.test/" + tasks[i].Asset.Name
		if n.Image.Src != want {
			t.Errorf("image %d src = %q, want %q", i, n.Image.Src, want)
		}
		if n.Image.IsUploading || n.Image.UploadToken != "" {
			t.Errorf("image %d still marked uploading: %+v", i, n.Image)
		}
	}
	if r.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", r.Pending())
	}
}

func TestConcurrentRunsPatchTheirOwnNodes(t *testing.T) {
	doc := document.New(document.Paragraph(""))
	r := New(doc, &fakeStore{}, Config{Stagger: time.Millisecond})

	names := make([]string, 8)
	for i := range names {
		names[i] = fmt.Sprintf("img%d.png", i)
	}
	tasks, _, err := r.OnAssets(images(names...), OriginPick, 0)
	if err != nil {
		t.Fatalf("OnAssets() error = %v", err)
	}

	results := make(chan Result, len(tasks))
	for _, task := range tasks {
		go func(task Task) {
			results <- r.Run(context.Background(), task)
		}(task)
	}
	for range tasks {
		r.Complete(<-results)
	}

	for i, n := range imageNodes(doc.Snapshot()) {
		if want := "https://cdn.test/" + names[i]; n.Image.Src != want {
			t.Errorf("image %d src = %q, want %q", i, n.Image.Src, want)
		}
	}
}

func TestCompleteRemovedNodeIsNoop(t *testing.T) {
	doc := document.New(document.Paragraph("x"))
	r := New(doc, &fakeStore{}, Config{})

	tasks, _, err := r.OnAssets(images("a.png"), OriginPaste, 1)
	if err != nil {
		t.Fatalf("OnAssets() error = %v", err)
	}

	if _, err := doc.Apply(func(tx *document.Tx) error {
		idx, _ := tx.FindUploadToken(tasks[0].Token)
		return tx.RemoveBlock(idx)
	}); err != nil {
		t.Fatalf("remove: %v", err)
	}
	before := doc.Snapshot()

	got := r.Complete(Result{Token: tasks[0].Token, Uploaded: assetstore.Uploaded{URL: "https://cdn.test/a.png"}})
	if got != OutcomeMissing {
		t.Errorf("Complete() = %v, want missing", got)
	}

	after := doc.Snapshot()
	if after.Version != before.Version || after.Text() != before.Text() {
		t.Error("completing a removed placeholder changed the document")
	}
	if r.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", r.Pending())
	}
}

func TestFailedUploadRetry(t *testing.T) {
	doc := document.New(document.Paragraph(""))
	store := &fakeStore{fail: map[string]bool{"a.png": true}}
	r := New(doc, store, Config{})

	tasks, _, err := r.OnAssets(images("a.png"), OriginPaste, 0)
	if err != nil {
		t.Fatalf("OnAssets() error = %v", err)
	}
	token := tasks[0].Token

	if got := r.Complete(r.Run(context.Background(), tasks[0])); got != OutcomeFailed {
		t.Fatalf("Complete() = %v, want failed", got)
	}

	node, ok := doc.FindUploadToken(token)
	if !ok {
		t.Fatal("failed placeholder lost its token")
	}
	if !node.IsFailedUpload() || node.Image.IsUploading {
		t.Errorf("node = %+v, want failed and not uploading", node.Image)
	}
	if got := r.FailedTokens(); len(got) != 1 || got[0] != token {
		t.Errorf("FailedTokens() = %v", got)
	}
	if r.Pending() != 1 || r.InFlight() != 0 {
		t.Errorf("Pending() = %d, InFlight() = %d, want 1 and 0", r.Pending(), r.InFlight())
	}

	if _, err := r.Retry("paste_0_0_deadbeef"); !errors.Is(err, ErrUnknownToken) {
		t.Errorf("Retry(unknown) error = %v", err)
	}

	store.mu.Lock()
	store.fail = nil
	store.mu.Unlock()

	task, err := r.Retry(token)
	if err != nil {
		t.Fatalf("Retry() error = %v", err)
	}
	if task.Delay != 0 || task.Token != token || task.Asset.Name != "a.png" {
		t.Errorf("Retry() task = %+v", task)
	}
	if r.InFlight() != 1 {
		t.Errorf("InFlight() after Retry = %d, want 1", r.InFlight())
	}
	if node, _ := doc.FindUploadToken(token); !node.IsPlaceholder() || node.Image.Failed {
		t.Errorf("after Retry node = %+v, want uploading", node.Image)
	}

	if _, err := r.Retry(token); !errors.Is(err, ErrNotFailed) {
		t.Errorf("second Retry() error = %v, want ErrNotFailed", err)
	}

	if got := r.Complete(r.Run(context.Background(), task)); got != OutcomePatched {
		t.Errorf("Complete() after retry = %v, want patched", got)
	}
	if len(store.calls) != 2 {
		t.Errorf("store calls = %v, want 2", store.calls)
	}
}

func TestRunCanceledDuringDelay(t *testing.T) {
	store := &fakeStore{}
	r := New(document.New(), store, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	res := r.Run(ctx, Task{Token: "t", Asset: images("a.png")[0], Delay: time.Hour})
	if !errors.Is(res.Err, context.Canceled) {
		t.Errorf("Err = %v, want context.Canceled", res.Err)
	}
	if time.Since(start) > time.Second {
		t.Error("Run did not return promptly on cancel")
	}
	if len(store.calls) != 0 {
		t.Errorf("store called %d times", len(store.calls))
	}
}

func TestCmdDeliversResult(t *testing.T) {
	r := New(document.New(), &fakeStore{}, Config{})
	msg := r.Cmd(context.Background(), Task{Token: "tok", Asset: images("z.png")[0]})()
	res, ok := msg.(Result)
	if !ok {
		t.Fatalf("Cmd produced %T, want Result", msg)
	}
	if res.Token != "tok" || res.Uploaded.URL != "https://cdn.test/z.png" {
		t.Errorf("Result = %+v", res)
	}
}

func TestNewToken(t *testing.T) {
	now := time.UnixMilli(1760870400123)
	token, err := NewToken(OriginDrop, 4, now)
	if err != nil {
		t.Fatalf("NewToken() error = %v", err)
	}
	parts := strings.Split(token, "_")
	if len(parts) != 4 || parts[0] != "drop" || parts[1] != "1760870400123" || parts[2] != "4" || len(parts[3]) != 8 {
		t.Errorf("NewToken() = %q", token)
	}
}
