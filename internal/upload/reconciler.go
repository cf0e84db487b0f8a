package upload

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/inkwell-dev/inkwell/internal/assetstore"
	"github.com/inkwell-dev/inkwell/internal/document"
	"github.com/inkwell-dev/inkwell/internal/logging"
)

// DefaultStagger separates the start of consecutive uploads from one batch.
const DefaultStagger = 200 * time.Millisecond

// PlaceholderSrc is shown while an upload is in flight.
const PlaceholderSrc = "data:image/svg+xml;base64,PHN2ZyB4bWxucz0iaHR0cDovL3d3dy53My5vcmcvMjAwMC9zdmciIHZpZXdCb3g9IjAgMCAyNCAyNCI+PGNpcmNsZSBjeD0iMTIiIGN5PSIxMiIgcj0iMTAiIGZpbGw9Im5vbmUiIHN0cm9rZT0iIzdENTZGNCIgc3Ryb2tlLXdpZHRoPSIyIiBzdHJva2UtZGFzaGFycmF5PSI0NyAxNiIvPjwvc3ZnPg=="

// ErrUnknownToken is returned by Retry for tokens the reconciler does not hold.
var ErrUnknownToken = errors.New("unknown upload token")

// ErrNotFailed is returned by Retry when the node is not in the failed state.
var ErrNotFailed = errors.New("upload has not failed")

// Origin is how an asset entered the editor.
type Origin int

const (
	OriginPaste Origin = iota
	OriginDrop
	OriginPick
)

func (o Origin) String() string {
	switch o {
	case OriginPaste:
		return "paste"
	case OriginDrop:
		return "drop"
	case OriginPick:
		return "pick"
	default:
		return "asset"
	}
}

// Task is one scheduled upload.
type Task struct {
	Token string
	Asset assetstore.Asset
	Delay time.Duration
}

// Result is the outcome of running a Task. It is delivered to the UI loop
// as a bubbletea message.
type Result struct {
	Token    string
	Uploaded assetstore.Uploaded
	Err      error
}

// Outcome says what Complete did to the document.
type Outcome int

const (
	// OutcomePatched means the placeholder now points at the uploaded URL.
	OutcomePatched Outcome = iota
	// OutcomeFailed means the placeholder was marked failed.
	OutcomeFailed
	// OutcomeMissing means no node carried the token; nothing changed.
	OutcomeMissing
)

func (o Outcome) String() string {
	switch o {
	case OutcomePatched:
		return "patched"
	case OutcomeFailed:
		return "failed"
	case OutcomeMissing:
		return "missing"
	default:
		return "unknown"
	}
}

// Config tunes a Reconciler.
type Config struct {
	Stagger time.Duration
}

type entry struct {
	asset  assetstore.Asset
	failed bool
}

// Reconciler inserts placeholders for new assets, uploads them out of band
// and patches the placeholder carrying each token once its upload settles.
// Placeholders are always located by token in the current document, never by
// a remembered position.
type Reconciler struct {
	doc     *document.Document
	store   assetstore.Store
	stagger time.Duration
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

// New creates a reconciler patching doc with uploads to store.
func New(doc *document.Document, store assetstore.Store, cfg Config) *Reconciler {
	stagger := cfg.Stagger
	if stagger <= 0 {
		stagger = DefaultStagger
	}
	return &Reconciler{
		doc:     doc,
		store:   store,
		stagger: stagger,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// NewToken returns <origin>_<unixMillis>_<index>_<random hex>.
func NewToken(origin Origin, index int, now time.Time) (string, error) {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("failed to generate upload token: %w", err)
	}
	return fmt.Sprintf("%s_%d_%d_%s", origin, now.UnixMilli(), index, hex.EncodeToString(b[:])), nil
}

// OnAssets inserts one placeholder per asset at pos, in order, as a single
// transaction, and returns the upload tasks with staggered delays. The second
// return value is the caret position after the inserted placeholders.
func (r *Reconciler) OnAssets(assets []assetstore.Asset, origin Origin, pos int) ([]Task, int, error) {
	if len(assets) == 0 {
		return nil, pos, nil
	}

	now := r.now()
	tasks := make([]Task, len(assets))
	nodes := make([]document.Node, len(assets))
	for i, a := range assets {
		token, err := NewToken(origin, i, now)
		if err != nil {
			return nil, pos, err
		}
		tasks[i] = Task{Token: token, Asset: a, Delay: time.Duration(i) * r.stagger}
		nodes[i] = document.Image(document.ImageAttrs{
			Src:         PlaceholderSrc,
			Alt:         a.Name,
			IsUploading: true,
			UploadToken: token,
		})
	}

	var next int
	if _, err := r.doc.Apply(func(tx *document.Tx) error {
		next = tx.InsertBlocks(pos, nodes...)
		return nil
	}); err != nil {
		return nil, pos, fmt.Errorf("failed to insert placeholders: %w", err)
	}

	r.mu.Lock()
	for _, t := range tasks {
		r.entries[t.Token] = &entry{asset: t.Asset}
	}
	r.mu.Unlock()

	for _, t := range tasks {
		logging.LogUpload(t.Token, "queued",
			zap.String("name", t.Asset.Name),
			zap.Int("bytes", len(t.Asset.Data)),
			zap.Duration("delay", t.Delay),
		)
	}
	return tasks, next, nil
}

// Run waits for the task's delay and uploads its asset. It never touches the
// document, so it is safe to call from any goroutine.
func (r *Reconciler) Run(ctx context.Context, t Task) Result {
	if t.Delay > 0 {
		timer := time.NewTimer(t.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Result{Token: t.Token, Err: ctx.Err()}
		case <-timer.C:
		}
	}

	logging.LogUpload(t.Token, "started")
	up, err := r.store.Upload(ctx, t.Asset)
	return Result{Token: t.Token, Uploaded: up, Err: err}
}

// Cmd wraps Run as a bubbletea command delivering a Result.
func (r *Reconciler) Cmd(ctx context.Context, t Task) tea.Cmd {
	return func() tea.Msg {
		return r.Run(ctx, t)
	}
}

// Complete applies res to whichever node currently carries res.Token.
func (r *Reconciler) Complete(res Result) Outcome {
	outcome := OutcomeMissing
	_, err := r.doc.Apply(func(tx *document.Tx) error {
		idx, ok := tx.FindUploadToken(res.Token)
		if !ok {
			return nil
		}
		if res.Err != nil {
			outcome = OutcomeFailed
			return tx.UpdateImage(idx, func(img *document.ImageAttrs) {
				img.IsUploading = false
				img.Failed = true
			})
		}
		outcome = OutcomePatched
		return tx.UpdateImage(idx, func(img *document.ImageAttrs) {
			img.Src = res.Uploaded.URL
			img.IsUploading = false
			img.Failed = false
			img.UploadToken = ""
		})
	})
	if err != nil {
		logging.Error("Failed to patch upload placeholder", zap.String("token", res.Token), zap.Error(err))
		return OutcomeMissing
	}

	r.mu.Lock()
	switch outcome {
	case OutcomePatched, OutcomeMissing:
		delete(r.entries, res.Token)
	case OutcomeFailed:
		if e, ok := r.entries[res.Token]; ok {
			e.failed = true
		}
	}
	r.mu.Unlock()

	switch outcome {
	case OutcomePatched:
		logging.LogUpload(res.Token, "completed", zap.String("url", res.Uploaded.URL))
	case OutcomeFailed:
		logging.Error("Asset upload failed", zap.String("token", res.Token), zap.Error(res.Err))
	case OutcomeMissing:
		logging.Warn("Upload placeholder no longer in document", zap.String("token", res.Token))
	}
	return outcome
}

// Retry puts a failed placeholder back into the uploading state and returns
// a task for it with no delay.
func (r *Reconciler) Retry(token string) (Task, error) {
	r.mu.Lock()
	e, ok := r.entries[token]
	r.mu.Unlock()
	if !ok {
		return Task{}, fmt.Errorf("%w: %s", ErrUnknownToken, token)
	}

	_, err := r.doc.Apply(func(tx *document.Tx) error {
		idx, ok := tx.FindUploadToken(token)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownToken, token)
		}
		n, err := tx.Block(idx)
		if err != nil {
			return err
		}
		if !n.IsFailedUpload() {
			return ErrNotFailed
		}
		return tx.UpdateImage(idx, func(img *document.ImageAttrs) {
			img.Failed = false
			img.IsUploading = true
			img.Src = PlaceholderSrc
		})
	})
	if err != nil {
		if errors.Is(err, ErrUnknownToken) {
			r.Forget(token)
		}
		return Task{}, err
	}

	r.mu.Lock()
	e.failed = false
	r.mu.Unlock()

	logging.LogUpload(token, "retried")
	return Task{Token: token, Asset: e.asset}, nil
}

// FailedTokens returns the tokens of failed uploads whose placeholders are
// still in the document, in document order.
func (r *Reconciler) FailedTokens() []string {
	snap := r.doc.Snapshot()
	var out []string
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range snap.Blocks {
		if !n.IsFailedUpload() {
			continue
		}
		if _, ok := r.entries[n.Image.UploadToken]; ok {
			out = append(out, n.Image.UploadToken)
		}
	}
	return out
}

// Pending returns the number of uploads not yet patched, including failed
// ones awaiting retry.
func (r *Reconciler) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// InFlight returns the number of uploads currently running or waiting on
// their stagger delay. Failed uploads awaiting retry are not counted.
func (r *Reconciler) InFlight() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if !e.failed {
			n++
		}
	}
	return n
}

// Forget drops the asset bytes held for token.
func (r *Reconciler) Forget(token string) {
	r.mu.Lock()
	delete(r.entries, token)
	r.mu.Unlock()
}
