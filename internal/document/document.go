package document

import (
	"sync"
)

// Snapshot is an immutable copy of the document at one version.
type Snapshot struct {
	Version uint64 `json:"version"`
	Blocks  Blocks `json:"blocks"`
}

// Listener is notified after every committed transaction that changed the document.
type Listener func(Snapshot)

// Document is the shared mutable document. Apply is its only write path, so
// every mutation (typing, placeholder insert, upload patch, accepted transform,
// command execution) is serialized and atomic regardless of which goroutine
// or callback scheduled it.
type Document struct {
	mu        sync.Mutex
	blocks    Blocks
	version   uint64
	listeners map[int]Listener
	nextID    int
}

// New creates a document from blocks. An empty document gets one empty paragraph.
func New(blocks ...Node) *Document {
	bs := make(Blocks, 0, len(blocks))
	for _, b := range blocks {
		if b.ID == "" {
			b.ID = NewID()
		}
		if b.Kind == KindHeading {
			b.Level = clampLevel(b.Level)
		}
		bs = append(bs, b.clone())
	}
	if len(bs) == 0 {
		bs = Blocks{Paragraph("")}
	}
	return &Document{blocks: bs, listeners: make(map[int]Listener)}
}

// Apply runs fn against a private copy of the blocks and commits the result
// atomically if fn returns nil. Listeners run after the lock is released.
func (d *Document) Apply(fn func(tx *Tx) error) (Snapshot, error) {
	d.mu.Lock()
	tx := &Tx{blocks: d.blocks.clone()}
	if err := fn(tx); err != nil {
		d.mu.Unlock()
		return Snapshot{}, err
	}
	if !tx.changed {
		snap := d.snapshotLocked()
		d.mu.Unlock()
		return snap, nil
	}
	if len(tx.blocks) == 0 {
		tx.blocks = Blocks{Paragraph("")}
	}
	d.blocks = tx.blocks
	d.version++
	snap := d.snapshotLocked()
	listeners := make([]Listener, 0, len(d.listeners))
	for _, l := range d.listeners {
		listeners = append(listeners, l)
	}
	d.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
	return snap, nil
}

// Snapshot returns the current state.
func (d *Document) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshotLocked()
}

// Version returns the number of committed changing transactions.
func (d *Document) Version() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.version
}

// FindUploadToken returns a copy of the image node that owns token.
func (d *Document) FindUploadToken(token string) (Node, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	idx, ok := d.blocks.FindUploadToken(token)
	if !ok {
		return Node{}, false
	}
	return d.blocks[idx].clone(), true
}

// OnChange registers l and returns a function that unregisters it.
func (d *Document) OnChange(l Listener) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.nextID
	d.nextID++
	d.listeners[id] = l
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.listeners, id)
	}
}

func (d *Document) snapshotLocked() Snapshot {
	return Snapshot{Version: d.version, Blocks: d.blocks.clone()}
}

// Len returns the flat-text length.
func (s Snapshot) Len() int { return s.Blocks.Len() }

// Text returns the flat text.
func (s Snapshot) Text() string { return s.Blocks.Text() }

// TextRange returns the flat text covered by r.
func (s Snapshot) TextRange(r Range) string { return s.Blocks.TextRange(r) }
