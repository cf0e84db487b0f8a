package document

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDoc() *Document {
	return New(
		Paragraph("abc"),
		Image(ImageAttrs{Src: "http://x/a.png"}),
		Paragraph("de"),
	)
}

func TestBlocksPositions(t *testing.T) {
	snap := sampleDoc().Snapshot()

	assert.Equal(t, "abc\n\uFFFC\nde", snap.Text())
	assert.Equal(t, 8, snap.Len())
	assert.Equal(t, 0, snap.Blocks.Start(0))
	assert.Equal(t, 4, snap.Blocks.Start(1))
	assert.Equal(t, 6, snap.Blocks.Start(2))

	tests := []struct {
		pos     int
		wantIdx int
		wantOff int
	}{
		{0, 0, 0},
		{3, 0, 3},
		{4, 1, 0},
		{5, 1, 1},
		{6, 2, 0},
		{8, 2, 2},
		{99, 2, 2},
		{-4, 0, 0},
	}
	for _, tt := range tests {
		idx, off := snap.Blocks.Locate(tt.pos)
		assert.Equal(t, tt.wantIdx, idx, "Locate(%d) idx", tt.pos)
		assert.Equal(t, tt.wantOff, off, "Locate(%d) off", tt.pos)
	}
}

func TestTextRangeAcrossBlocks(t *testing.T) {
	snap := sampleDoc().Snapshot()
	assert.Equal(t, "c\n\uFFFC\nd", snap.TextRange(Range{From: 2, To: 7}))
	assert.Equal(t, "c\n\uFFFC\nd", snap.TextRange(Range{From: 7, To: 2}))
	assert.Equal(t, "", snap.TextRange(Range{From: 3, To: 3}))
}

func TestInsertText(t *testing.T) {
	doc := New(Paragraph("helo"))

	var pos int
	_, err := doc.Apply(func(tx *Tx) error {
		pos = tx.InsertText(3, "l")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 4, pos)
	assert.Equal(t, "hello", doc.Snapshot().Text())
}

func TestInsertTextMultiline(t *testing.T) {
	doc := New(Node{Kind: KindBulletItem, Text: "one four"})

	var pos int
	_, err := doc.Apply(func(tx *Tx) error {
		pos = tx.InsertText(4, "two\nthree\n")
		return nil
	})
	require.NoError(t, err)

	snap := doc.Snapshot()
	require.Len(t, snap.Blocks, 3)
	assert.Equal(t, "one two", snap.Blocks[0].Text)
	assert.Equal(t, "three", snap.Blocks[1].Text)
	assert.Equal(t, "four", snap.Blocks[2].Text)
	for _, b := range snap.Blocks {
		assert.Equal(t, KindBulletItem, b.Kind)
	}
	assert.Equal(t, snap.Blocks.Start(2), pos)
}

func TestSplitHeadingContinuesAsParagraph(t *testing.T) {
	doc := New(Heading(2, "Title"))

	_, err := doc.Apply(func(tx *Tx) error {
		tx.SplitBlock(5)
		return nil
	})
	require.NoError(t, err)

	snap := doc.Snapshot()
	require.Len(t, snap.Blocks, 2)
	assert.Equal(t, KindHeading, snap.Blocks[0].Kind)
	assert.Equal(t, KindParagraph, snap.Blocks[1].Kind)
	assert.Equal(t, 0, snap.Blocks[1].Level)
}

func TestInsertTextOnAtomCreatesParagraph(t *testing.T) {
	doc := sampleDoc()

	_, err := doc.Apply(func(tx *Tx) error {
		tx.InsertText(5, "caption")
		return nil
	})
	require.NoError(t, err)

	snap := doc.Snapshot()
	require.Len(t, snap.Blocks, 4)
	assert.Equal(t, KindImage, snap.Blocks[1].Kind)
	assert.Equal(t, "caption", snap.Blocks[2].Text)
}

func TestDelete(t *testing.T) {
	tests := []struct {
		name     string
		rng      Range
		wantText string
		wantLen  int
	}{
		{"within block", Range{From: 1, To: 2}, "ac\n\uFFFC\nde", 3},
		{"across image merges edges", Range{From: 2, To: 7}, "abe", 1},
		{"image only", Range{From: 4, To: 5}, "abc\nde", 2},
		{"reversed range", Range{From: 7, To: 2}, "abe", 1},
		{"everything", Range{From: 0, To: 8}, "", 1},
		{"empty range", Range{From: 2, To: 2}, "abc\n\uFFFC\nde", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := sampleDoc()
			_, err := doc.Apply(func(tx *Tx) error {
				tx.Delete(tt.rng)
				return nil
			})
			require.NoError(t, err)
			snap := doc.Snapshot()
			assert.Equal(t, tt.wantText, snap.Text())
			assert.Len(t, snap.Blocks, tt.wantLen)
		})
	}
}

func TestDeleteKeepsSurvivingIDs(t *testing.T) {
	doc := sampleDoc()
	before := doc.Snapshot()

	_, err := doc.Apply(func(tx *Tx) error {
		tx.Delete(Range{From: 4, To: 5})
		return nil
	})
	require.NoError(t, err)

	after := doc.Snapshot()
	require.Len(t, after.Blocks, 2)
	assert.Equal(t, before.Blocks[0].ID, after.Blocks[0].ID)
	assert.Equal(t, before.Blocks[2].ID, after.Blocks[1].ID)
}

func TestReplace(t *testing.T) {
	doc := New(Paragraph("Say Hello world now"))

	_, err := doc.Apply(func(tx *Tx) error {
		require.Equal(t, "Hello world", tx.TextRange(Range{From: 4, To: 15}))
		tx.Replace(Range{From: 4, To: 15}, "Greetings, world.")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Say Greetings, world. now", doc.Snapshot().Text())
}

func TestInsertBlocks(t *testing.T) {
	t.Run("splits text block", func(t *testing.T) {
		doc := New(Paragraph("hello world"))
		var next int
		_, err := doc.Apply(func(tx *Tx) error {
			next = tx.InsertBlocks(5, Image(ImageAttrs{Src: "s"}))
			return nil
		})
		require.NoError(t, err)

		snap := doc.Snapshot()
		require.Len(t, snap.Blocks, 3)
		assert.Equal(t, "hello", snap.Blocks[0].Text)
		assert.Equal(t, KindImage, snap.Blocks[1].Kind)
		assert.Equal(t, " world", snap.Blocks[2].Text)
		assert.Equal(t, 8, next)
	})

	t.Run("empty line inserts before", func(t *testing.T) {
		doc := New()
		var next int
		_, err := doc.Apply(func(tx *Tx) error {
			next = tx.InsertBlocks(0, Image(ImageAttrs{Src: "1"}), Image(ImageAttrs{Src: "2"}))
			return nil
		})
		require.NoError(t, err)

		snap := doc.Snapshot()
		require.Len(t, snap.Blocks, 3)
		assert.Equal(t, "1", snap.Blocks[0].Image.Src)
		assert.Equal(t, "2", snap.Blocks[1].Image.Src)
		assert.Equal(t, KindParagraph, snap.Blocks[2].Kind)
		assert.Equal(t, 4, next)
	})

	t.Run("end of document appends caret paragraph", func(t *testing.T) {
		doc := New(Paragraph("abc"))
		_, err := doc.Apply(func(tx *Tx) error {
			tx.InsertBlocks(3, Divider())
			return nil
		})
		require.NoError(t, err)

		snap := doc.Snapshot()
		require.Len(t, snap.Blocks, 3)
		assert.Equal(t, KindDivider, snap.Blocks[1].Kind)
		assert.Equal(t, KindParagraph, snap.Blocks[2].Kind)
	})
}

func TestApplyRollsBackOnError(t *testing.T) {
	doc := New(Paragraph("keep"))
	boom := errors.New("boom")

	_, err := doc.Apply(func(tx *Tx) error {
		tx.InsertText(0, "lost ")
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "keep", doc.Snapshot().Text())
	assert.Equal(t, uint64(0), doc.Version())
}

func TestApplyNotifiesListeners(t *testing.T) {
	doc := New()
	var got []Snapshot
	unsubscribe := doc.OnChange(func(s Snapshot) { got = append(got, s) })

	_, _ = doc.Apply(func(tx *Tx) error { tx.InsertText(0, "a"); return nil })
	_, _ = doc.Apply(func(tx *Tx) error { return nil })
	unsubscribe()
	_, _ = doc.Apply(func(tx *Tx) error { tx.InsertText(0, "b"); return nil })

	require.Len(t, got, 1, "no-op and post-unsubscribe transactions must not notify")
	assert.Equal(t, "a", got[0].Text())
	assert.Equal(t, uint64(1), got[0].Version)
}

func TestApplyIsSerialized(t *testing.T) {
	doc := New()
	const writers = 50

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = doc.Apply(func(tx *Tx) error {
				tx.InsertText(tx.Len(), "x")
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, writers, doc.Snapshot().Len())
	assert.Equal(t, uint64(writers), doc.Version())
}

func TestSnapshotIsIsolated(t *testing.T) {
	doc := New(Image(ImageAttrs{Src: "a", IsUploading: true, UploadToken: "tok"}))
	snap := doc.Snapshot()
	snap.Blocks[0].Image.Src = "mutated"

	node, ok := doc.FindUploadToken("tok")
	require.True(t, ok)
	assert.Equal(t, "a", node.Image.Src)
}

func TestFindUploadToken(t *testing.T) {
	doc := New(
		Paragraph("x"),
		Image(ImageAttrs{IsUploading: true, UploadToken: "t1"}),
		Image(ImageAttrs{IsUploading: true, UploadToken: "t2"}),
	)

	node, ok := doc.FindUploadToken("t2")
	require.True(t, ok)
	assert.True(t, node.IsPlaceholder())

	_, ok = doc.FindUploadToken("missing")
	assert.False(t, ok)
	_, ok = doc.FindUploadToken("")
	assert.False(t, ok)
}

func TestSetKindRejectsAtoms(t *testing.T) {
	doc := sampleDoc()
	_, err := doc.Apply(func(tx *Tx) error { return tx.SetKind(1, KindHeading, 1) })
	assert.Error(t, err)

	_, err = doc.Apply(func(tx *Tx) error { return tx.SetKind(0, KindHeading, 9) })
	require.NoError(t, err)
	b := doc.Snapshot().Blocks[0]
	assert.Equal(t, KindHeading, b.Kind)
	assert.Equal(t, 3, b.Level)
}
