package palette

import (
	"errors"
	"math/rand"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-dev/inkwell/internal/document"
	"github.com/inkwell-dev/inkwell/internal/floating"
	"github.com/inkwell-dev/inkwell/internal/transform"
)

var (
	keyUp    = tea.KeyMsg{Type: tea.KeyUp}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyRight = tea.KeyMsg{Type: tea.KeyRight}
	keyLeft  = tea.KeyMsg{Type: tea.KeyLeft}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
)

var testModels = []transform.Model{
	{Provider: "openai", ModelID: "gpt-4", Name: "GPT-4"},
	{Provider: "openai", ModelID: "gpt-3.5-turbo", Name: "GPT-3.5 Turbo"},
	{Provider: "anthropic", ModelID: "claude-3-5-sonnet-20241022", Name: "Claude 3.5 Sonnet"},
}

var vp = floating.Viewport{W: 80, H: 24}

func openPalette(t *testing.T) *Palette {
	t.Helper()
	p := New(DefaultRegistry(), testModels)
	p.Open(10, floating.Rect{X: 2, Y: 3, W: 1, H: 1}, vp)
	require.True(t, p.IsOpen())
	return p
}

func TestFilterMatchesKeywordSubstring(t *testing.T) {
	reg := DefaultRegistry()

	assert.Len(t, reg.Filter(""), reg.Len(), "empty query shows everything")

	queries := []string{"h", "H1", "list", "图片", "xyz", "mod", " code "}
	for _, q := range queries {
		got := reg.Filter(q)
		var want []Descriptor
		for _, d := range reg.All() {
			if d.Matches(q) {
				want = append(want, d)
			}
		}
		assert.Equal(t, want, got, "query %q", q)
	}

	ids := func(ds []Descriptor) []CommandID {
		var out []CommandID
		for _, d := range ds {
			out = append(out, d.ID)
		}
		return out
	}
	assert.Equal(t, []CommandID{CmdHeading1}, ids(reg.Filter("H1")))
	assert.Equal(t, []CommandID{CmdBulletList, CmdNumberedList}, ids(reg.Filter("list")))
	assert.Equal(t, []CommandID{CmdImage}, ids(reg.Filter("图片")))
	assert.Empty(t, reg.Filter("xyz"))
}

func TestNavigationWraps(t *testing.T) {
	p := openPalette(t)
	n := len(p.Items())

	p.HandleKey(keyUp)
	assert.Equal(t, n-1, p.Index(), "up from the first entry wraps to the last")

	p.HandleKey(keyDown)
	assert.Equal(t, 0, p.Index(), "down from the last entry wraps to the first")

	for i := 0; i < n+2; i++ {
		p.HandleKey(keyDown)
	}
	assert.Equal(t, 2, p.Index())
}

func TestIndexStaysInRange(t *testing.T) {
	p := openPalette(t)
	rng := rand.New(rand.NewSource(7))
	queries := []string{"", "h", "list", "zzz", "co"}

	for i := 0; i < 500; i++ {
		switch rng.Intn(4) {
		case 0:
			p.HandleKey(keyUp)
		case 1:
			p.HandleKey(keyDown)
		case 2:
			p.SetQuery(queries[rng.Intn(len(queries))])
		case 3:
			p.HandleKey(keyLeft)
		}
		if n := len(p.Items()); n == 0 {
			require.Equal(t, 0, p.Index())
		} else {
			require.GreaterOrEqual(t, p.Index(), 0)
			require.Less(t, p.Index(), n)
		}
	}
}

func TestEmptyFilterKeepsIndexZero(t *testing.T) {
	p := openPalette(t)
	p.SetQuery("zzz")
	require.Empty(t, p.Items())

	p.HandleKey(keyDown)
	p.HandleKey(keyUp)
	assert.Equal(t, 0, p.Index())

	out := p.HandleKey(keyEnter)
	assert.Equal(t, OutcomeHandled, out.Kind)
	assert.True(t, p.IsOpen())
}

func TestEnterExecutesAndReportsSpan(t *testing.T) {
	p := openPalette(t)
	p.SetQuery("h2")

	out := p.HandleKey(keyEnter)
	require.Equal(t, OutcomeExecute, out.Kind)
	assert.Equal(t, CmdHeading2, out.Command.ID)
	assert.Equal(t, document.Range{From: 10, To: 13}, out.Span, "trigger plus two query runes")
	assert.False(t, p.IsOpen())
}

func TestSubmenu(t *testing.T) {
	p := openPalette(t)
	p.SetQuery("model")
	require.Equal(t, CmdModel, p.Items()[0].ID)

	p.HandleKey(keyRight)
	require.Equal(t, StateSubmenu, p.State())

	p.HandleKey(keyUp)
	assert.Equal(t, len(testModels)-1, p.SubIndex())

	p.HandleKey(keyLeft)
	assert.Equal(t, StatePrimary, p.State())

	p.HandleKey(keyRight)
	p.HandleKey(keyEsc)
	assert.Equal(t, StatePrimary, p.State(), "escape in the submenu goes back one level")

	p.HandleKey(keyEnter)
	require.Equal(t, StateSubmenu, p.State(), "enter on a submenu entry opens it")
	p.HandleKey(keyDown)
	out := p.HandleKey(keyEnter)
	require.Equal(t, OutcomeSelectModel, out.Kind)
	assert.Equal(t, testModels[1], out.Model)
	assert.False(t, p.IsOpen())
}

func TestRightOnPlainEntryDoesNothing(t *testing.T) {
	p := openPalette(t)
	p.HandleKey(keyRight)
	assert.Equal(t, StatePrimary, p.State())
}

func TestCloseTriggers(t *testing.T) {
	p := openPalette(t)
	out := p.HandleKey(keyEsc)
	assert.Equal(t, OutcomeClosed, out.Kind)
	assert.False(t, p.IsOpen())

	p = openPalette(t)
	inside := floating.Point{X: p.Rect().X, Y: p.Rect().Y}
	assert.False(t, p.ClickOutside(inside))
	assert.True(t, p.IsOpen())
	assert.True(t, p.ClickOutside(floating.Point{X: 79, Y: 0}))
	assert.False(t, p.IsOpen())

	out = p.HandleKey(keyDown)
	assert.Equal(t, OutcomeIgnored, out.Kind, "a closed palette ignores keys")
}

func TestTypingIsIgnored(t *testing.T) {
	p := openPalette(t)
	out := p.HandleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("h")})
	assert.Equal(t, OutcomeIgnored, out.Kind)
}

func TestShouldOpen(t *testing.T) {
	empty := document.Paragraph("")
	assert.True(t, ShouldOpen(empty, 0, "/", ""))
	assert.True(t, ShouldOpen(empty, 0, "、", "、"))
	assert.False(t, ShouldOpen(document.Paragraph("text"), 0, "/", "/"))
	assert.False(t, ShouldOpen(empty, 0, "x", "/"))
	assert.False(t, ShouldOpen(document.Divider(), 0, "/", "/"))
	assert.False(t, ShouldOpen(document.Node{Kind: document.KindCodeBlock}, 0, "/", "/"))
}

func TestRectInsideViewport(t *testing.T) {
	p := New(DefaultRegistry(), testModels)
	p.Open(0, floating.Rect{X: 78, Y: 22, W: 1, H: 1}, vp)
	r := p.Rect()
	assert.GreaterOrEqual(t, r.X, 1)
	assert.LessOrEqual(t, r.Right(), vp.W-1)
	assert.GreaterOrEqual(t, r.Y, 1)
	assert.LessOrEqual(t, r.Bottom(), vp.H-1)
}

type recorder struct {
	kind    document.Kind
	level   int
	divider bool
	image   bool
	model   transform.Model
	err     error
}

func (r *recorder) SetBlockKind(kind document.Kind, level int) error {
	r.kind, r.level = kind, level
	return r.err
}

func (r *recorder) InsertDivider() error {
	r.divider = true
	return r.err
}

func (r *recorder) PromptImagePath() { r.image = true }

func (r *recorder) SetModel(m transform.Model) { r.model = m }

func TestExecute(t *testing.T) {
	tests := []struct {
		id    CommandID
		kind  document.Kind
		level int
	}{
		{CmdText, document.KindParagraph, 0},
		{CmdHeading1, document.KindHeading, 1},
		{CmdHeading2, document.KindHeading, 2},
		{CmdHeading3, document.KindHeading, 3},
		{CmdBulletList, document.KindBulletItem, 0},
		{CmdNumberedList, document.KindOrderedItem, 0},
		{CmdQuote, document.KindQuote, 0},
		{CmdCodeBlock, document.KindCodeBlock, 0},
	}
	for _, tt := range tests {
		t.Run(tt.id.String(), func(t *testing.T) {
			r := &recorder{}
			require.NoError(t, Execute(tt.id, r))
			assert.Equal(t, tt.kind, r.kind)
			assert.Equal(t, tt.level, r.level)
		})
	}

	r := &recorder{}
	require.NoError(t, Execute(CmdDivider, r))
	assert.True(t, r.divider)

	r = &recorder{}
	require.NoError(t, Execute(CmdImage, r))
	assert.True(t, r.image)

	r = &recorder{err: errors.New("atom")}
	assert.Error(t, Execute(CmdQuote, r))

	assert.Error(t, Execute(CommandID(99), &recorder{}))
}

func TestRegistryIsImmutable(t *testing.T) {
	reg := DefaultRegistry()
	all := reg.All()
	all[0].DisplayName = "changed"
	assert.Equal(t, "Text", reg.All()[0].DisplayName)
}
