package floating

import "testing"

func TestPlace(t *testing.T) {
	vp := Viewport{W: 80, H: 24}

	tests := []struct {
		name   string
		anchor Rect
		size   Size
		opts   Options
		want   Rect
	}{
		{
			name:   "fits below anchor",
			anchor: Rect{X: 10, Y: 2, W: 5, H: 1},
			size:   Size{W: 20, H: 5},
			want:   Rect{X: 10, Y: 3, W: 20, H: 5},
		},
		{
			name:   "offsets applied",
			anchor: Rect{X: 10, Y: 2, W: 5, H: 1},
			size:   Size{W: 20, H: 5},
			opts:   Options{OffsetX: 1, OffsetY: 1},
			want:   Rect{X: 11, Y: 4, W: 20, H: 5},
		},
		{
			name:   "right overflow pulled left",
			anchor: Rect{X: 70, Y: 2, W: 5, H: 1},
			size:   Size{W: 20, H: 5},
			opts:   Options{Margin: 2},
			want:   Rect{X: 58, Y: 3, W: 20, H: 5},
		},
		{
			name:   "bottom overflow flips above",
			anchor: Rect{X: 5, Y: 20, W: 5, H: 1},
			size:   Size{W: 20, H: 6},
			want:   Rect{X: 5, Y: 14, W: 20, H: 6},
		},
		{
			name:   "no room above centres vertically",
			anchor: Rect{X: 5, Y: 4, W: 5, H: 1},
			size:   Size{W: 20, H: 20},
			opts:   Options{Margin: 1},
			want:   Rect{X: 5, Y: 2, W: 20, H: 20},
		},
		{
			name:   "taller than viewport shrinks",
			anchor: Rect{X: 0, Y: 0, W: 1, H: 1},
			size:   Size{W: 10, H: 40},
			opts:   Options{Margin: 1},
			want:   Rect{X: 1, Y: 1, W: 10, H: 22},
		},
		{
			name:   "wider than viewport clamps width",
			anchor: Rect{X: 0, Y: 0, W: 1, H: 1},
			size:   Size{W: 200, H: 3},
			opts:   Options{Margin: 2},
			want:   Rect{X: 2, Y: 2, W: 76, H: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Place(tt.anchor, tt.size, vp, tt.opts)
			if got != tt.want {
				t.Errorf("Place() = %+v, want %+v", got, tt.want)
			}
			if got.X < tt.opts.Margin || got.Right() > vp.W-tt.opts.Margin {
				t.Errorf("Place() = %+v escapes horizontal bounds", got)
			}
			if got.Y < tt.opts.Margin || got.Bottom() > vp.H-tt.opts.Margin {
				t.Errorf("Place() = %+v escapes vertical bounds", got)
			}
		})
	}
}

func TestPlaceAlwaysInsideViewport(t *testing.T) {
	vp := Viewport{W: 40, H: 12}
	for x := 0; x < vp.W; x += 3 {
		for y := 0; y < vp.H; y++ {
			got := Place(Rect{X: x, Y: y, W: 4, H: 1}, Size{W: 24, H: 7}, vp, Options{OffsetX: 1, Margin: 1})
			if got.X < 1 || got.Right() > vp.W-1 || got.Y < 1 || got.Bottom() > vp.H-1 {
				t.Fatalf("anchor (%d,%d): %+v outside viewport", x, y, got)
			}
		}
	}
}

func TestDialogWidth(t *testing.T) {
	got := Dialog(Rect{X: 3, Y: 1, W: 10, H: 1}, 10, Viewport{W: 120, H: 40})
	if got.W != DialogWidth {
		t.Errorf("wide terminal: W = %d, want %d", got.W, DialogWidth)
	}

	got = Dialog(Rect{X: 3, Y: 1, W: 10, H: 1}, 10, Viewport{W: 40, H: 40})
	if got.W != 36 {
		t.Errorf("narrow terminal: W = %d, want 36", got.W)
	}
}

func TestRectContains(t *testing.T) {
	r := Rect{X: 2, Y: 2, W: 3, H: 2}
	if !r.Contains(Point{X: 2, Y: 2}) || !r.Contains(Point{X: 4, Y: 3}) {
		t.Error("corner cells should be inside")
	}
	if r.Contains(Point{X: 5, Y: 2}) || r.Contains(Point{X: 2, Y: 4}) {
		t.Error("cells past Right/Bottom should be outside")
	}
}
