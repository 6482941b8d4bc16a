package loom

import "testing"

func TestParseTrack(t *testing.T) {
	tests := []struct {
		in      string
		want    Track
		wantErr bool
	}{
		{"auto", AutoTrack(), false},
		{"12", Fixed(12), false},
		{"2fr", Fr(2), false},
		{" 1fr ", Fr(1), false},
		{"0fr", Track{}, true},
		{"-3", Track{}, true},
		{"abc", Track{}, true},
	}
	for _, tt := range tests {
		got, err := ParseTrack(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseTrack(%q) error = %v", tt.in, err)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseTrack(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseTracks(t *testing.T) {
	tracks, err := ParseTracks("1fr 2fr auto 10")
	if err != nil {
		t.Fatal(err)
	}
	want := []Track{Fr(1), Fr(2), AutoTrack(), Fixed(10)}
	if len(tracks) != len(want) {
		t.Fatalf("got %d tracks", len(tracks))
	}
	for i := range want {
		if tracks[i] != want[i] {
			t.Errorf("track %d: got %+v, want %+v", i, tracks[i], want[i])
		}
	}
	if _, err := ParseTracks("1fr bogus"); err == nil {
		t.Error("expected error")
	}
}

func TestParseGridSpan(t *testing.T) {
	t.Run("Range", func(t *testing.T) {
		s, err := parseGridSpan("1 / 3")
		if err != nil {
			t.Fatal(err)
		}
		if !s.set || s.start != 1 || s.end != 3 {
			t.Errorf("got %+v", s)
		}
	})
	t.Run("Single", func(t *testing.T) {
		s, err := parseGridSpan("2")
		if err != nil {
			t.Fatal(err)
		}
		if !s.set || s.start != 2 || s.end != 3 {
			t.Errorf("got %+v", s)
		}
	})
	t.Run("Empty", func(t *testing.T) {
		s, err := parseGridSpan("")
		if err != nil || s.set {
			t.Errorf("empty spec should be unset, got %+v err %v", s, err)
		}
	})
	t.Run("Invalid", func(t *testing.T) {
		for _, spec := range []string{"0", "3 / 2", "x / 2"} {
			if _, err := parseGridSpan(spec); err == nil {
				t.Errorf("expected error for %q", spec)
			}
		}
	})
}

func TestResolveTracks(t *testing.T) {
	t.Run("FrSplit", func(t *testing.T) {
		sizes := resolveTracks([]Track{Fixed(10), Fr(1), Fr(2)}, []int{0, 0, 0}, 40, 1)
		want := []int{10, 9, 18}
		for i := range want {
			if sizes[i] != want[i] {
				t.Errorf("track %d: got %d, want %d", i, sizes[i], want[i])
			}
		}
	})

	t.Run("AutoFromContent", func(t *testing.T) {
		sizes := resolveTracks([]Track{AutoTrack(), Fr(1)}, []int{7, 0}, 20, 0)
		if sizes[0] != 7 || sizes[1] != 13 {
			t.Errorf("got %v", sizes)
		}
	})

	t.Run("Overfull", func(t *testing.T) {
		sizes := resolveTracks([]Track{Fixed(30), Fr(1)}, []int{0, 0}, 20, 0)
		if sizes[1] != 0 {
			t.Errorf("fr track should collapse when nothing remains, got %d", sizes[1])
		}
	})
}

func TestGridPlace(t *testing.T) {
	t.Run("AutoFlowRowMajor", func(t *testing.T) {
		content := Rect{X: 0, Y: 0, W: 30, H: 12}
		items := []gridItem{
			{w: 5, h: 3}, {w: 5, h: 3}, {w: 5, h: 3}, {w: 5, h: 3},
		}
		got := gridPlace(content, []Track{Fr(1), Fr(1)}, nil, 0, items)
		want := []Rect{
			{X: 0, Y: 0, W: 15, H: 3},
			{X: 15, Y: 0, W: 15, H: 3},
			{X: 0, Y: 3, W: 15, H: 3},
			{X: 15, Y: 3, W: 15, H: 3},
		}
		assertRects(t, got, want)
	})

	t.Run("ThreeFixedColumnsWrap", func(t *testing.T) {
		content := Rect{X: 0, Y: 0, W: 30, H: 10}
		items := []gridItem{
			{w: 4, h: 2}, {w: 4, h: 2}, {w: 4, h: 2}, {w: 4, h: 2},
		}
		got := gridPlace(content, []Track{Fixed(8), Fixed(8), Fixed(8)}, nil, 0, items)
		want := []Rect{
			{X: 0, Y: 0, W: 8, H: 2},
			{X: 8, Y: 0, W: 8, H: 2},
			{X: 16, Y: 0, W: 8, H: 2},
			{X: 0, Y: 2, W: 8, H: 2},
		}
		assertRects(t, got, want)
	})

	t.Run("FixedAndFrWithGap", func(t *testing.T) {
		content := Rect{X: 0, Y: 0, W: 20, H: 10}
		items := []gridItem{{w: 3, h: 2}, {w: 3, h: 2}}
		got := gridPlace(content, []Track{Fixed(5), Fr(1)}, nil, 1, items)
		if got[0].W != 5 {
			t.Errorf("fixed column width: got %d, want 5", got[0].W)
		}
		if got[1].X != 6 || got[1].W != 14 {
			t.Errorf("fr column: got %+v", got[1])
		}
	})

	t.Run("ExplicitSpan", func(t *testing.T) {
		content := Rect{X: 0, Y: 0, W: 30, H: 12}
		items := []gridItem{
			{w: 5, h: 3, col: gridSpan{set: true, start: 1, end: 3}},
			{w: 5, h: 3},
			{w: 5, h: 3},
		}
		got := gridPlace(content, []Track{Fr(1), Fr(1)}, nil, 0, items)
		if got[0].W != 30 {
			t.Errorf("spanned item should cover both columns, got %+v", got[0])
		}
		// Auto-flow skips the reserved first row.
		if got[1].Y == 0 || got[2].Y == 0 {
			t.Errorf("auto items must flow below the reserved row: %+v %+v", got[1], got[2])
		}
	})

	t.Run("SpanPastDeclaredColumns", func(t *testing.T) {
		content := Rect{X: 0, Y: 0, W: 20, H: 10}
		items := []gridItem{
			{w: 2, h: 2, col: gridSpan{set: true, start: 4, end: 5}},
		}
		got := gridPlace(content, []Track{Fr(1), Fr(1)}, nil, 0, items)
		if got[0].X != 10 || got[0].W != 10 {
			t.Errorf("a span past the declared columns should clamp to the last column, got %+v", got[0])
		}
	})

	t.Run("ExplicitCellSkipped", func(t *testing.T) {
		content := Rect{X: 0, Y: 0, W: 20, H: 10}
		items := []gridItem{
			{w: 2, h: 2, col: gridSpan{set: true, start: 2, end: 3}, row: gridSpan{set: true, start: 1, end: 2}},
			{w: 2, h: 2},
			{w: 2, h: 2},
		}
		got := gridPlace(content, []Track{Fr(1), Fr(1)}, nil, 0, items)
		if got[1].X != 0 || got[1].Y != 0 {
			t.Errorf("first auto item should take the free cell (0,0), got %+v", got[1])
		}
		if got[2].Y == 0 && got[2].X != 0 {
			t.Errorf("second auto item must not land on the reserved cell, got %+v", got[2])
		}
	})

	t.Run("DefaultSingleColumn", func(t *testing.T) {
		content := Rect{X: 0, Y: 0, W: 10, H: 10}
		items := []gridItem{{w: 4, h: 2}, {w: 4, h: 2}}
		got := gridPlace(content, nil, nil, 0, items)
		if got[0].W != 10 || got[1].W != 10 {
			t.Errorf("default 1fr column should span the content width: %+v %+v", got[0], got[1])
		}
		if got[1].Y != got[0].Y+got[0].H {
			t.Errorf("items should stack vertically: %+v %+v", got[0], got[1])
		}
	})

	t.Run("TranslatedOrigin", func(t *testing.T) {
		content := Rect{X: 5, Y: 2, W: 10, H: 10}
		got := gridPlace(content, []Track{Fr(1)}, nil, 0, []gridItem{{w: 3, h: 2}})
		if got[0].X != 5 || got[0].Y != 2 {
			t.Errorf("rects should be absolute, got %+v", got[0])
		}
	})
}
