package loom

import "testing"

func feedAll(d *InputDecoder, chunks ...string) []InputEvent {
	var events []InputEvent
	for _, c := range chunks {
		events = append(events, d.Feed([]byte(c))...)
	}
	return events
}

func wantKey(t *testing.T, ev InputEvent, k Key, r rune, mods Modifier) {
	t.Helper()
	if ev.Type != InputKey {
		t.Fatalf("expected key event, got %+v", ev)
	}
	if ev.Key.Key != k || ev.Key.Rune != r || ev.Key.Mods != mods {
		t.Errorf("got key=%v rune=%q mods=%b, want key=%v rune=%q mods=%b",
			ev.Key.Key, ev.Key.Rune, ev.Key.Mods, k, r, mods)
	}
}

func TestDecodeKeys(t *testing.T) {
	t.Run("Printable", func(t *testing.T) {
		evs := feedAll(NewInputDecoder(), "ab")
		if len(evs) != 2 {
			t.Fatalf("got %d events", len(evs))
		}
		wantKey(t, evs[0], KeyRune, 'a', 0)
		wantKey(t, evs[1], KeyRune, 'b', 0)
	})

	t.Run("ControlArithmetic", func(t *testing.T) {
		evs := feedAll(NewInputDecoder(), "\x01\x03\x1a")
		if len(evs) != 3 {
			t.Fatalf("got %d events", len(evs))
		}
		wantKey(t, evs[0], KeyRune, 'a', ModCtrl)
		wantKey(t, evs[1], KeyRune, 'c', ModCtrl)
		wantKey(t, evs[2], KeyRune, 'z', ModCtrl)
	})

	t.Run("ControlSpecials", func(t *testing.T) {
		tests := []struct {
			in   string
			want Key
		}{
			{"\x09", KeyTab},
			{"\x0d", KeyEnter},
			{"\x0a", KeyEnter},
			{"\x08", KeyBackspace},
			{"\x7f", KeyBackspace},
		}
		for _, tt := range tests {
			evs := feedAll(NewInputDecoder(), tt.in)
			if len(evs) != 1 {
				t.Fatalf("%q: got %d events", tt.in, len(evs))
			}
			wantKey(t, evs[0], tt.want, 0, 0)
		}
	})

	t.Run("CSINavigation", func(t *testing.T) {
		tests := []struct {
			in   string
			want Key
			mods Modifier
		}{
			{"\x1b[A", KeyUp, 0},
			{"\x1b[B", KeyDown, 0},
			{"\x1b[C", KeyRight, 0},
			{"\x1b[D", KeyLeft, 0},
			{"\x1b[H", KeyHome, 0},
			{"\x1b[F", KeyEnd, 0},
			{"\x1b[Z", KeyBacktab, ModShift},
			{"\x1b[3~", KeyDelete, 0},
			{"\x1b[5~", KeyPageUp, 0},
			{"\x1b[6~", KeyPageDown, 0},
			{"\x1b[1~", KeyHome, 0},
			{"\x1b[4~", KeyEnd, 0},
			{"\x1bOA", KeyUp, 0},
			{"\x1bOF", KeyEnd, 0},
		}
		for _, tt := range tests {
			evs := feedAll(NewInputDecoder(), tt.in)
			if len(evs) != 1 {
				t.Fatalf("%q: got %d events", tt.in, len(evs))
			}
			wantKey(t, evs[0], tt.want, 0, tt.mods)
		}
	})

	t.Run("XtermModifiers", func(t *testing.T) {
		evs := feedAll(NewInputDecoder(), "\x1b[1;5A")
		if len(evs) != 1 {
			t.Fatalf("got %d events", len(evs))
		}
		wantKey(t, evs[0], KeyUp, 0, ModCtrl)

		evs = feedAll(NewInputDecoder(), "\x1b[1;2C")
		wantKey(t, evs[0], KeyRight, 0, ModShift)
	})

	t.Run("AltModified", func(t *testing.T) {
		evs := feedAll(NewInputDecoder(), "\x1bx")
		if len(evs) != 1 {
			t.Fatalf("got %d events", len(evs))
		}
		wantKey(t, evs[0], KeyRune, 'x', ModAlt)
	})

	t.Run("UTF8", func(t *testing.T) {
		evs := feedAll(NewInputDecoder(), "é日")
		if len(evs) != 2 {
			t.Fatalf("got %d events", len(evs))
		}
		wantKey(t, evs[0], KeyRune, 'é', 0)
		wantKey(t, evs[1], KeyRune, '日', 0)
	})
}

func TestDecodeSplitSequences(t *testing.T) {
	t.Run("SplitArrow", func(t *testing.T) {
		d := NewInputDecoder()
		if evs := d.Feed([]byte("\x1b")); len(evs) != 0 {
			t.Fatalf("lone ESC should wait, got %d events", len(evs))
		}
		evs := d.Feed([]byte("[A"))
		if len(evs) != 1 {
			t.Fatalf("got %d events", len(evs))
		}
		wantKey(t, evs[0], KeyUp, 0, 0)
	})

	t.Run("SplitUTF8", func(t *testing.T) {
		d := NewInputDecoder()
		raw := []byte("日")
		if evs := d.Feed(raw[:1]); len(evs) != 0 {
			t.Fatalf("partial rune should wait, got %d events", len(evs))
		}
		evs := d.Feed(raw[1:])
		if len(evs) != 1 {
			t.Fatalf("got %d events", len(evs))
		}
		wantKey(t, evs[0], KeyRune, '日', 0)
	})

	t.Run("SplitSGRMouse", func(t *testing.T) {
		d := NewInputDecoder()
		d.Feed([]byte("\x1b[<0;5"))
		evs := d.Feed([]byte(";3M"))
		if len(evs) != 1 {
			t.Fatalf("got %d events", len(evs))
		}
		if evs[0].Type != InputMouse {
			t.Fatalf("expected mouse event, got %+v", evs[0])
		}
	})

	t.Run("FlushEscape", func(t *testing.T) {
		d := NewInputDecoder()
		d.Feed([]byte("\x1b"))
		ev, ok := d.FlushEscape()
		if !ok {
			t.Fatal("lone ESC should flush to Escape")
		}
		wantKey(t, ev, KeyEscape, 0, 0)
		if d.Pending() != 0 {
			t.Errorf("buffer should be empty, %d pending", d.Pending())
		}
	})

	t.Run("RunawaySequenceDiscarded", func(t *testing.T) {
		d := NewInputDecoder()
		long := make([]byte, 0, 100)
		long = append(long, 0x1b, '[')
		for i := 0; i < 90; i++ {
			long = append(long, '1')
		}
		evs := d.Feed(long)
		if len(evs) != 0 {
			t.Errorf("runaway parameter bytes must not decode as keys, got %d events", len(evs))
		}
		if d.Pending() != 0 {
			t.Errorf("runaway sequence should be discarded, %d pending", d.Pending())
		}
	})

	t.Run("RunawayDiscardResumesAtNextEscape", func(t *testing.T) {
		d := NewInputDecoder()
		long := make([]byte, 0, 100)
		long = append(long, 0x1b, '[')
		for i := 0; i < 90; i++ {
			long = append(long, '1')
		}
		long = append(long, "\x1b[A"...)

		evs := d.Feed(long)
		if len(evs) != 1 {
			t.Fatalf("only the trailing sequence should decode, got %d events", len(evs))
		}
		wantKey(t, evs[0], KeyUp, 0, 0)
		if d.Pending() != 0 {
			t.Errorf("buffer should be empty, %d pending", d.Pending())
		}
	})

	t.Run("RunawayMouseDiscarded", func(t *testing.T) {
		d := NewInputDecoder()
		long := make([]byte, 0, 100)
		long = append(long, 0x1b, '[', '<')
		for i := 0; i < 80; i++ {
			long = append(long, '2')
		}
		evs := d.Feed(long)
		if len(evs) != 0 {
			t.Errorf("runaway mouse report must not decode as keys, got %d events", len(evs))
		}
		if d.Pending() != 0 {
			t.Errorf("runaway report should be discarded, %d pending", d.Pending())
		}
	})
}

func TestDecodeMouse(t *testing.T) {
	t.Run("SGRPress", func(t *testing.T) {
		evs := feedAll(NewInputDecoder(), "\x1b[<0;10;5M")
		if len(evs) != 1 {
			t.Fatalf("got %d events", len(evs))
		}
		m := evs[0].Mouse
		if m.Button != MouseLeft || m.Action != MousePress || m.X != 9 || m.Y != 4 {
			t.Errorf("got %+v", m)
		}
	})

	t.Run("SGRRelease", func(t *testing.T) {
		evs := feedAll(NewInputDecoder(), "\x1b[<0;1;1m")
		m := evs[0].Mouse
		if m.Button != MouseLeft || m.Action != MouseRelease {
			t.Errorf("got %+v", m)
		}
	})

	t.Run("SGRWheel", func(t *testing.T) {
		up := feedAll(NewInputDecoder(), "\x1b[<64;3;3M")
		if up[0].Mouse.Button != MouseWheelUp {
			t.Errorf("got %+v", up[0].Mouse)
		}
		down := feedAll(NewInputDecoder(), "\x1b[<65;3;3M")
		if down[0].Mouse.Button != MouseWheelDown {
			t.Errorf("got %+v", down[0].Mouse)
		}
	})

	t.Run("SGRDrag", func(t *testing.T) {
		evs := feedAll(NewInputDecoder(), "\x1b[<32;4;4M")
		m := evs[0].Mouse
		if m.Button != MouseLeft || m.Action != MouseDrag {
			t.Errorf("got %+v", m)
		}
	})

	t.Run("SGRMotion", func(t *testing.T) {
		evs := feedAll(NewInputDecoder(), "\x1b[<35;4;4M")
		m := evs[0].Mouse
		if m.Button != MouseNone || m.Action != MouseMove {
			t.Errorf("got %+v", m)
		}
	})

	t.Run("SGRModifiers", func(t *testing.T) {
		evs := feedAll(NewInputDecoder(), "\x1b[<16;2;2M")
		if !evs[0].Mouse.Mods.Has(ModCtrl) {
			t.Errorf("got %+v", evs[0].Mouse)
		}
	})

	t.Run("ConcatenatedReports", func(t *testing.T) {
		evs := feedAll(NewInputDecoder(), "\x1b[<0;1;1M\x1b[<0;2;1M\x1b[<0;3;1m")
		if len(evs) != 3 {
			t.Fatalf("got %d events", len(evs))
		}
		if evs[2].Mouse.Action != MouseRelease {
			t.Errorf("got %+v", evs[2].Mouse)
		}
	})

	t.Run("Legacy", func(t *testing.T) {
		// btn 0, x=3, y=2 (each offset by 32, coordinates 1-based).
		evs := feedAll(NewInputDecoder(), "\x1b[M\x20\x23\x22")
		if len(evs) != 1 {
			t.Fatalf("got %d events", len(evs))
		}
		m := evs[0].Mouse
		if m.Button != MouseLeft || m.Action != MousePress || m.X != 2 || m.Y != 1 {
			t.Errorf("got %+v", m)
		}
	})

	t.Run("LegacyRelease", func(t *testing.T) {
		evs := feedAll(NewInputDecoder(), "\x1b[M\x23\x21\x21")
		if evs[0].Mouse.Action != MouseRelease {
			t.Errorf("got %+v", evs[0].Mouse)
		}
	})

	t.Run("MixedKeysAndMouse", func(t *testing.T) {
		evs := feedAll(NewInputDecoder(), "a\x1b[<0;1;1Mb")
		if len(evs) != 3 {
			t.Fatalf("got %d events", len(evs))
		}
		wantKey(t, evs[0], KeyRune, 'a', 0)
		if evs[1].Type != InputMouse {
			t.Errorf("middle event should be mouse: %+v", evs[1])
		}
		wantKey(t, evs[2], KeyRune, 'b', 0)
	})
}
