package loom

import "testing"

func TestAppendSGR(t *testing.T) {
	tests := []struct {
		name  string
		style Style
		want  string
	}{
		{"Default", DefaultStyle(), "\x1b[0m"},
		{"Bold", DefaultStyle().Bold(), "\x1b[0;1m"},
		{"BoldUnderline", DefaultStyle().Bold().Underline(), "\x1b[0;1;4m"},
		{"Basic FG", DefaultStyle().Foreground(NamedColor(ColorRed)), "\x1b[0;31m"},
		{"Bright FG", DefaultStyle().Foreground(NamedColor(ColorBrightCyan)), "\x1b[0;96m"},
		{"Basic BG", DefaultStyle().Background(NamedColor(ColorBlue)), "\x1b[0;44m"},
		{"Bright BG", DefaultStyle().Background(NamedColor(ColorBrightBlack)), "\x1b[0;100m"},
		{"Palette FG", DefaultStyle().Foreground(PaletteColor(208)), "\x1b[0;38;5;208m"},
		{"RGB BG", DefaultStyle().Background(RGB(10, 20, 30)), "\x1b[0;48;2;10;20;30m"},
		{
			"Combined",
			DefaultStyle().Bold().Inverse().Foreground(NamedColor(ColorGreen)).Background(PaletteColor(17)),
			"\x1b[0;1;7;32;48;5;17m",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(AppendSGR(nil, tt.style))
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAppendCursorTo(t *testing.T) {
	if got := string(appendCursorTo(nil, 0, 0)); got != "\x1b[1;1H" {
		t.Errorf("origin: got %q", got)
	}
	if got := string(appendCursorTo(nil, 9, 4)); got != "\x1b[5;10H" {
		t.Errorf("offset: got %q", got)
	}
}

func TestParseColor(t *testing.T) {
	t.Run("Names", func(t *testing.T) {
		c, err := ParseColor("Red")
		if err != nil {
			t.Fatal(err)
		}
		if c.Mode != Color16 || c.Index != ColorRed {
			t.Errorf("got %+v", c)
		}
		if c, _ := ParseColor("default"); c.Mode != ColorDefault {
			t.Errorf("default should map to the zero color, got %+v", c)
		}
	})

	t.Run("Hex", func(t *testing.T) {
		c, err := ParseColor("#ff8000")
		if err != nil {
			t.Fatal(err)
		}
		if c.Mode != ColorRGB || c.R != 0xff || c.G != 0x80 || c.B != 0 {
			t.Errorf("got %+v", c)
		}
	})

	t.Run("ShortHex", func(t *testing.T) {
		c, err := ParseColor("#f0c")
		if err != nil {
			t.Fatal(err)
		}
		if c.R != 0xff || c.G != 0x00 || c.B != 0xcc {
			t.Errorf("got %+v", c)
		}
	})

	t.Run("Invalid", func(t *testing.T) {
		if _, err := ParseColor("not-a-color"); err == nil {
			t.Error("expected error")
		}
		if _, err := ParseColor("#zzz"); err == nil {
			t.Error("expected error for bad hex")
		}
	})
}

func TestQuantize256(t *testing.T) {
	tests := []struct {
		in   Color
		want uint8
	}{
		{RGB(0, 0, 0), 16},
		{RGB(255, 255, 255), 231},
		{RGB(255, 0, 0), 196},
		{RGB(95, 135, 175), 67},
	}
	for _, tt := range tests {
		got := Quantize256(tt.in)
		if got.Mode != Color256 || got.Index != tt.want {
			t.Errorf("Quantize256(%+v) = %+v, want index %d", tt.in, got, tt.want)
		}
	}

	// Non-RGB colors pass through.
	c := NamedColor(ColorRed)
	if got := Quantize256(c); got != c {
		t.Errorf("basic color should pass through, got %+v", got)
	}
}

func TestStrip(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"\x1b[31mred\x1b[0m", "red"},
		{"a\x1b[1;38;5;100mb", "ab"},
		{"\x1b]0;title\x07text", "text"},
		{"\x1b]0;title\x1b\\text", "text"},
		{"trunc\x1b[31", "trunc"},
	}
	for _, tt := range tests {
		if got := Strip(tt.in); got != tt.want {
			t.Errorf("Strip(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestVisibleWidth(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"hello", 5},
		{"", 0},
		{"\x1b[31mred\x1b[0m", 3},
		{"日本", 4},
		{"a日b", 4},
	}
	for _, tt := range tests {
		if got := VisibleWidth(tt.in); got != tt.want {
			t.Errorf("VisibleWidth(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
