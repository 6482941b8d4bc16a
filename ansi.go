package loom

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/rivo/uniseg"
)

// Terminal control sequences.
const (
	escCSI = "\x1b["

	escClearScreen = "\x1b[2J"
	escCursorHome  = "\x1b[H"
	escHideCursor  = "\x1b[?25l"
	escShowCursor  = "\x1b[?25h"
	escResetStyle  = "\x1b[0m"

	escAltScreenOn  = "\x1b[?1049h"
	escAltScreenOff = "\x1b[?1049l"

	// Button tracking, motion tracking and SGR-extended coordinates.
	escMouseOn  = "\x1b[?1000h\x1b[?1002h\x1b[?1006h"
	escMouseOff = "\x1b[?1006l\x1b[?1002l\x1b[?1000l"
)

// namedColors maps CSS-style color names to basic palette entries.
var namedColors = map[string]Color{
	"black":   {Mode: Color16, Index: ColorBlack},
	"red":     {Mode: Color16, Index: ColorRed},
	"green":   {Mode: Color16, Index: ColorGreen},
	"yellow":  {Mode: Color16, Index: ColorYellow},
	"blue":    {Mode: Color16, Index: ColorBlue},
	"magenta": {Mode: Color16, Index: ColorMagenta},
	"cyan":    {Mode: Color16, Index: ColorCyan},
	"white":   {Mode: Color16, Index: ColorWhite},
	"gray":    {Mode: Color16, Index: ColorBrightBlack},
	"grey":    {Mode: Color16, Index: ColorBrightBlack},
	"default": {},
}

// ParseColor parses a color name or "#rrggbb" / "#rgb" hex string.
func ParseColor(s string) (Color, error) {
	if c, ok := namedColors[strings.ToLower(s)]; ok {
		return c, nil
	}
	if strings.HasPrefix(s, "#") {
		hex := s
		if len(hex) == 4 {
			hex = fmt.Sprintf("#%c%c%c%c%c%c", s[1], s[1], s[2], s[2], s[3], s[3])
		}
		cf, err := colorful.Hex(hex)
		if err != nil {
			return Color{}, fmt.Errorf("parse color %q: %w", s, err)
		}
		r, g, b := cf.RGB255()
		return RGB(r, g, b), nil
	}
	return Color{}, fmt.Errorf("parse color %q: unknown name", s)
}

// cubeLevels are the channel values of the xterm 6x6x6 color cube.
var cubeLevels = [6]uint8{0, 95, 135, 175, 215, 255}

func nearestCubeLevel(v uint8) int {
	best, bestDist := 0, 256
	for i, l := range cubeLevels {
		d := int(v) - int(l)
		if d < 0 {
			d = -d
		}
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// Quantize256 maps a truecolor value onto the closest entry of the xterm
// 256-color cube. Non-RGB colors pass through unchanged.
func Quantize256(c Color) Color {
	if c.Mode != ColorRGB {
		return c
	}
	r := nearestCubeLevel(c.R)
	g := nearestCubeLevel(c.G)
	b := nearestCubeLevel(c.B)
	return PaletteColor(uint8(16 + 36*r + 6*g + b))
}

// AppendSGR appends one combined SGR sequence selecting the style. It
// always starts from a reset so stale attributes never leak between cells.
func AppendSGR(dst []byte, s Style) []byte {
	dst = append(dst, "\x1b[0"...)
	if s.Attr.Has(AttrBold) {
		dst = append(dst, ";1"...)
	}
	if s.Attr.Has(AttrDim) {
		dst = append(dst, ";2"...)
	}
	if s.Attr.Has(AttrItalic) {
		dst = append(dst, ";3"...)
	}
	if s.Attr.Has(AttrUnderline) {
		dst = append(dst, ";4"...)
	}
	if s.Attr.Has(AttrInverse) {
		dst = append(dst, ";7"...)
	}
	if s.Attr.Has(AttrStrikethrough) {
		dst = append(dst, ";9"...)
	}
	dst = appendColor(dst, s.FG, false)
	dst = appendColor(dst, s.BG, true)
	return append(dst, 'm')
}

// appendColor appends the color parameters for one channel of an SGR
// sequence already in progress.
func appendColor(dst []byte, c Color, background bool) []byte {
	switch c.Mode {
	case ColorDefault:
		return dst
	case Color16:
		base := 30
		if c.Index >= 8 {
			base = 90 - 8
		}
		if background {
			base += 10
		}
		dst = append(dst, ';')
		return appendInt(dst, base+int(c.Index))
	case Color256:
		if background {
			dst = append(dst, ";48;5;"...)
		} else {
			dst = append(dst, ";38;5;"...)
		}
		return appendInt(dst, int(c.Index))
	case ColorRGB:
		if background {
			dst = append(dst, ";48;2;"...)
		} else {
			dst = append(dst, ";38;2;"...)
		}
		dst = appendInt(dst, int(c.R))
		dst = append(dst, ';')
		dst = appendInt(dst, int(c.G))
		dst = append(dst, ';')
		return appendInt(dst, int(c.B))
	}
	return dst
}

// appendInt appends a non-negative decimal without allocating.
func appendInt(dst []byte, v int) []byte {
	if v >= 100 {
		dst = append(dst, byte('0'+v/100))
	}
	if v >= 10 {
		dst = append(dst, byte('0'+(v/10)%10))
	}
	return append(dst, byte('0'+v%10))
}

// appendCursorTo appends a cursor position sequence for 0-indexed
// coordinates.
func appendCursorTo(dst []byte, x, y int) []byte {
	dst = append(dst, escCSI...)
	dst = appendInt(dst, y+1)
	dst = append(dst, ';')
	dst = appendInt(dst, x+1)
	return append(dst, 'H')
}

// Strip removes CSI and OSC escape sequences from a string, leaving only
// printable content.
func Strip(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] != 0x1b {
			b.WriteByte(s[i])
			i++
			continue
		}
		if i+1 >= len(s) {
			break
		}
		switch s[i+1] {
		case '[': // CSI: parameters then a final byte in 0x40-0x7e
			i += 2
			for i < len(s) && (s[i] < 0x40 || s[i] > 0x7e) {
				i++
			}
			if i < len(s) {
				i++
			}
		case ']': // OSC: terminated by BEL or ST
			i += 2
			for i < len(s) {
				if s[i] == 0x07 {
					i++
					break
				}
				if s[i] == 0x1b && i+1 < len(s) && s[i+1] == '\\' {
					i += 2
					break
				}
				i++
			}
		default:
			i += 2
		}
	}
	return b.String()
}

// VisibleWidth returns the number of terminal columns a string occupies,
// ignoring escape sequences and counting grapheme cluster widths.
func VisibleWidth(s string) int {
	return uniseg.StringWidth(Strip(s))
}
