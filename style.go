// Package loom is a retained-mode terminal rendering core. Applications
// build a tree of styled nodes; loom lays the tree out with flex and grid
// engines, composites it into a cell buffer through z-ordered stacking
// contexts, and emits the minimal ANSI escape stream that brings the
// terminal up to date.
package loom

// Attribute is a bitmask of text attributes.
type Attribute uint8

const (
	AttrBold Attribute = 1 << iota
	AttrDim
	AttrItalic
	AttrUnderline
	AttrInverse
	AttrStrikethrough
)

// Has reports whether all bits in mask are set.
func (a Attribute) Has(mask Attribute) bool {
	return a&mask == mask
}

// With returns the attributes with mask added.
func (a Attribute) With(mask Attribute) Attribute {
	return a | mask
}

// Without returns the attributes with mask removed.
func (a Attribute) Without(mask Attribute) Attribute {
	return a &^ mask
}

// ColorMode selects how a Color is interpreted and emitted.
type ColorMode uint8

const (
	ColorDefault ColorMode = iota // terminal default, no escape emitted
	Color16                       // basic palette, Index 0-15
	Color256                      // xterm 256-color palette, Index 0-255
	ColorRGB                      // 24-bit truecolor
)

// Basic palette indexes for Color16.
const (
	ColorBlack uint8 = iota
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
	ColorMagenta
	ColorCyan
	ColorWhite
	ColorBrightBlack
	ColorBrightRed
	ColorBrightGreen
	ColorBrightYellow
	ColorBrightBlue
	ColorBrightMagenta
	ColorBrightCyan
	ColorBrightWhite
)

// Color is a terminal color in one of four modes. The zero value is the
// terminal default.
type Color struct {
	Mode    ColorMode
	R, G, B uint8 // ColorRGB
	Index   uint8 // Color16 and Color256
}

// DefaultColor returns the terminal default color.
func DefaultColor() Color {
	return Color{}
}

// NamedColor returns a basic palette color by index (ColorBlack through
// ColorBrightWhite).
func NamedColor(index uint8) Color {
	return Color{Mode: Color16, Index: index}
}

// PaletteColor returns an xterm 256-palette color.
func PaletteColor(index uint8) Color {
	return Color{Mode: Color256, Index: index}
}

// RGB returns a 24-bit truecolor value.
func RGB(r, g, b uint8) Color {
	return Color{Mode: ColorRGB, R: r, G: g, B: b}
}

// Style is the paint applied to a cell: foreground, background and text
// attributes. The zero value is the terminal default.
type Style struct {
	FG   Color
	BG   Color
	Attr Attribute
}

// DefaultStyle returns the all-default style.
func DefaultStyle() Style {
	return Style{}
}

// Equal reports whether two styles would emit identical escapes.
func (s Style) Equal(o Style) bool {
	return s == o
}

// Foreground returns a copy with the foreground set.
func (s Style) Foreground(c Color) Style {
	s.FG = c
	return s
}

// Background returns a copy with the background set.
func (s Style) Background(c Color) Style {
	s.BG = c
	return s
}

// Bold returns a copy with bold set.
func (s Style) Bold() Style {
	s.Attr = s.Attr.With(AttrBold)
	return s
}

// Dim returns a copy with dim set.
func (s Style) Dim() Style {
	s.Attr = s.Attr.With(AttrDim)
	return s
}

// Italic returns a copy with italic set.
func (s Style) Italic() Style {
	s.Attr = s.Attr.With(AttrItalic)
	return s
}

// Underline returns a copy with underline set.
func (s Style) Underline() Style {
	s.Attr = s.Attr.With(AttrUnderline)
	return s
}

// Inverse returns a copy with inverse video set.
func (s Style) Inverse() Style {
	s.Attr = s.Attr.With(AttrInverse)
	return s
}

// Strikethrough returns a copy with strikethrough set.
func (s Style) Strikethrough() Style {
	s.Attr = s.Attr.With(AttrStrikethrough)
	return s
}

// Cell is one character cell of a buffer. Node, Layer and Z record which
// node painted the cell and in what stacking order; they are metadata for
// hit-testing and debugging, and never participate in diffing.
type Cell struct {
	Rune  rune
	Style Style
	Node  NodeID
	Layer int32
	Z     int32
}

// EmptyCell returns a blank cell with default style.
func EmptyCell() Cell {
	return Cell{Rune: ' '}
}

// NewCell returns a cell with the given rune and style.
func NewCell(r rune, style Style) Cell {
	return Cell{Rune: r, Style: style}
}

// VisualEqual reports whether two cells look the same on screen. The
// differ uses this, so metadata-only changes never cause terminal writes.
func (c Cell) VisualEqual(o Cell) bool {
	return c.Rune == o.Rune && c.Style == o.Style
}

// Span is a run of text in a single style.
type Span struct {
	Text  string
	Style Style
}
