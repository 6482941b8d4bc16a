package loom

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Buffer is a 2D grid of cells representing a drawable surface.
// Rows written to since the last ClearDirty call are tracked so the
// differ can skip untouched rows.
type Buffer struct {
	cells  []Cell
	width  int
	height int
	dirty  []bool
}

// NewBuffer creates a new buffer with the given dimensions.
func NewBuffer(width, height int) *Buffer {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	cells := make([]Cell, width*height)
	empty := EmptyCell()
	for i := range cells {
		cells[i] = empty
	}
	return &Buffer{
		cells:  cells,
		width:  width,
		height: height,
		dirty:  make([]bool, height),
	}
}

// Width returns the buffer width.
func (b *Buffer) Width() int {
	return b.width
}

// Height returns the buffer height.
func (b *Buffer) Height() int {
	return b.height
}

// InBounds returns true if the given coordinates are within the buffer.
func (b *Buffer) InBounds(x, y int) bool {
	return x >= 0 && x < b.width && y >= 0 && y < b.height
}

func (b *Buffer) index(x, y int) int {
	return y*b.width + x
}

// Get returns the cell at the given coordinates.
// Returns an empty cell if out of bounds.
func (b *Buffer) Get(x, y int) Cell {
	if !b.InBounds(x, y) {
		return EmptyCell()
	}
	return b.cells[b.index(x, y)]
}

// Set sets the cell at the given coordinates.
// Border runes are merged with any border rune already present.
func (b *Buffer) Set(x, y int, c Cell) {
	if !b.InBounds(x, y) {
		return
	}
	idx := b.index(x, y)
	existing := b.cells[idx]

	if merged, ok := mergeBorders(existing.Rune, c.Rune); ok {
		c.Rune = merged
	}

	b.cells[idx] = c
	b.dirty[y] = true
}

// SetRaw sets a cell without border merging. Used by the compositor when a
// higher z-index layer must fully replace what is underneath.
func (b *Buffer) SetRaw(x, y int, c Cell) {
	if !b.InBounds(x, y) {
		return
	}
	b.cells[b.index(x, y)] = c
	b.dirty[y] = true
}

// RowDirty reports whether the row has been written since the last ClearDirty.
func (b *Buffer) RowDirty(y int) bool {
	return y >= 0 && y < len(b.dirty) && b.dirty[y]
}

// ClearDirty resets all dirty-row flags.
func (b *Buffer) ClearDirty() {
	for i := range b.dirty {
		b.dirty[i] = false
	}
}

// Fill fills the entire buffer with the given cell.
func (b *Buffer) Fill(c Cell) {
	for i := range b.cells {
		b.cells[i] = c
	}
	for i := range b.dirty {
		b.dirty[i] = true
	}
}

// Clear clears the buffer to empty cells with default style.
func (b *Buffer) Clear() {
	b.Fill(EmptyCell())
}

// FillRect fills a rectangular region with the given cell.
func (b *Buffer) FillRect(x, y, width, height int, c Cell) {
	for dy := 0; dy < height; dy++ {
		for dx := 0; dx < width; dx++ {
			b.SetRaw(x+dx, y+dy, c)
		}
	}
}

// WriteString writes a string at the given coordinates with the given style.
// Wide runes occupy two columns; the trailing column holds a zero-rune
// placeholder the differ knows to skip. Returns columns written.
func (b *Buffer) WriteString(x, y int, s string, style Style) int {
	return b.WriteStringClipped(x, y, s, style, b.width-x)
}

// WriteStringClipped writes a string, stopping after maxWidth columns.
func (b *Buffer) WriteStringClipped(x, y int, s string, style Style, maxWidth int) int {
	written := 0
	for _, r := range s {
		rw := runewidth.RuneWidth(r)
		if rw == 0 {
			continue
		}
		if written+rw > maxWidth || !b.InBounds(x, y) {
			break
		}
		b.Set(x, y, NewCell(r, style))
		if rw == 2 {
			b.SetRaw(x+1, y, Cell{Rune: 0, Style: style})
		}
		x += rw
		written += rw
	}
	return written
}

// WriteSpans writes a sequence of styled spans at the given coordinates.
func (b *Buffer) WriteSpans(x, y int, spans []Span, maxWidth int) int {
	written := 0
	for _, sp := range spans {
		if written >= maxWidth {
			break
		}
		n := b.WriteStringClipped(x+written, y, sp.Text, sp.Style, maxWidth-written)
		written += n
	}
	return written
}

// HLine draws a horizontal line of the given rune.
func (b *Buffer) HLine(x, y, length int, r rune, style Style) {
	for i := 0; i < length; i++ {
		b.Set(x+i, y, NewCell(r, style))
	}
}

// VLine draws a vertical line of the given rune.
func (b *Buffer) VLine(x, y, length int, r rune, style Style) {
	for i := 0; i < length; i++ {
		b.Set(x, y+i, NewCell(r, style))
	}
}

// Box drawing characters for borders.
const (
	BoxHorizontal  = '─'
	BoxVertical    = '│'
	BoxTopLeft     = '┌'
	BoxTopRight    = '┐'
	BoxBottomLeft  = '└'
	BoxBottomRight = '┘'

	BoxRoundedBottomRight = '╯'

	BoxDoubleHorizontal  = '═'
	BoxDoubleVertical    = '║'
	BoxDoubleTopLeft     = '╔'
	BoxDoubleTopRight    = '╗'
	BoxDoubleBottomLeft  = '╚'
	BoxDoubleBottomRight = '╝'

	BoxThickHorizontal  = '━'
	BoxThickVertical    = '┃'
	BoxThickTopLeft     = '┏'
	BoxThickTopRight    = '┓'
	BoxThickBottomLeft  = '┗'
	BoxThickBottomRight = '┛'

	BoxDashedHorizontal = '╌'
	BoxDashedVertical   = '╎'

	BoxDottedHorizontal = '┄'
	BoxDottedVertical   = '┆'
)

// Box junction characters for merged borders.
const (
	BoxTeeDown  = '┬'
	BoxTeeUp    = '┴'
	BoxTeeRight = '├'
	BoxTeeLeft  = '┤'
	BoxCross    = '┼'
)

// borderEdges maps border runes to the edges they connect.
// Bits: 1=top, 2=right, 4=bottom, 8=left.
var borderEdges = map[rune]uint8{
	BoxHorizontal:         0b1010,
	BoxVertical:           0b0101,
	BoxTopLeft:            0b0110,
	BoxTopRight:           0b1100,
	BoxBottomLeft:         0b0011,
	BoxBottomRight:        0b1001,
	BoxRoundedBottomRight: 0b1001,
	BoxTeeDown:            0b1110,
	BoxTeeUp:              0b1011,
	BoxTeeRight:           0b0111,
	BoxTeeLeft:            0b1101,
	BoxCross:              0b1111,
}

// edgesToBorder maps edge combinations back to border runes.
var edgesToBorder = map[uint8]rune{
	0b1010: BoxHorizontal,
	0b0101: BoxVertical,
	0b0110: BoxTopLeft,
	0b1100: BoxTopRight,
	0b0011: BoxBottomLeft,
	0b1001: BoxBottomRight,
	0b1110: BoxTeeDown,
	0b1011: BoxTeeUp,
	0b0111: BoxTeeRight,
	0b1101: BoxTeeLeft,
	0b1111: BoxCross,
}

// mergeBorders combines two border characters into one.
// Returns the merged rune and true if both were border chars.
func mergeBorders(existing, next rune) (rune, bool) {
	existingEdges, ok1 := borderEdges[existing]
	newEdges, ok2 := borderEdges[next]
	if !ok1 || !ok2 {
		return next, false
	}
	merged := existingEdges | newEdges
	if result, ok := edgesToBorder[merged]; ok {
		return result, true
	}
	return next, false
}

// BorderKind names one of the supported border glyph families.
type BorderKind uint8

const (
	BorderSingle BorderKind = iota
	BorderDouble
	BorderThick
	BorderDashed
	BorderDotted
)

// ParseBorderKind resolves a border style name.
func ParseBorderKind(name string) (BorderKind, bool) {
	switch strings.ToLower(name) {
	case "", "single":
		return BorderSingle, true
	case "double":
		return BorderDouble, true
	case "thick", "bold":
		return BorderThick, true
	case "dashed":
		return BorderDashed, true
	case "dotted":
		return BorderDotted, true
	}
	return BorderSingle, false
}

// BorderChars defines the characters used for drawing one border family.
type BorderChars struct {
	Horizontal  rune
	Vertical    rune
	TopLeft     rune
	TopRight    rune
	BottomLeft  rune
	BottomRight rune
}

// Border glyph tables. The single set's bottom-right corner is the rounded
// '╯' while the other three corners are square; screens in the wild match
// against these exact glyphs, so the mismatch stays.
var borderCharsets = [...]BorderChars{
	BorderSingle: {
		Horizontal:  BoxHorizontal,
		Vertical:    BoxVertical,
		TopLeft:     BoxTopLeft,
		TopRight:    BoxTopRight,
		BottomLeft:  BoxBottomLeft,
		BottomRight: BoxRoundedBottomRight,
	},
	BorderDouble: {
		Horizontal:  BoxDoubleHorizontal,
		Vertical:    BoxDoubleVertical,
		TopLeft:     BoxDoubleTopLeft,
		TopRight:    BoxDoubleTopRight,
		BottomLeft:  BoxDoubleBottomLeft,
		BottomRight: BoxDoubleBottomRight,
	},
	BorderThick: {
		Horizontal:  BoxThickHorizontal,
		Vertical:    BoxThickVertical,
		TopLeft:     BoxThickTopLeft,
		TopRight:    BoxThickTopRight,
		BottomLeft:  BoxThickBottomLeft,
		BottomRight: BoxThickBottomRight,
	},
	BorderDashed: {
		Horizontal:  BoxDashedHorizontal,
		Vertical:    BoxDashedVertical,
		TopLeft:     BoxTopLeft,
		TopRight:    BoxTopRight,
		BottomLeft:  BoxBottomLeft,
		BottomRight: BoxBottomRight,
	},
	BorderDotted: {
		Horizontal:  BoxDottedHorizontal,
		Vertical:    BoxDottedVertical,
		TopLeft:     BoxTopLeft,
		TopRight:    BoxTopRight,
		BottomLeft:  BoxBottomLeft,
		BottomRight: BoxBottomRight,
	},
}

// Chars returns the glyph set for the border kind.
func (k BorderKind) Chars() BorderChars {
	if int(k) >= len(borderCharsets) {
		return borderCharsets[BorderSingle]
	}
	return borderCharsets[k]
}

// BorderSides is a bitmask of which sides of a border are visible.
type BorderSides uint8

const (
	SideTop BorderSides = 1 << iota
	SideRight
	SideBottom
	SideLeft
	SidesAll = SideTop | SideRight | SideBottom | SideLeft
)

// Has reports whether the side is included.
func (s BorderSides) Has(side BorderSides) bool {
	return s&side != 0
}

// DrawBorder draws a border around the given rectangle using the glyph set
// for the kind, honoring per-side visibility. Corner cells are drawn when
// both adjacent sides are visible.
func (b *Buffer) DrawBorder(x, y, width, height int, kind BorderKind, sides BorderSides, style Style) {
	if width < 2 || height < 2 {
		return
	}
	ch := kind.Chars()

	if sides.Has(SideTop) {
		for i := 1; i < width-1; i++ {
			b.Set(x+i, y, NewCell(ch.Horizontal, style))
		}
	}
	if sides.Has(SideBottom) {
		for i := 1; i < width-1; i++ {
			b.Set(x+i, y+height-1, NewCell(ch.Horizontal, style))
		}
	}
	if sides.Has(SideLeft) {
		for i := 1; i < height-1; i++ {
			b.Set(x, y+i, NewCell(ch.Vertical, style))
		}
	}
	if sides.Has(SideRight) {
		for i := 1; i < height-1; i++ {
			b.Set(x+width-1, y+i, NewCell(ch.Vertical, style))
		}
	}

	if sides.Has(SideTop) && sides.Has(SideLeft) {
		b.Set(x, y, NewCell(ch.TopLeft, style))
	}
	if sides.Has(SideTop) && sides.Has(SideRight) {
		b.Set(x+width-1, y, NewCell(ch.TopRight, style))
	}
	if sides.Has(SideBottom) && sides.Has(SideLeft) {
		b.Set(x, y+height-1, NewCell(ch.BottomLeft, style))
	}
	if sides.Has(SideBottom) && sides.Has(SideRight) {
		b.Set(x+width-1, y+height-1, NewCell(ch.BottomRight, style))
	}
}

// String returns the buffer contents as a string (for testing/debugging).
func (b *Buffer) String() string {
	var result []byte
	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			c := b.Get(x, y)
			if c.Rune == 0 {
				continue // wide-rune placeholder
			}
			result = append(result, string(c.Rune)...)
		}
		if y < b.height-1 {
			result = append(result, '\n')
		}
	}
	return string(result)
}

// StringTrimmed returns the buffer contents with trailing spaces removed
// per line and trailing empty lines dropped.
func (b *Buffer) StringTrimmed() string {
	var lines []string
	for y := 0; y < b.height; y++ {
		var line []byte
		lastNonSpace := -1
		for x := 0; x < b.width; x++ {
			c := b.Get(x, y)
			r := c.Rune
			if r == 0 {
				continue
			}
			line = append(line, string(r)...)
			if r != ' ' {
				lastNonSpace = len(line)
			}
		}
		if lastNonSpace >= 0 {
			lines = append(lines, string(line[:lastNonSpace]))
		} else {
			lines = append(lines, "")
		}
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

// Resize resizes the buffer, preserving content where it fits.
func (b *Buffer) Resize(width, height int) {
	if width == b.width && height == b.height {
		return
	}

	newCells := make([]Cell, width*height)
	empty := EmptyCell()
	for i := range newCells {
		newCells[i] = empty
	}

	minWidth := min(b.width, width)
	minHeight := min(b.height, height)
	for y := 0; y < minHeight; y++ {
		for x := 0; x < minWidth; x++ {
			newCells[y*width+x] = b.cells[y*b.width+x]
		}
	}

	b.cells = newCells
	b.width = width
	b.height = height
	b.dirty = make([]bool, height)
	for i := range b.dirty {
		b.dirty[i] = true
	}
}

// Blit copies a rectangular region from src into b.
func (b *Buffer) Blit(src *Buffer, srcX, srcY, dstX, dstY, width, height int) {
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			b.SetRaw(dstX+x, dstY+y, src.Get(srcX+x, srcY+y))
		}
	}
}
