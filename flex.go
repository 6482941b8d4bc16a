package loom

// FlexDirection sets the main axis of a flex container.
type FlexDirection uint8

const (
	FlexRow FlexDirection = iota
	FlexRowReverse
	FlexColumn
	FlexColumnReverse
)

// horizontal reports whether the main axis runs along x.
func (d FlexDirection) horizontal() bool {
	return d == FlexRow || d == FlexRowReverse
}

// reversed reports whether items run against the axis direction.
func (d FlexDirection) reversed() bool {
	return d == FlexRowReverse || d == FlexColumnReverse
}

// FlexWrap controls line breaking on the main axis.
type FlexWrap uint8

const (
	WrapNone FlexWrap = iota
	WrapLines
	WrapReverse
)

// Justify distributes free space along the main axis.
type Justify uint8

const (
	JustifyStart Justify = iota
	JustifyCenter
	JustifyEnd
	JustifySpaceBetween
	JustifySpaceAround
)

// Align positions items on the cross axis within their line.
type Align uint8

const (
	AlignStretch Align = iota
	AlignStart
	AlignCenter
	AlignEnd
)

// flexItem is one in-flow child presented to the flex engine: its natural
// outer (margin box) size. crossAuto marks an automatic cross-axis size,
// which is what AlignStretch is allowed to grow.
type flexItem struct {
	w, h      int
	crossAuto bool
}

// flexLine groups items sharing one main-axis line.
type flexLine struct {
	start, end int // item index range [start, end)
	main       int // accumulated main size including gaps
	cross      int // largest cross size on the line
}

// flexPlace computes margin-box rectangles for items inside the content
// rectangle. Returned rects are in the items' original order. An empty item
// list yields an empty result: the container keeps its origin untouched.
func flexPlace(content Rect, dir FlexDirection, wrap FlexWrap, justify Justify, align Align, gap int, items []flexItem) []Rect {
	if len(items) == 0 {
		return nil
	}

	mainSize := content.W
	crossSize := content.H
	if !dir.horizontal() {
		mainSize, crossSize = content.H, content.W
	}

	lines := breakLines(items, dir, wrap, gap, mainSize)

	// Single-line containers align against the full cross size.
	if len(lines) == 1 {
		lines[0].cross = crossSize
	}

	if wrap == WrapReverse {
		for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
			lines[i], lines[j] = lines[j], lines[i]
		}
	}

	out := make([]Rect, len(items))
	crossPos := 0
	for _, line := range lines {
		placeLine(out, items, line, dir, justify, align, gap, mainSize, crossPos)
		crossPos += line.cross
	}

	// Translate from container-local to absolute coordinates.
	for i := range out {
		out[i].X += content.X
		out[i].Y += content.Y
	}
	return out
}

// breakLines splits items into lines along the main axis.
func breakLines(items []flexItem, dir FlexDirection, wrap FlexWrap, gap, mainSize int) []flexLine {
	var lines []flexLine
	line := flexLine{start: 0}
	for i, it := range items {
		m, c := it.w, it.h
		if !dir.horizontal() {
			m, c = it.h, it.w
		}

		needed := m
		if i > line.start {
			needed += gap
		}
		if wrap != WrapNone && i > line.start && line.main+needed > mainSize {
			line.end = i
			lines = append(lines, line)
			line = flexLine{start: i, main: m, cross: c}
			continue
		}
		line.main += needed
		if c > line.cross {
			line.cross = c
		}
	}
	line.end = len(items)
	lines = append(lines, line)
	return lines
}

// placeLine positions one line's items, applying justification spacing and
// cross-axis alignment. Reversed directions flip the item order within the
// line, not the line order.
func placeLine(out []Rect, items []flexItem, line flexLine, dir FlexDirection, justify Justify, align Align, gap, mainSize, crossPos int) {
	count := line.end - line.start
	free := mainSize - line.main
	if free < 0 {
		free = 0
	}

	pos := 0
	between := gap
	switch justify {
	case JustifyCenter:
		pos = free / 2
	case JustifyEnd:
		pos = free
	case JustifySpaceBetween:
		if count > 1 {
			between = gap + free/(count-1)
		}
	case JustifySpaceAround:
		share := free / count
		pos = share / 2
		between = gap + share
	}

	for k := 0; k < count; k++ {
		idx := line.start + k
		if dir.reversed() {
			idx = line.end - 1 - k
		}
		it := items[idx]

		m, c := it.w, it.h
		if !dir.horizontal() {
			m, c = it.h, it.w
		}

		crossOff := 0
		switch align {
		case AlignCenter:
			crossOff = (line.cross - c) / 2
		case AlignEnd:
			crossOff = line.cross - c
		case AlignStretch:
			if it.crossAuto {
				c = line.cross
			}
		}

		var r Rect
		if dir.horizontal() {
			r = Rect{X: pos, Y: crossPos + crossOff, W: m, H: c}
		} else {
			r = Rect{X: crossPos + crossOff, Y: pos, W: c, H: m}
		}
		out[idx] = r

		pos += m
		if k < count-1 {
			pos += between
		}
	}
}
