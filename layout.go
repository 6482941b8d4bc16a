package loom

import "strings"

// LayoutTree computes bounds for every node, laying the root out into the
// viewport. Bounds are absolute screen coordinates; scroll offsets are
// applied later by the compositor, not here.
func LayoutTree(t *Tree, viewport Rect) {
	root := t.Root()
	placeNode(root, viewport, viewport)
}

// placeNode assigns bounds from the node's margin-box rectangle and lays
// out its subtree.
func placeNode(n *Node, outer, viewport Rect) {
	m := ResolveBox(&n.Style)
	border := outer.Inset(m.Margin)
	content := border.Inset(Edges{
		Top:    m.Border.Top + m.Padding.Top,
		Right:  m.Border.Right + m.Padding.Right,
		Bottom: m.Border.Bottom + m.Padding.Bottom,
		Left:   m.Border.Left + m.Padding.Left,
	})
	n.setBounds(Bounds{Outer: outer, Border: border, Content: content})
	layoutChildren(n, content, viewport)
}

// layoutChildren places n's children inside the given content rectangle.
// Flow children (static/relative/sticky) go through the flex or grid
// engine; absolute and fixed children are positioned against the content
// rect or the viewport respectively.
func layoutChildren(n *Node, content, viewport Rect) {
	var flow, positioned []*Node
	for _, c := range n.children {
		switch c.Style.Position {
		case PositionAbsolute, PositionFixed:
			positioned = append(positioned, c)
		default:
			flow = append(flow, c)
		}
	}

	if len(flow) > 0 {
		var rects []Rect
		switch n.Style.Layout {
		case LayoutGrid:
			items := make([]gridItem, len(flow))
			for i, c := range flow {
				w, h := measureOuter(c, content.W, content.H)
				col, _ := parseGridSpan(c.Style.ColSpan)
				row, _ := parseGridSpan(c.Style.RowSpan)
				items[i] = gridItem{w: w, h: h, col: col, row: row}
			}
			rects = gridPlace(content, n.Style.Columns, n.Style.Rows, n.Style.Gap, items)
		default:
			items := make([]flexItem, len(flow))
			for i, c := range flow {
				w, h := measureOuter(c, content.W, content.H)
				crossAuto := c.Style.Height.IsAuto()
				if !n.Style.Direction.horizontal() {
					crossAuto = c.Style.Width.IsAuto()
				}
				items[i] = flexItem{w: w, h: h, crossAuto: crossAuto}
			}
			rects = flexPlace(content, n.Style.Direction, n.Style.Wrap,
				n.Style.Justify, n.Style.Align, n.Style.Gap, items)
		}

		for i, c := range flow {
			r := rects[i]
			if c.Style.Position == PositionRelative || c.Style.Position == PositionSticky {
				r.X, r.Y = ResolvePosition(c.Style.Position, c.Style.Offsets,
					r.X, r.Y, content, viewport, r.W, r.H)
			}
			placeNode(c, r, viewport)
		}
	}

	for _, c := range positioned {
		w, h := measureOuter(c, content.W, content.H)
		ref := content
		if c.Style.Position == PositionFixed {
			ref = viewport
		}
		x, y := ResolvePosition(c.Style.Position, c.Style.Offsets,
			ref.X, ref.Y, content, viewport, w, h)
		placeNode(c, Rect{X: x, Y: y, W: w, H: h}, viewport)
	}
}

// measureOuter returns the node's outer (margin box) size given the
// available content dimensions of its parent. Explicit dimensions resolve
// against the parent's content box; otherwise the natural content size is
// wrapped in padding, border and margin.
func measureOuter(n *Node, availW, availH int) (int, int) {
	m := ResolveBox(&n.Style)
	eh, ev := m.EdgeSum()

	var w, h int
	if !n.Style.Width.IsAuto() {
		w = n.Style.Width.Resolve(availW, 0)
	} else {
		cw, _ := measureContent(n, availW-eh, availH-ev)
		w = cw + eh
	}
	if !n.Style.Height.IsAuto() {
		h = n.Style.Height.Resolve(availH, 0)
	} else {
		_, ch := measureContent(n, w-eh, availH-ev)
		h = ch + ev
	}

	if w < n.Style.MinWidth {
		w = n.Style.MinWidth
	}
	if h < n.Style.MinHeight {
		h = n.Style.MinHeight
	}
	return w + m.Margin.Horizontal(), h + m.Margin.Vertical()
}

// measureContent returns a node's natural content size.
func measureContent(n *Node, availW, availH int) (int, int) {
	switch n.Kind {
	case NodeText, NodeInput:
		return measureText(n.Text)
	}

	var flow []*Node
	for _, c := range n.children {
		switch c.Style.Position {
		case PositionAbsolute, PositionFixed:
		default:
			flow = append(flow, c)
		}
	}
	if len(flow) == 0 {
		return 0, 0
	}

	if n.Style.Layout == LayoutGrid {
		return measureGridContent(n, flow, availW, availH)
	}

	gap := n.Style.Gap
	horizontal := n.Style.Direction.horizontal()
	var main, cross int
	for i, c := range flow {
		cw, ch := measureOuter(c, availW, availH)
		m, x := cw, ch
		if !horizontal {
			m, x = ch, cw
		}
		main += m
		if i > 0 {
			main += gap
		}
		if x > cross {
			cross = x
		}
	}
	if horizontal {
		return main, cross
	}
	return cross, main
}

// measureGridContent estimates a grid container's natural size: fixed
// tracks take their size, auto and fr tracks the largest auto-flowed item.
func measureGridContent(n *Node, flow []*Node, availW, availH int) (int, int) {
	cols := n.Style.Columns
	if len(cols) == 0 {
		cols = []Track{Fr(1)}
	}
	var maxW, maxH int
	for _, c := range flow {
		cw, ch := measureOuter(c, availW, availH)
		if cw > maxW {
			maxW = cw
		}
		if ch > maxH {
			maxH = ch
		}
	}
	width := 0
	for i, tr := range cols {
		if tr.Kind == TrackFixed {
			width += tr.Value
		} else {
			width += maxW
		}
		if i > 0 {
			width += n.Style.Gap
		}
	}
	rows := (len(flow) + len(cols) - 1) / len(cols)
	height := 0
	for i := 0; i < rows; i++ {
		if i < len(n.Style.Rows) && n.Style.Rows[i].Kind == TrackFixed {
			height += n.Style.Rows[i].Value
		} else {
			height += maxH
		}
		if i > 0 {
			height += n.Style.Gap
		}
	}
	return width, height
}

// measureText returns the visible width of the longest line and the line
// count. ANSI sequences are ignored and wide runes count two columns.
func measureText(s string) (int, int) {
	if s == "" {
		return 0, 1
	}
	lines := strings.Split(s, "\n")
	w := 0
	for _, line := range lines {
		if lw := VisibleWidth(line); lw > w {
			w = lw
		}
	}
	return w, len(lines)
}
