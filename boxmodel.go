package loom

import (
	"fmt"
	"strconv"
	"strings"
)

// Rect is an axis-aligned rectangle in cell coordinates.
type Rect struct {
	X, Y int
	W, H int
}

// Contains reports whether the point lies inside the rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Intersect returns the overlap of two rectangles (zero-size if disjoint).
func (r Rect) Intersect(o Rect) Rect {
	x1 := max(r.X, o.X)
	y1 := max(r.Y, o.Y)
	x2 := min(r.X+r.W, o.X+o.W)
	y2 := min(r.Y+r.H, o.Y+o.H)
	if x2 <= x1 || y2 <= y1 {
		return Rect{}
	}
	return Rect{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Inset shrinks the rectangle by the given edge widths.
func (r Rect) Inset(e Edges) Rect {
	return Rect{
		X: r.X + e.Left,
		Y: r.Y + e.Top,
		W: max(0, r.W-e.Left-e.Right),
		H: max(0, r.H-e.Top-e.Bottom),
	}
}

// Edges holds per-side widths for margin, border or padding.
type Edges struct {
	Top, Right, Bottom, Left int
}

// Uniform returns edges with the same width on all four sides.
func Uniform(n int) Edges {
	return Edges{Top: n, Right: n, Bottom: n, Left: n}
}

// Horizontal returns the combined left+right width.
func (e Edges) Horizontal() int { return e.Left + e.Right }

// Vertical returns the combined top+bottom width.
func (e Edges) Vertical() int { return e.Top + e.Bottom }

// DimKind selects how a Dim value is interpreted.
type DimKind uint8

const (
	DimAuto    DimKind = iota // size from content / layout
	DimCells                  // fixed number of cells
	DimPercent                // percentage of the reference dimension
	DimChars                  // character count ("12ch"); same as cells once resolved
)

// Dim is a dimension value: auto, a fixed cell count, a percentage, or a
// character count.
type Dim struct {
	Kind  DimKind
	Value int
}

// Auto returns an automatic dimension.
func Auto() Dim { return Dim{Kind: DimAuto} }

// Cells returns a fixed dimension of n cells.
func Cells(n int) Dim { return Dim{Kind: DimCells, Value: n} }

// Percent returns a dimension of n percent of the reference.
func Percent(n int) Dim { return Dim{Kind: DimPercent, Value: n} }

// Chars returns a dimension of n character cells.
func Chars(n int) Dim { return Dim{Kind: DimChars, Value: n} }

// IsAuto reports whether the dimension is automatic.
func (d Dim) IsAuto() bool { return d.Kind == DimAuto }

// ParseDim parses a dimension specification: an integer, "N%", "Nch" or
// "auto".
func ParseDim(spec string) (Dim, error) {
	spec = strings.TrimSpace(spec)
	switch {
	case spec == "" || spec == "auto":
		return Auto(), nil
	case strings.HasSuffix(spec, "%"):
		n, err := strconv.Atoi(strings.TrimSuffix(spec, "%"))
		if err != nil {
			return Dim{}, fmt.Errorf("parse dimension %q: %w", spec, err)
		}
		return Percent(n), nil
	case strings.HasSuffix(spec, "ch"):
		n, err := strconv.Atoi(strings.TrimSuffix(spec, "ch"))
		if err != nil {
			return Dim{}, fmt.Errorf("parse dimension %q: %w", spec, err)
		}
		return Chars(n), nil
	default:
		n, err := strconv.Atoi(spec)
		if err != nil {
			return Dim{}, fmt.Errorf("parse dimension %q: %w", spec, err)
		}
		return Cells(n), nil
	}
}

// Resolve converts the dimension to a cell count against a reference
// dimension. Percentages truncate toward zero. Auto resolves to fallback.
func (d Dim) Resolve(reference, fallback int) int {
	switch d.Kind {
	case DimCells, DimChars:
		return d.Value
	case DimPercent:
		return reference * d.Value / 100
	default:
		return fallback
	}
}

// PositionMode selects which positioning algorithm places a node.
type PositionMode uint8

const (
	PositionStatic   PositionMode = iota // normal flow
	PositionRelative                     // flow position plus offsets
	PositionAbsolute                     // offsets from the containing block
	PositionFixed                        // offsets from the terminal origin
	PositionSticky                       // treated as relative (no pinning)
)

// Offsets holds the optional left/top/right/bottom positioning offsets.
// A nil entry means the offset is unset.
type Offsets struct {
	Left, Top, Right, Bottom *int
}

// Offset is a convenience for building *int offset values.
func Offset(n int) *int { return &n }

// ResolvePosition applies the positioning algorithm for the mode.
//
// flowX/flowY is the node's normal-flow position. container is the
// containing block (content box of the positioned ancestor), viewport the
// terminal rectangle, and w/h the node's resolved outer size.
//
// relative/sticky: left/top push the node right/down, right/bottom pull it
// left/up; per axis left and top win when both offsets are given.
// absolute: offsets are measured from the container's edges, with
// right/bottom computed as containerEdge - size - offset.
// fixed: like absolute but against the viewport.
func ResolvePosition(mode PositionMode, off Offsets, flowX, flowY int, container, viewport Rect, w, h int) (int, int) {
	switch mode {
	case PositionRelative, PositionSticky:
		x, y := flowX, flowY
		if off.Left != nil {
			x += *off.Left
		} else if off.Right != nil {
			x -= *off.Right
		}
		if off.Top != nil {
			y += *off.Top
		} else if off.Bottom != nil {
			y -= *off.Bottom
		}
		return x, y

	case PositionAbsolute:
		return resolveBoxOffsets(off, container, w, h)

	case PositionFixed:
		return resolveBoxOffsets(off, viewport, w, h)

	default: // static
		return flowX, flowY
	}
}

// resolveBoxOffsets positions a box inside a reference rectangle using
// absolute-positioning offset rules.
func resolveBoxOffsets(off Offsets, ref Rect, w, h int) (int, int) {
	x, y := ref.X, ref.Y
	if off.Left != nil {
		x = ref.X + *off.Left
	} else if off.Right != nil {
		x = ref.X + ref.W - w - *off.Right
	}
	if off.Top != nil {
		y = ref.Y + *off.Top
	} else if off.Bottom != nil {
		y = ref.Y + ref.H - h - *off.Bottom
	}
	return x, y
}

// BoxMetrics is the resolved margin/border/padding of a node.
type BoxMetrics struct {
	Margin  Edges
	Border  Edges
	Padding Edges
}

// ResolveBox computes the box metrics for a node style. Border edges are
// width 1 on each visible side when a border is enabled.
func ResolveBox(s *NodeStyle) BoxMetrics {
	m := BoxMetrics{
		Margin:  s.Margin,
		Padding: s.Padding,
	}
	if s.Border {
		sides := s.BorderSides
		if sides == 0 {
			sides = SidesAll
		}
		if sides.Has(SideTop) {
			m.Border.Top = 1
		}
		if sides.Has(SideRight) {
			m.Border.Right = 1
		}
		if sides.Has(SideBottom) {
			m.Border.Bottom = 1
		}
		if sides.Has(SideLeft) {
			m.Border.Left = 1
		}
	}
	return m
}

// EdgeSum returns the total horizontal and vertical space consumed by
// border plus padding (the distance from border box to content box).
func (m BoxMetrics) EdgeSum() (horizontal, vertical int) {
	return m.Border.Horizontal() + m.Padding.Horizontal(),
		m.Border.Vertical() + m.Padding.Vertical()
}
