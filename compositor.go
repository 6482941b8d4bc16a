package loom

import (
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"
)

// FocusRegistry maps focusable node ids to their last-rendered screen
// bounds. Rendered bounds differ from layout bounds inside scroll
// viewports, so hit-testing and focus navigation use this registry rather
// than Node.Bounds.
type FocusRegistry struct {
	entries map[NodeID]registryEntry
}

type registryEntry struct {
	rect Rect
	z    int
	seq  int // insertion order, breaks z ties (later paints win)
}

// NewFocusRegistry creates an empty registry.
func NewFocusRegistry() *FocusRegistry {
	return &FocusRegistry{entries: make(map[NodeID]registryEntry)}
}

// Reset clears all entries. Called at the start of every composite pass.
func (r *FocusRegistry) Reset() {
	clear(r.entries)
}

// Put records the rendered bounds of a focusable node.
func (r *FocusRegistry) Put(id NodeID, rect Rect, z int) {
	r.entries[id] = registryEntry{rect: rect, z: z, seq: len(r.entries)}
}

// Get returns the rendered bounds of a node.
func (r *FocusRegistry) Get(id NodeID) (Rect, bool) {
	e, ok := r.entries[id]
	return e.rect, ok
}

// HitTest returns the topmost focusable node whose rendered bounds contain
// the point, or 0 when nothing was hit.
func (r *FocusRegistry) HitTest(x, y int) NodeID {
	var best NodeID
	bestZ, bestSeq := -1<<31, -1
	for id, e := range r.entries {
		if !e.rect.Contains(x, y) {
			continue
		}
		if e.z > bestZ || (e.z == bestZ && e.seq > bestSeq) {
			best, bestZ, bestSeq = id, e.z, e.seq
		}
	}
	return best
}

// Layer is a full-size grid of cells painted by one stacking context.
// Unpainted cells stay transparent and let lower layers show through.
type Layer struct {
	ID int32
	Z  int

	buf     *Buffer
	painted []bool
	key     []int // ancestor chain of (z, creation order) pairs
}

func newLayer(id int32, z, width, height int) *Layer {
	return &Layer{
		ID:      id,
		Z:       z,
		buf:     NewBuffer(width, height),
		painted: make([]bool, width*height),
	}
}

// Set paints a cell, dropping it when outside the clip rectangle.
func (l *Layer) Set(x, y int, c Cell, clip Rect) {
	if !clip.Contains(x, y) || !l.buf.InBounds(x, y) {
		return
	}
	l.buf.Set(x, y, c)
	l.painted[y*l.buf.Width()+x] = true
}

// fillRect fills a clipped rectangle.
func (l *Layer) fillRect(r Rect, c Cell, clip Rect) {
	for y := r.Y; y < r.Y+r.H; y++ {
		for x := r.X; x < r.X+r.W; x++ {
			l.Set(x, y, c, clip)
		}
	}
}

// writeString writes a clipped styled string, handling wide runes.
func (l *Layer) writeString(x, y int, s string, base Cell, clip Rect) {
	for _, r := range s {
		rw := runewidth.RuneWidth(r)
		if rw == 0 {
			continue
		}
		c := base
		c.Rune = r
		l.Set(x, y, c, clip)
		if rw == 2 {
			p := base
			p.Rune = 0
			l.Set(x+1, y, p, clip)
		}
		x += rw
	}
}

// drawBorder draws a clipped border rectangle on the layer.
func (l *Layer) drawBorder(r Rect, kind BorderKind, sides BorderSides, base Cell, clip Rect) {
	if r.W < 2 || r.H < 2 {
		return
	}
	ch := kind.Chars()
	set := func(x, y int, g rune) {
		c := base
		c.Rune = g
		l.Set(x, y, c, clip)
	}

	if sides.Has(SideTop) {
		for i := 1; i < r.W-1; i++ {
			set(r.X+i, r.Y, ch.Horizontal)
		}
	}
	if sides.Has(SideBottom) {
		for i := 1; i < r.W-1; i++ {
			set(r.X+i, r.Y+r.H-1, ch.Horizontal)
		}
	}
	if sides.Has(SideLeft) {
		for i := 1; i < r.H-1; i++ {
			set(r.X, r.Y+i, ch.Vertical)
		}
	}
	if sides.Has(SideRight) {
		for i := 1; i < r.H-1; i++ {
			set(r.X+r.W-1, r.Y+i, ch.Vertical)
		}
	}
	if sides.Has(SideTop) && sides.Has(SideLeft) {
		set(r.X, r.Y, ch.TopLeft)
	}
	if sides.Has(SideTop) && sides.Has(SideRight) {
		set(r.X+r.W-1, r.Y, ch.TopRight)
	}
	if sides.Has(SideBottom) && sides.Has(SideLeft) {
		set(r.X, r.Y+r.H-1, ch.BottomLeft)
	}
	if sides.Has(SideBottom) && sides.Has(SideRight) {
		set(r.X+r.W-1, r.Y+r.H-1, ch.BottomRight)
	}
}

// Compositor paints a laid-out tree into z-ordered layers and merges them
// into a destination buffer.
type Compositor struct {
	registry *FocusRegistry

	// Focused recolors that node's border with FocusFG, making keyboard
	// focus visible. Set before each Composite call.
	Focused NodeID
	FocusFG Color

	layers []*Layer
	nextID int32
	width  int
	height int
}

// NewCompositor creates a compositor reporting rendered bounds into the
// given registry.
func NewCompositor(registry *FocusRegistry) *Compositor {
	return &Compositor{registry: registry}
}

// Composite paints the tree into dst. The tree must have been laid out.
func (c *Compositor) Composite(t *Tree, dst *Buffer) {
	c.width = dst.Width()
	c.height = dst.Height()
	c.layers = c.layers[:0]
	c.nextID = 1
	c.registry.Reset()

	screen := Rect{W: c.width, H: c.height}
	base := c.newContext(nil, 0)
	c.paintNode(base, t.Root(), 0, 0, screen)

	// Layers order by their ancestor chain of (z, creation order) pairs,
	// compared lexicographically. A context's whole subtree carries its
	// parent's position as a key prefix, so a nested context can never
	// escape the context that contains it.
	sort.SliceStable(c.layers, func(i, j int) bool {
		return layerKeyLess(c.layers[i].key, c.layers[j].key)
	})
	for _, l := range c.layers {
		w := l.buf.Width()
		for y := 0; y < c.height; y++ {
			for x := 0; x < c.width; x++ {
				if l.painted[y*w+x] {
					dst.SetRaw(x, y, l.buf.Get(x, y))
				}
			}
		}
	}
}

func (c *Compositor) newContext(parent *Layer, z int) *Layer {
	l := newLayer(c.nextID, z, c.width, c.height)
	c.nextID++
	if parent != nil {
		l.key = append(append(make([]int, 0, len(parent.key)+2), parent.key...), z, len(c.layers))
	}
	c.layers = append(c.layers, l)
	return l
}

// layerKeyLess compares layer keys lexicographically. A parent's key is a
// prefix of its children's keys and sorts first, so children paint over it.
func layerKeyLess(a, b []int) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// paintNode paints one node and its subtree. dx/dy is the accumulated
// scroll offset and clip the accumulated viewport rectangle.
func (c *Compositor) paintNode(l *Layer, n *Node, dx, dy int, clip Rect) {
	b := n.Bounds()
	borderRect := Rect{X: b.Border.X + dx, Y: b.Border.Y + dy, W: b.Border.W, H: b.Border.H}
	contentRect := Rect{X: b.Content.X + dx, Y: b.Content.Y + dy, W: b.Content.W, H: b.Content.H}

	base := Cell{
		Rune:  ' ',
		Style: Style{FG: n.Style.FG, BG: n.Style.BG, Attr: n.Style.Attr},
		Node:  n.ID,
		Layer: l.ID,
		Z:     int32(n.Style.ZIndex),
	}

	if n.Style.BG.Mode != ColorDefault {
		l.fillRect(borderRect, base, clip)
	}

	if n.Style.Border {
		sides := n.Style.BorderSides
		if sides == 0 {
			sides = SidesAll
		}
		bc := base
		if n.Style.BorderFG.Mode != ColorDefault {
			bc.Style.FG = n.Style.BorderFG
		}
		if n.ID == c.Focused && c.FocusFG.Mode != ColorDefault {
			bc.Style.FG = c.FocusFG
		}
		l.drawBorder(borderRect, n.Style.BorderKind, sides, bc, clip)
	}

	if n.Text != "" {
		for i, line := range strings.Split(n.Text, "\n") {
			if i >= contentRect.H {
				break
			}
			l.writeString(contentRect.X, contentRect.Y+i, line, base, clip.Intersect(contentRect))
		}
	}

	if n.Focusable {
		if eff := borderRect.Intersect(clip); !eff.Empty() {
			c.registry.Put(n.ID, eff, l.Z)
		}
	}

	childDx, childDy := dx, dy
	childClip := clip
	if n.Style.Scroll {
		childDx -= n.Style.ScrollX
		childDy -= n.Style.ScrollY
		childClip = clip.Intersect(contentRect)
		if childClip.Empty() {
			return
		}
	}

	// Paint children in ascending z-index, document order breaking ties.
	// A child that establishes its own stacking context is painted as an
	// atomic unit into a fresh layer ordered by the child's z-index.
	order := make([]*Node, len(n.children))
	copy(order, n.children)
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].Style.ZIndex < order[j].Style.ZIndex
	})
	for _, child := range order {
		target := l
		if child.Style.Stacking || child.Overlay {
			target = c.newContext(l, child.Style.ZIndex)
		}
		c.paintNode(target, child, childDx, childDy, childClip)
	}
}
