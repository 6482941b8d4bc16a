package loom

import "fmt"

// NodeID identifies a node within a Tree. IDs are never reused.
type NodeID int32

// NodeKind is the closed set of node variants.
type NodeKind uint8

const (
	NodeBox   NodeKind = iota // generic container
	NodeText                  // text content leaf
	NodeInput                 // interactive control (receives keys while focused)
)

func (k NodeKind) String() string {
	switch k {
	case NodeBox:
		return "box"
	case NodeText:
		return "text"
	case NodeInput:
		return "input"
	}
	return fmt.Sprintf("kind(%d)", k)
}

// LayoutMode selects which engine lays out a container's children.
type LayoutMode uint8

const (
	LayoutFlex LayoutMode = iota
	LayoutGrid
)

// NodeStyle is the resolved style of a node: inline values merged over the
// per-kind defaults (see ApplyDefaults).
type NodeStyle struct {
	// Box model
	Width, Height       Dim
	MinWidth, MinHeight int
	Margin, Padding     Edges

	// Positioning
	Position PositionMode
	Offsets  Offsets
	ZIndex   int
	Stacking bool // establishes a new stacking context

	// Border
	Border      bool
	BorderKind  BorderKind
	BorderSides BorderSides // zero value means all sides
	BorderFG    Color

	// Paint
	FG, BG Color
	Attr   Attribute

	// Flex container options
	Layout    LayoutMode
	Direction FlexDirection
	Wrap      FlexWrap
	Justify   Justify
	Align     Align
	Gap       int

	// Grid container and item options
	Columns, Rows []Track
	ColSpan       string // "start / end" explicit column placement
	RowSpan       string // "start / end" explicit row placement

	// Scroll viewport
	Scroll           bool
	ScrollX, ScrollY int
}

// Bounds are the rectangles computed for a node by the last layout pass.
type Bounds struct {
	Outer   Rect // margin box position, border box size
	Border  Rect // border box
	Content Rect // inside border and padding
}

// Node is one element of the retained tree. The parent owns its children;
// children keep a non-owning back-reference that is reassigned on attach.
type Node struct {
	ID    NodeID
	Kind  NodeKind
	Style NodeStyle
	Text  string

	// Interactive state
	Focusable bool
	Disabled  bool
	TabIndex  int // 0 = undeclared; positive values order the tab sequence
	Overlay   bool

	// Handlers supplied by the authoring layer.
	OnKey   KeyHandler
	OnClick MouseHandler
	OnFocus FocusHandler

	parent   *Node
	children []*Node

	bounds  Bounds
	laidOut bool
}

// Parent returns the node's parent, nil for the root or a detached node.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the node's children in document order.
// The returned slice must not be mutated.
func (n *Node) Children() []*Node { return n.children }

// Bounds returns the rectangles computed by the last layout pass.
// Calling it before the node has been laid out is a sequencing bug in the
// caller, so it panics rather than returning stale data.
func (n *Node) Bounds() Bounds {
	if !n.laidOut {
		panic(fmt.Sprintf("loom: bounds of node %d queried before layout", n.ID))
	}
	return n.bounds
}

// LaidOut reports whether the node has valid bounds.
func (n *Node) LaidOut() bool { return n.laidOut }

func (n *Node) setBounds(b Bounds) {
	n.bounds = b
	n.laidOut = true
}

// invalidate clears computed bounds for the subtree.
func (n *Node) invalidate() {
	n.laidOut = false
	for _, c := range n.children {
		c.invalidate()
	}
}

// Tree is the retained node tree mutated through the patch API. All
// mutations mark the tree dirty; the scheduler picks that up and runs a
// render pass.
type Tree struct {
	root   *Node
	nodes  map[NodeID]*Node
	nextID NodeID
	dirty  bool

	// onDetach is called for every node removed from the tree, so the
	// session can release focus held by a removed node.
	onDetach func(*Node)
}

// NewTree creates a tree with an empty root box.
func NewTree() *Tree {
	t := &Tree{
		nodes:  make(map[NodeID]*Node),
		nextID: 1,
	}
	t.root = t.alloc(NodeBox)
	return t
}

func (t *Tree) alloc(kind NodeKind) *Node {
	n := &Node{ID: t.nextID, Kind: kind}
	t.nextID++
	t.nodes[n.ID] = n
	return n
}

// Root returns the tree root.
func (t *Tree) Root() *Node { return t.root }

// Get returns the node with the given id, nil if absent.
func (t *Tree) Get(id NodeID) *Node { return t.nodes[id] }

// Len returns the number of live nodes including the root.
func (t *Tree) Len() int { return len(t.nodes) }

// Dirty reports whether the tree has been mutated since the last render.
func (t *Tree) Dirty() bool { return t.dirty }

// ClearDirty resets the mutation flag. Called by the scheduler after a pass.
func (t *Tree) ClearDirty() { t.dirty = false }

// MarkDirty flags the tree as needing layout (for content-only mutations
// done directly on a Node).
func (t *Tree) MarkDirty() { t.dirty = true }

// OnDetach registers a hook called for every node removed from the tree.
// Hooks chain: registering a second hook keeps the first one running.
func (t *Tree) OnDetach(fn func(*Node)) {
	prev := t.onDetach
	t.onDetach = func(n *Node) {
		if prev != nil {
			prev(n)
		}
		fn(n)
	}
}

// Create allocates a node of the given kind and appends it to parent.
// A nil parent attaches to the root.
func (t *Tree) Create(parent *Node, kind NodeKind) *Node {
	if parent == nil {
		parent = t.root
	}
	n := t.alloc(kind)
	t.attach(parent, n, len(parent.children))
	t.dirty = true
	return n
}

// Insert places child under parent at the given index, detaching it from
// any previous parent first. Index is clamped.
func (t *Tree) Insert(parent, child *Node, index int) error {
	if child == t.root {
		return fmt.Errorf("loom: cannot reparent the root node")
	}
	for a := parent; a != nil; a = a.parent {
		if a == child {
			return fmt.Errorf("loom: inserting node %d under its own descendant %d", child.ID, parent.ID)
		}
	}
	t.detach(child)
	t.attach(parent, child, index)
	t.dirty = true
	return nil
}

// Append places child as parent's last child.
func (t *Tree) Append(parent, child *Node) error {
	return t.Insert(parent, child, len(parent.children))
}

// Move repositions a node among its siblings.
func (t *Tree) Move(child *Node, index int) error {
	if child.parent == nil {
		return fmt.Errorf("loom: moving detached node %d", child.ID)
	}
	parent := child.parent
	t.detach(child)
	t.attach(parent, child, index)
	t.dirty = true
	return nil
}

// Remove detaches the node and unregisters its whole subtree. Focus cleanup
// runs through the detach hook before the nodes become unreachable.
func (t *Tree) Remove(child *Node) error {
	if child == t.root {
		return fmt.Errorf("loom: cannot remove the root node")
	}
	t.detach(child)
	t.release(child)
	t.dirty = true
	return nil
}

func (t *Tree) attach(parent, child *Node, index int) {
	if index < 0 {
		index = 0
	}
	if index > len(parent.children) {
		index = len(parent.children)
	}
	parent.children = append(parent.children, nil)
	copy(parent.children[index+1:], parent.children[index:])
	parent.children[index] = child
	child.parent = parent
	child.invalidate()
}

func (t *Tree) detach(child *Node) {
	p := child.parent
	if p == nil {
		return
	}
	for i, c := range p.children {
		if c == child {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	child.parent = nil
}

func (t *Tree) release(n *Node) {
	if t.onDetach != nil {
		t.onDetach(n)
	}
	delete(t.nodes, n.ID)
	for _, c := range n.children {
		t.release(c)
	}
}

// Walk visits the subtree rooted at n in document order (pre-order).
// Returning false from fn stops the walk.
func (t *Tree) Walk(n *Node, fn func(*Node) bool) bool {
	if n == nil {
		n = t.root
	}
	if !fn(n) {
		return false
	}
	for _, c := range n.children {
		if !t.Walk(c, fn) {
			return false
		}
	}
	return true
}

// OverlayCount returns the number of overlay nodes currently attached.
func (t *Tree) OverlayCount() int {
	count := 0
	t.Walk(nil, func(n *Node) bool {
		if n.Overlay {
			count++
		}
		return true
	})
	return count
}
