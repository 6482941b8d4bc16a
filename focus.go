package loom

import "sort"

// FocusManager tracks which node owns keyboard input and moves focus in
// response to Tab, Shift+Tab, arrow keys and mouse clicks. The traversal
// order is rebuilt from the tree on every render pass, so nodes created or
// removed between keystrokes are picked up automatically.
type FocusManager struct {
	tree     *Tree
	registry *FocusRegistry

	focused NodeID
	order   []NodeID

	// ArrowNav lets arrow keys move focus like Tab/Backtab. Suppressed
	// while an input node is focused so it can consume cursor movement.
	ArrowNav bool

	overlayDepth int
	savedFocus   []NodeID
}

// NewFocusManager creates a manager for the given tree. The registry
// supplies rendered bounds for mouse hit-testing and may be nil when mouse
// input is not used.
func NewFocusManager(t *Tree, registry *FocusRegistry) *FocusManager {
	fm := &FocusManager{tree: t, registry: registry}
	t.OnDetach(func(n *Node) {
		if n.ID == fm.focused {
			fm.focused = 0
		}
	})
	return fm
}

// Focused returns the id of the focused node, or 0 when nothing is focused.
func (fm *FocusManager) Focused() NodeID {
	return fm.focused
}

// FocusedNode returns the focused node, or nil.
func (fm *FocusManager) FocusedNode() *Node {
	if fm.focused == 0 {
		return nil
	}
	return fm.tree.Get(fm.focused)
}

// Rebuild recomputes the traversal order from the current tree. Nodes with
// a positive TabIndex come first in ascending TabIndex, document order
// breaking ties; the rest follow in document order. A focused node that is
// gone or no longer eligible loses focus.
func (fm *FocusManager) Rebuild() {
	fm.order = fm.order[:0]

	type entry struct {
		id  NodeID
		tab int
		doc int
	}
	var entries []entry
	doc := 0
	fm.tree.Walk(nil, func(n *Node) bool {
		doc++
		if n.Focusable && !n.Disabled {
			entries = append(entries, entry{id: n.ID, tab: n.TabIndex, doc: doc})
		}
		return true
	})

	sort.SliceStable(entries, func(i, j int) bool {
		ti, tj := entries[i].tab, entries[j].tab
		if ti > 0 && tj > 0 {
			return ti < tj
		}
		if ti > 0 || tj > 0 {
			return ti > 0
		}
		return entries[i].doc < entries[j].doc
	})

	for _, e := range entries {
		fm.order = append(fm.order, e.id)
	}

	if fm.focused != 0 && fm.indexOf(fm.focused) < 0 {
		fm.focused = 0
	}
}

func (fm *FocusManager) indexOf(id NodeID) int {
	for i, o := range fm.order {
		if o == id {
			return i
		}
	}
	return -1
}

// Focus moves focus to the given node, firing blur and focus handlers. A
// zero id blurs without focusing anything. Handler errors are returned but
// the focus change itself always takes effect.
func (fm *FocusManager) Focus(id NodeID) error {
	if id == fm.focused {
		return nil
	}

	var err error
	if old := fm.FocusedNode(); old != nil && old.OnFocus != nil {
		if e := old.OnFocus(false); e != nil {
			err = &RuntimeError{Phase: PhaseInput, Node: old.ID, Err: e}
		}
	}
	fm.focused = id
	if next := fm.FocusedNode(); next != nil && next.OnFocus != nil {
		if e := next.OnFocus(true); e != nil && err == nil {
			err = &RuntimeError{Phase: PhaseInput, Node: next.ID, Err: e}
		}
	}
	return err
}

// Blur removes focus from the current node.
func (fm *FocusManager) Blur() error {
	return fm.Focus(0)
}

// Next moves focus to the following node in traversal order, wrapping
// around at the end. With nothing focused it picks the first node.
func (fm *FocusManager) Next() error {
	if len(fm.order) == 0 {
		return nil
	}
	idx := fm.indexOf(fm.focused)
	return fm.Focus(fm.order[(idx+1)%len(fm.order)])
}

// Prev moves focus to the preceding node, wrapping around at the start.
func (fm *FocusManager) Prev() error {
	if len(fm.order) == 0 {
		return nil
	}
	idx := fm.indexOf(fm.focused)
	if idx < 0 {
		idx = 0
	}
	return fm.Focus(fm.order[(idx-1+len(fm.order))%len(fm.order)])
}

// HandleKey applies focus navigation keys. Returns true when the key moved
// focus and should not be delivered to the focused node.
func (fm *FocusManager) HandleKey(ev KeyEvent) (bool, error) {
	switch ev.Key {
	case KeyTab:
		return true, fm.Next()
	case KeyBacktab:
		return true, fm.Prev()
	case KeyUp, KeyLeft:
		if fm.arrowNavActive() {
			return true, fm.Prev()
		}
	case KeyDown, KeyRight:
		if fm.arrowNavActive() {
			return true, fm.Next()
		}
	}
	return false, nil
}

// arrowNavActive reports whether arrow keys currently move focus. Input
// nodes keep their arrows.
func (fm *FocusManager) arrowNavActive() bool {
	if !fm.ArrowNav {
		return false
	}
	if n := fm.FocusedNode(); n != nil && n.Kind == NodeInput {
		return false
	}
	return true
}

// HitTest finds the topmost focusable node under a screen coordinate using
// last-rendered bounds, or 0 when nothing was hit.
func (fm *FocusManager) HitTest(x, y int) NodeID {
	if fm.registry == nil {
		return 0
	}
	return fm.registry.HitTest(x, y)
}

// SyncOverlays reconciles focus with the current overlay count. Opening an
// overlay saves the focus so it can be restored when the overlay closes;
// restoration is skipped when the saved node has since been removed.
func (fm *FocusManager) SyncOverlays(count int) error {
	var err error
	for fm.overlayDepth < count {
		fm.savedFocus = append(fm.savedFocus, fm.focused)
		fm.overlayDepth++
	}
	for fm.overlayDepth > count {
		saved := NodeID(0)
		if len(fm.savedFocus) > 0 {
			saved = fm.savedFocus[len(fm.savedFocus)-1]
			fm.savedFocus = fm.savedFocus[:len(fm.savedFocus)-1]
		}
		fm.overlayDepth--
		if saved != 0 && fm.tree.Get(saved) != nil {
			if e := fm.Focus(saved); e != nil && err == nil {
				err = e
			}
		}
	}
	return err
}
