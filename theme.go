package loom

// Theme carries the per-session visual defaults applied outside of any
// single node's style.
type Theme struct {
	// FocusBorderFG recolors the border of the focused node. A default
	// color disables the highlight.
	FocusBorderFG Color

	// InputBorderKind is the border drawn on input nodes that did not
	// choose one.
	InputBorderKind BorderKind
}

// DefaultTheme returns the stock theme: cyan focus borders, single-line
// input borders.
func DefaultTheme() Theme {
	return Theme{
		FocusBorderFG:   NamedColor(ColorCyan),
		InputBorderKind: BorderSingle,
	}
}

// ApplyDefaults fills in the per-kind defaults a freshly created node
// starts from. Called once at creation, before the authoring layer sets
// inline style, so explicit choices always win.
func ApplyDefaults(n *Node, th Theme) {
	switch n.Kind {
	case NodeInput:
		n.Focusable = true
		if !n.Style.Border {
			n.Style.Border = true
			n.Style.BorderKind = th.InputBorderKind
		}
	}
}
