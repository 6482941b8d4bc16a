package loom

import "fmt"

// Key identifies a decoded keyboard key.
type Key uint8

const (
	KeyNone Key = iota
	KeyRune     // printable character, see Event.Rune
	KeyEnter
	KeyTab
	KeyBacktab // Shift+Tab
	KeyBackspace
	KeyEscape
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyDelete
	KeyInsert
)

var keyNames = map[Key]string{
	KeyNone:      "none",
	KeyRune:      "rune",
	KeyEnter:     "enter",
	KeyTab:       "tab",
	KeyBacktab:   "backtab",
	KeyBackspace: "backspace",
	KeyEscape:    "escape",
	KeyUp:        "up",
	KeyDown:      "down",
	KeyLeft:      "left",
	KeyRight:     "right",
	KeyHome:      "home",
	KeyEnd:       "end",
	KeyPageUp:    "pageup",
	KeyPageDown:  "pagedown",
	KeyDelete:    "delete",
	KeyInsert:    "insert",
}

func (k Key) String() string {
	if s, ok := keyNames[k]; ok {
		return s
	}
	return fmt.Sprintf("key(%d)", k)
}

// Modifier is a bitmask of modifier keys held during an event.
type Modifier uint8

const (
	ModShift Modifier = 1 << iota
	ModAlt
	ModCtrl
)

// Has reports whether all bits in mask are set.
func (m Modifier) Has(mask Modifier) bool {
	return m&mask == mask
}

// MouseButton identifies the button involved in a mouse event.
type MouseButton uint8

const (
	MouseNone MouseButton = iota
	MouseLeft
	MouseMiddle
	MouseRight
	MouseWheelUp
	MouseWheelDown
)

// MouseAction distinguishes press, release, motion and drag.
type MouseAction uint8

const (
	MousePress MouseAction = iota
	MouseRelease
	MouseMove
	MouseDrag
)

// KeyEvent is a decoded keyboard event.
type KeyEvent struct {
	Key  Key
	Rune rune // valid when Key == KeyRune
	Mods Modifier
}

// MouseEvent is a decoded mouse event in 0-indexed screen coordinates.
type MouseEvent struct {
	X, Y   int
	Button MouseButton
	Action MouseAction
	Mods   Modifier
}

// KeyHandler handles a key event routed to a node. Returning an error
// reports it on the session's error channel without stopping the loop.
type KeyHandler func(KeyEvent) error

// MouseHandler handles a mouse event that hit-tested to a node.
type MouseHandler func(MouseEvent) error

// FocusHandler is called when a node gains or loses focus.
type FocusHandler func(focused bool) error

// ErrorPhase categorizes where a runtime error originated.
type ErrorPhase uint8

const (
	PhaseRender ErrorPhase = iota
	PhaseInput
)

func (p ErrorPhase) String() string {
	switch p {
	case PhaseRender:
		return "render"
	case PhaseInput:
		return "input"
	}
	return fmt.Sprintf("phase(%d)", p)
}

// RuntimeError wraps an error raised by a node callback or queued update,
// tagged with the phase it occurred in and the node involved (0 when no
// single node is responsible).
type RuntimeError struct {
	Phase ErrorPhase
	Node  NodeID
	Err   error
}

func (e RuntimeError) Error() string {
	if e.Node != 0 {
		return fmt.Sprintf("%s error on node %d: %v", e.Phase, e.Node, e.Err)
	}
	return fmt.Sprintf("%s error: %v", e.Phase, e.Err)
}

func (e RuntimeError) Unwrap() error { return e.Err }
