package loom

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

// escapeSettle is how long a lone ESC byte waits for sequence continuation
// bytes before it is delivered as the Escape key.
const escapeSettle = 10 * time.Millisecond

// App is a running terminal session: the node tree, the screen, focus
// handling and the event loop. One App owns the terminal from Run until
// the loop exits.
type App struct {
	Tree  *Tree
	Focus *FocusManager

	screen   *Screen
	registry *FocusRegistry
	comp     *Compositor
	sched    *Scheduler
	decoder  *InputDecoder
	theme    Theme
	log      zerolog.Logger

	input io.Reader

	// OnKey receives key events no node consumed. A nil handler leaves
	// only the built-in ctrl+c exit.
	OnKey KeyHandler

	quit     chan struct{}
	quitOnce sync.Once
}

// Option configures an App.
type Option func(*App)

// WithLogger sets the session logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(a *App) { a.log = log }
}

// WithTheme overrides the default theme.
func WithTheme(th Theme) Option {
	return func(a *App) { a.theme = th }
}

// WithInput overrides the input byte stream (default os.Stdin).
func WithInput(r io.Reader) Option {
	return func(a *App) { a.input = r }
}

// WithScreen supplies a prebuilt screen, used by tests to render into a
// fixed-size in-memory writer.
func WithScreen(s *Screen) Option {
	return func(a *App) { a.screen = s }
}

// NewApp assembles a session. The terminal is not touched until Run.
func NewApp(opts ...Option) (*App, error) {
	a := &App{
		Tree:    NewTree(),
		decoder: NewInputDecoder(),
		theme:   DefaultTheme(),
		log:     zerolog.Nop(),
		input:   os.Stdin,
		quit:    make(chan struct{}),
	}
	for _, o := range opts {
		o(a)
	}

	if a.screen == nil {
		s, err := NewScreen(nil)
		if err != nil {
			return nil, fmt.Errorf("open screen: %w", err)
		}
		a.screen = s
	}

	a.registry = NewFocusRegistry()
	a.comp = NewCompositor(a.registry)
	a.comp.FocusFG = a.theme.FocusBorderFG
	a.Focus = NewFocusManager(a.Tree, a.registry)
	a.sched = NewScheduler(a.Tree, a.screen, a.comp, a.Focus, a.log)
	return a, nil
}

// Errors returns the channel carrying runtime errors from node callbacks
// and queued updates. The loop keeps running; drain this to observe them.
func (a *App) Errors() <-chan error { return a.sched.Errors() }

// Screen returns the session's screen.
func (a *App) Screen() *Screen { return a.screen }

// Update enqueues a tree mutation for the next render pass. Safe from any
// goroutine and from inside callbacks.
func (a *App) Update(fn func() error) { a.sched.Update(fn) }

// Render requests a render pass without mutating the tree.
func (a *App) Render() { a.sched.Request() }

// Quit stops the event loop. Safe to call more than once.
func (a *App) Quit() {
	a.quitOnce.Do(func() { close(a.quit) })
}

// NewBox creates a box node under parent (nil for the root).
func (a *App) NewBox(parent *Node) *Node {
	n := a.Tree.Create(parent, NodeBox)
	ApplyDefaults(n, a.theme)
	return n
}

// NewText creates a text node with initial content.
func (a *App) NewText(parent *Node, text string) *Node {
	n := a.Tree.Create(parent, NodeText)
	ApplyDefaults(n, a.theme)
	n.Text = text
	return n
}

// NewInput creates an input node, focusable and bordered per the theme.
func (a *App) NewInput(parent *Node) *Node {
	n := a.Tree.Create(parent, NodeInput)
	ApplyDefaults(n, a.theme)
	return n
}

// Run takes over the terminal and blocks until Quit, SIGINT or SIGTERM.
// The terminal is restored before Run returns, error or not.
func (a *App) Run() error {
	if err := a.screen.EnterRawMode(); err != nil {
		return err
	}
	a.screen.EnableMouse()
	defer func() {
		a.sched.Stop()
		a.screen.ExitRawMode()
		a.screen.MoveCursorBelow()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	bytesCh := make(chan []byte, 8)
	go a.readInput(bytesCh)

	// First paint.
	a.sched.Request()

	var escTimer <-chan time.Time
	for {
		select {
		case <-a.quit:
			return nil
		case <-sigCh:
			return nil
		case <-a.sched.Wake():
			a.sched.RunPending()
		case sz := <-a.screen.ResizeChan():
			a.log.Debug().Int("w", sz.Width).Int("h", sz.Height).Msg("resize")
			a.sched.NoteResize()
		case data, ok := <-bytesCh:
			if !ok {
				return nil
			}
			for _, ev := range a.decoder.Feed(data) {
				a.dispatch(ev)
			}
			if a.decoder.Pending() > 0 {
				escTimer = time.After(escapeSettle)
			} else {
				escTimer = nil
			}
		case <-escTimer:
			escTimer = nil
			if ev, ok := a.decoder.FlushEscape(); ok {
				a.dispatch(ev)
			}
		}
	}
}

// readInput pumps raw bytes from the input stream into the loop.
func (a *App) readInput(out chan<- []byte) {
	buf := make([]byte, 256)
	for {
		n, err := a.input.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case out <- chunk:
			case <-a.quit:
				return
			}
		}
		if err != nil {
			close(out)
			return
		}
	}
}

// dispatch routes one decoded event.
func (a *App) dispatch(ev InputEvent) {
	switch ev.Type {
	case InputKey:
		a.dispatchKey(ev.Key)
	case InputMouse:
		a.dispatchMouse(ev.Mouse)
	}
}

func (a *App) dispatchKey(ev KeyEvent) {
	if ev.Key == KeyRune && ev.Rune == 'c' && ev.Mods.Has(ModCtrl) {
		a.Quit()
		return
	}

	moved, err := a.Focus.HandleKey(ev)
	if err != nil {
		a.sched.Report(err)
	}
	if moved {
		a.sched.FocusChanged()
		return
	}

	if n := a.Focus.FocusedNode(); n != nil && n.OnKey != nil {
		a.invoke(n.ID, func() error { return n.OnKey(ev) })
		return
	}
	if a.OnKey != nil {
		a.invoke(0, func() error { return a.OnKey(ev) })
	}
}

func (a *App) dispatchMouse(ev MouseEvent) {
	id := a.Focus.HitTest(ev.X, ev.Y)
	if id == 0 {
		return
	}
	n := a.Tree.Get(id)
	if n == nil {
		return
	}

	if ev.Action == MousePress && ev.Button == MouseLeft && n.Focusable && !n.Disabled {
		if err := a.Focus.Focus(id); err != nil {
			a.sched.Report(err)
		}
		a.sched.FocusChanged()
	}
	if n.OnClick != nil {
		a.invoke(n.ID, func() error { return n.OnClick(ev) })
	}
}

// invoke runs a node callback with panic recovery. Errors and panics go to
// the error channel; the loop never stops for them.
func (a *App) invoke(id NodeID, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			a.sched.Report(&RuntimeError{Phase: PhaseInput, Node: id, Err: fmt.Errorf("callback panic: %v", r)})
		}
	}()
	if err := fn(); err != nil {
		a.sched.Report(&RuntimeError{Phase: PhaseInput, Node: id, Err: err})
	}
}
