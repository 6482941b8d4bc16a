package loom

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// defaultResizeDebounce is how long resize bursts settle before a relayout.
// Terminals deliver a stream of SIGWINCH while the user drags the window
// edge; laying out on every one wastes work the next signal throws away.
const defaultResizeDebounce = 50 * time.Millisecond

// Scheduler coalesces tree mutations into render passes. Updates enqueued
// between passes run back to back before a single layout, composite and
// flush, so a burst of mutations costs one frame. Updates enqueued from
// inside a callback during a pass are deferred to the next pass rather than
// interleaved.
type Scheduler struct {
	tree   *Tree
	screen *Screen
	comp   *Compositor
	focus  *FocusManager
	log    zerolog.Logger

	mu        sync.Mutex
	queue     []func() error
	rendering bool

	wake chan struct{}
	errs chan error

	resizeDebounce time.Duration
	resizeTimer    *time.Timer

	lastFocused NodeID
	frames      uint64
}

// NewScheduler wires a scheduler over the session's parts.
func NewScheduler(t *Tree, s *Screen, comp *Compositor, focus *FocusManager, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		tree:           t,
		screen:         s,
		comp:           comp,
		focus:          focus,
		log:            log,
		wake:           make(chan struct{}, 1),
		errs:           make(chan error, 16),
		resizeDebounce: defaultResizeDebounce,
	}
}

// Wake returns a channel that receives a signal whenever work is pending.
// The session loop selects on it and calls RunPending.
func (s *Scheduler) Wake() <-chan struct{} { return s.wake }

// Errors returns the channel carrying runtime errors from callbacks and
// queued updates. The loop keeps running after errors; the channel exists
// so the application can observe them.
func (s *Scheduler) Errors() <-chan error { return s.errs }

// Update enqueues a mutation to run before the next render pass. Safe to
// call from any goroutine and from inside node callbacks.
func (s *Scheduler) Update(fn func() error) {
	s.mu.Lock()
	s.queue = append(s.queue, fn)
	s.mu.Unlock()
	s.signal()
}

// Request asks for a render pass without enqueuing a mutation.
func (s *Scheduler) Request() {
	s.tree.MarkDirty()
	s.signal()
}

func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// NoteResize schedules a relayout after a resize, debounced. The screen
// has already adjusted its buffers by the time the signal arrives here.
func (s *Scheduler) NoteResize() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resizeTimer != nil {
		s.resizeTimer.Stop()
	}
	s.resizeTimer = time.AfterFunc(s.resizeDebounce, func() {
		s.tree.MarkDirty()
		s.signal()
	})
}

// RunPending drains queued updates and, when the tree is dirty, runs one
// full render pass. Returns the number of bytes flushed to the terminal.
func (s *Scheduler) RunPending() int {
	s.mu.Lock()
	if s.rendering {
		s.mu.Unlock()
		return 0
	}
	s.rendering = true
	batch := s.queue
	s.queue = nil
	s.mu.Unlock()

	for _, fn := range batch {
		s.runUpdate(fn)
	}

	n := 0
	if s.tree.Dirty() {
		n = s.renderPass()
		s.tree.ClearDirty()
	}

	s.mu.Lock()
	s.rendering = false
	more := len(s.queue) > 0
	s.mu.Unlock()
	if more {
		s.signal()
	}
	return n
}

// runUpdate executes one queued update, recovering panics. A failing
// update is reported and skipped; it never stops the batch.
func (s *Scheduler) runUpdate(fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			s.report(&RuntimeError{Phase: PhaseRender, Err: fmt.Errorf("update panic: %v", r)})
		}
	}()
	if err := fn(); err != nil {
		s.report(&RuntimeError{Phase: PhaseRender, Err: err})
	}
}

// renderPass runs layout, composite and flush over the current tree.
func (s *Scheduler) renderPass() int {
	start := time.Now()

	size := s.screen.Size()
	viewport := Rect{W: size.Width, H: size.Height}
	LayoutTree(s.tree, viewport)

	s.focus.Rebuild()
	if err := s.focus.SyncOverlays(s.tree.OverlayCount()); err != nil {
		s.report(err)
	}
	if s.focus.Focused() != s.lastFocused {
		s.lastFocused = s.focus.Focused()
		s.screen.Invalidate()
	}

	s.screen.Clear()
	s.comp.Focused = s.focus.Focused()
	s.comp.Composite(s.tree, s.screen.Buffer())
	n := s.screen.Flush()

	s.frames++
	s.log.Debug().
		Uint64("frame", s.frames).
		Int("bytes", n).
		Dur("took", time.Since(start)).
		Msg("render pass")
	return n
}

// FocusChanged tells the scheduler a focus move happened outside a render
// pass (key navigation), forcing a full redraw on the next flush.
func (s *Scheduler) FocusChanged() {
	s.lastFocused = s.focus.Focused()
	s.screen.Invalidate()
	s.Request()
}

// Report delivers a runtime error to the error channel, logging and
// dropping it when nobody is draining. The input path uses it for handler
// errors so everything surfaces in one place.
func (s *Scheduler) Report(err error) {
	s.report(err)
}

func (s *Scheduler) report(err error) {
	s.log.Error().Err(err).Msg("runtime error")
	select {
	case s.errs <- err:
	default:
	}
}

// Stop cancels any pending resize debounce timer.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resizeTimer != nil {
		s.resizeTimer.Stop()
		s.resizeTimer = nil
	}
}
