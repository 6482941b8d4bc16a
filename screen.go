package loom

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/mattn/go-runewidth"
	"golang.org/x/sys/unix"
)

// Screen manages the terminal display with double buffering and diff-based
// updates. It owns the process-wide terminal state: raw mode, the alternate
// screen, mouse tracking and cursor visibility, all restored on Close.
type Screen struct {
	front  *Buffer   // what is currently displayed
	back   *Buffer   // what we're drawing to
	writer io.Writer // output destination (usually os.Stdout)
	fd     int       // file descriptor for terminal ioctls

	width  int
	height int

	origTermios *unix.Termios
	inRawMode   bool
	mouseOn     bool
	painted     bool // false until the first flush; forces a full redraw

	resizeChan chan Size
	sigChan    chan os.Signal

	lastStyle Style  // last style emitted, to skip redundant SGRs
	out       []byte // reusable output buffer

	mu sync.Mutex
}

// Size represents terminal dimensions.
type Size struct {
	Width  int
	Height int
}

// NewScreen creates a screen writing to the given writer. Pass nil to use
// os.Stdout. The size is taken from the terminal, falling back to 80x24
// when the output is not a terminal.
func NewScreen(w io.Writer) (*Screen, error) {
	if w == nil {
		w = os.Stdout
	}
	fd := int(os.Stdout.Fd())
	width, height, err := terminalSize(fd)
	if err != nil {
		width, height = 80, 24
	}
	return newScreen(w, fd, width, height), nil
}

// NewScreenSize creates a screen with a fixed size, bypassing terminal
// detection. Used by tests and non-interactive rendering.
func NewScreenSize(w io.Writer, width, height int) *Screen {
	return newScreen(w, -1, width, height)
}

func newScreen(w io.Writer, fd, width, height int) *Screen {
	if w == nil {
		w = io.Discard
	}
	return &Screen{
		front:      NewBuffer(width, height),
		back:       NewBuffer(width, height),
		writer:     w,
		fd:         fd,
		width:      width,
		height:     height,
		resizeChan: make(chan Size, 1),
		sigChan:    make(chan os.Signal, 1),
		lastStyle:  DefaultStyle(),
	}
}

func terminalSize(fd int) (int, int, error) {
	ws, err := unix.IoctlGetWinsize(fd, unix.TIOCGWINSZ)
	if err != nil {
		return 0, 0, err
	}
	return int(ws.Col), int(ws.Row), nil
}

// Size returns the current screen dimensions.
func (s *Screen) Size() Size {
	return Size{Width: s.width, Height: s.height}
}

// Buffer returns the back buffer for drawing.
func (s *Screen) Buffer() *Buffer {
	return s.back
}

// ResizeChan returns a channel receiving size updates on terminal resize.
func (s *Screen) ResizeChan() <-chan Size {
	return s.resizeChan
}

// EnterRawMode puts the terminal into raw mode, switches to the alternate
// screen and hides the cursor.
func (s *Screen) EnterRawMode() error {
	if s.inRawMode {
		return nil
	}

	termios, err := unix.IoctlGetTermios(s.fd, ioctlGetTermios)
	if err != nil {
		return fmt.Errorf("get termios: %w", err)
	}
	s.origTermios = termios

	raw := *termios
	raw.Iflag &^= unix.BRKINT | unix.ICRNL | unix.INPCK | unix.ISTRIP | unix.IXON
	raw.Oflag &^= unix.OPOST
	raw.Cflag |= unix.CS8
	raw.Lflag &^= unix.ECHO | unix.ICANON | unix.ISIG | unix.IEXTEN
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(s.fd, ioctlSetTermios, &raw); err != nil {
		return fmt.Errorf("set raw mode: %w", err)
	}
	s.inRawMode = true

	signal.Notify(s.sigChan, syscall.SIGWINCH)
	go s.handleWinch()

	s.writeString(escAltScreenOn)
	s.writeString(escClearScreen)
	s.writeString(escCursorHome)
	s.writeString(escHideCursor)
	return nil
}

// ExitRawMode restores the terminal: cursor shown, alternate screen left,
// termios restored. Safe to call more than once.
func (s *Screen) ExitRawMode() error {
	if !s.inRawMode {
		return nil
	}

	s.DisableMouse()
	s.writeString(escResetStyle)
	s.writeString(escShowCursor)
	s.writeString(escAltScreenOff)

	signal.Stop(s.sigChan)

	if s.origTermios != nil {
		if err := unix.IoctlSetTermios(s.fd, ioctlSetTermios, s.origTermios); err != nil {
			return fmt.Errorf("restore termios: %w", err)
		}
	}
	s.inRawMode = false
	return nil
}

// EnableMouse turns on button, motion and SGR-extended mouse tracking.
func (s *Screen) EnableMouse() {
	if s.mouseOn {
		return
	}
	s.writeString(escMouseOn)
	s.mouseOn = true
}

// DisableMouse turns mouse tracking off.
func (s *Screen) DisableMouse() {
	if !s.mouseOn {
		return
	}
	s.writeString(escMouseOff)
	s.mouseOn = false
}

// handleWinch reacts to terminal resize signals.
func (s *Screen) handleWinch() {
	for range s.sigChan {
		width, height, err := terminalSize(s.fd)
		if err != nil {
			continue
		}
		if width == s.width && height == s.height {
			continue
		}
		s.mu.Lock()
		s.width = width
		s.height = height
		s.front.Resize(width, height)
		s.back.Resize(width, height)
		s.front.Clear()
		s.back.Clear()
		s.painted = false
		s.writeString(escClearScreen)
		s.mu.Unlock()

		select {
		case s.resizeChan <- Size{Width: width, Height: height}:
		default:
		}
	}
}

// Invalidate forces the next flush to be a full redraw. The renderer calls
// this after focus changes, where diffing around focus indicators is
// unreliable.
func (s *Screen) Invalidate() {
	s.mu.Lock()
	s.painted = false
	s.mu.Unlock()
}

// Flush writes the back buffer to the terminal and returns the number of
// bytes emitted. The first flush after creation, a resize or Invalidate is
// a full redraw; later flushes emit only changed cell runs, coalescing
// consecutive same-style characters into single styled spans.
func (s *Screen) Flush() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.painted {
		n := s.flushFull()
		s.painted = true
		return n
	}
	return s.flushDiff()
}

// flushDiff emits escape writes only for cells that differ from the front
// buffer. Unchanged frames emit nothing at all.
func (s *Screen) flushDiff() int {
	s.out = s.out[:0]
	cursorX, cursorY := -1, -1
	changed := false

	for y := 0; y < s.height; y++ {
		if !s.back.RowDirty(y) {
			continue
		}
		for x := 0; x < s.width; x++ {
			backCell := s.back.Get(x, y)
			if backCell.VisualEqual(s.front.Get(x, y)) {
				continue
			}
			// Wide-rune placeholders are covered by the preceding cell.
			if backCell.Rune == 0 {
				s.front.SetRaw(x, y, backCell)
				continue
			}
			changed = true

			if cursorX != x || cursorY != y {
				s.out = appendCursorTo(s.out, x, y)
			}
			s.writeCell(backCell)
			s.front.SetRaw(x, y, backCell)

			rw := runewidth.RuneWidth(backCell.Rune)
			if rw == 0 {
				rw = 1
			}
			cursorX, cursorY = x+rw, y
		}
	}

	if changed {
		s.out = append(s.out, escResetStyle...)
		s.lastStyle = DefaultStyle()
	}
	s.back.ClearDirty()

	if len(s.out) == 0 {
		return 0
	}
	n, _ := s.writer.Write(s.out)
	return n
}

// flushFull clears the screen and writes every cell as styled runs.
func (s *Screen) flushFull() int {
	s.out = s.out[:0]
	s.out = append(s.out, escClearScreen...)
	s.out = append(s.out, escCursorHome...)

	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			cell := s.back.Get(x, y)
			if cell.Rune == 0 {
				s.front.SetRaw(x, y, cell)
				continue
			}
			s.writeCell(cell)
			s.front.SetRaw(x, y, cell)
		}
		if y < s.height-1 {
			s.out = append(s.out, "\r\n"...)
		}
	}

	s.out = append(s.out, escResetStyle...)
	s.lastStyle = DefaultStyle()
	s.back.ClearDirty()

	n, _ := s.writer.Write(s.out)
	return n
}

// writeCell appends a cell's style (when it changed) and rune.
func (s *Screen) writeCell(cell Cell) {
	if !cell.Style.Equal(s.lastStyle) {
		s.out = AppendSGR(s.out, cell.Style)
		s.lastStyle = cell.Style
	}
	s.out = append(s.out, string(cell.Rune)...)
}

// MoveCursorBelow positions the cursor on the row after the last rendered
// content and shows it. Used during teardown so the shell prompt returns
// to a sane place.
func (s *Screen) MoveCursorBelow() {
	last := 0
	for y := s.height - 1; y >= 0; y-- {
		rowUsed := false
		for x := 0; x < s.width; x++ {
			c := s.front.Get(x, y)
			if c.Rune != 0 && c.Rune != ' ' {
				rowUsed = true
				break
			}
		}
		if rowUsed {
			last = y + 1
			break
		}
	}
	if last >= s.height {
		last = s.height - 1
	}
	var b []byte
	b = appendCursorTo(b, 0, last)
	b = append(b, escShowCursor...)
	s.writer.Write(b)
}

// Clear clears the back buffer.
func (s *Screen) Clear() {
	s.back.Clear()
}

func (s *Screen) writeString(str string) {
	io.WriteString(s.writer, str)
}
