package loom

import "unicode/utf8"

// InputEventType distinguishes decoded input events.
type InputEventType uint8

const (
	InputKey InputEventType = iota
	InputMouse
)

// InputEvent is one decoded terminal input event.
type InputEvent struct {
	Type  InputEventType
	Key   KeyEvent
	Mouse MouseEvent
}

func keyEvent(k Key, mods Modifier) InputEvent {
	return InputEvent{Type: InputKey, Key: KeyEvent{Key: k, Mods: mods}}
}

func runeEvent(r rune, mods Modifier) InputEvent {
	return InputEvent{Type: InputKey, Key: KeyEvent{Key: KeyRune, Rune: r, Mods: mods}}
}

// maxPendingEscape bounds the bytes retained while waiting for the rest of
// an escape sequence. Anything longer is malformed input and is discarded
// so a hostile byte stream cannot grow the buffer without limit.
const maxPendingEscape = 64

// InputDecoder turns raw terminal bytes into key and mouse events. It is a
// state machine over an internal buffer, so multi-byte sequences split
// across reads decode correctly: feed it whatever chunks arrive and it
// emits events as soon as they are complete.
type InputDecoder struct {
	buf []byte
}

// NewInputDecoder creates an empty decoder.
func NewInputDecoder() *InputDecoder {
	return &InputDecoder{buf: make([]byte, 0, 128)}
}

// Pending returns the number of buffered bytes awaiting completion.
func (d *InputDecoder) Pending() int {
	return len(d.buf)
}

// FlushEscape resolves a lone buffered ESC into an Escape key press. The
// read loop calls this after a read timeout, which is the only way to
// distinguish the Escape key from the start of an escape sequence.
func (d *InputDecoder) FlushEscape() (InputEvent, bool) {
	if len(d.buf) == 1 && d.buf[0] == 0x1b {
		d.buf = d.buf[:0]
		return keyEvent(KeyEscape, 0), true
	}
	return InputEvent{}, false
}

// Feed appends a chunk of raw bytes and returns all events that are now
// complete. Incomplete trailing sequences stay buffered for the next call.
func (d *InputDecoder) Feed(data []byte) []InputEvent {
	d.buf = append(d.buf, data...)

	var events []InputEvent
	i := 0
	n := len(d.buf)

	for i < n {
		b := d.buf[i]

		// Printable ASCII fast path.
		if b >= 0x20 && b < 0x7f {
			events = append(events, runeEvent(rune(b), 0))
			i++
			continue
		}

		if b == 0x1b {
			consumed, evs := d.parseEscape(d.buf[i:])
			if consumed == 0 {
				break // incomplete, wait for more bytes
			}
			events = append(events, evs...)
			i += consumed
			continue
		}

		if b < 0x20 {
			events = append(events, parseControl(b))
			i++
			continue
		}

		if b == 0x7f {
			events = append(events, keyEvent(KeyBackspace, 0))
			i++
			continue
		}

		// UTF-8 multibyte literal.
		seqLen := utf8SeqLen(b)
		if seqLen == 0 {
			i++ // invalid start byte, skip
			continue
		}
		if i+seqLen > n {
			break // incomplete, wait for more bytes
		}
		r, size := utf8.DecodeRune(d.buf[i:])
		events = append(events, runeEvent(r, 0))
		i += size
	}

	// Compact consumed bytes, bounding the retained remainder.
	if i > 0 {
		copy(d.buf, d.buf[i:])
		d.buf = d.buf[:n-i]
	}
	if len(d.buf) > maxPendingEscape {
		d.buf = d.buf[:0]
	}
	return events
}

// parseControl maps control bytes. Bytes 0x01-0x1a are ctrl+letter by
// code-point arithmetic, with the overlapping terminal keys (tab, enter,
// backspace) carved out first.
func parseControl(b byte) InputEvent {
	switch b {
	case 0x08:
		return keyEvent(KeyBackspace, 0)
	case 0x09:
		return keyEvent(KeyTab, 0)
	case 0x0a, 0x0d:
		return keyEvent(KeyEnter, 0)
	case 0x1b:
		return keyEvent(KeyEscape, 0)
	}
	if b >= 0x01 && b <= 0x1a {
		return runeEvent(rune('a'+b-1), ModCtrl)
	}
	return keyEvent(KeyNone, 0)
}

func utf8SeqLen(b byte) int {
	switch {
	case b&0xe0 == 0xc0:
		return 2
	case b&0xf0 == 0xe0:
		return 3
	case b&0xf8 == 0xf0:
		return 4
	}
	return 0
}

// parseEscape parses one escape-prefixed sequence. Returns 0 consumed when
// the sequence is incomplete.
func (d *InputDecoder) parseEscape(data []byte) (int, []InputEvent) {
	if len(data) < 2 {
		return 0, nil
	}

	switch data[1] {
	case '[':
		return d.parseCSI(data)
	case 'O':
		return d.parseSS3(data)
	case 0x1b:
		return 2, []InputEvent{keyEvent(KeyEscape, ModAlt)}
	}

	// Alt-modified byte.
	if data[1] < 0x20 {
		ev := parseControl(data[1])
		ev.Key.Mods |= ModAlt
		return 2, []InputEvent{ev}
	}
	if data[1] >= 0x20 && data[1] < 0x7f {
		return 2, []InputEvent{runeEvent(rune(data[1]), ModAlt)}
	}
	return 2, nil // swallow unknowns
}

// csiKeys maps CSI final letters with no parameters to keys.
var csiKeys = map[byte]Key{
	'A': KeyUp,
	'B': KeyDown,
	'C': KeyRight,
	'D': KeyLeft,
	'H': KeyHome,
	'F': KeyEnd,
	'Z': KeyBacktab,
}

// csiTildeKeys maps "CSI n ~" parameter values to keys.
var csiTildeKeys = map[int]Key{
	1: KeyHome,
	2: KeyInsert,
	3: KeyDelete,
	4: KeyEnd,
	5: KeyPageUp,
	6: KeyPageDown,
	7: KeyHome,
	8: KeyEnd,
}

// parseCSI parses a CSI sequence (navigation keys and mouse reports).
func (d *InputDecoder) parseCSI(data []byte) (int, []InputEvent) {
	if len(data) < 3 {
		return 0, nil
	}

	if data[2] == '<' {
		return d.parseSGRMouse(data)
	}
	if data[2] == 'M' {
		return d.parseLegacyMouse(data)
	}

	// Scan to the final byte.
	end := 2
	for end < len(data) && end < maxPendingEscape {
		b := data[end]
		if (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || b == '~' {
			break
		}
		if b != ';' && (b < '0' || b > '9') {
			return end + 1, nil // malformed, discard
		}
		end++
	}
	if end >= len(data) {
		return 0, nil // incomplete
	}
	if end >= maxPendingEscape {
		return skipToEscape(data, end), nil // over budget, discard
	}

	final := data[end]
	params := parseParams(data[2:end])

	mods := Modifier(0)
	if len(params) >= 2 {
		mods = decodeXtermMods(params[1])
	}

	if final == '~' {
		if len(params) > 0 {
			if k, ok := csiTildeKeys[params[0]]; ok {
				return end + 1, []InputEvent{keyEvent(k, mods)}
			}
		}
		return end + 1, nil
	}
	if k, ok := csiKeys[final]; ok {
		if final == 'Z' {
			mods |= ModShift
		}
		return end + 1, []InputEvent{keyEvent(k, mods)}
	}
	return end + 1, nil // valid but unrecognized, swallow
}

// parseSS3 parses ESC O sequences (application cursor keys).
func (d *InputDecoder) parseSS3(data []byte) (int, []InputEvent) {
	if len(data) < 3 {
		return 0, nil
	}
	if k, ok := csiKeys[data[2]]; ok {
		return 3, []InputEvent{keyEvent(k, 0)}
	}
	return 3, nil
}

// skipToEscape consumes the tail of a discarded sequence: everything up to
// the next ESC, or the end of the data. Resuming literal decoding inside a
// half-discarded sequence would leak its parameter bytes as keypresses.
func skipToEscape(data []byte, from int) int {
	for i := from; i < len(data); i++ {
		if data[i] == 0x1b {
			return i
		}
	}
	return len(data)
}

// decodeXtermMods maps the xterm modifier parameter (value minus one is a
// bitmask: 1=shift, 2=alt, 4=ctrl).
func decodeXtermMods(p int) Modifier {
	var m Modifier
	bits := p - 1
	if bits&1 != 0 {
		m |= ModShift
	}
	if bits&2 != 0 {
		m |= ModAlt
	}
	if bits&4 != 0 {
		m |= ModCtrl
	}
	return m
}

// parseParams splits semicolon-separated decimal CSI parameters.
func parseParams(data []byte) []int {
	if len(data) == 0 {
		return nil
	}
	params := make([]int, 0, 4)
	val := 0
	for _, b := range data {
		if b == ';' {
			params = append(params, val)
			val = 0
			continue
		}
		val = val*10 + int(b-'0')
	}
	return append(params, val)
}

// parseLegacyMouse parses the X10/normal-tracking report: CSI M b x y with
// each byte offset by 32.
func (d *InputDecoder) parseLegacyMouse(data []byte) (int, []InputEvent) {
	if len(data) < 6 {
		return 0, nil
	}
	btn := int(data[3]) - 32
	x := int(data[4]) - 32 - 1
	y := int(data[5]) - 32 - 1

	ev := decodeMouseButton(btn, btn&3 == 3)
	ev.Mouse.X = x
	ev.Mouse.Y = y
	return 6, []InputEvent{ev}
}

// parseSGRMouse parses the SGR-extended report: CSI < btn ; x ; y M|m.
// Several reports often arrive concatenated in one chunk; Feed's outer loop
// picks up each in turn.
func (d *InputDecoder) parseSGRMouse(data []byte) (int, []InputEvent) {
	end := 3
	for end < len(data) && end < maxPendingEscape {
		if data[end] == 'M' || data[end] == 'm' {
			break
		}
		b := data[end]
		if b != ';' && (b < '0' || b > '9') {
			return end + 1, nil // malformed, discard
		}
		end++
	}
	if end >= len(data) {
		return 0, nil // incomplete
	}
	if end >= maxPendingEscape {
		return skipToEscape(data, end), nil
	}

	params := parseParams(data[3:end])
	if len(params) != 3 {
		return end + 1, nil
	}
	btn, x, y := params[0], params[1], params[2]

	ev := decodeMouseButton(btn, data[end] == 'm')
	ev.Mouse.X = x - 1
	ev.Mouse.Y = y - 1
	return end + 1, []InputEvent{ev}
}

// decodeMouseButton decodes the shared button byte of both mouse protocols.
// Bits 0-1 select the button, bit 5 flags motion, bit 6 the wheel, and
// bits 2-4 carry shift/alt/ctrl.
func decodeMouseButton(btn int, release bool) InputEvent {
	ev := InputEvent{Type: InputMouse}
	buttonID := btn & 3
	motion := btn&32 != 0
	wheel := btn&64 != 0

	switch {
	case wheel:
		if buttonID == 0 {
			ev.Mouse.Button = MouseWheelUp
		} else {
			ev.Mouse.Button = MouseWheelDown
		}
		ev.Mouse.Action = MousePress
	case release:
		switch buttonID {
		case 0:
			ev.Mouse.Button = MouseLeft
		case 1:
			ev.Mouse.Button = MouseMiddle
		case 2:
			ev.Mouse.Button = MouseRight
		default:
			ev.Mouse.Button = MouseNone
		}
		ev.Mouse.Action = MouseRelease
	case motion:
		if buttonID == 3 {
			ev.Mouse.Button = MouseNone
			ev.Mouse.Action = MouseMove
		} else {
			ev.Mouse.Button = MouseButton(buttonID + 1)
			ev.Mouse.Action = MouseDrag
		}
	default:
		switch buttonID {
		case 0:
			ev.Mouse.Button = MouseLeft
		case 1:
			ev.Mouse.Button = MouseMiddle
		case 2:
			ev.Mouse.Button = MouseRight
		default:
			ev.Mouse.Button = MouseNone
		}
		ev.Mouse.Action = MousePress
	}

	if btn&4 != 0 {
		ev.Mouse.Mods |= ModShift
	}
	if btn&8 != 0 {
		ev.Mouse.Mods |= ModAlt
	}
	if btn&16 != 0 {
		ev.Mouse.Mods |= ModCtrl
	}
	return ev
}
