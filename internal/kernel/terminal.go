package kernel

// terminal.go implements the terminal line discipline: spec.md §4.8.
//
// Grounded on original_source/terminal.c's file-scope buf_local/buf_ready/
// buf_size_in state and its copy_buffer keyboard hand-off, and on
// internal/tty/tty.go for how the teacher adapts a real console to a
// simulated device boundary.

import (
	"context"
	"sync"

	"github.com/go-edukernel/mp3os/internal/log"
)

const lineBufferSize = 128

// screenCols and screenRows are the fixed VGA text-mode geometry.
const (
	screenCols = 80
	screenRows = 25
)

// Screen is one terminal's 80x25 character grid and cursor position. It is
// the destination terminal_write renders into; spec.md's video
// arbitration (sched.go) decides whether a given Screen is currently
// backed by the real framebuffer or a backing page -- that distinction is
// invisible here.
type Screen struct {
	Cells  [screenRows][screenCols]byte
	X, Y   int
}

// Clear blanks the screen and homes the cursor, matching
// original_source/terminal.c's clear() call sites.
func (s *Screen) Clear() {
	for y := range s.Cells {
		for x := range s.Cells[y] {
			s.Cells[y][x] = ' '
		}
	}
	s.X, s.Y = 0, 0
}

// PutChar writes one byte to the screen honoring backspace, tab (4-column
// stops), newline, and scroll-on-overflow, the same four special cases
// original_source/terminal.c's putc() handles.
func (s *Screen) PutChar(b byte) {
	switch b {
	case '\b':
		if s.X > 0 {
			s.X--
			s.Cells[s.Y][s.X] = ' '
		}
	case '\t':
		next := (s.X + 4) &^ 3
		for s.X < next && s.X < screenCols {
			s.Cells[s.Y][s.X] = ' '
			s.X++
		}
	case '\n':
		s.X = 0
		s.Y++
	default:
		s.Cells[s.Y][s.X] = b
		s.X++
		if s.X >= screenCols {
			s.X = 0
			s.Y++
		}
	}

	if s.Y >= screenRows {
		s.scroll()
	}
}

func (s *Screen) scroll() {
	copy(s.Cells[:screenRows-1], s.Cells[1:])
	for x := range s.Cells[screenRows-1] {
		s.Cells[screenRows-1][x] = ' '
	}
	s.Y = screenRows - 1
}

// terminalBuf is one terminal's line-discipline state.
type terminalBuf struct {
	mu    sync.Mutex
	cond  *sync.Cond
	buf   [lineBufferSize]byte
	size  int
	ready bool
}

// LineDiscipline owns the three terminals' independent line buffers.
type LineDiscipline struct {
	term [NumTerminals]*terminalBuf

	log *log.Logger
}

// NewLineDiscipline constructs three empty, not-ready line buffers.
func NewLineDiscipline() *LineDiscipline {
	ld := &LineDiscipline{log: log.DefaultLogger()}
	for i := range ld.term {
		tb := &terminalBuf{}
		tb.cond = sync.NewCond(&tb.mu)
		ld.term[i] = tb
	}

	return ld
}

func (ld *LineDiscipline) withLogger(logger *log.Logger) {
	ld.log = logger
}

// Reset clears tid's buffer and ready flag, matching
// original_source/terminal.c's terminal_open(&tid) behavior.
func (ld *LineDiscipline) Reset(tid TermID) {
	tb := ld.term[tid]
	tb.mu.Lock()
	tb.size = 0
	tb.ready = false
	tb.mu.Unlock()
}

// ResetAll clears every terminal's buffer, matching terminal_open(NULL).
func (ld *LineDiscipline) ResetAll() {
	for i := range ld.term {
		ld.Reset(TermID(i))
	}
}

// FeedLine is the keyboard driver's hand-off into a terminal's buffer: it
// is the boundary this core consumes (spec.md §1's scope line "the core
// consumes a completed input line from the keyboard driver"). Grounded on
// original_source/terminal.c's copy_buffer.
func (ld *LineDiscipline) FeedLine(tid TermID, line []byte) {
	tb := ld.term[tid]
	tb.mu.Lock()
	defer tb.mu.Unlock()

	n := copy(tb.buf[:], line)
	tb.size = n
	tb.ready = true
	tb.cond.Broadcast()
}

// Read implements terminal_read: reset the buffer, block until the
// keyboard driver marks a line ready, then copy up to len(out) bytes.
// Unlike the source's interrupts-enabled spin loop, this blocks on a
// condition variable -- the Go-native reading of spec.md §9's
// yield-on-tick guidance -- and additionally respects ctx cancellation.
func (ld *LineDiscipline) Read(ctx context.Context, tid TermID, out []byte) (int, error) {
	ld.Reset(tid)

	tb := ld.term[tid]

	done := make(chan struct{})
	go func() {
		tb.mu.Lock()
		for !tb.ready {
			tb.cond.Wait()
		}
		tb.mu.Unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return 0, ctx.Err()
	}

	tb.mu.Lock()
	defer tb.mu.Unlock()

	n := copy(out, tb.buf[:tb.size])

	return n, nil
}

// Write renders raw bytes onto screen, honoring the line-discipline
// special characters (spec.md §4.8: terminal_write).
func (ld *LineDiscipline) Write(screen *Screen, data []byte) int {
	for _, b := range data {
		screen.PutChar(b)
	}

	return len(data)
}

// CRTC cursor-position register indices, kept as documented constants even
// though no physical CRTC is programmed (spec.md §6's port map boundary;
// supplemented from original_source/terminal.c's enable_cursor).
const (
	crtcIndexPort = 0x3D4
	crtcDataPort  = 0x3D5
	crtcCursorHi  = 0x0E
	crtcCursorLo  = 0x0F
	crtcEnableHi  = 0x0A
	crtcEnableLo  = 0x0B
)
