// Package tty provides terminal emulation.
package tty

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"
	"time"

	"github.com/go-edukernel/mp3os/internal/kernel"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// Console is a serial console for the kernel simulated using Unix terminal
// I/O[^1]. It adapts a kernel terminal's line discipline and screen for use
// on contemporary systems[^2]: keystrokes typed at the console are
// assembled into lines (honoring backspace) and handed to the kernel's
// FeedLine once Enter is pressed; the terminal's Screen is polled and
// redrawn to the console.
//
// [1]: See: tty(4), termios(4).
// [2]: These systems, themselves, emulating electromechanical teletype devices, of course.
type Console struct {
	in    *os.File
	out   *term.Terminal
	fd    int
	state *term.State

	keyCh chan byte
}

// ErrNoTTY is returned if standard input is not a terminal. In this case, asynchronous I/O is
// not supported by the console.
var ErrNoTTY error = errors.New("console: not a TTY")

// ConsoleContext creates a Console attached to terminal tid of k, using the
// standard streams. Calling cancel restores the terminal state and stops
// the console's goroutines.
func ConsoleContext(parent context.Context, k *kernel.Kernel, tid kernel.TermID) (
	context.Context, *Console, context.CancelFunc,
) {
	ctx, cause := context.WithCancelCause(parent)

	console, err := NewConsole(os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		cause(err)

		return ctx, console, func() { cause(err) }
	}

	go console.readTerminal(ctx, k, tid, cause)
	go console.paintTerminal(ctx, k, tid, cause)

	return ctx, console, console.Restore
}

// NewConsole creates a Console using the provided streams. If the input stream is not a terminal,
// ErrNoTTY is returned. Callers are responsible for calling [Restore] to return the terminal to its
// initial state.
func NewConsole(sin, sout, serr *os.File) (*Console, error) {
	fd := int(sin.Fd())

	if !term.IsTerminal(fd) {
		return nil, ErrNoTTY
	}

	saved, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoTTY, err)
	}

	cons := Console{
		fd:    fd,
		in:    sin,
		out:   term.NewTerminal(sout, ""),
		state: saved,
		keyCh: make(chan byte, 1),
	}

	err = cons.setTerminalParams(1, 0)
	if err != nil {
		return nil, err
	}

	return &cons, nil
}

// Writer returns an io.Writer that writes to the terminal.
func (c Console) Writer() io.Writer {
	return c.out
}

// Restore returns the terminal to its initial state and cancels in-progress reads.
func (c *Console) Restore() {
	_ = os.Stdin.SetReadDeadline(time.Now())
	_ = term.Restore(c.fd, c.state)
}

func (c *Console) setTerminalParams(vmin, vtime byte) error {
	_ = syscall.SetNonblock(c.fd, true)

	termIO, err := unix.IoctlGetTermios(c.fd, getTermiosIoctl)
	if err != nil {
		return err
	}

	termIO.Cc[unix.VMIN] = vmin
	termIO.Cc[unix.VTIME] = vtime

	err = unix.IoctlSetTermios(c.fd, setTermiosIoctl, termIO)
	if err != nil {
		return err
	}

	_ = os.Stdin.SetReadDeadline(time.Time{})

	return nil
}

// readTerminal reads bytes from the terminal, assembles them into lines
// (honoring backspace, echoing locally), and hands each completed line to
// tid's line discipline -- the stand-in for a real keyboard interrupt
// handler, which spec.md §1 puts out of scope.
func (c Console) readTerminal(ctx context.Context, k *kernel.Kernel, tid kernel.TermID, cancel context.CancelCauseFunc) {
	buf := bufio.NewReader(c.in)

	_ = syscall.SetNonblock(c.fd, false)

	line := make([]byte, 0, 128)

	for { // ever and ever
		select {
		case <-ctx.Done():
			return
		default:
		}

		b, err := buf.ReadByte()
		if err != nil {
			cancel(err)
			return
		}

		switch b {
		case '\r', '\n':
			fmt.Fprint(c.out, "\r\n")
			line = append(line, '\n')
			k.FeedLine(tid, line)
			line = line[:0]
		case 0x7f, '\b': // backspace/delete
			if len(line) > 0 {
				line = line[:len(line)-1]
				fmt.Fprint(c.out, "\b \b")
			}
		case 0x03: // Ctrl+C
			k.Interrupt(tid, kernel.SigInterrupt)
		default:
			if len(line) < cap(line) {
				line = append(line, b)
				fmt.Fprintf(c.out, "%c", b)
			}
		}
	}
}

// paintTerminal polls tid's screen and redraws it to the console whenever
// it changes.
func (c Console) paintTerminal(ctx context.Context, k *kernel.Kernel, tid kernel.TermID, cancel context.CancelCauseFunc) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	var last kernel.Screen

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			screen := k.Screen(tid)
			if screen == last {
				continue
			}

			last = screen

			if _, err := fmt.Fprint(c.out, "\033[2J\033[H"); err != nil {
				cancel(err)
				return
			}

			for y := range screen.Cells {
				if _, err := fmt.Fprintln(c.out, string(screen.Cells[y][:])); err != nil {
					cancel(err)
					return
				}
			}
		}
	}
}
