package kernel

// critical.go implements spec.md §5's "progress" flag: the kernel's sole
// explicit synchronization primitive, bracketing the paging/VRAM/running-
// PCB mutations a fault must never observe half done. Grounded on
// SPEC_FULL.md §5: a sync.Mutex wrapped so call sites read like the
// original's progress = 1 / progress = 0 bracketing, but additionally
// queryable -- a plain sync.Mutex can't tell a caller whether it is
// currently held, and except.go's Report needs exactly that to decide
// whether a fault landed in the middle of a kernel critical section.

import "sync"

type criticalSection struct {
	mu   sync.Mutex
	held bool
}

// enter brackets the start of a critical section, matching the source's
// progress = 1.
func (c *criticalSection) enter() {
	c.mu.Lock()
	c.held = true
}

// exit brackets the end of a critical section, matching progress = 0.
func (c *criticalSection) exit() {
	c.held = false
	c.mu.Unlock()
}

// inProgress reports whether a critical section is currently held.
func (c *criticalSection) inProgress() bool {
	return c.held
}
