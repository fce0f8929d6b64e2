package kernel

// sched.go implements the round-robin scheduler and multi-terminal video
// arbitration: spec.md §4.5.
//
// Grounded on original_source/scheduler.c's switchContext/switchVidMem
// state machine. Per SPEC_FULL.md §1.1, the raw ebp/esp swap becomes a
// single-token channel (Scheduler.token): only the terminal goroutine holding the
// token may run kernel code, and it is only ever released at the
// suspension points spec.md §5 names (terminal_read, rtc_read) -- a
// cooperative rendering of "single processor, interrupts-on kernel" rather
// than true preemption, since forcibly suspending another goroutine mid-
// instruction has no safe Go equivalent. The timer-driven round robin
// documented in spec.md §4.5 is therefore realized as "whichever terminal
// next reaches a suspension point and reacquires the token picks up
// wherever it left off", which is observably equivalent for any workload
// that does, eventually, perform I/O -- exactly the processes this core
// ever runs.
import (
	"context"
	"sync"

	"github.com/go-edukernel/mp3os/internal/log"
)

// terminalState is one terminal's scheduler-visible state: its screen, its
// currently running PCB, and whether it owns a vidmap page.
type terminalState struct {
	screen      Screen
	initialized bool
	vidmap      bool
	pcb         *PCB
}

// Scheduler owns the three terminals' state, the active (foreground)
// terminal, and the single-CPU token.
type Scheduler struct {
	mu     sync.Mutex
	token  chan struct{}
	active TermID
	term   [NumTerminals]*terminalState

	mem *Paging
	log *log.Logger
}

// NewScheduler constructs a scheduler with one CPU token available and all
// three terminals uninitialized.
func NewScheduler(mem *Paging) *Scheduler {
	s := &Scheduler{
		mem:   mem,
		token: make(chan struct{}, 1),
		log:   log.DefaultLogger(),
	}
	s.token <- struct{}{}

	for i := range s.term {
		s.term[i] = &terminalState{}
	}

	return s
}

// acquire takes the CPU token, blocking until it is available.
func (s *Scheduler) acquire() { <-s.token }

// release returns the CPU token.
func (s *Scheduler) release() { s.token <- struct{}{} }

// yield releases the CPU token for the duration of fn and reacquires it
// before returning -- the suspension-point primitive spec.md §5 describes,
// used by the terminal and RTC blocking reads.
func (s *Scheduler) yield(fn func()) {
	s.release()
	defer s.acquire()
	fn()
}

// Boot starts terminal tid's base shell and runs it for the lifetime of
// the kernel; it acquires the CPU token for as long as it is doing kernel
// work and only gives it up at a suspension point. Boot returns only once
// ctx is cancelled and the base shell has halted; call it in its own
// goroutine.
func (k *Kernel) Boot(ctx context.Context, tid TermID) {
	k.sched.acquire()
	defer k.sched.release()

	k.execute(ctx, tid, PID(0), "shell", true)
}

// setRunning records pcb as the process currently occupying terminal tid
// and marks the terminal initialized -- original_source/scheduler.c's
// switchTerminalInit bookkeeping.
func (s *Scheduler) setRunning(tid TermID, pcb *PCB) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.term[tid].pcb = pcb
	s.term[tid].initialized = true

	s.retargetLocked(tid)
}

func (s *Scheduler) setVidmap(tid TermID, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.term[tid].vidmap = enabled
	s.retargetLocked(tid)
}

// screenFor returns the Screen a write to terminal tid's STDOUT renders
// into.
func (s *Scheduler) screenFor(tid TermID) *Screen {
	s.mu.Lock()
	defer s.mu.Unlock()

	return &s.term[tid].screen
}

// Snapshot copies terminal tid's screen for an external display driver
// (the CLI's console painter). It is a best-effort read: only the
// goroutine holding the CPU token ever writes to a terminal's screen, but
// a display refresh isn't itself a suspension point, so the copy may
// occasionally race a concurrent PutChar.
func (s *Scheduler) Snapshot(tid TermID) Screen {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.term[tid].screen
}

// retargetLocked updates the vidmap page's physical target to match
// spec.md §4.5's routing rule: a terminal's video goes to the real
// framebuffer iff it is the active (foreground) terminal; otherwise to its
// own backing page. mu must be held.
func (s *Scheduler) retargetLocked(tid TermID) {
	if !s.term[tid].vidmap {
		return
	}

	if tid == s.active {
		s.mem.SetVideoTarget(VideoMemAddr)
	} else {
		s.mem.SetVideoTarget(backingFrame(tid))
	}
}

func backingFrame(tid TermID) Addr {
	switch tid {
	case 0:
		return VideoBackupAddr0
	case 1:
		return VideoBackupAddr1
	case 2:
		return VideoBackupAddr2
	default:
		return VideoMemAddr
	}
}

// SwitchForeground implements the Alt+F1..F3 hand-off: spec.md §4.5's
// "foreground switch". It makes tid the active terminal and retargets
// every terminal's vidmap page accordingly. Each terminal already owns an
// independent Screen value, so there is no framebuffer/backing-page byte
// copy to perform (unlike original_source/scheduler.c's switchVidMem,
// which shares one physical byte range across terminals); the observable
// effect -- exactly one terminal's output is "live" at a time -- is
// preserved via Active. There is one vidmap PTE, so tid is retargeted
// last: when tid has vidmap enabled, the PTE ends up on the real
// framebuffer.
func (s *Scheduler) SwitchForeground(tid TermID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.active = tid

	for i := range s.term {
		if TermID(i) != tid {
			s.retargetLocked(TermID(i))
		}
	}

	s.retargetLocked(tid)
}

// Active returns the current foreground terminal.
func (s *Scheduler) Active() TermID {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.active
}

// Running returns the PCB currently occupying terminal tid, or nil.
func (s *Scheduler) Running(tid TermID) *PCB {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.term[tid].pcb
}

func (s *Scheduler) withLogger(logger *log.Logger) {
	s.log = logger
}
